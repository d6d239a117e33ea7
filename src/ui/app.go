package ui

import (
	"context"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"screen-translator/src/hotkey"
	"screen-translator/src/notes"
	"screen-translator/src/pipeline"
	"screen-translator/src/worker"
)

const windowTitle = "Screen Translator"

// Options wires the components an App drives.
type Options struct {
	Store    *notes.Store
	Pipeline *pipeline.Pipeline
	Pool     *worker.Pool
	// CopyText writes to the system clipboard. Nil disables the Copy button.
	CopyText func(string) error
}

// App is the state shared by every UI handler: the note store, the
// pipeline, the worker pool and the widgets they update.
type App struct {
	win      fyne.Window
	ctx      context.Context
	store    *notes.Store
	pipeline *pipeline.Pipeline
	pool     *worker.Pool
	copyText func(string) error

	// Translate tab
	original   *widget.Entry
	translated *widget.Entry
	title      *widget.Entry
	status     *widget.Label
	captureBtn *widget.Button
	translBtn  *widget.Button
	copyBtn    *widget.Button

	// Notes tab
	noteList *widget.List
	viewer   *widget.Label
	titles   []string
	selected string
}

// New builds the main window. It does not show it.
func New(fyneApp fyne.App, opts Options) *App {
	a := &App{
		ctx:      context.Background(),
		store:    opts.Store,
		pipeline: opts.Pipeline,
		pool:     opts.Pool,
		copyText: opts.CopyText,
	}
	a.win = fyneApp.NewWindow(windowTitle)
	a.win.SetContent(container.NewAppTabs(
		container.NewTabItem("Translate", a.buildTranslateTab()),
		container.NewTabItem("Notes", a.buildNotesTab()),
	))
	a.win.Resize(fyne.NewSize(900, 600))
	a.win.SetMaster()
	a.refreshNotes()
	return a
}

func (a *App) Window() fyne.Window { return a.win }

func (a *App) buildTranslateTab() fyne.CanvasObject {
	a.original = widget.NewMultiLineEntry()
	a.original.Wrapping = fyne.TextWrapWord
	a.original.SetPlaceHolder("Original text")

	a.translated = widget.NewMultiLineEntry()
	a.translated.Wrapping = fyne.TextWrapWord
	a.translated.SetPlaceHolder("Translation")

	a.title = widget.NewEntry()
	a.title.SetPlaceHolder("Note title")
	a.title.OnSubmitted = func(string) { a.SaveNote() }

	a.status = widget.NewLabel("Ready")

	a.captureBtn = widget.NewButton("Select text to translate", a.Capture)
	a.captureBtn.Importance = widget.HighImportance
	a.translBtn = widget.NewButton("Translate", a.TranslateOriginal)
	a.copyBtn = widget.NewButton("Copy", a.CopyTranslation)
	if a.copyText == nil {
		a.copyBtn.Disable()
	}
	saveBtn := widget.NewButton("Save note", a.SaveNote)

	panes := container.NewGridWithColumns(2,
		container.NewBorder(widget.NewLabel("Original"), nil, nil, nil, a.original),
		container.NewBorder(widget.NewLabel("Translation"), nil, nil, nil, a.translated),
	)
	actions := container.NewHBox(a.captureBtn, a.translBtn, a.copyBtn)
	save := container.NewBorder(nil, nil, widget.NewLabel("Title"), saveBtn, a.title)
	bottom := container.NewVBox(actions, save, a.status)
	return container.NewBorder(nil, bottom, nil, nil, panes)
}

func (a *App) buildNotesTab() fyne.CanvasObject {
	a.viewer = widget.NewLabel("")
	a.viewer.Wrapping = fyne.TextWrapWord

	a.noteList = widget.NewList(
		func() int { return len(a.titles) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < len(a.titles) {
				obj.(*widget.Label).SetText(a.titles[id])
			}
		},
	)
	a.noteList.OnSelected = a.selectNote
	a.noteList.OnUnselected = func(widget.ListItemID) {
		a.selected = ""
		a.viewer.SetText("")
	}

	deleteBtn := widget.NewButton("Delete note", a.DeleteNote)
	deleteBtn.Importance = widget.DangerImportance

	left := container.NewBorder(nil, deleteBtn, nil, nil, a.noteList)
	split := container.NewHSplit(left, container.NewVScroll(a.viewer))
	split.Offset = 0.3
	return split
}

// Run shows the window and blocks until it is closed. The hotkey and the
// notes folder watcher live as long as ctx.
func (a *App) Run(ctx context.Context, hotkeyConfig string, watchNotes bool) {
	a.ctx = ctx

	if hotkeyConfig != "" {
		err := hotkey.Listen(ctx, hotkeyConfig, func() { fyne.Do(a.Capture) })
		if err != nil {
			log.Printf("UI: hotkey disabled: %v", err)
		}
	}

	if watchNotes && a.store != nil {
		go func() {
			err := a.store.Watch(ctx, func() { fyne.Do(a.refreshNotes) })
			if err != nil && ctx.Err() == nil {
				log.Printf("UI: notes watcher stopped: %v", err)
			}
		}()
	}

	a.win.ShowAndRun()
}
