package ui

import (
	"context"
	"errors"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"screen-translator/src/notes"
	"screen-translator/src/pipeline"
	"screen-translator/src/translate"
)

// Capture runs select, capture, extract and translate on the worker pool.
// A second request while one is in flight is rejected.
func (a *App) Capture() {
	if !a.submit(a.runCapture) {
		return
	}
	a.setStatus("Select a region (Esc cancels)")
}

func (a *App) runCapture(ctx context.Context) {
	defer a.recoverJob("Capture failed")
	res, err := a.pipeline.Run(ctx)
	fyne.Do(func() {
		defer a.setBusy(false)
		switch {
		case errors.Is(err, pipeline.ErrSelectionCancelled):
			a.setStatus("Selection cancelled")
			return
		case err != nil && res.Original != "":
			a.showError("Translation failed", err)
			return
		case err != nil:
			a.showError("Capture failed", err)
			return
		}
		a.original.SetText(res.Original)
		a.translated.SetText(res.Translated)
		a.setStatus(fmt.Sprintf("Translated %d characters", len([]rune(res.Original))))
	})
}

// TranslateOriginal re-translates whatever is in the original pane.
func (a *App) TranslateOriginal() {
	text := a.original.Text
	if !a.submit(func(ctx context.Context) { a.runTranslate(ctx, text) }) {
		return
	}
	a.setStatus("Translating...")
}

func (a *App) runTranslate(ctx context.Context, text string) {
	defer a.recoverJob("Translation failed")
	translated, err := a.pipeline.TranslateText(ctx, text)
	fyne.Do(func() {
		defer a.setBusy(false)
		if errors.Is(err, translate.ErrNoText) {
			a.warn("Nothing to translate", "The original text is empty.")
			return
		}
		if err != nil {
			a.showError("Translation failed", err)
			return
		}
		a.translated.SetText(translated)
		a.setStatus("Translated")
	})
}

// CopyTranslation puts the translated pane on the clipboard.
func (a *App) CopyTranslation() {
	if a.copyText == nil {
		return
	}
	text := a.translated.Text
	if text == "" {
		a.warn("Nothing to copy", "The translation is empty.")
		return
	}
	if err := a.copyText(text); err != nil {
		a.showError("Copy failed", err)
		return
	}
	a.setStatus("Copied translation to clipboard")
}

// SaveNote stores the translated pane under the title in the title field.
func (a *App) SaveNote() {
	title := a.title.Text
	err := a.store.Save(title, a.translated.Text)
	switch {
	case errors.Is(err, notes.ErrDuplicateTitle):
		a.warn("Duplicate title", fmt.Sprintf("A note titled %q already exists.", title))
		return
	case errors.Is(err, notes.ErrInvalidTitle):
		a.warn("Invalid title", err.Error())
		return
	case err != nil:
		a.showError("Save failed", err)
		return
	}
	a.title.SetText("")
	a.refreshNotes()
	a.setStatus(fmt.Sprintf("Saved note %q", title))
}

// DeleteNote removes the note selected in the Notes tab.
func (a *App) DeleteNote() {
	title := a.selected
	err := a.store.Delete(title)
	if errors.Is(err, notes.ErrNotFound) {
		if title == "" {
			a.warn("No note selected", "Select a note to delete.")
		} else {
			a.warn("Note not found", fmt.Sprintf("Note %q no longer exists.", title))
			a.refreshNotes()
		}
		return
	}
	if err != nil {
		a.showError("Delete failed", err)
		return
	}
	a.selected = ""
	a.noteList.UnselectAll()
	a.viewer.SetText("")
	a.refreshNotes()
	a.setStatus(fmt.Sprintf("Deleted note %q", title))
}

func (a *App) selectNote(id widget.ListItemID) {
	if id < 0 || id >= len(a.titles) {
		return
	}
	a.selected = a.titles[id]
	content, ok := a.store.Get(a.selected)
	if !ok {
		a.viewer.SetText("")
		return
	}
	a.viewer.SetText(content)
}

// refreshNotes reloads the title list from the store, keeping the
// selection if the note still exists.
func (a *App) refreshNotes() {
	if a.store == nil {
		return
	}
	a.titles = a.store.Titles()
	a.noteList.Refresh()

	if a.selected == "" {
		return
	}
	for i, t := range a.titles {
		if t == a.selected {
			a.noteList.Select(i)
			a.selectNote(i)
			return
		}
	}
	a.selected = ""
	a.noteList.UnselectAll()
	a.viewer.SetText("")
}

func (a *App) submit(job func(ctx context.Context)) bool {
	wasBusy := a.captureBtn.Disabled()
	a.setBusy(true)
	if !a.pool.Submit(a.ctx, job) {
		a.setBusy(wasBusy)
		log.Printf("UI: request rejected, pipeline busy")
		a.warn("Busy", "A capture or translation is already running.")
		return false
	}
	return true
}

// recoverJob turns a panic in a pool job into an error dialog and
// re-enables the buttons the job disabled. Use it with defer.
func (a *App) recoverJob(what string) {
	r := recover()
	if r == nil {
		return
	}
	err := fmt.Errorf("unexpected failure: %v", r)
	fyne.Do(func() {
		a.setBusy(false)
		a.showError(what, err)
	})
}

func (a *App) setBusy(busy bool) {
	for _, b := range []*widget.Button{a.captureBtn, a.translBtn} {
		if busy {
			b.Disable()
		} else {
			b.Enable()
		}
	}
}

func (a *App) setStatus(msg string) { a.status.SetText(msg) }

func (a *App) warn(title, msg string) {
	log.Printf("UI: %s: %s", title, msg)
	a.setStatus(msg)
	dialog.ShowInformation(title, msg, a.win)
}

func (a *App) showError(what string, err error) {
	log.Printf("UI: %s: %v", what, err)
	a.setStatus(fmt.Sprintf("%s: %v", what, err))
	dialog.ShowError(err, a.win)
}
