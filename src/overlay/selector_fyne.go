package overlay

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"screen-translator/src/screenshot"
)

var (
	dimColor     = color.NRGBA{R: 128, G: 128, B: 128, A: 77} // gray at 30%
	outlineColor = color.NRGBA{R: 255, A: 255}
)

// FyneSelector shows a full-screen window over the primary display holding
// a frozen, dimmed snapshot of the screen. The user drags a rectangle with
// the primary button; Esc or the secondary button cancels.
//
// Select must not be called from the Fyne event goroutine: it blocks until
// the overlay reports a result.
type FyneSelector struct {
	app fyne.App
}

func NewSelector(app fyne.App) *FyneSelector {
	return &FyneSelector{app: app}
}

type selection struct {
	region    screenshot.Region
	cancelled bool
	err       error
}

func (s *FyneSelector) Select(ctx context.Context) (screenshot.Region, bool, error) {
	origin, err := screenshot.GetDisplayBounds()
	if err != nil {
		return screenshot.Region{}, false, err
	}
	backdrop, err := screenshot.CapturePrimary()
	if err != nil {
		return screenshot.Region{}, false, fmt.Errorf("failed to snapshot screen: %w", err)
	}

	done := make(chan selection, 1)
	var win fyne.Window
	fyne.DoAndWait(func() {
		win = s.newWindow()
		area := newSelectionArea(backdrop, origin.Min, func(sel selection) {
			select {
			case done <- sel:
			default:
			}
		})
		win.SetContent(area)
		win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
			if ev.Name == fyne.KeyEscape {
				area.cancel()
			}
		})
		win.SetCloseIntercept(area.cancel)
		win.Show()
		win.RequestFocus()
	})
	defer fyne.Do(win.Close)

	select {
	case sel := <-done:
		log.Printf("Overlay: selection finished: region=%v cancelled=%v err=%v", sel.region, sel.cancelled, sel.err)
		return sel.region, sel.cancelled, sel.err
	case <-ctx.Done():
		return screenshot.Region{}, false, ctx.Err()
	}
}

func (s *FyneSelector) newWindow() fyne.Window {
	var w fyne.Window
	if drv, ok := s.app.Driver().(desktop.Driver); ok {
		w = drv.CreateSplashWindow()
	} else {
		w = s.app.NewWindow("Select region")
	}
	w.SetPadded(false)
	w.SetFullScreen(true)
	return w
}

// selectionArea feeds pointer events into a Tracker. Positions are mapped
// from canvas units to screen pixels through the snapshot size, which
// sidesteps the canvas scale factor.
type selectionArea struct {
	widget.BaseWidget

	backdrop image.Image
	origin   image.Point
	onDone   func(selection)

	tracker  Tracker
	reported sync.Once
}

func newSelectionArea(backdrop image.Image, origin image.Point, onDone func(selection)) *selectionArea {
	a := &selectionArea{backdrop: backdrop, origin: origin, onDone: onDone}
	a.ExtendBaseWidget(a)
	return a
}

func (a *selectionArea) toScreen(pos fyne.Position) image.Point {
	size := a.Size()
	b := a.backdrop.Bounds()
	if size.Width <= 0 || size.Height <= 0 {
		return a.origin
	}
	return image.Pt(
		a.origin.X+int(pos.X*float32(b.Dx())/size.Width),
		a.origin.Y+int(pos.Y*float32(b.Dy())/size.Height),
	)
}

func (a *selectionArea) toCanvas(p image.Point) fyne.Position {
	size := a.Size()
	b := a.backdrop.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return fyne.Position{}
	}
	return fyne.NewPos(
		float32(p.X-a.origin.X)*size.Width/float32(b.Dx()),
		float32(p.Y-a.origin.Y)*size.Height/float32(b.Dy()),
	)
}

func (a *selectionArea) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button == desktop.MouseButtonSecondary {
		a.cancel()
		return
	}
	a.tracker.Press(a.toScreen(ev.Position))
	a.Refresh()
}

func (a *selectionArea) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button == desktop.MouseButtonSecondary {
		return
	}
	a.tracker.Release(a.toScreen(ev.Position))
	a.finish()
}

func (a *selectionArea) MouseIn(*desktop.MouseEvent) {}
func (a *selectionArea) MouseOut()                   {}

func (a *selectionArea) MouseMoved(ev *desktop.MouseEvent) {
	a.move(ev.Position)
}

func (a *selectionArea) Dragged(ev *fyne.DragEvent) {
	a.move(ev.Position)
}

// DragEnd may arrive instead of MouseUp depending on the driver.
func (a *selectionArea) DragEnd() {
	a.tracker.Finish()
	a.finish()
}

func (a *selectionArea) Cursor() desktop.Cursor { return desktop.CrosshairCursor }

func (a *selectionArea) move(pos fyne.Position) {
	if a.tracker.State() != Dragging {
		return
	}
	a.tracker.Move(a.toScreen(pos))
	a.Refresh()
}

func (a *selectionArea) cancel() {
	a.tracker.Cancel()
	a.finish()
}

func (a *selectionArea) finish() {
	if !a.tracker.Done() {
		return
	}
	a.reported.Do(func() {
		region, cancelled, err := a.tracker.Result()
		a.onDone(selection{region: region, cancelled: cancelled, err: err})
	})
}

func (a *selectionArea) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewImageFromImage(a.backdrop)
	bg.FillMode = canvas.ImageFillStretch
	dim := canvas.NewRectangle(dimColor)
	outline := canvas.NewRectangle(color.Transparent)
	outline.StrokeColor = outlineColor
	outline.StrokeWidth = 2
	outline.Hide()
	return &selectionRenderer{area: a, bg: bg, dim: dim, outline: outline}
}

type selectionRenderer struct {
	area    *selectionArea
	bg      *canvas.Image
	dim     *canvas.Rectangle
	outline *canvas.Rectangle
}

func (r *selectionRenderer) Destroy() {}

func (r *selectionRenderer) MinSize() fyne.Size { return fyne.NewSize(1, 1) }

func (r *selectionRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.bg, r.dim, r.outline}
}

func (r *selectionRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.dim.Resize(size)

	rect := r.area.tracker.Rect()
	if rect.Empty() {
		r.outline.Hide()
		return
	}
	topLeft := r.area.toCanvas(rect.Min)
	bottomRight := r.area.toCanvas(rect.Max)
	r.outline.Move(topLeft)
	r.outline.Resize(fyne.NewSize(bottomRight.X-topLeft.X, bottomRight.Y-topLeft.Y))
	r.outline.Show()
}

func (r *selectionRenderer) Refresh() {
	r.Layout(r.area.Size())
	canvas.Refresh(r.area)
}
