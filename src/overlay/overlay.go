package overlay

import (
	"context"
	"errors"
	"image"

	"screen-translator/src/screenshot"
)

// MinSelectionSize is the smallest width and height, in pixels, accepted
// as a selection. Anything smaller is treated as a click, not a drag.
const MinSelectionSize = 3

var ErrEmptySelection = errors.New("selection is too small")

// Selector defines a synchronous region-selection API.
// Select blocks until the user finishes or cancels the gesture, or ctx ends.
// Returns (region, cancelled, error). If cancelled is true, region is undefined and err is nil.
type Selector interface {
	Select(ctx context.Context) (screenshot.Region, bool, error)
}

type State int

const (
	Idle State = iota
	Dragging
	Completed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Tracker follows one press-drag-release gesture in screen pixels.
// Completed and Cancelled are terminal.
type Tracker struct {
	state   State
	start   image.Point
	current image.Point
}

func (t *Tracker) State() State { return t.state }

// Done reports whether the gesture reached a terminal state.
func (t *Tracker) Done() bool { return t.state == Completed || t.state == Cancelled }

func (t *Tracker) Press(p image.Point) {
	if t.state != Idle {
		return
	}
	t.state = Dragging
	t.start, t.current = p, p
}

func (t *Tracker) Move(p image.Point) {
	if t.state != Dragging {
		return
	}
	t.current = p
}

// Release completes a drag. A release without a press is ignored.
func (t *Tracker) Release(p image.Point) {
	if t.state != Dragging {
		return
	}
	t.current = p
	t.state = Completed
}

// Finish completes a drag at the last known pointer position.
func (t *Tracker) Finish() { t.Release(t.current) }

func (t *Tracker) Cancel() {
	if t.Done() {
		return
	}
	t.state = Cancelled
}

// Rect is the current selection rectangle, normalized. It is empty while idle.
func (t *Tracker) Rect() image.Rectangle {
	if t.state == Idle || t.state == Cancelled {
		return image.Rectangle{}
	}
	return t.region().Bounds()
}

func (t *Tracker) region() screenshot.Region {
	return screenshot.Region{X0: t.start.X, Y0: t.start.Y, X1: t.current.X, Y1: t.current.Y}
}

// Result converts a terminal state into the Selector return values.
func (t *Tracker) Result() (screenshot.Region, bool, error) {
	switch t.state {
	case Cancelled:
		return screenshot.Region{}, true, nil
	case Completed:
		r := t.region().Normalize()
		if r.Width() < MinSelectionSize || r.Height() < MinSelectionSize {
			return screenshot.Region{}, false, ErrEmptySelection
		}
		return r, false, nil
	default:
		return screenshot.Region{}, false, errors.New("selection still in progress")
	}
}
