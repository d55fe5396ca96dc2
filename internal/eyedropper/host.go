package eyedropper

import (
	"context"
	"image"
	"time"
)

// Cursor names used while a session captures.
const CursorWait = "wait"

// Layer is a visual surface mounted on top of the host document.
type Layer interface {
	Name() string
	Image() image.Image
}

// Host is the document the eyedropper runs in.
//
// Mount and Unmount must not call back into the Controller.
type Host interface {
	Viewport() Viewport
	Cursor() string
	SetCursor(cursor string)
	// SetScrollLock freezes (true) or releases (false) document scrolling.
	SetScrollLock(locked bool)
	Mount(layer Layer) error
	// Unmount removes a previously mounted layer. Removing a layer that is
	// not mounted is an error.
	Unmount(layer Layer) error
}

// PointerHandler receives pointer events while a session is armed.
type PointerHandler interface {
	PointerMove(ev PointerEvent) error
	PointerConfirm(ev PointerEvent) error
}

// PointerSource delivers pointer events for the whole viewport.
type PointerSource interface {
	// Subscribe registers h and returns a function that removes it. The
	// returned function must be safe to call more than once.
	Subscribe(h PointerHandler) (unsubscribe func())
}

// Capturer is the raster capture service: it turns the host surface into a
// still pixel buffer. It may be slow and may fail.
type Capturer interface {
	Capture(ctx context.Context, req CaptureRequest) (image.Image, error)
}

// CapturerFunc adapts a function to Capturer.
type CapturerFunc func(ctx context.Context, req CaptureRequest) (image.Image, error)

// Capture calls f.
func (f CapturerFunc) Capture(ctx context.Context, req CaptureRequest) (image.Image, error) {
	return f(ctx, req)
}

// Outcome classifies how a session ended.
type Outcome string

const (
	OutcomeSelected      Outcome = "selected"
	OutcomeAborted       Outcome = "aborted"
	OutcomeCaptureFailed Outcome = "capture_failed"
	OutcomeNoColor       Outcome = "no_color"
	OutcomeFailed        Outcome = "failed"
)

// Observer is notified of session lifecycle events. Calls are made with the
// controller lock held; implementations must be fast and must not call back
// into the Controller.
type Observer interface {
	Transition(id string, from, to Status)
	Settled(id string, outcome Outcome, elapsed time.Duration)
}
