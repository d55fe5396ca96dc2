package eyedropper

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned by Open while another session is active.
	ErrInvalidState = errors.New("eyedropper: invalid state")

	// ErrAborted is the generic cancellation reason. Every *AbortError
	// matches it with errors.Is.
	ErrAborted = errors.New("eyedropper: aborted")

	// ErrNoColor is returned when a confirm arrives before any move has
	// produced a sample.
	ErrNoColor = errors.New("eyedropper: cannot get color")

	// ErrNoRaster is returned when sampling is attempted without a live
	// raster buffer.
	ErrNoRaster = errors.New("eyedropper: error getting raster")

	// ErrOverlayDetached is returned when the capture overlay could not be
	// removed from the host on teardown.
	ErrOverlayDetached = errors.New("eyedropper: overlay detached")
)

// AbortError rejects a session whose context was cancelled. Reason is the
// context's cause, or nil when it was cancelled without one.
type AbortError struct {
	Reason error
}

func (e *AbortError) Error() string {
	if e.Reason == nil {
		return ErrAborted.Error()
	}
	return fmt.Sprintf("%s: %v", ErrAborted, e.Reason)
}

// Unwrap exposes both ErrAborted and the reason to errors.Is/As.
func (e *AbortError) Unwrap() []error {
	if e.Reason == nil {
		return []error{ErrAborted}
	}
	return []error{ErrAborted, e.Reason}
}

// CaptureError wraps a failure of the raster capture service.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("eyedropper: capture failed: %v", e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }
