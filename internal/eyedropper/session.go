package eyedropper

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/eyedropper-mcp/internal/imaging"
	"github.com/ironsheep/eyedropper-mcp/internal/logging"
	"github.com/ironsheep/eyedropper-mcp/internal/magnifier"
)

// OverlayName is the layer name of the mounted capture.
const OverlayName = "eyedropper-capture"

// session is one picking attempt. Every field is guarded by the owning
// controller's mutex.
type session struct {
	c        *Controller
	id       string
	req      *Request
	status   Status
	started  time.Time
	viewport Viewport

	// cursor is the indicator present before the session began.
	cursor         string
	cursorRestored bool

	raster         *imaging.Raster
	overlay        *overlay
	overlayMounted bool
	lens           *magnifier.Magnifier

	point    image.Point
	hasPoint bool
	color    string

	unsubscribe   func()
	stopAbort     func() bool
	cancelCapture context.CancelFunc
}

// overlay is the captured raster mounted over the host document.
type overlay struct {
	raster *imaging.Raster
}

func (o *overlay) Name() string { return OverlayName }

func (o *overlay) Image() image.Image {
	if img := o.raster.Image(); img != nil {
		return img
	}
	return nil
}

// capture runs the capture service and arms the session on success.
func (c *Controller) capture(parent, ctx context.Context, s *session) {
	w, h := s.viewport.CaptureSize()
	req := CaptureRequest{Width: w, Height: h, Scale: s.viewport.DPR()}

	img, err := c.capturer.Capture(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if s.status != Capturing {
		// Closed while the capture was in flight; drop the buffer.
		return
	}
	if parent.Err() != nil {
		// The abort callback may still be waiting for the lock. A capturer
		// that honours ctx fails with ctx.Err(), which is not the reason.
		c.close(s, OutcomeAborted, ColorSelectionResult{}, abortError(parent))
		return
	}
	if err != nil {
		c.close(s, OutcomeCaptureFailed, ColorSelectionResult{}, &CaptureError{Err: err})
		return
	}

	pw, ph := req.PixelSize()
	raster, err := imaging.NewRaster(img, pw, ph)
	if err != nil {
		c.close(s, OutcomeCaptureFailed, ColorSelectionResult{}, &CaptureError{Err: err})
		return
	}
	s.raster = raster

	c.arm(s)
}

// arm mounts the overlay, subscribes the tracker and the magnifier, and
// restores the pre-session cursor.
func (c *Controller) arm(s *session) {
	s.overlay = &overlay{raster: s.raster}
	if err := c.host.Mount(s.overlay); err != nil {
		c.close(s, OutcomeCaptureFailed, ColorSelectionResult{}, &CaptureError{Err: fmt.Errorf("mount overlay: %w", err)})
		return
	}
	s.overlayMounted = true

	s.unsubscribe = c.pointer.Subscribe(s)

	if c.magnify {
		c.mountLens(s)
	}

	c.host.SetCursor(s.cursor)
	s.cursorRestored = true

	c.transition(s, Armed)
	c.logger.Debug("session armed",
		logging.KeySessionID, s.id,
		logging.KeyDurationMs, c.now().Sub(s.started).Milliseconds(),
	)
}

// mountLens creates the magnifier. Failures leave the session without a
// lens; sampling is unaffected.
func (c *Controller) mountLens(s *session) {
	lens, err := magnifier.New(s.raster.Image(), c.lens)
	if err != nil {
		c.logger.Warn("magnifier unavailable", logging.KeySessionID, s.id, logging.KeyError, err)
		return
	}
	if err := c.host.Mount(lens); err != nil {
		lens.Close()
		c.logger.Warn("magnifier mount failed", logging.KeySessionID, s.id, logging.KeyError, err)
		return
	}
	s.lens = lens
}

// PointerMove samples the color under the pointer.
func (s *session) PointerMove(ev PointerEvent) error {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.status != Armed {
		return nil
	}

	p := c.host.Viewport().BufferPoint(ev.ClientX, ev.ClientY)
	if !s.raster.Contains(p.X, p.Y) {
		return nil
	}

	hex, err := s.raster.Hex(p.X, p.Y)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrNoRaster, err)
		c.close(s, OutcomeFailed, ColorSelectionResult{}, err)
		return err
	}
	s.point, s.hasPoint, s.color = p, true, hex

	if s.lens != nil {
		s.lens.Move(p, hex)
	}
	return nil
}

// PointerConfirm resolves the session with the color under the last
// sampled point.
func (s *session) PointerConfirm(PointerEvent) error {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.status != Armed {
		return nil
	}

	if !s.hasPoint {
		c.close(s, OutcomeNoColor, ColorSelectionResult{}, ErrNoColor)
		return ErrNoColor
	}

	hex, err := s.raster.Hex(s.point.X, s.point.Y)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrNoRaster, err)
		c.close(s, OutcomeFailed, ColorSelectionResult{}, err)
		return err
	}
	return c.close(s, OutcomeSelected, ColorSelectionResult{SRGBHex: hex}, nil)
}

// close tears the session down and settles its request. Only the first
// call for a session has effect. Listeners are removed before the request
// is settled.
func (c *Controller) close(s *session, outcome Outcome, res ColorSelectionResult, cause error) error {
	if s.status == Closed {
		return nil
	}
	c.transition(s, Closed)

	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.stopAbort != nil {
		s.stopAbort()
	}
	if s.cancelCapture != nil {
		s.cancelCapture()
	}

	if s.lens != nil {
		if err := c.host.Unmount(s.lens); err != nil {
			c.logger.Warn("magnifier unmount failed", logging.KeySessionID, s.id, logging.KeyError, err)
		}
		s.lens.Close()
		s.lens = nil
	}

	if s.overlayMounted {
		s.overlayMounted = false
		if err := c.host.Unmount(s.overlay); err != nil {
			detached := fmt.Errorf("%w: %v", ErrOverlayDetached, err)
			cause = errors.Join(cause, detached)
			outcome = OutcomeFailed
			res = ColorSelectionResult{}
		}
	}

	if !s.cursorRestored {
		c.host.SetCursor(s.cursor)
		s.cursorRestored = true
	}
	c.host.SetScrollLock(false)

	if s.raster != nil {
		s.raster.Release()
	}
	if c.active == s {
		c.active = nil
	}

	elapsed := c.now().Sub(s.started)
	if c.observer != nil {
		c.observer.Settled(s.id, outcome, elapsed)
	}
	s.req.settle(res, cause)

	if cause != nil {
		c.logger.Info("session closed",
			logging.KeySessionID, s.id,
			logging.KeyOutcome, string(outcome),
			logging.KeyDurationMs, elapsed.Milliseconds(),
			logging.KeyError, cause,
		)
	} else {
		c.logger.Info("session closed",
			logging.KeySessionID, s.id,
			logging.KeyOutcome, string(outcome),
			logging.KeyColor, res.SRGBHex,
			logging.KeyDurationMs, elapsed.Milliseconds(),
		)
	}
	return cause
}
