package eyedropper

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/eyedropper-mcp/internal/logging"
	"github.com/ironsheep/eyedropper-mcp/internal/magnifier"
)

// Controller is the eyedropper. It is the only gate for starting a session
// and owns at most one active session at a time.
//
// All state transitions and pointer handling are serialized behind one
// mutex; the capture itself runs outside it.
type Controller struct {
	host     Host
	pointer  PointerSource
	capturer Capturer
	logger   *slog.Logger
	observer Observer
	lens     magnifier.Options
	magnify  bool
	now      func() time.Time

	mu     sync.Mutex
	active *session
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for session diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers an observer for transitions and outcomes.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithMagnifier sets the lens options. The magnifier is enabled by default.
func WithMagnifier(opts magnifier.Options) Option {
	return func(c *Controller) {
		c.lens = opts
		c.magnify = true
	}
}

// WithoutMagnifier disables the lens preview.
func WithoutMagnifier() Option {
	return func(c *Controller) { c.magnify = false }
}

// New creates a controller for one host. pointer delivers the host's
// pointer events and capturer rasterizes its surface.
func New(host Host, pointer PointerSource, capturer Capturer, opts ...Option) *Controller {
	c := &Controller{
		host:     host,
		pointer:  pointer,
		capturer: capturer,
		logger:   logging.L("eyedropper"),
		lens:     magnifier.DefaultOptions(),
		magnify:  true,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open starts a picking session and returns its pending Request.
//
// If ctx is already done, Open returns an *AbortError without touching the
// host. If a session is active, it returns ErrInvalidState and leaves that
// session alone. Otherwise the busy cursor is shown, scrolling is locked and
// the surface is captured in the background. Cancelling ctx at any later
// point aborts the session with context.Cause(ctx) as the reason.
func (c *Controller) Open(ctx context.Context) (*Request, error) {
	if ctx.Err() != nil {
		return nil, abortError(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		c.logger.Debug("open rejected, session active", logging.KeySessionID, c.active.id)
		return nil, ErrInvalidState
	}

	id := uuid.NewString()
	s := &session{
		c:        c,
		id:       id,
		req:      newRequest(id),
		started:  c.now(),
		viewport: c.host.Viewport(),
		cursor:   c.host.Cursor(),
	}
	c.active = s

	c.host.SetCursor(CursorWait)
	c.host.SetScrollLock(true)
	c.transition(s, Capturing)

	captureCtx, cancelCapture := context.WithCancel(ctx)
	s.cancelCapture = cancelCapture
	s.stopAbort = context.AfterFunc(ctx, func() {
		c.abort(s, abortError(ctx))
	})

	c.logger.Debug("session opened", logging.KeySessionID, id)
	go c.capture(ctx, captureCtx, s)

	return s.req, nil
}

// Pick opens a session and waits for its outcome.
func (c *Controller) Pick(ctx context.Context) (ColorSelectionResult, error) {
	req, err := c.Open(ctx)
	if err != nil {
		return ColorSelectionResult{}, err
	}
	// Cancelling ctx settles the request, so waiting on it alone is enough.
	return req.Wait(context.Background())
}

// Status reports the state of the active session, or Idle.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return Idle
	}
	return c.active.status
}

// Snapshot is a read-only view of the active session.
type Snapshot struct {
	ID       string      `json:"id,omitempty"`
	Status   string      `json:"status"`
	Color    string      `json:"color,omitempty"`
	Point    image.Point `json:"point"`
	HasPoint bool        `json:"has_point"`
}

// Snapshot returns the active session's state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.active
	if s == nil {
		return Snapshot{Status: Idle.String()}
	}
	return Snapshot{
		ID:       s.id,
		Status:   s.status.String(),
		Color:    s.color,
		Point:    s.point,
		HasPoint: s.hasPoint,
	}
}

func (c *Controller) abort(s *session, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != s {
		return
	}
	c.close(s, OutcomeAborted, ColorSelectionResult{}, err)
}

func (c *Controller) transition(s *session, to Status) {
	from := s.status
	s.status = to
	if c.observer != nil {
		c.observer.Transition(s.id, from, to)
	}
}

// abortError builds the rejection for a cancelled context. A bare cancel
// carries no reason.
func abortError(ctx context.Context) *AbortError {
	cause := context.Cause(ctx)
	if cause == context.Canceled {
		cause = nil
	}
	return &AbortError{Reason: cause}
}
