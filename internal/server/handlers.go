package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/atotto/clipboard"

	"github.com/ironsheep/eyedropper-mcp/internal/eyedropper"
	"github.com/ironsheep/eyedropper-mcp/internal/imaging"
	"github.com/ironsheep/eyedropper-mcp/internal/logging"
)

const (
	// openTimeout bounds viewport discovery plus the capture.
	openTimeout = 30 * time.Second
	// settleTimeout bounds the wait for a confirmed or cancelled session.
	settleTimeout = 5 * time.Second

	armPollInterval = 5 * time.Millisecond
	defaultRadius   = 160
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "eyedropper_open", "eyedropper_move").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	log := s.logger.With(logging.KeyTool, params.Name, logging.KeyDurationMs, time.Since(start).Milliseconds())
	if err != nil {
		log.Warn("tool failed", logging.KeyError, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.Debug("tool done")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Session lifecycle
	case "eyedropper_open":
		return s.handleOpen(args)
	case "eyedropper_move":
		return s.handleMove(args)
	case "eyedropper_scroll":
		return s.handleScroll(args)
	case "eyedropper_confirm":
		return s.handleConfirm(args)
	case "eyedropper_cancel":
		return s.handleCancel(args)

	// Inspection
	case "eyedropper_status":
		return s.handleStatus(args)
	case "eyedropper_preview":
		return s.handlePreview(args)

	// Color Operations
	case "image_sample_color":
		return s.handleImageSampleColor(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments; absent arguments leave v untouched.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	return json.Unmarshal(args, v)
}

// === Session Lifecycle Handlers ===

type openArgs struct {
	Path             string  `json:"path"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	DevicePixelRatio float64 `json:"device_pixel_ratio"`
}

type openResult struct {
	ID       string              `json:"id"`
	Status   string              `json:"status"`
	Viewport eyedropper.Viewport `json:"viewport"`
}

func (s *Server) handleOpen(args json.RawMessage) (interface{}, error) {
	var a openArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if s.ctrl.Status().Active() {
		return nil, fmt.Errorf("a session is already open: %w", eyedropper.ErrInvalidState)
	}

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	if a.Path != "" {
		if s.file == nil {
			return nil, fmt.Errorf("path is only supported by the file capture source, not %q", s.cfg.Capture.Source)
		}
		s.file.Path = a.Path
	}
	if s.file != nil && s.file.Path != "" {
		// Screenshots are often rewritten in place between sessions.
		s.cache.Evict(s.file.Path)
	}

	vp, err := s.resolveViewport(ctx, a)
	if err != nil {
		return nil, err
	}
	s.host.Resize(vp)

	sessCtx, cancelSess := context.WithCancelCause(context.Background())
	req, err := s.ctrl.Open(sessCtx)
	if err != nil {
		cancelSess(nil)
		return nil, err
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel(nil)
	}
	s.req, s.cancel = req, cancelSess
	s.mu.Unlock()

	if err := s.waitArmed(ctx, req); err != nil {
		return nil, err
	}
	return openResult{ID: req.ID(), Status: s.ctrl.Status().String(), Viewport: s.host.Viewport()}, nil
}

// waitArmed blocks until the session is armed or has settled.
func (s *Server) waitArmed(ctx context.Context, req *eyedropper.Request) error {
	ticker := time.NewTicker(armPollInterval)
	defer ticker.Stop()

	for {
		if s.ctrl.Status() == eyedropper.Armed {
			return nil
		}
		select {
		case <-req.Done():
			_, err := req.Wait(ctx)
			s.release(req)
			if err == nil {
				err = errors.New("session settled before it was armed")
			}
			return err
		case <-ctx.Done():
			return fmt.Errorf("session %s not armed: %w", req.ID(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// resolveViewport fills in whatever the caller and config leave unset from
// the capture source's own surface.
func (s *Server) resolveViewport(ctx context.Context, a openArgs) (eyedropper.Viewport, error) {
	vp := s.host.Viewport()
	vp.Width = firstNonZero(a.Width, s.cfg.Viewport.Width)
	vp.Height = firstNonZero(a.Height, s.cfg.Viewport.Height)
	vp.DevicePixelRatio = a.DevicePixelRatio
	if vp.DevicePixelRatio == 0 {
		vp.DevicePixelRatio = s.cfg.Viewport.DevicePixelRatio
	}
	if vp.Width > 0 && vp.Height > 0 {
		return vp, nil
	}

	var surface eyedropper.Viewport
	switch {
	case s.browser != nil:
		bvp, err := s.browser.Viewport(ctx)
		if err != nil {
			return vp, err
		}
		surface = bvp
		if a.DevicePixelRatio == 0 {
			vp.DevicePixelRatio = bvp.DevicePixelRatio
		}
		vp.DocumentWidth, vp.DocumentHeight = bvp.DocumentWidth, bvp.DocumentHeight
		vp.ScrollX, vp.ScrollY = bvp.ScrollX, bvp.ScrollY
	case s.screen != nil:
		svp, err := s.screen.Viewport(0)
		if err != nil {
			return vp, err
		}
		surface = svp
	default:
		if s.file.Path == "" {
			return vp, errors.New("no image path: pass path or set capture.path")
		}
		dims, err := imaging.GetDimensions(s.cache, s.file.Path)
		if err != nil {
			return vp, err
		}
		dpr := vp.DPR()
		surface.Width = int(float64(dims.Width) / dpr)
		surface.Height = int(float64(dims.Height) / dpr)
	}

	if vp.Width == 0 {
		vp.Width = surface.Width
	}
	if vp.Height == 0 {
		vp.Height = surface.Height
	}
	return vp, nil
}

type pointArgs struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (a pointArgs) point() (float64, float64, bool) {
	if a.X == nil || a.Y == nil {
		return 0, 0, false
	}
	return *a.X, *a.Y, true
}

func (s *Server) handleMove(args json.RawMessage) (interface{}, error) {
	var a pointArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	x, y, ok := a.point()
	if !ok {
		return nil, errors.New("x and y are required")
	}
	if err := s.host.Move(x, y); err != nil {
		return nil, err
	}
	return s.ctrl.Snapshot(), nil
}

type scrollResult struct {
	Scrolled bool                `json:"scrolled"`
	Viewport eyedropper.Viewport `json:"viewport"`
}

func (s *Server) handleScroll(args json.RawMessage) (interface{}, error) {
	var a pointArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	x, y, ok := a.point()
	if !ok {
		return nil, errors.New("x and y are required")
	}
	scrolled := s.host.ScrollTo(x, y)
	return scrollResult{Scrolled: scrolled, Viewport: s.host.Viewport()}, nil
}

func (s *Server) handleConfirm(args json.RawMessage) (interface{}, error) {
	var a pointArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	req := s.current()
	if req == nil || s.ctrl.Status() != eyedropper.Armed {
		return nil, fmt.Errorf("no armed session: %w", eyedropper.ErrInvalidState)
	}

	x, y, ok := a.point()
	if ok {
		if err := s.host.Move(x, y); err != nil {
			return nil, err
		}
	}
	// The settled request carries the authoritative error.
	_ = s.host.Confirm(x, y)

	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()
	res, err := req.Wait(ctx)
	s.release(req)
	if err != nil {
		return nil, err
	}

	if s.clipboard.Load() {
		s.copyToClipboard(res.SRGBHex)
	}
	return res, nil
}

func (s *Server) copyToClipboard(hex string) {
	if clipboard.Unsupported {
		s.logger.Warn("clipboard unsupported on this system", logging.KeyColor, hex)
		return
	}
	if err := clipboard.WriteAll(hex); err != nil {
		s.logger.Warn("clipboard copy failed", logging.KeyColor, hex, logging.KeyError, err)
	}
}

type cancelArgs struct {
	Reason string `json:"reason"`
}

type cancelResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Color  string `json:"sRGBHex,omitempty"`
}

func (s *Server) handleCancel(args json.RawMessage) (interface{}, error) {
	var a cancelArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	s.mu.Lock()
	req, cancel := s.req, s.cancel
	s.mu.Unlock()
	if req == nil {
		return nil, fmt.Errorf("no open session: %w", eyedropper.ErrInvalidState)
	}

	var cause error
	if a.Reason != "" {
		cause = errors.New(a.Reason)
	}
	cancel(cause)

	ctx, done := context.WithTimeout(context.Background(), settleTimeout)
	defer done()
	res, err := req.Wait(ctx)
	s.release(req)

	out := cancelResult{ID: req.ID(), Status: eyedropper.Closed.String(), Color: res.SRGBHex}
	if err != nil {
		out.Error = err.Error()
	}
	return out, nil
}

// current returns the request of the most recently opened session.
func (s *Server) current() *eyedropper.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.req
}

// release forgets req once it has settled.
func (s *Server) release(req *eyedropper.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.req != req {
		return
	}
	s.cancel(nil)
	s.req, s.cancel = nil, nil
}

// === Inspection Handlers ===

type statusResult struct {
	eyedropper.Snapshot

	Cursor       string              `json:"cursor"`
	ScrollLocked bool                `json:"scroll_locked"`
	Layers       []string            `json:"layers"`
	Viewport     eyedropper.Viewport `json:"viewport"`
	Supported    bool                `json:"supported"`
}

func (s *Server) handleStatus(json.RawMessage) (interface{}, error) {
	return statusResult{
		Snapshot:     s.ctrl.Snapshot(),
		Cursor:       s.host.Cursor(),
		ScrollLocked: s.host.ScrollLocked(),
		Layers:       s.host.Layers(),
		Viewport:     s.host.Viewport(),
		Supported:    eyedropper.Supported(s.host),
	}, nil
}

type previewArgs struct {
	Radius          int     `json:"radius"`
	Scale           float64 `json:"scale"`
	GridSpacing     int     `json:"grid_spacing"`
	GridColor       string  `json:"grid_color"`
	ShowCoordinates bool    `json:"show_coordinates"`
}

func (s *Server) handlePreview(args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Radius == 0 {
		a.Radius = defaultRadius
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	surface := s.host.Composite()
	if surface == nil {
		return nil, errors.New("nothing is mounted on the host")
	}

	center := image.Pt(
		(surface.Bounds().Min.X+surface.Bounds().Max.X)/2,
		(surface.Bounds().Min.Y+surface.Bounds().Max.Y)/2,
	)
	if snap := s.ctrl.Snapshot(); snap.HasPoint {
		center = snap.Point
	}
	grid := imaging.Grid{Spacing: a.GridSpacing, Color: a.GridColor, Labels: a.ShowCoordinates}
	return imaging.CropAround(surface, center.X, center.Y, a.Radius, a.Scale, grid)
}

// === Color Operation Handlers ===

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
