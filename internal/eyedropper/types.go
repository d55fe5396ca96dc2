package eyedropper

import (
	"image"
	"math"
)

// Status is the lifecycle state of a picking session.
type Status int

const (
	// Idle means no session is active; Open is legal.
	Idle Status = iota
	// Capturing means the surface is being rasterized and the busy cursor
	// is shown.
	Capturing
	// Armed means the raster is mounted and pointer events are sampled.
	Armed
	// Closed is terminal for one session.
	Closed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Armed:
		return "armed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Active reports whether s holds the single-session slot.
func (s Status) Active() bool {
	return s == Capturing || s == Armed
}

// ColorSelectionResult is the value a successful session resolves with.
type ColorSelectionResult struct {
	SRGBHex string `json:"sRGBHex"`
}

// Viewport describes the host surface at the moment a session starts and
// whenever a pointer event is converted to buffer space.
type Viewport struct {
	// Width and Height are the visible client area in CSS pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// DocumentWidth and DocumentHeight are the full scrollable surface in
	// CSS pixels. Zero means "same as the client area".
	DocumentWidth  int `json:"document_width"`
	DocumentHeight int `json:"document_height"`

	// ScrollX and ScrollY are the current scroll offsets in CSS pixels.
	ScrollX float64 `json:"scroll_x"`
	ScrollY float64 `json:"scroll_y"`

	// DevicePixelRatio is the number of buffer pixels per CSS pixel.
	// Zero is treated as 1.
	DevicePixelRatio float64 `json:"device_pixel_ratio"`
}

// DPR returns the effective device pixel ratio.
func (v Viewport) DPR() float64 {
	if v.DevicePixelRatio <= 0 {
		return 1
	}
	return v.DevicePixelRatio
}

// CaptureSize returns the CSS-pixel size of the surface to rasterize.
func (v Viewport) CaptureSize() (int, int) {
	w, h := v.DocumentWidth, v.DocumentHeight
	if w <= 0 {
		w = v.Width
	}
	if h <= 0 {
		h = v.Height
	}
	return w, h
}

// BufferPoint converts client coordinates to buffer space:
// (client + scroll) * devicePixelRatio, floored to a pixel index.
func (v Viewport) BufferPoint(clientX, clientY float64) image.Point {
	dpr := v.DPR()
	return image.Pt(
		int(math.Floor((clientX+v.ScrollX)*dpr)),
		int(math.Floor((clientY+v.ScrollY)*dpr)),
	)
}

// PointerEvent is a raw move or confirm event in client coordinates.
type PointerEvent struct {
	ClientX float64 `json:"client_x"`
	ClientY float64 `json:"client_y"`
}

// CaptureRequest asks a Capturer for a raster of Width x Height CSS pixels
// rendered at Scale buffer pixels per CSS pixel.
type CaptureRequest struct {
	Width  int
	Height int
	Scale  float64
}

// PixelSize returns the buffer dimensions the request resolves to.
func (r CaptureRequest) PixelSize() (int, int) {
	scale := r.Scale
	if scale <= 0 {
		scale = 1
	}
	return int(math.Round(float64(r.Width) * scale)), int(math.Round(float64(r.Height) * scale))
}
