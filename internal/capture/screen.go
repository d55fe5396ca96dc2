package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"github.com/ironsheep/eyedropper-mcp/internal/eyedropper"
)

// Screen captures a physical display.
type Screen struct {
	// Display is the index of the display to capture (0 = primary).
	Display int
}

// Bounds returns the display rectangle in screen coordinates.
func (s Screen) Bounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	if s.Display < 0 || s.Display >= n {
		return image.Rectangle{}, fmt.Errorf("display %d out of range (%d active)", s.Display, n)
	}
	return screenshot.GetDisplayBounds(s.Display), nil
}

// Viewport describes the display as a viewport whose device pixel ratio
// maps dipWidth CSS pixels onto the physical width.
func (s Screen) Viewport(dipWidth int) (eyedropper.Viewport, error) {
	b, err := s.Bounds()
	if err != nil {
		return eyedropper.Viewport{}, err
	}
	vp := eyedropper.Viewport{Width: b.Dx(), Height: b.Dy(), DevicePixelRatio: 1}
	if dipWidth > 0 && dipWidth != b.Dx() {
		dpr := float64(b.Dx()) / float64(dipWidth)
		vp.Width = dipWidth
		vp.Height = int(float64(b.Dy()) / dpr)
		vp.DevicePixelRatio = dpr
	}
	return vp, nil
}

// Capture grabs the display and scales it to the requested pixel size.
// Capture is limited to the one display; nothing outside its bounds is read.
func (s Screen) Capture(ctx context.Context, req eyedropper.CaptureRequest) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := s.Bounds()
	if err != nil {
		return nil, fmt.Errorf("screen capture: %w", err)
	}
	img, err := screenshot.CaptureRect(b)
	if err != nil {
		return nil, fmt.Errorf("screen capture: %w", err)
	}
	return fit(img, req), nil
}
