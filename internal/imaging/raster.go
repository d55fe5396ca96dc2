package imaging

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
)

// ErrReleased is returned when a raster is read after Release.
var ErrReleased = errors.New("raster released")

// Raster is a still pixel snapshot owned by exactly one picking session.
//
// The pixels are an independent copy of the captured image, so the capture
// engine may reuse its own buffers freely. After Release the pixel memory is
// dropped and every read fails with ErrReleased.
type Raster struct {
	mu  sync.RWMutex
	buf *image.RGBA
}

// NewRaster copies src into a raster of exactly width x height pixels.
//
// Capture engines do not always honour the requested size (HiDPI screens,
// browser rounding). A source of a different size is resampled with
// nearest-neighbour so that no blended colors are introduced and the
// buffer-space coordinate math of the pointer tracker stays valid.
//
// Returns an error if src is nil or the requested size is empty.
func NewRaster(src image.Image, width, height int) (*Raster, error) {
	if src == nil {
		return nil, errors.New("nil source image")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}

	b := src.Bounds()
	if b.Dx() != width || b.Dy() != height {
		src = imaging.Resize(src, width, height, imaging.NearestNeighbor)
	}

	buf := clone.AsRGBA(src)
	if buf.Rect.Min != (image.Point{}) {
		// Rebase so buffer coordinates always start at (0,0).
		buf = &image.RGBA{
			Pix:    buf.Pix,
			Stride: buf.Stride,
			Rect:   image.Rect(0, 0, buf.Rect.Dx(), buf.Rect.Dy()),
		}
	}
	return &Raster{buf: buf}, nil
}

// Bounds returns the raster rectangle, or the empty rectangle once released.
func (r *Raster) Bounds() image.Rectangle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.buf == nil {
		return image.Rectangle{}
	}
	return r.buf.Rect
}

// Contains reports whether (x, y) addresses a pixel of the raster.
func (r *Raster) Contains(x, y int) bool {
	return image.Pt(x, y).In(r.Bounds())
}

// Hex samples the pixel at (x, y) and returns its "#rrggbb" encoding.
//
// Coordinates must lie inside Bounds; reading a released raster returns
// ErrReleased.
func (r *Raster) Hex(x, y int) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.buf == nil {
		return "", ErrReleased
	}
	return SampleHex(r.buf, x, y), nil
}

// Image exposes the underlying buffer for read-only rendering (overlays,
// previews). It returns nil after Release.
func (r *Raster) Image() *image.RGBA {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buf
}

// Release drops the pixel memory. Calling Release more than once is a no-op.
func (r *Raster) Release() {
	r.mu.Lock()
	r.buf = nil
	r.mu.Unlock()
}
