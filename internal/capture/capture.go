package capture

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/eyedropper-mcp/internal/eyedropper"
	localimaging "github.com/ironsheep/eyedropper-mcp/internal/imaging"
)

// Static captures a fixed in-memory image.
type Static struct {
	Image image.Image
}

// Capture returns the image scaled to the requested pixel size.
func (s Static) Capture(ctx context.Context, req eyedropper.CaptureRequest) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Image == nil {
		return nil, errors.New("static capture: no image")
	}
	return fit(s.Image, req), nil
}

// File captures an image file, read through a shared cache.
type File struct {
	Path  string
	Cache *localimaging.ImageCache
}

// NewFile creates a file capturer with its own cache.
func NewFile(path string) *File {
	return &File{Path: path, Cache: localimaging.NewImageCache()}
}

// Capture loads the file and scales it to the requested pixel size.
func (f *File) Capture(ctx context.Context, req eyedropper.CaptureRequest) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Path == "" {
		return nil, errors.New("file capture: no path configured")
	}
	img, err := f.Cache.Load(f.Path)
	if err != nil {
		return nil, fmt.Errorf("file capture: %w", err)
	}
	return fit(img, req), nil
}

// fit resizes img to the request's pixel size when it differs, using
// nearest-neighbour so no blended colors appear.
func fit(img image.Image, req eyedropper.CaptureRequest) image.Image {
	w, h := req.PixelSize()
	if w <= 0 || h <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	return imaging.Resize(img, w, h, imaging.NearestNeighbor)
}
