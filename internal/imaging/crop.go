package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// ImageResult carries an encoded image back to an MCP client.
type ImageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG.
func EncodePNG(img image.Image) (*ImageResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	b := img.Bounds()
	return &ImageResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// CropAround extracts the square of side 2*radius centered on (x, y),
// clipped to the image, overlays grid in image coordinates, and scales the
// result by scale with nearest-neighbour so individual pixels stay
// distinguishable.
func CropAround(img image.Image, x, y, radius int, scale float64, grid Grid) (*ImageResult, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("invalid crop radius %d", radius)
	}

	bounds := img.Bounds()
	rect := image.Rect(x-radius, y-radius, x+radius, y+radius).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("crop around (%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x, y, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}

	cropped := imaging.Crop(img, rect)
	if err := DrawGrid(cropped, rect.Min, grid); err != nil {
		return nil, err
	}

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.NearestNeighbor)
	}

	return EncodePNG(cropped)
}
