package imaging

import (
	"fmt"
	"image"
	"strconv"
)

// RGBColor represents an RGB color with 8-bit components.
//
// Each component ranges from 0 to 255, where:
//   - 0 represents no intensity (black for all components)
//   - 255 represents full intensity (white for all components)
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// RGBAColor represents an RGBA color with 8-bit components including alpha.
//
// The alpha component represents opacity:
//   - 0 = fully transparent
//   - 255 = fully opaque
type RGBAColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
	A uint8 `json:"a"` // Alpha/opacity component (0-255)
}

// ColorResult contains a color value in the representations the tools report.
//
// Hex uses the same encoding as a confirmed eyedropper selection, so a value
// read through the image_sample_color tool can be compared verbatim with a
// picked color.
type ColorResult struct {
	Hex  string    `json:"hex"`  // Hex format "#rrggbb" (no alpha)
	RGB  RGBColor  `json:"rgb"`  // RGB components
	RGBA RGBAColor `json:"rgba"` // RGBA components with alpha
}

// SampleRGB reads the red, green and blue channels of the pixel at (x, y).
//
// The buffer is read directly through Pix and Stride; the caller is
// responsible for passing coordinates inside buf.Rect. Alpha is ignored and
// the stored (premultiplied) channel values are returned as-is.
func SampleRGB(buf *image.RGBA, x, y int) RGBColor {
	off := buf.PixOffset(x, y)
	p := buf.Pix[off : off+3 : off+3]
	return RGBColor{R: p[0], G: p[1], B: p[2]}
}

// HexString encodes c as a 7-character lowercase "#rrggbb" string.
//
// The channels are packed as 0x1000000 | r<<16 | g<<8 | b so the hex
// rendering always has exactly seven digits; the forced leading "1" is then
// replaced by '#'.
func HexString(c RGBColor) string {
	v := uint64(0x1000000 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B))
	var buf [8]byte
	b := strconv.AppendUint(buf[:0], v, 16)
	b[0] = '#'
	return string(b)
}

// SampleHex returns the hex encoding of the pixel at (x, y).
func SampleHex(buf *image.RGBA, x, y int) string {
	return HexString(SampleRGB(buf, x, y))
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Parameters:
//   - img: The source image to sample from.
//   - x: X coordinate (0-based, 0 = leftmost pixel).
//   - y: Y coordinate (0-based, 0 = topmost pixel).
//
// Returns:
//   - *ColorResult: The color at (x, y) in multiple formats.
//   - error: Non-nil if coordinates are outside the image bounds.
//
// # Color Conversion
//
// The function reads the native color from the image and converts it to 8-bit
// components. For 16-bit images, values are scaled down by right-shifting 8 bits.
// The Hex format excludes alpha; use RGBA.A to get transparency information.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	var rgb RGBColor
	var a8 uint8
	if rgba, ok := img.(*image.RGBA); ok {
		rgb = SampleRGB(rgba, x, y)
		a8 = rgba.Pix[rgba.PixOffset(x, y)+3]
	} else {
		r, g, b, a := img.At(x, y).RGBA()
		// Convert from 16-bit to 8-bit
		rgb = RGBColor{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
		a8 = uint8(a >> 8)
	}

	return &ColorResult{
		Hex:  HexString(rgb),
		RGB:  rgb,
		RGBA: RGBAColor{R: rgb.R, G: rgb.G, B: rgb.B, A: a8},
	}, nil
}
