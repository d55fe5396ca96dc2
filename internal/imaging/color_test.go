package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage creates an image with different colors in each quadrant
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			if x < width/2 && y < height/2 {
				c = color.RGBA{255, 0, 0, 255} // Red top-left
			} else if x >= width/2 && y < height/2 {
				c = color.RGBA{0, 255, 0, 255} // Green top-right
			} else if x < width/2 && y >= height/2 {
				c = color.RGBA{0, 0, 255, 255} // Blue bottom-left
			} else {
				c = color.RGBA{255, 255, 255, 255} // White bottom-right
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestSampleHex_KnownColors(t *testing.T) {
	tests := []struct {
		name  string
		color color.RGBA
		want  string
	}{
		{"pure red", color.RGBA{255, 0, 0, 255}, "#ff0000"},
		{"black", color.RGBA{0, 0, 0, 255}, "#000000"},
		{"white", color.RGBA{255, 255, 255, 255}, "#ffffff"},
		{"pure green", color.RGBA{0, 255, 0, 255}, "#00ff00"},
		{"pure blue", color.RGBA{0, 0, 255, 255}, "#0000ff"},
		{"low channels keep leading zeros", color.RGBA{1, 2, 3, 255}, "#010203"},
		{"mixed", color.RGBA{0xab, 0xcd, 0xef, 255}, "#abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createInMemoryImage(4, 4, tt.color)
			got := SampleHex(img, 2, 1)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, 7)
		})
	}
}

func TestSampleRGB_IgnoresAlpha(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Pix[0], img.Pix[1], img.Pix[2], img.Pix[3] = 10, 20, 30, 0

	assert.Equal(t, RGBColor{R: 10, G: 20, B: 30}, SampleRGB(img, 0, 0))
	assert.Equal(t, "#0a141e", SampleHex(img, 0, 0))
}

func TestSampleRGB_SubImage(t *testing.T) {
	img := createPatternImage(100, 100)
	sub := img.SubImage(image.Rect(50, 50, 100, 100)).(*image.RGBA)

	assert.Equal(t, "#ffffff", SampleHex(sub, 60, 60))
	assert.Equal(t, "#ff0000", SampleHex(img, 10, 10))
}

func TestSampleHex_Deterministic(t *testing.T) {
	img := createPatternImage(10, 10)
	first := SampleHex(img, 7, 2)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, SampleHex(img, 7, 2))
	}
	assert.Equal(t, "#00ff00", first)
}

func TestHexString(t *testing.T) {
	assert.Equal(t, "#000000", HexString(RGBColor{}))
	assert.Equal(t, "#665f75", HexString(RGBColor{R: 0x66, G: 0x5f, B: 0x75}))
}

func TestSampleColor(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 128, 64, 255})

	result, err := SampleColor(img, 50, 50)
	require.NoError(t, err)

	assert.Equal(t, "#ff8040", result.Hex)
	assert.Equal(t, RGBColor{R: 255, G: 128, B: 64}, result.RGB)
	assert.Equal(t, RGBAColor{R: 255, G: 128, B: 64, A: 255}, result.RGBA)
}

func TestSampleColor_NonRGBAImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	img.Set(1, 1, color.NRGBA{0, 0, 255, 255})

	result, err := SampleColor(img, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "#0000ff", result.Hex)
}

func TestSampleColor_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name string
		x, y int
	}{
		{"negative x", -1, 50},
		{"negative y", 50, -1},
		{"x too large", 100, 50},
		{"y too large", 50, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SampleColor(img, tt.x, tt.y)
			assert.Error(t, err)
		})
	}
}

func BenchmarkSampleHex(b *testing.B) {
	img := createPatternImage(256, 256)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = SampleHex(img, i&255, (i>>8)&255)
	}
}
