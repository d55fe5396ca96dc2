package magnifier

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createQuadrantImage fills the left half red and the right half blue.
func createQuadrantImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{0, 0, 255, 255})
			}
		}
	}
	return img
}

func TestNew_Defaults(t *testing.T) {
	m, err := New(createQuadrantImage(50, 50), Options{})
	require.NoError(t, err)

	opts := m.Options()
	assert.Equal(t, DefaultZoom, opts.Zoom)
	assert.Equal(t, DefaultRadius, opts.Radius)
	assert.Equal(t, DefaultRingColor, opts.RingColor)
	assert.Equal(t, DefaultRingWidth, opts.RingWidth)
	assert.Equal(t, LayerName, m.Name())

	_, shown := m.Center()
	assert.False(t, shown)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, DefaultOptions())
	assert.Error(t, err)

	_, err = New(image.NewRGBA(image.Rectangle{}), DefaultOptions())
	assert.Error(t, err)

	_, err = New(createQuadrantImage(10, 10), Options{RingColor: "not-a-color"})
	assert.Error(t, err)
}

func TestMove_RendersLens(t *testing.T) {
	src := createQuadrantImage(400, 400)
	m, err := New(src, Options{Zoom: 4, Radius: 40, RingWidth: 2})
	require.NoError(t, err)

	p := image.Pt(100, 200)
	m.Move(p, "")

	canvas := m.Image().(*image.RGBA)

	// The lens center shows the source pixel under the pointer.
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, canvas.RGBAAt(p.X, p.Y))

	// Far outside the lens the canvas stays transparent.
	assert.Equal(t, color.RGBA{}, canvas.RGBAAt(300, 50))

	// Corner of the lens square is outside the circle.
	assert.Equal(t, color.RGBA{}, canvas.RGBAAt(p.X-39, p.Y-39))

	// A point on the ring carries the ring color.
	assert.Equal(t, color.RGBA{0x66, 0x5f, 0x75, 255}, canvas.RGBAAt(p.X+40, p.Y))

	center, shown := m.Center()
	assert.True(t, shown)
	assert.Equal(t, p, center)
}

func TestMove_ZoomMagnifiesNeighbourhood(t *testing.T) {
	src := createQuadrantImage(400, 400)
	m, err := New(src, Options{Zoom: 10, Radius: 100})
	require.NoError(t, err)

	// Pointer 5px left of the red/blue boundary: with 10x zoom the boundary
	// appears 50px right of the lens center.
	p := image.Pt(195, 200)
	m.Move(p, "")
	canvas := m.Image().(*image.RGBA)

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, canvas.RGBAAt(p.X+40, p.Y))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, canvas.RGBAAt(p.X+60, p.Y))
}

func TestMove_DoesNotTouchSource(t *testing.T) {
	src := createQuadrantImage(300, 300)
	before := append([]byte(nil), src.Pix...)

	m, err := New(src, DefaultOptions())
	require.NoError(t, err)
	m.Move(image.Pt(150, 150), "#ff0000")
	m.Move(image.Pt(10, 10), "#ff0000")

	assert.Equal(t, before, src.Pix)
}

func TestMove_Readout(t *testing.T) {
	src := createQuadrantImage(300, 300)
	m, err := New(src, Options{Zoom: 2, Radius: 20, Readout: true})
	require.NoError(t, err)

	p := image.Pt(150, 100)
	m.Move(p, "#ff0000")
	canvas := m.Image().(*image.RGBA)

	// The readout box starts just below the ring and is filled with the ring
	// color at its padded edge.
	top := p.Y + 20 + DefaultRingWidth + readoutGap
	assert.Equal(t, color.RGBA{0x66, 0x5f, 0x75, 255}, canvas.RGBAAt(p.X, top))
}

func TestClose(t *testing.T) {
	m, err := New(createQuadrantImage(20, 20), DefaultOptions())
	require.NoError(t, err)

	m.Close()
	assert.Nil(t, m.Image())

	// Moving after close is harmless.
	m.Move(image.Pt(5, 5), "#000000")
	_, shown := m.Center()
	assert.False(t, shown)
}

func TestMove_ClearsOnlyPreviousLens(t *testing.T) {
	m, err := New(createQuadrantImage(400, 400), Options{Radius: 20, Zoom: 4, Readout: true})
	require.NoError(t, err)

	m.Move(image.Pt(50, 50), "#ff0000")
	first := m.dirty
	assert.True(t, first.In(image.Rect(0, 0, 100, 120)), "dirty %v", first)
	assert.NotZero(t, m.canvas.RGBAAt(50, 50).A)

	m.Move(image.Pt(300, 300), "#0000ff")
	assert.Zero(t, m.canvas.RGBAAt(50, 50).A, "old lens erased")
	for y := first.Min.Y; y < first.Max.Y; y++ {
		for x := first.Min.X; x < first.Max.X; x++ {
			require.Zero(t, m.canvas.RGBAAt(x, y).A, "pixel (%d,%d)", x, y)
		}
	}
	assert.NotZero(t, m.canvas.RGBAAt(300, 300).A)
	assert.True(t, m.dirty.In(image.Rect(250, 250, 350, 370)), "dirty %v", m.dirty)
}
