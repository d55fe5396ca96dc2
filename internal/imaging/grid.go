package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultGridColor is semi-transparent red.
const DefaultGridColor = "#FF000080"

// Grid describes a coordinate grid drawn over a preview. A zero Spacing
// disables the grid.
type Grid struct {
	Spacing int
	Color   string
	Labels  bool
}

// DrawGrid draws grid lines over dst at every multiple of g.Spacing.
// origin is the position of dst's top-left pixel on the surface it was
// cut from, so lines and labels use surface coordinates.
func DrawGrid(dst draw.Image, origin image.Point, g Grid) error {
	if g.Spacing <= 0 {
		return nil
	}
	hex := g.Color
	if hex == "" {
		hex = DefaultGridColor
	}
	lineColor, err := parseHexColor(hex)
	if err != nil {
		return fmt.Errorf("grid color %q: %w", hex, err)
	}

	b := dst.Bounds()
	line := image.NewUniform(lineColor)
	xs := gridStops(origin.X, b.Dx(), g.Spacing)
	ys := gridStops(origin.Y, b.Dy(), g.Spacing)

	for _, lx := range xs {
		r := image.Rect(b.Min.X+lx, b.Min.Y, b.Min.X+lx+1, b.Max.Y)
		draw.Draw(dst, r, line, image.Point{}, draw.Over)
	}
	for _, ly := range ys {
		r := image.Rect(b.Min.X, b.Min.Y+ly, b.Max.X, b.Min.Y+ly+1)
		draw.Draw(dst, r, line, image.Point{}, draw.Over)
	}

	if g.Labels {
		fg := color.RGBA{255, 255, 255, 255}
		bg := color.RGBA{0, 0, 0, 180}
		for _, ly := range ys {
			for _, lx := range xs {
				label := fmt.Sprintf("%d,%d", origin.X+lx, origin.Y+ly)
				drawLabel(dst, image.Pt(b.Min.X+lx+2, b.Min.Y+ly+2), label, fg, bg)
			}
		}
	}
	return nil
}

// gridStops returns the local offsets in [0, length) whose surface
// coordinate is a positive multiple of spacing.
func gridStops(origin, length, spacing int) []int {
	first := origin + spacing - 1
	if first < spacing {
		first = spacing
	}
	first -= first % spacing

	var stops []int
	for v := first; v < origin+length; v += spacing {
		stops = append(stops, v-origin)
	}
	return stops
}

// parseHexColor parses "#rrggbb" or "#rrggbbaa".
func parseHexColor(hex string) (color.RGBA, error) {
	var alpha uint8 = 255
	if len(hex) == 9 {
		a, err := strconv.ParseUint(hex[7:], 16, 8)
		if err != nil {
			return color.RGBA{}, err
		}
		alpha = uint8(a)
		hex = hex[:7]
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	// color.RGBA is alpha-premultiplied.
	pm := func(v uint8) uint8 { return uint8(uint16(v) * uint16(alpha) / 255) }
	return color.RGBA{R: pm(r), G: pm(g), B: pm(b), A: alpha}, nil
}

// drawLabel draws text on a filled box whose top-left corner is at.
func drawLabel(dst draw.Image, at image.Point, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: face,
	}
	w := d.MeasureString(text).Ceil()
	box := image.Rect(at.X, at.Y, at.X+w+2, at.Y+face.Height+2)
	draw.Draw(dst, box, image.NewUniform(bg), image.Point{}, draw.Over)

	d.Dot = fixed.P(at.X+1, at.Y+1+face.Ascent)
	d.DrawString(text)
}
