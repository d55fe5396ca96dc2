package magnifier

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Default lens geometry.
const (
	DefaultZoom      = 10
	DefaultRadius    = 120
	DefaultRingColor = "#665F75"
	DefaultRingWidth = 2
)

// LayerName is the name the magnifier is mounted under on a host.
const LayerName = "eyedropper-magnifier"

// readout box padding and gap below the lens, in canvas pixels
const (
	readoutPad = 3
	readoutGap = 6
)

// Options configures the lens. Zero fields take the defaults.
type Options struct {
	Zoom      int    `mapstructure:"zoom" json:"zoom"`
	Radius    int    `mapstructure:"radius" json:"radius"`
	RingColor string `mapstructure:"ring_color" json:"ring_color"`
	RingWidth int    `mapstructure:"ring_width" json:"ring_width"`
	Readout   bool   `mapstructure:"readout" json:"readout"`
}

// DefaultOptions returns the stock lens: 10x zoom, 120px radius, readout on.
func DefaultOptions() Options {
	return Options{
		Zoom:      DefaultZoom,
		Radius:    DefaultRadius,
		RingColor: DefaultRingColor,
		RingWidth: DefaultRingWidth,
		Readout:   true,
	}
}

func (o Options) withDefaults() Options {
	if o.Zoom <= 0 {
		o.Zoom = DefaultZoom
	}
	if o.Radius <= 0 {
		o.Radius = DefaultRadius
	}
	if o.RingColor == "" {
		o.RingColor = DefaultRingColor
	}
	if o.RingWidth <= 0 {
		o.RingWidth = DefaultRingWidth
	}
	return o
}

// Magnifier renders a zoomed, circularly clipped view of a source buffer
// onto a transparent canvas of the same size. It is a pure view: it never
// writes to the source.
type Magnifier struct {
	mu     sync.Mutex
	src    *image.RGBA
	canvas *image.RGBA
	lens   *image.RGBA
	opts   Options
	ring   color.RGBA
	center image.Point
	shown  bool
	// dirty bounds the lens, ring and readout drawn by the last Move.
	dirty image.Rectangle
}

// New allocates a magnifier over src. The canvas starts fully transparent
// until the first Move.
func New(src *image.RGBA, opts Options) (*Magnifier, error) {
	if src == nil || src.Rect.Empty() {
		return nil, errors.New("magnifier: empty source")
	}
	opts = opts.withDefaults()

	ring, err := colorful.Hex(opts.RingColor)
	if err != nil {
		return nil, fmt.Errorf("magnifier: ring color %q: %w", opts.RingColor, err)
	}
	r, g, b := ring.RGB255()

	d := 2 * opts.Radius
	return &Magnifier{
		src:    src,
		canvas: image.NewRGBA(src.Rect),
		lens:   image.NewRGBA(image.Rect(0, 0, d, d)),
		opts:   opts,
		ring:   color.RGBA{R: r, G: g, B: b, A: 255},
	}, nil
}

// Name implements the host layer contract.
func (m *Magnifier) Name() string { return LayerName }

// Image returns the current canvas, or nil after Close.
func (m *Magnifier) Image() image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.canvas == nil {
		return nil
	}
	return m.canvas
}

// Center reports the last lens position and whether the lens is visible.
func (m *Magnifier) Center() (image.Point, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.center, m.shown
}

// Options returns the effective lens options.
func (m *Magnifier) Options() Options { return m.opts }

// Move recenters the lens on p. A non-empty label is drawn as a readout
// below the lens when enabled.
func (m *Magnifier) Move(p image.Point, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.canvas == nil {
		return
	}

	if !m.dirty.Empty() {
		draw.Draw(m.canvas, m.dirty, image.Transparent, image.Point{}, draw.Src)
	}
	clear(m.lens.Pix)

	r := m.opts.Radius
	half := r / m.opts.Zoom
	if half < 1 {
		half = 1
	}
	sr := image.Rect(p.X-half, p.Y-half, p.X+half, p.Y+half)
	xdraw.NearestNeighbor.Scale(m.lens, m.lens.Bounds(), m.src, sr, xdraw.Src, nil)

	dr := image.Rect(p.X-r, p.Y-r, p.X+r, p.Y+r)
	draw.DrawMask(m.canvas, dr, m.lens, image.Point{}, &circle{p: image.Pt(r, r), r: r}, image.Point{}, draw.Over)

	dirty := m.strokeRing(p)
	if m.opts.Readout && label != "" {
		dirty = dirty.Union(m.drawReadout(p, label))
	}
	m.dirty = dirty.Intersect(m.canvas.Rect)

	m.center = p
	m.shown = true
}

// Close drops the canvas. Subsequent Moves are no-ops.
func (m *Magnifier) Close() {
	m.mu.Lock()
	m.canvas = nil
	m.lens = nil
	m.src = nil
	m.shown = false
	m.dirty = image.Rectangle{}
	m.mu.Unlock()
}

// strokeRing draws the ring and returns the box around lens and ring.
func (m *Magnifier) strokeRing(p image.Point) image.Rectangle {
	r := float64(m.opts.Radius)
	w := float64(m.opts.RingWidth) / 2
	ext := m.opts.Radius + m.opts.RingWidth
	box := image.Rect(p.X-ext, p.Y-ext, p.X+ext+1, p.Y+ext+1).Intersect(m.canvas.Rect)

	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			dx := float64(x-p.X) + 0.5
			dy := float64(y-p.Y) + 0.5
			if math.Abs(math.Hypot(dx, dy)-r) <= w {
				m.canvas.SetRGBA(x, y, m.ring)
			}
		}
	}
	return box
}

func (m *Magnifier) drawReadout(p image.Point, label string) image.Rectangle {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  m.canvas,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	w := d.MeasureString(label).Ceil()
	top := p.Y + m.opts.Radius + m.opts.RingWidth + readoutGap
	box := image.Rect(p.X-w/2-readoutPad, top, p.X+w/2+readoutPad+1, top+face.Height+2*readoutPad)

	draw.Draw(m.canvas, box, image.NewUniform(m.ring), image.Point{}, draw.Src)
	d.Dot = fixed.P(box.Min.X+readoutPad, box.Min.Y+readoutPad+face.Ascent)
	d.DrawString(label)
	return box
}

// circle is an alpha mask that is opaque inside a disc of radius r around p.
type circle struct {
	p image.Point
	r int
}

func (c *circle) ColorModel() color.Model { return color.AlphaModel }

func (c *circle) Bounds() image.Rectangle {
	return image.Rect(c.p.X-c.r, c.p.Y-c.r, c.p.X+c.r, c.p.Y+c.r)
}

func (c *circle) At(x, y int) color.Color {
	xx, yy, rr := float64(x-c.p.X)+0.5, float64(y-c.p.Y)+0.5, float64(c.r)
	if xx*xx+yy*yy < rr*rr {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}
