package host

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/ironsheep/eyedropper-mcp/internal/eyedropper"
)

// ErrNotMounted is returned by Unmount for a layer that is not mounted.
var ErrNotMounted = errors.New("layer not mounted")

// Virtual is an in-process host document: a viewport, a cursor, a stack of
// mounted layers and a pointer event bus. It implements eyedropper.Host,
// eyedropper.PointerSource and eyedropper.Registry.
//
// Handlers are invoked without the host lock held, so they may call back
// into the host.
type Virtual struct {
	mu           sync.Mutex
	viewport     eyedropper.Viewport
	cursor       string
	scrollLocked bool
	layers       []eyedropper.Layer
	handlers     map[uint64]eyedropper.PointerHandler
	nextID       uint64
	globals      map[string]any
}

// NewVirtual creates a host with the given viewport and no layers.
func NewVirtual(vp eyedropper.Viewport) *Virtual {
	return &Virtual{
		viewport: vp,
		handlers: make(map[uint64]eyedropper.PointerHandler),
		globals:  make(map[string]any),
	}
}

// Viewport returns the current viewport, including scroll offsets.
func (v *Virtual) Viewport() eyedropper.Viewport {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.viewport
}

// Cursor returns the document cursor.
func (v *Virtual) Cursor() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cursor
}

// SetCursor sets the document cursor.
func (v *Virtual) SetCursor(cursor string) {
	v.mu.Lock()
	v.cursor = cursor
	v.mu.Unlock()
}

// SetScrollLock freezes or releases scrolling.
func (v *Virtual) SetScrollLock(locked bool) {
	v.mu.Lock()
	v.scrollLocked = locked
	v.mu.Unlock()
}

// ScrollLocked reports whether scrolling is frozen.
func (v *Virtual) ScrollLocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollLocked
}

// ScrollTo moves the scroll offsets. It is ignored while scrolling is
// locked and reports whether the offsets changed.
func (v *Virtual) ScrollTo(x, y float64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.scrollLocked {
		return false
	}
	v.viewport.ScrollX, v.viewport.ScrollY = x, y
	return true
}

// Resize replaces the viewport geometry, keeping the scroll offsets.
func (v *Virtual) Resize(vp eyedropper.Viewport) {
	v.mu.Lock()
	vp.ScrollX, vp.ScrollY = v.viewport.ScrollX, v.viewport.ScrollY
	v.viewport = vp
	v.mu.Unlock()
}

// Mount appends layer on top of the stack.
func (v *Virtual) Mount(layer eyedropper.Layer) error {
	if layer == nil {
		return errors.New("mount nil layer")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, l := range v.layers {
		if l == layer {
			return fmt.Errorf("layer %q already mounted", layer.Name())
		}
	}
	v.layers = append(v.layers, layer)
	return nil
}

// Unmount removes layer. Removing a layer that is not mounted fails with
// ErrNotMounted.
func (v *Virtual) Unmount(layer eyedropper.Layer) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, l := range v.layers {
		if l == layer {
			v.layers = append(v.layers[:i], v.layers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("unmount %q: %w", layer.Name(), ErrNotMounted)
}

// Layers returns the names of the mounted layers, bottom first.
func (v *Virtual) Layers() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	names := make([]string, len(v.layers))
	for i, l := range v.layers {
		names[i] = l.Name()
	}
	return names
}

// Composite flattens the mounted layers, bottom first, into one image the
// size of the largest layer. It returns nil when nothing is mounted.
func (v *Virtual) Composite() *image.RGBA {
	v.mu.Lock()
	layers := append([]eyedropper.Layer(nil), v.layers...)
	v.mu.Unlock()

	var bounds image.Rectangle
	imgs := make([]image.Image, 0, len(layers))
	for _, l := range layers {
		img := l.Image()
		if img == nil {
			continue
		}
		imgs = append(imgs, img)
		bounds = bounds.Union(img.Bounds())
	}
	if len(imgs) == 0 {
		return nil
	}

	out := image.NewRGBA(bounds)
	for _, img := range imgs {
		draw.Draw(out, img.Bounds(), img, img.Bounds().Min, draw.Over)
	}
	return out
}

// Subscribe registers h for pointer events.
func (v *Virtual) Subscribe(h eyedropper.PointerHandler) func() {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.handlers[id] = h
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.handlers, id)
			v.mu.Unlock()
		})
	}
}

// Subscribers returns the number of registered pointer handlers.
func (v *Virtual) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.handlers)
}

// Move dispatches a move event to every subscribed handler.
func (v *Virtual) Move(clientX, clientY float64) error {
	ev := eyedropper.PointerEvent{ClientX: clientX, ClientY: clientY}
	return v.dispatch(func(h eyedropper.PointerHandler) error { return h.PointerMove(ev) })
}

// Confirm dispatches a confirm event to every subscribed handler.
func (v *Virtual) Confirm(clientX, clientY float64) error {
	ev := eyedropper.PointerEvent{ClientX: clientX, ClientY: clientY}
	return v.dispatch(func(h eyedropper.PointerHandler) error { return h.PointerConfirm(ev) })
}

func (v *Virtual) dispatch(fn func(eyedropper.PointerHandler) error) error {
	v.mu.Lock()
	hs := make([]eyedropper.PointerHandler, 0, len(v.handlers))
	for _, h := range v.handlers {
		hs = append(hs, h)
	}
	v.mu.Unlock()

	var errs []error
	for _, h := range hs {
		if err := fn(h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Lookup implements eyedropper.Registry.
func (v *Virtual) Lookup(name string) (any, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	val, ok := v.globals[name]
	return val, ok
}

// Define implements eyedropper.Registry. Names are write-once.
func (v *Virtual) Define(name string, value any) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.globals[name]; ok {
		return fmt.Errorf("%q is already defined", name)
	}
	v.globals[name] = value
	return nil
}

// Globals returns the defined names.
func (v *Virtual) Globals() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	names := make([]string, 0, len(v.globals))
	for name := range v.globals {
		names = append(names, name)
	}
	return names
}
