package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/ironsheep/eyedropper-mcp/internal/eyedropper"
)

// Browser rasterizes a live web page through the Chrome DevTools protocol.
// The page is opened lazily on first use and reused across sessions.
type Browser struct {
	// URL is the page to open.
	URL string
	// ControlURL connects to an already running browser. Empty launches a
	// headless one.
	ControlURL string

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
}

// NewBrowser creates a capturer for url.
func NewBrowser(url, controlURL string) *Browser {
	return &Browser{URL: url, ControlURL: controlURL}
}

func (b *Browser) ensurePage(ctx context.Context) (*rod.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.page != nil {
		return b.page, nil
	}
	if b.URL == "" {
		return nil, errors.New("browser capture: no url configured")
	}

	controlURL := b.ControlURL
	if controlURL == "" {
		u, err := launcher.New().Headless(true).Context(ctx).Launch()
		if err != nil {
			return nil, fmt.Errorf("browser capture: launch: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("browser capture: connect: %w", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: b.URL})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("browser capture: open %s: %w", b.URL, err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("browser capture: load %s: %w", b.URL, err)
	}

	b.browser, b.page = browser, page
	return page, nil
}

// Viewport reads the page's window metrics.
func (b *Browser) Viewport(ctx context.Context) (eyedropper.Viewport, error) {
	page, err := b.ensurePage(ctx)
	if err != nil {
		return eyedropper.Viewport{}, err
	}
	res, err := page.Context(ctx).Eval(`() => ({
		w: window.innerWidth, h: window.innerHeight,
		dw: document.body.scrollWidth, dh: document.body.scrollHeight,
		sx: window.scrollX, sy: window.scrollY,
		dpr: window.devicePixelRatio,
	})`)
	if err != nil {
		return eyedropper.Viewport{}, fmt.Errorf("browser capture: read viewport: %w", err)
	}
	v := res.Value
	return eyedropper.Viewport{
		Width:            v.Get("w").Int(),
		Height:           v.Get("h").Int(),
		DocumentWidth:    v.Get("dw").Int(),
		DocumentHeight:   v.Get("dh").Int(),
		ScrollX:          v.Get("sx").Num(),
		ScrollY:          v.Get("sy").Num(),
		DevicePixelRatio: v.Get("dpr").Num(),
	}, nil
}

// Capture takes a full-page screenshot at the requested size and scale.
func (b *Browser) Capture(ctx context.Context, req eyedropper.CaptureRequest) (image.Image, error) {
	page, err := b.ensurePage(ctx)
	if err != nil {
		return nil, err
	}
	page = page.Context(ctx)

	scale := req.Scale
	if scale <= 0 {
		scale = 1
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             req.Width,
		Height:            req.Height,
		DeviceScaleFactor: scale,
	}); err != nil {
		return nil, fmt.Errorf("browser capture: set viewport: %w", err)
	}

	data, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser capture: screenshot: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("browser capture: decode: %w", err)
	}
	return fit(img, req), nil
}

// Close shuts the browser connection down.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser, b.page = nil, nil
	return err
}
