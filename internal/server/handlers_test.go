package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/eyedropper-mcp/internal/config"
	"github.com/ironsheep/eyedropper-mcp/internal/eyedropper"
	"github.com/ironsheep/eyedropper-mcp/internal/imaging"
	"github.com/ironsheep/eyedropper-mcp/internal/magnifier"
)

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

// createTestImageFile writes a PNG whose left half is red and right half is
// blue, and returns its path.
func createTestImageFile(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.SetRGBA(x, y, red)
			} else {
				img.SetRGBA(x, y, blue)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func newTestServer(t *testing.T, path string) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Capture.Path = path
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	paramsJSON, err := json.Marshal(params)
	require.NoError(t, err)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	require.NotNil(t, resp)
	return resp
}

// callToolOK calls a tool, requires success and decodes the text content
// into out.
func callToolOK(t *testing.T, s *Server, name string, args interface{}, out interface{}) {
	t.Helper()
	resp := callTool(t, s, name, args)
	require.Nil(t, resp.Error, "tool %s failed: %+v", name, resp.Error)

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0]["type"])
	require.NoError(t, json.Unmarshal([]byte(content[0]["text"].(string)), out))
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t, createTestImageFile(t, 200, 100))

	var opened openResult
	callToolOK(t, s, "eyedropper_open", nil, &opened)
	assert.NotEmpty(t, opened.ID)
	assert.Equal(t, "armed", opened.Status)
	assert.Equal(t, 200, opened.Viewport.Width)
	assert.Equal(t, 100, opened.Viewport.Height)

	var snap eyedropper.Snapshot
	callToolOK(t, s, "eyedropper_move", map[string]interface{}{"x": 150, "y": 50}, &snap)
	assert.True(t, snap.HasPoint)
	assert.Equal(t, "#0000ff", snap.Color)
	assert.Equal(t, image.Pt(150, 50), snap.Point)

	var st statusResult
	callToolOK(t, s, "eyedropper_status", nil, &st)
	assert.Equal(t, "armed", st.Status)
	assert.True(t, st.ScrollLocked)
	assert.True(t, st.Supported)
	assert.Equal(t, []string{eyedropper.OverlayName, magnifier.LayerName}, st.Layers)

	var scrolled scrollResult
	callToolOK(t, s, "eyedropper_scroll", map[string]interface{}{"x": 0, "y": 40}, &scrolled)
	assert.False(t, scrolled.Scrolled)

	var preview imaging.ImageResult
	callToolOK(t, s, "eyedropper_preview", map[string]interface{}{"radius": 20}, &preview)
	assert.Equal(t, "image/png", preview.MimeType)
	assert.Equal(t, 40, preview.Width)
	assert.NotEmpty(t, preview.ImageBase64)

	var res eyedropper.ColorSelectionResult
	callToolOK(t, s, "eyedropper_confirm", map[string]interface{}{"x": 20, "y": 20}, &res)
	assert.Equal(t, "#ff0000", res.SRGBHex)

	callToolOK(t, s, "eyedropper_status", nil, &st)
	assert.Equal(t, "idle", st.Status)
	assert.False(t, st.ScrollLocked)
	assert.Empty(t, st.Layers)
	assert.Nil(t, s.current())
}

func TestOpen_DevicePixelRatio(t *testing.T) {
	s := newTestServer(t, createTestImageFile(t, 200, 100))

	var opened openResult
	callToolOK(t, s, "eyedropper_open", map[string]interface{}{"device_pixel_ratio": 2}, &opened)
	assert.Equal(t, 100, opened.Viewport.Width)
	assert.Equal(t, 50, opened.Viewport.Height)

	// Client (60, 10) maps to buffer (120, 20), right of the split.
	var snap eyedropper.Snapshot
	callToolOK(t, s, "eyedropper_move", map[string]interface{}{"x": 60, "y": 10}, &snap)
	assert.Equal(t, "#0000ff", snap.Color)
	assert.Equal(t, image.Pt(120, 20), snap.Point)
}

func TestOpen_RereadsRewrittenFile(t *testing.T) {
	path := createTestImageFile(t, 20, 20)
	s := newTestServer(t, path)

	var opened openResult
	var res eyedropper.ColorSelectionResult
	callToolOK(t, s, "eyedropper_open", nil, &opened)
	callToolOK(t, s, "eyedropper_confirm", map[string]interface{}{"x": 5, "y": 5}, &res)
	assert.Equal(t, "#ff0000", res.SRGBHex)

	solid := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for i := 0; i < len(solid.Pix); i += 4 {
		solid.Pix[i+2], solid.Pix[i+3] = 255, 255
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solid))
	require.NoError(t, f.Close())

	callToolOK(t, s, "eyedropper_open", nil, &opened)
	callToolOK(t, s, "eyedropper_confirm", map[string]interface{}{"x": 5, "y": 5}, &res)
	assert.Equal(t, "#0000ff", res.SRGBHex)
}

func TestOpen_AlreadyActive(t *testing.T) {
	s := newTestServer(t, createTestImageFile(t, 20, 20))

	var opened openResult
	callToolOK(t, s, "eyedropper_open", nil, &opened)

	resp := callTool(t, s, "eyedropper_open", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)
	assert.Contains(t, resp.Error.Data, "invalid state")
}

func TestOpen_NoPath(t *testing.T) {
	s := newTestServer(t, "")
	resp := callTool(t, s, "eyedropper_open", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, eyedropper.Idle, s.ctrl.Status())
}

func TestOpen_MissingFile(t *testing.T) {
	s := newTestServer(t, "")
	resp := callTool(t, s, "eyedropper_open", map[string]interface{}{
		"path":  filepath.Join(t.TempDir(), "missing.png"),
		"width": 10, "height": 10,
	})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Data, "capture failed")
	assert.Nil(t, s.current())
	assert.False(t, s.host.ScrollLocked())
}

func TestConfirm_WithoutMove(t *testing.T) {
	s := newTestServer(t, createTestImageFile(t, 20, 20))

	var opened openResult
	callToolOK(t, s, "eyedropper_open", nil, &opened)

	resp := callTool(t, s, "eyedropper_confirm", nil)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Data, eyedropper.ErrNoColor.Error())
	assert.Equal(t, eyedropper.Idle, s.ctrl.Status())
}

func TestConfirm_NoSession(t *testing.T) {
	s := newTestServer(t, "")
	resp := callTool(t, s, "eyedropper_confirm", nil)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Data, "no armed session")
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name    string
		reason  string
		wantErr string
	}{
		{"with reason", "user-cancelled", "eyedropper: aborted: user-cancelled"},
		{"without reason", "", "eyedropper: aborted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, createTestImageFile(t, 20, 20))

			var opened openResult
			callToolOK(t, s, "eyedropper_open", nil, &opened)

			var res cancelResult
			callToolOK(t, s, "eyedropper_cancel", map[string]interface{}{"reason": tt.reason}, &res)
			assert.Equal(t, opened.ID, res.ID)
			assert.Equal(t, "closed", res.Status)
			assert.Equal(t, tt.wantErr, res.Error)
			assert.Empty(t, res.Color)

			assert.Equal(t, eyedropper.Idle, s.ctrl.Status())
			assert.Empty(t, s.host.Layers())
			assert.Nil(t, s.current())
		})
	}
}

func TestCancel_NoSession(t *testing.T) {
	s := newTestServer(t, "")
	resp := callTool(t, s, "eyedropper_cancel", nil)
	require.NotNil(t, resp.Error)
}

func TestMove_Validation(t *testing.T) {
	s := newTestServer(t, "")
	resp := callTool(t, s, "eyedropper_move", map[string]interface{}{"x": 1})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Data, "x and y are required")
}

func TestScroll_Idle(t *testing.T) {
	s := newTestServer(t, "")
	var res scrollResult
	callToolOK(t, s, "eyedropper_scroll", map[string]interface{}{"x": 3, "y": 40}, &res)
	assert.True(t, res.Scrolled)
	assert.Equal(t, 40.0, res.Viewport.ScrollY)
}

func TestPreview_NothingMounted(t *testing.T) {
	s := newTestServer(t, "")
	resp := callTool(t, s, "eyedropper_preview", nil)
	require.NotNil(t, resp.Error)
}

func TestHandleToolsCall_ImageSampleColor(t *testing.T) {
	s := newTestServer(t, "")
	path := createTestImageFile(t, 10, 10)

	var res imaging.ColorResult
	callToolOK(t, s, "image_sample_color", map[string]interface{}{"path": path, "x": 8, "y": 2}, &res)
	assert.Equal(t, "#0000ff", res.Hex)
	assert.Equal(t, imaging.RGBColor{R: 0, G: 0, B: 255}, res.RGB)

	resp := callTool(t, s, "image_sample_color", map[string]interface{}{"path": path, "x": 10, "y": 2})
	require.NotNil(t, resp.Error)
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t, "")
	resp := callTool(t, s, "image_ocr_full", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t, "")
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"nope"`),
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}
