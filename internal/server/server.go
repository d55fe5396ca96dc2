package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ironsheep/eyedropper-mcp/internal/capture"
	"github.com/ironsheep/eyedropper-mcp/internal/config"
	"github.com/ironsheep/eyedropper-mcp/internal/eyedropper"
	"github.com/ironsheep/eyedropper-mcp/internal/host"
	"github.com/ironsheep/eyedropper-mcp/internal/imaging"
	"github.com/ironsheep/eyedropper-mcp/internal/logging"
	"github.com/ironsheep/eyedropper-mcp/internal/metrics"
)

// Version is reported in the initialize handshake.
var Version = "dev"

// Server handles MCP protocol communication
type Server struct {
	cfg     *config.Config
	cache   *imaging.ImageCache
	host    *host.Virtual
	ctrl    *eyedropper.Controller
	metrics *metrics.Collector
	logger  *slog.Logger

	file    *capture.File
	screen  *capture.Screen
	browser *capture.Browser

	clipboard atomic.Bool

	mu     sync.Mutex
	req    *eyedropper.Request
	cancel context.CancelCauseFunc
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server that drives a virtual host with the capture source
// named in cfg. A nil cfg uses config.Default().
func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		cache:   imaging.NewImageCache(),
		metrics: metrics.New(),
		logger:  logging.L("server"),
	}
	s.clipboard.Store(cfg.Clipboard)
	s.host = host.NewVirtual(eyedropper.Viewport{
		Width:            cfg.Viewport.Width,
		Height:           cfg.Viewport.Height,
		DevicePixelRatio: cfg.Viewport.DevicePixelRatio,
	})

	var capturer eyedropper.Capturer
	switch cfg.Capture.Source {
	case config.SourceScreen:
		s.screen = &capture.Screen{Display: cfg.Capture.Display}
		capturer = s.screen
	case config.SourceBrowser:
		s.browser = capture.NewBrowser(cfg.Capture.URL, cfg.Capture.ControlURL)
		capturer = s.browser
	default:
		s.file = &capture.File{Path: cfg.Capture.Path, Cache: s.cache}
		capturer = s.file
	}

	opts := []eyedropper.Option{
		eyedropper.WithLogger(logging.L("eyedropper")),
		eyedropper.WithObserver(s.metrics),
	}
	if cfg.Magnifier.Enabled {
		opts = append(opts, eyedropper.WithMagnifier(cfg.Magnifier.Options))
	} else {
		opts = append(opts, eyedropper.WithoutMagnifier())
	}

	if _, err := eyedropper.Install(s.host, func() eyedropper.EyeDropper {
		s.ctrl = eyedropper.New(s.host, s.host, capturer, opts...)
		return s.ctrl
	}); err != nil {
		return nil, fmt.Errorf("install eyedropper: %w", err)
	}
	return s, nil
}

// Metrics returns the session metrics collector.
func (s *Server) Metrics() *metrics.Collector { return s.metrics }

// Reconfigure applies the settings that can change while serving: logging
// and clipboard copy. Capture source, viewport and magnifier changes take
// effect on restart.
func (s *Server) Reconfigure(cfg *config.Config) {
	logging.Init(cfg.LogFormat, cfg.LogLevel, nil)
	s.clipboard.Store(cfg.Clipboard)
}

// Close cancels any open session, drops cached images and releases the
// browser, if any.
func (s *Server) Close() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel(nil)
	}
	s.cache.Clear()
	if s.browser != nil {
		return s.browser.Close()
	}
	return nil
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", logging.KeyError, err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", logging.KeyError, err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request. The experimental
// capability lists the globals defined on the virtual host.
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
				"experimental": map[string]interface{}{
					"globals": s.host.Globals(),
				},
			},
			"serverInfo": map[string]interface{}{
				"name":    "eyedropper-mcp",
				"version": Version,
			},
		},
	}
}
