package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Session lifecycle
		{
			Name:        "eyedropper_open",
			Description: "Start a color picking session. Captures the surface, mounts the overlay and waits until the picker is armed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Image file to pick from (file source only). Defaults to the configured path.",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Viewport width in CSS pixels. Defaults to the surface size.",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Viewport height in CSS pixels. Defaults to the surface size.",
					},
					"device_pixel_ratio": map[string]interface{}{
						"type":        "number",
						"description": "Device pixel ratio (default from config, usually 1)",
					},
				},
			},
		},
		{
			Name:        "eyedropper_move",
			Description: "Move the pointer to client coordinates. Returns the color under the pointer.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{"type": "number", "description": "Client X in CSS pixels"},
					"y": map[string]interface{}{"type": "number", "description": "Client Y in CSS pixels"},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "eyedropper_scroll",
			Description: "Scroll the host viewport. Scrolling is blocked while a session is active.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{"type": "number", "description": "Horizontal scroll offset"},
					"y": map[string]interface{}{"type": "number", "description": "Vertical scroll offset"},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "eyedropper_confirm",
			Description: "Confirm the color under the pointer and end the session. Returns the selected sRGBHex.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{"type": "number", "description": "Optional client X; moves the pointer first"},
					"y": map[string]interface{}{"type": "number", "description": "Optional client Y; moves the pointer first"},
				},
			},
		},
		{
			Name:        "eyedropper_cancel",
			Description: "Abort the active session.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"reason": map[string]interface{}{
						"type":        "string",
						"description": "Optional abort reason reported with the rejection",
					},
				},
			},
		},

		// Inspection
		{
			Name:        "eyedropper_status",
			Description: "Report the session state, the color under the pointer and the host's mounted layers.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "eyedropper_preview",
			Description: "Return a PNG of the host surface (overlay and magnifier) around the pointer.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"radius": map[string]interface{}{
						"type":        "integer",
						"description": "Half the side of the returned square in buffer pixels (default 160)",
						"default":     160,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Output scale factor (default 1.0)",
						"default":     1.0,
					},
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Draw a coordinate grid every N buffer pixels (default 0, no grid)",
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Grid line color as hex (default #FF000080 - semi-transparent red)",
						"default":     "#FF000080",
					},
					"show_coordinates": map[string]interface{}{
						"type":        "boolean",
						"description": "Whether to label grid intersections with buffer coordinates",
						"default":     false,
					},
				},
			},
		},

		// Color Operations
		{
			Name:        "image_sample_color",
			Description: "Get the exact color value at a specific pixel coordinate.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
