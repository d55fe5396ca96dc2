// Package server implements the MCP (Model Context Protocol) server that
// drives eyedropper sessions.
//
// The server owns a virtual host (see package host) on which the
// EyeDropper global is installed, and a controller wired to the capture
// source named in the configuration. MCP clients play the part of the user:
// they open a session, move the pointer, and confirm or cancel.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake; lists the host's globals
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Session lifecycle:
//   - eyedropper_open: Capture the surface and arm the picker
//   - eyedropper_move: Move the pointer and sample the color under it
//   - eyedropper_scroll: Scroll the host (refused while a session is active)
//   - eyedropper_confirm: Select the color under the pointer
//   - eyedropper_cancel: Abort the session with an optional reason
//
// Inspection:
//   - eyedropper_status: Session state, cursor, scroll lock and layers
//   - eyedropper_preview: PNG of the composited host around the pointer
//
// Color Operations:
//   - image_sample_color: Get color at pixel of an image file
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, e.g. "eyedropper: aborted: user-cancelled"
//
// # Usage
//
//	srv, err := server.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer srv.Close()
//	return srv.Run()
package server
