// Package host provides Virtual, an in-process stand-in for the document an
// eyedropper session runs in. The MCP server drives it from tool calls:
// pointer moves and confirms become dispatched events, and the mounted
// layers can be flattened into a preview image.
package host
