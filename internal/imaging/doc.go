// Package imaging provides the pixel-level primitives of the eyedropper.
//
// It implements the pixel sampler used on every pointer move, the
// session-owned Raster that holds a captured surface, an image cache for
// file-backed surfaces, and the crop, coordinate grid and PNG encoding
// helpers behind previews. All operations
// use a coordinate system where (0,0) is at the top-left corner, X increases
// rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Color Representation
//
// Colors are encoded as 7-character lowercase hex strings "#rrggbb". Alpha is
// never folded into the hex value: a partially transparent pixel reports its
// stored channels as-is, without blending against any background.
//
// # Thread Safety
//
// ImageCache and Raster are safe for concurrent use. SampleRGB and SampleHex
// are pure functions over a buffer the caller must not mutate concurrently.
package imaging
