// Package capture provides raster capture services for the eyedropper.
//
// Each capturer turns one kind of surface into a still image of the
// requested pixel size:
//   - Static: an in-memory image
//   - File: an image file on disk
//   - Screen: a physical display, via github.com/kbinani/screenshot
//   - Browser: a web page rendered by Chrome, via github.com/go-rod/rod
//
// Outputs that do not match the requested size are resampled with
// nearest-neighbour.
package capture
