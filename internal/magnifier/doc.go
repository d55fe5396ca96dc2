// Package magnifier draws the eyedropper's zoomed lens preview.
//
// The lens is a circle of a fixed radius showing the source buffer around the
// pointer at a fixed zoom factor, outlined by a ring and optionally labelled
// with the hex value under the pointer. The magnifier is cosmetic: it renders
// from the captured buffer into its own canvas and is never consulted when a
// color is sampled.
package magnifier
