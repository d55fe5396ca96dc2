// Package eyedropper implements a color-picking session over a rasterized
// host surface.
//
// A Controller owns at most one session. Open shows a busy cursor, captures
// the surface through a Capturer, mounts the capture as an overlay and
// subscribes to the host's pointer events. Each move converts the client
// coordinates to buffer space ((client + scroll) * devicePixelRatio) and
// samples the pixel underneath; a confirm resolves the pending Request with
// the last sampled color. Cancelling the context passed to Open aborts the
// session at any point, using the context's cause as the rejection reason.
//
// # Lifecycle
//
//	Idle -> Capturing -> Armed -> Closed -> (Idle)
//
// Any exit from Capturing or Armed unsubscribes the pointer handler first,
// unmounts the magnifier and the overlay, restores the cursor and scroll
// state, releases the raster, and only then settles the Request. The first
// exit wins; later confirm or cancel signals are no-ops.
//
// # Errors
//
//   - ErrInvalidState: Open while a session is active.
//   - *AbortError: the context was cancelled; matches ErrAborted and the cause.
//   - *CaptureError: the capture service failed.
//   - ErrNoColor, ErrNoRaster, ErrOverlayDetached: precondition violations,
//     fatal to the session.
package eyedropper
