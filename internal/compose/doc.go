// Package compose blends transformed layers onto canvas frames.
//
// Blend is stateless and idempotent: the canvas geometry never changes, the
// layer rectangle is clipped against the canvas bounds, and an empty
// intersection is a silent no-op.
package compose
