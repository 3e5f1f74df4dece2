// Package media defines the pixel and stream primitives shared by the
// compositing paths.
//
// Key types:
//   - Frame: a decoded RGBA frame buffer with explicit geometry
//   - Mask: a single-channel blend-weight buffer
//   - ColorRange: inclusive HSV bounds used for chroma keying
//   - Stream: a read-only probe result for one media source
//
// Frame and Mask expose zero-copy image.NRGBA / image.Gray views so the
// imaging library can operate on them without reallocating pixel storage.
// Streams are produced by ProbeStream and never mutated afterwards.
package media
