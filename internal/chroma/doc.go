// Package chroma implements the two backdrop-removal strategies.
//
// The strategies evolved independently and their numeric semantics are not
// equivalent, so they stay distinct behind one capability interface:
//
//   - Precise keys decoded frames with an exact inclusive HSV bound test and
//     returns per-pixel keep masks. Used by the two-stream pixel path.
//   - Approx maps a caller-facing threshold/tolerance pair onto the
//     similarity/blend parameters of an engine-side color filter. Used by
//     the N-layer graph path.
//
// Callers hold a Keyer and assert for the capability they need (FrameKeyer
// or GraphKeyer); ForName resolves a strategy by its registered name.
package chroma
