// Package mask smooths raw chroma-key masks into blend weights.
//
// A Refiner is configured once with an odd blur kernel and a mode, and
// rejects invalid kernels at construction, before any frame is processed.
// Fast mode applies a separable blur only; quality mode first runs a 3x3
// morphological open and close to remove speckle, at extra per-frame cost.
// Refined values are blend weights, not strictly binary.
package mask
