// Package timeline maps positions between the canvas timeline and source
// timelines with differing frame rates and offsets.
//
// Resampling is nearest-neighbor on purpose: deterministic and cheap, at the
// cost of frame-blend smoothness. Indices beyond the source clamp to its
// last frame (freeze), never wrap.
package timeline
