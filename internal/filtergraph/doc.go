// Package filtergraph plans N-layer compositions as explicit filter graphs.
//
// A Builder validates an ordered layer set against a probed base stream and
// emits a Plan: the input roster, a node/edge graph over named intermediate
// buffers, and the final video/audio labels. The graph is a real node list,
// unit-testable without the external engine; it is rendered to the engine's
// filter syntax only at execution time.
//
// Audio planning is separate from video threading: zero extra audio tracks
// produce a pass-through directive, one or more produce per-track delay
// nodes feeding a single mix node under a "longest" duration policy.
package filtergraph
