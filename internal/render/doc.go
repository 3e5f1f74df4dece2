// Package render runs composition jobs against the external engine. Two
// paths exist: the two-stream chroma-key path composites pixels frame by
// frame through decode and encode pipes, and the N-layer path executes a
// prebuilt filter graph in a single engine invocation. A Supervisor owns
// the job lifecycle; the Registry it is handed at construction is the only
// state shared with callers, so cancellation works from any goroutine while
// each job's media handles stay privately owned.
package render
