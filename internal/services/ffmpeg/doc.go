// Package ffmpeg wraps the external transcoding engine.
//
// A Client starts engine invocations and exposes them as Process handles
// that support hard termination, so the render registry can cancel a job at
// any moment. Progress is read from the engine's machine-parsable key=value
// stream; recent diagnostic output is retained for error reporting.
//
// FrameReader and FrameWriter move raw RGBA frames over pipes for the
// two-stream pixel path: the reader decodes a source frame by frame, the
// writer feeds composited frames to an encoder.
package ffmpeg
