// Package services defines shared utilities consumed by the render pipeline
// and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs and stage names for log
//     enrichment.
//   - Structured error markers plus the Wrap helper that classify failures
//     (validation, unavailable source, audio assembly, execution,
//     cancellation) for terminal status mapping.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across job kinds.
package services
