// Package preflight provides readiness checks for the external tools and
// filesystem paths the engine depends on.
//
// The checks run in two contexts:
//   - Job-running commands call Verify before starting, so a missing ffmpeg
//     fails immediately instead of partway into a render.
//   - The CLI "keylight doctor" command calls RunAll to display every check
//     with its resolved binary and version.
package preflight
