// Package memory persists the chat transcript between sessions.
//
// Persistence model:
//   - Only text is stored (role + text). Tool blocks are transient and dropped on save.
//   - Artifacts produced by successful renders are recorded by path so a later
//     session can refer back to them.
//   - Files are replaced atomically; a crash mid-save leaves the previous transcript.
package memory
