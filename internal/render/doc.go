// Package render turns LaTeX source into a PDF with an external typesetting engine.
//
// Pipeline (one call, one linear pass):
//
//	title -> safe stem -> normalise (full doc or wrapped fragment) -> write .tex -> engine -> check .pdf
//
// Invariants:
//   - The engine is looked up on PATH before anything touches the filesystem.
//   - The existence of <stem>.pdf decides success; the engine's exit status does not.
//   - The .tex file is left in the output directory on both success and failure.
package render
