// Package metrics derives local size features from text. Features never include the text itself.
package metrics

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Features holds basic local text features derived from an input string.
type Features struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

// CountFeatures computes and returns byte, rune, word, and line counts for the input string.
func CountFeatures(s string) Features {
	return Features{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
		Lines: countLines(s),
	}
}

// countLines returns 0 for empty strings; otherwise 1 plus the number of '\n' runes.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return 1 + strings.Count(s, "\n")
}

// LatexFeatures extends Features with structural counts of a LaTeX source.
type LatexFeatures struct {
	Features
	Sections  int // \section, \subsection, \subsubsection (starred or not)
	Equations int // equation/align/gather environments and display math \[ \]
	Citations int // keys across all \cite-family commands
}

var (
	sectionRe  = regexp.MustCompile(`\\(?:sub){0,2}section\*?\{`)
	equationRe = regexp.MustCompile(`\\begin\{(?:equation|align|gather|multline)\*?\}|\\\[`)
	citeRe     = regexp.MustCompile(`\\cite[a-zA-Z]*\*?(?:\[[^\]]*\])*\{([^}]*)\}`)
)

// CountLatex computes LatexFeatures for src.
func CountLatex(src string) LatexFeatures {
	lf := LatexFeatures{
		Features:  CountFeatures(src),
		Sections:  len(sectionRe.FindAllStringIndex(src, -1)),
		Equations: len(equationRe.FindAllStringIndex(src, -1)),
	}
	for _, m := range citeRe.FindAllStringSubmatch(src, -1) {
		for _, key := range strings.Split(m[1], ",") {
			if strings.TrimSpace(key) != "" {
				lf.Citations++
			}
		}
	}
	return lf
}
