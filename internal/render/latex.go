package render

import (
	"regexp"
	"strings"
	"time"
)

// FallbackTitle is used when the source carries no \title{...}.
const FallbackTitle = "document"

// DocumentClassMarker marks a source as a complete document.
const DocumentClassMarker = `\documentclass`

// StampLayout is the sortable, second-resolution suffix appended to every stem.
const StampLayout = "20060102_150405"

var (
	titleRe  = regexp.MustCompile(`\\title\{(.+?)\}`)
	unsafeRe = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// Preamble is prepended to fragments. It ends with \begin{document}.
const Preamble = `
\documentclass[12pt]{article}
\usepackage[utf8]{inputenc}
\usepackage[T1]{fontenc}
\usepackage{lmodern}
\usepackage[margin=1in]{geometry}
\usepackage{setspace}
\onehalfspacing
\usepackage{titlesec}
\titleformat{\section}{\large\bfseries}{\thesection}{1em}{}
\titleformat{\subsection}{\normalsize\bfseries}{\thesubsection}{1em}{}
\usepackage{amsmath, amssymb}
\usepackage{hyperref}
\hypersetup{
    colorlinks=true,
    linkcolor=blue,
    urlcolor=blue,
    citecolor=blue
}
\begin{document}
`

// Ending closes a wrapped fragment.
const Ending = `\end{document}`

// ExtractTitle returns the trimmed text of the first \title{...} in src, or FallbackTitle.
// Nested braces are not handled: the capture stops at the first closing brace.
func ExtractTitle(src string) string {
	m := titleRe.FindStringSubmatch(src)
	if m == nil {
		return FallbackTitle
	}
	t := strings.TrimSpace(m[1])
	if t == "" {
		// A blank title counts as absent.
		return FallbackTitle
	}
	return t
}

// SafeStem replaces every rune outside [A-Za-z0-9_-] with '_' and appends "_" plus
// now formatted with StampLayout. Two calls in the same second with the same title collide.
func SafeStem(title string, now time.Time) string {
	if title == "" {
		title = FallbackTitle
	}
	return unsafeRe.ReplaceAllString(title, "_") + "_" + now.Format(StampLayout)
}

// Normalize returns the document to compile and whether src was already a full document.
// Detection is a plain substring search, so a marker inside a comment still counts.
func Normalize(src string) (string, bool) {
	if strings.Contains(src, DocumentClassMarker) {
		return src, true
	}
	return Preamble + "\n" + src + "\n" + Ending, false
}
