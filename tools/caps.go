package tools

import (
	"strings"

	"github.com/petasbytes/research-agent/internal/safety"
)

// overallRuneCap bounds every text payload returned to the model.
const overallRuneCap = 12_000

// CodeInvalidInput marks a tool call whose arguments cannot be used.
const CodeInvalidInput = "ERR_INVALID_INPUT"

func invalidInput(msg string) error {
	return safety.ToolError{Code: CodeInvalidInput, Message: msg}
}

// clampRunes clamps a string to at most n runes.
func clampRunes(s string, n int) (string, bool) {
	if n <= 0 {
		return "", s != ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s, false
	}
	return string(r[:n]), true
}

// tailRunes keeps the last n runes of s.
func tailRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// withSentinel ensures out ends in a newline followed by sentinel.
func withSentinel(out, sentinel string) string {
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out + sentinel
}
