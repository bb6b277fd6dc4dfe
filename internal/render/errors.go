package render

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is on any error returned by Render.
var (
	// ErrEngineNotFound reports a missing typesetting engine (configuration error).
	ErrEngineNotFound = errors.New("typesetting engine not found")
	// ErrWrite reports a failure creating the output directory or writing the .tex file.
	ErrWrite = errors.New("write failed")
	// ErrCompile reports an engine run that produced no PDF.
	ErrCompile = errors.New("pdf was not generated")
)

// Error carries the kind of a render failure plus context for diagnosis.
type Error struct {
	Kind        error  // one of ErrEngineNotFound, ErrWrite, ErrCompile
	Path        string // engine name, or the file/directory involved
	Diagnostics string // captured engine stderr for ErrCompile
	Err         error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("render: %v", e.Kind)
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Diagnostics returns the captured engine output attached to err, if any.
func Diagnostics(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Diagnostics
	}
	return ""
}
