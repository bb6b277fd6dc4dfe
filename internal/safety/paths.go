// Package safety confines model-supplied paths to a sandbox root and reports
// violations as machine-readable tool errors.
package safety

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ToolError is a machine-readable error body for surfacing back to the agent as JSON.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string to keep tool_result payloads small.
func (e ToolError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Sandbox error codes.
const (
	CodeOutsideSandbox  = "ERR_PATH_OUTSIDE_SANDBOX"
	CodeDeniedRead      = "ERR_DENIED_READ"
	CodeNotAFile        = "ERR_NOT_A_FILE"
	CodeUnsupportedType = "ERR_UNSUPPORTED_TYPE"
)

// deniedDirs are never readable through the sandbox, at the root or below it.
var deniedDirs = []string{".git", ".agent"}

// InitSandboxRoot resolves root to an absolute, symlink-free path. An empty root means the CWD.
func InitSandboxRoot(root string) (string, error) {
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		root = cwd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("abs(root): %w", err)
	}
	// A root that does not exist yet keeps its absolute form.
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		abs = r
	}
	return abs, nil
}

// ValidateRelPath resolves relPath against absRoot and returns an absolute path
// inside the sandbox. It rejects absolute inputs, parent traversal, and symlink
// escapes, and denies reads under .git/ and .agent/. On violation, returns a ToolError.
func ValidateRelPath(absRoot, relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return "", ToolError{Code: CodeOutsideSandbox, Message: "absolute paths are not allowed"}
	}

	cleaned := filepath.Clean(relPath)
	candidate := filepath.Join(absRoot, cleaned)

	// Resolve the whole candidate if it exists, else its parent, so a symlinked
	// parent directory cannot hide an escape.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else if parent, err := filepath.EvalSymlinks(filepath.Dir(candidate)); err == nil {
		candidate = filepath.Join(parent, filepath.Base(candidate))
	}

	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", ToolError{Code: CodeOutsideSandbox, Message: "requested path resolves outside the sandbox root"}
	}

	slashed := filepath.ToSlash(rel)
	for _, d := range deniedDirs {
		if slashed == d || strings.HasPrefix(slashed, d+"/") {
			return "", ToolError{Code: CodeDeniedRead, Message: "reads under .git/ or .agent/ are not allowed"}
		}
	}
	return candidate, nil
}

// RequireExt rejects path unless it ends in ext, compared case-insensitively.
func RequireExt(path, ext string) error {
	if !strings.EqualFold(filepath.Ext(path), ext) {
		return ToolError{Code: CodeUnsupportedType, Message: fmt.Sprintf("only %s files are supported", ext)}
	}
	return nil
}
