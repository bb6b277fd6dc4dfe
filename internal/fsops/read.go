// Package fsops performs the filesystem work behind the tools: sandboxed
// resolution of model-supplied paths and listing of operator-owned directories.
package fsops

import (
	"os"

	"github.com/petasbytes/research-agent/internal/safety"
)

// ResolveFile validates a relative path under the sandbox read root and returns its
// absolute form. The target must exist and be a regular file.
func ResolveFile(relPath string) (string, error) {
	root, err := readRoot()
	if err != nil {
		return "", err
	}

	absPath, err := safety.ValidateRelPath(root, relPath)
	if err != nil {
		return "", err
	}

	fi, err := os.Stat(absPath)
	if err != nil {
		return "", err
	}
	if !fi.Mode().IsRegular() {
		return "", safety.ToolError{Code: safety.CodeNotAFile, Message: "path is not a regular file"}
	}
	return absPath, nil
}
