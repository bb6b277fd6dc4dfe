package fsops

import (
	"os"
	"sync"

	"github.com/petasbytes/research-agent/internal/safety"
)

var (
	rootOnce    sync.Once
	absReadRoot string
	rootErr     error
)

// readRoot returns the sandbox root from AGT_READ_ROOT (default CWD), resolved once.
func readRoot() (string, error) {
	rootOnce.Do(func() {
		absReadRoot, rootErr = safety.InitSandboxRoot(os.Getenv("AGT_READ_ROOT"))
	})
	return absReadRoot, rootErr
}
