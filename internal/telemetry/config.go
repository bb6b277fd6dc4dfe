package telemetry

import (
	"os"
	"sync/atomic"
)

// DefaultDir holds events, payload dumps and other local state when nothing else is configured.
const DefaultDir = ".agent"

var (
	calibrationModeEnabled bool
	observeEnabled         bool
	persistPayloadsEnabled bool

	dirOverride atomic.Pointer[string]
)

func init() {
	// Read once at process start. Mid-run environment changes only apply via the explicit
	// "0"/"1" overrides below.
	calibrationModeEnabled = os.Getenv("AGT_CALIBRATION_MODE") == "1"

	// Observe: default to 1 when calibration=1 and AGT_OBSERVE_JSON is unset; honour explicit 0/1.
	if v, ok := os.LookupEnv("AGT_OBSERVE_JSON"); ok {
		observeEnabled = (v == "1")
	} else {
		observeEnabled = calibrationModeEnabled
	}

	// Persist payloads: same defaulting as observe.
	if v, ok := os.LookupEnv("AGT_PERSIST_API_PAYLOADS"); ok {
		persistPayloadsEnabled = (v == "1")
	} else {
		persistPayloadsEnabled = calibrationModeEnabled
	}
}

// CalibrationModeEnabled reports whether calibration mode is on, with the same override rule as ObserveEnabled.
func CalibrationModeEnabled() bool { return envOverride("AGT_CALIBRATION_MODE", calibrationModeEnabled) }

// ObserveEnabled reports whether JSONL emission is on: an explicit AGT_OBSERVE_JSON of
// "1" or "0" wins, otherwise the startup value applies.
func ObserveEnabled() bool { return envOverride("AGT_OBSERVE_JSON", observeEnabled) }

// PersistPayloadsEnabled reports whether request/response payloads are written to disk.
func PersistPayloadsEnabled() bool { return envOverride("AGT_PERSIST_API_PAYLOADS", persistPayloadsEnabled) }

func envOverride(key string, startup bool) bool {
	switch os.Getenv(key) {
	case "1":
		return true
	case "0":
		return false
	}
	return startup
}

// SetDir pins the state directory for the rest of the process. An empty dir clears the pin.
func SetDir(dir string) { dirOverride.Store(&dir) }

// Dir returns the state directory: the SetDir value, else AGT_STATE_DIR, else DefaultDir.
func Dir() string {
	if p := dirOverride.Load(); p != nil && *p != "" {
		return *p
	}
	if v := os.Getenv("AGT_STATE_DIR"); v != "" {
		return v
	}
	return DefaultDir
}
