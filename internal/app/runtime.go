package app

import (
	"os"
	"sync"
)

// TestModeEnv set to "1" makes the binaries exit before touching Redis,
// PostgreSQL or the backend. The webtest harness sets it.
const TestModeEnv = "DENGUECHAT_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(TestModeEnv) == "1"
})

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	return testMode()
}
