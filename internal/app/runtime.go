package app

import (
	"os"
	"sync"
)

const testModeEnv = "DAILYFLOW_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether binaries should exit before touching Postgres,
// Redis or Gotenberg. The flag is read once per process.
func InTestMode() bool {
	return testMode()
}
