// Package testing flips the process into test mode when imported by a test
// binary, so packages skip side effects such as the Redis bump listener.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("THRIFTSTOCK_TEST_MODE", "1")
		if os.Getenv("BACKEND_BASE_URL") == "" {
			_ = os.Setenv("BACKEND_BASE_URL", "http://127.0.0.1:0")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
