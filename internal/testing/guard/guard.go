// Package guard switches the binaries into test mode when imported by a test.
package guard

import (
	"os"
	"sync"
)

const envKey = "THRIFTSTOCK_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(envKey) == "" {
			_ = os.Setenv(envKey, "1")
		}
	})
}
