// Package osmod wraps Go's os/time packages as an `import os` host
// namespace.
package osmod

import (
	"os"
	"time"

	"github.com/emberlang/ember"
)

// Namespace returns the `os` host binding.
func Namespace() ember.IdentifierData {
	return ember.Namespace("os",
		ember.Function("env", os.Getenv),
		ember.Function("args", func() []string { return os.Args }),
		ember.Function("now", func() int64 { return time.Now().Unix() }),
		ember.Function("sleep", func(seconds float64) {
			time.Sleep(time.Duration(seconds * float64(time.Second)))
		}),
		ember.Function("exit", func(code int64) { os.Exit(int(code)) }),
	)
}
