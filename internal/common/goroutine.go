package common

import (
	"fmt"
	"os"
	"runtime"

	"github.com/ternarybob/arbor"
)

// SafeGo runs fn in a goroutine that survives panics. A panic is logged, a
// crash report is written for post-mortem reading, and the service keeps
// running. Use it for every long-lived background goroutine.
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	go func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			buf := make([]byte, 8192)
			stack := string(buf[:runtime.Stack(buf, false)])

			if logger != nil {
				logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", stack).
					Msg("Recovered from panic in goroutine")
			} else {
				fmt.Fprintf(os.Stderr, "panic in goroutine %s: %v\n%s\n", name, r, stack)
			}
			WriteCrashFile(name, r, stack)
		}()

		fn()
	}()
}
