package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// crashDir is where crash reports land. Set once at startup via
// InstallCrashHandler; defaults next to the rotated log files.
var crashDir = "./logs"

// InstallCrashHandler sets the crash report directory and makes sure it
// exists. Call it early in main, before any goroutines are spawned.
func InstallCrashHandler(dir string) {
	if dir != "" {
		crashDir = dir
	}
	if err := os.MkdirAll(crashDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "crash handler: cannot create %s: %v\n", crashDir, err)
	}
}

// WriteCrashFile dumps a panic report for the named goroutine to the crash
// directory and returns the file path. Falls back to stderr when the file
// cannot be written.
func WriteCrashFile(name string, panicVal any, stackTrace string) string {
	path := filepath.Join(crashDir, fmt.Sprintf("crash-%s.log", time.Now().Format("2006-01-02T15-04-05")))

	var report bytes.Buffer
	fmt.Fprintf(&report, "finagent %s (build %s) crashed at %s\n", GetVersion(), GetBuild(), time.Now().Format(time.RFC3339))
	fmt.Fprintf(&report, "goroutine: %s\n", name)
	fmt.Fprintf(&report, "panic: %v\n\n", panicVal)
	report.WriteString(stackTrace)
	report.WriteString("\n--- all goroutines ---\n")
	report.WriteString(allGoroutineStacks())
	fmt.Fprintf(&report, "\nruntime: %d goroutines, %s/%s, go %s\n",
		runtime.NumGoroutine(), runtime.GOOS, runtime.GOARCH, runtime.Version())

	if err := os.WriteFile(path, report.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "crash handler: cannot write %s: %v\n", path, err)
		os.Stderr.Write(report.Bytes())
		return ""
	}
	return path
}

// allGoroutineStacks dumps every goroutine, growing the buffer until the
// dump fits.
func allGoroutineStacks() string {
	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
	}
}
