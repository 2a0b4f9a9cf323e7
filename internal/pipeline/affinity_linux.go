//go:build linux

package pipeline

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCore binds the calling goroutine's OS thread to one CPU core.
// Best-effort: callers log failures at debug level and continue unpinned.
func pinToCore(core int) error {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	return unix.SchedSetaffinity(0, &set)
}
