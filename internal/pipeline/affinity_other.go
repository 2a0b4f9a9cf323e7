//go:build !linux

package pipeline

// pinToCore is a no-op on platforms without sched_setaffinity.
func pinToCore(int) error {
	return nil
}
