//go:build unix

package correlate

import "golang.org/x/sys/unix"

// Alive probes the child process directly.
func (l *ProcessLink) Alive() bool {
	select {
	case <-l.done:
		return false
	default:
	}
	return unix.Kill(l.Pid(), 0) == nil
}
