//go:build !unix

package correlate

func (l *ProcessLink) Alive() bool {
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}
