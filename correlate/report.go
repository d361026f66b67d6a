package correlate

import (
	"fmt"
	"io"
	"time"

	"github.com/cheggaaa/pb"
	"github.com/mastercactapus/austerus/progress"
)

// Reporter is told each time the percent complete changes.
type Reporter interface {
	Update(s progress.Status)
}

// MultiReporter forwards updates to every reporter in order.
type MultiReporter []Reporter

func (m MultiReporter) Update(s progress.Status) {
	for _, r := range m {
		r.Update(s)
	}
}

type nopReporter struct{}

func (nopReporter) Update(progress.Status) {}

// StreamReporter prints one line per update with an estimate of the time
// remaining.
type StreamReporter struct {
	w     io.Writer
	start time.Time
	now   func() time.Time
}

func NewStreamReporter(w io.Writer) *StreamReporter {
	return &StreamReporter{w: w, start: time.Now(), now: time.Now}
}

func (r *StreamReporter) Update(s progress.Status) {
	remain := "unknown"
	if s.Percent > 0 {
		taken := r.now().Sub(r.start)
		remain = FormatDuration(taken*100/time.Duration(s.Percent) - taken)
	}
	fmt.Fprintf(r.w, "%d%% complete (%s remaining)\n", s.Percent, remain)
}

// FormatDuration renders d in its largest whole unit: "2h 5m", "12m" or
// "40s".
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	hours := secs / 3600
	mins := secs % 3600 / 60

	switch {
	case hours >= 1:
		return fmt.Sprintf("%dh %dm", hours, mins)
	case mins >= 1:
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}

// BarReporter draws a progress bar.
type BarReporter struct {
	bar *pb.ProgressBar
}

func NewBarReporter(w io.Writer) *BarReporter {
	bar := pb.New(100)
	bar.Output = w
	bar.ShowCounters = false
	bar.Format("[=> ]")
	return &BarReporter{bar: bar.Start()}
}

func (r *BarReporter) Update(s progress.Status) {
	p := s.Percent
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	r.bar.Set(p)
}

func (r *BarReporter) Finish() { r.bar.Finish() }
