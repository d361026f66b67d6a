package correlate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mastercactapus/austerus/dispatch"
	"github.com/mastercactapus/austerus/progress"
	"github.com/mastercactapus/austerus/stats"
	"go.uber.org/zap"
)

type Config struct {
	// File names the program in status updates.
	File     string
	Reporter Reporter
	Logger   *zap.Logger
}

// Result summarizes a finished run.
type Result struct {
	Tally int
	Lines int

	// Mismatch is set when the number of acknowledgements differs from
	// the number of interpreted lines.
	Mismatch bool
}

// FilterComments strips commentary from a program line, returning "" if
// nothing is left to send. Dispatcher directives are kept intact.
func FilterComments(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, dispatch.DirectivePrefix) {
		return s
	}
	if i := strings.IndexAny(s, ";(#"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

type correlator struct {
	cfg   Config
	log   *zap.Logger
	table *stats.ProgressTable
	lr    *LineReader

	res Result
	pct int
}

// Run streams in through link, tallying acknowledgements against table and
// reporting progress as it changes. A count mismatch is reported in Result,
// not as an error; a failed dispatcher is returned as an *ExitError.
func Run(ctx context.Context, in io.Reader, link Link, table *stats.ProgressTable, cfg Config) (Result, error) {
	c := &correlator{
		cfg:   cfg,
		log:   cfg.Logger,
		table: table,
		lr:    NewLineReader(link.Feedback()),
		res:   Result{Lines: table.Lines},
		pct:   -1,
	}
	if c.cfg.Reporter == nil {
		c.cfg.Reporter = nopReporter{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	defer c.lr.discard()

	cmds := link.Commands()
	c.update()

	br := bufio.NewReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return c.res, c.cancel(link, err)
		}

		s, err := br.ReadString('\n')
		if s != "" {
			more, werr := c.send(cmds, s)
			if werr != nil {
				cmds.Close()
				if lerr := link.Wait(); lerr != nil {
					return c.res, lerr
				}
				return c.res, werr
			}
			if !more {
				cmds.Close()
				return c.res, link.Wait()
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			cmds.Close()
			return c.res, fmt.Errorf("read program: %w", err)
		}
	}

	err := cmds.Close()
	if err != nil {
		c.log.Warn("close dispatcher input", zap.Error(err))
	}

	err = c.drain(ctx, link)
	if err != nil {
		return c.res, c.cancel(link, err)
	}
	c.update()

	if c.res.Tally != c.res.Lines {
		c.res.Mismatch = true
		c.log.Warn("acknowledgement count mismatch",
			zap.Int("expected", c.res.Lines),
			zap.Int("got", c.res.Tally),
		)
	}

	return c.res, link.Wait()
}

// cancel closes the dispatcher input and waits for it to exit before
// returning err.
func (c *correlator) cancel(link Link, err error) error {
	link.Commands().Close()
	c.lr.discard()
	if werr := link.Wait(); werr != nil {
		c.log.Warn("dispatcher exit", zap.Error(werr))
	}
	return err
}

// send writes one program line, then collects any feedback already
// available. It returns false once more acknowledgements arrived than the
// program has lines.
func (c *correlator) send(w io.Writer, s string) (bool, error) {
	line := FilterComments(s)
	if line == "" {
		return true, nil
	}

	_, err := io.WriteString(w, line+"\n")
	if err != nil {
		return false, fmt.Errorf("write to dispatcher: %w", err)
	}
	c.log.Debug("SEND", zap.String("line", line))

	for {
		fb, ok := c.lr.Poll()
		if !ok {
			break
		}
		c.feedback(fb)
	}

	if c.res.Tally > c.res.Lines {
		c.res.Mismatch = true
		c.log.Warn("more acknowledgements than valid lines", zap.Int("expected", c.res.Lines))
		return false, nil
	}

	c.update()
	return true, nil
}

func (c *correlator) feedback(s string) {
	if dispatch.IsAck(s) {
		c.res.Tally++
	}
	c.log.Debug("FEEDBACK", zap.String("line", s), zap.Int("tally", c.res.Tally))
}

// drain collects feedback after the program has been sent, until every
// line is acknowledged or the dispatcher goes away.
func (c *correlator) drain(ctx context.Context, link Link) error {
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	var grace <-chan time.Time
	for c.res.Tally < c.res.Lines {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fb, ok := <-c.lr.Lines():
			if !ok {
				return nil
			}
			c.feedback(fb)
			c.update()
		case <-tick.C:
			// feedback still buffered in the pipe is read until it closes
			if grace == nil && !alive(link) {
				grace = time.After(time.Second)
			}
		case <-grace:
			return nil
		}
	}
	return nil
}

func alive(link Link) bool {
	select {
	case <-link.Done():
		return false
	default:
	}
	if a, ok := link.(interface{ Alive() bool }); ok {
		return a.Alive()
	}
	return true
}

func (c *correlator) update() {
	p := c.table.Percent(c.res.Tally)
	if p == c.pct {
		return
	}
	c.pct = p
	c.cfg.Reporter.Update(progress.Status{
		File:    c.cfg.File,
		Percent: p,
		Tally:   c.res.Tally,
		Lines:   c.res.Lines,
	})
}
