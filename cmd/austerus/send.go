package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mastercactapus/austerus/config"
	"github.com/mastercactapus/austerus/correlate"
	"github.com/mastercactapus/austerus/device"
	"github.com/mastercactapus/austerus/dispatch"
	"github.com/mastercactapus/austerus/gcode"
	"github.com/mastercactapus/austerus/progress"
	"github.com/mastercactapus/austerus/stats"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	sendFlags     deviceFlags
	sendStream    bool
	sendEvents    string
	sendInProcess bool
	sendValidate  bool
)

var sendCmd = &cobra.Command{
	Use:   "send FILE...",
	Short: "Print G-code files and report progress",
	Long: `Send each file through a dispatcher, reporting progress by the share of
filament already acknowledged by the device.

The dispatcher runs as "austerus core" in a child process, or in this
process with --in-process. With --events ADDR progress is also published
as server-sent events on ` + progress.EventsPath + ` and over a websocket on
` + progress.SocketPath + `.

Examples:
  austerus send -p /dev/ttyUSB0 -b 250000 part.gcode
  austerus send -p NULL --stream --in-process part.gcode
  austerus send -p /dev/ttyACM0 --events :8080 a.gcode b.gcode`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	sendFlags.register(sendCmd)
	sendCmd.Flags().BoolVar(&sendStream, "stream", false, "Print progress lines instead of a bar (default when not on a terminal)")
	sendCmd.Flags().StringVar(&sendEvents, "events", "", "Serve progress events on this address")
	sendCmd.Flags().BoolVar(&sendInProcess, "in-process", false, "Run the dispatcher in this process")
	sendCmd.Flags().BoolVar(&sendValidate, "validate", false, "Have the dispatcher stop at the first invalid line")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := sendFlags.load(cmd)
	if err != nil {
		return err
	}
	if cfg.Events == "" || cmd.Flags().Changed("events") {
		cfg.Events = sendEvents
	}
	log := newLogger(cfg)
	defer log.Sync()

	var reporters correlate.MultiReporter
	if cfg.Events != "" {
		srv := progress.NewServer(log.Named("events"))
		hs := &http.Server{Addr: cfg.Events, Handler: srv}
		go func() {
			err := hs.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("event server", zap.Error(err))
			}
		}()
		defer func() {
			srv.Close()
			sctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			hs.Shutdown(sctx)
		}()
		reporters = append(reporters, srv)
		log.Info("serving progress events", zap.String("addr", cfg.Events))
	}

	out := cmd.OutOrStdout()
	var worst *correlate.ExitError
	for _, name := range args {
		err = sendFile(ctx, cfg, name, out, reporters, log)
		var ee *correlate.ExitError
		if errors.As(err, &ee) && ctx.Err() == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render(name+": "+err.Error()))
			if worst == nil || ee.Code > worst.Code {
				worst = ee
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	if worst != nil {
		return worst
	}
	return nil
}

func sendFile(ctx context.Context, cfg config.Config, name string, out io.Writer, reporters correlate.MultiReporter, log *zap.Logger) error {
	fd, err := os.Open(name)
	if err != nil {
		return err
	}
	defer fd.Close()

	table, err := stats.Progress(fd, stats.ProgressOptions{
		Parse:  gcode.Options{Tolerant: true},
		Logger: log.Named("stats"),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	_, err = fd.Seek(0, io.SeekStart)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, titleStyle.Render("sending "+filepath.Base(name)))
	fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("%d lines, %s mm of filament", table.Lines, table.Total)))

	link, err := startLink(ctx, cfg, log)
	if err != nil {
		return err
	}

	rep := append(correlate.MultiReporter{}, reporters...)
	var bar *correlate.BarReporter
	if sendStream || !isTerminal(out) {
		rep = append(rep, correlate.NewStreamReporter(out))
	} else {
		bar = correlate.NewBarReporter(out)
		rep = append(rep, bar)
	}

	res, err := correlate.Run(ctx, fd, link, table, correlate.Config{
		File:     name,
		Reporter: rep,
		Logger:   log.Named("send"),
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	if res.Mismatch {
		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("expected %d acknowledgements, got %d", res.Lines, res.Tally)))
	}
	fmt.Fprintln(out, doneStyle.Render("completed print"))
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// startLink starts a dispatcher for cfg, either as a child "core" process
// or on a goroutine.
func startLink(ctx context.Context, cfg config.Config, log *zap.Logger) (correlate.Link, error) {
	if !sendInProcess {
		exe, err := os.Executable()
		if err != nil {
			return nil, err
		}
		args := []string{"core", "--max-timeouts", strconv.Itoa(cfg.MaxTimeouts)}
		if sendValidate {
			args = append(args, "--validate")
		}
		if configPath != "" {
			args = append(args, "--config", configPath)
		}
		return correlate.StartProcess(exe, args, cfg.Env(), os.Stderr)
	}

	dcfg, closeDump, err := dispatchConfig(cfg, sendValidate, log)
	if err != nil {
		return nil, err
	}
	dev, err := openDevice(cfg)
	if err != nil {
		closeDump()
		return nil, err
	}
	if cfg.Port != device.NullName {
		err = dispatch.Greet(dev, os.Stderr, cfg.Timeout, cfg.InitPause)
		if err != nil {
			dev.Close()
			closeDump()
			return nil, err
		}
	}

	link := correlate.StartLocal(ctx, dev, dcfg)
	go func() {
		<-link.Done()
		closeDump()
	}()
	return link, nil
}
