package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mastercactapus/austerus/config"
	"github.com/mastercactapus/austerus/device"
	"github.com/mastercactapus/austerus/dispatch"
	"github.com/mastercactapus/austerus/gcode"
	"github.com/mastercactapus/austerus/vm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	coreFlags    deviceFlags
	coreValidate bool
)

var coreCmd = &cobra.Command{
	Use:   "core",
	Short: "Relay standard input to a device",
	Long: `Relay G-code from standard input to a device, printing every line the
device sends back.

At most --ack-count lines are left unacknowledged; with --ack-count 0 lines
are sent without waiting. A "#ag:exit" line ends the session.

Settings may also come from AG_SERIALPORT, AG_BAUDRATE, AG_ACKCOUNT,
AG_TIMEOUT, AG_VERBOSE and AG_DUMP.

Examples:
  austerus core -p /dev/ttyUSB0 -b 115200 < part.gcode
  austerus core -p NULL --validate < part.gcode`,
	Args: cobra.NoArgs,
	RunE: runCore,
}

func init() {
	coreFlags.register(coreCmd)
	coreCmd.Flags().BoolVar(&coreValidate, "validate", false, "Interpret each line and stop at the first invalid one")
	rootCmd.AddCommand(coreCmd)
}

func runCore(cmd *cobra.Command, args []string) error {
	cfg, err := coreFlags.load(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	defer log.Sync()

	dcfg, closeDump, err := dispatchConfig(cfg, coreValidate, log)
	if err != nil {
		return err
	}
	defer closeDump()

	dev, err := openDevice(cfg)
	if err != nil {
		return err
	}
	defer dev.Close()

	out := cmd.OutOrStdout()
	if cfg.Port != device.NullName {
		err = dispatch.Greet(dev, out, cfg.Timeout, cfg.InitPause)
		if err != nil {
			return err
		}
	}

	d := dispatch.New(dev, out, dcfg)
	err = d.Run(cmd.Context(), cmd.InOrStdin())
	st := d.Stats()
	log.Info("finished",
		zap.Int("sent", st.Sent),
		zap.Int("acked", st.Acked),
		zap.Int("timeouts", st.Timeouts),
		zap.Int("relayed", st.Relayed),
	)
	return err
}

// dispatchConfig builds the dispatcher settings for cfg, opening the dump
// file if one is configured. The returned func closes it.
func dispatchConfig(cfg config.Config, validate bool, log *zap.Logger) (dispatch.Config, func(), error) {
	dcfg := dispatch.Config{
		Window:        cfg.AckCount,
		SerialTimeout: cfg.Timeout,
		MaxTimeouts:   cfg.MaxTimeouts,
		Logger:        log.Named("dispatch"),
	}
	if validate {
		dcfg.Machine = vm.NewMachine(vm.Config{AllowUnlocated: true, Logger: log.Named("vm")})
		dcfg.Parse = gcode.Options{Strict: true}
	}

	if cfg.Dump == "" {
		return dcfg, func() {}, nil
	}
	fd, err := os.OpenFile(cfg.Dump, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return dcfg, nil, fmt.Errorf("open dump file: %w", err)
	}
	dcfg.Log = fd
	return dcfg, func() { fd.Close() }, nil
}

// parseDuration accepts a Go duration ("1500ms") or a whole number of
// seconds.
func parseDuration(name, s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, config.ValidationError{Field: name, Message: err.Error()}
	}
	return d, nil
}
