package main

import (
	"github.com/mastercactapus/austerus/config"
	"github.com/mastercactapus/austerus/device"
	"github.com/mastercactapus/austerus/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbosity  int
)

var rootCmd = &cobra.Command{
	Use:   "austerus",
	Short: "Stream G-code to a 3D printer and analyze programs",
	Long: `austerus drives a G-code device over a serial line.

It has three parts:
  core   relays standard input to the device, keeping a window of
         unacknowledged lines in flight
  send   feeds program files through core and reports progress
  verge  reports the bounds a program reaches`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
}

// deviceFlags are the flags shared by commands that open a device.
type deviceFlags struct {
	port        string
	baud        int
	ackCount    int
	timeout     string
	maxTimeouts int
	dump        string
}

func (f *deviceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.port, "port", "p", "", "Serial device, or NULL for a loopback device")
	cmd.Flags().IntVarP(&f.baud, "baud", "b", config.DefaultBaud, "Baud rate")
	cmd.Flags().IntVarP(&f.ackCount, "ack-count", "a", config.DefaultAckCount, "Lines in flight before waiting for an ack (0 disables waiting)")
	cmd.Flags().StringVar(&f.timeout, "timeout", config.DefaultTimeout.String(), "Wait for each device line")
	cmd.Flags().IntVar(&f.maxTimeouts, "max-timeouts", 0, "Consecutive timeouts tolerated (0 for no limit)")
	cmd.Flags().StringVar(&f.dump, "dump", "", "Append every sent line to this file")
}

// load reads the configuration and then applies any flags given on the
// command line.
func (f *deviceFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	fl := cmd.Flags()
	if fl.Changed("port") {
		cfg.Port = f.port
	}
	if fl.Changed("baud") {
		cfg.Baud = f.baud
	}
	if fl.Changed("ack-count") {
		cfg.AckCount = f.ackCount
	}
	if fl.Changed("timeout") {
		d, err := parseDuration("timeout", f.timeout)
		if err != nil {
			return cfg, err
		}
		cfg.Timeout = d
	}
	if fl.Changed("max-timeouts") {
		cfg.MaxTimeouts = f.maxTimeouts
	}
	if fl.Changed("dump") {
		cfg.Dump = f.dump
	}
	cfg.Verbose += verbosity

	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) *zap.Logger {
	return logging.New(cfg.Verbose).Named("austerus")
}

func openDevice(cfg config.Config) (device.Port, error) {
	return device.Open(device.Config{Name: cfg.Port, Baud: cfg.Baud})
}
