package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mastercactapus/austerus/device"
	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultBaud      = 57600
	DefaultAckCount  = 1
	DefaultTimeout   = 5 * time.Second
	DefaultInitPause = 500 * time.Millisecond
)

// Environment variables read by ApplyEnv.
const (
	EnvPort     = "AG_SERIALPORT"
	EnvBaud     = "AG_BAUDRATE"
	EnvAckCount = "AG_ACKCOUNT"
	EnvTimeout  = "AG_TIMEOUT"
	EnvVerbose  = "AG_VERBOSE"
	EnvDump     = "AG_DUMP"
)

// Config holds the device and dispatcher settings shared by the tools.
type Config struct {
	Port        string        `yaml:"port"`
	Baud        int           `yaml:"baud"`
	AckCount    int           `yaml:"ack_count"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxTimeouts int           `yaml:"max_timeouts"`
	InitPause   time.Duration `yaml:"init_pause"`
	Verbose     int           `yaml:"verbose"`

	// Dump is the path of the append-only log of sent lines.
	Dump string `yaml:"dump"`

	// Events is the listen address of the progress event server.
	Events string `yaml:"events"`
}

func DefaultConfig() Config {
	return Config{
		Baud:      DefaultBaud,
		AckCount:  DefaultAckCount,
		Timeout:   DefaultTimeout,
		InitPause: DefaultInitPause,
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Load returns the defaults overlaid with the YAML file at path (if path is
// not empty) and then the environment.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		err = yaml.Unmarshal(data, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	err := cfg.ApplyEnv(lookup)
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from AG_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPort); ok {
		c.Port = v
	}
	if v, ok := lookup(EnvDump); ok {
		c.Dump = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{EnvBaud, &c.Baud},
		{EnvAckCount, &c.AckCount},
		{EnvVerbose, &c.Verbose},
	}
	for _, e := range ints {
		v, ok := lookup(e.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return ValidationError{Field: e.name, Message: strconv.Quote(v) + " is not a number"}
		}
		*e.dst = n
	}

	if v, ok := lookup(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return ValidationError{Field: EnvTimeout, Message: err.Error()}
		}
		c.Timeout = d
	}
	return nil
}

// Env returns the AG_* variables that reproduce c for a child dispatcher.
func (c Config) Env() []string {
	env := []string{
		EnvPort + "=" + c.Port,
		EnvBaud + "=" + strconv.Itoa(c.Baud),
		EnvAckCount + "=" + strconv.Itoa(c.AckCount),
		EnvTimeout + "=" + c.Timeout.String(),
		EnvVerbose + "=" + strconv.Itoa(c.Verbose),
	}
	if c.Dump != "" {
		env = append(env, EnvDump+"="+c.Dump)
	}
	return env
}

// Validate checks the settings needed to open a device and dispatch to it.
func (c Config) Validate() error {
	if c.Port == "" {
		return ValidationError{Field: "port", Message: "a serial port must be specified"}
	}
	if c.Port != device.NullName && !device.ValidBaud(c.Baud) {
		return ValidationError{Field: "baud", Message: fmt.Sprintf("unsupported rate %d (supported: %v)", c.Baud, device.Bauds)}
	}
	if c.AckCount < 0 {
		return ValidationError{Field: "ack_count", Message: "must not be negative"}
	}
	if c.Timeout <= 0 {
		return ValidationError{Field: "timeout", Message: "must be positive"}
	}
	if c.MaxTimeouts < 0 {
		return ValidationError{Field: "max_timeouts", Message: "must not be negative"}
	}
	if c.InitPause < 0 {
		return ValidationError{Field: "init_pause", Message: "must not be negative"}
	}
	return nil
}
