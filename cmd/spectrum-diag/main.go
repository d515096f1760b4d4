// Command spectrum-diag is an interactive diagnostic console for the
// Spectrum24 attach layer.
//
// It drives a simulated card through the full attachment lifecycle so
// the reset sequence, CIS scan and release path can be exercised and
// observed without hardware:
//   - Attach, detach, suspend and resume on demand
//   - Firmware reset into the run or idle state
//   - Card eject/insert and I/O conflict injection
//   - Live trace event tail, optionally mirrored to a CBOR trace file
//
// Usage:
//
//	spectrum-diag [flags]
//
// Flags:
//
//	-config string     Configuration file path (YAML)
//	-vcc int           Requested socket voltage in tenths of a volt (default 50)
//	-ignore-voltage    Accept CIS entries with a mismatched voltage
//	-trace string      CBOR trace log file path
//	-log-level string  Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Default 5.0V card
//	spectrum-diag
//
//	# 3.3V socket with a buggy CIS table, tracing to a file
//	spectrum-diag -vcc 33 -ignore-voltage -trace /tmp/spectrum.cbor
package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spectrum24/spectrum-go/cmd/spectrum-diag/interactive"
	"github.com/spectrum24/spectrum-go/pkg/driverconf"
	"github.com/spectrum24/spectrum-go/pkg/log"
	"github.com/spectrum24/spectrum-go/pkg/sim"
)

var (
	configPath    string
	requestedVcc  int
	ignoreVoltage bool
	tracePath     string
	logLevel      string
)

func init() {
	flag.StringVar(&configPath, "config", "", "Configuration file path (YAML)")
	flag.IntVar(&requestedVcc, "vcc", driverconf.Default().RequestedVcc, "Requested socket voltage in tenths of a volt")
	flag.BoolVar(&ignoreVoltage, "ignore-voltage", false, "Accept CIS entries with a mismatched voltage")
	flag.StringVar(&tracePath, "trace", "", "CBOR trace log file path")
	flag.StringVar(&logLevel, "log-level", driverconf.Default().LogLevel, "Log level: debug, info, warn, error")
}

// consoleConfig adapts the resolved configuration to the interactive
// layer's view of it.
type consoleConfig struct {
	cfg driverconf.Config
}

func (c consoleConfig) RequestedVcc() int   { return c.cfg.RequestedVcc }
func (c consoleConfig) IgnoreVoltage() bool { return c.cfg.IgnoreVoltage }

func main() {
	flag.Parse()

	cfg, err := resolveConfig()
	if err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}

	setupLogging(cfg.LogLevel)

	stdlog.Println("Spectrum24 Diagnostic Console")
	stdlog.Printf("Requested Vcc: %.1fV", float64(cfg.RequestedVcc)/10)
	if cfg.IgnoreVoltage {
		stdlog.Println("Voltage checking disabled")
	}

	var tracer log.Logger
	if cfg.TracePath != "" {
		fl, err := log.NewFileLogger(cfg.TracePath)
		if err != nil {
			stdlog.Fatalf("Failed to open trace log: %v", err)
		}
		defer fl.Close()
		tracer = fl
		stdlog.Printf("Tracing to %s", cfg.TracePath)
	}

	card := sim.NewCard(sim.DefaultCardConfig())

	console, err := interactive.New(card, consoleConfig{cfg: cfg}, tracer)
	if err != nil {
		stdlog.Fatalf("Failed to start console: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	console.Run(ctx, cancel)
}

// resolveConfig loads the config file, then applies any flag the user
// set explicitly on top of it.
func resolveConfig() (driverconf.Config, error) {
	cfg := driverconf.Default()
	if configPath != "" {
		loaded, err := driverconf.Load(configPath)
		if err != nil {
			return driverconf.Config{}, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "vcc":
			cfg.RequestedVcc = requestedVcc
		case "ignore-voltage":
			cfg.IgnoreVoltage = ignoreVoltage
		case "trace":
			cfg.TracePath = tracePath
		case "log-level":
			cfg.LogLevel = logLevel
		}
	})

	return cfg, cfg.Validate()
}

func setupLogging(level string) {
	stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds)

	switch level {
	case "debug":
		stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds | stdlog.Lshortfile)
	case "warn", "error":
		stdlog.SetFlags(stdlog.Ltime)
	}
}
