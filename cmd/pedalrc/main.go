// Command pedalrc watches configured evdev devices for foot-pedal and
// macro-button presses, matches them against a small pattern grammar,
// and shells out the matched command — generalizing texpand's
// keyboard-expander daemon from typed-text expansion to arbitrary
// shell commands.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/pedalrc/pedalrc/internal/config"
	"github.com/pedalrc/pedalrc/internal/device"
	"github.com/pedalrc/pedalrc/internal/matcher"
	"github.com/pedalrc/pedalrc/internal/sink"
	"github.com/pedalrc/pedalrc/internal/tui"
)

var version = "0.1.0"

func configDir() string {
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return filepath.Join(d, "pedalrc")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pedalrc")
}

func newLogger(quiet, debug bool, level string) zerolog.Logger {
	var w zerolog.ConsoleWriter
	if term.IsTerminal(int(os.Stderr.Fd())) {
		w = zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) { cw.Out = os.Stderr })
	} else {
		w.Out = os.Stderr
		w.NoColor = true
	}

	log := zerolog.New(w).With().Timestamp().Logger()

	switch {
	case debug:
		log = log.Level(zerolog.DebugLevel)
	case quiet:
		log = log.Level(zerolog.ErrorLevel)
	default:
		lvl, err := zerolog.ParseLevel(level)
		if err != nil {
			lvl = zerolog.InfoLevel
		}
		log = log.Level(lvl)
	}
	return log
}

func run() error {
	var (
		configPath string
		quiet      bool
		debug      bool
		showVer    bool
	)

	flags := pflag.NewFlagSet("pedalrc", pflag.ContinueOnError)
	flags.StringVarP(&configPath, "config", "c", "", "path to the rule configuration file (required)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress informational output")
	flags.BoolVar(&debug, "debug", false, "print the compiled rule list after load and run the live history view")
	flags.BoolVar(&showVer, "version", false, "print the version and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if showVer {
		fmt.Printf("pedalrc %s\n", version)
		return nil
	}
	if configPath == "" {
		return fmt.Errorf("--config, -c PATH is required")
	}

	appCfgPath := filepath.Join(configDir(), "pedalrc.yml")
	appCfg, err := config.LoadAppConfig(appCfgPath)
	if err != nil {
		return fmt.Errorf("load app config: %w", err)
	}

	log := newLogger(quiet, debug, appCfg.LogLevel)

	reg, err := config.Parse(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(reg.Devices) == 0 {
		return fmt.Errorf("no devices configured in %s", configPath)
	}
	if debug {
		fmt.Print(config.Dump(reg))
	}

	src, err := device.Open(reg.Devices, log)
	if err != nil {
		return fmt.Errorf("open devices: %w", err)
	}
	defer src.Close()

	execSink := sink.NewExecSink(appCfg.SinkTimeout, log)
	defer execSink.Close()

	m := matcher.New(reg.Rules, execSink, appCfg.HistoryCap, log)

	watcher, err := config.NewWatcher(configPath)
	if err != nil {
		log.Warn().Err(err).Msg("config hot-reload disabled")
	} else {
		defer watcher.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Int("devices", len(reg.Devices)).Int("rules", len(reg.Rules)).Msg("pedalrc started")

	var debugTick <-chan time.Time
	if debug {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		debugTick = ticker.C
	}

	for {
		select {
		case ev := <-src.Events():
			m.Handle(ev)

		case err := <-src.Lost():
			return fmt.Errorf("device: %w", err)

		case newReg := <-watcherRegistry(watcher):
			log.Info().Int("rules", len(newReg.Rules)).Msg("config reloaded")
			m = matcher.New(newReg.Rules, execSink, appCfg.HistoryCap, log)

		case werr := <-watcherErrors(watcher):
			log.Warn().Err(werr).Msg("config reload failed, keeping previous rules")

		case <-debugTick:
			tui.WriteHistory(os.Stdout, m)

		case <-sigCh:
			log.Info().Msg("shutting down")
			return nil
		}
	}
}

// watcherRegistry and watcherErrors tolerate a nil *config.Watcher
// (hot-reload disabled) by returning a channel that never fires,
// keeping the select above free of nil-channel special cases.
func watcherRegistry(w *config.Watcher) <-chan *config.Registry {
	if w == nil {
		return nil
	}
	return w.Registry
}

func watcherErrors(w *config.Watcher) <-chan error {
	if w == nil {
		return nil
	}
	return w.Errors
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pedalrc: %v\n", err)
		os.Exit(1)
	}
}
