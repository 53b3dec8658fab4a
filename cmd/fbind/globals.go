package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fbind/internal/bindgen"
)

var cleanups []func()

// setupGlobals applies the persistent flags: colour, logging and tracing.
func setupGlobals(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()

	mode, err := flags.GetString("color")
	if err != nil {
		return err
	}
	if err := applyColor(mode); err != nil {
		return err
	}

	level, err := flags.GetString("log-level")
	if err != nil {
		return err
	}
	logger, err := newLogger(level)
	if err != nil {
		return err
	}
	bindgen.SetLogger(logger)
	cleanups = append(cleanups, func() { _ = logger.Sync() })

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, cleanup)
	return nil
}

// teardownGlobals runs the cleanups of setupGlobals in reverse order, also
// after a failed command.
func teardownGlobals() {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanups = nil
}

func applyColor(mode string) error {
	switch strings.ToLower(mode) {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout) || os.Getenv("NO_COLOR") != ""
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (must be auto, on or off)", mode)
	}
	return nil
}

// newLogger builds a console logger on stderr, or a no-op logger for "off".
func newLogger(level string) (*zap.Logger, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" || level == "off" {
		return zap.NewNop(), nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.New("invalid --log-level " + level)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if !color.NoColor {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg.Build()
}

func quiet(cmd *cobra.Command) bool {
	q, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	return q
}

func timingsEnabled(cmd *cobra.Command) bool {
	t, _ := cmd.Root().PersistentFlags().GetBool("timings")
	return t
}
