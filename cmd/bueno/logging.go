package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "bueno", Level: log.WarnLevel})

// setupLogger sets the level of the process logger from --log-level.
// --quiet raises it to error.
func setupLogger(cmd *cobra.Command) (*log.Logger, error) {
	flags := cmd.Root().PersistentFlags()
	levelStr, err := flags.GetString("log-level")
	if err != nil {
		return nil, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return nil, err
	}
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", levelStr, err)
	}
	if quiet && level < log.ErrorLevel {
		level = log.ErrorLevel
	}
	logger.SetLevel(level)
	logger.SetOutput(cmd.ErrOrStderr())
	return logger, nil
}

// warningLogger returns a copy of l that always shows warnings. Skipped
// pattern entries are reported even under --quiet.
func warningLogger(l *log.Logger) *log.Logger {
	w := l.With()
	if w.GetLevel() > log.WarnLevel {
		w.SetLevel(log.WarnLevel)
	}
	return w
}

func applyColorMode(value string) error {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
	return nil
}
