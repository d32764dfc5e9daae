package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"bueno/internal/driver"
	"bueno/internal/format"
	"bueno/internal/observ"
)

const defaultPattern = "**/*"

var errChangesRequired = errors.New("fmt: formatting changes required")

var fmtCmd = &cobra.Command{
	Use:   "fmt [pattern]",
	Short: "Format script, data and prose files matched by a glob pattern",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFmt,
}

func init() {
	fmtCmd.Long = fmt.Sprintf(`Format every file matched by pattern (default %q) whose extension is one of:
  %s
Other files are skipped without being read.
With --check nothing is written and the command fails when a file would change.`,
		defaultPattern, strings.Join(format.Extensions(), " "))
	fmtCmd.Flags().Bool("check", false, "report files that would change without writing them")
	fmtCmd.Flags().String("ui", "off", "show progress UI (auto|on|off)")
}

func runFmt(cmd *cobra.Command, args []string) error {
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	flags := cmd.Root().PersistentFlags()
	configPath, err := flags.GetString("config")
	if err != nil {
		return err
	}
	showTimings, err := flags.GetBool("timings")
	if err != nil {
		return err
	}

	pattern := defaultPattern
	if len(args) == 1 {
		pattern = args[0]
	}
	ctx := cmd.Context()
	timer := observ.NewTimer()
	if showTimings {
		defer func() { fmt.Fprint(cmd.ErrOrStderr(), timer.Summary()) }()
	}

	var cfg *buenoConfig
	err = timer.Measure("config", func() error {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg, err = loadConfig(configPath, wd)
		return err
	})
	if err != nil {
		return err
	}
	logger.Debug("configuration", "source", cfg.Source, "path", cfg.Path)

	pluginsIdx := timer.Begin("plugins")
	stack, err := assembleDispatcher(ctx, cfg, logger)
	if err != nil {
		timer.End(pluginsIdx, "failed")
		return err
	}
	defer stack.release()
	timer.EndCount(pluginsIdx, "", len(pluginSlots(cfg)))

	opts := driver.FormatOptions{
		Check:      check,
		Dispatcher: stack.dispatcher,
		Out:        cmd.OutOrStdout(),
		Logger:     logger,
		Warnings:   warningLogger(logger),
	}
	if cfg.Fmt.Incremental {
		cache, err := driver.OpenFormatCache(afero.NewOsFs(), cfg.incrementalCachePath(), stack.fingerprint())
		if err != nil {
			return err
		}
		opts.Cache = cache
		defer func() {
			if err := cache.Save(); err != nil {
				logger.Warn("saving format cache", "err", err)
			}
		}()
	}
	formatIdx := timer.Begin("format")
	var stats driver.FormatStats
	if shouldUseTUI(mode) {
		stats, err = runFormatWithUI(ctx, pattern, opts)
	} else {
		stats, err = driver.FormatGlob(ctx, pattern, opts)
	}
	note := ""
	if err != nil {
		note = "failed"
	}
	timer.EndCount(formatIdx, note, stats.Formatted)
	if err != nil {
		return err
	}

	logger.Info("fmt finished", "matched", stats.Matched, "formatted", stats.Formatted, "cached", stats.Cached, "changed", stats.Changed, "entry_errors", stats.EntryErrors)
	if check && stats.Changed > 0 {
		return errChangesRequired
	}
	return nil
}
