package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/regbot/config"
)

// applyFlags copies explicitly set flags over the environment configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("headless") {
		cfg.Browser.Headless = flagHeadless
	}
	if f.Changed("no-sandbox") {
		cfg.Browser.NoSandbox = flagNoSandbox
	}
	if f.Changed("browser-bin") {
		cfg.Browser.BrowserBin = flagBrowserBin
	}
	if f.Changed("screenshots") {
		cfg.Output.ScreenshotDir = flagScreens
	}
	if f.Changed("reports") {
		cfg.Output.ReportDir = flagReports
	}
	if f.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
	if f.Changed("dump-pages") {
		cfg.Output.DumpPages = flagDumpPages
	}
	if f.Changed("pause") {
		d, err := time.ParseDuration(flagPause)
		if err != nil {
			return fmt.Errorf("invalid --pause: %w", err)
		}
		cfg.Form.RecordPause = d
	}
	return nil
}
