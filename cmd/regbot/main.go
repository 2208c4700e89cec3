package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/regbot/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

var (
	cfg       *config.Config
	logCloser io.Closer

	flagHeadless   bool
	flagNoSandbox  bool
	flagBrowserBin string
	flagScreens    string
	flagReports    string
	flagLogLevel   string
	flagDumpPages  bool
	flagPause      string
)

var rootCmd = &cobra.Command{
	Use:   "regbot",
	Short: "Event registration form bot",
	Long: `regbot fills and submits a web registration form once per CSV row,
classifies each submission from the resulting page, saves a screenshot per
record and writes a results report.

Configuration comes from REGBOT_* environment variables; flags override them.

Examples:
  regbot run                          # process ./test_data.csv
  regbot run attendees.csv --headless # process another file without a window
  regbot serve                        # queue runs over HTTP`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}
		logCloser = initLogger(cfg.Log)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagHeadless, "headless", false, "run the browser without a window")
	pf.BoolVar(&flagNoSandbox, "no-sandbox", true, "disable the Chromium sandbox")
	pf.StringVar(&flagBrowserBin, "browser-bin", "", "path to the Chromium binary")
	pf.StringVar(&flagScreens, "screenshots", "", "screenshot directory")
	pf.StringVar(&flagReports, "reports", "", "report directory")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&flagDumpPages, "dump-pages", false, "write a markdown transcript next to each screenshot")
	pf.StringVar(&flagPause, "pause", "", "pause between records, e.g. 2s")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}

// execute runs the command tree and closes the log file afterwards, also
// when the command failed (cobra skips PersistentPostRun after an error).
func execute() error {
	defer closeLog()
	return rootCmd.Execute()
}

func closeLog() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}
