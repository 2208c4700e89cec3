package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/use-agent/regbot/batch"
	"github.com/use-agent/regbot/browser"
	"github.com/use-agent/regbot/evidence"
	"github.com/use-agent/regbot/form"
	"github.com/use-agent/regbot/records"
	"github.com/use-agent/regbot/report"
)

const defaultRecordsFile = "test_data.csv"

var runCmd = &cobra.Command{
	Use:   "run [csv]",
	Short: "Register every record of a CSV file",
	Long: `Register every record of a CSV file (default ` + defaultRecordsFile + `).

The header row names the columns; name, email, phone, event and url are used.
Records are processed one at a time on a single browser page. Ctrl-C stops
after the current record; the report still covers every record.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	path := defaultRecordsFile
	if len(args) > 0 {
		path = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recs, err := records.Load(path)
	if err != nil {
		pterm.Error.Printf("Cannot read records: %v\n", err)
		return err
	}

	pterm.DefaultHeader.WithFullWidth().Printf("Event Registration Bot")
	pterm.Info.Printf("Loaded %d records from %s\n", len(recs), path)

	sess, err := browser.Launch(cfg.Browser, slog.Default())
	if err != nil {
		pterm.Error.Printf("Cannot start browser: %v\n", err)
		return err
	}
	defer sess.Close()

	proc := form.NewProcessor(sess.Page(), cfg.Form,
		form.WithEvidence(evidence.Store{Dir: cfg.Output.ScreenshotDir, Transcripts: cfg.Output.DumpPages}),
		form.WithLogger(slog.Default()),
	)
	results := batch.NewRunner(proc, cfg.Form.RecordPause).Run(ctx, recs)

	reportPath, err := report.WriteFile(cfg.Output.ReportDir, time.Now(), results)
	if err != nil {
		slog.Error("writing report failed", "error", err)
	}

	printSummary(results, reportPath, cfg.Output.ScreenshotDir)
	if ctx.Err() != nil {
		pterm.Warning.Println("Bot interrupted by user")
	}
	return nil
}
