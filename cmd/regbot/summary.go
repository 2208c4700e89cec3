package main

import (
	"github.com/pterm/pterm"

	"github.com/use-agent/regbot/models"
)

// printSummary prints the console summary of a finished run.
func printSummary(results []models.RecordResult, reportPath, screenshotDir string) {
	s := models.Summarize(results)

	pterm.DefaultSection.Println("Summary")
	pterm.Info.Printf("Total: %d, Successful: %d, Failed: %d\n", s.Total, s.Successful, s.Failed)
	if s.Total > 0 {
		rate := pterm.Success
		if s.Failed > 0 {
			rate = pterm.Warning
		}
		rate.Printf("Success Rate: %.1f%%\n", s.Rate())
	}
	if reportPath != "" {
		pterm.Info.Printf("Results saved to %s\n", reportPath)
	}
	pterm.Info.Printf("Screenshots saved to %s\n", screenshotDir)
}
