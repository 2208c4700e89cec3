package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/regbot/models"
)

func main() {
	apiURL := os.Getenv("REGBOT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("REGBOT_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "REGBOT_API_KEY is required")
		os.Exit(1)
	}

	if err := server.ServeStdio(newServer(newAPIClient(apiURL, apiKey))); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(c *apiClient) *server.MCPServer {
	s := server.NewMCPServer(
		"regbot",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	runTool := mcp.NewTool("run_registrations",
		mcp.WithDescription("Submit event registrations: every CSV row (columns name, email, phone, event, url) is filled into its registration form in a real browser and classified as SUCCESS, FAILURE or UNKNOWN."),
		mcp.WithString("csv",
			mcp.Required(),
			mcp.Description("CSV text with a header row"),
		),
		mcp.WithString("webhook_url",
			mcp.Description("Optional URL that receives a signed run.completed event"),
		),
		mcp.WithBoolean("wait",
			mcp.Description("Wait for the run to finish and return its results (default: false)"),
		),
	)
	s.AddTool(runTool, handleRun(c))

	getTool := mcp.NewTool("get_run",
		mcp.WithDescription("Get the status and per-record results of a registration run."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Run id returned by run_registrations"),
		),
	)
	s.AddTool(getTool, handleGetRun(c))

	return s
}

func handleRun(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		csv, err := request.RequireString("csv")
		if err != nil {
			return mcp.NewToolResultError("csv is required"), nil
		}

		accepted, err := c.submit(ctx, models.RunRequest{
			CSV:        csv,
			WebhookURL: request.GetString("webhook_url", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("run submission failed: %v", err)), nil
		}

		if !request.GetBool("wait", false) {
			return mcp.NewToolResultText(fmt.Sprintf(
				"Run %s queued with %d records. Use get_run to follow it.", accepted.ID, accepted.Total)), nil
		}

		st, err := c.wait(ctx, accepted.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("waiting for run %s failed: %v", accepted.ID, err)), nil
		}
		return mcp.NewToolResultText(formatStatus(st)), nil
	}
}

func handleGetRun(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}
		st, err := c.get(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get run failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatStatus(st)), nil
	}
}

// formatStatus renders a run for the model: state line, summary, then one
// line per record.
func formatStatus(st models.RunStatus) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run %s: %s (%d/%d records)\n", st.ID, st.Status, st.Completed, st.Total)
	if st.Summary != nil {
		sb.WriteString(st.Summary.String() + "\n")
	}
	if st.ReportPath != "" {
		fmt.Fprintf(&sb, "Report: %s\n", st.ReportPath)
	}
	if len(st.Results) > 0 {
		sb.WriteString("\n")
	}
	for _, r := range st.Results {
		fmt.Fprintf(&sb, "#%d %s: %s (%s <%s>, %s)\n",
			r.Index, r.Status, r.Message,
			r.Fields[models.KeyName], r.Fields[models.KeyEmail], r.Fields[models.KeyURL])
	}
	return sb.String()
}
