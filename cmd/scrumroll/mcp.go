package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/flemzord/scrumroll/internal/aggregate"
	"github.com/flemzord/scrumroll/internal/config"
	"github.com/flemzord/scrumroll/internal/daemon"
	"github.com/flemzord/scrumroll/internal/journal"
	"github.com/flemzord/scrumroll/internal/prune"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the jobs as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serveMCP(cfg, newLogger(cmd, cfg))
		},
	}
}

func serveMCP(cfg *config.Config, logger *slog.Logger) error {
	rec, closeRec := newRecorder(cfg, logger)
	defer closeRec()
	client := daemon.NewClient(cfg)

	s := server.NewMCPServer("scrumroll", version,
		server.WithToolCapabilities(false),
	)

	runAggregate := mcp.NewTool("run-aggregate",
		mcp.WithDescription("Aggregate Notion project mentions into the daily record for a date"),
		mcp.WithString("date",
			mcp.Description("Calendar date YYYY-MM-DD; today when empty"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Report what would change without writing"),
		),
	)
	s.AddTool(runAggregate, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		day := time.Now().In(cfg.Location())
		if ds := req.GetString("date", ""); ds != "" {
			parsed, err := time.ParseInLocation("2006-01-02", ds, cfg.Location())
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid date %q: want YYYY-MM-DD", ds)), nil
			}
			day = parsed
		}

		agg := aggregate.New(client, logger, daemon.AggregateOptions(cfg, req.GetBool("dry_run", false)))
		res, err := rec.RunAggregate(ctx, journal.TriggerMCP, agg, day)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolJSON(res)
	})

	runPrune := mcp.NewTool("run-prune",
		mcp.WithDescription("Delete unused daily entries"),
		mcp.WithBoolean("dry_run",
			mcp.Description("Report matches without deleting"),
		),
	)
	s.AddTool(runPrune, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p := prune.New(client, logger, daemon.PruneOptions(cfg, req.GetBool("dry_run", false)))
		res, err := rec.RunPrune(ctx, journal.TriggerMCP, p, time.Now().In(cfg.Location()))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolJSON(res)
	})

	recentRuns := mcp.NewTool("recent-runs",
		mcp.WithDescription("List recent job runs from the journal, newest first"),
		mcp.WithString("job",
			mcp.Description("Filter by job name (aggregate or prune); all jobs when empty"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum rows to return (default 10)"),
		),
	)
	s.AddTool(recentRuns, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if rec.Journal == nil {
			return mcp.NewToolResultError("run journal unavailable"), nil
		}

		runs, err := rec.Journal.Recent(ctx, req.GetString("job", ""), req.GetInt("limit", 10))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolJSON(runs)
	})

	return server.ServeStdio(s)
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
