package commands

import (
	"context"
	"os/signal"
	"syscall"

	"burndown-mcp/internal/config"
	"burndown-mcp/internal/jira"
	"burndown-mcp/internal/logging"
	"burndown-mcp/internal/mcp"
	"burndown-mcp/internal/report"
	"burndown-mcp/internal/snapshot"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	service *report.Service
)

var rootCmd = &cobra.Command{
	Use:   "burndown-mcp",
	Short: "Sprint burndown MCP server for Jira",
	Long: `An MCP server and CLI that reconstructs day-by-day sprint burndowns from Jira issues,
their change history and work-logs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		service = newService(cfg)

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("burndown-mcp starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server, err := mcp.NewServer(service, cfg.EnableMermaidCharts, Version)
		if err != nil {
			return err
		}
		log.Info().Msg("MCP server starting stdio transport")
		return server.Serve(ctx)
	},
}

// newService wires the Jira client and snapshot store. Without JIRA_URL only snapshots are served.
func newService(cfg *config.AppConfig) *report.Service {
	var client jira.Client
	if cfg.Jira.BaseURL != "" {
		client = jira.NewClient(cfg.Jira)
	}
	return report.NewService(client, snapshot.NewStore(), report.Settings{
		Mode:              cfg.Mode,
		Location:          cfg.Location,
		DefaultBoards:     cfg.DefaultBoards,
		SnapshotDir:       cfg.SnapshotDir,
		WorklogBatchSize:  cfg.Jira.WorklogBatchSize,
		WorklogBatchPause: cfg.Jira.WorklogBatchPause,
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
