package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"burndown-mcp/internal/burndown"
	"burndown-mcp/internal/report"
	"burndown-mcp/internal/visuals"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	boardIDs  []int
	mode      string
	format    string
	chartPath string
	openChart bool
	offline   bool
)

var burndownCmd = &cobra.Command{
	Use:   "burndown",
	Short: "Print the burndown of the boards' operative sprints",
	Example: `  burndown-mcp burndown --board 12
  burndown-mcp burndown --board 12 --board 14 --mode remaining --format csv > burndown.csv
  burndown-mcp burndown --board 12 --chart burndown.html --open`,
	RunE: func(cmd *cobra.Command, args []string) error {
		render, ok := renderers[format]
		if !ok {
			return fmt.Errorf("unknown format %q (want table, json, yaml or csv)", format)
		}
		m, err := burndown.ParseMode(mode)
		if err != nil {
			return err
		}
		if mode == "" {
			m = ""
		}

		rep, err := service.Build(cmd.Context(), report.Request{
			BoardIDs: boardIDs,
			Mode:     m,
			Offline:  offline,
			Progress: func(msg string) { log.Info().Msg(msg) },
		})
		if err != nil {
			return err
		}
		if err := render(cmd.OutOrStdout(), rep); err != nil {
			return err
		}

		if chartPath == "" && openChart {
			chartPath = filepath.Join(os.TempDir(), fmt.Sprintf("burndown-%d.html", rep.SprintID))
		}
		if chartPath == "" {
			return nil
		}
		if err := writeChart(chartPath, rep); err != nil {
			return err
		}
		log.Info().Str("path", chartPath).Msg("Wrote burndown chart")
		if openChart {
			// Keep stdout clean for piped output.
			browser.Stdout = os.Stderr
			return browser.OpenFile(chartPath)
		}
		return nil
	},
}

func writeChart(path string, rep *report.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := visuals.RenderBurndownHTML(f, rep.Title(), rep.Timeline); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	burndownCmd.Flags().IntSliceVarP(&boardIDs, "board", "b", nil, "board id (repeatable); defaults to BURNDOWN_BOARDS")
	burndownCmd.Flags().StringVarP(&mode, "mode", "m", "", "calculation mode: original or remaining (default BURNDOWN_MODE)")
	burndownCmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json, yaml or csv")
	burndownCmd.Flags().StringVar(&chartPath, "chart", "", "write an HTML burndown chart to this path")
	burndownCmd.Flags().BoolVar(&openChart, "open", false, "open the HTML chart in the browser")
	burndownCmd.Flags().BoolVar(&offline, "offline", false, "serve the last stored snapshot without contacting Jira")
	rootCmd.AddCommand(burndownCmd)
}
