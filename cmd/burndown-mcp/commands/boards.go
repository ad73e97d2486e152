package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List the agile boards visible to the configured account",
	RunE: func(cmd *cobra.Command, args []string) error {
		boards, err := service.ListBoards(cmd.Context())
		if err != nil {
			return err
		}

		tbl := table.NewWriter()
		tbl.SetOutputMirror(cmd.OutOrStdout())
		tbl.SetStyle(table.StyleLight)
		tbl.AppendHeader(table.Row{"ID", "Name", "Type", "Project"})
		for _, b := range boards {
			project := ""
			if b.Location != nil {
				project = b.Location.ProjectKey
			}
			tbl.AppendRow(table.Row{b.ID, b.Name, b.Type, project})
		}
		tbl.AppendFooter(table.Row{"", "", "Total", len(boards)})
		tbl.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boardsCmd)
}
