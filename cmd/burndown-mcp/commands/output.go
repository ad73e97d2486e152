package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"burndown-mcp/internal/burndown"
	"burndown-mcp/internal/report"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

var renderers = map[string]func(io.Writer, *report.Report) error{
	"table": renderTable,
	"json":  renderJSON,
	"yaml":  renderYAML,
	"csv":   renderCSV,
}

func renderTable(w io.Writer, rep *report.Report) error {
	if rep.Message != "" {
		fmt.Fprintln(w, rep.Message)
		printWarnings(w, rep.Warnings)
		return nil
	}

	names := make([]string, len(rep.Sprints))
	for i, s := range rep.Sprints {
		names[i] = fmt.Sprintf("%s (board %d, %s)", s.Name, s.BoardID, s.Source)
	}
	fmt.Fprintf(w, "Sprint:   %s\n", strings.Join(names, ", "))
	fmt.Fprintf(w, "Window:   %s to %s\n", rep.StartDate, rep.EndDate)
	fmt.Fprintf(w, "Mode:     %s (strategy: %s)\n", rep.Mode, rep.Strategy)
	fmt.Fprintf(w, "Issues:   %d, estimate %s, spent %s\n\n",
		rep.IssueCount, burndown.FormatDuration(rep.TotalEstimate), burndown.FormatDuration(rep.TotalSpent))

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Date", "Remaining", "Ideal", "Spent", "Done", "Issues", "Delta", "Reason"})
	for _, p := range rep.Timeline {
		tbl.AppendRow(table.Row{
			p.Date,
			burndown.FormatHours(p.RemainingWorkSeconds),
			burndown.FormatHours(int64(p.IdealRemainingSeconds)),
			burndown.FormatHours(p.TimeSpentSeconds),
			p.IssuesCompleted,
			p.TotalIssues,
			burndown.FormatHours(p.DeltaSeconds),
			p.DeltaReason,
		})
	}
	tbl.Render()

	printWarnings(w, rep.Warnings)
	return nil
}

func printWarnings(w io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func renderJSON(w io.Writer, rep *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// renderYAML goes through JSON so the keys match the JSON output.
func renderYAML(w io.Writer, rep *report.Report) error {
	raw, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

var csvHeader = []string{
	"date", "remainingWorkSeconds", "idealRemainingSeconds", "timeSpentSeconds", "timeEstimateSeconds",
	"ratio", "issuesCompleted", "totalIssues", "deltaSeconds", "deltaReason",
}

func renderCSV(w io.Writer, rep *report.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range rep.Timeline {
		record := []string{
			p.Date,
			strconv.FormatInt(p.RemainingWorkSeconds, 10),
			strconv.FormatFloat(p.IdealRemainingSeconds, 'f', 2, 64),
			strconv.FormatInt(p.TimeSpentSeconds, 10),
			strconv.FormatInt(p.TimeEstimateSeconds, 10),
			strconv.FormatFloat(p.Ratio, 'f', 2, 64),
			strconv.Itoa(p.IssuesCompleted),
			strconv.Itoa(p.TotalIssues),
			strconv.FormatInt(p.DeltaSeconds, 10),
			p.DeltaReason,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
