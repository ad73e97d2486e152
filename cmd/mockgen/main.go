package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"burndown-mcp/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", engine.ScenarioSteady, "Scenario to generate: steady, creep, stall")
	outDir := flag.String("out", "./snapshots", "Snapshot directory the server reads with --offline")
	boardID := flag.Int("board", 1, "Board id the sprint is stored under")
	sprintID := flag.Int("sprint", 1, "Sprint id")
	days := flag.Int("days", 10, "Sprint length in calendar days")
	count := flag.Int("count", 12, "Number of issues to generate")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		BoardID:  *boardID,
		SprintID: *sprintID,
		Days:     *days,
		Count:    *count,
		Seed:     *seed,
		Now:      time.Now().UTC(),
	}

	fmt.Printf("Generating scenario '%s' (Board: %d, Sprint: %d, Issues: %d) to %s...\n", cfg.Scenario, cfg.BoardID, cfg.SprintID, cfg.Count, *outDir)

	dataset := engine.Generate(cfg)
	if err := engine.Save(*outDir, cfg.BoardID, dataset, cfg.Now); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
