package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gridmind/gridmind"
)

// infoCmd prints the effective configuration and agent catalog
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the configured backend, agents and their tool scopes",
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	gm, err := gridmind.NewFromSettings(settings)
	if err != nil {
		return err
	}

	modelInfo := gm.Model()
	cfg := gm.Config()

	fmt.Printf("provider:   %s (%s)\n", settings.Provider, modelInfo.Name)
	fmt.Printf("language:   %s\n", cfg.Language)
	fmt.Printf("data dir:   %s\n", orDefault(settings.DataDir, "(in-memory)"))
	fmt.Printf("budgets:    turn %s, task %s, tool %s, %d tool calls per task\n",
		cfg.TurnBudget, cfg.TaskTimeout, cfg.ToolTimeout, cfg.ToolCallBudget)
	fmt.Printf("retrieval:  k=%d, min score %.2f, chunks of %d words (overlap %d)\n",
		cfg.RetrievalK, cfg.SimilarityThreshold, cfg.ChunkSize, cfg.ChunkOverlap)

	fmt.Println("\nagents:")
	for _, a := range gm.Agents() {
		mode := "read-write"
		if a.ReadOnly {
			mode = "read-only"
		}
		fmt.Printf("  %-18s %s\n", a.Name, a.Description)
		fmt.Printf("  %-18s tools: %s (%s)\n", "", strings.Join(a.Tools, ", "), mode)
	}

	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
