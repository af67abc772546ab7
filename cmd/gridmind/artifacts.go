package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridmind/gridmind"
)

var artifactOut string

// artifactsCmd inspects stored artifacts
var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "List and export session artifacts",
	Long: `Inspect report artifacts generated during past turns.

Subcommands:
  list <session-id>   - List artifact metadata for a session
  show <artifact-id>  - Print an artifact, or write it with --out`,
}

var artifactsListCmd = &cobra.Command{
	Use:   "list <session-id>",
	Short: "List artifact metadata for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runArtifactsList,
}

var artifactsShowCmd = &cobra.Command{
	Use:   "show <artifact-id>",
	Short: "Print an artifact to stdout or write it to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runArtifactsShow,
}

func init() {
	artifactsShowCmd.Flags().StringVar(&artifactOut, "out", "", "write the artifact to this file instead of stdout")

	artifactsCmd.AddCommand(artifactsListCmd)
	artifactsCmd.AddCommand(artifactsShowCmd)
}

func runArtifactsList(cmd *cobra.Command, args []string) error {
	gm, err := openStore()
	if err != nil {
		return err
	}

	metas, err := gm.Artifacts(context.Background(), args[0])
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("no artifacts for this session")
		return nil
	}

	for _, m := range metas {
		fmt.Printf("%s  v%d  %-30s  %s  %d bytes\n", m.ID, m.Version, m.Name, m.Created.Format("2006-01-02 15:04"), m.Size)
	}

	return nil
}

func runArtifactsShow(cmd *cobra.Command, args []string) error {
	gm, err := openStore()
	if err != nil {
		return err
	}

	data, err := gm.Artifact(context.Background(), args[0])
	if err != nil {
		return err
	}

	if artifactOut != "" {
		if err := os.WriteFile(artifactOut, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes to %s\n", len(data), artifactOut)
		return nil
	}

	fmt.Println(string(data))

	return nil
}

// openStore builds a GridMind purely for store access. The mock provider is
// forced so no completion backend or API key is needed.
func openStore() (*gridmind.GridMind, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	settings.Provider = "mock"

	return gridmind.NewFromSettings(settings)
}
