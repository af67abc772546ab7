package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gridmind/gridmind"
	"github.com/gridmind/gridmind/core"
)

var (
	ingestTitle  string
	ingestSource string
	ingestID     string
)

// ingestCmd loads reference documents into the index
var ingestCmd = &cobra.Command{
	Use:   "ingest <file...>",
	Short: "Ingest regulation documents into the index",
	Long: `Reads one or more plain text files, splits them into overlapping chunks,
embeds each chunk and stores them in the document index. Re-ingesting a file
with the same id replaces its previous chunks in query results.

Example:
  gridmind ingest --data-dir ./data prodist-modulo-8.txt ren-1000-2021.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (defaults to the file name)")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "document source, e.g. ANEEL or ABNT")
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document id (defaults to the file name without extension; only valid with a single file)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestID != "" && len(args) > 1 {
		return fmt.Errorf("--id requires exactly one file")
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	gm, err := gridmind.NewFromSettings(settings)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		base := filepath.Base(path)
		id := ingestID
		if id == "" {
			id = strings.TrimSuffix(base, filepath.Ext(base))
		}
		title := ingestTitle
		if title == "" {
			title = base
		}

		chunks, err := gm.Ingest(ctx, core.Document{
			ID:     id,
			Title:  title,
			Source: ingestSource,
			Text:   string(data),
		})
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}

		fmt.Printf("%s: %d chunks indexed as %q\n", path, len(chunks), id)
	}

	return nil
}
