package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gridmind/gridmind"
)

var askSessionID string

// askCmd runs a single turn and exits
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the committed response",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askSessionID, "session", "", "session id to continue (defaults to a fresh session)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	gm, err := gridmind.NewFromSettings(settings)
	if err != nil {
		return err
	}

	sessionID := askSessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	out, err := gm.RunTurn(context.Background(), sessionID, userID, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("turn failed: %w", err)
	}

	printTurn(out.Response, out.Turn.Status, out.Gaps, out.Artifacts)
	fmt.Printf("session %s at version %d\n", out.SessionID, out.Version)

	return nil
}
