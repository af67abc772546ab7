package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gridmind/gridmind"
	"github.com/gridmind/gridmind/core"
)

var chatSessionID string

// chatCmd starts the interactive loop
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Starts an interactive session against the configured backend. Each line is
one complete turn: routing, delegation, review and commit. Type /quit to
leave; the session history survives restarts when --data-dir is set.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "session id to resume (defaults to a fresh session)")
}

func runChat(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	gm, err := gridmind.NewFromSettings(settings)
	if err != nil {
		return err
	}

	sessionID := chatSessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	fmt.Printf("gridmind chat (session %s, provider %s)\n", sessionID, settings.Provider)
	fmt.Println("Type your question, or /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" || text == "/exit" {
			break
		}

		out, err := gm.RunTurn(context.Background(), sessionID, userID, text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		printTurn(out.Response, out.Turn.Status, out.Gaps, out.Artifacts)
	}

	return scanner.Err()
}

func printTurn(response string, status core.TurnStatus, gaps, artifacts []string) {
	fmt.Println()
	fmt.Println(response)

	switch status {
	case core.TurnIncomplete:
		fmt.Println("[turn ended before all specialists finished]")
	case core.TurnNeedsClarification:
		fmt.Println("[waiting for your clarification]")
	}

	for _, g := range gaps {
		fmt.Printf("[gap] %s\n", g)
	}
	for _, id := range artifacts {
		fmt.Printf("[artifact] %s\n", id)
	}
	fmt.Println()
}
