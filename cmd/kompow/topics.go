package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var topicsUser string

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List topics a user has flashcards for",
	Long: `List the distinct topics a user has stored flashcard sets for.

Examples:
  kompow topics --user alice@example.com`,
	RunE: runTopics,
}

func init() {
	topicsCmd.Flags().StringVar(&topicsUser, "user", "", "user to list topics for (default: server.default_user)")
}

func runTopics(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	userID := topicsUser
	if userID == "" {
		userID = a.cfg.Server.DefaultUser
	}

	col, err := a.store.Open(userID)
	if err != nil {
		return fmt.Errorf("opening collection for %s: %w", userID, err)
	}
	if col.Degraded() {
		return fmt.Errorf("retrieval unavailable: no embedding service configured")
	}

	topics := a.repo.ListTopics(cmd.Context(), col, userID)
	if len(topics) == 0 {
		fmt.Printf("no flashcard topics stored for %s\n", userID)
		return nil
	}
	for _, topic := range topics {
		fmt.Println(topic)
	}
	return nil
}
