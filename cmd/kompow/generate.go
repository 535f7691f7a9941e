package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaibhavp4/kompow/internal/agent"
)

var generateUser string

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate flashcards for a topic on demand",
	Long: `Research a topic, generate flashcards for it, and store them in the
user's collection.

Examples:
  # Generate for the default API user
  kompow generate "cell biology"

  # Generate for a specific user
  kompow generate --user alice@example.com "cell biology"

  # Multiple topics are researched together
  kompow generate "cell biology" "genetics"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateUser, "user", "", "user who owns the generated set (default: server.default_user)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	userID := generateUser
	if userID == "" {
		userID = a.cfg.Server.DefaultUser
	}
	// Multiple arguments are separate topics, normalized to the
	// comma-separated form the research prompt expects.
	topic := agent.JoinTopics(args)

	col, err := a.store.Open(userID)
	if err != nil {
		return fmt.Errorf("opening collection for %s: %w", userID, err)
	}

	result, err := a.pipeline.GenerateForTopic(cmd.Context(), col, userID, topic)
	if err != nil {
		return err
	}

	for i, card := range result.Cards {
		fmt.Printf("%d. Q: %s\n   A: %s\n", i+1, card.Question, card.Answer)
	}
	if result.Stored {
		fmt.Printf("\nStored %d flashcards for %s under %q\n", len(result.Cards), userID, topic)
	} else {
		fmt.Printf("\nGenerated %d flashcards but storage failed: %v\n", len(result.Cards), result.StoreErr)
	}
	return nil
}
