// Package main implements the kompow CLI: an HTTP server, a batch pipeline
// driver, and manual flashcard operations.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML config file.
	configPath string
	// version information, set at build time.
	version = "dev"
)

func main() {
	// A local .env is optional; missing files are fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kompow",
	Short: "Personal learning assistant: flashcards from your own documents",
	Long: `kompow turns a user's stored documents into study flashcards.

It analyzes each user's documents for learning interests, researches those
interests, generates flashcards, and stores them back into the user's
knowledge collection for retrieval over HTTP or the CLI.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(topicsCmd)
}
