package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quizmastery",
	Short: "Topic mastery quiz engine",
	Long: `quizmastery generates ten-question multiple-choice quizzes per topic,
scores submissions, tracks mastered topics and keeps an assessment history.

Run "quizmastery serve" for the HTTP API, or drive the engine locally with
the quiz, mastery and history commands.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides QUIZMASTERY_CONFIG env var)")
	rootCmd.PersistentFlags().String("db", "", "Database DSN or SQLite path (overrides QUIZMASTERY_DB_DSN env var)")
	rootCmd.PersistentFlags().String("driver", "", "Store driver: memory, sqlite or postgres")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(masteryCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
