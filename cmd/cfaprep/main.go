package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "cfaprep",
		Short:        "CFA exam prep backend: practice questions, RAG and the blog pipeline",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "cfaprep.yaml", "config file (missing file means defaults)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(categoryCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(curriculumCmd())
	rootCmd.AddCommand(questionsCmd())
	rootCmd.AddCommand(blogCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
