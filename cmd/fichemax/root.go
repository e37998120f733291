package main

import (
	"github.com/spf13/cobra"

	"github.com/fichemax/fichemax/internal/api"
	"github.com/fichemax/fichemax/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "fichemax",
	Short: "Course revision backend: retrieval-grounded study sheets with quizzes",
	Long: `Fichemax is the backend of a course revision app. It answers student
questions from indexed course material and turns them into revision sheets.

The pipeline:
  - Embeds the question and retrieves matching course chunks from pgvector
  - Prompts an LLM for a structured sheet: course summary plus a QCM quiz
  - Renders the sheet to a downloadable PDF`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.fichemax/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "fichemax home directory (default: ~/.fichemax)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
