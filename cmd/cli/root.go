package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codescribe-cli",
	Short: "codescribe-cli is the command-line interface for CodeScribe.",
	Long:  `A CLI for administrative tasks around the CodeScribe review service, such as loading coding-standards documents into the retrieval store.`,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(historyCmd)
}
