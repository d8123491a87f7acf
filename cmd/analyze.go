package main

import "github.com/spf13/cobra"

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run street and market classification batches",
}

func init() { rootCmd.AddCommand(analyzeCmd) }
