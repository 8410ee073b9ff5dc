package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "datalab",
		Short: "Datalab - AI-assisted tabular analysis engine",
		Long: `Datalab runs AI-generated analysis tasks against uploaded tabular
datasets. It plans and generates analysis code through an external
generation service, executes it, auto-fixes failures, and streams progress
events to clients in real time.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
