package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/walkeeper/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	output  string
)

const defaultConfigFile = "walkeeper.yaml"

var rootCmd = &cobra.Command{
	Use:   "walkeeper",
	Short: "walkeeper - write-ahead log retention",
	Long: `walkeeper deletes write-ahead log segments that a retention policy no longer
needs, oldest first, and never deletes a segment crash recovery still requires.

Policies combine clauses with "+"; a segment is deleted only when every clause
allows it:

  keep_all              keep everything
  10 files              keep the newest 10 segments
  500M size             keep the newest 500 MiB
  100k txs              keep the newest 100,000 transactions
  12 hours, 7 days      keep segments with transactions that recent`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format: text, json, yaml, csv")
}

// printResult writes data in the --output format.
func printResult(cmd *cobra.Command, data any) error {
	format, err := cli.ParseFormat(output)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), data)
}
