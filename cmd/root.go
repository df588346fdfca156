package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig  string
	flagTopic   string
	flagMode    string
	flagRefresh bool
)

var rootCmd = &cobra.Command{
	Use:   "novanews",
	Short: "Hebrew news dashboard for the terminal",
	Long: `NovaNews asks an AI service for the latest news on a topic and shows it as
a browsable dashboard, with deep research, image analysis, read-aloud and
timed auto-refresh.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagTopic, "topic", "", "topic to show (default: last searched, then default_topic)")

	rootCmd.Flags().StringVar(&flagMode, "mode", "", "auto-refresh mode: off, fast, hourly, daily")
	rootCmd.Flags().BoolVar(&flagRefresh, "refresh", false, "fetch fresh news on start even when cached news exists")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("novanews %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
