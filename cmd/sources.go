package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/IDAN2468D/NovaNews/internal/config"
	"github.com/IDAN2468D/NovaNews/internal/feed"
	"github.com/spf13/cobra"
)

var flagSourcesCheck bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured RSS sources",
	Long:  "List the RSS/Atom sources used by the headlines provider. --check fetches each enabled one.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		for _, s := range cfg.Sources {
			state := "on "
			if !s.Enabled {
				state = "off"
			}
			fmt.Printf("[%s] %-16s %-5s %s\n", state, s.Name, s.Type, s.URL)
		}

		if !flagSourcesCheck {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		result := feed.FetchAll(ctx, feed.NewRSSFetcher(), cfg.EnabledSources())
		fmt.Printf("\nFetched %d recent item(s).\n", len(result.Items))
		for _, e := range result.Errors {
			fmt.Printf("  [warn] %v\n", e)
		}
		return nil
	},
}

func init() {
	sourcesCmd.Flags().BoolVar(&flagSourcesCheck, "check", false, "fetch every enabled source and report errors")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
