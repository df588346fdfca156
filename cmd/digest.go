package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/IDAN2468D/NovaNews/internal/cache"
	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/IDAN2468D/NovaNews/internal/digest"
	"github.com/IDAN2468D/NovaNews/internal/news"
	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var (
	flagDigestSince  string
	flagDigestSearch string
	flagDigestAll    bool
	flagDigestCopy   bool
	flagExportDir    string
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Print cached news as a plain-text digest",
	Long: `Print the cached articles for the current topic (or every topic with --all)
as a numbered digest. Works offline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		articles, err := queryCached()
		if err != nil {
			return err
		}
		if flagDigestCopy {
			if err := clipboard.WriteAll(digest.Text(articles)); err != nil {
				return fmt.Errorf("copying to clipboard: %w", err)
			}
			fmt.Printf("Copied %d article(s) to the clipboard.\n", len(articles))
			return nil
		}
		return printArticles(articles)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export cached news to a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		articles, err := queryCached()
		if err != nil {
			return err
		}
		dir := flagExportDir
		if dir == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dir = cfg.GetExportDir()
		}
		path, err := digest.Export(dir, articles, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d article(s) to %s\n", len(articles), path)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{digestCmd, exportCmd} {
		c.Flags().StringVar(&flagDigestSince, "since", "", "only articles fetched within this duration (e.g., 7d, 24h)")
		c.Flags().StringVarP(&flagDigestSearch, "search", "s", "", "only articles whose title or summary contains this text")
		c.Flags().StringVarP(&flagCategory, "category", "c", "", "only one category (e.g., tech, sports, econ)")
		c.Flags().BoolVar(&flagDigestAll, "all", false, "include every cached topic")
	}
	digestCmd.Flags().BoolVar(&flagDigestCopy, "copy", false, "copy the digest to the clipboard")
	digestCmd.Flags().BoolVar(&flagJSON, "json", false, "print articles as JSON")
	exportCmd.Flags().StringVarP(&flagExportDir, "dir", "d", "", "directory to write to (default: export_dir, then Downloads)")
}

func queryCached() ([]news.Article, error) {
	opts := cache.QueryOpts{Search: flagDigestSearch}
	if flagDigestSince != "" {
		d, err := parseSince(flagDigestSince)
		if err != nil {
			return nil, fmt.Errorf("invalid --since value: %w", err)
		}
		opts.Since = time.Now().Add(-d)
	}
	if flagCategory != "" {
		c, err := classify.ResolveAlias(flagCategory)
		if err != nil {
			return nil, err
		}
		opts.Category = string(c)
	}

	a, err := openApp(context.Background())
	if err != nil {
		return nil, err
	}
	defer a.Close()

	if !flagDigestAll {
		opts.Topic = a.topic()
	}
	rows, err := a.db.GetArticles(opts)
	if err != nil {
		return nil, err
	}
	out := make([]news.Article, len(rows))
	for i, r := range rows {
		out[i] = r.Article
	}
	return out, nil
}
