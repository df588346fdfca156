package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/IDAN2468D/NovaNews/internal/classify"
	"github.com/IDAN2468D/NovaNews/internal/dashboard"
	"github.com/IDAN2468D/NovaNews/internal/digest"
	"github.com/IDAN2468D/NovaNews/internal/news"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

const cliTimeout = 2 * time.Minute

var (
	flagCategory string
	flagJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <topic>",
	Short: "Fetch the latest news on a topic and print it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := strings.Join(args, " ")
		return runCycle(func(ctx context.Context, ctl *dashboard.Controller) error {
			return ctl.Search(ctx, topic)
		})
	},
}

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Run a deep-research pass on a topic",
	Long:  "Research asks for a broader, deeper set of articles. Without a topic it researches the last searched one.",
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := strings.Join(args, " ")
		return runCycle(func(ctx context.Context, ctl *dashboard.Controller) error {
			return ctl.Research(ctx, topic)
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Describe a news image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading image: %w", err)
		}
		mt := mimetype.Detect(data)
		if !strings.HasPrefix(mt.String(), "image/") {
			return fmt.Errorf("%s is %s, not an image", args[0], mt.String())
		}
		return runCycle(func(ctx context.Context, ctl *dashboard.Controller) error {
			return ctl.Analyze(ctx, data, mt.String())
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, researchCmd, analyzeCmd} {
		c.Flags().StringVarP(&flagCategory, "category", "c", "", "only show one category (e.g., tech, sports, econ)")
		c.Flags().BoolVar(&flagJSON, "json", false, "print articles as JSON")
	}
}

// runCycle opens the app, runs one dashboard cycle and prints the result.
func runCycle(run func(context.Context, *dashboard.Controller) error) error {
	var category classify.Category
	if flagCategory != "" {
		c, err := classify.ResolveAlias(flagCategory)
		if err != nil {
			return err
		}
		category = c
	}

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ctl, err := a.controller(ctx, false)
	if err != nil {
		return err
	}

	if err := run(ctx, ctl); err != nil {
		return err
	}

	ctl.SetCategory(category)
	snap := ctl.Snapshot()
	if snap.Banner != "" {
		fmt.Fprintln(os.Stderr, snap.Banner)
	}
	return printArticles(snap.Articles)
}

func printArticles(articles []news.Article) error {
	if flagJSON {
		if articles == nil {
			articles = []news.Article{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(articles)
	}
	if len(articles) == 0 {
		fmt.Println("No articles.")
		return nil
	}
	fmt.Print(digest.Text(articles))
	return nil
}
