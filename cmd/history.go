package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var flagHistoryClear bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or clear recent searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if flagHistoryClear {
			a.prefs.SaveHistory(ctx, nil)
			fmt.Println("History cleared.")
			return nil
		}
		if len(a.state.History) == 0 {
			fmt.Println("No searches yet.")
			return nil
		}
		for i, topic := range a.state.History {
			fmt.Printf("%2d. %s\n", i+1, topic)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&flagHistoryClear, "clear", false, "delete the search history")
}
