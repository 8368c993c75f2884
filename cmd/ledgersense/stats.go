package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yhlin/ledgersense/internal/cli"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show training data statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			_, learner := buildServices(store, cfg)

			stats, err := learner.Statistics(ctx)
			if err != nil {
				return fmt.Errorf("failed to compute statistics: %w", err)
			}

			fmt.Println(cli.TitleStyle.Render("Training statistics"))
			fmt.Printf("Total samples: %s  Correct: %s  Active rules: %s\n\n",
				cli.BoldStyle.Render(fmt.Sprintf("%d", stats.TotalSamples)),
				cli.BoldStyle.Render(fmt.Sprintf("%d", stats.CorrectSamples)),
				cli.BoldStyle.Render(fmt.Sprintf("%d", stats.ActiveRules)))

			if len(stats.ByCategory) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No feedback recorded yet."))
				return nil
			}

			categories := make([]string, 0, len(stats.ByCategory))
			for category := range stats.ByCategory {
				categories = append(categories, category)
			}
			sort.Strings(categories)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "CATEGORY\tSAMPLES")
			for _, category := range categories {
				fmt.Fprintf(w, "%s\t%d\n", category, stats.ByCategory[category])
			}
			return nil
		},
	}
}
