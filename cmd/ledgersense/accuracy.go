package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yhlin/ledgersense/internal/cli"
)

func accuracyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accuracy",
		Short: "Show rule accuracy over recorded feedback",
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

			report, err := learner.EvaluateAccuracy(ctx)
			if err != nil {
				return fmt.Errorf("failed to evaluate accuracy: %w", err)
			}

			if report.TotalSamples == 0 {
				fmt.Println(cli.SubtleStyle.Render("No feedback recorded yet."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render("Accuracy report"))
			fmt.Printf("Samples: %s  Overall: %s\n\n",
				cli.BoldStyle.Render(fmt.Sprintf("%d", report.TotalSamples)),
				cli.BoldStyle.Render(fmt.Sprintf("%.1f%%", report.OverallAccuracy*100)))

			categories := make([]string, 0, len(report.ByCategory))
			for category := range report.ByCategory {
				categories = append(categories, category)
			}
			sort.Strings(categories)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "CATEGORY\tSAMPLES\tCORRECT\tACCURACY\tAVG CONFIDENCE")
			for _, category := range categories {
				acc := report.ByCategory[category]
				fmt.Fprintf(w, "%s\t%d\t%d\t%.1f%%\t%.2f\n",
					category, acc.Total, acc.Correct, acc.Accuracy*100, acc.AvgConfidence)
			}
			return nil
		},
	}
}
