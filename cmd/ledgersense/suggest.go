package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yhlin/ledgersense/internal/cli"
	"github.com/yhlin/ledgersense/internal/model"
)

func suggestCmd() *cobra.Command {
	var (
		merchant string
		userID   string
		amount   float64
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "suggest [description]",
		Short: "Suggest categories for a record",
		Long:  `Run the suggestion pipeline against a description, merchant, and amount.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			ranker, _ := buildServices(store, cfg)

			rec := model.Record{Merchant: merchant, Amount: amount}
			if len(args) > 0 {
				rec.Description = args[0]
			}

			suggestions, err := ranker.Suggest(ctx, rec, userID, limit)
			if err != nil {
				return fmt.Errorf("failed to build suggestions: %w", err)
			}

			if len(suggestions) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No suggestions for this record."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render("Category suggestions"))
			for i, s := range suggestions {
				fmt.Printf("%d. %s %s\n", i+1,
					cli.BoldStyle.Render(s.Category),
					cli.SubtleStyle.Render(fmt.Sprintf("(%.2f, %s)", s.Confidence, s.Reason)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&merchant, "merchant", "", "merchant name")
	cmd.Flags().StringVar(&userID, "user", "", "user ID for history-based suggestions")
	cmd.Flags().Float64Var(&amount, "amount", 0, "transaction amount")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum suggestions (0 = configured default)")

	return cmd
}
