package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/yhlin/ledgersense/internal/cli"
	"github.com/yhlin/ledgersense/internal/common"
	"github.com/yhlin/ledgersense/internal/learning"
)

func generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate rules from accumulated feedback",
		Long:  `Scan the recorded feedback and create or update categorization rules for recurring keyword patterns.`,
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

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("Generating rules..."),
				progressbar.OptionSpinnerType(14),
				progressbar.OptionClearOnFinish(),
			)

			type generateResult struct {
				report *learning.GenerateReport
				err    error
			}
			done := make(chan generateResult, 1)
			go func() {
				report, genErr := learner.GenerateRules(ctx)
				done <- generateResult{report: report, err: genErr}
			}()

			var result generateResult
		wait:
			for {
				select {
				case result = <-done:
					break wait
				case <-time.After(100 * time.Millisecond):
					_ = bar.Add(1)
				}
			}
			_ = bar.Finish()

			if result.err != nil {
				if errors.Is(result.err, common.ErrRegenerationInFlight) {
					fmt.Println(cli.SubtleStyle.Render("A generation run is already in flight."))
					return nil
				}
				return fmt.Errorf("rule generation failed: %w", result.err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"Scanned %d samples: %d rules created, %d updated",
				result.report.SamplesScanned, result.report.RulesCreated, result.report.RulesUpdated)))
			return nil
		},
	}
}
