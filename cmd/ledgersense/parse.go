package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yhlin/ledgersense/internal/model"
	"github.com/yhlin/ledgersense/internal/rules"
	"github.com/yhlin/ledgersense/internal/voice"
)

func parseCmd() *cobra.Command {
	var family bool

	cmd := &cobra.Command{
		Use:   "parse [transcript]",
		Short: "Parse a voice transcript into a structured record",
		Long:  `Parse a voice transcript like「午餐花了120元」and print the structured result as JSON.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			parser := voice.NewParser(rules.DefaultDictionary())

			voiceContext := model.ContextPersonal
			if family {
				voiceContext = model.ContextFamily
			}

			result := parser.Parse(args[0], voiceContext)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&family, "family", false, "parse with family bookkeeping context (split phrases)")

	return cmd
}
