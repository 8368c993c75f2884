package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yhlin/ledgersense/internal/cli"
	"github.com/yhlin/ledgersense/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
		Long:  `List and inspect the manual and generated categorization rules.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(deleteRuleCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categorization rules",
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

			var ruleList []model.CategoryRule
			if all {
				ruleList, err = store.GetAllRules(ctx)
			} else {
				ruleList, err = store.GetActiveRules(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}

			if len(ruleList) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No rules found. Seed some or run 'ledgersense generate'."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render("Categorization rules"))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRIORITY\tSOURCE\tUSES\tKEYWORDS")
			for _, r := range ruleList {
				name := r.Name
				if !r.IsActive {
					name = cli.SubtleStyle.Render(name + " (inactive)")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%d\t%s\n",
					r.ID, name, r.Category, r.Priority, r.Source, r.UseCount,
					strings.Join(r.Keywords, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include inactive rules")

	return cmd
}

func deleteRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a rule by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var id int
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("invalid rule ID %q", args[0])
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRule(ctx, id); err != nil {
				return fmt.Errorf("failed to delete rule %d: %w", id, err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Deleted rule %d", id)))
			return nil
		},
	}
}
