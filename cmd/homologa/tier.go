package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homologa-digital/homologa/internal/cli"
)

func tierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tier",
		Short: "Inspect tariff tiers",
	}

	cmd.AddCommand(tierResolveCmd())
	cmd.AddCommand(tierValidateCmd())

	return cmd
}

func tierResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <tier-code>",
		Short: "Flatten a tier's element coverage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()

			catalog, store, err := loadCatalog(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			tier, ok := catalog.TierByCode(args[0])
			if !ok {
				return fmt.Errorf("tier %q not found (available: %s)",
					args[0], strings.Join(catalog.TierCodes(), ", "))
			}

			resolved, err := newResolver(catalog).Resolve(tier.ID)
			if err != nil {
				return err
			}

			fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Tier %s covers %d elements", tier.Code, len(resolved))))
			for _, re := range resolved {
				line := "  " + re.ElementCode
				if re.MinQty != nil || re.MaxQty != nil {
					line += fmt.Sprintf("  qty %s..%s", qtyString(re.MinQty), qtyString(re.MaxQty))
				}
				if re.Notes != "" {
					line += cli.SubtleStyle.Render("  " + re.Notes)
				}
				fmt.Println(line)
			}

			return nil
		},
	}
}

func tierValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <tier-code> <element-code>...",
		Short: "Check whether a tier covers a set of elements",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()

			catalog, store, err := loadCatalog(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			tier, ok := catalog.TierByCode(args[0])
			if !ok {
				return fmt.Errorf("tier %q not found (available: %s)",
					args[0], strings.Join(catalog.TierCodes(), ", "))
			}

			coverage, err := newResolver(catalog).Validate(tier.ID, args[1:])
			if err != nil {
				return err
			}

			if coverage.Valid {
				fmt.Println(cli.SuccessStyle.Render("All elements covered."))
				return nil
			}

			fmt.Println(cli.WarningStyle.Render(
				"Not covered: " + strings.Join(coverage.MissingElements, ", ")))
			return nil
		},
	}
}

func qtyString(v *int) string {
	if v == nil {
		return "*"
	}
	return fmt.Sprintf("%d", *v)
}
