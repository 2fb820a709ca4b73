package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homologa-digital/homologa/internal/cli"
	"github.com/homologa-digital/homologa/internal/matcher"
)

func matchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <description>",
		Short: "Match a description against the element catalog",
		Long: `Match a free-text modification description against the catalog and print
the ranked elements plus the terms that matched nothing.

Examples:
  homologa match "quiero homologar el escape y el manillar"
  homologa match --category motos "tubo de escape akrapovic"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runMatch,
	}

	return cmd
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd.Context())
	defer cancel()

	description := strings.Join(args, " ")

	catalog, store, err := loadCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	result := matcher.NewMatcher().Match(description, catalog.Elements)

	fmt.Println(cli.TitleStyle.Render("Matched elements"))
	if len(result.Matches) == 0 {
		fmt.Println(cli.SubtleStyle.Render("  (none)"))
	}
	for _, m := range result.Matches {
		line := fmt.Sprintf("  %-12s %.2f  %s", m.Element.Code, m.Score, strings.Join(m.Signals, " "))
		if catalog.HasVariants(m.Element.ID) {
			line += cli.WarningStyle.Render("  [needs variant]")
		}
		fmt.Println(line)
	}

	if len(result.UnmatchedTerms) > 0 {
		fmt.Println(cli.TitleStyle.Render("Unmatched terms"))
		fmt.Println(cli.SubtleStyle.Render("  " + strings.Join(result.UnmatchedTerms, ", ")))
	}

	return nil
}
