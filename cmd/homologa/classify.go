package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/homologa-digital/homologa/internal/cli"
	"github.com/homologa-digital/homologa/internal/tariff"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <description>",
		Short: "Select the tariff tier for a description",
		Long: `Classify a modification description into exactly one tariff tier, using
keyword rules first and the element-count range as fallback, and print the
applicable warnings.

Examples:
  homologa classify "escape y manillar" --elements ESCAPE,MANILLAR
  homologa classify "proyecto completo de la moto" --count 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().StringSlice("elements", nil, "resolved element codes (comma separated)")
	cmd.Flags().Int("count", 0, "element count (defaults to the number of --elements)")
	_ = viper.BindPFlag("classify.elements", cmd.Flags().Lookup("elements"))
	_ = viper.BindPFlag("classify.count", cmd.Flags().Lookup("count"))

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd.Context())
	defer cancel()

	description := strings.Join(args, " ")
	codes := viper.GetStringSlice("classify.elements")
	count := viper.GetInt("classify.count")
	if count == 0 {
		count = len(codes)
	}

	catalog, store, err := loadCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	classifier := tariff.NewClassifier(catalog, newResolver(catalog), tariff.NewWarningEvaluator())

	result, err := classifier.Classify(tariff.ClassifyInput{
		Description:  description,
		ElementCount: count,
		ElementCodes: codes,
	})
	if err != nil {
		var selErr *tariff.InvalidSelectionError
		if errors.As(err, &selErr) {
			fmt.Println(cli.ErrorStyle.Render("Invalid element selection: " + selErr.Error()))
			for parent, variants := range selErr.Variants {
				fmt.Printf("  %s variants: %s\n", parent, strings.Join(variants, ", "))
			}
			return nil
		}
		return err
	}

	tier := result.Tier
	fmt.Println(cli.TitleStyle.Render("Selected tier"))
	fmt.Printf("  %s  %s  %s€  (%s)\n",
		cli.BoldStyle.Render(tier.Code), tier.Name, tier.Price.StringFixed(2), result.Method)

	if len(result.MatchedRules) > 0 {
		fmt.Println(cli.TitleStyle.Render("Matched rules"))
		for _, r := range result.MatchedRules {
			line := fmt.Sprintf("  %s: %s (keyword %q, priority %d)", r.TierCode, r.RuleName, r.Keyword, r.Priority)
			if r.RequiresProject {
				line += cli.WarningStyle.Render("  [requires project]")
			}
			fmt.Println(line)
		}
	}

	for _, w := range result.Warnings {
		style := cli.InfoStyle
		switch w.Severity {
		case "error":
			style = cli.ErrorStyle
		case "warning":
			style = cli.WarningStyle
		}
		fmt.Println(style.Render(fmt.Sprintf("  [%s] %s", w.Code, w.Message)))
	}

	if result.Coverage != nil && !result.Coverage.Valid {
		fmt.Println(cli.WarningStyle.Render(
			"  Tier does not cover: " + strings.Join(result.Coverage.MissingElements, ", ")))
	}

	return nil
}
