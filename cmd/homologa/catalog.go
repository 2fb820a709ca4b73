package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/homologa-digital/homologa/internal/cli"
	"github.com/homologa-digital/homologa/internal/model"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the homologation catalog",
	}

	cmd.AddCommand(catalogImportCmd())
	cmd.AddCommand(catalogShowCmd())

	return cmd
}

// catalogFile is the on-disk import format. Cross-references use codes, not
// database ids, so a catalog file is portable between installations.
type catalogFile struct {
	Category struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	} `json:"category"`
	Elements []struct {
		model.Element
		ParentCode string `json:"parent_code,omitempty"`
	} `json:"elements"`
	Tiers []struct {
		model.TariffTier
		Price string `json:"price"`
	} `json:"tiers"`
	Inclusions []struct {
		TierCode         string `json:"tier_code"`
		ElementCode      string `json:"element_code,omitempty"`
		IncludedTierCode string `json:"included_tier_code,omitempty"`
		MinQty           *int   `json:"min_qty,omitempty"`
		MaxQty           *int   `json:"max_qty,omitempty"`
		Notes            string `json:"notes,omitempty"`
	} `json:"inclusions"`
	Warnings []struct {
		model.Warning
		TierCode       string `json:"tier_code,omitempty"`
		ElementCode    string `json:"element_code,omitempty"`
		CategoryScoped bool   `json:"category_scoped,omitempty"`
	} `json:"warnings"`
}

func catalogImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.json>",
		Short: "Import a catalog file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read catalog file: %w", err)
			}

			var file catalogFile
			if err := json.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("failed to parse catalog file: %w", err)
			}
			if file.Category.Slug == "" {
				return fmt.Errorf("catalog file has no category slug")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			category, err := store.GetCategoryBySlug(ctx, file.Category.Slug)
			if err != nil {
				category = &model.Category{Slug: file.Category.Slug, Name: file.Category.Name}
				if err := store.CreateCategory(ctx, category); err != nil {
					return err
				}
			}

			total := len(file.Elements) + len(file.Tiers) + len(file.Inclusions) + len(file.Warnings)
			bar := progressbar.NewOptions(total,
				progressbar.OptionSetDescription("importing "+file.Category.Slug),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			// Parents first so variants can reference their ids. Codes are the
			// stable keys; ids are assigned on insert.
			elementIDs := make(map[string]int64, len(file.Elements))
			for pass := 0; pass < 2; pass++ {
				for i := range file.Elements {
					entry := &file.Elements[i]
					isVariant := entry.ParentCode != ""
					if (pass == 0) == isVariant {
						continue
					}

					elem := entry.Element
					elem.CategoryID = category.ID
					if isVariant {
						parentID, ok := elementIDs[strings.ToUpper(entry.ParentCode)]
						if !ok {
							return fmt.Errorf("element %s references unknown parent %s", elem.Code, entry.ParentCode)
						}
						elem.ParentElementID = &parentID
					}

					if err := store.SaveElement(ctx, &elem); err != nil {
						return err
					}
					elementIDs[strings.ToUpper(elem.Code)] = elem.ID
					_ = bar.Add(1)
				}
			}

			tierIDs := make(map[string]int64, len(file.Tiers))
			for i := range file.Tiers {
				entry := &file.Tiers[i]
				tier := entry.TariffTier
				tier.CategoryID = category.ID
				tier.Price, err = decimal.NewFromString(entry.Price)
				if err != nil {
					return fmt.Errorf("tier %s: invalid price %q: %w", tier.Code, entry.Price, err)
				}

				if err := store.SaveTier(ctx, &tier); err != nil {
					return err
				}
				tierIDs[strings.ToUpper(tier.Code)] = tier.ID
				_ = bar.Add(1)
			}

			// Edges and warnings have no natural upsert key, so a re-import
			// replaces the category's set wholesale instead of appending.
			if err := store.DeleteInclusionsByCategory(ctx, category.ID); err != nil {
				return err
			}
			if err := store.DeleteWarningsByCategory(ctx, category.ID); err != nil {
				return err
			}

			for _, entry := range file.Inclusions {
				tierID, ok := tierIDs[strings.ToUpper(entry.TierCode)]
				if !ok {
					return fmt.Errorf("inclusion references unknown tier %s", entry.TierCode)
				}

				inc := model.TierInclusion{
					TierID: tierID,
					MinQty: entry.MinQty,
					MaxQty: entry.MaxQty,
					Notes:  entry.Notes,
				}
				switch {
				case entry.ElementCode != "":
					id, ok := elementIDs[strings.ToUpper(entry.ElementCode)]
					if !ok {
						return fmt.Errorf("inclusion references unknown element %s", entry.ElementCode)
					}
					inc.ElementID = &id
				case entry.IncludedTierCode != "":
					id, ok := tierIDs[strings.ToUpper(entry.IncludedTierCode)]
					if !ok {
						return fmt.Errorf("inclusion references unknown tier %s", entry.IncludedTierCode)
					}
					inc.IncludedTierID = &id
				}

				if err := store.SaveInclusion(ctx, &inc); err != nil {
					return err
				}
				_ = bar.Add(1)
			}

			for _, entry := range file.Warnings {
				warning := entry.Warning
				switch {
				case entry.TierCode != "":
					id, ok := tierIDs[strings.ToUpper(entry.TierCode)]
					if !ok {
						return fmt.Errorf("warning %s references unknown tier %s", warning.Code, entry.TierCode)
					}
					warning.TierID = &id
				case entry.ElementCode != "":
					id, ok := elementIDs[strings.ToUpper(entry.ElementCode)]
					if !ok {
						return fmt.Errorf("warning %s references unknown element %s", warning.Code, entry.ElementCode)
					}
					warning.ElementID = &id
				case entry.CategoryScoped:
					warning.CategoryID = &category.ID
				}

				if err := store.SaveWarning(ctx, &warning); err != nil {
					return err
				}
				_ = bar.Add(1)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"Imported %d elements, %d tiers, %d inclusions, %d warnings into %s",
				len(file.Elements), len(file.Tiers), len(file.Inclusions),
				len(file.Warnings), category.Slug)))

			return nil
		},
	}
}

func catalogShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the loaded catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()

			catalog, store, err := loadCatalog(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			fmt.Println(cli.TitleStyle.Render("Category: " + catalog.Category.Name))

			fmt.Println(cli.BoldStyle.Render("Elements"))
			for _, code := range catalog.ElementCodes() {
				elem, _ := catalog.ElementByCode(code)
				line := "  " + code + "  " + elem.Name
				if catalog.HasVariants(elem.ID) {
					line += cli.SubtleStyle.Render("  [has variants]")
				}
				fmt.Println(line)
			}

			fmt.Println(cli.BoldStyle.Render("Tiers"))
			for _, code := range catalog.TierCodes() {
				tier, _ := catalog.TierByCode(code)
				fmt.Printf("  %s  %s  %s EUR\n", code, tier.Name, tier.Price.StringFixed(2))
			}

			return nil
		},
	}
}
