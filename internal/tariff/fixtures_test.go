package tariff

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/homologa-digital/homologa/internal/model"
)

func intp(v int) *int     { return &v }
func i64p(v int64) *int64 { return &v }

// testCatalog builds the shared classification fixture: two count-ranged
// tiers, a rule-triggered project tier, and a variant parent that can never
// be priced directly.
func testCatalog(t *testing.T) *model.Catalog {
	t.Helper()

	elements := []model.Element{
		{ID: 1, Code: "ESCAPE", Name: "Tubo de escape", Keywords: []string{"escape"}},
		{ID: 2, Code: "MANILLAR", Name: "Manillar", Keywords: []string{"manillar"}},
		{ID: 3, Code: "INTERMITENTES", Name: "Intermitentes", Keywords: []string{"intermitentes"}},
		{ID: 4, Code: "RETROVISORES", Name: "Retrovisores", Keywords: []string{"retrovisores"}},
		{ID: 10, Code: "SUSPENSION", Name: "Suspensión", Keywords: []string{"suspension"}},
		{ID: 11, Code: "SUSPENSION-DEL", Name: "Suspensión delantera", ParentElementID: i64p(10), VariantCode: "delantera"},
		{ID: 12, Code: "SUSPENSION-TRA", Name: "Suspensión trasera", ParentElementID: i64p(10), VariantCode: "trasera"},
	}

	tiers := []model.TariffTier{
		{
			ID: 10, Code: "T1", Name: "Un elemento",
			Price:       decimal.NewFromFloat(49.90),
			MinElements: intp(1), MaxElements: intp(1),
		},
		{
			ID: 20, Code: "T2", Name: "Dos o tres elementos",
			Price:       decimal.NewFromFloat(89.90),
			MinElements: intp(2), MaxElements: intp(3),
		},
		{
			ID: 30, Code: "PROYECTO", Name: "Reforma con proyecto",
			Price:       decimal.NewFromFloat(249.00),
			MinElements: intp(4), MaxElements: intp(6),
			Rules: []model.ClassificationRule{
				{
					Name:            "reforma con proyecto",
					AppliesIfAny:    []string{"proyecto", "reforma importante"},
					Priority:        10,
					RequiresProject: true,
				},
			},
		},
	}

	inclusions := []model.TierInclusion{
		{ID: 1, TierID: 10, ElementID: i64p(1)},
		{ID: 2, TierID: 10, ElementID: i64p(2), MaxQty: intp(1)},
		{ID: 3, TierID: 20, ElementID: i64p(3), Notes: "solo homologados"},
		{ID: 4, TierID: 20, IncludedTierID: i64p(10)},
	}

	catalog, err := model.NewCatalog(
		model.Category{ID: 1, Slug: "motos", Name: "Motocicletas"},
		elements, tiers, inclusions, nil,
	)
	require.NoError(t, err)
	return catalog
}
