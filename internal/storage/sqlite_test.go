package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homologa-digital/homologa/internal/common"
	"github.com/homologa-digital/homologa/internal/model"
)

func intp(v int) *int { return &v }

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func newTestCategory(t *testing.T, store *SQLiteStorage) *model.Category {
	t.Helper()

	category := &model.Category{Slug: "motos", Name: "Motocicletas"}
	require.NoError(t, store.CreateCategory(context.Background(), category))
	require.NotZero(t, category.ID)
	return category
}

func TestCategoryLookup(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	category := newTestCategory(t, store)

	got, err := store.GetCategoryBySlug(ctx, "motos")
	require.NoError(t, err)
	assert.Equal(t, category.ID, got.ID)
	assert.Equal(t, "Motocicletas", got.Name)

	_, err = store.GetCategoryBySlug(ctx, "camiones")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)

	var nfErr *common.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Contains(t, nfErr.Alternatives, "motos")
}

func TestCreateCategoryDuplicateSlug(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	newTestCategory(t, store)

	err := store.CreateCategory(ctx, &model.Category{Slug: "motos", Name: "Motos otra vez"})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestCatalogRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	category := newTestCategory(t, store)

	parent := &model.Element{
		CategoryID:          category.ID,
		Code:                "ESCAPE",
		Name:                "Tubo de escape",
		Keywords:            []string{"escape", "tubo de escape"},
		Aliases:             []string{"silencioso"},
		MultiSelectKeywords: []string{"ambos"},
		QuestionHint:        "¿Completo o solo silencioso?",
		RequiredImages:      []string{"frontal", "lateral"},
		Fields: []model.ElementField{
			{
				Name: "tipo", Label: "Tipo", Type: model.FieldTypeSelect,
				Options: []string{"completo", "silencioso"}, Required: true,
			},
			{
				Name: "db", Label: "Decibelios", Type: model.FieldTypeNumber,
				ShowIf: &model.FieldCondition{Field: "tipo", Operator: model.OpEquals, Value: "completo"},
			},
		},
	}
	require.NoError(t, store.SaveElement(ctx, parent))
	require.NotZero(t, parent.ID)

	variant := &model.Element{
		CategoryID:      category.ID,
		Code:            "ESCAPE-COMPLETO",
		Name:            "Línea completa",
		ParentElementID: &parent.ID,
		VariantCode:     "completo",
	}
	require.NoError(t, store.SaveElement(ctx, variant))

	tier := &model.TariffTier{
		CategoryID:  category.ID,
		Code:        "T1",
		Name:        "Un elemento",
		Price:       decimal.NewFromFloat(49.90),
		MinElements: intp(1),
		MaxElements: intp(1),
		Rules: []model.ClassificationRule{
			{Name: "proyecto", AppliesIfAny: []string{"proyecto"}, Priority: 10, RequiresProject: true},
		},
	}
	require.NoError(t, store.SaveTier(ctx, tier))
	require.NotZero(t, tier.ID)

	inclusion := &model.TierInclusion{
		TierID:    tier.ID,
		ElementID: &parent.ID,
		MaxQty:    intp(1),
		Notes:     "solo homologados",
	}
	require.NoError(t, store.SaveInclusion(ctx, inclusion))

	warning := &model.Warning{
		Code:     "RUIDO",
		Message:  "el escape debe llevar marcado CE",
		Severity: model.SeverityWarning,
		TierID:   &tier.ID,
		Trigger:  model.TriggerConditions{ElementKeywords: []string{"escape"}},
	}
	require.NoError(t, store.SaveWarning(ctx, warning))

	catalog, err := store.LoadCatalog(ctx, "motos")
	require.NoError(t, err)

	gotParent, ok := catalog.ElementByCode("ESCAPE")
	require.True(t, ok)
	assert.Equal(t, parent.Keywords, gotParent.Keywords)
	assert.Equal(t, parent.Aliases, gotParent.Aliases)
	assert.Equal(t, parent.RequiredImages, gotParent.RequiredImages)
	require.Len(t, gotParent.Fields, 2)
	require.NotNil(t, gotParent.Fields[1].ShowIf)
	assert.Equal(t, model.OpEquals, gotParent.Fields[1].ShowIf.Operator)
	assert.True(t, catalog.HasVariants(gotParent.ID))

	gotTier, ok := catalog.TierByCode("T1")
	require.True(t, ok)
	assert.True(t, tier.Price.Equal(gotTier.Price), "price must survive the round trip exactly")
	require.Len(t, gotTier.Rules, 1)
	assert.True(t, gotTier.Rules[0].RequiresProject)

	incs := catalog.InclusionsOf(gotTier.ID)
	require.Len(t, incs, 1)
	assert.Equal(t, "solo homologados", incs[0].Notes)
	require.NotNil(t, incs[0].MaxQty)
	assert.Equal(t, 1, *incs[0].MaxQty)

	require.Len(t, catalog.Warnings, 1)
	assert.Equal(t, []string{"escape"}, catalog.Warnings[0].Trigger.ElementKeywords)
}

func TestReimportReplacesEdgesAndWarnings(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	category := newTestCategory(t, store)

	elem := &model.Element{CategoryID: category.ID, Code: "ESCAPE", Name: "Tubo de escape", Keywords: []string{"escape"}}
	require.NoError(t, store.SaveElement(ctx, elem))
	tier := &model.TariffTier{CategoryID: category.ID, Code: "T1", Name: "Un elemento", Price: decimal.NewFromFloat(49.90)}
	require.NoError(t, store.SaveTier(ctx, tier))

	// Two import rounds over the same data; the second clears before saving
	// the way the importer does.
	for round := 0; round < 2; round++ {
		require.NoError(t, store.DeleteInclusionsByCategory(ctx, category.ID))
		require.NoError(t, store.DeleteWarningsByCategory(ctx, category.ID))

		inclusion := &model.TierInclusion{TierID: tier.ID, ElementID: &elem.ID}
		require.NoError(t, store.SaveInclusion(ctx, inclusion))

		warning := &model.Warning{
			Code:     "RUIDO",
			Message:  "el escape debe llevar marcado CE",
			Severity: model.SeverityWarning,
			TierID:   &tier.ID,
			Trigger:  model.TriggerConditions{AlwaysShow: true},
		}
		require.NoError(t, store.SaveWarning(ctx, warning))
	}

	catalog, err := store.LoadCatalog(ctx, "motos")
	require.NoError(t, err)
	assert.Len(t, catalog.InclusionsOf(tier.ID), 1, "re-import must not duplicate inclusion edges")
	assert.Len(t, catalog.Warnings, 1, "re-import must not duplicate warnings")
}

func TestSaveElementUpsert(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	category := newTestCategory(t, store)

	elem := &model.Element{
		CategoryID: category.ID,
		Code:       "MANILLAR",
		Name:       "Manillar",
		Keywords:   []string{"manillar"},
	}
	require.NoError(t, store.SaveElement(ctx, elem))
	firstID := elem.ID

	elem.Name = "Manillar deportivo"
	require.NoError(t, store.SaveElement(ctx, elem))

	catalog, err := store.LoadCatalog(ctx, "motos")
	require.NoError(t, err)
	require.Len(t, catalog.Elements, 1)
	assert.Equal(t, "Manillar deportivo", catalog.Elements[0].Name)
	assert.Equal(t, firstID, catalog.Elements[0].ID)
}

func TestCaseRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	state := model.NewCaseState("case-1", []string{"ESCAPE"})
	state.Step = model.StepCollectImages
	state.CurrentElement = "ESCAPE"
	state.Phase = model.PhasePhotos
	state.RequiredImages = []string{"ESCAPE/frontal"}
	state.PendingImages = []string{"ESCAPE/frontal"}
	state.ElementData["ESCAPE"] = map[string]string{"marca": "Akrapovic"}

	require.NoError(t, store.SaveCase(ctx, state))

	got, err := store.GetCase(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, state, got)

	// Whole-record replace on conflict.
	state.Step = model.StepCompleted
	require.NoError(t, store.SaveCase(ctx, state))

	got, err = store.GetCase(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, model.StepCompleted, got.Step)
}

func TestListCasesByStep(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	first := model.NewCaseState("case-1", []string{"ESCAPE"})
	second := model.NewCaseState("case-2", []string{"MANILLAR"})
	second.Step = model.StepCompleted
	require.NoError(t, store.SaveCase(ctx, first))
	require.NoError(t, store.SaveCase(ctx, second))

	all, err := store.ListCases(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed := model.StepCompleted
	done, err := store.ListCases(ctx, &completed)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "case-2", done[0].CaseID)
}

func TestDeleteCase(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	state := model.NewCaseState("case-1", []string{"ESCAPE"})
	require.NoError(t, store.SaveCase(ctx, state))

	require.NoError(t, store.DeleteCase(ctx, "case-1"))

	_, err := store.GetCase(ctx, "case-1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = store.DeleteCase(ctx, "case-1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveCaseRejectsInvalidState(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	state := model.NewCaseState("case-1", []string{"ESCAPE"})
	state.Step = "LIMBO"

	assert.Error(t, store.SaveCase(ctx, state))
}
