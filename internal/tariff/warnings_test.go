package tariff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homologa-digital/homologa/internal/model"
)

func warningCodes(warnings []model.Warning) []string {
	codes := make([]string, 0, len(warnings))
	for _, w := range warnings {
		codes = append(codes, w.Code)
	}
	return codes
}

func TestEvaluateTierScopePrecedence(t *testing.T) {
	e := NewWarningEvaluator()

	warnings := []model.Warning{
		{ID: 1, Code: "RUIDO", Message: "categoría", Severity: model.SeverityInfo, CategoryID: i64p(1)},
		{ID: 2, Code: "RUIDO", Message: "tier", Severity: model.SeverityWarning, TierID: i64p(20)},
	}

	got := e.Evaluate(warnings, "", 20, 2)

	require.Len(t, got, 1)
	assert.Equal(t, "tier", got[0].Message, "the tier-scoped message wins the code")
}

func TestEvaluateScopeRules(t *testing.T) {
	e := NewWarningEvaluator()

	warnings := []model.Warning{
		// Untriggered, category-scoped: always included.
		{ID: 1, Code: "CAT", Message: "m", Severity: model.SeverityInfo, CategoryID: i64p(1)},
		// Untriggered, scoped to the selected tier: always included.
		{ID: 2, Code: "TIER-SEL", Message: "m", Severity: model.SeverityInfo, TierID: i64p(20)},
		// Scoped to a different tier: never included.
		{ID: 3, Code: "TIER-OTRO", Message: "m", Severity: model.SeverityInfo, TierID: i64p(99)},
		// Untriggered global: excluded; a global warning needs a trigger.
		{ID: 4, Code: "GLOBAL", Message: "m", Severity: model.SeverityInfo},
		// Triggered global: included when the trigger fires.
		{
			ID: 5, Code: "GLOBAL-KW", Message: "m", Severity: model.SeverityWarning,
			Trigger: model.TriggerConditions{ElementKeywords: []string{"escape"}},
		},
	}

	got := e.Evaluate(warnings, "cambio de escape", 20, 1)

	assert.Equal(t, []string{"TIER-SEL", "CAT", "GLOBAL-KW"}, warningCodes(got))
}

func TestEvaluateKeywordTrigger(t *testing.T) {
	e := NewWarningEvaluator()

	warnings := []model.Warning{
		{
			ID: 1, Code: "DB", Message: "el escape debe llevar marcado CE",
			Severity: model.SeverityWarning,
			Trigger:  model.TriggerConditions{ElementKeywords: []string{"escape", "silencioso"}},
		},
	}

	t.Run("fires and records the keyword", func(t *testing.T) {
		got := e.Evaluate(warnings, "quiero homologar el Escape", 1, 1)
		require.Len(t, got, 1)
		assert.Equal(t, "escape", got[0].MatchedBy)
	})

	t.Run("silent without the keyword", func(t *testing.T) {
		got := e.Evaluate(warnings, "cambio de manillar", 1, 1)
		assert.Empty(t, got)
	})
}

func TestEvaluateThresholdTriggers(t *testing.T) {
	e := NewWarningEvaluator()

	warnings := []model.Warning{
		{
			ID: 1, Code: "MUCHOS", Message: "demasiados elementos",
			Severity: model.SeverityWarning, ElementID: i64p(1),
			Trigger: model.TriggerConditions{Threshold: intp(3), OnExceedMax: true},
		},
		{
			ID: 2, Code: "POCOS", Message: "menos del mínimo",
			Severity: model.SeverityInfo, ElementID: i64p(2),
			Trigger: model.TriggerConditions{Threshold: intp(1), OnBelowMin: true},
		},
		// Thresholds never fire outside element scope.
		{
			ID: 3, Code: "GLOBAL", Message: "umbral sin elemento",
			Severity: model.SeverityWarning,
			Trigger:  model.TriggerConditions{Threshold: intp(3), OnExceedMax: true},
		},
	}

	tests := []struct {
		name  string
		count int
		want  []string
	}{
		{name: "above max", count: 4, want: []string{"MUCHOS"}},
		{name: "at max", count: 3, want: nil},
		{name: "below min", count: 0, want: []string{"POCOS"}},
		{name: "in range", count: 2, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(warnings, "", 1, tt.count)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, warningCodes(got))
		})
	}
}

func TestEvaluateAlwaysShow(t *testing.T) {
	e := NewWarningEvaluator()

	warnings := []model.Warning{
		{
			ID: 1, Code: "SIEMPRE", Message: "m", Severity: model.SeverityInfo,
			Trigger: model.TriggerConditions{AlwaysShow: true},
		},
	}

	got := e.Evaluate(warnings, "", 1, 0)
	assert.Equal(t, []string{"SIEMPRE"}, warningCodes(got))
}

func TestEvaluateDedupByCode(t *testing.T) {
	e := NewWarningEvaluator()

	warnings := []model.Warning{
		{
			ID: 1, Code: "DUP", Message: "primera", Severity: model.SeverityInfo,
			Trigger: model.TriggerConditions{AlwaysShow: true},
		},
		{
			ID: 2, Code: "DUP", Message: "segunda", Severity: model.SeverityInfo,
			Trigger: model.TriggerConditions{AlwaysShow: true},
		},
	}

	got := e.Evaluate(warnings, "", 1, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "primera", got[0].Message)
}
