package tariff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyByRule(t *testing.T) {
	catalog := testCatalog(t)
	c := NewClassifier(catalog, nil, nil)

	result, err := c.Classify(ClassifyInput{
		Description:  "reforma con proyecto de la moto entera",
		ElementCount: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "PROYECTO", result.Tier.Code)
	assert.Equal(t, MethodRule, result.Method)
	require.Len(t, result.MatchedRules, 1)
	assert.Equal(t, "proyecto", result.MatchedRules[0].Keyword)
	assert.True(t, result.MatchedRules[0].RequiresProject)
}

func TestClassifyRuleRejectedByRange(t *testing.T) {
	catalog := testCatalog(t)
	c := NewClassifier(catalog, nil, nil)

	// The rule keyword fires, but the project tier needs four elements; the
	// count range decides instead. The fired rule is still reported.
	result, err := c.Classify(ClassifyInput{
		Description:  "proyecto para el escape",
		ElementCount: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "T1", result.Tier.Code)
	assert.Equal(t, MethodRange, result.Method)
	require.Len(t, result.MatchedRules, 1)
	assert.Equal(t, "PROYECTO", result.MatchedRules[0].TierCode)
}

func TestClassifyByRange(t *testing.T) {
	catalog := testCatalog(t)
	c := NewClassifier(catalog, nil, nil)

	tests := []struct {
		name  string
		count int
		tier  string
	}{
		{name: "single element", count: 1, tier: "T1"},
		{name: "two elements", count: 2, tier: "T2"},
		{name: "three elements", count: 3, tier: "T2"},
		{name: "four elements", count: 4, tier: "PROYECTO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Classify(ClassifyInput{Description: "varios cambios", ElementCount: tt.count})
			require.NoError(t, err)
			assert.Equal(t, tt.tier, result.Tier.Code)
			assert.Equal(t, MethodRange, result.Method)
		})
	}
}

func TestClassifyFallbackNeverNone(t *testing.T) {
	catalog := testCatalog(t)
	c := NewClassifier(catalog, nil, nil)

	// No tier range contains these counts; the last tier still answers.
	for _, count := range []int{0, 7, 100} {
		result, err := c.Classify(ClassifyInput{Description: "cambios", ElementCount: count})
		require.NoError(t, err)
		require.NotNil(t, result.Tier)
		assert.Equal(t, "PROYECTO", result.Tier.Code)
		assert.Equal(t, MethodFallback, result.Method)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	catalog := testCatalog(t)
	c := NewClassifier(catalog, nil, nil)

	input := ClassifyInput{Description: "escape y manillar", ElementCount: 2}

	first, err := c.Classify(input)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := c.Classify(input)
		require.NoError(t, err)
		assert.Equal(t, first.Tier.Code, again.Tier.Code)
		assert.Equal(t, first.Method, again.Method)
	}
}

func TestClassifyRejectsUnknownCodes(t *testing.T) {
	catalog := testCatalog(t)
	c := NewClassifier(catalog, nil, nil)

	_, err := c.Classify(ClassifyInput{
		ElementCodes: []string{"ESCAPE", "NO-EXISTE"},
		ElementCount: 2,
	})

	var selErr *InvalidSelectionError
	require.ErrorAs(t, err, &selErr)
	assert.Equal(t, []string{"NO-EXISTE"}, selErr.UnknownCodes)
	assert.Contains(t, selErr.ValidCodes, "ESCAPE")
}

func TestClassifyRejectsVariantParents(t *testing.T) {
	catalog := testCatalog(t)
	c := NewClassifier(catalog, nil, nil)

	_, err := c.Classify(ClassifyInput{
		ElementCodes: []string{"SUSPENSION"},
		ElementCount: 1,
	})

	var selErr *InvalidSelectionError
	require.ErrorAs(t, err, &selErr)
	assert.Equal(t, []string{"SUSPENSION"}, selErr.ParentCodes)
	assert.ElementsMatch(t, []string{"SUSPENSION-DEL", "SUSPENSION-TRA"}, selErr.Variants["SUSPENSION"])
	assert.NotContains(t, selErr.ValidCodes, "SUSPENSION", "a variant parent is never pricable")
}

func TestClassifyReportsCoverage(t *testing.T) {
	catalog := testCatalog(t)
	c := NewClassifier(catalog, NewResolver(catalog, nil, 0), nil)

	result, err := c.Classify(ClassifyInput{
		ElementCodes: []string{"ESCAPE", "RETROVISORES"},
		ElementCount: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "T1", result.Tier.Code)
	require.NotNil(t, result.Coverage)
	assert.False(t, result.Coverage.Valid)
	assert.Equal(t, []string{"RETROVISORES"}, result.Coverage.MissingElements)
}
