package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/homologa-digital/homologa/internal/model"
)

func variantFixture() (*model.Element, []*model.Element) {
	parentID := int64(1)
	parent := &model.Element{
		ID:                  parentID,
		Code:                "ESCAPE",
		Name:                "Tubo de escape",
		QuestionHint:        "¿Escape completo o solo silencioso?",
		MultiSelectKeywords: []string{"ambos", "los dos"},
	}
	variants := []*model.Element{
		{
			ID:              2,
			Code:            "ESCAPE-COMPLETO",
			ParentElementID: &parentID,
			VariantCode:     "completo",
			Name:            "Linea completa deportiva",
			Keywords:        []string{"linea completa"},
		},
		{
			ID:              3,
			Code:            "ESCAPE-SILENCIOSO",
			ParentElementID: &parentID,
			VariantCode:     "silencioso",
			Name:            "Solo silencioso",
			Keywords:        []string{"silencioso"},
		},
	}
	return parent, variants
}

func TestVariantMultiSelect(t *testing.T) {
	parent, variants := variantFixture()
	r := NewVariantResolver()

	res := r.Resolve(parent, variants, "quiero los dos")

	assert.Equal(t, ModeMultiSelect, res.Mode)
	assert.ElementsMatch(t, []string{"ESCAPE-COMPLETO", "ESCAPE-SILENCIOSO"}, res.Codes)
	assert.InDelta(t, 1.0, res.Confidence, 0.001)
}

func TestVariantResolvedConfidently(t *testing.T) {
	parent, variants := variantFixture()
	r := NewVariantResolver()

	res := r.Resolve(parent, variants, "el silencioso")

	assert.Equal(t, ModeSingle, res.Mode)
	assert.Equal(t, []string{"ESCAPE-SILENCIOSO"}, res.Codes)
	assert.False(t, res.Confirm)
	assert.GreaterOrEqual(t, res.Confidence, variantResolvedThreshold)
}

func TestVariantNeedsConfirmation(t *testing.T) {
	parent, variants := variantFixture()
	r := NewVariantResolver()

	// Keyword overlaps without a verbatim phrase hit: plausible but weak.
	res := r.Resolve(parent, variants, "completa linea")

	assert.Equal(t, ModeSingle, res.Mode)
	assert.Equal(t, []string{"ESCAPE-COMPLETO"}, res.Codes)
	assert.True(t, res.Confirm)
	assert.Less(t, res.Confidence, variantResolvedThreshold)
	assert.GreaterOrEqual(t, res.Confidence, variantPickThreshold)
}

func TestVariantAmbiguousNeverPicks(t *testing.T) {
	parent, variants := variantFixture()
	r := NewVariantResolver()

	tests := []struct {
		name  string
		reply string
	}{
		{name: "no signal at all", reply: "no lo se"},
		{name: "unrelated words", reply: "algo con cromados"},
		{name: "empty reply", reply: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Resolve(parent, variants, tt.reply)

			assert.Equal(t, ModeAmbiguous, res.Mode)
			assert.Empty(t, res.Codes)
			assert.Equal(t, parent.QuestionHint, res.Question)
		})
	}
}

func TestVariantCodeToken(t *testing.T) {
	parent, variants := variantFixture()
	r := NewVariantResolver()

	res := r.Resolve(parent, variants, "completo")

	assert.Equal(t, ModeSingle, res.Mode)
	assert.Equal(t, []string{"ESCAPE-COMPLETO"}, res.Codes)
}
