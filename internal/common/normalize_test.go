package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "ESCAPE", want: "escape"},
		{name: "strips accents", input: "Dirección", want: "direccion"},
		{name: "trims whitespace", input: "  manillar  ", want: "manillar"},
		{name: "keeps enye folded", input: "año", want: "ano"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "splits on punctuation",
			input: "escape, manillar y intermitentes!",
			want:  []string{"escape", "manillar", "y", "intermitentes"},
		},
		{
			name:  "normalizes accents",
			input: "Suspensión trasera",
			want:  []string{"suspension", "trasera"},
		},
		{
			name:  "keeps digits",
			input: "tubo 50mm",
			want:  []string{"tubo", "50mm"},
		},
		{name: "empty", input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWordOverlap(t *testing.T) {
	tokens := []string{"quiero", "cambiar", "el", "tubo", "de", "escape"}

	tests := []struct {
		name   string
		phrase []string
		want   float64
	}{
		{name: "full overlap", phrase: []string{"tubo", "de", "escape"}, want: 1.0},
		{name: "partial overlap", phrase: []string{"tubo", "trasero"}, want: 0.5},
		{name: "no overlap", phrase: []string{"manillar"}, want: 0.0},
		{name: "empty phrase", phrase: nil, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WordOverlap(tokens, tt.phrase), 0.001)
		})
	}
}

func TestTrigramSimilarity(t *testing.T) {
	t.Run("identical words", func(t *testing.T) {
		assert.InDelta(t, 1.0, TrigramSimilarity("escape", "escape"), 0.001)
	})

	t.Run("close typo scores high", func(t *testing.T) {
		sim := TrigramSimilarity("escape", "escappe")
		assert.Greater(t, sim, 0.5)
	})

	t.Run("unrelated words score low", func(t *testing.T) {
		sim := TrigramSimilarity("escape", "manillar")
		assert.Less(t, sim, 0.2)
	})

	t.Run("symmetry", func(t *testing.T) {
		assert.Equal(t, TrigramSimilarity("foco", "faro"), TrigramSimilarity("faro", "foco"))
	})
}
