package matcher

import (
	"strings"

	"github.com/homologa-digital/homologa/internal/common"
	"github.com/homologa-digital/homologa/internal/model"
)

// Variant scoring weights and confidence bands.
const (
	variantKeywordScore      = 0.8
	variantKeywordPartial    = 0.4
	variantCodeScore         = 0.7
	variantNameScore         = 0.3
	variantNameMinWordLen    = 4
	variantPickThreshold     = 0.5
	variantResolvedThreshold = 0.7
)

// VariantResolver resolves a customer's follow-up answer to one or more
// specific variants of a parent element.
type VariantResolver struct{}

// NewVariantResolver creates a new variant resolver.
func NewVariantResolver() *VariantResolver {
	return &VariantResolver{}
}

// Resolve maps a reply onto the parent's variants. A reply containing one of
// the parent's multi-select keywords selects every variant. Otherwise the
// highest-scoring variant above the pick threshold wins; below it the result
// is ambiguous and the caller must re-ask, never pick silently.
func (r *VariantResolver) Resolve(parent *model.Element, variants []*model.Element, reply string) VariantResolution {
	normReply := common.Normalize(reply)
	tokens := common.Tokenize(reply)

	for _, msk := range parent.MultiSelectKeywords {
		nk := common.Normalize(msk)
		if nk != "" && strings.Contains(normReply, nk) {
			codes := make([]string, 0, len(variants))
			for _, v := range variants {
				codes = append(codes, v.Code)
			}
			return VariantResolution{
				Mode:       ModeMultiSelect,
				Codes:      codes,
				Confidence: 1.0,
			}
		}
	}

	var best *model.Element
	var bestScore float64

	for _, v := range variants {
		score := scoreVariant(v, normReply, tokens)
		if score > bestScore {
			bestScore = score
			best = v
		}
	}

	if best == nil || bestScore < variantPickThreshold {
		return VariantResolution{
			Mode:       ModeAmbiguous,
			Confidence: bestScore,
			Question:   parent.QuestionHint,
		}
	}

	return VariantResolution{
		Mode:       ModeSingle,
		Codes:      []string{best.Code},
		Confidence: bestScore,
		Confirm:    bestScore < variantResolvedThreshold,
	}
}

func scoreVariant(v *model.Element, normReply string, tokens []string) float64 {
	var score float64

	for _, kw := range v.Keywords {
		nk := common.Normalize(kw)
		if nk == "" {
			continue
		}

		if strings.Contains(nk, " ") {
			if strings.Contains(normReply, nk) {
				score += variantKeywordScore
			} else if overlap := common.WordOverlap(tokens, strings.Fields(nk)); overlap > 0 {
				score += variantKeywordPartial * overlap
			}
			continue
		}

		if hasToken(tokens, nk) {
			score += variantKeywordScore
		}
	}

	if code := common.Normalize(v.VariantCode); code != "" && hasToken(tokens, code) {
		score += variantCodeScore
	}

	nameWords := common.Tokenize(v.Name)
	longWords := make([]string, 0, len(nameWords))
	for _, w := range nameWords {
		if len([]rune(w)) >= variantNameMinWordLen {
			longWords = append(longWords, w)
		}
	}
	if len(longWords) > 0 {
		if ratio := common.WordOverlap(tokens, longWords); ratio > 0 {
			score += variantNameScore * ratio
		}
	}

	return score
}
