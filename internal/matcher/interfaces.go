// Package matcher scores catalog elements against free-text descriptions and
// resolves variant follow-up answers.
package matcher

import "github.com/homologa-digital/homologa/internal/model"

// ElementMatch pairs an element with its cumulative match score.
type ElementMatch struct {
	Element *model.Element
	Signals []string
	Score   float64
}

// MatchResult is the outcome of matching a description against a catalog.
type MatchResult struct {
	Matches        []ElementMatch
	UnmatchedTerms []string
}

// ResolutionMode describes how a variant reply resolved.
type ResolutionMode string

const (
	// ModeSingle means exactly one variant was selected.
	ModeSingle ResolutionMode = "single"
	// ModeMultiSelect means the reply asked for all variants.
	ModeMultiSelect ResolutionMode = "multi_select"
	// ModeAmbiguous means to re-ask; nothing may be picked silently.
	ModeAmbiguous ResolutionMode = "ambiguous"
)

// VariantResolution is the outcome of resolving a user's variant reply.
// Confirm is set when the pick is plausible but should be confirmed before
// pricing.
type VariantResolution struct {
	Mode       ResolutionMode
	Question   string
	Codes      []string
	Confidence float64
	Confirm    bool
}
