// Package tariff selects the pricing tier for a set of matched elements and
// evaluates the advisory warnings that apply to the selection.
package tariff

import (
	"fmt"
	"strings"

	"github.com/homologa-digital/homologa/internal/model"
)

// ResolvedElement is one entry of a tier's flattened element coverage.
type ResolvedElement struct {
	MinQty      *int
	MaxQty      *int
	ElementCode string
	Notes       string
}

// CoverageResult reports whether a tier's flattened coverage contains a
// requested set of element codes. Missing codes are informational; callers
// may proceed with a warning.
type CoverageResult struct {
	MissingElements []string
	Valid           bool
}

// RuleMatch records a classification rule that fired for a tier.
type RuleMatch struct {
	TierCode        string
	RuleName        string
	Keyword         string
	Priority        int
	RequiresProject bool
}

// ClassificationMethod records which stage of the classifier picked the tier.
type ClassificationMethod string

const (
	// MethodRule means a keyword-triggered rule selected the tier.
	MethodRule ClassificationMethod = "rule"
	// MethodRange means the element-count range selected the tier.
	MethodRange ClassificationMethod = "range"
	// MethodFallback means no rule or range matched and the last tier was used.
	MethodFallback ClassificationMethod = "fallback"
)

// Classification is the full outcome of classifying a description: exactly
// one tier, the rules that fired, applicable warnings, and an optional
// coverage check over the requested element codes.
type Classification struct {
	Tier         *model.TariffTier
	Coverage     *CoverageResult
	Method       ClassificationMethod
	MatchedRules []RuleMatch
	Warnings     []model.Warning
}

// InvalidSelectionError reports element codes that cannot be priced: unknown
// codes, or parents that require a variant choice first.
type InvalidSelectionError struct {
	UnknownCodes []string
	ParentCodes  []string
	ValidCodes   []string
	Variants     map[string][]string
}

func (e *InvalidSelectionError) Error() string {
	var parts []string
	if len(e.UnknownCodes) > 0 {
		parts = append(parts, fmt.Sprintf("unknown element codes: %s", strings.Join(e.UnknownCodes, ", ")))
	}
	if len(e.ParentCodes) > 0 {
		parts = append(parts, fmt.Sprintf("elements requiring a variant: %s", strings.Join(e.ParentCodes, ", ")))
	}
	return strings.Join(parts, "; ")
}
