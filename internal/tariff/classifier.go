package tariff

import (
	"sort"
	"strings"

	"github.com/homologa-digital/homologa/internal/common"
	"github.com/homologa-digital/homologa/internal/model"
)

// ClassifyInput carries everything the classifier needs for one decision.
// ElementCodes are optional; when present they are validated against the
// catalog and checked against the selected tier's coverage.
type ClassifyInput struct {
	Description  string
	ElementCodes []string
	ElementCount int
}

// Classifier selects the tier that should price a set of matched elements.
type Classifier struct {
	catalog   *model.Catalog
	resolver  *Resolver
	evaluator *WarningEvaluator
}

// NewClassifier creates a classifier over one catalog snapshot.
func NewClassifier(catalog *model.Catalog, resolver *Resolver, evaluator *WarningEvaluator) *Classifier {
	return &Classifier{
		catalog:   catalog,
		resolver:  resolver,
		evaluator: evaluator,
	}
}

// Classify always returns exactly one tier. Keyword rules are tried in
// priority order; if none qualifies, the element-count range decides; if no
// range contains the count, the last tier is returned.
//
// TODO(product): confirm the last-tier fallback is intended business policy;
// it is preserved from the original pricing behavior.
func (c *Classifier) Classify(input ClassifyInput) (*Classification, error) {
	if err := c.validateCodes(input.ElementCodes); err != nil {
		return nil, err
	}

	if len(c.catalog.Tiers) == 0 {
		return nil, common.NewNotFoundError("tier", "any", nil)
	}

	normDesc := common.Normalize(input.Description)

	result := &Classification{}
	c.classifyByRules(result, normDesc, input.ElementCount)

	if result.Tier == nil {
		c.classifyByRange(result, input.ElementCount)
	}

	if c.evaluator != nil {
		result.Warnings = c.evaluator.Evaluate(c.catalog.Warnings, input.Description, result.Tier.ID, input.ElementCount)
	}

	if len(input.ElementCodes) > 0 && c.resolver != nil {
		coverage, err := c.resolver.Validate(result.Tier.ID, input.ElementCodes)
		if err != nil {
			return nil, err
		}
		result.Coverage = &coverage
	}

	return result, nil
}

// classifyByRules tries keyword-triggered rules across tiers, highest rule
// priority first. The first tier with a firing rule whose count range also
// holds is accepted; the search stops there.
func (c *Classifier) classifyByRules(result *Classification, normDesc string, elementCount int) {
	type candidate struct {
		tier     *model.TariffTier
		priority int
	}

	candidates := make([]candidate, 0, len(c.catalog.Tiers))
	for i := range c.catalog.Tiers {
		t := &c.catalog.Tiers[i]
		if len(t.Rules) == 0 {
			continue
		}
		candidates = append(candidates, candidate{tier: t, priority: t.MaxRulePriority()})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority > candidates[j].priority
	})

	for _, cand := range candidates {
		for _, rule := range cand.tier.Rules {
			keyword, fired := ruleFires(rule, normDesc)
			if !fired {
				continue
			}

			result.MatchedRules = append(result.MatchedRules, RuleMatch{
				TierCode:        cand.tier.Code,
				RuleName:        rule.Name,
				Keyword:         keyword,
				Priority:        rule.Priority,
				RequiresProject: rule.RequiresProject,
			})

			if result.Tier == nil && cand.tier.InRange(elementCount) {
				result.Tier = cand.tier
				result.Method = MethodRule
				return
			}
		}
	}
}

// classifyByRange picks the first tier whose count range contains the count,
// in natural tier order, falling back to the last tier so classification
// never returns "no tier".
func (c *Classifier) classifyByRange(result *Classification, elementCount int) {
	for i := range c.catalog.Tiers {
		t := &c.catalog.Tiers[i]
		if t.InRange(elementCount) {
			result.Tier = t
			result.Method = MethodRange
			return
		}
	}

	result.Tier = &c.catalog.Tiers[len(c.catalog.Tiers)-1]
	result.Method = MethodFallback
}

// validateCodes rejects unknown codes and variant parents. A parent element
// can never be priced directly; the caller must resolve a variant first.
func (c *Classifier) validateCodes(codes []string) error {
	if len(codes) == 0 {
		return nil
	}

	selErr := &InvalidSelectionError{Variants: make(map[string][]string)}

	for _, code := range codes {
		elem, ok := c.catalog.ElementByCode(code)
		if !ok {
			selErr.UnknownCodes = append(selErr.UnknownCodes, code)
			continue
		}
		if c.catalog.HasVariants(elem.ID) {
			selErr.ParentCodes = append(selErr.ParentCodes, elem.Code)
			for _, v := range c.catalog.VariantsOf(elem.ID) {
				selErr.Variants[elem.Code] = append(selErr.Variants[elem.Code], v.Code)
			}
		}
	}

	if len(selErr.UnknownCodes) > 0 || len(selErr.ParentCodes) > 0 {
		selErr.ValidCodes = c.pricableCodes()
		return selErr
	}

	return nil
}

// pricableCodes lists the codes a selection may legally contain: every
// element that is not a variant parent.
func (c *Classifier) pricableCodes() []string {
	codes := make([]string, 0, len(c.catalog.Elements))
	for i := range c.catalog.Elements {
		e := &c.catalog.Elements[i]
		if c.catalog.HasVariants(e.ID) {
			continue
		}
		codes = append(codes, e.Code)
	}
	return codes
}

func ruleFires(rule model.ClassificationRule, normDesc string) (string, bool) {
	for _, kw := range rule.AppliesIfAny {
		nk := common.Normalize(kw)
		if nk != "" && strings.Contains(normDesc, nk) {
			return nk, true
		}
	}
	return "", false
}
