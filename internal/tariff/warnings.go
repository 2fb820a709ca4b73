package tariff

import (
	"strings"

	"github.com/homologa-digital/homologa/internal/common"
	"github.com/homologa-digital/homologa/internal/model"
)

// WarningEvaluator selects the advisory messages applicable to a
// classification. Warnings are deduplicated by code, first occurrence wins,
// and tier-scoped warnings are processed before everything else.
type WarningEvaluator struct{}

// NewWarningEvaluator creates a warning evaluator.
func NewWarningEvaluator() *WarningEvaluator {
	return &WarningEvaluator{}
}

// Evaluate returns the warnings that apply to the selected tier and
// description. MatchedBy records the keyword that fired, when one did.
func (e *WarningEvaluator) Evaluate(warnings []model.Warning, description string, selectedTierID int64, elementCount int) []model.Warning {
	normDesc := common.Normalize(description)

	collected := make([]model.Warning, 0)
	seen := make(map[string]struct{})

	// Tier-scoped pass first so a tier-specific message wins the code over a
	// broader duplicate.
	for _, w := range warnings {
		if w.TierID == nil {
			continue
		}
		if *w.TierID != selectedTierID {
			continue
		}
		e.collect(&collected, seen, w, normDesc, elementCount, true)
	}

	for _, w := range warnings {
		if w.TierID != nil {
			continue
		}
		scoped := w.CategoryID != nil
		e.collect(&collected, seen, w, normDesc, elementCount, scoped)
	}

	return collected
}

// collect appends the warning if its trigger applies. Scoped warnings with no
// trigger are always shown; unscoped (global) warnings require an explicit
// trigger.
func (e *WarningEvaluator) collect(collected *[]model.Warning, seen map[string]struct{}, w model.Warning, normDesc string, elementCount int, alwaysWhenUntriggered bool) {
	if _, dup := seen[w.Code]; dup {
		return
	}

	if w.Trigger.IsZero() {
		if !alwaysWhenUntriggered {
			return
		}
		seen[w.Code] = struct{}{}
		*collected = append(*collected, w)
		return
	}

	matchedBy, fired := triggerFires(w.Trigger, normDesc, elementCount, w.ElementID != nil)
	if !fired {
		return
	}

	w.MatchedBy = matchedBy
	seen[w.Code] = struct{}{}
	*collected = append(*collected, w)
}

func triggerFires(tc model.TriggerConditions, normDesc string, elementCount int, elementScoped bool) (string, bool) {
	if tc.AlwaysShow {
		return "", true
	}

	for _, kw := range tc.ElementKeywords {
		nk := common.Normalize(kw)
		if nk != "" && strings.Contains(normDesc, nk) {
			return nk, true
		}
	}

	// Quantity thresholds only make sense for element-scoped warnings.
	if tc.Threshold != nil && elementScoped {
		if tc.OnExceedMax && elementCount > *tc.Threshold {
			return "", true
		}
		if tc.OnBelowMin && elementCount < *tc.Threshold {
			return "", true
		}
	}

	return "", false
}
