package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ClassificationRule triggers a tier when any of its keywords appears in the
// customer's description. Rules are evaluated in priority order (higher first).
type ClassificationRule struct {
	Name            string   `json:"name"`
	AppliesIfAny    []string `json:"applies_if_any"`
	Priority        int      `json:"priority"`
	RequiresProject bool     `json:"requires_project"`
}

// TariffTier represents a pricing bracket covering elements under quantity constraints.
type TariffTier struct {
	MinElements *int                 `json:"min_elements,omitempty"`
	MaxElements *int                 `json:"max_elements,omitempty"`
	Code        string               `json:"code"`
	Name        string               `json:"name"`
	Rules       []ClassificationRule `json:"classification_rules,omitempty"`
	Price       decimal.Decimal      `json:"price"`
	ID          int64                `json:"id"`
	CategoryID  int64                `json:"category_id"`
	SortOrder   int                  `json:"sort_order"`
}

// InRange reports whether an element count falls inside the tier's count range.
// Unbounded ends are treated as open.
func (t *TariffTier) InRange(count int) bool {
	if t.MinElements != nil && count < *t.MinElements {
		return false
	}
	if t.MaxElements != nil && count > *t.MaxElements {
		return false
	}
	return true
}

// MaxRulePriority returns the highest priority among the tier's rules,
// or 0 when the tier has none (lowest precedence).
func (t *TariffTier) MaxRulePriority() int {
	max := 0
	for _, r := range t.Rules {
		if r.Priority > max {
			max = r.Priority
		}
	}
	return max
}

// Validate ensures the tier and its rules are well-formed. Rule tables are
// checked at load time so classification never sees a malformed rule.
func (t *TariffTier) Validate() error {
	if t.Code == "" {
		return fmt.Errorf("tier code is required")
	}
	if t.Price.IsNegative() {
		return fmt.Errorf("tier %s: price cannot be negative", t.Code)
	}
	if t.MinElements != nil && t.MaxElements != nil && *t.MinElements > *t.MaxElements {
		return fmt.Errorf("tier %s: min_elements exceeds max_elements", t.Code)
	}

	for i, r := range t.Rules {
		if len(r.AppliesIfAny) == 0 {
			return fmt.Errorf("tier %s: rule %d has no trigger keywords", t.Code, i)
		}
		if r.Priority < 0 {
			return fmt.Errorf("tier %s: rule %d has negative priority", t.Code, i)
		}
	}

	return nil
}

// TierInclusion is a graph edge stating that a tier covers an element directly
// or covers everything another tier covers. Exactly one of ElementID and
// IncludedTierID is set.
type TierInclusion struct {
	ElementID      *int64 `json:"element_id,omitempty"`
	IncludedTierID *int64 `json:"included_tier_id,omitempty"`
	MinQty         *int   `json:"min_qty,omitempty"`
	MaxQty         *int   `json:"max_qty,omitempty"`
	Notes          string `json:"notes,omitempty"`
	ID             int64  `json:"id"`
	TierID         int64  `json:"tier_id"`
}

// Validate ensures the inclusion references exactly one target.
func (inc *TierInclusion) Validate() error {
	if inc.ElementID == nil && inc.IncludedTierID == nil {
		return fmt.Errorf("inclusion %d: must reference an element or a tier", inc.ID)
	}
	if inc.ElementID != nil && inc.IncludedTierID != nil {
		return fmt.Errorf("inclusion %d: cannot reference both an element and a tier", inc.ID)
	}
	if inc.IncludedTierID != nil && *inc.IncludedTierID == inc.TierID {
		return fmt.Errorf("inclusion %d: tier cannot include itself", inc.ID)
	}
	if inc.MinQty != nil && inc.MaxQty != nil && *inc.MinQty > *inc.MaxQty {
		return fmt.Errorf("inclusion %d: min_qty exceeds max_qty", inc.ID)
	}
	return nil
}
