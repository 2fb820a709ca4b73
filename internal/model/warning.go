package model

import "fmt"

// WarningSeverity classifies how strongly a warning should be presented.
type WarningSeverity string

const (
	// SeverityError marks blocking problems.
	SeverityError WarningSeverity = "error"
	// SeverityWarning marks advisories the user should read.
	SeverityWarning WarningSeverity = "warning"
	// SeverityInfo marks purely informational notes.
	SeverityInfo WarningSeverity = "info"
)

// TriggerConditions controls when a warning fires. A zero value means the
// warning has no explicit trigger; scoping rules then decide inclusion.
type TriggerConditions struct {
	Threshold       *int     `json:"threshold,omitempty"`
	ElementKeywords []string `json:"element_keywords,omitempty"`
	AlwaysShow      bool     `json:"always_show,omitempty"`
	OnExceedMax     bool     `json:"on_exceed_max,omitempty"`
	OnBelowMin      bool     `json:"on_below_min,omitempty"`
}

// IsZero reports whether no trigger condition is configured.
func (tc TriggerConditions) IsZero() bool {
	return !tc.AlwaysShow && !tc.OnExceedMax && !tc.OnBelowMin &&
		len(tc.ElementKeywords) == 0 && tc.Threshold == nil
}

// Warning is an advisory message scoped to a category, tier, element, or
// nothing (global). At most one scope reference may be set.
type Warning struct {
	CategoryID *int64            `json:"category_id,omitempty"`
	TierID     *int64            `json:"tier_id,omitempty"`
	ElementID  *int64            `json:"element_id,omitempty"`
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Severity   WarningSeverity   `json:"severity"`
	Trigger    TriggerConditions `json:"trigger_conditions"`
	ID         int64             `json:"id"`
	MatchedBy  string            `json:"matched_by,omitempty"`
}

// IsGlobal reports whether the warning has no scope reference at all.
func (w *Warning) IsGlobal() bool {
	return w.CategoryID == nil && w.TierID == nil && w.ElementID == nil
}

// Validate ensures the warning is well-formed and single-scoped.
func (w *Warning) Validate() error {
	if w.Code == "" {
		return fmt.Errorf("warning code is required")
	}
	if w.Message == "" {
		return fmt.Errorf("warning %s: message is required", w.Code)
	}

	switch w.Severity {
	case SeverityError, SeverityWarning, SeverityInfo:
	default:
		return fmt.Errorf("warning %s: unknown severity %q", w.Code, w.Severity)
	}

	scopes := 0
	if w.CategoryID != nil {
		scopes++
	}
	if w.TierID != nil {
		scopes++
	}
	if w.ElementID != nil {
		scopes++
	}
	if scopes > 1 {
		return fmt.Errorf("warning %s: at most one scope may be set", w.Code)
	}

	if (w.Trigger.OnExceedMax || w.Trigger.OnBelowMin) && w.Trigger.Threshold == nil {
		return fmt.Errorf("warning %s: threshold trigger needs a threshold value", w.Code)
	}

	return nil
}
