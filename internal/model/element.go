// Package model defines the domain types for the homologation engine.
package model

import "fmt"

// FieldType enumerates the supported element field types.
type FieldType string

const (
	// FieldTypeText is a free-text field.
	FieldTypeText FieldType = "text"
	// FieldTypeNumber is a numeric field with optional bounds.
	FieldTypeNumber FieldType = "number"
	// FieldTypeBoolean is a yes/no field.
	FieldTypeBoolean FieldType = "boolean"
	// FieldTypeSelect is a field restricted to an enumerated option list.
	FieldTypeSelect FieldType = "select"
)

// ConditionOperator enumerates the operators usable in a field visibility condition.
type ConditionOperator string

const (
	// OpEquals shows the field when the referenced sibling equals the condition value.
	OpEquals ConditionOperator = "equals"
	// OpNotEquals shows the field when the referenced sibling differs from the value.
	OpNotEquals ConditionOperator = "not_equals"
	// OpExists shows the field when the referenced sibling has been collected.
	OpExists ConditionOperator = "exists"
	// OpNotExists shows the field when the referenced sibling is absent.
	OpNotExists ConditionOperator = "not_exists"
)

// FieldCondition gates a field's visibility on an already-collected sibling value.
type FieldCondition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value,omitempty"`
}

// ElementField describes one structured data field collected for an element.
type ElementField struct {
	Min         *float64        `json:"min,omitempty"`
	Max         *float64        `json:"max,omitempty"`
	MinLength   *int            `json:"min_length,omitempty"`
	MaxLength   *int            `json:"max_length,omitempty"`
	ShowIf      *FieldCondition `json:"show_if,omitempty"`
	Name        string          `json:"name"`
	Label       string          `json:"label"`
	Type        FieldType       `json:"type"`
	Pattern     string          `json:"pattern,omitempty"`
	PatternHint string          `json:"pattern_hint,omitempty"`
	Options     []string        `json:"options,omitempty"`
	Required    bool            `json:"required"`
}

// Element represents a single homologable vehicle modification.
type Element struct {
	ParentElementID     *int64         `json:"parent_element_id,omitempty"`
	Code                string         `json:"code"`
	Name                string         `json:"name"`
	VariantCode         string         `json:"variant_code,omitempty"`
	QuestionHint        string         `json:"question_hint,omitempty"`
	Keywords            []string       `json:"keywords"`
	Aliases             []string       `json:"aliases,omitempty"`
	MultiSelectKeywords []string       `json:"multi_select_keywords,omitempty"`
	Fields              []ElementField `json:"fields,omitempty"`
	RequiredImages      []string       `json:"required_images,omitempty"`
	ID                  int64          `json:"id"`
	CategoryID          int64          `json:"category_id"`
}

// IsVariant reports whether the element is a variant of a parent element.
func (e *Element) IsVariant() bool {
	return e.ParentElementID != nil
}

// Validate ensures the element has valid data.
func (e *Element) Validate() error {
	if e.Code == "" {
		return fmt.Errorf("element code is required")
	}
	if e.Name == "" {
		return fmt.Errorf("element %s: name is required", e.Code)
	}
	if len(e.Keywords) == 0 && e.ParentElementID == nil {
		return fmt.Errorf("element %s: at least one keyword is required", e.Code)
	}

	for i, f := range e.Fields {
		if f.Name == "" {
			return fmt.Errorf("element %s: field %d has no name", e.Code, i)
		}
		switch f.Type {
		case FieldTypeText, FieldTypeNumber, FieldTypeBoolean, FieldTypeSelect:
		default:
			return fmt.Errorf("element %s: field %s has unknown type %q", e.Code, f.Name, f.Type)
		}
		if f.Type == FieldTypeSelect && len(f.Options) == 0 {
			return fmt.Errorf("element %s: select field %s needs options", e.Code, f.Name)
		}
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			return fmt.Errorf("element %s: field %s min exceeds max", e.Code, f.Name)
		}
		if f.ShowIf != nil {
			switch f.ShowIf.Operator {
			case OpEquals, OpNotEquals, OpExists, OpNotExists:
			default:
				return fmt.Errorf("element %s: field %s has unknown condition operator %q",
					e.Code, f.Name, f.ShowIf.Operator)
			}
		}
	}

	return nil
}

// RequiredFields returns the fields that must be collected given already-known
// sibling values. Conditionally-hidden fields are excluded.
func (e *Element) RequiredFields(collected map[string]string, visible func(ElementField, map[string]string) bool) []ElementField {
	required := make([]ElementField, 0, len(e.Fields))
	for _, f := range e.Fields {
		if !f.Required {
			continue
		}
		if f.ShowIf != nil && visible != nil && !visible(f, collected) {
			continue
		}
		required = append(required, f)
	}
	return required
}
