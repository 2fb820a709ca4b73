package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/homologa-digital/homologa/internal/model"
)

// booleanTokens are the accepted spellings for boolean fields.
var booleanTokens = map[string]struct{}{
	"si": {}, "sí": {}, "no": {},
	"yes": {}, "true": {}, "false": {},
	"1": {}, "0": {},
}

// FieldError describes one field that failed validation, by name, so callers
// can report exactly what is missing or invalid.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// FieldVisible evaluates a field's show_if condition against the values
// already collected for sibling fields. Fields without a condition are
// always visible.
func FieldVisible(field model.ElementField, collected map[string]string) bool {
	cond := field.ShowIf
	if cond == nil {
		return true
	}

	value, present := collected[cond.Field]

	switch cond.Operator {
	case model.OpEquals:
		return present && strings.EqualFold(strings.TrimSpace(value), cond.Value)
	case model.OpNotEquals:
		return present && !strings.EqualFold(strings.TrimSpace(value), cond.Value)
	case model.OpExists:
		return present && strings.TrimSpace(value) != ""
	case model.OpNotExists:
		return !present || strings.TrimSpace(value) == ""
	default:
		return true
	}
}

// ValidateField checks a single value against its field definition.
func ValidateField(field model.ElementField, value string) error {
	trimmed := strings.TrimSpace(value)

	if trimmed == "" {
		if field.Required {
			return FieldError{Field: field.Name, Reason: "required value is missing"}
		}
		return nil
	}

	switch field.Type {
	case model.FieldTypeNumber:
		return validateNumber(field, trimmed)
	case model.FieldTypeBoolean:
		return validateBoolean(field, trimmed)
	case model.FieldTypeSelect:
		return validateSelect(field, trimmed)
	case model.FieldTypeText:
		return validateText(field, trimmed)
	default:
		return FieldError{Field: field.Name, Reason: fmt.Sprintf("unknown field type %q", field.Type)}
	}
}

// ValidateFields checks all visible fields of an element against collected
// values. Hidden fields are skipped entirely; required-but-absent visible
// fields are reported by name.
func ValidateFields(fields []model.ElementField, values map[string]string) []FieldError {
	var failures []FieldError

	for _, field := range fields {
		if !FieldVisible(field, values) {
			continue
		}

		value, present := values[field.Name]
		if !present {
			if field.Required {
				failures = append(failures, FieldError{Field: field.Name, Reason: "required value is missing"})
			}
			continue
		}

		if err := ValidateField(field, value); err != nil {
			var fe FieldError
			if errors.As(err, &fe) {
				failures = append(failures, fe)
			} else {
				failures = append(failures, FieldError{Field: field.Name, Reason: err.Error()})
			}
		}
	}

	return failures
}

func validateNumber(field model.ElementField, value string) error {
	// Accept the decimal comma customers actually type.
	parsed, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
	if err != nil {
		return FieldError{Field: field.Name, Reason: fmt.Sprintf("%q is not a number", value)}
	}

	if field.Min != nil && parsed < *field.Min {
		return FieldError{Field: field.Name, Reason: fmt.Sprintf("value %v is below the minimum %v", parsed, *field.Min)}
	}
	if field.Max != nil && parsed > *field.Max {
		return FieldError{Field: field.Name, Reason: fmt.Sprintf("value %v exceeds the maximum %v", parsed, *field.Max)}
	}

	return nil
}

func validateBoolean(field model.ElementField, value string) error {
	if _, ok := booleanTokens[strings.ToLower(value)]; !ok {
		return FieldError{Field: field.Name, Reason: fmt.Sprintf("%q is not a yes/no value", value)}
	}
	return nil
}

func validateSelect(field model.ElementField, value string) error {
	for _, opt := range field.Options {
		if strings.EqualFold(opt, value) {
			return nil
		}
	}
	return FieldError{
		Field:  field.Name,
		Reason: fmt.Sprintf("%q is not one of: %s", value, strings.Join(field.Options, ", ")),
	}
}

func validateText(field model.ElementField, value string) error {
	length := len([]rune(value))
	if field.MinLength != nil && length < *field.MinLength {
		return FieldError{Field: field.Name, Reason: fmt.Sprintf("must be at least %d characters", *field.MinLength)}
	}
	if field.MaxLength != nil && length > *field.MaxLength {
		return FieldError{Field: field.Name, Reason: fmt.Sprintf("must be at most %d characters", *field.MaxLength)}
	}

	if field.Pattern != "" {
		re, err := regexp.Compile(field.Pattern)
		if err != nil {
			return FieldError{Field: field.Name, Reason: "field pattern is invalid"}
		}
		if !re.MatchString(value) {
			hint := field.PatternHint
			if hint == "" {
				hint = "value does not match the expected format"
			}
			return FieldError{Field: field.Name, Reason: hint}
		}
	}

	return nil
}
