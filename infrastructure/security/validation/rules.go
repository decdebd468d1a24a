package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
)

// MinPasswordLength is the shortest accepted document password.
const MinPasswordLength = 8

// Rule defines a validation rule for a named field.
type Rule interface {
	// Name returns the rule name.
	Name() string

	// Validate checks value and returns a user-facing message on failure.
	Validate(field string, value any) error
}

// FieldCheck binds a value to the rules it must satisfy.
type FieldCheck struct {
	Field string
	Value any
	Rules []Rule
}

// Field creates a field check.
func Field(name string, value any, rules ...Rule) FieldCheck {
	return FieldCheck{Field: name, Value: value, Rules: rules}
}

// Check runs checks in order and returns the first failure.
func Check(checks ...FieldCheck) operation.ValidationResult {
	for _, c := range checks {
		for _, r := range c.Rules {
			if err := r.Validate(c.Field, c.Value); err != nil {
				return operation.Invalid(err.Error())
			}
		}
	}
	return operation.Valid()
}

// isMissing treats nil, empty strings, empty slices and nil pointers as absent.
func isMissing(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []int:
		return len(v) == 0
	case *int:
		return v == nil
	case *bool:
		return v == nil
	case *string:
		return v == nil || *v == ""
	default:
		return false
	}
}

// RequiredRule validates that a field is present and non-empty.
type RequiredRule struct{}

func (r *RequiredRule) Name() string { return "required" }

func (r *RequiredRule) Validate(field string, value any) error {
	if isMissing(value) {
		return fmt.Errorf("Required parameter missing: %s", field)
	}
	return nil
}

// Required creates a required rule.
func Required() Rule {
	return &RequiredRule{}
}

// RangeRule validates that an integer lies within an inclusive range.
// Absent values pass.
type RangeRule struct {
	min, max int
}

func (r *RangeRule) Name() string { return "range" }

func (r *RangeRule) Validate(field string, value any) error {
	var n int
	switch v := value.(type) {
	case int:
		n = v
	case *int:
		if v == nil {
			return nil
		}
		n = *v
	default:
		return nil
	}
	if n < r.min || n > r.max {
		return fmt.Errorf("%s must be between %d and %d", field, r.min, r.max)
	}
	return nil
}

// Range creates a range rule.
func Range(min, max int) Rule {
	return &RangeRule{min: min, max: max}
}

// MinimumRule validates an integer lower bound. Absent values pass.
type MinimumRule struct {
	min int
}

func (r *MinimumRule) Name() string { return "minimum" }

func (r *MinimumRule) Validate(field string, value any) error {
	var n int
	switch v := value.(type) {
	case int:
		n = v
	case *int:
		if v == nil {
			return nil
		}
		n = *v
	default:
		return nil
	}
	if n < r.min {
		return fmt.Errorf("%s must be at least %d", field, r.min)
	}
	return nil
}

// Minimum creates a lower bound rule.
func Minimum(min int) Rule {
	return &MinimumRule{min: min}
}

// AllowedValuesRule validates that a string is one of a fixed set.
// Empty strings pass so optional enums can share the rule.
type AllowedValuesRule struct {
	values []string
}

func (r *AllowedValuesRule) Name() string { return "allowed_values" }

func (r *AllowedValuesRule) Validate(field string, value any) error {
	str, ok := value.(string)
	if !ok || str == "" {
		return nil
	}
	for _, v := range r.values {
		if str == v {
			return nil
		}
	}
	return fmt.Errorf("Invalid %s: must be one of %s", field, strings.Join(r.values, ", "))
}

// AllowedValues creates an allowed values rule.
func AllowedValues(values ...string) Rule {
	return &AllowedValuesRule{values: values}
}

// MinItemsRule validates the length of a list.
type MinItemsRule struct {
	min int
}

func (r *MinItemsRule) Name() string { return "min_items" }

func (r *MinItemsRule) Validate(field string, value any) error {
	var n int
	switch v := value.(type) {
	case []string:
		n = len(v)
	case []int:
		n = len(v)
	default:
		return nil
	}
	if n < r.min {
		return fmt.Errorf("%s requires at least %d item(s)", field, r.min)
	}
	return nil
}

// MinItems creates a list length rule.
func MinItems(min int) Rule {
	return &MinItemsRule{min: min}
}

// PasswordRule validates document password strength. Empty values pass.
type PasswordRule struct{}

func (r *PasswordRule) Name() string { return "password" }

func (r *PasswordRule) Validate(field string, value any) error {
	str, ok := value.(string)
	if !ok || str == "" {
		return nil
	}
	if utf8.RuneCountInString(str) < MinPasswordLength {
		return fmt.Errorf("Password must be at least %d characters long", MinPasswordLength)
	}
	return nil
}

// Password creates a password strength rule.
func Password() Rule {
	return &PasswordRule{}
}

// PatternRule validates that a string matches a regular expression.
// Empty values pass.
type PatternRule struct {
	pattern *regexp.Regexp
	message string
}

func (r *PatternRule) Name() string { return "pattern" }

func (r *PatternRule) Validate(field string, value any) error {
	str, ok := value.(string)
	if !ok || str == "" {
		return nil
	}
	if !r.pattern.MatchString(str) {
		return fmt.Errorf("Invalid %s: %s", field, r.message)
	}
	return nil
}

// Pattern creates a pattern rule; message describes the expected format.
func Pattern(pattern, message string) Rule {
	return &PatternRule{pattern: regexp.MustCompile(pattern), message: message}
}

// EachPatternRule applies a pattern to every element of a string list.
type EachPatternRule struct {
	inner *PatternRule
}

func (r *EachPatternRule) Name() string { return "each_pattern" }

func (r *EachPatternRule) Validate(field string, value any) error {
	list, ok := value.([]string)
	if !ok {
		return nil
	}
	for _, s := range list {
		if s == "" {
			return fmt.Errorf("Invalid %s: empty entry", field)
		}
		if err := r.inner.Validate(field, s); err != nil {
			return err
		}
	}
	return nil
}

// EachPattern creates a per-element pattern rule.
func EachPattern(pattern, message string) Rule {
	return &EachPatternRule{inner: &PatternRule{pattern: regexp.MustCompile(pattern), message: message}}
}

// ValidatePasswordStrength checks a single password.
func ValidatePasswordStrength(password string) operation.ValidationResult {
	return Check(Field("password", password, Required(), Password()))
}
