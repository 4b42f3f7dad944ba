package customfield

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Pre-compiled regex for email validation
var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Result is the outcome of validating one candidate value.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate checks a candidate value against a field definition. Pure
// function: no I/O, no side effects.
//
// Required-ness is checked first and short-circuits: an absent value on a
// required field yields exactly one error, and type checks are skipped since
// there is nothing to type-check. For present values, type-specific checks
// and custom constraint checks all run and their errors accumulate, so the
// caller receives every failure in one pass.
func Validate(def *FieldDefinition, value any) Result {
	var errs []string

	if isAbsent(value) {
		if def.IsRequired {
			errs = append(errs, fmt.Sprintf("%s is required", def.FieldLabel))
		}
		return result(errs)
	}

	switch def.FieldType {
	case TypeEmail:
		if s, ok := value.(string); !ok || !emailRE.MatchString(s) {
			errs = append(errs, fmt.Sprintf("%s must be a valid email address", def.FieldLabel))
		}

	case TypeURL:
		s, ok := value.(string)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s must be a valid URL", def.FieldLabel))
			break
		}
		u, err := url.Parse(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("%s must be a valid URL", def.FieldLabel))
		}

	case TypeNumber:
		if _, ok := asDecimal(value); !ok {
			errs = append(errs, fmt.Sprintf("%s must be a number", def.FieldLabel))
		}

	case TypeSelect, TypeRadio:
		if !def.FieldOptions.Contains(stringify(value)) {
			errs = append(errs, fmt.Sprintf("%s must be one of: %s",
				def.FieldLabel, strings.Join(def.FieldOptions.Values(), ", ")))
		}

	case TypeMultiselect:
		elems, ok := asStringSlice(value)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s must be an array of values", def.FieldLabel))
			break
		}
		var invalid []string
		for _, elem := range elems {
			if !def.FieldOptions.Contains(elem) {
				invalid = append(invalid, elem)
			}
		}
		if len(invalid) > 0 {
			errs = append(errs, fmt.Sprintf("%s contains invalid values: %s",
				def.FieldLabel, strings.Join(invalid, ", ")))
		}
	}

	errs = append(errs, checkRules(def, value)...)

	return result(errs)
}

// checkRules applies the custom constraints from ValidationRules,
// independent of field type.
func checkRules(def *FieldDefinition, value any) []string {
	rules := def.ValidationRules
	if rules == nil {
		return nil
	}

	var errs []string

	num, isNum := asDecimal(value)
	if min, ok := rules.GetDecimal("min"); ok && isNum && num.LessThan(min) {
		errs = append(errs, fmt.Sprintf("%s must be at least %s", def.FieldLabel, min.String()))
	}
	if max, ok := rules.GetDecimal("max"); ok && isNum && num.GreaterThan(max) {
		errs = append(errs, fmt.Sprintf("%s must be at most %s", def.FieldLabel, max.String()))
	}

	if pattern := rules.GetString("pattern"); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s has an invalid validation pattern", def.FieldLabel))
		} else if !re.MatchString(stringify(value)) {
			errs = append(errs, fmt.Sprintf("%s does not match the required pattern", def.FieldLabel))
		}
	}

	return errs
}

func result(errs []string) Result {
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// isAbsent reports whether the value counts as "not supplied":
// nil or empty string. Empty arrays are present values and still
// get type-checked.
func isAbsent(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok && s == "" {
		return true
	}
	return false
}

// asDecimal converts a candidate value to decimal without float
// precision loss where possible.
func asDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(v)
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	}
	return decimal.Zero, false
}

// asStringSlice converts an array payload to its element strings.
func asStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		elems := make([]string, 0, len(v))
		for _, e := range v {
			elems = append(elems, stringify(e))
		}
		return elems, true
	}
	return nil, false
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return fmt.Sprintf("%v", value)
}
