package customfield

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/entity"
)

func textDef(name string, required bool) *FieldDefinition {
	return &FieldDefinition{
		FieldName:  name,
		FieldLabel: name,
		FieldType:  TypeText,
		IsRequired: required,
	}
}

func selectDef(name string, options ...string) *FieldDefinition {
	list := make(OptionList, 0, len(options))
	for _, o := range options {
		list = append(list, FieldOption{Value: o, Label: o})
	}
	return &FieldDefinition{
		FieldName:    name,
		FieldLabel:   name,
		FieldType:    TypeSelect,
		FieldOptions: list,
	}
}

func TestValidate_Required(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{"nil value", nil, true},
		{"empty string", "", true},
		{"present value", "hello", false},
		{"zero number is present", json.Number("0"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(textDef("nickname", true), tt.value)
			assert.Equal(t, !tt.wantErr, res.Valid)
			if tt.wantErr {
				assert.Equal(t, []string{"nickname is required"}, res.Errors)
			}
		})
	}
}

func TestValidate_AbsentOptionalSkipsTypeChecks(t *testing.T) {
	def := selectDef("status", "open", "closed")
	def.IsRequired = false

	res := Validate(def, nil)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)

	res = Validate(def, "")
	assert.True(t, res.Valid)
}

func TestValidate_Email(t *testing.T) {
	def := &FieldDefinition{FieldLabel: "Work Email", FieldType: TypeEmail}

	assert.True(t, Validate(def, "jane.doe@example.com").Valid)
	assert.True(t, Validate(def, "a+b@sub.domain.co").Valid)

	for _, bad := range []any{"not-an-email", "missing@tld", "@example.com", 42} {
		res := Validate(def, bad)
		assert.False(t, res.Valid, "value %v should fail", bad)
		assert.Contains(t, res.Errors, "Work Email must be a valid email address")
	}
}

func TestValidate_URL(t *testing.T) {
	def := &FieldDefinition{FieldLabel: "Website", FieldType: TypeURL}

	assert.True(t, Validate(def, "https://example.com/path").Valid)
	assert.True(t, Validate(def, "http://localhost:8080").Valid)

	for _, bad := range []any{"example.com", "https://", "not a url at all", 7} {
		res := Validate(def, bad)
		assert.False(t, res.Valid, "value %v should fail", bad)
		assert.Contains(t, res.Errors, "Website must be a valid URL")
	}
}

func TestValidate_Number(t *testing.T) {
	def := &FieldDefinition{FieldLabel: "Budget", FieldType: TypeNumber}

	assert.True(t, Validate(def, json.Number("1500.25")).Valid)
	assert.True(t, Validate(def, "42").Valid)
	assert.True(t, Validate(def, 3.14).Valid)

	res := Validate(def, "twelve")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Budget must be a number")
}

func TestValidate_Select(t *testing.T) {
	def := selectDef("favorite_color", "red", "blue", "green")

	assert.True(t, Validate(def, "blue").Valid)

	res := Validate(def, "purple")
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"favorite_color must be one of: red, blue, green"}, res.Errors)
}

func TestValidate_Multiselect(t *testing.T) {
	def := &FieldDefinition{
		FieldLabel: "Segments",
		FieldType:  TypeMultiselect,
		FieldOptions: OptionList{
			{Value: "saas"}, {Value: "fintech"}, {Value: "retail"},
		},
	}

	assert.True(t, Validate(def, []any{"saas", "retail"}).Valid)
	assert.True(t, Validate(def, []string{}).Valid, "empty array is a present, valid value")

	res := Validate(def, []any{"saas", "gaming", "mining"})
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Segments contains invalid values: gaming, mining"}, res.Errors)

	res = Validate(def, "saas")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Segments must be an array of values")
}

func TestValidate_MinMaxRules(t *testing.T) {
	def := &FieldDefinition{
		FieldLabel: "Budget",
		FieldType:  TypeNumber,
		ValidationRules: entity.JSONMap{
			"min": json.Number("10"),
			"max": json.Number("100"),
		},
	}

	assert.True(t, Validate(def, json.Number("50")).Valid)
	assert.True(t, Validate(def, json.Number("10")).Valid, "min boundary is inclusive")
	assert.True(t, Validate(def, json.Number("100")).Valid, "max boundary is inclusive")

	res := Validate(def, json.Number("9.99"))
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Budget must be at least 10")

	res = Validate(def, json.Number("100.01"))
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Budget must be at most 100")
}

func TestValidate_PatternRule(t *testing.T) {
	def := &FieldDefinition{
		FieldLabel:      "SKU",
		FieldType:       TypeText,
		ValidationRules: entity.JSONMap{"pattern": `^[A-Z]{3}-\d{4}$`},
	}

	assert.True(t, Validate(def, "ABC-1234").Valid)

	res := Validate(def, "abc-12")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "SKU does not match the required pattern")
}

func TestValidate_InvalidPatternReportsError(t *testing.T) {
	def := &FieldDefinition{
		FieldLabel:      "SKU",
		FieldType:       TypeText,
		ValidationRules: entity.JSONMap{"pattern": `([unclosed`},
	}

	res := Validate(def, "anything")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "SKU has an invalid validation pattern")
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	// A number below min that also fails the pattern: both errors surface.
	def := &FieldDefinition{
		FieldLabel: "Code",
		FieldType:  TypeNumber,
		ValidationRules: entity.JSONMap{
			"min":     json.Number("1000"),
			"pattern": `^\d{4}$`,
		},
	}

	res := Validate(def, json.Number("99"))
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors, "Code must be at least 1000")
	assert.Contains(t, res.Errors, "Code does not match the required pattern")
}
