// Package dto defines request and response shapes for the HTTP API.
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/entity"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/domain/customfield"
)

// CreateFieldRequest is the request body for creating a field definition.
// Older clients send snake_case attribute names; both conventions are
// accepted per attribute and merged here, camelCase winning when both are
// supplied, so the domain layer only ever sees one canonical shape.
type CreateFieldRequest struct {
	FieldName       string `json:"fieldName"`
	FieldNameLegacy string `json:"field_name"`

	FieldLabel       string `json:"fieldLabel"`
	FieldLabelLegacy string `json:"field_label"`

	FieldDescription       *string `json:"fieldDescription"`
	FieldDescriptionLegacy *string `json:"field_description"`

	FieldType       string `json:"fieldType"`
	FieldTypeLegacy string `json:"field_type"`

	IsRequired       *bool `json:"isRequired"`
	IsRequiredLegacy *bool `json:"is_required"`

	IsSearchable       *bool `json:"isSearchable"`
	IsSearchableLegacy *bool `json:"is_searchable"`

	IsFilterable       *bool `json:"isFilterable"`
	IsFilterableLegacy *bool `json:"is_filterable"`

	DisplayOrder       *int `json:"displayOrder"`
	DisplayOrderLegacy *int `json:"display_order"`

	FieldGroup       *string `json:"fieldGroup"`
	FieldGroupLegacy *string `json:"field_group"`

	Placeholder *string `json:"placeholder"`

	ShowInListView       *bool `json:"showInListView"`
	ShowInListViewLegacy *bool `json:"show_in_list_view"`

	ShowInDetailView       *bool `json:"showInDetailView"`
	ShowInDetailViewLegacy *bool `json:"show_in_detail_view"`

	ShowInCreateForm       *bool `json:"showInCreateForm"`
	ShowInCreateFormLegacy *bool `json:"show_in_create_form"`

	ShowInEditForm       *bool `json:"showInEditForm"`
	ShowInEditFormLegacy *bool `json:"show_in_edit_form"`

	OverallVisibility       string `json:"overallVisibility"`
	OverallVisibilityLegacy string `json:"overall_visibility"`

	VisibilityLogic       string `json:"visibilityLogic"`
	VisibilityLogicLegacy string `json:"visibility_logic"`

	// Options and rules may arrive as their canonical container or as a
	// string holding serialized JSON; both normalize to the same stored
	// representation.
	FieldOptions       json.RawMessage `json:"fieldOptions"`
	FieldOptionsLegacy json.RawMessage `json:"field_options"`

	ValidationRules       json.RawMessage `json:"validationRules"`
	ValidationRulesLegacy json.RawMessage `json:"validation_rules"`

	DefaultValue       *string `json:"defaultValue"`
	DefaultValueLegacy *string `json:"default_value"`
}

// ToParams normalizes the request into the domain's canonical input shape.
// The organization scope and entity type come from the authorized request
// context and the route, never from the body.
func (r *CreateFieldRequest) ToParams(organizationID string, entityType customfield.EntityType, createdBy string) (customfield.NewDefinitionParams, error) {
	options, err := CoerceOptions(pickRaw(r.FieldOptions, r.FieldOptionsLegacy))
	if err != nil {
		return customfield.NewDefinitionParams{}, fmt.Errorf("fieldOptions: %w", err)
	}
	rules, err := CoerceRules(pickRaw(r.ValidationRules, r.ValidationRulesLegacy))
	if err != nil {
		return customfield.NewDefinitionParams{}, fmt.Errorf("validationRules: %w", err)
	}

	return customfield.NewDefinitionParams{
		OrganizationID:    organizationID,
		EntityType:        entityType,
		FieldName:         pickString(r.FieldName, r.FieldNameLegacy),
		FieldLabel:        pickString(r.FieldLabel, r.FieldLabelLegacy),
		FieldDescription:  pickStringPtr(r.FieldDescription, r.FieldDescriptionLegacy),
		FieldType:         customfield.FieldType(pickString(r.FieldType, r.FieldTypeLegacy)),
		IsRequired:        pickBoolValue(r.IsRequired, r.IsRequiredLegacy),
		IsSearchable:      pickBoolValue(r.IsSearchable, r.IsSearchableLegacy),
		IsFilterable:      pickBoolValue(r.IsFilterable, r.IsFilterableLegacy),
		DisplayOrder:      pickIntValue(r.DisplayOrder, r.DisplayOrderLegacy),
		FieldGroup:        pickStringPtr(r.FieldGroup, r.FieldGroupLegacy),
		Placeholder:       r.Placeholder,
		ShowInListView:    pickBoolPtr(r.ShowInListView, r.ShowInListViewLegacy),
		ShowInDetailView:  pickBoolPtr(r.ShowInDetailView, r.ShowInDetailViewLegacy),
		ShowInCreateForm:  pickBoolPtr(r.ShowInCreateForm, r.ShowInCreateFormLegacy),
		ShowInEditForm:    pickBoolPtr(r.ShowInEditForm, r.ShowInEditFormLegacy),
		OverallVisibility: customfield.Visibility(pickString(r.OverallVisibility, r.OverallVisibilityLegacy)),
		VisibilityLogic:   customfield.VisibilityLogic(pickString(r.VisibilityLogic, r.VisibilityLogicLegacy)),
		FieldOptions:      options,
		ValidationRules:   rules,
		DefaultValue:      pickStringPtr(r.DefaultValue, r.DefaultValueLegacy),
		CreatedBy:         createdBy,
	}, nil
}

// UpdateFieldRequest is the request body for partially updating a
// definition. JSON-shaped attributes accept the same serialized-string form
// as on create.
type UpdateFieldRequest struct {
	FieldLabel        *string          `json:"fieldLabel"`
	FieldDescription  *string          `json:"fieldDescription"`
	FieldType         *string          `json:"fieldType"`
	IsRequired        *bool            `json:"isRequired"`
	IsSearchable      *bool            `json:"isSearchable"`
	IsFilterable      *bool            `json:"isFilterable"`
	IsActive          *bool            `json:"isActive"`
	DisplayOrder      *int             `json:"displayOrder"`
	FieldGroup        *string          `json:"fieldGroup"`
	Placeholder       *string          `json:"placeholder"`
	ShowInListView    *bool            `json:"showInListView"`
	ShowInDetailView  *bool            `json:"showInDetailView"`
	ShowInCreateForm  *bool            `json:"showInCreateForm"`
	ShowInEditForm    *bool            `json:"showInEditForm"`
	OverallVisibility *string          `json:"overallVisibility"`
	VisibilityLogic   *string          `json:"visibilityLogic"`
	FieldOptions      json.RawMessage  `json:"fieldOptions"`
	ValidationRules   json.RawMessage  `json:"validationRules"`
	DefaultValue      *string          `json:"defaultValue"`
}

// ToPatch converts the request into a domain patch.
func (r *UpdateFieldRequest) ToPatch() (customfield.DefinitionPatch, error) {
	patch := customfield.DefinitionPatch{
		FieldLabel:       r.FieldLabel,
		FieldDescription: r.FieldDescription,
		IsRequired:       r.IsRequired,
		IsSearchable:     r.IsSearchable,
		IsFilterable:     r.IsFilterable,
		IsActive:         r.IsActive,
		DisplayOrder:     r.DisplayOrder,
		FieldGroup:       r.FieldGroup,
		Placeholder:      r.Placeholder,
		ShowInListView:   r.ShowInListView,
		ShowInDetailView: r.ShowInDetailView,
		ShowInCreateForm: r.ShowInCreateForm,
		ShowInEditForm:   r.ShowInEditForm,
		DefaultValue:     r.DefaultValue,
	}

	if r.FieldType != nil {
		ft := customfield.FieldType(*r.FieldType)
		patch.FieldType = &ft
	}
	if r.OverallVisibility != nil {
		v := customfield.Visibility(*r.OverallVisibility)
		patch.OverallVisibility = &v
	}
	if r.VisibilityLogic != nil {
		l := customfield.VisibilityLogic(*r.VisibilityLogic)
		patch.VisibilityLogic = &l
	}
	if len(r.FieldOptions) > 0 {
		options, err := CoerceOptions(r.FieldOptions)
		if err != nil {
			return customfield.DefinitionPatch{}, fmt.Errorf("fieldOptions: %w", err)
		}
		patch.FieldOptions = &options
	}
	if len(r.ValidationRules) > 0 {
		rules, err := CoerceRules(r.ValidationRules)
		if err != nil {
			return customfield.DefinitionPatch{}, fmt.Errorf("validationRules: %w", err)
		}
		patch.ValidationRules = &rules
	}

	return patch, nil
}

// SetValueRequest is the request body for setting one field value.
type SetValueRequest struct {
	Value any `json:"value"`
}

// ListViewRequest is the request body for the list-view projection.
type ListViewRequest struct {
	EntityIDs []string `json:"entityIds" binding:"required"`
}

// DecodeFieldAssignments reads a bulk-set body — one flat JSON object of
// fieldName → value — preserving the order keys appear in, which the
// returned value records follow. Numbers decode as json.Number.
func DecodeFieldAssignments(r io.Reader) ([]customfield.FieldAssignment, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	tok, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object of field values")
	}

	var assignments []customfield.FieldAssignment
	for decoder.More() {
		keyTok, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("read field name: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected a field name, got %v", keyTok)
		}

		var value any
		if err := decoder.Decode(&value); err != nil {
			return nil, fmt.Errorf("read value for %q: %w", name, err)
		}

		assignments = append(assignments, customfield.FieldAssignment{Name: name, Value: value})
	}

	if _, err := decoder.Token(); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return assignments, nil
}

// --- Normalization helpers ---

// CoerceOptions normalizes an option list that may arrive either as a JSON
// array or as a string holding a serialized array.
func CoerceOptions(raw json.RawMessage) (customfield.OptionList, error) {
	raw = unwrapSerialized(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var options customfield.OptionList
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, fmt.Errorf("expected an array of options: %w", err)
	}
	return options, nil
}

// CoerceRules normalizes a validation-rule bag that may arrive either as a
// JSON object or as a string holding a serialized object. Numbers are kept
// as json.Number so numeric bounds survive with full precision.
func CoerceRules(raw json.RawMessage) (entity.JSONMap, error) {
	raw = unwrapSerialized(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var rules map[string]any
	if err := decoder.Decode(&rules); err != nil {
		return nil, fmt.Errorf("expected an object of rules: %w", err)
	}
	return entity.JSONMap(rules), nil
}

// unwrapSerialized unpacks a JSON string containing serialized JSON into
// the raw payload itself.
func unwrapSerialized(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return trimmed
	}
	var inner string
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return trimmed
	}
	return json.RawMessage(inner)
}

func pickString(camel, snake string) string {
	if camel != "" {
		return camel
	}
	return snake
}

func pickStringPtr(camel, snake *string) *string {
	if camel != nil {
		return camel
	}
	return snake
}

func pickBoolPtr(camel, snake *bool) *bool {
	if camel != nil {
		return camel
	}
	return snake
}

func pickBoolValue(camel, snake *bool) bool {
	if v := pickBoolPtr(camel, snake); v != nil {
		return *v
	}
	return false
}

func pickIntValue(camel, snake *int) int {
	if camel != nil {
		return *camel
	}
	if snake != nil {
		return *snake
	}
	return 0
}

func pickRaw(camel, snake json.RawMessage) json.RawMessage {
	if len(camel) > 0 {
		return camel
	}
	return snake
}
