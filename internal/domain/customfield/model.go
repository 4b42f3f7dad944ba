package customfield

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/apperror"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/entity"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/id"
)

// Visibility is the master visibility switch of a definition.
type Visibility string

const (
	VisibilityVisible Visibility = "visible"
	VisibilityHidden  Visibility = "hidden"
)

// VisibilityLogic describes how the master switch composes with the
// per-view flags.
type VisibilityLogic string

// LogicMasterOverride: when OverallVisibility is hidden, every per-view flag
// is suppressed regardless of its individual value.
const LogicMasterOverride VisibilityLogic = "master_override"

// View identifies one of the UI surfaces a field can appear in.
type View string

const (
	ViewList   View = "list"
	ViewDetail View = "detail"
	ViewCreate View = "create"
	ViewEdit   View = "edit"
)

// FieldOption is one selectable option of a choice-based field.
type FieldOption struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	IsDefault bool   `json:"isDefault,omitempty"`
	SortOrder int    `json:"sortOrder,omitempty"`
}

// OptionList is the ordered option set of a choice-based field, stored as a
// JSONB array. Implements sql.Scanner and driver.Valuer.
type OptionList []FieldOption

// Scan implements sql.Scanner for reading from PostgreSQL JSONB.
func (o *OptionList) Scan(src any) error {
	if src == nil {
		*o = nil
		return nil
	}

	var source []byte
	switch v := src.(type) {
	case []byte:
		source = v
	case string:
		source = []byte(v)
	default:
		return fmt.Errorf("unsupported type for OptionList: %T", src)
	}

	if len(source) == 0 {
		*o = nil
		return nil
	}

	var result []FieldOption
	if err := json.Unmarshal(source, &result); err != nil {
		return fmt.Errorf("failed to decode OptionList: %w", err)
	}

	*o = result
	return nil
}

// Value implements driver.Valuer for writing to PostgreSQL JSONB.
func (o OptionList) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	return json.Marshal(o)
}

// Values returns the option values in configured order.
func (o OptionList) Values() []string {
	values := make([]string, 0, len(o))
	for _, opt := range o {
		values = append(values, opt.Value)
	}
	return values
}

// Contains reports whether value is a configured option value.
func (o OptionList) Contains(value string) bool {
	for _, opt := range o {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Payload is the stored shape of one field value. Scalar, array, and null
// payloads all share the uniform wrapped form {"value": <payload>} so the
// JSONB column never has to guess at the top-level type.
//
// Numbers are decoded as json.Number to preserve precision.
type Payload struct {
	Data any `json:"value"`
}

// Scan implements sql.Scanner for reading from PostgreSQL JSONB.
func (p *Payload) Scan(src any) error {
	if src == nil {
		p.Data = nil
		return nil
	}

	var source []byte
	switch v := src.(type) {
	case []byte:
		source = v
	case string:
		source = []byte(v)
	default:
		return fmt.Errorf("unsupported type for Payload: %T", src)
	}

	if len(source) == 0 {
		p.Data = nil
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(source))
	decoder.UseNumber()

	var wrapped struct {
		Value any `json:"value"`
	}
	if err := decoder.Decode(&wrapped); err != nil {
		return fmt.Errorf("failed to decode Payload: %w", err)
	}

	p.Data = wrapped.Value
	return nil
}

// Value implements driver.Valuer for writing to PostgreSQL JSONB.
func (p Payload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// FieldDefinition is a tenant-authored schema declaration for one custom
// attribute on one entity type. OrganizationID, EntityType and FieldName are
// immutable after creation; everything else may be updated in place.
type FieldDefinition struct {
	entity.Base

	OrganizationID string     `db:"organization_id" json:"organizationId"`
	EntityType     EntityType `db:"entity_type" json:"entityType"`

	FieldName        string  `db:"field_name" json:"fieldName"`
	FieldLabel       string  `db:"field_label" json:"fieldLabel"`
	FieldDescription *string `db:"field_description" json:"fieldDescription,omitempty"`

	FieldType FieldType `db:"field_type" json:"fieldType"`

	IsRequired   bool `db:"is_required" json:"isRequired"`
	IsSearchable bool `db:"is_searchable" json:"isSearchable"`
	IsFilterable bool `db:"is_filterable" json:"isFilterable"`
	IsActive     bool `db:"is_active" json:"isActive"`

	DisplayOrder int     `db:"display_order" json:"displayOrder"`
	FieldGroup   *string `db:"field_group" json:"fieldGroup,omitempty"`
	Placeholder  *string `db:"placeholder" json:"placeholder,omitempty"`

	ShowInListView   bool `db:"show_in_list_view" json:"showInListView"`
	ShowInDetailView bool `db:"show_in_detail_view" json:"showInDetailView"`
	ShowInCreateForm bool `db:"show_in_create_form" json:"showInCreateForm"`
	ShowInEditForm   bool `db:"show_in_edit_form" json:"showInEditForm"`

	OverallVisibility Visibility      `db:"overall_visibility" json:"overallVisibility"`
	VisibilityLogic   VisibilityLogic `db:"visibility_logic" json:"visibilityLogic"`

	FieldOptions    OptionList     `db:"field_options" json:"fieldOptions,omitempty"`
	ValidationRules entity.JSONMap `db:"validation_rules" json:"validationRules,omitempty"`
	DefaultValue    *string        `db:"default_value" json:"defaultValue,omitempty"`

	CreatedBy string  `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy *string `db:"updated_by" json:"updatedBy,omitempty"`
}

// VisibleIn reports whether the field appears on the given view after the
// master switch is composed with the per-view flag.
func (d *FieldDefinition) VisibleIn(view View) bool {
	if d.OverallVisibility == VisibilityHidden {
		return false
	}
	switch view {
	case ViewList:
		return d.ShowInListView
	case ViewDetail:
		return d.ShowInDetailView
	case ViewCreate:
		return d.ShowInCreateForm
	case ViewEdit:
		return d.ShowInEditForm
	}
	return false
}

// NewDefinitionParams carries the normalized input for creating a definition.
// Boundary adapters (the HTTP dto layer) are responsible for merging legacy
// snake_case payloads into this one canonical shape before the domain sees it.
type NewDefinitionParams struct {
	OrganizationID string
	EntityType     EntityType

	FieldName        string
	FieldLabel       string
	FieldDescription *string

	FieldType FieldType

	IsRequired   bool
	IsSearchable bool
	IsFilterable bool

	DisplayOrder int
	FieldGroup   *string
	Placeholder  *string

	// Per-view flags default to the common form surfaces when nil.
	ShowInListView   *bool
	ShowInDetailView *bool
	ShowInCreateForm *bool
	ShowInEditForm   *bool

	OverallVisibility Visibility
	VisibilityLogic   VisibilityLogic

	FieldOptions    OptionList
	ValidationRules entity.JSONMap
	DefaultValue    *string

	CreatedBy string
}

// NewFieldDefinition constructs a FieldDefinition from normalized params.
// Definitions always start active.
func NewFieldDefinition(p NewDefinitionParams) (*FieldDefinition, error) {
	if p.OrganizationID == "" {
		return nil, apperror.NewValidation("organizationId is required").
			WithDetail("field", "organizationId")
	}
	if !p.EntityType.IsValid() {
		return nil, apperror.NewValidation("invalid entity type").
			WithDetail("field", "entityType").
			WithDetail("value", string(p.EntityType))
	}
	if p.FieldName == "" {
		return nil, apperror.NewValidation("fieldName is required").
			WithDetail("field", "fieldName")
	}
	if !p.FieldType.IsValid() {
		return nil, apperror.NewValidation("unsupported field type").
			WithDetail("field", "fieldType").
			WithDetail("value", string(p.FieldType))
	}
	if p.FieldType.RequiresOptions() && len(p.FieldOptions) == 0 {
		return nil, apperror.NewValidation("choice-based fields require fieldOptions").
			WithDetail("field", "fieldOptions").
			WithDetail("fieldType", string(p.FieldType))
	}

	label := p.FieldLabel
	if label == "" {
		label = p.FieldName
	}

	visibility := p.OverallVisibility
	if visibility == "" {
		visibility = VisibilityVisible
	}
	logic := p.VisibilityLogic
	if logic == "" {
		logic = LogicMasterOverride
	}

	return &FieldDefinition{
		Base:              entity.NewBase(),
		OrganizationID:    p.OrganizationID,
		EntityType:        p.EntityType,
		FieldName:         p.FieldName,
		FieldLabel:        label,
		FieldDescription:  p.FieldDescription,
		FieldType:         p.FieldType,
		IsRequired:        p.IsRequired,
		IsSearchable:      p.IsSearchable,
		IsFilterable:      p.IsFilterable,
		IsActive:          true,
		DisplayOrder:      p.DisplayOrder,
		FieldGroup:        p.FieldGroup,
		Placeholder:       p.Placeholder,
		ShowInListView:    boolOr(p.ShowInListView, false),
		ShowInDetailView:  boolOr(p.ShowInDetailView, true),
		ShowInCreateForm:  boolOr(p.ShowInCreateForm, true),
		ShowInEditForm:    boolOr(p.ShowInEditForm, true),
		OverallVisibility: visibility,
		VisibilityLogic:   logic,
		FieldOptions:      p.FieldOptions,
		ValidationRules:   p.ValidationRules,
		DefaultValue:      p.DefaultValue,
		CreatedBy:         p.CreatedBy,
	}, nil
}

func boolOr(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

// DefinitionPatch carries a partial update. Nil pointers mean "not supplied".
// Identity, scope and FieldName are deliberately absent: they are immutable
// after creation.
type DefinitionPatch struct {
	FieldLabel       *string          `json:"fieldLabel"`
	FieldDescription *string          `json:"fieldDescription"`
	FieldType        *FieldType       `json:"fieldType"`
	IsRequired       *bool            `json:"isRequired"`
	IsSearchable     *bool            `json:"isSearchable"`
	IsFilterable     *bool            `json:"isFilterable"`
	IsActive         *bool            `json:"isActive"`
	DisplayOrder     *int             `json:"displayOrder"`
	FieldGroup       *string          `json:"fieldGroup"`
	Placeholder      *string          `json:"placeholder"`
	ShowInListView   *bool            `json:"showInListView"`
	ShowInDetailView *bool            `json:"showInDetailView"`
	ShowInCreateForm *bool            `json:"showInCreateForm"`
	ShowInEditForm   *bool            `json:"showInEditForm"`
	OverallVisibility *Visibility     `json:"overallVisibility"`
	VisibilityLogic  *VisibilityLogic `json:"visibilityLogic"`
	FieldOptions     *OptionList      `json:"fieldOptions"`
	ValidationRules  *entity.JSONMap  `json:"validationRules"`
	DefaultValue     *string          `json:"defaultValue"`
}

// Changes returns the column→value map for the supplied attributes only.
// The column names form the update allow-list; an empty map means the caller
// supplied nothing updatable.
func (p DefinitionPatch) Changes() map[string]any {
	changes := make(map[string]any)
	if p.FieldLabel != nil {
		changes["field_label"] = *p.FieldLabel
	}
	if p.FieldDescription != nil {
		changes["field_description"] = *p.FieldDescription
	}
	if p.FieldType != nil {
		changes["field_type"] = *p.FieldType
	}
	if p.IsRequired != nil {
		changes["is_required"] = *p.IsRequired
	}
	if p.IsSearchable != nil {
		changes["is_searchable"] = *p.IsSearchable
	}
	if p.IsFilterable != nil {
		changes["is_filterable"] = *p.IsFilterable
	}
	if p.IsActive != nil {
		changes["is_active"] = *p.IsActive
	}
	if p.DisplayOrder != nil {
		changes["display_order"] = *p.DisplayOrder
	}
	if p.FieldGroup != nil {
		changes["field_group"] = *p.FieldGroup
	}
	if p.Placeholder != nil {
		changes["placeholder"] = *p.Placeholder
	}
	if p.ShowInListView != nil {
		changes["show_in_list_view"] = *p.ShowInListView
	}
	if p.ShowInDetailView != nil {
		changes["show_in_detail_view"] = *p.ShowInDetailView
	}
	if p.ShowInCreateForm != nil {
		changes["show_in_create_form"] = *p.ShowInCreateForm
	}
	if p.ShowInEditForm != nil {
		changes["show_in_edit_form"] = *p.ShowInEditForm
	}
	if p.OverallVisibility != nil {
		changes["overall_visibility"] = *p.OverallVisibility
	}
	if p.VisibilityLogic != nil {
		changes["visibility_logic"] = *p.VisibilityLogic
	}
	if p.FieldOptions != nil {
		changes["field_options"] = *p.FieldOptions
	}
	if p.ValidationRules != nil {
		changes["validation_rules"] = *p.ValidationRules
	}
	if p.DefaultValue != nil {
		changes["default_value"] = *p.DefaultValue
	}
	return changes
}

// FieldValue is the stored data for one field definition on one record.
// At most one row exists per (FieldDefinitionID, EntityID); the write path
// enforces this with an upsert, not with existence checks.
type FieldValue struct {
	entity.Base

	OrganizationID    string     `db:"organization_id" json:"organizationId"`
	FieldDefinitionID id.ID      `db:"field_definition_id" json:"fieldDefinitionId"`
	EntityType        EntityType `db:"entity_type" json:"entityType"`
	EntityID          id.ID      `db:"entity_id" json:"entityId"`

	FieldValue Payload `db:"field_value" json:"fieldValue"`

	CreatedBy string  `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy *string `db:"updated_by" json:"updatedBy,omitempty"`
}

// EntityFieldValue is one row of the per-record value view: definition
// metadata left-joined with any stored value. Fields with no stored value
// yield a nil ValueID and a null payload, never an omitted row, so callers
// always see the full current schema.
type EntityFieldValue struct {
	FieldDefinitionID id.ID      `db:"field_definition_id" json:"fieldDefinitionId"`
	FieldName         string     `db:"field_name" json:"fieldName"`
	FieldLabel        string     `db:"field_label" json:"fieldLabel"`
	FieldType         FieldType  `db:"field_type" json:"fieldType"`
	IsRequired        bool       `db:"is_required" json:"isRequired"`
	DisplayOrder      int        `db:"display_order" json:"displayOrder"`
	FieldGroup        *string    `db:"field_group" json:"fieldGroup,omitempty"`
	FieldOptions      OptionList `db:"field_options" json:"fieldOptions,omitempty"`

	ValueID   *id.ID     `db:"value_id" json:"valueId,omitempty"`
	Value     Payload    `db:"field_value" json:"value"`
	UpdatedAt *time.Time `db:"value_updated_at" json:"valueUpdatedAt,omitempty"`
}

// ListViewValue is one row of the list-view projection source: a stored
// value joined with its definition's display metadata.
type ListViewValue struct {
	EntityID   id.ID     `db:"entity_id" json:"entityId"`
	FieldName  string    `db:"field_name" json:"fieldName"`
	FieldLabel string    `db:"field_label" json:"fieldLabel"`
	FieldType  FieldType `db:"field_type" json:"fieldType"`
	Value      Payload   `db:"field_value" json:"value"`
}

// ListViewField is the per-field cell handed to list-view rendering.
type ListViewField struct {
	Label string    `json:"label"`
	Type  FieldType `json:"type"`
	Value any       `json:"value"`
}
