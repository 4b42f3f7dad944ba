// Package customfield provides the dynamic custom-field engine: tenant-defined
// typed fields on top of the fixed CRM entities, with per-record values stored
// in a schema-less JSONB column and validated on write.
package customfield

// EntityType identifies a fixed record kind that can carry custom fields.
// The set is closed: values map onto physical CRM tables, so an unknown
// entity type is a caller error, never a new table.
type EntityType string

const (
	EntityLeads        EntityType = "leads"
	EntityContacts     EntityType = "contacts"
	EntityAccounts     EntityType = "accounts"
	EntityTransactions EntityType = "transactions"
)

// IsValid reports whether the entity type is part of the fixed enumeration.
func (e EntityType) IsValid() bool {
	switch e {
	case EntityLeads, EntityContacts, EntityAccounts, EntityTransactions:
		return true
	}
	return false
}

// FieldType identifies a supported custom-field kind. The catalog is a
// deliberate closed world: each type must map predictably onto a stored JSON
// shape and a finite set of UI widgets, so adding a type means extending both
// this enumeration and the validation dispatch in Validate.
type FieldType string

const (
	TypeText        FieldType = "text"
	TypeTextarea    FieldType = "textarea"
	TypeNumber      FieldType = "number"
	TypeEmail       FieldType = "email"
	TypePhone       FieldType = "phone"
	TypeURL         FieldType = "url"
	TypeDate        FieldType = "date"
	TypeDatetime    FieldType = "datetime"
	TypeBoolean     FieldType = "boolean"
	TypeSelect      FieldType = "select"
	TypeMultiselect FieldType = "multiselect"
	TypeRadio       FieldType = "radio"
	TypeCheckbox    FieldType = "checkbox"
)

// IsValid reports whether the field type is part of the supported catalog.
func (t FieldType) IsValid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeNumber, TypeEmail, TypePhone, TypeURL,
		TypeDate, TypeDatetime, TypeBoolean, TypeSelect, TypeMultiselect,
		TypeRadio, TypeCheckbox:
		return true
	}
	return false
}

// RequiresOptions reports whether the type is choice-based and therefore
// needs a configured option list.
func (t FieldType) RequiresOptions() bool {
	switch t {
	case TypeSelect, TypeMultiselect, TypeRadio, TypeCheckbox:
		return true
	}
	return false
}

// IsMultiValue reports whether stored payloads for this type are arrays.
func (t FieldType) IsMultiValue() bool {
	return t == TypeMultiselect || t == TypeCheckbox
}
