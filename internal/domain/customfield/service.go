package customfield

import (
	"context"

	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/apperror"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/id"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/tx"
	"github.com/uppalcrm1/uppalcrm-app-sub000/pkg/logger"
)

// Service provides business logic for the custom-field engine: schema
// management over the definition store and validated value writes over the
// value store.
type Service struct {
	definitions DefinitionRepository
	values      ValueRepository
	tx          tx.Manager
}

// NewService creates a new custom-field service.
func NewService(definitions DefinitionRepository, values ValueRepository, txManager tx.Manager) *Service {
	return &Service{
		definitions: definitions,
		values:      values,
		tx:          txManager,
	}
}

// --- Field definitions ---

// ListDefinitions returns the definitions of one (organization, entityType)
// scope ordered for display. An organization with no schema yet gets an
// empty list.
func (s *Service) ListDefinitions(ctx context.Context, organizationID string, entityType EntityType, activeOnly bool) ([]*FieldDefinition, error) {
	if !entityType.IsValid() {
		return nil, apperror.NewValidation("invalid entity type").
			WithDetail("value", string(entityType))
	}
	return s.definitions.List(ctx, organizationID, entityType, activeOnly)
}

// GetDefinition returns one definition within the organization scope.
func (s *Service) GetDefinition(ctx context.Context, fieldID id.ID, organizationID string) (*FieldDefinition, error) {
	return s.definitions.GetByID(ctx, fieldID, organizationID)
}

// CreateDefinition constructs and persists a new definition. The field name
// must not collide with another active definition in the same scope; a
// soft-deleted definition may retain its name without blocking reuse.
func (s *Service) CreateDefinition(ctx context.Context, params NewDefinitionParams) (*FieldDefinition, error) {
	def, err := NewFieldDefinition(params)
	if err != nil {
		return nil, err
	}

	active, err := s.definitions.List(ctx, def.OrganizationID, def.EntityType, true)
	if err != nil {
		return nil, err
	}
	for _, existing := range active {
		if existing.FieldName == def.FieldName {
			return nil, apperror.NewDuplicate("custom field", "fieldName", def.FieldName)
		}
	}

	if err := s.definitions.Create(ctx, def); err != nil {
		return nil, err
	}

	logger.Info(ctx, "custom field created",
		"field_id", def.ID,
		"entity_type", def.EntityType,
		"field_name", def.FieldName,
		"field_type", def.FieldType,
	)
	return def, nil
}

// UpdateDefinition applies the supplied subset of updatable attributes.
// Supplying nothing updatable is a caller error, not a no-op success.
func (s *Service) UpdateDefinition(ctx context.Context, fieldID id.ID, organizationID string, patch DefinitionPatch, updatedBy string) (*FieldDefinition, error) {
	changes := patch.Changes()
	if len(changes) == 0 {
		return nil, apperror.NewNoFieldsToUpdate()
	}
	if updatedBy != "" {
		changes["updated_by"] = updatedBy
	}
	return s.definitions.Update(ctx, fieldID, organizationID, changes)
}

// SoftDeleteDefinition deactivates a definition, retaining its stored
// values and its identity. Idempotent.
func (s *Service) SoftDeleteDefinition(ctx context.Context, fieldID id.ID, organizationID string) (bool, error) {
	return s.definitions.SoftDelete(ctx, fieldID, organizationID)
}

// PermanentlyDeleteDefinition irreversibly removes a definition and purges
// all values referencing it. Values go first so a concurrent reader can
// never observe a deleted definition with orphaned value rows; both deletes
// run in one transaction.
func (s *Service) PermanentlyDeleteDefinition(ctx context.Context, fieldID id.ID, organizationID string) error {
	return s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		purged, err := s.values.DeleteForDefinition(ctx, fieldID, organizationID)
		if err != nil {
			return err
		}

		deleted, err := s.definitions.Delete(ctx, fieldID, organizationID)
		if err != nil {
			return err
		}
		if !deleted {
			return apperror.NewNotFound("custom field", fieldID.String())
		}

		logger.Info(ctx, "custom field permanently deleted",
			"field_id", fieldID,
			"values_purged", purged,
		)
		return nil
	})
}

// --- Field values ---

// SetValueParams carries one validated value write. The entity scope
// (EntityType, EntityID) is caller-supplied; the definition scope is always
// derived from the definition itself.
type SetValueParams struct {
	OrganizationID    string
	FieldDefinitionID id.ID
	EntityType        EntityType
	EntityID          id.ID
	Value             any
	UserID            string
}

// SetValue validates the candidate value against its definition and upserts
// it. The upsert keeps created_by from the original insert and stamps
// updated_by with the current caller.
func (s *Service) SetValue(ctx context.Context, params SetValueParams) (*FieldValue, error) {
	def, err := s.definitions.GetByID(ctx, params.FieldDefinitionID, params.OrganizationID)
	if err != nil {
		return nil, err
	}
	if def.EntityType != params.EntityType {
		return nil, apperror.NewValidation("field does not belong to this entity type").
			WithDetail("fieldEntityType", string(def.EntityType)).
			WithDetail("requestedEntityType", string(params.EntityType))
	}

	if res := Validate(def, params.Value); !res.Valid {
		return nil, apperror.NewValidationErrors(res.Errors)
	}

	return s.storeValue(ctx, def, params)
}

// storeValue persists without re-validating; SetValue and SetMultipleValues
// have already run the validation engine.
func (s *Service) storeValue(ctx context.Context, def *FieldDefinition, params SetValueParams) (*FieldValue, error) {
	value := &FieldValue{
		OrganizationID:    params.OrganizationID,
		FieldDefinitionID: def.ID,
		EntityType:        params.EntityType,
		EntityID:          params.EntityID,
		FieldValue:        Payload{Data: params.Value},
		CreatedBy:         params.UserID,
	}
	if params.UserID != "" {
		userID := params.UserID
		value.UpdatedBy = &userID
	}
	return s.values.Upsert(ctx, value)
}

// FieldAssignment is one fieldName → value pair of a bulk write, in the
// order the caller supplied it.
type FieldAssignment struct {
	Name  string
	Value any
}

// SetMultipleValues sets many field values for one entity instance. Field
// names are resolved against the active schema once; names with no matching
// active definition are silently ignored — the contract that lets a caller
// submit a full form payload without pre-filtering. All supplied values are
// validated before any write so a rejection reports every offending field
// at once. The writes themselves are issued sequentially in input order and
// are not atomic across fields; the returned records follow that order.
func (s *Service) SetMultipleValues(ctx context.Context, organizationID string, entityType EntityType, entityID id.ID, assignments []FieldAssignment, userID string) ([]*FieldValue, error) {
	if len(assignments) == 0 {
		return nil, nil
	}

	defs, err := s.definitions.List(ctx, organizationID, entityType, true)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*FieldDefinition, len(defs))
	for _, def := range defs {
		byName[def.FieldName] = def
	}

	var allErrors []string
	for _, a := range assignments {
		def, ok := byName[a.Name]
		if !ok {
			continue
		}
		if res := Validate(def, a.Value); !res.Valid {
			allErrors = append(allErrors, res.Errors...)
		}
	}
	if len(allErrors) > 0 {
		return nil, apperror.NewValidationErrors(allErrors)
	}

	var written []*FieldValue
	for _, a := range assignments {
		def, ok := byName[a.Name]
		if !ok {
			logger.Debug(ctx, "ignoring unknown custom field", "field_name", a.Name)
			continue
		}

		stored, err := s.storeValue(ctx, def, SetValueParams{
			OrganizationID:    organizationID,
			FieldDefinitionID: def.ID,
			EntityType:        entityType,
			EntityID:          entityID,
			Value:             a.Value,
			UserID:            userID,
		})
		if err != nil {
			return written, err
		}
		written = append(written, stored)
	}

	return written, nil
}

// GetValues returns one row per active definition of the entity's scope,
// left-joined with the instance's stored values. Records created before a
// field was defined still show the field, with a null value.
func (s *Service) GetValues(ctx context.Context, organizationID string, entityType EntityType, entityID id.ID) ([]*EntityFieldValue, error) {
	if !entityType.IsValid() {
		return nil, apperror.NewValidation("invalid entity type").
			WithDetail("value", string(entityType))
	}
	return s.values.GetForEntity(ctx, organizationID, entityType, entityID)
}

// DeleteValue removes one stored value; reports whether a row was affected.
func (s *Service) DeleteValue(ctx context.Context, valueID id.ID, organizationID string) (bool, error) {
	return s.values.Delete(ctx, valueID, organizationID)
}

// DeleteEntityValues removes every stored value of one entity instance.
// Used when the instance itself is deleted.
func (s *Service) DeleteEntityValues(ctx context.Context, organizationID string, entityType EntityType, entityID id.ID) (int64, error) {
	return s.values.DeleteForEntity(ctx, organizationID, entityType, entityID)
}

// GetValuesForEntities returns the list-view projection: entity id →
// field name → display cell, restricted to active definitions flagged for
// list view. Avoids N+1 fetching when rendering record lists.
func (s *Service) GetValuesForEntities(ctx context.Context, organizationID string, entityType EntityType, entityIDs []id.ID) (map[id.ID]map[string]ListViewField, error) {
	projection := make(map[id.ID]map[string]ListViewField)
	if len(entityIDs) == 0 {
		return projection, nil
	}

	rows, err := s.values.GetForEntities(ctx, organizationID, entityType, entityIDs)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		fields, ok := projection[row.EntityID]
		if !ok {
			fields = make(map[string]ListViewField)
			projection[row.EntityID] = fields
		}
		fields[row.FieldName] = ListViewField{
			Label: row.FieldLabel,
			Type:  row.FieldType,
			Value: row.Value.Data,
		}
	}

	return projection, nil
}
