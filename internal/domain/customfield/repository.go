package customfield

import (
	"context"

	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/id"
)

// DefinitionRepository is the durable catalog of field definitions. It is the
// only component with mutation authority over schema; the value store never
// creates definitions implicitly.
type DefinitionRepository interface {
	// List returns definitions for (organizationID, entityType) ordered by
	// display order, ties broken by creation time. "No schema yet" — the
	// backing relation not existing — is a valid tenant state and yields an
	// empty slice, not an error.
	List(ctx context.Context, organizationID string, entityType EntityType, activeOnly bool) ([]*FieldDefinition, error)

	// GetByID returns one definition within the organization scope.
	GetByID(ctx context.Context, fieldID id.ID, organizationID string) (*FieldDefinition, error)

	// Create persists a new definition.
	Create(ctx context.Context, def *FieldDefinition) error

	// Update applies the given column changes and returns the updated row.
	// Returns NotFound when no row matches (fieldID, organizationID).
	Update(ctx context.Context, fieldID id.ID, organizationID string, changes map[string]any) (*FieldDefinition, error)

	// SoftDelete flips is_active to false. Idempotent; reports whether a
	// row was affected.
	SoftDelete(ctx context.Context, fieldID id.ID, organizationID string) (bool, error)

	// Delete removes the definition row itself. Value purging is the
	// service's responsibility and must happen first.
	Delete(ctx context.Context, fieldID id.ID, organizationID string) (bool, error)
}

// ValueRepository is the durable per-record value store, always scoped by
// organization and usually by (entityType, entityID).
type ValueRepository interface {
	// GetForEntity returns one row per active definition of
	// (organizationID, entityType), left-joined with any stored value for
	// entityID, ordered by display order.
	GetForEntity(ctx context.Context, organizationID string, entityType EntityType, entityID id.ID) ([]*EntityFieldValue, error)

	// Upsert inserts the value or overwrites the existing row for the same
	// (FieldDefinitionID, EntityID), leaving created_by untouched on
	// conflict. Returns the stored row.
	Upsert(ctx context.Context, value *FieldValue) (*FieldValue, error)

	// Delete removes one value row; reports whether a row was affected.
	Delete(ctx context.Context, valueID id.ID, organizationID string) (bool, error)

	// DeleteForEntity removes every value row of one entity instance and
	// returns the count deleted.
	DeleteForEntity(ctx context.Context, organizationID string, entityType EntityType, entityID id.ID) (int64, error)

	// DeleteForDefinition removes every value row referencing a definition
	// and returns the count deleted.
	DeleteForDefinition(ctx context.Context, fieldDefinitionID id.ID, organizationID string) (int64, error)

	// GetForEntities returns stored values for the given entity instances,
	// restricted to active definitions flagged for list-view display.
	GetForEntities(ctx context.Context, organizationID string, entityType EntityType, entityIDs []id.ID) ([]*ListViewValue, error)
}
