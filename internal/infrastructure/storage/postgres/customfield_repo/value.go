package customfield_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/entity"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/id"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/domain/customfield"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/infrastructure/storage/postgres"
)

// Compile-time check that ValueRepo implements the domain interface.
var _ customfield.ValueRepository = (*ValueRepo)(nil)

// ValueRepo implements customfield.ValueRepository.
type ValueRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewValueRepo creates a new value repository.
func NewValueRepo(txm *postgres.TxManager) *ValueRepo {
	return &ValueRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[customfield.FieldValue](),
	}
}

func (r *ValueRepo) getForEntityQuery(organizationID string, entityType customfield.EntityType, entityID id.ID) squirrel.SelectBuilder {
	return builder().
		Select(
			"d.id AS field_definition_id",
			"d.field_name",
			"d.field_label",
			"d.field_type",
			"d.is_required",
			"d.display_order",
			"d.field_group",
			"d.field_options",
			"v.id AS value_id",
			"v.field_value",
			"v.updated_at AS value_updated_at",
		).
		From(definitionTable + " d").
		LeftJoin(valueTable+" v ON v.field_definition_id = d.id AND v.entity_id = ?", entityID).
		Where(squirrel.Eq{"d.organization_id": organizationID}).
		Where(squirrel.Eq{"d.entity_type": entityType}).
		Where(squirrel.Eq{"d.is_active": true}).
		OrderBy("d.display_order ASC", "d.created_at ASC")
}

// GetForEntity returns one row per active definition, left-joined with any
// stored value for the instance. Fields with no stored value yield a null
// payload, not an omitted row.
func (r *ValueRepo) GetForEntity(ctx context.Context, organizationID string, entityType customfield.EntityType, entityID id.ID) ([]*customfield.EntityFieldValue, error) {
	sql, args, err := r.getForEntityQuery(organizationID, entityType, entityID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build values query: %w", err)
	}

	var rows []*customfield.EntityFieldValue
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		if isUndefinedTable(err) {
			return []*customfield.EntityFieldValue{}, nil
		}
		return nil, fmt.Errorf("get values for entity: %w", err)
	}

	return rows, nil
}

func (r *ValueRepo) upsertQuery(value *customfield.FieldValue) squirrel.InsertBuilder {
	data := postgres.StructToMap(value)
	return builder().
		Insert(valueTable).
		SetMap(data).
		Suffix(`ON CONFLICT (field_definition_id, entity_id) DO UPDATE SET
			field_value = EXCLUDED.field_value,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
			RETURNING ` + strings.Join(r.cols, ", "))
}

// Upsert inserts the value or overwrites the row for the same
// (field_definition_id, entity_id) pair. The conflict rule makes concurrent
// writers last-write-wins without application-level locking; created_by
// survives from the original insert.
func (r *ValueRepo) Upsert(ctx context.Context, value *customfield.FieldValue) (*customfield.FieldValue, error) {
	if id.IsNil(value.ID) {
		value.Base = entity.NewBase()
	}

	sql, args, err := r.upsertQuery(value).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert: %w", err)
	}

	var stored customfield.FieldValue
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &stored, sql, args...); err != nil {
		return nil, fmt.Errorf("upsert %s: %w", valueTable, err)
	}

	return &stored, nil
}

// Delete removes one value row.
func (r *ValueRepo) Delete(ctx context.Context, valueID id.ID, organizationID string) (bool, error) {
	q := builder().
		Delete(valueTable).
		Where(squirrel.Eq{"id": valueID}).
		Where(squirrel.Eq{"organization_id": organizationID})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", valueTable, err)
	}

	return result.RowsAffected() > 0, nil
}

// DeleteForEntity removes every value row of one entity instance.
func (r *ValueRepo) DeleteForEntity(ctx context.Context, organizationID string, entityType customfield.EntityType, entityID id.ID) (int64, error) {
	q := builder().
		Delete(valueTable).
		Where(squirrel.Eq{"organization_id": organizationID}).
		Where(squirrel.Eq{"entity_type": entityType}).
		Where(squirrel.Eq{"entity_id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete values for entity: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteForDefinition removes every value row referencing a definition.
func (r *ValueRepo) DeleteForDefinition(ctx context.Context, fieldDefinitionID id.ID, organizationID string) (int64, error) {
	q := builder().
		Delete(valueTable).
		Where(squirrel.Eq{"field_definition_id": fieldDefinitionID}).
		Where(squirrel.Eq{"organization_id": organizationID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete values for definition: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *ValueRepo) getForEntitiesQuery(organizationID string, entityType customfield.EntityType, entityIDs []id.ID) squirrel.SelectBuilder {
	return builder().
		Select(
			"v.entity_id",
			"d.field_name",
			"d.field_label",
			"d.field_type",
			"v.field_value",
		).
		From(valueTable + " v").
		Join(definitionTable + " d ON d.id = v.field_definition_id").
		Where(squirrel.Eq{"v.organization_id": organizationID}).
		Where(squirrel.Eq{"v.entity_type": entityType}).
		Where(squirrel.Eq{"v.entity_id": entityIDs}).
		Where(squirrel.Eq{"d.is_active": true}).
		Where(squirrel.Eq{"d.show_in_list_view": true}).
		OrderBy("v.entity_id", "d.display_order ASC")
}

// GetForEntities returns the list-view projection source rows for a set of
// entity instances in one query.
func (r *ValueRepo) GetForEntities(ctx context.Context, organizationID string, entityType customfield.EntityType, entityIDs []id.ID) ([]*customfield.ListViewValue, error) {
	sql, args, err := r.getForEntitiesQuery(organizationID, entityType, entityIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list-view query: %w", err)
	}

	var rows []*customfield.ListViewValue
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		if isUndefinedTable(err) {
			return []*customfield.ListViewValue{}, nil
		}
		return nil, fmt.Errorf("get list-view values: %w", err)
	}

	return rows, nil
}
