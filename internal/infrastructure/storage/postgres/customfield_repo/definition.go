// Package customfield_repo provides PostgreSQL implementations for the
// custom-field repositories. All organizations share the same physical
// tables; every predicate is scoped by organization_id, which is the sole
// tenant-isolation mechanism at this layer.
package customfield_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/apperror"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/id"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/domain/customfield"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/infrastructure/storage/postgres"
)

const (
	definitionTable = "custom_field_definitions"
	valueTable      = "custom_field_values"

	// undefined_table: the tenant has no schema provisioned yet
	pgUndefinedTable = "42P01"
)

// Compile-time check that DefinitionRepo implements the domain interface.
var _ customfield.DefinitionRepository = (*DefinitionRepo)(nil)

// DefinitionRepo implements customfield.DefinitionRepository.
type DefinitionRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewDefinitionRepo creates a new definition repository.
func NewDefinitionRepo(txm *postgres.TxManager) *DefinitionRepo {
	return &DefinitionRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[customfield.FieldDefinition](),
	}
}

// builder returns a squirrel builder with PostgreSQL placeholder format.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// isUndefinedTable reports the "storage location does not exist yet" case.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}

func (r *DefinitionRepo) listQuery(organizationID string, entityType customfield.EntityType, activeOnly bool) squirrel.SelectBuilder {
	q := builder().
		Select(r.cols...).
		From(definitionTable).
		Where(squirrel.Eq{"organization_id": organizationID}).
		Where(squirrel.Eq{"entity_type": entityType}).
		OrderBy("display_order ASC", "created_at ASC")
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	return q
}

// List retrieves definitions ordered for display. A missing relation is a
// valid new-tenant state and yields an empty slice.
func (r *DefinitionRepo) List(ctx context.Context, organizationID string, entityType customfield.EntityType, activeOnly bool) ([]*customfield.FieldDefinition, error) {
	sql, args, err := r.listQuery(organizationID, entityType, activeOnly).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var defs []*customfield.FieldDefinition
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &defs, sql, args...); err != nil {
		if isUndefinedTable(err) {
			return []*customfield.FieldDefinition{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", definitionTable, err)
	}

	return defs, nil
}

// GetByID retrieves one definition within the organization scope.
func (r *DefinitionRepo) GetByID(ctx context.Context, fieldID id.ID, organizationID string) (*customfield.FieldDefinition, error) {
	q := builder().
		Select(r.cols...).
		From(definitionTable).
		Where(squirrel.Eq{"id": fieldID}).
		Where(squirrel.Eq{"organization_id": organizationID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	var def customfield.FieldDefinition
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &def, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("custom field", fieldID.String())
		}
		return nil, fmt.Errorf("get %s: %w", definitionTable, err)
	}

	return &def, nil
}

// Create inserts a new definition using its "db" tags.
func (r *DefinitionRepo) Create(ctx context.Context, def *customfield.FieldDefinition) error {
	data := postgres.StructToMap(def)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in definition")
	}

	q := builder().
		Insert(definitionTable).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", definitionTable, err)
	}

	return nil
}

func (r *DefinitionRepo) updateQuery(fieldID id.ID, organizationID string, changes map[string]any, now time.Time) squirrel.UpdateBuilder {
	return builder().
		Update(definitionTable).
		SetMap(changes).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": fieldID}).
		Where(squirrel.Eq{"organization_id": organizationID}).
		Suffix("RETURNING " + strings.Join(r.cols, ", "))
}

// Update applies the allow-listed column changes and returns the updated
// row, or NotFound when no row matches the (fieldID, organizationID) scope.
func (r *DefinitionRepo) Update(ctx context.Context, fieldID id.ID, organizationID string, changes map[string]any) (*customfield.FieldDefinition, error) {
	sql, args, err := r.updateQuery(fieldID, organizationID, changes, time.Now().UTC()).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	var def customfield.FieldDefinition
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &def, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("custom field", fieldID.String())
		}
		return nil, fmt.Errorf("update %s: %w", definitionTable, err)
	}

	return &def, nil
}

// SoftDelete flips is_active to false. Idempotent.
func (r *DefinitionRepo) SoftDelete(ctx context.Context, fieldID id.ID, organizationID string) (bool, error) {
	q := builder().
		Update(definitionTable).
		Set("is_active", false).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": fieldID}).
		Where(squirrel.Eq{"organization_id": organizationID})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build soft delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("soft delete %s: %w", definitionTable, err)
	}

	return result.RowsAffected() > 0, nil
}

// Delete removes the definition row itself.
func (r *DefinitionRepo) Delete(ctx context.Context, fieldID id.ID, organizationID string) (bool, error) {
	q := builder().
		Delete(definitionTable).
		Where(squirrel.Eq{"id": fieldID}).
		Where(squirrel.Eq{"organization_id": organizationID})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", definitionTable, err)
	}

	return result.RowsAffected() > 0, nil
}
