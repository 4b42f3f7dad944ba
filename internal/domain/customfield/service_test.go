package customfield

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/apperror"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/id"
)

// --- In-memory fakes ---

type fakeDefinitionRepo struct {
	defs    map[id.ID]*FieldDefinition
	deleted []id.ID
}

func newFakeDefinitionRepo() *fakeDefinitionRepo {
	return &fakeDefinitionRepo{defs: make(map[id.ID]*FieldDefinition)}
}

func (r *fakeDefinitionRepo) List(_ context.Context, organizationID string, entityType EntityType, activeOnly bool) ([]*FieldDefinition, error) {
	var out []*FieldDefinition
	for _, def := range r.defs {
		if def.OrganizationID != organizationID || def.EntityType != entityType {
			continue
		}
		if activeOnly && !def.IsActive {
			continue
		}
		out = append(out, def)
	}
	return out, nil
}

func (r *fakeDefinitionRepo) GetByID(_ context.Context, fieldID id.ID, organizationID string) (*FieldDefinition, error) {
	def, ok := r.defs[fieldID]
	if !ok || def.OrganizationID != organizationID {
		return nil, apperror.NewNotFound("custom field", fieldID.String())
	}
	return def, nil
}

func (r *fakeDefinitionRepo) Create(_ context.Context, def *FieldDefinition) error {
	r.defs[def.ID] = def
	return nil
}

func (r *fakeDefinitionRepo) Update(_ context.Context, fieldID id.ID, organizationID string, changes map[string]any) (*FieldDefinition, error) {
	def, ok := r.defs[fieldID]
	if !ok || def.OrganizationID != organizationID {
		return nil, apperror.NewNotFound("custom field", fieldID.String())
	}
	if label, ok := changes["field_label"].(string); ok {
		def.FieldLabel = label
	}
	if active, ok := changes["is_active"].(bool); ok {
		def.IsActive = active
	}
	return def, nil
}

func (r *fakeDefinitionRepo) SoftDelete(_ context.Context, fieldID id.ID, organizationID string) (bool, error) {
	def, ok := r.defs[fieldID]
	if !ok || def.OrganizationID != organizationID {
		return false, nil
	}
	def.IsActive = false
	return true, nil
}

func (r *fakeDefinitionRepo) Delete(_ context.Context, fieldID id.ID, organizationID string) (bool, error) {
	def, ok := r.defs[fieldID]
	if !ok || def.OrganizationID != organizationID {
		return false, nil
	}
	delete(r.defs, fieldID)
	r.deleted = append(r.deleted, fieldID)
	return true, nil
}

type fakeValueRepo struct {
	values map[id.ID]*FieldValue // keyed by value id
	// purgeLog records DeleteForDefinition calls in order, for the
	// permanent-delete ordering assertions.
	purgeLog []id.ID
}

func newFakeValueRepo() *fakeValueRepo {
	return &fakeValueRepo{values: make(map[id.ID]*FieldValue)}
}

func (r *fakeValueRepo) GetForEntity(_ context.Context, _ string, _ EntityType, _ id.ID) ([]*EntityFieldValue, error) {
	return nil, nil
}

func (r *fakeValueRepo) Upsert(_ context.Context, value *FieldValue) (*FieldValue, error) {
	for _, existing := range r.values {
		if existing.FieldDefinitionID == value.FieldDefinitionID && existing.EntityID == value.EntityID {
			existing.FieldValue = value.FieldValue
			existing.UpdatedBy = value.UpdatedBy
			return existing, nil
		}
	}
	value.ID = id.New()
	r.values[value.ID] = value
	return value, nil
}

func (r *fakeValueRepo) Delete(_ context.Context, valueID id.ID, organizationID string) (bool, error) {
	value, ok := r.values[valueID]
	if !ok || value.OrganizationID != organizationID {
		return false, nil
	}
	delete(r.values, valueID)
	return true, nil
}

func (r *fakeValueRepo) DeleteForEntity(_ context.Context, organizationID string, entityType EntityType, entityID id.ID) (int64, error) {
	var count int64
	for valueID, value := range r.values {
		if value.OrganizationID == organizationID && value.EntityType == entityType && value.EntityID == entityID {
			delete(r.values, valueID)
			count++
		}
	}
	return count, nil
}

func (r *fakeValueRepo) DeleteForDefinition(_ context.Context, fieldDefinitionID id.ID, organizationID string) (int64, error) {
	r.purgeLog = append(r.purgeLog, fieldDefinitionID)
	var count int64
	for valueID, value := range r.values {
		if value.OrganizationID == organizationID && value.FieldDefinitionID == fieldDefinitionID {
			delete(r.values, valueID)
			count++
		}
	}
	return count, nil
}

func (r *fakeValueRepo) GetForEntities(_ context.Context, _ string, _ EntityType, _ []id.ID) ([]*ListViewValue, error) {
	return nil, nil
}

// fakeTxManager runs the function directly; calls records invocations.
type fakeTxManager struct {
	calls int
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

func newTestService() (*Service, *fakeDefinitionRepo, *fakeValueRepo, *fakeTxManager) {
	defs := newFakeDefinitionRepo()
	values := newFakeValueRepo()
	txm := &fakeTxManager{}
	return NewService(defs, values, txm), defs, values, txm
}

func mustCreate(t *testing.T, svc *Service, params NewDefinitionParams) *FieldDefinition {
	t.Helper()
	def, err := svc.CreateDefinition(context.Background(), params)
	require.NoError(t, err)
	return def
}

// --- Tests ---

func TestCreateDefinition_DuplicateActiveName(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	params := NewDefinitionParams{
		OrganizationID: "org-1",
		EntityType:     EntityLeads,
		FieldName:      "budget",
		FieldType:      TypeNumber,
	}
	mustCreate(t, svc, params)

	_, err := svc.CreateDefinition(ctx, params)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestCreateDefinition_SoftDeletedNameIsReusable(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	params := NewDefinitionParams{
		OrganizationID: "org-1",
		EntityType:     EntityLeads,
		FieldName:      "budget",
		FieldType:      TypeNumber,
	}
	first := mustCreate(t, svc, params)

	deleted, err := svc.SoftDeleteDefinition(ctx, first.ID, "org-1")
	require.NoError(t, err)
	require.True(t, deleted)

	second, err := svc.CreateDefinition(ctx, params)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestUpdateDefinition_EmptyPatch(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.UpdateDefinition(context.Background(), id.New(), "org-1", DefinitionPatch{}, "user-1")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNoFieldsToUpdate, appErr.Code)
}

func TestSetValue_ValidatesBeforeWrite(t *testing.T) {
	svc, _, values, _ := newTestService()
	ctx := context.Background()

	def := mustCreate(t, svc, NewDefinitionParams{
		OrganizationID: "org-1",
		EntityType:     EntityLeads,
		FieldName:      "work_email",
		FieldType:      TypeEmail,
	})

	_, err := svc.SetValue(ctx, SetValueParams{
		OrganizationID:    "org-1",
		FieldDefinitionID: def.ID,
		EntityType:        EntityLeads,
		EntityID:          id.New(),
		Value:             "not-an-email",
		UserID:            "user-1",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, values.values, "rejected value must not be written")
}

func TestSetValue_EntityTypeMismatch(t *testing.T) {
	svc, _, values, _ := newTestService()
	ctx := context.Background()

	def := mustCreate(t, svc, NewDefinitionParams{
		OrganizationID: "org-1",
		EntityType:     EntityLeads,
		FieldName:      "lead_score",
		FieldType:      TypeNumber,
	})

	_, err := svc.SetValue(ctx, SetValueParams{
		OrganizationID:    "org-1",
		FieldDefinitionID: def.ID,
		EntityType:        EntityContacts,
		EntityID:          id.New(),
		Value:             42,
		UserID:            "user-1",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, values.values)
}

func TestSetValue_UpsertOverwrites(t *testing.T) {
	svc, _, values, _ := newTestService()
	ctx := context.Background()
	entityID := id.New()

	def := mustCreate(t, svc, NewDefinitionParams{
		OrganizationID: "org-1",
		EntityType:     EntityLeads,
		FieldName:      "budget",
		FieldType:      TypeNumber,
	})

	params := SetValueParams{
		OrganizationID:    "org-1",
		FieldDefinitionID: def.ID,
		EntityType:        EntityLeads,
		EntityID:          entityID,
		Value:             json.Number("100"),
		UserID:            "user-1",
	}

	first, err := svc.SetValue(ctx, params)
	require.NoError(t, err)

	params.Value = json.Number("250")
	second, err := svc.SetValue(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same (definition, entity) row is overwritten")
	assert.Equal(t, json.Number("250"), second.FieldValue.Data)
	assert.Len(t, values.values, 1)
}

func TestSetMultipleValues_IgnoresUnknownNames(t *testing.T) {
	svc, _, values, _ := newTestService()
	ctx := context.Background()

	mustCreate(t, svc, NewDefinitionParams{
		OrganizationID: "org-1",
		EntityType:     EntityLeads,
		FieldName:      "budget",
		FieldType:      TypeNumber,
	})

	written, err := svc.SetMultipleValues(ctx, "org-1", EntityLeads, id.New(), []FieldAssignment{
		{Name: "budget", Value: json.Number("500")},
		{Name: "first_name", Value: "Jane"}, // a core column, not a custom field
		{Name: "typo_fieldxx", Value: "whatever"},
	}, "user-1")
	require.NoError(t, err)

	require.Len(t, written, 1)
	assert.Equal(t, json.Number("500"), written[0].FieldValue.Data)
	assert.Len(t, values.values, 1)
}

func TestSetMultipleValues_CollectsAllErrorsBeforeWriting(t *testing.T) {
	svc, _, values, _ := newTestService()
	ctx := context.Background()

	mustCreate(t, svc, NewDefinitionParams{
		OrganizationID: "org-1",
		EntityType:     EntityLeads,
		FieldName:      "work_email",
		FieldType:      TypeEmail,
	})
	mustCreate(t, svc, NewDefinitionParams{
		OrganizationID: "org-1",
		EntityType:     EntityLeads,
		FieldName:      "budget",
		FieldType:      TypeNumber,
	})

	_, err := svc.SetMultipleValues(ctx, "org-1", EntityLeads, id.New(), []FieldAssignment{
		{Name: "work_email", Value: "nope"},
		{Name: "budget", Value: "not-a-number"},
	}, "user-1")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	messages, ok := appErr.Details["errors"].([]string)
	require.True(t, ok)
	assert.Len(t, messages, 2, "every offending field reported at once")

	assert.Empty(t, values.values, "no partial writes on validation failure")
}

func TestSetMultipleValues_EmptyInput(t *testing.T) {
	svc, _, _, _ := newTestService()

	written, err := svc.SetMultipleValues(context.Background(), "org-1", EntityLeads, id.New(), nil, "user-1")
	require.NoError(t, err)
	assert.Empty(t, written)
}

func TestSetMultipleValues_ReturnsInputOrder(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	defB := mustCreate(t, svc, NewDefinitionParams{
		OrganizationID: "org-1", EntityType: EntityLeads,
		FieldName: "banana", FieldType: TypeText,
	})
	defA := mustCreate(t, svc, NewDefinitionParams{
		OrganizationID: "org-1", EntityType: EntityLeads,
		FieldName: "apple", FieldType: TypeText,
	})

	written, err := svc.SetMultipleValues(ctx, "org-1", EntityLeads, id.New(), []FieldAssignment{
		{Name: "banana", Value: "x"},
		{Name: "apple", Value: "y"},
	}, "user-1")
	require.NoError(t, err)

	require.Len(t, written, 2)
	assert.Equal(t, defB.ID, written[0].FieldDefinitionID)
	assert.Equal(t, defA.ID, written[1].FieldDefinitionID)
}

func TestPermanentDelete_PurgesValuesFirstInTransaction(t *testing.T) {
	svc, defs, values, txm := newTestService()
	ctx := context.Background()
	entityID := id.New()

	def := mustCreate(t, svc, NewDefinitionParams{
		OrganizationID: "org-1",
		EntityType:     EntityLeads,
		FieldName:      "budget",
		FieldType:      TypeNumber,
	})

	_, err := svc.SetValue(ctx, SetValueParams{
		OrganizationID:    "org-1",
		FieldDefinitionID: def.ID,
		EntityType:        EntityLeads,
		EntityID:          entityID,
		Value:             json.Number("10"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.PermanentlyDeleteDefinition(ctx, def.ID, "org-1"))

	assert.Equal(t, 1, txm.calls, "both deletes run in one transaction")
	assert.Equal(t, []id.ID{def.ID}, values.purgeLog, "values are purged before the definition row")
	assert.Equal(t, []id.ID{def.ID}, defs.deleted)
	assert.Empty(t, values.values)
}

func TestPermanentDelete_UnknownDefinition(t *testing.T) {
	svc, _, _, _ := newTestService()

	err := svc.PermanentlyDeleteDefinition(context.Background(), id.New(), "org-1")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSoftDelete_RetainsValues(t *testing.T) {
	svc, _, values, _ := newTestService()
	ctx := context.Background()

	def := mustCreate(t, svc, NewDefinitionParams{
		OrganizationID: "org-1",
		EntityType:     EntityLeads,
		FieldName:      "budget",
		FieldType:      TypeNumber,
	})

	_, err := svc.SetValue(ctx, SetValueParams{
		OrganizationID:    "org-1",
		FieldDefinitionID: def.ID,
		EntityType:        EntityLeads,
		EntityID:          id.New(),
		Value:             json.Number("10"),
	})
	require.NoError(t, err)

	deleted, err := svc.SoftDeleteDefinition(ctx, def.ID, "org-1")
	require.NoError(t, err)
	require.True(t, deleted)

	assert.Len(t, values.values, 1, "soft delete keeps stored values")

	active, err := svc.ListDefinitions(ctx, "org-1", EntityLeads, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.ListDefinitions(ctx, "org-1", EntityLeads, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetValuesForEntities_EmptyInput(t *testing.T) {
	svc, _, _, _ := newTestService()

	projection, err := svc.GetValuesForEntities(context.Background(), "org-1", EntityLeads, nil)
	require.NoError(t, err)
	assert.NotNil(t, projection)
	assert.Empty(t, projection)
}

func TestGetValuesForEntities_GroupsByEntity(t *testing.T) {
	defs := newFakeDefinitionRepo()
	values := newFakeValueRepo()
	svc := NewService(defs, values, &fakeTxManager{})

	entityA, entityB := id.New(), id.New()
	rowsRepo := &listViewValueRepo{
		fakeValueRepo: values,
		rows: []*ListViewValue{
			{EntityID: entityA, FieldName: "budget", FieldLabel: "Budget", FieldType: TypeNumber, Value: Payload{Data: json.Number("100")}},
			{EntityID: entityA, FieldName: "color", FieldLabel: "Color", FieldType: TypeSelect, Value: Payload{Data: "red"}},
			{EntityID: entityB, FieldName: "budget", FieldLabel: "Budget", FieldType: TypeNumber, Value: Payload{Data: json.Number("7")}},
		},
	}
	svc = NewService(defs, rowsRepo, &fakeTxManager{})

	projection, err := svc.GetValuesForEntities(context.Background(), "org-1", EntityLeads, []id.ID{entityA, entityB})
	require.NoError(t, err)

	require.Len(t, projection, 2)
	assert.Equal(t, ListViewField{Label: "Budget", Type: TypeNumber, Value: json.Number("100")}, projection[entityA]["budget"])
	assert.Equal(t, ListViewField{Label: "Color", Type: TypeSelect, Value: "red"}, projection[entityA]["color"])
	assert.Equal(t, ListViewField{Label: "Budget", Type: TypeNumber, Value: json.Number("7")}, projection[entityB]["budget"])
}

// listViewValueRepo overrides GetForEntities with canned projection rows.
type listViewValueRepo struct {
	*fakeValueRepo
	rows []*ListViewValue
}

func (r *listViewValueRepo) GetForEntities(_ context.Context, _ string, _ EntityType, _ []id.ID) ([]*ListViewValue, error) {
	return r.rows, nil
}
