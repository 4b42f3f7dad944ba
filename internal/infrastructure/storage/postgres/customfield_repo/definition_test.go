package customfield_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/id"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/domain/customfield"
)

func TestListQuery(t *testing.T) {
	repo := NewDefinitionRepo(nil)
	cols := strings.Join(repo.cols, ", ")

	tests := []struct {
		name       string
		activeOnly bool
		wantSQL    string
		wantArgs   []any
	}{
		{
			name:       "active only",
			activeOnly: true,
			wantSQL: "SELECT " + cols + " FROM custom_field_definitions" +
				" WHERE organization_id = $1 AND entity_type = $2 AND is_active = $3" +
				" ORDER BY display_order ASC, created_at ASC",
			wantArgs: []any{"org-1", customfield.EntityLeads, true},
		},
		{
			name:       "including inactive",
			activeOnly: false,
			wantSQL: "SELECT " + cols + " FROM custom_field_definitions" +
				" WHERE organization_id = $1 AND entity_type = $2" +
				" ORDER BY display_order ASC, created_at ASC",
			wantArgs: []any{"org-1", customfield.EntityLeads},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.listQuery("org-1", customfield.EntityLeads, tt.activeOnly).ToSql()
			if err != nil {
				t.Fatalf("ToSql failed: %v", err)
			}

			if sql != tt.wantSQL {
				t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", tt.wantSQL, sql)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("Args count mismatch\nwant: %d\ngot:  %d", len(tt.wantArgs), len(args))
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("Arg %d mismatch\nwant: %v\ngot:  %v", i, tt.wantArgs[i], args[i])
				}
			}
		})
	}
}

func TestUpdateQuery(t *testing.T) {
	repo := NewDefinitionRepo(nil)
	fieldID := id.New()
	now := time.Now().UTC()

	changes := map[string]any{
		"field_label": "Deal Size",
		"is_active":   false,
	}

	sql, args, err := repo.updateQuery(fieldID, "org-1", changes, now).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	// SetMap orders columns alphabetically; updated_at is appended after.
	wantPrefix := "UPDATE custom_field_definitions SET field_label = $1, is_active = $2, updated_at = $3" +
		" WHERE id = $4 AND organization_id = $5 RETURNING "
	if !strings.HasPrefix(sql, wantPrefix) {
		t.Errorf("SQL mismatch\nwant prefix: %s\ngot:         %s", wantPrefix, sql)
	}
	if !strings.Contains(sql, "RETURNING "+strings.Join(repo.cols, ", ")) {
		t.Errorf("expected RETURNING with all columns, got: %s", sql)
	}

	wantArgs := []any{"Deal Size", false, now, fieldID, "org-1"}
	if len(args) != len(wantArgs) {
		t.Fatalf("Args count mismatch\nwant: %d\ngot:  %d", len(wantArgs), len(args))
	}
	for i := range args {
		if args[i] != wantArgs[i] {
			t.Errorf("Arg %d mismatch\nwant: %v\ngot:  %v", i, wantArgs[i], args[i])
		}
	}
}
