// Package main provides a CLI tool that creates the custom-field schema and
// optionally seeds demo field definitions.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/id"
	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/infrastructure/storage/postgres"
	"github.com/uppalcrm1/uppalcrm-app-sub000/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS custom_field_definitions (
	id                  UUID PRIMARY KEY,
	organization_id     TEXT NOT NULL,
	entity_type         TEXT NOT NULL,
	field_name          TEXT NOT NULL,
	field_label         TEXT NOT NULL,
	field_description   TEXT,
	field_type          TEXT NOT NULL,
	is_required         BOOLEAN NOT NULL DEFAULT FALSE,
	is_searchable       BOOLEAN NOT NULL DEFAULT FALSE,
	is_filterable       BOOLEAN NOT NULL DEFAULT FALSE,
	is_active           BOOLEAN NOT NULL DEFAULT TRUE,
	display_order       INTEGER NOT NULL DEFAULT 0,
	field_group         TEXT,
	placeholder         TEXT,
	show_in_list_view   BOOLEAN NOT NULL DEFAULT FALSE,
	show_in_detail_view BOOLEAN NOT NULL DEFAULT TRUE,
	show_in_create_form BOOLEAN NOT NULL DEFAULT TRUE,
	show_in_edit_form   BOOLEAN NOT NULL DEFAULT TRUE,
	overall_visibility  TEXT NOT NULL DEFAULT 'visible',
	visibility_logic    TEXT NOT NULL DEFAULT 'master_override',
	field_options       JSONB,
	validation_rules    JSONB,
	default_value       TEXT,
	created_by          TEXT NOT NULL DEFAULT '',
	updated_by          TEXT,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_cfd_org_entity
	ON custom_field_definitions (organization_id, entity_type);

CREATE UNIQUE INDEX IF NOT EXISTS uq_cfd_active_name
	ON custom_field_definitions (organization_id, entity_type, field_name)
	WHERE is_active;

CREATE TABLE IF NOT EXISTS custom_field_values (
	id                  UUID PRIMARY KEY,
	organization_id     TEXT NOT NULL,
	field_definition_id UUID NOT NULL REFERENCES custom_field_definitions (id),
	entity_type         TEXT NOT NULL,
	entity_id           UUID NOT NULL,
	field_value         JSONB,
	created_by          TEXT NOT NULL DEFAULT '',
	updated_by          TEXT,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_cfv_definition_entity
	ON custom_field_values (field_definition_id, entity_id);

CREATE INDEX IF NOT EXISTS idx_cfv_org_entity
	ON custom_field_values (organization_id, entity_type, entity_id);
`

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalw("failed to create schema", "error", err)
	}
	log.Info("schema is up to date")

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoDefinitions(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo definitions", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedDemoDefinitions(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	organizationID := os.Getenv("SEED_ORGANIZATION_ID")
	if organizationID == "" {
		organizationID = "demo-org"
	}

	type defSeed struct {
		entityType string
		name       string
		label      string
		fieldType  string
		required   bool
		inListView bool
		options    *string
		rules      *string
	}

	strPtr := func(s string) *string { return &s }

	defs := []defSeed{
		{"leads", "lead_source_detail", "Lead Source Detail", "text", false, true, nil, nil},
		{"leads", "budget", "Budget", "number", false, true, nil, strPtr(`{"min": 0, "max": 10000000}`)},
		{"leads", "favorite_color", "Favorite Color", "select", false, false,
			strPtr(`[{"value":"red","label":"Red"},{"value":"blue","label":"Blue"},{"value":"green","label":"Green"}]`), nil},
		{"contacts", "secondary_email", "Secondary Email", "email", false, false, nil, nil},
		{"contacts", "linkedin_url", "LinkedIn", "url", false, true, nil, nil},
		{"accounts", "industry_segment", "Industry Segment", "multiselect", false, true,
			strPtr(`[{"value":"saas","label":"SaaS"},{"value":"fintech","label":"FinTech"},{"value":"retail","label":"Retail"}]`), nil},
		{"transactions", "approved", "Approved", "boolean", false, true, nil, nil},
	}

	for i, d := range defs {
		_, err := pool.Exec(ctx, `
			INSERT INTO custom_field_definitions (
				id, organization_id, entity_type, field_name, field_label, field_type,
				is_required, show_in_list_view, display_order, field_options, validation_rules
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (organization_id, entity_type, field_name) WHERE is_active DO NOTHING
		`, id.New(), organizationID, d.entityType, d.name, d.label, d.fieldType,
			d.required, d.inListView, i, d.options, d.rules)
		if err != nil {
			log.Warnw("failed to seed definition", "field_name", d.name, "error", err)
		}
	}

	log.Infow("demo definitions seeded", "organization_id", organizationID)
	return nil
}
