/*
 * Copyright 2025 The doccat Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package overlay sequences installation and teardown of the comment overlay:
// the extended comment tables, the generated merge views and sync triggers,
// and the pass-through aliases for unextended kinds.
package overlay

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dbdoctools/doccat/internal/catalog"
	"github.com/dbdoctools/doccat/internal/config"
	"github.com/dbdoctools/doccat/internal/database"
	"github.com/dbdoctools/doccat/internal/generator"
)

// Orchestrator installs and uninstalls the overlay on one database.
type Orchestrator struct {
	db     *database.DB
	cfg    config.OverlayConfig
	logger *zap.Logger
}

func New(db *database.DB, cfg config.OverlayConfig, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{db: db, cfg: cfg, logger: logger}
}

// Install creates the overlay namespaces and extended tables, then walks the
// native catalog: tables with a same-named extended table get a merge view
// and its sync trigger (created together, in one transaction, so no view is
// ever left behind without its trigger); all other native tables get a
// pass-through alias. Install expects a clean namespace: it is re-runnable
// after a full teardown, not over a partial previous run. Callers must run it
// against a quiesced catalog; a concurrent metadata change between
// introspection and generation is not corrected.
func (o *Orchestrator) Install(ctx context.Context) error {
	h := o.db.Handler

	for _, schema := range []string{o.cfg.ExtendedSchema, o.cfg.DocSchema} {
		if _, err := o.db.ExecContext(ctx, h.CreateSchemaSQL(schema)); err != nil {
			return fmt.Errorf("failed to create schema %s: %w", schema, err)
		}
	}

	for _, kind := range catalog.Kinds() {
		if _, err := o.db.ExecContext(ctx, o.extendedTableSQL(kind)); err != nil {
			return fmt.Errorf("failed to create extended table %s: %w", kind.Table, err)
		}
	}

	natives, err := o.db.ListSchemaTables(ctx, o.cfg.NativeSchema)
	if err != nil {
		return fmt.Errorf("failed to list native catalog tables: %w", err)
	}
	if len(natives) == 0 {
		return &database.ErrMetadataNotFound{Schema: o.cfg.NativeSchema}
	}

	for _, table := range natives {
		kind, ok := catalog.Lookup(table)
		if !ok {
			if _, err := o.db.ExecContext(ctx, h.CreateAliasSQL(o.cfg.DocSchema, o.cfg.NativeSchema, table)); err != nil {
				return fmt.Errorf("failed to create alias for %s: %w", table, err)
			}
			o.logger.Debug("aliased native table", zap.String("table", table))
			continue
		}
		if err := o.installKind(ctx, kind); err != nil {
			return err
		}
	}

	o.logger.Info("overlay installed",
		zap.String("native", o.cfg.NativeSchema),
		zap.String("doc", o.cfg.DocSchema),
		zap.Int("native_tables", len(natives)))
	return nil
}

// installKind generates and executes the merge view and sync trigger for one
// extended kind, driven by the introspected column metadata of both sides.
func (o *Orchestrator) installKind(ctx context.Context, kind catalog.Kind) error {
	nativeCols, err := o.db.ColumnsOf(ctx, o.cfg.NativeSchema, kind.Table)
	if err != nil {
		return fmt.Errorf("failed introspecting native table %s: %w", kind.Table, err)
	}
	keyCols, err := o.db.KeyColumnsOf(ctx, o.cfg.ExtendedSchema, kind.Table)
	if err != nil {
		return fmt.Errorf("failed introspecting extended table %s: %w", kind.Table, err)
	}
	if len(keyCols) == 0 {
		return &generator.ErrKeyShapeViolation{Schema: o.cfg.ExtendedSchema, Table: kind.Table}
	}

	columns := make([]string, len(nativeCols))
	for i, c := range nativeCols {
		columns[i] = c.Name
	}

	view := generator.MergeView{
		DocSchema:      o.cfg.DocSchema,
		NativeSchema:   o.cfg.NativeSchema,
		ExtendedSchema: o.cfg.ExtendedSchema,
		Table:          kind.Table,
		Columns:        columns,
		CommentColumn:  o.cfg.CommentColumn,
		KeyColumns:     keyCols,
	}
	viewSQL, err := view.Render(o.db.Handler)
	if err != nil {
		return err
	}

	trigger := o.syncTrigger(kind)
	trigger.KeyColumns = keyCols
	stmts := append([]string{viewSQL}, o.db.Handler.RenderSyncTrigger(trigger)...)

	if err := o.db.ExecuteSQLStatements(ctx, stmts); err != nil {
		return fmt.Errorf("failed to install merge view for %s: %w", kind.Table, err)
	}
	o.logger.Debug("installed merge view and trigger", zap.String("table", kind.Table))
	return nil
}

// Uninstall tears the overlay down in strict dependency order: aliases,
// triggers, merge views, generated trigger procedures, extended tables, and
// finally the namespaces themselves. Namespace drops are restricted: a
// dependent object left behind surfaces as ErrTeardownBlocked instead of
// being cascaded away. An already-absent namespace is skipped, so a repeated
// teardown completes cleanly.
func (o *Orchestrator) Uninstall(ctx context.Context) error {
	h := o.db.Handler

	views, err := o.db.ListSchemaViews(ctx, o.cfg.DocSchema)
	if err != nil {
		return fmt.Errorf("failed to list overlay views: %w", err)
	}
	present := make(map[string]bool, len(views))
	for _, v := range views {
		present[v] = true
	}

	for _, view := range views {
		if _, ok := catalog.Lookup(view); ok {
			continue
		}
		if _, err := o.db.ExecContext(ctx, h.DropAliasSQL(o.cfg.DocSchema, view)); err != nil {
			return fmt.Errorf("failed to drop alias %s: %w", view, err)
		}
	}

	for _, kind := range catalog.Kinds() {
		if !present[kind.Table] {
			continue
		}
		if _, err := o.db.ExecContext(ctx, h.DropTriggerSQL(o.syncTrigger(kind))); err != nil {
			return fmt.Errorf("failed to drop sync trigger for %s: %w", kind.Table, err)
		}
	}

	for _, kind := range catalog.Kinds() {
		if !present[kind.Table] {
			continue
		}
		if _, err := o.db.ExecContext(ctx, h.DropAliasSQL(o.cfg.DocSchema, kind.Table)); err != nil {
			return fmt.Errorf("failed to drop merge view for %s: %w", kind.Table, err)
		}
	}

	for _, kind := range catalog.Kinds() {
		drop := h.DropProcedureSQL(o.syncTrigger(kind))
		if drop == "" {
			continue
		}
		if _, err := o.db.ExecContext(ctx, drop); err != nil {
			return fmt.Errorf("failed to drop trigger procedure for %s: %w", kind.Table, err)
		}
	}

	for _, kind := range catalog.Kinds() {
		drop := "DROP TABLE IF EXISTS " + generator.Qualify(h, o.cfg.ExtendedSchema, kind.Table)
		if _, err := o.db.ExecContext(ctx, drop); err != nil {
			return fmt.Errorf("failed to drop extended table %s: %w", kind.Table, err)
		}
	}

	for _, schema := range []string{o.cfg.DocSchema, o.cfg.ExtendedSchema} {
		exists, err := o.db.SchemaExists(ctx, schema)
		if err != nil {
			return fmt.Errorf("failed to check schema %s: %w", schema, err)
		}
		if !exists {
			o.logger.Debug("schema already absent", zap.String("schema", schema))
			continue
		}
		if _, err := o.db.ExecContext(ctx, h.DropSchemaSQL(schema)); err != nil {
			return &ErrTeardownBlocked{Object: schema, Err: err}
		}
	}

	o.logger.Info("overlay uninstalled", zap.String("doc", o.cfg.DocSchema))
	return nil
}

func (o *Orchestrator) syncTrigger(kind catalog.Kind) generator.SyncTrigger {
	return generator.SyncTrigger{
		DocSchema:      o.cfg.DocSchema,
		ExtendedSchema: o.cfg.ExtendedSchema,
		Table:          kind.Table,
		CommentColumn:  o.cfg.CommentColumn,
		KeyColumns:     kind.KeyNames(),
		CarryColumns:   kind.CarryNames(),
	}
}

// extendedTableSQL renders the fixed-shape extended comment table for one
// kind: the key tuple, any carry columns, and the long-form comment column.
func (o *Orchestrator) extendedTableSQL(kind catalog.Kind) string {
	h := o.db.Handler

	var defs []string
	for _, c := range kind.Keys {
		defs = append(defs, h.QuoteIdentifier(c.Name)+" "+h.ColumnType(c.Type)+" NOT NULL")
	}
	for _, c := range kind.Carry {
		defs = append(defs, h.QuoteIdentifier(c.Name)+" "+h.ColumnType(c.Type))
	}
	defs = append(defs, h.QuoteIdentifier(o.cfg.CommentColumn)+" "+h.ColumnType(catalog.TypeText))

	keys := make([]string, len(kind.Keys))
	hasRowType := false
	for i, c := range kind.Keys {
		keys[i] = h.QuoteIdentifier(c.Name)
		if c.Name == "rowtype" {
			hasRowType = true
		}
	}
	defs = append(defs, "PRIMARY KEY ("+strings.Join(keys, ", ")+")")

	if hasRowType {
		var rowTypes []string
		for rt := range catalog.RowTypes {
			rowTypes = append(rowTypes, "'"+rt+"'")
		}
		sort.Strings(rowTypes)
		defs = append(defs, fmt.Sprintf("CHECK (%s IN (%s))",
			h.QuoteIdentifier("rowtype"), strings.Join(rowTypes, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n)",
		generator.Qualify(h, o.cfg.ExtendedSchema, kind.Table),
		strings.Join(defs, ",\n    "))
}
