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

// Package generator builds the DDL for merge views and their instead-of-update
// sync triggers from introspected column metadata. Templates are plain values
// describing what to build; rendering is a pure function of the template and a
// dialect quoter, so generation is testable without a database.
package generator

import (
	"fmt"
	"strings"
)

// Quoter quotes a single SQL identifier in the target dialect.
type Quoter interface {
	QuoteIdentifier(name string) string
}

// MergeView describes the view that presents native catalog rows with the
// comment column overridden by the extended store.
type MergeView struct {
	DocSchema      string
	NativeSchema   string
	ExtendedSchema string
	// Table is the shared name of the native table, the extended table, and
	// the generated view.
	Table string
	// Columns is the native table's full column list in declared order. The
	// view's output matches it exactly, name for name.
	Columns []string
	// CommentColumn is the designated comment column substituted with the
	// coalesced extended value.
	CommentColumn string
	// KeyColumns is the extended table's declared key, in key order.
	KeyColumns []string
}

// Render produces the CREATE VIEW statement. The native side is aliased n,
// the extended side e, joined with a left join on every key column so native
// rows without an extended counterpart still appear.
func (v MergeView) Render(q Quoter) (string, error) {
	if len(v.KeyColumns) == 0 {
		return "", &ErrKeyShapeViolation{Schema: v.ExtendedSchema, Table: v.Table}
	}
	if len(v.Columns) == 0 {
		return "", fmt.Errorf("merge view for %s: native column list is empty", v.Table)
	}

	native := make(map[string]bool, len(v.Columns))
	for _, col := range v.Columns {
		native[col] = true
	}
	if !native[v.CommentColumn] {
		return "", fmt.Errorf("merge view for %s: native table has no %s column", v.Table, v.CommentColumn)
	}
	for _, key := range v.KeyColumns {
		if !native[key] {
			return "", fmt.Errorf("merge view for %s: key column %s missing from native table", v.Table, key)
		}
	}

	selects := make([]string, len(v.Columns))
	for i, col := range v.Columns {
		quoted := q.QuoteIdentifier(col)
		if col == v.CommentColumn {
			selects[i] = fmt.Sprintf("COALESCE(e.%s, n.%s) AS %s", quoted, quoted, quoted)
		} else {
			selects[i] = "n." + quoted
		}
	}

	conds := make([]string, len(v.KeyColumns))
	for i, key := range v.KeyColumns {
		quoted := q.QuoteIdentifier(key)
		conds[i] = fmt.Sprintf("n.%s = e.%s", quoted, quoted)
	}

	return fmt.Sprintf(
		"CREATE VIEW %s AS\nSELECT %s\nFROM %s n\nLEFT JOIN %s e\n  ON %s",
		Qualify(q, v.DocSchema, v.Table),
		strings.Join(selects, ",\n       "),
		Qualify(q, v.NativeSchema, v.Table),
		Qualify(q, v.ExtendedSchema, v.Table),
		strings.Join(conds, "\n AND "),
	), nil
}

// SyncTrigger describes the instead-of-update trigger that makes the merge
// view's comment column writable by routing updates to the extended table.
// The trigger body itself is dialect-specific and rendered by the dialect
// handler; the template only says what to build.
type SyncTrigger struct {
	DocSchema      string
	ExtendedSchema string
	Table          string
	CommentColumn  string
	// KeyColumns identify the extended row, taken from the old view row.
	KeyColumns []string
	// CarryColumns are copied from the old view row on insert.
	CarryColumns []string
}

// Name is the generated trigger's name.
func (t SyncTrigger) Name() string {
	return t.Table + "_" + t.CommentColumn + "_sync"
}

// ProcName is the name of the trigger procedure, for dialects that back
// triggers with a separate routine.
func (t SyncTrigger) ProcName() string {
	return t.Name() + "_fn"
}

// Qualify renders a schema-qualified identifier.
func Qualify(q Quoter, schema, name string) string {
	return q.QuoteIdentifier(schema) + "." + q.QuoteIdentifier(name)
}
