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

// Package store writes extended comments directly against their backing
// tables, applying the same routing policy the generated triggers enumerate.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dbdoctools/doccat/internal/catalog"
	"github.com/dbdoctools/doccat/internal/config"
	"github.com/dbdoctools/doccat/internal/database"
	"github.com/dbdoctools/doccat/internal/generator"
)

// KeyValue is one key-column value of an extended comment row.
type KeyValue struct {
	Column string
	Value  string
}

// Store applies comment writes to the extended tables.
type Store struct {
	db  *database.DB
	cfg config.OverlayConfig
}

func New(db *database.DB, cfg config.OverlayConfig) *Store {
	return &Store{db: db, cfg: cfg}
}

// Apply routes one comment write for the identified object. A nil or empty
// comment clears the extended row; a non-empty comment inserts or updates it.
// Carry values are only consulted on insert. The resolved operation is
// returned so callers can report what happened.
func (s *Store) Apply(ctx context.Context, kind catalog.Kind, key []KeyValue, carry []KeyValue, comment *string) (catalog.CommentOp, error) {
	if err := s.validateKey(kind, key); err != nil {
		return catalog.OpNoop, err
	}

	// Empty string is equivalent to absent throughout the overlay.
	if comment != nil && *comment == "" {
		comment = nil
	}

	exists, err := s.rowExists(ctx, kind, key)
	if err != nil {
		return catalog.OpNoop, err
	}

	op := catalog.CommentAction(exists, comment == nil)
	switch op {
	case catalog.OpInsert:
		err = s.insert(ctx, kind, key, carry, *comment)
	case catalog.OpUpdate:
		err = s.update(ctx, kind, key, *comment)
	case catalog.OpDelete:
		err = s.delete(ctx, kind, key)
	}
	if err != nil {
		return catalog.OpNoop, err
	}
	return op, nil
}

// Get returns the extended comment for the identified object, or nil when no
// extended row exists.
func (s *Store) Get(ctx context.Context, kind catalog.Kind, key []KeyValue) (*string, error) {
	if err := s.validateKey(kind, key); err != nil {
		return nil, err
	}

	h := s.db.Handler
	where, args := s.keyPredicate(key, 1)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		h.QuoteIdentifier(s.cfg.CommentColumn),
		generator.Qualify(h, s.cfg.ExtendedSchema, kind.Table),
		where)

	var comment sql.NullString
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&comment)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read extended comment for %s: %w", kind.Table, err)
	}
	if !comment.Valid {
		return nil, nil
	}
	return &comment.String, nil
}

func (s *Store) validateKey(kind catalog.Kind, key []KeyValue) error {
	names := kind.KeyNames()
	if len(key) != len(names) {
		return fmt.Errorf("kind %s requires key columns %s", kind.Table, strings.Join(names, ", "))
	}
	for i, kv := range key {
		if kv.Column != names[i] {
			return fmt.Errorf("kind %s requires key columns %s in order", kind.Table, strings.Join(names, ", "))
		}
	}
	for _, col := range kind.Keys {
		if col.Type != catalog.TypeChar1 || col.Name != "rowtype" {
			continue
		}
		for _, kv := range key {
			if kv.Column == col.Name {
				if _, ok := catalog.RowTypes[kv.Value]; !ok {
					return fmt.Errorf("invalid row type %q for kind %s", kv.Value, kind.Table)
				}
			}
		}
	}
	return nil
}

// keyPredicate builds the WHERE clause for a key lookup, numbering
// placeholders from first.
func (s *Store) keyPredicate(key []KeyValue, first int) (string, []interface{}) {
	h := s.db.Handler
	conds := make([]string, len(key))
	args := make([]interface{}, len(key))
	for i, kv := range key {
		conds[i] = fmt.Sprintf("%s = %s", h.QuoteIdentifier(kv.Column), h.Placeholder(first+i))
		args[i] = kv.Value
	}
	return strings.Join(conds, " AND "), args
}

func (s *Store) rowExists(ctx context.Context, kind catalog.Kind, key []KeyValue) (bool, error) {
	h := s.db.Handler
	where, args := s.keyPredicate(key, 1)
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s",
		generator.Qualify(h, s.cfg.ExtendedSchema, kind.Table), where)

	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check extended row for %s: %w", kind.Table, err)
	}
	return true, nil
}

func (s *Store) insert(ctx context.Context, kind catalog.Kind, key []KeyValue, carry []KeyValue, comment string) error {
	h := s.db.Handler
	cols := make([]string, 0, len(key)+len(carry)+1)
	vals := make([]string, 0, cap(cols))
	args := make([]interface{}, 0, cap(cols))
	for _, kv := range append(append([]KeyValue(nil), key...), carry...) {
		cols = append(cols, h.QuoteIdentifier(kv.Column))
		vals = append(vals, h.Placeholder(len(args)+1))
		args = append(args, kv.Value)
	}
	cols = append(cols, h.QuoteIdentifier(s.cfg.CommentColumn))
	vals = append(vals, h.Placeholder(len(args)+1))
	args = append(args, comment)

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		generator.Qualify(h, s.cfg.ExtendedSchema, kind.Table),
		strings.Join(cols, ", "),
		strings.Join(vals, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert extended comment for %s: %w", kind.Table, err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, kind catalog.Kind, key []KeyValue, comment string) error {
	h := s.db.Handler
	where, args := s.keyPredicate(key, 2)
	query := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s",
		generator.Qualify(h, s.cfg.ExtendedSchema, kind.Table),
		h.QuoteIdentifier(s.cfg.CommentColumn),
		h.Placeholder(1),
		where)
	allArgs := append([]interface{}{comment}, args...)
	if _, err := s.db.ExecContext(ctx, query, allArgs...); err != nil {
		return fmt.Errorf("failed to update extended comment for %s: %w", kind.Table, err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, kind catalog.Kind, key []KeyValue) error {
	h := s.db.Handler
	where, args := s.keyPredicate(key, 1)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s",
		generator.Qualify(h, s.cfg.ExtendedSchema, kind.Table), where)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete extended comment for %s: %w", kind.Table, err)
	}
	return nil
}
