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

// Package syncer migrates comment data between the extended store and the
// native comment facility, in both directions.
package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dbdoctools/doccat/internal/catalog"
	"github.com/dbdoctools/doccat/internal/config"
	"github.com/dbdoctools/doccat/internal/database"
	"github.com/dbdoctools/doccat/internal/generator"
)

// Syncer runs export and import against one database.
type Syncer struct {
	db     *database.DB
	cfg    config.OverlayConfig
	logger *zap.Logger
}

func New(db *database.DB, cfg config.OverlayConfig, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{db: db, cfg: cfg, logger: logger}
}

// ExportResult is the rendered native comment statements plus the number of
// comments that were shortened to the native length ceiling.
type ExportResult struct {
	Statements []string
	Truncated  int
}

// Export re-renders every non-null extended comment into the native
// comment-setting statement for its kind. The result is recomputed fresh on
// every call and is deterministic: rows are read in key order, so two exports
// over unchanged data yield identical statement sets. Kinds the native store
// cannot comment on (routine parameters) are skipped.
func (s *Syncer) Export(ctx context.Context) (*ExportResult, error) {
	result := &ExportResult{}
	for _, kind := range catalog.Kinds() {
		if !kind.Exportable() {
			continue
		}
		if err := s.exportKind(ctx, kind, result); err != nil {
			return nil, err
		}
	}
	s.logger.Info("export rendered",
		zap.Int("statements", len(result.Statements)),
		zap.Int("truncated", result.Truncated))
	return result, nil
}

func (s *Syncer) exportKind(ctx context.Context, kind catalog.Kind, result *ExportResult) error {
	h := s.db.Handler
	keys := kind.KeyNames()

	selectCols := make([]string, 0, len(keys)+2)
	for _, key := range keys {
		selectCols = append(selectCols, h.QuoteIdentifier(key))
	}
	if kind.RoutineTyped {
		selectCols = append(selectCols, h.QuoteIdentifier("routinetype"))
	}
	remarks := h.QuoteIdentifier(s.cfg.CommentColumn)
	selectCols = append(selectCols, remarks)

	orderCols := make([]string, len(keys))
	for i, key := range keys {
		orderCols[i] = h.QuoteIdentifier(key)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL AND %s <> '' ORDER BY %s",
		strings.Join(selectCols, ", "),
		generator.Qualify(h, s.cfg.ExtendedSchema, kind.Table),
		remarks, remarks,
		strings.Join(orderCols, ", "))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to read extended comments of %s: %w", kind.Table, err)
	}
	defer rows.Close()

	for rows.Next() {
		keyVals := make([]string, len(keys))
		dests := make([]interface{}, 0, len(selectCols))
		for i := range keyVals {
			dests = append(dests, &keyVals[i])
		}
		// Carry columns are nullable: a directly-written routine comment may
		// have no routine type. A null flag falls through to the function
		// target in renderCommentOn.
		var routineType sql.NullString
		if kind.RoutineTyped {
			dests = append(dests, &routineType)
		}
		var text string
		dests = append(dests, &text)
		if err := rows.Scan(dests...); err != nil {
			return fmt.Errorf("failed to scan extended comment of %s: %w", kind.Table, err)
		}

		literal, truncated := EncodeComment(text, s.cfg.NativeCommentLimit)
		if truncated {
			result.Truncated++
			s.logger.Warn("comment truncated to native length ceiling",
				zap.String("kind", kind.Table),
				zap.Strings("key", keyVals),
				zap.Int("limit", s.cfg.NativeCommentLimit))
		}
		result.Statements = append(result.Statements, renderCommentOn(kind, keyVals, routineType.String, literal))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed iterating extended comments of %s: %w", kind.Table, err)
	}
	return nil
}

// renderCommentOn builds one native comment-setting statement. Identifier
// parts are double-quoted; routines pick their target keyword from the stored
// routine-type flag.
func renderCommentOn(kind catalog.Kind, keyVals []string, routineType, literal string) string {
	target := kind.CommentTarget
	if kind.RoutineTyped {
		if routineType == catalog.RoutineTypeProcedure {
			target = "SPECIFIC PROCEDURE"
		} else {
			target = "SPECIFIC FUNCTION"
		}
	}

	parts := make([]string, len(keyVals))
	for i, v := range keyVals {
		parts[i] = QuoteNativeIdentifier(v)
	}
	return fmt.Sprintf("COMMENT ON %s %s IS %s;", target, strings.Join(parts, "."), literal)
}
