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
package syncer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dbdoctools/doccat/internal/catalog"
	"github.com/dbdoctools/doccat/internal/generator"
)

// ImportResult reports which kinds were refreshed. When the run fails
// partway, Completed lists the kinds already committed and Failed names the
// kind whose batch was aborted.
type ImportResult struct {
	Completed []string
	Failed    string
}

// Import bulk-replaces the extended store with the native catalog's current
// comments, one transaction per kind. It is a full mirror, not a merge:
// extended rows without a native counterpart, and text beyond the native
// length ceiling, are unrecoverably lost. A failure aborts the current kind's
// batch but keeps kinds already committed.
func (s *Syncer) Import(ctx context.Context) (*ImportResult, error) {
	result := &ImportResult{}
	for _, kind := range catalog.Kinds() {
		stmts := s.importStatements(kind)
		if err := s.db.ExecuteSQLStatements(ctx, stmts); err != nil {
			result.Failed = kind.Table
			return result, fmt.Errorf("import of %s aborted (%d kinds already committed): %w",
				kind.Table, len(result.Completed), err)
		}
		result.Completed = append(result.Completed, kind.Table)
		s.logger.Info("imported native comments", zap.String("kind", kind.Table))
	}
	return result, nil
}

// importStatements builds the per-kind delete-then-copy batch. Native rows
// with a null or empty comment are skipped: a present-but-empty native
// comment is equivalent to absent.
func (s *Syncer) importStatements(kind catalog.Kind) []string {
	h := s.db.Handler
	ext := generator.Qualify(h, s.cfg.ExtendedSchema, kind.Table)
	native := generator.Qualify(h, s.cfg.NativeSchema, kind.Table)
	remarks := h.QuoteIdentifier(s.cfg.CommentColumn)

	insertCols := make([]string, 0, len(kind.Keys)+len(kind.Carry)+1)
	selectExprs := make([]string, 0, cap(insertCols))
	for _, col := range kind.Keys {
		insertCols = append(insertCols, h.QuoteIdentifier(col.Name))
		selectExprs = append(selectExprs, s.importKeyExpr(kind, col))
	}
	for _, col := range kind.Carry {
		insertCols = append(insertCols, h.QuoteIdentifier(col.Name))
		selectExprs = append(selectExprs, s.importCarryExpr(kind, col))
	}
	insertCols = append(insertCols, remarks)
	selectExprs = append(selectExprs, "n."+remarks)

	return []string{
		"DELETE FROM " + ext,
		fmt.Sprintf("INSERT INTO %s (%s)\nSELECT %s\nFROM %s n\nWHERE n.%s IS NOT NULL AND n.%s <> ''",
			ext,
			strings.Join(insertCols, ", "),
			strings.Join(selectExprs, ", "),
			native,
			remarks, remarks),
	}
}

// importKeyExpr renders the native-side expression for one key column. For
// routine parameters the owning routine's schema and specific name are
// normalized to empty strings so the key stays usable in equality joins.
func (s *Syncer) importKeyExpr(kind catalog.Kind, col catalog.Column) string {
	ref := "n." + s.db.Handler.QuoteIdentifier(col.Name)
	if kind.Table == "routineparms" && (col.Name == "routineschema" || col.Name == "specificname") {
		return fmt.Sprintf("COALESCE(%s, '')", ref)
	}
	return ref
}

// importCarryExpr renders the native-side expression for one carry column.
// Blank routine parameter names are synthesized from the ordinal position.
func (s *Syncer) importCarryExpr(kind catalog.Kind, col catalog.Column) string {
	h := s.db.Handler
	ref := "n." + h.QuoteIdentifier(col.Name)
	if col.Name == "parmname" {
		return h.ParamNameExpr(ref, "n."+h.QuoteIdentifier("ordinal"))
	}
	return ref
}
