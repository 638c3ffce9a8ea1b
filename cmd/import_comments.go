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
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dbdoctools/doccat/internal/syncer"
	"github.com/dbdoctools/doccat/internal/utils"
)

var importCommentsCmd = &cobra.Command{
	Use:     "import-comments",
	Short:   "Replace extended comments with the native catalog's comments",
	Long:    `Overwrites the extended comment tables with a fresh copy of the native comments, one kind at a time. Existing extended comments are discarded, including any text beyond the native length limit.`,
	Example: `./doccat import-comments --dialect postgres --host localhost --port 5432 --username user --password pass --database mydb --yes`,
	RunE:    runImportComments,
}

func runImportComments(cmd *cobra.Command, args []string) error {
	db, err := setupDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if !yes {
		prompt := fmt.Sprintf("Import will overwrite all extended comments in %s with the native comments from %s.",
			cfg.Overlay.ExtendedSchema, cfg.Overlay.NativeSchema)
		if !utils.ConfirmAction(prompt) {
			logger.Info("import aborted by user")
			return nil
		}
	}

	result, err := syncer.New(db, cfg.Overlay, logger).Import(cmd.Context())
	if err != nil {
		if len(result.Completed) > 0 {
			logger.Warn("import partially applied",
				zap.String("failed_kind", result.Failed),
				zap.String("completed_kinds", strings.Join(result.Completed, ", ")))
		}
		return fmt.Errorf("import failed: %w", err)
	}

	logger.Info("import complete", zap.Int("kinds", len(result.Completed)))
	return nil
}
