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
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dbdoctools/doccat/internal/overlay"
	"github.com/dbdoctools/doccat/internal/utils"
)

var uninstallCmd = &cobra.Command{
	Use:     "uninstall",
	Short:   "Remove the comment overlay",
	Long:    `Drops the aliases, sync triggers, merge views, extended comment tables, and overlay schemas. All extended comments are lost; run export-comments first to keep a copy.`,
	Example: `./doccat uninstall --dialect postgres --host localhost --port 5432 --username user --password pass --database mydb --yes`,
	RunE:    runUninstall,
}

func runUninstall(cmd *cobra.Command, args []string) error {
	db, err := setupDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if !yes {
		prompt := fmt.Sprintf("Uninstall will drop schemas %s and %s from %s, discarding all extended comments.",
			cfg.Overlay.DocSchema, cfg.Overlay.ExtendedSchema, cfg.Database.DBName)
		if !utils.ConfirmAction(prompt) {
			logger.Info("uninstall aborted by user")
			return nil
		}
	}

	orch := overlay.New(db, cfg.Overlay, logger)
	if err := orch.Uninstall(cmd.Context()); err != nil {
		var blocked *overlay.ErrTeardownBlocked
		if errors.As(err, &blocked) {
			logger.Error("teardown blocked by objects outside the overlay",
				zap.String("object", blocked.Object))
		}
		return fmt.Errorf("uninstall failed: %w", err)
	}
	return nil
}
