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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dbdoctools/doccat/internal/overlay"
)

var installCmd = &cobra.Command{
	Use:     "install",
	Short:   "Install the comment overlay",
	Long:    `Creates the extended comment tables, merge views, sync triggers, and pass-through aliases over the native catalog.`,
	Example: `./doccat install --dialect postgres --host localhost --port 5432 --username user --password pass --database mydb`,
	RunE:    runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	db, err := setupDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("installing overlay",
		zap.String("dialect", cfg.Database.Dialect),
		zap.String("database", cfg.Database.DBName))

	orch := overlay.New(db, cfg.Overlay, logger)
	if err := orch.Install(cmd.Context()); err != nil {
		return fmt.Errorf("install failed: %w", err)
	}
	return nil
}
