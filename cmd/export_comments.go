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
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dbdoctools/doccat/internal/syncer"
	"github.com/dbdoctools/doccat/internal/utils"
)

var exportCommentsCmd = &cobra.Command{
	Use:     "export-comments",
	Short:   "Render extended comments as native comment statements",
	Long:    `Reads every extended comment and writes the native comment-setting statements to a file. Comments longer than the native limit are shortened with a trailing ellipsis.`,
	Example: `./doccat export-comments --dialect postgres --host localhost --port 5432 --username user --password pass --database mydb --out_file comments.sql`,
	RunE:    runExportComments,
}

func runExportComments(cmd *cobra.Command, args []string) error {
	db, err := setupDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	outputFile := cmd.Flag("out_file").Value.String()
	if outputFile == "" {
		outputFile = utils.GetDefaultOutputFilePath(cfg.Database.DBName)
	}

	result, err := syncer.New(db, cfg.Overlay, logger).Export(cmd.Context())
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	file, createErr := os.Create(outputFile)
	if createErr != nil {
		return fmt.Errorf("failed to create output file: %w", createErr)
	}
	defer file.Close()

	for _, stmt := range result.Statements {
		if _, writeErr := file.WriteString(stmt + "\n"); writeErr != nil {
			return fmt.Errorf("failed to write statement to file: %w", writeErr)
		}
	}

	logger.Info("export written",
		zap.String("file", outputFile),
		zap.Int("statements", len(result.Statements)),
		zap.Int("truncated", result.Truncated))
	return nil
}

func init() {
	var outputFile string
	exportCommentsCmd.Flags().StringVarP(&outputFile, "out_file", "o", "", "File path for the generated statements (defaults to <database>_comments.sql)")
}
