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

	"github.com/dbdoctools/doccat/internal/catalog"
	"github.com/dbdoctools/doccat/internal/store"
	"github.com/dbdoctools/doccat/internal/utils"
)

var setCommentCmd = &cobra.Command{
	Use:     "set-comment",
	Short:   "Set, replace, or clear one extended comment",
	Long:    `Writes one extended comment directly, bypassing the merge view. An empty comment clears any stored one. Key columns identify the object the way the native catalog does.`,
	Example: `./doccat set-comment --dialect postgres --host localhost --port 5432 --username user --password pass --database mydb --kind tables --key tabschema=APP --key tabname=ORDERS --comment "Order headers, one row per order."`,
	RunE:    runSetComment,
}

func runSetComment(cmd *cobra.Command, args []string) error {
	kindName := cmd.Flag("kind").Value.String()
	kind, ok := catalog.Lookup(kindName)
	if !ok {
		return fmt.Errorf("unknown kind: %s", kindName)
	}

	keyFlags, err := cmd.Flags().GetStringArray("key")
	if err != nil {
		return err
	}
	keyCols, keyVals, err := utils.ParseKeyValues(keyFlags)
	if err != nil {
		return err
	}
	key := make([]store.KeyValue, len(keyCols))
	for i := range keyCols {
		key[i] = store.KeyValue{Column: keyCols[i], Value: keyVals[i]}
	}

	carryFlags, err := cmd.Flags().GetStringArray("carry")
	if err != nil {
		return err
	}
	carryCols, carryVals, err := utils.ParseKeyValues(carryFlags)
	if err != nil {
		return err
	}
	carry := make([]store.KeyValue, len(carryCols))
	for i := range carryCols {
		carry[i] = store.KeyValue{Column: carryCols[i], Value: carryVals[i]}
	}

	var comment *string
	if text := cmd.Flag("comment").Value.String(); text != "" {
		comment = &text
	}

	db, err := setupDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	op, err := store.New(db, cfg.Overlay).Apply(cmd.Context(), kind, key, carry, comment)
	if err != nil {
		return fmt.Errorf("set-comment failed: %w", err)
	}

	logger.Info("comment applied",
		zap.String("kind", kind.Table),
		zap.String("op", op.String()))
	return nil
}

func init() {
	var kind, comment string
	setCommentCmd.Flags().StringVar(&kind, "kind", "", "Object kind (tables, columns, routines, ...) - MANDATORY")
	setCommentCmd.Flags().StringArray("key", nil, "Key column as column=value, repeated once per key column - MANDATORY")
	setCommentCmd.Flags().StringArray("carry", nil, "Carry column as column=value (e.g. routinetype=P for routines)")
	setCommentCmd.Flags().StringVar(&comment, "comment", "", "Comment text; empty clears the stored comment")
	_ = setCommentCmd.MarkFlagRequired("kind")
	_ = setCommentCmd.MarkFlagRequired("key")
}
