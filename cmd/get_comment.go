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

	"github.com/dbdoctools/doccat/internal/catalog"
	"github.com/dbdoctools/doccat/internal/store"
	"github.com/dbdoctools/doccat/internal/utils"
)

var getCommentCmd = &cobra.Command{
	Use:     "get-comment",
	Short:   "Read one extended comment",
	Long:    `Prints the extended comment stored for one object, if any. Only the extended store is consulted; native comments without an extended override print nothing.`,
	Example: `./doccat get-comment --dialect postgres --host localhost --port 5432 --username user --password pass --database mydb --kind tables --key tabschema=APP --key tabname=ORDERS`,
	RunE:    runGetComment,
}

func runGetComment(cmd *cobra.Command, args []string) error {
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

	db, err := setupDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	comment, err := store.New(db, cfg.Overlay).Get(cmd.Context(), kind, key)
	if err != nil {
		return fmt.Errorf("get-comment failed: %w", err)
	}
	if comment != nil {
		fmt.Fprintln(cmd.OutOrStdout(), *comment)
	}
	return nil
}

func init() {
	var kind string
	getCommentCmd.Flags().StringVar(&kind, "kind", "", "Object kind (tables, columns, routines, ...) - MANDATORY")
	getCommentCmd.Flags().StringArray("key", nil, "Key column as column=value, repeated once per key column - MANDATORY")
	_ = getCommentCmd.MarkFlagRequired("kind")
	_ = getCommentCmd.MarkFlagRequired("key")
}
