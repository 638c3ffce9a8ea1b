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

// Package catalog describes the commentable object kinds the overlay knows
// about: their backing table names, key shapes, and the syntax of the native
// comment statement for each kind.
package catalog

// ColType is the abstract storage type of an extended-table column. Dialect
// handlers map these to concrete SQL types.
type ColType int

const (
	// TypeName holds an SQL identifier (schema, table, column names).
	TypeName ColType = iota
	// TypeChar1 holds a single-character discriminator flag.
	TypeChar1
	// TypeSmallInt holds an ordinal position.
	TypeSmallInt
	// TypeText holds long-form comment text.
	TypeText
)

// Column is one column of an extended comment table.
type Column struct {
	Name string
	Type ColType
}

// Kind is one commentable object category. Its key shape is identical between
// the native catalog table and the extended comment table of the same name.
type Kind struct {
	// Table is the backing table name, shared by the native and extended
	// schemas.
	Table string
	// Keys is the ordered key-column tuple identifying one object instance.
	Keys []Column
	// Carry lists non-key columns copied from the native row into the
	// extended store so that export needs no join back to the native catalog.
	Carry []Column
	// CommentTarget is the keyword naming this kind in the native
	// comment-setting statement. Empty means the native store has no comment
	// syntax for this kind (routine parameters).
	CommentTarget string
	// RoutineTyped marks kinds whose comment target is discriminated by the
	// stored routine-type flag ('P' procedure, 'F' function).
	RoutineTyped bool
}

// KeyNames returns the key column names in declared key order.
func (k Kind) KeyNames() []string {
	names := make([]string, len(k.Keys))
	for i, c := range k.Keys {
		names[i] = c.Name
	}
	return names
}

// CarryNames returns the carry column names.
func (k Kind) CarryNames() []string {
	names := make([]string, len(k.Carry))
	for i, c := range k.Carry {
		names[i] = c.Name
	}
	return names
}

// Exportable reports whether a native comment-setting statement exists for
// this kind.
func (k Kind) Exportable() bool {
	return k.CommentTarget != "" || k.RoutineTyped
}

// RowTypes is the closed set of routine-parameter row-type discriminators.
var RowTypes = map[string]string{
	"B": "before",
	"C": "column",
	"O": "output",
	"P": "parameter",
	"R": "result",
}

// RoutineTypeProcedure and RoutineTypeFunction are the values of the
// routine-type flag carried alongside routine comments.
const (
	RoutineTypeProcedure = "P"
	RoutineTypeFunction  = "F"
)

var kinds = []Kind{
	{
		Table:         "schemata",
		Keys:          []Column{{"schemaname", TypeName}},
		CommentTarget: "SCHEMA",
	},
	{
		Table:         "datatypes",
		Keys:          []Column{{"typeschema", TypeName}, {"typename", TypeName}},
		CommentTarget: "TYPE",
	},
	{
		Table:         "tables",
		Keys:          []Column{{"tabschema", TypeName}, {"tabname", TypeName}},
		CommentTarget: "TABLE",
	},
	{
		Table:         "columns",
		Keys:          []Column{{"tabschema", TypeName}, {"tabname", TypeName}, {"colname", TypeName}},
		CommentTarget: "COLUMN",
	},
	{
		Table:         "tabconst",
		Keys:          []Column{{"tabschema", TypeName}, {"tabname", TypeName}, {"constname", TypeName}},
		CommentTarget: "CONSTRAINT",
	},
	{
		Table:         "indexes",
		Keys:          []Column{{"indschema", TypeName}, {"indname", TypeName}},
		CommentTarget: "INDEX",
	},
	{
		Table:         "triggers",
		Keys:          []Column{{"trigschema", TypeName}, {"trigname", TypeName}},
		CommentTarget: "TRIGGER",
	},
	{
		Table:        "routines",
		Keys:         []Column{{"routineschema", TypeName}, {"specificname", TypeName}},
		Carry:        []Column{{"routinetype", TypeChar1}},
		RoutineTyped: true,
	},
	{
		// Parameter identity includes the row-type discriminator and ordinal
		// position. The owning routine's schema and specific name are empty
		// strings when absent, never NULL, so they stay usable in equality
		// joins and the primary key.
		Table: "routineparms",
		Keys: []Column{
			{"routineschema", TypeName},
			{"specificname", TypeName},
			{"rowtype", TypeChar1},
			{"ordinal", TypeSmallInt},
		},
		Carry: []Column{{"parmname", TypeName}},
	},
	{
		Table:         "tablespaces",
		Keys:          []Column{{"tbspace", TypeName}},
		CommentTarget: "TABLESPACE",
	},
}

// Kinds returns all object kinds in a stable order.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

// Lookup finds the kind backed by the given table name.
func Lookup(table string) (Kind, bool) {
	for _, k := range kinds {
		if k.Table == table {
			return k, true
		}
	}
	return Kind{}, false
}
