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
package catalog

// CommentOp is the action a comment write routes to on the extended table.
type CommentOp int

const (
	OpNoop CommentOp = iota
	OpInsert
	OpUpdate
	OpDelete
)

func (op CommentOp) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "noop"
	}
}

type transition struct {
	rowExists bool
	newIsNull bool
}

// commentTransitions fully enumerates the four-way routing policy for a
// comment write keyed by (extended row exists, new value is null). There is
// no other branch.
var commentTransitions = map[transition]CommentOp{
	{rowExists: false, newIsNull: false}: OpInsert,
	{rowExists: false, newIsNull: true}:  OpNoop,
	{rowExists: true, newIsNull: false}:  OpUpdate,
	{rowExists: true, newIsNull: true}:   OpDelete,
}

// CommentAction resolves the routing policy for one comment write.
func CommentAction(rowExists, newIsNull bool) CommentOp {
	return commentTransitions[transition{rowExists: rowExists, newIsNull: newIsNull}]
}
