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
package database

import "fmt"

// ErrMetadataNotFound reports a referenced table or schema that does not
// exist in the catalog metadata. Generation cannot proceed without it.
type ErrMetadataNotFound struct {
	Schema string
	Table  string
}

func (e *ErrMetadataNotFound) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("metadata not found: schema %s has no tables", e.Schema)
	}
	return fmt.Sprintf("metadata not found: table %s.%s does not exist", e.Schema, e.Table)
}
