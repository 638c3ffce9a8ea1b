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
package generator

import "fmt"

// ErrKeyShapeViolation reports an extended table declaring zero key columns.
// Generation aborts before emitting a malformed join.
type ErrKeyShapeViolation struct {
	Schema string
	Table  string
}

func (e *ErrKeyShapeViolation) Error() string {
	return fmt.Sprintf("key shape violation: extended table %s.%s declares no key columns", e.Schema, e.Table)
}
