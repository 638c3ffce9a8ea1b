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

package overlay

import "fmt"

// ErrTeardownBlocked reports a namespace drop refused because an object not
// created by the overlay still lives inside it. The offending namespace is
// left in place for the operator to inspect.
type ErrTeardownBlocked struct {
	Object string
	Err    error
}

func (e *ErrTeardownBlocked) Error() string {
	return fmt.Sprintf("teardown blocked: %s still has dependent objects: %v", e.Object, e.Err)
}

func (e *ErrTeardownBlocked) Unwrap() error {
	return e.Err
}
