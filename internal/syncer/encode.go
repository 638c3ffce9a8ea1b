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
package syncer

import "strings"

// truncationMarker is appended to comments shortened to the native store's
// length ceiling so readers can tell the text was cut.
const truncationMarker = "..."

// EncodeComment renders comment text as a single-quoted SQL literal for the
// native comment-setting statement. Text longer than limit characters is
// truncated to limit-3 characters plus the truncation marker; embedded single
// quotes are doubled after truncation, so the comment value itself never
// exceeds limit characters.
func EncodeComment(text string, limit int) (literal string, truncated bool) {
	runes := []rune(text)
	if len(runes) > limit {
		text = string(runes[:limit-len(truncationMarker)]) + truncationMarker
		truncated = true
	}
	return "'" + strings.ReplaceAll(text, "'", "''") + "'", truncated
}

// QuoteNativeIdentifier quotes one part of an object's fully-qualified name
// in the native statement syntax, doubling embedded quote characters.
func QuoteNativeIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
