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
package utils

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

func GetDefaultOutputFilePath(dbName string) string {
	return fmt.Sprintf("%s_comments.sql", dbName)
}

func ConfirmAction(actionDescription string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n-------------------------------------------------------------\n")
	fmt.Printf("%s\n", actionDescription)
	fmt.Print("Do you want to proceed? (yes/no): ")
	text, _ := reader.ReadString('\n')
	action := strings.TrimSpace(strings.ToLower(text))
	return action == "yes" || action == "y"
}

// ParseKeyValues parses repeated column=value pairs into ordered columns and
// values. Values may contain '='; only the first one splits.
func ParseKeyValues(pairs []string) (columns []string, values []string, err error) {
	for _, pair := range pairs {
		idx := strings.Index(pair, "=")
		if idx <= 0 {
			return nil, nil, fmt.Errorf("invalid key pair %q, expected column=value", pair)
		}
		columns = append(columns, strings.TrimSpace(pair[:idx]))
		values = append(values, pair[idx+1:])
	}
	return columns, values, nil
}
