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
package config

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Overlay  OverlayConfig
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Dialect                        string
	Host                           string
	Port                           int
	User                           string
	Password                       string
	DBName                         string
	SSLMode                        string
	CloudSQLInstanceConnectionName string
	UsePrivateIP                   bool
}

// OverlayConfig holds the schema layout of the comment overlay.
type OverlayConfig struct {
	// NativeSchema is the read-only catalog schema being overlaid.
	NativeSchema string
	// ExtendedSchema holds the long-form comment tables.
	ExtendedSchema string
	// DocSchema holds the generated merge views and aliases.
	DocSchema string
	// CommentColumn is the designated comment column shared by the native
	// tables and the extended tables.
	CommentColumn string
	// NativeCommentLimit is the native store's comment length ceiling in
	// characters. Exported comments longer than this are truncated.
	NativeCommentLimit int
}

// Default returns the default configuration. Connection settings are filled
// in by flags and environment in cmd.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Dialect: "postgres",
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Overlay: OverlayConfig{
			NativeSchema:       "syscat",
			ExtendedSchema:     "docdata",
			DocSchema:          "doccat",
			CommentColumn:      "remarks",
			NativeCommentLimit: 254,
		},
	}
}
