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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dbdoctools/doccat/internal/config"
	"github.com/dbdoctools/doccat/internal/database"
	_ "github.com/dbdoctools/doccat/internal/database/postgres"
	_ "github.com/dbdoctools/doccat/internal/database/sqlserver"
)

var (
	cfg    *config.Config
	logger *zap.Logger

	verbose bool
	yes     bool

	// Database connection flags
	dialect                        string
	host                           string
	port                           int
	username                       string
	password                       string
	dbName                         string
	cloudSQLInstanceConnectionName string
	cloudSQLUsePrivateIP           bool

	// Overlay layout flags
	nativeSchema   string
	extendedSchema string
	docSchema      string
)

var rootCmd = &cobra.Command{
	Use:   "doccat",
	Short: "Manage a long-form comment overlay for a database catalog",
	Long: `doccat installs and manages an overlay that lifts a database catalog's
short native comment column into unlimited extended comment tables, exposed
through merge views whose comment column stays writable via sync triggers.`,
}

// initFlagsAndConfig resolves configuration with flags taking precedence over
// DOCCAT_-prefixed environment variables, and builds the shared logger.
func initFlagsAndConfig(cmd *cobra.Command, args []string) error {
	v := viper.New()
	v.SetEnvPrefix("DOCCAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg = config.Default()
	cfg.Database.Dialect = v.GetString("dialect")
	cfg.Database.Host = v.GetString("host")
	cfg.Database.Port = v.GetInt("port")
	cfg.Database.User = v.GetString("username")
	cfg.Database.Password = v.GetString("password")
	cfg.Database.DBName = v.GetString("database")
	cfg.Database.CloudSQLInstanceConnectionName = v.GetString("cloudsql-instance-connection-name")
	cfg.Database.UsePrivateIP = v.GetBool("cloudsql-use-private-ip")
	cfg.Overlay.NativeSchema = v.GetString("native-schema")
	cfg.Overlay.ExtendedSchema = v.GetString("extended-schema")
	cfg.Overlay.DocSchema = v.GetString("doc-schema")

	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	return nil
}

func validateDialect(dialect string) error {
	supportedDialects := []string{"postgres", "cloudsqlpostgres", "sqlserver", "cloudsqlsqlserver"}
	for _, supportedDialect := range supportedDialects {
		if dialect == supportedDialect {
			return nil
		}
	}
	return fmt.Errorf("unsupported dialect: %s (only %s are supported)", dialect, strings.Join(supportedDialects, ", "))
}

func setupDatabase() (*database.DB, error) {
	if err := validateDialect(cfg.Database.Dialect); err != nil {
		return nil, err
	}
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentPreRunE = initFlagsAndConfig
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&yes, "yes", false, "Skip confirmation prompts")

	// Database connection flags. Connection defaults come from the config so
	// an unset flag does not blank them out after viper resolution.
	defaults := config.Default()
	rootCmd.PersistentFlags().StringVar(&dialect, "dialect", defaults.Database.Dialect, "Database dialect (postgres, cloudsqlpostgres, sqlserver, cloudsqlsqlserver)")
	rootCmd.PersistentFlags().StringVar(&host, "host", defaults.Database.Host, "Database host")
	rootCmd.PersistentFlags().IntVar(&port, "port", defaults.Database.Port, "Database port")
	rootCmd.PersistentFlags().StringVar(&username, "username", "", "Database username - MANDATORY")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Database password - MANDATORY")
	rootCmd.PersistentFlags().StringVar(&dbName, "database", "", "Database name - MANDATORY")
	rootCmd.PersistentFlags().StringVar(&cloudSQLInstanceConnectionName, "cloudsql-instance-connection-name", "", "Cloud SQL instance connection name (for Cloud SQL dialects) - MANDATORY for CloudSQL")
	rootCmd.PersistentFlags().BoolVar(&cloudSQLUsePrivateIP, "cloudsql-use-private-ip", false, "Use private IP for Cloud SQL connection (Cloud SQL)")

	// Overlay layout flags
	rootCmd.PersistentFlags().StringVar(&nativeSchema, "native-schema", "syscat", "Schema holding the native catalog tables")
	rootCmd.PersistentFlags().StringVar(&extendedSchema, "extended-schema", "docdata", "Schema holding the extended comment tables")
	rootCmd.PersistentFlags().StringVar(&docSchema, "doc-schema", "doccat", "Schema holding the merge views and aliases")

	// Add subcommands
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(exportCommentsCmd)
	rootCmd.AddCommand(importCommentsCmd)
	rootCmd.AddCommand(setCommentCmd)
	rootCmd.AddCommand(getCommentCmd)
}
