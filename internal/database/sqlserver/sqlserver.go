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
package sqlserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"cloud.google.com/go/cloudsqlconn"
	mssql "github.com/denisenkom/go-mssqldb"

	"github.com/dbdoctools/doccat/internal/catalog"
	"github.com/dbdoctools/doccat/internal/config"
	"github.com/dbdoctools/doccat/internal/database"
	"github.com/dbdoctools/doccat/internal/generator"
)

// sqlServerHandler implements database.DialectHandler for SQL Server.
type sqlServerHandler struct{}

var _ database.DialectHandler = (*sqlServerHandler)(nil)

type csqlDialer struct {
	dialer     *cloudsqlconn.Dialer
	connName   string
	usePrivate bool
}

// DialContext adheres to the mssql.Dialer interface.
func (c *csqlDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	var opts []cloudsqlconn.DialOption
	if c.usePrivate {
		opts = append(opts, cloudsqlconn.WithPrivateIP())
	}
	return c.dialer.Dial(ctx, c.connName, opts...)
}

// CreateCloudSQLPool for SQL Server
func (h sqlServerHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	mustGetenv := func(k string, cfg config.DatabaseConfig) string {
		v := ""
		switch k {
		case "user_name":
			v = cfg.User
		case "password":
			v = cfg.Password
		case "database_name":
			v = cfg.DBName
		case "instance_name":
			v = cfg.CloudSQLInstanceConnectionName
		case "PRIVATE_IP":
			if cfg.UsePrivateIP {
				v = "true"
			}
		}
		if v == "" {
			return os.Getenv(k)
		}
		return v
	}

	dbUser := mustGetenv("user_name", cfg)
	dbPwd := mustGetenv("password", cfg)
	dbName := mustGetenv("database_name", cfg)
	instanceConnectionName := mustGetenv("instance_name", cfg)
	usePrivate := mustGetenv("PRIVATE_IP", cfg)

	// WithLazyRefresh() performs refresh when needed, rather than on a
	// scheduled interval, which avoids background refreshes from throttling
	// CPU in serverless environments.
	dialer, err := cloudsqlconn.NewDialer(context.Background(), cloudsqlconn.WithLazyRefresh())
	if err != nil {
		return nil, fmt.Errorf("cloudsqlconn.NewDialer: %w", err)
	}
	connector, err := mssql.NewConnector(fmt.Sprintf("sqlserver://%s:%s@localhost:1433?database=%s&dial=cloudsqlconn&instance=%s",
		dbUser, dbPwd, dbName, instanceConnectionName))
	if err != nil {
		return nil, fmt.Errorf("mssql.NewConnector: %w", err)
	}
	connector.Dialer = &csqlDialer{
		dialer:     dialer,
		connName:   instanceConnectionName,
		usePrivate: usePrivate != "",
	}

	return sql.OpenDB(connector), nil
}

// CreateStandardPool creates a standard SQL Server connection pool
func (h sqlServerHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	port := cfg.Port
	if port == 0 {
		port = 1433 // Default SQL Server port
	}
	connStr := fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
		cfg.User, cfg.Password, cfg.Host, port, cfg.DBName)

	dbPool, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, fmt.Errorf("sql.Open (standard sqlserver): %w", err)
	}
	return dbPool, nil
}

// QuoteIdentifier for SQL Server. Square brackets are the standard quoting
// form; a closing bracket inside the name is doubled.
func (h sqlServerHandler) QuoteIdentifier(name string) string {
	return fmt.Sprintf("[%s]", strings.Replace(name, "]", "]]", -1))
}

func (h sqlServerHandler) Placeholder(n int) string {
	return fmt.Sprintf("@p%d", n)
}

// SchemaExists reports whether the named schema is present.
func (h sqlServerHandler) SchemaExists(ctx context.Context, db *database.DB, schema string) (bool, error) {
	query := `
		SELECT 1
		FROM INFORMATION_SCHEMA.SCHEMATA
		WHERE SCHEMA_NAME = @p1`

	var one int
	err := db.QueryRowContext(ctx, query, schema).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking schema %s: %w", schema, err)
	}
	return true, nil
}

// ListSchemaTables returns the base tables of a schema in name order.
func (h sqlServerHandler) ListSchemaTables(ctx context.Context, db *database.DB, schema string) ([]string, error) {
	query := `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = @p1
		ORDER BY TABLE_NAME`

	rows, err := db.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("error querying tables of schema %s: %w", schema, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("error scanning table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}
	return tables, nil
}

// ListSchemaViews returns the views of a schema in name order.
func (h sqlServerHandler) ListSchemaViews(ctx context.Context, db *database.DB, schema string) ([]string, error) {
	query := `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.VIEWS
		WHERE TABLE_SCHEMA = @p1
		ORDER BY TABLE_NAME`

	rows, err := db.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("error querying views of schema %s: %w", schema, err)
	}
	defer rows.Close()

	var views []string
	for rows.Next() {
		var viewName string
		if err := rows.Scan(&viewName); err != nil {
			return nil, fmt.Errorf("error scanning view name: %w", err)
		}
		views = append(views, viewName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating view rows: %w", err)
	}
	return views, nil
}

// ColumnsOf returns a table's columns in declared order, with primary key
// participation and key order.
func (h sqlServerHandler) ColumnsOf(ctx context.Context, db *database.DB, schema, table string) ([]database.ColumnMeta, error) {
	query := `
		SELECT c.COLUMN_NAME, c.DATA_TYPE, COALESCE(k.ORDINAL_POSITION, 0) AS KEY_POSITION
		FROM INFORMATION_SCHEMA.COLUMNS c
		LEFT JOIN (
			SELECT kcu.COLUMN_NAME, kcu.ORDINAL_POSITION
			FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
				ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
				AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
				AND tc.TABLE_NAME = kcu.TABLE_NAME
			WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
				AND tc.TABLE_SCHEMA = @p1
				AND tc.TABLE_NAME = @p2
		) k ON k.COLUMN_NAME = c.COLUMN_NAME
		WHERE c.TABLE_SCHEMA = @p1
		AND c.TABLE_NAME = @p2
		ORDER BY c.ORDINAL_POSITION`

	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var columns []database.ColumnMeta
	for rows.Next() {
		var col database.ColumnMeta
		if err := rows.Scan(&col.Name, &col.DataType, &col.KeyPosition); err != nil {
			return nil, fmt.Errorf("error scanning column metadata: %w", err)
		}
		col.IsKey = col.KeyPosition > 0
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}
	if len(columns) == 0 {
		return nil, &database.ErrMetadataNotFound{Schema: schema, Table: table}
	}
	return columns, nil
}

func (h sqlServerHandler) ColumnType(t catalog.ColType) string {
	switch t {
	case catalog.TypeChar1:
		return "nchar(1)"
	case catalog.TypeSmallInt:
		return "smallint"
	case catalog.TypeText:
		return "nvarchar(max)"
	default:
		return "nvarchar(128)"
	}
}

// ParamNameExpr synthesizes a routine parameter name from its ordinal when
// the native store leaves it blank.
func (h sqlServerHandler) ParamNameExpr(parmExpr, ordinalExpr string) string {
	return fmt.Sprintf("COALESCE(NULLIF(%s, ''), 'P' + CAST(%s AS nvarchar(10)))", parmExpr, ordinalExpr)
}

func (h sqlServerHandler) CreateSchemaSQL(schema string) string {
	return "CREATE SCHEMA " + h.QuoteIdentifier(schema)
}

// DropSchemaSQL. SQL Server refuses to drop a non-empty schema, which is the
// restricted behavior teardown relies on.
func (h sqlServerHandler) DropSchemaSQL(schema string) string {
	return "DROP SCHEMA " + h.QuoteIdentifier(schema)
}

func (h sqlServerHandler) CreateAliasSQL(docSchema, nativeSchema, table string) string {
	return fmt.Sprintf("CREATE VIEW %s AS SELECT * FROM %s",
		generator.Qualify(h, docSchema, table),
		generator.Qualify(h, nativeSchema, table))
}

func (h sqlServerHandler) DropAliasSQL(docSchema, table string) string {
	return "DROP VIEW IF EXISTS " + generator.Qualify(h, docSchema, table)
}

// RenderSyncTrigger emits a set-based instead-of-update trigger covering the
// four-way routing policy over the trigger pseudo-tables. Extended rows are
// addressed by the deleted (old) key values; the new comment comes from the
// inserted row paired to deleted on equal keys, so a key-rewriting UPDATE
// through the view matches nothing rather than touching the wrong extended
// row. Empty-string comments are treated as null.
func (h sqlServerHandler) RenderSyncTrigger(t generator.SyncTrigger) []string {
	ext := generator.Qualify(h, t.ExtendedSchema, t.Table)
	view := generator.Qualify(h, t.DocSchema, t.Table)
	remarks := h.QuoteIdentifier(t.CommentColumn)

	extConds := make([]string, len(t.KeyColumns))
	pairConds := make([]string, len(t.KeyColumns))
	for i, key := range t.KeyColumns {
		quoted := h.QuoteIdentifier(key)
		extConds[i] = fmt.Sprintf("e.%s = d.%s", quoted, quoted)
		pairConds[i] = fmt.Sprintf("i.%s = d.%s", quoted, quoted)
	}
	extOn := strings.Join(extConds, " AND ")
	pairOn := strings.Join(pairConds, " AND ")

	insertCols := make([]string, 0, len(t.KeyColumns)+len(t.CarryColumns)+1)
	selectVals := make([]string, 0, cap(insertCols))
	for _, key := range t.KeyColumns {
		insertCols = append(insertCols, h.QuoteIdentifier(key))
		selectVals = append(selectVals, "d."+h.QuoteIdentifier(key))
	}
	for _, carry := range t.CarryColumns {
		insertCols = append(insertCols, h.QuoteIdentifier(carry))
		selectVals = append(selectVals, "d."+h.QuoteIdentifier(carry))
	}
	insertCols = append(insertCols, remarks)
	selectVals = append(selectVals, "i."+remarks)

	trigger := fmt.Sprintf(`CREATE TRIGGER %[1]s ON %[2]s INSTEAD OF UPDATE AS
BEGIN
    SET NOCOUNT ON;
    DELETE e FROM %[3]s e JOIN deleted d ON %[4]s JOIN inserted i ON %[5]s
    WHERE i.%[6]s IS NULL OR i.%[6]s = '';
    UPDATE e SET e.%[6]s = i.%[6]s FROM %[3]s e JOIN deleted d ON %[4]s JOIN inserted i ON %[5]s
    WHERE i.%[6]s IS NOT NULL AND i.%[6]s <> '';
    INSERT INTO %[3]s (%[7]s)
    SELECT %[8]s FROM deleted d JOIN inserted i ON %[5]s
    WHERE i.%[6]s IS NOT NULL AND i.%[6]s <> ''
      AND NOT EXISTS (SELECT 1 FROM %[3]s e WHERE %[4]s);
END`,
		generator.Qualify(h, t.DocSchema, t.Name()),
		view,
		ext,
		extOn,
		pairOn,
		remarks,
		strings.Join(insertCols, ", "),
		strings.Join(selectVals, ", "),
	)

	return []string{trigger}
}

func (h sqlServerHandler) DropTriggerSQL(t generator.SyncTrigger) string {
	return "DROP TRIGGER IF EXISTS " + generator.Qualify(h, t.DocSchema, t.Name())
}

// DropProcedureSQL returns "" because SQL Server triggers carry their body
// inline, with no separate routine to drop.
func (h sqlServerHandler) DropProcedureSQL(t generator.SyncTrigger) string {
	return ""
}

func init() {
	database.RegisterDialectHandler("sqlserver", sqlServerHandler{})
	database.RegisterDialectHandler("cloudsqlsqlserver", sqlServerHandler{})
}
