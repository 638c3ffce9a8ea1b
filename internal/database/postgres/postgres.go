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
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/dbdoctools/doccat/internal/catalog"
	"github.com/dbdoctools/doccat/internal/config"
	"github.com/dbdoctools/doccat/internal/database"
	"github.com/dbdoctools/doccat/internal/generator"
)

// postgresHandler implements database.DialectHandler for PostgreSQL.
type postgresHandler struct{}

var _ database.DialectHandler = (*postgresHandler)(nil)

// CreateCloudSQLPool for PostgreSQL
func (h postgresHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error) {
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
			return os.Getenv(k) // Fallback to environment variable if not in Config
		}
		return v
	}

	dbUser := mustGetenv("user_name", cfg)
	dbPwd := mustGetenv("password", cfg)
	dbName := mustGetenv("database_name", cfg)
	instanceConnectionName := mustGetenv("instance_name", cfg)
	usePrivate := mustGetenv("PRIVATE_IP", cfg)

	dsn := fmt.Sprintf("user=%s password=%s database=%s", dbUser, dbPwd, dbName)
	pgxCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	var opts []cloudsqlconn.Option
	if usePrivate != "" && strings.ToLower(usePrivate) != "false" && usePrivate != "0" {
		opts = append(opts, cloudsqlconn.WithDefaultDialOptions(cloudsqlconn.WithPrivateIP()))
	}
	d, err := cloudsqlconn.NewDialer(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	pgxCfg.DialFunc = func(ctx context.Context, network, instance string) (net.Conn, error) {
		return d.Dial(ctx, instanceConnectionName)
	}
	dbURI := stdlib.RegisterConnConfig(pgxCfg)
	dbPool, err := sql.Open("pgx", dbURI)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	return dbPool, nil
}

// CreateStandardPool creates a standard PostgreSQL connection pool
func (h postgresHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	dbPool, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	return dbPool, nil
}

// QuoteIdentifier for PostgreSQL
func (h postgresHandler) QuoteIdentifier(name string) string {
	name = strings.Replace(name, `"`, `""`, -1)
	return fmt.Sprintf(`"%s"`, name)
}

func (h postgresHandler) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// SchemaExists reports whether the named schema is present.
func (h postgresHandler) SchemaExists(ctx context.Context, db *database.DB, schema string) (bool, error) {
	query := `
		SELECT 1
		FROM information_schema.schemata
		WHERE schema_name = $1;`

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
func (h postgresHandler) ListSchemaTables(ctx context.Context, db *database.DB, schema string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'
		ORDER BY table_name;`

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

// ListSchemaViews returns the views of a schema in name order. An absent
// schema yields an empty list, which keeps teardown re-runnable.
func (h postgresHandler) ListSchemaViews(ctx context.Context, db *database.DB, schema string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.views
		WHERE table_schema = $1
		ORDER BY table_name;`

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
func (h postgresHandler) ColumnsOf(ctx context.Context, db *database.DB, schema, table string) ([]database.ColumnMeta, error) {
	query := `
		SELECT c.column_name, c.data_type, COALESCE(k.ordinal_position, 0) AS key_position
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT kcu.column_name, kcu.ordinal_position
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
				AND tc.table_name = kcu.table_name
			WHERE tc.constraint_type = 'PRIMARY KEY'
				AND tc.table_schema = $1
				AND tc.table_name = $2
		) k ON k.column_name = c.column_name
		WHERE c.table_schema = $1
		AND c.table_name = $2
		ORDER BY c.ordinal_position;`

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

func (h postgresHandler) ColumnType(t catalog.ColType) string {
	switch t {
	case catalog.TypeChar1:
		return "char(1)"
	case catalog.TypeSmallInt:
		return "smallint"
	case catalog.TypeText:
		return "text"
	default:
		return "varchar(128)"
	}
}

// ParamNameExpr synthesizes a routine parameter name from its ordinal when
// the native store leaves it blank.
func (h postgresHandler) ParamNameExpr(parmExpr, ordinalExpr string) string {
	return fmt.Sprintf("COALESCE(NULLIF(%s, ''), 'P' || %s::text)", parmExpr, ordinalExpr)
}

func (h postgresHandler) CreateSchemaSQL(schema string) string {
	return "CREATE SCHEMA " + h.QuoteIdentifier(schema)
}

// DropSchemaSQL drops a schema without cascading, so a dependent object left
// behind fails the drop instead of being silently removed.
func (h postgresHandler) DropSchemaSQL(schema string) string {
	return "DROP SCHEMA " + h.QuoteIdentifier(schema) + " RESTRICT"
}

func (h postgresHandler) CreateAliasSQL(docSchema, nativeSchema, table string) string {
	return fmt.Sprintf("CREATE VIEW %s AS SELECT * FROM %s",
		generator.Qualify(h, docSchema, table),
		generator.Qualify(h, nativeSchema, table))
}

func (h postgresHandler) DropAliasSQL(docSchema, table string) string {
	return "DROP VIEW IF EXISTS " + generator.Qualify(h, docSchema, table)
}

// RenderSyncTrigger emits the trigger procedure and the instead-of-update
// trigger binding it to the merge view. The body enumerates the four-way
// routing policy: (row exists x new value null) -> update/delete/insert/noop.
// Empty-string comments are treated as null.
func (h postgresHandler) RenderSyncTrigger(t generator.SyncTrigger) []string {
	ext := generator.Qualify(h, t.ExtendedSchema, t.Table)
	view := generator.Qualify(h, t.DocSchema, t.Table)
	remarks := h.QuoteIdentifier(t.CommentColumn)

	conds := make([]string, len(t.KeyColumns))
	for i, key := range t.KeyColumns {
		quoted := h.QuoteIdentifier(key)
		conds[i] = fmt.Sprintf("e.%s = OLD.%s", quoted, quoted)
	}
	where := strings.Join(conds, " AND ")

	insertCols := make([]string, 0, len(t.KeyColumns)+len(t.CarryColumns)+1)
	insertVals := make([]string, 0, cap(insertCols))
	for _, key := range t.KeyColumns {
		insertCols = append(insertCols, h.QuoteIdentifier(key))
		insertVals = append(insertVals, "OLD."+h.QuoteIdentifier(key))
	}
	for _, carry := range t.CarryColumns {
		insertCols = append(insertCols, h.QuoteIdentifier(carry))
		insertVals = append(insertVals, "OLD."+h.QuoteIdentifier(carry))
	}
	insertCols = append(insertCols, remarks)
	insertVals = append(insertVals, "NULLIF(NEW."+remarks+", '')")

	proc := fmt.Sprintf(`CREATE FUNCTION %[1]s() RETURNS trigger AS $body$
BEGIN
    IF EXISTS (SELECT 1 FROM %[2]s e WHERE %[3]s) THEN
        IF NEW.%[4]s IS NULL OR NEW.%[4]s = '' THEN
            DELETE FROM %[2]s e WHERE %[3]s;
        ELSE
            UPDATE %[2]s e SET %[4]s = NEW.%[4]s WHERE %[3]s;
        END IF;
    ELSIF NEW.%[4]s IS NOT NULL AND NEW.%[4]s <> '' THEN
        INSERT INTO %[2]s (%[5]s)
        VALUES (%[6]s);
    END IF;
    RETURN NEW;
END
$body$ LANGUAGE plpgsql`,
		generator.Qualify(h, t.DocSchema, t.ProcName()),
		ext,
		where,
		remarks,
		strings.Join(insertCols, ", "),
		strings.Join(insertVals, ", "),
	)

	trigger := fmt.Sprintf(
		"CREATE TRIGGER %s\nINSTEAD OF UPDATE ON %s\nFOR EACH ROW EXECUTE FUNCTION %s()",
		h.QuoteIdentifier(t.Name()),
		view,
		generator.Qualify(h, t.DocSchema, t.ProcName()),
	)

	return []string{proc, trigger}
}

func (h postgresHandler) DropTriggerSQL(t generator.SyncTrigger) string {
	return fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s",
		h.QuoteIdentifier(t.Name()),
		generator.Qualify(h, t.DocSchema, t.Table))
}

func (h postgresHandler) DropProcedureSQL(t generator.SyncTrigger) string {
	return "DROP FUNCTION IF EXISTS " + generator.Qualify(h, t.DocSchema, t.ProcName()) + "()"
}

func init() {
	database.RegisterDialectHandler("postgres", postgresHandler{})
	database.RegisterDialectHandler("cloudsqlpostgres", postgresHandler{})
}
