package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/dbdoctools/doccat/internal/catalog"
	"github.com/dbdoctools/doccat/internal/config"
	"github.com/dbdoctools/doccat/internal/generator"
)

// DB holds the database connection pool and dialect handler.
type DB struct {
	Pool    *sql.DB
	Handler DialectHandler
	Config  config.DatabaseConfig
}

// ColumnMeta describes one column of an introspected table: its name and
// declared type, and its position in the table's uniqueness key when it
// participates in one.
type ColumnMeta struct {
	Name        string
	DataType    string
	IsKey       bool
	KeyPosition int
}

// DialectHandler abstracts the SQL dialect: connection pooling, identifier
// quoting, catalog introspection, and the dialect-specific pieces of the
// generated schema objects.
type DialectHandler interface {
	CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error)
	CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error)
	QuoteIdentifier(name string) string
	Placeholder(n int) string

	SchemaExists(ctx context.Context, db *DB, schema string) (bool, error)
	ListSchemaTables(ctx context.Context, db *DB, schema string) ([]string, error)
	ListSchemaViews(ctx context.Context, db *DB, schema string) ([]string, error)
	ColumnsOf(ctx context.Context, db *DB, schema, table string) ([]ColumnMeta, error)

	ColumnType(t catalog.ColType) string
	ParamNameExpr(parmExpr, ordinalExpr string) string

	CreateSchemaSQL(schema string) string
	DropSchemaSQL(schema string) string
	CreateAliasSQL(docSchema, nativeSchema, table string) string
	DropAliasSQL(docSchema, table string) string
	RenderSyncTrigger(t generator.SyncTrigger) []string
	DropTriggerSQL(t generator.SyncTrigger) string
	// DropProcedureSQL returns "" for dialects whose triggers have no
	// separate backing routine.
	DropProcedureSQL(t generator.SyncTrigger) string
}

var (
	dialectHandlers = make(map[string]DialectHandler)
	mu              sync.RWMutex
)

func RegisterDialectHandler(dialect string, handler DialectHandler) {
	mu.Lock()
	defer mu.Unlock()
	dialectHandlers[dialect] = handler
}

func GetDialectHandler(dialect string) (DialectHandler, error) {
	mu.RLock()
	defer mu.RUnlock()
	handler, ok := dialectHandlers[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported database dialect: %s", dialect)
	}
	return handler, nil
}

func New(cfg config.DatabaseConfig) (*DB, error) {
	handler, err := GetDialectHandler(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	var pool *sql.DB
	if strings.HasPrefix(cfg.Dialect, "cloudsql") {
		pool, err = handler.CreateCloudSQLPool(cfg)
	} else {
		pool, err = handler.CreateStandardPool(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool for dialect %s: %w", cfg.Dialect, err)
	}

	if err := pool.PingContext(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database (ping failed) for dialect %s: %w", cfg.Dialect, err)
	}

	return &DB{
		Pool:    pool,
		Handler: handler,
		Config:  cfg,
	}, nil
}

func (db *DB) GetConfig() config.DatabaseConfig {
	return db.Config
}

func (db *DB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	return db.Pool.PingContext(ctx)
}

func (db *DB) Close() error {
	if db.Pool != nil {
		return db.Pool.Close()
	}
	return nil
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.Pool.QueryContext(ctx, query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.Pool.QueryRowContext(ctx, query, args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.Pool.ExecContext(ctx, query, args...)
}

func (db *DB) SchemaExists(ctx context.Context, schema string) (bool, error) {
	if db.Handler == nil {
		return false, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.SchemaExists(ctx, db, schema)
}

func (db *DB) ListSchemaTables(ctx context.Context, schema string) ([]string, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListSchemaTables(ctx, db, schema)
}

func (db *DB) ListSchemaViews(ctx context.Context, schema string) ([]string, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListSchemaViews(ctx, db, schema)
}

func (db *DB) ColumnsOf(ctx context.Context, schema, table string) ([]ColumnMeta, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ColumnsOf(ctx, db, schema, table)
}

// KeyColumnsOf returns the table's declared key columns in key order. A table
// with no key columns yields an empty slice; callers that require a key check
// for it themselves.
func (db *DB) KeyColumnsOf(ctx context.Context, schema, table string) ([]string, error) {
	cols, err := db.ColumnsOf(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	var keyed []ColumnMeta
	for _, c := range cols {
		if c.IsKey {
			keyed = append(keyed, c)
		}
	}
	// key positions are 1-based and contiguous; a simple insertion keeps the
	// declared key order without pulling in sort for a handful of columns
	ordered := make([]string, len(keyed))
	for _, c := range keyed {
		if c.KeyPosition < 1 || c.KeyPosition > len(keyed) {
			return nil, fmt.Errorf("table %s.%s: key column %s has invalid key position %d", schema, table, c.Name, c.KeyPosition)
		}
		ordered[c.KeyPosition-1] = c.Name
	}
	return ordered, nil
}

// ExecuteSQLStatements runs the given statements in a single transaction.
func (db *DB) ExecuteSQLStatements(ctx context.Context, sqlStatements []string) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	if len(sqlStatements) == 0 {
		return nil
	}

	tx, err := db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range sqlStatements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("failed executing statement #%d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
