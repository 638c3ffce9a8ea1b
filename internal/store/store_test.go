package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbdoctools/doccat/internal/catalog"
	"github.com/dbdoctools/doccat/internal/config"
	"github.com/dbdoctools/doccat/internal/database"
	_ "github.com/dbdoctools/doccat/internal/database/postgres"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDb.Close() })

	handler, err := database.GetDialectHandler("postgres")
	require.NoError(t, err)

	db := &database.DB{Pool: mockDb, Handler: handler}
	return New(db, config.Default().Overlay), mock
}

func tablesKind(t *testing.T) catalog.Kind {
	t.Helper()
	kind, ok := catalog.Lookup("tables")
	require.True(t, ok)
	return kind
}

func str(s string) *string { return &s }

func TestApplyInsertsWhenRowAbsent(t *testing.T) {
	s, mock := newMockStore(t)
	kind := tablesKind(t)
	key := []KeyValue{{"tabschema", "APP"}, {"tabname", "ORDERS"}}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM "docdata"."tables" WHERE "tabschema" = $1 AND "tabname" = $2`)).
		WithArgs("APP", "ORDERS").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "docdata"."tables" ("tabschema", "tabname", "remarks") VALUES ($1, $2, $3)`)).
		WithArgs("APP", "ORDERS", "Order headers.").
		WillReturnResult(sqlmock.NewResult(0, 1))

	op, err := s.Apply(context.Background(), kind, key, nil, str("Order headers."))
	require.NoError(t, err)
	assert.Equal(t, catalog.OpInsert, op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyUpdatesWhenRowPresent(t *testing.T) {
	s, mock := newMockStore(t)
	kind := tablesKind(t)
	key := []KeyValue{{"tabschema", "APP"}, {"tabname", "ORDERS"}}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM "docdata"."tables"`)).
		WithArgs("APP", "ORDERS").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "docdata"."tables" SET "remarks" = $1 WHERE "tabschema" = $2 AND "tabname" = $3`)).
		WithArgs("Order headers, revised.", "APP", "ORDERS").
		WillReturnResult(sqlmock.NewResult(0, 1))

	op, err := s.Apply(context.Background(), kind, key, nil, str("Order headers, revised."))
	require.NoError(t, err)
	assert.Equal(t, catalog.OpUpdate, op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDeletesOnNullComment(t *testing.T) {
	s, mock := newMockStore(t)
	kind := tablesKind(t)
	key := []KeyValue{{"tabschema", "APP"}, {"tabname", "ORDERS"}}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM "docdata"."tables"`)).
		WithArgs("APP", "ORDERS").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "docdata"."tables" WHERE "tabschema" = $1 AND "tabname" = $2`)).
		WithArgs("APP", "ORDERS").
		WillReturnResult(sqlmock.NewResult(0, 1))

	op, err := s.Apply(context.Background(), kind, key, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, catalog.OpDelete, op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyNoopWhenAbsentAndNull(t *testing.T) {
	s, mock := newMockStore(t)
	kind := tablesKind(t)
	key := []KeyValue{{"tabschema", "APP"}, {"tabname", "ORDERS"}}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM "docdata"."tables"`)).
		WithArgs("APP", "ORDERS").
		WillReturnError(sql.ErrNoRows)

	op, err := s.Apply(context.Background(), kind, key, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, catalog.OpNoop, op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTreatsEmptyCommentAsNull(t *testing.T) {
	s, mock := newMockStore(t)
	kind := tablesKind(t)
	key := []KeyValue{{"tabschema", "APP"}, {"tabname", "ORDERS"}}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM "docdata"."tables"`)).
		WithArgs("APP", "ORDERS").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "docdata"."tables"`)).
		WithArgs("APP", "ORDERS").
		WillReturnResult(sqlmock.NewResult(0, 1))

	op, err := s.Apply(context.Background(), kind, key, nil, str(""))
	require.NoError(t, err)
	assert.Equal(t, catalog.OpDelete, op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyInsertIncludesCarryColumns(t *testing.T) {
	s, mock := newMockStore(t)
	kind, ok := catalog.Lookup("routines")
	require.True(t, ok)
	key := []KeyValue{{"routineschema", "APP"}, {"specificname", "SQL123"}}
	carry := []KeyValue{{"routinetype", catalog.RoutineTypeProcedure}}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM "docdata"."routines"`)).
		WithArgs("APP", "SQL123").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "docdata"."routines" ("routineschema", "specificname", "routinetype", "remarks") VALUES ($1, $2, $3, $4)`)).
		WithArgs("APP", "SQL123", "P", "Nightly rollup.").
		WillReturnResult(sqlmock.NewResult(0, 1))

	op, err := s.Apply(context.Background(), kind, key, carry, str("Nightly rollup."))
	require.NoError(t, err)
	assert.Equal(t, catalog.OpInsert, op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyValidatesKeyShape(t *testing.T) {
	s, _ := newMockStore(t)
	kind := tablesKind(t)

	tests := []struct {
		name string
		key  []KeyValue
	}{
		{"missing column", []KeyValue{{"tabschema", "APP"}}},
		{"wrong order", []KeyValue{{"tabname", "ORDERS"}, {"tabschema", "APP"}}},
		{"wrong column", []KeyValue{{"tabschema", "APP"}, {"colname", "ID"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Apply(context.Background(), kind, tt.key, nil, str("x"))
			assert.Error(t, err)
		})
	}
}

func TestApplyRejectsUnknownRowType(t *testing.T) {
	s, _ := newMockStore(t)
	kind, ok := catalog.Lookup("routineparms")
	require.True(t, ok)
	key := []KeyValue{
		{"routineschema", "APP"},
		{"specificname", "SQL123"},
		{"rowtype", "X"},
		{"ordinal", "1"},
	}

	_, err := s.Apply(context.Background(), kind, key, nil, str("First input."))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid row type")
}

func TestGet(t *testing.T) {
	s, mock := newMockStore(t)
	kind := tablesKind(t)
	key := []KeyValue{{"tabschema", "APP"}, {"tabname", "ORDERS"}}

	t.Run("present", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "remarks" FROM "docdata"."tables" WHERE "tabschema" = $1 AND "tabname" = $2`)).
			WithArgs("APP", "ORDERS").
			WillReturnRows(sqlmock.NewRows([]string{"remarks"}).AddRow("Order headers."))

		got, err := s.Get(context.Background(), kind, key)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Order headers.", *got)
	})

	t.Run("absent", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "remarks" FROM "docdata"."tables"`)).
			WithArgs("APP", "ORDERS").
			WillReturnError(sql.ErrNoRows)

		got, err := s.Get(context.Background(), kind, key)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
