package sqlserver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dbdoctools/doccat/internal/catalog"
	"github.com/dbdoctools/doccat/internal/database"
	"github.com/dbdoctools/doccat/internal/generator"
)

func newMockSQLServerDB(t *testing.T) (*database.DB, sqlmock.Sqlmock, sqlServerHandler) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { mockDb.Close() })

	handler := sqlServerHandler{}
	db := &database.DB{Pool: mockDb, Handler: handler}
	return db, mock, handler
}

func TestSQLServerQuoteIdentifier(t *testing.T) {
	handler := sqlServerHandler{}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Simple name", "tables", "[tables]"},
		{"Name with spaces", "my table", "[my table]"},
		{"Name with closing bracket", "my]table", "[my]]table]"},
		{"Empty name", "", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handler.QuoteIdentifier(tt.in); got != tt.want {
				t.Errorf("QuoteIdentifier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSQLServerPlaceholder(t *testing.T) {
	handler := sqlServerHandler{}
	if got := handler.Placeholder(1); got != "@p1" {
		t.Errorf("Placeholder(1) = %s, want @p1", got)
	}
	if got := handler.Placeholder(4); got != "@p4" {
		t.Errorf("Placeholder(4) = %s, want @p4", got)
	}
}

func TestSQLServerSchemaExists(t *testing.T) {
	db, mock, handler := newMockSQLServerDB(t)

	mock.ExpectQuery(`FROM INFORMATION_SCHEMA\.SCHEMATA`).
		WithArgs("doccat").
		WillReturnRows(sqlmock.NewRows([]string{""}).AddRow(1))
	mock.ExpectQuery(`FROM INFORMATION_SCHEMA\.SCHEMATA`).
		WithArgs("dropped").
		WillReturnRows(sqlmock.NewRows([]string{""}))

	exists, err := handler.SchemaExists(context.Background(), db, "doccat")
	if err != nil {
		t.Fatalf("SchemaExists() unexpected error: %v", err)
	}
	if !exists {
		t.Error("SchemaExists() = false for present schema, want true")
	}

	exists, err = handler.SchemaExists(context.Background(), db, "dropped")
	if err != nil {
		t.Fatalf("SchemaExists() unexpected error: %v", err)
	}
	if exists {
		t.Error("SchemaExists() = true for absent schema, want false")
	}
}

func TestSQLServerListSchemaTables(t *testing.T) {
	db, mock, handler := newMockSQLServerDB(t)

	mock.ExpectQuery(`FROM INFORMATION_SCHEMA\.TABLES`).
		WithArgs("syscat").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).
			AddRow("routines").
			AddRow("tables"))

	got, err := handler.ListSchemaTables(context.Background(), db, "syscat")
	if err != nil {
		t.Fatalf("ListSchemaTables() unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "routines" || got[1] != "tables" {
		t.Errorf("ListSchemaTables() = %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLServerColumnsOfMissingTable(t *testing.T) {
	db, mock, handler := newMockSQLServerDB(t)

	mock.ExpectQuery(`FROM INFORMATION_SCHEMA\.COLUMNS`).
		WithArgs("syscat", "nosuchtable").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "KEY_POSITION"}))

	_, err := handler.ColumnsOf(context.Background(), db, "syscat", "nosuchtable")
	var notFound *database.ErrMetadataNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("ColumnsOf() error = %v, want ErrMetadataNotFound", err)
	}
}

func TestSQLServerColumnType(t *testing.T) {
	handler := sqlServerHandler{}
	tests := []struct {
		in   catalog.ColType
		want string
	}{
		{catalog.TypeName, "nvarchar(128)"},
		{catalog.TypeChar1, "nchar(1)"},
		{catalog.TypeSmallInt, "smallint"},
		{catalog.TypeText, "nvarchar(max)"},
	}
	for _, tt := range tests {
		if got := handler.ColumnType(tt.in); got != tt.want {
			t.Errorf("ColumnType(%d) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSQLServerParamNameExpr(t *testing.T) {
	handler := sqlServerHandler{}
	got := handler.ParamNameExpr("n.[parmname]", "n.[ordinal]")
	want := "COALESCE(NULLIF(n.[parmname], ''), 'P' + CAST(n.[ordinal] AS nvarchar(10)))"
	if got != want {
		t.Errorf("ParamNameExpr() = %s, want %s", got, want)
	}
}

func TestSQLServerRenderSyncTrigger(t *testing.T) {
	handler := sqlServerHandler{}
	trigger := generator.SyncTrigger{
		DocSchema:      "doccat",
		ExtendedSchema: "docdata",
		Table:          "tables",
		CommentColumn:  "remarks",
		KeyColumns:     []string{"tabschema", "tabname"},
	}

	stmts := handler.RenderSyncTrigger(trigger)
	if len(stmts) != 1 {
		t.Fatalf("RenderSyncTrigger() returned %d statements, want 1", len(stmts))
	}

	body := stmts[0]
	for _, fragment := range []string{
		"CREATE TRIGGER [doccat].[tables_remarks_sync] ON [doccat].[tables] INSTEAD OF UPDATE",
		"DELETE e FROM [docdata].[tables] e JOIN deleted d ON e.[tabschema] = d.[tabschema] AND e.[tabname] = d.[tabname] JOIN inserted i ON i.[tabschema] = d.[tabschema] AND i.[tabname] = d.[tabname]",
		"WHERE i.[remarks] IS NULL OR i.[remarks] = ''",
		"UPDATE e SET e.[remarks] = i.[remarks] FROM [docdata].[tables] e JOIN deleted d ON",
		"INSERT INTO [docdata].[tables] ([tabschema], [tabname], [remarks])",
		"SELECT d.[tabschema], d.[tabname], i.[remarks] FROM deleted d JOIN inserted i ON",
		"AND NOT EXISTS (SELECT 1 FROM [docdata].[tables] e WHERE",
	} {
		if !strings.Contains(body, fragment) {
			t.Errorf("trigger missing %q:\n%s", fragment, body)
		}
	}

	// Extended rows are located by the old key values only; inserted appears
	// solely in the pairing join and the comment expression.
	if strings.Contains(body, "e.[tabschema] = i.[tabschema]") {
		t.Errorf("trigger addresses extended rows by new key values:\n%s", body)
	}
}

func TestSQLServerRenderSyncTriggerCarriesOldRowValues(t *testing.T) {
	handler := sqlServerHandler{}
	trigger := generator.SyncTrigger{
		DocSchema:      "doccat",
		ExtendedSchema: "docdata",
		Table:          "routines",
		CommentColumn:  "remarks",
		KeyColumns:     []string{"routineschema", "specificname"},
		CarryColumns:   []string{"routinetype"},
	}

	stmts := handler.RenderSyncTrigger(trigger)
	if len(stmts) != 1 {
		t.Fatalf("RenderSyncTrigger() returned %d statements, want 1", len(stmts))
	}
	if !strings.Contains(stmts[0], "SELECT d.[routineschema], d.[specificname], d.[routinetype], i.[remarks]") {
		t.Errorf("insert does not take keys and carry columns from the old row:\n%s", stmts[0])
	}
}

func TestSQLServerDropSQL(t *testing.T) {
	handler := sqlServerHandler{}
	trigger := generator.SyncTrigger{
		DocSchema:     "doccat",
		Table:         "tables",
		CommentColumn: "remarks",
	}

	if got := handler.DropTriggerSQL(trigger); got != "DROP TRIGGER IF EXISTS [doccat].[tables_remarks_sync]" {
		t.Errorf("DropTriggerSQL() = %s", got)
	}
	// Trigger bodies are inline; there is no backing routine.
	if got := handler.DropProcedureSQL(trigger); got != "" {
		t.Errorf("DropProcedureSQL() = %q, want empty", got)
	}
	if got := handler.DropSchemaSQL("docdata"); got != "DROP SCHEMA [docdata]" {
		t.Errorf("DropSchemaSQL() = %s", got)
	}
}

func TestSQLServerHandlerRegistration(t *testing.T) {
	for _, dialect := range []string{"sqlserver", "cloudsqlsqlserver"} {
		if _, err := database.GetDialectHandler(dialect); err != nil {
			t.Errorf("dialect %s not registered: %v", dialect, err)
		}
	}
}
