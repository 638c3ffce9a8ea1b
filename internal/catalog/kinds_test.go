package catalog

import (
	"testing"
)

func TestKindsCoverEveryObjectCategory(t *testing.T) {
	want := []string{
		"schemata", "datatypes", "tables", "columns", "tabconst",
		"indexes", "triggers", "routines", "routineparms", "tablespaces",
	}
	got := Kinds()
	if len(got) != len(want) {
		t.Fatalf("Kinds() returned %d kinds, want %d", len(got), len(want))
	}
	for i, kind := range got {
		if kind.Table != want[i] {
			t.Errorf("Kinds()[%d].Table = %s, want %s", i, kind.Table, want[i])
		}
	}
}

func TestLookup(t *testing.T) {
	kind, ok := Lookup("columns")
	if !ok {
		t.Fatal("Lookup(columns) not found")
	}
	wantKeys := []string{"tabschema", "tabname", "colname"}
	gotKeys := kind.KeyNames()
	if len(gotKeys) != len(wantKeys) {
		t.Fatalf("columns key = %v, want %v", gotKeys, wantKeys)
	}
	for i := range wantKeys {
		if gotKeys[i] != wantKeys[i] {
			t.Errorf("columns key[%d] = %s, want %s", i, gotKeys[i], wantKeys[i])
		}
	}

	if _, ok := Lookup("nosuchtable"); ok {
		t.Error("Lookup(nosuchtable) unexpectedly found a kind")
	}
}

func TestRoutineParmsKeyShape(t *testing.T) {
	kind, ok := Lookup("routineparms")
	if !ok {
		t.Fatal("Lookup(routineparms) not found")
	}
	want := []string{"routineschema", "specificname", "rowtype", "ordinal"}
	got := kind.KeyNames()
	if len(got) != len(want) {
		t.Fatalf("routineparms key = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("routineparms key[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if carries := kind.CarryNames(); len(carries) != 1 || carries[0] != "parmname" {
		t.Errorf("routineparms carry = %v, want [parmname]", carries)
	}
}

func TestExportable(t *testing.T) {
	for _, kind := range Kinds() {
		want := kind.Table != "routineparms"
		if got := kind.Exportable(); got != want {
			t.Errorf("%s.Exportable() = %v, want %v", kind.Table, got, want)
		}
	}
}

func TestRoutinesAreRoutineTyped(t *testing.T) {
	for _, kind := range Kinds() {
		if kind.RoutineTyped != (kind.Table == "routines") {
			t.Errorf("%s.RoutineTyped = %v", kind.Table, kind.RoutineTyped)
		}
	}
}

func TestRowTypesClosedSet(t *testing.T) {
	want := []string{"B", "C", "O", "P", "R"}
	if len(RowTypes) != len(want) {
		t.Fatalf("RowTypes has %d entries, want %d", len(RowTypes), len(want))
	}
	for _, rt := range want {
		if _, ok := RowTypes[rt]; !ok {
			t.Errorf("RowTypes missing %s", rt)
		}
	}
}
