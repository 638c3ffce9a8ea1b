package utils

import "testing"

func TestParseKeyValues(t *testing.T) {
	cols, vals, err := ParseKeyValues([]string{"tabschema=APP", "tabname=ORDERS"})
	if err != nil {
		t.Fatalf("ParseKeyValues() unexpected error: %v", err)
	}
	if len(cols) != 2 || cols[0] != "tabschema" || cols[1] != "tabname" {
		t.Errorf("columns = %v", cols)
	}
	if len(vals) != 2 || vals[0] != "APP" || vals[1] != "ORDERS" {
		t.Errorf("values = %v", vals)
	}
}

func TestParseKeyValuesKeepsEqualsInValue(t *testing.T) {
	_, vals, err := ParseKeyValues([]string{"colname=a=b"})
	if err != nil {
		t.Fatalf("ParseKeyValues() unexpected error: %v", err)
	}
	if vals[0] != "a=b" {
		t.Errorf("value = %s, want a=b", vals[0])
	}
}

func TestParseKeyValuesRejectsMalformedPair(t *testing.T) {
	for _, in := range []string{"tabschema", "=APP"} {
		if _, _, err := ParseKeyValues([]string{in}); err == nil {
			t.Errorf("ParseKeyValues(%q) expected error", in)
		}
	}
}

func TestGetDefaultOutputFilePath(t *testing.T) {
	if got := GetDefaultOutputFilePath("mydb"); got != "mydb_comments.sql" {
		t.Errorf("GetDefaultOutputFilePath() = %s", got)
	}
}
