package table

import (
	"encoding/json"
	"testing"
)

func TestAppendRowPadsAndTruncates(t *testing.T) {
	tbl := New("t", []string{"a", "b", "c"})
	tbl.AppendRow([]string{"1", "2"})
	tbl.AppendRow([]string{"3", "4", "5", "6"})

	if tbl.NumRows() != 2 || tbl.NumColumns() != 3 {
		t.Fatalf("shape: %d rows, %d cols", tbl.NumRows(), tbl.NumColumns())
	}
	if !tbl.ColumnAt(2).IsNull(0) {
		t.Error("short row should pad with null")
	}
	if got := tbl.ColumnAt(2).Values[1]; got != "5" {
		t.Errorf("long row should truncate at header width, got %q", got)
	}
}

func TestHeaderTrimming(t *testing.T) {
	tbl := New("t", []string{" 職種 ", "回答数"})
	names := tbl.ColumnNames()
	if names[0] != "職種" {
		t.Errorf("header not trimmed: %q", names[0])
	}
}

func TestKindInference(t *testing.T) {
	tbl := New("t", []string{"num", "cat", "mixed", "empty"})
	tbl.AppendRow([]string{"1.5", "営業", "7", ""})
	tbl.AppendRow([]string{"", "技術", "x", ""})

	cases := []struct {
		col  int
		want Kind
	}{
		{0, KindNumeric},
		{1, KindCategorical},
		{2, KindCategorical},
		{3, KindNumeric}, // all-null columns fall to the numeric path
	}
	for _, tc := range cases {
		if got := tbl.ColumnAt(tc.col).Kind(); got != tc.want {
			t.Errorf("column %d: got %s, want %s", tc.col, got, tc.want)
		}
	}
}

func TestFloats(t *testing.T) {
	tbl := New("t", []string{"v"})
	tbl.AppendRow([]string{"1"})
	tbl.AppendRow([]string{""})
	tbl.AppendRow([]string{"2.5"})
	tbl.AppendRow([]string{"abc"})

	got := tbl.ColumnAt(0).Floats()
	if len(got) != 2 || got[0] != 1 || got[1] != 2.5 {
		t.Errorf("Floats: %v", got)
	}
}

func TestSampleRowsJSON(t *testing.T) {
	tbl := New("t", []string{"職種", "回答数"})
	tbl.AppendRow([]string{"営業", "10"})
	tbl.AppendRow([]string{"技術", ""})
	tbl.AppendRow([]string{"事務", "12"})

	rows := tbl.SampleRows(2)
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}

	out, err := json.Marshal(rows[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"職種":"営業","回答数":10}`
	if string(out) != want {
		t.Errorf("got %s, want %s", out, want)
	}

	out, _ = json.Marshal(rows[1])
	if string(out) != `{"職種":"技術","回答数":null}` {
		t.Errorf("null cell: %s", out)
	}
}

func TestSampleRowsClampedToRowCount(t *testing.T) {
	tbl := New("t", []string{"a"})
	tbl.AppendRow([]string{"1"})
	if got := len(tbl.SampleRows(5)); got != 1 {
		t.Errorf("got %d rows", got)
	}
}
