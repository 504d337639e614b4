package engine

import (
	"context"
	"math"
	"testing"

	lperrors "lpcore/internal/errors"
)

func TestCrossTabulateRowNormalization(t *testing.T) {
	tbl := buildTable(t, []string{"職種", "回答数", "満足度"}, [][]string{
		{"営業", "10", "高"},
		{"営業", "12", "高"},
		{"営業", "8", "低"},
		{"技術", "9", "低"},
	})
	results, err := CrossTabulate(context.Background(), tbl, 0, []int{2})
	if err != nil {
		t.Fatalf("CrossTabulate: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}

	tab := results[0].Tab
	if tab.ValueColumn != "満足度" {
		t.Errorf("value column: %q", tab.ValueColumn)
	}
	if got := tab.Cells["営業"]["高"]; got != 66.7 {
		t.Errorf("営業/高: %v", got)
	}
	if got := tab.Cells["営業"]["低"]; got != 33.3 {
		t.Errorf("営業/低: %v", got)
	}
	if got := tab.Cells["技術"]["低"]; got != 100.0 {
		t.Errorf("技術/低: %v", got)
	}

	// Each group's realized-cell distribution sums to 100 modulo rounding.
	for _, group := range tab.IndexValues {
		sum := 0.0
		for _, pct := range tab.Cells[group] {
			sum += pct
		}
		if math.Abs(sum-100) > 0.1 {
			t.Errorf("group %s sums to %v", group, sum)
		}
	}
}

func TestCrossTabulateExtremesAndNotable(t *testing.T) {
	tbl := buildTable(t, []string{"職種", "回答数", "満足度"}, [][]string{
		{"営業", "10", "高"},
		{"営業", "12", "高"},
		{"営業", "8", "低"},
		{"技術", "9", "低"},
	})
	results, _ := CrossTabulate(context.Background(), tbl, 0, []int{2})
	r := results[0]

	if r.MaxCell.Index != "技術" || r.MaxCell.Category != "低" || r.MaxCell.Percentage != 100.0 {
		t.Errorf("max cell: %+v", r.MaxCell)
	}
	if r.MinCell.Index != "営業" || r.MinCell.Category != "低" || r.MinCell.Percentage != 33.3 {
		t.Errorf("min cell: %+v", r.MinCell)
	}

	// 営業/高 is 66.7 against a category mean of 33.35, well past the
	// 15-point threshold.
	found := false
	for _, n := range r.Notable {
		if n.Index == "営業" && n.Category == "高" {
			found = true
			if n.Direction != "above" {
				t.Errorf("direction: %s", n.Direction)
			}
			if n.Deviation < NotableDeviationPts {
				t.Errorf("deviation: %v", n.Deviation)
			}
		}
	}
	if !found {
		t.Errorf("営業/高 should be notable: %+v", r.Notable)
	}
}

func TestCrossTabulateSkipsBlankIndexRows(t *testing.T) {
	tbl := buildTable(t, []string{"職種", "回答数", "満足度"}, [][]string{
		{"営業", "10", "高"},
		{"", "5", "低"},
		{"営業", "8", "低"},
	})
	results, _ := CrossTabulate(context.Background(), tbl, 0, []int{2})
	tab := results[0].Tab
	if len(tab.IndexValues) != 1 || tab.IndexValues[0] != "営業" {
		t.Errorf("index values: %v", tab.IndexValues)
	}
	if got := tab.Cells["営業"]["高"]; got != 50.0 {
		t.Errorf("percentage over 2 営業 rows: %v", got)
	}
}

func TestCrossTabulateSkipsEmptyValueColumn(t *testing.T) {
	tbl := buildTable(t, []string{"職種", "備考", "満足度"}, [][]string{
		{"営業", "", "高"},
		{"技術", "", "低"},
	})
	results, err := CrossTabulate(context.Background(), tbl, 0, []int{1, 2})
	if err != nil {
		t.Fatalf("CrossTabulate: %v", err)
	}
	// The all-null column is skipped, the usable one still produced.
	if len(results) != 1 || results[0].Tab.ValueColumn != "満足度" {
		t.Errorf("results: %+v", results)
	}
}

func TestCrossTabulateCancelledContext(t *testing.T) {
	tbl := buildTable(t, []string{"職種", "回答数", "満足度"}, [][]string{
		{"営業", "10", "高"},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CrossTabulate(ctx, tbl, 0, []int{2})
	if err == nil {
		t.Error("cancelled context should abort")
	}
}

func TestCrossTabulateTooFewColumns(t *testing.T) {
	tbl := buildTable(t, []string{"職種", "部門"}, [][]string{
		{"営業", "東京"},
		{"技術", "東京"},
		{"技術", "大阪"},
	})
	_, err := CrossTabulate(context.Background(), tbl, 0, []int{1})
	if err == nil {
		t.Fatal("expected error")
	}
	if !lperrors.HasCode(err, lperrors.CodeInsufficientColumns) {
		t.Errorf("want INSUFFICIENT_COLUMNS, got %v", err)
	}
}
