package engine

import (
	"context"
	"fmt"

	"lpcore/domain/insight"
	"lpcore/domain/table"
	"lpcore/internal"
)

// NotableDeviationPts is the percentage-point threshold above which a cell's
// deviation from its column mean is flagged.
const NotableDeviationPts = 15.0

// CrossTabulate builds one row-normalized cross-tab per value column,
// grouping rows by the index column. Percentages are relative to the group's
// row count, so each group's distribution sums to 100 independent of other
// groups. A failure on one value column is logged and skipped without
// touching the others; the context is checked between columns so a deadline
// aborts cleanly at column granularity.
func CrossTabulate(ctx context.Context, t *table.Table, indexCol int, valueCols []int) ([]insight.CrossTabResult, error) {
	if t.NumColumns() < MinPositionalColumns {
		return nil, lpInsufficientColumns(t.NumColumns())
	}
	if indexCol >= t.NumColumns() {
		return nil, fmt.Errorf("index column %d out of range", indexCol)
	}

	groups, groupOrder := groupRows(t.ColumnAt(indexCol))

	var results []insight.CrossTabResult
	for _, vc := range valueCols {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := crossTabOne(t, groups, groupOrder, vc)
		if err != nil {
			internal.DefaultLogger.Warn("cross-tab skipped for column %d: %v", vc, err)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// groupRows maps each non-blank index value to its row indices, preserving
// first-appearance order. Groups with zero rows cannot occur by construction,
// which guards the later division.
func groupRows(indexCol *table.Column) (map[string][]int, []string) {
	groups := make(map[string][]int)
	var order []string
	for i := range indexCol.Values {
		if indexCol.IsNull(i) {
			continue
		}
		key := indexCol.Values[i]
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	return groups, order
}

func crossTabOne(t *table.Table, groups map[string][]int, groupOrder []string, valueCol int) (insight.CrossTabResult, error) {
	if valueCol >= t.NumColumns() {
		return insight.CrossTabResult{}, fmt.Errorf("value column %d out of range", valueCol)
	}
	col := t.ColumnAt(valueCol)

	tab := insight.CrossTab{
		ValueColumn: col.Name,
		Cells:       make(map[string]map[string]float64),
	}
	seenCategory := make(map[string]bool)

	for _, group := range groupOrder {
		rows := groups[group]
		if len(rows) == 0 {
			continue
		}
		counts := make(map[string]int)
		for _, i := range rows {
			if col.IsNull(i) {
				continue
			}
			value := col.Values[i]
			if !seenCategory[value] {
				seenCategory[value] = true
				tab.Categories = append(tab.Categories, value)
			}
			counts[value]++
		}
		cells := make(map[string]float64, len(counts))
		for value, n := range counts {
			cells[value] = Round1(float64(n) / float64(len(rows)) * 100)
		}
		tab.Cells[group] = cells
		tab.IndexValues = append(tab.IndexValues, group)
	}

	if len(tab.Categories) == 0 {
		return insight.CrossTabResult{}, fmt.Errorf("column %q has no non-null cells", col.Name)
	}

	result := insight.CrossTabResult{Tab: tab}
	result.MaxCell, result.MinCell = extremeCells(tab)
	result.Notable = notableCells(tab)
	return result, nil
}

// extremeCells locates the single max and min percentage cells across the
// whole cross-tab. Only realized cells participate: a (group, category)
// combination no row produced is skipped rather than treated as 0%.
func extremeCells(tab insight.CrossTab) (maxCell, minCell insight.CrossTabCell) {
	first := true
	for _, group := range tab.IndexValues {
		for _, category := range tab.Categories {
			pct, ok := tab.Cells[group][category]
			if !ok {
				continue
			}
			cell := insight.CrossTabCell{Index: group, Category: category, Percentage: pct}
			if first {
				maxCell, minCell = cell, cell
				first = false
				continue
			}
			if pct > maxCell.Percentage {
				maxCell = cell
			}
			if pct < minCell.Percentage {
				minCell = cell
			}
		}
	}
	return maxCell, minCell
}

// notableCells flags cells deviating from their category's mean-across-groups
// by more than NotableDeviationPts, with direction.
func notableCells(tab insight.CrossTab) []insight.NotableCell {
	means := make(map[string]float64, len(tab.Categories))
	for _, category := range tab.Categories {
		sum := 0.0
		for _, group := range tab.IndexValues {
			sum += tab.Cells[group][category] // absent cell contributes 0
		}
		if len(tab.IndexValues) > 0 {
			means[category] = sum / float64(len(tab.IndexValues))
		}
	}

	var notable []insight.NotableCell
	for _, group := range tab.IndexValues {
		for _, category := range tab.Categories {
			pct := tab.Cells[group][category]
			deviation := pct - means[category]
			if deviation > NotableDeviationPts || deviation < -NotableDeviationPts {
				direction := "above"
				if deviation < 0 {
					direction = "below"
				}
				notable = append(notable, insight.NotableCell{
					Index:      group,
					Category:   category,
					Percentage: pct,
					ColumnMean: Round1(means[category]),
					Deviation:  Round1(deviation),
					Direction:  direction,
				})
			}
		}
	}
	return notable
}
