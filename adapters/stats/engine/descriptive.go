// Package engine implements the deterministic survey analyses: descriptive
// statistics, cross-tabulation, job-type preference profiling and
// choice-rate correlation. Every function here is a pure function of the
// input table; failures are isolated per column and recorded inline so a
// bad column never aborts the rest of the analysis.
package engine

import (
	"math"

	"github.com/montanaflynn/stats"

	"lpcore/domain/insight"
	"lpcore/domain/table"
	"lpcore/internal"
)

// DisplayTopCategories is how many categorical values the display summary keeps.
const DisplayTopCategories = 5

// Describe computes per-column statistics for the whole table. Columns are
// classified as numeric or categorical by inference; nulls are excluded from
// all aggregates. Column order of the source table is preserved in the
// order slices.
func Describe(t *table.Table) insight.Statistics {
	result := insight.Statistics{
		Numeric:     make(map[string]insight.NumericStats),
		Categorical: make(map[string]insight.CategoricalStats),
	}

	for i := 0; i < t.NumColumns(); i++ {
		col := t.ColumnAt(i)
		if col.Kind() == table.KindNumeric {
			result.Numeric[col.Name] = describeNumeric(col)
			result.NumericOrder = append(result.NumericOrder, col.Name)
		} else {
			result.Categorical[col.Name] = describeCategorical(col, t.NumRows())
			result.CategoricalOrder = append(result.CategoricalOrder, col.Name)
		}
	}
	return result
}

func describeNumeric(col *table.Column) insight.NumericStats {
	values := col.Floats()
	if len(values) == 0 {
		internal.DefaultLogger.Warn("column %q has no numeric values, recording inline error", col.Name)
		return insight.NumericStats{Err: "no numeric values in column"}
	}

	min, err := stats.Min(values)
	if err != nil {
		return insight.NumericStats{Err: err.Error()}
	}
	max, err := stats.Max(values)
	if err != nil {
		return insight.NumericStats{Err: err.Error()}
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return insight.NumericStats{Err: err.Error()}
	}
	median, err := stats.Median(values)
	if err != nil {
		return insight.NumericStats{Err: err.Error()}
	}
	stdDev, err := stats.StandardDeviation(values)
	if err != nil {
		return insight.NumericStats{Err: err.Error()}
	}

	s := insight.NumericStats{Min: min, Max: max, Mean: mean, Median: median, StdDev: stdDev}
	if !finite(s.Min) || !finite(s.Max) || !finite(s.Mean) || !finite(s.Median) || !finite(s.StdDev) {
		return insight.NumericStats{Err: "non-finite statistic"}
	}
	return s
}

func describeCategorical(col *table.Column, totalRows int) insight.CategoricalStats {
	counts := make(map[string]insight.CategoryCount)
	var order []string // first-appearance order, re-sorted by count below
	for i, raw := range col.Values {
		if col.IsNull(i) {
			continue
		}
		c, seen := counts[raw]
		if !seen {
			order = append(order, raw)
		}
		c.Count++
		counts[raw] = c
	}

	for value, c := range counts {
		if totalRows > 0 {
			c.Percentage = Round1(float64(c.Count) / float64(totalRows) * 100)
		}
		counts[value] = c
	}

	// Descending count; ties keep first-appearance order (stable sort).
	sortByCountDesc(order, counts)

	return insight.CategoricalStats{Counts: counts, Order: order}
}

func sortByCountDesc(order []string, counts map[string]insight.CategoryCount) {
	// Insertion sort keeps the slice stable and the data is survey-sized.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && counts[order[j]].Count > counts[order[j-1]].Count; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
}

// Round1 rounds to one decimal place, the precision every percentage in the
// analysis is reported at.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
