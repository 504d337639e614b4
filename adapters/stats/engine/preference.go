package engine

import (
	"sort"

	"lpcore/domain/insight"
	"lpcore/domain/table"
	"lpcore/internal"
)

// MinPositionalColumns is the narrowest table the positional analyses accept:
// category column, total-response-count column, and at least one choice column.
const MinPositionalColumns = 3

// AnalyzePreferences profiles each category row against the overall
// population. The table shape is positional: column 0 is the category label,
// column 1 the total response count, columns 2..N the per-choice counts.
//
// Rows with a blank category, or with a missing, non-numeric or non-positive
// response count, are excluded entirely (counted in SkippedRows). The
// overall population rate per choice is computed across the rows that
// survive that filter, so an invalid row cannot distort the baseline.
func AnalyzePreferences(t *table.Table) (*insight.PreferenceAnalysis, error) {
	if t.NumColumns() < MinPositionalColumns {
		return nil, lpInsufficientColumns(t.NumColumns())
	}

	categories := t.ColumnAt(0)
	totals := t.ColumnAt(1)
	choiceCols := make([]*table.Column, 0, t.NumColumns()-2)
	for i := 2; i < t.NumColumns(); i++ {
		choiceCols = append(choiceCols, t.ColumnAt(i))
	}

	validRows, skipped := validCategoryRows(categories, totals)

	overall := overallRates(totals, choiceCols, validRows)

	result := &insight.PreferenceAnalysis{
		OverallRates: overall,
		ByCategory:   make(map[string]insight.JobTypePreference),
		SkippedRows:  skipped,
	}

	for _, row := range validRows {
		label := categories.Values[row]
		responseCount, _ := totals.FloatAt(row)

		pref := insight.JobTypePreference{
			ResponseCount:       responseCount,
			ChoiceRates:         make(map[string]float64, len(choiceCols)),
			RelativePreferences: make(map[string]float64, len(choiceCols)),
		}

		for _, col := range choiceCols {
			count, ok := col.FloatAt(row)
			if !ok {
				count = 0 // missing choice count defaults to zero
			}
			rate := count / responseCount * 100
			pref.ChoiceRates[col.Name] = Round1(rate)

			overallRate := overall[col.Name]
			if overallRate > 0 {
				pref.RelativePreferences[col.Name] = Round1((rate/overallRate - 1) * 100)
			} else {
				pref.RelativePreferences[col.Name] = 0
			}
		}

		pref.TopChoices = rankChoices(choiceCols, pref.ChoiceRates, false)
		pref.DistinctiveChoices = rankChoices(choiceCols, pref.RelativePreferences, true)

		if _, dup := result.ByCategory[label]; !dup {
			result.Order = append(result.Order, label)
		}
		result.ByCategory[label] = pref
	}

	internal.DefaultLogger.Info("preference analysis: %d categories profiled, %d rows skipped",
		len(result.ByCategory), skipped)
	return result, nil
}

// validCategoryRows applies the row filter and logs each exclusion for
// diagnostics.
func validCategoryRows(categories, totals *table.Column) (rows []int, skipped int) {
	for i := range categories.Values {
		if categories.IsNull(i) {
			skipped++
			internal.DefaultLogger.Debug("row %d skipped: blank category", i)
			continue
		}
		count, ok := totals.FloatAt(i)
		if !ok || count <= 0 {
			skipped++
			internal.DefaultLogger.Debug("row %d (%s) skipped: invalid response count %q",
				i, categories.Values[i], totals.Values[i])
			continue
		}
		rows = append(rows, i)
	}
	return rows, skipped
}

// overallRates computes the population choice rate per choice column:
// sum(choice) / sum(total) * 100 across the valid rows.
func overallRates(totals *table.Column, choiceCols []*table.Column, validRows []int) map[string]float64 {
	totalResponses := 0.0
	for _, row := range validRows {
		v, _ := totals.FloatAt(row)
		totalResponses += v
	}

	rates := make(map[string]float64, len(choiceCols))
	for _, col := range choiceCols {
		if totalResponses <= 0 {
			rates[col.Name] = 0
			continue
		}
		sum := 0.0
		for _, row := range validRows {
			if v, ok := col.FloatAt(row); ok {
				sum += v
			}
		}
		rates[col.Name] = sum / totalResponses * 100
	}
	return rates
}

// rankChoices returns the top three choices by value, descending; byAbs
// ranks on magnitude while preserving the signed value. Ties keep choice
// column order.
func rankChoices(choiceCols []*table.Column, values map[string]float64, byAbs bool) []insight.ChoiceRate {
	ranked := make([]insight.ChoiceRate, 0, len(choiceCols))
	for _, col := range choiceCols {
		ranked = append(ranked, insight.ChoiceRate{Choice: col.Name, Value: values[col.Name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Value, ranked[j].Value
		if byAbs {
			if a < 0 {
				a = -a
			}
			if b < 0 {
				b = -b
			}
		}
		return a > b
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	return ranked
}
