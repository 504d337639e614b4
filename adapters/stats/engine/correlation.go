package engine

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"lpcore/domain/insight"
	"lpcore/domain/table"
	"lpcore/internal"
	lperrors "lpcore/internal/errors"
)

// StrongestPairsTopN caps how many correlation pairs the pattern analysis keeps.
const StrongestPairsTopN = 5

func lpInsufficientColumns(have int) error {
	return lperrors.InsufficientColumns(have, MinPositionalColumns)
}

// ChoiceRateMatrix converts each choice column to per-row rates (choice count
// divided by the row's total response count) and returns the pairwise
// Pearson correlation matrix over those rate series. Rates rather than raw
// counts remove the group-size confound. Rows failing the category-row
// filter are excluded, identically to the preference analysis.
//
// Matrix entries are NaN where the correlation is undefined (for example a
// zero-variance rate series); the diagonal is exactly 1.
func ChoiceRateMatrix(t *table.Table) (choices []string, matrix [][]float64, err error) {
	if t.NumColumns() < MinPositionalColumns {
		return nil, nil, lpInsufficientColumns(t.NumColumns())
	}

	categories := t.ColumnAt(0)
	totals := t.ColumnAt(1)
	validRows, _ := validCategoryRows(categories, totals)

	choices = make([]string, 0, t.NumColumns()-2)
	series := make([][]float64, 0, t.NumColumns()-2)
	for i := 2; i < t.NumColumns(); i++ {
		col := t.ColumnAt(i)
		rates := make([]float64, 0, len(validRows))
		for _, row := range validRows {
			total, _ := totals.FloatAt(row)
			count, ok := col.FloatAt(row)
			if !ok {
				count = 0
			}
			rates = append(rates, count/total)
		}
		choices = append(choices, col.Name)
		series = append(series, rates)
	}

	matrix = make([][]float64, len(series))
	for i := range series {
		matrix[i] = make([]float64, len(series))
		matrix[i][i] = 1.0
	}
	for i := 0; i < len(series); i++ {
		for j := i + 1; j < len(series); j++ {
			r, cerr := stats.Correlation(series[i], series[j])
			if cerr != nil || math.IsNaN(r) {
				internal.DefaultLogger.Debug("correlation undefined for %q vs %q", choices[i], choices[j])
				r = math.NaN()
			}
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}
	return choices, matrix, nil
}

// StrongestCorrelations extracts the upper-triangle pairs of the matrix,
// sorted by descending |r|, keeping at most topN. Self-pairs and symmetric
// duplicates never appear; undefined entries are dropped. The p-value is a
// Fisher z-transform significance estimate against the standard normal.
func StrongestCorrelations(choices []string, matrix [][]float64, sampleSize, topN int) []insight.CorrelationPair {
	var pairs []insight.CorrelationPair
	for i := 0; i < len(choices); i++ {
		for j := i + 1; j < len(choices); j++ {
			r := matrix[i][j]
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, insight.CorrelationPair{
				ChoiceA:     choices[i],
				ChoiceB:     choices[j],
				Correlation: r,
				PValue:      fisherZPValue(r, sampleSize),
			})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].Correlation) > math.Abs(pairs[j].Correlation)
	})
	if topN > 0 && len(pairs) > topN {
		pairs = pairs[:topN]
	}
	return pairs
}

// AnalyzeChoicePatterns runs the rate-based correlation analysis end to end
// and partitions the strongest pairs by sign. Correlations are reported
// rounded to two decimals.
func AnalyzeChoicePatterns(t *table.Table) (*insight.PatternAnalysis, error) {
	choices, matrix, err := ChoiceRateMatrix(t)
	if err != nil {
		return nil, err
	}

	categories := t.ColumnAt(0)
	totals := t.ColumnAt(1)
	validRows, _ := validCategoryRows(categories, totals)

	result := &insight.PatternAnalysis{}
	for _, pair := range StrongestCorrelations(choices, matrix, len(validRows), StrongestPairsTopN) {
		// Partition on the unrounded value so a tiny positive r does not
		// land in the negative bucket once it rounds to 0.00.
		positive := pair.Correlation > 0
		pair.Correlation = math.Round(pair.Correlation*100) / 100
		if positive {
			result.Positive = append(result.Positive, pair)
		} else {
			result.Negative = append(result.Negative, pair)
		}
	}
	return result, nil
}

// fisherZPValue estimates the two-sided significance of r at sample size n
// via the Fisher z-transform. Degenerate inputs return the conservative
// extremes.
func fisherZPValue(r float64, n int) float64 {
	abs := math.Abs(r)
	if abs >= 1 {
		return 0
	}
	if n <= 3 || abs == 0 {
		return 1
	}
	z := 0.5 * math.Log((1+abs)/(1-abs))
	se := 1 / math.Sqrt(float64(n-3))
	p := 2 * (1 - distuv.UnitNormal.CDF(z/se))
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}
