// Package insight holds the structured results of the survey analysis
// pipeline and the deterministic composer that turns them into prose. These
// types are pure data: engines in adapters/stats fill them in, the pipeline
// assembles them into a Bundle, and the prompt/UI layers only read them.
package insight

import "lpcore/domain/table"

// NumericStats summarizes a numeric column. Err is set instead of emitting
// non-finite values when the column has no usable cells.
type NumericStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std"`
	Err    string  `json:"error,omitempty"`
}

// CategoryCount is one value's frequency within a categorical column.
type CategoryCount struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// CategoricalStats carries the full frequency distribution of a categorical
// column. Order lists values by descending count (ties keep first-appearance
// order); display layers truncate to the leading entries, computation uses
// the whole distribution.
type CategoricalStats struct {
	Counts map[string]CategoryCount `json:"counts"`
	Order  []string                 `json:"order"`
	Err    string                   `json:"error,omitempty"`
}

// TopN returns up to n values by descending count.
func (s CategoricalStats) TopN(n int) []string {
	if n > len(s.Order) {
		n = len(s.Order)
	}
	return s.Order[:n]
}

// Statistics is the per-column summary of a whole table. The order slices
// preserve source column order, which the composer relies on when picking
// primary attribute columns.
type Statistics struct {
	Numeric          map[string]NumericStats     `json:"numeric"`
	NumericOrder     []string                    `json:"-"`
	Categorical      map[string]CategoricalStats `json:"categorical"`
	CategoricalOrder []string                    `json:"-"`
}

// CrossTabCell addresses one cell of a cross-tabulation.
type CrossTabCell struct {
	Index      string  `json:"index"`
	Category   string  `json:"category"`
	Percentage float64 `json:"percentage"`
}

// NotableCell is a cross-tab cell whose deviation from its column mean
// exceeds the notability threshold.
type NotableCell struct {
	Index      string  `json:"index"`
	Category   string  `json:"category"`
	Percentage float64 `json:"percentage"`
	ColumnMean float64 `json:"column_mean"`
	Deviation  float64 `json:"deviation"`
	Direction  string  `json:"direction"` // "above" or "below"
}

// CrossTab is a row-normalized percentage table relating the index column to
// one value column. Each row of Cells sums to 100 (modulo rounding and nulls).
type CrossTab struct {
	ValueColumn string                        `json:"value_column"`
	IndexValues []string                      `json:"index_values"`
	Categories  []string                      `json:"categories"`
	Cells       map[string]map[string]float64 `json:"cells"`
}

// CrossTabResult is one cross-tab plus its derived notable facts.
type CrossTabResult struct {
	Tab     CrossTab      `json:"cross_tab"`
	MaxCell CrossTabCell  `json:"max_cell"`
	MinCell CrossTabCell  `json:"min_cell"`
	Notable []NotableCell `json:"notable"`
}

// ChoiceRate pairs a choice column with a percentage. In TopChoices the
// value is the raw choice rate; in DistinctiveChoices it is the signed
// relative preference.
type ChoiceRate struct {
	Choice string  `json:"choice"`
	Value  float64 `json:"value"`
}

// JobTypePreference captures how one category (job type) chose among the
// choice columns, and how that deviates from the overall population.
type JobTypePreference struct {
	ResponseCount       float64            `json:"response_count"`
	ChoiceRates         map[string]float64 `json:"choice_rates"`
	RelativePreferences map[string]float64 `json:"relative_preferences"`
	TopChoices          []ChoiceRate       `json:"top_choices"`
	DistinctiveChoices  []ChoiceRate       `json:"distinctive_choices"`
}

// PreferenceAnalysis maps each valid category row to its preference profile.
// Order preserves row order; SkippedRows counts category rows dropped for a
// missing or non-positive response count.
type PreferenceAnalysis struct {
	OverallRates map[string]float64           `json:"overall_rates"`
	ByCategory   map[string]JobTypePreference `json:"by_category"`
	Order        []string                     `json:"-"`
	SkippedRows  int                          `json:"skipped_rows"`
}

// CorrelationPair is a pair of choice columns and their Pearson correlation
// computed over per-row choice rates.
type CorrelationPair struct {
	ChoiceA     string  `json:"choice1"`
	ChoiceB     string  `json:"choice2"`
	Correlation float64 `json:"correlation"`
	PValue      float64 `json:"p_value"`
}

// PatternAnalysis splits the strongest correlation pairs by sign.
type PatternAnalysis struct {
	Positive []CorrelationPair `json:"positive_correlations"`
	Negative []CorrelationPair `json:"negative_correlations"`
}

// FileInfo is the source-file metadata exposed in the Bundle.
type FileInfo struct {
	FileName    string   `json:"file_name"`
	NumRows     int      `json:"num_rows"`
	NumColumns  int      `json:"num_columns"`
	ColumnNames []string `json:"column_names"`
}

// Bundle is the aggregate analysis result for one uploaded file. It is
// created fresh per invocation, threaded through call parameters and return
// values, and never stored in package-level state.
type Bundle struct {
	File       FileInfo    `json:"file_info"`
	Stats      Statistics  `json:"statistics"`
	SampleRows []table.Row `json:"sample_data"`

	Preferences *PreferenceAnalysis `json:"job_type_preferences,omitempty"`
	CrossTabs   []CrossTabResult    `json:"cross_tabs,omitempty"`
	Patterns    *PatternAnalysis    `json:"choice_patterns,omitempty"`

	// Narratives composed from the structures above.
	JobTypeNarratives     map[string]string `json:"job_type_analysis,omitempty"`
	JobTypeOrder          []string          `json:"-"`
	CrossTabInsights      string            `json:"cross_tab_insights,omitempty"`
	ChoicePatternInsights string            `json:"choice_pattern_insights,omitempty"`
	TargetAnalysis        string            `json:"target_analysis,omitempty"`

	// Structured error notes surfaced inline rather than aborting the run.
	PositionalErr string `json:"positional_error,omitempty"`

	// Report is the Markdown rendition shown in the chat UI.
	Report string `json:"-"`
}

// PromptPayload is the JSON-compatible projection of a Bundle handed to the
// prompt composer for embedding into a generative-model prompt.
type PromptPayload struct {
	FileName        string   `json:"file_name"`
	NumRows         int      `json:"num_rows"`
	NumColumns      int      `json:"num_columns"`
	ColumnNames     []string `json:"column_names"`
	TargetAnalysis  string   `json:"target_analysis"`
	NumericSummary  string   `json:"numeric_summary"`
	CategorySummary string   `json:"category_summary"`
	JobTypeAnalysis string   `json:"job_type_analysis"`
	PatternInsights string   `json:"choice_pattern_insights"`
	SampleDataJSON  string   `json:"sample_data_json"`
}
