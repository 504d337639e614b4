// Package analysis orchestrates the full survey-file analysis: ingest,
// parallel statistics, narrative composition, and the Markdown report.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"lpcore/adapters/stats/engine"
	"lpcore/adapters/tabular"
	"lpcore/domain/insight"
	"lpcore/domain/table"
	"lpcore/internal"
	lperrors "lpcore/internal/errors"
)

// SampleRowCount is how many leading rows the report and prompt expose.
const SampleRowCount = 10

// Pipeline runs the analysis stages for one file. It holds no per-run state;
// every invocation builds a fresh Bundle.
type Pipeline struct {
	log *internal.Logger
}

func NewPipeline() *Pipeline {
	return &Pipeline{log: internal.DefaultLogger}
}

// Analyze reads the file at path and produces the complete insight Bundle.
// Ingest failures are fatal; positional-analysis failures (too few columns)
// are recorded on the Bundle and the remaining sections still run.
func (p *Pipeline) Analyze(ctx context.Context, path string) (*insight.Bundle, error) {
	reader := tabular.NewDataReader(path)
	t, err := reader.Read()
	if err != nil {
		return nil, err
	}
	if t.NumColumns() == 0 {
		return nil, lperrors.InvalidInput("file has no columns")
	}
	p.log.Info("analyzing %s: %d rows, %d columns", filepath.Base(path), t.NumRows(), t.NumColumns())

	bundle := &insight.Bundle{
		File: insight.FileInfo{
			FileName:    filepath.Base(path),
			NumRows:     t.NumRows(),
			NumColumns:  t.NumColumns(),
			ColumnNames: t.ColumnNames(),
		},
		SampleRows: t.SampleRows(SampleRowCount),
	}

	var (
		preferences *insight.PreferenceAnalysis
		patterns    *insight.PatternAnalysis
		crossTabs   []insight.CrossTabResult
		prefErr     string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bundle.Stats = engine.Describe(t)
		return nil
	})

	g.Go(func() error {
		pref, err := engine.AnalyzePreferences(t)
		if err != nil {
			if lperrors.HasCode(err, lperrors.CodeInsufficientColumns) {
				prefErr = err.Error()
				return nil
			}
			return err
		}
		preferences = pref
		return nil
	})

	g.Go(func() error {
		pat, err := engine.AnalyzeChoicePatterns(t)
		if err != nil {
			if lperrors.HasCode(err, lperrors.CodeInsufficientColumns) {
				return nil
			}
			return err
		}
		patterns = pat
		return nil
	})

	g.Go(func() error {
		valueCols := categoricalValueColumns(t)
		if len(valueCols) == 0 {
			return nil
		}
		results, err := engine.CrossTabulate(gctx, t, 0, valueCols)
		if err != nil {
			if lperrors.HasCode(err, lperrors.CodeInsufficientColumns) {
				return nil
			}
			return err
		}
		crossTabs = results
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	bundle.Preferences = preferences
	bundle.Patterns = patterns
	bundle.CrossTabs = crossTabs
	bundle.PositionalErr = prefErr

	bundle.JobTypeNarratives, bundle.JobTypeOrder = insight.ComposeNarratives(preferences)
	bundle.ChoicePatternInsights = insight.CorrelationNarrative(patterns)
	bundle.CrossTabInsights = insight.CrossTabNarrative(crossTabs)
	bundle.TargetAnalysis = insight.ComposeTargetAnalysis(
		bundle.File, bundle.Stats, bundle.JobTypeNarratives, bundle.JobTypeOrder, patterns)
	bundle.Report = renderReport(bundle)

	return bundle, nil
}

// categoricalValueColumns picks the categorical columns after the first as
// cross-tab value columns; the first column is always the index.
func categoricalValueColumns(t *table.Table) []int {
	var cols []int
	for i := 1; i < t.NumColumns(); i++ {
		if t.ColumnAt(i).Kind() == table.KindCategorical {
			cols = append(cols, i)
		}
	}
	return cols
}

// renderReport produces the Markdown report shown in the chat UI. Section
// order is fixed; sections without material are omitted, and per-column
// errors appear inline on the affected line.
func renderReport(b *insight.Bundle) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## CSVファイル分析: %s\n\n", b.File.FileName)
	fmt.Fprintf(&sb, "- 行数: %d\n", b.File.NumRows)
	fmt.Fprintf(&sb, "- 列数: %d\n", b.File.NumColumns)
	fmt.Fprintf(&sb, "- 列名: %s\n", strings.Join(b.File.ColumnNames, ", "))

	if len(b.JobTypeOrder) > 0 || b.PositionalErr != "" {
		sb.WriteString("\n### 職種別の傾向分析\n\n")
		if b.PositionalErr != "" {
			fmt.Fprintf(&sb, "エラー: %s\n", b.PositionalErr)
		}
		for _, category := range b.JobTypeOrder {
			fmt.Fprintf(&sb, "- **%s**: %s\n", category, b.JobTypeNarratives[category])
		}
	}

	if b.ChoicePatternInsights != "" {
		sb.WriteString("\n### 選択肢間の相関分析\n\n")
		sb.WriteString(b.ChoicePatternInsights)
		sb.WriteString("\n")
	}

	if len(b.Stats.NumericOrder) > 0 {
		sb.WriteString("\n### 数値データの統計\n\n")
		for _, name := range b.Stats.NumericOrder {
			ns := b.Stats.Numeric[name]
			if ns.Err != "" {
				fmt.Fprintf(&sb, "- **%s**: エラー: %s\n", name, ns.Err)
				continue
			}
			fmt.Fprintf(&sb, "- **%s**: 最小=%s, 最大=%s, 平均=%.2f, 中央値=%s, 標準偏差=%.2f\n",
				name, trimFloat(ns.Min), trimFloat(ns.Max), ns.Mean, trimFloat(ns.Median), ns.StdDev)
		}
	}

	if len(b.Stats.CategoricalOrder) > 0 {
		sb.WriteString("\n### カテゴリデータの分布\n\n")
		for _, name := range b.Stats.CategoricalOrder {
			cs := b.Stats.Categorical[name]
			if cs.Err != "" {
				fmt.Fprintf(&sb, "- **%s**: エラー: %s\n", name, cs.Err)
				continue
			}
			var parts []string
			for _, value := range cs.TopN(engine.DisplayTopCategories) {
				cc := cs.Counts[value]
				parts = append(parts, fmt.Sprintf("「%s」%d件 (%.1f%%)", value, cc.Count, cc.Percentage))
			}
			fmt.Fprintf(&sb, "- **%s**: %s\n", name, strings.Join(parts, " / "))
		}
	}

	if b.CrossTabInsights != "" {
		sb.WriteString("\n### クロス集計\n\n")
		sb.WriteString(b.CrossTabInsights)
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\n※ 以下は最初の%d行のサンプルデータです。\n", SampleRowCount)

	return sb.String()
}

// BuildPromptPayload projects a Bundle into the flat text fields the prompt
// template embeds.
func BuildPromptPayload(b *insight.Bundle) insight.PromptPayload {
	payload := insight.PromptPayload{
		FileName:        b.File.FileName,
		NumRows:         b.File.NumRows,
		NumColumns:      b.File.NumColumns,
		ColumnNames:     b.File.ColumnNames,
		TargetAnalysis:  b.TargetAnalysis,
		PatternInsights: b.ChoicePatternInsights,
	}

	var numeric []string
	for _, name := range b.Stats.NumericOrder {
		ns := b.Stats.Numeric[name]
		if ns.Err != "" {
			continue
		}
		numeric = append(numeric, fmt.Sprintf("- %s の範囲: %s～%s (平均: %.1f)",
			name, trimFloat(ns.Min), trimFloat(ns.Max), ns.Mean))
	}
	payload.NumericSummary = strings.Join(numeric, "\n")

	var categorical []string
	for _, name := range b.Stats.CategoricalOrder {
		cs := b.Stats.Categorical[name]
		if cs.Err != "" {
			continue
		}
		var quoted []string
		for _, value := range cs.TopN(3) {
			quoted = append(quoted, "「"+value+"」")
		}
		categorical = append(categorical, fmt.Sprintf("- %s: %sが主な値", name, strings.Join(quoted, "")))
	}
	payload.CategorySummary = strings.Join(categorical, "\n")

	var jobType []string
	for _, category := range b.JobTypeOrder {
		jobType = append(jobType, fmt.Sprintf("- %s: %s", category, b.JobTypeNarratives[category]))
	}
	payload.JobTypeAnalysis = strings.Join(jobType, "\n")

	if sample, err := json.MarshalIndent(b.SampleRows, "", "  "); err == nil {
		payload.SampleDataJSON = string(sample)
	}

	return payload
}

func trimFloat(v float64) string {
	out := fmt.Sprintf("%.2f", v)
	out = strings.TrimRight(out, "0")
	return strings.TrimRight(out, ".")
}
