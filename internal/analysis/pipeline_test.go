package analysis

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lperrors "lpcore/internal/errors"
)

const surveyCSV = "職種,回答数,選択A,選択B,選択C\n" +
	"営業,10,7,2,1\n" +
	"技術,8,1,3,4\n" +
	"事務,12,8,3,1\n"

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "survey.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestAnalyzeSurveyFile(t *testing.T) {
	path := writeTempCSV(t, surveyCSV)
	bundle, err := NewPipeline().Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if bundle.File.NumRows != 3 || bundle.File.NumColumns != 5 {
		t.Errorf("file info: got %d rows, %d cols", bundle.File.NumRows, bundle.File.NumColumns)
	}
	if bundle.Preferences == nil {
		t.Fatal("expected preference analysis")
	}

	// Overall 選択A rate: (7+1+8)/(10+8+12)*100 = 53.33...
	overall := bundle.Preferences.OverallRates["選択A"]
	if math.Abs(overall-53.3333) > 0.01 {
		t.Errorf("overall 選択A rate: got %v", overall)
	}

	sales := bundle.Preferences.ByCategory["営業"]
	if got := sales.ChoiceRates["選択A"]; got != 70.0 {
		t.Errorf("営業 選択A rate: got %v, want 70.0", got)
	}
	if got := sales.RelativePreferences["選択A"]; got != 31.3 {
		t.Errorf("営業 選択A relative preference: got %v, want 31.3", got)
	}
	tech := bundle.Preferences.ByCategory["技術"]
	if got := tech.RelativePreferences["選択A"]; got != -76.6 {
		// 12.5/53.333 - 1 = -0.765625 -> -76.6
		t.Errorf("技術 選択A relative preference: got %v, want -76.6", got)
	}

	if bundle.JobTypeNarratives["営業"] == "" {
		t.Error("missing 営業 narrative")
	}
	if bundle.TargetAnalysis == "" {
		t.Error("missing target analysis")
	}
	if bundle.Patterns == nil {
		t.Error("expected choice pattern analysis")
	}
}

func TestReportSectionOrder(t *testing.T) {
	path := writeTempCSV(t, surveyCSV)
	bundle, err := NewPipeline().Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	report := bundle.Report
	if !strings.HasPrefix(report, "## CSVファイル分析: survey.csv") {
		t.Errorf("report header wrong: %q", report[:min(len(report), 60)])
	}

	sections := []string{
		"- 行数: 3",
		"### 職種別の傾向分析",
		"### 数値データの統計",
		"### カテゴリデータの分布",
		"サンプルデータです",
	}
	last := -1
	for _, section := range sections {
		idx := strings.Index(report, section)
		if idx < 0 {
			t.Fatalf("report missing section %q:\n%s", section, report)
		}
		if idx < last {
			t.Errorf("section %q out of order", section)
		}
		last = idx
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	path := writeTempCSV(t, surveyCSV)
	p := NewPipeline()
	first, err := p.Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := p.Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Report != second.Report {
		t.Error("reports differ between identical runs")
	}
	if first.TargetAnalysis != second.TargetAnalysis {
		t.Error("target analyses differ between identical runs")
	}
}

func TestAnalyzeTooFewColumnsForPreferences(t *testing.T) {
	path := writeTempCSV(t, "名前,年齢\n田中,30\n鈴木,25\n")
	bundle, err := NewPipeline().Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze should not fail outright: %v", err)
	}
	if bundle.PositionalErr == "" {
		t.Error("expected a positional-analysis error note")
	}
	if bundle.Preferences != nil {
		t.Error("preferences should be absent")
	}
	if _, ok := bundle.Stats.Numeric["年齢"]; !ok {
		t.Error("descriptive statistics should still run")
	}
	if !strings.Contains(bundle.Report, "エラー") {
		t.Error("report should surface the positional error inline")
	}
}

func TestAnalyzeTooFewColumnsForCrossTab(t *testing.T) {
	path := writeTempCSV(t, "職種,部門\n営業,東京\n技術,東京\n技術,大阪\n")
	bundle, err := NewPipeline().Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze should not fail outright: %v", err)
	}
	if len(bundle.CrossTabs) != 0 {
		t.Errorf("cross-tabs should be absent on a 2-column table: %+v", bundle.CrossTabs)
	}
	if bundle.CrossTabInsights != "" {
		t.Errorf("cross-tab insights should be empty: %q", bundle.CrossTabInsights)
	}
	if bundle.PositionalErr == "" {
		t.Error("expected a positional-analysis error note")
	}
	if _, ok := bundle.Stats.Categorical["部門"]; !ok {
		t.Error("descriptive statistics should still run")
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	_, err := NewPipeline().Analyze(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !lperrors.HasCode(err, lperrors.CodeFileNotFound) {
		t.Errorf("want FILE_NOT_FOUND, got %v", err)
	}
}

func TestBuildPromptPayload(t *testing.T) {
	path := writeTempCSV(t, surveyCSV)
	bundle, err := NewPipeline().Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	payload := BuildPromptPayload(bundle)

	if payload.FileName != "survey.csv" || payload.NumRows != 3 {
		t.Errorf("payload file info wrong: %+v", payload)
	}
	if !strings.Contains(payload.NumericSummary, "- 回答数 の範囲: 8～12 (平均: 10.0)") {
		t.Errorf("numeric summary wrong:\n%s", payload.NumericSummary)
	}
	if !strings.Contains(payload.CategorySummary, "職種") {
		t.Errorf("category summary wrong:\n%s", payload.CategorySummary)
	}
	if !strings.Contains(payload.SampleDataJSON, "営業") {
		t.Errorf("sample data json wrong:\n%s", payload.SampleDataJSON)
	}
	if payload.JobTypeAnalysis == "" {
		t.Error("missing job type analysis text")
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
