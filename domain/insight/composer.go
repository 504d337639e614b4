package insight

import (
	"fmt"
	"strconv"
	"strings"
)

// Composer thresholds. These are policy constants carried over from the
// product's original wording rules; adjust here, not inline.
const (
	// StrongEmphasisPct: a top choice above this rate reads as a strong trend.
	StrongEmphasisPct = 50.0
	// ModerateEmphasisPct: above this rate the wording softens to a tendency.
	ModerateEmphasisPct = 30.0
	// LikewiseGapPts: a 2nd-ranked choice within this many points of the 1st
	// is phrased as equally valued.
	LikewiseGapPts = 10.0
	// DistinctiveStrongPts / DistinctiveModeratePts grade relative-preference wording.
	DistinctiveStrongPts   = 50.0
	DistinctiveModeratePts = 20.0
	// FavorableRatingMean splits rating-style numeric columns into favorable
	// versus needs-improvement, on a RatingScaleMax-point scale.
	FavorableRatingMean = 3.5
	RatingScaleMax      = 5.0
)

// TraitPhrase maps choice-label substrings to an interpretive clause about
// the category's character. The table is ordered and first-match-wins.
type TraitPhrase struct {
	Keywords []string
	Phrase   string
}

// TraitPhrases is the fixed keyword heuristic applied to the top choice's label.
var TraitPhrases = []TraitPhrase{
	{[]string{"コスト", "価格", "費用"}, "コスト意識が高い傾向にあります"},
	{[]string{"効率", "生産性"}, "業務効率を重視する傾向にあります"},
	{[]string{"品質", "精度"}, "品質や精度を最優先する特徴があります"},
	{[]string{"革新", "先進", "新技術"}, "新しい技術や革新的なアプローチに関心が高いです"},
	{[]string{"安全", "セキュリティ"}, "安全性やセキュリティを重視する傾向があります"},
	{[]string{"使いやすさ", "操作性"}, "使いやすさやユーザビリティを重視しています"},
}

// LookupTraitPhrase returns the first matching interpretive clause for a
// choice label.
func LookupTraitPhrase(choice string) (string, bool) {
	for _, tp := range TraitPhrases {
		for _, kw := range tp.Keywords {
			if strings.Contains(choice, kw) {
				return tp.Phrase, true
			}
		}
	}
	return "", false
}

func fmtPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// TrendSentence renders one category's preference profile as a single
// Japanese sentence, clause by clause.
func TrendSentence(category string, pref JobTypePreference) string {
	var parts []string

	if len(pref.TopChoices) > 0 {
		top1 := pref.TopChoices[0]
		switch {
		case top1.Value > StrongEmphasisPct:
			parts = append(parts, fmt.Sprintf("%sは「%s」を特に重視する傾向が強く（%s%%）", category, top1.Choice, fmtPct(top1.Value)))
		case top1.Value > ModerateEmphasisPct:
			parts = append(parts, fmt.Sprintf("%sは「%s」を重視する傾向があり（%s%%）", category, top1.Choice, fmtPct(top1.Value)))
		default:
			parts = append(parts, fmt.Sprintf("%sは「%s」をある程度重視し（%s%%）", category, top1.Choice, fmtPct(top1.Value)))
		}

		if len(pref.TopChoices) > 1 {
			top2 := pref.TopChoices[1]
			gap := pref.TopChoices[0].Value - top2.Value
			if gap < 0 {
				gap = -gap
			}
			if gap < LikewiseGapPts {
				parts = append(parts, fmt.Sprintf("同様に「%s」も重視しています（%s%%）", top2.Choice, fmtPct(top2.Value)))
			} else {
				parts = append(parts, fmt.Sprintf("次いで「%s」を評価しています（%s%%）", top2.Choice, fmtPct(top2.Value)))
			}
		}
	}

	if len(pref.DistinctiveChoices) > 0 {
		d := pref.DistinctiveChoices[0]
		switch {
		case d.Value > DistinctiveStrongPts:
			parts = append(parts, fmt.Sprintf("他の職種と比較して「%s」を顕著に重視する特徴があります（平均より%s%%高い）", d.Choice, fmtPct(d.Value)))
		case d.Value > DistinctiveModeratePts:
			parts = append(parts, fmt.Sprintf("他の職種よりも「%s」を重視する傾向があります（平均より%s%%高い）", d.Choice, fmtPct(d.Value)))
		case d.Value < -DistinctiveStrongPts:
			parts = append(parts, fmt.Sprintf("他の職種と比較して「%s」をほとんど重視しない特徴があります（平均より%s%%低い）", d.Choice, fmtPct(-d.Value)))
		case d.Value < -DistinctiveModeratePts:
			parts = append(parts, fmt.Sprintf("他の職種よりも「%s」を重視しない傾向があります（平均より%s%%低い）", d.Choice, fmtPct(-d.Value)))
		}
	}

	if len(pref.TopChoices) > 0 {
		if phrase, ok := LookupTraitPhrase(pref.TopChoices[0].Choice); ok {
			parts = append(parts, phrase)
		}
	}

	if len(parts) == 0 {
		return fmt.Sprintf("%sの選択傾向に明確な特徴は見られませんでした。", category)
	}
	return strings.Join(parts, "、") + "。"
}

// ComposeNarratives renders a trend sentence per category, preserving the
// analysis row order.
func ComposeNarratives(pref *PreferenceAnalysis) (map[string]string, []string) {
	if pref == nil {
		return nil, nil
	}
	narratives := make(map[string]string, len(pref.ByCategory))
	for _, category := range pref.Order {
		narratives[category] = TrendSentence(category, pref.ByCategory[category])
	}
	return narratives, pref.Order
}

// CorrelationNarrative renders the choice-pattern analysis as a bullet-list
// commentary with a fixed strategic-implication closing sentence.
func CorrelationNarrative(p *PatternAnalysis) string {
	if p == nil || (len(p.Positive) == 0 && len(p.Negative) == 0) {
		return ""
	}
	var lines []string
	if len(p.Positive) > 0 {
		lines = append(lines, "選択肢の選好傾向を分析すると、以下の組み合わせが一緒に重視される傾向があります：")
		for _, pair := range firstPairs(p.Positive, 3) {
			lines = append(lines, fmt.Sprintf("- 「%s」と「%s」（相関係数: %.2f）", pair.ChoiceA, pair.ChoiceB, pair.Correlation))
		}
	}
	if len(p.Negative) > 0 {
		lines = append(lines, "一方、以下の組み合わせは相反する傾向があります（一方を重視する職種は他方をあまり重視しない）：")
		for _, pair := range firstPairs(p.Negative, 3) {
			lines = append(lines, fmt.Sprintf("- 「%s」と「%s」（相関係数: %.2f）", pair.ChoiceA, pair.ChoiceB, pair.Correlation))
		}
	}
	lines = append(lines, "")
	lines = append(lines, "これらの相関パターンから、LP設計では、正の相関を持つ選択肢については、同じターゲット層に対して一緒にアピールすることが効果的です。一方、負の相関を持つ選択肢については、異なるセグメントのターゲットに分けて訴求することで、それぞれの関心に合わせたメッセージが届きやすくなります。")
	return strings.Join(lines, "\n")
}

func firstPairs(pairs []CorrelationPair, n int) []CorrelationPair {
	if len(pairs) > n {
		return pairs[:n]
	}
	return pairs
}

// CrossTabNarrative summarizes cross-tab extrema and notable deviations.
func CrossTabNarrative(results []CrossTabResult) string {
	if len(results) == 0 {
		return ""
	}
	var lines []string
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("「%s」のクロス集計では、%sの「%s」が%s%%と最も高く、%sの「%s」が%s%%と最も低くなっています。",
			r.Tab.ValueColumn,
			r.MaxCell.Index, r.MaxCell.Category, fmtPct(r.MaxCell.Percentage),
			r.MinCell.Index, r.MinCell.Category, fmtPct(r.MinCell.Percentage)))
		for _, n := range r.Notable {
			direction := "高く"
			if n.Direction == "below" {
				direction = "低く"
			}
			lines = append(lines, fmt.Sprintf("- %sでは「%s」が平均%s%%より%s%%ポイント%s、特徴的です。",
				n.Index, n.Category, fmtPct(n.ColumnMean), fmtPct(abs(n.Deviation)), direction))
		}
	}
	return strings.Join(lines, "\n")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// ComposeTargetAnalysis assembles the full natural-language target analysis
// in fixed section order: population size, demographics, job-type trends,
// choice correlations, behavior and preferences, strategic implication.
// Sections without material are omitted; paragraphs are blank-line separated.
func ComposeTargetAnalysis(file FileInfo, stats Statistics, narratives map[string]string, order []string, patterns *PatternAnalysis) string {
	var paragraphs []string

	paragraphs = append(paragraphs, fmt.Sprintf(
		"アンケートデータには%d人の回答が含まれており、十分な母集団サイズでターゲットの傾向を分析できます。", file.NumRows))

	if demo := demographicSummary(stats); demo != "" {
		paragraphs = append(paragraphs, "ターゲットの属性としては、"+demo)
	}

	if len(order) > 0 {
		highlighted := order
		if len(highlighted) > 3 {
			highlighted = highlighted[:3]
		}
		var sentences []string
		for _, category := range highlighted {
			sentences = append(sentences, narratives[category])
		}
		paragraphs = append(paragraphs, "アンケートデータから得られた職種ごとの特徴的な傾向として、"+strings.Join(sentences, " "))
	}

	if corr := correlationSummarySentences(patterns); corr != "" {
		paragraphs = append(paragraphs, "選択肢間の相関からは、"+corr)
	}

	if behavior := behaviorSummary(stats); behavior != "" {
		paragraphs = append(paragraphs, "ターゲットの行動特性として、"+behavior)
	}

	paragraphs = append(paragraphs, implicationParagraph(order))

	return strings.Join(paragraphs, "\n\n")
}

// demographicSummary reports the leading one or two values of the first two
// categorical columns, which by convention carry the primary attributes.
func demographicSummary(stats Statistics) string {
	var sentences []string
	primary := stats.CategoricalOrder
	if len(primary) > 2 {
		primary = primary[:2]
	}
	for _, name := range primary {
		cs := stats.Categorical[name]
		if cs.Err != "" {
			continue
		}
		top := cs.TopN(2)
		switch len(top) {
		case 0:
		case 1:
			sentences = append(sentences, fmt.Sprintf("%sは「%s」が%s%%と大半を占めています。",
				name, top[0], fmtPct(cs.Counts[top[0]].Percentage)))
		default:
			sentences = append(sentences, fmt.Sprintf("%sは「%s」が%s%%と最も多く、次いで「%s」が%s%%を占めています。",
				name, top[0], fmtPct(cs.Counts[top[0]].Percentage),
				top[1], fmtPct(cs.Counts[top[1]].Percentage)))
		}
	}
	return strings.Join(sentences, " ")
}

func correlationSummarySentences(p *PatternAnalysis) string {
	if p == nil {
		return ""
	}
	var sentences []string
	for _, pair := range firstPairs(p.Positive, 3) {
		sentences = append(sentences, fmt.Sprintf("「%s」と「%s」は一緒に重視される傾向があります。", pair.ChoiceA, pair.ChoiceB))
	}
	for _, pair := range firstPairs(p.Negative, 3) {
		sentences = append(sentences, fmt.Sprintf("「%s」と「%s」は相反する傾向があります。", pair.ChoiceA, pair.ChoiceB))
	}
	return strings.Join(sentences, " ")
}

// behaviorSummary derives preference and behavioral sentences from numeric
// columns whose names suggest age, income or rating semantics.
func behaviorSummary(stats Statistics) string {
	var preference, behavioral []string
	for _, name := range stats.NumericOrder {
		ns := stats.Numeric[name]
		if ns.Err != "" {
			continue
		}
		lower := strings.ToLower(name)
		switch {
		case strings.Contains(name, "年齢") || strings.Contains(lower, "age"):
			behavioral = append(behavioral, fmt.Sprintf("回答者の平均%sは%.1fで、%s歳から%s歳まで分布しています。",
				name, ns.Mean, trimFloat(ns.Min), trimFloat(ns.Max)))
		case strings.Contains(name, "収入") || strings.Contains(name, "所得") || strings.Contains(lower, "income"):
			behavioral = append(behavioral, fmt.Sprintf("ターゲットの平均%sは%.1f万円で、最小%s万円から最大%s万円まで分布しています。",
				name, ns.Mean, trimFloat(ns.Min), trimFloat(ns.Max)))
		case strings.Contains(name, "満足度") || strings.Contains(name, "評価") ||
			strings.Contains(lower, "score") || strings.Contains(lower, "rating"):
			if ns.Max <= RatingScaleMax {
				if ns.Mean > FavorableRatingMean {
					preference = append(preference, fmt.Sprintf("%sの平均は%.1f点と高く、概ね好評価です。", name, ns.Mean))
				} else {
					preference = append(preference, fmt.Sprintf("%sの平均は%.1f点と中程度で、改善の余地があります。", name, ns.Mean))
				}
			}
		}
	}
	combined := append(preference, behavioral...)
	return strings.Join(combined, " ")
}

func implicationParagraph(order []string) string {
	base := "これらの職種別特性を踏まえると、各職種が持つ課題や関心事に焦点を当て、それぞれが重視する観点（効率性、コスト、品質など）に対応した価値提案をLPで訴求することが効果的です。"
	if len(order) == 0 {
		return base
	}
	main := order
	if len(main) > 2 {
		main = main[:2]
	}
	return base + fmt.Sprintf("特に主要な職種である%s向けのメッセージを優先的に配置することで、コンバージョン率を高められる可能性があります。",
		strings.Join(main, "、"))
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
