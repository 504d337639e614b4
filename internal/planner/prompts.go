package planner

import (
	"fmt"
	"strings"

	"lpcore/domain/insight"
)

const analysisSystemPrompt = "あなたは企業向けランディングページ（LP）の企画を支援するマーケティングの専門家です。" +
	"与えられたテーマとデータに基づき、具体的で実行可能な企画案を日本語で作成してください。"

const svgSystemPrompt = "あなたはLPのファーストビューをデザインするインフォグラフィックデザイナーです。" +
	"出力はSVGコードのみとし、説明文を含めないでください。"

// buildAnalysisPrompt assembles the three-viewpoint planning prompt. When a
// survey analysis is available its insights are appended as grounding data.
func buildAnalysisPrompt(theme string, payload *insight.PromptPayload) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "企業LPのテーマ「%s」について、以下の3つの観点で企画分析を行ってください。\n\n", theme)
	sb.WriteString("1. ターゲット分析: 想定される顧客層、その課題とニーズ\n")
	sb.WriteString("2. 訴求ポイント: LPで強調すべき価値提案と差別化要素\n")
	sb.WriteString("3. 構成案: LPのセクション構成と各セクションの狙い\n")
	sb.WriteString("\n回答はMarkdown形式で、見出しごとに整理してください。\n")

	if payload == nil {
		return sb.String()
	}

	sb.WriteString("\n---\n")
	fmt.Fprintf(&sb, "以下はアップロードされたアンケートデータ「%s」（%d行 × %d列）の分析結果です。ターゲット分析にはこのデータを必ず反映してください。\n\n",
		payload.FileName, payload.NumRows, payload.NumColumns)

	if payload.TargetAnalysis != "" {
		sb.WriteString("## ターゲット分析サマリー\n")
		sb.WriteString(payload.TargetAnalysis)
		sb.WriteString("\n\n")
	}
	if payload.JobTypeAnalysis != "" {
		sb.WriteString("## 職種別の傾向\n")
		sb.WriteString(payload.JobTypeAnalysis)
		sb.WriteString("\n\n")
	}
	if payload.PatternInsights != "" {
		sb.WriteString("## 選択肢間の相関\n")
		sb.WriteString(payload.PatternInsights)
		sb.WriteString("\n\n")
	}
	if payload.NumericSummary != "" {
		sb.WriteString("## 数値データの概要\n")
		sb.WriteString(payload.NumericSummary)
		sb.WriteString("\n\n")
	}
	if payload.CategorySummary != "" {
		sb.WriteString("## カテゴリデータの概要\n")
		sb.WriteString(payload.CategorySummary)
		sb.WriteString("\n\n")
	}
	if payload.SampleDataJSON != "" {
		sb.WriteString("## サンプルデータ\n```json\n")
		sb.WriteString(payload.SampleDataJSON)
		sb.WriteString("\n```\n")
	}

	return sb.String()
}

// buildSVGPrompt asks for a single self-contained first-view design based on
// the plan text.
func buildSVGPrompt(theme, planText string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "テーマ「%s」のLPファーストビューをSVGでデザインしてください。\n\n", theme)
	sb.WriteString("制約:\n")
	fmt.Fprintf(&sb, "- サイズは幅%d、高さ%d（viewBox=\"0 0 %d %d\"）\n", svgWidth, svgHeight, svgWidth, svgHeight)
	sb.WriteString("- 外部画像や外部フォントを参照しない、自己完結したSVGにする\n")
	sb.WriteString("- テキストは日本語で、キャッチコピーとサブコピーとCTAボタンを含める\n")
	sb.WriteString("- <svg>から</svg>までのコードのみを出力する\n")

	if planText != "" {
		sb.WriteString("\n以下の企画分析の訴求ポイントをデザインに反映してください。\n\n")
		sb.WriteString(planText)
	}

	return sb.String()
}
