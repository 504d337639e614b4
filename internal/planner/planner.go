// Package planner orchestrates LP plan generation: a text analysis pass, an
// SVG first-view pass, and assembly of the downloadable deck.
package planner

import (
	"context"

	"lpcore/adapters/deck"
	"lpcore/adapters/llm"
	"lpcore/domain/insight"
	"lpcore/internal"
	"lpcore/internal/analysis"
	"lpcore/internal/config"
	lperrors "lpcore/internal/errors"
)

// Plan is the result of one generation run. SVGFallback marks that the
// design came from the static fallback rather than the model.
type Plan struct {
	Theme       string
	Analysis    string
	SVG         string
	SVGFallback bool
}

// Planner drives the two model calls. The client is an interface so tests
// run against a mock.
type Planner struct {
	client llm.Client
	cfg    config.LLMConfig
	log    *internal.Logger
}

func New(client llm.Client, cfg config.LLMConfig) *Planner {
	return &Planner{client: client, cfg: cfg, log: internal.DefaultLogger}
}

// GeneratePlan produces the plan text and first-view SVG for a theme. The
// bundle is optional; when present its insights ground the analysis prompt.
// A failed or unusable SVG response degrades to the static fallback, but a
// failed analysis call is fatal.
func (p *Planner) GeneratePlan(ctx context.Context, theme string, bundle *insight.Bundle) (*Plan, error) {
	if theme == "" {
		return nil, lperrors.InvalidInput("LP theme is required")
	}

	var payload *insight.PromptPayload
	if bundle != nil {
		pp := analysis.BuildPromptPayload(bundle)
		payload = &pp
	}

	planText, err := p.client.ChatCompletion(ctx, llm.Request{
		Model:       p.cfg.AnalysisModel,
		System:      analysisSystemPrompt,
		Prompt:      buildAnalysisPrompt(theme, payload),
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	plan := &Plan{Theme: theme, Analysis: planText}

	svgRaw, err := p.client.ChatCompletion(ctx, llm.Request{
		Model:       p.cfg.SVGModel,
		System:      svgSystemPrompt,
		Prompt:      buildSVGPrompt(theme, planText),
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	})
	if err != nil {
		p.log.Warn("svg generation failed, using fallback: %v", err)
		plan.SVG = FallbackSVG(theme)
		plan.SVGFallback = true
		return plan, nil
	}

	svg, ok := ExtractSVG(svgRaw)
	if !ok {
		p.log.Warn("svg response contained no svg element, using fallback")
		plan.SVG = FallbackSVG(theme)
		plan.SVGFallback = true
		return plan, nil
	}
	plan.SVG = NormalizeSVG(svg)
	return plan, nil
}

// BuildDeck writes the downloadable pptx for a plan. The second slide uses
// the data-driven target analysis when a bundle exists, otherwise the plan
// text itself.
func (p *Planner) BuildDeck(path string, plan *Plan, bundle *insight.Bundle) error {
	analysisText := plan.Analysis
	if bundle != nil && bundle.TargetAnalysis != "" {
		analysisText = bundle.TargetAnalysis
	}
	return deck.WriteFile(path, deck.Deck{
		Title:        plan.Theme + " LP企画案",
		SVG:          []byte(plan.SVG),
		AnalysisText: analysisText,
	})
}
