package ui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"lpcore/adapters/deck"
	"lpcore/domain/core"
	lperrors "lpcore/internal/errors"
	"lpcore/internal/session"
)

const sessionCookie = "lp_session"

// chatRule pairs trigger substrings with a canned reply. Matching is
// case-insensitive and first-match-wins.
type chatRule struct {
	triggers []string
	reply    string
}

var chatRules = []chatRule{
	{[]string{"こんにちは", "hello"},
		"こんにちは！企業LPの企画をお手伝いします。「LP企画: テーマ」と入力するか、アンケートのCSVファイルをアップロードしてください。"},
	{[]string{"使い方", "ヘルプ", "help"},
		"できることは次の通りです。\n- 「LP企画: テーマ」でLPの企画案とデザイン案を生成します\n- CSVまたはExcelファイルをアップロードするとアンケートデータを分析します\n- 分析後に企画を生成すると、データに基づいたターゲット分析が反映されます\n- 生成後は企画案をPowerPointでダウンロードできます"},
	{[]string{"lp企画"},
		"「LP企画: テーマ」の形式で入力してください。例: LP企画: クラウド会計サービス"},
	{[]string{"元気"},
		"元気です！ありがとうございます。LP企画のご相談はいつでもどうぞ。"},
	{[]string{"さようなら", "goodbye", "バイバイ"},
		"ありがとうございました。またのご利用をお待ちしています！"},
	{[]string{"csv", "ファイル", "アップロード"},
		"画面下部のボタンからCSVまたはExcelファイルをアップロードしてください。列の統計、職種別の傾向、選択肢間の相関を分析します。"},
}

const fallbackReply = "申し訳ありません、うまく理解できませんでした。「使い方」と入力するとできることを確認できます。"

// ruleReply resolves a free-form message against the rule table.
func ruleReply(message string) string {
	lowered := strings.ToLower(message)
	for _, rule := range chatRules {
		for _, trigger := range rule.triggers {
			if strings.Contains(lowered, trigger) {
				return rule.reply
			}
		}
	}
	return fallbackReply
}

// planTheme extracts the theme from a plan request. Both ASCII and
// full-width colons are accepted.
func planTheme(message string) (string, bool) {
	for _, prefix := range []string{"LP企画:", "LP企画："} {
		if strings.HasPrefix(message, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(message, prefix)), true
		}
	}
	return "", false
}

// renderMarkdown converts plan and report Markdown to display HTML.
func renderMarkdown(src string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return string(markdown.ToHTML([]byte(src), p, renderer))
}

// session resolves the request's session from its cookie, allocating one on
// first contact.
func (a *App) session(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	var id core.SessionID
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		id = core.SessionID(cookie.Value)
	}
	sess, err := a.sessions.GetOrCreate(id)
	if err != nil {
		return nil, err
	}
	if sess.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    string(sess.ID),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess, nil
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, err := a.session(w, r); err != nil {
		a.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, "index.html", nil); err != nil {
		a.log.Error("rendering index: %v", err)
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

func (a *App) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, err := a.session(w, r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, lperrors.InvalidInput("request body must be JSON with a message field"))
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		a.writeError(w, lperrors.InvalidInput("message is empty"))
		return
	}

	if theme, ok := planTheme(message); ok {
		a.generatePlan(w, r, sess, theme)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]string{"response": ruleReply(message)})
}

func (a *App) generatePlan(w http.ResponseWriter, r *http.Request, sess *session.Session, theme string) {
	plan, err := a.planner.GeneratePlan(r.Context(), theme, sess.Bundle())
	if err != nil {
		a.writeError(w, err)
		return
	}

	sess.SetTheme(theme)
	sess.SetPlanText(plan.Analysis)
	if _, err := sess.SetSVG(plan.SVG); err != nil {
		a.log.Warn("persisting svg: %v", err)
	}

	var sb strings.Builder
	sb.WriteString(renderMarkdown(plan.Analysis))
	sb.WriteString(`<div class="svg-preview">`)
	sb.WriteString(plan.SVG)
	sb.WriteString(`</div>`)
	if plan.SVGFallback {
		sb.WriteString("<p>デザイン案の生成に失敗したため、仮のデザインを表示しています。</p>")
	}
	sb.WriteString(`<p><a href="/download/pptx">企画案をPowerPointでダウンロード</a></p>`)

	a.writeJSON(w, http.StatusOK, map[string]string{"response": sb.String()})
}

func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess, err := a.session(w, r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.Storage.MaxUploadBytes+4096)
	file, header, err := r.FormFile("file")
	if err != nil {
		a.writeError(w, lperrors.InvalidInput("no file in upload"))
		return
	}
	defer file.Close()

	path, err := sess.SaveUpload(header.Filename, file, a.cfg.Storage.MaxUploadBytes)
	if err != nil {
		a.writeError(w, err)
		return
	}

	bundle, err := a.pipeline.Analyze(r.Context(), path)
	if err != nil {
		a.writeError(w, err)
		return
	}
	sess.SetBundle(bundle)

	response := renderMarkdown(bundle.Report) +
		"<p>このデータを反映した企画を作るには「LP企画: テーマ」と入力してください。</p>"
	a.writeJSON(w, http.StatusOK, map[string]string{"response": response})
}

func (a *App) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, err := a.session(w, r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	sess.Clear()
	a.writeJSON(w, http.StatusOK, map[string]string{
		"response": "会話とアップロードデータをクリアしました。",
	})
}

func (a *App) handleDownloadDeck(w http.ResponseWriter, r *http.Request) {
	sess, err := a.session(w, r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	planText := sess.PlanText()
	if planText == "" {
		a.writeError(w, lperrors.InvalidInput("企画がまだ生成されていません。先に「LP企画: テーマ」と入力してください。"))
		return
	}
	theme := sess.Theme()
	svgCode, _ := sess.SVG()

	analysisText := planText
	if bundle := sess.Bundle(); bundle != nil && bundle.TargetAnalysis != "" {
		analysisText = bundle.TargetAnalysis
	}

	var buf bytes.Buffer
	if err := deck.Write(&buf, deck.Deck{
		Title:        theme + " LP企画案",
		SVG:          []byte(svgCode),
		AnalysisText: analysisText,
	}); err != nil {
		a.writeError(w, err)
		return
	}

	filename := deck.Filename(theme)
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation")
	w.Header().Set("Content-Disposition",
		`attachment; filename*=UTF-8''`+url.PathEscape(filename))
	w.Write(buf.Bytes())
}

func (a *App) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.log.Error("encoding response: %v", err)
	}
}

// writeError maps application error codes onto HTTP statuses and returns a
// JSON error body.
func (a *App) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch lperrors.GetCode(err) {
	case lperrors.CodeFileNotFound:
		status = http.StatusNotFound
	case lperrors.CodeInvalidInput, lperrors.CodeInsufficientColumns, lperrors.CodeEncodingUnresolved:
		status = http.StatusBadRequest
	case lperrors.CodeConfigInvalid:
		status = http.StatusServiceUnavailable
	case lperrors.CodeExternalService:
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		a.log.Error("request failed: %v", err)
	} else {
		a.log.Warn("request rejected: %v", err)
	}
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}
