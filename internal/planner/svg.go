package planner

import (
	"fmt"
	"regexp"
	"strings"
)

// Canonical first-view dimensions. Every SVG handed to the UI or the deck
// builder is normalized to these.
const (
	svgWidth  = 800
	svgHeight = 450
)

var (
	svgPattern     = regexp.MustCompile(`(?s)<svg.*?</svg>`)
	svgOpenPattern = regexp.MustCompile(`(?s)^<svg[^>]*>`)
	widthAttr      = regexp.MustCompile(`\swidth="[^"]*"`)
	heightAttr     = regexp.MustCompile(`\sheight="[^"]*"`)
	viewBoxAttr    = regexp.MustCompile(`\sviewBox="[^"]*"`)
	xmlnsAttr      = regexp.MustCompile(`\sxmlns="[^"]*"`)
	fontFamilyAttr = regexp.MustCompile(`font-family="[^"]*"`)
)

const svgFontStack = `font-family="Arial, Helvetica, sans-serif"`

// ExtractSVG pulls the first complete SVG element out of a model response,
// which often wraps the code in prose or a Markdown fence.
func ExtractSVG(text string) (string, bool) {
	match := svgPattern.FindString(text)
	if match == "" {
		return "", false
	}
	return match, true
}

// NormalizeSVG forces the canonical size, viewBox and SVG namespace on the
// root element and pins every font-family to a web-safe stack so the first
// view renders identically across browsers and the deck viewer.
func NormalizeSVG(svg string) string {
	open := svgOpenPattern.FindString(svg)
	if open == "" {
		return svg
	}
	body := svg[len(open):]

	open = widthAttr.ReplaceAllString(open, "")
	open = heightAttr.ReplaceAllString(open, "")
	open = viewBoxAttr.ReplaceAllString(open, "")

	attrs := fmt.Sprintf(` width="%d" height="%d" viewBox="0 0 %d %d"`,
		svgWidth, svgHeight, svgWidth, svgHeight)
	if !xmlnsAttr.MatchString(open) {
		attrs += ` xmlns="http://www.w3.org/2000/svg"`
	}

	open = strings.Replace(open, "<svg", "<svg"+attrs, 1)
	return fontFamilyAttr.ReplaceAllString(open+body, svgFontStack)
}

// FallbackSVG is the static first-view used when generation fails or
// produces no usable SVG.
func FallbackSVG(theme string) string {
	escaped := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(theme)
	return fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">
  <rect width="%d" height="%d" fill="#1e3a5f"/>
  <text x="%d" y="200" text-anchor="middle" fill="#ffffff" font-size="36" font-family="Arial, Helvetica, sans-serif">%s</text>
  <text x="%d" y="250" text-anchor="middle" fill="#a8c4e0" font-size="18" font-family="Arial, Helvetica, sans-serif">LP企画案</text>
  <rect x="330" y="300" width="140" height="44" rx="22" fill="#ff8c42"/>
  <text x="%d" y="328" text-anchor="middle" fill="#ffffff" font-size="16" font-family="Arial, Helvetica, sans-serif">詳しく見る</text>
</svg>`, svgWidth, svgHeight, svgWidth, svgHeight, svgWidth, svgHeight,
		svgWidth/2, escaped, svgWidth/2, svgWidth/2)
}
