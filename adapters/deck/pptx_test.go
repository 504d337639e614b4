package deck

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"strings"
	"testing"
)

func buildDeck(t *testing.T, d Deck) *zip.Reader {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		t.Fatalf("Write: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("output is not a valid zip: %v", err)
	}
	return zr
}

func readPart(t *testing.T, zr *zip.Reader, name string) string {
	t.Helper()
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("open %s: %v", name, err)
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("read %s: %v", name, err)
			}
			return string(data)
		}
	}
	t.Fatalf("part %s missing from package", name)
	return ""
}

func TestWriteProducesRequiredParts(t *testing.T) {
	zr := buildDeck(t, Deck{
		Title:        "新製品LP企画案",
		SVG:          []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`),
		AnalysisText: "一段落目。\n二段落目。",
	})

	required := []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"ppt/presentation.xml",
		"ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/theme/theme1.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
		"ppt/media/image1.svg",
	}
	for _, name := range required {
		readPart(t, zr, name)
	}

	contentTypes := readPart(t, zr, "[Content_Types].xml")
	if !strings.Contains(contentTypes, `Extension="svg"`) {
		t.Error("svg content type not declared")
	}

	slide1 := readPart(t, zr, "ppt/slides/slide1.xml")
	if !strings.Contains(slide1, "新製品LP企画案") {
		t.Error("title missing from title slide")
	}
	if !strings.Contains(slide1, `r:embed="rId2"`) {
		t.Error("image reference missing from title slide")
	}

	slide2 := readPart(t, zr, "ppt/slides/slide2.xml")
	if !strings.Contains(slide2, "一段落目。") || !strings.Contains(slide2, "二段落目。") {
		t.Error("analysis paragraphs missing from text slide")
	}
}

func TestWriteWithoutImage(t *testing.T) {
	zr := buildDeck(t, Deck{Title: "案", AnalysisText: "本文"})

	for _, f := range zr.File {
		if f.Name == "ppt/media/image1.svg" {
			t.Fatal("no media part expected without an image")
		}
	}
	rels := readPart(t, zr, "ppt/slides/_rels/slide1.xml.rels")
	if strings.Contains(rels, "image") {
		t.Error("image relationship declared without an image")
	}
	contentTypes := readPart(t, zr, "[Content_Types].xml")
	if strings.Contains(contentTypes, `Extension="svg"`) {
		t.Error("svg content type declared without an image")
	}
}

func TestWriteEscapesXML(t *testing.T) {
	zr := buildDeck(t, Deck{Title: `A&B <LP> "案"`, AnalysisText: "x < y"})

	slide1 := readPart(t, zr, "ppt/slides/slide1.xml")
	if !strings.Contains(slide1, "A&amp;B &lt;LP&gt;") {
		t.Errorf("title not escaped: %s", slide1)
	}
	slide2 := readPart(t, zr, "ppt/slides/slide2.xml")
	if !strings.Contains(slide2, "x &lt; y") {
		t.Error("body not escaped")
	}
}

func TestFilename(t *testing.T) {
	got := Filename(`新製品 LP/企画:案?`)
	pattern := regexp.MustCompile(`^新製品_LP企画案_\d{8}_\d{6}\.pptx$`)
	if !pattern.MatchString(got) {
		t.Errorf("unexpected filename %q", got)
	}

	long := strings.Repeat("あ", 50)
	got = Filename(long)
	base := strings.SplitN(got, "_", 2)[0]
	if len([]rune(base)) > 30 {
		t.Errorf("theme part not truncated: %q", got)
	}

	got = Filename("   ")
	if !strings.HasPrefix(got, "LP企画案_") {
		t.Errorf("empty theme fallback wrong: %q", got)
	}
}
