package tabular

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/japanese"

	lperrors "lpcore/internal/errors"
)

func writeBytes(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

const japaneseCSV = "職種,回答数\n営業,10\n技術,8\n"

func TestDecodeFileUTF8(t *testing.T) {
	path := writeBytes(t, []byte(japaneseCSV))
	text, name, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if text != japaneseCSV {
		t.Errorf("text mismatch: %q", text)
	}
	if name != "UTF-8" {
		t.Errorf("encoding name: %q", name)
	}
}

func TestDecodeFileStripsBOM(t *testing.T) {
	path := writeBytes(t, append([]byte{0xEF, 0xBB, 0xBF}, japaneseCSV...))
	text, _, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if text != japaneseCSV {
		t.Errorf("BOM not stripped: %q", text[:10])
	}
}

func TestDecodeFileShiftJIS(t *testing.T) {
	encoded, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(japaneseCSV))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	path := writeBytes(t, encoded)

	text, name, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if text != japaneseCSV {
		t.Errorf("round trip failed: %q", text)
	}
	if name != "Shift_JIS" && name != "CP932" {
		t.Errorf("encoding name: %q", name)
	}
}

func TestDecodeStrictEUCJP(t *testing.T) {
	encoded, err := japanese.EUCJP.NewEncoder().Bytes([]byte(japaneseCSV))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	text, ok := decodeStrict(encoded, encodingCandidates[3])
	if !ok {
		t.Fatal("decode failed")
	}
	if text != japaneseCSV {
		t.Errorf("round trip failed: %q", text)
	}

	// The same bytes are not valid UTF-8 and must be rejected there.
	if _, ok := decodeStrict(encoded, encodingCandidates[0]); ok {
		t.Error("EUC-JP bytes accepted as UTF-8")
	}
}

func TestDecodeFileFailsClosed(t *testing.T) {
	// Invalid in every supported encoding: must error, never yield
	// replacement runes.
	path := writeBytes(t, []byte{0x80, 0x81, 0x80})
	_, _, err := DecodeFile(path)
	if err == nil {
		t.Fatal("expected error")
	}
	if !lperrors.HasCode(err, lperrors.CodeEncodingUnresolved) {
		t.Errorf("want ENCODING_UNRESOLVED, got %v", err)
	}
}

func TestDecodeFileMissing(t *testing.T) {
	_, _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.csv"))
	if !lperrors.HasCode(err, lperrors.CodeFileNotFound) {
		t.Errorf("want FILE_NOT_FOUND, got %v", err)
	}
}

func TestLookupCandidateAliases(t *testing.T) {
	cases := map[string]string{
		"UTF-8":        "UTF-8",
		"ascii":        "UTF-8",
		"Shift_JIS":    "Shift_JIS",
		"SJIS":         "Shift_JIS",
		"windows-31j":  "Shift_JIS",
		"cp932":        "CP932",
		"MS932":        "CP932",
		"EUC-JP":       "EUC-JP",
		"ISO-2022-JP":  "ISO-2022-JP",
		"iso 2022 jp":  "ISO-2022-JP",
	}
	for label, want := range cases {
		c, ok := lookupCandidate(label)
		if !ok || c.name != want {
			t.Errorf("lookupCandidate(%q) = %q, %v; want %q", label, c.name, ok, want)
		}
	}
	if _, ok := lookupCandidate("UTF-16LE"); ok {
		t.Error("unsupported charset should not resolve")
	}
}
