package tabular

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"

	"lpcore/internal/errors"
)

// candidate is one entry of the fixed decode priority list. Survey exports
// from Japanese office tooling are the dominant input, hence the JIS-family
// bias after UTF-8.
type candidate struct {
	name string
	enc  encoding.Encoding // nil means plain UTF-8 validation
}

var encodingCandidates = []candidate{
	{"UTF-8", nil},
	{"Shift_JIS", japanese.ShiftJIS},
	{"CP932", japanese.ShiftJIS},
	{"EUC-JP", japanese.EUCJP},
	{"ISO-2022-JP", japanese.ISO2022JP},
}

// DetectEncoding reads the file and returns the top-confidence charset label
// from the statistical detector, even when confidence is low. Filesystem
// errors surface to the caller.
func DetectEncoding(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	best, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return "", errors.Wrapf(err, "charset detection failed for %s", path)
	}
	return best.Charset, nil
}

// lookupCandidate resolves a detector label (or user-supplied name) to one of
// the supported candidates. Matching is tolerant of case and separators.
func lookupCandidate(label string) (candidate, bool) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(label))
	switch key {
	case "utf8", "ascii":
		return encodingCandidates[0], true
	case "shiftjis", "sjis", "windows31j":
		return encodingCandidates[1], true
	case "cp932", "ms932":
		return encodingCandidates[2], true
	case "eucjp":
		return encodingCandidates[3], true
	case "iso2022jp":
		return encodingCandidates[4], true
	}
	return candidate{}, false
}

// decodeStrict decodes data with the candidate encoding, failing closed: any
// byte the encoding cannot represent rejects the whole candidate rather than
// silently corrupting cells with replacement runes.
func decodeStrict(data []byte, c candidate) (string, bool) {
	if c.enc == nil {
		if !utf8.Valid(data) {
			return "", false
		}
		return strings.TrimPrefix(string(data), "\uFEFF"), true
	}
	decoded, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	text := string(decoded)
	if strings.ContainsRune(text, utf8.RuneError) {
		return "", false
	}
	return text, true
}

// DecodeFile reads the file and decodes it to UTF-8 text, trying the detected
// encoding first and then the fixed priority list. When every candidate
// fails the error carries the ENCODING_UNRESOLVED code.
func DecodeFile(path string) (text string, encodingName string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", errors.FileNotFound(path)
		}
		return "", "", err
	}

	var tried []string
	tryOne := func(c candidate) (string, bool) {
		for _, seen := range tried {
			if seen == c.name {
				return "", false
			}
		}
		tried = append(tried, c.name)
		return decodeStrict(data, c)
	}

	if detected, derr := chardet.NewTextDetector().DetectBest(data); derr == nil {
		if c, ok := lookupCandidate(detected.Charset); ok {
			if out, ok := tryOne(c); ok {
				return out, c.name, nil
			}
		}
	}
	for _, c := range encodingCandidates {
		if out, ok := tryOne(c); ok {
			return out, c.name, nil
		}
	}
	return "", "", errors.EncodingUnresolved(path, tried)
}
