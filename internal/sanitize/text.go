package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxTextLength is the hard ceiling applied to cleaned titles and
// descriptions, in runes. YouTube rejects descriptions near 5000 characters;
// 4900 leaves headroom for the API's own accounting.
const MaxTextLength = 4900

const truncationMarker = "..."

// smartCharReplacer maps typographic characters to plain equivalents that
// survive the API's request encoding.
var smartCharReplacer = strings.NewReplacer(
	"−", "-", // minus sign
	"–", "-", // en dash
	"°", " degrees",
	"’", "'",
	"‘", "'",
	"“", `"`,
	"”", `"`,
)

var (
	mathSpanPattern = regexp.MustCompile(`\$[^$\n]*\$`)
	linkPattern     = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// Text cleans a free-text metadata field for upload. The pipeline applies, in
// order: NFKC normalization, smart-character substitution, removal of
// $-delimited math spans and backslash escapes, rewriting of markdown links
// into "label (url)", removal of C0/C1 control characters and Unicode
// line/paragraph separators, whitespace collapsing, and substitution of
// characters that break the request encoding. The result is truncated to
// MaxTextLength runes with a trailing marker when cut.
func Text(text string) string {
	if text == "" {
		return ""
	}

	text = norm.NFKC.String(text)
	text = smartCharReplacer.Replace(text)

	text = mathSpanPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, `\`, "")
	text = linkPattern.ReplaceAllString(text, "$1 ($2)")

	text = strings.Map(dropHiddenRune, text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	// Angle brackets and ampersands break the structured request encoding.
	text = strings.ReplaceAll(text, "<", "")
	text = strings.ReplaceAll(text, ">", "")
	text = strings.ReplaceAll(text, "&", "and")

	return truncate(text)
}

// dropHiddenRune removes control characters and maps Unicode line and
// paragraph separators to plain spaces. Returning -1 drops the rune.
func dropHiddenRune(r rune) rune {
	switch {
	case r <= 0x1f:
		return -1
	case r >= 0x7f && r <= 0x9f:
		return -1
	case r == '\u2028' || r == '\u2029':
		return ' '
	default:
		return r
	}
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxTextLength {
		return text
	}
	cut := MaxTextLength - 5
	return string(runes[:cut]) + truncationMarker
}
