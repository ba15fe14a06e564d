package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// MinTagLength and MaxTagLength bound individual cleaned tags.
	MinTagLength = 2
	MaxTagLength = 30

	// MaxAggregateTagLength is the combined-length ceiling; above it the
	// list is cut to MaxTagsWhenOverBudget entries. The API's aggregate
	// limit is 500 characters, so 450 leaves headroom.
	MaxAggregateTagLength = 450
	MaxTagsWhenOverBudget = 8
)

var tagDisallowed = regexp.MustCompile(`[^A-Za-z0-9\s]`)

// Tags filters a tag list to the constraints the Data API enforces on video
// keywords. A nil result means the tags field should be omitted from the
// request entirely; that is distinct from an empty list, which the API
// treats as an explicit (and rejectable) value.
//
// Per tag: non-ASCII code points are dropped after NFKD decomposition,
// remaining characters outside letters/digits/whitespace are removed,
// whitespace runs collapse to one space, and the result is kept only when
// its length falls within [MinTagLength, MaxTagLength]. Duplicates are
// removed case-insensitively, keeping the first occurrence. When the summed
// length of the surviving tags exceeds MaxAggregateTagLength the list is
// truncated to its first MaxTagsWhenOverBudget entries.
func Tags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	cleaned := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = cleanTag(tag)
		if len(tag) < MinTagLength || len(tag) > MaxTagLength {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, tag)
	}

	if len(cleaned) == 0 {
		return nil
	}

	total := 0
	for _, tag := range cleaned {
		total += len(tag)
	}
	if total > MaxAggregateTagLength && len(cleaned) > MaxTagsWhenOverBudget {
		cleaned = cleaned[:MaxTagsWhenOverBudget]
	}
	return cleaned
}

func cleanTag(tag string) string {
	tag = norm.NFKD.String(tag)

	var b strings.Builder
	b.Grow(len(tag))
	for _, r := range tag {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	tag = b.String()

	tag = tagDisallowed.ReplaceAllString(tag, "")
	tag = whitespaceRun.ReplaceAllString(tag, " ")
	return strings.TrimSpace(tag)
}
