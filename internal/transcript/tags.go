package transcript

import (
	"regexp"
	"strings"
)

const (
	FormatText = "text"
	FormatTags = "tags"
)

var (
	tagPunctuation  = regexp.MustCompile(`[.!?;:]`)
	tagDoubleCommas = regexp.MustCompile(`,\s*,`)
	tagSeparators   = []string{" and ", " with ", " in ", " on ", " at ", " of ", " for ", " but ", " or "}
	tagGlueWords    = map[string]struct{}{
		"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	}
)

// Tags rewrites prose as lowercase comma-separated tags of roughly three words,
// the shape image-generation prompts expect.
func Tags(text string) string {
	text = tagPunctuation.ReplaceAllString(text, ",")
	for _, sep := range tagSeparators {
		text = strings.ReplaceAll(text, sep, ", ")
	}

	var (
		chunks  []string
		current []string
	)
	for _, word := range strings.Fields(text) {
		current = append(current, word)
		if _, glue := tagGlueWords[strings.ToLower(word)]; len(current) >= 3 && !glue {
			chunks = append(chunks, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	result := strings.Join(chunks, ", ")
	result = tagDoubleCommas.ReplaceAllString(result, ",")
	result = Clean(result)
	return strings.ToLower(strings.Trim(result, ", "))
}

// Format applies the named output format; unknown formats return text unchanged.
func Format(format string, text string) string {
	if format == FormatTags {
		return Tags(text)
	}
	return text
}
