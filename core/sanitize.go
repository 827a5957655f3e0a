package core

import (
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/schema"
)

// unicodeEscape matches a literal backslash-u escape such as `\u00e9`.
var unicodeEscape = regexp.MustCompile(`\\u[0-9a-fA-F]{4}`)

// Sanitize prepares text for embedding and storage.
//
// Literal \uXXXX escapes are deleted, every character outside printable
// ASCII (0x20-0x7E) becomes a single space, and the result is trimmed.
// Escape removal runs before the ASCII pass and repeats until no escape
// remains, so text such as `\u\u00410000` cannot collapse into a new escape.
func Sanitize(content string) string {
	if content == "" {
		return ""
	}

	for unicodeEscape.MatchString(content) {
		content = unicodeEscape.ReplaceAllString(content, "")
	}

	content = strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return ' '
		}
		return r
	}, content)

	return strings.TrimSpace(content)
}

// SanitizeTexts returns a sanitized copy of texts.
func SanitizeTexts(texts []string) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = Sanitize(text)
	}
	return out
}

// SanitizeDocuments returns copies of docs with sanitized page content.
// Metadata maps are shared with the input, never rewritten.
func SanitizeDocuments(docs []schema.Document) []schema.Document {
	out := make([]schema.Document, len(docs))
	for i, doc := range docs {
		out[i] = schema.Document{
			PageContent: Sanitize(doc.PageContent),
			Metadata:    doc.Metadata,
			Score:       doc.Score,
		}
	}
	return out
}
