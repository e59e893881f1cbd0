// Package transcript prepares and renders call transcripts.
package transcript

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"callaudit-backend/models"
)

// Matches embedded timestamp tokens like "0:00:00", "12:34" or "1:02:03".
var timestampPattern = regexp.MustCompile(`(\d{1,2}:)?\d{1,2}:\d{2}`)

var whitespacePattern = regexp.MustCompile(`\s+`)

// StripTimestamps removes embedded timestamp tokens from a caller-supplied
// transcript and collapses runs of whitespace to single spaces.
func StripTimestamps(raw string) string {
	cleaned := timestampPattern.ReplaceAllString(raw, " ")
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// JoinSegments flattens transcript segments into the plain text handed to
// the judgment oracle, one line per segment.
func JoinSegments(segments []models.TranscriptSegment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

// SecondsToTimestamp formats a start offset as H:MM:SS.
func SecondsToTimestamp(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// RenderHTML formats transcript segments as HTML blocks with timestamp and
// text only, no speaker attribution. Segment text is HTML-escaped.
func RenderHTML(segments []models.TranscriptSegment) string {
	var builder strings.Builder
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		builder.WriteString(`<div class="agentClass">`)
		builder.WriteString(`<span class="timeClass">`)
		builder.WriteString(SecondsToTimestamp(seg.Start))
		builder.WriteString(`</span>`)
		builder.WriteString(`<span class="ms-1 textClass">`)
		builder.WriteString(html.EscapeString(text))
		builder.WriteString(`</span>`)
		builder.WriteString(`</div>`)
	}
	return builder.String()
}
