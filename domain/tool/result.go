package tool

import (
	"strings"
	"time"
)

// ContentTypeText is the only content type the server emits.
const ContentTypeText = "text"

// Content is a single block of a tool response.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the response envelope returned for every tool call.
type Result struct {
	// Content holds exactly one text block.
	Content []Content `json:"content"`

	// IsError marks validation, execution and dispatch failures.
	IsError bool `json:"isError,omitempty"`

	// Duration is how long the call took. Not serialized.
	Duration time.Duration `json:"-"`
}

// TextResult creates a successful result with a single text block.
func TextResult(text string) Result {
	return Result{Content: []Content{{Type: ContentTypeText, Text: text}}}
}

// ErrorResult creates a failed result with a single text block.
func ErrorResult(text string) Result {
	return Result{
		Content: []Content{{Type: ContentTypeText, Text: text}},
		IsError: true,
	}
}

// Text returns the concatenated text of all content blocks.
func (r Result) Text() string {
	if len(r.Content) == 1 {
		return r.Content[0].Text
	}
	var sb strings.Builder
	for i, c := range r.Content {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(c.Text)
	}
	return sb.String()
}

// WithDuration returns a copy of r carrying d.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}
