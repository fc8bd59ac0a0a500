// Package summary produces short link-preview blurbs for search answers.
package summary

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"pdc-bot/internal/domain"
	"pdc-bot/internal/textutil"
)

const (
	// DefaultMaxChars fits comfortably in an embed description.
	DefaultMaxChars = 900

	maxAnswerChars = 12_000
)

// Outcome tells callers why a summary is or is not present.
type Outcome int

const (
	Summarized Outcome = iota
	Unavailable
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Summarized:
		return "summarized"
	case Unavailable:
		return "unavailable"
	default:
		return "failed"
	}
}

// Result is the outcome of one summarization attempt. Text is set only for
// Summarized, Err only for Failed.
type Result struct {
	Outcome Outcome
	Text    string
	Err     error
}

// Request describes the answer to summarize.
type Request struct {
	Query    string
	Answer   string
	MaxChars int
}

// Completer is the language model port.
type Completer interface {
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// Summarizer wraps a Completer. A Summarizer without one always reports
// Unavailable.
type Summarizer struct {
	llm Completer
}

// New returns a Summarizer. llm may be nil when no provider is configured.
func New(llm Completer) *Summarizer {
	return &Summarizer{llm: llm}
}

// Available reports whether a provider is configured.
func (s *Summarizer) Available() bool {
	return s != nil && s.llm != nil
}

// Summarize asks the model for a short plain-text blurb. It never returns an
// error; failures are reported through the Result.
func (s *Summarizer) Summarize(ctx context.Context, req Request) Result {
	if !s.Available() {
		return Result{Outcome: Unavailable}
	}
	maxChars := req.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	raw, err := s.llm.Complete(ctx, []domain.ChatMessage{{
		Role:    "user",
		Content: buildPrompt(req.Query, req.Answer),
	}})
	if err != nil {
		return Result{Outcome: Failed, Err: err}
	}

	text := Clean(raw)
	if text == "" {
		return Result{Outcome: Failed, Err: errors.New("summary: model returned no usable text")}
	}
	return Result{Outcome: Summarized, Text: textutil.Trim(text, maxChars)}
}

var leadIns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here is (a|an|the)\s+[^.]*summary[:\s-]*`),
	regexp.MustCompile(`(?i)^the key takeaway is that\s+`),
	regexp.MustCompile(`(?i)^summary[:\s-]*`),
}

// Clean collapses whitespace and strips boilerplate lead-ins such as
// "Summary:" or "Here is a summary of the answer:".
func Clean(text string) string {
	text = textutil.NormalizeWhitespace(text)
	for {
		before := text
		for _, re := range leadIns {
			text = strings.TrimSpace(re.ReplaceAllString(text, ""))
		}
		if text == before {
			return text
		}
	}
}

func buildPrompt(query, answer string) string {
	if utf8.RuneCountInString(answer) > maxAnswerChars {
		answer = string([]rune(answer)[:maxAnswerChars]) + "…"
	}
	return strings.Join([]string{
		"Summarize the answer below for a Discord link preview.",
		"",
		"Requirements:",
		"- Focus on the key takeaway in 1-4 sentences.",
		"- It's okay to be brief if the answer is clear.",
		"- Do not repeat the question.",
		"- Do not mention character limits, summaries, or instructions.",
		"- Avoid markdown formatting.",
		"- Plain text only.",
		"",
		`Question: "` + query + `"`,
		"Answer:",
		answer,
		"",
	}, "\n")
}
