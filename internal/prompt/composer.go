// Package prompt builds the system prompt handed to the assistant's language model.
package prompt

import (
	_ "embed"
	"strings"
	"time"

	"github.com/amelia751/cloudly/internal/model"
)

//go:embed persona.md
var persona string

// DefaultFirstMessage is the greeting used when the sender does not provide one.
const DefaultFirstMessage = "Hello! It's so good to hear your voice. How are you feeling today?"

// dateLayout renders dates the way a US-locale short date reads (5/1/2024).
const dateLayout = "1/2/2006"

// Persona returns the embedded companion preamble without trailing whitespace.
func Persona() string {
	return strings.TrimSpace(persona)
}

// Compose concatenates the preamble, optional instructions, and the recipient's
// messages and events into a single system prompt. Input order is preserved.
func Compose(preamble, instructions string, messages []*model.Message, events []*model.Event) string {
	var b strings.Builder
	b.WriteString(preamble)

	if in := strings.TrimSpace(instructions); in != "" {
		b.WriteString("\n\n")
		b.WriteString(in)
	}

	b.WriteString("\n\nMessages:\n")
	for i, m := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(MessageLine(m))
	}

	b.WriteString("\n\nEvents:\n")
	for i, e := range events {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(EventLine(e))
	}
	return b.String()
}

// MessageLine formats one message bullet: - "<message>" (Context: c) (Note: n).
func MessageLine(m *model.Message) string {
	line := `- "` + m.Message + `"`
	if m.Context != "" {
		line += " (Context: " + m.Context + ")"
	}
	if m.Note != "" {
		line += " (Note: " + m.Note + ")"
	}
	return line
}

// EventLine formats one event bullet: - <event> on <date>: <message>.
func EventLine(e *model.Event) string {
	line := "- " + e.Event + " on " + FormatDate(e.Date)
	if e.Message != "" {
		line += ": " + e.Message
	}
	return line
}

// FormatDate renders the calendar date in UTC as M/D/YYYY; nil renders empty.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
