package prompt

import "strings"

// Knowledge is the loose context block accepted by the direct assistant-create route.
type Knowledge struct {
	Messages []KnowledgeMessage `json:"messages,omitempty"`
	Events   []KnowledgeEvent   `json:"events,omitempty"`
}

type KnowledgeMessage struct {
	Message string `json:"message"`
}

type KnowledgeEvent struct {
	Event   string `json:"event"`
	Date    string `json:"date"`
	Message string `json:"message,omitempty"`
}

// KnowledgeContext renders the knowledge block appended to free-text content.
// Empty sections are omitted; a nil block renders as the empty string.
func KnowledgeContext(k *Knowledge) string {
	if k == nil {
		return ""
	}
	var b strings.Builder
	if len(k.Messages) > 0 {
		b.WriteString("\nMessages:\n")
		lines := make([]string, 0, len(k.Messages))
		for _, m := range k.Messages {
			lines = append(lines, "- "+m.Message)
		}
		b.WriteString(strings.Join(lines, "\n"))
	}
	if len(k.Events) > 0 {
		b.WriteString("\nEvents:\n")
		lines := make([]string, 0, len(k.Events))
		for _, e := range k.Events {
			lines = append(lines, "- "+e.Event+" ("+e.Date+"): "+e.Message)
		}
		b.WriteString(strings.Join(lines, "\n"))
	}
	return b.String()
}

// WithKnowledge joins content and its rendered knowledge block the way the
// direct-create route builds its system message.
func WithKnowledge(content string, k *Knowledge) string {
	return content + "\n" + KnowledgeContext(k)
}
