package domain

import "strings"

// Reply sources recorded alongside persisted turns.
const (
	SourceFAQ   = "faq"
	SourceModel = "model"
	SourceCache = "cache"
)

// Message is a single persisted question/answer exchange.
type Message struct {
	PK             string
	SK             string
	ConversationID string
	Text           string
	Answer         string
	Source         string
	Status         string
	TTL            int64
}

// ConversationMeta stores aggregate conversation state.
type ConversationMeta struct {
	PK             string
	SK             string
	ConversationID string
	LastActivity   string
	Turns          int
	TTL            int64
}

// Turns expands a completed exchange into its user and assistant turns.
// Exchanges missing either side are dropped.
func (m Message) Turns() []Turn {
	question := strings.TrimSpace(m.Text)
	answer := strings.TrimSpace(m.Answer)
	if question == "" || answer == "" {
		return nil
	}
	return []Turn{UserTurn(question), AssistantTurn(answer)}
}
