package usecase

import (
	"strings"

	"support-agent/internal/domain"
)

const (
	relevantInfoLabel = "Relevant Information:"
	historyLabel      = "Conversation History:"
	latestQueryLabel  = "Latest User Query:"
	userLabel         = "User:"
	assistantLabel    = "Assistant:"
)

// DefaultPersona is the system persona used when none is configured.
const DefaultPersona = `You are AdigyAssist, a helpful and friendly customer support specialist for Adigy.

Adigy is an Amazon advertising automation platform. It connects to Seller Central and Vendor Central, builds Sponsored Products campaigns, and adjusts bids and keywords around the clock to keep every product at its target ACOS (Advertising Cost of Sale).

Plans include a 14-day free trial. Subscriptions are managed under Settings > Billing.

Always be helpful, courteous, and concise. Use the relevant information provided to answer accurately. If unsure, suggest contacting support@adigy.com.`

var generationParams = domain.GenerationParams{
	MaxNewTokens: 500,
	Temperature:  0.6,
	TopP:         0.9,
	DoSample:     true,
}

var scaffoldLabels = []string{userLabel, relevantInfoLabel, historyLabel, latestQueryLabel}

func buildPrompt(persona, relevant string, history []domain.Turn, query string) string {
	parts := []string{
		strings.TrimSpace(persona),
		"",
		instructions(),
		"",
		relevantInfoLabel,
		strings.TrimSpace(relevant),
		"",
	}
	if len(history) > 0 {
		parts = append(parts, historyLabel)
		for _, t := range history {
			parts = append(parts, roleLabel(t.Role)+" "+strings.TrimSpace(t.Content))
		}
		parts = append(parts, "")
	}
	parts = append(parts,
		latestQueryLabel+" "+strings.TrimSpace(query),
		assistantLabel,
	)
	return strings.Join(parts, "\n")
}

func instructions() string {
	return "You are assisting a user with questions about Adigy. " +
		"Below is relevant information from our FAQ, the conversation history (if any) and the user's latest query. " +
		"Respond directly to the latest query, taking into account the conversation history to maintain context. " +
		"Keep your response relevant, concise, and helpful."
}

func roleLabel(r domain.Role) string {
	if r == domain.RoleUser {
		return userLabel
	}
	return assistantLabel
}

// lastTurns returns at most n trailing turns.
func lastTurns(history []domain.Turn, n int) []domain.Turn {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// cleanGeneratedText strips the echoed prompt scaffolding from a generation
// and returns only the assistant's new text.
func cleanGeneratedText(generated, prompt string) string {
	text := generated
	if prompt != "" && strings.HasPrefix(text, prompt) {
		text = strings.TrimPrefix(strings.TrimLeft(text[len(prompt):], " \n"), assistantLabel)
	} else if i := strings.LastIndex(text, assistantLabel); i >= 0 {
		text = text[i+len(assistantLabel):]
	}
	return strings.TrimSpace(cutAtScaffold(text))
}

// cutAtScaffold drops everything from the first line that opens another
// prompt section, e.g. a hallucinated next user turn.
func cutAtScaffold(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, label := range scaffoldLabels {
			if strings.HasPrefix(trimmed, label) {
				return strings.Join(lines[:i], "\n")
			}
		}
	}
	return text
}
