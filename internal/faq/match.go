package faq

import "strings"

// FallbackAnswer is returned when no topic key overlaps the question.
const FallbackAnswer = "I'm not sure I have an answer for that. Could you rephrase your question, " +
	"or contact our support team at support@adigy.com?"

const maxCombinedAnswers = 2

// Strength describes how a topic key matched a question.
type Strength int

const (
	// Weak: some key word appears anywhere inside the question text.
	Weak Strength = iota + 1
	// Strong: every key word appears as a separate word of the question.
	Strong
	// Exact: the question is the key.
	Exact
)

func (s Strength) String() string {
	switch s {
	case Exact:
		return "exact"
	case Strong:
		return "strong"
	case Weak:
		return "weak"
	default:
		return "none"
	}
}

// Hit is a matched topic.
type Hit struct {
	Entry
	Strength Strength
}

// Hits returns the matched topics in table order. An exact key match is
// returned alone. Hits are not ranked: a weak hit early in the table
// precedes a strong hit later in it.
func (t *Table) Hits(query string) []Hit {
	q := normalize(query)
	if i, ok := t.index[q]; ok {
		return []Hit{{Entry: t.entries[i], Strength: Exact}}
	}

	words := make(map[string]struct{})
	for _, w := range strings.Fields(q) {
		words[w] = struct{}{}
	}

	var hits []Hit
	for _, e := range t.entries {
		keyWords := strings.Fields(e.Key)
		switch {
		case containsAllWords(words, keyWords):
			hits = append(hits, Hit{Entry: e, Strength: Strong})
		case containsAnySubstring(q, keyWords):
			hits = append(hits, Hit{Entry: e, Strength: Weak})
		}
	}
	return hits
}

// Match returns the most relevant canned text for query: the exact answer,
// the first two hits joined by a space, or FallbackAnswer.
func (t *Table) Match(query string) string {
	hits := t.Hits(query)
	if len(hits) == 0 {
		return FallbackAnswer
	}
	if len(hits) > maxCombinedAnswers {
		hits = hits[:maxCombinedAnswers]
	}
	answers := make([]string, len(hits))
	for i, h := range hits {
		answers[i] = h.Answer
	}
	return strings.Join(answers, " ")
}

func containsAllWords(words map[string]struct{}, keyWords []string) bool {
	for _, kw := range keyWords {
		if _, ok := words[kw]; !ok {
			return false
		}
	}
	return len(keyWords) > 0
}

// containsAnySubstring is not word-boundary safe: "setup" matches "setups".
func containsAnySubstring(q string, keyWords []string) bool {
	for _, kw := range keyWords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
