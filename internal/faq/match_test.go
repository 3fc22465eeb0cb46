package faq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustNewTable(t *testing.T, entries ...Entry) *Table {
	t.Helper()
	tbl, err := NewTable(entries)
	require.NoError(t, err)
	return tbl
}

func defaultAnswer(t *testing.T, key string) string {
	t.Helper()
	ans, ok := Default().Lookup(key)
	require.True(t, ok, "missing default key %q", key)
	return ans
}

func TestMatch_ExactKeyReturnsLiteralValue(t *testing.T) {
	want := defaultAnswer(t, "what is adigy")
	require.Equal(t, want, Default().Match("what is adigy"))
	require.Equal(t, want, Default().Match("  What Is ADIGY \n"))
}

func TestHits_ExactMatchShortCircuits(t *testing.T) {
	tbl := mustNewTable(t,
		Entry{Key: "cancel", Answer: "A"},
		Entry{Key: "cancel subscription", Answer: "B"},
	)
	hits := tbl.Hits("Cancel Subscription")
	require.Len(t, hits, 1)
	require.Equal(t, Exact, hits[0].Strength)
	require.Equal(t, "B", hits[0].Answer)
}

func TestMatch_WeakMatchOnSharedWord(t *testing.T) {
	got := Default().Match("How do I cancel?")
	require.Equal(t, defaultAnswer(t, "cancel subscription"), got)
}

func TestMatch_NoOverlapReturnsFallback(t *testing.T) {
	require.Equal(t, FallbackAnswer, Default().Match("good morning"))
	require.Equal(t, FallbackAnswer, Default().Match(""))
	require.Equal(t, FallbackAnswer, mustNewTable(t).Match("anything"))
}

func TestMatch_TwoFullKeysJoinedInTableOrder(t *testing.T) {
	got := Default().Match("refund policy and free trial")
	want := defaultAnswer(t, "free trial") + " " + defaultAnswer(t, "refund policy")
	require.Equal(t, want, got)
}

func TestMatch_AtMostTwoAnswers(t *testing.T) {
	tbl := mustNewTable(t,
		Entry{Key: "billing", Answer: "A"},
		Entry{Key: "billing date", Answer: "B"},
		Entry{Key: "billing email", Answer: "C"},
	)
	require.Equal(t, "A B", tbl.Match("billing date and billing email"))
}

func TestHits_UnrankedTableOrder(t *testing.T) {
	tbl := mustNewTable(t,
		Entry{Key: "account setup", Answer: "A"},
		Entry{Key: "reset password", Answer: "B"},
		Entry{Key: "billing", Answer: "C"},
	)
	hits := tbl.Hits("reset my password before setup")
	require.Len(t, hits, 2)
	require.Equal(t, Weak, hits[0].Strength)
	require.Equal(t, "account setup", hits[0].Key)
	require.Equal(t, Strong, hits[1].Strength)
	require.Equal(t, "reset password", hits[1].Key)
	require.Equal(t, "A B", tbl.Match("reset my password before setup"))
}

func TestHits_WeakMatchIsSubstringBased(t *testing.T) {
	tbl := mustNewTable(t, Entry{Key: "setup", Answer: "A"})
	hits := tbl.Hits("My setups keep failing")
	require.Len(t, hits, 1)
	require.Equal(t, Weak, hits[0].Strength)
}

func TestHits_EachKeyAtMostOnce(t *testing.T) {
	tbl := mustNewTable(t, Entry{Key: "free trial", Answer: "A"})
	hits := tbl.Hits("free trial free trial")
	require.Len(t, hits, 1)
	require.Equal(t, Strong, hits[0].Strength)
}

func TestNewTable_NormalisesAndRejectsDuplicates(t *testing.T) {
	tbl := mustNewTable(t, Entry{Key: "  Free Trial ", Answer: "A"})
	require.Equal(t, "free trial", tbl.Entries()[0].Key)

	_, err := NewTable([]Entry{{Key: "Cancel", Answer: "A"}, {Key: "cancel ", Answer: "B"}})
	require.ErrorContains(t, err, "duplicate")

	_, err = NewTable([]Entry{{Key: "  ", Answer: "A"}})
	require.ErrorContains(t, err, "empty")
}

func TestDefault_KeysAreNormalised(t *testing.T) {
	require.Positive(t, Default().Len())
	for _, e := range Default().Entries() {
		require.Equal(t, strings.ToLower(strings.TrimSpace(e.Key)), e.Key)
		require.NotEmpty(t, e.Answer)
	}
}

func TestStrength_String(t *testing.T) {
	require.Equal(t, "exact", Exact.String())
	require.Equal(t, "strong", Strong.String())
	require.Equal(t, "weak", Weak.String())
	require.Equal(t, "none", Strength(0).String())
}
