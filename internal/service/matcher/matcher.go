// Package matcher answers free-text questions from the prompt knowledge base
// by normalized edit distance.
package matcher

import (
	"strings"
	"unicode/utf8"

	"dormbot/internal/models"

	"github.com/agnivade/levenshtein"
)

// Threshold is the minimum score (0-100) a prompt needs to be used as the answer.
const Threshold = 15.0

// Fallback is returned when no prompt scores at least Threshold.
const Fallback = "I don't have specific information on that query. Please contact the admin for more detailed assistance."

// Match is the best scoring prompt for a message.
type Match struct {
	Prompt models.Prompt
	Score  float64
}

// Similarity scores a against b from 0 (nothing in common) to 100 (equal,
// ignoring case). Distances are counted in runes.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return (1 - float64(dist)/float64(longest)) * 100
}

// Best returns the highest scoring prompt. Ties keep the earlier prompt.
// ok is false when prompts is empty.
func Best(message string, prompts []models.Prompt) (m Match, ok bool) {
	for i, p := range prompts {
		score := Similarity(message, p.Query)
		if i == 0 || score > m.Score {
			m = Match{Prompt: p, Score: score}
		}
	}
	return m, len(prompts) > 0
}

// Reply picks the answer for message. The returned bool reports whether a
// prompt was confident enough to answer; otherwise the text is Fallback.
func Reply(message string, prompts []models.Prompt) (string, Match, bool) {
	m, ok := Best(message, prompts)
	if !ok || m.Score < Threshold {
		return Fallback, m, false
	}
	return m.Prompt.Response, m, true
}
