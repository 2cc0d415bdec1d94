package fetcher

import (
	"strings"
)

// DefaultChallengePhrases are lowercase markers of a bot challenge page.
var DefaultChallengePhrases = []string{
	"captcha",
	"robot check",
	"sorry, we just need to make sure",
	"type the characters you see",
}

// ChallengeDetector recognizes bot challenge pages by phrase.
type ChallengeDetector struct {
	phrases []string
}

// NewChallengeDetector creates a detector for the given phrases. An empty
// list falls back to DefaultChallengePhrases.
func NewChallengeDetector(phrases []string) *ChallengeDetector {
	if len(phrases) == 0 {
		phrases = DefaultChallengePhrases
	}
	lower := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lower = append(lower, p)
		}
	}
	return &ChallengeDetector{phrases: lower}
}

// Detect scans the lowercased HTML and returns the first phrase found.
func (d *ChallengeDetector) Detect(html string) (string, bool) {
	htmlLower := strings.ToLower(html)
	for _, phrase := range d.phrases {
		if strings.Contains(htmlLower, phrase) {
			return phrase, true
		}
	}
	return "", false
}
