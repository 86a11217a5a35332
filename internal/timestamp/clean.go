package timestamp

import (
	"regexp"
	"strings"
)

// Pre-compiled patterns shared by the cleaner and the parse chain.
var (
	// timeToken is the minimum signal a recognized line must carry to be
	// considered a timestamp candidate (11:30, 9:05).
	timeToken = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)

	// metricNoise matches engagement counters rendered next to post timestamps.
	metricNoise = regexp.MustCompile(`(?i)(views?|retweets?|quotes?|likes?|bookmarks?)`)

	digitMeridiem = regexp.MustCompile(`(?i)(\d)([AP]M)\b`)
	meridiemDigit = regexp.MustCompile(`(?i)\b([AP]M)(\d)`)

	separators = strings.NewReplacer("·", " ", "|", " ")
)

// HasTimeToken reports whether s contains an H:MM or HH:MM token.
func HasTimeToken(s string) bool {
	return timeToken.MatchString(s)
}

// Clean strips UI noise from a recognized line so the parse chain sees only
// the time and date tokens. Clean is idempotent.
func Clean(text string) string {
	t := separators.Replace(text)
	t = metricNoise.ReplaceAllString(t, " ")

	// 11:30PM -> 11:30 PM, PM21 -> PM 21
	t = digitMeridiem.ReplaceAllString(t, "$1 $2")
	t = meridiemDigit.ReplaceAllString(t, "$1 $2")

	return strings.Join(strings.Fields(t), " ")
}

// Candidates cleans each line and removes duplicates, keeping the order in
// which lines were first seen. Lines that clean down to nothing are dropped.
func Candidates(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		c := Clean(line)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
