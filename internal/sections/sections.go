// Package sections knows the section headers of improvement-mode answers:
// a draft, then "### Improvements", "### Revised Answer" and "### Comments".
// The fence repairer also treats these headers as hard section boundaries.
package sections

import (
	"regexp"
	"strings"
)

const (
	Improvements  = "### Improvements"
	RevisedAnswer = "### Revised Answer"
	Comments      = "### Comments"
)

// Markers are the explicit boundary headers, in the order an answer emits them.
var Markers = []string{Improvements, RevisedAnswer, Comments}

// atxHeadingRe matches a level 3-6 ATX heading with at most three spaces of indentation.
var atxHeadingRe = regexp.MustCompile(`^[ \t]{0,3}#{3,6}[ \t]+`)

// IsBoundary reports whether lines[idx] starts a new section: either one of
// the explicit markers, or a level 3-6 heading right after a blank line.
func IsBoundary(lines []string, idx int) bool {
	line := strings.TrimLeft(lines[idx], " \t")
	for _, m := range Markers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return atxHeadingRe.MatchString(lines[idx]) && idx > 0 && strings.TrimSpace(lines[idx-1]) == ""
}

// Revised extracts the revised answer from a possibly partial improvement-mode
// stream. It reports false until "### Revised Answer" has appeared after
// "### Improvements"; the result stops at the next "### Comments".
func Revised(text string) (string, bool) {
	_, afterImprovements, ok := strings.Cut(text, Improvements)
	if !ok {
		return "", false
	}
	parts := strings.Split(afterImprovements, RevisedAnswer)
	if len(parts) < 2 {
		return "", false
	}
	answer, _, _ := strings.Cut(parts[1], Comments)
	return answer, true
}

// Final returns the answer to keep once an intermediate-mode stream has
// finished: the second "### Revised Answer" section (the first one is part of
// the critique preamble) up to "### Comments", or the whole text otherwise.
func Final(text string) string {
	parts := strings.Split(text, RevisedAnswer)
	if len(parts) <= 2 {
		return text
	}
	answer, _, _ := strings.Cut(parts[2], Comments)
	return answer
}

// Settled returns what an improvement-mode answer shows once the stream has
// ended: the revised answer when there is one, otherwise the text after
// "### Improvements", otherwise the whole text.
func Settled(text string) string {
	if answer, ok := Revised(text); ok {
		return answer
	}
	if _, rest, ok := strings.Cut(text, Improvements); ok {
		return rest
	}
	return text
}
