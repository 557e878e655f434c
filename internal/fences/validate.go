// Package fences validates and repairs Markdown code fences in text that may
// have been cut off mid-stream.
package fences

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	openFenceRe  = regexp.MustCompile("^\\s*(`{3,}|~{3,})\\s*([A-Za-z0-9.+#_\\-]*)\\s*$")
	closeFenceRe = regexp.MustCompile("^\\s*(`{3,}|~{3,})\\s*$")
)

// fence describes one fence line: its character, run length and tag.
type fence struct {
	char   byte
	length int
	tag    string
}

// closes reports whether c can close a block opened by f.
func (f fence) closes(c fence) bool {
	return c.char == f.char && c.length >= f.length
}

// parseOpen matches an opening fence line; a bare fence also qualifies.
func parseOpen(line string) (fence, bool) {
	m := openFenceRe.FindStringSubmatch(line)
	if m == nil {
		return fence{}, false
	}
	return fence{char: m[1][0], length: len(m[1]), tag: m[2]}, true
}

// parseClose matches a bare fence line.
func parseClose(line string) (fence, bool) {
	m := closeFenceRe.FindStringSubmatch(line)
	if m == nil {
		return fence{}, false
	}
	return fence{char: m[1][0], length: len(m[1])}, true
}

// splitLines splits text on "\n", dropping a single trailing newline, which
// the caller restores.
func splitLines(text string) ([]string, bool) {
	if text == "" {
		return nil, false
	}
	trailing := strings.HasSuffix(text, "\n")
	if trailing {
		text = text[:len(text)-1]
	}
	return strings.Split(text, "\n"), trailing
}

// ValidateCodeFences reports unclosed and stray code fences. It runs two
// independent sweeps whose findings are concatenated; see unclosedFence and
// strayClosers.
func ValidateCodeFences(text string) (bool, []string) {
	lines, _ := splitLines(text)
	var issues []string
	if line, ok := unclosedFence(lines); ok {
		issues = append(issues, fmt.Sprintf("Unclosed code fence started on line %d", line))
	}
	for _, line := range strayClosers(lines) {
		issues = append(issues, fmt.Sprintf("Closing fence without opening on line %d", line))
	}
	return len(issues) == 0, issues
}

// unclosedFence tracks open/close state line by line and returns the 1-based
// line of a block still open at the end of the document.
func unclosedFence(lines []string) (int, bool) {
	var (
		open     fence
		inBlock  bool
		openLine int
	)
	for i, line := range lines {
		if !inBlock {
			if f, ok := parseOpen(line); ok {
				open, inBlock, openLine = f, true, i+1
			}
			continue
		}
		if c, ok := parseClose(line); ok && open.closes(c) {
			inBlock = false
		}
	}
	return openLine, inBlock
}

// strayClosers is a depth counter over fence lines. A tagged fence always
// opens. A bare fence closes when depth > 0; at depth 0 it opens a block if any
// non-blank line follows it, and is reported as a stray closer otherwise.
func strayClosers(lines []string) []int {
	lastContent := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			lastContent = i
			break
		}
	}

	var stray []int
	depth := 0
	for i, line := range lines {
		if _, ok := parseClose(line); ok {
			switch {
			case depth > 0:
				depth--
			case lastContent > i:
				depth++
			default:
				stray = append(stray, i+1)
			}
			continue
		}
		if _, ok := parseOpen(line); ok {
			depth++
		}
	}
	return stray
}
