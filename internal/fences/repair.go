package fences

import (
	"fmt"
	"strings"

	"markdown-repair/internal/langguess"
	"markdown-repair/internal/sections"
)

// Options controls FixCodeFences and EnsureFencedCode.
type Options struct {
	// DefaultLanguage tags blocks whose language could not be guessed.
	DefaultLanguage string
	// KeepFenceChar keeps tilde fences as tildes; otherwise every rebuilt
	// fence uses backticks.
	KeepFenceChar bool
	// Guesser guesses and normalizes tags. Nil means the plain heuristics.
	Guesser *langguess.Guesser
}

// DefaultOptions returns the options used when the caller has no preference.
func DefaultOptions() Options {
	return Options{KeepFenceChar: true}
}

// closeReason records how the repairer stopped consuming a block.
type closeReason int

const (
	closedByFence closeReason = iota
	closedByBoundary
	closedByEOF
)

// fenceBlock is the transient record of one block being rebuilt.
type fenceBlock struct {
	open     fence
	tag      string
	openLine int
	content  []string

	closedBy     closeReason
	boundaryLine int
}

// FixCodeFences rebuilds every fenced block in text: it closes unclosed
// blocks, lengthens fences that collide with runs inside the content and fills
// in or normalizes the language tag. Text outside fenced blocks is unchanged.
// The returned changes describe each repair in scan order.
func FixCodeFences(text string, opts Options) (string, []string) {
	lines, trailing := splitLines(text)
	var (
		out     []string
		changes []string
	)

	for i := 0; i < len(lines); {
		open, ok := parseOpen(lines[i])
		if !ok {
			out = append(out, lines[i])
			i++
			continue
		}

		block := &fenceBlock{
			open:     open,
			tag:      strings.TrimSpace(open.tag),
			openLine: i + 1,
			closedBy: closedByEOF,
		}
		i = consumeBlock(lines, i+1, block)

		rebuilt, blockChanges := rebuildBlock(block, opts)
		out = append(out, rebuilt...)
		changes = append(changes, blockChanges...)
	}

	fixed := strings.Join(out, "\n")
	if trailing {
		fixed += "\n"
	}
	return fixed, changes
}

// consumeBlock appends content lines to block starting at line i and returns
// the index of the first line not consumed. A section boundary ends the block
// without being consumed.
func consumeBlock(lines []string, i int, block *fenceBlock) int {
	for i < len(lines) {
		if c, ok := parseClose(lines[i]); ok && block.open.closes(c) {
			block.closedBy = closedByFence
			return i + 1
		}
		if sections.IsBoundary(lines, i) {
			block.closedBy = closedByBoundary
			block.boundaryLine = i + 1
			return i
		}
		block.content = append(block.content, lines[i])
		i++
	}
	return i
}

func rebuildBlock(block *fenceBlock, opts Options) ([]string, []string) {
	var changes []string

	char := block.open.char
	if !opts.KeepFenceChar {
		char = '`'
	}
	code := strings.Join(block.content, "\n")
	safeLen := safeFenceLength(code, char)

	if block.open.length != safeLen {
		changes = append(changes, fmt.Sprintf("Adjusted fence length from %d to %d", block.open.length, safeLen))
	}
	switch block.closedBy {
	case closedByBoundary:
		changes = append(changes, fmt.Sprintf("Inserted missing closing fence before heading at line %d", block.boundaryLine))
	case closedByEOF:
		changes = append(changes, "Inserted missing closing fence at end of document")
	}

	tag := opts.Guesser.NormalizeTag(block.tag)
	if tag == "" {
		if guessed, ok := opts.Guesser.Guess(code); ok {
			tag = guessed
			changes = append(changes, "Added guessed language tag: "+guessed)
		} else if opts.DefaultLanguage != "" {
			tag = opts.Guesser.NormalizeTag(opts.DefaultLanguage)
			changes = append(changes, "Added default language tag: "+tag)
		}
	}
	if tag != block.tag {
		changes = append(changes, fmt.Sprintf("Normalized language tag from '%s' to '%s'", block.tag, tag))
	}

	marker := strings.Repeat(string(char), safeLen)
	opener := marker
	if tag != "" {
		opener += " " + tag
	}

	rebuilt := make([]string, 0, 3)
	rebuilt = append(rebuilt, opener)
	if len(block.content) > 0 {
		rebuilt = append(rebuilt, code)
	}
	rebuilt = append(rebuilt, marker)
	return rebuilt, changes
}

// safeFenceLength is one longer than the longest run of char in code, and at
// least three, so the rebuilt closer cannot be mistaken for content.
func safeFenceLength(code string, char byte) int {
	longest, run := 0, 0
	for i := 0; i < len(code); i++ {
		if code[i] == char {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	if longest+1 > 3 {
		return longest + 1
	}
	return 3
}
