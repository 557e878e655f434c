// Package mathfix balances LaTeX math delimiters ($, $$, \(, \), \[, \]) in
// Markdown text and rewrites align-family environments into a display block
// that Markdown math renderers accept.
package mathfix

import (
	"fmt"
	"regexp"
	"strings"

	"markdown-repair/internal/spans"
	"markdown-repair/internal/types"
)

// tokens in match priority: "$$" must be tried before "$".
var tokens = []string{`\[`, `\]`, `\(`, `\)`, "$$", "$"}

// closerFor maps every opener to the closer that ends it.
var closerFor = map[string]string{
	`\[`: `\]`,
	`\(`: `\)`,
	"$$": "$$",
	"$":  "$",
}

// currencyRe matches a dollar amount such as $5, $12.50 or $1,000.
var currencyRe = regexp.MustCompile(`^\$(?:\d{1,3}(?:[.,]\d{3})*|\d+)(?:[.,]\d+)?`)

// openEntry is an opener on the math stack and the input offset it came from.
type openEntry struct {
	tok string
	at  int
}

// Fixer repairs math delimiters. A Fixer holds no per-call state and is safe
// for concurrent use.
type Fixer struct {
	closeOnNewline bool
}

// NewFixer returns a Fixer. With closeOnNewline set, math still open at a
// newline is closed before the newline.
func NewFixer(closeOnNewline bool) *Fixer {
	return &Fixer{closeOnNewline: closeOnNewline}
}

// Fix scans text once and returns the repaired text and the edits applied, in
// scan order. Protected spans are copied through untouched.
func (f *Fixer) Fix(text string) (string, []types.Edit) {
	s := &scanner{
		src:            text,
		protected:      spans.Detect(text),
		closeOnNewline: f.closeOnNewline,
	}
	s.out.Grow(len(text) + 8)
	s.run()
	return s.out.String(), s.edits
}

type scanner struct {
	src            string
	protected      []spans.Span
	nextSpan       int
	closeOnNewline bool

	out   strings.Builder
	edits []types.Edit
	stack []openEntry
}

func (s *scanner) run() {
	n := len(s.src)
	i := 0
	for i < n {
		if end, ok := s.protectedEnd(i); ok {
			s.out.WriteString(s.src[i:end])
			i = end
			continue
		}

		c := s.src[i]
		if c == '\n' && s.closeOnNewline && len(s.stack) > 0 {
			for len(s.stack) > 0 {
				e := s.pop()
				s.insertCloser(e, i, fmt.Sprintf("for %s at end of line", e.tok))
			}
			s.out.WriteByte(c)
			i++
			continue
		}

		tok := tokenAt(s.src, i)
		if tok == "" {
			s.out.WriteByte(c)
			i++
			continue
		}

		switch {
		case trailingBackslashes(s.src[:i])%2 == 1:
			s.out.WriteString(tok)
		case tok == "$" && len(s.stack) == 0 && looksLikeCurrency(s.src, i):
			s.out.WriteString(tok)
		case s.isOpener(tok):
			s.open(tok, i)
		default:
			s.close(tok, i)
		}
		i += len(tok)
	}

	for len(s.stack) > 0 {
		e := s.pop()
		closer := closerFor[e.tok]
		s.record(types.EditInsert, n, "", closer, fmt.Sprintf("Inserted missing closer %s at end of document", closer))
		s.out.WriteString(closer)
	}
}

// protectedEnd returns the end of the protected span containing i. Offsets
// only grow, so the span cursor never moves backwards.
func (s *scanner) protectedEnd(i int) (int, bool) {
	for s.nextSpan < len(s.protected) && s.protected[s.nextSpan].End <= i {
		s.nextSpan++
	}
	if s.nextSpan < len(s.protected) && s.protected[s.nextSpan].Contains(i) {
		return s.protected[s.nextSpan].End, true
	}
	return 0, false
}

// isOpener classifies tok. \[ and \( always open, \] and \) always close; a
// dollar token closes only when it matches the innermost open dollar token.
func (s *scanner) isOpener(tok string) bool {
	switch tok {
	case `\[`, `\(`:
		return true
	case `\]`, `\)`:
		return false
	}
	return len(s.stack) == 0 || s.stack[len(s.stack)-1].tok != tok
}

// open never nests: a block that is still open gets closed first.
func (s *scanner) open(tok string, at int) {
	if len(s.stack) > 0 {
		e := s.pop()
		s.insertCloser(e, at, fmt.Sprintf("for %s before opening a new math block", e.tok))
	}
	s.push(openEntry{tok: tok, at: at})
	s.out.WriteString(tok)
}

func (s *scanner) close(tok string, at int) {
	if len(s.stack) == 0 {
		s.record(types.EditDelete, at, tok, "", fmt.Sprintf("Stray closer %s removed", tok))
		return
	}
	e := s.pop()
	want := closerFor[e.tok]
	if tok != want {
		s.record(types.EditReplace, at, tok, want, fmt.Sprintf("Mismatched closer: %s -> %s for opener %s", tok, want, e.tok))
	}
	s.out.WriteString(want)
}

func (s *scanner) insertCloser(e openEntry, at int, where string) {
	closer := closerFor[e.tok]
	s.record(types.EditInsert, at, "", closer, fmt.Sprintf("Inserted missing closer %s %s", closer, where))
	s.out.WriteString(closer)
}

func (s *scanner) record(kind types.EditKind, at int, before, after, reason string) {
	s.edits = append(s.edits, types.Edit{
		Kind:     kind,
		Position: at,
		Before:   before,
		After:    after,
		Reason:   reason,
	})
}

func (s *scanner) push(e openEntry) {
	if len(s.stack) != 0 {
		panic(fmt.Sprintf("mathfix: nested push of %s at %d over %s at %d", e.tok, e.at, s.stack[0].tok, s.stack[0].at))
	}
	s.stack = append(s.stack, e)
}

func (s *scanner) pop() openEntry {
	if len(s.stack) == 0 {
		panic("mathfix: pop from empty math stack")
	}
	e := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return e
}

// tokenAt returns the longest delimiter token starting at i, or "".
func tokenAt(src string, i int) string {
	rest := src[i:]
	for _, t := range tokens {
		if strings.HasPrefix(rest, t) {
			return t
		}
	}
	return ""
}

// looksLikeCurrency reports whether the $ at i starts a dollar amount that is
// not immediately followed by another $ (which would make it "$5$" math).
func looksLikeCurrency(src string, i int) bool {
	loc := currencyRe.FindStringIndex(src[i:])
	if loc == nil {
		return false
	}
	after := i + loc[1]
	return after >= len(src) || src[after] != '$'
}

func trailingBackslashes(prefix string) int {
	n := 0
	for i := len(prefix) - 1; i >= 0 && prefix[i] == '\\'; i-- {
		n++
	}
	return n
}

// FixLatexDelimiters balances math delimiters and then normalizes align-family
// environments. Align normalization runs second, on the already repaired text.
func FixLatexDelimiters(text string, closeOnNewline bool) (string, []types.Edit) {
	fixed, edits := NewFixer(closeOnNewline).Fix(text)
	return NormalizeAlign(fixed), edits
}
