// Package spans locates the regions of a document that delimiter repair must
// leave untouched: fenced and inline code, LaTeX line comments and verbatim-like
// constructs.
package spans

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span is a half-open interval [Start, End) of byte offsets.
type Span struct {
	Start int
	End   int
}

// Contains reports whether offset i lies inside the span.
func (s Span) Contains(i int) bool {
	return s.Start <= i && i < s.End
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

var (
	inlineCodeRe  = regexp.MustCompile("`[^`\n]*`")
	verbEnvOpenRe = regexp.MustCompile(`\\begin\{(verbatim|lstlisting|minted)\*?\b[^}]*\}`)
)

var fenceMarkers = []string{"```", "~~~"}

// Detect returns the protected spans of text, sorted by start offset with
// overlapping and adjacent spans merged.
func Detect(text string) []Span {
	var found []Span
	for _, marker := range fenceMarkers {
		found = append(found, fencedBlocks(text, marker)...)
	}
	for _, loc := range inlineCodeRe.FindAllStringIndex(text, -1) {
		found = append(found, Span{Start: loc[0], End: loc[1]})
	}
	found = append(found, lineComments(text)...)
	found = append(found, verbatimEnvironments(text)...)
	found = append(found, inlineVerb(text)...)
	return Merge(found)
}

// Merge sorts spans and coalesces the ones that overlap or touch.
func Merge(in []Span) []Span {
	if len(in) == 0 {
		return nil
	}
	sorted := make([]Span, len(in))
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := []Span{sorted[0]}
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if s.Start > last.End {
			merged = append(merged, s)
			continue
		}
		if s.End > last.End {
			last.End = s.End
		}
	}
	return merged
}

// Find returns the span of a merged, sorted list that contains i.
func Find(list []Span, i int) (Span, bool) {
	k := sort.Search(len(list), func(k int) bool { return list[k].End > i })
	if k < len(list) && list[k].Contains(i) {
		return list[k], true
	}
	return Span{}, false
}

// fencedBlocks protects fenced code. A run of marker characters that opens a
// line is closed only by a later line holding nothing but a run of the same
// character at least as long. A run inside a line, or a line-start run with
// no such closer, pairs with the next marker occurrence instead, the way a
// lazy DOTALL match would. An opener without a partner protects nothing.
func fencedBlocks(text, marker string) []Span {
	var out []Span
	pos := 0
	for {
		open := strings.Index(text[pos:], marker)
		if open < 0 {
			return out
		}
		open += pos
		end, ok := closingFenceLine(text, open, marker[0])
		if !ok {
			body := open + len(marker)
			close := strings.Index(text[body:], marker)
			if close < 0 {
				return out
			}
			end = body + close + len(marker)
		}
		out = append(out, Span{Start: open, End: end})
		pos = end
	}
}

// closingFenceLine reports the end of the closing run for a fence opening at
// text[open]. ok is false when the run does not start its line or no closing
// line follows.
func closingFenceLine(text string, open int, char byte) (int, bool) {
	lineStart := strings.LastIndexByte(text[:open], '\n') + 1
	if strings.TrimLeft(text[lineStart:open], " \t") != "" {
		return 0, false
	}
	length := runLength(text[open:], char)

	nl := strings.IndexByte(text[open:], '\n')
	if nl < 0 {
		return 0, false
	}
	for at := open + nl + 1; at <= len(text); {
		lineEnd := len(text)
		if i := strings.IndexByte(text[at:], '\n'); i >= 0 {
			lineEnd = at + i
		}
		line := text[at:lineEnd]
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		run := runLength(line[indent:], char)
		if run >= length && strings.TrimSpace(line[indent+run:]) == "" {
			return at + indent + run, true
		}
		if lineEnd == len(text) {
			return 0, false
		}
		at = lineEnd + 1
	}
	return 0, false
}

func runLength(s string, char byte) int {
	n := 0
	for n < len(s) && s[n] == char {
		n++
	}
	return n
}

// lineComments protects from an unescaped % to the end of its line.
func lineComments(text string) []Span {
	var out []Span
	pos := 0
	for {
		idx := strings.IndexByte(text[pos:], '%')
		if idx < 0 {
			return out
		}
		idx += pos
		if trailingBackslashes(text[:idx])%2 == 1 {
			pos = idx + 1
			continue
		}
		end := len(text)
		if nl := strings.IndexByte(text[idx:], '\n'); nl >= 0 {
			end = idx + nl
		}
		out = append(out, Span{Start: idx, End: end})
		pos = end
	}
}

// verbatimEnvironments protects \begin{verbatim|lstlisting|minted} through the
// matching \end{name}, or through the end of the document when unmatched.
func verbatimEnvironments(text string) []Span {
	var out []Span
	for _, m := range verbEnvOpenRe.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		closing := `\end{` + name + `}`
		end := len(text)
		if idx := strings.Index(text[m[1]:], closing); idx >= 0 {
			end = m[1] + idx + len(closing)
		}
		out = append(out, Span{Start: m[0], End: end})
	}
	return out
}

// inlineVerb protects \verb<d>...<d> where d is any non-alphanumeric,
// non-space character and both delimiters sit on the same line.
func inlineVerb(text string) []Span {
	const cmd = `\verb`
	var out []Span
	pos := 0
	for pos < len(text) {
		idx := strings.Index(text[pos:], cmd)
		if idx < 0 {
			break
		}
		idx += pos
		delimAt := idx + len(cmd)
		d, size := utf8.DecodeRuneInString(text[delimAt:])
		if size == 0 || !isVerbDelimiter(d) {
			pos = idx + 1
			continue
		}
		bodyAt := delimAt + size
		rest := text[bodyAt:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		closeAt := strings.IndexRune(rest, d)
		if closeAt < 0 {
			pos = idx + 1
			continue
		}
		end := bodyAt + closeAt + size
		out = append(out, Span{Start: idx, End: end})
		pos = end
	}
	return out
}

func isVerbDelimiter(r rune) bool {
	if r == utf8.RuneError || unicode.IsSpace(r) {
		return false
	}
	return !(r < utf8.RuneSelf && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'))
}

func trailingBackslashes(prefix string) int {
	n := 0
	for i := len(prefix) - 1; i >= 0 && prefix[i] == '\\'; i-- {
		n++
	}
	return n
}
