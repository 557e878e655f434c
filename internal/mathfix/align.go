package mathfix

import (
	"regexp"
	"strings"
)

const beginPrefix = `\begin{`

var alignNames = map[string]bool{
	"align":   true,
	"align*":  true,
	"aligned": true,
}

// jammedRowRe finds a command that directly follows a closing parenthesis,
// the usual sign of two equations run together without a row break.
var jammedRowRe = regexp.MustCompile(`\)\s*(\\\w+)`)

// NormalizeAlign rewrites every \begin{align}, \begin{align*} and
// \begin{aligned} block, through its matching \end, into
//
//	$$
//	\begin{aligned}
//	<body>
//	\end{aligned}
//	$$
//
// Stray $$ markers inside the body are dropped and a \\ row break is inserted
// between a ")" and a command that follows it.
func NormalizeAlign(text string) string {
	var b strings.Builder
	copied, search := 0, 0
	for {
		idx := strings.Index(text[search:], beginPrefix)
		if idx < 0 {
			break
		}
		start := search + idx
		nameAt := start + len(beginPrefix)
		brace := strings.IndexByte(text[nameAt:], '}')
		if brace < 0 {
			break
		}
		name := text[nameAt : nameAt+brace]
		bodyAt := nameAt + brace + 1
		endTag := `\end{` + name + `}`
		endIdx := -1
		if alignNames[name] {
			endIdx = strings.Index(text[bodyAt:], endTag)
		}
		if endIdx < 0 {
			search = start + 1
			continue
		}

		b.WriteString(text[copied:start])
		b.WriteString(alignedBlock(text[bodyAt : bodyAt+endIdx]))
		copied = bodyAt + endIdx + len(endTag)
		search = copied
	}
	if copied == 0 {
		return text
	}
	b.WriteString(text[copied:])
	return b.String()
}

func alignedBlock(body string) string {
	body = strings.ReplaceAll(body, "$$", "")
	body = jammedRowRe.ReplaceAllString(body, `) \\${1}`)
	return "$$\n\\begin{aligned}\n" + strings.TrimSpace(body) + "\n\\end{aligned}\n$$"
}
