// Package langguess maps a code snippet to a fenced-code language tag.
//
// Guess applies a fixed, ordered list of heuristics; the first rule that
// matches wins because the feature sets of the languages overlap (an ES module
// import also looks like a Python import). Guesser layers optional fallbacks
// and tag canonicalization on top of it.
package langguess

import (
	"regexp"
	"strings"
)

var (
	pyDefRe      = regexp.MustCompile(`(?m)^\s*def\s+\w+\s*\(`)
	jsFuncRe     = regexp.MustCompile(`function\s+\w+\s*\(`)
	jsImportRe   = regexp.MustCompile(`\bimport\s+.*\s+from\s+`)
	shellCmdRe   = regexp.MustCompile(`(?m)^\s*\$?\s*(cd|ls|echo|export|pip|apt|yum|curl|wget|git)\b`)
	sqlSelectRe  = regexp.MustCompile(`\bselect\b.*\bfrom\b`)
	sqlCreateRe  = regexp.MustCompile(`\bcreate\s+table\b`)
	htmlTagRe    = regexp.MustCompile(`(?m)^\s*<html\b`)
	jsonObjectRe = regexp.MustCompile(`^\s*\{[\s\S]*\}\s*$`)
	yamlPairRe   = regexp.MustCompile(`(?m)^\s*[\w\-]+\s*:\s*.+`)
	cMainRe      = regexp.MustCompile(`\bint\s+main\s*\(`)
	javaClassRe  = regexp.MustCompile(`\bpublic\s+class\b`)
	javaPrintRe  = regexp.MustCompile(`\bSystem\.out\.println\(`)
)

// rule matches the trimmed snippet s and its lowercase form low.
type rule struct {
	lang  string
	match func(s, low string) bool
}

var rules = []rule{
	{"python", func(s, low string) bool {
		return pyDefRe.MatchString(s) || strings.Contains(low, "import ") || strings.Contains(s, "print(")
	}},
	{"javascript", func(s, low string) bool {
		return strings.Contains(s, "console.log(") || jsFuncRe.MatchString(s) ||
			strings.Contains(s, "=> ") || jsImportRe.MatchString(low)
	}},
	{"bash", func(s, low string) bool {
		return shellCmdRe.MatchString(low)
	}},
	{"sql", func(s, low string) bool {
		return sqlSelectRe.MatchString(low) || sqlCreateRe.MatchString(low)
	}},
	{"html", func(s, low string) bool {
		return strings.HasPrefix(low, "<!doctype html") || htmlTagRe.MatchString(low) ||
			strings.HasPrefix(low, "<?xml")
	}},
	{"json", func(s, low string) bool {
		return jsonObjectRe.MatchString(s) && strings.Contains(s, ":")
	}},
	{"yaml", func(s, low string) bool {
		return yamlPairRe.MatchString(s) && !strings.ContainsAny(s, ";{")
	}},
	{"c", func(s, low string) bool {
		return strings.Contains(s, "#include") || cMainRe.MatchString(s)
	}},
	{"java", func(s, low string) bool {
		return javaClassRe.MatchString(s) || javaPrintRe.MatchString(s)
	}},
	{"rust", func(s, low string) bool {
		return strings.Contains(s, "fn main()") || strings.Contains(s, "let mut ")
	}},
}

// Languages lists the tags Guess can return, in priority order.
func Languages() []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.lang
	}
	return out
}

// Guess returns the language tag of the first heuristic that matches code.
func Guess(code string) (string, bool) {
	s := strings.TrimSpace(code)
	low := strings.ToLower(s)
	for _, r := range rules {
		if r.match(s, low) {
			return r.lang, true
		}
	}
	return "", false
}
