package langguess

import (
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/go-enry/go-enry/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// classifierCandidates restricts the enry classifier to the languages the
// heuristics know, spelled the way linguist names them.
var classifierCandidates = []string{
	"Python", "JavaScript", "Shell", "SQL", "HTML", "JSON", "YAML", "C", "Java", "Rust",
}

// enryTags covers linguist names whose lowercase form is not the usual fence tag.
var enryTags = map[string]string{
	"Shell":      "bash",
	"Emacs Lisp": "elisp",
	"Vim Script": "vim",
	"C++":        "cpp",
	"C#":         "csharp",
}

var tagRe = regexp.MustCompile(`^[a-z0-9.+#_\-]+$`)

// Guesser guesses and normalizes language tags. The zero value, and a nil
// *Guesser, behave exactly like Guess plus lowercasing.
type Guesser struct {
	// Extended falls back to go-enry and chroma content detection when the
	// heuristics find nothing.
	Extended bool
	// Canonicalize rewrites explicit tags to the canonical name of the chroma
	// lexer they resolve to ("py" becomes "python").
	Canonicalize bool
}

// Guess returns a tag for code, or false when nothing matched.
func (g *Guesser) Guess(code string) (string, bool) {
	if lang, ok := Guess(code); ok {
		return lang, true
	}
	if g == nil || !g.Extended || strings.TrimSpace(code) == "" {
		return "", false
	}
	return detectContent(code)
}

// NormalizeTag lowercases tag and, when enabled, canonicalizes it.
func (g *Guesser) NormalizeTag(tag string) string {
	norm := Lower(tag)
	if norm == "" || g == nil || !g.Canonicalize {
		return norm
	}
	if l := lexers.Get(norm); l != nil {
		return lexerTag(l)
	}
	return norm
}

// Lower lowercases a tag using Unicode case mapping.
func Lower(tag string) string {
	return cases.Lower(language.Und).String(tag)
}

func detectContent(code string) (string, bool) {
	content := []byte(code)
	if lang, safe := enry.GetLanguageByShebang(content); safe && lang != "" {
		return fromLinguist(lang), true
	}
	if lang, safe := enry.GetLanguageByModeline(content); safe && lang != "" {
		return fromLinguist(lang), true
	}
	if l := lexers.Analyse(code); l != nil {
		return lexerTag(l), true
	}
	if lang, _ := enry.GetLanguageByClassifier(content, classifierCandidates); lang != "" {
		return fromLinguist(lang), true
	}
	return "", false
}

func fromLinguist(name string) string {
	if tag, ok := enryTags[name]; ok {
		return tag
	}
	if l := lexers.Get(name); l != nil {
		return lexerTag(l)
	}
	return strings.ReplaceAll(Lower(name), " ", "-")
}

// lexerTag prefers the lowercase lexer name and falls back to its first alias
// when the name is not usable as a fence tag.
func lexerTag(l chroma.Lexer) string {
	cfg := l.Config()
	name := Lower(cfg.Name)
	if tagRe.MatchString(name) {
		return name
	}
	if len(cfg.Aliases) > 0 {
		return cfg.Aliases[0]
	}
	return strings.ReplaceAll(name, " ", "-")
}
