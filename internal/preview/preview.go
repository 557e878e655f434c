// Package preview renders repaired Markdown the way the chat view shows it and
// reports the fenced code blocks a Markdown parser actually sees.
package preview

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"markdown-repair/internal/types"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

// Render converts Markdown to HTML. Raw HTML in the answer is passed through.
func Render(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", types.NewAppError(types.ErrInternal, "failed to render markdown", err)
	}
	return buf.String(), nil
}

// CodeBlock is a fenced code block as parsed from Markdown.
type CodeBlock struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// CodeBlocks lists the fenced code blocks of md in document order.
func CodeBlocks(md string) []CodeBlock {
	source := []byte(md)
	doc := markdown.Parser().Parse(text.NewReader(source))

	var blocks []CodeBlock
	ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var code strings.Builder
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			code.Write(seg.Value(source))
		}
		blocks = append(blocks, CodeBlock{
			Language: string(fcb.Language(source)),
			Code:     code.String(),
		})
		return ast.WalkSkipChildren, nil
	})
	return blocks
}
