package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markdown-repair/internal/fences"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "fenced code gets language class",
			input: "``` python\nprint(1)\n```",
			want:  []string{`<code class="language-python">print(1)`},
		},
		{
			name:  "gfm table",
			input: "| a | b |\n|---|---|\n| 1 | 2 |",
			want:  []string{"<table>", "<td>1</td>"},
		},
		{
			name:  "raw html kept",
			input: "<span class=\"x\">hi</span>",
			want:  []string{`<span class="x">hi</span>`},
		},
		{
			name:  "strikethrough",
			input: "~~old~~ new",
			want:  []string{"<del>old</del>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(tt.input)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestCodeBlocks(t *testing.T) {
	blocks := CodeBlocks("intro\n\n``` go\nfunc main() {}\n```\n\n~~~\nplain\n~~~\n")
	assert.Equal(t, []CodeBlock{
		{Language: "go", Code: "func main() {}\n"},
		{Language: "", Code: "plain\n"},
	}, blocks)

	assert.Empty(t, CodeBlocks("no code here"))
}

// Repaired fences must read as the same blocks to a CommonMark parser.
func TestCodeBlocks_AfterRepair(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []CodeBlock
	}{
		{
			name:  "unclosed block",
			input: "```python\nprint(\"oops\")",
			want:  []CodeBlock{{Language: "python", Code: "print(\"oops\")\n"}},
		},
		{
			name:  "fence inside content",
			input: "```\nprint(\"```\")\n```",
			want:  []CodeBlock{{Language: "python", Code: "print(\"```\")\n"}},
		},
		{
			name:  "closed before section header",
			input: "```bash\nls\n### Revised Answer\ndone",
			want:  []CodeBlock{{Language: "bash", Code: "ls\n"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixed, _ := fences.EnsureFencedCode(tt.input, fences.DefaultOptions())
			assert.Equal(t, tt.want, CodeBlocks(fixed))
		})
	}
}
