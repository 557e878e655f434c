package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markdown-repair/internal/config"
	"markdown-repair/internal/preview"
	"markdown-repair/internal/repair"
)

type result struct {
	code           int
	stdout, stderr string
}

// runCLI runs the tool against a config file that does not exist, so every
// test starts from the defaults.
func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	for _, k := range []string{config.EnvDefaultLanguage, config.EnvCloseOnNewline, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	full := append([]string{args[0], "--config=" + cfgPath}, args[1:]...)

	var stdout, stderr bytes.Buffer
	code := run(full, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "answer.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitUsage, run(nil, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage:")

	r := runCLI(t, "", "bogus")
	assert.Equal(t, exitUsage, r.code)
	assert.Contains(t, r.stderr, "Unknown command: bogus")

	r = runCLI(t, "", "validate")
	assert.Equal(t, exitUsage, r.code)
}

func TestRun_Validate(t *testing.T) {
	r := runCLI(t, "", "validate", writeFile(t, "```go\nx\n```\n"))
	assert.Equal(t, exitOK, r.code)
	assert.Equal(t, "✓ Code fences are valid\n", r.stdout)

	r = runCLI(t, "", "validate", writeFile(t, "some text\n```\nprint('x')\n```\n```"))
	assert.Equal(t, exitFail, r.code)
	assert.Contains(t, r.stdout, "✗ Closing fence without opening on line 5")
}

func TestRun_Fences(t *testing.T) {
	r := runCLI(t, "", "fences", writeFile(t, "~~~\nplain words\n~~~"), "--lang", "bash", "--normalize-char")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "``` bash\nplain words\n```", r.stdout)
	assert.Contains(t, r.stderr, "- Added default language tag: bash")
}

func TestRun_Latex(t *testing.T) {
	r := runCLI(t, "$a\nb$", "latex", "--keep-lines", "-")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "$a\nb$", r.stdout)
	assert.Empty(t, r.stderr)

	r = runCLI(t, `\(x+1\]`, "latex", "-")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, `\(x+1\)`, r.stdout)
	assert.Contains(t, r.stderr, "Mismatched closer")
}

func TestRun_RepairJSON(t *testing.T) {
	r := runCLI(t, "Equation: $x+1", "repair", "--json", "-")
	require.Equal(t, exitOK, r.code, r.stderr)

	var got repair.Result
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &got))
	assert.Equal(t, "Equation: $x+1$", got.Text)
	require.Len(t, got.Edits, 1)
	assert.Equal(t, 14, got.Edits[0].Position)
	assert.Contains(t, r.stdout, `"kind": "insert"`)
}

func TestRun_RepairMode(t *testing.T) {
	input := "draft\n### Improvements\n- x\n### Revised Answer\nfinal $y"

	r := runCLI(t, input, "repair", "--mode", "improve", "-")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "\nfinal $y$", r.stdout)

	r = runCLI(t, "no sections $z", "repair", "--mode", "improve", "-")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "no sections $z$", r.stdout)

	r = runCLI(t, "x", "repair", "--mode", "loud", "-")
	assert.Equal(t, exitFail, r.code)
	assert.Contains(t, r.stderr, "Error [INVALID_INPUT]")
}

func TestRun_RepairWrite(t *testing.T) {
	path := writeFile(t, "```python\nprint(1)")

	r := runCLI(t, "", "repair", "--write", path)
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Empty(t, r.stdout)
	assert.Contains(t, r.stderr, "repaired (backup:")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "``` python\nprint(1)\n```", string(got))

	r = runCLI(t, "x", "repair", "--write", "-")
	assert.Equal(t, exitFail, r.code)
}

func TestRun_MissingFile(t *testing.T) {
	r := runCLI(t, "", "repair", filepath.Join(t.TempDir(), "missing.md"))
	assert.Equal(t, exitFail, r.code)
	assert.Contains(t, r.stderr, "Error [FILE_NOT_FOUND]")
}

func TestRun_Stream(t *testing.T) {
	r := runCLI(t, "Sum $a+b$ and\n```python\nprint(1)", "stream", "--chunk", "3")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "Sum $a+b$ and\n``` python\nprint(1)\n```", r.stdout)

	r = runCLI(t, "Here is the answer $x$ without sections.", "stream", "--mode", "improve", "--chunk", "4")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, "Here is the answer $x$ without sections.", r.stdout)

	r = runCLI(t, "", "stream", "--chunk", "0")
	assert.Equal(t, exitUsage, r.code)
}

func TestRun_Preview(t *testing.T) {
	r := runCLI(t, "```python\nprint(1)", "preview", "--blocks", "-")
	require.Equal(t, exitOK, r.code, r.stderr)

	var blocks []preview.CodeBlock
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &blocks))
	assert.Equal(t, []preview.CodeBlock{{Language: "python", Code: "print(1)\n"}}, blocks)

	r = runCLI(t, "# Title\n\n$x", "preview", "-")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "<h1>Title</h1>")
	assert.Contains(t, r.stdout, "$x$")
}

func TestRun_Verbose(t *testing.T) {
	r := runCLI(t, "$x", "latex", "--verbose", "-")
	require.Equal(t, exitOK, r.code)
	assert.Contains(t, r.stderr, "[DEBUG] input read")
}

func TestSplitChunks(t *testing.T) {
	assert.Equal(t, []string{"abc", "de"}, splitChunks("abcde", 3))
	assert.Equal(t, []string{"a中", "文"}, splitChunks("a中文", 2))
	assert.Nil(t, splitChunks("", 4))
}
