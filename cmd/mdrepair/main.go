// mdrepair is a command-line tool for repairing code fences and LaTeX math
// delimiters in Markdown answers
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"markdown-repair/internal/config"
	"markdown-repair/internal/fences"
	"markdown-repair/internal/langguess"
	"markdown-repair/internal/logger"
	"markdown-repair/internal/mathfix"
	"markdown-repair/internal/preview"
	"markdown-repair/internal/repair"
	"markdown-repair/internal/textio"
	"markdown-repair/internal/types"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func printUsage(w io.Writer) {
	usage := `mdrepair - Markdown fence and math repair tool

Usage:
  mdrepair <command> [flags] <file>

Commands:
  validate    Report unclosed and stray code fences
  fences      Repair code fences
  latex       Balance math delimiters and normalize align environments
  repair      Run the full pipeline (fences, then math)
  stream      Feed stdin to a streaming buffer and print the final repaint
  preview     Render the repaired text to HTML

Flags:
  mdrepair fences <file> [--lang L] [--normalize-char]
  mdrepair latex <file> [--keep-lines]
  mdrepair repair <file> [--json] [--mode standard|improve|intermediate] [--write]
  mdrepair stream [--chunk N] [--mode M]
  mdrepair preview <file> [--blocks]

Every command accepts --config <path> and --verbose. Use - as <file> for stdin.

Examples:
  mdrepair validate answer.md
  mdrepair repair --json answer.md
  cat answer.md | mdrepair stream --chunk 16
`
	fmt.Fprint(w, usage)
}

// cli carries the streams and settings shared by every command.
type cli struct {
	stdin          io.Reader
	stdout, stderr io.Writer
	cfg            *types.Config
}

type command func(c *cli, args []string) int

var commands = map[string]command{
	"validate": runValidate,
	"fences":   runFences,
	"latex":    runLatex,
	"repair":   runRepair,
	"stream":   runStream,
	"preview":  runPreview,
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitUsage
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stdout)
		return exitOK
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		printUsage(stderr)
		return exitUsage
	}
	return cmd(&cli{stdin: stdin, stdout: stdout, stderr: stderr}, args[1:])
}

// flagSet is the flag set of one command plus the flags every command shares.
type flagSet struct {
	*flag.FlagSet
	configPath string
	verbose    bool
}

func newFlagSet(name string, stderr io.Writer) *flagSet {
	fs := &flagSet{FlagSet: flag.NewFlagSet("mdrepair "+name, flag.ContinueOnError)}
	fs.SetOutput(stderr)
	fs.StringVar(&fs.configPath, "config", "", "config file (default ~/.config/markdown-repair/config.json)")
	fs.BoolVar(&fs.verbose, "verbose", false, "log repairs to stderr")
	return fs
}

// parse accepts flags before and after positional arguments.
func (fs *flagSet) parse(args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

// setup loads the configuration and starts the logger.
func (c *cli) setup(fs *flagSet) error {
	cm, err := config.NewConfigManager(fs.configPath)
	if err != nil {
		return err
	}
	if err := cm.Load(); err != nil {
		return err
	}
	c.cfg = cm.GetConfig()

	lc := cm.LoggerConfig()
	if fs.verbose {
		lc.Console = c.stderr
		lc.Level = logger.LevelDebug
	}
	if lc.LogFilePath == "" && lc.Console == nil {
		return nil
	}
	return logger.Init(lc)
}

func (c *cli) fail(err error) int {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		fmt.Fprintf(c.stderr, "Error [%s]: %v\n", appErr.Code, appErr)
	} else {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
	}
	return exitFail
}

// start parses args, loads config and reads the single input file.
func (c *cli) start(fs *flagSet, args []string) (string, string, string, int) {
	positional, err := fs.parse(args)
	if err != nil {
		return "", "", "", exitUsage
	}
	if len(positional) != 1 {
		fmt.Fprintf(c.stderr, "Usage: %s [flags] <file>\n", fs.Name())
		return "", "", "", exitUsage
	}
	if err := c.setup(fs); err != nil {
		return "", "", "", c.fail(err)
	}

	path := positional[0]
	var text, enc string
	if path == "-" {
		data, rerr := io.ReadAll(c.stdin)
		if rerr != nil {
			return "", "", "", c.fail(types.NewAppError(types.ErrInvalidInput, "failed to read stdin", rerr))
		}
		text, enc, err = textio.Decode(data)
	} else {
		text, enc, err = textio.ReadFile(path)
	}
	if err != nil {
		return "", "", "", c.fail(err)
	}
	logger.Debug("input read", logger.String("path", path), logger.String("encoding", enc), logger.Int("bytes", len(text)))
	return path, text, enc, exitOK
}

func (c *cli) fenceOptions() fences.Options {
	return fences.Options{
		DefaultLanguage: c.cfg.DefaultLanguage,
		KeepFenceChar:   c.cfg.KeepFenceChar,
		Guesser: &langguess.Guesser{
			Extended:     c.cfg.ExtendedDetection,
			Canonicalize: c.cfg.CanonicalizeTags,
		},
	}
}

func runValidate(c *cli, args []string) int {
	fs := newFlagSet("validate", c.stderr)
	_, text, _, code := c.start(fs, args)
	if code != exitOK {
		return code
	}
	defer logger.Close()

	ok, issues := fences.ValidateCodeFences(text)
	if ok {
		fmt.Fprintln(c.stdout, "✓ Code fences are valid")
		return exitOK
	}
	for _, issue := range issues {
		fmt.Fprintf(c.stdout, "✗ %s\n", issue)
	}
	return exitFail
}

func runFences(c *cli, args []string) int {
	fs := newFlagSet("fences", c.stderr)
	lang := fs.String("lang", "", "language tag for blocks that cannot be guessed")
	normalizeChar := fs.Bool("normalize-char", false, "rewrite tilde fences as backticks")
	_, text, _, code := c.start(fs, args)
	if code != exitOK {
		return code
	}
	defer logger.Close()

	opts := c.fenceOptions()
	if *lang != "" {
		opts.DefaultLanguage = *lang
	}
	if *normalizeChar {
		opts.KeepFenceChar = false
	}

	fixed, changes := fences.EnsureFencedCode(text, opts)
	fmt.Fprint(c.stdout, fixed)
	for _, ch := range changes {
		fmt.Fprintf(c.stderr, "- %s\n", ch)
	}
	return exitOK
}

func runLatex(c *cli, args []string) int {
	fs := newFlagSet("latex", c.stderr)
	keepLines := fs.Bool("keep-lines", false, "let inline math continue across newlines")
	_, text, _, code := c.start(fs, args)
	if code != exitOK {
		return code
	}
	defer logger.Close()

	closeOnNewline := c.cfg.CloseOnNewline && !*keepLines
	fixed, edits := mathfix.FixLatexDelimiters(text, closeOnNewline)
	fmt.Fprint(c.stdout, fixed)
	for _, e := range edits {
		fmt.Fprintf(c.stderr, "- %s\n", e)
	}
	return exitOK
}

func runRepair(c *cli, args []string) int {
	fs := newFlagSet("repair", c.stderr)
	asJSON := fs.Bool("json", false, "print text, changes and edits as JSON")
	mode := fs.String("mode", "", "display mode: standard, improve or intermediate")
	write := fs.Bool("write", false, "rewrite the file in place, keeping a backup")
	path, text, enc, code := c.start(fs, args)
	if code != exitOK {
		return code
	}
	defer logger.Close()

	p, err := c.pipeline(*mode)
	if err != nil {
		return c.fail(err)
	}
	r, _ := p.View(text, true)

	if *write {
		if path == "-" {
			return c.fail(types.NewAppError(types.ErrInvalidInput, "--write needs a file, not stdin", nil))
		}
		backup, err := textio.NewBackupManager("").WriteFile(path, r.Text, enc)
		if err != nil {
			return c.fail(err)
		}
		fmt.Fprintf(c.stderr, "✓ %s repaired (backup: %s)\n", path, backup)
	}

	if *asJSON {
		je := json.NewEncoder(c.stdout)
		je.SetIndent("", "  ")
		if err := je.Encode(r); err != nil {
			return c.fail(types.NewAppError(types.ErrInternal, "failed to encode result", err))
		}
		return exitOK
	}
	if !*write {
		fmt.Fprint(c.stdout, r.Text)
	}
	printLog(c.stderr, r)
	return exitOK
}

func runStream(c *cli, args []string) int {
	fs := newFlagSet("stream", c.stderr)
	chunk := fs.Int("chunk", 32, "bytes per streamed chunk")
	mode := fs.String("mode", "", "display mode: standard, improve or intermediate")
	positional, err := fs.parse(args)
	if err != nil {
		return exitUsage
	}
	if len(positional) != 0 || *chunk <= 0 {
		fmt.Fprintln(c.stderr, "Usage: mdrepair stream [--chunk N] [--mode M] < file")
		return exitUsage
	}
	if err := c.setup(fs); err != nil {
		return c.fail(err)
	}
	defer logger.Close()

	data, err := io.ReadAll(c.stdin)
	if err != nil {
		return c.fail(types.NewAppError(types.ErrInvalidInput, "failed to read stdin", err))
	}
	text, _, err := textio.Decode(data)
	if err != nil {
		return c.fail(err)
	}

	p, err := c.pipeline(*mode)
	if err != nil {
		return c.fail(err)
	}
	repaints := 0
	var final repair.Result
	s := p.NewStream(func(r repair.Result, last bool) {
		repaints++
		if last {
			final = r
		}
	})
	for _, part := range splitChunks(text, *chunk) {
		if _, err := s.WriteString(part); err != nil {
			return c.fail(err)
		}
	}
	if err := s.Close(); err != nil {
		return c.fail(err)
	}

	logger.Info("stream finished", logger.Int("repaints", repaints), logger.Int("bytes", len(text)))
	fmt.Fprint(c.stdout, final.Text)
	printLog(c.stderr, final)
	return exitOK
}

func runPreview(c *cli, args []string) int {
	fs := newFlagSet("preview", c.stderr)
	blocks := fs.Bool("blocks", false, "list the fenced code blocks as JSON instead")
	_, text, _, code := c.start(fs, args)
	if code != exitOK {
		return code
	}
	defer logger.Close()

	p, err := c.pipeline("")
	if err != nil {
		return c.fail(err)
	}
	r := p.Process(text)

	if *blocks {
		je := json.NewEncoder(c.stdout)
		je.SetIndent("", "  ")
		if err := je.Encode(preview.CodeBlocks(r.Text)); err != nil {
			return c.fail(types.NewAppError(types.ErrInternal, "failed to encode code blocks", err))
		}
		return exitOK
	}
	html, err := preview.Render(r.Text)
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprint(c.stdout, html)
	return exitOK
}

func (c *cli) pipeline(mode string) (*repair.Pipeline, error) {
	opts := []repair.Option{repair.WithObserver(repair.LogObserver{})}
	if mode != "" {
		m := types.Mode(mode)
		if !m.Valid() {
			return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput, "unknown mode", mode, nil)
		}
		opts = append(opts, repair.WithMode(m))
	}
	return repair.New(c.cfg, opts...), nil
}

func printLog(w io.Writer, r repair.Result) {
	for _, ch := range r.Changes {
		fmt.Fprintf(w, "- %s\n", ch)
	}
	for _, e := range r.Edits {
		fmt.Fprintf(w, "- %s\n", e)
	}
}

// splitChunks cuts text into pieces of about n bytes without splitting a
// UTF-8 sequence.
func splitChunks(text string, n int) []string {
	var parts []string
	for len(text) > 0 {
		end := n
		if end >= len(text) {
			parts = append(parts, text)
			break
		}
		for end < len(text) && !utf8.RuneStart(text[end]) {
			end++
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
