// Package repair chains the fence repairer and the math-delimiter fixer over
// a full answer and exposes the result to callers that render it.
package repair

import (
	"markdown-repair/internal/config"
	"markdown-repair/internal/fences"
	"markdown-repair/internal/langguess"
	"markdown-repair/internal/mathfix"
	"markdown-repair/internal/sections"
	"markdown-repair/internal/types"
)

// Pass names reported to an Observer.
const (
	PassFences = "fences"
	PassMath   = "math"
)

// Result is the outcome of one run of the pipeline.
type Result struct {
	Text    string       `json:"text"`
	Changes []string     `json:"changes"`
	Edits   []types.Edit `json:"edits"`
}

// Pipeline repairs code fences first and math delimiters second. A Pipeline
// is immutable after New and safe for concurrent use.
type Pipeline struct {
	fenceOpts fences.Options
	math      *mathfix.Fixer
	mode      types.Mode
	observer  Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver reports every pass to o.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithMode overrides the display mode from the config.
func WithMode(m types.Mode) Option {
	return func(p *Pipeline) { p.mode = m }
}

// New builds a Pipeline from cfg. A nil cfg means config.Default().
func New(cfg *types.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	p := &Pipeline{
		fenceOpts: fences.Options{
			DefaultLanguage: cfg.DefaultLanguage,
			KeepFenceChar:   cfg.KeepFenceChar,
			Guesser: &langguess.Guesser{
				Extended:     cfg.ExtendedDetection,
				Canonicalize: cfg.CanonicalizeTags,
			},
		},
		math: mathfix.NewFixer(cfg.CloseOnNewline),
		mode: cfg.Mode,
	}
	if !p.mode.Valid() {
		p.mode = types.ModeStandard
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode reports the display mode the pipeline renders with.
func (p *Pipeline) Mode() types.Mode {
	return p.mode
}

// Process repairs text: fences are fixed first so that the math pass sees the
// final code blocks and leaves them alone.
func (p *Pipeline) Process(text string) Result {
	fenced, changes := fences.EnsureFencedCode(text, p.fenceOpts)
	p.notify(PassFences, text, fenced, changes, nil)

	fixed, edits := p.math.Fix(fenced)
	fixed = mathfix.NormalizeAlign(fixed)
	p.notify(PassMath, fenced, fixed, nil, edits)

	return Result{Text: fixed, Changes: changes, Edits: edits}
}

// View selects the part of a possibly partial answer the current mode shows
// and repairs it. final is true once the answer is complete. The second
// return is false when the mode has nothing to show yet; a final view always
// has something to show.
func (p *Pipeline) View(buffer string, final bool) (Result, bool) {
	switch p.mode {
	case types.ModeImprove:
		if final {
			return p.Process(sections.Settled(buffer)), true
		}
		answer, ok := sections.Revised(buffer)
		if !ok {
			return Result{}, false
		}
		return p.Process(answer), true
	case types.ModeIntermediate:
		if final {
			return p.Process(sections.Final(buffer)), true
		}
	}
	return p.Process(buffer), true
}

func (p *Pipeline) notify(pass, in, out string, changes []string, edits []types.Edit) {
	if p.observer != nil {
		p.observer.PassDone(pass, in, out, changes, edits)
	}
}
