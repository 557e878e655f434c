package repair

import (
	"markdown-repair/internal/logger"
	"markdown-repair/internal/types"
)

// Observer is told about every pass the pipeline runs. The repair passes
// themselves never log; an Observer is where logging and metrics hook in.
type Observer interface {
	PassDone(pass, in, out string, changes []string, edits []types.Edit)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(pass, in, out string, changes []string, edits []types.Edit)

// PassDone calls f.
func (f ObserverFunc) PassDone(pass, in, out string, changes []string, edits []types.Edit) {
	f(pass, in, out, changes, edits)
}

// LogObserver writes a summary line per pass at debug level and one line per
// change or edit. A nil Logger uses the global logger.
type LogObserver struct {
	Logger logger.Logger
}

// PassDone implements Observer.
func (o LogObserver) PassDone(pass, in, out string, changes []string, edits []types.Edit) {
	l := o.Logger
	if l == nil {
		l = logger.GetLogger()
	}

	l.Debug("repair pass done",
		logger.String("pass", pass),
		logger.Int("inBytes", len(in)),
		logger.Int("outBytes", len(out)),
		logger.Bool("changed", in != out),
		logger.Int("changes", len(changes)),
		logger.Int("edits", len(edits)))

	for _, c := range changes {
		l.Info("fence repaired", logger.String("change", c))
	}
	for _, e := range edits {
		l.Info("math delimiter repaired",
			logger.String("kind", string(e.Kind)),
			logger.Int("position", e.Position),
			logger.String("reason", e.Reason))
	}
}
