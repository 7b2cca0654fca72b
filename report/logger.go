package report

import (
	"fmt"
	"sort"

	petri "github.com/jt05610/xschema"
	"go.uber.org/zap"
)

// Logger logs every round at debug level, listing the marked places only.
type Logger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger}
}

func (l *Logger) Report(r *petri.StateReport) error {
	marked := make([]string, 0)
	for _, m := range r.Marking {
		tokens := make([]string, 0, len(m.Tokens))
		for token := range m.Tokens {
			tokens = append(tokens, token)
		}
		sort.Strings(tokens)
		for _, token := range tokens {
			n := m.Tokens[token]
			if n == 0 {
				continue
			}
			if len(m.Tokens) == 1 {
				marked = append(marked, fmt.Sprintf("%s=%d", m.Place, n))
			} else {
				marked = append(marked, fmt.Sprintf("%s:%s=%d", m.Place, token, n))
			}
		}
	}
	l.logger.Debug("round",
		zap.String("run", r.RunID),
		zap.Int("round", r.Round),
		zap.String("transition", r.Transition),
		zap.Strings("marked", marked),
	)
	return nil
}
