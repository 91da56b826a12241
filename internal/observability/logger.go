package observability

import (
	"sort"

	"go.uber.org/zap"
)

// Logger emits one structured line per event. Messages are snake_case event
// names; everything else goes in fields.
type Logger struct {
	base *zap.Logger
}

func NewLogger(environment string) (*Logger, error) {
	var (
		base *zap.Logger
		err  error
	)
	if environment == "development" {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}

	return &Logger{base: base}, nil
}

func NewNopLogger() *Logger {
	return &Logger{base: zap.NewNop()}
}

func WrapZap(base *zap.Logger) *Logger {
	return &Logger{base: base}
}

func (l *Logger) Info(message string, fields map[string]any) {
	l.base.Info(message, zapFields(fields)...)
}

func (l *Logger) Error(message string, fields map[string]any) {
	l.base.Error(message, zapFields(fields)...)
}

func (l *Logger) Sync() error {
	return l.base.Sync()
}

func zapFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
