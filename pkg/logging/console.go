package logging

import (
	"io"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

// ConsoleLogger renders human-readable, coloured lines via charmbracelet/log.
// Used by the CLI when --log-format=console.
type ConsoleLogger struct {
	base   *charmlog.Logger
	fields []Field
	level  Level
	mu     *sync.Mutex
}

// NewConsoleLogger creates a console logger writing to w
func NewConsoleLogger(w io.Writer, level Level) *ConsoleLogger {
	base := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           toCharm(level),
	})
	return &ConsoleLogger{base: base, level: level, mu: &sync.Mutex{}}
}

func toCharm(l Level) charmlog.Level {
	switch l {
	case DebugLevel:
		return charmlog.DebugLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

func (c *ConsoleLogger) keyvals(fields []Field) []any {
	kv := make([]any, 0, 2*(len(c.fields)+len(fields)))
	for _, f := range c.fields {
		kv = append(kv, f.Key, f.Value)
	}
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

func (c *ConsoleLogger) Debug(msg string, fields ...Field) {
	c.base.Debug(msg, c.keyvals(fields)...)
}

func (c *ConsoleLogger) Info(msg string, fields ...Field) {
	c.base.Info(msg, c.keyvals(fields)...)
}

func (c *ConsoleLogger) Warn(msg string, fields ...Field) {
	c.base.Warn(msg, c.keyvals(fields)...)
}

func (c *ConsoleLogger) Error(msg string, fields ...Field) {
	c.base.Error(msg, c.keyvals(fields)...)
}

func (c *ConsoleLogger) With(fields ...Field) Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	merged := make([]Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &ConsoleLogger{base: c.base, fields: merged, level: c.level, mu: c.mu}
}

func (c *ConsoleLogger) SetLevel(level Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = level
	c.base.SetLevel(toCharm(level))
}

func (c *ConsoleLogger) GetLevel() Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}
