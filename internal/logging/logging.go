package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// Logger writes leveled lines, human or JSON. Safe for concurrent use;
// loggers derived with Named share the writer lock.
type Logger struct {
	min       Level
	json      bool
	out       io.Writer
	component string
	mu        *sync.Mutex
}

// New logs to stderr, or stdout when jsonOut is set.
func New(level string, jsonOut bool) *Logger {
	out := io.Writer(os.Stderr)
	if jsonOut {
		out = os.Stdout
	}
	return NewWithWriter(level, jsonOut, out)
}

func NewWithWriter(level string, jsonOut bool, w io.Writer) *Logger {
	if w == nil {
		w = io.Discard
	}
	return &Logger{min: ParseLevel(level), json: jsonOut, out: w, mu: &sync.Mutex{}}
}

// Discard returns a logger that drops everything.
func Discard() *Logger { return NewWithWriter("error", false, io.Discard) }

// Named returns a logger tagging each line with component.
func (l *Logger) Named(component string) *Logger {
	if l == nil {
		return nil
	}
	cp := *l
	cp.component = component
	return &cp
}

func (l *Logger) Enabled(v Level) bool { return l != nil && v >= l.min }

func (l *Logger) Debugf(format string, a ...any) { l.log(Debug, format, a...) }
func (l *Logger) Infof(format string, a ...any)  { l.log(Info, format, a...) }
func (l *Logger) Warnf(format string, a ...any)  { l.log(Warn, format, a...) }
func (l *Logger) Errorf(format string, a ...any) { l.log(Error, format, a...) }

func (l *Logger) log(level Level, format string, a ...any) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, a...)
	lvl := levelString(level)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.json {
		payload := map[string]any{
			"ts":    time.Now().Format(time.RFC3339Nano),
			"level": lvl,
			"msg":   msg,
		}
		if l.component != "" {
			payload["component"] = l.component
		}
		_ = json.NewEncoder(l.out).Encode(payload)
		return
	}
	if l.component != "" {
		fmt.Fprintf(l.out, "%s\t%s: %s\n", strings.ToUpper(lvl), l.component, msg)
		return
	}
	fmt.Fprintf(l.out, "%s\t%s\n", strings.ToUpper(lvl), msg)
}

func levelString(l Level) string {
	switch l {
	case Debug:
		return "debug"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}
