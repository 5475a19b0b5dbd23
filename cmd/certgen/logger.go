package main

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// StdLogger writes "[LEVEL] prefix: message" lines.
type StdLogger struct {
	prefix string
	debug  bool
	mu     sync.Mutex
	out    io.Writer
}

func NewStdLogger(prefix string, debug bool) *StdLogger {
	return &StdLogger{prefix: prefix, debug: debug, out: os.Stderr}
}

func (l *StdLogger) Debugf(format string, args ...any) {
	if !l.debug {
		return
	}
	l.print("DEBUG", format, args...)
}

func (l *StdLogger) Infof(format string, args ...any) {
	l.print("INFO", format, args...)
}

func (l *StdLogger) Errorf(format string, args ...any) {
	l.print("ERROR", format, args...)
}

func (l *StdLogger) print(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s] %s: %s\n", level, l.prefix, fmt.Sprintf(format, args...))
}
