// Package logx is a levelled printf logger in the "Info: ..." style used on the
// console of the firmware and the host tools.
package logx

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "Debug"
	case LevelInfo:
		return "Info"
	case LevelWarn:
		return "Warn"
	case LevelError:
		return "Error"
	}
	return "Level(" + fmt.Sprint(uint8(l)) + ")"
}

var (
	mu    sync.Mutex
	out   io.Writer = os.Stdout
	level           = LevelInfo
)

// SetOutput redirects all log lines to w and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

// SetLevel drops lines below l and returns the previous level.
func SetLevel(l Level) Level {
	mu.Lock()
	defer mu.Unlock()
	prev := level
	level = l
	return prev
}

func logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", l, fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) { logf(LevelDebug, format, args...) }
func Infof(format string, args ...any)  { logf(LevelInfo, format, args...) }
func Warnf(format string, args ...any)  { logf(LevelWarn, format, args...) }
func Errorf(format string, args ...any) { logf(LevelError, format, args...) }
