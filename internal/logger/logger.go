// Package logger formats scheduler and test-runner output the way
// spec.md §6 specifies the console contract: a simulation-time prefix,
// a level token, a component name, and a message, colorized with
// github.com/fatih/color the way the teacher's daemon package colors
// its own log levels.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/benchsim/cocoro/internal/gpi"
)

// Level mirrors the teacher's LogLevel enum (internal/daemon/daemon.go).
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel mirrors the teacher's parseLogLevel, defaulting to Info for
// an unrecognized string rather than failing startup over a typo in a
// config file.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

var (
	debugColor = color.New(color.FgCyan)
	infoColor  = color.New(color.FgWhite)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	passColor  = color.New(color.FgGreen, color.Bold)
	failColor  = color.New(color.FgRed, color.Bold)
)

func colorFor(l Level) *color.Color {
	switch l {
	case Debug:
		return debugColor
	case Warn:
		return warnColor
	case Error:
		return errorColor
	default:
		return infoColor
	}
}

// Logger prints sim-time-prefixed lines for one named component. A nil
// *Logger is valid and logs nothing, so callers that don't care about
// output (most tests) can pass nil instead of constructing one.
type Logger struct {
	out       io.Writer
	component string
	min       Level
	adapter   gpi.Adapter
	unit      gpi.Unit
}

// New constructs a Logger that reads sim time from adapter at each call,
// formatting it in unit (the teacher logs wall-clock time the same way:
// computed fresh at each call site, not cached).
func New(out io.Writer, component string, min Level, adapter gpi.Adapter, unit gpi.Unit) *Logger {
	return &Logger{out: out, component: component, min: min, adapter: adapter, unit: unit}
}

// Default constructs a Logger writing to os.Stdout at Info level.
func Default(component string, adapter gpi.Adapter, unit gpi.Unit) *Logger {
	return New(os.Stdout, component, Info, adapter, unit)
}

func (l *Logger) log(level Level, format string, args ...any) {
	if l == nil || level < l.min {
		return
	}
	msg := fmt.Sprintf(format, args...)
	var timePrefix string
	if l.adapter != nil {
		ticks := l.adapter.GetSimTime()
		t := gpi.TicksToFloat(ticks, l.adapter.GetSimPrecision(), l.unit)
		timePrefix = fmt.Sprintf("%12.2f%-4s", t, l.unit)
	}
	levelTok := colorFor(level).Sprint(level.String())
	fmt.Fprintf(l.out, "%s  %-5s  %-12s  %s\n", timePrefix, levelTok, l.component, msg)
}

func (l *Logger) Debugf(format string, args ...any) { l.log(Debug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(Info, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(Warn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(Error, format, args...) }

// Pass prints a green PASS token for a completed test (§6).
func (l *Logger) Pass(name string, elapsed float64) {
	if l == nil {
		return
	}
	fmt.Fprintf(l.out, "%s  %-12s  %.3fs\n", passColor.Sprint("PASS"), name, elapsed)
}

// Fail prints a red FAIL token and the failure message.
func (l *Logger) Fail(name string, elapsed float64, err error) {
	if l == nil {
		return
	}
	fmt.Fprintf(l.out, "%s  %-12s  %.3fs  %v\n", failColor.Sprint("FAIL"), name, elapsed, err)
}
