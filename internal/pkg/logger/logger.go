// Package logger adapts logrus to the ports.Logger interface.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// StdLogger writes structured entries through a logrus.Logger. Nothing is
// emitted unless verbose mode is on.
type StdLogger struct {
	verbose bool
	entry   *logrus.Logger
}

// NewStd creates a StdLogger writing text entries to stderr.
func NewStd(verbose bool) *StdLogger {
	return New(verbose, os.Stderr, false)
}

// New creates a StdLogger writing to out. jsonFormat selects the JSON
// formatter, used when logs go to a file.
func New(verbose bool, out io.Writer, jsonFormat bool) *StdLogger {
	l := logrus.New()
	l.SetOutput(out)
	if jsonFormat {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetOutput(io.Discard)
		l.SetLevel(logrus.PanicLevel)
	}
	return &StdLogger{verbose: verbose, entry: l}
}

// Verbose reports whether debug output is enabled.
func (l *StdLogger) Verbose() bool {
	return l.verbose
}

func (l *StdLogger) Debug(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Debug(msg)
}

func (l *StdLogger) Info(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Info(msg)
}

func (l *StdLogger) Warn(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Warn(msg)
}

func (l *StdLogger) Error(msg string, err error, fields map[string]interface{}) {
	l.entry.WithFields(fields).WithError(err).Error(msg)
}

// Redirect sends entries to out, as JSON when jsonFormat is set. It has no
// effect on a quiet logger. The dialog uses it to keep log lines off the
// terminal it draws on.
func (l *StdLogger) Redirect(out io.Writer, jsonFormat bool) {
	if !l.verbose {
		return
	}
	l.entry.SetOutput(out)
	if jsonFormat {
		l.entry.SetFormatter(&logrus.JSONFormatter{})
	}
}

// Nop returns a logger that discards everything.
func Nop() *StdLogger {
	return New(false, io.Discard, false)
}
