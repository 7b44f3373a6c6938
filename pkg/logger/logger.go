package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Fields = logrus.Fields

type Logger struct {
	entry *logrus.Entry
}

type Options struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// New returns an info-level text logger writing to stdout.
func New() *Logger {
	return NewWithOptions(Options{Level: "info"})
}

func NewWithOptions(opts Options) *Logger {
	base := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	base.SetOutput(out)

	if opts.JSON {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	return &Logger{entry: logrus.NewEntry(base)}
}

// With returns a child logger that attaches fields to every entry.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}
