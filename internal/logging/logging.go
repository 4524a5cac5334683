// Package logging provides cppx's logging setup on top of charmbracelet/log.
//
// All log output goes to stderr; stdout carries command output only.
// Setup is called once by the CLI before any logger is created, and the
// resulting loggers are handed to services explicitly rather than being
// looked up from package state.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Setup configures the default logger. quiet wins over verbose.
func Setup(verbose, quiet, jsonFormat bool) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	if quiet {
		level = log.ErrorLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	if jsonFormat {
		log.SetFormatter(log.JSONFormatter)
	} else {
		log.SetFormatter(log.TextFormatter)
	}
}

// New returns a logger prefixed with component. Call Setup first; children
// copy the default logger's settings at creation time.
func New(component string) *log.Logger {
	return log.WithPrefix(component)
}

// Discard returns a logger that drops everything. Tests and library callers
// that did not supply a logger use it.
func Discard() *log.Logger {
	l := log.New(io.Discard)
	l.SetLevel(log.FatalLevel)
	return l
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
