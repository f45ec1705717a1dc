package main

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// newCommandLogger builds the stderr logger for CLI diagnostics: a text
// handler on a terminal, JSON when stderr is piped or redirected.
func newCommandLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
