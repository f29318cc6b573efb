// SPDX-License-Identifier: MPL-2.0

// Package logging installs the process-wide slog logger. Records are
// rendered by charmbracelet/log with the "kas" prefix.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/charmbracelet/log"
)

// Formats
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// Options selects level and output format.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Format is one of text, json, logfmt. Empty means text.
	Format string
	// Debug forces the debug level regardless of Level.
	Debug bool
}

// defaultOptions fills the fields left empty in Options.
var defaultOptions = Options{Level: "info", Format: FormatText}

// New builds a slog.Logger writing to w.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	if err := mergo.Merge(&opts, defaultOptions); err != nil {
		return nil, fmt.Errorf("apply logging defaults: %w", err)
	}

	level, err := log.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	if opts.Debug {
		level = log.DebugLevel
	}

	var formatter log.Formatter
	switch strings.ToLower(opts.Format) {
	case FormatText:
		formatter = log.TextFormatter
	case FormatJSON:
		formatter = log.JSONFormatter
	case FormatLogfmt:
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("invalid log format %q (want %s, %s or %s)", opts.Format, FormatText, FormatJSON, FormatLogfmt)
	}

	handler := log.NewWithOptions(w, log.Options{
		Prefix:          "kas",
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	return slog.New(handler), nil
}

// Setup builds a logger with New and makes it the slog default.
func Setup(w io.Writer, opts Options) error {
	logger, err := New(w, opts)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
