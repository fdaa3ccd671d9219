// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the logrus loggers used across cliff.
//
// Diagnostics always go to stderr so that stdout carries only answers and
// execution summaries. API keys, request headers and bodies are never logged;
// components log a key fingerprint instead.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// EnvLogLevel overrides the configured level when set.
const EnvLogLevel = "CLIFF_LOG_LEVEL"

// DefaultLevel keeps normal runs quiet.
const DefaultLevel = logrus.WarnLevel

// Options control logger construction.
type Options struct {
	// Level is a logrus level name; empty means DefaultLevel.
	Level string
	// Verbose forces debug level unless the environment overrides it.
	Verbose bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New returns a logger configured from opts and the environment.
func New(opts Options) *logrus.Logger {
	logger := logrus.New()
	configure(logger, opts)
	return logger
}

// Setup configures the logrus standard logger, so package-level
// logrus.WithField calls follow the same settings, and returns it.
func Setup(opts Options) *logrus.Logger {
	logger := logrus.StandardLogger()
	configure(logger, opts)
	return logger
}

func configure(logger *logrus.Logger, opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           false,
	})
	logger.SetLevel(ResolveLevel(opts.Level, opts.Verbose))
}

// ResolveLevel picks the effective level: CLIFF_LOG_LEVEL, then verbose,
// then the configured name, then DefaultLevel. Unparseable names are ignored.
func ResolveLevel(configured string, verbose bool) logrus.Level {
	if env := strings.TrimSpace(os.Getenv(EnvLogLevel)); env != "" {
		if lvl, err := logrus.ParseLevel(env); err == nil {
			return lvl
		}
	}
	if verbose {
		return logrus.DebugLevel
	}
	if configured != "" {
		if lvl, err := logrus.ParseLevel(configured); err == nil {
			return lvl
		}
	}
	return DefaultLevel
}

// Component returns an entry tagged with the component name. A nil logger
// falls back to the standard logger.
func Component(logger *logrus.Logger, name string) *logrus.Entry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("component", name)
}

// Discard returns an entry that drops everything; handy in tests.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}
