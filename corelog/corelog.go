// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package corelog provides structured stage-tracing for the compiler
// pipeline: one logger per compilation, decorated with the current stage
// name, emitting counts of points/values/edges produced at each step.
package corelog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger scoped to one compilation run.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger writing to w (os.Stderr if w is nil). Pipeline stages
// get their own child logger via Stage so every line is tagged with the
// name of the pipeline stage that produced it.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	zl := zerolog.New(w).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// Discard returns a Logger that drops everything, for tests and library
// callers that don't want pipeline tracing on stderr.
func Discard() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Stage returns a child logger tagged with the given component name
// ("lex", "rewrite", "parse", "lower", "bdg", "vg", "phi", "closure",
// "effect").
func (l *Logger) Stage(name string) *StageLogger {
	return &StageLogger{zl: l.zl.With().Str("stage", name).Logger()}
}

// StageLogger is the per-stage handle passed into each component.
type StageLogger struct {
	zl zerolog.Logger
}

func (s *StageLogger) Debugf(format string, args ...interface{}) {
	s.zl.Debug().Msgf(format, args...)
}

func (s *StageLogger) Counts(fields map[string]int) {
	ev := s.zl.Info()
	for k, v := range fields {
		ev = ev.Int(k, v)
	}
	ev.Msg("stage complete")
}
