// Copyright Papyrus Language Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package report is the compiler's diagnostic sink (spec §2.9/§7). The
// resolution context and function builder never write to stdout/stderr or a
// logger directly; every warning, recoverable error, and fatal condition
// they encounter goes through a Sink so a driver can batch diagnostics
// across many concurrently-compiled scripts without interleaving output.
package report

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Location is the minimal position information a diagnostic is anchored to.
// It mirrors ast.Location rather than importing it, so this package has no
// dependency on the AST.
type Location struct {
	File string
	Line uint32
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("line %d", l.Line)
	}
	return fmt.Sprintf("%s(%d)", l.File, l.Line)
}

// fatalError is the sentinel panic value used to unwind out of a deeply
// nested resolution/emission call stack once a LogicalFatal is reported,
// mirroring Caprica's `FatalError` exception used for the same purpose.
// resolver.Context recovers it around each of its passes through
// Sink.ExitIfErrors; the driver installs no recover of its own.
type fatalError struct {
	loc Location
	msg string
}

func (e *fatalError) Error() string { return fmt.Sprintf("%s: fatal: %s", e.loc, e.msg) }

// Sink collects diagnostics for a single compilation unit (one script).
// Implementations must be safe to use from exactly one goroutine; the
// driver allocates one Sink per in-flight script, never shares one across
// scripts (spec §5, "Concurrency model").
type Sink interface {
	// Warning records a non-fatal diagnostic that does not affect whether
	// the unit is considered to have compiled successfully.
	Warning(loc Location, format string, args ...any)
	// Error records a recoverable error: compilation of this unit should
	// continue (to surface as many errors as possible in one pass) but the
	// unit must not be written to output.
	Error(loc Location, format string, args ...any)
	// Fatal records an unrecoverable error and returns normally; callers
	// that cannot usefully continue should return an error up the stack
	// themselves.
	Fatal(loc Location, format string, args ...any)
	// LogicalFatal records an unrecoverable error and then unwinds the
	// current goroutine via panic/recover, for call sites buried too deep
	// in the resolver/emit call graph to thread an error return through
	// cleanly (grounded on Caprica's `CapricaReportingContext::fatal`,
	// which throws rather than returns).
	LogicalFatal(loc Location, format string, args ...any)
	// HadErrors reports whether Error, Fatal, or LogicalFatal has been
	// called since construction.
	HadErrors() bool
	// ExitIfErrors recovers a panic produced by LogicalFatal, swallowing it
	// if it is a LogicalFatal panic value (from any Sink) and re-panicking
	// any other value, then reports whether
	// the unit should be considered failed. Callers use:
	//
	//	defer func() { failed = sink.ExitIfErrors(recover()) }()
	ExitIfErrors(recovered any) (failed bool)
}

// ConsoleSink is the default Sink: it logs through logrus immediately as
// diagnostics are reported (spec §2.9), tagging every entry with the
// originating script so concurrent scripts' output stays distinguishable in
// an interleaved log stream.
type ConsoleSink struct {
	Script string

	warnings int
	errors   int
	fatals   int
}

var _ Sink = (*ConsoleSink)(nil)

// NewConsoleSink constructs a Sink that logs to logrus's standard logger,
// labeling every entry with script.
func NewConsoleSink(script string) *ConsoleSink {
	return &ConsoleSink{Script: script}
}

func (s *ConsoleSink) entry() *log.Entry {
	return log.WithField("script", s.Script)
}

// Warning implements Sink.
func (s *ConsoleSink) Warning(loc Location, format string, args ...any) {
	s.warnings++
	s.entry().Warnf("%s: %s", loc, fmt.Sprintf(format, args...))
}

// Error implements Sink.
func (s *ConsoleSink) Error(loc Location, format string, args ...any) {
	s.errors++
	s.entry().Errorf("%s: %s", loc, fmt.Sprintf(format, args...))
}

// Fatal implements Sink.
func (s *ConsoleSink) Fatal(loc Location, format string, args ...any) {
	s.fatals++
	s.entry().Errorf("%s: fatal: %s", loc, fmt.Sprintf(format, args...))
}

// LogicalFatal implements Sink.
func (s *ConsoleSink) LogicalFatal(loc Location, format string, args ...any) {
	s.fatals++
	msg := fmt.Sprintf(format, args...)
	s.entry().Errorf("%s: fatal: %s", loc, msg)
	panic(&fatalError{loc: loc, msg: msg})
}

// HadErrors implements Sink.
func (s *ConsoleSink) HadErrors() bool { return s.errors > 0 || s.fatals > 0 }

// ExitIfErrors implements Sink.
func (s *ConsoleSink) ExitIfErrors(recovered any) bool {
	if recovered != nil {
		if _, ok := recovered.(*fatalError); !ok {
			panic(recovered)
		}
	}
	return s.HadErrors()
}
