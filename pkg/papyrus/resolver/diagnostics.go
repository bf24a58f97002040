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
package resolver

import (
	"path/filepath"
	"strings"

	"github.com/papyrus-lang/pscc/pkg/papyrus/ast"
	"github.com/papyrus-lang/pscc/pkg/report"
)

// locReporter is a small fluent wrapper binding a Context's sink to one
// source location, so call sites read as `c.loc(x.Location).error(...)`
// instead of repeating the location-to-report.Location conversion at every
// diagnostic call.
type locReporter struct {
	sink report.Sink
	loc  report.Location
}

func (c *Context) loc(l ast.Location) locReporter {
	return locReporter{sink: c.sink, loc: report.Location{File: l.File, Line: uint32(l.Line)}}
}

func (r locReporter) warning(format string, args ...any) { r.sink.Warning(r.loc, format, args...) }
func (r locReporter) error(format string, args ...any)   { r.sink.Error(r.loc, format, args...) }
func (r locReporter) fatal(format string, args ...any)   { r.sink.Fatal(r.loc, format, args...) }
func (r locReporter) logicalFatal(format string, args ...any) {
	r.sink.LogicalFatal(r.loc, format, args...)
}

// idEq is case-insensitive identifier equality (spec §4.4); duplicated from
// pkg/papyrus/ast (which keeps its copy unexported) since every lookup loop
// in this package needs it and importing it would mean exporting an
// otherwise-internal helper from ast just for this.
func idEq(a, b string) bool {
	return strings.EqualFold(a, b)
}

// lowerKey is used for map keys where case-insensitive identifiers are
// stored in a Go map (which is case-sensitive by default).
func lowerKey(s string) string { return strings.ToLower(s) }

// dirOf returns the directory component of a source file path.
func dirOf(path string) string { return filepath.Dir(path) }
