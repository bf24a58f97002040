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
package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/papyrus-lang/pscc/pkg/papyrus/ast"
	"github.com/papyrus-lang/pscc/pkg/report"
)

// noopRunner is a SemanticRunner that does nothing, standing in for the
// resolver in tests that only exercise the cache/loader itself.
type noopRunner struct{}

func (noopRunner) RunPreSemantic(s *ast.Script) error { return nil }
func (noopRunner) RunSemantic(s *ast.Script) error    { return nil }

// countingParser records every filename it was asked to parse and returns a
// distinct *ast.Script per call.
type countingParser struct {
	calls []string
}

func (p *countingParser) ParseScript(filename string) (*ast.Script, error) {
	p.calls = append(p.calls, filename)
	return &ast.Script{SourceFileName: filename, Objects: []*ast.Object{{Name: filepath.Base(filename)}}}, nil
}

func newTestSession(t *testing.T, importDirs []string) (*Session, *countingParser) {
	t.Helper()
	parser := &countingParser{}
	s := NewSession(report.NewConsoleSink("test"), importDirs, parser, nil, nil, nil)
	s.SetContextFactory(func(sink report.Sink, isPexResolution bool) SemanticRunner { return noopRunner{} })
	return s, parser
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("ScriptName Foo\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadScriptFindsPscInFromDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Foo.psc"))

	s, parser := newTestSession(t, nil)
	sc := s.LoadScript(dir, "Foo")
	if sc == nil {
		t.Fatalf("expected LoadScript to find Foo.psc in fromDir")
	}
	if len(parser.calls) != 1 {
		t.Fatalf("expected exactly 1 parse call, got %d: %v", len(parser.calls), parser.calls)
	}
}

func TestLoadScriptMemoizesByShortNameWithinDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Foo.psc"))

	s, parser := newTestSession(t, nil)
	first := s.LoadScript(dir, "Foo")
	second := s.LoadScript(dir, "Foo")

	if first != second {
		t.Fatalf("expected repeated LoadScript calls to return the same cached *ast.Script")
	}
	if len(parser.calls) != 1 {
		t.Fatalf("expected the short-name cache to prevent a second parse, got %d calls", len(parser.calls))
	}
}

func TestLoadScriptSearchesImportDirectoriesInOrder(t *testing.T) {
	fromDir := t.TempDir()
	importA := t.TempDir()
	importB := t.TempDir()
	writeFile(t, filepath.Join(importB, "Bar.psc"))

	s, parser := newTestSession(t, []string{importA, importB})
	sc := s.LoadScript(fromDir, "Bar")
	if sc == nil {
		t.Fatalf("expected LoadScript to fall through to the second import directory")
	}
	if len(parser.calls) != 1 || parser.calls[0] != filepath.Join(importB, "Bar.psc") {
		t.Fatalf("expected a single parse of %s, got %v", filepath.Join(importB, "Bar.psc"), parser.calls)
	}
}

func TestLoadScriptReturnsNilWhenNotFoundAnywhere(t *testing.T) {
	s, _ := newTestSession(t, []string{t.TempDir()})
	if sc := s.LoadScript(t.TempDir(), "DoesNotExist"); sc != nil {
		t.Fatalf("expected nil for a script that exists in no searched directory, got %+v", sc)
	}
}

func TestLoadScriptPrefersPscOverPas(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Foo.psc"))
	if err := os.WriteFile(filepath.Join(dir, "Foo.pas"), []byte("; assembly\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, parser := newTestSession(t, nil)
	sc := s.LoadScript(dir, "Foo")
	if sc == nil {
		t.Fatalf("expected a script to be found")
	}
	if len(parser.calls) != 1 {
		t.Fatalf(".psc must take priority over .pas when both exist, got calls %v", parser.calls)
	}
}

func TestLoadScriptSubdirectoryQualifiedName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Sub", "Foo.psc"))

	s, parser := newTestSession(t, nil)
	sc := s.LoadScript(dir, "Sub:Foo")
	if sc == nil {
		t.Fatalf("expected \"Sub:Foo\" to resolve to Sub/Foo.psc under fromDir")
	}
	if len(parser.calls) != 1 || parser.calls[0] != filepath.Join(dir, "Sub", "Foo.psc") {
		t.Fatalf("expected a parse of Sub/Foo.psc, got %v", parser.calls)
	}
}

func TestRegisterPreventsReparsingTheSameFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Foo.psc")
	writeFile(t, path)

	s, parser := newTestSession(t, nil)
	primary := &ast.Script{SourceFileName: path, Objects: []*ast.Object{{Name: "Foo"}}}
	s.Register(path, primary)

	got := s.LoadScript(dir, "Foo")
	if got != primary {
		t.Fatalf("expected LoadScript to return the pre-registered instance, got a distinct script")
	}
	if len(parser.calls) != 0 {
		t.Fatalf("expected no parse calls after Register pre-seeded the cache, got %v", parser.calls)
	}
}

func TestShortNameLookupIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Foo.psc"))

	s, parser := newTestSession(t, nil)
	s.LoadScript(dir, "Foo")
	s.LoadScript(dir, "FOO")

	if len(parser.calls) != 1 {
		t.Fatalf("expected case-insensitive short-name matching to reuse the cached script, got %d calls", len(parser.calls))
	}
}
