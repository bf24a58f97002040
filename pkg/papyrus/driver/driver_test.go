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
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/papyrus-lang/pscc/pkg/papyrus/ast"
	"github.com/papyrus-lang/pscc/pkg/pex"
)

// fakeParser maps a filename to a pre-built *ast.Script (or an error, for
// filenames registered to fail), standing in for a real .psc parser.
type fakeParser struct {
	scripts map[string]*ast.Script
	fail    map[string]bool
}

func (p *fakeParser) ParseScript(filename string) (*ast.Script, error) {
	if p.fail[filename] {
		return nil, fmt.Errorf("synthetic parse failure for %s", filename)
	}
	sc, ok := p.scripts[filename]
	if !ok {
		return nil, fmt.Errorf("no script registered for %s", filename)
	}
	return sc, nil
}

// goodScript builds a minimal but complete single-object script: one public
// function `Function GetAnswer() Int` with a body returning a constant.
func goodScript(path, objectName string) *ast.Script {
	loc := ast.NewLocation(path, 1, 1)
	fn := &ast.Function{
		Location:   loc,
		Name:       "GetAnswer",
		ReturnType: ast.NewInt(loc),
		Body: []ast.Statement{
			&ast.ReturnStatement{Location: loc, Value: &ast.LiteralExpression{Location: loc, Value: ast.IntValue(loc, 42)}},
		},
	}
	obj := &ast.Object{
		Location: loc,
		Name:     objectName,
		States:   []*ast.State{{Name: "", Functions: []*ast.Function{fn}}},
	}
	return &ast.Script{SourceFileName: path, Objects: []*ast.Object{obj}}
}

func TestCompileBatchWritesAPexFilePerScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Quest01.psc")

	parser := &fakeParser{scripts: map[string]*ast.Script{path: goodScript(path, "Quest01")}}
	d := New(parser, nil, nil, pex.BinaryReader{}, pex.BinaryWriter{}, Options{})

	results, err := d.CompileBatch(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("CompileBatch returned an error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Failed {
		t.Fatalf("expected compilation to succeed")
	}

	wantOutput := filepath.Join(dir, "Quest01.pex")
	if results[0].OutputFile != wantOutput {
		t.Fatalf("OutputFile = %q, want %q", results[0].OutputFile, wantOutput)
	}
	if _, err := os.Stat(wantOutput); err != nil {
		t.Fatalf("expected %s to exist on disk: %v", wantOutput, err)
	}

	f, err := os.Open(wantOutput)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	pf, err := (pex.BinaryReader{}).Read(f)
	if err != nil {
		t.Fatalf("the written file must be readable back as a valid pex.File: %v", err)
	}
	if len(pf.Objects) != 1 {
		t.Fatalf("expected exactly 1 object, got %d", len(pf.Objects))
	}
	if got := pf.Strings.String(pf.Objects[0].Name); got != "Quest01" {
		t.Fatalf("object name = %q, want %q", got, "Quest01")
	}
}

func TestCompileBatchUsesOutputDirectoryWhenSet(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	path := filepath.Join(srcDir, "Quest02.psc")

	parser := &fakeParser{scripts: map[string]*ast.Script{path: goodScript(path, "Quest02")}}
	d := New(parser, nil, nil, pex.BinaryReader{}, pex.BinaryWriter{}, Options{OutputDirectory: outDir})

	results, err := d.CompileBatch(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("CompileBatch returned an error: %v", err)
	}
	want := filepath.Join(outDir, "Quest02.pex")
	if results[0].OutputFile != want {
		t.Fatalf("OutputFile = %q, want %q", results[0].OutputFile, want)
	}
}

func TestCompileBatchDoesNotAbortOnOneScriptsParseFailure(t *testing.T) {
	dir := t.TempDir()
	goodPath := filepath.Join(dir, "Good.psc")
	badPath := filepath.Join(dir, "Bad.psc")

	parser := &fakeParser{
		scripts: map[string]*ast.Script{goodPath: goodScript(goodPath, "Good")},
		fail:    map[string]bool{badPath: true},
	}
	d := New(parser, nil, nil, pex.BinaryReader{}, pex.BinaryWriter{}, Options{})

	results, err := d.CompileBatch(context.Background(), []string{goodPath, badPath})
	if err != nil {
		t.Fatalf("CompileBatch returned an error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	byFile := map[string]Result{}
	for _, r := range results {
		byFile[r.SourceFile] = r
	}
	if byFile[goodPath].Failed {
		t.Fatalf("expected Good.psc to compile despite Bad.psc failing")
	}
	if !byFile[badPath].Failed {
		t.Fatalf("expected Bad.psc to be marked Failed")
	}
	if !AnyFailed(results) {
		t.Fatalf("expected AnyFailed to report true when one script failed")
	}
}

func TestAnyFailedFalseWhenAllSucceed(t *testing.T) {
	results := []Result{{SourceFile: "a"}, {SourceFile: "b"}}
	if AnyFailed(results) {
		t.Fatalf("expected AnyFailed to report false when no result failed")
	}
}
