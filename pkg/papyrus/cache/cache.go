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

// Package cache is the script cache/loader (spec §2, component 4; §4.2):
// a memoizing loader keyed by canonical path, plus a per-base-directory
// short-name map that short-circuits repeated lookups by the unqualified
// name a script is imported or referenced under. Grounded directly on
// PapyrusResolutionContext::loadScript.
//
// A Session is not safe for concurrent use; the driver (pkg/papyrus/driver)
// constructs one Session per worker goroutine, matching the "thread-local"
// storage the original implementation uses for the same purpose.
package cache

import (
	"path/filepath"
	"strings"

	"github.com/papyrus-lang/pscc/pkg/papyrus/ast"
	"github.com/papyrus-lang/pscc/pkg/pex"
	"github.com/papyrus-lang/pscc/pkg/report"
)

// ScriptParser produces an AST from a textual `.psc` source file. Parsing
// is an out-of-scope external collaborator (spec §1); the core depends only
// on this interface.
type ScriptParser interface {
	ParseScript(filename string) (*ast.Script, error)
}

// AssemblyParser produces a pex.File from a textual `.pas` assembly file.
// Also out of scope; the result is lifted to an *ast.Script the same way a
// binary `.pex` is, via Reflector.
type AssemblyParser interface {
	ParseAssembly(filename string) (*pex.File, error)
}

// Reflector lifts a compiled pex.File back into the ast.Script shape, so
// that scripts referenced only in binary form can still participate in
// identifier/type resolution as if they had been parsed from source (spec
// §1, "the reflector that lifts bytecode back into the AST shape").
type Reflector interface {
	ReflectScript(f *pex.File) (*ast.Script, error)
}

// SemanticRunner runs the two-pass resolution spec §4.2/§5 describes
// (pre-semantic, then semantic) over a newly loaded script. Implemented by
// *resolver.Context; kept as an interface here so this package never
// imports pkg/papyrus/resolver (resolver.Context embeds a *Session, so the
// dependency must run the other way).
type SemanticRunner interface {
	RunPreSemantic(s *ast.Script) error
	RunSemantic(s *ast.Script) error
}

// ContextFactory constructs a fresh SemanticRunner for a script loaded as a
// reference (i.e. an import, or a parent/struct/type reference reached
// during another script's resolution) — mirroring loadScript's
// `new PapyrusResolutionContext(repCtx)` with `resolvingReferenceScript =
// true`, and additionally `isPexResolution = true` for `.pas`/`.pex`
// sources.
type ContextFactory func(sink report.Sink, isPexResolution bool) SemanticRunner

// Session is the per-worker script cache and loader.
type Session struct {
	sink                report.Sink
	importDirectories   []string
	scriptParser        ScriptParser
	assemblyParser      AssemblyParser
	reflector           Reflector
	pexReader           pex.Reader
	newReferenceContext ContextFactory

	// byCanonicalPath holds every script loaded so far, keyed by its
	// canonicalized, case-folded source path. Entries never move or get
	// evicted after insertion (spec §3, "Ownership & lifetime").
	byCanonicalPath map[string]*ast.Script

	// byDirShortName short-circuits repeated lookups of the same short name
	// from the same base directory, keyed first by canonicalized base
	// directory, then by case-folded short name.
	byDirShortName map[string]map[string]*ast.Script
}

// NewSession constructs an empty Session. The resolver that will service
// reference-script loads is wired in afterward via SetContextFactory: the
// resolver's constructor needs a *Session to close over, so the two can't
// be built in a single expression (the driver builds the Session, then
// builds the resolver factory from it, then wires it back in).
func NewSession(
	sink report.Sink,
	importDirectories []string,
	scriptParser ScriptParser,
	assemblyParser AssemblyParser,
	reflector Reflector,
	pexReader pex.Reader,
) *Session {
	return &Session{
		sink:              sink,
		importDirectories: importDirectories,
		scriptParser:      scriptParser,
		assemblyParser:    assemblyParser,
		reflector:         reflector,
		pexReader:         pexReader,
		byCanonicalPath:   make(map[string]*ast.Script),
		byDirShortName:    make(map[string]map[string]*ast.Script),
	}
}

// SetContextFactory wires in the factory used to construct a SemanticRunner
// for every script loaded as a reference. Must be called once, before the
// first LoadScript.
func (s *Session) SetContextFactory(f ContextFactory) {
	s.newReferenceContext = f
}

// Register inserts sc into the cache under filename's canonical key, as if
// it had been loaded through LoadScript. The driver calls this for the
// primary compilation target immediately after parsing it (before running
// pre-semantic analysis), so that any self-reference the script makes to
// its own name resolves to this same instance rather than re-parsing it.
func (s *Session) Register(filename string, sc *ast.Script) {
	s.byCanonicalPath[canonicalKey(filename)] = sc
}

// canonicalKey normalizes a path for use as a cache key: cleaned, absolute
// where possible, and case-folded (spec §3, "keyed by canonical, case-
// folded path").
func canonicalKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	return strings.ToLower(abs)
}

// LoadScript resolves a (possibly colon-qualified) script name relative to
// fromDir, searching fromDir first and then each configured import
// directory, in `.psc` > `.pas` > `.pex` priority order. It returns nil if
// no matching file is found anywhere. Grounded line-for-line on
// PapyrusResolutionContext::loadScript.
func (s *Session) LoadScript(fromDir, name string) *ast.Script {
	// Allow references to subdirectories via "Sub:Dir:Name" syntax.
	shortName := name
	extraBase := ""
	if idx := strings.LastIndexByte(name, ':'); idx >= 0 {
		extraBase = strings.ReplaceAll(name[:idx], ":", string(filepath.Separator))
		shortName = name[idx+1:]
	}

	if sc := s.searchDir(filepath.Join(fromDir, extraBase), shortName); sc != nil {
		return sc
	}
	for _, dir := range s.importDirectories {
		if sc := s.searchDir(filepath.Join(dir, extraBase), shortName); sc != nil {
			return sc
		}
	}
	return nil
}

// searchDir looks up shortName in baseDir's short-name cache, then (on a
// cache miss) probes the filesystem for baseDir/shortName.{psc,pas,pex} in
// that priority order.
func (s *Session) searchDir(baseDir, shortName string) *ast.Script {
	dirKey := canonicalKey(baseDir)
	nameKey := strings.ToLower(shortName)

	if byName, ok := s.byDirShortName[dirKey]; ok {
		if sc, ok := byName[nameKey]; ok {
			return sc
		}
	}

	var sc *ast.Script
	switch {
	case fileExists(filepath.Join(baseDir, shortName+".psc")):
		sc = s.loadPsc(filepath.Join(baseDir, shortName+".psc"))
	case fileExists(filepath.Join(baseDir, shortName+".pas")):
		sc = s.loadPas(filepath.Join(baseDir, shortName+".pas"))
	case fileExists(filepath.Join(baseDir, shortName+".pex")):
		sc = s.loadPex(filepath.Join(baseDir, shortName+".pex"))
	default:
		return nil
	}
	if sc == nil {
		return nil
	}

	if s.byDirShortName[dirKey] == nil {
		s.byDirShortName[dirKey] = make(map[string]*ast.Script)
	}
	s.byDirShortName[dirKey][nameKey] = sc
	return sc
}

func (s *Session) loadPsc(filename string) *ast.Script {
	key := canonicalKey(filename)
	if sc, ok := s.byCanonicalPath[key]; ok {
		return sc
	}

	sc, err := s.scriptParser.ParseScript(filename)
	if err != nil || sc == nil {
		return nil
	}

	runner := s.newReferenceContext(s.sink, false)
	if err := runner.RunPreSemantic(sc); err != nil {
		return nil
	}
	// Insert before resolving: a script that (transitively) imports itself
	// must see itself already present in the cache, not recurse forever.
	s.byCanonicalPath[key] = sc
	if err := runner.RunSemantic(sc); err != nil {
		return nil
	}
	return sc
}

func (s *Session) loadPas(filename string) *ast.Script {
	key := canonicalKey(filename)
	if sc, ok := s.byCanonicalPath[key]; ok {
		return sc
	}

	pf, err := s.assemblyParser.ParseAssembly(filename)
	if err != nil || pf == nil {
		return nil
	}
	sc, err := s.reflector.ReflectScript(pf)
	if err != nil || sc == nil {
		return nil
	}

	runner := s.newReferenceContext(s.sink, true)
	if err := runner.RunPreSemantic(sc); err != nil {
		return nil
	}
	s.byCanonicalPath[key] = sc
	if err := runner.RunSemantic(sc); err != nil {
		return nil
	}
	return sc
}

func (s *Session) loadPex(filename string) *ast.Script {
	key := canonicalKey(filename)
	if sc, ok := s.byCanonicalPath[key]; ok {
		return sc
	}

	f, err := openAndRead(s.pexReader, filename)
	if err != nil || f == nil {
		return nil
	}
	sc, err := s.reflector.ReflectScript(f)
	if err != nil || sc == nil {
		return nil
	}

	runner := s.newReferenceContext(s.sink, true)
	if err := runner.RunPreSemantic(sc); err != nil {
		return nil
	}
	s.byCanonicalPath[key] = sc
	if err := runner.RunSemantic(sc); err != nil {
		return nil
	}
	return sc
}
