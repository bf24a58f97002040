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

// Package resolver is the resolution context (spec §2 component 5; §4.3,
// §4.4): the stateful engine that performs the pre-semantic and semantic
// passes over a script, resolves identifiers and types across the
// inheritance lattice and import graph, enforces the type system (implicit
// coercion, explicit casting, poisoning), and backs the function builder's
// codegen pass with the same symbol tables it built.
//
// Grounded line-for-line on Caprica's PapyrusResolutionContext.cpp.
package resolver

import (
	"fmt"

	"github.com/papyrus-lang/pscc/pkg/papyrus/ast"
	"github.com/papyrus-lang/pscc/pkg/papyrus/cache"
	"github.com/papyrus-lang/pscc/pkg/report"
)

// Context is one resolution pass's state: the script being resolved, the
// object/function currently in scope, the local-variable scope stack, and
// the imports visible to it. A Context is never shared across goroutines;
// the driver (or the cache, when loading a reference script) constructs a
// fresh one per script.
type Context struct {
	session *cache.Session
	sink    report.Sink

	script *ast.Script
	object *ast.Object
	// function is nil while resolving object-level declarations (property
	// initializers, variable defaults) and non-nil while walking a function
	// body.
	function *ast.Function

	// resolvingReferenceScript is true for scripts loaded as a side effect
	// of resolving some other script (an import, a parent class, a type
	// reference) rather than as a primary compilation input.
	resolvingReferenceScript bool
	// isPexResolution is true when this script was reflected from a `.pas`
	// or `.pex` file rather than parsed from `.psc` source; it relaxes type
	// resolution to accept decompiler-style `Script#Struct` qualified names
	// (spec §4.4/§9).
	isPexResolution bool
	// allowDecompiledStructNameRefs mirrors the
	// CompilationConfig.AllowDecompiledStructNameRefs option (spec §6): when
	// set, it grants `.psc` sources the same `Script#Struct` leniency
	// isPexResolution grants `.pas`/`.pex` sources.
	allowDecompiledStructNameRefs bool

	importedScripts []*ast.Script

	localVariableScopeStack []map[string]*ast.DeclareStatement
}

// NewContext constructs a resolution context for script's primary
// compilation (resolvingReferenceScript = false). allowDecompiledStructNameRefs
// is the CompilationConfig option of the same name (spec §6).
func NewContext(session *cache.Session, sink report.Sink, script *ast.Script, allowDecompiledStructNameRefs bool) *Context {
	return &Context{session: session, sink: sink, script: script, allowDecompiledStructNameRefs: allowDecompiledStructNameRefs}
}

// NewReferenceContextFactory returns a cache.ContextFactory that constructs
// fresh resolution contexts for scripts loaded as references (imports,
// parent classes, type lookups) — mirroring loadScript's
// `new PapyrusResolutionContext(repCtx)` with `resolvingReferenceScript =
// true`. The returned factory is what wires pkg/papyrus/cache to this
// package without an import cycle: the driver passes it to
// Session.SetContextFactory. allowDecompiledStructNameRefs carries the batch's
// CompilationConfig option through to every reference context the factory
// produces.
func NewReferenceContextFactory(session *cache.Session, allowDecompiledStructNameRefs bool) cache.ContextFactory {
	return func(sink report.Sink, isPexResolution bool) cache.SemanticRunner {
		return &Context{
			session:                       session,
			sink:                          sink,
			resolvingReferenceScript:      true,
			isPexResolution:               isPexResolution,
			allowDecompiledStructNameRefs: allowDecompiledStructNameRefs,
		}
	}
}

// RunPreSemantic implements cache.SemanticRunner. Pre-semantic resolves
// each object's parent-class type (so that later passes can walk the
// inheritance chain); it does not register imports and does not resolve
// member/function bodies, since those may reference sibling
// objects not yet visited.
func (c *Context) RunPreSemantic(s *ast.Script) (err error) {
	defer func() { err = c.recoverFatal(recover()) }()
	c.script = s
	for _, obj := range s.Objects {
		c.object = obj
		if obj.ParentClassName != "" {
			parentType := c.ResolveType(ast.NewUnresolved(obj.Location, obj.ParentClassName))
			obj.ParentClass = &parentType
		}
	}
	c.object = nil
	return nil
}

// RunSemantic implements cache.SemanticRunner: the full semantic pass
// (identifier resolution, type-checking, coercion, poison-checking) over
// every declaration and every function body in s. This runs identically
// whether s is the primary compilation target or a script pulled in only
// as a reference (an import, a parent class, a type lookup) - a referenced
// script's functions must be just as fully resolved as a primary one's,
// since a caller elsewhere needs accurate parameter/return types. The
// driver calls this directly for primary scripts too, rather than
// duplicating its body.
func (c *Context) RunSemantic(s *ast.Script) (err error) {
	defer func() { err = c.recoverFatal(recover()) }()
	c.script = s
	for _, obj := range s.Objects {
		c.object = obj
		c.resolveObjectDeclarations(obj)
		for _, st := range obj.States {
			for _, fn := range st.Functions {
				c.ResolveFunctionBody(obj, fn)
			}
		}
	}
	c.object = nil
	return nil
}

func (c *Context) resolveObjectDeclarations(obj *ast.Object) {
	for _, v := range obj.Variables {
		v.Type = c.ResolveType(v.Type)
		if v.DefaultValue != nil {
			coerced := c.CoerceDefaultValue(*v.DefaultValue, v.Type)
			v.DefaultValue = &coerced
		}
	}
	for _, pg := range obj.PropertyGroups {
		for _, p := range pg.Properties {
			p.Type = c.ResolveType(p.Type)
			if p.DefaultValue != nil {
				coerced := c.CoerceDefaultValue(*p.DefaultValue, p.Type)
				p.DefaultValue = &coerced
			}
		}
	}
	for _, st := range obj.Structs {
		for _, m := range st.Members {
			m.Type = c.ResolveType(m.Type)
			if m.DefaultValue != nil {
				coerced := c.CoerceDefaultValue(*m.DefaultValue, m.Type)
				m.DefaultValue = &coerced
			}
		}
	}
}

// recoverFatal turns a LogicalFatal panic into a plain error, and re-panics
// any other panic value (a bug).
func (c *Context) recoverFatal(recovered any) error {
	if recovered == nil {
		return nil
	}
	if c.sink.ExitIfErrors(recovered) {
		return fmt.Errorf("resolution failed for %s", c.scriptName())
	}
	return nil
}

func (c *Context) scriptName() string {
	if c.script == nil {
		return "<unknown>"
	}
	return c.script.SourceFileName
}

// EnterFunction sets the current function scope and pushes a fresh local
// scope frame, returning a function that restores the previous state — used
// by ResolveFunctionBody as:
//
//	defer ctx.EnterFunction(fn)()
func (c *Context) EnterFunction(fn *ast.Function) func() {
	prevFn, prevObj := c.function, c.object
	c.function = fn
	// Parameters are visible without being added to the local-variable
	// scope stack; tryResolveIdentifier checks function.Parameters
	// directly, matching the original.
	c.PushScope()
	return func() {
		c.PopScope()
		c.function = prevFn
		c.object = prevObj
	}
}

// SetObject sets the object currently being resolved (used by
// ResolveFunctionBody before it walks one of that object's functions).
func (c *Context) SetObject(obj *ast.Object) { c.object = obj }

// Object returns the object currently in scope.
func (c *Context) Object() *ast.Object { return c.object }

// Function returns the function currently in scope, or nil.
func (c *Context) Function() *ast.Function { return c.function }

// Sink returns the reporting sink this context reports diagnostics to.
func (c *Context) Sink() report.Sink { return c.sink }

// PushScope pushes a new, empty local-variable scope frame (entering a
// block).
func (c *Context) PushScope() {
	c.localVariableScopeStack = append(c.localVariableScopeStack, make(map[string]*ast.DeclareStatement))
}

// PopScope pops the innermost local-variable scope frame (leaving a block).
func (c *Context) PopScope() {
	c.localVariableScopeStack = c.localVariableScopeStack[:len(c.localVariableScopeStack)-1]
}

// AddLocalVariable registers a local variable declaration in the innermost
// scope frame, reporting an error if the name shadows one already declared
// in any enclosing frame (Papyrus forbids shadowing, unlike many languages).
func (c *Context) AddLocalVariable(local *ast.DeclareStatement) {
	for _, frame := range c.localVariableScopeStack {
		if _, ok := frame[lowerKey(local.Name)]; ok {
			c.loc(local.Location).error("Attempted to redefined '%s' which was already defined in a parent scope!", local.Name)
			return
		}
	}
	c.localVariableScopeStack[len(c.localVariableScopeStack)-1][lowerKey(local.Name)] = local
}

// AddImport registers sc as visible on import, looking it up by name via
// the script cache and reporting an error if it cannot be found or has
// already been imported.
func (c *Context) AddImport(loc ast.Location, importName string) {
	sc := c.loadScript(importName)
	if sc == nil {
		c.loc(loc).error("Failed to find imported script '%s'!", importName)
		return
	}
	for _, s := range c.importedScripts {
		if s == sc {
			c.loc(loc).error("Duplicate import of '%s'.", importName)
			return
		}
	}
	c.importedScripts = append(c.importedScripts, sc)
}

// loadScript loads name relative to this context's own script's directory,
// through the shared cache session.
func (c *Context) loadScript(name string) *ast.Script {
	return c.session.LoadScript(scriptDir(c.script), name)
}

func scriptDir(s *ast.Script) string {
	if s == nil {
		return "."
	}
	return dirOf(s.SourceFileName)
}
