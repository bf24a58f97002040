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

// Package driver is the top-level batch compilation pipeline (spec §5): it
// fans out one goroutine per input script, each running parse → pre-
// semantic → semantic → codegen → write against its own, non-shared
// cache.Session and resolver.Context, mirroring the "thread-local
// resolution state" the original describes. Grounded on the teacher's
// pkg/cmd/compile.go batch-file handling, adapted from a single in-process
// pass over constraint files to a parallel fan-out over scripts, using
// golang.org/x/sync/errgroup in place of the teacher's manual
// goroutine-plus-channel pattern (see pkg/ir/builder/parallel.go) for the
// same per-item-error collection, since errgroup also gives us context
// cancellation and an optional concurrency limit for free.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/papyrus-lang/pscc/pkg/papyrus/ast"
	"github.com/papyrus-lang/pscc/pkg/papyrus/cache"
	"github.com/papyrus-lang/pscc/pkg/papyrus/emit"
	"github.com/papyrus-lang/pscc/pkg/papyrus/resolver"
	"github.com/papyrus-lang/pscc/pkg/pex"
	"github.com/papyrus-lang/pscc/pkg/report"
)

// CompilationConfig carries the user-configurable options that affect how a
// script resolves and compiles (spec §6, "Configuration"), independent of
// batch-level concerns like output location or parallelism. Mirrors the
// teacher's corset.CompilationConfig; populated from cobra flags in
// pkg/cmd/compile.go and shared read-only across every per-script goroutine.
type CompilationConfig struct {
	// ImportDirectories is the ordered list of additional search roots
	// consulted, after a script's own directory, when resolving an import.
	ImportDirectories []string
	// EnableOptimizations turns on dead-assign elimination in the function
	// builder.
	EnableOptimizations bool
	// AllowDecompiledStructNameRefs accepts a `Script#Struct` qualified type
	// name during resolution even for scripts parsed from `.psc` source,
	// matching the leniency normally reserved for `.pas`/`.pex`-reflected
	// scripts — useful when compiling against decompiler output that wrote
	// such references into otherwise-textual sources.
	AllowDecompiledStructNameRefs bool
}

// Options configures a Driver's behavior across the whole batch.
type Options struct {
	CompilationConfig

	OutputDirectory string // if "", each .pex is written alongside its source
	MaxParallelism  int    // 0 means errgroup's unlimited (bounded only by GOMAXPROCS scheduling)
}

// Driver wires together the external collaborators (parser, reflector, pex
// reader/writer) with the semantic core and runs a batch of scripts to
// completion.
type Driver struct {
	scriptParser   cache.ScriptParser
	assemblyParser cache.AssemblyParser
	reflector      cache.Reflector
	pexReader      pex.Reader
	pexWriter      pex.Writer
	opts           Options
}

// New constructs a Driver. scriptParser, assemblyParser, reflector and
// pexReader/pexWriter are the out-of-scope external collaborators spec §1
// calls out; the core (cache/resolver/emit) depends only on their
// interfaces.
func New(scriptParser cache.ScriptParser, assemblyParser cache.AssemblyParser, reflector cache.Reflector, pexReader pex.Reader, pexWriter pex.Writer, opts Options) *Driver {
	return &Driver{
		scriptParser:   scriptParser,
		assemblyParser: assemblyParser,
		reflector:      reflector,
		pexReader:      pexReader,
		pexWriter:      pexWriter,
		opts:           opts,
	}
}

// Result is one input script's compilation outcome.
type Result struct {
	SourceFile string
	OutputFile string
	Failed     bool
}

// CompileBatch compiles every file in sourceFiles concurrently, one
// goroutine per file via errgroup, and returns one Result per input in the
// same order. A per-script failure is reflected in that script's Result
// rather than aborting the whole batch — one broken script should not
// prevent its siblings from compiling (spec §5).
func (d *Driver) CompileBatch(ctx context.Context, sourceFiles []string) ([]Result, error) {
	results := make([]Result, len(sourceFiles))
	g, gctx := errgroup.WithContext(ctx)
	if d.opts.MaxParallelism > 0 {
		g.SetLimit(d.opts.MaxParallelism)
	}

	for i, file := range sourceFiles {
		i, file := i, file
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res := d.compileOne(file)
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// compileOne runs the full pipeline for a single script. It never returns
// an error itself (a Sink already recorded any diagnostics); the caller
// reads Result.Failed to decide whether the batch as a whole succeeded.
func (d *Driver) compileOne(filename string) Result {
	sink := report.NewConsoleSink(filename)
	res := Result{SourceFile: filename}

	session := cache.NewSession(sink, d.opts.ImportDirectories, d.scriptParser, d.assemblyParser, d.reflector, d.pexReader)
	session.SetContextFactory(resolver.NewReferenceContextFactory(session, d.opts.AllowDecompiledStructNameRefs))

	sc, err := d.scriptParser.ParseScript(filename)
	if err != nil || sc == nil {
		sink.Fatal(report.Location{File: filename}, "failed to parse: %v", err)
		res.Failed = true
		return res
	}
	session.Register(filename, sc)

	ctx := resolver.NewContext(session, sink, sc, d.opts.AllowDecompiledStructNameRefs)
	if err := ctx.RunPreSemantic(sc); err != nil {
		res.Failed = true
		return res
	}
	if err := ctx.RunSemantic(sc); err != nil {
		res.Failed = true
		return res
	}

	file := pex.NewFile(sc.SourceFileName)
	for _, obj := range sc.Objects {
		compileObject(file, obj, sink, d.opts.EnableOptimizations)
	}

	if sink.HadErrors() {
		res.Failed = true
		return res
	}

	res.OutputFile = d.outputPath(filename)
	if err := d.writeFile(res.OutputFile, file); err != nil {
		sink.Fatal(report.Location{File: filename}, "failed to write output: %v", err)
		res.Failed = true
	}
	return res
}

func (d *Driver) outputPath(sourceFile string) string {
	base := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile)) + ".pex"
	if d.opts.OutputDirectory == "" {
		return filepath.Join(filepath.Dir(sourceFile), base)
	}
	return filepath.Join(d.opts.OutputDirectory, base)
}

func (d *Driver) writeFile(path string, f *pex.File) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return d.pexWriter.Write(out, f)
}

// compileObject lowers one fully-resolved ast.Object into a pex.Object,
// compiling every non-native function body via emit.FunctionCompiler.
func compileObject(file *pex.File, obj *ast.Object, sink report.Sink, optimize bool) *pex.Object {
	out := &pex.Object{
		Name:      file.GetString(obj.Name),
		UserFlags: obj.UserFlags,
	}
	if obj.ParentClass != nil {
		out.ParentName = file.GetString(emit.TypeName(*obj.ParentClass))
	}

	for _, v := range obj.Variables {
		out.Variables = append(out.Variables, &pex.VariableInfo{
			Name:  file.GetString(v.Name),
			Type:  file.GetString(emit.TypeName(v.Type)),
			Const: v.IsConst,
		})
	}

	for _, pg := range obj.PropertyGroups {
		for _, p := range pg.Properties {
			out.Properties = append(out.Properties, compileProperty(file, obj, p, sink, optimize))
		}
	}

	for _, st := range obj.States {
		stateInfo := &pex.StateInfo{Name: file.GetString(st.Name)}
		for _, fn := range st.Functions {
			stateInfo.Functions = append(stateInfo.Functions, compileFunction(file, fn, sink, optimize))
		}
		out.States = append(out.States, stateInfo)
	}

	file.Objects = append(file.Objects, out)
	return out
}

func compileProperty(file *pex.File, obj *ast.Object, p *ast.Property, sink report.Sink, optimize bool) *pex.PropertyInfo {
	info := &pex.PropertyInfo{
		Name:      file.GetString(p.Name),
		Type:      file.GetString(emit.TypeName(p.Type)),
		IsAuto:    p.IsAuto,
		UserFlags: p.UserFlags,
	}
	if p.IsAuto {
		info.AutoVarName = file.GetString("::" + p.Name + "_var")
		return info
	}
	if p.ReadFunction != nil {
		info.ReadFunction = compileFunction(file, p.ReadFunction, sink, optimize)
	}
	if p.WriteFunction != nil {
		info.WriteFunction = compileFunction(file, p.WriteFunction, sink, optimize)
	}
	return info
}

func compileFunction(file *pex.File, fn *ast.Function, sink report.Sink, optimize bool) *pex.Function {
	params := make([]*pex.LocalVariable, len(fn.Parameters))
	for i, p := range fn.Parameters {
		params[i] = &pex.LocalVariable{Name: file.GetString(p.Name), Type: file.GetString(emit.TypeName(p.Type))}
	}

	if fn.IsNative() {
		return &pex.Function{
			Name:       file.GetString(fn.Name),
			ReturnType: file.GetString(emit.TypeName(fn.ReturnType)),
			Params:     params,
		}
	}

	builder := emit.NewBuilder(file, sink, fn.Location.File, optimize)
	compiler := emit.NewFunctionCompiler(builder)
	compiler.CompileStatements(fn.Body)

	locals := declaredLocals(file, fn.Body)

	return compiler.PopulateFunction(
		file.GetString(fn.Name),
		file.GetString(emit.TypeName(fn.ReturnType)),
		params,
		locals,
	)
}

// declaredLocals collects the LocalVariable slots for every DeclareStatement
// reachable in body, at any nesting depth - the Papyrus VM has no block
// scoping at the bytecode level, so every declared local gets a slot for
// the whole function regardless of which branch declares it.
func declaredLocals(file *pex.File, body []ast.Statement) []*pex.LocalVariable {
	var out []*pex.LocalVariable
	var walk func(stmts []ast.Statement)
	walk = func(stmts []ast.Statement) {
		for _, s := range stmts {
			switch st := s.(type) {
			case *ast.DeclareStatement:
				out = append(out, &pex.LocalVariable{
					Name: file.GetString(st.Name),
					Type: file.GetString(emit.TypeName(st.Type)),
				})
			case *ast.IfStatement:
				for _, b := range st.Branches {
					walk(b.Body)
				}
				walk(st.Else)
			case *ast.WhileStatement:
				walk(st.Body)
			}
		}
	}
	walk(body)
	return out
}

// ErrBatchFailed is an error value a caller can return after AnyFailed
// reports a failed Result; nothing in this package returns it, and
// CompileBatch in particular never does, since
// per-script failures are reported via Result.Failed rather than aborting
// the batch.
var ErrBatchFailed = fmt.Errorf("one or more scripts failed to compile")

// AnyFailed reports whether any Result in results failed.
func AnyFailed(results []Result) bool {
	for _, r := range results {
		if r.Failed {
			return true
		}
	}
	return false
}
