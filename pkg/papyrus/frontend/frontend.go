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

// Package frontend provides placeholder implementations of the three
// external collaborators the semantic core depends on only by interface
// (cache.ScriptParser, cache.AssemblyParser, cache.Reflector): lexing and
// parsing `.psc` source, parsing `.pas` textual assembly, and lifting a
// decoded `.pex` back into the ast.Script shape are explicitly out of
// scope for this compiler (spec §1) — the core is the resolution context
// and function builder that sit downstream of a parse tree, not the
// grammar that produces one. Unimplemented wires the CLI (pkg/cmd) end to
// end against these interfaces without committing to a grammar.
package frontend

import (
	"fmt"

	"github.com/papyrus-lang/pscc/pkg/papyrus/ast"
	"github.com/papyrus-lang/pscc/pkg/pex"
)

// Unimplemented satisfies cache.ScriptParser, cache.AssemblyParser and
// cache.Reflector, each returning an error naming the missing
// collaborator. It exists so pkg/cmd and pkg/papyrus/driver have something
// concrete to wire up; a real deployment replaces it with an actual
// lexer/parser and a pex-to-AST reflector.
type Unimplemented struct{}

// ParseScript implements cache.ScriptParser.
func (Unimplemented) ParseScript(filename string) (*ast.Script, error) {
	return nil, fmt.Errorf("frontend: no .psc parser configured (parsing %q)", filename)
}

// ParseAssembly implements cache.AssemblyParser.
func (Unimplemented) ParseAssembly(filename string) (*pex.File, error) {
	return nil, fmt.Errorf("frontend: no .pas assembler configured (parsing %q)", filename)
}

// ReflectScript implements cache.Reflector.
func (Unimplemented) ReflectScript(f *pex.File) (*ast.Script, error) {
	return nil, fmt.Errorf("frontend: no pex reflector configured (script %q)", f.Header.SourceFileName)
}
