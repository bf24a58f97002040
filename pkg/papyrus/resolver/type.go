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
	"strings"

	"github.com/papyrus-lang/pscc/pkg/papyrus/ast"
)

// ResolveType resolves an Unresolved type by name against, in order: a
// `Script#Struct` qualified reference (only honored during pex/pas
// resolution, or when the allowDecompiledStructNameRefs CompilationConfig
// option is set, spec §4.4/§6/§9); in-object (and ancestor) structs; the
// object itself (self-reference); imported scripts' structs; a same-named
// script loaded by short name; and finally a `Script:Struct` qualified
// reference. Array element types are resolved recursively. Grounded
// line-for-line on PapyrusResolutionContext::resolveType.
func (c *Context) ResolveType(tp ast.Type) ast.Type {
	if tp.Kind() != ast.Unresolved {
		if tp.Kind() == ast.Array {
			return ast.NewArray(tp.Loc(), c.ResolveType(tp.Element()))
		}
		return tp
	}

	if c.isPexResolution || c.allowDecompiledStructNameRefs {
		if scName, structName, ok := strings.Cut(tp.Name(), "#"); ok {
			sc := c.loadScript(scName)
			if sc == nil {
				c.loc(tp.Loc()).fatal("Unable to find script '%s' referenced by '%s'!", scName, tp.Name())
				return tp
			}
			if strct := findStructInScript(sc, structName); strct != nil {
				return ast.NewResolvedStruct(tp.Loc(), strct)
			}
			c.loc(tp.Loc()).fatal("Unable to resolve a struct named '%s' in script '%s'!", structName, scName)
			return tp
		}
	}

	if c.object != nil {
		if strct := tryResolveStructInChain(c.object, tp.Name()); strct != nil {
			return ast.NewResolvedStruct(tp.Loc(), strct)
		}
		if idEq(c.object.Name, tp.Name()) {
			return ast.NewResolvedObject(tp.Loc(), c.object)
		}
	}

	for _, sc := range c.importedScripts {
		for _, obj := range sc.Objects {
			if strct := findStructIn(obj, tp.Name()); strct != nil {
				return ast.NewResolvedStruct(tp.Loc(), strct)
			}
		}
	}

	if sc := c.loadScript(tp.Name()); sc != nil {
		for _, obj := range sc.Objects {
			oName := shortObjectName(obj.Name)
			if idEq(obj.Name, tp.Name()) || idEq(oName, tp.Name()) {
				return ast.NewResolvedObject(tp.Loc(), obj)
			}
		}
		if len(sc.Objects) > 0 {
			c.loc(tp.Loc()).fatal("Loaded a script named '%s' but was looking for '%s'!", sc.Objects[0].Name, tp.Name())
			return tp
		}
	}

	if scName, structName, ok := strings.Cut(tp.Name(), ":"); ok {
		sc := c.loadScript(scName)
		if sc == nil {
			c.loc(tp.Loc()).fatal("Unable to find script '%s' referenced by '%s'!", scName, tp.Name())
			return tp
		}
		if strct := findStructInScript(sc, structName); strct != nil {
			return ast.NewResolvedStruct(tp.Loc(), strct)
		}
		c.loc(tp.Loc()).fatal("Unable to resolve a struct named '%s' in script '%s'!", structName, scName)
		return tp
	}

	c.loc(tp.Loc()).fatal("Unable to resolve type '%s'!", tp.Name())
	return tp
}

// tryResolveStructInChain looks up name among object's own structs, then
// its ancestors', walking up the resolved parent-class chain.
func tryResolveStructInChain(object *ast.Object, name string) *ast.Struct {
	if strct := findStructIn(object, name); strct != nil {
		return strct
	}
	if parent := object.TryGetParentClass(); parent != nil {
		return tryResolveStructInChain(parent, name)
	}
	return nil
}

func findStructIn(object *ast.Object, name string) *ast.Struct {
	for _, s := range object.Structs {
		if idEq(s.Name, name) {
			return s
		}
	}
	return nil
}

func findStructInScript(sc *ast.Script, name string) *ast.Struct {
	for _, obj := range sc.Objects {
		if s := findStructIn(obj, name); s != nil {
			return s
		}
	}
	return nil
}

// shortObjectName strips any "Dir:SubDir:" qualification prefix a reflected
// object name may carry, leaving just the trailing component.
func shortObjectName(name string) string {
	if idx := strings.LastIndexByte(name, ':'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// TryResolveState looks up name among parentObj's (or, if nil, the current
// object's) declared states, walking up the inheritance chain on failure.
func (c *Context) TryResolveState(name string, parentObj *ast.Object) *ast.State {
	if parentObj == nil {
		parentObj = c.object
	}
	for _, s := range parentObj.States {
		if idEq(s.Name, name) {
			return s
		}
	}
	if parent := parentObj.TryGetParentClass(); parent != nil {
		return c.TryResolveState(name, parent)
	}
	return nil
}

// TryResolveEvent looks up an event-handler function named name in
// parentObj's root state, walking up the inheritance chain.
func (c *Context) TryResolveEvent(parentObj *ast.Object, name string) *ast.Function {
	if root := parentObj.GetRootState(); root != nil {
		for _, f := range root.Functions {
			if idEq(f.Name, name) && f.IsEvent() {
				return f
			}
		}
	}
	if parent := parentObj.TryGetParentClass(); parent != nil {
		return c.TryResolveEvent(parent, name)
	}
	return nil
}

// TryResolveCustomEvent looks up a custom event named name declared on
// parentObj, walking up the inheritance chain.
func (c *Context) TryResolveCustomEvent(parentObj *ast.Object, name string) *ast.CustomEvent {
	for _, ce := range parentObj.CustomEvents {
		if idEq(ce.Name, name) {
			return ce
		}
	}
	if parent := parentObj.TryGetParentClass(); parent != nil {
		return c.TryResolveCustomEvent(parent, name)
	}
	return nil
}
