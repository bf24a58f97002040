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

import "github.com/papyrus-lang/pscc/pkg/papyrus/ast"

// ResolveIdentifier resolves ident, reporting a fatal error (and returning
// the unresolved identifier unchanged, since Fatal on the console sink
// doesn't unwind) if it cannot be resolved. Prefer TryResolveIdentifier
// when an unresolved result is a recoverable condition for the caller.
func (c *Context) ResolveIdentifier(ident ast.Identifier) ast.Identifier {
	id := c.TryResolveIdentifier(ident)
	if id.Kind() == ast.IdentUnresolved {
		c.loc(ident.Loc()).fatal("Unresolved identifier '%s'!", ident.Name())
	}
	return id
}

// TryResolveIdentifier resolves a bare (unqualified) identifier reference
// against, in order: the local-variable scope stack (innermost scope
// first); the special `__state` builtin field inside GetState/GoToState;
// function parameters; (if the enclosing function is not global) instance
// variables and properties; and finally the parent class, recursing as a
// *member* lookup against the parent's declared type.
//
// The final fallthrough intentionally resolves against object.ParentClass
// (the declared type the parser/pre-semantic pass attached), not against
// a separately re-resolved parent object — see DESIGN.md's Open Question
// decision for why this is deliberate rather than an oversight.
// Grounded line-for-line on PapyrusResolutionContext::tryResolveIdentifier.
func (c *Context) TryResolveIdentifier(ident ast.Identifier) ast.Identifier {
	if ident.Kind() != ast.IdentUnresolved {
		return ident
	}

	for i := len(c.localVariableScopeStack) - 1; i >= 0; i-- {
		if decl, ok := c.localVariableScopeStack[i][lowerKey(ident.Name())]; ok {
			return ast.LocalVariableIdentifier(ident.Loc(), decl)
		}
	}

	if c.function != nil {
		if (idEq(c.function.Name, "getstate") || idEq(c.function.Name, "gotostate")) && idEq(ident.Name(), "__state") {
			return ast.BuiltinStateFieldIdentifier(ident.Loc())
		}
		for _, p := range c.function.Parameters {
			if idEq(p.Name, ident.Name()) {
				return ast.ParameterIdentifier(ident.Loc(), p)
			}
		}
	}

	if c.function == nil || !c.function.IsGlobal() {
		for _, v := range c.object.Variables {
			if idEq(v.Name, ident.Name()) {
				return ast.VariableIdentifier(ident.Loc(), v)
			}
		}
		for _, pg := range c.object.PropertyGroups {
			for _, p := range pg.Properties {
				if idEq(p.Name, ident.Name()) {
					return ast.PropertyIdentifier(ident.Loc(), p)
				}
			}
		}
	}

	if c.object.ParentClass != nil {
		return c.TryResolveMemberIdentifier(*c.object.ParentClass, ident)
	}

	return ident
}

// ResolveMemberIdentifier resolves ident as a member of baseType, fataling
// if unresolved.
func (c *Context) ResolveMemberIdentifier(baseType ast.Type, ident ast.Identifier) ast.Identifier {
	id := c.TryResolveMemberIdentifier(baseType, ident)
	if id.Kind() == ast.IdentUnresolved {
		c.loc(ident.Loc()).fatal("Unresolved identifier '%s'!", ident.Name())
	}
	return id
}

// TryResolveMemberIdentifier resolves ident as `base.ident`, where base has
// static type baseType: a struct member if baseType is a resolved struct, or
// a property (searching this object's property groups then recursing up the
// parent-class chain) if baseType is a resolved object. Grounded on
// PapyrusResolutionContext::tryResolveMemberIdentifier.
func (c *Context) TryResolveMemberIdentifier(baseType ast.Type, ident ast.Identifier) ast.Identifier {
	if ident.Kind() != ast.IdentUnresolved {
		return ident
	}

	switch baseType.Kind() {
	case ast.ResolvedStruct:
		for _, m := range baseType.Struct().Members {
			if idEq(m.Name, ident.Name()) {
				return ast.StructMemberIdentifier(ident.Loc(), m)
			}
		}
	case ast.ResolvedObject:
		obj := baseType.Object()
		for _, pg := range obj.PropertyGroups {
			for _, p := range pg.Properties {
				if idEq(p.Name, ident.Name()) {
					return ast.PropertyIdentifier(ident.Loc(), p)
				}
			}
		}
		if obj.ParentClass != nil {
			return c.TryResolveMemberIdentifier(*obj.ParentClass, ident)
		}
	}

	return ident
}

// ResolveFunctionIdentifier resolves ident as a callable function (global if
// wantGlobal, or if baseType is None and the enclosing function is itself
// global), fataling if unresolved.
func (c *Context) ResolveFunctionIdentifier(baseType ast.Type, ident ast.Identifier, wantGlobal bool) ast.Identifier {
	id := c.TryResolveFunctionIdentifier(baseType, ident, wantGlobal)
	if id.Kind() == ast.IdentUnresolved {
		c.loc(ident.Loc()).fatal("Unresolved function name '%s'!", ident.Name())
	}
	return id
}

// TryResolveFunctionIdentifier resolves a function-call name against
// baseType: for ast.None (an unqualified call), it searches the current
// object's root state, then every imported script's global functions, then
// falls back to a qualified search against the current object itself; for
// ast.Array, it maps the name to one of the builtin array methods (spec
// §4.4, §9); for ast.ResolvedObject, it searches the object's root state
// and recurses up the parent-class chain. Grounded on
// PapyrusResolutionContext::tryResolveFunctionIdentifier.
func (c *Context) TryResolveFunctionIdentifier(baseType ast.Type, ident ast.Identifier, wantGlobal bool) ast.Identifier {
	wantGlobal = wantGlobal || (c.function != nil && c.function.IsGlobal())
	if ident.Kind() != ast.IdentUnresolved {
		return ident
	}

	switch baseType.Kind() {
	case ast.None:
		if root := c.object.GetRootState(); root != nil {
			for _, f := range root.Functions {
				if idEq(f.Name, ident.Name()) {
					if wantGlobal && !f.IsGlobal() {
						c.loc(ident.Loc()).error(
							"You cannot call non-global functions from within a global function. '%s' is not a global function.",
							f.Name)
					}
					return ast.FunctionIdentifier(ident.Loc(), f)
				}
			}
		}

		for _, sc := range c.importedScripts {
			for _, obj := range sc.Objects {
				if root := obj.GetRootState(); root != nil {
					for _, f := range root.Functions {
						if f.IsGlobal() && idEq(f.Name, ident.Name()) {
							return ast.FunctionIdentifier(ident.Loc(), f)
						}
					}
				}
			}
		}

		return c.TryResolveFunctionIdentifier(ast.NewResolvedObject(ident.Loc(), c.object), ident, wantGlobal)

	case ast.Array:
		fk := ast.LookupArrayFunction(ident.Name())
		if fk == ast.ArrayFunctionUnknown {
			c.loc(ident.Loc()).fatal("Unknown function '%s' called on an array expression!", ident.Name())
			return ident
		}
		return ast.ArrayFunctionIdentifier(baseType.Loc(), fk, baseType.Element())

	case ast.ResolvedObject:
		obj := baseType.Object()
		if root := obj.GetRootState(); root != nil {
			for _, f := range root.Functions {
				if idEq(f.Name, ident.Name()) {
					if !wantGlobal && f.IsGlobal() {
						c.loc(ident.Loc()).error("You cannot call the global function '%s' on an object.", f.Name)
					}
					return ast.FunctionIdentifier(ident.Loc(), f)
				}
			}
		}
		if obj.ParentClass != nil {
			return c.TryResolveFunctionIdentifier(*obj.ParentClass, ident, wantGlobal)
		}
	}

	return ident
}
