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

// IsObjectSomeParentOf reports whether parent is child itself, or appears
// somewhere in child's inheritance chain.
func IsObjectSomeParentOf(child, parent *ast.Object) bool {
	if child == parent {
		return true
	}
	if idEq(child.Name, parent.Name) {
		return true
	}
	if p := child.TryGetParentClass(); p != nil {
		return IsObjectSomeParentOf(p, parent)
	}
	return false
}

// CanImplicitlyCoerce reports whether a value of type src may be used
// anywhere a dest is expected without an explicit cast (spec §4.3).
func (c *Context) CanImplicitlyCoerce(src, dest ast.Type) bool {
	if src.Equal(dest) {
		return true
	}

	switch dest.Kind() {
	case ast.Bool:
		return src.Kind() != ast.None
	case ast.Float:
		return src.Kind() == ast.Int
	case ast.String:
		return src.Kind() != ast.None
	case ast.ResolvedObject:
		if src.Kind() == ast.ResolvedObject {
			return IsObjectSomeParentOf(src.Object(), dest.Object())
		}
		return false
	case ast.Var:
		return src.Kind() != ast.None && src.Kind() != ast.Array
	default:
		return false
	}
}

// CanExplicitlyCast reports whether src may be explicitly cast to dest (a
// superset of CanImplicitlyCoerce).
func (c *Context) CanExplicitlyCast(src, dest ast.Type) bool {
	if c.CanImplicitlyCoerce(src, dest) {
		return true
	}

	if src.Kind() == ast.Var {
		return dest.Kind() != ast.None
	}

	switch dest.Kind() {
	case ast.Int, ast.Float:
		switch src.Kind() {
		case ast.String, ast.Int, ast.Float, ast.Bool, ast.Var:
			return true
		default:
			return false
		}
	case ast.ResolvedObject:
		if src.Kind() == ast.ResolvedObject {
			return IsObjectSomeParentOf(dest.Object(), src.Object())
		}
		return false
	case ast.Array:
		if src.Kind() == ast.Array &&
			src.Element().Kind() == ast.ResolvedObject &&
			dest.Element().Kind() == ast.ResolvedObject {
			return IsObjectSomeParentOf(dest.Element().Object(), src.Element().Object())
		}
		return false
	default:
		return false
	}
}

// isLiteralNone reports whether expr is a literal `None` expression - the
// narrow case canImplicitlyCoerceExpression allows through to Var/Array/
// Object/Struct targets even though a bare None type cannot coerce to them.
func isLiteralNone(expr ast.Expression) bool {
	lit, ok := expr.(*ast.LiteralExpression)
	return ok && lit.Value.Kind() == ast.ValueNone
}

// CanImplicitlyCoerceExpression is CanImplicitlyCoerce, plus the literal-
// None special case (spec §4.3): a literal `None` may implicitly convert to
// Var, Array, Object or Struct targets even though the bare None type
// cannot coerce to any of those.
func (c *Context) CanImplicitlyCoerceExpression(expr ast.Expression, target ast.Type) bool {
	switch target.Kind() {
	case ast.Var, ast.Array, ast.ResolvedObject, ast.ResolvedStruct:
		if expr.ResultType().Kind() == ast.None && isLiteralNone(expr) {
			return true
		}
	}
	return c.CanImplicitlyCoerce(expr.ResultType(), target)
}

// CoerceExpression wraps expr in a CastExpression to target if needed and
// possible, constant-folding the common Int-literal → Float-literal
// promotion in place rather than emitting a runtime cast (spec §4.3, S1).
// On failure it reports an error and returns expr unchanged (Open Question
// decision: diagnostics stay anchored to the original source even though
// the returned AST is now ill-typed - see DESIGN.md).
func (c *Context) CoerceExpression(expr ast.Expression, target ast.Type) ast.Expression {
	if expr.ResultType().Equal(target) {
		return expr
	}

	canCoerce := c.CanImplicitlyCoerceExpression(expr, target)

	if canCoerce && expr.ResultType().Kind() == ast.Int && target.Kind() == ast.Float {
		if lit, ok := expr.(*ast.LiteralExpression); ok {
			lit.Value.AsFloat()
			return lit
		}
	}

	if !canCoerce {
		c.loc(expr.Loc()).error("No implicit conversion from '%s' to '%s' exists!",
			expr.ResultType().PrettyString(), target.PrettyString())
		return expr
	}

	return &ast.CastExpression{Location: expr.Loc(), Inner: expr, TargetType: target}
}

// CoerceDefaultValue coerces a default-value literal (for a Variable,
// Property or StructMember) to the declared target type, folding Int→Float
// promotion the same way CoerceExpression does, and allowing `None` as a
// default for Array/Object/Struct-typed declarations.
func (c *Context) CoerceDefaultValue(val ast.Value, target ast.Type) ast.Value {
	if val.Kind() == ast.ValueInvalid || val.Type().Equal(target) {
		return val
	}

	switch target.Kind() {
	case ast.Float:
		if val.Kind() == ast.ValueInt {
			v := val
			v.AsFloat()
			return v
		}
	case ast.Array, ast.ResolvedObject, ast.ResolvedStruct:
		if val.Kind() == ast.ValueNone {
			return val
		}
	}

	c.loc(val.Loc()).error("Cannot initialize a '%s' value with a '%s'!",
		target.PrettyString(), val.Type().PrettyString())
	return val
}
