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

// This file drives the semantic pass over statement and expression trees:
// identifier/type resolution, coercion and poison-checking (spec §4.3,
// §4.4, §4.6). It deliberately stays one layer above bytecode emission
// (pkg/papyrus/emit consumes the already-resolved, already-coerced trees
// this file produces) even though spec §4.6 bundles "expression
// compilation" together - coercion is a resolution concern, emission is
// not.
package resolver

import "github.com/papyrus-lang/pscc/pkg/papyrus/ast"

// ResolveFunctionBody runs the semantic pass over fn's body: enters fn's
// scope (pushing a scope frame, making its parameters and enclosing object
// visible), walks every statement, and restores the previous scope on
// return.
func (c *Context) ResolveFunctionBody(obj *ast.Object, fn *ast.Function) {
	c.SetObject(obj)
	fn.ReturnType = c.ResolveType(fn.ReturnType)
	for _, p := range fn.Parameters {
		p.Type = c.ResolveType(p.Type)
		if p.DefaultValue != nil {
			coerced := c.CoerceDefaultValue(*p.DefaultValue, p.Type)
			p.DefaultValue = &coerced
		}
	}
	if fn.IsNative() {
		return
	}
	exit := c.EnterFunction(fn)
	defer exit()
	c.resolveStatements(fn.Body)
}

func (c *Context) resolveStatements(stmts []ast.Statement) {
	for _, s := range stmts {
		c.ResolveStatement(s)
	}
}

// ResolveStatement dispatches on stmt's concrete type and resolves it in
// place.
func (c *Context) ResolveStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.DeclareStatement:
		s.Type = c.ResolveType(s.Type)
		if s.Initializer != nil {
			s.Initializer = c.ResolveExpression(s.Initializer)
			s.Initializer = c.CoerceExpression(s.Initializer, s.Type)
		}
		c.AddLocalVariable(s)

	case *ast.AssignStatement:
		s.LHS = c.ResolveExpression(s.LHS)
		s.RHS = c.ResolveExpression(s.RHS)
		s.RHS = c.CoerceExpression(s.RHS, s.LHS.ResultType())

	case *ast.ExpressionStatement:
		s.Expr = c.ResolveExpression(s.Expr)

	case *ast.ReturnStatement:
		if s.Value != nil {
			s.Value = c.ResolveExpression(s.Value)
			if c.function != nil {
				s.Value = c.CoerceExpression(s.Value, c.function.ReturnType)
			}
		}

	case *ast.IfStatement:
		for i := range s.Branches {
			s.Branches[i].Condition = c.ResolveExpression(s.Branches[i].Condition)
			s.Branches[i].Condition = c.CoerceExpression(s.Branches[i].Condition, ast.NewBool(s.Branches[i].Condition.Loc()))
			c.PushScope()
			c.resolveStatements(s.Branches[i].Body)
			c.PopScope()
		}
		if s.Else != nil {
			c.PushScope()
			c.resolveStatements(s.Else)
			c.PopScope()
		}

	case *ast.WhileStatement:
		s.Condition = c.ResolveExpression(s.Condition)
		s.Condition = c.CoerceExpression(s.Condition, ast.NewBool(s.Condition.Loc()))
		c.PushScope()
		c.resolveStatements(s.Body)
		c.PopScope()
	}
}

// ResolveExpression dispatches on expr's concrete type, resolving
// identifiers/types and checking poison, and returns the (possibly
// replaced, e.g. literal-promoted or cast-wrapped) expression.
func (c *Context) ResolveExpression(expr ast.Expression) ast.Expression {
	switch e := expr.(type) {
	case *ast.LiteralExpression:
		return e

	case *ast.IdentifierExpression:
		e.Identifier = c.ResolveIdentifier(e.Identifier)
		c.CheckForPoisonExpr(e)
		return e

	case *ast.SelfExpression:
		e.Type = c.ResolveType(e.Type)
		return e

	case *ast.MemberAccessExpression:
		e.Base = c.ResolveExpression(e.Base)
		e.Identifier = c.ResolveMemberIdentifier(e.Base.ResultType(), e.Identifier)
		c.CheckForPoisonExpr(e)
		return e

	case *ast.ArrayIndexExpression:
		e.Base = c.ResolveExpression(e.Base)
		e.Index = c.ResolveExpression(e.Index)
		e.Index = c.CoerceExpression(e.Index, ast.NewInt(e.Index.Loc()))
		e.ElementType = e.Base.ResultType().Element()
		return e

	case *ast.UnaryOpExpression:
		return c.resolveUnaryOp(e)

	case *ast.BinaryOpExpression:
		return c.resolveBinaryOp(e)

	case *ast.CastExpression:
		e.Inner = c.ResolveExpression(e.Inner)
		e.TargetType = c.ResolveType(e.TargetType)
		if !c.CanExplicitlyCast(e.Inner.ResultType(), e.TargetType) {
			c.loc(e.Location).error("No explicit cast from '%s' to '%s' exists!",
				e.Inner.ResultType().PrettyString(), e.TargetType.PrettyString())
		}
		return e

	case *ast.FunctionCallExpression:
		return c.resolveFunctionCall(e)

	default:
		return expr
	}
}

func (c *Context) resolveUnaryOp(e *ast.UnaryOpExpression) ast.Expression {
	e.Operand = c.ResolveExpression(e.Operand)
	if e.Operator == ast.OpNot {
		e.Operand = c.CoerceExpression(e.Operand, ast.NewBool(e.Operand.Loc()))
	} else {
		opType := e.Operand.ResultType()
		if opType.Kind() != ast.Int && opType.Kind() != ast.Float {
			c.loc(e.Location).error("Cannot negate a '%s' value.", opType.PrettyString())
		}
	}
	return e
}

// ladderCommonType implements the String > Bool > Float > (type of left)
// ladder used by ==, !=, + (spec §4.6).
func ladderCommonType(lhs, rhs ast.Type) ast.Type {
	if lhs.Kind() == ast.String || rhs.Kind() == ast.String {
		return ast.NewString(lhs.Loc())
	}
	if lhs.Kind() == ast.Bool || rhs.Kind() == ast.Bool {
		return ast.NewBool(lhs.Loc())
	}
	if lhs.Kind() == ast.Float || rhs.Kind() == ast.Float {
		return ast.NewFloat(lhs.Loc())
	}
	return lhs
}

func (c *Context) resolveBinaryOp(e *ast.BinaryOpExpression) ast.Expression {
	e.LHS = c.ResolveExpression(e.LHS)
	e.RHS = c.ResolveExpression(e.RHS)

	switch e.Operator {
	case ast.OpLogicalAnd, ast.OpLogicalOr:
		e.LHS = c.CoerceExpression(e.LHS, ast.NewBool(e.LHS.Loc()))
		e.RHS = c.CoerceExpression(e.RHS, ast.NewBool(e.RHS.Loc()))
		e.ComputedResultType = ast.NewBool(e.Location)

	case ast.OpCmpEq, ast.OpCmpNeq, ast.OpAdd:
		target := ladderCommonType(e.LHS.ResultType(), e.RHS.ResultType())
		e.LHS = c.CoerceExpression(e.LHS, target)
		e.RHS = c.CoerceExpression(e.RHS, target)
		if e.Operator == ast.OpAdd {
			e.ComputedResultType = target
		} else {
			e.ComputedResultType = ast.NewBool(e.Location)
		}

	case ast.OpCmpLt, ast.OpCmpLte, ast.OpCmpGt, ast.OpCmpGte, ast.OpSub, ast.OpMul, ast.OpDiv:
		target := ladderCommonType(e.LHS.ResultType(), e.RHS.ResultType())
		e.LHS = c.CoerceExpression(e.LHS, target)
		e.RHS = c.CoerceExpression(e.RHS, target)
		if target.Kind() != ast.Int && target.Kind() != ast.Float {
			c.loc(e.Location).error("Operator requires a numeric operand, got '%s'.", target.PrettyString())
		}
		switch e.Operator {
		case ast.OpCmpLt, ast.OpCmpLte, ast.OpCmpGt, ast.OpCmpGte:
			e.ComputedResultType = ast.NewBool(e.Location)
		default:
			e.ComputedResultType = target
		}

	case ast.OpMod:
		target := ladderCommonType(e.LHS.ResultType(), e.RHS.ResultType())
		e.LHS = c.CoerceExpression(e.LHS, target)
		e.RHS = c.CoerceExpression(e.RHS, target)
		if target.Kind() != ast.Int {
			c.loc(e.Location).error("The modulus operator requires Int operands, got '%s'.", target.PrettyString())
		}
		e.ComputedResultType = target
	}

	return e
}

func (c *Context) resolveFunctionCall(e *ast.FunctionCallExpression) ast.Expression {
	baseType := ast.NewNone(e.Location)
	if e.Base != nil {
		e.Base = c.ResolveExpression(e.Base)
		baseType = e.Base.ResultType()
	}

	e.Function = c.ResolveFunctionIdentifier(baseType, e.Function, false)

	for i, arg := range e.Arguments {
		e.Arguments[i] = c.ResolveExpression(arg)
	}

	if e.Function.Kind() == ast.IdentFunction {
		fn := e.Function.Function()
		for i := 0; i < len(e.Arguments) && i < len(fn.Parameters); i++ {
			e.Arguments[i] = c.CoerceExpression(e.Arguments[i], fn.Parameters[i].Type)
		}
		result := fn.ReturnType
		if fn.IsBetaOnly() {
			result = result.Poisoned(ast.PoisonBeta)
		}
		if fn.IsDebugOnly() {
			result = result.Poisoned(ast.PoisonDebug)
		}
		e.ComputedResultType = result
	} else {
		e.ComputedResultType = e.Function.ResultType()
	}

	c.CheckForPoisonExpr(e)
	return e
}
