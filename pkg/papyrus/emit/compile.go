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

// This file is the opcode-selection half of spec §4.6: it walks a function
// body whose expressions and statements have already been resolved and
// coerced by pkg/papyrus/resolver, and drives a Builder to emit
// instructions for it. Nothing here resolves an identifier, checks a
// coercion rule, or reports a type error - by the time a tree reaches
// FunctionCompiler every one of those questions has already been answered.
//
// Struct-member access is emitted as an identifier operand holding the
// member's bare name rather than via a dedicated struct-get/struct-set
// opcode pair; the base is not encoded in that operand. The filtered
// original_source/ pack doesn't carry the struct-access instruction
// definitions, so this is a scoping simplification rather than a
// reproduction of the real ISA (see DESIGN.md).
package emit

import (
	"github.com/papyrus-lang/pscc/pkg/papyrus/ast"
	"github.com/papyrus-lang/pscc/pkg/pex"
)

// FunctionCompiler drives a Builder over one function's already-resolved
// body.
type FunctionCompiler struct {
	*Builder
}

// NewFunctionCompiler constructs a FunctionCompiler over a fresh Builder.
func NewFunctionCompiler(b *Builder) *FunctionCompiler {
	return &FunctionCompiler{Builder: b}
}

// TypeName renders t the way the pex format names a type: the bare kind
// name for primitives, the declared Object/Struct name for resolved
// references, and element-name + "[]" for arrays - matching how Caprica
// writes PapyrusType::name() into the binary file's type-name slots.
// Exported so pkg/papyrus/driver can use the same naming when assembling
// property/variable/parameter type slots outside of a function body.
func TypeName(t ast.Type) string {
	switch t.Kind() {
	case ast.None:
		return "None"
	case ast.Bool:
		return "Bool"
	case ast.Int:
		return "Int"
	case ast.Float:
		return "Float"
	case ast.String:
		return "String"
	case ast.Var:
		return "Var"
	case ast.Array:
		return TypeName(t.Element()) + "[]"
	case ast.ResolvedObject:
		if obj := t.Object(); obj != nil {
			return obj.Name
		}
		return "Object"
	case ast.ResolvedStruct:
		if s := t.Struct(); s != nil {
			return s.Name
		}
		return "Struct"
	default:
		return "None"
	}
}

func (c *FunctionCompiler) typeIdx(t ast.Type) uint16 {
	return c.stringFile.GetString(TypeName(t))
}

// str interns s as a String-kind operand, used for the method/property-name
// arguments CallMethod/CallStatic/CallParent/PropGet/PropSet instructions
// carry alongside their variable operands.
func (c *FunctionCompiler) str(s string) pex.Value {
	return pex.String(c.stringFile.GetString(s))
}

func (c *FunctionCompiler) literalValue(lit ast.Value) pex.Value {
	switch lit.Kind() {
	case ast.ValueNone:
		return pex.NoneValue()
	case ast.ValueBool:
		return pex.Bool(lit.Bool())
	case ast.ValueInt:
		return pex.Integer(lit.Int())
	case ast.ValueFloat:
		return pex.Float(lit.Float())
	case ast.ValueString:
		return pex.String(c.stringFile.GetString(lit.Str()))
	default:
		return pex.Invalid()
	}
}

// identName returns the storage-slot name an already-resolved,
// directly-addressable identifier (local, parameter, instance variable, or
// struct member) is known by at the VM level.
func identName(id ast.Identifier) (string, bool) {
	switch id.Kind() {
	case ast.IdentLocalVariable, ast.IdentParameter, ast.IdentVariable, ast.IdentStructMember:
		return id.Name(), true
	case ast.IdentBuiltinStateField:
		return "::state", true
	default:
		return "", false
	}
}

// loadExpr compiles e and returns a Value usable directly as an
// instruction operand: a literal, a directly-addressable identifier, or
// (for anything requiring computation) a fresh temp populated by one or
// more emitted instructions.
func (c *FunctionCompiler) loadExpr(e ast.Expression) pex.Value {
	switch ex := e.(type) {
	case *ast.LiteralExpression:
		return c.literalValue(ex.Value)

	case *ast.IdentifierExpression:
		return c.loadIdentifier(ex.Identifier, ex.Location)

	case *ast.SelfExpression:
		return pex.Identifier(c.stringFile.GetString("self"))

	case *ast.MemberAccessExpression:
		return c.loadMemberAccess(ex)

	case *ast.ArrayIndexExpression:
		base := c.loadExpr(ex.Base)
		idx := c.loadExpr(ex.Index)
		dst := c.AllocTempRef(c.typeIdx(ex.ElementType))
		c.Push(pex.Instruction{OpCode: pex.OpArrayGetElement, Args: []pex.Value{pex.TemporaryVar(dst), base, idx}})
		return pex.TemporaryVar(dst)

	case *ast.UnaryOpExpression:
		return c.loadUnaryOp(ex)

	case *ast.BinaryOpExpression:
		return c.loadBinaryOp(ex)

	case *ast.CastExpression:
		inner := c.loadExpr(ex.Inner)
		dst := c.AllocTempRef(c.typeIdx(ex.TargetType))
		c.Push(pex.Instruction{OpCode: pex.OpCast, Args: []pex.Value{pex.TemporaryVar(dst), inner}})
		return pex.TemporaryVar(dst)

	case *ast.FunctionCallExpression:
		return c.loadFunctionCall(ex)

	default:
		return pex.Invalid()
	}
}

func (c *FunctionCompiler) loadIdentifier(id ast.Identifier, loc ast.Location) pex.Value {
	if name, ok := identName(id); ok {
		return pex.Identifier(c.stringFile.GetString(name))
	}
	if id.Kind() == ast.IdentProperty {
		prop := id.Property()
		dst := c.AllocTempRef(c.typeIdx(prop.Type))
		c.Push(pex.Instruction{
			OpCode: pex.OpPropGet,
			Args:   []pex.Value{pex.TemporaryVar(dst), c.str(prop.Name)},
		})
		return pex.TemporaryVar(dst)
	}
	return pex.Invalid()
}

// loadMemberAccess handles `base.ident`: a property read goes through
// PropGet (reproducing the accessor-method semantics properties have even
// when auto-generated); a struct-member read loads the base and then yields
// an identifier naming only the member (see the package doc comment).
func (c *FunctionCompiler) loadMemberAccess(e *ast.MemberAccessExpression) pex.Value {
	if e.Identifier.Kind() == ast.IdentProperty {
		baseVal := c.loadExpr(e.Base)
		prop := e.Identifier.Property()
		dst := c.AllocTempRef(c.typeIdx(prop.Type))
		c.Push(pex.Instruction{
			OpCode: pex.OpPropGet,
			Args:   []pex.Value{pex.TemporaryVar(dst), baseVal, c.str(prop.Name)},
		})
		return pex.TemporaryVar(dst)
	}
	if e.Identifier.Kind() == ast.IdentStructMember {
		baseVal := c.loadExpr(e.Base)
		if baseVal.Type == pex.ValueIdentifier {
			dotted := c.stringFile.GetString(c.memberDottedName(baseVal, e.Identifier.Name()))
			return pex.Identifier(dotted)
		}
	}
	return c.loadIdentifier(e.Identifier, e.Location)
}

// memberDottedName is a placeholder seam: it returns member unchanged and
// ignores base. Building a "base.member" name would need the base's text,
// and StringFile only maps text to an index, not back. No later stage
// rewrites the returned name.
func (c *FunctionCompiler) memberDottedName(base pex.Value, member string) string {
	return member
}

func (c *FunctionCompiler) storeTo(lhs ast.Expression, val pex.Value) {
	switch ex := lhs.(type) {
	case *ast.IdentifierExpression:
		c.storeIdentifier(ex.Identifier, val)
	case *ast.MemberAccessExpression:
		if ex.Identifier.Kind() == ast.IdentProperty {
			baseVal := c.loadExpr(ex.Base)
			prop := ex.Identifier.Property()
			c.Push(pex.Instruction{OpCode: pex.OpPropSet, Args: []pex.Value{baseVal, c.str(prop.Name), val}})
			return
		}
		c.storeIdentifier(ex.Identifier, val)
	case *ast.ArrayIndexExpression:
		base := c.loadExpr(ex.Base)
		idx := c.loadExpr(ex.Index)
		c.Push(pex.Instruction{OpCode: pex.OpArraySetElement, Args: []pex.Value{base, idx, val}})
	}
}

func (c *FunctionCompiler) storeIdentifier(id ast.Identifier, val pex.Value) {
	if id.Kind() == ast.IdentProperty {
		prop := id.Property()
		c.Push(pex.Instruction{OpCode: pex.OpPropSet, Args: []pex.Value{c.str(prop.Name), val}})
		return
	}
	if name, ok := identName(id); ok {
		dst := pex.Identifier(c.stringFile.GetString(name))
		c.Push(pex.Instruction{OpCode: pex.OpAssign, Args: []pex.Value{dst, val}})
	}
}

func (c *FunctionCompiler) loadUnaryOp(e *ast.UnaryOpExpression) pex.Value {
	operand := c.loadExpr(e.Operand)
	op := pex.OpINeg
	if e.Operand.ResultType().Kind() == ast.Float {
		op = pex.OpFNeg
	}
	if e.Operator == ast.OpNot {
		dst := c.AllocTempRef(c.typeIdx(e.ResultType()))
		c.Push(pex.Instruction{OpCode: pex.OpNot, Args: []pex.Value{pex.TemporaryVar(dst), operand}})
		return pex.TemporaryVar(dst)
	}
	dst := c.AllocTempRef(c.typeIdx(e.ResultType()))
	c.Push(pex.Instruction{OpCode: op, Args: []pex.Value{pex.TemporaryVar(dst), operand}})
	return pex.TemporaryVar(dst)
}

// arithOpCode picks the float/int variant of an arithmetic opcode based on
// the (already-coerced, so LHS and RHS share one type) operand type.
func arithOpCode(operator ast.BinaryOperator, operandKind ast.Kind) pex.OpCode {
	isFloat := operandKind == ast.Float
	switch operator {
	case ast.OpAdd:
		if isFloat {
			return pex.OpFAdd
		}
		return pex.OpIAdd
	case ast.OpSub:
		if isFloat {
			return pex.OpFSub
		}
		return pex.OpISub
	case ast.OpMul:
		if isFloat {
			return pex.OpFMul
		}
		return pex.OpIMul
	case ast.OpDiv:
		if isFloat {
			return pex.OpFDiv
		}
		return pex.OpIDiv
	case ast.OpMod:
		return pex.OpIMod
	default:
		return pex.OpNop
	}
}

func cmpOpCode(operator ast.BinaryOperator) (pex.OpCode, bool) {
	switch operator {
	case ast.OpCmpLt:
		return pex.OpCmpLt, false
	case ast.OpCmpLte:
		return pex.OpCmpLte, false
	case ast.OpCmpGt:
		return pex.OpCmpGt, false
	case ast.OpCmpGte:
		return pex.OpCmpGte, false
	default:
		return pex.OpCmpEq, false
	}
}

// loadBinaryOp emits &&/|| with short-circuit control flow (spec §4.6,
// "short-circuit evaluation"): the RHS is only evaluated when the LHS
// doesn't already decide the result. Every other operator is a single
// instruction over both (already ladder-coerced) operands.
func (c *FunctionCompiler) loadBinaryOp(e *ast.BinaryOpExpression) pex.Value {
	switch e.Operator {
	case ast.OpLogicalAnd:
		return c.loadShortCircuit(e, false)
	case ast.OpLogicalOr:
		return c.loadShortCircuit(e, true)
	}

	lhs := c.loadExpr(e.LHS)
	rhs := c.loadExpr(e.RHS)
	operandKind := e.LHS.ResultType().Kind()
	dst := c.AllocTempRef(c.typeIdx(e.ResultType()))

	switch e.Operator {
	case ast.OpCmpEq, ast.OpCmpNeq:
		c.Push(pex.Instruction{OpCode: pex.OpCmpEq, Args: []pex.Value{pex.TemporaryVar(dst), lhs, rhs}})
		if e.Operator == ast.OpCmpNeq {
			// A fresh destination for Not: dst was already consumed (and
			// thus freed) as CmpEq's own destination-turned-source read
			// here, and reusing the same ref instead of allocating a new
			// one would let the pool recycle it out from under this value
			// before the caller gets to read it.
			negated := c.AllocTempRef(c.typeIdx(e.ResultType()))
			c.Push(pex.Instruction{OpCode: pex.OpNot, Args: []pex.Value{pex.TemporaryVar(negated), pex.TemporaryVar(dst)}})
			return pex.TemporaryVar(negated)
		}

	case ast.OpCmpLt, ast.OpCmpLte, ast.OpCmpGt, ast.OpCmpGte:
		op, reversed := cmpOpCode(e.Operator)
		if reversed {
			c.Push(pex.Instruction{OpCode: op, Args: []pex.Value{pex.TemporaryVar(dst), rhs, lhs}})
		} else {
			c.Push(pex.Instruction{OpCode: op, Args: []pex.Value{pex.TemporaryVar(dst), lhs, rhs}})
		}

	case ast.OpAdd:
		if operandKind == ast.String {
			c.Push(pex.Instruction{OpCode: pex.OpStrCat, Args: []pex.Value{pex.TemporaryVar(dst), lhs, rhs}})
		} else {
			c.Push(pex.Instruction{OpCode: arithOpCode(e.Operator, operandKind), Args: []pex.Value{pex.TemporaryVar(dst), lhs, rhs}})
		}

	default: // Sub, Mul, Div, Mod
		c.Push(pex.Instruction{OpCode: arithOpCode(e.Operator, operandKind), Args: []pex.Value{pex.TemporaryVar(dst), lhs, rhs}})
	}

	return pex.TemporaryVar(dst)
}

// loadShortCircuit emits: evaluate LHS into dst; if LHS already decides the
// result (true for ||, false for &&), jump over RHS; otherwise evaluate RHS
// into dst too.
func (c *FunctionCompiler) loadShortCircuit(e *ast.BinaryOpExpression, shortCircuitOn bool) pex.Value {
	dst := c.AllocTempRef(c.typeIdx(e.ResultType()))
	lhs := c.loadExpr(e.LHS)
	c.Push(pex.Instruction{OpCode: pex.OpAssign, Args: []pex.Value{pex.TemporaryVar(dst), lhs}})

	skip := c.NewLabel()
	jumpOp := pex.OpJmpF
	if shortCircuitOn {
		jumpOp = pex.OpJmpT
	}
	c.Push(pex.Instruction{OpCode: jumpOp, Args: []pex.Value{pex.TemporaryVar(dst), pex.LabelRef(skip)}})

	rhs := c.loadExpr(e.RHS)
	c.Push(pex.Instruction{OpCode: pex.OpAssign, Args: []pex.Value{pex.TemporaryVar(dst), rhs}})
	c.BindLabel(skip)

	return pex.TemporaryVar(dst)
}

func (c *FunctionCompiler) loadFunctionCall(e *ast.FunctionCallExpression) pex.Value {
	if e.Function.Kind() == ast.IdentArrayFunction {
		return c.loadArrayFunctionCall(e)
	}

	fn := e.Function.Function()
	args := make([]pex.Value, len(e.Arguments))
	for i, a := range e.Arguments {
		args[i] = c.loadExpr(a)
	}

	// A void call returns Invalid to its caller but still fills its
	// destination operand, with a None literal.
	var dst pex.Value = pex.Invalid()
	destArg := pex.NoneValue()
	if fn.ReturnType.Kind() != ast.None {
		ref := c.AllocTempRef(c.typeIdx(e.ComputedResultType))
		dst = pex.TemporaryVar(ref)
		destArg = dst
	}

	switch {
	case e.Base != nil:
		base := c.loadExpr(e.Base)
		instrArgs := append([]pex.Value{base, c.str(fn.Name), destArg}, args...)
		c.Push(pex.Instruction{OpCode: pex.OpCallMethod, Args: instrArgs})

	case fn.IsGlobal():
		// CallStatic's first operand is always the identifier `self`; the
		// object the global function is declared on is not named, since
		// ast.Function carries no link to its owning object. DestArgIndex (2)
		// expects this operand ahead of the name/dest pair, matching
		// CallMethod's shape.
		instrArgs := append([]pex.Value{pex.Identifier(c.stringFile.GetString("self")), c.str(fn.Name), destArg}, args...)
		c.Push(pex.Instruction{OpCode: pex.OpCallStatic, Args: instrArgs})

	default:
		instrArgs := append([]pex.Value{c.str(fn.Name), destArg}, args...)
		c.Push(pex.Instruction{OpCode: pex.OpCallParent, Args: instrArgs})
	}

	return dst
}

func (c *FunctionCompiler) loadArrayFunctionCall(e *ast.FunctionCallExpression) pex.Value {
	base := c.loadExpr(e.Base)
	args := make([]pex.Value, len(e.Arguments))
	for i, a := range e.Arguments {
		args[i] = c.loadExpr(a)
	}

	op, hasDest := arrayOpCode(e.Function.ArrayFunctionKind())
	var dst pex.Value = pex.Invalid()
	instrArgs := []pex.Value{base}
	if hasDest {
		ref := c.AllocTempRef(c.typeIdx(e.ComputedResultType))
		dst = pex.TemporaryVar(ref)
		instrArgs = []pex.Value{dst, base}
	}
	instrArgs = append(instrArgs, args...)
	c.Push(pex.Instruction{OpCode: op, Args: instrArgs})
	return dst
}

func arrayOpCode(kind ast.ArrayFunctionKind) (pex.OpCode, bool) {
	switch kind {
	case ast.ArrayFunctionFind:
		return pex.OpArrayFindElement, true
	case ast.ArrayFunctionFindStruct:
		return pex.OpArrayFindStruct, true
	case ast.ArrayFunctionRFind:
		return pex.OpArrayRFindElement, true
	case ast.ArrayFunctionRFindStruct:
		return pex.OpArrayRFindStruct, true
	case ast.ArrayFunctionAdd:
		return pex.OpArrayAdd, false
	case ast.ArrayFunctionClear:
		return pex.OpArrayClear, false
	case ast.ArrayFunctionInsert:
		return pex.OpArrayInsert, false
	case ast.ArrayFunctionRemove:
		return pex.OpArrayRemove, false
	case ast.ArrayFunctionRemoveLast:
		return pex.OpArrayRemoveLast, false
	default:
		return pex.OpNop, false
	}
}

// CompileStatements emits instructions for every statement in stmts, in
// order.
func (c *FunctionCompiler) CompileStatements(stmts []ast.Statement) {
	for _, s := range stmts {
		c.CompileStatement(s)
	}
}

// CompileStatement emits instructions for one already-resolved statement.
func (c *FunctionCompiler) CompileStatement(stmt ast.Statement) {
	c.SetLine(stmt.Loc().Line)

	switch s := stmt.(type) {
	case *ast.DeclareStatement:
		name := c.stringFile.GetString(s.Name)
		if s.Initializer != nil {
			val := c.loadExpr(s.Initializer)
			c.Push(pex.Instruction{OpCode: pex.OpAssign, Args: []pex.Value{pex.Identifier(name), val}})
		}

	case *ast.AssignStatement:
		val := c.loadExpr(s.RHS)
		c.storeTo(s.LHS, val)

	case *ast.ExpressionStatement:
		c.loadExpr(s.Expr)

	case *ast.ReturnStatement:
		if s.Value == nil {
			c.Push(pex.Instruction{OpCode: pex.OpReturn, Args: []pex.Value{pex.NoneValue()}})
			return
		}
		val := c.loadExpr(s.Value)
		c.Push(pex.Instruction{OpCode: pex.OpReturn, Args: []pex.Value{val}})

	case *ast.IfStatement:
		c.compileIf(s)

	case *ast.WhileStatement:
		c.compileWhile(s)
	}
}

func (c *FunctionCompiler) compileIf(s *ast.IfStatement) {
	end := c.NewLabel()
	for _, branch := range s.Branches {
		cond := c.loadExpr(branch.Condition)
		next := c.NewLabel()
		c.Push(pex.Instruction{OpCode: pex.OpJmpF, Args: []pex.Value{cond, pex.LabelRef(next)}})
		c.CompileStatements(branch.Body)
		c.Push(pex.Instruction{OpCode: pex.OpJmp, Args: []pex.Value{pex.LabelRef(end)}})
		c.BindLabel(next)
	}
	if s.Else != nil {
		c.CompileStatements(s.Else)
	}
	c.BindLabel(end)
}

func (c *FunctionCompiler) compileWhile(s *ast.WhileStatement) {
	top := c.NewLabel()
	end := c.NewLabel()
	c.BindLabel(top)
	cond := c.loadExpr(s.Condition)
	c.Push(pex.Instruction{OpCode: pex.OpJmpF, Args: []pex.Value{cond, pex.LabelRef(end)}})
	c.CompileStatements(s.Body)
	c.Push(pex.Instruction{OpCode: pex.OpJmp, Args: []pex.Value{pex.LabelRef(top)}})
	c.BindLabel(end)
}
