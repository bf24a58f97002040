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
	"testing"

	"github.com/papyrus-lang/pscc/pkg/papyrus/ast"
	"github.com/papyrus-lang/pscc/pkg/report"
)

// fakeSink counts diagnostics instead of logging them.
type fakeSink struct {
	warnings, errors, fatals int
}

func (s *fakeSink) Warning(loc report.Location, format string, args ...any) { s.warnings++ }
func (s *fakeSink) Error(loc report.Location, format string, args ...any)   { s.errors++ }
func (s *fakeSink) Fatal(loc report.Location, format string, args ...any)   { s.fatals++ }
func (s *fakeSink) LogicalFatal(loc report.Location, format string, args ...any) {
	s.fatals++
	panic("logical fatal")
}
func (s *fakeSink) HadErrors() bool { return s.errors > 0 || s.fatals > 0 }
func (s *fakeSink) ExitIfErrors(recovered any) bool {
	if recovered != nil {
		panic(recovered)
	}
	return s.HadErrors()
}

func newTestContext() (*Context, *fakeSink) {
	sink := &fakeSink{}
	return NewContext(nil, sink, nil, false), sink
}

var loc = ast.NewLocation("Test.psc", 1, 1)

func TestCanImplicitlyCoerceIntToFloat(t *testing.T) {
	c, _ := newTestContext()
	if !c.CanImplicitlyCoerce(ast.NewInt(loc), ast.NewFloat(loc)) {
		t.Fatalf("expected Int to implicitly coerce to Float")
	}
	if c.CanImplicitlyCoerce(ast.NewFloat(loc), ast.NewInt(loc)) {
		t.Fatalf("expected Float to NOT implicitly coerce to Int (narrowing)")
	}
}

func TestCanImplicitlyCoerceAnyNonNoneToVar(t *testing.T) {
	c, _ := newTestContext()
	if !c.CanImplicitlyCoerce(ast.NewInt(loc), ast.NewVar(loc)) {
		t.Fatalf("expected Int to implicitly coerce to Var")
	}
	if c.CanImplicitlyCoerce(ast.NewNone(loc), ast.NewVar(loc)) {
		t.Fatalf("expected bare None to NOT implicitly coerce to Var")
	}
	arr := ast.NewArray(loc, ast.NewInt(loc))
	if c.CanImplicitlyCoerce(arr, ast.NewVar(loc)) {
		t.Fatalf("expected an Array to NOT implicitly coerce to Var")
	}
}

func TestCanImplicitlyCoerceObjectUpTheInheritanceChain(t *testing.T) {
	c, _ := newTestContext()
	parent := &ast.Object{Name: "Form"}
	child := &ast.Object{Name: "Actor", ParentClass: objType(parent)}

	childType := ast.NewResolvedObject(loc, child)
	parentType := ast.NewResolvedObject(loc, parent)

	if !c.CanImplicitlyCoerce(childType, parentType) {
		t.Fatalf("expected a child object type to implicitly coerce to its parent's type")
	}
	if c.CanImplicitlyCoerce(parentType, childType) {
		t.Fatalf("expected a parent object type to NOT implicitly coerce to its child's type")
	}
}

func objType(o *ast.Object) *ast.Type {
	t := ast.NewResolvedObject(loc, o)
	return &t
}

func TestCanExplicitlyCastDownTheInheritanceChain(t *testing.T) {
	c, _ := newTestContext()
	parent := &ast.Object{Name: "Form"}
	child := &ast.Object{Name: "Actor", ParentClass: objType(parent)}

	childType := ast.NewResolvedObject(loc, child)
	parentType := ast.NewResolvedObject(loc, parent)

	if !c.CanExplicitlyCast(parentType, childType) {
		t.Fatalf("expected an explicit downcast from parent to child to be allowed")
	}
}

func TestCanExplicitlyCastStringToNumeric(t *testing.T) {
	c, _ := newTestContext()
	if !c.CanExplicitlyCast(ast.NewString(loc), ast.NewInt(loc)) {
		t.Fatalf("expected String to be explicitly castable to Int")
	}
	if !c.CanExplicitlyCast(ast.NewString(loc), ast.NewFloat(loc)) {
		t.Fatalf("expected String to be explicitly castable to Float")
	}
}

func TestCanExplicitlyCastRejectsUnrelatedObjects(t *testing.T) {
	c, _ := newTestContext()
	a := ast.NewResolvedObject(loc, &ast.Object{Name: "A"})
	b := ast.NewResolvedObject(loc, &ast.Object{Name: "B"})
	if c.CanExplicitlyCast(a, b) {
		t.Fatalf("expected two unrelated object types to NOT be castable either way")
	}
}

func TestCoerceExpressionFoldsIntLiteralToFloat(t *testing.T) {
	c, sink := newTestContext()
	lit := &ast.LiteralExpression{Location: loc, Value: ast.IntValue(loc, 3)}

	result := c.CoerceExpression(lit, ast.NewFloat(loc))
	if sink.HadErrors() {
		t.Fatalf("unexpected error(s): %d", sink.errors)
	}
	asLit, ok := result.(*ast.LiteralExpression)
	if !ok {
		t.Fatalf("expected the int literal to be folded in place, got %T", result)
	}
	if asLit.Value.Kind() != ast.ValueFloat || asLit.Value.Float() != 3 {
		t.Fatalf("expected the literal to become Float(3), got %+v", asLit.Value)
	}
}

func TestCoerceExpressionWrapsInCastWhenNotConstantFoldable(t *testing.T) {
	c, sink := newTestContext()
	decl := &ast.DeclareStatement{Location: loc, Name: "x", Type: ast.NewInt(loc)}
	id := &ast.IdentifierExpression{Location: loc, Identifier: ast.LocalVariableIdentifier(loc, decl)}

	result := c.CoerceExpression(id, ast.NewFloat(loc))
	if sink.HadErrors() {
		t.Fatalf("unexpected error(s): %d", sink.errors)
	}
	cast, ok := result.(*ast.CastExpression)
	if !ok {
		t.Fatalf("expected a non-literal int->float coercion to be wrapped in a CastExpression, got %T", result)
	}
	if cast.TargetType.Kind() != ast.Float {
		t.Fatalf("expected the cast's target type to be Float")
	}
}

func TestCoerceExpressionReportsErrorOnImpossibleCoercion(t *testing.T) {
	c, sink := newTestContext()
	lit := &ast.LiteralExpression{Location: loc, Value: ast.BoolValue(loc, true)}

	c.CoerceExpression(lit, ast.NewResolvedObject(loc, &ast.Object{Name: "Form"}))
	if sink.errors != 1 {
		t.Fatalf("expected exactly 1 error reported for an impossible coercion, got %d", sink.errors)
	}
}

func TestCoerceExpressionAllowsLiteralNoneIntoObjectTarget(t *testing.T) {
	c, sink := newTestContext()
	noneLit := &ast.LiteralExpression{Location: loc, Value: ast.NoneValue(loc)}
	target := ast.NewResolvedObject(loc, &ast.Object{Name: "Form"})

	result := c.CoerceExpression(noneLit, target)
	if sink.HadErrors() {
		t.Fatalf("expected a literal None to coerce into an Object target without error, got %d error(s)", sink.errors)
	}
	if _, ok := result.(*ast.CastExpression); !ok {
		t.Fatalf("expected the None literal to be wrapped in a cast to the object type, got %T", result)
	}
}

func TestCoerceDefaultValuePromotesIntToFloat(t *testing.T) {
	c, sink := newTestContext()
	got := c.CoerceDefaultValue(ast.IntValue(loc, 7), ast.NewFloat(loc))
	if sink.HadErrors() {
		t.Fatalf("unexpected error(s): %d", sink.errors)
	}
	if got.Kind() != ast.ValueFloat || got.Float() != 7 {
		t.Fatalf("expected the default value to be promoted to Float(7), got %+v", got)
	}
}

func TestCoerceDefaultValueAllowsNoneForObjectTarget(t *testing.T) {
	c, sink := newTestContext()
	got := c.CoerceDefaultValue(ast.NoneValue(loc), ast.NewResolvedObject(loc, &ast.Object{Name: "Form"}))
	if sink.HadErrors() {
		t.Fatalf("unexpected error(s): %d", sink.errors)
	}
	if got.Kind() != ast.ValueNone {
		t.Fatalf("expected the None default to be returned unchanged")
	}
}

func TestCoerceDefaultValueRejectsMismatch(t *testing.T) {
	c, sink := newTestContext()
	c.CoerceDefaultValue(ast.BoolValue(loc, true), ast.NewInt(loc))
	if sink.errors != 1 {
		t.Fatalf("expected exactly 1 error for a Bool default against an Int target, got %d", sink.errors)
	}
}

func TestCheckForPoisonBetaRejectedOutsideBetaContext(t *testing.T) {
	c, sink := newTestContext()
	poisoned := ast.NewInt(loc).Poisoned(ast.PoisonBeta)
	c.CheckForPoisonType(poisoned)
	if sink.errors != 1 {
		t.Fatalf("expected a Beta-poisoned type used outside a BetaOnly context to report 1 error, got %d", sink.errors)
	}
}

func TestCheckForPoisonBetaAllowedInsideBetaOnlyFunction(t *testing.T) {
	c, sink := newTestContext()
	c.function = &ast.Function{Name: "Fn", Flags: ast.FuncBetaOnly}
	poisoned := ast.NewInt(loc).Poisoned(ast.PoisonBeta)
	c.CheckForPoisonType(poisoned)
	if sink.HadErrors() {
		t.Fatalf("expected no error inside a BetaOnly function, got %d error(s)", sink.errors)
	}
}

func TestCheckForPoisonDebugRejectedOutsideDebugContext(t *testing.T) {
	c, sink := newTestContext()
	poisoned := ast.NewInt(loc).Poisoned(ast.PoisonDebug)
	c.CheckForPoisonType(poisoned)
	if sink.errors != 1 {
		t.Fatalf("expected a Debug-poisoned type used outside a DebugOnly context to report 1 error, got %d", sink.errors)
	}
}

func TestCheckForPoisonBothFlagsShortCircuitsOnBetaFailure(t *testing.T) {
	c, sink := newTestContext()
	// DebugOnly context, but the type is poisoned with BOTH flags: the Beta
	// check must fail and report before the (satisfied) Debug check ever runs.
	c.function = &ast.Function{Name: "Fn", Flags: ast.FuncDebugOnly}
	poisoned := ast.NewInt(loc).Poisoned(ast.PoisonBeta | ast.PoisonDebug)
	c.CheckForPoisonType(poisoned)
	if sink.errors != 1 {
		t.Fatalf("expected exactly 1 error (the Beta failure short-circuiting before the Debug check), got %d", sink.errors)
	}
}

func TestCheckForPoisonNeitherFlagReportsNothing(t *testing.T) {
	c, sink := newTestContext()
	c.CheckForPoisonType(ast.NewInt(loc))
	if sink.HadErrors() {
		t.Fatalf("expected an unpoisoned type to report nothing, got %d error(s)", sink.errors)
	}
}
