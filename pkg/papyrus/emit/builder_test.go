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
package emit

import (
	"testing"

	"github.com/papyrus-lang/pscc/pkg/pex"
	"github.com/papyrus-lang/pscc/pkg/pex/intern"
	"github.com/papyrus-lang/pscc/pkg/report"
)

// fakeSink records diagnostics instead of logging them, so tests can assert
// on exactly what a builder reported.
type fakeSink struct {
	fatals []string
}

func (s *fakeSink) Warning(loc report.Location, format string, args ...any) {}
func (s *fakeSink) Error(loc report.Location, format string, args ...any)   {}
func (s *fakeSink) Fatal(loc report.Location, format string, args ...any) {
	s.fatals = append(s.fatals, loc.String())
}
func (s *fakeSink) LogicalFatal(loc report.Location, format string, args ...any) {
	s.fatals = append(s.fatals, loc.String())
	panic("logical fatal")
}
func (s *fakeSink) HadErrors() bool { return len(s.fatals) > 0 }
func (s *fakeSink) ExitIfErrors(recovered any) bool {
	if recovered != nil {
		panic(recovered)
	}
	return s.HadErrors()
}

func newTestBuilder(optimize bool) (*Builder, *fakeSink, *intern.Table) {
	strs := intern.New()
	sink := &fakeSink{}
	return NewBuilder(strs, sink, "Test.psc", optimize), sink, strs
}

func TestTempVarPoolReusesFreedSlots(t *testing.T) {
	b, sink, strs := newTestBuilder(false)
	intType := strs.GetString("int")

	a := b.AllocTempRef(intType)
	b.Push(pex.Instruction{OpCode: pex.OpIAdd, Args: []pex.Value{pex.TemporaryVar(a), pex.Integer(1), pex.Integer(2)}})
	firstName := a.Var.Name

	// a is read as a source operand in the next instruction, which frees it
	// back to the pool; a fresh allocation of the same type should recycle
	// the same backing local rather than minting ::temp1.
	b.Push(pex.Instruction{OpCode: pex.OpReturn, Args: []pex.Value{pex.TemporaryVar(a)}})

	c := b.AllocTempRef(intType)
	b.Push(pex.Instruction{OpCode: pex.OpIAdd, Args: []pex.Value{pex.TemporaryVar(c), pex.Integer(3), pex.Integer(4)}})

	if sink.HadErrors() {
		t.Fatalf("unexpected fatal(s): %v", sink.fatals)
	}
	if c.Var == nil {
		t.Fatalf("expected c to be bound to a local by its destination slot")
	}
	if c.Var.Name != firstName {
		t.Fatalf("expected the freed temp (name %d) to be recycled, got a fresh temp (name %d)", firstName, c.Var.Name)
	}
}

func TestDistinctTypesDoNotShareTemps(t *testing.T) {
	b, sink, strs := newTestBuilder(false)
	intType := strs.GetString("int")
	floatType := strs.GetString("float")

	a := b.AllocTempRef(intType)
	b.Push(pex.Instruction{OpCode: pex.OpIAdd, Args: []pex.Value{pex.TemporaryVar(a), pex.Integer(1), pex.Integer(2)}})
	b.Push(pex.Instruction{OpCode: pex.OpReturn, Args: []pex.Value{pex.TemporaryVar(a)}})

	fl := b.AllocTempRef(floatType)
	b.Push(pex.Instruction{OpCode: pex.OpFAdd, Args: []pex.Value{pex.TemporaryVar(fl), pex.Float(1), pex.Float(2)}})

	if sink.HadErrors() {
		t.Fatalf("unexpected fatal(s): %v", sink.fatals)
	}
	if fl.Var.Name == a.Var.Name {
		t.Fatalf("a float temp must not recycle an int temp's backing local")
	}
}

func TestLabelBackpatchedToPCRelativeOffset(t *testing.T) {
	b, sink, strs := newTestBuilder(false)
	boolType := strs.GetString("bool")

	end := b.NewLabel()
	b.Push(pex.Instruction{OpCode: pex.OpJmpF, Args: []pex.Value{pex.Bool(true), pex.LabelRef(end)}})
	b.Push(pex.Instruction{OpCode: pex.OpNop})
	b.BindLabel(end)
	b.Push(pex.Instruction{OpCode: pex.OpReturn})

	fn := b.PopulateFunction(strs.GetString("Fn"), boolType, nil, nil)
	if fn == nil {
		t.Fatalf("PopulateFunction failed: %v", sink.fatals)
	}

	jmp := fn.Instructions[0]
	offsetArg := jmp.Args[1]
	if offsetArg.Type != pex.ValueInteger {
		t.Fatalf("expected the label arg to be rewritten to an integer offset, got %#v", offsetArg)
	}
	if offsetArg.Integer != 2 {
		t.Fatalf("expected a PC-relative offset of 2 (jump instruction index 0 -> target index 2), got %d", offsetArg.Integer)
	}
}

func TestPopulateFunctionFailsOnUnboundLabel(t *testing.T) {
	b, sink, strs := newTestBuilder(false)

	unused := b.NewLabel()
	_ = unused
	b.Push(pex.Instruction{OpCode: pex.OpReturn})

	// An unresolved label at finalize time is a compiler-invariant
	// violation, reported via LogicalFatal, which unwinds via panic rather
	// than returning nil.
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected PopulateFunction to panic for an unbound label")
		}
		if !sink.HadErrors() {
			t.Fatalf("expected a fatal to be reported for the unbound label")
		}
	}()
	b.PopulateFunction(strs.GetString("Fn"), strs.GetString("int"), nil, nil)
}

func TestDeadAssignElimination(t *testing.T) {
	b, sink, strs := newTestBuilder(true)
	intType := strs.GetString("x")

	x := pex.Identifier(intType)
	b.Push(pex.Instruction{OpCode: pex.OpAssign, Args: []pex.Value{x, x}})
	b.Push(pex.Instruction{OpCode: pex.OpReturn})

	fn := b.PopulateFunction(strs.GetString("Fn"), strs.GetString("int"), nil, nil)
	if fn == nil {
		t.Fatalf("PopulateFunction failed: %v", sink.fatals)
	}
	if len(fn.Instructions) != 1 {
		t.Fatalf("expected the self-assignment to be eliminated, got %d instructions: %+v", len(fn.Instructions), fn.Instructions)
	}
	if fn.Instructions[0].OpCode != pex.OpReturn {
		t.Fatalf("expected the surviving instruction to be Return, got %v", fn.Instructions[0].OpCode)
	}
}

func TestDeadAssignKeptWhenOptimizeDisabled(t *testing.T) {
	b, sink, strs := newTestBuilder(false)
	intType := strs.GetString("x")

	x := pex.Identifier(intType)
	b.Push(pex.Instruction{OpCode: pex.OpAssign, Args: []pex.Value{x, x}})

	fn := b.PopulateFunction(strs.GetString("Fn"), strs.GetString("int"), nil, nil)
	if fn == nil {
		t.Fatalf("PopulateFunction failed: %v", sink.fatals)
	}
	if len(fn.Instructions) != 1 {
		t.Fatalf("expected the self-assignment to survive when optimize is false, got %d instructions", len(fn.Instructions))
	}
}

func TestPushRejectsInvalidValue(t *testing.T) {
	b, sink, strs := newTestBuilder(false)
	b.Push(pex.Instruction{OpCode: pex.OpAssign, Args: []pex.Value{pex.Identifier(strs.GetString("x")), pex.Invalid()}})

	if !sink.HadErrors() {
		t.Fatalf("expected pushing an Invalid-typed argument to report a fatal")
	}
}

func TestSourceLineMapTracksSetLine(t *testing.T) {
	b, sink, strs := newTestBuilder(false)

	b.SetLine(5)
	b.Push(pex.Instruction{OpCode: pex.OpNop})
	b.SetLine(7)
	b.Push(pex.Instruction{OpCode: pex.OpReturn})

	fn := b.PopulateFunction(strs.GetString("Fn"), strs.GetString("int"), nil, nil)
	if fn == nil {
		t.Fatalf("PopulateFunction failed: %v", sink.fatals)
	}
	want := []uint16{5, 7}
	got := fn.Debug.InstructionLineMap
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("line map = %v, want %v", got, want)
	}
}
