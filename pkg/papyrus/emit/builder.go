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

// Package emit is the function builder (spec §2 component 6; §4.5): a
// streaming bytecode instruction emitter with a pooled temporary-variable
// allocator, forward-declared/back-patched labels, a per-opcode
// destination-slot convention, and optional dead-assign elimination.
// Grounded line-for-line on Caprica's PexFunctionBuilder.cpp.
package emit

import (
	"fmt"

	"github.com/papyrus-lang/pscc/pkg/pex"
	"github.com/papyrus-lang/pscc/pkg/report"
)

const maxLineNumber = 65535

// Builder accumulates one function's instructions. Not safe for concurrent
// use; the driver constructs one per function being compiled.
type Builder struct {
	file report.Location // carries the file name used in diagnostics
	sink report.Sink

	optimize bool

	instructions []pex.Instruction
	lines        []int
	currentLine  int

	// locals holds every temporary LocalVariable minted so far (declared
	// parameters/locals are tracked separately by the caller and merged in
	// at PopulateFunction).
	locals          []*pex.LocalVariable
	tempVarByName   map[uint16]*pex.LocalVariable
	freeTempsByType map[uint16][]*pex.LocalVariable
	tempCounter     int

	labels []*pex.Label

	stringFile pex.StringFile
}

// NewBuilder constructs an empty Builder for a function in file sourceFile,
// reporting diagnostics through sink. optimize enables dead-assign
// elimination (spec §4.5, "when optimizations are enabled").
func NewBuilder(stringFile pex.StringFile, sink report.Sink, sourceFile string, optimize bool) *Builder {
	return &Builder{
		file:            report.Location{File: sourceFile},
		sink:            sink,
		optimize:        optimize,
		stringFile:      stringFile,
		tempVarByName:   make(map[uint16]*pex.LocalVariable),
		freeTempsByType: make(map[uint16][]*pex.LocalVariable),
	}
}

// SetLine records the source line subsequently pushed instructions should
// be attributed to in the debug-info line map.
func (b *Builder) SetLine(line int) {
	b.currentLine = line
}

// NewLabel forward-declares a label, registering it so PopulateFunction can
// verify it was eventually bound.
func (b *Builder) NewLabel() *pex.Label {
	l := pex.NewLabel()
	b.labels = append(b.labels, l)
	return l
}

// BindLabel binds l to the next instruction index to be pushed (the `<<
// label` operator in spec §4.5).
func (b *Builder) BindLabel(l *pex.Label) {
	l.TargetIdx = len(b.instructions)
}

// AllocTempRef reserves a two-phase temporary-variable reference of the
// given (interned) type. The returned ref is not yet backed by a concrete
// local; Push materializes it the first time it appears in an
// instruction's destination slot (spec §4.5, "two-phase reference").
func (b *Builder) AllocTempRef(typeIdx uint16) *pex.TempVarRef {
	return &pex.TempVarRef{Type: typeIdx}
}

// internalAllocateTempVar returns a previously-freed temp of typeIdx, or
// mints a fresh `::tempN` local, exactly as internalAllocateTempVar does in
// the original.
func (b *Builder) internalAllocateTempVar(typeIdx uint16) *pex.LocalVariable {
	if free := b.freeTempsByType[typeIdx]; len(free) > 0 {
		loc := free[len(free)-1]
		b.freeTempsByType[typeIdx] = free[:len(free)-1]
		return loc
	}

	name := fmt.Sprintf("::temp%d", b.tempCounter)
	b.tempCounter++
	nameIdx := b.stringFile.GetString(name)
	loc := &pex.LocalVariable{Name: nameIdx, Type: typeIdx}
	b.tempVarByName[nameIdx] = loc
	b.locals = append(b.locals, loc)
	return loc
}

// freeValueIfTemp returns v's backing local to the free pool if v names a
// temp (and is not itself a still-unbound TemporaryVar): a temp is freed
// the moment an instruction reads it (spec §4.5).
func (b *Builder) freeValueIfTemp(v pex.Value) {
	if v.Type != pex.ValueIdentifier {
		return
	}
	if loc, ok := b.tempVarByName[v.Identifier]; ok {
		b.freeTempsByType[loc.Type] = append(b.freeTempsByType[loc.Type], loc)
	}
}

// Push pushes instr onto the instruction stream, performing (in order):
// the invalid-value invariant check, temp-var-reference materialization
// (rewriting already-bound TemporaryVar args to Identifier and freeing
// temps read here), destination-slot materialization (binding a still-
// unbound destination TemporaryVar to a concrete local), a used-before-
// bound check, and (if enabled) dead-assign elimination. Grounded
// line-for-line on PexFunctionBuilder::push.
func (b *Builder) Push(instr pex.Instruction) {
	for _, v := range instr.Args {
		if v.Type == pex.ValueInvalid {
			b.fatal("Attempted to use an invalid value as a value! (perhaps you tried to use the return value of a function that doesn't return?)")
			return
		}
	}

	for i, v := range instr.Args {
		if v.Type == pex.ValueTemporaryVar && v.TempVar.Var != nil {
			instr.Args[i] = pex.Identifier(v.TempVar.Var.Name)
		}
		b.freeValueIfTemp(instr.Args[i])
	}

	if destIdx := instr.OpCode.DestArgIndex(); destIdx != -1 && destIdx < len(instr.Args) {
		if arg := instr.Args[destIdx]; arg.Type == pex.ValueTemporaryVar {
			loc := b.internalAllocateTempVar(arg.TempVar.Type)
			arg.TempVar.Var = loc
			instr.Args[destIdx] = pex.Identifier(loc.Name)
		}
	}

	for _, v := range instr.Args {
		if v.Type == pex.ValueTemporaryVar {
			b.fatal("Attempted to use a temporary var before it's been assigned!")
			return
		}
	}

	if b.optimize && instr.OpCode == pex.OpAssign && len(instr.Args) >= 2 {
		if instr.Args[0].IsSameIdentifier(instr.Args[1]) {
			return
		}
	}

	b.lines = append(b.lines, b.currentLine)
	b.instructions = append(b.instructions, instr)
}

func (b *Builder) fatal(format string, args ...any) {
	b.sink.Fatal(b.file, format, args...)
}

// logicalFatal reports a compiler-invariant violation that must abort the
// whole process rather than just this script (spec's finalize-time
// unresolved-label checks below), mirroring CapricaError::logicalFatal's
// no-location overload.
func (b *Builder) logicalFatal(format string, args ...any) {
	b.sink.LogicalFatal(report.Location{}, format, args...)
}

// PopulateFunction finalizes the builder into a *pex.Function: every Label
// argument is patched to a PC-relative signed offset from its referring
// instruction, declaredLocals/params are attached alongside the pooled
// temporaries, and the line map is validated against the u16 overflow
// limit. Grounded on PexFunctionBuilder::populateFunction.
func (b *Builder) PopulateFunction(name, returnType uint16, params, declaredLocals []*pex.LocalVariable) *pex.Function {
	for i := range b.instructions {
		for j, arg := range b.instructions[i].Args {
			if arg.Type != pex.ValueLabel {
				continue
			}
			if !arg.Label.IsBound() {
				b.logicalFatal("Unresolved label!")
				return nil
			}
			offset := int32(arg.Label.TargetIdx - i)
			b.instructions[i].Args[j] = pex.Integer(offset)
		}
	}

	for _, l := range b.labels {
		if !l.IsBound() {
			b.logicalFatal("Unused unresolved label!")
			return nil
		}
	}

	lines := make([]uint16, len(b.lines))
	for i, line := range b.lines {
		if line > maxLineNumber {
			b.fatal("The file has too many lines for the debug info to be able to map correctly!")
			return nil
		}
		lines[i] = uint16(line)
	}

	allLocals := make([]*pex.LocalVariable, 0, len(declaredLocals)+len(b.locals))
	allLocals = append(allLocals, declaredLocals...)
	allLocals = append(allLocals, b.locals...)

	return &pex.Function{
		Name:         name,
		ReturnType:   returnType,
		Instructions: b.instructions,
		Locals:       allLocals,
		Params:       params,
		Debug:        pex.DebugFunctionInfo{InstructionLineMap: lines},
	}
}
