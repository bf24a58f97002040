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
package pex

// OpCode identifies a target-VM bytecode instruction (spec §6, "Instruction
// encoding": `(opcode: u8, args...)`).
type OpCode uint8

const (
	OpNop OpCode = iota
	OpIAdd
	OpFAdd
	OpISub
	OpFSub
	OpIMul
	OpFMul
	OpIDiv
	OpFDiv
	OpIMod
	OpNot
	OpINeg
	OpFNeg
	OpAssign
	OpCast
	OpCmpEq
	OpCmpLt
	OpCmpLte
	OpCmpGt
	OpCmpGte
	OpJmp
	OpJmpT
	OpJmpF
	OpCallMethod
	OpCallParent
	OpCallStatic
	OpReturn
	OpStrCat
	OpPropGet
	OpPropSet
	OpArrayCreate
	OpArrayLength
	OpArrayGetElement
	OpArraySetElement
	OpArrayFindElement
	OpArrayRFindElement
	OpArrayFindStruct
	OpArrayRFindStruct
	OpArrayAdd
	OpArrayClear
	OpArrayInsert
	OpArrayRemove
	OpArrayRemoveLast
)

// opcodeNames is used for debug-info disassembly and error messages.
var opcodeNames = map[OpCode]string{
	OpNop: "nop", OpIAdd: "iadd", OpFAdd: "fadd", OpISub: "isub", OpFSub: "fsub",
	OpIMul: "imul", OpFMul: "fmul", OpIDiv: "idiv", OpFDiv: "fdiv", OpIMod: "imod",
	OpNot: "not", OpINeg: "ineg", OpFNeg: "fneg", OpAssign: "assign", OpCast: "cast",
	OpCmpEq: "cmp_eq", OpCmpLt: "cmp_lt", OpCmpLte: "cmp_lte", OpCmpGt: "cmp_gt", OpCmpGte: "cmp_gte",
	OpJmp: "jmp", OpJmpT: "jmpt", OpJmpF: "jmpf",
	OpCallMethod: "callmethod", OpCallParent: "callparent", OpCallStatic: "callstatic",
	OpReturn: "return", OpStrCat: "strcat",
	OpPropGet: "propget", OpPropSet: "propset",
	OpArrayCreate: "array_create", OpArrayLength: "array_length",
	OpArrayGetElement: "array_getelement", OpArraySetElement: "array_setelement",
	OpArrayFindElement: "array_find", OpArrayRFindElement: "array_rfind",
	OpArrayFindStruct: "array_findstruct", OpArrayRFindStruct: "array_rfindstruct",
	OpArrayAdd: "array_add", OpArrayClear: "array_clear", OpArrayInsert: "array_insert",
	OpArrayRemove: "array_remove", OpArrayRemoveLast: "array_removelast",
}

// String renders the opcode's mnemonic.
func (o OpCode) String() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return "unknown"
}

// DestArgIndex returns the argument index that is this opcode's
// "destination" slot, or -1 if it has none (spec §4.5, "Destination-slot
// convention"). CallMethod/CallStatic use index 2 (object/function, then
// dest); CallParent uses index 1 (function, then dest); every other
// multi-arg opcode destined to write a result writes to index 0.
func (o OpCode) DestArgIndex() int {
	switch o {
	case OpNop, OpReturn, OpJmp, OpJmpT, OpJmpF,
		OpPropSet, OpArraySetElement, OpArrayClear, OpArrayInsert, OpArrayRemove,
		OpArrayAdd, OpArrayRemoveLast:
		return -1
	case OpCallMethod, OpCallStatic:
		return 2
	case OpCallParent:
		return 1
	default:
		return 0
	}
}
