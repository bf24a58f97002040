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

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/papyrus-lang/pscc/pkg/pex/intern"
)

// BinaryReader is the reference Reader implementation, the inverse of
// BinaryWriter.
type BinaryReader struct{}

var _ Reader = BinaryReader{}

// Read implements Reader.
func (BinaryReader) Read(r io.Reader) (*File, error) {
	br := &byteReader{r: r}

	f := &File{}
	br.bytes(f.Header.Identifier[:])
	if br.err == nil && f.Header.Identifier != PexMagic {
		return nil, fmt.Errorf("pex: bad magic %x", f.Header.Identifier)
	}
	f.Header.MajorVersion = br.u8()
	f.Header.MinorVersion = br.u8()
	f.Header.GameID = br.u16()
	f.Header.SourceModTime = br.i64()
	f.Header.SourceFileName = br.str()

	strCount := br.u16()
	strs := make([]string, strCount)
	for i := range strs {
		strs[i] = br.str()
	}
	f.Strings = intern.FromStrings(strs)

	flagCount := br.u16()
	f.Header.UserFlagNames = make([]string, flagCount)
	for i := range f.Header.UserFlagNames {
		f.Header.UserFlagNames[i] = br.str()
	}

	objCount := br.u16()
	f.Objects = make([]*Object, objCount)
	for i := range f.Objects {
		f.Objects[i] = readObject(br)
	}

	if br.err != nil {
		return nil, br.err
	}
	if f.Header.MajorVersion != MajorVersion {
		return nil, fmt.Errorf("pex: unsupported major version %d (want %d)", f.Header.MajorVersion, MajorVersion)
	}
	return f, nil
}

func readObject(br *byteReader) *Object {
	obj := &Object{}
	obj.Name = br.u16()
	obj.ParentName = br.u16()
	obj.UserFlags = br.u32()
	obj.AutoStateIdx = int(br.i32())

	varCount := br.u16()
	obj.Variables = make([]*VariableInfo, varCount)
	for i := range obj.Variables {
		obj.Variables[i] = &VariableInfo{Name: br.u16(), Type: br.u16(), Const: br.boolean()}
	}

	propCount := br.u16()
	obj.Properties = make([]*PropertyInfo, propCount)
	for i := range obj.Properties {
		p := &PropertyInfo{}
		p.Name = br.u16()
		p.Type = br.u16()
		p.IsAuto = br.boolean()
		p.AutoVarName = br.u16()
		p.UserFlags = br.u32()
		p.ReadFunction = readOptionalFunction(br)
		p.WriteFunction = readOptionalFunction(br)
		obj.Properties[i] = p
	}

	stateCount := br.u16()
	obj.States = make([]*StateInfo, stateCount)
	for i := range obj.States {
		st := &StateInfo{Name: br.u16()}
		fnCount := br.u16()
		st.Functions = make([]*Function, fnCount)
		for j := range st.Functions {
			st.Functions[j] = readFunction(br)
		}
		obj.States[i] = st
	}

	return obj
}

func readOptionalFunction(br *byteReader) *Function {
	if !br.boolean() {
		return nil
	}
	return readFunction(br)
}

func readFunction(br *byteReader) *Function {
	fn := &Function{}
	fn.Name = br.u16()
	fn.ReturnType = br.u16()

	paramCount := br.u16()
	fn.Params = make([]*LocalVariable, paramCount)
	for i := range fn.Params {
		fn.Params[i] = &LocalVariable{Name: br.u16(), Type: br.u16()}
	}

	localCount := br.u16()
	fn.Locals = make([]*LocalVariable, localCount)
	for i := range fn.Locals {
		fn.Locals[i] = &LocalVariable{Name: br.u16(), Type: br.u16()}
	}

	instrCount := br.u32()
	fn.Instructions = make([]Instruction, instrCount)
	for i := range fn.Instructions {
		op := OpCode(br.u8())
		argCount := int(br.u8())
		args := make([]Value, argCount)
		for j := range args {
			args[j] = readValue(br)
		}
		fn.Instructions[i] = Instruction{OpCode: op, Args: args}
	}

	lineCount := br.u16()
	fn.Debug.InstructionLineMap = make([]uint16, lineCount)
	for i := range fn.Debug.InstructionLineMap {
		fn.Debug.InstructionLineMap[i] = br.u16()
	}

	return fn
}

func readValue(br *byteReader) Value {
	t := ValueType(br.u8())
	switch t {
	case ValueIdentifier:
		return Value{Type: t, Identifier: br.u16()}
	case ValueInteger:
		return Value{Type: t, Integer: br.i32()}
	case ValueFloat:
		return Value{Type: t, Float: br.f32()}
	case ValueBool:
		return Value{Type: t, Bool: br.boolean()}
	case ValueString:
		return Value{Type: t, String: br.u16()}
	case ValueNone, ValueInvalid:
		return Value{Type: t}
	default:
		if br.err == nil {
			br.err = fmt.Errorf("pex: unknown operand tag %d", t)
		}
		return Value{Type: ValueInvalid}
	}
}

// byteReader is the inverse of byteWriter: it accumulates the first error
// encountered and returns zero values thereafter, so call sites can read an
// entire structure unconditionally and check err once at the end.
type byteReader struct {
	r   io.Reader
	err error
}

func (b *byteReader) read(p []byte) {
	if b.err != nil {
		return
	}
	_, b.err = io.ReadFull(b.r, p)
}

func (b *byteReader) bytes(p []byte) { b.read(p) }

func (b *byteReader) u8() uint8 {
	var buf [1]byte
	b.read(buf[:])
	return buf[0]
}

func (b *byteReader) boolean() bool { return b.u8() != 0 }

func (b *byteReader) u16() uint16 {
	var buf [2]byte
	b.read(buf[:])
	return binary.BigEndian.Uint16(buf[:])
}

func (b *byteReader) u32() uint32 {
	var buf [4]byte
	b.read(buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

func (b *byteReader) i32() int32 { return int32(b.u32()) }

func (b *byteReader) i64() int64 {
	var buf [8]byte
	b.read(buf[:])
	return int64(binary.BigEndian.Uint64(buf[:]))
}

func (b *byteReader) f32() float32 { return math.Float32frombits(b.u32()) }

func (b *byteReader) str() string {
	n := b.u16()
	if b.err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	b.read(buf)
	return string(buf)
}
