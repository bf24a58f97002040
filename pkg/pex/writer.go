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
)

// BinaryWriter is the reference Writer implementation: a big-endian, fixed
// wire format mandated by the target VM (spec §6). Every multi-byte
// integer is written big-endian, matching the real Papyrus VM's pex
// format; strings are length-prefixed UTF-8 (spec §6, "string table
// (length-prefixed UTF-8)").
type BinaryWriter struct{}

var _ Writer = BinaryWriter{}

// Write implements Writer.
func (BinaryWriter) Write(w io.Writer, f *File) error {
	bw := &byteWriter{w: w}

	bw.bytes(f.Header.Identifier[:])
	bw.u8(f.Header.MajorVersion)
	bw.u8(f.Header.MinorVersion)
	bw.u16(f.Header.GameID)
	bw.i64(f.Header.SourceModTime)
	bw.str(f.Header.SourceFileName)

	strs := f.Strings.Strings()
	bw.u16(uint16(len(strs)))
	for _, s := range strs {
		bw.str(s)
	}

	bw.u16(uint16(len(f.Header.UserFlagNames)))
	for _, n := range f.Header.UserFlagNames {
		bw.str(n)
	}

	bw.u16(uint16(len(f.Objects)))
	for _, obj := range f.Objects {
		writeObject(bw, obj)
	}

	return bw.err
}

func writeObject(bw *byteWriter, obj *Object) {
	bw.u16(obj.Name)
	bw.u16(obj.ParentName)
	bw.u32(obj.UserFlags)
	bw.i32(int32(obj.AutoStateIdx))

	bw.u16(uint16(len(obj.Variables)))
	for _, v := range obj.Variables {
		bw.u16(v.Name)
		bw.u16(v.Type)
		bw.boolean(v.Const)
	}

	bw.u16(uint16(len(obj.Properties)))
	for _, p := range obj.Properties {
		bw.u16(p.Name)
		bw.u16(p.Type)
		bw.boolean(p.IsAuto)
		bw.u16(p.AutoVarName)
		bw.u32(p.UserFlags)
		writeOptionalFunction(bw, p.ReadFunction)
		writeOptionalFunction(bw, p.WriteFunction)
	}

	bw.u16(uint16(len(obj.States)))
	for _, st := range obj.States {
		bw.u16(st.Name)
		bw.u16(uint16(len(st.Functions)))
		for _, fn := range st.Functions {
			writeFunction(bw, fn)
		}
	}
}

func writeOptionalFunction(bw *byteWriter, fn *Function) {
	if fn == nil {
		bw.boolean(false)
		return
	}
	bw.boolean(true)
	writeFunction(bw, fn)
}

func writeFunction(bw *byteWriter, fn *Function) {
	bw.u16(fn.Name)
	bw.u16(fn.ReturnType)

	bw.u16(uint16(len(fn.Params)))
	for _, p := range fn.Params {
		bw.u16(p.Name)
		bw.u16(p.Type)
	}

	bw.u16(uint16(len(fn.Locals)))
	for _, l := range fn.Locals {
		bw.u16(l.Name)
		bw.u16(l.Type)
	}

	bw.u32(uint32(len(fn.Instructions)))
	for _, instr := range fn.Instructions {
		bw.u8(uint8(instr.OpCode))
		bw.u8(uint8(len(instr.Args)))
		for _, arg := range instr.Args {
			writeValue(bw, arg)
		}
	}

	bw.u16(uint16(len(fn.Debug.InstructionLineMap)))
	for _, line := range fn.Debug.InstructionLineMap {
		bw.u16(line)
	}
}

func writeValue(bw *byteWriter, v Value) {
	bw.u8(uint8(v.Type))
	switch v.Type {
	case ValueIdentifier:
		bw.u16(v.Identifier)
	case ValueInteger:
		bw.i32(v.Integer)
	case ValueFloat:
		bw.f32(v.Float)
	case ValueBool:
		bw.boolean(v.Bool)
	case ValueString:
		bw.u16(v.String)
	case ValueNone, ValueInvalid:
		// No payload.
	default:
		if bw.err == nil {
			bw.err = fmt.Errorf("cannot serialize unresolved operand of type %d", v.Type)
		}
	}
}

// byteWriter accumulates the first error encountered so call sites don't
// need to check every single write.
type byteWriter struct {
	w   io.Writer
	err error
}

func (b *byteWriter) write(p []byte) {
	if b.err != nil {
		return
	}
	_, b.err = b.w.Write(p)
}

func (b *byteWriter) bytes(p []byte) { b.write(p) }

func (b *byteWriter) u8(v uint8) { b.write([]byte{v}) }

func (b *byteWriter) boolean(v bool) {
	if v {
		b.u8(1)
	} else {
		b.u8(0)
	}
}

func (b *byteWriter) u16(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	b.write(buf[:])
}

func (b *byteWriter) u32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	b.write(buf[:])
}

func (b *byteWriter) i32(v int32) { b.u32(uint32(v)) }

func (b *byteWriter) i64(v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	b.write(buf[:])
}

func (b *byteWriter) f32(v float32) {
	b.u32(math.Float32bits(v))
}

func (b *byteWriter) str(s string) {
	b.u16(uint16(len(s)))
	b.write([]byte(s))
}
