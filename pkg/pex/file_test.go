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
	"bytes"
	"reflect"
	"testing"
)

func buildSampleFile() *File {
	f := NewFile("MyScript.psc")

	name := f.GetString("MyScript")
	parent := f.GetString("Form")
	fnName := f.GetString("DoThing")
	intType := f.GetString("int")
	selfName := f.GetString("self")

	fn := &Function{
		Name:       fnName,
		ReturnType: intType,
		Instructions: []Instruction{
			{OpCode: OpIAdd, Args: []Value{Identifier(selfName), Integer(1), Integer(2)}},
			{OpCode: OpReturn, Args: []Value{Identifier(selfName)}},
		},
		Locals: []*LocalVariable{{Name: selfName, Type: intType}},
		Debug:  DebugFunctionInfo{InstructionLineMap: []uint16{1, 2}},
	}

	f.Objects = append(f.Objects, &Object{
		Name:       name,
		ParentName: parent,
		States: []*StateInfo{
			{Name: f.GetString(""), Functions: []*Function{fn}},
		},
	})

	return f
}

func TestBinaryWriteReadRoundTrip(t *testing.T) {
	original := buildSampleFile()

	var buf bytes.Buffer
	if err := (BinaryWriter{}).Write(&buf, original); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := (BinaryReader{}).Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if got.Header.Identifier != PexMagic {
		t.Fatalf("magic mismatch: %x", got.Header.Identifier)
	}
	if got.Header.SourceFileName != original.Header.SourceFileName {
		t.Fatalf("SourceFileName = %q, want %q", got.Header.SourceFileName, original.Header.SourceFileName)
	}
	if !reflect.DeepEqual(got.Strings.Strings(), original.Strings.Strings()) {
		t.Fatalf("string table mismatch: got %v, want %v", got.Strings.Strings(), original.Strings.Strings())
	}
	if len(got.Objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(got.Objects))
	}

	gotObj, wantObj := got.Objects[0], original.Objects[0]
	if gotObj.Name != wantObj.Name || gotObj.ParentName != wantObj.ParentName {
		t.Fatalf("object header mismatch: got %+v, want %+v", gotObj, wantObj)
	}
	if len(gotObj.States) != 1 || len(gotObj.States[0].Functions) != 1 {
		t.Fatalf("expected 1 state with 1 function, got %+v", gotObj.States)
	}

	gotFn, wantFn := gotObj.States[0].Functions[0], wantObj.States[0].Functions[0]
	if !reflect.DeepEqual(gotFn.Instructions, wantFn.Instructions) {
		t.Fatalf("instructions mismatch: got %+v, want %+v", gotFn.Instructions, wantFn.Instructions)
	}
	if !reflect.DeepEqual(gotFn.Debug.InstructionLineMap, wantFn.Debug.InstructionLineMap) {
		t.Fatalf("line map mismatch: got %v, want %v", gotFn.Debug.InstructionLineMap, wantFn.Debug.InstructionLineMap)
	}
}

func TestBinaryReadRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("NOTPEX\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")
	if _, err := (BinaryReader{}).Read(buf); err == nil {
		t.Fatalf("expected an error reading a file with a bad magic number")
	}
}

func TestOptionalPropertyFunctionsRoundTrip(t *testing.T) {
	f := NewFile("Prop.psc")
	name := f.GetString("Prop")
	intType := f.GetString("int")

	f.Objects = append(f.Objects, &Object{
		Name: name,
		Properties: []*PropertyInfo{
			{Name: f.GetString("Health"), Type: intType, IsAuto: true, AutoVarName: f.GetString("::Health_var")},
		},
	})

	var buf bytes.Buffer
	if err := (BinaryWriter{}).Write(&buf, f); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := (BinaryReader{}).Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	prop := got.Objects[0].Properties[0]
	if !prop.IsAuto {
		t.Fatalf("expected IsAuto to round-trip true")
	}
	if prop.ReadFunction != nil || prop.WriteFunction != nil {
		t.Fatalf("expected a purely auto property to have nil accessor functions, got %+v", prop)
	}
}
