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

// Package pex is the binary bytecode (.pex) data model and file format
// (spec §6). The semantic core (pkg/papyrus/resolver, pkg/papyrus/emit)
// depends only on the StringFile interface below and on the Function/
// Instruction/Value types; reading and writing the on-disk format is a
// concrete (but logically external) collaborator implemented in this
// package for completeness, per SPEC_FULL.md §2.
package pex

import "github.com/papyrus-lang/pscc/pkg/pex/intern"

// StringFile is the minimal capability the function builder needs from its
// owning file: a way to intern strings (spec §4.1, §4.5 - temp names like
// "::tempN" are interned the same as any other string).
type StringFile interface {
	GetString(s string) uint16
}

// DebugFunctionInfo carries the per-function debug data emitted alongside a
// Function: the source-line map is indexed in parallel with Instructions
// (spec §4.5, "Source-line mapping").
type DebugFunctionInfo struct {
	InstructionLineMap []uint16
}

// Function is the bytecode body of one compiled Papyrus function, as
// finalized by the function builder's populateFunction (spec §4.5).
type Function struct {
	Name         uint16
	ReturnType   uint16
	Instructions []Instruction
	Locals       []*LocalVariable
	Params       []*LocalVariable
	Debug        DebugFunctionInfo
}

// PropertyInfo is the compiled form of an object property.
type PropertyInfo struct {
	Name          uint16
	Type          uint16
	IsAuto        bool
	AutoVarName   uint16
	ReadFunction  *Function
	WriteFunction *Function
	UserFlags     uint32
}

// VariableInfo is the compiled form of an object instance variable.
type VariableInfo struct {
	Name  uint16
	Type  uint16
	Const bool
}

// StateInfo is the compiled form of a state (a named group of functions).
type StateInfo struct {
	Name      uint16
	Functions []*Function
}

// Object is the compiled form of a Papyrus Object.
type Object struct {
	Name         uint16
	ParentName   uint16 // 0/empty-string index if no parent
	Variables    []*VariableInfo
	Properties   []*PropertyInfo
	States       []*StateInfo
	UserFlags    uint32
	AutoStateIdx int
}

// Header is the fixed-layout prefix of every .pex file (spec §6), modeled
// on the teacher's binfile.Header: a magic identifier, a major/minor
// version pair, and source-file modification time for debug-info
// invalidation.
type Header struct {
	Identifier     [4]byte
	MajorVersion   uint8
	MinorVersion   uint8
	GameID         uint16
	SourceModTime  int64
	SourceFileName string
	UserFlagNames  []string
}

// PexMagic is the 4-byte identifier every .pex file begins with.
var PexMagic = [4]byte{'P', 'E', 'X', '\x00'}

const (
	// MajorVersion is the bytecode format major version this compiler
	// writes (and the only major version it accepts on read).
	MajorVersion = 3
	// MinorVersion is the bytecode format minor version this compiler
	// writes.
	MinorVersion = 9
)

// File is the complete in-memory representation of a compiled .pex: a
// header, a deduplicated string table and one or more compiled Objects
// (spec §6, "Bytecode file (high-level layout)").
type File struct {
	Header  Header
	Strings *intern.Table
	Objects []*Object
}

// NewFile constructs an empty File stamped with the current format
// version and a fresh string table.
func NewFile(sourceFileName string) *File {
	return &File{
		Header: Header{
			Identifier:     PexMagic,
			MajorVersion:   MajorVersion,
			MinorVersion:   MinorVersion,
			SourceFileName: sourceFileName,
		},
		Strings: intern.New(),
	}
}

// GetString implements StringFile.
func (f *File) GetString(s string) uint16 {
	return f.Strings.GetString(s)
}
