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
package ast

// Script is one source file's parsed form (spec §3). A Script exclusively
// owns its Objects and all of their descendants; the script cache
// (pkg/papyrus/cache) exclusively owns Scripts themselves.
type Script struct {
	// SourceFileName is the canonicalized path this script was loaded from.
	SourceFileName string
	// Objects declared in this script. In practice exactly one.
	Objects []*Object
}

// RootObject returns the script's single top-level object, or nil if the
// script (erroneously) declares none.
func (s *Script) RootObject() *Object {
	if len(s.Objects) == 0 {
		return nil
	}
	return s.Objects[0]
}

// Object is a class declaration (spec §3): named, optionally inheriting
// from one parent class, owning variables, property groups, structs,
// states and custom events.
type Object struct {
	Location Location
	Name     string
	// ParentClassName is the unresolved textual name of the parent class,
	// as written in source ("" if this object has no parent).
	ParentClassName string
	// ParentClass is filled in during pre-semantic/semantic resolution.
	// Deliberately kept as a *Type* (not *Object directly) to reproduce the
	// open question in spec §9: tryResolveIdentifier's parent-class
	// fallthrough passes this declared type, not a resolved *Object.
	ParentClass *Type

	Variables      []*Variable
	PropertyGroups []*PropertyGroup
	Structs        []*Struct
	States         []*State
	CustomEvents   []*CustomEvent

	UserFlags  uint32
	DocComment string
}

// Loc implements ast.Node.
func (o *Object) Loc() Location { return o.Location }

// Children implements ast.Node.
func (o *Object) Children() []Node {
	var out []Node
	for _, v := range o.Variables {
		out = append(out, v)
	}
	for _, pg := range o.PropertyGroups {
		out = append(out, pg)
	}
	for _, s := range o.Structs {
		out = append(out, s)
	}
	for _, st := range o.States {
		out = append(out, st)
	}
	return out
}

// TryGetParentClass returns the resolved parent Object, or nil if this
// object has no parent, or if the parent hasn't resolved to an object yet.
func (o *Object) TryGetParentClass() *Object {
	if o.ParentClass == nil {
		return nil
	}
	if o.ParentClass.Kind() != ResolvedObject {
		return nil
	}
	return o.ParentClass.Object()
}

// IsBetaOnly reports whether this object carries the BetaOnly user flag.
func (o *Object) IsBetaOnly() bool { return o.UserFlags&UserFlagBetaOnly != 0 }

// IsDebugOnly reports whether this object carries the DebugOnly user flag.
func (o *Object) IsDebugOnly() bool { return o.UserFlags&UserFlagDebugOnly != 0 }

// GetRootState returns the object's anonymous/default state, i.e. the one
// whose Name is "".
func (o *Object) GetRootState() *State {
	for _, s := range o.States {
		if s.Name == "" {
			return s
		}
	}
	return nil
}

// User-flag bits. Only a small subset are meaningful to the core (the rest
// are opaque payload carried through to the pex debug-info block).
const (
	UserFlagHidden uint32 = 1 << iota
	UserFlagConditional
	UserFlagBetaOnly
	UserFlagDebugOnly
)

// Struct is a value-typed record declared inside an Object (spec §3).
type Struct struct {
	Location Location
	Name     string
	Members  []*StructMember
}

// Loc implements ast.Node.
func (s *Struct) Loc() Location { return s.Location }

// Children implements ast.Node.
func (s *Struct) Children() []Node {
	out := make([]Node, len(s.Members))
	for i, m := range s.Members {
		out[i] = m
	}
	return out
}

// StructMember is one field of a Struct.
type StructMember struct {
	Location     Location
	Name         string
	Type         Type
	DefaultValue *Value
}

// Loc implements ast.Node.
func (m *StructMember) Loc() Location { return m.Location }

// Children implements ast.Node. StructMember is a leaf.
func (m *StructMember) Children() []Node { return nil }

// State is a named group of functions within an Object (spec §3); exactly
// one per object (the one named "") is the "root state".
type State struct {
	Location  Location
	Name      string
	Functions []*Function
}

// Loc implements ast.Node.
func (s *State) Loc() Location { return s.Location }

// Children implements ast.Node.
func (s *State) Children() []Node {
	out := make([]Node, len(s.Functions))
	for i, f := range s.Functions {
		out[i] = f
	}
	return out
}

// FunctionFlags is a bitmask of the flags attached to a Function (spec §3).
type FunctionFlags uint8

const (
	// FuncGlobal marks a function that cannot reference `self` or any
	// non-global member.
	FuncGlobal FunctionFlags = 1 << iota
	// FuncNative marks a function with no Papyrus-level body.
	FuncNative
	// FuncBetaOnly marks a function only callable in beta-only contexts.
	FuncBetaOnly
	// FuncDebugOnly marks a function only callable in debug-only contexts.
	FuncDebugOnly
	// FuncEvent marks a function as an event handler.
	FuncEvent
)

// Function is a callable member of a State (spec §3).
type Function struct {
	Location   Location
	Name       string
	ReturnType Type
	Parameters []*Parameter
	Body       []Statement
	Flags      FunctionFlags
	// OwningState is filled in by the parser/pre-semantic pass.
	OwningState *State
	DocComment  string
}

// Loc implements ast.Node.
func (f *Function) Loc() Location { return f.Location }

// Children implements ast.Node.
func (f *Function) Children() []Node {
	out := make([]Node, 0, len(f.Parameters)+len(f.Body))
	for _, p := range f.Parameters {
		out = append(out, p)
	}
	for _, s := range f.Body {
		out = append(out, s)
	}
	return out
}

// IsGlobal reports whether this is a global function.
func (f *Function) IsGlobal() bool { return f.Flags&FuncGlobal != 0 }

// IsNative reports whether this function has no Papyrus body.
func (f *Function) IsNative() bool { return f.Flags&FuncNative != 0 }

// IsBetaOnly reports whether this function is BetaOnly.
func (f *Function) IsBetaOnly() bool { return f.Flags&FuncBetaOnly != 0 }

// IsDebugOnly reports whether this function is DebugOnly.
func (f *Function) IsDebugOnly() bool { return f.Flags&FuncDebugOnly != 0 }

// IsEvent reports whether this function is an event handler.
func (f *Function) IsEvent() bool { return f.Flags&FuncEvent != 0 }

// Parameter is one formal parameter of a Function (spec §3).
type Parameter struct {
	Location     Location
	Name         string
	Type         Type
	DefaultValue *Value
}

// Loc implements ast.Node.
func (p *Parameter) Loc() Location { return p.Location }

// Children implements ast.Node. Parameter is a leaf.
func (p *Parameter) Children() []Node { return nil }

// Property is a named accessor/field on an Object (spec §3).
type Property struct {
	Location      Location
	Name          string
	Type          Type
	IsAuto        bool
	DefaultValue  *Value
	ReadFunction  *Function
	WriteFunction *Function
	UserFlags     uint32
	DocComment    string
}

// Loc implements ast.Node.
func (p *Property) Loc() Location { return p.Location }

// Children implements ast.Node.
func (p *Property) Children() []Node {
	var out []Node
	if p.ReadFunction != nil {
		out = append(out, p.ReadFunction)
	}
	if p.WriteFunction != nil {
		out = append(out, p.WriteFunction)
	}
	return out
}

// PropertyGroup groups Properties under shared metadata (spec §3). Property
// names are unique across groups within an Object, even though each group
// owns only pointers to properties (the properties themselves are owned by
// the enclosing Object).
type PropertyGroup struct {
	Location   Location
	Name       string
	Properties []*Property
	UserFlags  uint32
	DocComment string
}

// Loc implements ast.Node.
func (g *PropertyGroup) Loc() Location { return g.Location }

// Children implements ast.Node.
func (g *PropertyGroup) Children() []Node {
	out := make([]Node, len(g.Properties))
	for i, p := range g.Properties {
		out[i] = p
	}
	return out
}

// Variable is an object (instance) field (spec §3, "Object" row).
type Variable struct {
	Location     Location
	Name         string
	Type         Type
	DefaultValue *Value
	IsConst      bool
}

// Loc implements ast.Node.
func (v *Variable) Loc() Location { return v.Location }

// Children implements ast.Node. Variable is a leaf.
func (v *Variable) Children() []Node { return nil }

// CustomEvent is a named event an Object may fire (spec §3).
type CustomEvent struct {
	Location Location
	Name     string
}

// Loc implements ast.Node.
func (c *CustomEvent) Loc() Location { return c.Location }

// Children implements ast.Node. CustomEvent is a leaf.
func (c *CustomEvent) Children() []Node { return nil }
