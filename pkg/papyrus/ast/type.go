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

// Kind enumerates the fundamental shapes a Type can take.
type Kind int

const (
	// None is the type of the `None` literal and of functions with no
	// return value.
	None Kind = iota
	// Bool is the boolean type.
	Bool
	// Int is the 32-bit signed integer type.
	Int
	// Float is the 32-bit floating point type.
	Float
	// String is the interned string type.
	String
	// Var is the dynamically-typed "Var" type.
	Var
	// Array is an array of some non-array, non-None element type.
	Array
	// Unresolved holds a type referred to by name, not yet looked up.
	Unresolved
	// ResolvedObject is a back-reference to a declared Object.
	ResolvedObject
	// ResolvedStruct is a back-reference to a declared Struct.
	ResolvedStruct
	// CustomEventName is the type of a custom event name reference.
	CustomEventName
	// ScriptEventName is the type of a script event name reference.
	ScriptEventName
)

// String renders the kind's name, used in pretty-printed diagnostics.
func (k Kind) String() string {
	switch k {
	case None:
		return "None"
	case Bool:
		return "Bool"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	case Var:
		return "Var"
	case Array:
		return "Array"
	case Unresolved:
		return "Unresolved"
	case ResolvedObject:
		return "Object"
	case ResolvedStruct:
		return "Struct"
	case CustomEventName:
		return "CustomEventName"
	case ScriptEventName:
		return "ScriptEventName"
	default:
		return "?"
	}
}

// Poison is an orthogonal marker restricting the contexts in which a value of
// a poisoned type may be used (see spec §4.3).
type Poison uint8

const (
	// PoisonBeta marks a value produced by a BetaOnly function.
	PoisonBeta Poison = 1 << iota
	// PoisonDebug marks a value produced by a DebugOnly function.
	PoisonDebug
)

// Type is a tagged value describing the static type of an expression,
// variable, parameter or value.  Element types of arrays are boxed behind a
// pointer so that Type remains a small, copyable value for the common
// non-array case.
type Type struct {
	kind     Kind
	location Location
	// name holds the textual type name while kind == Unresolved.
	name string
	// element is the (boxed) element type, valid only when kind == Array.
	element *Type
	// object backs kind == ResolvedObject.
	object *Object
	// strct backs kind == ResolvedStruct.
	strct *Struct
	// poison holds the Beta/Debug poison bits for this type.
	poison Poison
}

// NewNone constructs the None type at the given location.
func NewNone(loc Location) Type { return Type{kind: None, location: loc} }

// NewBool constructs the Bool type at the given location.
func NewBool(loc Location) Type { return Type{kind: Bool, location: loc} }

// NewInt constructs the Int type at the given location.
func NewInt(loc Location) Type { return Type{kind: Int, location: loc} }

// NewFloat constructs the Float type at the given location.
func NewFloat(loc Location) Type { return Type{kind: Float, location: loc} }

// NewString constructs the String type at the given location.
func NewString(loc Location) Type { return Type{kind: String, location: loc} }

// NewVar constructs the Var (dynamic) type at the given location.
func NewVar(loc Location) Type { return Type{kind: Var, location: loc} }

// NewUnresolved constructs a type referred to by name, awaiting resolution.
func NewUnresolved(loc Location, name string) Type {
	return Type{kind: Unresolved, location: loc, name: name}
}

// NewArray constructs an array type wrapping a non-array element type. The
// element type must not itself be Array or None; callers (the parser, or
// resolveType) are responsible for enforcing this per spec §3.
func NewArray(loc Location, element Type) Type {
	e := element
	return Type{kind: Array, location: loc, element: &e}
}

// NewResolvedObject constructs a type bound to a declared Object.
func NewResolvedObject(loc Location, obj *Object) Type {
	return Type{kind: ResolvedObject, location: loc, object: obj}
}

// NewResolvedStruct constructs a type bound to a declared Struct.
func NewResolvedStruct(loc Location, s *Struct) Type {
	return Type{kind: ResolvedStruct, location: loc, strct: s}
}

// NewCustomEventName constructs the CustomEventName type.
func NewCustomEventName(loc Location) Type { return Type{kind: CustomEventName, location: loc} }

// NewScriptEventName constructs the ScriptEventName type.
func NewScriptEventName(loc Location) Type { return Type{kind: ScriptEventName, location: loc} }

// Kind returns this type's kind.
func (t Type) Kind() Kind { return t.kind }

// Loc returns the source location this type was written (or synthesized) at.
func (t Type) Loc() Location { return t.location }

// WithLoc returns a copy of t relocated to loc; used when a resolved type is
// reused at a new syntactic position (e.g. a cast target).
func (t Type) WithLoc(loc Location) Type {
	t.location = loc
	return t
}

// Name returns the unresolved type's textual name. Valid only when
// Kind() == Unresolved.
func (t Type) Name() string { return t.name }

// Element returns the array's element type. Valid only when
// Kind() == Array.
func (t Type) Element() Type {
	if t.element == nil {
		return Type{kind: None, location: t.location}
	}
	return *t.element
}

// Object returns the bound object. Valid only when Kind() == ResolvedObject.
func (t Type) Object() *Object { return t.object }

// Struct returns the bound struct. Valid only when Kind() == ResolvedStruct.
func (t Type) Struct() *Struct { return t.strct }

// IsResolved reports whether this type (and, for arrays, its element) no
// longer carries an Unresolved kind anywhere in its structure.
func (t Type) IsResolved() bool {
	if t.kind == Unresolved {
		return false
	}
	if t.kind == Array {
		return t.Element().IsResolved()
	}
	return true
}

// Poisoned returns a copy of t with the given poison flag added.
func (t Type) Poisoned(p Poison) Type {
	t.poison |= p
	return t
}

// IsPoisoned reports whether t carries the given poison flag.
func (t Type) IsPoisoned(p Poison) bool {
	return t.poison&p != 0
}

// PoisonFlags returns the full poison bitmask carried by t.
func (t Type) PoisonFlags() Poison {
	return t.poison
}

// WithPoisonFrom returns a copy of t with the poison bits of src merged in;
// used to propagate a callee's poisons onto its call-expression's result.
func (t Type) WithPoisonFrom(src Type) Type {
	t.poison |= src.poison
	return t
}

// Equal reports whether two types denote the same static type, ignoring
// location and poison.  Array element types and Unresolved names are
// compared structurally/by name; ResolvedObject/ResolvedStruct compare by
// pointer identity of the bound declaration.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case Array:
		return t.Element().Equal(o.Element())
	case Unresolved:
		return idEq(t.name, o.name)
	case ResolvedObject:
		return t.object == o.object
	case ResolvedStruct:
		return t.strct == o.strct
	default:
		return true
	}
}

// PrettyString renders the type the way diagnostics should quote it.
func (t Type) PrettyString() string {
	switch t.kind {
	case Array:
		return t.Element().PrettyString() + "[]"
	case Unresolved:
		return t.name
	case ResolvedObject:
		if t.object != nil {
			return t.object.Name
		}
		return "Object"
	case ResolvedStruct:
		if t.strct != nil {
			return t.strct.Name
		}
		return "Struct"
	default:
		return t.kind.String()
	}
}

// idEq is case-insensitive identifier equality: Papyrus identifiers
// (including type names) compare case-insensitively everywhere (spec §4.4).
func idEq(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
