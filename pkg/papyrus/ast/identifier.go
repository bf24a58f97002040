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

// IdentifierKind enumerates what an Identifier has been resolved to refer
// to (spec §3, "Identifier").
type IdentifierKind int

const (
	// IdentUnresolved identifiers carry only their text.
	IdentUnresolved IdentifierKind = iota
	// IdentLocalVariable resolves to the DeclareStatement that introduced it.
	IdentLocalVariable
	// IdentParameter resolves to a function Parameter.
	IdentParameter
	// IdentVariable resolves to an object (instance) Variable.
	IdentVariable
	// IdentProperty resolves to a Property.
	IdentProperty
	// IdentFunction resolves to a Function.
	IdentFunction
	// IdentStructMember resolves to a StructMember.
	IdentStructMember
	// IdentBuiltinStateField is the special `__state` identifier visible
	// only inside `GetState`/`GoToState`.
	IdentBuiltinStateField
	// IdentArrayFunction resolves to one of the builtin array methods
	// (Find, Add, ...), carrying the element type it operates over.
	IdentArrayFunction
)

// ArrayFunctionKind enumerates the builtin methods recognized on array
// expressions (spec §4.4).
type ArrayFunctionKind int

const (
	// ArrayFunctionUnknown marks a name that isn't a recognized builtin.
	ArrayFunctionUnknown ArrayFunctionKind = iota
	ArrayFunctionFind
	ArrayFunctionFindStruct
	ArrayFunctionRFind
	ArrayFunctionRFindStruct
	ArrayFunctionAdd
	ArrayFunctionClear
	ArrayFunctionInsert
	ArrayFunctionRemove
	ArrayFunctionRemoveLast
)

// arrayFunctionNames maps each case-insensitively matched builtin array
// function name (lower-cased) to its kind.
var arrayFunctionNames = map[string]ArrayFunctionKind{
	"find":        ArrayFunctionFind,
	"findstruct":  ArrayFunctionFindStruct,
	"rfind":       ArrayFunctionRFind,
	"rfindstruct": ArrayFunctionRFindStruct,
	"add":         ArrayFunctionAdd,
	"clear":       ArrayFunctionClear,
	"insert":      ArrayFunctionInsert,
	"remove":      ArrayFunctionRemove,
	"removelast":  ArrayFunctionRemoveLast,
}

// LookupArrayFunction maps a (case-insensitive) method name to its builtin
// array function kind, returning ArrayFunctionUnknown if name isn't one of
// the recognized builtins.
func LookupArrayFunction(name string) ArrayFunctionKind {
	for n, k := range arrayFunctionNames {
		if idEq(n, name) {
			return k
		}
	}
	return ArrayFunctionUnknown
}

// Identifier is a name annotated with what it resolves to (spec §3). An
// Unresolved identifier carries only Name(); every other kind additionally
// carries a typed back-reference to its declaration.
type Identifier struct {
	kind     IdentifierKind
	location Location
	name     string

	declStmt    *DeclareStatement
	parameter   *Parameter
	variable    *Variable
	property    *Property
	function    *Function
	structMem   *StructMember
	arrayKind   ArrayFunctionKind
	arrayElemTy Type
}

// NewUnresolvedIdentifier constructs an identifier carrying only its text,
// awaiting resolution.
func NewUnresolvedIdentifier(loc Location, name string) Identifier {
	return Identifier{kind: IdentUnresolved, location: loc, name: name}
}

// LocalVariableIdentifier constructs an identifier resolved to a local
// variable declaration.
func LocalVariableIdentifier(loc Location, d *DeclareStatement) Identifier {
	return Identifier{kind: IdentLocalVariable, location: loc, name: d.Name, declStmt: d}
}

// ParameterIdentifier constructs an identifier resolved to a function
// parameter.
func ParameterIdentifier(loc Location, p *Parameter) Identifier {
	return Identifier{kind: IdentParameter, location: loc, name: p.Name, parameter: p}
}

// VariableIdentifier constructs an identifier resolved to an object instance
// variable.
func VariableIdentifier(loc Location, v *Variable) Identifier {
	return Identifier{kind: IdentVariable, location: loc, name: v.Name, variable: v}
}

// PropertyIdentifier constructs an identifier resolved to a property.
func PropertyIdentifier(loc Location, p *Property) Identifier {
	return Identifier{kind: IdentProperty, location: loc, name: p.Name, property: p}
}

// FunctionIdentifier constructs an identifier resolved to a function.
func FunctionIdentifier(loc Location, f *Function) Identifier {
	return Identifier{kind: IdentFunction, location: loc, name: f.Name, function: f}
}

// StructMemberIdentifier constructs an identifier resolved to a struct
// member.
func StructMemberIdentifier(loc Location, m *StructMember) Identifier {
	return Identifier{kind: IdentStructMember, location: loc, name: m.Name, structMem: m}
}

// BuiltinStateFieldIdentifier constructs the special `__state` identifier.
func BuiltinStateFieldIdentifier(loc Location) Identifier {
	return Identifier{kind: IdentBuiltinStateField, location: loc, name: "__state"}
}

// ArrayFunctionIdentifier constructs an identifier resolved to a builtin
// array method, carrying the array's element type.
func ArrayFunctionIdentifier(loc Location, kind ArrayFunctionKind, elemType Type) Identifier {
	return Identifier{kind: IdentArrayFunction, location: loc, arrayKind: kind, arrayElemTy: elemType}
}

// Kind returns what this identifier resolves to.
func (id Identifier) Kind() IdentifierKind { return id.kind }

// Loc returns the identifier's source location.
func (id Identifier) Loc() Location { return id.location }

// Name returns the identifier's literal text (valid for any kind, since
// every constructor stashes the resolved name; IdentArrayFunction has no
// single name and returns "").
func (id Identifier) Name() string { return id.name }

// IsResolved reports whether this identifier is no longer Unresolved.
func (id Identifier) IsResolved() bool { return id.kind != IdentUnresolved }

// DeclStatement returns the backing local-variable declaration. Valid only
// when Kind() == IdentLocalVariable.
func (id Identifier) DeclStatement() *DeclareStatement { return id.declStmt }

// Parameter returns the backing parameter. Valid only when
// Kind() == IdentParameter.
func (id Identifier) Parameter() *Parameter { return id.parameter }

// Variable returns the backing object variable. Valid only when
// Kind() == IdentVariable.
func (id Identifier) Variable() *Variable { return id.variable }

// Property returns the backing property. Valid only when
// Kind() == IdentProperty.
func (id Identifier) Property() *Property { return id.property }

// Function returns the backing function. Valid only when
// Kind() == IdentFunction.
func (id Identifier) Function() *Function { return id.function }

// StructMember returns the backing struct member. Valid only when
// Kind() == IdentStructMember.
func (id Identifier) StructMember() *StructMember { return id.structMem }

// ArrayFunctionKind returns which builtin array method this identifier
// names. Valid only when Kind() == IdentArrayFunction.
func (id Identifier) ArrayFunctionKind() ArrayFunctionKind { return id.arrayKind }

// ArrayElementType returns the element type of the array this builtin
// method was resolved against. Valid only when Kind() == IdentArrayFunction.
func (id Identifier) ArrayElementType() Type { return id.arrayElemTy }

// ResultType computes the static type an access to this identifier
// produces. Unresolved identifiers have no result type and return None.
func (id Identifier) ResultType() Type {
	switch id.kind {
	case IdentLocalVariable:
		return id.declStmt.Type
	case IdentParameter:
		return id.parameter.Type
	case IdentVariable:
		return id.variable.Type
	case IdentProperty:
		return id.property.Type
	case IdentFunction:
		return id.function.ReturnType
	case IdentStructMember:
		return id.structMem.Type
	case IdentBuiltinStateField:
		return NewString(id.location)
	case IdentArrayFunction:
		return arrayFunctionResultType(id.arrayKind, id.arrayElemTy, id.location)
	default:
		return NewNone(id.location)
	}
}

// arrayFunctionResultType returns the static result type of calling the
// given builtin array method on an array of elemType.
func arrayFunctionResultType(kind ArrayFunctionKind, elemType Type, loc Location) Type {
	switch kind {
	case ArrayFunctionFind, ArrayFunctionFindStruct, ArrayFunctionRFind, ArrayFunctionRFindStruct:
		return NewInt(loc)
	default:
		// Add/Clear/Insert/Remove/RemoveLast return nothing.
		return NewNone(loc)
	}
}
