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

// Package intern implements the per-file string table described in spec
// §4.1: every emitted string is deduplicated and referenced by a stable
// 16-bit index, in first-seen (insertion) order, so that the table
// serializes directly as the output bytecode file's string section.
package intern

// Table is a per-file, insertion-ordered string interner. The zero value is
// not usable; construct with New. Tables are never shared across files (the
// compiler allocates one per output .pex).
type Table struct {
	indices map[string]uint16
	strings []string
}

// New constructs an empty string table.
func New() *Table {
	return &Table{indices: make(map[string]uint16)}
}

// FromStrings reconstructs a table from an already-ordered string list, as
// read back from a serialized string section. The index of each string is
// its position in strs.
func FromStrings(strs []string) *Table {
	t := &Table{indices: make(map[string]uint16, len(strs)), strings: strs}
	for i, s := range strs {
		t.indices[s] = uint16(i)
	}
	return t
}

// GetString returns s's index in the table, appending it (in insertion
// order) if this is the first time s has been seen. Lookup is
// case-sensitive: "Foo" and "foo" intern to distinct entries, since this
// table indexes raw bytes, not language identifiers (identifier
// case-insensitivity is a resolver concern, spec §4.4).
func (t *Table) GetString(s string) uint16 {
	if idx, ok := t.indices[s]; ok {
		return idx
	}
	idx := uint16(len(t.strings))
	t.strings = append(t.strings, s)
	t.indices[s] = idx
	return idx
}

// Len returns the number of distinct strings interned so far.
func (t *Table) Len() int { return len(t.strings) }

// String returns the string at the given index. Panics if idx is out of
// range, which would indicate a builder bug (an index minted by a
// different table, or serialization corruption).
func (t *Table) String(idx uint16) string {
	return t.strings[idx]
}

// Strings returns the full table in insertion order, i.e. the order it
// must be serialized in.
func (t *Table) Strings() []string {
	out := make([]string, len(t.strings))
	copy(out, t.strings)
	return out
}
