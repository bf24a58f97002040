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
	"encoding/gob"
	"io"
)

// SourceMetadata is the extended, toolchain-private debug information that
// never needs to round-trip with another compiler: per-object/property/
// function doc comments (user-flag names are not carried here; they live in
// Header.UserFlagNames). The fixed-layout bytecode body (writer.go/reader.go) has no room for
// variable-length prose, so this side channel carries it instead, encoded
// with encoding/gob the way the teacher encodes its own internal schema
// metadata (pkg/schema's binary marshalling) - unlike the VM-mandated
// instruction encoding, nothing outside this toolchain ever reads this
// blob, so gob's self-describing format is the idiomatic Go choice rather
// than a second hand-rolled fixed layout.
type SourceMetadata struct {
	ObjectDocComments   map[string]string // object name -> doc comment
	PropertyDocComments map[string]string // "Object.Property" -> doc comment
	FunctionDocComments map[string]string // "Object.Function" or "Object.State.Function" -> doc comment
}

// NewSourceMetadata constructs an empty metadata set.
func NewSourceMetadata() *SourceMetadata {
	return &SourceMetadata{
		ObjectDocComments:   make(map[string]string),
		PropertyDocComments: make(map[string]string),
		FunctionDocComments: make(map[string]string),
	}
}

// WriteSourceMetadata gob-encodes m to w.
func WriteSourceMetadata(w io.Writer, m *SourceMetadata) error {
	return gob.NewEncoder(w).Encode(m)
}

// ReadSourceMetadata gob-decodes a SourceMetadata from r.
func ReadSourceMetadata(r io.Reader) (*SourceMetadata, error) {
	m := &SourceMetadata{}
	if err := gob.NewDecoder(r).Decode(m); err != nil {
		return nil, err
	}
	return m, nil
}
