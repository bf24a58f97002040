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

import "io"

// Reader reads a binary .pex file into the in-memory File representation
// (spec §1, "out of scope" collaborator #2). The semantic core never calls
// this directly; pkg/papyrus/cache calls it when a `.pex` reference is
// loaded, then hands the result to a Reflector.
type Reader interface {
	Read(r io.Reader) (*File, error)
}

// Writer serializes a File to its binary form (spec §6). Round-tripping a
// File through Write then Read must reproduce it byte-for-byte, excluding
// modification-time fields (spec §8, testable property 6).
type Writer interface {
	Write(w io.Writer, f *File) error
}
