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
package intern

import "testing"

func TestGetStringDedups(t *testing.T) {
	tbl := New()

	a := tbl.GetString("Foo")
	b := tbl.GetString("Bar")
	c := tbl.GetString("Foo")

	if a != c {
		t.Fatalf("expected repeated GetString(%q) to return the same index, got %d and %d", "Foo", a, c)
	}
	if a == b {
		t.Fatalf("expected distinct strings to get distinct indices, both got %d", a)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 distinct strings interned, got %d", tbl.Len())
	}
}

func TestGetStringCaseSensitive(t *testing.T) {
	tbl := New()

	lower := tbl.GetString("foo")
	upper := tbl.GetString("Foo")

	if lower == upper {
		t.Fatalf("expected \"foo\" and \"Foo\" to intern to distinct indices")
	}
}

func TestGetStringInsertionOrder(t *testing.T) {
	tbl := New()

	tbl.GetString("one")
	tbl.GetString("two")
	tbl.GetString("three")

	got := tbl.Strings()
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestStringLooksUpByIndex(t *testing.T) {
	tbl := New()
	idx := tbl.GetString("hello")

	if got := tbl.String(idx); got != "hello" {
		t.Fatalf("String(%d) = %q, want %q", idx, got, "hello")
	}
}

func TestFromStringsRoundTrips(t *testing.T) {
	strs := []string{"alpha", "beta", "gamma"}
	tbl := FromStrings(strs)

	for i, s := range strs {
		if idx := tbl.GetString(s); idx != uint16(i) {
			t.Fatalf("GetString(%q) = %d, want %d (reconstructed table should preserve original indices)", s, idx, i)
		}
	}
	if tbl.Len() != len(strs) {
		t.Fatalf("Len() = %d, want %d", tbl.Len(), len(strs))
	}
}
