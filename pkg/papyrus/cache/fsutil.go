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
package cache

import (
	"os"

	"github.com/papyrus-lang/pscc/pkg/pex"
)

// fileExists reports whether path names a regular, readable file. Grounded
// on FSUtils::multiExistsInDir, collapsed to a single per-candidate check
// since Go's os.Stat is already cheap enough not to need the batched
// directory-listing trick the C++ helper uses.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// openAndRead opens filename and decodes it with rdr.
func openAndRead(rdr pex.Reader, filename string) (*pex.File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return rdr.Read(f)
}
