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
package resolver

import "github.com/papyrus-lang/pscc/pkg/papyrus/ast"

// CheckForPoisonExpr is CheckForPoisonType applied to an expression's
// result type; a convenience overload matching the two checkForPoison
// overloads in the original.
func (c *Context) CheckForPoisonExpr(expr ast.Expression) {
	c.CheckForPoisonType(expr.ResultType())
}

// CheckForPoisonType enforces that a Beta-poisoned type is only used inside
// a BetaOnly function or object, and a Debug-poisoned type only inside a
// DebugOnly function or object (spec §4.3, S5). The Beta check runs first;
// a type poisoned with both flags that fails the Beta check never reaches
// the Debug check, matching the original's `goto CheckDebug` fallthrough
// exactly: Beta failure short-circuits with its own error message, Beta
// success (or absence) falls through to the independent Debug check.
func (c *Context) CheckForPoisonType(t ast.Type) {
	if t.IsPoisoned(ast.PoisonBeta) {
		if c.function != nil && c.function.IsBetaOnly() {
			c.checkDebugPoison(t)
			return
		}
		if c.object != nil && c.object.IsBetaOnly() {
			c.checkDebugPoison(t)
			return
		}
		c.loc(t.Loc()).error("You cannot use the return value of a BetaOnly function in a non-BetaOnly context!")
		return
	}
	c.checkDebugPoison(t)
}

func (c *Context) checkDebugPoison(t ast.Type) {
	if !t.IsPoisoned(ast.PoisonDebug) {
		return
	}
	if c.function != nil && c.function.IsDebugOnly() {
		return
	}
	if c.object != nil && c.object.IsDebugOnly() {
		return
	}
	c.loc(t.Loc()).error("You cannot use the return value of a DebugOnly function in a non-DebugOnly context!")
}
