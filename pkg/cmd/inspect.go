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
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papyrus-lang/pscc/pkg/pex"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect pex_file",
	Short: "disassemble a compiled .pex file to stdout.",
	Long:  `Read a compiled .pex file and print its objects, properties and function bytecode in human-readable form.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println("expected exactly one .pex file")
			os.Exit(1)
		}

		f, err := os.Open(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer f.Close()

		file, err := pex.BinaryReader{}.Read(f)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		printFile(file)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func printFile(f *pex.File) {
	fmt.Printf("pex %d.%d  source=%s\n", f.Header.MajorVersion, f.Header.MinorVersion, f.Header.SourceFileName)
	for _, obj := range f.Objects {
		printObject(f, obj)
	}
}

func printObject(f *pex.File, obj *pex.Object) {
	fmt.Printf("\nobject %s", str(f, obj.Name))
	if obj.ParentName != 0 {
		fmt.Printf(" extends %s", str(f, obj.ParentName))
	}
	fmt.Println()

	for _, v := range obj.Variables {
		fmt.Printf("  var %s: %s\n", str(f, v.Name), str(f, v.Type))
	}
	for _, p := range obj.Properties {
		fmt.Printf("  property %s: %s\n", str(f, p.Name), str(f, p.Type))
		if p.ReadFunction != nil {
			printFunction(f, "    get", p.ReadFunction)
		}
		if p.WriteFunction != nil {
			printFunction(f, "    set", p.WriteFunction)
		}
	}
	for _, st := range obj.States {
		name := str(f, st.Name)
		if name == "" {
			name = "(default)"
		}
		fmt.Printf("  state %s\n", name)
		for _, fn := range st.Functions {
			printFunction(f, "    ", fn)
		}
	}
}

func printFunction(f *pex.File, indent string, fn *pex.Function) {
	fmt.Printf("%sfunction %s() : %s\n", indent, str(f, fn.Name), str(f, fn.ReturnType))
	for i, instr := range fn.Instructions {
		line := uint16(0)
		if i < len(fn.Debug.InstructionLineMap) {
			line = fn.Debug.InstructionLineMap[i]
		}
		fmt.Printf("%s  %4d [%d] %-18s %s\n", indent, i, line, instr.OpCode, formatArgs(f, instr.Args))
	}
}

func formatArgs(f *pex.File, args []pex.Value) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += formatValue(f, a)
	}
	return out
}

func formatValue(f *pex.File, v pex.Value) string {
	switch v.Type {
	case pex.ValueIdentifier:
		return str(f, v.Identifier)
	case pex.ValueInteger:
		return fmt.Sprintf("%d", v.Integer)
	case pex.ValueFloat:
		return fmt.Sprintf("%g", v.Float)
	case pex.ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	case pex.ValueString:
		return fmt.Sprintf("%q", str(f, v.String))
	case pex.ValueNone:
		return "none"
	default:
		return "<invalid>"
	}
}

func str(f *pex.File, idx uint16) string {
	return f.Strings.String(idx)
}
