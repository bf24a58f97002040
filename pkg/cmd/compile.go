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
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/papyrus-lang/pscc/pkg/papyrus/driver"
	"github.com/papyrus-lang/pscc/pkg/papyrus/frontend"
	"github.com/papyrus-lang/pscc/pkg/pex"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] script_file(s)",
	Short: "compile Papyrus scripts into bytecode (.pex) files.",
	Long: `Compile one or more Papyrus source scripts into .pex bytecode files, one
output file per input, running the full resolve-then-emit pipeline on each.`,
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		if len(args) == 0 {
			fmt.Println("no script files given")
			os.Exit(1)
		}

		opts := driver.Options{
			CompilationConfig: driver.CompilationConfig{
				ImportDirectories:             GetStringArray(cmd, "import"),
				EnableOptimizations:           !GetFlag(cmd, "no-optimize"),
				AllowDecompiledStructNameRefs: GetFlag(cmd, "allow-decompiled-struct-refs"),
			},
			OutputDirectory: GetString(cmd, "output-dir"),
			MaxParallelism:  GetInt(cmd, "parallelism"),
		}
		d := driver.New(frontend.Unimplemented{}, frontend.Unimplemented{}, frontend.Unimplemented{}, pex.BinaryReader{}, pex.BinaryWriter{}, opts)

		results, err := d.CompileBatch(context.Background(), args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		failed := driver.AnyFailed(results)
		for _, r := range results {
			if r.Failed {
				fmt.Printf("FAILED  %s\n", r.SourceFile)
			} else {
				fmt.Printf("OK      %s -> %s\n", r.SourceFile, r.OutputFile)
			}
		}
		if failed {
			os.Exit(1)
		}
	},
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringArrayP("import", "I", []string{}, "additional import search directory (repeatable)")
	compileCmd.Flags().Bool("no-optimize", false, "disable dead-assign elimination in the function builder")
	compileCmd.Flags().StringP("output-dir", "o", "", "write all .pex outputs to this directory (default: alongside each source file)")
	compileCmd.Flags().IntP("parallelism", "j", 0, "maximum scripts compiled concurrently (0 = unlimited)")
	compileCmd.Flags().Bool("allow-decompiled-struct-refs", false, "accept Script#Struct qualified type names in .psc sources, not just reflected .pas/.pex input")
}
