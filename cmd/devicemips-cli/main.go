// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"devicemips/internal/codegen"
	"devicemips/internal/diag"
	"devicemips/internal/ir"
	"devicemips/internal/regalloc"
	"devicemips/internal/surface"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "compile":
		err = runCompile(os.Args[2:])
	case "format":
		err = runFormat(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		if de, ok := err.(*diag.Error); ok {
			diag.NewReporter(os.Stderr).Report(de)
		} else {
			color.Red("error: %s", err)
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: devicemips-cli compile <file> [--ast|--mips]")
	fmt.Println("       devicemips-cli format <files...>")
}

// runCompile implements `compile <file> [--ast|--mips]` (spec §6.3).
func runCompile(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("compile: missing <file>")
	}
	path := args[0]
	mode := "--mips"
	if len(args) > 1 {
		mode = args[1]
	}

	prog, err := surface.ParseFile(path)
	if err != nil {
		return err
	}

	irProg, err := ir.Build(prog)
	if err != nil {
		return err
	}
	ir.Optimize(irProg)

	if mode == "--ast" {
		fmt.Println(ir.Print(irProg))
		color.Green("compiled %s", path)
		return nil
	}

	alloc, err := regalloc.Allocate(irProg)
	if err != nil {
		return err
	}
	mipsProg, err := codegen.Generate(irProg, alloc)
	if err != nil {
		return err
	}
	fmt.Println(mipsProg.String())
	color.Green("compiled %s", path)
	return nil
}

// runFormat implements `format <files...>` with stdin fallback (spec §6.3).
func runFormat(args []string) error {
	if len(args) == 0 {
		source, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("format: reading stdin: %w", err)
		}
		prog, err := surface.Parse("<stdin>", string(source))
		if err != nil {
			return err
		}
		fmt.Print(surface.Format(prog))
		return nil
	}

	for _, path := range args {
		prog, err := surface.ParseFile(path)
		if err != nil {
			return err
		}
		fmt.Print(surface.Format(prog))
	}
	return nil
}
