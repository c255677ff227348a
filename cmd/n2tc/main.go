package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teris-io/cli"
	"jackc.dev/n2t/pkg/asm"
	"jackc.dev/n2t/pkg/hack"
	"jackc.dev/n2t/pkg/jack"
	"jackc.dev/n2t/pkg/token"
	"jackc.dev/n2t/pkg/utils"
	"jackc.dev/n2t/pkg/vm"
)

var Description = strings.ReplaceAll(`
N2TC is the unified driver for the whole toolchain: given one or more .jack and/or .vm
files (or directories containing them), it walks every stage needed to turn them into a
single Hack program - Jack to Vm, Vm to Asm, Asm to machine words - and writes out the
requested representation in one shot, instead of piping three separate binaries by hand.
`, "\n", " ")

var N2TC = cli.New(Description).
	WithArg(cli.NewArg("inputs", "The source (.jack/.vm) files or directories to be compiled").
		AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("asm", "Emit text Hack assembly (.asm)").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("bin", "Emit big-endian packed u16 binary (.bin)").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("hack", "Emit text .hack, one 16-bit ASCII bit string per line (default)").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("init", "Bootstrap call target").WithType(cli.TypeString)).
	WithOption(cli.NewOption("no-init", "Suppress the bootstrap call entirely").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("output", "Destination file (mutually exclusive with --stdout)").WithChar('o').WithType(cli.TypeString)).
	WithOption(cli.NewOption("stdout", "Write the result to stdout instead of a file").WithType(cli.TypeBool)).
	WithAction(Handler)

// outputFormat identifies one of the three mutually-exclusive destination representations.
type outputFormat int

const (
	formatHack outputFormat = iota
	formatAsm
	formatBin
)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	format, err := resolveFormat(options)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}

	dest, closeDest, err := resolveDestination(options)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}
	defer closeDest()

	// Walks every positional argument one level deep, splitting inputs into the two extensions
	// this driver understands and ignoring everything else, per §6 External Interfaces.
	var jackTUs, vmTUs []string
	for _, input := range args {
		filepath.Walk(input, func(p string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if p != input {
					return filepath.SkipDir
				}
				return nil
			}
			switch filepath.Ext(p) {
			case ".jack":
				jackTUs = append(jackTUs, p)
			case ".vm":
				vmTUs = append(vmTUs, p)
			}
			return nil
		})
	}
	sort.Strings(jackTUs)
	sort.Strings(vmTUs)

	program, err := compileJack(jackTUs)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}

	for _, tu := range vmTUs {
		content, err := os.ReadFile(tu)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}
		vmParser := vm.NewParser(bytes.NewReader(content))
		module, err := vmParser.Parse()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'parsing' pass on '%s': %s\n", tu, err)
			return -1
		}
		program[strings.TrimSuffix(path.Base(tu), path.Ext(tu))] = module
	}

	if len(program) == 0 {
		fmt.Printf("ERROR: No .jack or .vm translation units found in the given input(s)\n")
		return -1
	}

	bootstrap, init := true, "Sys.init"
	if _, noInit := options["no-init"]; noInit {
		bootstrap = false
	}
	if name, ok := options["init"]; ok && name != "" {
		init = name
	}

	vmLowerer := vm.NewLowerer(program, vm.TranslatorOptions{Bootstrap: bootstrap, Init: init})
	asmProgram, err := vmLowerer.Lowerer()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'translation' pass: %s\n", err)
		return -1
	}

	if format == formatAsm {
		asmCodegen := asm.NewCodeGenerator(asmProgram)
		lines, err := asmCodegen.Generate()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
			return -1
		}
		for _, line := range lines {
			fmt.Fprintf(dest, "%s\n", line)
		}
		return 0
	}

	asmLowerer := asm.NewLowerer(asmProgram)
	hackProgram, table, err := asmLowerer.Lower()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'assembling' pass: %s\n", err)
		return -1
	}

	codegen := hack.NewCodeGenerator(hackProgram, table)
	switch format {
	case formatHack:
		lines, err := codegen.Generate()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'encoding' pass: %s\n", err)
			return -1
		}
		for _, line := range lines {
			fmt.Fprintf(dest, "%s\n", line)
		}

	case formatBin:
		words, err := codegen.GenerateWords()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'encoding' pass: %s\n", err)
			return -1
		}
		for _, word := range words {
			binary.Write(dest, binary.BigEndian, word)
		}
	}

	return 0
}

// compileJack runs the lexer pre-pass, the Jack parser, the standard-library injection, and the
// lowering pass over every '.jack' translation unit found, returning the resulting vm.Program.
// Returns an empty (not nil) vm.Program when there are no Jack inputs, so callers can merge raw
// '.vm' translation units into it unconditionally.
func compileJack(TUs []string) (vm.Program, error) {
	jackProgram := jack.Program{}

	for _, tu := range TUs {
		content, err := os.ReadFile(tu)
		if err != nil {
			return nil, fmt.Errorf("unable to open input file: %w", err)
		}

		lexer, err := token.NewLexer(bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("unable to read input file: %w", err)
		}
		if _, err := lexer.Tokenize(); err != nil {
			return nil, fmt.Errorf("'lexing' pass on '%s': %w", tu, err)
		}

		filename, extension := path.Base(tu), path.Ext(tu)
		jackParser := jack.NewParser(bytes.NewReader(content))
		module, err := jackParser.Parse()
		if err != nil {
			return nil, fmt.Errorf("'parsing' pass on '%s': %w", tu, err)
		}
		jackProgram[strings.TrimSuffix(filename, extension)] = module
	}

	if len(jackProgram) == 0 {
		return vm.Program{}, nil
	}

	// The standard library ABI is always injected here: n2tc compiles whole programs (unlike
	// cmd/jack_compiler's single-stage '--stdlib' opt-in), and any Jack program that calls into
	// Math/String/Output/etc. needs those classes resolvable during lowering.
	for name, abi := range jack.StandardLibraryABI {
		def := jack.Class{Name: name, Subroutines: utils.NewOrderedMap[string, jack.Subroutine]()}
		for _, subroutine := range abi.Subroutines.Entries() {
			def.Subroutines.Set(subroutine.Name, subroutine)
		}
		jackProgram[name] = def
	}

	jackLowerer := jack.NewLowerer(jackProgram)
	vmProgram, err := jackLowerer.Lowerer()
	if err != nil {
		return nil, fmt.Errorf("'lowering' pass: %w", err)
	}
	return vmProgram, nil
}

func resolveFormat(options map[string]string) (outputFormat, error) {
	_, wantAsm := options["asm"]
	_, wantBin := options["bin"]
	_, wantHack := options["hack"]

	switch n := countTrue(wantAsm, wantBin, wantHack); {
	case n > 1:
		return 0, fmt.Errorf("--asm, --bin and --hack are mutually exclusive")
	case wantAsm:
		return formatAsm, nil
	case wantBin:
		return formatBin, nil
	default: // wantHack, or nothing given: --hack is the default per §6 External Interfaces
		return formatHack, nil
	}
}

func countTrue(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

func resolveDestination(options map[string]string) (*os.File, func(), error) {
	_, stdout := options["stdout"]
	out, hasOutput := options["output"]

	if stdout && hasOutput {
		return nil, nil, fmt.Errorf("-o/--output and --stdout are mutually exclusive")
	}
	if stdout || out == "" {
		return os.Stdout, func() {}, nil
	}

	file, err := os.Create(out)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open output file: %w", err)
	}
	return file, func() { file.Close() }, nil
}

func main() { os.Exit(N2TC.Run(os.Args, os.Stdout)) }
