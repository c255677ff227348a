package main

import (
	"os"
	"strings"
	"testing"
)

// TestSeven is the literal "Seven" end-to-end scenario from spec.md §8: compiling
//
//	class Main { function void main() { do Output.printInt(1 + (2 * 3)); return; } }
//
// must produce exactly the nine-line VM command sequence the spec names, proving the
// right-leaning expression parse evaluates left-to-right (no precedence) and that
// Math.multiply/Output.printInt are resolved as external function calls against the
// standard-library ABI rather than emitted as bodies of their own.
func TestSeven(t *testing.T) {
	dir := t.TempDir()
	input := dir + "/Main.jack"
	src := "class Main {\n" +
		"    function void main() {\n" +
		"        do Output.printInt(1 + (2 * 3));\n" +
		"        return;\n" +
		"    }\n" +
		"}\n"
	if err := os.WriteFile(input, []byte(src), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	status := Handler([]string{input}, map[string]string{"stdlib": "true"})
	if status != 0 {
		t.Fatalf("expected exit status 0, got %d", status)
	}

	generated, err := os.ReadFile(dir + "/Main.vm")
	if err != nil {
		t.Fatalf("reading generated vm: %v", err)
	}

	want := strings.Join([]string{
		"function Main.main 0",
		"push constant 1",
		"push constant 2",
		"push constant 3",
		"call Math.multiply 2",
		"add",
		"call Output.printInt 1",
		"pop temp 0",
		"push constant 0",
		"return",
	}, "\n") + "\n"

	if string(generated) != want {
		t.Fatalf("generated VM code mismatch:\ngot:\n%s\nwant:\n%s", generated, want)
	}
}

// TestTypecheckCatchesUndeclaredVariable exercises the '--typecheck' option's error path: a
// reference to an undeclared variable must fail before any VM code is emitted.
func TestTypecheckCatchesUndeclaredVariable(t *testing.T) {
	dir := t.TempDir()
	input := dir + "/Broken.jack"
	src := "class Broken {\n" +
		"    function void main() {\n" +
		"        do Output.printInt(missing);\n" +
		"        return;\n" +
		"    }\n" +
		"}\n"
	if err := os.WriteFile(input, []byte(src), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	status := Handler([]string{input}, map[string]string{"stdlib": "true", "typecheck": "true"})
	if status == 0 {
		t.Fatal("expected a non-zero exit status for an undeclared variable reference")
	}
}

// TestLexErrorCaughtBeforeParsing exercises the pre-validation lexing pass: an unterminated
// string constant must be rejected (with a line number) before the goparsec grammar ever runs.
func TestLexErrorCaughtBeforeParsing(t *testing.T) {
	dir := t.TempDir()
	input := dir + "/Broken.jack"
	src := "class Broken {\n" +
		"    function void main() {\n" +
		"        do Output.printString(\"unterminated);\n" +
		"        return;\n" +
		"    }\n" +
		"}\n"
	if err := os.WriteFile(input, []byte(src), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	status := Handler([]string{input}, nil)
	if status == 0 {
		t.Fatal("expected a non-zero exit status for an unterminated string constant")
	}
}

// TestConstructorPrelude exercises the zero-field constructor prelude invariant from spec.md
// §8 ("Constructor with 0 fields still emits Push Constant 0; Call Memory.alloc 1; Pop Pointer 0").
func TestConstructorPrelude(t *testing.T) {
	dir := t.TempDir()
	input := dir + "/Empty.jack"
	src := "class Empty {\n" +
		"    constructor Empty new() {\n" +
		"        return this;\n" +
		"    }\n" +
		"}\n"
	if err := os.WriteFile(input, []byte(src), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	status := Handler([]string{input}, map[string]string{"stdlib": "true"})
	if status != 0 {
		t.Fatalf("expected exit status 0, got %d", status)
	}

	generated, err := os.ReadFile(dir + "/Empty.vm")
	if err != nil {
		t.Fatalf("reading generated vm: %v", err)
	}

	want := strings.Join([]string{
		"function Empty.new 0",
		"push constant 0",
		"call Memory.alloc 1",
		"pop pointer 0",
		"push pointer 0",
		"return",
	}, "\n") + "\n"

	if string(generated) != want {
		t.Fatalf("generated VM code mismatch:\ngot:\n%s\nwant:\n%s", generated, want)
	}
}
