package main

import (
	"os"
	"strings"
	"testing"
)

// TestCompilesJackDirectoryToHack drives the full four-stage pipeline (Jack -> Vm -> Asm -> Hack)
// through the CLI entrypoint, matching the "Seven" scenario from spec.md §8.
func TestCompilesJackDirectoryToHack(t *testing.T) {
	dir := t.TempDir()
	src := "class Main {\n" +
		"    function void main() {\n" +
		"        do Output.printInt(1 + (2 * 3));\n" +
		"        return;\n" +
		"    }\n" +
		"}\n"
	if err := os.WriteFile(dir+"/Main.jack", []byte(src), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	output := dir + "/out.hack"
	status := Handler([]string{dir}, map[string]string{"output": output})
	if status != 0 {
		t.Fatalf("expected exit status 0, got %d", status)
	}

	content, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading generated hack: %v", err)
	}
	lines := strings.Fields(strings.TrimSpace(string(content)))
	if len(lines) == 0 {
		t.Fatal("expected at least one encoded ROM word")
	}
	for _, line := range lines {
		if len(line) != 16 {
			t.Errorf("expected a 16-character bit string, got %q", line)
		}
	}
}

// TestAsmFormatSkipsEncoding exercises the '--asm' output format, which must stop right after the
// Vm-to-Asm translation stage and never touch pkg/hack.
func TestAsmFormatSkipsEncoding(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/Simple.vm", []byte("push constant 7\npush constant 8\nadd\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	output := dir + "/out.asm"
	status := Handler([]string{dir}, map[string]string{"asm": "true", "output": output, "no-init": "true"})
	if status != 0 {
		t.Fatalf("expected exit status 0, got %d", status)
	}

	content, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading generated asm: %v", err)
	}
	if !strings.Contains(string(content), "@SP") {
		t.Errorf("expected generated asm to reference @SP, got:\n%s", content)
	}
}

// TestBinFormatWritesPackedWords exercises the '--bin' output format: each ROM word must be
// exactly 2 bytes, big-endian.
func TestBinFormatWritesPackedWords(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/Simple.vm", []byte("push constant 7\npush constant 8\nadd\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	output := dir + "/out.bin"
	status := Handler([]string{dir}, map[string]string{"bin": "true", "output": output, "no-init": "true"})
	if status != 0 {
		t.Fatalf("expected exit status 0, got %d", status)
	}

	content, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading generated bin: %v", err)
	}
	if len(content)%2 != 0 {
		t.Fatalf("expected an even number of bytes (packed u16 words), got %d", len(content))
	}
}

// TestMutuallyExclusiveFormatsRejected exercises the '--asm'/'--bin' mutual-exclusion check.
func TestMutuallyExclusiveFormatsRejected(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/Simple.vm", []byte("push constant 1\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	status := Handler([]string{dir}, map[string]string{"asm": "true", "bin": "true"})
	if status == 0 {
		t.Fatal("expected a non-zero exit status when --asm and --bin are both given")
	}
}

// TestNoTranslationUnitsFound exercises the empty-input error path.
func TestNoTranslationUnitsFound(t *testing.T) {
	dir := t.TempDir()
	status := Handler([]string{dir}, nil)
	if status == 0 {
		t.Fatal("expected a non-zero exit status for a directory with no .jack/.vm files")
	}
}
