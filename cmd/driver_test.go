package cmd

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pyrs/config"
	"pyrs/optimize"
	"pyrs/report"
)

const fibSource = `import numpy as np

def fib(n):
    if n < 2:
        return n
    return fib(n - 1) + fib(n - 2)
`

// fakeCargo writes a cargo stand-in whose built program prints a fixed line.
func fakeCargo(t *testing.T, dir string) string {
	t.Helper()

	script := `#!/bin/sh
while [ $# -gt 0 ]; do
  if [ "$1" = "--manifest-path" ]; then manifest="$2"; fi
  shift
done
out="$(dirname "$manifest")/target/release"
mkdir -p "$out"
printf '#!/bin/sh\necho 9227465\n' > "$out/romapyrs_temp"
chmod +x "$out/romapyrs_temp"
`

	path := filepath.Join(dir, "cargo")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	return path
}

func newTestTranspiler(t *testing.T, source string) (*Transpiler, string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake cargo requires a POSIX shell")
	}

	report.InitReporter(report.LogLevelSilent)

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "fib.py")
	if err := os.WriteFile(srcPath, []byte(source), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Cargo = fakeCargo(t, dir)

	return NewTranspiler(srcPath, cfg), dir
}

func TestTranspileEmits(t *testing.T) {
	tr, dir := newTestTranspiler(t, fibSource)
	tr.emitPath = filepath.Join(dir, "fib.rs")
	tr.run = true

	if status := tr.Transpile(context.Background()); status != 0 {
		t.Fatalf("got exit status %d, want 0", status)
	}

	emitted, err := os.ReadFile(tr.emitPath)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(tr.prog.Source, string(emitted)); diff != "" {
		t.Errorf("emitted source mismatch (-want +got):\n%s", diff)
	}

	for _, want := range []string{"use ndarray as np;", "static FIB_MEMO", "println!(\"{}\", fib(35));"} {
		if !strings.Contains(string(emitted), want) {
			t.Errorf("emitted source does not contain %q", want)
		}
	}
}

func TestTranspileRequests(t *testing.T) {
	tr, _ := newTestTranspiler(t, fibSource)
	tr.requests = parseParallel("fib, missing")

	if status := tr.Transpile(context.Background()); status != 0 {
		t.Fatalf("got exit status %d, want 0", status)
	}

	if got := tr.profile.Flags("fib"); got != (optimize.Flags{Memoize: true, Parallel: true}) {
		t.Errorf("got flags %+v, want memoized and parallel", got)
	}

	if !strings.Contains(tr.prog.Source, "rayon::join") {
		t.Error("parallel request was not applied")
	}
}

func TestTranspileFailures(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		mainFunc string
	}{
		{"parse error", "def fib(n)\n    return n\n", "fib"},
		{"unsupported construct", "def fib(n):\n    return [n]\n", "fib"},
		{"no functions", "x = 1\n", "fib"},
		{"unknown entry", fibSource, "main"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tr, _ := newTestTranspiler(t, test.source)
			tr.cfg.MainFunc = test.mainFunc

			if status := tr.Transpile(context.Background()); status != 1 {
				t.Errorf("got exit status %d, want 1", status)
			}

			if tr.prog != nil {
				t.Error("a program was emitted")
			}
		})
	}
}

func TestParseParallel(t *testing.T) {
	got := parseParallel("fib, tri,,")

	if diff := cmp.Diff([]string{"fib", "tri"}, got.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	for name, req := range got {
		if req.Parallel == nil || !*req.Parallel || req.Memoize != nil {
			t.Errorf("%s: got request %+v, want parallel only", name, req)
		}
	}
}
