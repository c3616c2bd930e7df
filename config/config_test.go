package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pyrs/optimize"
	"pyrs/report"
	"pyrs/typing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func boolPtr(b bool) *bool {
	return &b
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pyrs.toml", `
[build]
main-func = "tri"
entry-arg = 20
numeric-type = "f64"
memo-strategy = "name-hint"
timeout = "5s"
cargo = "/opt/cargo/bin/cargo"
profile = "dev"

[functions.tri]
parallel = true

[functions.helper]
memoize = false
`)

	c := Default()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &Config{
		MainFunc:     "tri",
		EntryArg:     20,
		NumericType:  typing.PrimF64,
		MemoStrategy: optimize.NameHint,
		Cargo:        "/opt/cargo/bin/cargo",
		Profile:      "dev",
		Timeout:      5 * time.Second,
		LogLevel:     report.LogLevelVerbose,
		Functions: optimize.Supplied{
			"tri":    {Parallel: boolPtr(true)},
			"helper": {Memoize: boolPtr(false)},
		},
		Path: path,
	}

	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFilePartial(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pyrs.toml", "[build]\nentry-arg = 0\n")

	c := Default()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Default()
	want.EntryArg = 0
	want.Path = path

	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		key     string
	}{
		{"numeric type", "[build]\nnumeric-type = \"u8\"\n", "build.numeric-type"},
		{"memo strategy", "[build]\nmemo-strategy = \"always\"\n", "build.memo-strategy"},
		{"timeout", "[build]\ntimeout = \"soon\"\n", "build.timeout"},
		{"negative timeout", "[build]\ntimeout = \"-1s\"\n", "build.timeout"},
		{"main func", "[build]\nmain-func = \"1fib\"\n", "build.main-func"},
		{"function name", "[functions.\"not a name\"]\nparallel = true\n", "functions.not a name"},
		{"unknown key", "[build]\noptimize = true\n", "optimize"},
		{"malformed", "[build\n", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "pyrs.toml", test.content)

			err := Default().LoadFile(path)
			if err == nil {
				t.Fatal("expected an error")
			}

			if !strings.Contains(err.Error(), test.key) {
				t.Errorf("error %q does not name %q", err, test.key)
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	err := Default().LoadFile(filepath.Join(t.TempDir(), "pyrs.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got error %v, want os.ErrNotExist", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "fib.py", "def fib(n):\n    return n\n")
	writeFile(t, dir, "pyrs.toml", "[build]\ncargo = \"file-cargo\"\ntimeout = \"10s\"\nentry-arg = 12\n")

	t.Setenv(EnvCargo, "env-cargo")
	t.Setenv(EnvTimeout, "2.5")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvEntryArg, "30")

	c, err := Load(src, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Path != filepath.Join(dir, "pyrs.toml") {
		t.Errorf("project file next to the source was not loaded: %q", c.Path)
	}

	got := []interface{}{c.Cargo, c.Timeout, c.LogLevel, c.EntryArg}
	want := []interface{}{"env-cargo", 2500 * time.Millisecond, report.LogLevelDebug, int64(30)}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("environment overrides mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "fib.py", "def fib(n):\n    return n\n")

	if _, err := Load(src, filepath.Join(dir, "other.toml")); err == nil {
		t.Error("expected an error for a missing explicit project file")
	}
}

func TestApplyEnvErrors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvTimeout, "later"},
		{EnvLogLevel, "loud"},
		{EnvEntryArg, "thirty"},
	}

	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			t.Setenv(test.key, test.value)

			err := Default().ApplyEnv()
			if err == nil || !strings.Contains(err.Error(), test.key) {
				t.Errorf("got error %v, want one naming %s", err, test.key)
			}
		})
	}
}

func TestApplyEnvRereads(t *testing.T) {
	for _, cargo := range []string{"first-cargo", "second-cargo"} {
		t.Setenv(EnvCargo, cargo)

		c := Default()
		if err := c.ApplyEnv(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if c.Cargo != cargo {
			t.Errorf("got cargo %q, want %q", c.Cargo, cargo)
		}
	}
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		text string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"1m30s", 90 * time.Second},
		{"45", 45 * time.Second},
		{"0.5", 500 * time.Millisecond},
		{"0", 0},
	}

	for _, test := range tests {
		got, err := ParseTimeout(test.text)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", test.text, err)
		} else if got != test.want {
			t.Errorf("%q: got %s, want %s", test.text, got, test.want)
		}
	}
}
