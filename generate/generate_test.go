package generate

import (
	"bytes"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"pyrs/common"
	"pyrs/ir"
	"pyrs/lower"
	"pyrs/optimize"
	"pyrs/resolve"
	"pyrs/syntax"
	"pyrs/typing"
)

// goldenOptions are the options of a golden case, read from the comment of
// its archive as `key: value` lines.
type goldenOptions struct {
	typ      typing.PrimType
	strategy optimize.MemoStrategy
	entry    EntryPoint
	supplied optimize.Supplied
}

func parseOptions(t *testing.T, comment []byte) goldenOptions {
	t.Helper()

	opts := goldenOptions{
		typ:      typing.PrimI64,
		strategy: optimize.Structural,
		entry:    EntryPoint{Func: common.DefaultEntryFunc, Arg: common.DefaultEntryArg},
		supplied: optimize.Supplied{},
	}

	for _, line := range strings.Split(string(comment), "\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}

		switch key {
		case "type":
			typ, ok := typing.LookupNumeric(value)
			if !ok {
				t.Fatalf("unknown type %q", value)
			}
			opts.typ = typ
		case "strategy":
			opts.strategy = optimize.MemoStrategy(value)
		case "entry":
			fields := strings.Fields(value)
			arg, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				t.Fatalf("bad entry argument: %v", err)
			}
			opts.entry = EntryPoint{Func: fields[0], Arg: arg}
		case "parallel", "nomemo":
			for _, name := range strings.Split(value, ",") {
				req := opts.supplied[name]
				enabled := key == "parallel"
				if enabled {
					req.Parallel = &enabled
				} else {
					req.Memoize = &enabled
				}
				opts.supplied[name] = req
			}
		}
	}

	return opts
}

// transpile runs the whole pipeline over a source file.
func transpile(t *testing.T, src []byte, opts goldenOptions) (*Program, error) {
	t.Helper()

	unit, err := syntax.Parse("/src/input.py", "input.py", bytes.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	resolver := resolve.NewResolver()
	resolver.ResolveUnit(unit)

	inferer := typing.NewFixed(opts.typ)
	profile := optimize.NewAnalyzer(opts.strategy, inferer).Analyze(unit, opts.supplied)

	env := lower.NewEnv(unit)
	var funcs []*lower.LoweredFunc
	for _, fd := range unit.Funcs() {
		lf, err := lower.LowerFunc(env, fd, inferer.Infer(fd), profile.Flags(fd.Name))
		if err != nil {
			t.Fatalf("unexpected lowering error: %v", err)
		}

		funcs = append(funcs, lf)
	}

	return Emit(resolver.Imports(), funcs, opts.entry)
}

func TestGolden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}

	if len(paths) == 0 {
		t.Fatal("no golden cases found")
	}

	for _, path := range paths {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".txtar"), func(t *testing.T) {
			archive, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatal(err)
			}

			files := make(map[string][]byte)
			for _, file := range archive.Files {
				files[file.Name] = file.Data
			}

			prog, err := transpile(t, files["input.py"], parseOptions(t, archive.Comment))
			if err != nil {
				t.Fatalf("unexpected emit error: %v", err)
			}

			if diff := cmp.Diff(string(files["want.rs"]), prog.Source); diff != "" {
				t.Errorf("generated source mismatch (-want +got):\n%s", diff)
			}

			// Printing is deterministic.
			if again := Print(prog.File); again != prog.Source {
				t.Errorf("second print differs from the first")
			}
		})
	}
}

func TestEmitNoFunctions(t *testing.T) {
	_, err := Emit([]string{"use std::collections::HashMap;"}, nil, EntryPoint{Func: "fib", Arg: 35})
	if !errors.Is(err, ErrNoFunctionsEmitted) {
		t.Errorf("got error %v, want ErrNoFunctionsEmitted", err)
	}
}

func TestEmitUnknownEntry(t *testing.T) {
	opts := parseOptions(t, []byte("entry: missing 1"))

	_, err := transpile(t, []byte("def a(n):\n    return n\n\ndef b(n):\n    return n\n"), opts)

	var entryErr *UnknownEntryError
	if !errors.As(err, &entryErr) {
		t.Fatalf("got error %v, want UnknownEntryError", err)
	}

	if diff := cmp.Diff([]string{"a", "b"}, entryErr.Available); diff != "" {
		t.Errorf("available functions mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitMemoTablesDifferingInCase(t *testing.T) {
	src := "def fib(n):\n    if n < 2:\n        return n\n    return fib(n - 1) + fib(n - 2)\n\n" +
		"def Fib(n):\n    if n < 3:\n        return 1\n    return Fib(n - 1) + Fib(n - 3)\n"

	prog, err := transpile(t, []byte(src), parseOptions(t, []byte("entry: fib 10")))
	if err != nil {
		t.Fatalf("unexpected emit error: %v", err)
	}

	statics := make(map[string]string)
	for _, item := range prog.File.Items {
		if static, ok := item.(*ir.Static); ok {
			statics[static.Name] = static.Type.Repr()
		}
	}

	want := map[string]string{
		"FIB_1_MEMO": "OnceLock<Mutex<HashMap<(i64,), i64>>>",
		"FIB_2_MEMO": "OnceLock<Mutex<HashMap<(i64,), i64>>>",
	}
	if diff := cmp.Diff(want, statics); diff != "" {
		t.Errorf("memo tables mismatch (-want +got):\n%s", diff)
	}

	for _, use := range []string{"fn Fib(n: i64) -> i64 {\n    let memo = FIB_1_MEMO.", "fn fib(n: i64) -> i64 {\n    let memo = FIB_2_MEMO."} {
		if !strings.Contains(prog.Source, use) {
			t.Errorf("program does not contain %q", use)
		}
	}
}

func TestEmitDuplicateItems(t *testing.T) {
	funcs := []*lower.LoweredFunc{
		{Name: "a", Ident: "a", Items: []ir.Item{&ir.Static{Name: "A_MEMO"}, &ir.FuncDef{Name: "a"}}},
		{Name: "A_MEMO", Ident: "A_MEMO", Items: []ir.Item{&ir.FuncDef{Name: "A_MEMO"}}},
	}

	_, err := Emit(nil, funcs, EntryPoint{Func: "a"})
	if err == nil || err.Error() != "item `A_MEMO` is defined more than once" {
		t.Errorf("got error %v, want duplicate item A_MEMO", err)
	}
}

func TestEmitImports(t *testing.T) {
	src := "import numpy\nimport numpy\nimport threading\nimport json\n\ndef fib(n):\n    if n < 2:\n        return n\n    return fib(n - 1) + fib(n - 2)\n"

	prog, err := transpile(t, []byte(src), parseOptions(t, nil))
	if err != nil {
		t.Fatalf("unexpected emit error: %v", err)
	}

	want := []string{
		"use std::collections::HashMap;",
		"use rayon::prelude::*;",
		"use ndarray as np;",
		"use std::sync::{Mutex, OnceLock};",
	}

	if diff := cmp.Diff(want, prog.Imports); diff != "" {
		t.Errorf("imports mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitEntry(t *testing.T) {
	prog, err := transpile(t, []byte("def add(a, b):\n    return a + b\n"), parseOptions(t, []byte("entry: add 7")))
	if err != nil {
		t.Fatalf("unexpected emit error: %v", err)
	}

	want := "fn main() {\n    println!(\"{}\", add(7, 7));\n}\n"
	if diff := cmp.Diff(want, prog.Entry); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr ir.Expr
		want string
	}{
		{
			"left associative",
			&ir.Binary{Op: "-", Lhs: ir.ID("a"), Rhs: &ir.Binary{Op: "-", Lhs: ir.ID("b"), Rhs: ir.ID("c")}},
			"a - (b - c)",
		},
		{
			"tighter operand",
			&ir.Binary{Op: "+", Lhs: ir.ID("a"), Rhs: &ir.Binary{Op: "*", Lhs: ir.ID("b"), Rhs: ir.ID("c")}},
			"a + b * c",
		},
		{
			"looser operand",
			&ir.Binary{Op: "*", Lhs: &ir.Binary{Op: "+", Lhs: ir.ID("a"), Rhs: ir.ID("b")}, Rhs: ir.ID("c")},
			"(a + b) * c",
		},
		{
			"comparison operands",
			&ir.Binary{Op: "==", Lhs: &ir.Binary{Op: "<", Lhs: ir.ID("a"), Rhs: ir.ID("b")}, Rhs: &ir.Lit{Text: "true"}},
			"(a < b) == true",
		},
		{
			"cast before less than",
			&ir.Binary{Op: "<", Lhs: &ir.Cast{X: ir.ID("a"), Type: ir.Named("u32")}, Rhs: ir.ID("b")},
			"(a as u32) < b",
		},
		{
			"method receiver",
			ir.Method(&ir.Unary{Op: "-", X: &ir.Lit{Text: "2_i64"}}, "pow", &ir.Lit{Text: "3"}),
			"(-2_i64).pow(3)",
		},
		{
			"unary operand",
			&ir.Unary{Op: "!", X: &ir.Binary{Op: "&&", Lhs: ir.ID("a"), Rhs: ir.ID("b")}},
			"!(a && b)",
		},
		{
			"single tuple",
			&ir.Tuple{Elems: []ir.Expr{ir.ID("n")}},
			"(n,)",
		},
		{
			"range receiver",
			ir.Method(&ir.Range{Start: &ir.Lit{Text: "0"}, End: ir.ID("n")}, "rev"),
			"(0..n).rev()",
		},
		{
			"immediately called closure",
			&ir.Call{Func: &ir.Closure{Expr: ir.ID("x")}},
			"(|| x)()",
		},
		{
			"conditional operand",
			&ir.Binary{Op: "+", Lhs: &ir.IfExpr{Cond: ir.ID("c"), Then: ir.Tail(ir.ID("a")), Else: ir.Tail(ir.ID("b"))}, Rhs: &ir.Lit{Text: "1"}},
			"(if c { a } else { b }) + 1",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := &printer{}
			p.printExpr(test.expr)

			if diff := cmp.Diff(test.want, p.sb.String()); diff != "" {
				t.Errorf("printed expression mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrintTypes(t *testing.T) {
	tests := []struct {
		typ  *ir.Type
		want string
	}{
		{ir.Named("i64"), "i64"},
		{ir.TupleOf(), "()"},
		{ir.TupleOf(ir.Named("i64")), "(i64,)"},
		{ir.TupleOf(ir.Named("i64"), ir.Named("bool")), "(i64, bool)"},
		{ir.Generic("HashMap", ir.TupleOf(ir.Named("i32")), ir.Named("i32")), "HashMap<(i32,), i32>"},
	}

	for _, test := range tests {
		if got := test.typ.Repr(); got != test.want {
			t.Errorf("got %q, want %q", got, test.want)
		}
	}
}
