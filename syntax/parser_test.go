package syntax

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"pyrs/ast"
	"pyrs/report"
)

func parseString(t *testing.T, src string) *ast.SourceUnit {
	t.Helper()

	unit, err := Parse("/src/test.py", "test.py", strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	return unit
}

// sexpr renders an expression as an s-expression so that tests can check
// operator precedence and associativity compactly.
func sexpr(expr ast.Expr) string {
	switch v := expr.(type) {
	case *ast.Name:
		return v.Name
	case *ast.IntLit:
		return v.Value
	case *ast.FloatLit:
		return v.Value
	case *ast.BoolLit:
		return fmt.Sprint(v.Value)
	case *ast.NoneLit:
		return "None"
	case *ast.StringLit:
		return fmt.Sprintf("%q", v.Value)
	case *ast.UnaryOp:
		return fmt.Sprintf("(%s %s)", v.Op.Name, sexpr(v.Operand))
	case *ast.BinaryOp:
		return fmt.Sprintf("(%s %s %s)", v.Op.Name, sexpr(v.Lhs), sexpr(v.Rhs))
	case *ast.BoolOp:
		return fmt.Sprintf("(%s %s %s)", v.Op.Name, sexpr(v.Lhs), sexpr(v.Rhs))
	case *ast.Compare:
		parts := []string{"cmp", sexpr(v.Exprs[0])}
		for i, op := range v.Ops {
			parts = append(parts, op.Name, sexpr(v.Exprs[i+1]))
		}

		return "(" + strings.Join(parts, " ") + ")"
	case *ast.IfExpr:
		return fmt.Sprintf("(if %s %s %s)", sexpr(v.Cond), sexpr(v.Then), sexpr(v.Else))
	case *ast.Call:
		parts := []string{"call", sexpr(v.Func)}
		for _, arg := range v.Args {
			parts = append(parts, sexpr(arg))
		}

		for _, kw := range v.Keywords {
			parts = append(parts, kw.Name+"="+sexpr(kw.Value))
		}

		return "(" + strings.Join(parts, " ") + ")"
	case *ast.Attribute:
		return fmt.Sprintf("(. %s %s)", sexpr(v.Value), v.Attr)
	case *ast.Subscript:
		return fmt.Sprintf("([] %s %s)", sexpr(v.Value), sexpr(v.Index))
	case *ast.TupleLit:
		parts := []string{"tuple"}
		for _, elem := range v.Elems {
			parts = append(parts, sexpr(elem))
		}

		return "(" + strings.Join(parts, " ") + ")"
	case *ast.ListLit:
		parts := []string{"list"}
		for _, elem := range v.Elems {
			parts = append(parts, sexpr(elem))
		}

		return "(" + strings.Join(parts, " ") + ")"
	case *ast.DictLit:
		return fmt.Sprintf("(dict %d)", len(v.Keys))
	}

	return fmt.Sprintf("<%T>", expr)
}

func TestParseExprPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a + b * c", "(+ a (* b c))"},
		{"a - b - c", "(- (- a b) c)"},
		{"a // b % c", "(% (// a b) c)"},
		{"-a ** 2", "(- (** a 2))"},
		{"a ** b ** c", "(** a (** b c))"},
		{"2 ** -n", "(** 2 (- n))"},
		{"a << 1 | b & c ^ d", "(| (<< a 1) (^ (& b c) d))"},
		{"0 <= i < n", "(cmp 0 <= i < n)"},
		{"x not in y", "(cmp x not in y)"},
		{"x is not None", "(cmp x is not None)"},
		{"not a and b or c", "(or (and (not a) b) c)"},
		{"a if b else c if d else e", "(if b a (if d c e))"},
		{"f(a, k=1)", "(call f a k=1)"},
		{"m.f(x)[0]", "([] (call (. m f) x) 0)"},
		{"(a, b)", "(tuple a b)"},
		{"(a)", "a"},
		{"(a,)", "(tuple a)"},
		{"[1, 2,]", "(list 1 2)"},
		{"{1: 2}", "(dict 1)"},
		{"'a' 'b'", `"ab"`},
		{"~x + +y", "(+ (~ x) (+ y))"},
	}

	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			unit := parseString(t, test.src+"\n")

			stmt, ok := unit.Decls[0].(*ast.ExprStmt)
			if !ok {
				t.Fatalf("got %T, want an expression statement", unit.Decls[0])
			}

			if got := sexpr(stmt.X); got != test.want {
				t.Errorf("got %s, want %s", got, test.want)
			}
		})
	}
}

var ignoreSpans = cmp.Options{
	cmpopts.IgnoreUnexported(ast.ASTBase{}),
	cmpopts.IgnoreFields(ast.Oper{}, "Span"),
}

func TestParseFuncDef(t *testing.T) {
	src := `
def fib(n: int) -> int:
    if n <= 1:
        return n
    return fib(n-1) + fib(n-2)
`
	unit := parseString(t, src)

	n := func() ast.Expr { return &ast.Name{Name: "n"} }
	callFib := func(k string) ast.Expr {
		return &ast.Call{
			Func: &ast.Name{Name: "fib"},
			Args: []ast.Expr{&ast.BinaryOp{Op: &ast.Oper{Name: "-"}, Lhs: n(), Rhs: &ast.IntLit{Value: k}}},
		}
	}

	want := &ast.FuncDef{
		Name:    "fib",
		Params:  []*ast.Param{{Name: "n", Annotation: &ast.Name{Name: "int"}}},
		Returns: &ast.Name{Name: "int"},
		Body: []ast.Stmt{
			&ast.If{
				Cond: &ast.Compare{
					Exprs: []ast.Expr{n(), &ast.IntLit{Value: "1"}},
					Ops:   []*ast.Oper{{Name: "<="}},
				},
				Body: []ast.Stmt{&ast.Return{Value: n()}},
			},
			&ast.Return{Value: &ast.BinaryOp{Op: &ast.Oper{Name: "+"}, Lhs: callFib("1"), Rhs: callFib("2")}},
		},
	}

	funcs := unit.Funcs()
	if len(funcs) != 1 {
		t.Fatalf("got %d functions, want 1", len(funcs))
	}

	if diff := cmp.Diff(want, funcs[0], ignoreSpans); diff != "" {
		t.Errorf("function mismatch (-want +got):\n%s", diff)
	}

	span := funcs[0].Span()
	if span.StartLine != 1 || span.EndLine != 4 {
		t.Errorf("got function span %d-%d, want 1-4", span.StartLine, span.EndLine)
	}
}

func TestParseStatements(t *testing.T) {
	src := `
@parallel
@functools.lru_cache(maxsize=None)
def f(a, b=2):
    """Docstring."""
    global total
    x = y = a
    x += 1
    t: int = 0
    while x > 0:
        x -= 1
        if x == 3:
            break
        elif x == 5:
            continue
        else:
            pass
    for i in range(0, 10, 2):
        t = t + i
    a, b = b, a
    return
`
	unit := parseString(t, src)
	fd := unit.Funcs()[0]

	if got := len(fd.Decorators); got != 2 {
		t.Fatalf("got %d decorators, want 2", got)
	}

	if fd.Decorators[0].Name != "parallel" || fd.Decorators[0].Args != nil {
		t.Errorf("got decorator %q with args %v, want bare `parallel`", fd.Decorators[0].Name, fd.Decorators[0].Args)
	}

	if fd.Decorators[1].Name != "functools.lru_cache" || len(fd.Decorators[1].Keywords) != 1 {
		t.Errorf("got decorator %q, want called `functools.lru_cache`", fd.Decorators[1].Name)
	}

	if diff := cmp.Diff([]string{"a", "b"}, fd.ParamNames()); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}

	var kinds []string
	for _, stmt := range fd.Body {
		kinds = append(kinds, fmt.Sprintf("%T", stmt))
	}

	wantKinds := []string{
		"*ast.ExprStmt", "*ast.Global", "*ast.Assign", "*ast.AugAssign", "*ast.Assign",
		"*ast.While", "*ast.For", "*ast.Assign", "*ast.Return",
	}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatalf("statement kinds mismatch (-want +got):\n%s", diff)
	}

	if chain := fd.Body[2].(*ast.Assign); len(chain.Targets) != 2 {
		t.Errorf("got %d chained targets, want 2", len(chain.Targets))
	}

	if aug := fd.Body[3].(*ast.AugAssign); aug.Op.Name != "+" {
		t.Errorf("got augmented operator %q, want +", aug.Op.Name)
	}

	if annot := fd.Body[4].(*ast.Assign); annot.Annotation == nil || annot.Value == nil {
		t.Errorf("annotated assignment lost its annotation or value")
	}

	loop := fd.Body[5].(*ast.While)
	ifStmt := loop.Body[1].(*ast.If)
	elif, ok := ifStmt.Else[0].(*ast.If)
	if !ok || !elif.Elif {
		t.Fatalf("elif was not parsed as a nested if")
	}

	if _, ok := elif.Else[0].(*ast.Pass); !ok {
		t.Errorf("got %T in else block, want pass", elif.Else[0])
	}

	forStmt := fd.Body[6].(*ast.For)
	if got := sexpr(forStmt.Iter); got != "(call range 0 10 2)" {
		t.Errorf("got iterator %s", got)
	}

	if ret := fd.Body[8].(*ast.Return); ret.Value != nil {
		t.Errorf("bare return has a value")
	}
}

func TestParseImports(t *testing.T) {
	src := `import numpy as np, os.path
from collections import (defaultdict,
    Counter,)
from concurrent.futures import *

def main():
    return 0
`
	unit := parseString(t, src)

	imports := unit.Imports()

	var modules []string
	for _, imp := range imports {
		modules = append(modules, imp.Module)
	}

	if diff := cmp.Diff([]string{"numpy", "os.path", "collections", "concurrent.futures"}, modules); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}

	if imports[0].Alias != "np" {
		t.Errorf("got alias %q, want np", imports[0].Alias)
	}

	if diff := cmp.Diff([]string{"defaultdict", "Counter"}, imports[2].Names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	if len(unit.Decls) != 5 {
		t.Errorf("got %d declarations, want 5", len(unit.Decls))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
		line int
	}{
		{"bad parameter", "def f(:\n    pass\n", "unexpected `:`", 1},
		{"missing indent", "def f():\nreturn 1\n", "unexpected `return`", 2},
		{"unexpected indent", "x = 1\n    y = 2\n", "unexpected indent", 2},
		{"unsupported keyword", "class A:\n    pass\n", "`class` is not supported", 1},
		{"nested import", "def f():\n    import os\n", "imports are only supported at the top level of a file", 2},
		{"duplicate parameter", "def f(a, a):\n    pass\n", "duplicate parameter `a`", 1},
		{"bad assignment target", "f() = 1\n", "cannot assign to expression", 1},
		{"varargs", "def f(*args):\n    pass\n", "variadic parameters are not supported", 1},
		{"relative import", "from . import x\n", "relative imports are not supported", 1},
		{"unclosed call", "f(1\n", "unexpected newline", 2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse("/src/test.py", "test.py", strings.NewReader(test.src))

			var lce *report.LocalCompileError
			if !errors.As(err, &lce) {
				t.Fatalf("got error %v, want a compile error", err)
			}

			if lce.Message != test.msg {
				t.Errorf("got message %q, want %q", lce.Message, test.msg)
			}

			if lce.Span == nil || lce.Span.StartLine+1 != test.line {
				t.Errorf("got span %v, want line %d", lce.Span, test.line)
			}
		})
	}
}
