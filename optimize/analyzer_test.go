package optimize

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pyrs/ast"
	"pyrs/syntax"
	"pyrs/typing"
)

func mustParse(t *testing.T, src string) *ast.SourceUnit {
	t.Helper()

	unit, err := syntax.Parse("/src/test.py", "test.py", strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	return unit
}

const fibSrc = `
def fib(n):
    if n <= 1:
        return n
    return fib(n - 1) + fib(n - 2)
`

func TestIsSelfRecursive(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"direct", fibSrc, true},
		{"in condition", "def f(n):\n    while f(n - 1) > 0:\n        n = n - 1\n    return n\n", true},
		{"nested in call args", "def f(n):\n    return max(0, abs(f(n - 1)))\n", true},
		{"in nested function", "def f(n):\n    def g(m):\n        return f(m)\n    return 0\n", true},
		{"calls other", "def f(n):\n    return g(n)\n", false},
		{"name only", "def f(n):\n    x = f\n    return n\n", false},
		{"method with same name", "def f(n):\n    return m.f(n)\n", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fd := mustParse(t, test.src).Funcs()[0]

			if got := IsSelfRecursive(fd); got != test.want {
				t.Errorf("got %v, want %v", got, test.want)
			}
		})
	}
}

func analyze(t *testing.T, strategy MemoStrategy, typ typing.Type, src string, supplied Supplied) *Profile {
	t.Helper()

	return NewAnalyzer(strategy, typing.NewFixed(typ)).Analyze(mustParse(t, src), supplied)
}

func TestStructuralMemoization(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		fn     string
		want   bool
		reason string
	}{
		{"fib", fibSrc, "fib", true, "self-recursive pure function over hashable parameters"},
		{
			"any name",
			"def ways(n):\n    if n < 2:\n        return 1\n    return ways(n - 1) + ways(n - 2)\n",
			"ways", true, "self-recursive pure function over hashable parameters",
		},
		{
			"prints",
			"def f(n):\n    print(n)\n    return f(n - 1)\n",
			"f", false, "calls side-effecting builtin `print`",
		},
		{
			"global",
			"def f(n):\n    global count\n    count += 1\n    return f(n - 1)\n",
			"f", false, "declares global `count`",
		},
		{
			"calls impure helper",
			"def log(n):\n    print(n)\n    return n\n\ndef f(n):\n    return f(log(n))\n",
			"f", false, "calls impure function `log`",
		},
		{
			"mutually recursive helpers are pure",
			"def even(n):\n    return odd(n - 1)\n\ndef odd(n):\n    return even(n - 1) + odd(n - 2)\n",
			"odd", true, "self-recursive pure function over hashable parameters",
		},
		{
			"impure function in a call cycle",
			"def g(n):\n    x = f(n - 1)\n    print(x)\n    return x\n\ndef f(n):\n    if n < 1:\n        return 0\n    return f(n - 1) + g(n - 1)\n",
			"f", false, "calls impure function `g`",
		},
		{
			"method call",
			"def f(xs):\n    xs.append(1)\n    return f(xs)\n",
			"f", false, "calls method `append`",
		},
		{
			"subscript assignment",
			"def f(xs, n):\n    xs[n] = 0\n    return f(xs, n - 1)\n",
			"f", false, "assigns through a subscript",
		},
		{
			"no value",
			"def countdown(n):\n    if n > 0:\n        countdown(n - 1)\n",
			"countdown", false, "returns no value",
		},
		{
			"not recursive",
			"def double(n):\n    return n * 2\n",
			"double", false, "not self-recursive",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			profile := analyze(t, Structural, typing.PrimI64, test.src, nil)

			entry, ok := profile.Lookup(test.fn)
			if !ok {
				t.Fatalf("no entry for %s", test.fn)
			}

			want := Decision{Enabled: test.want, Reason: test.reason}
			if diff := cmp.Diff(want, entry.Memoize); diff != "" {
				t.Errorf("memoize decision mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestImpurityCrossesCallCycles(t *testing.T) {
	src := "def g(n):\n    x = f(n - 1)\n    print(x)\n    return x\n\ndef f(n):\n    if n < 1:\n        return 0\n    return f(n - 1) + g(n - 1)\n"

	for _, strategy := range []MemoStrategy{Structural, NameHint} {
		profile := analyze(t, strategy, typing.PrimI64, src, nil)

		for _, name := range []string{"g", "f"} {
			entry, _ := profile.Lookup(name)
			if entry.Pure {
				t.Errorf("%s: %s is marked pure", strategy, name)
			}
		}

		if f, _ := profile.Lookup("f"); strategy == Structural && f.Memoize.Enabled {
			t.Errorf("%s: f is memoized although it calls an impure function", strategy)
		}
	}
}

func TestUnhashableParametersAreNotMemoized(t *testing.T) {
	profile := analyze(t, Structural, typing.PrimF64, fibSrc, nil)

	entry, _ := profile.Lookup("fib")

	want := Decision{Reason: "type `f64` of parameter `n` is not hashable"}
	if diff := cmp.Diff(want, entry.Memoize); diff != "" {
		t.Errorf("memoize decision mismatch (-want +got):\n%s", diff)
	}
}

func TestNameHintMemoization(t *testing.T) {
	tests := []struct {
		name string
		src  string
		fn   string
		want bool
	}{
		{"fib", fibSrc, "fib", true},
		{"case insensitive", "def FibStep(n):\n    print(n)\n    return FibStep(n - 1)\n", "FibStep", true},
		{"recursive without hint", "def ways(n):\n    return ways(n - 1)\n", "ways", false},
		{"hint without recursion", "def fib(n):\n    return n\n", "fib", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			profile := analyze(t, NameHint, typing.PrimI64, test.src, nil)

			if got := profile.Flags(test.fn).Memoize; got != test.want {
				t.Errorf("got memoize %v, want %v", got, test.want)
			}
		})
	}
}

func TestSuppliedRequests(t *testing.T) {
	src := fibSrc + "\ndef square(n):\n    return n * n\n\ndef noisy(n):\n    print(n)\n    return noisy(n - 1)\n"

	supplied := Supplied{
		"fib":    {Memoize: boolPtr(false), Parallel: boolPtr(true)},
		"square": {Memoize: boolPtr(true)},
		"noisy":  {Memoize: boolPtr(true)},
	}

	profile := analyze(t, Structural, typing.PrimI64, src, supplied)

	fib, _ := profile.Lookup("fib")
	if diff := cmp.Diff(Decision{Reason: "disabled by profile"}, fib.Memoize); diff != "" {
		t.Errorf("fib memoize mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(Decision{Enabled: true, Reason: "requested by profile"}, fib.Parallel); diff != "" {
		t.Errorf("fib parallel mismatch (-want +got):\n%s", diff)
	}

	square, _ := profile.Lookup("square")
	if diff := cmp.Diff(Decision{Reason: "not self-recursive"}, square.Memoize); diff != "" {
		t.Errorf("square memoize mismatch (-want +got):\n%s", diff)
	}

	noisy, _ := profile.Lookup("noisy")
	if !noisy.Memoize.Enabled || noisy.Pure {
		t.Errorf("explicit request did not memoize impure recursive function: %+v", noisy)
	}

	if _, ok := supplied["fib"]; !ok || *supplied["fib"].Memoize {
		t.Errorf("supplied profile was modified")
	}
}

func TestParallelIsNeverInvented(t *testing.T) {
	profile := analyze(t, Structural, typing.PrimI64, fibSrc, nil)

	if profile.Flags("fib").Parallel {
		t.Errorf("parallel flag set without a request")
	}
}

func TestMissingEntryDefaultsToDisabled(t *testing.T) {
	profile := analyze(t, Structural, typing.PrimI64, fibSrc, nil)

	entry, ok := profile.Lookup("missing")
	if ok {
		t.Errorf("found an entry for an undefined function")
	}

	if entry.Flags() != (Flags{}) {
		t.Errorf("got flags %+v, want none", entry.Flags())
	}

	var nilProfile *Profile
	if nilProfile.Flags("fib") != (Flags{}) {
		t.Errorf("nil profile has flags")
	}
}

func TestEntriesKeepDeclarationOrder(t *testing.T) {
	src := "def b():\n    return 1\n\ndef a():\n    return 2\n\ndef c():\n    return 3\n"
	profile := analyze(t, Structural, typing.PrimI64, src, nil)

	var names []string
	for _, entry := range profile.Entries() {
		names = append(names, entry.Name)
	}

	if diff := cmp.Diff([]string{"b", "a", "c"}, names); diff != "" {
		t.Errorf("entry order mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMemoStrategy(t *testing.T) {
	for _, name := range MemoStrategies {
		if _, ok := ParseMemoStrategy(name); !ok {
			t.Errorf("strategy %q was rejected", name)
		}
	}

	if _, ok := ParseMemoStrategy("always"); ok {
		t.Errorf("unknown strategy was accepted")
	}
}

func TestReturnsValue(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"value", fibSrc, true},
		{"in loop", "def f(n):\n    while n > 0:\n        if n == 3:\n            return n\n        n -= 1\n", true},
		{"bare return", "def f(n):\n    if n < 0:\n        return\n    print(n)\n", false},
		{"nested def", "def f(n):\n    def g():\n        return 1\n    print(n)\n", false},
		{"none", "def f(n):\n    pass\n", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fd := mustParse(t, test.src).Funcs()[0]

			if got := ReturnsValue(fd); got != test.want {
				t.Errorf("got %v, want %v", got, test.want)
			}
		})
	}
}
