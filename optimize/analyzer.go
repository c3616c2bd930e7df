package optimize

import (
	"fmt"
	"strings"

	"pyrs/ast"
	"pyrs/typing"
)

// MemoStrategy selects how memoization eligibility is decided.
type MemoStrategy string

// Enumeration of memoization strategies.
const (
	// Structural memoizes self-recursive pure functions whose parameter types
	// are all hashable.
	Structural MemoStrategy = "structural"

	// NameHint memoizes self-recursive functions whose name contains
	// `NameHintSubstring`, ignoring case.
	NameHint MemoStrategy = "name-hint"
)

// MemoStrategies lists the accepted memoization strategy names.
var MemoStrategies = []string{string(Structural), string(NameHint)}

// ParseMemoStrategy converts a strategy name into a strategy.
func ParseMemoStrategy(name string) (MemoStrategy, bool) {
	switch MemoStrategy(name) {
	case Structural, NameHint:
		return MemoStrategy(name), true
	}

	return "", false
}

// NameHintSubstring is the substring looked for by the name-hint strategy.
const NameHintSubstring = "fib"

// impureBuiltins are the builtin functions that have observable side effects.
var impureBuiltins = map[string]struct{}{
	"print":   {},
	"input":   {},
	"open":    {},
	"exec":    {},
	"eval":    {},
	"setattr": {},
	"delattr": {},
}

// Analyzer is responsible for deciding which optimizations apply to the
// functions of a source unit.  It never fails: functions for which nothing can
// be decided simply have every optimization disabled.
type Analyzer struct {
	strategy MemoStrategy
	inferer  typing.Inferencer

	// The functions of the unit being analyzed by name.
	funcs map[string]*ast.FuncDef

	// The reason each function is impure.  Empty for pure functions.
	purity map[string]string
}

// NewAnalyzer creates a new analyzer using the given memoization strategy.
// The inferencer determines whether parameter types are hashable.
func NewAnalyzer(strategy MemoStrategy, inferer typing.Inferencer) *Analyzer {
	return &Analyzer{strategy: strategy, inferer: inferer}
}

// Analyze builds the optimization profile of a unit.  The supplied profile is
// consulted but not modified.
func (a *Analyzer) Analyze(unit *ast.SourceUnit, supplied Supplied) *Profile {
	a.funcs = make(map[string]*ast.FuncDef)
	a.purity = make(map[string]string)

	for _, fd := range unit.Funcs() {
		a.funcs[fd.Name] = fd
	}

	a.computePurity(unit.Funcs())

	profile := newProfile()
	for _, fd := range unit.Funcs() {
		profile.add(a.analyzeFunc(fd, supplied[fd.Name]))
	}

	return profile
}

// analyzeFunc produces the profile entry of a single function.
func (a *Analyzer) analyzeFunc(fd *ast.FuncDef, req Request) Entry {
	impurity := a.impurityOf(fd)

	entry := Entry{
		Name:          fd.Name,
		SelfRecursive: IsSelfRecursive(fd),
		Pure:          impurity == "",
	}

	entry.Memoize = a.decideMemoize(fd, entry, impurity, req)

	if req.Parallel != nil && *req.Parallel {
		entry.Parallel = Decision{Enabled: true, Reason: "requested by profile"}
	} else {
		entry.Parallel = Decision{Reason: "not requested"}
	}

	return entry
}

// decideMemoize decides whether a function is memoized.
func (a *Analyzer) decideMemoize(fd *ast.FuncDef, entry Entry, impurity string, req Request) Decision {
	if req.Memoize != nil && !*req.Memoize {
		return Decision{Reason: "disabled by profile"}
	}

	if !entry.SelfRecursive {
		return Decision{Reason: "not self-recursive"}
	}

	if !ReturnsValue(fd) {
		return Decision{Reason: "returns no value"}
	}

	if sig := a.inferer.Infer(fd); !sig.AllHashable() {
		return Decision{Reason: unhashableReason(fd, sig)}
	}

	if req.Memoize != nil {
		return Decision{Enabled: true, Reason: "requested by profile"}
	}

	switch a.strategy {
	case NameHint:
		if strings.Contains(strings.ToLower(fd.Name), NameHintSubstring) {
			return Decision{Enabled: true, Reason: fmt.Sprintf("self-recursive and name contains `%s`", NameHintSubstring)}
		}

		return Decision{Reason: fmt.Sprintf("name does not contain `%s`", NameHintSubstring)}
	default:
		if impurity != "" {
			return Decision{Reason: impurity}
		}

		return Decision{Enabled: true, Reason: "self-recursive pure function over hashable parameters"}
	}
}

// unhashableReason names the first parameter of a function whose type cannot
// key a memo table.
func unhashableReason(fd *ast.FuncDef, sig typing.Signature) string {
	for i, param := range sig.Params {
		if !param.Hashable() {
			return fmt.Sprintf("type `%s` of parameter `%s` is not hashable", param.Name(), fd.Params[i].Name)
		}
	}

	return ""
}

// -----------------------------------------------------------------------------

// IsSelfRecursive returns whether the body of a function contains a call to a
// function with the same name.  This is a structural check: termination is
// not considered.
func IsSelfRecursive(fd *ast.FuncDef) bool {
	found := false

	for _, stmt := range fd.Body {
		ast.Inspect(stmt, func(node ast.ASTNode) bool {
			if call, ok := node.(*ast.Call); ok {
				if name, ok := call.CalleeName(); ok && name == fd.Name {
					found = true
				}
			}

			return !found
		})
	}

	return found
}

// ReturnsValue returns whether any return statement of a function, outside of
// nested function definitions, returns a value.
func ReturnsValue(fd *ast.FuncDef) bool {
	return blockReturnsValue(fd.Body)
}

func blockReturnsValue(stmts []ast.Stmt) bool {
	for _, stmt := range stmts {
		switch v := stmt.(type) {
		case *ast.Return:
			if v.Value != nil {
				return true
			}
		case *ast.If:
			if blockReturnsValue(v.Body) || blockReturnsValue(v.Else) {
				return true
			}
		case *ast.While:
			if blockReturnsValue(v.Body) || blockReturnsValue(v.Else) {
				return true
			}
		case *ast.For:
			if blockReturnsValue(v.Body) || blockReturnsValue(v.Else) {
				return true
			}
		}
	}

	return false
}

// impurityOf returns why a function is impure or the empty string if it is
// pure.  The purity of every function is computed by Analyze beforehand.
func (a *Analyzer) impurityOf(fd *ast.FuncDef) string {
	return a.purity[fd.Name]
}

// computePurity decides the purity of every function of the unit.  A function
// is impure if it calls a side-effecting builtin, calls a method, declares a
// global, assigns through an attribute or subscript, or calls an impure
// function of the same unit.  Impurity is propagated along calls until nothing
// changes so that every function of a call cycle gets the same verdict.
func (a *Analyzer) computePurity(funcs []*ast.FuncDef) {
	callees := make(map[string][]string, len(funcs))
	for _, fd := range funcs {
		a.purity[fd.Name], callees[fd.Name] = a.localImpurity(fd)
	}

	for changed := true; changed; {
		changed = false

		for _, fd := range funcs {
			if a.purity[fd.Name] != "" {
				continue
			}

			for _, callee := range callees[fd.Name] {
				if a.purity[callee] != "" {
					a.purity[fd.Name] = fmt.Sprintf("calls impure function `%s`", callee)
					changed = true
					break
				}
			}
		}
	}
}

// localImpurity returns why the body of a function is impure by itself along
// with the functions of the unit it calls, in order of first call.
func (a *Analyzer) localImpurity(fd *ast.FuncDef) (string, []string) {
	reason := ""
	var callees []string
	seen := make(map[string]struct{})

	for _, stmt := range fd.Body {
		ast.Inspect(stmt, func(node ast.ASTNode) bool {
			if call, ok := node.(*ast.Call); ok {
				if name, ok := call.Func.(*ast.Name); ok {
					if _, ok := a.funcs[name.Name]; ok {
						if _, ok := seen[name.Name]; !ok {
							seen[name.Name] = struct{}{}
							callees = append(callees, name.Name)
						}
					}
				}
			}

			if reason == "" {
				reason = nodeImpurity(node)
			}

			return true
		})
	}

	return reason, callees
}

// nodeImpurity returns why a single node makes its function impure.  Calls to
// functions of the unit are not considered.
func nodeImpurity(node ast.ASTNode) string {
	switch v := node.(type) {
	case *ast.Global:
		return fmt.Sprintf("declares global `%s`", v.Names[0])
	case *ast.Assign:
		for _, target := range v.Targets {
			if reason := targetImpurity(target); reason != "" {
				return reason
			}
		}
	case *ast.AugAssign:
		return targetImpurity(v.Target)
	case *ast.Call:
		switch callee := v.Func.(type) {
		case *ast.Name:
			if _, ok := impureBuiltins[callee.Name]; ok {
				return fmt.Sprintf("calls side-effecting builtin `%s`", callee.Name)
			}
		case *ast.Attribute:
			return fmt.Sprintf("calls method `%s`", callee.Attr)
		}
	}

	return ""
}

// targetImpurity returns why assigning to the target is a side effect.
func targetImpurity(target ast.Expr) string {
	switch v := target.(type) {
	case *ast.Attribute:
		return fmt.Sprintf("assigns to attribute `%s`", v.Attr)
	case *ast.Subscript:
		return "assigns through a subscript"
	case *ast.TupleLit:
		for _, elem := range v.Elems {
			if reason := targetImpurity(elem); reason != "" {
				return reason
			}
		}
	case *ast.ListLit:
		for _, elem := range v.Elems {
			if reason := targetImpurity(elem); reason != "" {
				return reason
			}
		}
	}

	return ""
}
