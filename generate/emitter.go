package generate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"pyrs/ir"
	"pyrs/lower"
)

// CrateAttr is the crate-level attribute at the head of every program.
const CrateAttr = "allow(unused_imports, unused_parens, unused_mut, dead_code)"

// ErrNoFunctionsEmitted is returned when a program contains no functions.
var ErrNoFunctionsEmitted = errors.New("no functions emitted")

// UnknownEntryError is returned when the entry function is not one of the
// emitted functions.
type UnknownEntryError struct {
	Name string

	// The names of the emitted functions.
	Available []string
}

func (e *UnknownEntryError) Error() string {
	return fmt.Sprintf("entry function `%s` is not defined (defined: %s)", e.Name, strings.Join(e.Available, ", "))
}

// EntryPoint describes the call made by the generated `main` function.
type EntryPoint struct {
	// The source name of the function to call.
	Func string

	// The argument passed for every parameter of the function.
	Arg int64
}

// Program is an emitted program.
type Program struct {
	// The complete source text of the program.
	Source string

	// The use declarations of the program in order.
	Imports []string

	// The source text of the generated `main` function.
	Entry string

	File *ir.File
}

// Emit assembles a program from its use declarations and lowered functions.
// The program's imports are the given imports followed by those required by
// the functions, each appearing once in order of first occurrence.  Functions
// appear in the order given followed by a `main` function calling the entry
// point.
func Emit(imports []string, funcs []*lower.LoweredFunc, entry EntryPoint) (*Program, error) {
	if len(funcs) == 0 {
		return nil, ErrNoFunctionsEmitted
	}

	file := &ir.File{Attrs: []string{CrateAttr}}

	uses := append([]string{}, imports...)
	var target *lower.LoweredFunc
	seen := make(map[string]struct{})
	for _, lf := range funcs {
		if _, ok := seen[lf.Ident]; ok {
			return nil, fmt.Errorf("function `%s` is defined more than once", lf.Name)
		}
		seen[lf.Ident] = struct{}{}

		uses = append(uses, lf.Imports...)
		file.Items = append(file.Items, lf.Items...)

		if lf.Name == entry.Func {
			target = lf
		}
	}

	// Items of different functions share one namespace.
	items := make(map[string]struct{})
	for _, item := range file.Items {
		name := itemName(item)
		if _, ok := items[name]; ok {
			return nil, fmt.Errorf("item `%s` is defined more than once", name)
		}
		items[name] = struct{}{}
	}

	if target == nil {
		return nil, &UnknownEntryError{
			Name: entry.Func,
			Available: lo.Map(funcs, func(lf *lower.LoweredFunc, _ int) string {
				return lf.Name
			}),
		}
	}

	file.Uses = lo.Uniq(uses)

	main := entryFunc(target, entry.Arg)
	file.Items = append(file.Items, main)

	return &Program{
		Source:  Print(file),
		Imports: file.Uses,
		Entry:   printItem(main),
		File:    file,
	}, nil
}

// itemName returns the name an item defines.
func itemName(item ir.Item) string {
	switch v := item.(type) {
	case *ir.FuncDef:
		return v.Name
	case *ir.Static:
		return v.Name
	}

	return ""
}

// entryFunc builds the `main` function calling the entry function with the
// same argument for every parameter.  The result of the call, if any, is
// printed.
func entryFunc(target *lower.LoweredFunc, arg int64) *ir.FuncDef {
	args := make([]ir.Expr, len(target.Signature.Params))
	for i, param := range target.Signature.Params {
		text := strconv.FormatInt(arg, 10)
		if param.IsFloat() {
			text += ".0"
		}

		args[i] = &ir.Lit{Text: text}
	}

	call := &ir.Call{Func: ir.ID(target.Ident), Args: args}

	var stmt ir.Stmt
	if target.Void {
		stmt = &ir.ExprStmt{X: call}
	} else {
		stmt = &ir.ExprStmt{X: &ir.Macro{Name: "println", Args: []ir.Expr{&ir.Lit{Text: `"{}"`}, call}}}
	}

	return &ir.FuncDef{Name: "main", Body: &ir.Block{Stmts: []ir.Stmt{stmt}}}
}
