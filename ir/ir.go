package ir

import "strings"

// File is a complete target compilation unit.
type File struct {
	// The crate-level attributes: eg. `allow(dead_code)`.
	Attrs []string

	// The use declarations of the file, each a complete declaration such as
	// `use std::collections::HashMap;`.
	Uses []string

	Items []Item
}

// Item is a top-level item of a file.
type Item interface {
	itemNode()
}

func (*FuncDef) itemNode() {}
func (*Static) itemNode()  {}

// FuncDef is a function definition.  Return is nil for functions returning
// the unit type.
type FuncDef struct {
	Name   string
	Params []Param
	Return *Type
	Body   *Block
}

// Param is a function parameter.  Mutable parameters may be assigned to in
// the function body.
type Param struct {
	Name string
	Mut  bool
	Type *Type
}

// Static is a static item: `static NAME: Type = Init;`.
type Static struct {
	Name string
	Type *Type
	Init Expr
}

// -----------------------------------------------------------------------------

// Type is a target type.  Tuple types have Tuple set and their element types
// in Args; all other types are a path with optional generic arguments.
type Type struct {
	Name  string
	Args  []*Type
	Tuple bool
}

// Named returns the type with the given name and no generic arguments.
func Named(name string) *Type {
	return &Type{Name: name}
}

// Generic returns a generic type applied to the given arguments.
func Generic(name string, args ...*Type) *Type {
	return &Type{Name: name, Args: args}
}

// TupleOf returns a tuple of the given element types.
func TupleOf(elems ...*Type) *Type {
	return &Type{Args: elems, Tuple: true}
}

// -----------------------------------------------------------------------------

// Block is a braced sequence of statements with an optional tail expression
// giving the block its value.
type Block struct {
	Stmts []Stmt
	Tail  Expr
}

// Stmt is a statement.
type Stmt interface {
	stmtNode()
}

func (*Let) stmtNode()      {}
func (*Assign) stmtNode()   {}
func (*ExprStmt) stmtNode() {}
func (*If) stmtNode()       {}
func (*While) stmtNode()    {}
func (*For) stmtNode()      {}
func (*Return) stmtNode()   {}
func (*Break) stmtNode()    {}
func (*Continue) stmtNode() {}

// Let introduces one or more local variables.  Multiple names are bound by
// destructuring a tuple.  Type and Value may be nil, but not both.
type Let struct {
	Names []string
	Mut   bool
	Type  *Type
	Value Expr
}

// Assign assigns to an existing place.  Op is `=` or a compound operator such
// as `+=`.
type Assign struct {
	Target Expr
	Op     string
	Value  Expr
}

// ExprStmt evaluates an expression and discards its value.
type ExprStmt struct {
	X Expr
}

// If is an if statement.  If Pattern is set, the statement is an `if let`
// matching Cond against the pattern.  Else is nil, a *Block, or an *If.
type If struct {
	Cond    Expr
	Pattern string
	Then    *Block
	Else    Stmt
}

// While is a while loop.  A nil condition is an infinite `loop`.
type While struct {
	Cond Expr
	Body *Block
}

// For is a for loop over an iterator.
type For struct {
	Var  string
	Mut  bool
	Iter Expr
	Body *Block
}

// Return is a return statement.  Value is nil for a bare `return`.
type Return struct {
	Value Expr
}

type Break struct{}

type Continue struct{}

// A block may appear as the else branch of an if statement.
func (*Block) stmtNode() {}

// -----------------------------------------------------------------------------

// Expr is an expression.
type Expr interface {
	exprNode()
}

func (*Lit) exprNode()        {}
func (*Ident) exprNode()      {}
func (*Unary) exprNode()      {}
func (*Binary) exprNode()     {}
func (*Cast) exprNode()       {}
func (*Call) exprNode()       {}
func (*MethodCall) exprNode() {}
func (*Macro) exprNode()      {}
func (*Closure) exprNode()    {}
func (*IfExpr) exprNode()     {}
func (*BlockExpr) exprNode()  {}
func (*Tuple) exprNode()      {}
func (*Range) exprNode()      {}
func (*Ref) exprNode()        {}

// Lit is a literal written out verbatim: eg. `35`, `1.0`, `true`, `"{}"`.
type Lit struct {
	Text string
}

// Ident is a name or path: eg. `n` or `rayon::join`.
type Ident struct {
	Name string
}

// Unary is a prefix operator application.
type Unary struct {
	Op string
	X  Expr
}

// Binary is an infix operator application.
type Binary struct {
	Op       string
	Lhs, Rhs Expr
}

// Cast is an `as` conversion.
type Cast struct {
	X    Expr
	Type *Type
}

// Call is a call of a function value or path.
type Call struct {
	Func Expr
	Args []Expr
}

// MethodCall is a method call: `Recv.Method(Args)`.
type MethodCall struct {
	Recv   Expr
	Method string
	Args   []Expr
}

// Macro is a macro invocation: `Name!(Args)`.
type Macro struct {
	Name string
	Args []Expr
}

// Closure is a closure.  It either has a block body or, when Body is nil, a
// single expression body.  Return may only be set with a block body.
type Closure struct {
	Params []string
	Return *Type
	Body   *Block
	Expr   Expr
}

// IfExpr is an if-else expression.
type IfExpr struct {
	Cond       Expr
	Then, Else *Block
}

// BlockExpr is a block used as an expression.
type BlockExpr struct {
	Block *Block
}

// Tuple is a tuple expression.
type Tuple struct {
	Elems []Expr
}

// Range is a range expression: `Start..End` or `Start..=End`.
type Range struct {
	Start, End Expr
	Inclusive  bool
}

// Ref takes a shared reference: `&X`.
type Ref struct {
	X Expr
}

// -----------------------------------------------------------------------------

// Tail returns a block whose only content is the given tail expression.
func Tail(expr Expr) *Block {
	return &Block{Tail: expr}
}

// ID returns an identifier expression.
func ID(name string) *Ident {
	return &Ident{Name: name}
}

// CallPath returns a call of the function with the given path.
func CallPath(path string, args ...Expr) *Call {
	return &Call{Func: ID(path), Args: args}
}

// Method returns a method call.
func Method(recv Expr, method string, args ...Expr) *MethodCall {
	return &MethodCall{Recv: recv, Method: method, Args: args}
}

// Repr returns the target spelling of the type.
func (t *Type) Repr() string {
	sb := strings.Builder{}

	if t.Tuple {
		sb.WriteRune('(')
		for i, elem := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(elem.Repr())
		}

		// Single element tuples need a trailing comma.
		if len(t.Args) == 1 {
			sb.WriteRune(',')
		}

		sb.WriteRune(')')
		return sb.String()
	}

	sb.WriteString(t.Name)
	if len(t.Args) > 0 {
		sb.WriteRune('<')
		for i, arg := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(arg.Repr())
		}
		sb.WriteRune('>')
	}

	return sb.String()
}
