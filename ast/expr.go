package ast

import "pyrs/report"

// Expr represents an expression.  All expression nodes implement `Expr`.
type Expr interface {
	ASTNode

	exprNode()
}

func (*Name) exprNode()      {}
func (*IntLit) exprNode()    {}
func (*FloatLit) exprNode()  {}
func (*BoolLit) exprNode()   {}
func (*NoneLit) exprNode()   {}
func (*StringLit) exprNode() {}
func (*UnaryOp) exprNode()   {}
func (*BinaryOp) exprNode()  {}
func (*BoolOp) exprNode()    {}
func (*Compare) exprNode()   {}
func (*IfExpr) exprNode()    {}
func (*Call) exprNode()      {}
func (*Attribute) exprNode() {}
func (*Subscript) exprNode() {}
func (*ListLit) exprNode()   {}
func (*TupleLit) exprNode()  {}
func (*DictLit) exprNode()   {}

// Oper is an operator used in the AST.  Operators are identified by their
// source spelling: eg. `//`, `not`, `<=`.
type Oper struct {
	Name string
	Span *report.TextSpan
}

// -----------------------------------------------------------------------------

// Name is a reference to a named value.
type Name struct {
	ASTBase

	Name string
}

// IntLit is an integer literal.  The value is the literal's decimal text with
// any underscores removed.
type IntLit struct {
	ASTBase

	Value string
}

// FloatLit is a floating-point literal.
type FloatLit struct {
	ASTBase

	Value string
}

// BoolLit is `True` or `False`.
type BoolLit struct {
	ASTBase

	Value bool
}

// NoneLit is `None`.
type NoneLit struct {
	ASTBase
}

// StringLit is a string literal.  The value has its quotes removed.
type StringLit struct {
	ASTBase

	Value string
}

// -----------------------------------------------------------------------------

// UnaryOp is a unary operator application: `-x`, `+x`, `~x`, or `not x`.
type UnaryOp struct {
	ASTBase

	Op      *Oper
	Operand Expr
}

// BinaryOp is an arithmetic or bitwise binary operator application.
type BinaryOp struct {
	ASTBase

	Op       *Oper
	Lhs, Rhs Expr
}

// BoolOp is a short-circuiting `and` or `or`.
type BoolOp struct {
	ASTBase

	Op       *Oper
	Lhs, Rhs Expr
}

// Compare is a sequence of one or more comparisons: eg. `a < b` or
// `0 <= i < n`.  There is always one more expression than operator.
type Compare struct {
	ASTBase

	Exprs []Expr
	Ops   []*Oper
}

// IfExpr is a conditional expression: `a if cond else b`.
type IfExpr struct {
	ASTBase

	Cond       Expr
	Then, Else Expr
}

// Call is a function call.
type Call struct {
	ASTBase

	Func     Expr
	Args     []Expr
	Keywords []*Keyword
}

// CalleeName returns the name of the called function if the callee is a plain
// name.
func (c *Call) CalleeName() (string, bool) {
	if name, ok := c.Func.(*Name); ok {
		return name.Name, true
	}

	return "", false
}

// Keyword is a keyword argument to a call.
type Keyword struct {
	ASTBase

	Name  string
	Value Expr
}

// Attribute is an attribute access: `x.y`.
type Attribute struct {
	ASTBase

	Value Expr
	Attr  string
}

// Subscript is an index expression: `x[i]`.
type Subscript struct {
	ASTBase

	Value Expr
	Index Expr
}

// ListLit is a list literal.
type ListLit struct {
	ASTBase

	Elems []Expr
}

// TupleLit is a tuple: eg. `(a, b)` or `a, b`.
type TupleLit struct {
	ASTBase

	Elems []Expr
}

// DictLit is a dictionary literal.  Keys and Values have the same length.
type DictLit struct {
	ASTBase

	Keys, Values []Expr
}
