package ast

// Stmt represents a statement.  All statement nodes implement `Stmt`.
type Stmt interface {
	ASTNode

	stmtNode()
}

func (*If) stmtNode()        {}
func (*While) stmtNode()     {}
func (*For) stmtNode()       {}
func (*Return) stmtNode()    {}
func (*Assign) stmtNode()    {}
func (*AugAssign) stmtNode() {}
func (*ExprStmt) stmtNode()  {}
func (*Pass) stmtNode()      {}
func (*Break) stmtNode()     {}
func (*Continue) stmtNode()  {}
func (*Global) stmtNode()    {}
func (*FuncDef) stmtNode()   {}

// If is an if statement.  An `elif` is an If which is the sole statement of
// its parent's Else block and has its Elif flag set.
type If struct {
	ASTBase

	Cond Expr
	Body []Stmt
	Else []Stmt

	Elif bool
}

// While is a while loop.
type While struct {
	ASTBase

	Cond Expr
	Body []Stmt

	// The `else` block of the loop, if any.
	Else []Stmt
}

// For is a for loop.
type For struct {
	ASTBase

	Target Expr
	Iter   Expr
	Body   []Stmt

	// The `else` block of the loop, if any.
	Else []Stmt
}

// Return is a return statement.  Value is nil for a bare `return`.
type Return struct {
	ASTBase

	Value Expr
}

// Assign is an assignment statement.  Chained assignments such as `a = b = 0`
// have multiple targets.
type Assign struct {
	ASTBase

	Targets []Expr
	Value   Expr

	// The annotation of an annotated assignment: eg. `x: int = 0`.
	Annotation Expr
}

// AugAssign is an augmented assignment: eg. `x += 1`.  The operator is the
// underlying binary operator: `+` for `+=`.
type AugAssign struct {
	ASTBase

	Target Expr
	Op     *Oper
	Value  Expr
}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	ASTBase

	X Expr
}

type Pass struct {
	ASTBase
}

type Break struct {
	ASTBase
}

type Continue struct {
	ASTBase
}

// Global is a `global` declaration.
type Global struct {
	ASTBase

	Names []string
}
