package ast

// Inspect traverses an AST in depth-first order.  It starts by calling f(node);
// if f returns true, Inspect is invoked recursively for each of the non-nil
// children of node.  Nested function definitions are traversed as well.
func Inspect(node ASTNode, f func(ASTNode) bool) {
	if node == nil || !f(node) {
		return
	}

	switch v := node.(type) {
	case *FuncDef:
		for _, dec := range v.Decorators {
			inspectExprs(dec.Args, f)
			for _, kw := range dec.Keywords {
				inspectExpr(kw.Value, f)
			}
		}

		for _, param := range v.Params {
			inspectExpr(param.Default, f)
		}

		inspectStmts(v.Body, f)
	case *If:
		inspectExpr(v.Cond, f)
		inspectStmts(v.Body, f)
		inspectStmts(v.Else, f)
	case *While:
		inspectExpr(v.Cond, f)
		inspectStmts(v.Body, f)
		inspectStmts(v.Else, f)
	case *For:
		inspectExpr(v.Target, f)
		inspectExpr(v.Iter, f)
		inspectStmts(v.Body, f)
		inspectStmts(v.Else, f)
	case *Return:
		inspectExpr(v.Value, f)
	case *Assign:
		inspectExprs(v.Targets, f)
		inspectExpr(v.Value, f)
	case *AugAssign:
		inspectExpr(v.Target, f)
		inspectExpr(v.Value, f)
	case *ExprStmt:
		inspectExpr(v.X, f)
	case *UnaryOp:
		inspectExpr(v.Operand, f)
	case *BinaryOp:
		inspectExpr(v.Lhs, f)
		inspectExpr(v.Rhs, f)
	case *BoolOp:
		inspectExpr(v.Lhs, f)
		inspectExpr(v.Rhs, f)
	case *Compare:
		inspectExprs(v.Exprs, f)
	case *IfExpr:
		inspectExpr(v.Cond, f)
		inspectExpr(v.Then, f)
		inspectExpr(v.Else, f)
	case *Call:
		inspectExpr(v.Func, f)
		inspectExprs(v.Args, f)
		for _, kw := range v.Keywords {
			inspectExpr(kw.Value, f)
		}
	case *Attribute:
		inspectExpr(v.Value, f)
	case *Subscript:
		inspectExpr(v.Value, f)
		inspectExpr(v.Index, f)
	case *ListLit:
		inspectExprs(v.Elems, f)
	case *TupleLit:
		inspectExprs(v.Elems, f)
	case *DictLit:
		inspectExprs(v.Keys, f)
		inspectExprs(v.Values, f)
	}
}

func inspectStmts(stmts []Stmt, f func(ASTNode) bool) {
	for _, stmt := range stmts {
		Inspect(stmt, f)
	}
}

func inspectExprs(exprs []Expr, f func(ASTNode) bool) {
	for _, expr := range exprs {
		inspectExpr(expr, f)
	}
}

func inspectExpr(expr Expr, f func(ASTNode) bool) {
	if expr != nil {
		Inspect(expr, f)
	}
}
