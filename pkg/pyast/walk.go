package pyast

import "fmt"

// Inspect traverses the tree rooted at node in source order, calling f for
// each node. If f returns false the children of that node are skipped.
// Nil children are never passed to f.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	for _, c := range children(node) {
		Inspect(c, f)
	}
}

type childList []Node

func (l *childList) expr(e Expr) {
	if e != nil {
		*l = append(*l, e)
	}
}

func (l *childList) exprs(list []Expr) {
	for _, e := range list {
		l.expr(e)
	}
}

func (l *childList) stmts(list []Stmt) {
	for _, s := range list {
		*l = append(*l, s)
	}
}

func (l *childList) patterns(list []Pattern) {
	for _, p := range list {
		if p != nil {
			*l = append(*l, p)
		}
	}
}

func (l *childList) typeParams(list []TypeParam) {
	for _, p := range list {
		*l = append(*l, p)
	}
}

func (l *childList) arg(a *Arg) {
	if a != nil {
		*l = append(*l, a)
	}
}

func (l *childList) generators(gens []*Comprehension) {
	for _, g := range gens {
		*l = append(*l, g)
	}
}

// children lists the direct children of n in source order.
func children(n Node) []Node {
	var l childList
	switch n := n.(type) {
	case *Module:
		l.stmts(n.Body)

	case *FunctionDef:
		l.exprs(n.Decorators)
		l.typeParams(n.TypeParams)
		if n.Args != nil {
			l = append(l, n.Args)
		}
		l.expr(n.Returns)
		l.stmts(n.Body)
	case *ClassDef:
		l.exprs(n.Decorators)
		l.typeParams(n.TypeParams)
		l.exprs(n.Bases)
		for _, k := range n.Keywords {
			l = append(l, k)
		}
		l.stmts(n.Body)
	case *Return:
		l.expr(n.Value)
	case *Delete:
		l.exprs(n.Targets)
	case *Assign:
		l.exprs(n.Targets)
		l.expr(n.Value)
	case *TypeAlias:
		l.expr(n.Name)
		l.typeParams(n.TypeParams)
		l.expr(n.Value)
	case *AugAssign:
		l.expr(n.Target)
		l.expr(n.Value)
	case *AnnAssign:
		l.expr(n.Target)
		l.expr(n.Annotation)
		l.expr(n.Value)
	case *For:
		l.expr(n.Target)
		l.expr(n.Iter)
		l.stmts(n.Body)
		l.stmts(n.Orelse)
	case *While:
		l.expr(n.Test)
		l.stmts(n.Body)
		l.stmts(n.Orelse)
	case *If:
		l.expr(n.Test)
		l.stmts(n.Body)
		l.stmts(n.Orelse)
	case *With:
		for _, item := range n.Items {
			l = append(l, item)
		}
		l.stmts(n.Body)
	case *Match:
		l.expr(n.Subject)
		for _, c := range n.Cases {
			l = append(l, c)
		}
	case *Raise:
		l.expr(n.Exc)
		l.expr(n.Cause)
	case *Try:
		l.stmts(n.Body)
		for _, h := range n.Handlers {
			l = append(l, h)
		}
		l.stmts(n.Orelse)
		l.stmts(n.Finalbody)
	case *Assert:
		l.expr(n.Test)
		l.expr(n.Msg)
	case *Import:
		for _, a := range n.Names {
			l = append(l, a)
		}
	case *ImportFrom:
		for _, a := range n.Names {
			l = append(l, a)
		}
	case *ExprStmt:
		l.expr(n.Value)
	case *Global, *Nonlocal, *Pass, *Break, *Continue:

	case *BoolOp:
		l.exprs(n.Values)
	case *NamedExpr:
		l.expr(n.Target)
		l.expr(n.Value)
	case *BinOp:
		l.expr(n.Left)
		l.expr(n.Right)
	case *UnaryOp:
		l.expr(n.Operand)
	case *Lambda:
		if n.Args != nil {
			l = append(l, n.Args)
		}
		l.expr(n.Body)
	case *IfExp:
		l.expr(n.Test)
		l.expr(n.Body)
		l.expr(n.Orelse)
	case *Dict:
		for i, v := range n.Values {
			if i < len(n.Keys) {
				l.expr(n.Keys[i])
			}
			l.expr(v)
		}
	case *Set:
		l.exprs(n.Elts)
	case *ListComp:
		l.expr(n.Elt)
		l.generators(n.Generators)
	case *SetComp:
		l.expr(n.Elt)
		l.generators(n.Generators)
	case *DictComp:
		l.expr(n.Key)
		l.expr(n.Value)
		l.generators(n.Generators)
	case *GeneratorExp:
		l.expr(n.Elt)
		l.generators(n.Generators)
	case *Await:
		l.expr(n.Value)
	case *Yield:
		l.expr(n.Value)
	case *YieldFrom:
		l.expr(n.Value)
	case *Compare:
		l.expr(n.Left)
		l.exprs(n.Comparators)
	case *Call:
		l.expr(n.Func)
		l.exprs(n.Args)
		for _, k := range n.Keywords {
			l = append(l, k)
		}
	case *FormattedValue:
		l.expr(n.Value)
		l.expr(n.FormatSpec)
	case *JoinedStr:
		l.exprs(n.Values)
	case *Attribute:
		l.expr(n.Value)
	case *Subscript:
		l.expr(n.Value)
		l.expr(n.Slice)
	case *Starred:
		l.expr(n.Value)
	case *List:
		l.exprs(n.Elts)
	case *Tuple:
		l.exprs(n.Elts)
	case *Slice:
		l.expr(n.Lower)
		l.expr(n.Upper)
		l.expr(n.Step)
	case *Constant, *Name:

	case *MatchValue:
		l.expr(n.Value)
	case *MatchSequence:
		l.patterns(n.Patterns)
	case *MatchMapping:
		l.exprs(n.Keys)
		l.patterns(n.Patterns)
	case *MatchClass:
		l.expr(n.Cls)
		l.patterns(n.Patterns)
		l.patterns(n.KwdPatterns)
	case *MatchAs:
		if n.Pattern != nil {
			l = append(l, n.Pattern)
		}
	case *MatchOr:
		l.patterns(n.Patterns)
	case *MatchSingleton, *MatchStar:

	case *TypeVar:
		l.expr(n.Bound)
	case *ParamSpec, *TypeVarTuple:

	case *Arguments:
		for _, a := range n.PosOnly {
			l.arg(a)
		}
		for _, a := range n.Args {
			l.arg(a)
		}
		l.arg(n.Vararg)
		for _, a := range n.KwOnly {
			l.arg(a)
		}
		l.exprs(n.KwDefaults)
		l.arg(n.Kwarg)
		l.exprs(n.Defaults)
	case *Arg:
		l.expr(n.Annotation)
	case *Keyword:
		l.expr(n.Value)
	case *Comprehension:
		l.expr(n.Target)
		l.expr(n.Iter)
		l.exprs(n.Ifs)
	case *ExceptHandler:
		l.expr(n.Type)
		l.stmts(n.Body)
	case *WithItem:
		l.expr(n.ContextExpr)
		l.expr(n.OptionalVars)
	case *MatchCase:
		l = append(l, n.Pattern)
		l.expr(n.Guard)
		l.stmts(n.Body)
	case *Alias:

	default:
		panic(fmt.Sprintf("pyast: unknown node %T", n))
	}
	return l
}

// FixLocations gives every statement without a line number, in place, the
// line of the statement before it in source order, starting from 1.
func FixLocations(m *Module) {
	last := 1
	Inspect(m, func(n Node) bool {
		if s, ok := n.(Stmt); ok {
			if loc := s.loc(); loc.Line == 0 {
				loc.Line = last
			} else {
				last = loc.Line
			}
		}
		return true
	})
}
