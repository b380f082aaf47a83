package engine

import (
	mathrand "math/rand"
	"strings"

	"github.com/benzoXdev/obfuspy/pkg/errors"
	"github.com/benzoXdev/obfuspy/pkg/pyast"
)

// Docstrings are replaced by random text of this length range.
const (
	docstringMinLen = 20
	docstringMaxLen = 30
)

// Rewriter applies a rename map and the literal registry to a tree,
// producing a new tree. A Rewriter is good for one pass.
type Rewriter struct {
	r              *mathrand.Rand
	names          *RenameMap
	imports        ImportSet
	reg            *Registry
	rewriteImports bool

	// literals is false inside annotations and patterns, where only names
	// are rewritten.
	literals bool
	stats    PassStats
}

// NewRewriter returns a Rewriter for one pass. A nil reg leaves literals as
// they are.
func NewRewriter(r *mathrand.Rand, names *RenameMap, imports ImportSet, reg *Registry, rewriteImports bool) *Rewriter {
	if reg == nil {
		reg = NewRegistry()
	}
	if imports == nil {
		imports = ImportSet{}
	}
	return &Rewriter{
		r:              r,
		names:          names,
		imports:        imports,
		reg:            reg,
		rewriteImports: rewriteImports,
		literals:       true,
	}
}

// Rewrite returns the rewritten copy of m. It panics with an
// ErrCodeUnsupportedConstruct error on a node kind it does not know.
func (w *Rewriter) Rewrite(m *pyast.Module) *pyast.Module {
	return &pyast.Module{Body: w.stmts(m.Body)}
}

// Stats returns the counters of the literal side of the pass.
func (w *Rewriter) Stats() PassStats { return w.stats }

func unsupported(n any) {
	panic(errors.New(errors.ErrCodeUnsupportedConstruct, "cannot rewrite node %T", n))
}

func (w *Rewriter) rename(name string) string { return w.names.Rename(name) }

func (w *Rewriter) renameAll(names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = w.rename(n)
	}
	return out
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (w *Rewriter) stmts(list []pyast.Stmt) []pyast.Stmt {
	if list == nil {
		return nil
	}
	out := make([]pyast.Stmt, len(list))
	for i, s := range list {
		out[i] = w.stmt(s)
	}
	return out
}

func (w *Rewriter) stmt(s pyast.Stmt) pyast.Stmt {
	switch s := s.(type) {
	case *pyast.FunctionDef:
		out := &pyast.FunctionDef{Loc: s.Loc, Name: w.rename(s.Name), Async: s.Async}
		out.Decorators = w.exprs(s.Decorators)
		out.TypeParams = w.typeParams(s.TypeParams)
		out.Args = w.arguments(s.Args)
		out.Returns = w.annotation(s.Returns)
		out.Body = w.stmts(s.Body)
		return out
	case *pyast.ClassDef:
		out := &pyast.ClassDef{Loc: s.Loc, Name: w.rename(s.Name)}
		out.Decorators = w.exprs(s.Decorators)
		out.TypeParams = w.typeParams(s.TypeParams)
		out.Bases = w.exprs(s.Bases)
		out.Keywords = w.keywords(s.Keywords, true)
		out.Body = w.stmts(s.Body)
		return out
	case *pyast.Return:
		return &pyast.Return{Loc: s.Loc, Value: w.expr(s.Value)}
	case *pyast.Delete:
		return &pyast.Delete{Loc: s.Loc, Targets: w.exprs(s.Targets)}
	case *pyast.Assign:
		return &pyast.Assign{Loc: s.Loc, Targets: w.exprs(s.Targets), Value: w.expr(s.Value)}
	case *pyast.TypeAlias:
		out := &pyast.TypeAlias{Loc: s.Loc, Name: w.expr(s.Name)}
		out.TypeParams = w.typeParams(s.TypeParams)
		out.Value = w.annotation(s.Value)
		return out
	case *pyast.AugAssign:
		return &pyast.AugAssign{Loc: s.Loc, Target: w.expr(s.Target), Op: s.Op, Value: w.expr(s.Value)}
	case *pyast.AnnAssign:
		return &pyast.AnnAssign{
			Loc:        s.Loc,
			Target:     w.expr(s.Target),
			Annotation: w.annotation(s.Annotation),
			Value:      w.expr(s.Value),
			Simple:     s.Simple,
		}
	case *pyast.For:
		return &pyast.For{
			Loc:    s.Loc,
			Target: w.expr(s.Target),
			Iter:   w.expr(s.Iter),
			Body:   w.stmts(s.Body),
			Orelse: w.stmts(s.Orelse),
			Async:  s.Async,
		}
	case *pyast.While:
		return &pyast.While{Loc: s.Loc, Test: w.expr(s.Test), Body: w.stmts(s.Body), Orelse: w.stmts(s.Orelse)}
	case *pyast.If:
		return &pyast.If{Loc: s.Loc, Test: w.expr(s.Test), Body: w.stmts(s.Body), Orelse: w.stmts(s.Orelse)}
	case *pyast.With:
		items := make([]*pyast.WithItem, len(s.Items))
		for i, it := range s.Items {
			items[i] = &pyast.WithItem{ContextExpr: w.expr(it.ContextExpr), OptionalVars: w.expr(it.OptionalVars)}
		}
		return &pyast.With{Loc: s.Loc, Items: items, Body: w.stmts(s.Body), Async: s.Async}
	case *pyast.Match:
		out := &pyast.Match{Loc: s.Loc, Subject: w.expr(s.Subject)}
		out.Cases = make([]*pyast.MatchCase, len(s.Cases))
		for i, c := range s.Cases {
			out.Cases[i] = &pyast.MatchCase{Pattern: w.pattern(c.Pattern), Guard: w.expr(c.Guard), Body: w.stmts(c.Body)}
		}
		return out
	case *pyast.Raise:
		return &pyast.Raise{Loc: s.Loc, Exc: w.expr(s.Exc), Cause: w.expr(s.Cause)}
	case *pyast.Try:
		out := &pyast.Try{Loc: s.Loc, Body: w.stmts(s.Body), Star: s.Star}
		if s.Handlers != nil {
			out.Handlers = make([]*pyast.ExceptHandler, len(s.Handlers))
			for i, h := range s.Handlers {
				out.Handlers[i] = &pyast.ExceptHandler{Type: w.expr(h.Type), Name: w.rename(h.Name), Body: w.stmts(h.Body)}
			}
		}
		out.Orelse = w.stmts(s.Orelse)
		out.Finalbody = w.stmts(s.Finalbody)
		return out
	case *pyast.Assert:
		return &pyast.Assert{Loc: s.Loc, Test: w.expr(s.Test), Msg: w.expr(s.Msg)}
	case *pyast.Import:
		if dyn := w.dynamicImport(s); dyn != nil {
			return dyn
		}
		return &pyast.Import{Loc: s.Loc, Names: copyAliases(s.Names)}
	case *pyast.ImportFrom:
		return &pyast.ImportFrom{Loc: s.Loc, Module: s.Module, Names: copyAliases(s.Names), Level: s.Level}
	case *pyast.Global:
		return &pyast.Global{Loc: s.Loc, Names: w.renameAll(s.Names)}
	case *pyast.Nonlocal:
		return &pyast.Nonlocal{Loc: s.Loc, Names: w.renameAll(s.Names)}
	case *pyast.ExprStmt:
		if c, ok := s.Value.(*pyast.Constant); ok {
			if _, ok := c.Value.(pyast.Str); ok {
				w.stats.Docstrings++
				doc := RandIdent(w.r, docstringMinLen, docstringMaxLen)
				return &pyast.ExprStmt{Loc: s.Loc, Value: pyast.NewConst(pyast.Str(doc))}
			}
		}
		return &pyast.ExprStmt{Loc: s.Loc, Value: w.expr(s.Value)}
	case *pyast.Pass:
		return &pyast.Pass{Loc: s.Loc}
	case *pyast.Break:
		return &pyast.Break{Loc: s.Loc}
	case *pyast.Continue:
		return &pyast.Continue{Loc: s.Loc}
	}
	unsupported(s)
	return nil
}

func copyAliases(list []*pyast.Alias) []*pyast.Alias {
	out := make([]*pyast.Alias, len(list))
	for i, a := range list {
		cp := *a
		out[i] = &cp
	}
	return out
}

// dynamicImport turns `import m` into
// `m = __import__('m', globals(), locals(), [], 0)`. Only single-alias
// statements whose alias is undotted or unaliased qualify, since __import__
// returns the top-level package. It returns nil when s is left as is.
func (w *Rewriter) dynamicImport(s *pyast.Import) pyast.Stmt {
	if !w.rewriteImports || len(s.Names) != 1 {
		return nil
	}
	a := s.Names[0]
	if strings.Contains(a.Name, ".") && a.AsName != "" {
		return nil
	}
	w.stats.DynamicImports++
	call := pyast.NewCall(dynamicImportFunc,
		pyast.NewConst(pyast.Str(a.Name)),
		pyast.NewCall("globals"),
		pyast.NewCall("locals"),
		&pyast.List{Ctx: pyast.Load},
		pyast.NewConst(pyast.NewInt(0)),
	)
	target := &pyast.Name{ID: importBinding(a), Ctx: pyast.Store}
	return &pyast.Assign{Loc: s.Loc, Targets: []pyast.Expr{target}, Value: call}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (w *Rewriter) exprs(list []pyast.Expr) []pyast.Expr {
	if list == nil {
		return nil
	}
	out := make([]pyast.Expr, len(list))
	for i, e := range list {
		out[i] = w.expr(e)
	}
	return out
}

// annotation rewrites names in e and leaves its literals alone.
func (w *Rewriter) annotation(e pyast.Expr) pyast.Expr {
	if e == nil {
		return nil
	}
	saved := w.literals
	w.literals = false
	defer func() { w.literals = saved }()
	return w.expr(e)
}

func (w *Rewriter) expr(e pyast.Expr) pyast.Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *pyast.Name:
		return &pyast.Name{ID: w.rename(e.ID), Ctx: e.Ctx}
	case *pyast.Constant:
		return w.constant(e)
	case *pyast.Attribute:
		attr := e.Attr
		if !w.rootedAtImport(e.Value) {
			attr = w.rename(attr)
		}
		return &pyast.Attribute{Value: w.expr(e.Value), Attr: attr, Ctx: e.Ctx}
	case *pyast.JoinedStr:
		if !w.literals {
			return w.joinedStrNames(e)
		}
		w.stats.FStrings++
		return w.fstring(e)
	case *pyast.FormattedValue:
		if !w.literals {
			return &pyast.FormattedValue{Value: w.expr(e.Value), Conversion: e.Conversion, FormatSpec: w.expr(e.FormatSpec)}
		}
		return w.formatted(e)
	case *pyast.BoolOp:
		return &pyast.BoolOp{Op: e.Op, Values: w.exprs(e.Values)}
	case *pyast.NamedExpr:
		return &pyast.NamedExpr{Target: w.expr(e.Target), Value: w.expr(e.Value)}
	case *pyast.BinOp:
		return &pyast.BinOp{Left: w.expr(e.Left), Op: e.Op, Right: w.expr(e.Right)}
	case *pyast.UnaryOp:
		return &pyast.UnaryOp{Op: e.Op, Operand: w.expr(e.Operand)}
	case *pyast.Lambda:
		return &pyast.Lambda{Args: w.arguments(e.Args), Body: w.expr(e.Body)}
	case *pyast.IfExp:
		return &pyast.IfExp{Test: w.expr(e.Test), Body: w.expr(e.Body), Orelse: w.expr(e.Orelse)}
	case *pyast.Dict:
		return &pyast.Dict{Keys: w.exprs(e.Keys), Values: w.exprs(e.Values)}
	case *pyast.Set:
		return &pyast.Set{Elts: w.exprs(e.Elts)}
	case *pyast.ListComp:
		return &pyast.ListComp{Elt: w.expr(e.Elt), Generators: w.comprehensions(e.Generators)}
	case *pyast.SetComp:
		return &pyast.SetComp{Elt: w.expr(e.Elt), Generators: w.comprehensions(e.Generators)}
	case *pyast.DictComp:
		return &pyast.DictComp{Key: w.expr(e.Key), Value: w.expr(e.Value), Generators: w.comprehensions(e.Generators)}
	case *pyast.GeneratorExp:
		return &pyast.GeneratorExp{Elt: w.expr(e.Elt), Generators: w.comprehensions(e.Generators)}
	case *pyast.Await:
		return &pyast.Await{Value: w.expr(e.Value)}
	case *pyast.Yield:
		return &pyast.Yield{Value: w.expr(e.Value)}
	case *pyast.YieldFrom:
		return &pyast.YieldFrom{Value: w.expr(e.Value)}
	case *pyast.Compare:
		ops := append([]pyast.CmpOperator(nil), e.Ops...)
		return &pyast.Compare{Left: w.expr(e.Left), Ops: ops, Comparators: w.exprs(e.Comparators)}
	case *pyast.Call:
		return &pyast.Call{Func: w.expr(e.Func), Args: w.exprs(e.Args), Keywords: w.keywords(e.Keywords, false)}
	case *pyast.Subscript:
		return &pyast.Subscript{Value: w.expr(e.Value), Slice: w.expr(e.Slice), Ctx: e.Ctx}
	case *pyast.Starred:
		return &pyast.Starred{Value: w.expr(e.Value), Ctx: e.Ctx}
	case *pyast.List:
		return &pyast.List{Elts: w.exprs(e.Elts), Ctx: e.Ctx}
	case *pyast.Tuple:
		return &pyast.Tuple{Elts: w.exprs(e.Elts), Ctx: e.Ctx}
	case *pyast.Slice:
		return &pyast.Slice{Lower: w.expr(e.Lower), Upper: w.expr(e.Upper), Step: w.expr(e.Step)}
	}
	unsupported(e)
	return nil
}

func (w *Rewriter) constant(c *pyast.Constant) pyast.Expr {
	if !w.literals {
		return c
	}
	shape := ShapeOf(c.Value)
	if shape == ShapeNone {
		return c
	}
	w.stats.Literals++
	return w.reg.Apply(w.r, shape, c)
}

// rootedAtImport reports whether e is an import binding or an attribute
// chain starting at one.
func (w *Rewriter) rootedAtImport(e pyast.Expr) bool {
	for {
		switch v := e.(type) {
		case *pyast.Attribute:
			e = v.Value
		case *pyast.Name:
			return w.imports.Has(v.ID)
		default:
			return false
		}
	}
}

// fstring turns f'a{x!r:>{w}}' into 'a' + format(repr(x), '>' + format(w)),
// folding left to right.
func (w *Rewriter) fstring(js *pyast.JoinedStr) pyast.Expr {
	var acc pyast.Expr
	for _, v := range js.Values {
		var part pyast.Expr
		switch v := v.(type) {
		case *pyast.FormattedValue:
			part = w.formatted(v)
		default:
			part = w.expr(v)
		}
		if acc == nil {
			acc = part
		} else {
			acc = pyast.NewBinOp(acc, pyast.Add, part)
		}
	}
	if acc == nil {
		return w.constant(pyast.NewConst(pyast.Str("")))
	}
	return acc
}

var conversionFuncs = map[int]string{'r': "repr", 's': "str", 'a': "ascii"}

func (w *Rewriter) formatted(fv *pyast.FormattedValue) pyast.Expr {
	val := w.expr(fv.Value)
	if fn, ok := conversionFuncs[fv.Conversion]; ok {
		val = pyast.NewCall(fn, val)
	}
	args := []pyast.Expr{val}
	if fv.FormatSpec != nil {
		if spec, ok := fv.FormatSpec.(*pyast.JoinedStr); ok {
			args = append(args, w.fstring(spec))
		} else {
			args = append(args, w.expr(fv.FormatSpec))
		}
	}
	return pyast.NewCall("format", args...)
}

func (w *Rewriter) joinedStrNames(js *pyast.JoinedStr) pyast.Expr {
	return &pyast.JoinedStr{Values: w.exprs(js.Values)}
}

// keywords renames keyword names through the map. In a class header the
// metaclass keyword is kept.
func (w *Rewriter) keywords(list []*pyast.Keyword, classHeader bool) []*pyast.Keyword {
	if list == nil {
		return nil
	}
	out := make([]*pyast.Keyword, len(list))
	for i, k := range list {
		name := k.Arg
		if !(classHeader && name == "metaclass") {
			name = w.rename(name)
		}
		out[i] = &pyast.Keyword{Arg: name, Value: w.expr(k.Value)}
	}
	return out
}

func (w *Rewriter) comprehensions(gens []*pyast.Comprehension) []*pyast.Comprehension {
	out := make([]*pyast.Comprehension, len(gens))
	for i, g := range gens {
		out[i] = &pyast.Comprehension{
			Target:  w.expr(g.Target),
			Iter:    w.expr(g.Iter),
			Ifs:     w.exprs(g.Ifs),
			IsAsync: g.IsAsync,
		}
	}
	return out
}

func (w *Rewriter) arguments(a *pyast.Arguments) *pyast.Arguments {
	if a == nil {
		return nil
	}
	return &pyast.Arguments{
		PosOnly:    w.args(a.PosOnly),
		Args:       w.args(a.Args),
		Vararg:     w.arg(a.Vararg),
		KwOnly:     w.args(a.KwOnly),
		KwDefaults: w.exprs(a.KwDefaults),
		Kwarg:      w.arg(a.Kwarg),
		Defaults:   w.exprs(a.Defaults),
	}
}

func (w *Rewriter) args(list []*pyast.Arg) []*pyast.Arg {
	if list == nil {
		return nil
	}
	out := make([]*pyast.Arg, len(list))
	for i, a := range list {
		out[i] = w.arg(a)
	}
	return out
}

func (w *Rewriter) arg(a *pyast.Arg) *pyast.Arg {
	if a == nil {
		return nil
	}
	return &pyast.Arg{Name: w.rename(a.Name), Annotation: w.annotation(a.Annotation)}
}

func (w *Rewriter) typeParams(list []pyast.TypeParam) []pyast.TypeParam {
	if list == nil {
		return nil
	}
	out := make([]pyast.TypeParam, len(list))
	for i, p := range list {
		switch p := p.(type) {
		case *pyast.TypeVar:
			out[i] = &pyast.TypeVar{Name: w.rename(p.Name), Bound: w.annotation(p.Bound)}
		case *pyast.ParamSpec:
			out[i] = &pyast.ParamSpec{Name: w.rename(p.Name)}
		case *pyast.TypeVarTuple:
			out[i] = &pyast.TypeVarTuple{Name: w.rename(p.Name)}
		default:
			unsupported(p)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

func (w *Rewriter) patterns(list []pyast.Pattern) []pyast.Pattern {
	if list == nil {
		return nil
	}
	out := make([]pyast.Pattern, len(list))
	for i, p := range list {
		out[i] = w.pattern(p)
	}
	return out
}

func (w *Rewriter) pattern(p pyast.Pattern) pyast.Pattern {
	switch p := p.(type) {
	case nil:
		return nil
	case *pyast.MatchValue:
		return &pyast.MatchValue{Value: w.annotation(p.Value)}
	case *pyast.MatchSingleton:
		return &pyast.MatchSingleton{Value: p.Value}
	case *pyast.MatchSequence:
		return &pyast.MatchSequence{Patterns: w.patterns(p.Patterns)}
	case *pyast.MatchMapping:
		keys := make([]pyast.Expr, len(p.Keys))
		for i, k := range p.Keys {
			keys[i] = w.annotation(k)
		}
		return &pyast.MatchMapping{Keys: keys, Patterns: w.patterns(p.Patterns), Rest: w.rename(p.Rest)}
	case *pyast.MatchClass:
		attrs := p.KwdAttrs
		if !w.rootedAtImport(p.Cls) {
			attrs = w.renameAll(attrs)
		} else {
			attrs = append([]string(nil), attrs...)
		}
		return &pyast.MatchClass{
			Cls:         w.annotation(p.Cls),
			Patterns:    w.patterns(p.Patterns),
			KwdAttrs:    attrs,
			KwdPatterns: w.patterns(p.KwdPatterns),
		}
	case *pyast.MatchStar:
		return &pyast.MatchStar{Name: w.rename(p.Name)}
	case *pyast.MatchAs:
		return &pyast.MatchAs{Pattern: w.pattern(p.Pattern), Name: w.rename(p.Name)}
	case *pyast.MatchOr:
		return &pyast.MatchOr{Patterns: w.patterns(p.Patterns)}
	}
	unsupported(p)
	return nil
}
