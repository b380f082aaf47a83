package pyast

import (
	"fmt"
	"strings"
)

// prec is the binding strength of an expression; a child printed in a context
// stronger than its own gets parenthesized.
type prec int

const (
	precNamedExpr prec = iota
	precTuple
	precYield
	precTest
	precOr
	precAnd
	precNot
	precCmp
	precExpr
	precBOr = precExpr
	precBXor prec = iota
	precBAnd
	precShift
	precArith
	precTerm
	precFactor
	precPower
	precAwait
	precAtom
)

var binopPrec = map[Operator]prec{
	Add: precArith, Sub: precArith,
	Mult: precTerm, MatMult: precTerm, Div: precTerm, Mod: precTerm, FloorDiv: precTerm,
	LShift: precShift, RShift: precShift,
	BitOr: precBOr, BitXor: precBXor, BitAnd: precBAnd,
	Pow: precPower,
}

var binopText = map[Operator]string{
	Add: "+", Sub: "-", Mult: "*", MatMult: "@", Div: "/", Mod: "%", Pow: "**",
	LShift: "<<", RShift: ">>", BitOr: "|", BitXor: "^", BitAnd: "&", FloorDiv: "//",
}

var unaryText = map[UnaryOperator]string{Invert: "~", Not: "not", UAdd: "+", USub: "-"}

var cmpText = map[CmpOperator]string{
	Eq: "==", NotEq: "!=", Lt: "<", LtE: "<=", Gt: ">", GtE: ">=",
	Is: "is", IsNot: "is not", In: "in", NotIn: "not in",
}

// String returns the Python spelling of the operator.
func (op Operator) String() string { return binopText[op] }

// String returns the Python spelling of the comparison.
func (op CmpOperator) String() string { return cmpText[op] }

// Print renders m as Python source, one statement per line, four-space
// indents and a trailing newline. The output parses back to an equal tree.
func Print(m *Module) string {
	p := &printer{}
	p.stmts(m.Body)
	if p.b.Len() == 0 {
		return ""
	}
	p.b.WriteByte('\n')
	return p.b.String()
}

// PrintExpr renders a single expression.
func PrintExpr(e Expr) string {
	p := &printer{}
	p.expr(e, precTest)
	return p.b.String()
}

type printer struct {
	b      strings.Builder
	indent int
}

func (p *printer) write(parts ...string) {
	for _, s := range parts {
		p.b.WriteString(s)
	}
}

func (p *printer) fill(text string) {
	if p.b.Len() > 0 {
		p.b.WriteByte('\n')
	}
	p.b.WriteString(strings.Repeat("    ", p.indent))
	p.b.WriteString(text)
}

func (p *printer) block(body []Stmt) {
	p.write(":")
	p.indent++
	if len(body) == 0 {
		p.fill("pass")
	}
	p.stmts(body)
	p.indent--
}

func (p *printer) stmts(body []Stmt) {
	for _, s := range body {
		p.stmt(s)
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *FunctionDef:
		p.separate()
		p.decorators(s.Decorators)
		if s.Async {
			p.fill("async def " + s.Name)
		} else {
			p.fill("def " + s.Name)
		}
		p.typeParams(s.TypeParams)
		p.write("(")
		p.arguments(s.Args)
		p.write(")")
		if s.Returns != nil {
			p.write(" -> ")
			p.expr(s.Returns, precTest)
		}
		p.block(s.Body)
	case *ClassDef:
		p.separate()
		p.decorators(s.Decorators)
		p.fill("class " + s.Name)
		p.typeParams(s.TypeParams)
		if len(s.Bases) > 0 || len(s.Keywords) > 0 {
			p.write("(")
			p.commaExprs(s.Bases, precTest)
			for i, k := range s.Keywords {
				if i > 0 || len(s.Bases) > 0 {
					p.write(", ")
				}
				p.keyword(k)
			}
			p.write(")")
		}
		p.block(s.Body)
	case *Return:
		p.fill("return")
		if s.Value != nil {
			p.write(" ")
			p.expr(s.Value, precTest)
		}
	case *Delete:
		p.fill("del ")
		p.commaExprs(s.Targets, precTest)
	case *Assign:
		p.fill("")
		for _, t := range s.Targets {
			p.expr(t, precTuple)
			p.write(" = ")
		}
		p.expr(s.Value, precTest)
	case *TypeAlias:
		p.fill("type ")
		p.expr(s.Name, precTest)
		p.typeParams(s.TypeParams)
		p.write(" = ")
		p.expr(s.Value, precTest)
	case *AugAssign:
		p.fill("")
		p.expr(s.Target, precTest)
		p.write(" ", s.Op.String(), "= ")
		p.expr(s.Value, precTest)
	case *AnnAssign:
		p.fill("")
		if _, isName := s.Target.(*Name); isName && !s.Simple {
			p.write("(")
			p.expr(s.Target, precTest)
			p.write(")")
		} else {
			p.expr(s.Target, precTest)
		}
		p.write(": ")
		p.expr(s.Annotation, precTest)
		if s.Value != nil {
			p.write(" = ")
			p.expr(s.Value, precTest)
		}
	case *For:
		if s.Async {
			p.fill("async for ")
		} else {
			p.fill("for ")
		}
		p.expr(s.Target, precTuple)
		p.write(" in ")
		p.expr(s.Iter, precTest)
		p.block(s.Body)
		p.orelse(s.Orelse)
	case *While:
		p.fill("while ")
		p.expr(s.Test, precTest)
		p.block(s.Body)
		p.orelse(s.Orelse)
	case *If:
		p.fill("if ")
		p.expr(s.Test, precTest)
		p.block(s.Body)
		orelse := s.Orelse
		for len(orelse) == 1 {
			elif, ok := orelse[0].(*If)
			if !ok {
				break
			}
			p.fill("elif ")
			p.expr(elif.Test, precTest)
			p.block(elif.Body)
			orelse = elif.Orelse
		}
		p.orelse(orelse)
	case *With:
		if s.Async {
			p.fill("async with ")
		} else {
			p.fill("with ")
		}
		for i, item := range s.Items {
			if i > 0 {
				p.write(", ")
			}
			p.expr(item.ContextExpr, precTest)
			if item.OptionalVars != nil {
				p.write(" as ")
				p.expr(item.OptionalVars, precTest)
			}
		}
		p.block(s.Body)
	case *Match:
		p.fill("match ")
		p.expr(s.Subject, precTest)
		p.write(":")
		p.indent++
		for _, c := range s.Cases {
			p.fill("case ")
			p.pattern(c.Pattern, precTest)
			if c.Guard != nil {
				p.write(" if ")
				p.expr(c.Guard, precTest)
			}
			p.block(c.Body)
		}
		p.indent--
	case *Raise:
		p.fill("raise")
		if s.Exc != nil {
			p.write(" ")
			p.expr(s.Exc, precTest)
			if s.Cause != nil {
				p.write(" from ")
				p.expr(s.Cause, precTest)
			}
		}
	case *Try:
		p.fill("try")
		p.block(s.Body)
		for _, h := range s.Handlers {
			if s.Star {
				p.fill("except*")
			} else {
				p.fill("except")
			}
			if h.Type != nil {
				p.write(" ")
				p.expr(h.Type, precTest)
			}
			if h.Name != "" {
				p.write(" as ", h.Name)
			}
			p.block(h.Body)
		}
		p.orelse(s.Orelse)
		if len(s.Finalbody) > 0 {
			p.fill("finally")
			p.block(s.Finalbody)
		}
	case *Assert:
		p.fill("assert ")
		p.expr(s.Test, precTest)
		if s.Msg != nil {
			p.write(", ")
			p.expr(s.Msg, precTest)
		}
	case *Import:
		p.fill("import ")
		p.aliases(s.Names)
	case *ImportFrom:
		p.fill("from " + strings.Repeat(".", s.Level) + s.Module + " import ")
		p.aliases(s.Names)
	case *Global:
		p.fill("global " + strings.Join(s.Names, ", "))
	case *Nonlocal:
		p.fill("nonlocal " + strings.Join(s.Names, ", "))
	case *ExprStmt:
		p.fill("")
		p.expr(s.Value, precYield)
	case *Pass:
		p.fill("pass")
	case *Break:
		p.fill("break")
	case *Continue:
		p.fill("continue")
	default:
		panic(fmt.Sprintf("pyast: cannot print statement %T", s))
	}
}

// separate puts a blank line before a definition that follows other output.
func (p *printer) separate() {
	if p.b.Len() > 0 {
		p.b.WriteByte('\n')
	}
}

func (p *printer) decorators(decos []Expr) {
	for _, d := range decos {
		p.fill("@")
		p.expr(d, precTest)
	}
}

func (p *printer) orelse(body []Stmt) {
	if len(body) > 0 {
		p.fill("else")
		p.block(body)
	}
}

func (p *printer) aliases(names []*Alias) {
	for i, a := range names {
		if i > 0 {
			p.write(", ")
		}
		p.write(a.Name)
		if a.AsName != "" {
			p.write(" as ", a.AsName)
		}
	}
}

func (p *printer) typeParams(params []TypeParam) {
	if len(params) == 0 {
		return
	}
	p.write("[")
	for i, tp := range params {
		if i > 0 {
			p.write(", ")
		}
		switch tp := tp.(type) {
		case *TypeVar:
			p.write(tp.Name)
			if tp.Bound != nil {
				p.write(": ")
				p.expr(tp.Bound, precTest)
			}
		case *ParamSpec:
			p.write("**", tp.Name)
		case *TypeVarTuple:
			p.write("*", tp.Name)
		}
	}
	p.write("]")
}

func (p *printer) arguments(a *Arguments) {
	if a == nil {
		return
	}
	first := true
	sep := func() {
		if !first {
			p.write(", ")
		}
		first = false
	}
	positional := append(append([]*Arg{}, a.PosOnly...), a.Args...)
	offset := len(positional) - len(a.Defaults)
	for i, arg := range positional {
		sep()
		p.arg(arg)
		if i >= offset && a.Defaults[i-offset] != nil {
			p.write("=")
			p.expr(a.Defaults[i-offset], precTest)
		}
		if i+1 == len(a.PosOnly) {
			p.write(", /")
		}
	}
	if a.Vararg != nil || len(a.KwOnly) > 0 {
		sep()
		p.write("*")
		if a.Vararg != nil {
			p.arg(a.Vararg)
		}
	}
	for i, arg := range a.KwOnly {
		p.write(", ")
		p.arg(arg)
		if i < len(a.KwDefaults) && a.KwDefaults[i] != nil {
			p.write("=")
			p.expr(a.KwDefaults[i], precTest)
		}
	}
	if a.Kwarg != nil {
		sep()
		p.write("**")
		p.arg(a.Kwarg)
	}
}

func (p *printer) arg(a *Arg) {
	p.write(a.Name)
	if a.Annotation != nil {
		p.write(": ")
		p.expr(a.Annotation, precTest)
	}
}

func (p *printer) keyword(k *Keyword) {
	if k.Arg == "" {
		p.write("**")
	} else {
		p.write(k.Arg, "=")
	}
	p.expr(k.Value, precTest)
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (p *printer) commaExprs(list []Expr, ctx prec) {
	for i, e := range list {
		if i > 0 {
			p.write(", ")
		}
		p.expr(e, ctx)
	}
}

// open writes "(" when the context binds tighter than own and reports whether
// a matching close is owed.
func (p *printer) open(ctx, own prec) bool {
	if ctx > own {
		p.write("(")
		return true
	}
	return false
}

func (p *printer) close(paren bool) {
	if paren {
		p.write(")")
	}
}

func (p *printer) expr(e Expr, ctx prec) {
	switch e := e.(type) {
	case *Name:
		p.write(e.ID)
	case *Constant:
		p.constant(e, ctx)
	case *BoolOp:
		own := precAnd
		text := " and "
		if e.Op == Or {
			own, text = precOr, " or "
		}
		paren := p.open(ctx, own)
		level := own
		for i, v := range e.Values {
			if i > 0 {
				p.write(text)
			}
			level++
			p.expr(v, level)
		}
		p.close(paren)
	case *NamedExpr:
		paren := p.open(ctx, precNamedExpr)
		p.expr(e.Target, precAtom)
		p.write(" := ")
		p.expr(e.Value, precAtom)
		p.close(paren)
	case *BinOp:
		own := binopPrec[e.Op]
		left, right := own, own+1
		if e.Op == Pow {
			left, right = own+1, own
		}
		paren := p.open(ctx, own)
		p.expr(e.Left, left)
		p.write(" ", e.Op.String(), " ")
		p.expr(e.Right, right)
		p.close(paren)
	case *UnaryOp:
		own := precFactor
		if e.Op == Not {
			own = precNot
		}
		paren := p.open(ctx, own)
		p.write(unaryText[e.Op])
		if own != precFactor {
			p.write(" ")
		}
		p.expr(e.Operand, own)
		p.close(paren)
	case *Lambda:
		paren := p.open(ctx, precTest)
		p.write("lambda")
		var args printer
		args.arguments(e.Args)
		if args.b.Len() > 0 {
			p.write(" ", args.b.String())
		}
		p.write(": ")
		p.expr(e.Body, precTest)
		p.close(paren)
	case *IfExp:
		paren := p.open(ctx, precTest)
		p.expr(e.Body, precTest+1)
		p.write(" if ")
		p.expr(e.Test, precTest+1)
		p.write(" else ")
		p.expr(e.Orelse, precTest)
		p.close(paren)
	case *Dict:
		p.write("{")
		for i, v := range e.Values {
			if i > 0 {
				p.write(", ")
			}
			if i < len(e.Keys) && e.Keys[i] != nil {
				p.expr(e.Keys[i], precTest)
				p.write(": ")
				p.expr(v, precTest)
			} else {
				p.write("**")
				p.expr(v, precExpr)
			}
		}
		p.write("}")
	case *Set:
		if len(e.Elts) == 0 {
			p.write("{*()}")
			return
		}
		p.write("{")
		p.commaExprs(e.Elts, precTest)
		p.write("}")
	case *ListComp:
		p.write("[")
		p.expr(e.Elt, precTest)
		p.generators(e.Generators)
		p.write("]")
	case *SetComp:
		p.write("{")
		p.expr(e.Elt, precTest)
		p.generators(e.Generators)
		p.write("}")
	case *DictComp:
		p.write("{")
		p.expr(e.Key, precTest)
		p.write(": ")
		p.expr(e.Value, precTest)
		p.generators(e.Generators)
		p.write("}")
	case *GeneratorExp:
		p.write("(")
		p.expr(e.Elt, precTest)
		p.generators(e.Generators)
		p.write(")")
	case *Await:
		paren := p.open(ctx, precAwait)
		p.write("await")
		if e.Value != nil {
			p.write(" ")
			p.expr(e.Value, precAtom)
		}
		p.close(paren)
	case *Yield:
		paren := p.open(ctx, precYield)
		p.write("yield")
		if e.Value != nil {
			p.write(" ")
			p.expr(e.Value, precAtom)
		}
		p.close(paren)
	case *YieldFrom:
		paren := p.open(ctx, precYield)
		p.write("yield from ")
		p.expr(e.Value, precAtom)
		p.close(paren)
	case *Compare:
		paren := p.open(ctx, precCmp)
		p.expr(e.Left, precCmp+1)
		for i, op := range e.Ops {
			p.write(" ", op.String(), " ")
			p.expr(e.Comparators[i], precCmp+1)
		}
		p.close(paren)
	case *Call:
		p.expr(e.Func, precAtom)
		p.write("(")
		p.commaExprs(e.Args, precTest)
		for i, k := range e.Keywords {
			if i > 0 || len(e.Args) > 0 {
				p.write(", ")
			}
			p.keyword(k)
		}
		p.write(")")
	case *JoinedStr:
		p.fstring(e.Values)
	case *FormattedValue:
		p.fstring([]Expr{e})
	case *Attribute:
		p.expr(e.Value, precAtom)
		if c, ok := e.Value.(*Constant); ok {
			if _, isInt := c.Value.(Int); isInt {
				p.write(" ")
			}
		}
		p.write(".", e.Attr)
	case *Subscript:
		p.expr(e.Value, precAtom)
		p.write("[")
		if t, ok := e.Slice.(*Tuple); ok && len(t.Elts) > 0 && !hasStarred(t.Elts) {
			p.tupleItems(t.Elts)
		} else {
			p.expr(e.Slice, precTest)
		}
		p.write("]")
	case *Starred:
		p.write("*")
		p.expr(e.Value, precExpr)
	case *List:
		p.write("[")
		p.commaExprs(e.Elts, precTest)
		p.write("]")
	case *Tuple:
		paren := len(e.Elts) == 0 || ctx > precTuple
		if paren {
			p.write("(")
		}
		p.tupleItems(e.Elts)
		p.close(paren)
	case *Slice:
		if e.Lower != nil {
			p.expr(e.Lower, precTest)
		}
		p.write(":")
		if e.Upper != nil {
			p.expr(e.Upper, precTest)
		}
		if e.Step != nil {
			p.write(":")
			p.expr(e.Step, precTest)
		}
	default:
		panic(fmt.Sprintf("pyast: cannot print expression %T", e))
	}
}

func hasStarred(list []Expr) bool {
	for _, e := range list {
		if _, ok := e.(*Starred); ok {
			return true
		}
	}
	return false
}

func (p *printer) tupleItems(elts []Expr) {
	if len(elts) == 1 {
		p.expr(elts[0], precTest)
		p.write(",")
		return
	}
	p.commaExprs(elts, precTest)
}

func (p *printer) generators(gens []*Comprehension) {
	for _, g := range gens {
		if g.IsAsync {
			p.write(" async for ")
		} else {
			p.write(" for ")
		}
		p.expr(g.Target, precTuple)
		p.write(" in ")
		p.expr(g.Iter, precTest+1)
		for _, cond := range g.Ifs {
			p.write(" if ")
			p.expr(cond, precTest+1)
		}
	}
}

func (p *printer) constant(c *Constant, ctx prec) {
	if c.Kind == "u" {
		p.write("u")
	}
	paren := false
	if Negative(c.Value) {
		paren = p.open(ctx, precFactor)
	}
	p.write(c.Value.Repr())
	p.close(paren)
}

// ---------------------------------------------------------------------------
// f-strings
// ---------------------------------------------------------------------------

var braceEscaper = strings.NewReplacer("{", "{{", "}", "}}")

// fstring writes an f-string literal. The delimiter is the first of ', ",
// ''' and """ that no replacement field uses.
func (p *printer) fstring(values []Expr) {
	var fields []string
	collectFields(values, &fields)
	quote := "'"
	for _, q := range []string{"'", `"`, "'''", `"""`} {
		quote = q
		clash := false
		for _, f := range fields {
			if strings.Contains(f, q) {
				clash = true
				break
			}
		}
		if !clash {
			break
		}
	}
	var b strings.Builder
	writeFStringBody(&b, values, quote[0])
	p.write("f", quote, b.String(), quote)
}

func collectFields(values []Expr, out *[]string) {
	for _, v := range values {
		if fv, ok := v.(*FormattedValue); ok {
			*out = append(*out, fieldExpr(fv))
			if spec, ok := fv.FormatSpec.(*JoinedStr); ok {
				collectFields(spec.Values, out)
			}
		}
	}
}

func fieldExpr(fv *FormattedValue) string {
	var sub printer
	sub.expr(fv.Value, precTest+1)
	text := sub.b.String()
	if strings.HasPrefix(text, "{") {
		text = " " + text
	}
	return text
}

func writeFStringBody(b *strings.Builder, values []Expr, q byte) {
	for _, v := range values {
		switch v := v.(type) {
		case *Constant:
			if s, ok := v.Value.(Str); ok {
				writeEscaped(b, braceEscaper.Replace(string(s)), q)
			}
		case *FormattedValue:
			b.WriteString("{")
			b.WriteString(fieldExpr(v))
			if v.Conversion != NoConversion {
				b.WriteString("!")
				b.WriteRune(rune(v.Conversion))
			}
			if spec, ok := v.FormatSpec.(*JoinedStr); ok {
				b.WriteString(":")
				writeFStringBody(b, spec.Values, q)
			}
			b.WriteString("}")
		}
	}
}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

func (p *printer) patterns(list []Pattern) {
	for i, pat := range list {
		if i > 0 {
			p.write(", ")
		}
		p.pattern(pat, precTest)
	}
}

func (p *printer) pattern(pat Pattern, ctx prec) {
	switch pat := pat.(type) {
	case *MatchValue:
		p.expr(pat.Value, precTest)
	case *MatchSingleton:
		p.write(pat.Value.Repr())
	case *MatchSequence:
		p.write("[")
		p.patterns(pat.Patterns)
		p.write("]")
	case *MatchStar:
		name := pat.Name
		if name == "" {
			name = "_"
		}
		p.write("*", name)
	case *MatchMapping:
		p.write("{")
		for i, k := range pat.Keys {
			if i > 0 {
				p.write(", ")
			}
			p.expr(k, precTest)
			p.write(": ")
			p.pattern(pat.Patterns[i], precTest)
		}
		if pat.Rest != "" {
			if len(pat.Keys) > 0 {
				p.write(", ")
			}
			p.write("**", pat.Rest)
		}
		p.write("}")
	case *MatchClass:
		p.expr(pat.Cls, precAtom)
		p.write("(")
		p.patterns(pat.Patterns)
		for i, attr := range pat.KwdAttrs {
			if i > 0 || len(pat.Patterns) > 0 {
				p.write(", ")
			}
			p.write(attr, "=")
			p.pattern(pat.KwdPatterns[i], precTest)
		}
		p.write(")")
	case *MatchAs:
		switch {
		case pat.Pattern == nil && pat.Name == "":
			p.write("_")
		case pat.Pattern == nil:
			p.write(pat.Name)
		default:
			paren := p.open(ctx, precTest)
			p.pattern(pat.Pattern, precBOr)
			p.write(" as ", pat.Name)
			p.close(paren)
		}
	case *MatchOr:
		paren := p.open(ctx, precBOr)
		for i, alt := range pat.Patterns {
			if i > 0 {
				p.write(" | ")
			}
			p.pattern(alt, precBOr+1)
		}
		p.close(paren)
	default:
		panic(fmt.Sprintf("pyast: cannot print pattern %T", pat))
	}
}
