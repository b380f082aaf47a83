package pyast

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"strconv"
	"unicode"

	"github.com/benzoXdev/obfuspy/pkg/errors"
)

type object = map[string]any

// DecodeJSON builds a Module from the JSON dump of a CPython ast.Module.
//
// Each node is an object whose "_type" member names the ast class and whose
// other members are its fields; statements also carry "lineno". Constant
// payloads are tagged objects ({"t": "int", "v": "12"} and so on). The dump may
// be wrapped as {"tree": ...}. Python 3.8 Index and ExtSlice wrappers are
// unwrapped on the way in.
func DecodeJSON(data []byte) (*Module, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decoding syntax tree")
	}
	root, ok := raw.(object)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "syntax tree must be a JSON object")
	}
	if inner, ok := root["tree"].(object); ok {
		root = inner
	}
	d := &decoder{}
	m := d.module(root)
	if d.err != nil {
		return nil, d.err
	}
	return m, nil
}

type decoder struct {
	err error
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = errors.New(errors.ErrCodeInvalidInput, format, args...)
	}
}

func (d *decoder) module(o object) *Module {
	if k := kindOf(o); k != "Module" && k != "Interactive" {
		d.fail("expected Module at the root, got %q", k)
		return nil
	}
	return &Module{Body: d.stmts(o, "body")}
}

func kindOf(o object) string {
	k, _ := o["_type"].(string)
	return k
}

func (d *decoder) obj(v any) object {
	if v == nil {
		return nil
	}
	o, ok := v.(object)
	if !ok {
		d.fail("expected node object, got %T", v)
	}
	return o
}

func (d *decoder) list(o object, key string) []any {
	v, _ := o[key].([]any)
	return v
}

func (d *decoder) str(o object, key string) string {
	s, _ := o[key].(string)
	return s
}

func (d *decoder) int(o object, key string) int {
	switch v := o[key].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			d.fail("field %s: %v", key, err)
		}
		return int(n)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

func (d *decoder) bool(o object, key string) bool { return d.int(o, key) != 0 }

func (d *decoder) strs(o object, key string) []string {
	var out []string
	for _, v := range d.list(o, key) {
		s, _ := v.(string)
		out = append(out, s)
	}
	return out
}

// codePoints reads a string sent as a list of code points, which is how
// the frontend ships text holding lone surrogates.
func (d *decoder) codePoints(o object, key string) Str {
	items := d.list(o, key)
	rs := make([]rune, 0, len(items))
	for _, v := range items {
		n, ok := v.(json.Number)
		if !ok {
			d.fail("field %s: code point is not a number", key)
			return ""
		}
		c, err := n.Int64()
		if err != nil || c < 0 || c > unicode.MaxRune {
			d.fail("field %s: invalid code point %s", key, n)
			return ""
		}
		rs = append(rs, rune(c))
	}
	return StrFromRunes(rs)
}

func (d *decoder) loc(o object) Loc { return Loc{Line: d.int(o, "lineno")} }

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (d *decoder) stmts(o object, key string) []Stmt {
	raw := d.list(o, key)
	out := make([]Stmt, 0, len(raw))
	for _, v := range raw {
		if s := d.stmt(d.obj(v)); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (d *decoder) stmt(o object) Stmt {
	if o == nil {
		return nil
	}
	loc := d.loc(o)
	switch k := kindOf(o); k {
	case "FunctionDef", "AsyncFunctionDef":
		return &FunctionDef{
			Loc:        loc,
			Name:       d.str(o, "name"),
			Args:       d.arguments(d.obj(o["args"])),
			Body:       d.stmts(o, "body"),
			Decorators: d.exprs(o, "decorator_list"),
			Returns:    d.expr(o["returns"]),
			TypeParams: d.typeParams(o, "type_params"),
			Async:      k == "AsyncFunctionDef",
		}
	case "ClassDef":
		return &ClassDef{
			Loc:        loc,
			Name:       d.str(o, "name"),
			Bases:      d.exprs(o, "bases"),
			Keywords:   d.keywords(o, "keywords"),
			Body:       d.stmts(o, "body"),
			Decorators: d.exprs(o, "decorator_list"),
			TypeParams: d.typeParams(o, "type_params"),
		}
	case "Return":
		return &Return{Loc: loc, Value: d.expr(o["value"])}
	case "Delete":
		return &Delete{Loc: loc, Targets: d.exprs(o, "targets")}
	case "Assign":
		return &Assign{Loc: loc, Targets: d.exprs(o, "targets"), Value: d.expr(o["value"])}
	case "TypeAlias":
		return &TypeAlias{Loc: loc, Name: d.expr(o["name"]), TypeParams: d.typeParams(o, "type_params"), Value: d.expr(o["value"])}
	case "AugAssign":
		return &AugAssign{Loc: loc, Target: d.expr(o["target"]), Op: d.operator(o["op"]), Value: d.expr(o["value"])}
	case "AnnAssign":
		return &AnnAssign{
			Loc:        loc,
			Target:     d.expr(o["target"]),
			Annotation: d.expr(o["annotation"]),
			Value:      d.expr(o["value"]),
			Simple:     d.bool(o, "simple"),
		}
	case "For", "AsyncFor":
		return &For{
			Loc:    loc,
			Target: d.expr(o["target"]),
			Iter:   d.expr(o["iter"]),
			Body:   d.stmts(o, "body"),
			Orelse: d.stmts(o, "orelse"),
			Async:  k == "AsyncFor",
		}
	case "While":
		return &While{Loc: loc, Test: d.expr(o["test"]), Body: d.stmts(o, "body"), Orelse: d.stmts(o, "orelse")}
	case "If":
		return &If{Loc: loc, Test: d.expr(o["test"]), Body: d.stmts(o, "body"), Orelse: d.stmts(o, "orelse")}
	case "With", "AsyncWith":
		return &With{Loc: loc, Items: d.withItems(o, "items"), Body: d.stmts(o, "body"), Async: k == "AsyncWith"}
	case "Match":
		return &Match{Loc: loc, Subject: d.expr(o["subject"]), Cases: d.matchCases(o, "cases")}
	case "Raise":
		return &Raise{Loc: loc, Exc: d.expr(o["exc"]), Cause: d.expr(o["cause"])}
	case "Try", "TryStar":
		return &Try{
			Loc:       loc,
			Body:      d.stmts(o, "body"),
			Handlers:  d.handlers(o, "handlers"),
			Orelse:    d.stmts(o, "orelse"),
			Finalbody: d.stmts(o, "finalbody"),
			Star:      k == "TryStar",
		}
	case "Assert":
		return &Assert{Loc: loc, Test: d.expr(o["test"]), Msg: d.expr(o["msg"])}
	case "Import":
		return &Import{Loc: loc, Names: d.aliases(o, "names")}
	case "ImportFrom":
		return &ImportFrom{Loc: loc, Module: d.str(o, "module"), Names: d.aliases(o, "names"), Level: d.int(o, "level")}
	case "Global":
		return &Global{Loc: loc, Names: d.strs(o, "names")}
	case "Nonlocal":
		return &Nonlocal{Loc: loc, Names: d.strs(o, "names")}
	case "Expr":
		return &ExprStmt{Loc: loc, Value: d.expr(o["value"])}
	case "Pass":
		return &Pass{Loc: loc}
	case "Break":
		return &Break{Loc: loc}
	case "Continue":
		return &Continue{Loc: loc}
	default:
		d.fail("unsupported statement kind %q", k)
		return nil
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (d *decoder) exprs(o object, key string) []Expr {
	raw := d.list(o, key)
	out := make([]Expr, len(raw))
	for i, v := range raw {
		out[i] = d.expr(v)
	}
	return out
}

func (d *decoder) expr(v any) Expr {
	o := d.obj(v)
	if o == nil {
		return nil
	}
	switch k := kindOf(o); k {
	case "BoolOp":
		op := And
		if kindOf(d.obj(o["op"])) == "Or" {
			op = Or
		}
		return &BoolOp{Op: op, Values: d.exprs(o, "values")}
	case "NamedExpr":
		return &NamedExpr{Target: d.expr(o["target"]), Value: d.expr(o["value"])}
	case "BinOp":
		return &BinOp{Left: d.expr(o["left"]), Op: d.operator(o["op"]), Right: d.expr(o["right"])}
	case "UnaryOp":
		return &UnaryOp{Op: d.unaryOperator(o["op"]), Operand: d.expr(o["operand"])}
	case "Lambda":
		return &Lambda{Args: d.arguments(d.obj(o["args"])), Body: d.expr(o["body"])}
	case "IfExp":
		return &IfExp{Test: d.expr(o["test"]), Body: d.expr(o["body"]), Orelse: d.expr(o["orelse"])}
	case "Dict":
		return &Dict{Keys: d.exprs(o, "keys"), Values: d.exprs(o, "values")}
	case "Set":
		return &Set{Elts: d.exprs(o, "elts")}
	case "ListComp":
		return &ListComp{Elt: d.expr(o["elt"]), Generators: d.comprehensions(o, "generators")}
	case "SetComp":
		return &SetComp{Elt: d.expr(o["elt"]), Generators: d.comprehensions(o, "generators")}
	case "DictComp":
		return &DictComp{Key: d.expr(o["key"]), Value: d.expr(o["value"]), Generators: d.comprehensions(o, "generators")}
	case "GeneratorExp":
		return &GeneratorExp{Elt: d.expr(o["elt"]), Generators: d.comprehensions(o, "generators")}
	case "Await":
		return &Await{Value: d.expr(o["value"])}
	case "Yield":
		return &Yield{Value: d.expr(o["value"])}
	case "YieldFrom":
		return &YieldFrom{Value: d.expr(o["value"])}
	case "Compare":
		var ops []CmpOperator
		for _, op := range d.list(o, "ops") {
			ops = append(ops, d.cmpOperator(op))
		}
		return &Compare{Left: d.expr(o["left"]), Ops: ops, Comparators: d.exprs(o, "comparators")}
	case "Call":
		return &Call{Func: d.expr(o["func"]), Args: d.exprs(o, "args"), Keywords: d.keywords(o, "keywords")}
	case "FormattedValue":
		return &FormattedValue{Value: d.expr(o["value"]), Conversion: d.int(o, "conversion"), FormatSpec: d.expr(o["format_spec"])}
	case "JoinedStr":
		return &JoinedStr{Values: d.exprs(o, "values")}
	case "Constant":
		return &Constant{Value: d.value(o["value"]), Kind: d.str(o, "kind")}
	case "Attribute":
		return &Attribute{Value: d.expr(o["value"]), Attr: d.str(o, "attr"), Ctx: d.ctx(o["ctx"])}
	case "Subscript":
		return &Subscript{Value: d.expr(o["value"]), Slice: d.expr(o["slice"]), Ctx: d.ctx(o["ctx"])}
	case "Starred":
		return &Starred{Value: d.expr(o["value"]), Ctx: d.ctx(o["ctx"])}
	case "Name":
		return &Name{ID: d.str(o, "id"), Ctx: d.ctx(o["ctx"])}
	case "List":
		return &List{Elts: d.exprs(o, "elts"), Ctx: d.ctx(o["ctx"])}
	case "Tuple":
		return &Tuple{Elts: d.exprs(o, "elts"), Ctx: d.ctx(o["ctx"])}
	case "Slice":
		return &Slice{Lower: d.expr(o["lower"]), Upper: d.expr(o["upper"]), Step: d.expr(o["step"])}
	case "Index":
		return d.expr(o["value"])
	case "ExtSlice":
		return &Tuple{Elts: d.exprs(o, "dims"), Ctx: Load}
	default:
		d.fail("unsupported expression kind %q", k)
		return nil
	}
}

func (d *decoder) value(v any) Value {
	o := d.obj(v)
	if o == nil {
		d.fail("constant without value")
		return None{}
	}
	switch t := d.str(o, "t"); t {
	case "none":
		return None{}
	case "ellipsis":
		return Ellipsis{}
	case "bool":
		b, _ := o["v"].(bool)
		return Bool(b)
	case "int":
		n, ok := new(big.Int).SetString(d.str(o, "v"), 10)
		if !ok {
			d.fail("bad int constant %q", d.str(o, "v"))
			return NewInt(0)
		}
		return Int{V: n}
	case "float":
		return Float(d.float(d.str(o, "v")))
	case "complex":
		return Complex{Real: d.float(d.str(o, "re")), Imag: d.float(d.str(o, "im"))}
	case "str":
		if _, ok := o["cp"]; ok {
			return d.codePoints(o, "cp")
		}
		return Str(d.str(o, "v"))
	case "bytes":
		b, err := base64.StdEncoding.DecodeString(d.str(o, "v"))
		if err != nil {
			d.fail("bad bytes constant: %v", err)
		}
		return Bytes(b)
	default:
		d.fail("unsupported constant tag %q", t)
		return None{}
	}
}

func (d *decoder) float(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		d.fail("bad float constant %q", s)
	}
	return f
}

// ---------------------------------------------------------------------------
// Patterns and type parameters
// ---------------------------------------------------------------------------

func (d *decoder) patterns(o object, key string) []Pattern {
	raw := d.list(o, key)
	out := make([]Pattern, 0, len(raw))
	for _, v := range raw {
		out = append(out, d.pattern(v))
	}
	return out
}

func (d *decoder) pattern(v any) Pattern {
	o := d.obj(v)
	if o == nil {
		return nil
	}
	switch k := kindOf(o); k {
	case "MatchValue":
		return &MatchValue{Value: d.expr(o["value"])}
	case "MatchSingleton":
		return &MatchSingleton{Value: d.value(o["value"])}
	case "MatchSequence":
		return &MatchSequence{Patterns: d.patterns(o, "patterns")}
	case "MatchMapping":
		return &MatchMapping{Keys: d.exprs(o, "keys"), Patterns: d.patterns(o, "patterns"), Rest: d.str(o, "rest")}
	case "MatchClass":
		return &MatchClass{
			Cls:         d.expr(o["cls"]),
			Patterns:    d.patterns(o, "patterns"),
			KwdAttrs:    d.strs(o, "kwd_attrs"),
			KwdPatterns: d.patterns(o, "kwd_patterns"),
		}
	case "MatchStar":
		return &MatchStar{Name: d.str(o, "name")}
	case "MatchAs":
		return &MatchAs{Pattern: d.pattern(o["pattern"]), Name: d.str(o, "name")}
	case "MatchOr":
		return &MatchOr{Patterns: d.patterns(o, "patterns")}
	default:
		d.fail("unsupported pattern kind %q", k)
		return nil
	}
}

func (d *decoder) typeParams(o object, key string) []TypeParam {
	var out []TypeParam
	for _, v := range d.list(o, key) {
		p := d.obj(v)
		switch k := kindOf(p); k {
		case "TypeVar":
			out = append(out, &TypeVar{Name: d.str(p, "name"), Bound: d.expr(p["bound"])})
		case "ParamSpec":
			out = append(out, &ParamSpec{Name: d.str(p, "name")})
		case "TypeVarTuple":
			out = append(out, &TypeVarTuple{Name: d.str(p, "name")})
		default:
			d.fail("unsupported type parameter kind %q", k)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Helper records
// ---------------------------------------------------------------------------

func (d *decoder) arguments(o object) *Arguments {
	if o == nil {
		return &Arguments{}
	}
	return &Arguments{
		PosOnly:    d.argList(o, "posonlyargs"),
		Args:       d.argList(o, "args"),
		Vararg:     d.arg(o["vararg"]),
		KwOnly:     d.argList(o, "kwonlyargs"),
		KwDefaults: d.exprs(o, "kw_defaults"),
		Kwarg:      d.arg(o["kwarg"]),
		Defaults:   d.exprs(o, "defaults"),
	}
}

func (d *decoder) argList(o object, key string) []*Arg {
	var out []*Arg
	for _, v := range d.list(o, key) {
		out = append(out, d.arg(v))
	}
	return out
}

func (d *decoder) arg(v any) *Arg {
	o := d.obj(v)
	if o == nil {
		return nil
	}
	return &Arg{Name: d.str(o, "arg"), Annotation: d.expr(o["annotation"])}
}

func (d *decoder) keywords(o object, key string) []*Keyword {
	var out []*Keyword
	for _, v := range d.list(o, key) {
		k := d.obj(v)
		out = append(out, &Keyword{Arg: d.str(k, "arg"), Value: d.expr(k["value"])})
	}
	return out
}

func (d *decoder) aliases(o object, key string) []*Alias {
	var out []*Alias
	for _, v := range d.list(o, key) {
		a := d.obj(v)
		out = append(out, &Alias{Name: d.str(a, "name"), AsName: d.str(a, "asname")})
	}
	return out
}

func (d *decoder) comprehensions(o object, key string) []*Comprehension {
	var out []*Comprehension
	for _, v := range d.list(o, key) {
		c := d.obj(v)
		out = append(out, &Comprehension{
			Target:  d.expr(c["target"]),
			Iter:    d.expr(c["iter"]),
			Ifs:     d.exprs(c, "ifs"),
			IsAsync: d.bool(c, "is_async"),
		})
	}
	return out
}

func (d *decoder) handlers(o object, key string) []*ExceptHandler {
	var out []*ExceptHandler
	for _, v := range d.list(o, key) {
		h := d.obj(v)
		out = append(out, &ExceptHandler{Type: d.expr(h["type"]), Name: d.str(h, "name"), Body: d.stmts(h, "body")})
	}
	return out
}

func (d *decoder) withItems(o object, key string) []*WithItem {
	var out []*WithItem
	for _, v := range d.list(o, key) {
		w := d.obj(v)
		out = append(out, &WithItem{ContextExpr: d.expr(w["context_expr"]), OptionalVars: d.expr(w["optional_vars"])})
	}
	return out
}

func (d *decoder) matchCases(o object, key string) []*MatchCase {
	var out []*MatchCase
	for _, v := range d.list(o, key) {
		c := d.obj(v)
		out = append(out, &MatchCase{Pattern: d.pattern(c["pattern"]), Guard: d.expr(c["guard"]), Body: d.stmts(c, "body")})
	}
	return out
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

var (
	operatorNames = map[string]Operator{
		"Add": Add, "Sub": Sub, "Mult": Mult, "MatMult": MatMult, "Div": Div, "Mod": Mod,
		"Pow": Pow, "LShift": LShift, "RShift": RShift, "BitOr": BitOr, "BitXor": BitXor,
		"BitAnd": BitAnd, "FloorDiv": FloorDiv,
	}
	unaryNames = map[string]UnaryOperator{"Invert": Invert, "Not": Not, "UAdd": UAdd, "USub": USub}
	cmpNames   = map[string]CmpOperator{
		"Eq": Eq, "NotEq": NotEq, "Lt": Lt, "LtE": LtE, "Gt": Gt, "GtE": GtE,
		"Is": Is, "IsNot": IsNot, "In": In, "NotIn": NotIn,
	}
	ctxNames = map[string]ExprContext{"Load": Load, "Store": Store, "Del": Del}
)

func (d *decoder) operator(v any) Operator {
	k := kindOf(d.obj(v))
	op, ok := operatorNames[k]
	if !ok {
		d.fail("unknown operator %q", k)
	}
	return op
}

func (d *decoder) unaryOperator(v any) UnaryOperator {
	k := kindOf(d.obj(v))
	op, ok := unaryNames[k]
	if !ok {
		d.fail("unknown unary operator %q", k)
	}
	return op
}

func (d *decoder) cmpOperator(v any) CmpOperator {
	k := kindOf(d.obj(v))
	op, ok := cmpNames[k]
	if !ok {
		d.fail("unknown comparison operator %q", k)
	}
	return op
}

func (d *decoder) ctx(v any) ExprContext {
	if v == nil {
		return Load
	}
	return ctxNames[kindOf(d.obj(v))]
}
