package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benzoXdev/obfuspy/pkg/pyast"
)

func fixedMap(pairs ...string) *RenameMap {
	rm := newRenameMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		rm.add(pairs[i], pairs[i+1])
	}
	return rm
}

// rewriteNames runs a rename-only pass (no literal rewrites).
func rewriteNames(m *pyast.Module, rm *RenameMap, imports ImportSet) string {
	w := NewRewriter(rand.New(rand.NewSource(1)), rm, imports, NewRegistry(), false)
	return pyast.Print(w.Rewrite(m))
}

func TestRewriteAttributeExemption(t *testing.T) {
	m := mod(
		exprStmt(attr(attr(name("m"), "sub"), "attr")),
		exprStmt(attr(name("obj"), "attr")),
		exprStmt(attr(pyast.NewCall("obj"), "attr")),
	)
	rm := fixedMap("obj", "Qx1", "attr", "Zz9", "sub", "Yy2")
	got := rewriteNames(m, rm, ImportSet{"m": {}})
	assert.Equal(t, "m.sub.attr\nQx1.Zz9\nQx1().Zz9\n", got)
}

func TestRewriteFunctionAndClass(t *testing.T) {
	fn := def("area", []string{"w", "h"}, ret(pyast.NewBinOp(name("w"), pyast.Mult, name("h"))))
	fn.Args.Defaults = []pyast.Expr{name("DEFAULT")}
	fn.Args.KwOnly = []*pyast.Arg{{Name: "scale"}}
	fn.Args.KwDefaults = []pyast.Expr{nil}
	fn.Returns = str("Shape")
	fn.Args.Args[0].Annotation = name("Shape")
	cls := &pyast.ClassDef{
		Name:     "Shape",
		Bases:    []pyast.Expr{name("Base")},
		Keywords: []*pyast.Keyword{{Arg: "metaclass", Value: name("Meta")}, {Arg: "scale", Value: num(2)}},
		Body:     []pyast.Stmt{&pyast.Pass{}},
	}
	call := &pyast.Call{Func: name("area"), Args: []pyast.Expr{num(1)}, Keywords: []*pyast.Keyword{{Arg: "scale", Value: num(3)}, {Value: name("kw")}}}
	m := mod(fn, cls, exprStmt(call))

	rm := fixedMap("area", "Fa", "w", "Wa", "h", "Ha", "DEFAULT", "Da", "scale", "Sa", "Shape", "Ca", "Base", "Ba", "Meta", "Ma", "kw", "Ka")
	want := "def Fa(Wa: Ca, Ha=Da, *, Sa) -> 'Shape':\n" +
		"    return Wa * Ha\n" +
		"\n" +
		"class Ca(Ba, metaclass=Ma, Sa=2):\n" +
		"    pass\n" +
		"Fa(1, Sa=3, **Ka)\n"
	assert.Equal(t, want, rewriteNames(m, rm, nil))
}

func TestRewriteScopeStatements(t *testing.T) {
	m := mod(
		&pyast.Global{Names: []string{"counter", "len"}},
		&pyast.Nonlocal{Names: []string{"counter"}},
		&pyast.Try{
			Body:     []pyast.Stmt{&pyast.Pass{}},
			Handlers: []*pyast.ExceptHandler{{Type: name("Oops"), Name: "err", Body: []pyast.Stmt{&pyast.Pass{}}}},
		},
	)
	rm := fixedMap("counter", "Cn", "Oops", "Op", "err", "Er")
	assert.Equal(t, "global Cn, len\nnonlocal Cn\ntry:\n    pass\nexcept Op as Er:\n    pass\n", rewriteNames(m, rm, nil))
}

func TestRewriteDocstrings(t *testing.T) {
	fn := def("f", nil, exprStmt(str("Return the answer.")), ret(num(42)))
	m := mod(exprStmt(str("Module doc.")), fn)
	w := NewRewriter(rand.New(rand.NewSource(4)), newRenameMap(), nil, NewRegistry(), false)
	out := w.Rewrite(m)

	docs := []pyast.Stmt{out.Body[0], out.Body[1].(*pyast.FunctionDef).Body[0]}
	for _, s := range docs {
		doc := string(s.(*pyast.ExprStmt).Value.(*pyast.Constant).Value.(pyast.Str))
		assert.GreaterOrEqual(t, len(doc), docstringMinLen)
		assert.Less(t, len(doc), docstringMaxLen)
		assert.NotContains(t, []string{"Module doc.", "Return the answer."}, doc)
	}
	assert.Equal(t, 2, w.Stats().Docstrings)
}

func TestRewriteFString(t *testing.T) {
	spec := &pyast.JoinedStr{Values: []pyast.Expr{str(">"), &pyast.FormattedValue{Value: name("width"), Conversion: pyast.NoConversion}}}
	fs := &pyast.JoinedStr{Values: []pyast.Expr{
		str("a"),
		&pyast.FormattedValue{Value: name("x"), Conversion: 'r', FormatSpec: spec},
		&pyast.FormattedValue{Value: name("y"), Conversion: pyast.NoConversion},
	}}
	m := mod(exprStmt(pyast.NewCall("print", fs)), exprStmt(pyast.NewCall("print", &pyast.JoinedStr{})))
	rm := fixedMap("x", "Xa", "width", "Wd")
	want := "print('a' + format(repr(Xa), '>' + format(Wd)) + format(y))\nprint('')\n"
	assert.Equal(t, want, rewriteNames(m, rm, nil))
}

func TestRewriteImports(t *testing.T) {
	tests := []struct {
		name string
		in   *pyast.Import
		want string
	}{
		{"plain", importStmt("sys"), "sys = __import__('sys', globals(), locals(), [], 0)\n"},
		{"dotted", importStmt("os.path"), "os = __import__('os.path', globals(), locals(), [], 0)\n"},
		{"aliased", &pyast.Import{Names: []*pyast.Alias{{Name: "numpy", AsName: "np"}}}, "np = __import__('numpy', globals(), locals(), [], 0)\n"},
		{"dotted aliased", &pyast.Import{Names: []*pyast.Alias{{Name: "os.path", AsName: "osp"}}}, "import os.path as osp\n"},
		{"several", importStmt("a", "b"), "import a, b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewRewriter(rand.New(rand.NewSource(1)), newRenameMap(), nil, NewRegistry(), true)
			assert.Equal(t, tt.want, pyast.Print(w.Rewrite(mod(tt.in))))
		})
	}
}

func TestRewriteAnnotationsKeepLiterals(t *testing.T) {
	ann := &pyast.AnnAssign{
		Target:     store("count"),
		Annotation: &pyast.Subscript{Value: name("Literal"), Slice: str("many"), Ctx: pyast.Load},
		Value:      str("many"),
		Simple:     true,
	}
	w := NewRewriter(rand.New(rand.NewSource(2)), fixedMap("count", "Ct"), nil, DefaultRegistry(), false)
	out := w.Rewrite(mod(ann)).Body[0].(*pyast.AnnAssign)

	assert.Equal(t, "Literal['many']", pyast.PrintExpr(out.Annotation))
	assert.Equal(t, "Ct", out.Target.(*pyast.Name).ID)
	assert.Equal(t, "many", evalConst(t, out.Value))
	_, split := out.Value.(*pyast.BinOp)
	assert.True(t, split, "value literal is rewritten")
}

func TestRewritePatterns(t *testing.T) {
	match := &pyast.Match{
		Subject: name("cmd"),
		Cases: []*pyast.MatchCase{
			{
				Pattern: &pyast.MatchClass{
					Cls:         name("Point"),
					KwdAttrs:    []string{"x"},
					KwdPatterns: []pyast.Pattern{&pyast.MatchAs{Name: "px"}},
				},
				Body: []pyast.Stmt{exprStmt(name("px"))},
			},
			{
				Pattern: &pyast.MatchSequence{Patterns: []pyast.Pattern{
					&pyast.MatchValue{Value: str("go")},
					&pyast.MatchStar{Name: "rest"},
				}},
				Guard: name("ready"),
				Body:  []pyast.Stmt{&pyast.Pass{}},
			},
			{
				Pattern: &pyast.MatchClass{Cls: attr(name("enum"), "Color"), KwdAttrs: []string{"x"}, KwdPatterns: []pyast.Pattern{&pyast.MatchAs{}}},
				Body:    []pyast.Stmt{&pyast.Pass{}},
			},
		},
	}
	rm := fixedMap("cmd", "Cm", "Point", "Pt", "x", "Xx", "px", "Px", "rest", "Rs", "ready", "Rd", "Color", "Co")
	w := NewRewriter(rand.New(rand.NewSource(1)), rm, ImportSet{"enum": {}}, DefaultRegistry(), false)
	want := "match Cm:\n" +
		"    case Pt(Xx=Px):\n" +
		"        Px\n" +
		"    case ['go', *Rs] if Rd:\n" +
		"        pass\n" +
		"    case enum.Color(x=_):\n" +
		"        pass\n"
	assert.Equal(t, want, pyast.Print(w.Rewrite(mod(match))))
}

func TestRewriteDoesNotMutateInput(t *testing.T) {
	m := incrementModule()
	before := pyast.Print(m)
	w := NewRewriter(rand.New(rand.NewSource(1)), fixedMap("f", "Fn", "x", "Xn"), nil, DefaultRegistry(), false)
	out := w.Rewrite(m)
	require.NotSame(t, m.Body[0], out.Body[0])
	assert.Equal(t, before, pyast.Print(m))
}
