package engine

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benzoXdev/obfuspy/pkg/pyast"
)

// Tree builders for tests.

func mod(body ...pyast.Stmt) *pyast.Module { return &pyast.Module{Body: body} }

func name(id string) *pyast.Name { return pyast.NewName(id) }

func store(id string) *pyast.Name { return &pyast.Name{ID: id, Ctx: pyast.Store} }

func num(n int64) *pyast.Constant { return pyast.NewConst(pyast.NewInt(n)) }

func str(s string) *pyast.Constant { return pyast.NewConst(pyast.Str(s)) }

func attr(v pyast.Expr, a string) *pyast.Attribute {
	return &pyast.Attribute{Value: v, Attr: a, Ctx: pyast.Load}
}

func assign(target string, v pyast.Expr) *pyast.Assign {
	return &pyast.Assign{Targets: []pyast.Expr{store(target)}, Value: v}
}

func exprStmt(e pyast.Expr) *pyast.ExprStmt { return &pyast.ExprStmt{Value: e} }

func def(fname string, params []string, body ...pyast.Stmt) *pyast.FunctionDef {
	args := &pyast.Arguments{}
	for _, p := range params {
		args.Args = append(args.Args, &pyast.Arg{Name: p})
	}
	return &pyast.FunctionDef{Name: fname, Args: args, Body: body}
}

func ret(e pyast.Expr) *pyast.Return { return &pyast.Return{Value: e} }

func importStmt(names ...string) *pyast.Import {
	s := &pyast.Import{}
	for _, n := range names {
		s.Names = append(s.Names, &pyast.Alias{Name: n})
	}
	return s
}

// incrementModule is `def f(x): return x + 1`.
func incrementModule() *pyast.Module {
	return mod(def("f", []string{"x"}, ret(pyast.NewBinOp(name("x"), pyast.Add, num(1)))))
}

// evalConst evaluates the expression forms produced by literal rewrites:
// constants, + - * on ints, floats and strings, and str(), chr(), int(),
// float() calls. Ints evaluate to *big.Int, floats to float64, strings to
// string.
func evalConst(t *testing.T, e pyast.Expr) any {
	t.Helper()
	switch e := e.(type) {
	case *pyast.Constant:
		switch v := e.Value.(type) {
		case pyast.Int:
			return new(big.Int).Set(v.V)
		case pyast.Float:
			return float64(v)
		case pyast.Str:
			return string(v)
		}
	case *pyast.BinOp:
		return evalBinOp(t, e.Op, evalConst(t, e.Left), evalConst(t, e.Right))
	case *pyast.Call:
		fn, ok := e.Func.(*pyast.Name)
		require.True(t, ok, "call of %T", e.Func)
		var args []any
		for _, a := range e.Args {
			args = append(args, evalConst(t, a))
		}
		switch {
		case fn.ID == "str" && len(args) == 0:
			return ""
		case fn.ID == "chr" && len(args) == 1:
			return string(pyast.StrFromRunes([]rune{rune(args[0].(*big.Int).Int64())}))
		case fn.ID == "int" && len(args) == 1:
			n, _ := big.NewFloat(math.Trunc(toFloat(args[0]))).Int(nil)
			return n
		case fn.ID == "float" && len(args) == 1:
			return toFloat(args[0])
		}
	}
	t.Fatalf("cannot evaluate %s", pyast.PrintExpr(e))
	return nil
}

func toFloat(v any) float64 {
	switch v := v.(type) {
	case *big.Int:
		f, _ := new(big.Float).SetInt(v).Float64()
		return f
	case float64:
		return v
	}
	panic("not a number")
}

func evalBinOp(t *testing.T, op pyast.Operator, l, r any) any {
	t.Helper()
	if ls, ok := l.(string); ok {
		rs, ok := r.(string)
		require.True(t, ok)
		require.Equal(t, pyast.Add, op)
		return ls + rs
	}
	li, lok := l.(*big.Int)
	ri, rok := r.(*big.Int)
	if lok && rok {
		switch op {
		case pyast.Add:
			return new(big.Int).Add(li, ri)
		case pyast.Sub:
			return new(big.Int).Sub(li, ri)
		case pyast.Mult:
			return new(big.Int).Mul(li, ri)
		}
	}
	lf, rf := toFloat(l), toFloat(r)
	switch op {
	case pyast.Add:
		return lf + rf
	case pyast.Sub:
		return lf - rf
	case pyast.Mult:
		return lf * rf
	}
	t.Fatalf("unsupported operator %s", op)
	return nil
}

// requireSameValue checks that got equals the constant value want with the
// same Python type.
func requireSameValue(t *testing.T, want pyast.Value, got any) {
	t.Helper()
	switch want := want.(type) {
	case pyast.Int:
		n, ok := got.(*big.Int)
		require.True(t, ok, "want int, got %T", got)
		require.Zero(t, want.V.Cmp(n), "want %s, got %s", want.V, n)
	case pyast.Float:
		f, ok := got.(float64)
		require.True(t, ok, "want float, got %T", got)
		require.Equal(t, float64(want), f)
	case pyast.Str:
		require.Equal(t, string(want), got)
	default:
		t.Fatalf("unexpected constant %T", want)
	}
}
