package engine

import (
	"math"
	"math/big"
	mathrand "math/rand"

	"github.com/benzoXdev/obfuspy/pkg/pyast"
)

// Shape classifies a literal for rewrite dispatch.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeEmptyString
	ShapeChar
	ShapeString
	ShapeZero
	ShapeInt
	ShapeFloat
)

var shapeNames = [...]string{"none", "empty-string", "char", "string", "zero", "int", "float"}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return "unknown"
	}
	return shapeNames[s]
}

// RewriteFunc turns a literal into an expression that evaluates to an equal
// value. It must not modify lit.
type RewriteFunc func(r *mathrand.Rand, lit *pyast.Constant) pyast.Expr

// Registry maps literal shapes to the rewrites that may be applied to them.
type Registry struct {
	table map[Shape][]RewriteFunc
}

// NewRegistry returns a registry with nothing registered; every literal
// passes through unchanged.
func NewRegistry() *Registry {
	return &Registry{table: make(map[Shape][]RewriteFunc)}
}

// DefaultRegistry returns the built-in rewrite table.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(ShapeEmptyString, emptyStrCall, identity)
	reg.Register(ShapeChar, charChr, identity)
	reg.Register(ShapeString, splitString)
	reg.Register(ShapeZero, zeroMult, identity)
	reg.Register(ShapeInt, splitInt)
	reg.Register(ShapeFloat, splitFloat)
	return reg
}

// Register adds rewrites for shape. ShapeNone cannot be registered.
func (reg *Registry) Register(shape Shape, fns ...RewriteFunc) {
	if shape == ShapeNone {
		return
	}
	reg.table[shape] = append(reg.table[shape], fns...)
}

// Len returns the number of rewrites registered for shape.
func (reg *Registry) Len(shape Shape) int { return len(reg.table[shape]) }

// Apply picks one of the rewrites registered for shape uniformly at random.
// With none registered it returns lit itself.
func (reg *Registry) Apply(r *mathrand.Rand, shape Shape, lit *pyast.Constant) pyast.Expr {
	fns := reg.table[shape]
	switch len(fns) {
	case 0:
		return lit
	case 1:
		return fns[0](r, lit)
	}
	return fns[r.Intn(len(fns))](r, lit)
}

// Rewrite classifies lit and applies a rewrite for its shape.
func (reg *Registry) Rewrite(r *mathrand.Rand, lit *pyast.Constant) pyast.Expr {
	return reg.Apply(r, ShapeOf(lit.Value), lit)
}

// ShapeOf classifies a constant value. Booleans, None, Ellipsis, complex,
// bytes and NaN have no shape.
func ShapeOf(v pyast.Value) Shape {
	switch v := v.(type) {
	case pyast.Str:
		switch v.Len() {
		case 0:
			return ShapeEmptyString
		case 1:
			return ShapeChar
		}
		return ShapeString
	case pyast.Int:
		if v.V.Sign() == 0 {
			return ShapeZero
		}
		return ShapeInt
	case pyast.Float:
		f := float64(v)
		switch {
		case math.IsNaN(f):
			return ShapeNone
		case f == 0:
			return ShapeZero
		}
		return ShapeFloat
	}
	return ShapeNone
}

func identity(_ *mathrand.Rand, lit *pyast.Constant) pyast.Expr { return lit }

// '' -> str()
func emptyStrCall(_ *mathrand.Rand, _ *pyast.Constant) pyast.Expr {
	return pyast.NewCall("str")
}

// 'a' -> chr(97)
func charChr(_ *mathrand.Rand, lit *pyast.Constant) pyast.Expr {
	c := lit.Value.(pyast.Str).Runes()[0]
	return pyast.NewCall("chr", pyast.NewConst(pyast.NewInt(int64(c))))
}

// 'hello' -> 'he' + 'llo', cut on a code point boundary strictly inside.
func splitString(r *mathrand.Rand, lit *pyast.Constant) pyast.Expr {
	s := lit.Value.(pyast.Str).Runes()
	i := 1 + r.Intn(len(s)-1)
	return pyast.NewBinOp(
		pyast.NewConst(pyast.StrFromRunes(s[:i])),
		pyast.Add,
		pyast.NewConst(pyast.StrFromRunes(s[i:])),
	)
}

// 0 -> int(r * 0), 0.0 -> float(r * 0)
func zeroMult(r *mathrand.Rand, lit *pyast.Constant) pyast.Expr {
	fn := "int"
	if _, ok := lit.Value.(pyast.Float); ok {
		fn = "float"
	}
	prod := pyast.NewBinOp(pyast.NewConst(pyast.Float(r.Float64())), pyast.Mult, pyast.NewConst(pyast.NewInt(0)))
	return pyast.NewCall(fn, prod)
}

const intSplitRange = 100

// n -> (n - r) + r with r in [-100, 100]
func splitInt(r *mathrand.Rand, lit *pyast.Constant) pyast.Expr {
	n := lit.Value.(pyast.Int).V
	d := big.NewInt(int64(r.Intn(2*intSplitRange+1) - intSplitRange))
	left := new(big.Int).Sub(n, d)
	return pyast.NewBinOp(pyast.NewConst(pyast.Int{V: left}), pyast.Add, pyast.NewConst(pyast.Int{V: d}))
}

// maxFloatAttempts bounds the search for an offset that survives rounding.
const maxFloatAttempts = 64

// n -> (n - r) + r with r in [0, 1), where the sum rounds back to exactly n.
func splitFloat(r *mathrand.Rand, lit *pyast.Constant) pyast.Expr {
	n := float64(lit.Value.(pyast.Float))
	for range maxFloatAttempts {
		d := r.Float64()
		left := n - d
		if left+d == n {
			return pyast.NewBinOp(pyast.NewConst(pyast.Float(left)), pyast.Add, pyast.NewConst(pyast.Float(d)))
		}
	}
	return lit
}
