package pyast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benzoXdev/obfuspy/pkg/errors"
)

const sampleDump = `{"tree": {"_type": "Module", "body": [
 {"_type": "FunctionDef", "lineno": 1, "name": "f",
  "args": {"_type": "arguments", "posonlyargs": [], "args": [{"_type": "arg", "arg": "x", "annotation": null}],
           "vararg": null, "kwonlyargs": [], "kw_defaults": [], "kwarg": null, "defaults": []},
  "body": [{"_type": "Return", "lineno": 1, "value": {"_type": "BinOp",
            "left": {"_type": "Name", "id": "x", "ctx": {"_type": "Load"}},
            "op": {"_type": "Add"},
            "right": {"_type": "Constant", "value": {"t": "int", "v": "1"}, "kind": null}}}],
  "decorator_list": [], "returns": null, "type_comment": null},
 {"_type": "Expr", "lineno": 2, "value": {"_type": "Subscript",
  "value": {"_type": "Name", "id": "a", "ctx": {"_type": "Load"}},
  "slice": {"_type": "Index", "value": {"_type": "Constant", "value": {"t": "str", "v": "k"}, "kind": null}},
  "ctx": {"_type": "Load"}}}
]}}`

func TestDecodeJSON(t *testing.T) {
	m, err := DecodeJSON([]byte(sampleDump))
	require.NoError(t, err)
	require.Len(t, m.Body, 2)

	fn, ok := m.Body[0].(*FunctionDef)
	require.True(t, ok)
	assert.Equal(t, "f", fn.Name)
	assert.Equal(t, 1, LineOf(fn))
	require.Len(t, fn.Args.Args, 1)
	assert.Equal(t, "x", fn.Args.Args[0].Name)
	assert.Nil(t, fn.Returns)

	assert.Equal(t, "def f(x):\n    return x + 1\na['k']\n", Print(m))
}

func TestDecodeConstants(t *testing.T) {
	dump := `{"_type": "Module", "body": [{"_type": "Expr", "lineno": 1, "value": {"_type": "Tuple", "ctx": {"_type": "Load"}, "elts": [
		{"_type": "Constant", "value": {"t": "int", "v": "123456789012345678901234567890"}},
		{"_type": "Constant", "value": {"t": "float", "v": "inf"}},
		{"_type": "Constant", "value": {"t": "complex", "re": "0.0", "im": "2.0"}},
		{"_type": "Constant", "value": {"t": "bytes", "v": "AAE="}},
		{"_type": "Constant", "value": {"t": "bool", "v": true}},
		{"_type": "Constant", "value": {"t": "none"}},
		{"_type": "Constant", "value": {"t": "ellipsis"}}
	]}}]}`
	m, err := DecodeJSON([]byte(dump))
	require.NoError(t, err)

	elts := m.Body[0].(*ExprStmt).Value.(*Tuple).Elts
	require.Len(t, elts, 7)
	assert.Equal(t, "123456789012345678901234567890", elts[0].(*Constant).Value.Repr())
	assert.True(t, math.IsInf(float64(elts[1].(*Constant).Value.(Float)), 1))
	assert.Equal(t, Complex{Imag: 2}, elts[2].(*Constant).Value)
	assert.Equal(t, Bytes{0, 1}, elts[3].(*Constant).Value)
	assert.Equal(t, Bool(true), elts[4].(*Constant).Value)
	assert.Equal(t, None{}, elts[5].(*Constant).Value)
	assert.Equal(t, Ellipsis{}, elts[6].(*Constant).Value)

	assert.Equal(t, "(123456789012345678901234567890, 1e309, 2j, b'\\x00\\x01', True, None, ...)\n", Print(m))
}

// TestDecodeSurrogateString checks that text sent as code points keeps its
// lone surrogates through decode and print.
func TestDecodeSurrogateString(t *testing.T) {
	dump := `{"_type": "Module", "body": [{"_type": "Assign", "lineno": 1,
		"targets": [{"_type": "Name", "id": "s", "ctx": {"_type": "Store"}}],
		"value": {"_type": "Constant", "value": {"t": "str", "v": "", "cp": [55296, 120]}}}]}`
	m, err := DecodeJSON([]byte(dump))
	require.NoError(t, err)

	s := m.Body[0].(*Assign).Value.(*Constant).Value.(Str)
	assert.Equal(t, []rune{0xD800, 'x'}, s.Runes())
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "s = '\\ud800x'\n", Print(m))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{"_type": `},
		{"not an object", `[1, 2]`},
		{"wrong root", `{"_type": "Expression", "body": {}}`},
		{"unknown statement", `{"_type": "Module", "body": [{"_type": "Frobnicate"}]}`},
		{"unknown operator", `{"_type": "Module", "body": [{"_type": "Expr", "value": {"_type": "BinOp",
			"left": {"_type": "Name", "id": "a"}, "op": {"_type": "Spaceship"}, "right": {"_type": "Name", "id": "b"}}}]}`},
		{"bad code point", `{"_type": "Module", "body": [{"_type": "Expr", "value": {"_type": "Constant", "value": {"t": "str", "cp": [1114112]}}}]}`},
		{"code point not a number", `{"_type": "Module", "body": [{"_type": "Expr", "value": {"_type": "Constant", "value": {"t": "str", "cp": ["a"]}}}]}`},
		{"bad int", `{"_type": "Module", "body": [{"_type": "Expr", "value": {"_type": "Constant", "value": {"t": "int", "v": "x"}}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(tt.in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
		})
	}
}

func TestInspectVisitsAllNames(t *testing.T) {
	m, err := DecodeJSON([]byte(sampleDump))
	require.NoError(t, err)

	var names []string
	Inspect(m, func(n Node) bool {
		switch n := n.(type) {
		case *Name:
			names = append(names, n.ID)
		case *Arg:
			names = append(names, n.Name)
		}
		return true
	})
	assert.Equal(t, []string{"x", "x", "a"}, names)
}
