package pyast

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Value is the payload of a Constant.
type Value interface {
	isValue()
	// Repr returns the Python source spelling of the value.
	Repr() string
}

type (
	None     struct{}
	Ellipsis struct{}
	Bool     bool
	// Int is an arbitrary precision Python int. V is never nil.
	Int     struct{ V *big.Int }
	Float   float64
	Complex struct{ Real, Imag float64 }
	// Str is Python text. Surrogate code points, which Python strings may
	// hold but UTF-8 cannot, are kept as their 3-byte generalized UTF-8
	// sequences; use Runes and StrFromRunes rather than []rune conversions.
	Str   string
	Bytes []byte
)

func (None) isValue()     {}
func (Ellipsis) isValue() {}
func (Bool) isValue()     {}
func (Int) isValue()      {}
func (Float) isValue()    {}
func (Complex) isValue()  {}
func (Str) isValue()      {}
func (Bytes) isValue()    {}

// NewInt returns an Int holding n.
func NewInt(n int64) Int { return Int{V: big.NewInt(n)} }

func (None) Repr() string     { return "None" }
func (Ellipsis) Repr() string { return "..." }

func (b Bool) Repr() string {
	if b {
		return "True"
	}
	return "False"
}

func (i Int) Repr() string { return i.V.String() }

func (f Float) Repr() string { return floatRepr(float64(f), true) }

func (c Complex) Repr() string {
	imag := floatRepr(c.Imag, false) + "j"
	if c.Real == 0 && !math.Signbit(c.Real) {
		return imag
	}
	sign := "+"
	if math.Signbit(c.Imag) || math.IsNaN(c.Imag) {
		sign = ""
	}
	return "(" + floatRepr(c.Real, false) + sign + imag + ")"
}

func (s Str) Repr() string { return quoteStr(string(s)) }

const (
	surrogateMin = 0xD800
	surrogateMax = 0xDFFF
)

// IsSurrogate reports whether r is a UTF-16 surrogate code point.
func IsSurrogate(r rune) bool { return r >= surrogateMin && r <= surrogateMax }

// decodeRune is utf8.DecodeRuneInString that also accepts encoded
// surrogates (ED A0..BF 80..BF).
func decodeRune(s string) (rune, int) {
	if len(s) >= 3 && s[0] == 0xED && s[1] >= 0xA0 && s[1] <= 0xBF && s[2] >= 0x80 && s[2] <= 0xBF {
		return 0xD000 | rune(s[1]&0x3F)<<6 | rune(s[2]&0x3F), 3
	}
	return utf8.DecodeRuneInString(s)
}

// Runes returns the code points of s, surrogates included.
func (s Str) Runes() []rune {
	var out []rune
	for str := string(s); len(str) > 0; {
		r, n := decodeRune(str)
		out = append(out, r)
		str = str[n:]
	}
	return out
}

// Len returns the number of code points in s, as Python's len does.
func (s Str) Len() int {
	n := 0
	for str := string(s); len(str) > 0; n++ {
		_, size := decodeRune(str)
		str = str[size:]
	}
	return n
}

// StrFromRunes builds a Str from code points, surrogates included.
func StrFromRunes(rs []rune) Str {
	b := make([]byte, 0, len(rs))
	for _, r := range rs {
		if IsSurrogate(r) {
			b = append(b, 0xED, 0x80|byte(r>>6)&0x3F, 0x80|byte(r)&0x3F)
			continue
		}
		b = utf8.AppendRune(b, r)
	}
	return Str(b)
}

func (b Bytes) Repr() string { return quoteBytes([]byte(b)) }

// Negative reports whether v is a number whose spelling starts with a minus sign.
func Negative(v Value) bool {
	switch v := v.(type) {
	case Int:
		return v.V.Sign() < 0
	case Float:
		return math.Signbit(float64(v))
	case Complex:
		return math.Signbit(v.Real) && v.Real != 0
	}
	return false
}

// infRepr stands in for infinity: it overflows to inf when read back.
const infRepr = "1e309"

// floatRepr follows Python's float repr: shortest round-tripping digits, fixed
// notation for exponents in [-4, 16), scientific otherwise. forcePoint appends
// ".0" to integral fixed values (complex parts omit it).
func floatRepr(f float64, forcePoint bool) string {
	switch {
	case math.IsInf(f, 1):
		return infRepr
	case math.IsInf(f, -1):
		return "-" + infRepr
	case math.IsNaN(f):
		return "(" + infRepr + "-" + infRepr + ")"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if forcePoint && !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func pickQuote(hasSingle, hasDouble bool) byte {
	if hasSingle && !hasDouble {
		return '"'
	}
	return '\''
}

func quoteStr(s string) string {
	q := pickQuote(strings.ContainsRune(s, '\''), strings.ContainsRune(s, '"'))
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	writeEscaped(&b, s, q)
	b.WriteByte(q)
	return b.String()
}

// writeEscaped writes the body of a string literal delimited by q.
func writeEscaped(b *strings.Builder, s string, q byte) {
	for len(s) > 0 {
		r, n := decodeRune(s)
		s = s[n:]
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteByte(q)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < ' ' || r == 0x7f:
			writeHex(b, 'x', int(r), 2)
		case r < utf8.RuneSelf || unicode.IsPrint(r):
			b.WriteRune(r)
		case r < 0x100:
			writeHex(b, 'x', int(r), 2)
		case r < 0x10000:
			writeHex(b, 'u', int(r), 4)
		default:
			writeHex(b, 'U', int(r), 8)
		}
	}
}

func quoteBytes(p []byte) string {
	var hasSingle, hasDouble bool
	for _, c := range p {
		hasSingle = hasSingle || c == '\''
		hasDouble = hasDouble || c == '"'
	}
	q := pickQuote(hasSingle, hasDouble)
	var b strings.Builder
	b.WriteByte('b')
	b.WriteByte(q)
	for _, c := range p {
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == q:
			b.WriteByte('\\')
			b.WriteByte(q)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < ' ' || c >= 0x7f:
			writeHex(&b, 'x', int(c), 2)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(q)
	return b.String()
}

func writeHex(b *strings.Builder, tag byte, v, width int) {
	h := strconv.FormatInt(int64(v), 16)
	b.WriteByte('\\')
	b.WriteByte(tag)
	for i := len(h); i < width; i++ {
		b.WriteByte('0')
	}
	b.WriteString(h)
}
