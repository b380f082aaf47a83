// Package pyast models a Python 3 syntax tree as a closed set of Go node types.
//
// The node set mirrors CPython's ast module (3.8 through 3.12). Every node kind is
// a pointer to a struct implementing exactly one of the sealed marker interfaces
// Stmt, Expr, Pattern or TypeParam, or is one of the helper records (Arguments,
// Arg, Keyword, Alias, Comprehension, ExceptHandler, WithItem, MatchCase).
// Async variants are folded into their synchronous kinds with an Async flag and
// TryStar into Try with Star set.
//
// Trees come from DecodeJSON (the output of the dumper used by the front-end)
// and go back to Python source through Print.
package pyast

// Node is implemented by every node kind and helper record.
type Node interface{ isNode() }

// Stmt is a statement node.
type Stmt interface {
	Node
	isStmt()
	loc() *Loc
}

// Expr is an expression node.
type Expr interface {
	Node
	isExpr()
}

// Pattern is a structural pattern of a match case.
type Pattern interface {
	Node
	isPattern()
}

// TypeParam is a PEP 695 type parameter.
type TypeParam interface {
	Node
	isTypeParam()
}

// Loc is the source position of a statement. Line 0 means unknown.
type Loc struct {
	Line int
}

func (l *Loc) loc() *Loc { return l }

// LineOf returns the recorded line of s, 0 when unknown.
func LineOf(s Stmt) int { return s.loc().Line }

// Module is the root of a parsed file.
type Module struct {
	Body []Stmt
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

type (
	FunctionDef struct {
		Loc
		Name       string
		Args       *Arguments
		Body       []Stmt
		Decorators []Expr
		Returns    Expr
		TypeParams []TypeParam
		Async      bool
	}

	ClassDef struct {
		Loc
		Name       string
		Bases      []Expr
		Keywords   []*Keyword
		Body       []Stmt
		Decorators []Expr
		TypeParams []TypeParam
	}

	Return struct {
		Loc
		Value Expr
	}

	Delete struct {
		Loc
		Targets []Expr
	}

	Assign struct {
		Loc
		Targets []Expr
		Value   Expr
	}

	TypeAlias struct {
		Loc
		Name       Expr
		TypeParams []TypeParam
		Value      Expr
	}

	AugAssign struct {
		Loc
		Target Expr
		Op     Operator
		Value  Expr
	}

	// AnnAssign is an annotated assignment. Simple is set when the target is a
	// bare name that was not parenthesized in the source.
	AnnAssign struct {
		Loc
		Target     Expr
		Annotation Expr
		Value      Expr
		Simple     bool
	}

	For struct {
		Loc
		Target Expr
		Iter   Expr
		Body   []Stmt
		Orelse []Stmt
		Async  bool
	}

	While struct {
		Loc
		Test   Expr
		Body   []Stmt
		Orelse []Stmt
	}

	If struct {
		Loc
		Test   Expr
		Body   []Stmt
		Orelse []Stmt
	}

	With struct {
		Loc
		Items []*WithItem
		Body  []Stmt
		Async bool
	}

	Match struct {
		Loc
		Subject Expr
		Cases   []*MatchCase
	}

	Raise struct {
		Loc
		Exc   Expr
		Cause Expr
	}

	Try struct {
		Loc
		Body      []Stmt
		Handlers  []*ExceptHandler
		Orelse    []Stmt
		Finalbody []Stmt
		Star      bool
	}

	Assert struct {
		Loc
		Test Expr
		Msg  Expr
	}

	Import struct {
		Loc
		Names []*Alias
	}

	ImportFrom struct {
		Loc
		Module string
		Names  []*Alias
		Level  int
	}

	Global struct {
		Loc
		Names []string
	}

	Nonlocal struct {
		Loc
		Names []string
	}

	// ExprStmt is an expression used as a statement (ast.Expr).
	ExprStmt struct {
		Loc
		Value Expr
	}

	Pass     struct{ Loc }
	Break    struct{ Loc }
	Continue struct{ Loc }
)

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

type (
	BoolOp struct {
		Op     BoolOperator
		Values []Expr
	}

	NamedExpr struct {
		Target Expr
		Value  Expr
	}

	BinOp struct {
		Left  Expr
		Op    Operator
		Right Expr
	}

	UnaryOp struct {
		Op      UnaryOperator
		Operand Expr
	}

	Lambda struct {
		Args *Arguments
		Body Expr
	}

	IfExp struct {
		Test   Expr
		Body   Expr
		Orelse Expr
	}

	// Dict holds parallel key/value lists; a nil key marks a **mapping unpack.
	Dict struct {
		Keys   []Expr
		Values []Expr
	}

	Set struct {
		Elts []Expr
	}

	ListComp struct {
		Elt        Expr
		Generators []*Comprehension
	}

	SetComp struct {
		Elt        Expr
		Generators []*Comprehension
	}

	DictComp struct {
		Key        Expr
		Value      Expr
		Generators []*Comprehension
	}

	GeneratorExp struct {
		Elt        Expr
		Generators []*Comprehension
	}

	Await struct {
		Value Expr
	}

	Yield struct {
		Value Expr
	}

	YieldFrom struct {
		Value Expr
	}

	Compare struct {
		Left        Expr
		Ops         []CmpOperator
		Comparators []Expr
	}

	Call struct {
		Func     Expr
		Args     []Expr
		Keywords []*Keyword
	}

	// FormattedValue is one replacement field of an f-string. Conversion is
	// NoConversion or one of 's', 'r', 'a'.
	FormattedValue struct {
		Value      Expr
		Conversion int
		FormatSpec Expr
	}

	JoinedStr struct {
		Values []Expr
	}

	Constant struct {
		Value Value
		Kind  string
	}

	Attribute struct {
		Value Expr
		Attr  string
		Ctx   ExprContext
	}

	Subscript struct {
		Value Expr
		Slice Expr
		Ctx   ExprContext
	}

	Starred struct {
		Value Expr
		Ctx   ExprContext
	}

	Name struct {
		ID  string
		Ctx ExprContext
	}

	List struct {
		Elts []Expr
		Ctx  ExprContext
	}

	Tuple struct {
		Elts []Expr
		Ctx  ExprContext
	}

	Slice struct {
		Lower Expr
		Upper Expr
		Step  Expr
	}
)

// NoConversion is the FormattedValue.Conversion of a field without !s, !r or !a.
const NoConversion = -1

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

type (
	MatchValue struct {
		Value Expr
	}

	MatchSingleton struct {
		Value Value
	}

	MatchSequence struct {
		Patterns []Pattern
	}

	MatchMapping struct {
		Keys     []Expr
		Patterns []Pattern
		Rest     string
	}

	MatchClass struct {
		Cls         Expr
		Patterns    []Pattern
		KwdAttrs    []string
		KwdPatterns []Pattern
	}

	// MatchStar is *name inside a sequence pattern; an empty Name is *_.
	MatchStar struct {
		Name string
	}

	// MatchAs binds Name to the subject, optionally after matching Pattern.
	// An empty Name with a nil Pattern is the wildcard _.
	MatchAs struct {
		Pattern Pattern
		Name    string
	}

	MatchOr struct {
		Patterns []Pattern
	}
)

// ---------------------------------------------------------------------------
// Type parameters
// ---------------------------------------------------------------------------

type (
	TypeVar struct {
		Name  string
		Bound Expr
	}

	ParamSpec struct {
		Name string
	}

	TypeVarTuple struct {
		Name string
	}
)

// ---------------------------------------------------------------------------
// Helper records
// ---------------------------------------------------------------------------

type (
	// Arguments is a parameter list. Defaults line up with the tail of
	// PosOnly+Args; KwDefaults has one entry per KwOnly, nil meaning required.
	Arguments struct {
		PosOnly    []*Arg
		Args       []*Arg
		Vararg     *Arg
		KwOnly     []*Arg
		KwDefaults []Expr
		Kwarg      *Arg
		Defaults   []Expr
	}

	Arg struct {
		Name       string
		Annotation Expr
	}

	// Keyword is name=value in a call or class header. An empty Arg is **value.
	Keyword struct {
		Arg   string
		Value Expr
	}

	Alias struct {
		Name   string
		AsName string
	}

	Comprehension struct {
		Target  Expr
		Iter    Expr
		Ifs     []Expr
		IsAsync bool
	}

	ExceptHandler struct {
		Type Expr
		Name string
		Body []Stmt
	}

	WithItem struct {
		ContextExpr  Expr
		OptionalVars Expr
	}

	MatchCase struct {
		Pattern Pattern
		Guard   Expr
		Body    []Stmt
	}
)

// ---------------------------------------------------------------------------
// Operators and contexts
// ---------------------------------------------------------------------------

type Operator int

const (
	Add Operator = iota
	Sub
	Mult
	MatMult
	Div
	Mod
	Pow
	LShift
	RShift
	BitOr
	BitXor
	BitAnd
	FloorDiv
)

type UnaryOperator int

const (
	Invert UnaryOperator = iota
	Not
	UAdd
	USub
)

type BoolOperator int

const (
	And BoolOperator = iota
	Or
)

type CmpOperator int

const (
	Eq CmpOperator = iota
	NotEq
	Lt
	LtE
	Gt
	GtE
	Is
	IsNot
	In
	NotIn
)

type ExprContext int

const (
	Load ExprContext = iota
	Store
	Del
)

// ---------------------------------------------------------------------------
// Marker methods
// ---------------------------------------------------------------------------

func (*Module) isNode() {}

func (*FunctionDef) isNode() {}
func (*ClassDef) isNode()    {}
func (*Return) isNode()      {}
func (*Delete) isNode()      {}
func (*Assign) isNode()      {}
func (*TypeAlias) isNode()   {}
func (*AugAssign) isNode()   {}
func (*AnnAssign) isNode()   {}
func (*For) isNode()         {}
func (*While) isNode()       {}
func (*If) isNode()          {}
func (*With) isNode()        {}
func (*Match) isNode()       {}
func (*Raise) isNode()       {}
func (*Try) isNode()         {}
func (*Assert) isNode()      {}
func (*Import) isNode()      {}
func (*ImportFrom) isNode()  {}
func (*Global) isNode()      {}
func (*Nonlocal) isNode()    {}
func (*ExprStmt) isNode()    {}
func (*Pass) isNode()        {}
func (*Break) isNode()       {}
func (*Continue) isNode()    {}

func (*FunctionDef) isStmt() {}
func (*ClassDef) isStmt()    {}
func (*Return) isStmt()      {}
func (*Delete) isStmt()      {}
func (*Assign) isStmt()      {}
func (*TypeAlias) isStmt()   {}
func (*AugAssign) isStmt()   {}
func (*AnnAssign) isStmt()   {}
func (*For) isStmt()         {}
func (*While) isStmt()       {}
func (*If) isStmt()          {}
func (*With) isStmt()        {}
func (*Match) isStmt()       {}
func (*Raise) isStmt()       {}
func (*Try) isStmt()         {}
func (*Assert) isStmt()      {}
func (*Import) isStmt()      {}
func (*ImportFrom) isStmt()  {}
func (*Global) isStmt()      {}
func (*Nonlocal) isStmt()    {}
func (*ExprStmt) isStmt()    {}
func (*Pass) isStmt()        {}
func (*Break) isStmt()       {}
func (*Continue) isStmt()    {}

func (*BoolOp) isNode()         {}
func (*NamedExpr) isNode()      {}
func (*BinOp) isNode()          {}
func (*UnaryOp) isNode()        {}
func (*Lambda) isNode()         {}
func (*IfExp) isNode()          {}
func (*Dict) isNode()           {}
func (*Set) isNode()            {}
func (*ListComp) isNode()       {}
func (*SetComp) isNode()        {}
func (*DictComp) isNode()       {}
func (*GeneratorExp) isNode()   {}
func (*Await) isNode()          {}
func (*Yield) isNode()          {}
func (*YieldFrom) isNode()      {}
func (*Compare) isNode()        {}
func (*Call) isNode()           {}
func (*FormattedValue) isNode() {}
func (*JoinedStr) isNode()      {}
func (*Constant) isNode()       {}
func (*Attribute) isNode()      {}
func (*Subscript) isNode()      {}
func (*Starred) isNode()        {}
func (*Name) isNode()           {}
func (*List) isNode()           {}
func (*Tuple) isNode()          {}
func (*Slice) isNode()          {}

func (*BoolOp) isExpr()         {}
func (*NamedExpr) isExpr()      {}
func (*BinOp) isExpr()          {}
func (*UnaryOp) isExpr()        {}
func (*Lambda) isExpr()         {}
func (*IfExp) isExpr()          {}
func (*Dict) isExpr()           {}
func (*Set) isExpr()            {}
func (*ListComp) isExpr()       {}
func (*SetComp) isExpr()        {}
func (*DictComp) isExpr()       {}
func (*GeneratorExp) isExpr()   {}
func (*Await) isExpr()          {}
func (*Yield) isExpr()          {}
func (*YieldFrom) isExpr()      {}
func (*Compare) isExpr()        {}
func (*Call) isExpr()           {}
func (*FormattedValue) isExpr() {}
func (*JoinedStr) isExpr()      {}
func (*Constant) isExpr()       {}
func (*Attribute) isExpr()      {}
func (*Subscript) isExpr()      {}
func (*Starred) isExpr()        {}
func (*Name) isExpr()           {}
func (*List) isExpr()           {}
func (*Tuple) isExpr()          {}
func (*Slice) isExpr()          {}

func (*MatchValue) isNode()     {}
func (*MatchSingleton) isNode() {}
func (*MatchSequence) isNode()  {}
func (*MatchMapping) isNode()   {}
func (*MatchClass) isNode()     {}
func (*MatchStar) isNode()      {}
func (*MatchAs) isNode()        {}
func (*MatchOr) isNode()        {}

func (*MatchValue) isPattern()     {}
func (*MatchSingleton) isPattern() {}
func (*MatchSequence) isPattern()  {}
func (*MatchMapping) isPattern()   {}
func (*MatchClass) isPattern()     {}
func (*MatchStar) isPattern()      {}
func (*MatchAs) isPattern()        {}
func (*MatchOr) isPattern()        {}

func (*TypeVar) isNode()      {}
func (*ParamSpec) isNode()    {}
func (*TypeVarTuple) isNode() {}

func (*TypeVar) isTypeParam()      {}
func (*ParamSpec) isTypeParam()    {}
func (*TypeVarTuple) isTypeParam() {}

func (*Arguments) isNode()     {}
func (*Arg) isNode()           {}
func (*Keyword) isNode()       {}
func (*Alias) isNode()         {}
func (*Comprehension) isNode() {}
func (*ExceptHandler) isNode() {}
func (*WithItem) isNode()      {}
func (*MatchCase) isNode()     {}

// ---------------------------------------------------------------------------
// Constructors used by rewrites
// ---------------------------------------------------------------------------

// NewName returns a Name in load context.
func NewName(id string) *Name { return &Name{ID: id, Ctx: Load} }

// NewConst wraps v in a Constant.
func NewConst(v Value) *Constant { return &Constant{Value: v} }

// NewCall returns func(args...) where func is a plain name.
func NewCall(fn string, args ...Expr) *Call {
	return &Call{Func: NewName(fn), Args: args}
}

// NewBinOp returns left op right.
func NewBinOp(left Expr, op Operator, right Expr) *BinOp {
	return &BinOp{Left: left, Op: op, Right: right}
}
