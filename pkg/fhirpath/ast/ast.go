// Package ast defines the FHIRPath abstract syntax tree produced by
// pkg/fhirpath/parser and walked by pkg/fhirpath/eval.
package ast

// Position marks where a node started in the source text, for error
// reporting.
type Position struct {
	Line   int
	Column int
}

// Node is implemented by every AST node.
type Node interface {
	Pos() Position
	String() string
}

// LiteralKind tags a parsed literal value by kind so the evaluator
// doesn't need to re-parse the source text.
type LiteralKind int

const (
	LiteralEmpty LiteralKind = iota
	LiteralBoolean
	LiteralString
	LiteralInteger
	LiteralLong
	LiteralDecimal
	LiteralDate
	LiteralDateTime
	LiteralTime
	LiteralQuantity
)

// Literal is a Term variant: a literal value with its source text
// preserved for Quantity (which also carries a unit) and temporal kinds.
type Literal struct {
	Position
	Kind LiteralKind
	Text string // canonical source text, e.g. "4.5", "true", "2024-01-01"
	Unit string // populated only for LiteralQuantity
}

func (l *Literal) Pos() Position { return l.Position }
func (l *Literal) String() string {
	if l.Kind == LiteralQuantity && l.Unit != "" {
		return l.Text + " " + l.Unit
	}
	return l.Text
}

// Invocation is the common interface for the five invocation forms.
type Invocation interface {
	Node
	invocation()
}

// MemberInvocation is a bare identifier member access, e.g. "name".
type MemberInvocation struct {
	Position
	Name string
}

func (*MemberInvocation) invocation()        {}
func (m *MemberInvocation) Pos() Position    { return m.Position }
func (m *MemberInvocation) String() string   { return m.Name }

// FunctionInvocation is a function call, e.g. "where(active)".
type FunctionInvocation struct {
	Position
	Name string
	Args []Node
}

func (*FunctionInvocation) invocation()      {}
func (f *FunctionInvocation) Pos() Position  { return f.Position }
func (f *FunctionInvocation) String() string { return f.Name + "(...)" }

// ThisInvocation is the "$this" special identifier.
type ThisInvocation struct{ Position }

func (*ThisInvocation) invocation()      {}
func (t *ThisInvocation) Pos() Position  { return t.Position }
func (t *ThisInvocation) String() string { return "$this" }

// IndexInvocation is the "$index" special identifier.
type IndexInvocation struct{ Position }

func (*IndexInvocation) invocation()      {}
func (i *IndexInvocation) Pos() Position  { return i.Position }
func (i *IndexInvocation) String() string { return "$index" }

// TotalInvocation is the "$total" special identifier (only valid inside
// the aggregate() accumulator expression).
type TotalInvocation struct{ Position }

func (*TotalInvocation) invocation()      {}
func (t *TotalInvocation) Pos() Position  { return t.Position }
func (t *TotalInvocation) String() string { return "$total" }

// ExternalConstant is "%name", looked up in the evaluation context's
// variable map.
type ExternalConstant struct {
	Position
	Name string
}

func (e *ExternalConstant) Pos() Position  { return e.Position }
func (e *ExternalConstant) String() string { return "%" + e.Name }

// InvocationTerm wraps a bare Invocation as a Term (root of a path, e.g.
// "Patient" or "where(x)" with no base expression preceding it).
type InvocationTerm struct {
	Position
	Invocation Invocation
}

func (t *InvocationTerm) Pos() Position  { return t.Position }
func (t *InvocationTerm) String() string { return t.Invocation.String() }

// InvocationExpr is a dotted path continuation: Base.Call.
type InvocationExpr struct {
	Position
	Base Node
	Call Invocation
}

func (e *InvocationExpr) Pos() Position  { return e.Position }
func (e *InvocationExpr) String() string { return e.Base.String() + "." + e.Call.String() }

// Indexer is a "[ ]" subscript: Base[Index].
type Indexer struct {
	Position
	Base  Node
	Index Node
}

func (e *Indexer) Pos() Position  { return e.Position }
func (e *Indexer) String() string { return e.Base.String() + "[...]" }

// Polarity is a unary +/- applied to a numeric expression.
type Polarity struct {
	Position
	Op    string // "+" or "-"
	Inner Node
}

func (e *Polarity) Pos() Position  { return e.Position }
func (e *Polarity) String() string { return e.Op + e.Inner.String() }

// BinaryOp enumerates the supported binary operators across all
// precedence levels except "is"/"as" (see Type) and unary polarity.
type BinaryOp string

const (
	OpImplies BinaryOp = "implies"
	OpOr      BinaryOp = "or"
	OpXor     BinaryOp = "xor"
	OpAnd     BinaryOp = "and"
	OpIn      BinaryOp = "in"
	OpContains BinaryOp = "contains"
	OpEqual   BinaryOp = "="
	OpEquivalent BinaryOp = "~"
	OpNotEqual   BinaryOp = "!="
	OpNotEquivalent BinaryOp = "!~"
	OpLess       BinaryOp = "<"
	OpLessEqual  BinaryOp = "<="
	OpGreater    BinaryOp = ">"
	OpGreaterEqual BinaryOp = ">="
	OpUnion BinaryOp = "|"
	OpAdd   BinaryOp = "+"
	OpSub   BinaryOp = "-"
	OpConcat BinaryOp = "&"
	OpMul   BinaryOp = "*"
	OpDiv   BinaryOp = "/"
	OpIntDiv BinaryOp = "div"
	OpMod   BinaryOp = "mod"
)

// Binary is a left-associative binary expression.
type Binary struct {
	Position
	Op  BinaryOp
	LHS Node
	RHS Node
}

func (e *Binary) Pos() Position  { return e.Position }
func (e *Binary) String() string { return e.LHS.String() + " " + string(e.Op) + " " + e.RHS.String() }

// TypeOp is "is" or "as".
type TypeOp string

const (
	TypeIs TypeOp = "is"
	TypeAs TypeOp = "as"
)

// QualifiedIdentifier is a (possibly namespaced) type name, e.g.
// "FHIR.Patient" or "Quantity".
type QualifiedIdentifier struct {
	Namespace string // "" if unqualified
	Name      string
}

func (q QualifiedIdentifier) String() string {
	if q.Namespace == "" {
		return q.Name
	}
	return q.Namespace + "." + q.Name
}

// Type is an "is"/"as" type test or cast.
type Type struct {
	Position
	LHS  Node
	Op   TypeOp
	Spec QualifiedIdentifier
}

func (e *Type) Pos() Position  { return e.Position }
func (e *Type) String() string { return e.LHS.String() + " " + string(e.Op) + " " + e.Spec.String() }

// Lambda is an anonymous parameterized expression body, used internally
// by filter-family functions to rebind $this/$index per item; it is not
// produced directly by the grammar (no FHIRPath surface syntax declares
// parameters) but models the argument ASTs those functions carry.
type Lambda struct {
	Position
	Param string // "" if the implicit $this is used
	Body  Node
}

func (e *Lambda) Pos() Position  { return e.Position }
func (e *Lambda) String() string { return "(lambda)" }

// Paren is a parenthesized sub-expression, kept as its own node so
// String() round-trips the source grouping; evaluation simply recurses
// into Inner.
type Paren struct {
	Position
	Inner Node
}

func (e *Paren) Pos() Position  { return e.Position }
func (e *Paren) String() string { return "(" + e.Inner.String() + ")" }
