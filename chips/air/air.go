// Package air implements the AIR builder capability (spec §4.2, §9 "AIR
// builder as a capability"): the interface every chip's eval function is
// written against, plus the Row/Expr algebra constraints are built from.
//
// Expr is deliberately a plain closure rather than an expression tree.
// Compiling the real, degree-bounded symbolic polynomial the outer STARK
// prover commits to is the external prover's job (spec §1, "out of scope:
// the low-level polynomial commitment scheme"); this package only needs an
// Expr that a concrete row evaluator (package air's own ConcreteBuilder,
// driven by the debug harness) can run, so a closure over field.Element
// values is the whole abstraction the core requires.
package air

import (
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/record"
)

// Row is one row's column values, plus the next row's when the builder is
// scoped inside WhenTransition (spec §4.2, "main() (current & next row
// views)"). Next is nil on the last row of a trace.
type Row struct {
	Cur  []field.Element
	Next []field.Element
}

// Expr is a constraint-builder expression: a pure function from a row
// window to a single field element.
type Expr func(Row) field.Element

// Const returns an Expr that ignores the row and always yields v.
func Const(v field.Element) Expr { return func(Row) field.Element { return v } }

// Col returns an Expr reading column i of the current row.
func Col(i int) Expr { return func(r Row) field.Element { return r.Cur[i] } }

// NextCol returns an Expr reading column i of the next row. Only valid
// inside a WhenTransition scope.
func NextCol(i int) Expr { return func(r Row) field.Element { return r.Next[i] } }

// Add returns a + b.
func Add(a, b Expr) Expr { return func(r Row) field.Element { return a(r).Add(b(r)) } }

// Sub returns a - b.
func Sub(a, b Expr) Expr { return func(r Row) field.Element { return a(r).Sub(b(r)) } }

// Mul returns a * b.
func Mul(a, b Expr) Expr { return func(r Row) field.Element { return a(r).Mul(b(r)) } }

// Neg returns -a.
func Neg(a Expr) Expr { return func(r Row) field.Element { return a(r).Neg() } }

// Sum folds a list of Exprs with Add, returning Const(0) for an empty list.
func Sum(es ...Expr) Expr {
	return func(r Row) field.Element {
		acc := field.Zero
		for _, e := range es {
			acc = acc.Add(e(r))
		}
		return acc
	}
}

// One is the constant 1, used constantly enough as a default multiplicity
// (every unconditional send/receive) to warrant a shared value.
var One = Const(field.One)

// byteWeights are the little-endian place values 256^0..256^3, shared by
// every chip that reduces a four-column Word layout to its scalar value
// (spec §3, "Semantic value = b0 + 256*b1 + 256^2*b2 + 256^3*b3").
var byteWeights = [4]uint32{1, 256, 256 * 256, 256 * 256 * 256}

// ReduceWord returns the Expr computing the scalar value of four columns
// holding a Word's little-endian bytes.
func ReduceWord(c0, c1, c2, c3 int) Expr {
	return Sum(
		Mul(Col(c0), Const(field.FromCanonicalU32(byteWeights[0]))),
		Mul(Col(c1), Const(field.FromCanonicalU32(byteWeights[1]))),
		Mul(Col(c2), Const(field.FromCanonicalU32(byteWeights[2]))),
		Mul(Col(c3), Const(field.FromCanonicalU32(byteWeights[3]))),
	)
}

// Builder is the capability surface every chip's eval(AirBuilder) is
// written against (spec §4.2). Concrete and symbolic implementations
// coexist behind this interface; this core ships one concrete
// implementation (package air's row/scoped types, driven by the debug
// harness) since the symbolic polynomial compiler is the external
// prover's responsibility (spec §1).
type Builder interface {
	// Row returns the current row window.
	Row() Row
	// IsTransition reports whether a next row exists (false on the last
	// row of the trace).
	IsTransition() bool

	// AssertZero registers the constraint e(row) == 0.
	AssertZero(e Expr)
	// AssertEq registers the constraint a(row) == b(row).
	AssertEq(a, b Expr)

	// When scopes subsequent constraints to rows where selector(row) != 0.
	When(selector Expr) Builder
	// WhenTransition scopes subsequent constraints to rows with a next row.
	WhenTransition() Builder

	// Send registers an outgoing interaction tuple on bus, weighted by
	// mult (spec §4.8). A zero multiplicity is a no-op.
	Send(bus string, tuple []Expr, mult Expr)
	// Receive registers an incoming interaction tuple on bus (spec §4.8).
	Receive(bus string, tuple []Expr, mult Expr)
}

// Chip is the quintuple spec §4.2 defines: an event stream's trace
// generator plus its AIR. GenerateTrace and Eval must agree on column
// layout -- Eval only ever reads what GenerateTrace wrote.
type Chip interface {
	// Name identifies the chip in violation reports and bus registrations.
	Name() string
	// Width is the number of columns GenerateTrace's rows will have.
	Width() int
	// GenerateTrace is a pure function of rec's events (spec §4.2): it
	// must not consult any interpreter state beyond what rec carries, and
	// the returned matrix is padded to the next power of two with rows
	// satisfying Eval (typically by zeroing every selector column).
	GenerateTrace(rec *record.ExecutionRecord) [][]field.Element
	// Eval runs this chip's constraints against b's current row window.
	Eval(b Builder)
}

// DemandFed is the extra capability of a preprocessed-table chip whose
// receive multiplicity is a witness tallied from the other chips' sends
// (the BYTE chip) rather than derived from the execution record alone.
// The debug harness runs every other chip first, then feeds the collected
// bus events here before generating the table's own trace -- the same
// two-phase ordering a real prover uses to populate a lookup table's
// multiplicity column after the demanding traces exist.
type DemandFed interface {
	Chip
	FeedDemand(events []BusEvent)
}
