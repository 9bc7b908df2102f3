package air

import (
	"fmt"

	"github.com/rv32air/zkcore/field"
)

// Violation is one failed AssertZero/AssertEq, carrying exactly what spec
// §7 stratum 3 requires a constraint-failure report to name: chip, row
// index, and the offending value.
type Violation struct {
	Chip string
	Row  int
	Note string
	Got  field.Element
}

func (v Violation) String() string {
	return fmt.Sprintf("%s row %d: %s (got %s, want 0)", v.Chip, v.Row, v.Note, v.Got)
}

// BusEvent is one recorded Send or Receive, consumed by the interaction
// package to check bus closure (spec §4.8, P3).
type BusEvent struct {
	Bus     string
	Tuple   []field.Element
	Mult    field.Element
	Receive bool
}

// EvalTrace runs eval once per row of rows in concrete mode -- every Expr
// evaluates immediately against rows' real field.Element values -- and
// collects every AssertZero failure and every Send/Receive. This is the
// "concrete, value-checking" builder mode spec §9 assigns to the debug
// harness.
func EvalTrace(chip string, rows [][]field.Element, eval func(Builder)) ([]Violation, []BusEvent) {
	var violations []Violation
	var events []BusEvent
	for i := range rows {
		r := &rowBuilder{chip: chip, idx: i, rows: rows, violations: &violations, events: &events}
		eval(r)
	}
	return violations, events
}

// rowBuilder is the base concrete Builder for one row of one chip's trace.
type rowBuilder struct {
	chip string
	idx  int
	rows [][]field.Element

	violations *[]Violation
	events     *[]BusEvent
}

func (r *rowBuilder) Row() Row {
	cur := r.rows[r.idx]
	var next []field.Element
	if r.idx+1 < len(r.rows) {
		next = r.rows[r.idx+1]
	}
	return Row{Cur: cur, Next: next}
}

func (r *rowBuilder) IsTransition() bool { return r.idx+1 < len(r.rows) }

func (r *rowBuilder) AssertZero(e Expr) {
	v := e(r.Row())
	if !v.IsZero() {
		*r.violations = append(*r.violations, Violation{Chip: r.chip, Row: r.idx, Note: "assert_zero failed", Got: v})
	}
}

func (r *rowBuilder) AssertEq(a, b Expr) { r.AssertZero(Sub(a, b)) }

func (r *rowBuilder) Send(bus string, tuple []Expr, mult Expr) { r.record(bus, tuple, mult, false) }

func (r *rowBuilder) Receive(bus string, tuple []Expr, mult Expr) { r.record(bus, tuple, mult, true) }

func (r *rowBuilder) record(bus string, tuple []Expr, mult Expr, receive bool) {
	row := r.Row()
	m := mult(row)
	if m.IsZero() {
		return
	}
	vals := make([]field.Element, len(tuple))
	for i, t := range tuple {
		vals[i] = t(row)
	}
	*r.events = append(*r.events, BusEvent{Bus: bus, Tuple: vals, Mult: m, Receive: receive})
}

func (r *rowBuilder) When(selector Expr) Builder { return &scopedBuilder{base: r, selector: selector} }

func (r *rowBuilder) WhenTransition() Builder { return &scopedBuilder{base: r, transitionOnly: true} }

// scopedBuilder wraps another Builder with an additional selector and/or
// transition gate, composing When/WhenTransition calls (spec §4.2,
// "when(selector) conditional constraints, when_transition() skip last
// row").
type scopedBuilder struct {
	base           Builder
	selector       Expr
	transitionOnly bool
}

func (s *scopedBuilder) active() bool {
	if s.transitionOnly && !s.base.IsTransition() {
		return false
	}
	if s.selector != nil && s.selector(s.base.Row()).IsZero() {
		return false
	}
	return true
}

func (s *scopedBuilder) Row() Row             { return s.base.Row() }
func (s *scopedBuilder) IsTransition() bool   { return s.base.IsTransition() }
func (s *scopedBuilder) AssertZero(e Expr)    { if s.active() { s.base.AssertZero(e) } }
func (s *scopedBuilder) AssertEq(a, b Expr)   { if s.active() { s.base.AssertEq(a, b) } }
func (s *scopedBuilder) Send(bus string, tuple []Expr, mult Expr) {
	if s.active() {
		s.base.Send(bus, tuple, mult)
	}
}
func (s *scopedBuilder) Receive(bus string, tuple []Expr, mult Expr) {
	if s.active() {
		s.base.Receive(bus, tuple, mult)
	}
}
func (s *scopedBuilder) When(selector Expr) Builder {
	return &scopedBuilder{base: s, selector: selector}
}
func (s *scopedBuilder) WhenTransition() Builder {
	return &scopedBuilder{base: s, transitionOnly: true}
}
