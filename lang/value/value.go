// Package value implements ember's runtime value representation, the heap
// object variants, the open-addressed Table type, string interning, and the
// mark-sweep garbage collector that manages all of it.
package value

// Kind discriminates the variants of Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is a tagged word: nil, a boolean, an IEEE-754 double, or a handle to
// a heap Obj. Downstream code is expected to use only the constructors and
// IsX/AsX accessors below rather than reaching into the fields directly, so that the
// representation could later be swapped (e.g. for NaN-boxing) without
// touching callers.
type Value struct {
	kind Kind
	b    bool
	n    float64
	obj  Obj
}

// Nil is the singleton nil value.
var Nil = Value{kind: KindNil}

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// FromObj returns a Value wrapping a heap object.
func FromObj(o Obj) Value { return Value{kind: KindObj, obj: o} }

func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObj() bool    { return v.kind == KindObj }

func (v Value) AsBool() bool      { return v.b }
func (v Value) AsNumber() float64 { return v.n }
func (v Value) AsObj() Obj        { return v.obj }

// Is reports whether v holds an object of the given kind.
func (v Value) Is(k ObjType) bool {
	return v.kind == KindObj && v.obj.objType() == k
}

// IsFalsey implements ember's truthiness rule: only nil and false are
// falsey, everything else (including 0 and the empty string) is truthy.
func (v Value) IsFalsey() bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}

// Equal implements value equality: nil equals nil, booleans compare by
// value, numbers compare by IEEE equality, and objects compare by identity
// -- except strings, which are always interned, so identity equality is
// exactly structural equality for them too.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindObj:
		return a.obj == b.obj
	default:
		return false
	}
}
