package value

// ObjFunction is a compiled function: its arity, the number of upvalues its
// closures must allocate, and its bytecode chunk. The top-level script is
// represented as a Function with an empty Name.
type ObjFunction struct {
	header
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *ObjString // nil for the top-level script
}

var _ Obj = (*ObjFunction)(nil)

func (f *ObjFunction) size() uintptr { return uintptr(64 + len(f.Chunk.Code)) }

// DisplayName returns the name used by stack traces and the disassembler:
// "script" for the implicit top-level function, the function's own name
// otherwise.
func (f *ObjFunction) DisplayName() string {
	if f.Name == nil {
		return "script"
	}
	return f.Name.Chars
}

// NativeFn is a function implemented in Go and exposed to ember programs.
// It receives the arguments passed at the call site and returns the result
// value or an error to raise as a runtime error.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a NativeFn as a heap object so it can be stored in Values
// and called like any other callable.
type ObjNative struct {
	header
	Name string
	Fn   NativeFn
}

var _ Obj = (*ObjNative)(nil)

func (n *ObjNative) size() uintptr { return 32 }

// ObjUpvalue references a captured outer local. While open, Location points
// into a VM value stack slot; once the enclosing frame returns past that
// slot, the upvalue is closed: Closed receives a copy of the value and
// Location is retargeted to point at Closed.
type ObjUpvalue struct {
	header
	Location *Value
	Closed   Value
	NextOpen *ObjUpvalue // next node in the VM's open-upvalue list
}

var _ Obj = (*ObjUpvalue)(nil)

func (u *ObjUpvalue) size() uintptr { return 40 }

// ObjClosure pairs a Function with the upvalues it captured. Its Upvalues
// slice length always equals Function.UpvalueCount and never changes after
// construction.
type ObjClosure struct {
	header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

var _ Obj = (*ObjClosure)(nil)

func (c *ObjClosure) size() uintptr { return uintptr(24 + 8*len(c.Upvalues)) }

// ObjClass is a single-inheritance class: a name and a table mapping method
// names to closures.
type ObjClass struct {
	header
	Name    *ObjString
	Methods Table
}

var _ Obj = (*ObjClass)(nil)

func (c *ObjClass) size() uintptr { return 48 }

// ObjInstance is a live object of a given class: the class pointer plus a
// table of instance fields.
type ObjInstance struct {
	header
	Class  *ObjClass
	Fields Table
}

var _ Obj = (*ObjInstance)(nil)

func (i *ObjInstance) size() uintptr { return 48 }

// ObjBoundMethod pairs a receiver value with the closure to invoke on it,
// produced whenever a method is accessed (but not immediately called) as a
// property.
type ObjBoundMethod struct {
	header
	Receiver Value
	Method   *ObjClosure
}

var _ Obj = (*ObjBoundMethod)(nil)

func (b *ObjBoundMethod) size() uintptr { return 32 }
