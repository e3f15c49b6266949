package value

// ObjType discriminates the heap object variants.
type ObjType uint8

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
	ObjTypeClosure
	ObjTypeUpvalue
	ObjTypeClass
	ObjTypeInstance
	ObjTypeBoundMethod
)

func (t ObjType) String() string {
	switch t {
	case ObjTypeString:
		return "string"
	case ObjTypeFunction:
		return "function"
	case ObjTypeNative:
		return "native"
	case ObjTypeClosure:
		return "closure"
	case ObjTypeUpvalue:
		return "upvalue"
	case ObjTypeClass:
		return "class"
	case ObjTypeInstance:
		return "instance"
	case ObjTypeBoundMethod:
		return "bound method"
	default:
		return "unknown object"
	}
}

// Obj is implemented by every heap object variant. Every variant embeds
// header, which provides the GC mark bit, the type tag, and the next
// pointer threading the object into the heap's allocation list.
type Obj interface {
	objType() ObjType
	marked() bool
	setMarked(bool)
	next() Obj
	setNext(Obj)
	// size is the number of bytes this object contributes to the heap's
	// allocation accounting; it does not need to be exact, only stable and
	// representative of relative object sizes.
	size() uintptr
}

// header is embedded by every concrete Obj implementation.
type header struct {
	typ  ObjType
	mark bool
	nxt  Obj
}

func (h *header) objType() ObjType   { return h.typ }
func (h *header) marked() bool       { return h.mark }
func (h *header) setMarked(m bool)   { h.mark = m }
func (h *header) next() Obj          { return h.nxt }
func (h *header) setNext(o Obj)      { h.nxt = o }

// TypeName returns the dynamic type name of a Value for user-facing
// messages.
func TypeName(v Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		return "boolean"
	case v.IsNumber():
		return "number"
	case v.IsObj():
		return v.AsObj().objType().String()
	default:
		return "unknown"
	}
}
