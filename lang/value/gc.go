package value

import (
	"fmt"
	"io"
)

const defaultNextGC = 1024 * 1024 // 1 MiB, per spec.md's GC trigger default

// RootMarker is implemented by the owners of long-lived GC roots (the VM and
// the compiler) and registered with the Heap so that a collection triggered
// mid-compile or mid-execution can find every reachable object without the
// value package importing either of them.
type RootMarker func(mark func(Value))

// Heap owns every allocated object, the string intern table, the mark-sweep
// collector state, and the byte-accounting used to decide when to collect.
type Heap struct {
	objects Obj // head of the singly-linked allocation list
	strings Table
	gray    []Obj // explicit worklist for the mark phase

	bytesAllocated uintptr
	nextGC         uintptr
	growthFactor   int
	stress         bool
	logGC          bool
	logWriter      io.Writer

	// InitString is the interned "init" string, a permanent GC root used by
	// the VM to recognize class initializers.
	InitString *ObjString

	vmRoots       RootMarker
	compilerRoots RootMarker

	protected []Value // transient GC-root stack (see Protect/Unprotect)

	collections int
}

// HeapOption configures a Heap at construction.
type HeapOption func(*Heap)

// WithStress enables collect-on-every-allocation, for exercising GC bugs
// deterministically in tests.
func WithStress(stress bool) HeapOption { return func(h *Heap) { h.stress = stress } }

// WithGrowthFactor sets the multiplier applied to bytesAllocated to compute
// nextGC after each collection. The spec default is 2.
func WithGrowthFactor(factor int) HeapOption {
	return func(h *Heap) {
		if factor > 1 {
			h.growthFactor = factor
		}
	}
}

// WithInitialHeap overrides the default 1 MiB initial nextGC threshold.
func WithInitialHeap(bytes int) HeapOption {
	return func(h *Heap) {
		if bytes > 0 {
			h.nextGC = uintptr(bytes)
		}
	}
}

// WithGCLogging writes a line to w before and after every collection,
// reporting bytes reclaimed and the new threshold.
func WithGCLogging(w io.Writer) HeapOption {
	return func(h *Heap) {
		h.logGC = w != nil
		h.logWriter = w
	}
}

// NewHeap creates an empty heap and interns the permanent "init" string.
func NewHeap(opts ...HeapOption) *Heap {
	h := &Heap{nextGC: defaultNextGC, growthFactor: 2}
	for _, opt := range opts {
		opt(h)
	}
	h.InitString = h.InternString("init")
	return h
}

// SetVMRoots registers the VM's root marker. Only one VM ever runs against a
// given Heap at a time, so this simply replaces any previous registration.
func (h *Heap) SetVMRoots(m RootMarker) { h.vmRoots = m }

// SetCompilerRoots registers the currently-compiling Compiler's root marker.
// The compiler clears this (passes nil) once compilation finishes.
func (h *Heap) SetCompilerRoots(m RootMarker) { h.compilerRoots = m }

// Protect pushes v onto the heap's transient GC-root stack, keeping it alive
// across allocations that haven't linked it into a permanent root yet (a
// freshly interned string on its way into a Chunk's constant pool, for
// instance). The caller must pair every Protect with an Unprotect once v has
// been linked somewhere durable.
func (h *Heap) Protect(v Value) { h.protected = append(h.protected, v) }

// Unprotect pops the most recently protected value.
func (h *Heap) Unprotect() { h.protected = h.protected[:len(h.protected)-1] }

// BytesAllocated returns the heap's current allocation-accounting total.
func (h *Heap) BytesAllocated() uintptr { return h.bytesAllocated }

// Collections returns the number of completed mark-sweep cycles.
func (h *Heap) Collections() int { return h.collections }

func (h *Heap) link(o Obj) {
	if h.bytesAllocated >= h.nextGC || h.stress {
		h.CollectGarbage()
	}
	o.setNext(h.objects)
	h.objects = o
	h.bytesAllocated += o.size()
}

// AddConstant appends v to chunk's constant pool, keeping v protected while
// it is added. The pool grows with append, not through the heap, so adding
// a constant never starts a collection itself.
func (h *Heap) AddConstant(chunk *Chunk, v Value) int {
	h.Protect(v)
	idx := chunk.AddConstant(v)
	h.Unprotect()
	return idx
}

// InternString returns the canonical ObjString for chars, allocating and
// interning a new one only if an equal string isn't already interned.
func (h *Heap) InternString(chars string) *ObjString {
	hash := hashString(chars)
	if existing := h.strings.FindString(chars, hash); existing != nil {
		return existing
	}
	s := &ObjString{Chars: chars, Hash: hash}
	s.typ = ObjTypeString
	h.link(s)
	// protect the freshly linked (but not yet reachable from any permanent
	// root) string while inserting it into the intern table.
	h.Protect(FromObj(s))
	h.strings.Set(s, Bool(true))
	h.Unprotect()
	return s
}

// NewFunction allocates an empty function object; callers fill in Arity,
// UpvalueCount, Chunk and Name before the function becomes reachable.
func (h *Heap) NewFunction() *ObjFunction {
	f := &ObjFunction{}
	f.typ = ObjTypeFunction
	h.link(f)
	return f
}

// NewNative allocates a native function object.
func (h *Heap) NewNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	n.typ = ObjTypeNative
	h.link(n)
	return n
}

// NewClosure allocates a closure over function with the given upvalue slots
// (already captured by the caller).
func (h *Heap) NewClosure(fn *ObjFunction, upvalues []*ObjUpvalue) *ObjClosure {
	c := &ObjClosure{Function: fn, Upvalues: upvalues}
	c.typ = ObjTypeClosure
	h.link(c)
	return c
}

// NewUpvalue allocates an open upvalue pointing at slot.
func (h *Heap) NewUpvalue(slot *Value) *ObjUpvalue {
	u := &ObjUpvalue{Location: slot}
	u.typ = ObjTypeUpvalue
	h.link(u)
	return u
}

// NewClass allocates a class with the given name and an empty method table.
func (h *Heap) NewClass(name *ObjString) *ObjClass {
	c := &ObjClass{Name: name}
	c.typ = ObjTypeClass
	h.link(c)
	return c
}

// NewInstance allocates an instance of class with no fields set.
func (h *Heap) NewInstance(class *ObjClass) *ObjInstance {
	i := &ObjInstance{Class: class}
	i.typ = ObjTypeInstance
	h.link(i)
	return i
}

// NewBoundMethod allocates a bound method pairing receiver with method.
func (h *Heap) NewBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	b := &ObjBoundMethod{Receiver: receiver, Method: method}
	b.typ = ObjTypeBoundMethod
	h.link(b)
	return b
}

// CollectGarbage runs one full mark-sweep cycle: mark every root, trace the
// gray worklist to black, drop dead strings from the intern table, sweep
// every unmarked object, then set the next threshold to the bytes still
// allocated times the growth factor (2 by default).
func (h *Heap) CollectGarbage() {
	before := h.bytesAllocated
	if h.logGC {
		fmt.Fprintln(h.logWriter, "-- gc begin")
	}

	h.markRoots()
	h.traceReferences()
	h.strings.removeWhite()
	freed := h.sweep()

	h.nextGC = h.bytesAllocated * uintptr(h.growthFactor)
	if h.nextGC == 0 {
		h.nextGC = defaultNextGC
	}
	h.collections++

	if h.logGC {
		fmt.Fprintf(h.logWriter, "-- gc end: collected %d bytes (from %d to %d), next at %d\n",
			freed, before, h.bytesAllocated, h.nextGC)
	}
}

func (h *Heap) markRoots() {
	mark := h.MarkValue

	for _, v := range h.protected {
		mark(v)
	}
	if h.InitString != nil {
		h.markObject(h.InitString)
	}
	if h.vmRoots != nil {
		h.vmRoots(mark)
	}
	if h.compilerRoots != nil {
		h.compilerRoots(mark)
	}
}

// MarkValue marks v if it holds a heap object, pushing it onto the gray
// worklist the first time it's seen.
func (h *Heap) MarkValue(v Value) {
	if v.IsObj() {
		h.markObject(v.AsObj())
	}
}

func (h *Heap) markObject(o Obj) {
	if o == nil || o.marked() {
		return
	}
	o.setMarked(true)
	h.gray = append(h.gray, o)
}

func (h *Heap) traceReferences() {
	for len(h.gray) > 0 {
		o := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		h.blacken(o)
	}
}

func (h *Heap) blacken(o Obj) {
	switch obj := o.(type) {
	case *ObjString, *ObjNative:
		// no references

	case *ObjUpvalue:
		h.MarkValue(obj.Closed)

	case *ObjFunction:
		if obj.Name != nil {
			h.markObject(obj.Name)
		}
		for _, c := range obj.Chunk.Constants {
			h.MarkValue(c)
		}

	case *ObjClosure:
		h.markObject(obj.Function)
		for _, uv := range obj.Upvalues {
			// slots stay nil until OP_CLOSURE has captured them
			if uv != nil {
				h.markObject(uv)
			}
		}

	case *ObjClass:
		h.markObject(obj.Name)
		h.markTable(&obj.Methods)

	case *ObjInstance:
		h.markObject(obj.Class)
		h.markTable(&obj.Fields)

	case *ObjBoundMethod:
		h.MarkValue(obj.Receiver)
		h.markObject(obj.Method)
	}
}

func (h *Heap) markTable(t *Table) {
	for _, e := range t.entries {
		if e.key != nil {
			h.markObject(e.key)
			h.MarkValue(e.value)
		}
	}
}

func (h *Heap) sweep() uintptr {
	var freed uintptr
	var prev Obj
	obj := h.objects
	for obj != nil {
		if obj.marked() {
			obj.setMarked(false)
			prev = obj
			obj = obj.next()
			continue
		}
		unreached := obj
		obj = obj.next()
		if prev != nil {
			prev.setNext(obj)
		} else {
			h.objects = obj
		}
		freed += unreached.size()
		h.bytesAllocated -= unreached.size()
	}
	return freed
}
