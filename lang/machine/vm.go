// Package machine implements the stack-based bytecode virtual machine:
// the value stack, call frames, globals, open upvalues, and the interpreter
// loop dispatching on value.OpCode.
package machine

import (
	"fmt"
	"io"
	"os"
	"unsafe"

	"github.com/mna/ember/lang/compiler"
	"github.com/mna/ember/lang/value"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// RuntimeError is returned by Run when the program raises an error while
// executing (as opposed to a compiler.ErrorList returned for a compile-time
// failure). It carries the formatted message and a frame-by-frame stack
// trace, most recent call first.
type RuntimeError struct {
	Message string
	Trace   []string
}

func (e *RuntimeError) Error() string {
	s := e.Message
	for _, line := range e.Trace {
		s += "\n" + line
	}
	return s
}

// VM executes compiled ember programs. A VM is reusable across multiple
// Run calls; globals and the heap persist between them, matching a REPL's
// expectations.
type VM struct {
	heap   *value.Heap
	stdout io.Writer

	stack    [stackMax]value.Value
	stackTop int

	frames     [framesMax]callFrame
	frameCount int

	globals      value.Table
	openUpvalues *value.ObjUpvalue
}

// New creates a VM backed by heap, writing `print` output to stdout.
func New(heap *value.Heap, stdout io.Writer) *VM {
	if stdout == nil {
		stdout = os.Stdout
	}
	vm := &VM{heap: heap, stdout: stdout}
	heap.SetVMRoots(vm.markRoots)
	vm.defineNative("clock", clockNative)
	return vm
}

func (vm *VM) markRoots(mark func(value.Value)) {
	for i := 0; i < vm.stackTop; i++ {
		mark(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		mark(value.FromObj(vm.frames[i].closure))
	}
	vm.globals.ForEach(func(k *value.ObjString, v value.Value) {
		mark(value.FromObj(k))
		mark(v)
	})
	for uv := vm.openUpvalues; uv != nil; uv = uv.NextOpen {
		mark(value.FromObj(uv))
	}
}

// Interpret compiles and runs source in one step, the contract used by the
// file and REPL drivers.
func Interpret(heap *value.Heap, stdout io.Writer, source []byte) error {
	fn, err := compiler.Compile(heap, source)
	if err != nil {
		return err
	}
	vm := New(heap, stdout)
	return vm.Run(fn)
}

// Run executes a freshly compiled top-level function to completion.
func (vm *VM) Run(fn *value.ObjFunction) error {
	vm.push(value.FromObj(fn))
	closure := vm.heap.NewClosure(fn, nil)
	vm.pop()
	vm.push(value.FromObj(closure))
	vm.call(closure, 0)
	return vm.run()
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) runtimeError(format string, args ...any) error {
	err := &RuntimeError{Message: fmt.Sprintf(format, args...)}
	for i := vm.frameCount - 1; i >= 0; i-- {
		f := &vm.frames[i]
		fn := f.closure.Function
		line := f.line()
		if fn.Name == nil {
			err.Trace = append(err.Trace, fmt.Sprintf("[line %d] in script", line))
		} else {
			err.Trace = append(err.Trace, fmt.Sprintf("[line %d] in %s()", line, fn.DisplayName()))
		}
	}
	vm.resetStack()
	return err
}

// --- calling -------------------------------------------------------------

func (vm *VM) callValue(callee value.Value, argc int) error {
	if callee.IsObj() {
		switch obj := callee.AsObj().(type) {
		case *value.ObjClosure:
			return vm.call(obj, argc)
		case *value.ObjNative:
			args := vm.stack[vm.stackTop-argc : vm.stackTop]
			result, err := obj.Fn(args)
			if err != nil {
				return vm.runtimeError("%s", err.Error())
			}
			vm.stackTop -= argc + 1
			vm.push(result)
			return nil
		case *value.ObjClass:
			instance := vm.heap.NewInstance(obj)
			vm.stack[vm.stackTop-argc-1] = value.FromObj(instance)
			if initializer, ok := obj.Methods.Get(vm.heap.InitString); ok {
				return vm.call(initializer.AsObj().(*value.ObjClosure), argc)
			}
			if argc != 0 {
				return vm.runtimeError("Expected 0 arguments but got %d.", argc)
			}
			return nil
		case *value.ObjBoundMethod:
			vm.stack[vm.stackTop-argc-1] = obj.Receiver
			return vm.call(obj.Method, argc)
		}
	}
	return vm.runtimeError("Can only call functions and classes.")
}

func (vm *VM) call(closure *value.ObjClosure, argc int) error {
	if argc != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argc)
	}
	if vm.frameCount == framesMax {
		return vm.runtimeError("Stack overflow.")
	}
	f := &vm.frames[vm.frameCount]
	vm.frameCount++
	f.closure = closure
	f.ip = 0
	f.slots = vm.stackTop - argc - 1
	return nil
}

func (vm *VM) bindMethod(class *value.ObjClass, name *value.ObjString) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	bound := vm.heap.NewBoundMethod(vm.peek(0), method.AsObj().(*value.ObjClosure))
	vm.pop()
	vm.push(value.FromObj(bound))
	return nil
}

func (vm *VM) invoke(name *value.ObjString, argc int) error {
	receiver := vm.peek(argc)
	instance, ok := receiver.AsObj().(*value.ObjInstance)
	if !receiver.IsObj() || !ok {
		return vm.runtimeError("Only instances have methods.")
	}
	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argc-1] = field
		return vm.callValue(field, argc)
	}
	return vm.invokeFromClass(instance.Class, name, argc)
}

func (vm *VM) invokeFromClass(class *value.ObjClass, name *value.ObjString, argc int) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(method.AsObj().(*value.ObjClosure), argc)
}

// --- upvalues --------------------------------------------------------------

func addrOf(v *value.Value) uintptr { return uintptr(unsafe.Pointer(v)) }

func (vm *VM) captureUpvalue(local *value.Value) *value.ObjUpvalue {
	var prev *value.ObjUpvalue
	uv := vm.openUpvalues
	for uv != nil && addrOf(uv.Location) > addrOf(local) {
		prev = uv
		uv = uv.NextOpen
	}
	if uv != nil && uv.Location == local {
		return uv
	}

	created := vm.heap.NewUpvalue(local)
	created.NextOpen = uv
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

func (vm *VM) closeUpvalues(last *value.Value) {
	for vm.openUpvalues != nil && addrOf(vm.openUpvalues.Location) >= addrOf(last) {
		uv := vm.openUpvalues
		uv.Closed = *uv.Location
		uv.Location = &uv.Closed
		vm.openUpvalues = uv.NextOpen
	}
}

// --- the interpreter loop ---------------------------------------------------

func (vm *VM) run() error {
	frame := &vm.frames[vm.frameCount-1]

	for {
		op := value.OpCode(frame.readByte())
		switch op {
		case value.OpConstant:
			vm.push(frame.readConstant())

		case value.OpNil:
			vm.push(value.Nil)
		case value.OpTrue:
			vm.push(value.Bool(true))
		case value.OpFalse:
			vm.push(value.Bool(false))
		case value.OpPop:
			vm.pop()

		case value.OpGetLocal:
			slot := frame.readByte()
			vm.push(vm.stack[frame.slots+int(slot)])
		case value.OpSetLocal:
			slot := frame.readByte()
			vm.stack[frame.slots+int(slot)] = vm.peek(0)

		case value.OpGetGlobal:
			name := frame.readConstant().AsObj().(*value.ObjString)
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case value.OpSetGlobal:
			name := frame.readConstant().AsObj().(*value.ObjString)
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
		case value.OpDefineGlobal:
			name := frame.readConstant().AsObj().(*value.ObjString)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case value.OpGetUpvalue:
			slot := frame.readByte()
			vm.push(*frame.closure.Upvalues[slot].Location)
		case value.OpSetUpvalue:
			slot := frame.readByte()
			*frame.closure.Upvalues[slot].Location = vm.peek(0)

		case value.OpGetProperty:
			if !vm.peek(0).IsObj() {
				return vm.runtimeError("Only instances have properties.")
			}
			instance, ok := vm.peek(0).AsObj().(*value.ObjInstance)
			if !ok {
				return vm.runtimeError("Only instances have properties.")
			}
			name := frame.readConstant().AsObj().(*value.ObjString)
			if v, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(v)
				break
			}
			if err := vm.bindMethod(instance.Class, name); err != nil {
				return err
			}

		case value.OpSetProperty:
			if !vm.peek(1).IsObj() {
				return vm.runtimeError("Only instances have fields.")
			}
			instance, ok := vm.peek(1).AsObj().(*value.ObjInstance)
			if !ok {
				return vm.runtimeError("Only instances have fields.")
			}
			name := frame.readConstant().AsObj().(*value.ObjString)
			instance.Fields.Set(name, vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)

		case value.OpGetSuper:
			name := frame.readConstant().AsObj().(*value.ObjString)
			superclass := vm.pop().AsObj().(*value.ObjClass)
			if err := vm.bindMethod(superclass, name); err != nil {
				return err
			}

		case value.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))

		case value.OpGreater, value.OpLess:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			if op == value.OpGreater {
				vm.push(value.Bool(a > b))
			} else {
				vm.push(value.Bool(a < b))
			}

		case value.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}

		case value.OpSubtract, value.OpMultiply, value.OpDivide:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			switch op {
			case value.OpSubtract:
				vm.push(value.Number(a - b))
			case value.OpMultiply:
				vm.push(value.Number(a * b))
			case value.OpDivide:
				vm.push(value.Number(a / b))
			}

		case value.OpNot:
			vm.push(value.Bool(vm.pop().IsFalsey()))

		case value.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(value.Number(-vm.pop().AsNumber()))

		case value.OpPrint:
			fmt.Fprintln(vm.stdout, value.Format(vm.pop()))

		case value.OpJump:
			offset := frame.readShort()
			frame.ip += offset
		case value.OpJumpIfFalse:
			offset := frame.readShort()
			if vm.peek(0).IsFalsey() {
				frame.ip += offset
			}
		case value.OpLoop:
			offset := frame.readShort()
			frame.ip -= offset

		case value.OpCall:
			argc := int(frame.readByte())
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case value.OpInvoke:
			name := frame.readConstant().AsObj().(*value.ObjString)
			argc := int(frame.readByte())
			if err := vm.invoke(name, argc); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case value.OpSuperInvoke:
			name := frame.readConstant().AsObj().(*value.ObjString)
			argc := int(frame.readByte())
			superclass := vm.pop().AsObj().(*value.ObjClass)
			if err := vm.invokeFromClass(superclass, name, argc); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case value.OpClosure:
			fn := frame.readConstant().AsObj().(*value.ObjFunction)
			closure := vm.heap.NewClosure(fn, make([]*value.ObjUpvalue, fn.UpvalueCount))
			vm.push(value.FromObj(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := frame.readByte()
				index := frame.readByte()
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(&vm.stack[frame.slots+int(index)])
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case value.OpCloseUpvalue:
			vm.closeUpvalues(&vm.stack[vm.stackTop-1])
			vm.pop()

		case value.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(&vm.stack[frame.slots])
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.slots
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case value.OpClass:
			name := frame.readConstant().AsObj().(*value.ObjString)
			vm.push(value.FromObj(vm.heap.NewClass(name)))

		case value.OpInherit:
			superclassVal := vm.peek(1)
			superclass, ok := superclassVal.AsObj().(*value.ObjClass)
			if !superclassVal.IsObj() || !ok {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).AsObj().(*value.ObjClass)
			subclass.Methods.AddAll(&superclass.Methods)
			vm.pop()

		case value.OpMethod:
			name := frame.readConstant().AsObj().(*value.ObjString)
			method := vm.peek(0)
			class := vm.peek(1).AsObj().(*value.ObjClass)
			class.Methods.Set(name, method)
			vm.pop()

		default:
			return vm.runtimeError("Unknown opcode %d.", op)
		}
	}
}

func (vm *VM) add() error {
	b := vm.peek(0)
	a := vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(value.Number(a.AsNumber() + b.AsNumber()))
	case a.Is(value.ObjTypeString) && b.Is(value.ObjTypeString):
		vm.pop()
		vm.pop()
		as := a.AsObj().(*value.ObjString)
		bs := b.AsObj().(*value.ObjString)
		concat := vm.heap.InternString(as.Chars + bs.Chars)
		vm.push(value.FromObj(concat))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}
