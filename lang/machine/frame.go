package machine

import "github.com/mna/ember/lang/value"

// callFrame is one call activation: the closure being executed, the
// instruction pointer into its chunk, and the base offset into the VM's
// value stack where its locals begin (slot 0 is the receiver or, for a
// plain function, unused).
type callFrame struct {
	closure *value.ObjClosure
	ip      int
	slots   int
}

func (f *callFrame) chunk() *value.Chunk { return &f.closure.Function.Chunk }

func (f *callFrame) readByte() byte {
	b := f.chunk().Code[f.ip]
	f.ip++
	return b
}

func (f *callFrame) readShort() int {
	hi := f.chunk().Code[f.ip]
	lo := f.chunk().Code[f.ip+1]
	f.ip += 2
	return int(hi)<<8 | int(lo)
}

func (f *callFrame) readConstant() value.Value {
	return f.chunk().Constants[f.readByte()]
}

func (f *callFrame) line() int {
	if f.ip == 0 {
		return f.chunk().Lines[0]
	}
	return f.chunk().Lines[f.ip-1]
}
