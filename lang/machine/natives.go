package machine

import (
	"time"

	"github.com/mna/ember/lang/value"
)

var startTime = time.Now()

// clockNative implements the `clock` native function: seconds elapsed since
// the process started (startTime is set at package initialization), as a
// double.
func clockNative(args []value.Value) (value.Value, error) {
	return value.Number(time.Since(startTime).Seconds()), nil
}

func (vm *VM) defineNative(name string, fn value.NativeFn) {
	native := vm.heap.NewNative(name, fn)
	vm.heap.Protect(value.FromObj(native))
	nameStr := vm.heap.InternString(name)
	vm.globals.Set(nameStr, value.FromObj(native))
	vm.heap.Unprotect()
}
