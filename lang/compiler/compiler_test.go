package compiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mna/ember/lang/value"
	"github.com/stretchr/testify/require"
)

func compileOK(t *testing.T, src string) *value.ObjFunction {
	t.Helper()
	heap := value.NewHeap()
	fn, err := Compile(heap, []byte(src))
	require.NoError(t, err)
	require.NotNil(t, fn)
	return fn
}

func compileErr(t *testing.T, src string) error {
	t.Helper()
	heap := value.NewHeap()
	fn, err := Compile(heap, []byte(src))
	require.Error(t, err)
	require.Nil(t, fn)
	return err
}

// disasm disassembles fn's chunk followed by the chunk of every function
// nested in it, so assertions also see code compiled into inner functions.
func disasm(fn *value.ObjFunction) string {
	var buf bytes.Buffer
	pending := []*value.ObjFunction{fn}
	for len(pending) > 0 {
		f := pending[0]
		pending = pending[1:]
		f.Chunk.Disassemble(&buf, f.DisplayName())
		for _, k := range f.Chunk.Constants {
			if nested, ok := k.AsObj().(*value.ObjFunction); ok {
				pending = append(pending, nested)
			}
		}
	}
	return buf.String()
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	fn := compileOK(t, "print 1 + 2 * 3;")
	out := disasm(fn)
	require.Contains(t, out, "OP_CONSTANT")
	require.Contains(t, out, "OP_MULTIPLY")
	require.Contains(t, out, "OP_ADD")
	require.Contains(t, out, "OP_PRINT")
}

func TestCompileGlobalVarRoundTrip(t *testing.T) {
	fn := compileOK(t, `var x = 1; x = 2; print x;`)
	out := disasm(fn)
	require.Contains(t, out, "OP_DEFINE_GLOBAL")
	require.Contains(t, out, "OP_SET_GLOBAL")
	require.Contains(t, out, "OP_GET_GLOBAL")
}

func TestCompileLocalsUseSlots(t *testing.T) {
	fn := compileOK(t, `{ var a = 1; var b = 2; print a + b; }`)
	out := disasm(fn)
	require.Contains(t, out, "OP_GET_LOCAL")
	require.NotContains(t, out, "OP_GET_GLOBAL")
}

func TestCompileClosureCapturesUpvalue(t *testing.T) {
	fn := compileOK(t, `
		fun make() {
			var i = 0;
			fun inc() { i = i + 1; return i; }
			return inc;
		}
	`)
	out := disasm(fn)
	require.Contains(t, out, "OP_CLOSURE")
	require.Contains(t, out, "OP_GET_UPVALUE")
}

// TestResolveUpvalueCapturesOwningLocal regresses the fixed resolveUpvalue
// bug: the capture flag must land on the local in the enclosing compiler
// that actually owns the variable, not on a sentinel in the innermost one.
// With three nesting levels, the outermost local must come back to life as
// an upvalue chain (local -> upvalue -> upvalue) rather than panicking or
// silently resolving to a global.
func TestResolveUpvalueCapturesOwningLocal(t *testing.T) {
	fn := compileOK(t, `
		fun a() {
			var x = 1;
			fun b() {
				fun c() {
					return x;
				}
				return c;
			}
			return b;
		}
	`)
	out := disasm(fn)
	require.Contains(t, out, "OP_CLOSURE")
	// both nested functions must build closures capturing an upvalue, not a
	// global lookup of `x`.
	require.NotContains(t, out, "'x'")
}

func TestCompileForLoopAllClausesPresent(t *testing.T) {
	fn := compileOK(t, `for (var i = 0; i < 3; i = i + 1) print i;`)
	out := disasm(fn)
	require.Contains(t, out, "OP_LOOP")
	require.Contains(t, out, "OP_JUMP_IF_FALSE")
}

func TestCompileForLoopOmittedClauses(t *testing.T) {
	// no initializer, no condition, no increment: must still compile and
	// produce a balanced, infinite loop body (exited only via break-less
	// semantics, i.e. by `return` or running forever -- just must compile).
	fn := compileOK(t, `fun f() { for (;;) { return 1; } }`)
	require.NotNil(t, fn)
}

func TestCompileForLoopNoCondition(t *testing.T) {
	fn := compileOK(t, `fun f() { for (var i = 0;;i = i + 1) { return i; } }`)
	out := disasm(fn)
	require.Contains(t, out, "OP_LOOP")
}

func TestCompileClassWithSuper(t *testing.T) {
	fn := compileOK(t, `
		class A { speak() { print "A"; } }
		class B < A { speak() { super.speak(); print "B"; } }
	`)
	out := disasm(fn)
	require.Contains(t, out, "OP_INHERIT")
	require.Contains(t, out, "OP_SUPER_INVOKE")
}

func TestCompileInitializerBareReturnOK(t *testing.T) {
	compileOK(t, `class C { init() { return; } }`)
}

func TestCompileInitializerValueReturnFails(t *testing.T) {
	err := compileErr(t, `class D { init() { return 1; } }`)
	require.True(t, strings.Contains(err.Error(), "Can't return a value from an initializer."))
}

func TestCompileReturnAtTopLevelFails(t *testing.T) {
	compileErr(t, `return 1;`)
}

func TestCompileThisOutsideClassFails(t *testing.T) {
	compileErr(t, `print this;`)
}

func TestCompileSuperOutsideClassFails(t *testing.T) {
	compileErr(t, `print super.x;`)
}

func TestCompileRedeclaredLocalFails(t *testing.T) {
	compileErr(t, `{ var a = 1; var a = 2; }`)
}

func TestCompileSelfInitializingLocalFails(t *testing.T) {
	compileErr(t, `{ var a = a; }`)
}

func TestCompileInvalidAssignmentTargetFails(t *testing.T) {
	compileErr(t, `a + b = 1;`)
}

func TestCompileUnterminatedStringFails(t *testing.T) {
	compileErr(t, "print \"abc;")
}

func TestCompileMultipleErrorsAllReported(t *testing.T) {
	err := compileErr(t, `
		{ var a = 1; var a = 2; }
		return 1;
	`)
	var el ErrorList
	require.ErrorAs(t, err, &el)
	require.GreaterOrEqual(t, len(el), 2)
}
