package machine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mna/ember/lang/compiler"
	"github.com/mna/ember/lang/value"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	heap := value.NewHeap()
	var out bytes.Buffer
	err := Interpret(heap, &out, []byte(src))
	return out.String(), err
}

func TestArithmeticPrecedence(t *testing.T) {
	out, err := run(t, `print 1 + 2 * 3;`)
	require.NoError(t, err)
	require.Equal(t, "7\n", out)
}

func TestClosuresCaptureByReference(t *testing.T) {
	out, err := run(t, `
		fun make() {
			var i = 0;
			fun inc() {
				i = i + 1;
				return i;
			}
			return inc;
		}
		var c = make();
		print c();
		print c();
		print c();
	`)
	require.NoError(t, err)
	require.Equal(t, "1\n2\n3\n", out)
}

func TestUpvalueSharedAcrossSiblingClosures(t *testing.T) {
	out, err := run(t, `
		fun outer() {
			var x = "a";
			fun get() { return x; }
			fun set(v) { x = v; }
			set("b");
			print get();
		}
		outer();
	`)
	require.NoError(t, err)
	require.Equal(t, "b\n", out)
}

func TestClassInheritanceAndSuper(t *testing.T) {
	out, err := run(t, `
		class A { speak() { print "A"; } }
		class B < A { speak() { super.speak(); print "B"; } }
		B().speak();
	`)
	require.NoError(t, err)
	require.Equal(t, "A\nB\n", out)
}

func TestInitializerImplicitlyReturnsThis(t *testing.T) {
	out, err := run(t, `
		class Counter {
			init() { this.count = 0; }
			bump() { this.count = this.count + 1; return this; }
		}
		var c = Counter();
		c.bump();
		c.bump();
		print c.count;
	`)
	require.NoError(t, err)
	require.Equal(t, "2\n", out)
}

func TestRuntimeTypeErrorHasStackTrace(t *testing.T) {
	_, err := run(t, `"x" - 1;`)
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, "Operands must be numbers.", rerr.Message)
	require.NotEmpty(t, rerr.Trace)
	require.True(t, strings.Contains(rerr.Trace[0], "in script"))
}

func TestUndefinedGlobalReadIsRuntimeError(t *testing.T) {
	_, err := run(t, `print nope;`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Undefined variable 'nope'")
}

func TestUndefinedGlobalAssignIsRuntimeError(t *testing.T) {
	_, err := run(t, `nope = 1;`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Undefined variable 'nope'")
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	_, err := run(t, `var x = 1; x();`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Can only call functions and classes.")
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `fun f(a, b) { return a + b; } f(1);`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Expected 2 arguments but got 1.")
}

func TestStringConcatenationInterns(t *testing.T) {
	out, err := run(t, `print "foo" + "bar";`)
	require.NoError(t, err)
	require.Equal(t, "foobar\n", out)
}

func TestNaNIsNotEqualToItself(t *testing.T) {
	out, err := run(t, `
		var n = 0;
		print (n / n) == (n / n);
	`)
	require.NoError(t, err)
	require.Equal(t, "false\n", out)
}

func TestNegativeZeroEqualsZero(t *testing.T) {
	out, err := run(t, `print -0 == 0;`)
	require.NoError(t, err)
	require.Equal(t, "true\n", out)
}

func TestStackIsEmptyAfterCompletion(t *testing.T) {
	heap := value.NewHeap()
	var out bytes.Buffer
	fn, err := compiler.Compile(heap, []byte(`var a = 1; { var b = 2; print a + b; }`))
	require.NoError(t, err)
	vm := New(heap, &out)
	require.NoError(t, vm.Run(fn))
	require.Equal(t, 0, vm.stackTop)
	require.Equal(t, 0, vm.frameCount)
}

func TestClockNativeReturnsNumber(t *testing.T) {
	out, err := run(t, `
		var t = clock();
		print t >= 0;
	`)
	require.NoError(t, err)
	require.Equal(t, "true\n", out)
}

func TestGCStressDuringExecution(t *testing.T) {
	heap := value.NewHeap(value.WithStress(true))
	var out bytes.Buffer
	err := Interpret(heap, &out, []byte(`
		class A { speak() { print "A"; } }
		class B < A { speak() { super.speak(); print "B"; } }
		B().speak();

		fun make() {
			var i = 0;
			fun inc() { i = i + 1; return i; }
			return inc;
		}
		var c = make();
		print c();
		print c();
	`))
	require.NoError(t, err)
	require.Equal(t, "A\nB\n1\n2\n", out.String())
}
