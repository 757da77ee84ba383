package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember-lang/ember/pkg/heap"
	"github.com/ember-lang/ember/pkg/vm"
)

func run(t *testing.T, source string) (stdout, stderr string, result vm.InterpretResult) {
	t.Helper()
	var out, errOut bytes.Buffer
	h := heap.New()
	v := vm.New(h, &out, &errOut)
	defer v.Free()
	result = v.Interpret(source)
	return out.String(), errOut.String(), result
}

func TestNumberAddition(t *testing.T) {
	out, _, result := run(t, `print 1 + 2;`)
	require.Equal(t, vm.InterpretOK, result)
	assert.Equal(t, "3\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, _, result := run(t, `print "st" + "ri" + "ng";`)
	require.Equal(t, vm.InterpretOK, result)
	assert.Equal(t, "string\n", out)
}

func TestGlobalVariables(t *testing.T) {
	out, _, result := run(t, `var a = 1; var b = 2; print a + b; a = a + 10; print a;`)
	require.Equal(t, vm.InterpretOK, result)
	assert.Equal(t, "3\n11\n", out)
}

func TestBooleanAndComparisonExpression(t *testing.T) {
	out, _, result := run(t, `print !(5 - 4 > 3 * 2 == !nil);`)
	require.Equal(t, vm.InterpretOK, result)
	assert.Equal(t, "true\n", out)
}

func TestUndefinedGlobalRead(t *testing.T) {
	_, errOut, result := run(t, `print x;`)
	assert.Equal(t, vm.InterpretRuntimeError, result)
	assert.Contains(t, errOut, "Undefined variable 'x'.")
	assert.Contains(t, errOut, "[line 1] in script")
}

func TestSetGlobalOnUndefinedLeavesNoBinding(t *testing.T) {
	var out, errOut bytes.Buffer
	v := vm.New(heap.New(), &out, &errOut)
	defer v.Free()

	assert.Equal(t, vm.InterpretRuntimeError, v.Interpret(`x = 1;`))
	assert.Contains(t, errOut.String(), "Undefined variable 'x'.")

	// A later read on the same VM must still find no binding for x.
	errOut.Reset()
	assert.Equal(t, vm.InterpretRuntimeError, v.Interpret(`print x;`))
	assert.Contains(t, errOut.String(), "Undefined variable 'x'.")
}

func TestAddTypeMismatch(t *testing.T) {
	_, errOut, result := run(t, `print 1 + "a";`)
	assert.Equal(t, vm.InterpretRuntimeError, result)
	assert.Contains(t, errOut, "Operands must be two numbers or two strings.")
}

func TestNegateRequiresNumber(t *testing.T) {
	_, errOut, result := run(t, `print -"a";`)
	assert.Equal(t, vm.InterpretRuntimeError, result)
	assert.Contains(t, errOut, "Operand must be a number.")
}

func TestDivisionByZeroIsNotARuntimeError(t *testing.T) {
	out, _, result := run(t, `print 1 / 0;`)
	require.Equal(t, vm.InterpretOK, result)
	assert.Equal(t, "+Inf\n", out)
}

func TestFalsinessTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`print !nil;`, "true\n"},
		{`print !false;`, "true\n"},
		{`print !true;`, "false\n"},
		{`print !0;`, "false\n"},
		{`print !"";`, "false\n"},
	}
	for _, tt := range tests {
		out, _, result := run(t, tt.input)
		if result != vm.InterpretOK {
			t.Fatalf("%q: expected InterpretOK, got %v", tt.input, result)
		}
		if out != tt.expected {
			t.Errorf("%q: got stdout %q, want %q", tt.input, out, tt.expected)
		}
	}
}

func TestEqualityNeverCoercesAcrossKinds(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`print 0 == false;`, "false\n"},
		{`print nil == false;`, "false\n"},
		{`print "" == false;`, "false\n"},
	}
	for _, tt := range tests {
		out, _, result := run(t, tt.input)
		if result != vm.InterpretOK {
			t.Fatalf("%q: expected InterpretOK, got %v", tt.input, result)
		}
		if out != tt.expected {
			t.Errorf("%q: got stdout %q, want %q", tt.input, out, tt.expected)
		}
	}
}

func TestCompileErrorNeverReachesTheVM(t *testing.T) {
	out, errOut, result := run(t, `var a = 1 print a;`)
	assert.Equal(t, vm.InterpretCompileError, result)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "[line 1] Error at 'print': Expect ';'")
}

func TestDeterminismAcrossRepeatedRuns(t *testing.T) {
	const source = `var a = 3; var b = 4; print a * b;`
	out1, _, result1 := run(t, source)
	out2, _, result2 := run(t, source)
	assert.Equal(t, result1, result2)
	assert.Equal(t, out1, out2)
}
