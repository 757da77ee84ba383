// Package vm implements ember's stack-based bytecode interpreter: the
// final stage in the pipeline, it fetches bytes from a compiled chunk.Chunk
// one at a time and executes them against a fixed-size value stack and the
// two pieces of shared state a running program can touch — the heap's
// string intern set and the VM's own global variable table.
package vm

import (
	"fmt"
	"io"

	"github.com/ember-lang/ember/pkg/chunk"
	"github.com/ember-lang/ember/pkg/compiler"
	"github.com/ember-lang/ember/pkg/debug"
	"github.com/ember-lang/ember/pkg/heap"
	"github.com/ember-lang/ember/pkg/table"
	"github.com/ember-lang/ember/pkg/value"
)

// StackMax bounds the VM's value stack. Pushing past it is a runtime
// error, not undefined behavior — see (*VM).safePush.
const StackMax = 256

// InterpretResult is the outcome of one Interpret call.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// VM is a single interpreter instance: no process-wide singleton. A caller
// owns its lifetime and must call Free when done, so the heap's allocation
// chain and intern table are released deterministically.
type VM struct {
	heap    *heap.Heap
	globals *table.Table

	stack    [StackMax]value.Value
	stackTop int

	chunk *chunk.Chunk
	ip    int

	stdout io.Writer
	stderr io.Writer

	trace    bool
	traceOut io.Writer
}

// New returns a VM ready to interpret source, writing PRINT output to
// stdout and diagnostics to stderr.
func New(h *heap.Heap, stdout, stderr io.Writer) *VM {
	return &VM{
		heap:    h,
		globals: table.New(),
		stdout:  stdout,
		stderr:  stderr,
	}
}

// SetTrace turns on per-instruction disassembly, written to w immediately
// before each instruction executes. This is the diagnostic-only hook
// §4.6 describes; nothing about program behavior depends on it.
func (vm *VM) SetTrace(w io.Writer) {
	vm.trace = true
	vm.traceOut = w
}

// Free releases the VM's heap-owned state. Safe to call once after the VM
// is no longer needed; a REPL instead keeps reusing the VM across lines
// and calls Free only on exit.
func (vm *VM) Free() {
	vm.heap.Free()
	vm.globals = table.New()
}

// Interpret compiles source into a fresh chunk and, on success, runs it.
// It resets the value stack before running so a REPL can reuse one VM
// across many top-level inputs without earlier stack state leaking in.
func (vm *VM) Interpret(source string) InterpretResult {
	c := chunk.New()
	if !compiler.Compile(source, c, vm.heap, vm.stderr) {
		return InterpretCompileError
	}

	vm.chunk = c
	vm.ip = 0
	vm.resetStack()
	return vm.run()
}

// run is the dispatch loop: fetch one opcode byte, switch on it, repeat.
// Operand bytes (constant-pool indices) are fetched the same way, one byte
// at a time, via readByte.
func (vm *VM) run() InterpretResult {
	for {
		if vm.trace {
			debug.DisassembleInstruction(vm.traceOut, vm.chunk, vm.ip)
		}
		op := chunk.Op(vm.readByte())

		switch op {
		case chunk.OpConstant:
			if res := vm.safePush(vm.readConstant()); res != InterpretOK {
				return res
			}

		case chunk.OpNil:
			if res := vm.safePush(value.Nil); res != InterpretOK {
				return res
			}

		case chunk.OpTrue:
			if res := vm.safePush(value.Bool(true)); res != InterpretOK {
				return res
			}

		case chunk.OpFalse:
			if res := vm.safePush(value.Bool(false)); res != InterpretOK {
				return res
			}

		case chunk.OpPop:
			vm.pop()

		case chunk.OpGetGlobal:
			name := vm.readConstant().Obj
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Str().Chars)
			}
			if res := vm.safePush(v); res != InterpretOK {
				return res
			}

		case chunk.OpDefineGlobal:
			name := vm.readConstant().Obj
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case chunk.OpSetGlobal:
			name := vm.readConstant().Obj
			if vm.globals.Set(name, vm.peek(0)) {
				// SET_GLOBAL must never create a binding: undo the
				// insertion Set just performed before reporting it.
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Str().Chars)
			}

		case chunk.OpEqual:
			b := vm.pop()
			a := vm.pop()
			if res := vm.safePush(value.Bool(value.Equal(a, b))); res != InterpretOK {
				return res
			}

		case chunk.OpGreater, chunk.OpLess, chunk.OpSubtract, chunk.OpMultiply, chunk.OpDivide:
			result, ok := vm.numericBinaryOp(op)
			if !ok {
				return vm.runtimeError("Operands must be numbers.")
			}
			if res := vm.safePush(result); res != InterpretOK {
				return res
			}

		case chunk.OpAdd:
			result, ok := vm.add()
			if !ok {
				return vm.runtimeError("Operands must be two numbers or two strings.")
			}
			if res := vm.safePush(result); res != InterpretOK {
				return res
			}

		case chunk.OpNot:
			if res := vm.safePush(value.Bool(vm.pop().Falsy())); res != InterpretOK {
				return res
			}

		case chunk.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			if res := vm.safePush(value.Number(-vm.pop().Number)); res != InterpretOK {
				return res
			}

		case chunk.OpPrint:
			fmt.Fprintf(vm.stdout, "%s\n", value.Format(vm.pop()))

		case chunk.OpReturn:
			return InterpretOK

		default:
			return vm.runtimeError("Unknown opcode %d.", op)
		}
	}
}

// numericBinaryOp implements GREATER, LESS, SUBTRACT, MULTIPLY, and DIVIDE:
// both operands must be numbers, or the caller reports a runtime error.
func (vm *VM) numericBinaryOp(op chunk.Op) (value.Value, bool) {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return value.Value{}, false
	}
	b := vm.pop().Number
	a := vm.pop().Number

	switch op {
	case chunk.OpGreater:
		return value.Bool(a > b), true
	case chunk.OpLess:
		return value.Bool(a < b), true
	case chunk.OpSubtract:
		return value.Number(a - b), true
	case chunk.OpMultiply:
		return value.Number(a * b), true
	case chunk.OpDivide:
		return value.Number(a / b), true
	default:
		return value.Value{}, false
	}
}

// add implements ADD's dual number/string behavior: two numbers sum, two
// strings concatenate (via the heap, so the result is interned like any
// other string); any other combination is a runtime error.
func (vm *VM) add() (value.Value, bool) {
	b := vm.peek(0)
	a := vm.peek(1)

	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		return value.Number(a.Number + b.Number), true
	case a.IsString() && b.IsString():
		vm.pop()
		vm.pop()
		obj := vm.heap.Concat(a.AsString(), b.AsString())
		return value.FromObj(obj), true
	default:
		return value.Value{}, false
	}
}

// runtimeError implements the runtime error protocol: print the message,
// then a single "[line N] in script" line naming the source line of the
// instruction that just faulted, reset the stack, and report
// InterpretRuntimeError.
func (vm *VM) runtimeError(format string, args ...interface{}) InterpretResult {
	fmt.Fprintf(vm.stderr, format+"\n", args...)
	line := vm.chunk.Lines[vm.ip-1]
	fmt.Fprintf(vm.stderr, "[line %d] in script\n", line)
	vm.resetStack()
	return InterpretRuntimeError
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readConstant() value.Value {
	return vm.chunk.Constants[vm.readByte()]
}

// safePush pushes v, reporting a "Stack overflow." runtime error instead
// of writing past the fixed-size stack.
func (vm *VM) safePush(v value.Value) InterpretResult {
	if vm.stackTop >= StackMax {
		return vm.runtimeError("Stack overflow.")
	}
	vm.stack[vm.stackTop] = v
	vm.stackTop++
	return InterpretOK
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
}
