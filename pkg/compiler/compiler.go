// Package compiler implements ember's single-pass Pratt parser: it drives
// the scanner token by token and emits bytecode directly into a
// caller-supplied chunk.Chunk as it goes — there is no intermediate AST.
// This is the hardest single piece of the interpreter to get right, and
// the one place where this repository's architecture necessarily departs
// furthest from its teacher (see DESIGN.md).
package compiler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/ember-lang/ember/pkg/chunk"
	"github.com/ember-lang/ember/pkg/heap"
	"github.com/ember-lang/ember/pkg/scanner"
	"github.com/ember-lang/ember/pkg/value"
)

// Precedence ranks binding power, lowest to highest, for parsePrecedence.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// Compiler holds the tiny parser state the spec describes: the
// previous/current token and two flags governing error recovery.
type Compiler struct {
	scanner *scanner.Scanner
	chunk   *chunk.Chunk
	heap    *heap.Heap
	errOut  io.Writer

	current  scanner.Token
	previous scanner.Token

	hadError  bool
	panicMode bool
}

// Compile drives the scanner over source and emits bytecode into c,
// interning string literals (and their identifier-constant counterparts)
// through h. It returns false if any compile error was reported; a caller
// must not hand a failed compile's chunk to the VM. Diagnostics are
// written to errOut in the spec's exact wire format.
func Compile(source string, c *chunk.Chunk, h *heap.Heap, errOut io.Writer) bool {
	comp := &Compiler{
		scanner: scanner.New(source),
		chunk:   c,
		heap:    h,
		errOut:  errOut,
	}

	comp.advance()
	for !comp.check(scanner.EOF) {
		comp.declaration()
	}
	comp.consume(scanner.EOF, "Expect end of expression.")
	comp.emitReturn()

	return !comp.hadError
}

// --- token stream plumbing ---

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.ScanToken()
		if c.current.Type != scanner.Error {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) consume(t scanner.TokenType, message string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) check(t scanner.TokenType) bool { return c.current.Type == t }

func (c *Compiler) match(t scanner.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

// --- error reporting & panic-mode recovery ---

func (c *Compiler) errorAtCurrent(message string)  { c.errorAt(c.current, message) }
func (c *Compiler) errorAtPrevious(message string) { c.errorAt(c.previous, message) }

func (c *Compiler) errorAt(tok scanner.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true

	fmt.Fprintf(c.errOut, "[line %d] Error", tok.Line)
	switch tok.Type {
	case scanner.EOF:
		fmt.Fprint(c.errOut, " at end")
	case scanner.Error:
		// The lexeme already is the message; nothing more to locate.
	default:
		fmt.Fprintf(c.errOut, " at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(c.errOut, ": %s\n", message)

	c.hadError = true
}

// synchronize discards tokens until it reaches a likely statement
// boundary, so one syntax error doesn't cascade into a wall of others.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.current.Type != scanner.EOF {
		if c.previous.Type == scanner.Semicolon {
			return
		}
		switch c.current.Type {
		case scanner.Class, scanner.Fun, scanner.Var, scanner.For,
			scanner.If, scanner.While, scanner.Print, scanner.Return:
			return
		}
		c.advance()
	}
}

// --- bytecode emission ---

func (c *Compiler) emitByte(b byte)    { c.chunk.Write(b, c.previous.Line) }
func (c *Compiler) emitOp(op chunk.Op) { c.emitByte(byte(op)) }

func (c *Compiler) emitBytes(op chunk.Op, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

func (c *Compiler) emitReturn() { c.emitOp(chunk.OpReturn) }

// makeConstant appends v to the chunk's constant pool and returns its
// index, reporting a compile error if the pool has outgrown the 8-bit
// operand width an opcode can address.
func (c *Compiler) makeConstant(v value.Value) byte {
	index := c.chunk.AddConstant(v)
	if index > 255 {
		c.errorAtPrevious("Too many constants in one chunk.")
		return 0
	}
	return byte(index)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitBytes(chunk.OpConstant, c.makeConstant(v))
}

// identifierConstant interns name's lexeme as a heap string and adds it
// to the constant pool, returning its index. Global variable names are
// always represented this way — as interned ObjStrings used as table
// keys, per the spec's "stringly-typed globals" design note.
func (c *Compiler) identifierConstant(name scanner.Token) byte {
	obj := c.heap.InternString(name.Lexeme)
	return c.makeConstant(value.FromObj(obj))
}

// --- Pratt parsing ---

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	rule := getRule(c.previous.Type)
	if rule.prefix == nil {
		c.errorAtPrevious("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	rule.prefix(c, canAssign)

	for prec <= getRule(c.current.Type).precedence {
		c.advance()
		infix := getRule(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(scanner.Equal) {
		c.errorAtPrevious("Invalid assignment target.")
	}
}

func (c *Compiler) expression() { c.parsePrecedence(PrecAssignment) }

func number(c *Compiler, _ bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.errorAtPrevious("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

func stringLiteral(c *Compiler, _ bool) {
	lexeme := c.previous.Lexeme
	inner := lexeme[1 : len(lexeme)-1] // strip the surrounding quotes
	obj := c.heap.InternString(inner)
	c.emitConstant(value.FromObj(obj))
}

func literal(c *Compiler, _ bool) {
	switch c.previous.Type {
	case scanner.False:
		c.emitOp(chunk.OpFalse)
	case scanner.True:
		c.emitOp(chunk.OpTrue)
	case scanner.Nil:
		c.emitOp(chunk.OpNil)
	}
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(scanner.RightParen, "Expect ')' after expression.")
}

func unary(c *Compiler, _ bool) {
	operator := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch operator {
	case scanner.Minus:
		c.emitOp(chunk.OpNegate)
	case scanner.Bang:
		c.emitOp(chunk.OpNot)
	}
}

func binary(c *Compiler, _ bool) {
	operator := c.previous.Type
	rule := getRule(operator)
	c.parsePrecedence(rule.precedence + 1) // left-associative

	switch operator {
	case scanner.Plus:
		c.emitOp(chunk.OpAdd)
	case scanner.Minus:
		c.emitOp(chunk.OpSubtract)
	case scanner.Star:
		c.emitOp(chunk.OpMultiply)
	case scanner.Slash:
		c.emitOp(chunk.OpDivide)
	case scanner.EqualEqual:
		c.emitOp(chunk.OpEqual)
	case scanner.BangEqual:
		c.emitOp(chunk.OpEqual)
		c.emitOp(chunk.OpNot)
	case scanner.Greater:
		c.emitOp(chunk.OpGreater)
	case scanner.GreaterEqual:
		c.emitOp(chunk.OpLess)
		c.emitOp(chunk.OpNot)
	case scanner.Less:
		c.emitOp(chunk.OpLess)
	case scanner.LessEqual:
		c.emitOp(chunk.OpGreater)
		c.emitOp(chunk.OpNot)
	}
}

func variable(c *Compiler, canAssign bool) {
	namedVariable(c, c.previous, canAssign)
}

func namedVariable(c *Compiler, name scanner.Token, canAssign bool) {
	arg := c.identifierConstant(name)
	if canAssign && c.match(scanner.Equal) {
		c.expression()
		c.emitBytes(chunk.OpSetGlobal, arg)
	} else {
		c.emitBytes(chunk.OpGetGlobal, arg)
	}
}

var rules map[scanner.TokenType]parseRule

func init() {
	rules = map[scanner.TokenType]parseRule{
		scanner.LeftParen:    {grouping, nil, PrecNone},
		scanner.Minus:        {unary, binary, PrecTerm},
		scanner.Plus:         {nil, binary, PrecTerm},
		scanner.Slash:        {nil, binary, PrecFactor},
		scanner.Star:         {nil, binary, PrecFactor},
		scanner.Bang:         {unary, nil, PrecNone},
		scanner.BangEqual:    {nil, binary, PrecEquality},
		scanner.EqualEqual:   {nil, binary, PrecEquality},
		scanner.Greater:      {nil, binary, PrecComparison},
		scanner.GreaterEqual: {nil, binary, PrecComparison},
		scanner.Less:         {nil, binary, PrecComparison},
		scanner.LessEqual:    {nil, binary, PrecComparison},
		scanner.Identifier:   {variable, nil, PrecNone},
		scanner.String:       {stringLiteral, nil, PrecNone},
		scanner.Number:       {number, nil, PrecNone},
		scanner.False:        {literal, nil, PrecNone},
		scanner.True:         {literal, nil, PrecNone},
		scanner.Nil:          {literal, nil, PrecNone},
	}
}

func getRule(t scanner.TokenType) parseRule {
	if r, ok := rules[t]; ok {
		return r
	}
	return parseRule{}
}

// --- statements & declarations ---

func (c *Compiler) declaration() {
	if c.match(scanner.Var) {
		c.varDeclaration()
	} else {
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	c.consume(scanner.Identifier, "Expect variable name.")
	global := c.identifierConstant(c.previous)

	if c.match(scanner.Equal) {
		c.expression()
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.consume(scanner.Semicolon, "Expect ';' after variable declaration.")

	c.emitBytes(chunk.OpDefineGlobal, global)
}

func (c *Compiler) statement() {
	if c.match(scanner.Print) {
		c.printStatement()
	} else {
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(scanner.Semicolon, "Expect ';' after value.")
	c.emitOp(chunk.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(scanner.Semicolon, "Expect ';' after expression.")
	c.emitOp(chunk.OpPop)
}
