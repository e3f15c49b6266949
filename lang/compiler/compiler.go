// Package compiler implements the single-pass Pratt compiler: it drives the
// scanner directly and emits bytecode into a value.Chunk as it parses,
// without ever building a separate syntax tree.
package compiler

import (
	"strconv"

	"github.com/mna/ember/lang/scanner"
	"github.com/mna/ember/lang/token"
	"github.com/mna/ember/lang/value"
)

const (
	maxLocals   = 256
	maxUpvalues = 256
	maxArgs     = 255
	maxParams   = 255
)

// role distinguishes the kind of function a Compiler frame is building,
// which changes how slot 0 and `return` are handled.
type role uint8

const (
	roleScript role = iota
	roleFunction
	roleMethod
	roleInitializer
)

type localVar struct {
	name     token.Token
	depth    int // -1 while uninitialized
	captured bool
}

type upvalRef struct {
	index   uint8
	isLocal bool
}

// frame holds the compile-time state for one function body being compiled:
// its in-progress value.ObjFunction, its locals and upvalues, and the
// enclosing frame it is nested in (nil for the top-level script).
type frame struct {
	enclosing *frame
	fn        *value.ObjFunction
	role      role

	locals     [maxLocals]localVar
	localCount int
	upvalues   [maxUpvalues]upvalRef
	scopeDepth int
}

// classScope tracks the class currently being compiled, stacked so that a
// class declared inside a method body restores the outer class's
// `this`/`super` context once it ends.
type classScope struct {
	enclosing     *classScope
	hasSuperclass bool
}

// Compiler drives the scanner and lowers tokens directly into bytecode. A
// Compiler is single-use: call Compile to get a finished top-level function.
type Compiler struct {
	heap    *value.Heap
	scanner *scanner.Scanner

	previous token.Token
	current  token.Token

	errors    ErrorList
	hadError  bool
	panicMode bool

	cur   *frame
	class *classScope
}

// Compile compiles source into a top-level script function. If any compile
// error was reported, the returned function is nil and the error is a
// non-nil ErrorList.
func Compile(heap *value.Heap, source []byte) (*value.ObjFunction, error) {
	c := &Compiler{heap: heap, scanner: scanner.New(source)}
	c.pushFrame(roleScript, "")

	heap.SetCompilerRoots(c.markRoots)
	defer heap.SetCompilerRoots(nil)

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	fn := c.endFrame()

	if c.hadError {
		return nil, c.errors.Err()
	}
	return fn, nil
}

func (c *Compiler) markRoots(mark func(value.Value)) {
	for fr := c.cur; fr != nil; fr = fr.enclosing {
		if fr.fn != nil {
			mark(value.FromObj(fr.fn))
		}
	}
}

func (c *Compiler) pushFrame(r role, name string) {
	fn := c.heap.NewFunction()
	if name != "" {
		fn.Name = c.heap.InternString(name)
	}
	fr := &frame{enclosing: c.cur, fn: fn, role: r}
	// slot 0 is reserved for the receiver (methods/initializers) or left
	// anonymous otherwise; either way it must never resolve by name except
	// for `this`.
	if r == roleMethod || r == roleInitializer {
		fr.locals[0] = localVar{name: token.Token{Lexeme: "this"}, depth: 0}
	} else {
		fr.locals[0] = localVar{name: token.Token{Lexeme: ""}, depth: 0}
	}
	fr.localCount = 1
	c.cur = fr
}

func (c *Compiler) endFrame() *value.ObjFunction {
	c.emitReturn()
	fn := c.cur.fn
	c.cur = c.cur.enclosing
	return fn
}

func (c *Compiler) currentChunk() *value.Chunk { return &c.cur.fn.Chunk }

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.Scan()
		if c.current.Type != token.ILLEGAL {
			break
		}
		c.errorAtLine(c.current.Line, c.current.Lexeme)
	}
}

// errorAtLine reports a lexical error that has no associated token text
// (the scanner already consumed the offending character).
func (c *Compiler) errorAtLine(line int, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.errors.Add(line, "", message)
	c.hadError = true
}

func (c *Compiler) check(t token.Type) bool { return c.current.Type == t }

func (c *Compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.Type, message string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.current, message) }
func (c *Compiler) errorAtPrevious(message string) { c.errorAt(c.previous, message) }

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	where := "'" + tok.Lexeme + "'"
	if tok.Type == token.EOF {
		where = "end"
	}
	c.errors.Add(tok.Line, where, message)
	c.hadError = true
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != token.EOF {
		if c.previous.Type == token.SEMICOLON {
			return
		}
		switch c.current.Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- bytecode emission --------------------------------------------------

func (c *Compiler) emitByte(b byte) { c.currentChunk().Write(b, c.previous.Line) }

func (c *Compiler) emitOp(op value.OpCode) { c.emitByte(byte(op)) }

func (c *Compiler) emitBytes(b1, b2 byte) {
	c.emitByte(b1)
	c.emitByte(b2)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(value.OpLoop)
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.errorAtPrevious("Loop body too large.")
	}
	c.emitByte(byte((offset >> 8) & 0xff))
	c.emitByte(byte(offset & 0xff))
}

func (c *Compiler) emitJump(op value.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.currentChunk().Code) - offset - 2
	if jump > 0xffff {
		c.errorAtPrevious("Too much code to jump over.")
	}
	code := c.currentChunk().Code
	code[offset] = byte((jump >> 8) & 0xff)
	code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitReturn() {
	if c.cur.role == roleInitializer {
		c.emitBytes(byte(value.OpGetLocal), 0)
	} else {
		c.emitOp(value.OpNil)
	}
	c.emitOp(value.OpReturn)
}

func (c *Compiler) makeConstant(v value.Value) byte {
	idx := c.heap.AddConstant(c.currentChunk(), v)
	if idx > 255 {
		c.errorAtPrevious("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitBytes(byte(value.OpConstant), c.makeConstant(v))
}

func (c *Compiler) identifierConstant(tok token.Token) byte {
	return c.makeConstant(value.FromObj(c.heap.InternString(tok.Lexeme)))
}

// --- scopes and variables ------------------------------------------------

func (c *Compiler) beginScope() { c.cur.scopeDepth++ }

func (c *Compiler) endScope() {
	c.cur.scopeDepth--
	for c.cur.localCount > 0 && c.cur.locals[c.cur.localCount-1].depth > c.cur.scopeDepth {
		if c.cur.locals[c.cur.localCount-1].captured {
			c.emitOp(value.OpCloseUpvalue)
		} else {
			c.emitOp(value.OpPop)
		}
		c.cur.localCount--
	}
}

func (c *Compiler) addLocal(name token.Token) {
	if c.cur.localCount == maxLocals {
		c.errorAtPrevious("Too many local variables in function.")
		return
	}
	c.cur.locals[c.cur.localCount] = localVar{name: name, depth: -1}
	c.cur.localCount++
}

func (c *Compiler) declareVariable() {
	if c.cur.scopeDepth == 0 {
		return
	}
	name := c.previous
	for i := c.cur.localCount - 1; i >= 0; i-- {
		local := c.cur.locals[i]
		if local.depth != -1 && local.depth < c.cur.scopeDepth {
			break
		}
		if local.name.Lexeme == name.Lexeme {
			c.errorAtPrevious("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.IDENT, errMsg)
	c.declareVariable()
	if c.cur.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) markInitialized() {
	if c.cur.scopeDepth == 0 {
		return
	}
	c.cur.locals[c.cur.localCount-1].depth = c.cur.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.cur.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(byte(value.OpDefineGlobal), global)
}

func resolveLocal(fr *frame, c *Compiler, name token.Token) int {
	for i := fr.localCount - 1; i >= 0; i-- {
		local := fr.locals[i]
		if local.name.Lexeme == name.Lexeme {
			if local.depth == -1 {
				c.errorAtPrevious("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func addUpvalue(fr *frame, c *Compiler, index uint8, isLocal bool) int {
	count := fr.fn.UpvalueCount
	for i := 0; i < count; i++ {
		up := fr.upvalues[i]
		if int(up.index) == int(index) && up.isLocal == isLocal {
			return i
		}
	}
	if count == maxUpvalues {
		c.errorAtPrevious("Too many closure variables in function.")
		return 0
	}
	fr.upvalues[count] = upvalRef{index: index, isLocal: isLocal}
	fr.fn.UpvalueCount++
	return count
}

// resolveUpvalue walks outward from fr looking for name among the locals of
// an enclosing function. When found, the capture flag is set on the local
// in the enclosing frame that actually owns it — the recursive branch only
// ever forwards an already-resolved upvalue index, never a local slot.
func resolveUpvalue(fr *frame, c *Compiler, name token.Token) int {
	if fr.enclosing == nil {
		return -1
	}
	if local := resolveLocal(fr.enclosing, c, name); local != -1 {
		fr.enclosing.locals[local].captured = true
		return addUpvalue(fr, c, uint8(local), true)
	}
	if up := resolveUpvalue(fr.enclosing, c, name); up != -1 {
		return addUpvalue(fr, c, uint8(up), false)
	}
	return -1
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp value.OpCode
	arg := resolveLocal(c.cur, c, name)
	if arg != -1 {
		getOp, setOp = value.OpGetLocal, value.OpSetLocal
	} else if arg = resolveUpvalue(c.cur, c, name); arg != -1 {
		getOp, setOp = value.OpGetUpvalue, value.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = value.OpGetGlobal, value.OpSetGlobal
	}

	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitBytes(byte(setOp), byte(arg))
	} else {
		c.emitBytes(byte(getOp), byte(arg))
	}
}

// --- Pratt expression parsing -------------------------------------------

func (c *Compiler) parsePrecedence(p Precedence) {
	c.advance()
	prefixRule := getRule(c.previous.Type).prefix
	if prefixRule == nil {
		c.errorAtPrevious("Expect expression.")
		return
	}
	canAssign := p <= PrecAssignment
	prefixRule(c, canAssign)

	for p <= getRule(c.current.Type).precedence {
		c.advance()
		infixRule := getRule(c.previous.Type).infix
		infixRule(c, canAssign)
	}

	if canAssign && c.match(token.EQ) {
		c.errorAtPrevious("Invalid assignment target.")
	}
}

func (c *Compiler) expression() { c.parsePrecedence(PrecAssignment) }

func (c *Compiler) number(canAssign bool) {
	n, _ := strconv.ParseFloat(c.previous.Lexeme, 64)
	c.emitConstant(value.Number(n))
}

func (c *Compiler) string(canAssign bool) {
	lex := c.previous.Lexeme
	s := lex[1 : len(lex)-1]
	c.emitConstant(value.FromObj(c.heap.InternString(s)))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Type {
	case token.FALSE:
		c.emitOp(value.OpFalse)
	case token.NIL:
		c.emitOp(value.OpNil)
	case token.TRUE:
		c.emitOp(value.OpTrue)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch opType {
	case token.BANG:
		c.emitOp(value.OpNot)
	case token.MINUS:
		c.emitOp(value.OpNegate)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.previous.Type
	r := getRule(opType)
	c.parsePrecedence(r.precedence + 1)

	switch opType {
	case token.BANG_EQ:
		c.emitOp(value.OpEqual)
		c.emitOp(value.OpNot)
	case token.EQ_EQ:
		c.emitOp(value.OpEqual)
	case token.GT:
		c.emitOp(value.OpGreater)
	case token.GT_EQ:
		c.emitOp(value.OpLess)
		c.emitOp(value.OpNot)
	case token.LT:
		c.emitOp(value.OpLess)
	case token.LT_EQ:
		c.emitOp(value.OpGreater)
		c.emitOp(value.OpNot)
	case token.PLUS:
		c.emitOp(value.OpAdd)
	case token.MINUS:
		c.emitOp(value.OpSubtract)
	case token.STAR:
		c.emitOp(value.OpMultiply)
	case token.SLASH:
		c.emitOp(value.OpDivide)
	}
}

func (c *Compiler) and(canAssign bool) {
	endJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOp(value.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(canAssign bool) {
	elseJump := c.emitJump(value.OpJumpIfFalse)
	endJump := c.emitJump(value.OpJump)
	c.patchJump(elseJump)
	c.emitOp(value.OpPop)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argc := c.argumentList()
	c.emitBytes(byte(value.OpCall), argc)
}

func (c *Compiler) argumentList() byte {
	var argc int
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if argc == maxArgs {
				c.errorAtPrevious("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(argc)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(token.IDENT, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous)

	switch {
	case canAssign && c.match(token.EQ):
		c.expression()
		c.emitBytes(byte(value.OpSetProperty), name)
	case c.match(token.LPAREN):
		argc := c.argumentList()
		c.emitBytes(byte(value.OpInvoke), name)
		c.emitByte(argc)
	default:
		c.emitBytes(byte(value.OpGetProperty), name)
	}
}

func (c *Compiler) variable(canAssign bool) { c.namedVariable(c.previous, canAssign) }

var syntheticThis = token.Token{Type: token.IDENT, Lexeme: "this"}
var syntheticSuper = token.Token{Type: token.IDENT, Lexeme: "super"}

func (c *Compiler) this(canAssign bool) {
	if c.class == nil {
		c.errorAtPrevious("Can't use 'this' outside of a class.")
		return
	}
	c.namedVariable(syntheticThis, false)
}

func (c *Compiler) super(canAssign bool) {
	switch {
	case c.class == nil:
		c.errorAtPrevious("Can't use 'super' outside of a class.")
	case !c.class.hasSuperclass:
		c.errorAtPrevious("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENT, "Expect superclass method name.")
	name := c.identifierConstant(c.previous)

	c.namedVariable(syntheticThis, false)
	if c.match(token.LPAREN) {
		argc := c.argumentList()
		c.namedVariable(syntheticSuper, false)
		c.emitBytes(byte(value.OpSuperInvoke), name)
		c.emitByte(argc)
	} else {
		c.namedVariable(syntheticSuper, false)
		c.emitBytes(byte(value.OpGetSuper), name)
	}
}

// --- statements ----------------------------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(value.OpNil)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(value.OpPop)
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(value.OpPrint)
}

func (c *Compiler) returnStatement() {
	if c.cur.role == roleScript {
		c.errorAtPrevious("Can't return from top-level code.")
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	if c.cur.role == roleInitializer {
		c.errorAtPrevious("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOp(value.OpReturn)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOp(value.OpPop)
	c.statement()

	elseJump := c.emitJump(value.OpJump)
	c.patchJump(thenJump)
	c.emitOp(value.OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.currentChunk().Code)
	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(value.OpJumpIfFalse)
	c.emitOp(value.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(value.OpPop)
}

// forStatement desugars a C-style for loop into a while loop built from its
// parts. Regardless of which clauses are omitted, the only values ever left
// on the stack between statements are popped by the loop condition
// (OP_JUMP_IF_FALSE + OP_POP) and, when present, the increment expression
// statement's own OP_POP — every path preserves a net zero stack effect per
// iteration.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.currentChunk().Code)
	exitJump := -1
	if !c.check(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(value.OpJumpIfFalse)
		c.emitOp(value.OpPop)
	} else {
		c.advance() // consume the ';'
	}

	if !c.check(token.RPAREN) {
		bodyJump := c.emitJump(value.OpJump)
		incrStart := len(c.currentChunk().Code)
		c.expression()
		c.emitOp(value.OpPop)
		c.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrStart
		c.patchJump(bodyJump)
	} else {
		c.consume(token.RPAREN, "Expect ')' after for clauses.")
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(value.OpPop)
	}
	c.endScope()
}

// --- declarations ----------------------------------------------------------

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(roleFunction)
	c.defineVariable(global)
}

func (c *Compiler) function(r role) {
	c.pushFrame(r, c.previous.Lexeme)
	c.beginScope()

	c.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.check(token.RPAREN) {
		for {
			if c.cur.fn.Arity == maxParams {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			c.cur.fn.Arity++
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")
	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()

	upvalues := c.cur.upvalues
	upvalueCount := c.cur.fn.UpvalueCount
	fn := c.endFrame()

	c.emitBytes(byte(value.OpClosure), c.makeConstant(value.FromObj(fn)))
	for i := 0; i < upvalueCount; i++ {
		isLocal := byte(0)
		if upvalues[i].isLocal {
			isLocal = 1
		}
		c.emitByte(isLocal)
		c.emitByte(upvalues[i].index)
	}
}

func (c *Compiler) method() {
	c.consume(token.IDENT, "Expect method name.")
	name := c.previous.Lexeme
	constant := c.identifierConstant(c.previous)

	r := roleMethod
	if name == "init" {
		r = roleInitializer
	}
	c.function(r)
	c.emitBytes(byte(value.OpMethod), constant)
}

func (c *Compiler) classDeclaration() {
	c.consume(token.IDENT, "Expect class name.")
	nameTok := c.previous
	nameConstant := c.identifierConstant(nameTok)
	c.declareVariable()

	c.emitBytes(byte(value.OpClass), nameConstant)
	c.defineVariable(nameConstant)

	c.class = &classScope{enclosing: c.class}

	if c.match(token.LT) {
		c.consume(token.IDENT, "Expect superclass name.")
		c.variable(false)
		if c.previous.Lexeme == nameTok.Lexeme {
			c.errorAtPrevious("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal(token.Token{Type: token.IDENT, Lexeme: "super"})
		c.defineVariable(0)

		c.namedVariable(nameTok, false)
		c.emitOp(value.OpInherit)
		c.class.hasSuperclass = true
	}

	c.namedVariable(nameTok, false)
	c.consume(token.LBRACE, "Expect '{' before class body.")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "Expect '}' after class body.")
	c.emitOp(value.OpPop)

	if c.class.hasSuperclass {
		c.endScope()
	}
	c.class = c.class.enclosing
}
