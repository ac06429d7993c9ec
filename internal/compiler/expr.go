package compiler

import (
	"strconv"

	"buzz/internal/lexer"
	"buzz/pkg/value"
	"buzz/pkg/vm"
)

// expression parses a full expression at assignment precedence. Only
// the leftmost operand of the chain below is ever allowed to consume a
// trailing '=': each binary-operator loop hands its right-hand operand
// canAssign=false, so "1 + x = 2" correctly fails to parse as an
// assignment.
func (c *Compiler) expression() { c.equality(true) }

func (c *Compiler) equality(canAssign bool) {
	c.comparison(canAssign)
	for {
		switch {
		case c.match(lexer.TokEqualEqual):
			c.comparison(false)
			c.emit(byte(vm.OpEqual))
		case c.match(lexer.TokBangEqual):
			c.comparison(false)
			c.emit(byte(vm.OpEqual))
			c.emit(byte(vm.OpNot))
		default:
			return
		}
	}
}

func (c *Compiler) comparison(canAssign bool) {
	c.term(canAssign)
	for {
		switch {
		case c.match(lexer.TokLess):
			c.term(false)
			c.emit(byte(vm.OpLess))
		case c.match(lexer.TokGreater):
			c.term(false)
			c.emit(byte(vm.OpGreater))
		case c.match(lexer.TokLessEqual):
			c.term(false)
			c.emit(byte(vm.OpGreater))
			c.emit(byte(vm.OpNot))
		case c.match(lexer.TokGreaterEqual):
			c.term(false)
			c.emit(byte(vm.OpLess))
			c.emit(byte(vm.OpNot))
		default:
			return
		}
	}
}

func (c *Compiler) term(canAssign bool) {
	c.factor(canAssign)
	for {
		switch {
		case c.match(lexer.TokPlus):
			c.factor(false)
			c.emit(byte(vm.OpAdd))
		case c.match(lexer.TokMinus):
			c.factor(false)
			c.emit(byte(vm.OpSubtract))
		default:
			return
		}
	}
}

func (c *Compiler) factor(canAssign bool) {
	c.unary(canAssign)
	for {
		switch {
		case c.match(lexer.TokStar):
			c.unary(false)
			c.emit(byte(vm.OpMultiply))
		case c.match(lexer.TokSlash):
			c.unary(false)
			c.emit(byte(vm.OpDivide))
		default:
			return
		}
	}
}

func (c *Compiler) unary(canAssign bool) {
	switch {
	case c.match(lexer.TokMinus):
		c.unary(false)
		c.emit(byte(vm.OpNegate))
	case c.match(lexer.TokBang):
		c.unary(false)
		c.emit(byte(vm.OpNot))
	case c.match(lexer.TokAmp):
		c.unary(false)
		c.emit(byte(vm.OpFiber))
	default:
		c.call(canAssign)
	}
}

// call parses a primary expression followed by any number of `(args)`
// call and `.name` member-access suffixes, in source order: `a.b(1).c`
// invokes b on a, then reads field c off the result.
func (c *Compiler) call(canAssign bool) {
	c.primary(canAssign)
	for {
		switch {
		case c.match(lexer.TokLParen):
			argc := c.argumentList()
			c.emitBytes(byte(vm.OpCall), byte(argc))
		case c.match(lexer.TokDot):
			name := c.consume(lexer.TokIdent, "expected property name after '.'").Text
			idx := c.identifierConstant(name)
			switch {
			case c.match(lexer.TokLParen):
				argc := c.argumentList()
				c.emitBytes(byte(vm.OpInvoke), idx, byte(argc))
			case canAssign && c.match(lexer.TokEqual):
				c.expression()
				c.emitBytes(byte(vm.OpSetField), idx)
			default:
				c.emitBytes(byte(vm.OpGetField), idx)
			}
		case c.match(lexer.TokLBracket):
			c.expression()
			c.consume(lexer.TokRBracket, "expected ']' after subscript index")
			if canAssign && c.match(lexer.TokEqual) {
				c.expression()
				c.emit(byte(vm.OpIndexSet))
			} else {
				c.emit(byte(vm.OpIndexGet))
			}
		default:
			return
		}
	}
}

func (c *Compiler) argumentList() int {
	argc := 0
	if !c.check(lexer.TokRParen) {
		for {
			c.expression()
			argc++
			if !c.match(lexer.TokComma) {
				break
			}
		}
	}
	c.consume(lexer.TokRParen, "expected ')' after arguments")
	return argc
}

func (c *Compiler) primary(canAssign bool) {
	switch {
	case c.match(lexer.TokNumber):
		idx := c.makeConstant(numberValue(c.prev.Text))
		c.emitBytes(byte(vm.OpConstant), idx)
	case c.match(lexer.TokString):
		idx := c.makeConstant(value.FromObj(c.heap.Intern(c.prev.Text)))
		c.emitBytes(byte(vm.OpConstant), idx)
	case c.match(lexer.TokTrue):
		c.emit(byte(vm.OpTrue))
	case c.match(lexer.TokFalse):
		c.emit(byte(vm.OpFalse))
	case c.match(lexer.TokNull):
		c.emit(byte(vm.OpNull))
	case c.match(lexer.TokPattern):
		idx := c.makeConstant(value.FromObj(value.NewPattern(c.prev.Text)))
		c.emitBytes(byte(vm.OpConstant), idx)
	case c.match(lexer.TokIdent):
		c.namedVariable(c.prev.Text, canAssign)
	case c.match(lexer.TokSuper):
		c.super_()
	case c.match(lexer.TokLParen):
		c.expression()
		c.consume(lexer.TokRParen, "expected ')' after expression")
	case c.match(lexer.TokLBracket):
		c.listLiteral()
	case c.match(lexer.TokLBrace):
		c.mapLiteral()
	default:
		c.errorAt(c.cur, "expected an expression")
		c.advance()
	}
}

// listLiteral parses `[expr, expr, ...]`, pushing each element left to
// right and letting OpNewList collect the trailing n stack slots into a
// fresh KindList (§4.5).
func (c *Compiler) listLiteral() {
	n := 0
	if !c.check(lexer.TokRBracket) {
		for {
			c.expression()
			n++
			if !c.match(lexer.TokComma) {
				break
			}
		}
	}
	c.consume(lexer.TokRBracket, "expected ']' after list literal")
	c.emitBytes(byte(vm.OpNewList), byte(n))
}

// mapLiteral parses `{key: value, ...}`, pushing each key then value and
// letting OpNewMap collect the trailing 2n stack slots into a fresh
// KindMap (§4.5). This is unambiguous with a block's `{` because blocks
// only ever appear in statement position, never where an expression is
// expected.
func (c *Compiler) mapLiteral() {
	n := 0
	if !c.check(lexer.TokRBrace) {
		for {
			c.expression()
			c.consume(lexer.TokColon, "expected ':' after map key")
			c.expression()
			n++
			if !c.match(lexer.TokComma) {
				break
			}
		}
	}
	c.consume(lexer.TokRBrace, "expected '}' after map literal")
	c.emitBytes(byte(vm.OpNewMap), byte(n))
}

// super_ parses `super.name` or `super.name(args)` inside a method body,
// per §4.6's super-chain dispatch. `this` (always local slot 0 inside a
// method, per function()'s isMethod handling) is pushed as the receiver;
// the enclosing class's immediate superclass is embedded as a constant
// so OpGetSuper/OpInvokeSuper can walk the chain from there rather than
// from the receiver's dynamic class (which would just find the override
// again).
func (c *Compiler) super_() {
	if c.curClass == nil || c.curClass.obj.ObjSuper == nil {
		c.errorAt(c.prev, "'super' is only valid inside a method of a class with a superclass")
		return
	}
	c.consume(lexer.TokDot, "expected '.' after 'super'")
	name := c.consume(lexer.TokIdent, "expected superclass method name").Text
	nameIdx := c.identifierConstant(name)
	superIdx := c.makeConstant(value.FromObj(c.curClass.obj.ObjSuper))

	slot, ok := c.resolveLocal("this")
	if !ok {
		c.errorAt(c.prev, "'super' used outside a method body")
		return
	}
	c.emitBytes(byte(vm.OpGetLocal), byte(slot))

	if c.match(lexer.TokLParen) {
		argc := c.argumentList()
		c.emitBytes(byte(vm.OpInvokeSuper), nameIdx, byte(argc), superIdx)
	} else {
		c.emitBytes(byte(vm.OpGetSuper), nameIdx, superIdx)
	}
}

// numberValue parses a lexed numeric literal into an Int value, falling
// back to Float only when the text actually has a fractional part —
// the lexer only emits digits and at most one '.', so the ParseInt
// attempt is the fast, common path.
func numberValue(text string) value.Value {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return value.Int(i)
	}
	f, _ := strconv.ParseFloat(text, 64)
	return value.Float(f)
}
