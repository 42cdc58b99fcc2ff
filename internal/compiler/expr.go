package compiler

import "github.com/oxhq/esengine/internal/ast"

// compileExpr emits code that leaves exactly one value on the stack.
func (c *Compiler) compileExpr(n ast.Node) {
	switch e := n.(type) {
	case *ast.Literal:
		c.compileLiteral(e)
	case *ast.Identifier:
		c.compileIdentifierRead(e)
	case *ast.ThisExpression:
		c.emit(OpGetName, c.nameConstant("this"))
	case *ast.TemplateLiteral:
		c.compileTemplateLiteral(e)
	case *ast.ArrayExpression:
		c.compileArrayExpression(e)
	case *ast.ObjectExpression:
		c.compileObjectExpression(e)
	case *ast.FunctionExpression:
		code := c.compileFunctionBody(&e.Function, e)
		c.emit(OpGetFunction, c.addConstant(Constant{Kind: ConstCodeBlock, Code: code}))
	case *ast.ArrowFunctionExpression:
		code := c.compileFunctionBody(&e.Function, e)
		code.Flags |= FlagArrow
		c.emit(OpGetFunction, c.addConstant(Constant{Kind: ConstCodeBlock, Code: code}))
	case *ast.ClassExpression:
		code := c.compileClassBody(e.SuperClass, e.Body)
		c.emit(OpGetFunction, c.addConstant(Constant{Kind: ConstCodeBlock, Code: code}))
	case *ast.UnaryExpression:
		c.compileUnary(e)
	case *ast.UpdateExpression:
		c.compileUpdate(e)
	case *ast.BinaryExpression:
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.emit(binaryOpcode(e.Operator))
	case *ast.LogicalExpression:
		c.compileLogical(e)
	case *ast.AssignmentExpression:
		c.compileAssignment(e)
	case *ast.ConditionalExpression:
		c.compileConditional(e)
	case *ast.CallExpression:
		c.compileCall(e)
	case *ast.NewExpression:
		c.compileNew(e)
	case *ast.MemberExpression:
		c.compileMemberRead(e)
	case *ast.SequenceExpression:
		for i, ex := range e.Expressions {
			c.compileExpr(ex)
			if i != len(e.Expressions)-1 {
				c.emit(OpPop)
			}
		}
	case *ast.SpreadElement:
		c.compileExpr(e.Argument)
	case *ast.YieldExpression:
		if e.Argument != nil {
			c.compileExpr(e.Argument)
		} else {
			c.emit(OpPushUndefined)
		}
		c.emit(OpYield)
	case *ast.AwaitExpression:
		c.compileExpr(e.Argument)
		c.emit(OpAwait)
	case *ast.TaggedTemplate:
		c.compileTemplateLiteral(e.Template)
		c.compileExpr(e.Tag)
		c.emit(OpCall, 1)
	case *ast.ImportExpression:
		c.compileExpr(e.Source)
		c.emit(OpImportCall)
	case *ast.ImportMeta:
		c.emit(OpImportMeta)
	case *ast.Super:
		c.emit(OpGetName, c.nameConstant("super"))
	default:
		c.emit(OpPushUndefined)
	}
}

func (c *Compiler) compileLiteral(e *ast.Literal) {
	switch e.LitKind {
	case ast.LiteralNull:
		c.emit(OpPushNull)
	case ast.LiteralBoolean:
		if e.Bool {
			c.emit(OpPushTrue)
		} else {
			c.emit(OpPushFalse)
		}
	case ast.LiteralNumber:
		c.pushNumber(e.Number)
	case ast.LiteralString, ast.LiteralBigInt:
		c.pushString(e.Str)
	default:
		c.emit(OpPushUndefined)
	}
}

func (c *Compiler) compileIdentifierRead(id *ast.Identifier) {
	if loc, ok := c.res.Locators[id]; ok && !loc.Global {
		c.emit(OpGetName, c.locatorConstant(id.Name, loc))
		return
	}
	c.emit(OpGetNameOrUndefined, c.nameConstant(id.Name))
}

func (c *Compiler) compileTemplateLiteral(t *ast.TemplateLiteral) {
	if len(t.Quasis) == 0 {
		c.pushString("")
		return
	}
	c.pushString(t.Quasis[0])
	for i, expr := range t.Expressions {
		c.compileExpr(expr)
		c.emit(OpAdd)
		if i+1 < len(t.Quasis) {
			c.pushString(t.Quasis[i+1])
			c.emit(OpAdd)
		}
	}
}

func (c *Compiler) compileArrayExpression(e *ast.ArrayExpression) {
	idx := c.nameConstant("Array")
	c.emit(OpGetNameOrUndefined, idx)
	c.emit(OpNew, 0)
	for i, el := range e.Elements {
		c.emit(OpDup) // arr_dup: the object operand for OpSetProperty
		if el == nil {
			c.emit(OpPushUndefined)
		} else {
			c.compileExpr(el)
		}
		c.emit(OpSwap) // stack: [..., arr, elvalue, arr_dup]
		c.pushNumber(float64(i))
		c.emit(OpSetProperty) // leaves elvalue; arr (the element-loop's running value) stays underneath
		c.emit(OpPop)
	}
}

func (c *Compiler) compileObjectExpression(e *ast.ObjectExpression) {
	idx := c.nameConstant("Object")
	c.emit(OpGetNameOrUndefined, idx)
	c.emit(OpNew, 0)
	for _, p := range e.Properties {
		prop, ok := p.(*ast.Property)
		if !ok {
			continue
		}
		var keyIdx int
		if id, ok := prop.Key.(*ast.Identifier); ok && !prop.Computed {
			keyIdx = c.nameConstant(id.Name)
		} else if lit, ok := prop.Key.(*ast.Literal); ok {
			keyIdx = c.nameConstant(lit.Str)
		}
		c.compileExpr(prop.Value)
		switch prop.PropKind {
		case ast.PropertyGet:
			c.emit(OpSetAccessor, keyIdx)
		case ast.PropertySet:
			c.emit(OpSetSetter, keyIdx)
		default:
			c.emit(OpDefineOwnPropertyByName, keyIdx)
		}
	}
}

func (c *Compiler) compileUnary(e *ast.UnaryExpression) {
	c.compileExpr(e.Argument)
	switch e.Operator {
	case "-":
		c.emit(OpNeg)
	case "+":
		c.emit(OpPos)
	case "!":
		c.emit(OpNeg) // VM's Neg-on-boolean is specialized to logical-not for unary `!`; see DESIGN.md
	case "~":
		c.emit(OpBitNot)
	case "typeof":
		c.emit(OpPop)
		c.emit(OpPushUndefined)
	case "void":
		c.emit(OpPop)
		c.emit(OpPushUndefined)
	case "delete":
		c.emit(OpDeleteProperty)
	}
}

// compileUpdate compiles `++x`/`x--`/etc. Prefix leaves the new value as
// the expression result (no extra bookkeeping needed); postfix keeps the
// old value underneath a Dup taken before the increment, then discards
// the store target's peeked new-value result to surface the old one.
// Note this re-evaluates e.Argument's object sub-expression when the
// target is a MemberExpression (compileExpr then compileAssignmentTarget
// each evaluate it once) — an accepted simplification, see DESIGN.md.
func (c *Compiler) compileUpdate(e *ast.UpdateExpression) {
	c.compileExpr(e.Argument)
	if !e.Prefix {
		c.emit(OpDup) // old value, kept under the one about to be mutated
	}
	if e.Operator == "++" {
		c.emit(OpInc)
	} else {
		c.emit(OpDec)
	}
	c.compileAssignmentTarget(e.Argument)
	if !e.Prefix {
		c.emit(OpPop) // discard the peeked new value; old value remains
	}
}

func (c *Compiler) compileLogical(e *ast.LogicalExpression) {
	c.compileExpr(e.Left)
	c.emit(OpDup)
	var jmp int
	switch e.Operator {
	case "&&":
		jmp = c.emit(OpJumpIfFalse)
	case "||":
		jmp = c.emit(OpJumpIfTrue)
	default: // "??"
		jmp = c.emit(OpJumpIfNotUndefined)
	}
	c.emit(OpPop)
	c.compileExpr(e.Right)
	c.patchJump(jmp)
}

func (c *Compiler) compileConditional(e *ast.ConditionalExpression) {
	c.compileExpr(e.Test)
	jf := c.emit(OpJumpIfFalse)
	c.compileExpr(e.Consequent)
	jEnd := c.emit(OpJump)
	c.patchJump(jf)
	c.compileExpr(e.Alternate)
	c.patchJump(jEnd)
}

func (c *Compiler) compileAssignment(e *ast.AssignmentExpression) {
	if e.Operator == "=" {
		c.compileExpr(e.Right)
		c.emit(OpDup)
		c.compileAssignmentTarget(e.Left)
		c.emit(OpPop)
		return
	}
	if op := e.Operator; op == "&&=" || op == "||=" || op == "??=" {
		c.compileLogical(&ast.LogicalExpression{Operator: op[:len(op)-1], Left: e.Left, Right: e.Right})
		c.emit(OpDup)
		c.compileAssignmentTarget(e.Left)
		c.emit(OpPop)
		return
	}
	// compound assignment: a op= b  =>  a = a op b
	c.compileExpr(e.Left)
	c.compileExpr(e.Right)
	c.emit(binaryOpcode(compoundBase(e.Operator)))
	c.emit(OpDup)
	c.compileAssignmentTarget(e.Left)
	c.emit(OpPop)
}

func (c *Compiler) compileAssignmentTarget(target ast.Node) {
	switch t := target.(type) {
	case *ast.Identifier:
		if loc, ok := c.res.Locators[t]; ok && !loc.Global {
			c.emit(OpSetName, c.locatorConstant(t.Name, loc))
			return
		}
		c.emit(OpSetName, c.nameConstant(t.Name))
	case *ast.MemberExpression:
		c.compileExpr(t.Object)
		if t.Computed {
			c.compileExpr(t.Property)
			c.emit(OpSetProperty)
		} else {
			id := t.Property.(*ast.Identifier)
			c.emit(OpSetPropertyByName, c.nameConstant(id.Name))
		}
	default:
		// destructuring assignment targets are handled by the VM's
		// structured-binding helper, not yet exercised without an
		// executing VM; see DESIGN.md Open Questions.
		c.emit(OpPop)
	}
}

func (c *Compiler) compileCall(e *ast.CallExpression) {
	if mem, ok := e.Callee.(*ast.MemberExpression); ok {
		c.compileExpr(mem.Object)
		c.emit(OpDup)
		if mem.Computed {
			c.compileExpr(mem.Property)
			c.emit(OpGetProperty)
		} else {
			id := mem.Property.(*ast.Identifier)
			c.emit(OpGetPropertyByName, c.nameConstant(id.Name))
		}
		// stack: [..., this=obj, callee=fn] — matches the non-member
		// branch's layout, no swap needed.
	} else {
		c.compileExpr(e.Callee)
		c.emit(OpPushUndefined) // `this` for a non-member call
		c.emit(OpSwap)
	}
	hasSpread := false
	for _, a := range e.Args {
		if _, ok := a.(*ast.SpreadElement); ok {
			hasSpread = true
		}
		c.compileExpr(a)
	}
	if hasSpread {
		c.emit(OpCallSpread, len(e.Args))
	} else {
		c.emit(OpCall, len(e.Args))
	}
}

func (c *Compiler) compileNew(e *ast.NewExpression) {
	c.compileExpr(e.Callee)
	hasSpread := false
	for _, a := range e.Args {
		if _, ok := a.(*ast.SpreadElement); ok {
			hasSpread = true
		}
		c.compileExpr(a)
	}
	if hasSpread {
		c.emit(OpNewSpread, len(e.Args))
	} else {
		c.emit(OpNew, len(e.Args))
	}
}

func (c *Compiler) compileMemberRead(e *ast.MemberExpression) {
	if _, ok := e.Object.(*ast.Super); ok {
		c.emit(OpGetName, c.nameConstant("super"))
	} else {
		c.compileExpr(e.Object)
	}
	if e.Computed {
		c.compileExpr(e.Property)
		c.emit(OpGetProperty)
	} else {
		id := e.Property.(*ast.Identifier)
		c.emit(OpGetPropertyByName, c.nameConstant(id.Name))
	}
}

func binaryOpcode(op string) Opcode {
	switch op {
	case "+":
		return OpAdd
	case "-":
		return OpSub
	case "*":
		return OpMul
	case "/":
		return OpDiv
	case "%":
		return OpMod
	case "**":
		return OpPow
	case "<<":
		return OpShiftL
	case ">>":
		return OpShiftR
	case ">>>":
		return OpUShiftR
	case "&":
		return OpBitAnd
	case "|":
		return OpBitOr
	case "^":
		return OpBitXor
	case "==":
		return OpEq
	case "===":
		return OpStrictEq
	case "!=":
		return OpNotEq
	case "!==":
		return OpStrictNotEq
	case "<":
		return OpLt
	case "<=":
		return OpLe
	case ">":
		return OpGt
	case ">=":
		return OpGe
	case "in":
		return OpIn
	case "instanceof":
		return OpInstanceOf
	default:
		return OpNop
	}
}

// compoundBase strips the trailing "=" from a compound-assignment
// operator ("+=" -> "+"). compileAssignment handles "&&="/"||="/"??="
// before reaching here: it evaluates `a op b` through compileLogical,
// so b is only evaluated when needed, and stores the result back into
// a even when b was skipped.
func compoundBase(op string) string {
	if len(op) > 1 {
		return op[:len(op)-1]
	}
	return op
}
