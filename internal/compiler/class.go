package compiler

import (
	"buzz/internal/lexer"
	"buzz/pkg/types"
	"buzz/pkg/value"
	"buzz/pkg/vm"
)

// classDecl parses both declaration forms this compiler understands:
//
//	object Name { <type> field = <literal>; ... <type> method() { ... } ... }
//	class Name ( '<' Super )? { ... }
//
// `object` additionally auto-instantiates a singleton bound directly to
// Name, so `Name.field` works without an explicit constructor call —
// `class` instead binds Name to the class itself, requiring `Name()` to
// produce an instance (§8 concrete scenarios 2 and 3 respectively).
func (c *Compiler) classDecl() {
	isSingleton := c.match(lexer.TokObject)
	if !isSingleton {
		c.consume(lexer.TokClass, "expected 'object' or 'class'")
	}
	name := c.consume(lexer.TokIdent, "expected type name").Text

	var super *classInfo
	if c.match(lexer.TokLess) {
		superName := c.consume(lexer.TokIdent, "expected superclass name").Text
		info, ok := c.classes[superName]
		if !ok {
			c.errorAt(c.prev, "unknown superclass "+superName)
			return
		}
		super = info
	}

	var superDef *types.TypeDef
	var superObj *value.Obj
	if super != nil {
		superDef = super.def
		superObj = super.obj
	}
	def := c.registry.NewObject(name, superDef, false)

	classObj := &value.Obj{}
	classObj.Kind = value.KindObject
	classObj.ObjName = name
	classObj.ObjSuper = superObj
	classObj.ObjDef = def
	classObj.Methods = make(map[string]*value.Obj)
	classObj.StaticFlds = make(map[string]value.Value) // doubles as this class's field-default table

	info := &classInfo{obj: classObj, def: def, isSingleton: isSingleton}
	c.classes[name] = info

	savedClass := c.curClass
	c.curClass = info

	c.consume(lexer.TokLBrace, "expected '{' to open "+name)
	for !c.check(lexer.TokRBrace) && !c.check(lexer.TokEOF) {
		c.member(classObj, def)
	}
	c.consume(lexer.TokRBrace, "expected '}' to close "+name)

	c.curClass = savedClass

	if pending, ok := c.forwardTypes[name]; ok {
		if err := c.registry.Resolve(pending, def); err != nil {
			c.errorAt(c.prev, err.Error())
		}
		delete(c.forwardTypes, name)
	}

	if isSingleton {
		inst := value.NewObjectInstance(classObj)
		for fieldName, v := range classObj.StaticFlds {
			value.SetField(inst, c.heap.Intern(fieldName), v)
		}
		idx := c.makeConstant(value.FromObj(inst))
		c.emitBytes(byte(vm.OpConstant), idx)
		c.defineVariable(name)
		return
	}

	idx := c.makeConstant(value.FromObj(classObj))
	c.emitBytes(byte(vm.OpConstant), idx)
	c.defineVariable(name)
}

// member parses one field or method declaration inside an object/class
// body. Both start the same way (a type name followed by an
// identifier); the token after the identifier disambiguates them.
func (c *Compiler) member(classObj *value.Obj, def *types.TypeDef) {
	c.typeNameLoose() // field/return type; not tracked as a placeholder inside member position
	name := c.consume(lexer.TokIdent, "expected field or method name").Text

	if c.check(lexer.TokLParen) {
		fn := c.function(name, true)
		classObj.Methods[name] = fn
		def.ObjectDef.Methods[name] = nil
		return
	}

	c.consume(lexer.TokEqual, "expected '=' after field name")
	v := c.constantExpression()
	c.consume(lexer.TokSemicolon, "expected ';' after field default")
	classObj.StaticFlds[name] = v
	def.ObjectDef.Fields[name] = nil
}

// typeNameLoose consumes a type-name token in field/method-return
// position without creating a placeholder: these annotations are not
// forward-referenceable in this grammar, only a function's return type
// is (§8 scenario 2).
func (c *Compiler) typeNameLoose() {
	c.consume(lexer.TokIdent, "expected type name")
}

// constantExpression evaluates a literal expression at compile time,
// for field default values (§4.6 "ObjectInstance fields" are populated
// from such defaults at instantiation). Only literals are supported:
// this compiler does not defer field initialization to a constructor.
func (c *Compiler) constantExpression() value.Value {
	switch {
	case c.match(lexer.TokNumber):
		return numberValue(c.prev.Text)
	case c.match(lexer.TokString):
		return value.FromObj(c.heap.Intern(c.prev.Text))
	case c.match(lexer.TokTrue):
		return value.Bool(true)
	case c.match(lexer.TokFalse):
		return value.Bool(false)
	case c.match(lexer.TokNull):
		return value.Null
	default:
		c.errorAt(c.cur, "expected a literal field default")
		return value.Null
	}
}
