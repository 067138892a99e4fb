// Package jsclass builds object graphs from JavaScript class declarations.
//
// Top-level and exported class declarations are read with tree-sitter and
// turned into constructor and prototype objects the way an engine would
// create them at class evaluation time. Method bodies are never run; only a
// constructor that begins with a throw statement changes construction.
package jsclass

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/artpar/shapegen/domain/object"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// InstanceSuffix is appended to a class name to form its instance target.
const InstanceSuffix = "#instance"

var (
	// ErrSyntax is returned when the source does not parse.
	ErrSyntax = errors.New("javascript syntax error")

	// ErrDuplicateClass is returned when two top-level classes share a name.
	ErrDuplicateClass = errors.New("duplicate class")

	// ErrInheritanceCycle is returned for classes that extend each other.
	ErrInheritanceCycle = errors.New("inheritance cycle")
)

type memberKind uint8

const (
	memberMethod memberKind = iota
	memberGetter
	memberSetter
	memberField
)

type member struct {
	key    object.Key
	label  string
	static bool
	kind   memberKind
	length int
	value  literal
}

type field struct {
	key   object.Key
	value literal
}

type classDef struct {
	name       string
	extends    string
	line       int
	ctorLength int
	throws     *object.Exception
	members    []member
	fields     []field
}

// ParseFile reads and parses a JavaScript source file.
func ParseFile(ctx context.Context, path string) (*object.Graph, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return Parse(ctx, src)
}

// Parse builds a graph with one target per class, plus NAME#instance targets
// for classes whose construction succeeds.
func Parse(ctx context.Context, src []byte) (*object.Graph, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if bad := firstError(root); bad != nil {
			p := bad.StartPoint()
			return nil, fmt.Errorf("%w at line %d, column %d", ErrSyntax, p.Row+1, p.Column+1)
		}
		return nil, ErrSyntax
	}

	defs, err := extractClasses(root, src)
	if err != nil {
		return nil, err
	}
	return build(defs)
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

func extractClasses(root *sitter.Node, src []byte) ([]*classDef, error) {
	var defs []*classDef
	seen := make(map[string]int)

	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		if node.Type() == nodeExportStatement {
			node = node.ChildByFieldName("declaration")
			if node == nil {
				continue
			}
		}
		if node.Type() != nodeClassDeclaration {
			continue
		}

		def := extractClass(node, src)
		if def.name == "" {
			continue
		}
		if line, dup := seen[def.name]; dup {
			return nil, fmt.Errorf("%w: %s declared at lines %d and %d", ErrDuplicateClass, def.name, line, def.line)
		}
		seen[def.name] = def.line
		defs = append(defs, def)
	}
	return defs, nil
}

func extractClass(node *sitter.Node, src []byte) *classDef {
	def := &classDef{line: int(node.StartPoint().Row) + 1}
	if n := node.ChildByFieldName("name"); n != nil {
		def.name = n.Content(src)
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case nodeClassHeritage:
			def.extends = heritageName(child, src)
		case nodeClassBody:
			extractBody(def, child, src)
		}
	}
	return def
}

// heritageName returns the binding name of an extends clause. Member
// expressions resolve to their last property.
func heritageName(node *sitter.Node, src []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case nodeIdentifier:
			return child.Content(src)
		case nodeNull:
			return "null"
		case nodeMemberExpression:
			if p := child.ChildByFieldName("property"); p != nil {
				return p.Content(src)
			}
		}
	}
	return ""
}

func extractBody(def *classDef, body *sitter.Node, src []byte) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case nodeMethodDefinition:
			extractMethod(def, child, src)
		case nodeFieldDefinition:
			extractField(def, child, src)
		}
	}
}

func extractMethod(def *classDef, node *sitter.Node, src []byte) {
	m := member{kind: memberMethod}
	for i := 0; i < int(node.ChildCount()); i++ {
		switch node.Child(i).Type() {
		case keywordStatic:
			m.static = true
		case keywordGet:
			m.kind = memberGetter
		case keywordSet:
			m.kind = memberSetter
		}
	}

	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	params := node.ChildByFieldName("parameters")
	m.length = arity(params)

	if !m.static && m.kind == memberMethod && nameNode.Type() == nodePropertyIdent && nameNode.Content(src) == "constructor" {
		def.ctorLength = m.length
		if body := node.ChildByFieldName("body"); body != nil {
			def.throws = leadingThrow(body, src)
			def.fields = append(def.fields, thisAssignments(body, src)...)
		}
		return
	}

	key, label, ok := propertyKey(nameNode, src)
	if !ok {
		return
	}
	m.key = key
	switch m.kind {
	case memberGetter:
		m.label = "get " + label
	case memberSetter:
		m.label = "set " + label
	default:
		m.label = label
	}
	def.members = append(def.members, m)
}

func extractField(def *classDef, node *sitter.Node, src []byte) {
	static := false
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == keywordStatic {
			static = true
		}
	}

	nameNode := node.ChildByFieldName("property")
	if nameNode == nil {
		return
	}
	key, label, ok := propertyKey(nameNode, src)
	if !ok {
		return
	}

	value := literal{kind: litUndefined}
	if v := node.ChildByFieldName("value"); v != nil {
		value = parseLiteral(v, label, src)
	}

	if static {
		def.members = append(def.members, member{key: key, label: label, static: true, kind: memberField, value: value})
		return
	}
	def.fields = append(def.fields, field{key: key, value: value})
}

// propertyKey reads a member name. Private names and dynamic computed keys
// are not reflectable and report false.
func propertyKey(node *sitter.Node, src []byte) (object.Key, string, bool) {
	switch node.Type() {
	case nodePropertyIdent, nodeNumber:
		name := node.Content(src)
		return object.Name(name), name, true
	case nodeString:
		name := stringContent(node, src)
		return object.Name(name), name, true
	case nodePrivatePropIdent:
		return object.Key{}, "", false
	case nodeComputedProperty:
		if node.NamedChildCount() != 1 {
			return object.Key{}, "", false
		}
		inner := node.NamedChild(0)
		switch inner.Type() {
		case nodeString:
			name := stringContent(inner, src)
			return object.Name(name), name, true
		case nodeMemberExpression:
			if sym, ok := object.WellKnownSymbol(inner.Content(src)); ok {
				return object.SymbolKey(sym), "[" + sym.Description() + "]", true
			}
		}
	}
	return object.Key{}, "", false
}

// arity counts formal parameters up to the first default or rest parameter.
func arity(params *sitter.Node) int {
	if params == nil {
		return 0
	}
	n := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		switch params.NamedChild(i).Type() {
		case nodeComment:
			continue
		case nodeAssignmentPattern, nodeRestPattern:
			return n
		}
		n++
	}
	return n
}

// leadingThrow returns the exception thrown by the first statement of body,
// if that statement is a throw.
func leadingThrow(body *sitter.Node, src []byte) *object.Exception {
	stmt := firstStatement(body)
	if stmt == nil || stmt.Type() != nodeThrowStatement || stmt.NamedChildCount() == 0 {
		return nil
	}

	expr := stmt.NamedChild(0)
	switch expr.Type() {
	case nodeNewExpression:
		exc := &object.Exception{}
		if c := expr.ChildByFieldName("constructor"); c != nil {
			exc.Name = c.Content(src)
		}
		if args := expr.ChildByFieldName("arguments"); args != nil && args.NamedChildCount() > 0 {
			if arg := args.NamedChild(0); arg.Type() == nodeString || arg.Type() == nodeTemplateString {
				exc.Message = stringContent(arg, src)
			}
		}
		return exc
	case nodeString, nodeTemplateString:
		return &object.Exception{Message: stringContent(expr, src)}
	default:
		return &object.Exception{Message: expr.Content(src)}
	}
}

func firstStatement(block *sitter.Node) *sitter.Node {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		if child := block.NamedChild(i); child.Type() != nodeComment {
			return child
		}
	}
	return nil
}

// thisAssignments collects `this.name = value` statements at the top level
// of a constructor body.
func thisAssignments(body *sitter.Node, src []byte) []field {
	var fields []field
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() != nodeExpressionStmt || stmt.NamedChildCount() == 0 {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign.Type() != nodeAssignment {
			continue
		}
		left := assign.ChildByFieldName("left")
		if left == nil || left.Type() != nodeMemberExpression {
			continue
		}
		obj := left.ChildByFieldName("object")
		prop := left.ChildByFieldName("property")
		if obj == nil || prop == nil || obj.Type() != nodeThis || prop.Type() != nodePropertyIdent {
			continue
		}

		name := prop.Content(src)
		value := literal{kind: litUndefined}
		if right := assign.ChildByFieldName("right"); right != nil {
			value = parseLiteral(right, name, src)
		}
		fields = append(fields, field{key: object.Name(name), value: value})
	}
	return fields
}

// stringContent strips the quotes of a string or template literal.
func stringContent(node *sitter.Node, src []byte) string {
	text := node.Content(src)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

type literalKind uint8

const (
	litUndefined literalKind = iota
	litNull
	litBool
	litNumber
	litBigInt
	litString
	litArray
	litFunction
	litPromise
	litObject
)

// literal is a field initializer reduced to what reflection can observe.
type literal struct {
	kind   literalKind
	b      bool
	num    float64
	text   string
	length int
	elems  []literal
}

func parseLiteral(node *sitter.Node, name string, src []byte) literal {
	switch node.Type() {
	case nodeNull:
		return literal{kind: litNull}
	case nodeUndefined:
		return literal{kind: litUndefined}
	case nodeIdentifier:
		// Only the undefined binding is known without evaluation.
		return literal{kind: litUndefined}
	case nodeTrue:
		return literal{kind: litBool, b: true}
	case nodeFalse:
		return literal{kind: litBool}
	case nodeString, nodeTemplateString:
		return literal{kind: litString, text: stringContent(node, src)}
	case nodeNumber:
		return numberLiteral(node.Content(src), false)
	case nodeUnary:
		op := node.ChildByFieldName("operator")
		arg := node.ChildByFieldName("argument")
		if op != nil && arg != nil && arg.Type() == nodeNumber {
			switch op.Content(src) {
			case "-":
				return numberLiteral(arg.Content(src), true)
			case "+":
				return numberLiteral(arg.Content(src), false)
			}
		}
		return literal{kind: litUndefined}
	case nodeArray:
		lit := literal{kind: litArray}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			el := node.NamedChild(i)
			if el.Type() == nodeComment {
				continue
			}
			lit.elems = append(lit.elems, parseLiteral(el, "", src))
		}
		return lit
	case nodeArrowFunction, nodeFunction, nodeFunctionExpr, nodeGeneratorFunction:
		params := node.ChildByFieldName("parameters")
		length := arity(params)
		if params == nil && node.ChildByFieldName("parameter") != nil {
			length = 1
		}
		fnName := name
		if n := node.ChildByFieldName("name"); n != nil {
			fnName = n.Content(src)
		}
		return literal{kind: litFunction, text: fnName, length: length}
	case nodeNewExpression:
		if c := node.ChildByFieldName("constructor"); c != nil && c.Content(src) == "Promise" {
			return literal{kind: litPromise}
		}
		return literal{kind: litObject}
	case nodeCallExpression:
		if fn := node.ChildByFieldName("function"); fn != nil && strings.HasPrefix(fn.Content(src), "Promise.") {
			return literal{kind: litPromise}
		}
		return literal{kind: litUndefined}
	case nodeObject:
		return literal{kind: litObject}
	default:
		return literal{kind: litUndefined}
	}
}

func numberLiteral(text string, negate bool) literal {
	text = strings.ReplaceAll(text, "_", "")
	if strings.HasSuffix(text, "n") {
		digits := strings.TrimSuffix(text, "n")
		if negate {
			digits = "-" + digits
		}
		return literal{kind: litBigInt, text: digits}
	}

	var f float64
	if len(text) > 1 && text[0] == '0' && strings.ContainsAny(text[1:2], "xXoObB") {
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return literal{kind: litUndefined}
		}
		f = float64(n)
	} else {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return literal{kind: litUndefined}
		}
		f = v
	}
	if negate {
		f = -f
	}
	return literal{kind: litNumber, num: f}
}
