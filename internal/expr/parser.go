package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// denyNames lists identifiers that must never resolve, matched
// case-insensitively. Most would be harmless under the allow-list
// grammar alone, but rejecting them by name keeps the failure mode
// explicit when a definition file tries to reach host capabilities.
var denyNames = map[string]bool{
	"callable": true, "class": true, "classmethod": true, "compile": true,
	"del": true, "delattr": true, "dir": true, "eval": true, "exec": true,
	"execfile": true, "file": true, "filter": true, "getattr": true,
	"globals": true, "hasattr": true, "help": true, "id": true,
	"import": true, "input": true, "isinstance": true, "issubclass": true,
	"lambda": true, "locals": true, "object": true, "open": true,
	"print": true, "raw_input": true, "reload": true, "repr": true,
	"setattr": true, "type": true, "vars": true,
}

// structuralKeywords are statement or suspension constructs that can
// never appear in a report expression regardless of what they name.
var structuralKeywords = map[string]string{
	"lambda": "lambda expressions",
	"for":    "comprehensions and loops",
	"while":  "loops",
	"if":     "conditional statements",
	"else":   "conditional statements",
	"elif":   "conditional statements",
	"await":  "await expressions",
	"yield":  "yield expressions",
	"async":  "async constructs",
	"def":    "function definitions",
	"class":  "class definitions",
	"import": "imports",
	"from":   "imports",
	"return": "statements",
	"with":   "statements",
	"try":    "statements",
	"except": "statements",
	"raise":  "statements",
	"assert": "statements",
	"global": "statements",
	"del":    "statements",
	"pass":   "statements",
	"in":     "membership tests",
	"is":     "identity tests",
}

type parser struct {
	toks []token
	pos  int
}

// Parse lexes and parses a single expression, applying every static
// safety check. The returned tree contains only allow-listed node
// kinds; anything else has already been rejected.
func Parse(input string) (Node, error) {
	if strings.Contains(input, "__") {
		return nil, fmt.Errorf("%w: double underscore is not permitted", ErrSandbox)
	}

	toks, err := lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.kind != tokEOF {
		if tok.kind == tokOp && (tok.text == "=" || tok.text == ":=") {
			return nil, fmt.Errorf("%w: assignment is not an expression", ErrSandbox)
		}
		return nil, fmt.Errorf("%w: unexpected %q after expression", ErrSandbox, tok.text)
	}

	return node, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) acceptOp(ops ...string) (string, bool) {
	tok := p.peek()
	if tok.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if tok.text == op {
			p.advance()
			return op, true
		}
	}
	return "", false
}

func (p *parser) expectOp(op string) error {
	tok := p.peek()
	if tok.kind != tokOp || tok.text != op {
		return fmt.Errorf("%w: expected %q at offset %d", ErrSandbox, op, tok.pos)
	}
	p.advance()
	return nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptIdent("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.acceptIdent("and") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.acceptIdent("not") {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Op: "not", Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseArith()
	if err != nil {
		return nil, err
	}

	operands := []Node{left}
	var ops []string
	for {
		op, ok := p.acceptOp("==", "!=", "<=", ">=", "<", ">")
		if !ok {
			break
		}
		right, err := p.parseArith()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
		ops = append(ops, op)
	}

	if len(ops) == 0 {
		return left, nil
	}
	return &CompareNode{Operands: operands, Ops: ops}, nil
}

func (p *parser) parseArith() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("*", "/", "//", "%")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Node, error) {
	if op, ok := p.acceptOp("+", "-"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Op: op, Operand: operand}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	// right associative, exponent binds tighter than unary minus
	if _, ok := p.acceptOp("**"); ok {
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &BinaryNode{Op: "**", Left: base, Right: exp}, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.peek()

	switch tok.kind {
	case tokNumber:
		p.advance()
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed number %q", ErrSandbox, tok.text)
		}
		return &LiteralNode{Value: v, Pos: tok.pos}, nil

	case tokString:
		p.advance()
		return &LiteralNode{Value: tok.text, Pos: tok.pos}, nil

	case tokIdent:
		return p.parseName()

	case tokOp:
		if tok.text == "(" {
			p.advance()
			inner, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
		if tok.text == ":=" {
			return nil, fmt.Errorf("%w: assignment is not an expression", ErrSandbox)
		}
	}

	return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSandbox, tok.text, tok.pos)
}

func (p *parser) parseName() (Node, error) {
	tok := p.advance()
	name := tok.text
	lower := strings.ToLower(name)

	switch lower {
	case "true":
		return &LiteralNode{Value: true, Pos: tok.pos}, nil
	case "false":
		return &LiteralNode{Value: false, Pos: tok.pos}, nil
	case "none", "null":
		return &LiteralNode{Value: nil, Pos: tok.pos}, nil
	}

	if why, ok := structuralKeywords[lower]; ok {
		// structural denial comes first so `lambda` is reported as a
		// grammar violation rather than a bad name
		return nil, fmt.Errorf("%w: %s are not permitted", ErrSandbox, why)
	}
	if denyNames[lower] {
		return nil, fmt.Errorf("%w: name %q", ErrNameDenied, name)
	}

	if name == "math" {
		if err := p.expectOp("."); err != nil {
			return nil, fmt.Errorf("%w: name %q", ErrNameDenied, name)
		}
		attr := p.peek()
		if attr.kind != tokIdent {
			return nil, fmt.Errorf("%w: expected math function name at offset %d", ErrSandbox, attr.pos)
		}
		p.advance()
		if denyNames[strings.ToLower(attr.text)] {
			return nil, fmt.Errorf("%w: name %q", ErrNameDenied, attr.text)
		}
		if _, ok := p.acceptOp("("); ok {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &CallNode{Module: "math", Name: attr.text, Args: args, Pos: tok.pos}, nil
		}
		return &CallNode{Module: "math", Name: attr.text, Pos: tok.pos}, nil
	}

	if next := p.peek(); next.kind == tokOp && next.text == "." {
		return nil, fmt.Errorf("%w: attribute access on %q is not permitted", ErrSandbox, name)
	}

	if _, ok := p.acceptOp("("); ok {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &CallNode{Name: name, Args: args, Pos: tok.pos}, nil
	}

	return &NameNode{Name: name, Pos: tok.pos}, nil
}

// parseArgs parses a call argument list; the opening paren is already
// consumed.
func (p *parser) parseArgs() ([]Node, error) {
	var args []Node

	if _, ok := p.acceptOp(")"); ok {
		return args, nil
	}

	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if _, ok := p.acceptOp(","); ok {
			continue
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *parser) acceptIdent(word string) bool {
	tok := p.peek()
	if tok.kind == tokIdent && strings.ToLower(tok.text) == word {
		p.advance()
		return true
	}
	return false
}
