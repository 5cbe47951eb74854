//Package rotation parses action priority scripts:
//
//	actions+=charge[1.5] target=knight delay=0.2 if=.target.posture==staggered;
//
//Each line names an action, an optional bracketed parameter, the combatant
//running it and an optional condition over dotted fields.
package rotation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Action struct {
	//Name is the action keyword i.e. light/heavy/dodge
	Name   string
	Target string
	Param  float64
	Delay  float64

	Conditions *ExprTreeNode //conditions to be met

	//fields used by parser only
	sourceLine int
}

func (a Action) Line() int {
	return a.sourceLine
}

type ExprTreeNode struct {
	Left   *ExprTreeNode
	Right  *ExprTreeNode
	IsLeaf bool
	Op     string //&& ||
	Expr   Condition
}

type Condition struct {
	Fields []string
	Op     string
	Value  string
}

func (c Condition) String() string {
	var sb strings.Builder
	for _, v := range c.Fields {
		sb.WriteString(".")
		sb.WriteString(v)
	}
	sb.WriteString(c.Op)
	sb.WriteString(c.Value)
	return sb.String()
}

//Env resolves a field path such as [target posture] to its current value
type Env func(fields []string) (string, bool)

//Eval walks the tree; a nil tree is always true
func (n *ExprTreeNode) Eval(env Env) bool {
	if n == nil {
		return true
	}
	if n.IsLeaf {
		return n.Expr.Eval(env)
	}
	switch n.Op {
	case "&&":
		return n.Left.Eval(env) && n.Right.Eval(env)
	case "||":
		return n.Left.Eval(env) || n.Right.Eval(env)
	}
	return false
}

//Eval compares numerically when both sides are numbers; otherwise only == and
//!= are defined
func (c Condition) Eval(env Env) bool {
	v, ok := env(c.Fields)
	if !ok {
		return false
	}
	a, errA := strconv.ParseFloat(v, 64)
	b, errB := strconv.ParseFloat(c.Value, 64)
	if errA == nil && errB == nil {
		switch c.Op {
		case "==":
			return a == b
		case "!=", "<>":
			return a != b
		case ">":
			return a > b
		case ">=":
			return a >= b
		case "<":
			return a < b
		case "<=":
			return a <= b
		}
		return false
	}
	switch c.Op {
	case "==":
		return v == c.Value
	case "!=", "<>":
		return v != c.Value
	}
	return false
}

type Parser struct {
	input  string
	l      *lexer
	tokens []item
	pos    int
}

func New(name, input string) *Parser {
	p := &Parser{input: input}
	p.l = lex(name, input)
	p.pos = -1
	return p
}

func (p *Parser) Parse() ([]Action, error) {
	var r []Action
	for n := p.next(); n.typ != itemEOF; n = p.next() {
		if n.typ == itemError {
			return r, errors.New(n.val)
		}
		//every line starts with actions+=
		if n.typ != itemAction {
			return r, fmt.Errorf("<action> bad token at line %v: %v", n.line, n)
		}
		next, err := p.parseAction(n.line)
		if err != nil {
			return r, err
		}
		r = append(r, next)
	}
	return r, nil
}

func (p *Parser) parseAction(line int) (Action, error) {
	var err error
	r := Action{sourceLine: line}
	err = p.parseActionItem(&r)
	if err != nil {
		return r, err
	}
READLOOP:
	for n := p.next(); ; n = p.next() {
		switch n.typ {
		case itemTarget:
			r.Target, err = p.parseStringIdent()
			if err != nil {
				return r, err
			}
		case itemDelay:
			r.Delay, err = p.parseNumber()
			if err != nil {
				return r, err
			}
		case itemIf:
			r.Conditions, err = p.parseIf()
			if err != nil {
				return r, err
			}
		case itemTerminateLine:
			if err := isActionValid(r); err != nil {
				return r, fmt.Errorf("bad action at line %v: %v", line, err)
			}
			break READLOOP
		case itemError:
			return r, errors.New(n.val)
		default:
			return r, fmt.Errorf("bad token at line %v - %v: %v", n.line, n.pos, n)
		}
	}
	return r, nil
}

func (p *Parser) parseActionItem(next *Action) error {
	if _, err := p.consume(itemAddToList); err != nil {
		return err
	}
	//next should be the action name
	n := p.next()
	if n.typ != itemIdentifier {
		return fmt.Errorf("<action> bad token at line %v: %v", n.line, n)
	}
	next.Name = n.val
	//check for params
	n = p.next()
	if n.typ != itemLeftSquareParen {
		p.backup()
		return nil
	}
	n = p.next()
	if n.typ != itemNumber {
		return fmt.Errorf("<action> invalid number at line %v: %v", n.line, n)
	}
	x, err := strconv.ParseFloat(n.val, 64)
	if err != nil {
		return err
	}
	next.Param = x
	//then we have close bracket
	_, err = p.consume(itemRightSquareParen)
	return err
}

func (p *Parser) parseStringIdent() (string, error) {
	if _, err := p.consume(itemAssign); err != nil {
		return "", err
	}
	n := p.next()
	if n.typ != itemIdentifier {
		return "", fmt.Errorf("<string - id> bad token at line %v - %v: %v", n.line, n.pos, n)
	}
	return n.val, nil
}

func (p *Parser) parseNumber() (float64, error) {
	if _, err := p.consume(itemAssign); err != nil {
		return 0, err
	}
	n := p.next()
	if n.typ != itemNumber {
		return 0, fmt.Errorf("<number> bad token at line %v - %v: %v", n.line, n.pos, n)
	}
	return strconv.ParseFloat(n.val, 64)
}

func precedence(op string) int {
	if op == "&&" {
		return 2
	}
	return 1
}

//parseIf converts the infix condition to postfix with a shunting yard, then
//builds the tree from the postfix queue
func (p *Parser) parseIf() (*ExprTreeNode, error) {
	if _, err := p.consume(itemAssign); err != nil {
		return nil, err
	}
	parenDepth := 0
	var queue []*ExprTreeNode
	var stack []*ExprTreeNode
	var x *ExprTreeNode

LOOP:
	for {
		for p.peek().typ == itemLeftParen {
			p.next()
			parenDepth++
			stack = append(stack, &ExprTreeNode{Op: "("})
		}
		c, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		queue = append(queue, &ExprTreeNode{
			Expr:   c,
			IsLeaf: true,
		})
		for p.peek().typ == itemRightParen {
			n := p.next()
			parenDepth--
			if parenDepth < 0 {
				return nil, fmt.Errorf("unmatched right paren at line %v", n.line)
			}
			//pop until the matching left paren, dropping it
			for {
				x, stack = stack[len(stack)-1], stack[:len(stack)-1]
				if x.Op == "(" {
					break
				}
				queue = append(queue, x)
			}
		}

		//check if any logical ops
		n := p.next()
		if n.typ > itemLogicOP && n.typ < itemCompareOp {
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.Op == "(" || precedence(top.Op) < precedence(n.val) {
					break
				}
				stack = stack[:len(stack)-1]
				queue = append(queue, top)
			}
			stack = append(stack, &ExprTreeNode{Op: n.val})
			continue
		}
		p.backup()
		break LOOP
	}

	if parenDepth > 0 {
		return nil, errors.New("unmatched left paren")
	}

	for i := len(stack) - 1; i >= 0; i-- {
		queue = append(queue, stack[i])
	}

	var ts []*ExprTreeNode
	for _, v := range queue {
		if v.IsLeaf {
			ts = append(ts, v)
			continue
		}
		if len(ts) < 2 {
			return nil, fmt.Errorf("operator %v is missing an operand", v.Op)
		}
		v.Right, ts = ts[len(ts)-1], ts[:len(ts)-1]
		v.Left, ts = ts[len(ts)-1], ts[:len(ts)-1]
		ts = append(ts, v)
	}
	if len(ts) != 1 {
		return nil, errors.New("malformed condition")
	}
	return ts[0], nil
}

func (p *Parser) parseCondition() (Condition, error) {
	var c Condition
	var n item
	for {
		//look for a field
		n = p.next()
		if n.typ != itemField {
			return c, fmt.Errorf("<if - field> bad token at line %v - %v: %v", n.line, n.pos, n)
		}
		c.Fields = append(c.Fields, strings.TrimPrefix(n.val, "."))
		//see if any more fields
		if p.peek().typ != itemField {
			break
		}
	}

	//scan for comparison op
	n = p.next()
	if n.typ <= itemCompareOp || n.typ >= itemKeyword {
		return c, fmt.Errorf("<if - comp> bad token at line %v - %v: %v", n.line, n.pos, n)
	}
	c.Op = n.val
	//scan for value
	n = p.next()
	if n.typ != itemNumber && n.typ != itemIdentifier {
		return c, fmt.Errorf("<if - value> bad token at line %v - %v: %v", n.line, n.pos, n)
	}
	c.Value = n.val
	return c, nil
}

func isActionValid(a Action) error {
	if a.Target == "" {
		return errors.New("missing target")
	}
	if a.Name == "" {
		return errors.New("missing action")
	}
	return nil
}

func (p *Parser) consume(i ItemType) (item, error) {
	n := p.next()
	if n.typ == itemError {
		return n, errors.New(n.val)
	}
	if n.typ != i {
		return n, fmt.Errorf("expecting %v, got bad token at line %v - %v: %v", i, n.line, n.pos, n)
	}
	return n, nil
}

func (p *Parser) next() item {
	p.pos++
	if p.pos == len(p.tokens) {
		t := p.l.nextItem()
		p.tokens = append(p.tokens, t)
	}
	return p.tokens[p.pos]
}

func (p *Parser) backup() {
	if p.pos >= 0 {
		p.pos--
	}
}

func (p *Parser) peek() item {
	next := p.next()
	p.backup()
	return next
}
