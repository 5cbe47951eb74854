package rotation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type item struct {
	typ  ItemType
	pos  int
	val  string
	line int
}

func (i item) String() string {
	switch {
	case i.typ == itemEOF:
		return "EOF"
	case i.typ == itemError:
		return i.val
	case len(i.val) > 10:
		return fmt.Sprintf("%.10q...", i.val)
	}
	return fmt.Sprintf("%q", i.val)
}

type ItemType int

//the markers itemLogicOP, itemCompareOp and itemKeyword bound ranges that the
//parser checks with < and >
const (
	itemError ItemType = iota
	itemEOF

	itemTerminateLine    // ;
	itemAssign           // =
	itemAddToList        // +=
	itemComma            // ,
	itemLeftParen        // (
	itemRightParen       // )
	itemLeftSquareParen  // [
	itemRightSquareParen // ]

	itemLogicOP
	itemAnd // &&
	itemOr  // ||

	itemCompareOp
	itemEqual          // ==
	itemNotEqual       // != or <>
	itemGreater        // >
	itemGreaterOrEqual // >=
	itemLess           // <
	itemLessOrEqual    // <=

	itemKeyword
	itemAction // actions
	itemTarget // target
	itemIf     // if
	itemDelay  // delay

	itemField      // .name
	itemIdentifier // bare word
	itemNumber
)

var key = map[string]ItemType{
	"actions": itemAction,
	"target":  itemTarget,
	"if":      itemIf,
	"delay":   itemDelay,
}

const eof = -1

type stateFn func(*lexer) stateFn

type lexer struct {
	name  string
	input string
	state stateFn
	start int
	pos   int
	width int
	line  int
	items chan item
}

func lex(name, input string) *lexer {
	return &lexer{
		name:  name,
		input: input,
		state: lexText,
		line:  1,
		items: make(chan item, 2),
	}
}

//nextItem runs the state machine until an item is ready
func (l *lexer) nextItem() item {
	for {
		select {
		case it := <-l.items:
			return it
		default:
			if l.state == nil {
				return item{typ: itemEOF, pos: l.pos, line: l.line}
			}
			l.state = l.state(l)
		}
	}
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	if r == '\n' {
		l.line++
	}
	return r
}

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) backup() {
	l.pos -= l.width
	if l.width == 1 && l.input[l.pos] == '\n' {
		l.line--
	}
}

func (l *lexer) emit(t ItemType) {
	l.items <- item{typ: t, pos: l.start, val: l.input[l.start:l.pos], line: l.line}
	l.start = l.pos
}

func (l *lexer) ignore() {
	l.start = l.pos
}

func (l *lexer) accept(valid string) bool {
	if strings.ContainsRune(valid, l.next()) {
		return true
	}
	l.backup()
	return false
}

func (l *lexer) acceptRun(valid string) {
	for strings.ContainsRune(valid, l.next()) {
	}
	l.backup()
}

func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.items <- item{typ: itemError, pos: l.start, val: fmt.Sprintf(format, args...), line: l.line}
	return nil
}

func lexText(l *lexer) stateFn {
	switch r := l.next(); {
	case r == eof:
		l.emit(itemEOF)
		return nil
	case unicode.IsSpace(r):
		l.ignore()
	case r == '#':
		return lexComment
	case r == ';':
		l.emit(itemTerminateLine)
	case r == ',':
		l.emit(itemComma)
	case r == '(':
		l.emit(itemLeftParen)
	case r == ')':
		l.emit(itemRightParen)
	case r == '[':
		l.emit(itemLeftSquareParen)
	case r == ']':
		l.emit(itemRightSquareParen)
	case r == '+':
		if l.next() != '=' {
			return l.errorf("line %v: expecting += got %q", l.line, l.input[l.start:l.pos])
		}
		l.emit(itemAddToList)
	case r == '=':
		if l.accept("=") {
			l.emit(itemEqual)
		} else {
			l.emit(itemAssign)
		}
	case r == '!':
		if l.next() != '=' {
			return l.errorf("line %v: expecting != got %q", l.line, l.input[l.start:l.pos])
		}
		l.emit(itemNotEqual)
	case r == '<':
		switch {
		case l.accept(">"):
			l.emit(itemNotEqual)
		case l.accept("="):
			l.emit(itemLessOrEqual)
		default:
			l.emit(itemLess)
		}
	case r == '>':
		if l.accept("=") {
			l.emit(itemGreaterOrEqual)
		} else {
			l.emit(itemGreater)
		}
	case r == '&':
		if l.next() != '&' {
			return l.errorf("line %v: expecting && got %q", l.line, l.input[l.start:l.pos])
		}
		l.emit(itemAnd)
	case r == '|':
		if l.next() != '|' {
			return l.errorf("line %v: expecting || got %q", l.line, l.input[l.start:l.pos])
		}
		l.emit(itemOr)
	case r == '.':
		if isAlphaNumeric(l.peek()) && !unicode.IsDigit(l.peek()) {
			return lexField
		}
		l.backup()
		return lexNumber
	case r == '-' || unicode.IsDigit(r):
		l.backup()
		return lexNumber
	case isAlphaNumeric(r):
		l.backup()
		return lexIdentifier
	default:
		return l.errorf("line %v: unrecognized character %#U", l.line, r)
	}
	return lexText
}

func lexComment(l *lexer) stateFn {
	for {
		r := l.next()
		if r == '\n' || r == eof {
			break
		}
	}
	l.ignore()
	return lexText
}

func lexField(l *lexer) stateFn {
	for isAlphaNumeric(l.next()) {
	}
	l.backup()
	l.emit(itemField)
	return lexText
}

func lexIdentifier(l *lexer) stateFn {
	for isAlphaNumeric(l.next()) {
	}
	l.backup()
	word := l.input[l.start:l.pos]
	if t, ok := key[word]; ok {
		l.emit(t)
	} else {
		l.emit(itemIdentifier)
	}
	return lexText
}

func lexNumber(l *lexer) stateFn {
	l.accept("-")
	digits := "0123456789"
	l.acceptRun(digits)
	if l.accept(".") {
		l.acceptRun(digits)
	}
	if l.pos == l.start || l.input[l.start:l.pos] == "-" || l.input[l.start:l.pos] == "." {
		return l.errorf("line %v: bad number %q", l.line, l.input[l.start:l.pos])
	}
	if isAlphaNumeric(l.peek()) {
		l.next()
		return l.errorf("line %v: bad number %q", l.line, l.input[l.start:l.pos])
	}
	l.emit(itemNumber)
	return lexText
}

func isAlphaNumeric(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
