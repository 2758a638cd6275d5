// Package boolquery parses Boolean retrieval queries into an expression tree.
//
// Grammar, keywords case-insensitive, adjacency meaning AND:
//
//	expr    := andExpr ( "OR" andExpr )*
//	andExpr := notExpr ( ["AND"] notExpr )*
//	notExpr := "NOT" notExpr | primary
//	primary := WORD | "(" expr ")"
package boolquery

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/errors"
)

type Kind int

const (
	Term Kind = iota
	And
	Or
	Not
)

func (k Kind) String() string {
	switch k {
	case Term:
		return "TERM"
	case And:
		return "AND"
	case Or:
		return "OR"
	case Not:
		return "NOT"
	}
	return "UNKNOWN"
}

// Node is one expression in the tree. Term nodes carry the raw word; the
// evaluator normalises it. Not has exactly one child, And and Or two.
type Node struct {
	Kind     Kind
	Word     string
	Pos      int
	Children []*Node
}

// String renders the tree fully parenthesised.
func (n *Node) String() string {
	switch n.Kind {
	case Term:
		return n.Word
	case Not:
		return "NOT " + n.Children[0].String()
	default:
		return "(" + n.Children[0].String() + " " + n.Kind.String() + " " + n.Children[1].String() + ")"
	}
}

type parser struct {
	tokens []token
	pos    int
}

// Parse builds the expression tree for query. Malformed input returns an
// error wrapping ErrQuerySyntax that names the offending position.
func Parse(query string) (*Node, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.Syntax("empty query at position 0")
	}
	p := &parser{tokens: lex(query)}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, unexpected(tok)
	}
	return node, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) parseOr() (*Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		op := p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: Or, Pos: op.pos, Children: []*Node{left, right}}
	}
	return left, nil
}

func (p *parser) parseAnd() (*Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch tok.kind {
		case tokAnd:
			p.next()
		case tokWord, tokNot, tokLParen:
		default:
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: And, Pos: tok.pos, Children: []*Node{left, right}}
	}
}

func (p *parser) parseNot() (*Node, error) {
	if p.peek().kind == tokNot {
		op := p.next()
		child, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: Not, Pos: op.pos, Children: []*Node{child}}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokWord:
		return &Node{Kind: Term, Word: tok.text, Pos: tok.pos}, nil
	case tokLParen:
		if p.peek().kind == tokRParen {
			return nil, apperrors.Syntax("empty parentheses at position %d", tok.pos)
		}
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closing := p.next()
		if closing.kind != tokRParen {
			return nil, apperrors.Syntax("missing \")\" for \"(\" at position %d", tok.pos)
		}
		return node, nil
	default:
		return nil, unexpected(tok)
	}
}

func unexpected(tok token) error {
	if tok.kind == tokEOF {
		return apperrors.Syntax("unexpected end of query at position %d", tok.pos)
	}
	return apperrors.Syntax("unexpected %q at position %d", tok.text, tok.pos)
}

// Words returns the operand words of the tree in query order.
func (n *Node) Words() []string {
	operands := n.Operands()
	words := make([]string, len(operands))
	for i, op := range operands {
		words[i] = op.Word
	}
	return words
}

// Operands returns the Term nodes of the tree in query order.
func (n *Node) Operands() []*Node {
	if n.Kind == Term {
		return []*Node{n}
	}
	var terms []*Node
	for _, c := range n.Children {
		terms = append(terms, c.Operands()...)
	}
	return terms
}
