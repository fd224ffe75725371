// Package parser implements a hand-written recursive-descent/precedence
// climbing parser for FHIRPath, producing the AST in pkg/fhirpath/ast.
package parser

import (
	"fmt"

	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/ast"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/lexer"
)

// Error is a parse failure with its source position. No partial AST is
// returned alongside it.
type Error struct {
	Line, Column int
	Msg          string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Msg)
}

// Parser consumes a token stream from lexer.Lexer and builds an ast.Node.
type Parser struct {
	lex  *lexer.Lexer
	cur  lexer.Token
	prev lexer.Token
}

// Parse parses a complete FHIRPath expression. Returns an error on the
// first failure; never a partial tree.
func Parse(src string) (ast.Node, error) {
	p := &Parser{lex: lexer.New(src)}
	if err := p.next(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != lexer.EOF {
		return nil, &Error{p.cur.Line, p.cur.Column, fmt.Sprintf("unexpected token %q", p.cur.Text)}
	}
	return expr, nil
}

func (p *Parser) next() error {
	p.prev = p.cur
	tok, err := p.lex.Next()
	if err != nil {
		if lexErr, ok := err.(*lexer.Error); ok {
			return &Error{lexErr.Line, lexErr.Column, lexErr.Msg}
		}
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) pos() ast.Position {
	return ast.Position{Line: p.cur.Line, Column: p.cur.Column}
}

func (p *Parser) isPunct(text string) bool {
	return p.cur.Kind == lexer.Punct && p.cur.Text == text
}

func (p *Parser) isKeyword(word string) bool {
	return p.cur.Kind == lexer.Keyword && p.cur.Text == word
}

func (p *Parser) expectPunct(text string) error {
	if !p.isPunct(text) {
		return &Error{p.cur.Line, p.cur.Column, fmt.Sprintf("expected %q, got %q", text, p.cur.Text)}
	}
	return p.next()
}

// parseExpression parses the full operator precedence chain, starting at
// the lowest-precedence level (implies).
func (p *Parser) parseExpression() (ast.Node, error) {
	return p.parseImplies()
}

func (p *Parser) parseImplies() (ast.Node, error) {
	lhs, err := p.parseOrXor()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("implies") {
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.parseOrXor()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Position: pos, Op: ast.OpImplies, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *Parser) parseOrXor() (ast.Node, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") || p.isKeyword("xor") {
		op := ast.BinaryOp(p.cur.Text)
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Position: pos, Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *Parser) parseAnd() (ast.Node, error) {
	lhs, err := p.parseMembership()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.parseMembership()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Position: pos, Op: ast.OpAnd, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *Parser) parseMembership() (ast.Node, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("in") || p.isKeyword("contains") {
		op := ast.BinaryOp(p.cur.Text)
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Position: pos, Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

var equalityOps = map[string]ast.BinaryOp{
	"=": ast.OpEqual, "~": ast.OpEquivalent, "!=": ast.OpNotEqual, "!~": ast.OpNotEquivalent,
}

func (p *Parser) parseEquality() (ast.Node, error) {
	lhs, err := p.parseInequality()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.Punct {
		op, ok := equalityOps[p.cur.Text]
		if !ok {
			break
		}
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.parseInequality()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Position: pos, Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

var inequalityOps = map[string]ast.BinaryOp{
	"<": ast.OpLess, "<=": ast.OpLessEqual, ">": ast.OpGreater, ">=": ast.OpGreaterEqual,
}

func (p *Parser) parseInequality() (ast.Node, error) {
	lhs, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.Punct {
		op, ok := inequalityOps[p.cur.Text]
		if !ok {
			break
		}
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Position: pos, Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *Parser) parseUnion() (ast.Node, error) {
	lhs, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	for p.isPunct("|") {
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Position: pos, Op: ast.OpUnion, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *Parser) parseTypeExpr() (ast.Node, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("is") || p.isKeyword("as") {
		op := ast.TypeOp(p.cur.Text)
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		spec, err := p.parseTypeSpecifier()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Type{Position: pos, LHS: lhs, Op: op, Spec: spec}
	}
	return lhs, nil
}

func (p *Parser) parseTypeSpecifier() (ast.QualifiedIdentifier, error) {
	if p.cur.Kind != lexer.Identifier && p.cur.Kind != lexer.DelimitedIdentifier {
		return ast.QualifiedIdentifier{}, &Error{p.cur.Line, p.cur.Column, "expected type name"}
	}
	first := p.cur.Text
	if err := p.next(); err != nil {
		return ast.QualifiedIdentifier{}, err
	}
	if p.isPunct(".") {
		if err := p.next(); err != nil {
			return ast.QualifiedIdentifier{}, err
		}
		if p.cur.Kind != lexer.Identifier && p.cur.Kind != lexer.DelimitedIdentifier {
			return ast.QualifiedIdentifier{}, &Error{p.cur.Line, p.cur.Column, "expected type name after namespace"}
		}
		name := p.cur.Text
		if err := p.next(); err != nil {
			return ast.QualifiedIdentifier{}, err
		}
		return ast.QualifiedIdentifier{Namespace: first, Name: name}, nil
	}
	return ast.QualifiedIdentifier{Name: first}, nil
}

var additiveOps = map[string]ast.BinaryOp{
	"+": ast.OpAdd, "-": ast.OpSub, "&": ast.OpConcat,
}

func (p *Parser) parseAdditive() (ast.Node, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.Punct {
		op, ok := additiveOps[p.cur.Text]
		if !ok {
			break
		}
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Position: pos, Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *Parser) parseMultiplicative() (ast.Node, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch {
		case p.isPunct("*"):
			op = ast.OpMul
		case p.isPunct("/"):
			op = ast.OpDiv
		case p.isKeyword("div"):
			op = ast.OpIntDiv
		case p.isKeyword("mod"):
			op = ast.OpMod
		default:
			return lhs, nil
		}
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Position: pos, Op: op, LHS: lhs, RHS: rhs}
	}
}

func (p *Parser) parseUnary() (ast.Node, error) {
	if p.isPunct("+") || p.isPunct("-") {
		op := p.cur.Text
		pos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Polarity{Position: pos, Op: op, Inner: inner}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a Term followed by any number of ".invocation" or
// "[index]" continuations, tightest-binding level.
func (p *Parser) parsePostfix() (ast.Node, error) {
	node, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct("."):
			pos := p.pos()
			if err := p.next(); err != nil {
				return nil, err
			}
			inv, err := p.parseInvocation()
			if err != nil {
				return nil, err
			}
			node = &ast.InvocationExpr{Position: pos, Base: node, Call: inv}
		case p.isPunct("["):
			pos := p.pos()
			if err := p.next(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			node = &ast.Indexer{Position: pos, Base: node, Index: idx}
		default:
			return node, nil
		}
	}
}

func (p *Parser) parseTerm() (ast.Node, error) {
	pos := p.pos()
	switch p.cur.Kind {
	case lexer.NullLiteral:
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.Literal{Position: pos, Kind: ast.LiteralEmpty, Text: "{}"}, nil

	case lexer.Keyword:
		if p.cur.Text == "true" || p.cur.Text == "false" {
			text := p.cur.Text
			if err := p.next(); err != nil {
				return nil, err
			}
			return &ast.Literal{Position: pos, Kind: ast.LiteralBoolean, Text: text}, nil
		}
		return nil, &Error{p.cur.Line, p.cur.Column, fmt.Sprintf("unexpected keyword %q", p.cur.Text)}

	case lexer.String:
		text := p.cur.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.Literal{Position: pos, Kind: ast.LiteralString, Text: text}, nil

	case lexer.Number:
		tok := p.cur
		if err := p.next(); err != nil {
			return nil, err
		}
		if tok.Unit != "" {
			return &ast.Literal{Position: pos, Kind: ast.LiteralQuantity, Text: tok.Text, Unit: tok.Unit}, nil
		}
		if tok.IsLong {
			return &ast.Literal{Position: pos, Kind: ast.LiteralLong, Text: tok.Text}, nil
		}
		if tok.IsDecimal {
			return &ast.Literal{Position: pos, Kind: ast.LiteralDecimal, Text: tok.Text}, nil
		}
		return &ast.Literal{Position: pos, Kind: ast.LiteralInteger, Text: tok.Text}, nil

	case lexer.DateTime:
		text := p.cur.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		kind := ast.LiteralDate
		if containsTimeMarker(text) {
			kind = ast.LiteralDateTime
		}
		return &ast.Literal{Position: pos, Kind: kind, Text: text}, nil

	case lexer.Time:
		text := p.cur.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.Literal{Position: pos, Kind: ast.LiteralTime, Text: text}, nil

	case lexer.ExternalConstant:
		name := p.cur.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ast.ExternalConstant{Position: pos, Name: name}, nil

	case lexer.Punct:
		if p.cur.Text == "(" {
			if err := p.next(); err != nil {
				return nil, err
			}
			inner, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return &ast.Paren{Position: pos, Inner: inner}, nil
		}
		return nil, &Error{p.cur.Line, p.cur.Column, fmt.Sprintf("unexpected token %q", p.cur.Text)}

	case lexer.Special, lexer.Identifier, lexer.DelimitedIdentifier:
		inv, err := p.parseInvocation()
		if err != nil {
			return nil, err
		}
		return &ast.InvocationTerm{Position: pos, Invocation: inv}, nil

	default:
		return nil, &Error{p.cur.Line, p.cur.Column, "unexpected end of expression"}
	}
}

func containsTimeMarker(text string) bool {
	for _, c := range text {
		if c == 'T' {
			return true
		}
	}
	return false
}

// parseInvocation parses one of: $this, $index, $total, a bare member
// name, or a function call "name(args)".
func (p *Parser) parseInvocation() (ast.Invocation, error) {
	pos := p.pos()
	if p.cur.Kind == lexer.Special {
		name := p.cur.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		switch name {
		case "$this":
			return &ast.ThisInvocation{Position: pos}, nil
		case "$index":
			return &ast.IndexInvocation{Position: pos}, nil
		case "$total":
			return &ast.TotalInvocation{Position: pos}, nil
		}
		return nil, &Error{pos.Line, pos.Column, fmt.Sprintf("unknown special identifier %q", name)}
	}

	// "contains" is also a string function, so the keyword may name a call.
	containsFn := p.cur.Kind == lexer.Keyword && p.cur.Text == "contains"
	if p.cur.Kind != lexer.Identifier && p.cur.Kind != lexer.DelimitedIdentifier && !containsFn {
		return nil, &Error{p.cur.Line, p.cur.Column, fmt.Sprintf("expected identifier, got %q", p.cur.Text)}
	}
	name := p.cur.Text
	if err := p.next(); err != nil {
		return nil, err
	}

	if !p.isPunct("(") {
		return &ast.MemberInvocation{Position: pos, Name: name}, nil
	}

	if err := p.next(); err != nil {
		return nil, err
	}
	var args []ast.Node
	if !p.isPunct(")") {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.isPunct(",") {
				if err := p.next(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.FunctionInvocation{Position: pos, Name: name, Args: args}, nil
}
