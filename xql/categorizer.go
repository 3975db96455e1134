package xql

import (
	"github.com/Konsultn-Engineering/xqlorm/ast"
	"github.com/Konsultn-Engineering/xqlorm/schema"
)

// Schema resolves the entity names an XQL statement may reference.
type Schema interface {
	Model(entity string) (*schema.Model, bool)
}

var keywords = map[string]bool{
	"from": true, "join": true, "left": true, "right": true, "inner": true,
	"outer": true, "on": true, "where": true, "order": true, "by": true,
	"asc": true, "ascending": true, "desc": true, "descending": true,
}

// parseContext is the working state of one categorization pass. It lives
// for a single compile, which keeps the compiler reentrant.
type parseContext struct {
	schema Schema
	input  []ast.Token
	end    int // source length, position of end-of-input errors
	i      int
	phase  ast.Phase
	out    []ast.Token
	query  *ast.Query
	models map[string]*schema.Model // alias -> model
}

func newParseContext(s Schema, tokens []ast.Token, sourceLen int) *parseContext {
	return &parseContext{
		schema: s,
		input:  tokens,
		end:    sourceLen,
		out:    make([]ast.Token, 0, len(tokens)),
		query:  ast.NewQuery(),
		models: map[string]*schema.Model{},
	}
}

// categorize retypes the raw tokens phase by phase, validating every entity,
// alias and property against the schema, and accumulates the query clauses.
func (c *parseContext) categorize() error {
	if err := c.selectList(); err != nil {
		return err
	}
	if err := c.fromList(); err != nil {
		return err
	}
	for c.atJoin() {
		if err := c.join(); err != nil {
			return err
		}
	}
	if c.atKeyword("where") {
		if err := c.where(); err != nil {
			return err
		}
	}
	if c.atKeyword("order") {
		if err := c.orderBy(); err != nil {
			return err
		}
	}
	if !c.done() {
		tok := c.peek()
		return ast.Errorf(ast.ErrInvalidToken, tok, "unexpected in %s clause", c.phase)
	}

	for i, alias := range c.query.Select {
		if _, ok := c.query.Resolve(alias); !ok {
			tok := c.selectToken(i)
			return ast.Errorf(ast.ErrUnknownAlias, tok, "selected alias is not bound by from or join")
		}
	}
	return nil
}

// ----- token cursor -----

func (c *parseContext) done() bool { return c.i >= len(c.input) }

func (c *parseContext) peek() ast.Token {
	if c.done() {
		return ast.Token{Pos: c.end}
	}
	return c.input[c.i]
}

func (c *parseContext) peekAt(n int) ast.Token {
	if c.i+n >= len(c.input) {
		return ast.Token{Pos: c.end}
	}
	return c.input[c.i+n]
}

// emit consumes the current token as typ.
func (c *parseContext) emit(typ ast.TokenType) ast.Token {
	tok := c.input[c.i]
	tok.Type = typ
	tok.Phase = c.phase
	c.out = append(c.out, tok)
	c.i++
	return tok
}

func isKeyword(tok ast.Token) bool {
	return tok.Type == ast.TokenWord && keywords[tok.Text]
}

func (c *parseContext) atKeyword(kw string) bool {
	tok := c.peek()
	return !c.done() && tok.Type == ast.TokenWord && tok.Text == kw
}

func (c *parseContext) atPunct(p string) bool {
	return !c.done() && c.peek().Is(ast.TokenPunctuation, p)
}

func (c *parseContext) expectKeyword(kw string) error {
	if !c.atKeyword(kw) {
		return ast.Errorf(ast.ErrInvalidToken, c.peek(), "expected %q in %s clause", kw, c.phase)
	}
	c.emit(ast.TokenKeyword)
	return nil
}

// expectName consumes a word that is not a reserved word.
func (c *parseContext) expectName(what string) (ast.Token, error) {
	tok := c.peek()
	if c.done() || tok.Type != ast.TokenWord || isKeyword(tok) {
		return tok, ast.Errorf(ast.ErrInvalidToken, tok, "expected %s in %s clause", what, c.phase)
	}
	return tok, nil
}

func (c *parseContext) selectToken(n int) ast.Token {
	for _, tok := range c.out {
		if tok.Phase != ast.PhaseSelect || tok.Type != ast.TokenAlias {
			continue
		}
		if n == 0 {
			return tok
		}
		n--
	}
	return ast.Token{Pos: -1}
}

// ----- phases -----

func (c *parseContext) selectList() error {
	c.phase = ast.PhaseSelect
	if c.atKeyword("from") {
		return ast.Errorf(ast.ErrNoEntitySelected, c.peek(), "")
	}
	for {
		if c.done() {
			return &ast.Error{Err: ast.ErrMissingFrom, Pos: -1}
		}
		tok, err := c.expectName("alias")
		if err != nil {
			return err
		}
		for _, alias := range c.query.Select {
			if alias == tok.Text {
				return ast.Errorf(ast.ErrInvalidToken, tok, "alias selected twice")
			}
		}
		c.emit(ast.TokenAlias)
		c.query.Select = append(c.query.Select, tok.Text)

		if c.atPunct(",") {
			c.emit(ast.TokenPunctuation)
			continue
		}
		if c.done() {
			return &ast.Error{Err: ast.ErrMissingFrom, Pos: -1}
		}
		if c.atKeyword("from") {
			return nil
		}
		return ast.Errorf(ast.ErrInvalidToken, c.peek(), "expected \",\" or \"from\" after alias")
	}
}

func (c *parseContext) fromList() error {
	c.phase = ast.PhaseFrom
	c.emit(ast.TokenKeyword)
	for {
		entity, alias, err := c.entityAlias()
		if err != nil {
			return err
		}
		c.query.From = append(c.query.From, &ast.From{Entity: entity, Alias: alias})
		if !c.atPunct(",") {
			return nil
		}
		c.emit(ast.TokenPunctuation)
	}
}

// entityAlias reads "<Entity> <alias>" and binds the alias.
func (c *parseContext) entityAlias() (string, string, error) {
	tok, err := c.expectName("entity")
	if err != nil {
		return "", "", err
	}
	model, ok := c.schema.Model(tok.Text)
	if !ok {
		return "", "", ast.Errorf(ast.ErrUnknownEntity, tok, "")
	}
	c.emit(ast.TokenEntity)

	aliasTok, err := c.expectName("alias")
	if err != nil {
		return "", "", err
	}
	if _, bound := c.query.Aliases[aliasTok.Text]; bound {
		return "", "", ast.Errorf(ast.ErrInvalidToken, aliasTok, "alias already bound")
	}
	c.emit(ast.TokenAlias)
	c.query.Aliases[aliasTok.Text] = tok.Text
	c.models[aliasTok.Text] = model
	return tok.Text, aliasTok.Text, nil
}

func (c *parseContext) atJoin() bool {
	if c.atKeyword("join") {
		return true
	}
	tok := c.peek()
	_, ok := ast.ParseJoinType(tok.Text)
	return !c.done() && tok.Type == ast.TokenWord && ok
}

func (c *parseContext) join() error {
	c.phase = ast.PhaseJoin
	j := &ast.Join{Kind: ast.JoinInner}
	if kind, ok := ast.ParseJoinType(c.peek().Text); ok {
		j.Kind = kind
		c.emit(ast.TokenKeyword)
	}
	if err := c.expectKeyword("join"); err != nil {
		return err
	}

	entity, alias, err := c.entityAlias()
	if err != nil {
		return err
	}
	j.Entity, j.Alias = entity, alias

	if err := c.expectKeyword("on"); err != nil {
		return err
	}
	if j.Left, err = c.ref(); err != nil {
		return err
	}
	if !c.peek().Is(ast.TokenOperator, "==") || c.done() {
		return ast.Errorf(ast.ErrInvalidToken, c.peek(), "join condition must compare with ==")
	}
	c.emit(ast.TokenOperator)
	if j.Right, err = c.ref(); err != nil {
		return err
	}

	c.query.Joins = append(c.query.Joins, j)
	return nil
}

// ref reads "alias.property" and validates both parts.
func (c *parseContext) ref() (ast.Ref, error) {
	aliasTok, err := c.expectName("alias")
	if err != nil {
		return ast.Ref{}, err
	}
	model, ok := c.models[aliasTok.Text]
	if !ok {
		return ast.Ref{}, ast.Errorf(ast.ErrUnknownAlias, aliasTok, "")
	}
	c.emit(ast.TokenAlias)

	if !c.atPunct(".") {
		return ast.Ref{}, ast.Errorf(ast.ErrInvalidToken, c.peek(), "expected \".\" after alias %s", aliasTok.Text)
	}
	c.emit(ast.TokenPunctuation)

	// Reserved words are valid property names once qualified.
	propTok := c.peek()
	if c.done() || propTok.Type != ast.TokenWord {
		return ast.Ref{}, ast.Errorf(ast.ErrInvalidToken, propTok, "expected property in %s clause", c.phase)
	}
	if _, ok := model.Property(propTok.Text); !ok {
		return ast.Ref{}, ast.Errorf(ast.ErrUnknownProperty, propTok, "%s has no property %s", model.Class(), propTok.Text)
	}
	c.emit(ast.TokenProperty)
	return ast.Ref{Alias: aliasTok.Text, Property: propTok.Text}, nil
}

func (c *parseContext) where() error {
	c.phase = ast.PhaseWhere
	whereTok := c.emit(ast.TokenKeyword)

	var tokens []ast.Token
	expectOperand := true
	for !c.done() && !c.atKeyword("order") {
		tok := c.peek()
		switch {
		case tok.Is(ast.TokenBracket, "("):
			if !expectOperand {
				return ast.Errorf(ast.ErrInvalidToken, tok, "expected operator")
			}
			tokens = append(tokens, c.emit(ast.TokenBracket))

		case tok.Is(ast.TokenBracket, ")"):
			if expectOperand {
				return ast.Errorf(ast.ErrInvalidToken, tok, "expected operand")
			}
			tokens = append(tokens, c.emit(ast.TokenBracket))

		case tok.Type == ast.TokenOperator:
			if tok.Text == "!" {
				if !expectOperand {
					return ast.Errorf(ast.ErrInvalidToken, tok, "expected operator")
				}
			} else {
				if expectOperand {
					return ast.Errorf(ast.ErrInvalidToken, tok, "expected operand")
				}
				expectOperand = true
			}
			tokens = append(tokens, c.emit(ast.TokenOperator))

		default:
			if !expectOperand {
				return ast.Errorf(ast.ErrInvalidToken, tok, "expected operator")
			}
			operand, err := c.operand()
			if err != nil {
				return err
			}
			tokens = append(tokens, operand)
			expectOperand = false
		}
	}

	if len(tokens) == 0 {
		return ast.Errorf(ast.ErrInvalidToken, whereTok, "empty where clause")
	}
	if expectOperand {
		return ast.Errorf(ast.ErrInvalidToken, c.peek(), "expression ends without operand")
	}
	c.query.Where = &ast.Where{Tokens: tokens}
	return nil
}

// operand reads a constant, a :parameter or an alias.property reference and
// returns it as a single token.
func (c *parseContext) operand() (ast.Token, error) {
	tok := c.peek()
	switch {
	case tok.Type == ast.TokenConstant:
		return c.emit(ast.TokenConstant), nil

	case tok.Type == ast.TokenWord && (tok.Text == "true" || tok.Text == "false" || tok.Text == "null"):
		return c.emit(ast.TokenConstant), nil

	case tok.Is(ast.TokenPunctuation, ":"):
		name := c.peekAt(1)
		if name.Type != ast.TokenWord || name.Pos != tok.Pos+1 {
			return tok, ast.Errorf(ast.ErrInvalidToken, tok, "expected parameter name after \":\"")
		}
		c.emit(ast.TokenPunctuation)
		c.emit(ast.TokenParameter)
		return ast.Token{Type: ast.TokenParameter, Text: ":" + name.Text, Pos: tok.Pos, Phase: c.phase}, nil

	case tok.Type == ast.TokenWord && !isKeyword(tok) && c.peekAt(1).Is(ast.TokenPunctuation, "."):
		ref, err := c.ref()
		if err != nil {
			return tok, err
		}
		return ast.Token{Type: ast.TokenProperty, Text: ref.Property, Alias: ref.Alias, Pos: tok.Pos, Phase: c.phase}, nil
	}
	return tok, ast.Errorf(ast.ErrInvalidToken, tok, "expected operand in %s clause", c.phase)
}

func (c *parseContext) orderBy() error {
	c.phase = ast.PhaseOrder
	c.emit(ast.TokenKeyword)
	if err := c.expectKeyword("by"); err != nil {
		return err
	}
	for {
		ref, err := c.ref()
		if err != nil {
			return err
		}
		order := &ast.Order{Ref: ref, Direction: ast.Ascending}
		switch {
		case c.atKeyword("asc"), c.atKeyword("ascending"):
			c.emit(ast.TokenKeyword)
		case c.atKeyword("desc"), c.atKeyword("descending"):
			c.emit(ast.TokenKeyword)
			order.Direction = ast.Descending
		}
		c.query.Order = append(c.query.Order, order)

		if !c.atPunct(",") {
			return nil
		}
		c.emit(ast.TokenPunctuation)
	}
}
