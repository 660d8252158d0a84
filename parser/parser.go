// Package parser is a recursive-descent, precedence-climbing parser
// that fills an ast.Tree. It is the external collaborator the ast and
// render packages are built to be driven by: the token-cursor shape
// (advance/eat/expect over a flat index) is carried from the teacher's
// yparse Token reader, generalized from a line-oriented stdin protocol
// to an in-memory token.Stream; the expression precedence climb is
// carried from the mexpr reference parser's binding-power table,
// generalized to emit ast.Tree nodes instead of a pointer-linked tree.
package parser

import (
	"github.com/gmofishsauce/wut4/lang/zxfmt/ast"
	"github.com/gmofishsauce/wut4/lang/zxfmt/token"
)

// Parse tokenizes and parses src into a Tree. Parse errors are
// recoverable: they are appended to the returned Tree's Errors and
// never abort the walk, so a caller always gets back the most
// complete tree the parser could build (spec.md §7).
func Parse(src []byte) *ast.Tree {
	stream := token.Tokenize(src)
	tree := ast.NewTree(stream)
	p := &parser{tree: tree}

	var decls []ast.Index
	for p.cur() != token.Eof {
		if p.skipDocComments() && p.cur() == token.Eof {
			p.errorf(ast.ErrUnattachedDocComment, token.Invalid)
			break
		}
		start := p.pos
		if d, ok := p.parseTopLevelDecl(); ok {
			decls = append(decls, d)
		}
		if p.pos == start {
			// parseTopLevelDecl must always consume at least one token
			// on failure; this is the last-resort guard against an
			// infinite loop on genuinely unrecognized input.
			p.advance()
		}
	}
	tree.SetRootDecls(decls)
	return tree
}

type parser struct {
	tree *ast.Tree
	pos  token.Index
}

// skipDocComments advances past any doc/container-doc comment tokens
// without attaching them to a node, reporting whether it consumed any.
// They stay in the token stream; render recovers them by walking
// backward from the declaration they precede (spec.md §4.3).
func (p *parser) skipDocComments() bool {
	consumed := false
	for p.cur() == token.DocComment || p.cur() == token.ContainerDocComment {
		p.advance()
		consumed = true
	}
	return consumed
}

func (p *parser) cur() token.Tag { return p.tree.TokenTag(p.pos) }

func (p *parser) curAt(n int) token.Tag {
	return p.tree.TokenTag(p.pos + token.Index(n))
}

func (p *parser) advance() token.Index {
	t := p.pos
	if p.tree.TokenTag(p.pos) != token.Eof {
		p.pos++
	}
	return t
}

func (p *parser) eat(tag token.Tag) (token.Index, bool) {
	if p.cur() == tag {
		return p.advance(), true
	}
	return p.pos, false
}

func (p *parser) expect(tag token.Tag) token.Index {
	if tok, ok := p.eat(tag); ok {
		return tok
	}
	p.errorf(ast.ErrExpectedToken, tag)
	return p.pos
}

func (p *parser) errorf(tag ast.ErrorTag, expected token.Tag) {
	p.tree.Errors = append(p.tree.Errors, ast.Error{
		Tag:      tag,
		Token:    p.pos,
		Expected: expected,
	})
}

func (p *parser) addExtraRange(items []ast.Index) ast.SubRange {
	start := ast.Index(len(p.tree.ExtraData))
	for _, it := range items {
		p.tree.ExtraData = append(p.tree.ExtraData, uint32(it))
	}
	end := ast.Index(len(p.tree.ExtraData))
	return ast.SubRange{Start: start, End: end}
}

// ============================================================
// Top level
// ============================================================

type modifiers struct {
	pub, export, extern, threadlocal, comptime bool
}

func (p *parser) parseModifiers() modifiers {
	var m modifiers
	for {
		switch p.cur() {
		case token.KeywordPub:
			m.pub = true
			p.advance()
		case token.KeywordExport:
			m.export = true
			p.advance()
		case token.KeywordExtern:
			m.extern = true
			p.advance()
		case token.KeywordThreadlocal:
			m.threadlocal = true
			p.advance()
		case token.KeywordComptime:
			m.comptime = true
			p.advance()
		default:
			return m
		}
	}
}

func (p *parser) parseTopLevelDecl() (ast.Index, bool) {
	p.parseModifiers()
	switch p.cur() {
	case token.KeywordConst, token.KeywordVar:
		return p.parseVarDeclStatement(true)
	case token.KeywordFn:
		return p.parseFnDecl()
	case token.KeywordUsingnamespace:
		main := p.advance()
		operand, _ := p.parseExpr()
		p.expect(token.Semicolon)
		return p.tree.AddNode(ast.UsingNamespace, main, ast.Data{LHS: uint32(operand)}), true
	default:
		p.errorf(ast.ErrExpectedDeclaration, token.Invalid)
		return 0, false
	}
}

// parseVarDeclStatement parses `const|var name [: Type] [align(N)]
// [linksection(S)] [= init] ;`. global controls whether a trailing
// linksection clause is accepted (spec.md's GlobalVarDecl shape is
// reserved for top-level/container-scope declarations).
func (p *parser) parseVarDeclStatement(global bool) (ast.Index, bool) {
	mut := p.advance() // const/var keyword, the node's main_token
	p.expect(token.Identifier)

	var typeExpr, alignExpr, sectionExpr ast.Index
	if _, ok := p.eat(token.Colon); ok {
		typeExpr, _ = p.parseTypeExpr()
	}
	if _, ok := p.eat(token.KeywordAlign); ok {
		p.expect(token.LParen)
		alignExpr, _ = p.parseExpr()
		p.expect(token.RParen)
	}
	if global {
		if _, ok := p.eat(token.KeywordLinksection); ok {
			p.expect(token.LParen)
			sectionExpr, _ = p.parseExpr()
			p.expect(token.RParen)
		}
	}

	var initExpr ast.Index
	if _, ok := p.eat(token.Equal); ok {
		initExpr, _ = p.parseExpr()
	}
	p.expect(token.Semicolon)

	switch {
	case typeExpr == 0 && alignExpr == 0 && sectionExpr == 0:
		return p.tree.AddNode(ast.SimpleVarDecl, mut, ast.Data{RHS: uint32(initExpr)}), true
	case typeExpr == 0 && sectionExpr == 0:
		return p.tree.AddNode(ast.AlignedVarDecl, mut, ast.Data{LHS: uint32(alignExpr), RHS: uint32(initExpr)}), true
	case sectionExpr == 0:
		rec := ast.AddExtra(p.tree, ast.LocalVarDeclData{Type: typeExpr, Align: alignExpr})
		return p.tree.AddNode(ast.LocalVarDecl, mut, ast.Data{LHS: rec, RHS: uint32(initExpr)}), true
	default:
		rec := ast.AddExtra(p.tree, ast.GlobalVarDeclData{Type: typeExpr, Align: alignExpr, Section: sectionExpr})
		return p.tree.AddNode(ast.GlobalVarDecl, mut, ast.Data{LHS: rec, RHS: uint32(initExpr)}), true
	}
}

// fnParam is a parameter's name token plus its optional type (Null for
// a bare, untyped parameter).
type fnParam struct {
	name token.Index
	typ  ast.Index
}

// addExtraParams packs a parameter list as (name, type) word pairs,
// the layout ast.Tree.FnParamsSlice decodes.
func (p *parser) addExtraParams(params []fnParam) ast.SubRange {
	start := ast.Index(len(p.tree.ExtraData))
	for _, prm := range params {
		p.tree.ExtraData = append(p.tree.ExtraData, uint32(prm.name), uint32(prm.typ))
	}
	end := ast.Index(len(p.tree.ExtraData))
	return ast.SubRange{Start: start, End: end}
}

func (p *parser) parseFnDecl() (ast.Index, bool) {
	fnTok := p.advance()
	p.expect(token.Identifier)
	p.expect(token.LParen)

	var params []fnParam
	for p.cur() != token.RParen && p.cur() != token.Eof {
		name := p.expect(token.Identifier)
		var typ ast.Index
		if _, ok := p.eat(token.Colon); ok {
			typ, _ = p.parseTypeExpr()
		}
		params = append(params, fnParam{name: name, typ: typ})
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen)

	var alignExpr, sectionExpr, callconvExpr ast.Index
	if _, ok := p.eat(token.KeywordAlign); ok {
		p.expect(token.LParen)
		alignExpr, _ = p.parseExpr()
		p.expect(token.RParen)
	}
	if _, ok := p.eat(token.KeywordLinksection); ok {
		p.expect(token.LParen)
		sectionExpr, _ = p.parseExpr()
		p.expect(token.RParen)
	}
	if _, ok := p.eat(token.KeywordCallconv); ok {
		p.expect(token.LParen)
		callconvExpr, _ = p.parseExpr()
		p.expect(token.RParen)
	}

	returnType, _ := p.parseTypeExpr()

	var proto ast.Index
	switch {
	case len(params) == 0 && alignExpr == 0 && sectionExpr == 0 && callconvExpr == 0:
		proto = p.tree.AddNode(ast.FnProtoSimple, fnTok, ast.Data{RHS: uint32(returnType)})
	case len(params) == 1 && params[0].typ == ast.Null &&
		alignExpr == 0 && sectionExpr == 0 && callconvExpr == 0:
		// A single untyped ("anytype"-style) parameter still fits in
		// fn_proto_simple's bare two-word Data: lhs is the name token.
		proto = p.tree.AddNode(ast.FnProtoSimple, fnTok, ast.Data{LHS: uint32(params[0].name), RHS: uint32(returnType)})
	case len(params) <= 1:
		paramName := token.NoToken
		var paramType ast.Index
		if len(params) == 1 {
			paramName = token.Some(params[0].name)
			paramType = params[0].typ
		}
		rec := ast.AddExtra(p.tree, ast.FnProtoOneData{ParamName: paramName, Param: paramType, Align: alignExpr, Section: sectionExpr, Callconv: callconvExpr})
		proto = p.tree.AddNode(ast.FnProtoOne, fnTok, ast.Data{LHS: rec, RHS: uint32(returnType)})
	case alignExpr == 0 && sectionExpr == 0 && callconvExpr == 0:
		rng := p.addExtraParams(params)
		rec := ast.AddExtra(p.tree, rng)
		proto = p.tree.AddNode(ast.FnProtoMulti, fnTok, ast.Data{LHS: rec, RHS: uint32(returnType)})
	default:
		rng := p.addExtraParams(params)
		rec := ast.AddExtra(p.tree, ast.FnProtoData{ParamsStart: rng.Start, ParamsEnd: rng.End, Align: alignExpr, Section: sectionExpr, Callconv: callconvExpr})
		proto = p.tree.AddNode(ast.FnProto, fnTok, ast.Data{LHS: rec, RHS: uint32(returnType)})
	}

	if _, ok := p.eat(token.Semicolon); ok {
		// extern fn prototype with no body.
		return p.tree.AddNode(ast.FnDecl, fnTok, ast.Data{LHS: uint32(proto), RHS: 0}), true
	}
	body, _ := p.parseBlock()
	return p.tree.AddNode(ast.FnDecl, fnTok, ast.Data{LHS: uint32(proto), RHS: uint32(body)}), true
}

// ============================================================
// Statements
// ============================================================

func (p *parser) parseBlock() (ast.Index, bool) {
	lbrace := p.expect(token.LBrace)
	var stmts []ast.Index
	for p.cur() != token.RBrace && p.cur() != token.Eof {
		if p.skipDocComments() && (p.cur() == token.RBrace || p.cur() == token.Eof) {
			p.errorf(ast.ErrUnattachedDocComment, token.Invalid)
			break
		}
		start := p.pos
		if s, ok := p.parseStatement(); ok {
			stmts = append(stmts, s)
		}
		if p.pos == start {
			p.advance()
		}
	}
	rbrace := p.expect(token.RBrace)
	rng := p.addExtraRange(stmts)
	rec := ast.AddExtra(p.tree, rng)
	tag := ast.Block
	// Statement spans stop before their terminating ';', so mark a block
	// whose last statement is followed by one uncovered ';' before '}'.
	if len(stmts) > 0 && p.tree.TokenTag(rbrace) == token.RBrace && p.tree.TokenTag(rbrace-1) == token.Semicolon &&
		p.tree.LastToken(stmts[len(stmts)-1]) != rbrace-1 {
		tag = ast.BlockSemicolon
	}
	return p.tree.AddNode(tag, lbrace, ast.Data{LHS: rec}), true
}

func (p *parser) parseStatement() (ast.Index, bool) {
	switch p.cur() {
	case token.KeywordConst, token.KeywordVar:
		return p.parseVarDeclStatement(false)
	case token.KeywordIf:
		return p.parseIf()
	case token.KeywordWhile:
		return p.parseWhile(token.NoToken)
	case token.KeywordFor:
		return p.parseFor(token.NoToken)
	case token.Identifier:
		if p.curAt(1) == token.Colon {
			switch p.curAt(2) {
			case token.KeywordWhile:
				label := p.advance()
				p.advance() // ':'
				return p.parseWhile(token.Some(label))
			case token.KeywordFor:
				label := p.advance()
				p.advance()
				return p.parseFor(token.Some(label))
			case token.LBrace:
				label := p.advance()
				p.advance()
				body, _ := p.parseBlock()
				return p.tree.AddNode(ast.LabeledBlock, label, p.tree.NodeData(body)), true
			}
		}
	case token.LBrace:
		return p.parseBlock()
	case token.KeywordReturn:
		main := p.advance()
		var val ast.Index
		if p.cur() != token.Semicolon {
			val, _ = p.parseExpr()
		}
		p.expect(token.Semicolon)
		return p.tree.AddNode(ast.Return, main, ast.Data{LHS: uint32(val)}), true
	case token.KeywordBreak:
		main := p.advance()
		p.expect(token.Semicolon)
		return p.tree.AddNode(ast.Break, main, ast.Data{}), true
	case token.KeywordContinue:
		main := p.advance()
		p.expect(token.Semicolon)
		return p.tree.AddNode(ast.Continue, main, ast.Data{}), true
	case token.KeywordDefer:
		main := p.advance()
		expr, _ := p.parseExpr()
		p.expect(token.Semicolon)
		return p.tree.AddNode(ast.Defer, main, ast.Data{LHS: uint32(expr)}), true
	case token.KeywordErrdefer:
		main := p.advance()
		expr, _ := p.parseExpr()
		p.expect(token.Semicolon)
		return p.tree.AddNode(ast.Errdefer, main, ast.Data{LHS: uint32(expr)}), true
	case token.Semicolon:
		main := p.advance()
		return p.tree.AddNode(ast.ExprStmt, main, ast.Data{}), true
	}

	main := p.pos
	expr, ok := p.parseExpr()
	if !ok {
		return 0, false
	}
	p.expect(token.Semicolon)
	return p.tree.AddNode(ast.ExprStmt, main, ast.Data{LHS: uint32(expr)}), true
}

func (p *parser) parseIf() (ast.Index, bool) {
	main := p.advance()
	p.expect(token.LParen)
	cond, _ := p.parseExpr()
	p.expect(token.RParen)
	then, _ := p.parseStatement()
	if _, ok := p.eat(token.KeywordElse); ok {
		elseExpr, _ := p.parseStatement()
		rec := ast.AddExtra(p.tree, ast.IfData{Then: then, Else: elseExpr})
		return p.tree.AddNode(ast.If, main, ast.Data{LHS: uint32(cond), RHS: rec}), true
	}
	return p.tree.AddNode(ast.IfSimple, main, ast.Data{LHS: uint32(cond), RHS: uint32(then)}), true
}

// skipPayloadCapture consumes an optional "|name|" capture without
// attaching it to any node: like skipDocComments, the tokens stay in
// the stream and WhileView/ForView recover them positionally (the
// capture always sits immediately after the token that precedes it,
// so no storage is needed to find it again).
func (p *parser) skipPayloadCapture() {
	if _, ok := p.eat(token.Pipe); ok {
		p.expect(token.Identifier)
		p.expect(token.Pipe)
	}
}

func (p *parser) parseWhile(label token.OptionalIndex) (ast.Index, bool) {
	main := p.advance()
	p.expect(token.LParen)
	cond, _ := p.parseExpr()
	p.expect(token.RParen)
	p.skipPayloadCapture()

	var contExpr ast.Index
	hasCont := false
	if _, ok := p.eat(token.Colon); ok {
		p.expect(token.LParen)
		contExpr, _ = p.parseExpr()
		p.expect(token.RParen)
		hasCont = true
	}

	then, _ := p.parseStatement()

	if _, ok := p.eat(token.KeywordElse); ok {
		p.skipPayloadCapture()
		elseExpr, _ := p.parseStatement()
		rec := ast.AddExtra(p.tree, ast.WhileData{Cont: contExpr, Then: then, Else: elseExpr})
		return p.tree.AddNode(ast.While, main, ast.Data{LHS: uint32(cond), RHS: rec}), true
	}
	if hasCont {
		rec := ast.AddExtra(p.tree, ast.WhileContData{Cont: contExpr, Then: then})
		return p.tree.AddNode(ast.WhileCont, main, ast.Data{LHS: uint32(cond), RHS: rec}), true
	}
	_ = label // label token recovery is handled by geometry's backward scan, not stored here
	return p.tree.AddNode(ast.WhileSimple, main, ast.Data{LHS: uint32(cond), RHS: uint32(then)}), true
}

func (p *parser) parseFor(label token.OptionalIndex) (ast.Index, bool) {
	main := p.advance()
	p.expect(token.LParen)
	rangeExpr, _ := p.parseExpr()
	p.expect(token.RParen)
	p.skipPayloadCapture()
	then, _ := p.parseStatement()
	if _, ok := p.eat(token.KeywordElse); ok {
		p.skipPayloadCapture()
		elseExpr, _ := p.parseStatement()
		rec := ast.AddExtra(p.tree, ast.IfData{Then: then, Else: elseExpr})
		return p.tree.AddNode(ast.For, main, ast.Data{LHS: uint32(rangeExpr), RHS: rec}), true
	}
	_ = label
	return p.tree.AddNode(ast.ForSimple, main, ast.Data{LHS: uint32(rangeExpr), RHS: uint32(then)}), true
}

// ============================================================
// Expressions: precedence-climbing chain, carried from mexpr's
// binding-power table but expressed as one recursive-descent function
// per level rather than a single generalized Pratt loop, since each
// zx level maps to a distinct ast.Tag rather than a uniform node shape.
// ============================================================

func (p *parser) parseExpr() (ast.Index, bool) { return p.parseAssign() }

var assignOps = map[token.Tag]ast.Tag{
	token.Equal:               ast.Assign,
	token.PlusEqual:           ast.AssignAdd,
	token.MinusEqual:          ast.AssignSub,
	token.AsteriskEqual:       ast.AssignMul,
	token.SlashEqual:          ast.AssignDiv,
	token.PercentEqual:        ast.AssignMod,
	token.AmpersandEqual:      ast.AssignBitAnd,
	token.PipeEqual:           ast.AssignBitOr,
	token.CaretEqual:          ast.AssignBitXor,
	token.LessLessEqual:       ast.AssignShl,
	token.GreaterGreaterEqual: ast.AssignShr,
}

func (p *parser) parseAssign() (ast.Index, bool) {
	lhs, ok := p.parseOrElseCatch()
	if !ok {
		return lhs, false
	}
	if tag, found := assignOps[p.cur()]; found {
		main := p.advance()
		rhs, _ := p.parseOrElseCatch()
		return p.tree.AddNode(tag, main, ast.Data{LHS: uint32(lhs), RHS: uint32(rhs)}), true
	}
	return lhs, true
}

func (p *parser) parseOrElseCatch() (ast.Index, bool) {
	lhs, ok := p.parseBoolOr()
	if !ok {
		return lhs, false
	}
	for {
		switch p.cur() {
		case token.KeywordOrelse:
			main := p.advance()
			rhs, _ := p.parseBoolOr()
			lhs = p.tree.AddNode(ast.OrElse, main, ast.Data{LHS: uint32(lhs), RHS: uint32(rhs)})
		case token.KeywordCatch:
			main := p.advance()
			if _, ok := p.eat(token.Pipe); ok {
				p.expect(token.Identifier)
				p.expect(token.Pipe)
			}
			rhs, _ := p.parseBoolOr()
			lhs = p.tree.AddNode(ast.Catch, main, ast.Data{LHS: uint32(lhs), RHS: uint32(rhs)})
		default:
			return lhs, true
		}
	}
}

func (p *parser) parseBoolOr() (ast.Index, bool) {
	lhs, ok := p.parseBoolAnd()
	if !ok {
		return lhs, false
	}
	for p.cur() == token.PipePipe {
		main := p.advance()
		rhs, _ := p.parseBoolAnd()
		lhs = p.tree.AddNode(ast.BoolOr, main, ast.Data{LHS: uint32(lhs), RHS: uint32(rhs)})
	}
	return lhs, true
}

func (p *parser) parseBoolAnd() (ast.Index, bool) {
	lhs, ok := p.parseComparison()
	if !ok {
		return lhs, false
	}
	for p.cur() == token.AmpersandAmpersand {
		// zx, like the language this grammar is drawn from, has no
		// short-circuit "&&" spelling; this is always a user mistake,
		// recorded and recovered as BoolAnd so the tree stays usable.
		main := p.advance()
		p.errorf(ast.ErrInvalidAndAnd, token.Invalid)
		rhs, _ := p.parseComparison()
		lhs = p.tree.AddNode(ast.BoolAnd, main, ast.Data{LHS: uint32(lhs), RHS: uint32(rhs)})
	}
	return lhs, true
}

var comparisonOps = map[token.Tag]ast.Tag{
	token.EqualEqual:   ast.Equal,
	token.BangEqual:    ast.NotEqual,
	token.Less:         ast.LessThan,
	token.Greater:      ast.GreaterThan,
	token.LessEqual:    ast.LessOrEqual,
	token.GreaterEqual: ast.GreaterOrEqual,
}

func (p *parser) parseComparison() (ast.Index, bool) {
	lhs, ok := p.parseBitwise()
	if !ok {
		return lhs, false
	}
	if tag, found := comparisonOps[p.cur()]; found {
		main := p.advance()
		rhs, _ := p.parseBitwise()
		return p.tree.AddNode(tag, main, ast.Data{LHS: uint32(lhs), RHS: uint32(rhs)}), true
	}
	return lhs, true
}

var bitwiseOps = map[token.Tag]ast.Tag{
	token.Ampersand: ast.BitAnd,
	token.Pipe:      ast.BitOr,
	token.Caret:     ast.BitXor,
}

func (p *parser) parseBitwise() (ast.Index, bool) {
	lhs, ok := p.parseShift()
	if !ok {
		return lhs, false
	}
	for {
		tag, found := bitwiseOps[p.cur()]
		if !found {
			return lhs, true
		}
		main := p.advance()
		rhs, _ := p.parseShift()
		lhs = p.tree.AddNode(tag, main, ast.Data{LHS: uint32(lhs), RHS: uint32(rhs)})
	}
}

func (p *parser) parseShift() (ast.Index, bool) {
	lhs, ok := p.parseAdditive()
	if !ok {
		return lhs, false
	}
	for {
		var tag ast.Tag
		switch p.cur() {
		case token.LessLess:
			tag = ast.Shl
		case token.GreaterGreater:
			tag = ast.Shr
		default:
			return lhs, true
		}
		main := p.advance()
		rhs, _ := p.parseAdditive()
		lhs = p.tree.AddNode(tag, main, ast.Data{LHS: uint32(lhs), RHS: uint32(rhs)})
	}
}

func (p *parser) parseAdditive() (ast.Index, bool) {
	lhs, ok := p.parseMultiplicative()
	if !ok {
		return lhs, false
	}
	for {
		var tag ast.Tag
		switch p.cur() {
		case token.Plus:
			tag = ast.Add
		case token.Minus:
			tag = ast.Sub
		default:
			return lhs, true
		}
		main := p.advance()
		rhs, _ := p.parseMultiplicative()
		lhs = p.tree.AddNode(tag, main, ast.Data{LHS: uint32(lhs), RHS: uint32(rhs)})
	}
}

func (p *parser) parseMultiplicative() (ast.Index, bool) {
	lhs, ok := p.parseUnary()
	if !ok {
		return lhs, false
	}
	for {
		var tag ast.Tag
		switch p.cur() {
		case token.Asterisk:
			tag = ast.Mul
		case token.Slash:
			tag = ast.Div
		case token.Percent:
			tag = ast.Mod
		default:
			return lhs, true
		}
		main := p.advance()
		rhs, _ := p.parseUnary()
		lhs = p.tree.AddNode(tag, main, ast.Data{LHS: uint32(lhs), RHS: uint32(rhs)})
	}
}

var unaryOps = map[token.Tag]ast.Tag{
	token.Bang:              ast.BoolNot,
	token.Minus:              ast.Negation,
	token.Tilde:              ast.BitNot,
	token.Ampersand:          ast.AddressOf,
	token.KeywordTry:         ast.Try,
	token.KeywordAwait:       ast.Await,
	token.KeywordResume:      ast.Resume,
	token.KeywordNosuspend:   ast.NosuspendExpr,
	token.KeywordComptime:    ast.ComptimeExpr,
	token.KeywordCancel:      ast.CancelExpr,
}

func (p *parser) parseUnary() (ast.Index, bool) {
	if tag, found := unaryOps[p.cur()]; found {
		main := p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			return 0, false
		}
		return p.tree.AddNode(tag, main, ast.Data{LHS: uint32(operand)}), true
	}
	if p.cur() == token.KeywordAsync {
		return p.parseAsyncCall()
	}
	return p.parsePostfix()
}

func (p *parser) parseAsyncCall() (ast.Index, bool) {
	p.advance() // 'async'
	callee, _ := p.parsePrimary()
	return p.finishCall(callee, true)
}

func (p *parser) parsePostfix() (ast.Index, bool) {
	n, ok := p.parsePrimary()
	if !ok {
		return n, false
	}
	for {
		switch p.cur() {
		case token.Dot:
			if p.curAt(1) == token.QuestionMark {
				main := p.advance()
				p.advance()
				n = p.tree.AddNode(ast.UnwrapOptional, main, ast.Data{LHS: uint32(n)})
				continue
			}
			if p.curAt(1) == token.Asterisk {
				main := p.advance()
				p.advance()
				n = p.tree.AddNode(ast.Deref, main, ast.Data{LHS: uint32(n)})
				continue
			}
			p.advance()
			main := p.expect(token.Identifier)
			n = p.tree.AddNode(ast.FieldAccess, main, ast.Data{LHS: uint32(n)})
		case token.LBracket:
			n = p.finishIndexOrSlice(n)
		case token.LParen:
			var ok2 bool
			n, ok2 = p.finishCall(n, false)
			if !ok2 {
				return n, false
			}
		default:
			return n, true
		}
	}
}

func (p *parser) finishCall(callee ast.Index, async bool) (ast.Index, bool) {
	p.expect(token.LParen)
	var args []ast.Index
	comma := false
	for p.cur() != token.RParen && p.cur() != token.Eof {
		arg, _ := p.parseExpr()
		args = append(args, arg)
		if _, ok := p.eat(token.Comma); ok {
			comma = true
		} else {
			comma = false
			break
		}
	}
	p.expect(token.RParen)

	switch {
	case len(args) <= 1:
		var rhs uint32
		if len(args) == 1 {
			rhs = uint32(args[0])
		}
		tag := ast.CallOne
		switch {
		case async && comma:
			tag = ast.AsyncCallOneComma
		case async:
			tag = ast.AsyncCallOne
		case comma:
			tag = ast.CallOneComma
		}
		return p.tree.AddNode(tag, p.posBefore(), ast.Data{LHS: uint32(callee), RHS: rhs}), true
	default:
		rng := p.addExtraRange(args)
		rec := ast.AddExtra(p.tree, rng)
		tag := ast.Call
		switch {
		case async && comma:
			tag = ast.AsyncCallComma
		case async:
			tag = ast.AsyncCall
		case comma:
			tag = ast.CallComma
		}
		return p.tree.AddNode(tag, p.posBefore(), ast.Data{LHS: uint32(callee), RHS: rec}), true
	}
}

// posBefore returns the token just before the cursor; callers invoke it
// immediately after consuming the closing ')', so a call's main_token is
// that ')'. Geometry uses it as the last token of a call with no
// arguments; otherwise the span is derived from lhs/rhs.
func (p *parser) posBefore() token.Index {
	if p.pos == 0 {
		return 0
	}
	return p.pos - 1
}

func (p *parser) finishIndexOrSlice(n ast.Index) ast.Index {
	lbracket := p.advance()
	start, _ := p.parseExpr()
	if _, ok := p.eat(token.DotDot); !ok {
		p.expect(token.RBracket)
		return p.tree.AddNode(ast.ArrayAccess, lbracket, ast.Data{LHS: uint32(n), RHS: uint32(start)})
	}
	if p.cur() == token.RBracket {
		p.advance()
		return p.tree.AddNode(ast.SliceOpen, lbracket, ast.Data{LHS: uint32(n), RHS: uint32(start)})
	}
	end, _ := p.parseExpr()
	if _, ok := p.eat(token.Colon); ok {
		sentinel, _ := p.parseExpr()
		p.expect(token.RBracket)
		rec := ast.AddExtra(p.tree, ast.SliceSentinelData{Start: start, End: end, Sentinel: sentinel})
		return p.tree.AddNode(ast.SliceSentinel, lbracket, ast.Data{LHS: uint32(n), RHS: rec})
	}
	p.expect(token.RBracket)
	rec := ast.AddExtra(p.tree, ast.SliceData{Start: start, End: end})
	return p.tree.AddNode(ast.Slice, lbracket, ast.Data{LHS: uint32(n), RHS: rec})
}

func (p *parser) parsePrimary() (ast.Index, bool) {
	switch p.cur() {
	case token.IntLiteral:
		return p.tree.AddNode(ast.IntegerLiteral, p.advance(), ast.Data{}), true
	case token.FloatLiteral:
		return p.tree.AddNode(ast.FloatLiteral, p.advance(), ast.Data{}), true
	case token.CharLiteral:
		return p.tree.AddNode(ast.CharLiteral, p.advance(), ast.Data{}), true
	case token.StringLiteral:
		return p.tree.AddNode(ast.StringLiteral, p.advance(), ast.Data{}), true
	case token.MultilineStringLiteralLine:
		return p.tree.AddNode(ast.MultilineStringLiteral, p.advance(), ast.Data{}), true
	case token.KeywordTrue:
		return p.tree.AddNode(ast.TrueLiteral, p.advance(), ast.Data{}), true
	case token.KeywordFalse:
		return p.tree.AddNode(ast.FalseLiteral, p.advance(), ast.Data{}), true
	case token.KeywordNull:
		return p.tree.AddNode(ast.NullLiteral, p.advance(), ast.Data{}), true
	case token.KeywordUndefined:
		return p.tree.AddNode(ast.UndefinedLiteral, p.advance(), ast.Data{}), true
	case token.KeywordUnreachable:
		return p.tree.AddNode(ast.UnreachableLiteral, p.advance(), ast.Data{}), true
	case token.KeywordAnyframe:
		return p.tree.AddNode(ast.AnyframeLiteral, p.advance(), ast.Data{}), true
	case token.KeywordSuspend:
		return p.tree.AddNode(ast.SuspendExpr, p.advance(), ast.Data{}), true
	case token.Identifier:
		return p.tree.AddNode(ast.Identifier, p.advance(), ast.Data{}), true
	case token.KeywordError:
		errTok := p.advance()
		p.expect(token.Dot)
		main := p.expect(token.Identifier)
		return p.tree.AddNode(ast.ErrorValue, main, ast.Data{LHS: uint32(errTok)}), true
	case token.Dot:
		return p.parseDotPrefixed()
	case token.LParen:
		p.advance()
		inner, _ := p.parseExpr()
		p.expect(token.RParen)
		return inner, true
	case token.QuestionMark:
		main := p.advance()
		elem, _ := p.parseTypeExpr()
		return p.tree.AddNode(ast.OptionalType, main, ast.Data{LHS: uint32(elem)}), true
	case token.Asterisk, token.AsteriskAsterisk, token.LBracket:
		return p.parseTypeExpr()
	case token.KeywordStruct, token.KeywordUnion, token.KeywordEnum, token.KeywordOpaque:
		return p.parseContainerDecl()
	case token.KeywordAsm:
		return p.parseAsm()
	case token.KeywordIf:
		return p.parseIfExpr()
	case token.KeywordWhile:
		return p.parseWhile(token.NoToken)
	case token.KeywordFor:
		return p.parseFor(token.NoToken)
	case token.KeywordSwitch:
		return p.parseSwitch()
	}
	p.errorf(ast.ErrExpectedExpression, token.Invalid)
	return 0, false
}

// parseSwitch parses `switch (cond) { case, ... }`; each case is one or
// more comma-separated values (or 'else') followed by '->' and a target
// expression. '->' is otherwise unused in this grammar (fn return types
// follow ')' directly with no separator), so it is reserved as the
// case-target separator here rather than introducing a new token.
func (p *parser) parseSwitch() (ast.Index, bool) {
	main := p.advance() // 'switch'
	p.expect(token.LParen)
	cond, _ := p.parseExpr()
	p.expect(token.RParen)
	p.expect(token.LBrace)
	var cases []ast.Index
	for p.cur() != token.RBrace && p.cur() != token.Eof {
		c, ok := p.parseSwitchCase()
		if ok {
			cases = append(cases, c)
		}
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RBrace)
	rng := p.addExtraRange(cases)
	rec := ast.AddExtra(p.tree, rng)
	return p.tree.AddNode(ast.SwitchExpr, main, ast.Data{LHS: uint32(cond), RHS: rec}), true
}

func (p *parser) parseSwitchCase() (ast.Index, bool) {
	main := p.pos
	var values []ast.Index
	if p.cur() == token.KeywordElse {
		p.advance()
	} else {
		for {
			v, _ := p.parseExpr()
			values = append(values, v)
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
			if p.cur() == token.Arrow {
				break
			}
		}
	}
	p.expect(token.Arrow)
	target, _ := p.parseExpr()

	switch len(values) {
	case 0:
		return p.tree.AddNode(ast.SwitchCaseOne, main, ast.Data{RHS: uint32(target)}), true
	case 1:
		return p.tree.AddNode(ast.SwitchCaseOne, main, ast.Data{LHS: uint32(values[0]), RHS: uint32(target)}), true
	default:
		rng := p.addExtraRange(values)
		rec := ast.AddExtra(p.tree, rng)
		return p.tree.AddNode(ast.SwitchCase, main, ast.Data{LHS: rec, RHS: uint32(target)}), true
	}
}

// parseIfExpr reuses statement-position if-parsing: zx, like the
// language this grammar is drawn from, allows if/while/for in
// expression position with the same grammar as in statement position.
func (p *parser) parseIfExpr() (ast.Index, bool) { return p.parseIf() }

func (p *parser) parseDotPrefixed() (ast.Index, bool) {
	dot := p.advance()
	switch p.cur() {
	case token.LBrace:
		return p.parseStructOrArrayInitDot(dot)
	case token.Identifier:
		main := p.advance()
		return p.tree.AddNode(ast.EnumLiteral, main, ast.Data{}), true
	}
	p.errorf(ast.ErrExpectedExpression, token.Invalid)
	return 0, false
}

// parseStructOrArrayInitDot disambiguates `.{ ... }` by peeking for a
// leading `identifier :` field name, matching the teacher's
// lookahead-driven disambiguation style elsewhere in the lexer.
func (p *parser) parseStructOrArrayInitDot(dot token.Index) (ast.Index, bool) {
	p.advance() // '{'
	if p.cur() == token.RBrace {
		p.advance()
		rng := p.addExtraRange(nil)
		rec := ast.AddExtra(p.tree, rng)
		return p.tree.AddNode(ast.StructInitDot, dot, ast.Data{LHS: rec}), true
	}
	if p.cur() == token.Identifier && p.curAt(1) == token.Colon {
		return p.finishStructInit(dot, ast.Null)
	}
	return p.finishArrayInit(dot, ast.Null)
}

func (p *parser) finishStructInit(mainTok token.Index, typeExpr ast.Index) (ast.Index, bool) {
	var fields []ast.Index
	comma := false
	for p.cur() != token.RBrace && p.cur() != token.Eof {
		nameTok := p.expect(token.Identifier)
		p.expect(token.Colon)
		val, _ := p.parseExpr()
		field := p.tree.AddNode(ast.ContainerFieldInit, nameTok, ast.Data{RHS: uint32(val)})
		fields = append(fields, field)
		if _, ok := p.eat(token.Comma); ok {
			comma = true
		} else {
			comma = false
			break
		}
	}
	p.expect(token.RBrace)
	rng := p.addExtraRange(fields)
	if typeExpr == ast.Null {
		rec := ast.AddExtra(p.tree, rng)
		tag := ast.StructInitDot
		if comma {
			tag = ast.StructInitDotComma
		}
		return p.tree.AddNode(tag, mainTok, ast.Data{LHS: rec}), true
	}
	rec := ast.AddExtra(p.tree, rng)
	tag := ast.StructInit
	if comma {
		tag = ast.StructInitComma
	}
	return p.tree.AddNode(tag, mainTok, ast.Data{LHS: uint32(typeExpr), RHS: rec}), true
}

func (p *parser) finishArrayInit(mainTok token.Index, typeExpr ast.Index) (ast.Index, bool) {
	var elems []ast.Index
	comma := false
	for p.cur() != token.RBrace && p.cur() != token.Eof {
		elem, _ := p.parseExpr()
		elems = append(elems, elem)
		if _, ok := p.eat(token.Comma); ok {
			comma = true
		} else {
			comma = false
			break
		}
	}
	p.expect(token.RBrace)
	rng := p.addExtraRange(elems)
	if typeExpr == ast.Null {
		rec := ast.AddExtra(p.tree, rng)
		tag := ast.ArrayInitDot
		if comma {
			tag = ast.ArrayInitDotComma
		}
		return p.tree.AddNode(tag, mainTok, ast.Data{LHS: rec}), true
	}
	rec := ast.AddExtra(p.tree, rng)
	tag := ast.ArrayInit
	if comma {
		tag = ast.ArrayInitComma
	}
	return p.tree.AddNode(tag, mainTok, ast.Data{LHS: uint32(typeExpr), RHS: rec}), true
}

// ============================================================
// Type expressions
// ============================================================

func (p *parser) parseTypeExpr() (ast.Index, bool) {
	switch p.cur() {
	case token.Asterisk, token.AsteriskAsterisk:
		return p.parsePtrType()
	case token.LBracket:
		return p.parseArrayOrSliceType()
	case token.KeywordAnyframe:
		if p.curAt(1) == token.Arrow {
			main := p.advance()
			p.advance()
			result, _ := p.parseTypeExpr()
			return p.tree.AddNode(ast.AnyframeType, main, ast.Data{RHS: uint32(result)}), true
		}
	case token.KeywordStruct, token.KeywordUnion, token.KeywordEnum, token.KeywordOpaque:
		return p.parseContainerDecl()
	}
	return p.parseExpr()
}

func (p *parser) parsePtrType() (ast.Index, bool) {
	main := p.advance() // '*' or '**'
	var alignExpr, sentinel ast.Index
	var bitStart, bitEnd ast.Index
	hasBitRange := false
	if _, ok := p.eat(token.KeywordAlign); ok {
		p.expect(token.LParen)
		alignExpr, _ = p.parseExpr()
		if _, ok := p.eat(token.Colon); ok {
			bitStart, _ = p.parseExpr()
			p.expect(token.Colon)
			bitEnd, _ = p.parseExpr()
			hasBitRange = true
		}
		p.expect(token.RParen)
	}
	p.skipPtrModifiers()
	elem, _ := p.parseTypeExpr()
	if hasBitRange {
		rec := ast.AddExtra(p.tree, ast.PtrTypeBitRangeData{Sentinel: sentinel, Align: alignExpr, BitStart: bitStart, BitEnd: bitEnd})
		return p.tree.AddNode(ast.PtrTypeBitRange, main, ast.Data{LHS: rec, RHS: uint32(elem)}), true
	}
	rec := ast.AddExtra(p.tree, ast.PtrTypeData{Sentinel: sentinel, Align: alignExpr})
	return p.tree.AddNode(ast.PtrTypeAligned, main, ast.Data{LHS: rec, RHS: uint32(elem)}), true
}

func (p *parser) skipPtrModifiers() {
	for {
		switch p.cur() {
		case token.KeywordConst, token.KeywordVolatile:
			p.advance()
		default:
			return
		}
	}
}

func (p *parser) parseArrayOrSliceType() (ast.Index, bool) {
	lbracket := p.advance()
	if _, ok := p.eat(token.RBracket); ok {
		p.skipPtrModifiers()
		elem, _ := p.parseTypeExpr()
		rec := ast.AddExtra(p.tree, ast.PtrTypeData{})
		return p.tree.AddNode(ast.SliceType, lbracket, ast.Data{LHS: rec, RHS: uint32(elem)}), true
	}
	if _, ok := p.eat(token.Colon); ok {
		sentinel, _ := p.parseExpr()
		p.expect(token.RBracket)
		p.skipPtrModifiers()
		elem, _ := p.parseTypeExpr()
		rec := ast.AddExtra(p.tree, ast.PtrTypeData{Sentinel: sentinel})
		return p.tree.AddNode(ast.SliceType, lbracket, ast.Data{LHS: rec, RHS: uint32(elem)}), true
	}
	if p.cur() == token.Asterisk {
		p.advance()
		var sentinel ast.Index
		if _, ok := p.eat(token.Colon); ok {
			sentinel, _ = p.parseExpr()
		}
		p.expect(token.RBracket)
		p.skipPtrModifiers()
		elem, _ := p.parseTypeExpr()
		rec := ast.AddExtra(p.tree, ast.PtrTypeData{Sentinel: sentinel})
		return p.tree.AddNode(ast.PtrTypeSentinel, lbracket, ast.Data{LHS: rec, RHS: uint32(elem)}), true
	}
	lenExpr, _ := p.parseExpr()
	if _, ok := p.eat(token.Colon); ok {
		sentinel, _ := p.parseExpr()
		p.expect(token.RBracket)
		elem, _ := p.parseTypeExpr()
		rec := ast.AddExtra(p.tree, ast.ArrayTypeSentinelData{ElemType: elem, Sentinel: sentinel})
		return p.tree.AddNode(ast.ArrayTypeSentinel, lbracket, ast.Data{LHS: uint32(lenExpr), RHS: rec}), true
	}
	p.expect(token.RBracket)
	elem, _ := p.parseTypeExpr()
	return p.tree.AddNode(ast.ArrayType, lbracket, ast.Data{LHS: uint32(lenExpr), RHS: uint32(elem)}), true
}

// ============================================================
// Containers
// ============================================================

func (p *parser) parseContainerDecl() (ast.Index, bool) {
	main := p.advance() // struct/union/enum/opaque

	var argExpr ast.Index
	taggedUnion := false
	taggedUnionEnumTag := false
	if p.tree.TokenTag(main) == token.KeywordUnion {
		if _, ok := p.eat(token.LParen); ok {
			if _, ok := p.eat(token.KeywordEnum); ok {
				taggedUnion = true
				if _, ok := p.eat(token.LParen); ok {
					argExpr, _ = p.parseExpr()
					p.expect(token.RParen)
					taggedUnionEnumTag = true
				}
			} else {
				argExpr, _ = p.parseExpr()
			}
			p.expect(token.RParen)
		}
	} else if _, ok := p.eat(token.LParen); ok {
		argExpr, _ = p.parseExpr()
		p.expect(token.RParen)
	}

	p.expect(token.LBrace)
	var members []ast.Index
	comma := false
	for p.cur() != token.RBrace && p.cur() != token.Eof {
		if p.skipDocComments() && (p.cur() == token.RBrace || p.cur() == token.Eof) {
			p.errorf(ast.ErrUnattachedDocComment, token.Invalid)
			break
		}
		field, ok := p.parseContainerField()
		if !ok {
			p.advance()
			continue
		}
		members = append(members, field)
		if _, ok := p.eat(token.Comma); ok {
			comma = true
		} else {
			comma = false
			break
		}
	}
	p.expect(token.RBrace)

	rng := p.addExtraRange(members)
	rec := ast.AddExtra(p.tree, rng)
	data := ast.Data{LHS: uint32(argExpr), RHS: rec}

	switch {
	case taggedUnionEnumTag:
		return p.tree.AddNode(ast.TaggedUnionEnumTag, main, data), true
	case taggedUnion:
		tag := ast.TaggedUnion
		if comma {
			tag = ast.TaggedUnionComma
		}
		return p.tree.AddNode(tag, main, data), true
	}

	switch p.tree.TokenTag(main) {
	case token.KeywordStruct:
		tag := ast.ContainerDeclStruct
		if comma {
			tag = ast.ContainerDeclStructComma
		}
		return p.tree.AddNode(tag, main, data), true
	case token.KeywordUnion:
		tag := ast.ContainerDeclUnion
		if comma {
			tag = ast.ContainerDeclUnionComma
		}
		return p.tree.AddNode(tag, main, data), true
	case token.KeywordEnum:
		tag := ast.ContainerDeclEnum
		if comma {
			tag = ast.ContainerDeclEnumComma
		}
		return p.tree.AddNode(tag, main, data), true
	default: // opaque
		return p.tree.AddNode(ast.ContainerDeclOpaque, main, data), true
	}
}

func (p *parser) parseContainerField() (ast.Index, bool) {
	// A leading "comptime" is consumed but not stored on the node:
	// ContainerFieldView recovers it with the same backward token scan
	// firstToken uses, rather than carrying a redundant field.
	p.eat(token.KeywordComptime)
	name := p.expect(token.Identifier)

	var typeExpr ast.Index
	if _, ok := p.eat(token.Colon); ok {
		typeExpr, _ = p.parseTypeExpr()
	}

	var alignExpr ast.Index
	if _, ok := p.eat(token.KeywordAlign); ok {
		p.expect(token.LParen)
		alignExpr, _ = p.parseExpr()
		p.expect(token.RParen)
	}

	var value ast.Index
	if _, ok := p.eat(token.Equal); ok {
		value, _ = p.parseExpr()
	}

	switch {
	case alignExpr == 0 && value == 0:
		return p.tree.AddNode(ast.ContainerFieldSimple, name, ast.Data{LHS: uint32(typeExpr)}), true
	case alignExpr == 0:
		return p.tree.AddNode(ast.ContainerFieldInit, name, ast.Data{LHS: uint32(typeExpr), RHS: uint32(value)}), true
	default:
		rec := ast.AddExtra(p.tree, ast.ContainerField{Value: value, Align: alignExpr})
		return p.tree.AddNode(ast.ContainerFieldAlign, name, ast.Data{LHS: uint32(typeExpr), RHS: rec}), true
	}
}

// ============================================================
// Inline assembly
// ============================================================

func (p *parser) parseAsm() (ast.Index, bool) {
	main := p.advance()
	p.expect(token.LParen)
	template := p.expect(token.StringLiteral)

	if p.cur() == token.RParen {
		rparen := p.advance()
		return p.tree.AddNode(ast.AsmSimple, main, ast.Data{LHS: uint32(template), RHS: uint32(rparen)}), true
	}

	var items []ast.Index
	for _, ok := p.eat(token.Colon); ok; _, ok = p.eat(token.Colon) {
		for p.cur() != token.Colon && p.cur() != token.RParen && p.cur() != token.Eof {
			item, _ := p.parseExpr()
			items = append(items, item)
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
		}
	}
	rparen := p.expect(token.RParen)
	rng := p.addExtraRange(items)
	rec := ast.AddExtra(p.tree, ast.AsmData{ItemsStart: rng.Start, ItemsEnd: rng.End, RParenToken: rparen})
	return p.tree.AddNode(ast.Asm, main, ast.Data{LHS: uint32(template), RHS: rec}), true
}
