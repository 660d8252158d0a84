// Package render is the canonical pretty-printer: it walks an
// ast.Tree purely through NodeViews and TokenGeometry (never touching
// source bytes except to recover comments and literal lexemes) and
// produces deterministic, re-parseable output.
package render

import (
	"errors"
	"fmt"

	"github.com/gmofishsauce/wut4/lang/zxfmt/ast"
	"github.com/gmofishsauce/wut4/lang/zxfmt/token"
)

// ErrHasParseErrors is returned when Tree carries recorded parse
// errors: the renderer's contract (spec.md §4.3) refuses to format a
// tree it cannot trust the shape of.
var ErrHasParseErrors = errors.New("render: tree has parse errors")

// Space is the separator an emitter hands to renderToken, selecting
// what comes after the token besides its own text (spec.md §4.3).
type Space int

const (
	SpaceNone Space = iota
	SpaceSpace
	SpaceNewline
	SpaceComma
	SpaceCommaSpace
	SpaceSemicolon
	SpaceNoComment
)

// Tree renders tree to canonical formatted source. It is the only
// entry point render exposes; callers never construct a renderer
// themselves.
func Tree(tree *ast.Tree) (out []byte, err error) {
	if len(tree.Errors) > 0 {
		return nil, ErrHasParseErrors
	}
	defer func() {
		if r := recover(); r != nil {
			if r == ast.ErrOutOfMemory {
				err = ast.ErrOutOfMemory
				return
			}
			panic(r)
		}
	}()
	r := &renderer{tree: tree, sink: newIndentingSink()}
	decls := tree.RootDecls()
	for i, d := range decls {
		if i > 0 {
			r.blankLinePreserving(d)
		}
		r.renderTopLevelDecl(d)
	}
	return r.sink.bytes(), nil
}

type renderer struct {
	tree *ast.Tree
	sink *indentingSink
}

// renderToken writes a token's lexeme (or a fixed-spelling keyword)
// followed by the given Space directive. No comments are written here:
// plain comments are not tokens, and doc comments are emitted by
// renderDocComments.
func (r *renderer) renderToken(tok token.Index, space Space) {
	r.sink.writeString(r.tree.TokenLexeme(tok))
	r.afterToken(tok, space)
}

func (r *renderer) afterToken(tok token.Index, space Space) {
	switch space {
	case SpaceNone:
	case SpaceSpace:
		r.sink.writeString(" ")
	case SpaceNewline:
		r.sink.insertNewline()
	case SpaceComma:
		r.maybeConsumeComma(tok)
		r.sink.insertNewline()
	case SpaceCommaSpace:
		r.maybeConsumeComma(tok)
		r.sink.writeString(" ")
	case SpaceSemicolon:
		r.maybeConsumeSemicolon(tok)
		r.sink.insertNewline()
	case SpaceNoComment:
	}
}

func (r *renderer) maybeConsumeComma(after token.Index) {
	if r.tree.TokenTag(after+1) == token.Comma {
		r.sink.writeString(",")
	}
}

func (r *renderer) maybeConsumeSemicolon(after token.Index) {
	if r.tree.TokenTag(after+1) == token.Semicolon {
		r.sink.writeString(";")
	}
}

// blankLinePreserving emits one blank line before n if the source has
// at least two '\n' bytes between the start of the previous token and
// n's first token, counting n's leading doc comments as part of n
// (spec.md §4.3's "extra blank line preservation"). The previous item
// has already ended its own line, so nothing is emitted otherwise.
func (r *renderer) blankLinePreserving(n ast.Index) {
	first := r.tree.FirstToken(n)
	for first > 0 && (r.tree.TokenTag(first-1) == token.DocComment || r.tree.TokenTag(first-1) == token.ContainerDocComment) {
		first--
	}
	if first == 0 {
		return
	}
	prevEnd := r.tree.TokenStart(first - 1)
	curStart := r.tree.TokenStart(first)
	gap := r.tree.Tokens.Source[prevEnd:curStart]
	count := 0
	for _, b := range gap {
		if b == '\n' {
			count++
		}
	}
	if count >= 2 {
		r.sink.insertNewline()
	}
}

func (r *renderer) renderTopLevelDecl(n ast.Index) {
	r.renderDocComments(n)
	r.renderDecl(n)
}

// renderDocComments walks backward from n's first token collecting the
// run of contiguous doc/container-doc comment tokens immediately
// preceding it, then emits each on its own line, in source order
// (spec.md §4.3's "doc comments... emitted as one token per line").
func (r *renderer) renderDocComments(n ast.Index) {
	first := r.tree.FirstToken(n)
	start := first
	for start > 0 {
		tag := r.tree.TokenTag(start - 1)
		if tag != token.DocComment && tag != token.ContainerDocComment {
			break
		}
		start--
	}
	for i := start; i < first; i++ {
		r.sink.writeString(r.tree.TokenLexeme(i))
		r.sink.insertNewline()
	}
}

func (r *renderer) renderDecl(n ast.Index) {
	switch r.tree.NodeTag(n) {
	case ast.SimpleVarDecl, ast.AlignedVarDecl, ast.LocalVarDecl, ast.GlobalVarDecl:
		r.renderVarDecl(n)
	case ast.FnDecl:
		r.renderFnDecl(n)
	case ast.UsingNamespace:
		d := r.tree.NodeData(n)
		main := r.tree.MainToken(n)
		r.renderToken(main, SpaceSpace)
		r.renderExpr(ast.Index(d.LHS))
		r.renderSemicolonAfterExpr(ast.Index(d.LHS))
	default:
		r.renderStatement(n)
	}
}

func (r *renderer) renderVarDecl(n ast.Index) {
	v, ok := r.tree.VarDecl(n)
	if !ok {
		return
	}
	r.renderModifiers(v)
	r.renderToken(v.MutToken, SpaceSpace)
	r.renderToken(v.NameToken, r.spaceAfterVarName(v))
	if v.Type != ast.Null {
		r.renderToken(v.NameToken+1, SpaceSpace) // ':'
		r.renderExpr(v.Type)
	}
	if v.Align != ast.Null {
		r.sink.writeString(" align(")
		r.renderExpr(v.Align)
		r.sink.writeString(")")
	}
	if v.Section != ast.Null {
		r.sink.writeString(" linksection(")
		r.renderExpr(v.Section)
		r.sink.writeString(")")
	}
	if v.InitNode != ast.Null {
		r.sink.writeString(" = ")
		r.renderExpr(v.InitNode)
	}
	r.sink.writeString(";")
	r.sink.insertNewline()
}

func (r *renderer) spaceAfterVarName(v ast.VarDeclView) Space {
	if v.Type != ast.Null || v.Align != ast.Null || v.Section != ast.Null || v.InitNode != ast.Null {
		return SpaceNone
	}
	return SpaceNone
}

func (r *renderer) renderModifiers(v ast.VarDeclView) {
	if tok, ok := v.VisibToken.Unwrap(); ok {
		r.renderToken(tok, SpaceSpace)
	}
	if tok, ok := v.ExternExportToken.Unwrap(); ok {
		r.renderToken(tok, SpaceSpace)
	}
	if tok, ok := v.ThreadlocalToken.Unwrap(); ok {
		r.renderToken(tok, SpaceSpace)
	}
	if tok, ok := v.ComptimeToken.Unwrap(); ok {
		r.renderToken(tok, SpaceSpace)
	}
}

func (r *renderer) renderAlignClause(alignExpr ast.Index) {
	r.sink.writeString("align(")
	r.renderExpr(alignExpr)
	r.sink.writeString(") ")
}

func (r *renderer) renderFnDecl(n ast.Index) {
	d := r.tree.NodeData(n)
	proto := ast.Index(d.LHS)
	body := ast.Index(d.RHS)

	v, ok := r.tree.FnProto(proto)
	if !ok {
		return
	}
	if tok, ok := v.VisibToken.Unwrap(); ok {
		r.renderToken(tok, SpaceSpace)
	}
	if tok, ok := v.ExternToken.Unwrap(); ok {
		r.renderToken(tok, SpaceSpace)
	}
	r.renderToken(v.FnToken, SpaceSpace)
	if tok, ok := v.NameToken.Unwrap(); ok {
		r.renderToken(tok, SpaceNone)
	}
	r.sink.writeString("(")
	for i, param := range v.Params {
		if i > 0 {
			r.sink.writeString(", ")
		}
		r.sink.writeString(r.tree.TokenLexeme(param.NameToken))
		if param.Type != ast.Null {
			r.sink.writeString(": ")
			r.renderExpr(param.Type)
		}
	}
	r.sink.writeString(") ")
	if v.Align != ast.Null {
		r.renderAlignClause(v.Align)
	}
	if v.Section != ast.Null {
		r.sink.writeString("linksection(")
		r.renderExpr(v.Section)
		r.sink.writeString(") ")
	}
	if v.Callconv != ast.Null {
		r.sink.writeString("callconv(")
		r.renderExpr(v.Callconv)
		r.sink.writeString(") ")
	}
	r.renderExpr(v.ReturnType)
	if body == ast.Null {
		r.sink.writeString(";")
		r.sink.insertNewline()
		return
	}
	r.sink.writeString(" ")
	r.renderBlock(body)
	r.sink.insertNewline()
}

// renderBlock renders a block's braces and statements, one per line,
// with the default 4-space indent delta the teacher's output writer
// uses for structured text.
func (r *renderer) renderBlock(n ast.Index) {
	d := r.tree.NodeData(n)
	rec := ast.ExtraData[ast.SubRange](r.tree, d.LHS)
	stmts := r.tree.ExtraDataSlice(uint32(rec.Start), uint32(rec.End))

	r.sink.writeString("{")
	if len(stmts) == 0 {
		r.sink.writeString("}")
		return
	}
	r.sink.pushIndent()
	r.sink.insertNewline()
	for i, s := range stmts {
		if i > 0 {
			r.blankLinePreserving(s)
		}
		r.renderStatement(s)
	}
	r.sink.popIndent() // the last statement already ended its line
	r.sink.writeString("}")
}

func (r *renderer) renderStatement(n ast.Index) {
	r.renderDocComments(n)
	switch r.tree.NodeTag(n) {
	case ast.SimpleVarDecl, ast.AlignedVarDecl, ast.LocalVarDecl, ast.GlobalVarDecl:
		r.renderVarDecl(n)
	case ast.Block, ast.BlockSemicolon:
		r.renderBlock(n)
		r.sink.insertNewline()
	case ast.LabeledBlock:
		label := r.tree.MainToken(n)
		r.sink.writeString(r.tree.TokenLexeme(label))
		r.sink.writeString(": ")
		r.renderBlock(n)
		r.sink.insertNewline()
	case ast.IfSimple, ast.If:
		r.renderIf(n)
	case ast.WhileSimple, ast.WhileCont, ast.While:
		r.renderWhile(n)
	case ast.ForSimple, ast.For:
		r.renderFor(n)
	case ast.Return:
		r.renderKeywordExprStmt(n, "return")
	case ast.Break:
		r.sink.writeString("break;")
		r.sink.insertNewline()
	case ast.Continue:
		r.sink.writeString("continue;")
		r.sink.insertNewline()
	case ast.Defer:
		r.renderKeywordExprStmt(n, "defer")
	case ast.Errdefer:
		r.renderKeywordExprStmt(n, "errdefer")
	case ast.ExprStmt:
		d := r.tree.NodeData(n)
		if d.LHS == 0 {
			r.sink.writeString(";")
			r.sink.insertNewline()
			return
		}
		r.renderExpr(ast.Index(d.LHS))
		r.sink.writeString(";")
		r.sink.insertNewline()
	default:
		r.renderExpr(n)
		r.sink.writeString(";")
		r.sink.insertNewline()
	}
}

func (r *renderer) renderKeywordExprStmt(n ast.Index, kw string) {
	d := r.tree.NodeData(n)
	r.sink.writeString(kw)
	if d.LHS != 0 {
		r.sink.writeString(" ")
		r.renderExpr(ast.Index(d.LHS))
	}
	r.sink.writeString(";")
	r.sink.insertNewline()
}

func (r *renderer) renderSemicolonAfterExpr(ast.Index) {
	r.sink.writeString(";")
	r.sink.insertNewline()
}

// renderIf renders if/else directly from IfView; it does not go through
// renderWhile, and it writes no payload captures.
func (r *renderer) renderIf(n ast.Index) {
	v, ok := r.tree.If(n)
	if !ok {
		return
	}
	r.sink.writeString("if (")
	r.renderExpr(v.CondExpr)
	r.sink.writeString(") ")
	r.renderBody(v.ThenExpr)
	if v.ElseExpr != ast.Null {
		r.sink.writeString(" else ")
		r.renderBody(v.ElseExpr)
	}
	r.sink.insertNewline()
}

// renderPayload writes " |name|" for a present capture token, nothing
// otherwise; shared by while/for's condition and error-union payloads.
func (r *renderer) renderPayload(tok token.OptionalIndex) {
	if name, ok := tok.Unwrap(); ok {
		r.sink.writeString(" |")
		r.sink.writeString(r.tree.TokenLexeme(name))
		r.sink.writeString("|")
	}
}

func (r *renderer) renderWhile(n ast.Index) {
	v, ok := r.tree.While(n)
	if !ok {
		return
	}
	if tok, ok := v.LabelToken.Unwrap(); ok {
		r.sink.writeString(r.tree.TokenLexeme(tok))
		r.sink.writeString(": ")
	}
	if tok, ok := v.InlineToken.Unwrap(); ok {
		r.sink.writeString(r.tree.TokenLexeme(tok))
		r.sink.writeString(" ")
	}
	r.sink.writeString("while (")
	r.renderExpr(v.CondExpr)
	r.sink.writeString(")")
	r.renderPayload(v.PayloadToken)
	if v.ContExpr != ast.Null {
		r.sink.writeString(" : (")
		r.renderExpr(v.ContExpr)
		r.sink.writeString(")")
	}
	r.sink.writeString(" ")
	r.renderBody(v.ThenExpr)
	if v.ElseExpr != ast.Null {
		r.sink.writeString(" else")
		r.renderPayload(v.ErrToken)
		r.sink.writeString(" ")
		r.renderBody(v.ElseExpr)
	}
	r.sink.insertNewline()
}

func (r *renderer) renderFor(n ast.Index) {
	v, ok := r.tree.For(n)
	if !ok {
		return
	}
	if tok, ok := v.LabelToken.Unwrap(); ok {
		r.sink.writeString(r.tree.TokenLexeme(tok))
		r.sink.writeString(": ")
	}
	if tok, ok := v.InlineToken.Unwrap(); ok {
		r.sink.writeString(r.tree.TokenLexeme(tok))
		r.sink.writeString(" ")
	}
	r.sink.writeString("for (")
	r.renderExpr(v.CondExpr)
	r.sink.writeString(")")
	r.renderPayload(v.PayloadToken)
	r.sink.writeString(" ")
	r.renderBody(v.ThenExpr)
	if v.ElseExpr != ast.Null {
		r.sink.writeString(" else")
		r.renderPayload(v.ErrToken)
		r.sink.writeString(" ")
		r.renderBody(v.ElseExpr)
	}
	r.sink.insertNewline()
}

// renderBody renders a then/else arm, which is always a Statement
// (most often a Block); non-block bodies render as a single statement
// without the surrounding newline a top-level statement would add.
func (r *renderer) renderBody(n ast.Index) {
	switch r.tree.NodeTag(n) {
	case ast.Block, ast.BlockSemicolon:
		r.renderBlock(n)
	default:
		r.renderStatement(n)
	}
}

// ============================================================
// Expressions
// ============================================================

func (r *renderer) renderExpr(n ast.Index) {
	if n == ast.Null {
		return
	}
	tag := r.tree.NodeTag(n)
	switch tag {
	case ast.IntegerLiteral, ast.FloatLiteral, ast.CharLiteral, ast.StringLiteral,
		ast.MultilineStringLiteral, ast.TrueLiteral, ast.FalseLiteral, ast.NullLiteral,
		ast.UndefinedLiteral, ast.UnreachableLiteral, ast.Identifier, ast.AnyframeLiteral,
		ast.SuspendExpr:
		r.sink.writeString(r.tree.TokenLexeme(r.tree.MainToken(n)))

	case ast.EnumLiteral:
		r.sink.writeString(".")
		r.sink.writeString(r.tree.TokenLexeme(r.tree.MainToken(n)))

	case ast.ErrorValue:
		r.sink.writeString("error.")
		r.sink.writeString(r.tree.TokenLexeme(r.tree.MainToken(n)))

	case ast.BoolNot, ast.Negation, ast.BitNot, ast.NegationWrap, ast.AddressOf,
		ast.Try, ast.Await, ast.Resume, ast.NosuspendExpr, ast.ComptimeExpr,
		ast.UsingNamespace, ast.CancelExpr:
		r.renderUnaryKeywordOrSymbol(n)

	case ast.OptionalType:
		d := r.tree.NodeData(n)
		r.sink.writeString("?")
		r.renderExpr(ast.Index(d.LHS))

	case ast.Add, ast.AddWrap, ast.Sub, ast.SubWrap, ast.Mul, ast.MulWrap, ast.Div,
		ast.Mod, ast.BitAnd, ast.BitOr, ast.BitXor, ast.Shl, ast.Shr, ast.BoolAnd,
		ast.BoolOr, ast.Equal, ast.NotEqual, ast.LessThan, ast.GreaterThan,
		ast.LessOrEqual, ast.GreaterOrEqual, ast.Assign, ast.AssignAdd, ast.AssignSub,
		ast.AssignMul, ast.AssignDiv, ast.AssignMod, ast.AssignBitAnd, ast.AssignBitOr,
		ast.AssignBitXor, ast.AssignShl, ast.AssignShr, ast.OrElse, ast.ErrorUnion,
		ast.MergeErrorSets, ast.Range:
		r.renderBinary(n)

	case ast.Catch:
		r.renderBinary(n)

	case ast.FieldAccess:
		d := r.tree.NodeData(n)
		r.renderExpr(ast.Index(d.LHS))
		r.sink.writeString(".")
		r.sink.writeString(r.tree.TokenLexeme(r.tree.MainToken(n)))
	case ast.UnwrapOptional:
		d := r.tree.NodeData(n)
		r.renderExpr(ast.Index(d.LHS))
		r.sink.writeString(".?")
	case ast.Deref:
		d := r.tree.NodeData(n)
		r.renderExpr(ast.Index(d.LHS))
		r.sink.writeString(".*")
	case ast.ArrayAccess:
		d := r.tree.NodeData(n)
		r.renderExpr(ast.Index(d.LHS))
		r.sink.writeString("[")
		r.renderExpr(ast.Index(d.RHS))
		r.sink.writeString("]")
	case ast.SliceOpen, ast.Slice, ast.SliceSentinel:
		r.renderSlice(n)

	case ast.ContainerDeclStruct, ast.ContainerDeclStructComma,
		ast.ContainerDeclUnion, ast.ContainerDeclUnionComma,
		ast.ContainerDeclEnum, ast.ContainerDeclEnumComma, ast.ContainerDeclOpaque,
		ast.TaggedUnion, ast.TaggedUnionComma, ast.TaggedUnionEnumTag:
		r.renderContainerDecl(n)

	case ast.ArrayInit, ast.ArrayInitComma, ast.ArrayInitDot, ast.ArrayInitDotComma:
		r.renderArrayInit(n)
	case ast.StructInit, ast.StructInitComma, ast.StructInitDot, ast.StructInitDotComma:
		r.renderStructInit(n)

	case ast.CallOne, ast.CallOneComma, ast.Call, ast.CallComma,
		ast.AsyncCallOne, ast.AsyncCallOneComma, ast.AsyncCall, ast.AsyncCallComma:
		r.renderCall(n)

	case ast.ArrayType, ast.ArrayTypeSentinel:
		r.renderArrayType(n)
	case ast.PtrTypeAligned, ast.PtrTypeSentinel, ast.PtrTypeBitRange, ast.SliceType:
		r.renderPtrType(n)
	case ast.AnyframeType:
		r.sink.writeString("anyframe->")
		r.renderExpr(r.tree.NodeData(n).AsIndexRHS())

	case ast.AsmSimple, ast.Asm:
		r.renderAsm(n)

	case ast.SwitchExpr:
		r.renderSwitch(n)

	case ast.Block, ast.BlockSemicolon, ast.LabeledBlock,
		ast.IfSimple, ast.If, ast.WhileSimple, ast.WhileCont, ast.While,
		ast.ForSimple, ast.For:
		// expression-position control flow reuses the statement renderer's
		// layout; the trailing newline it inserts is harmless mid-expression
		// whitespace the sink has already collapsed.
		r.renderStatement(n)

	default:
		// Unreachable for any tree parser.Parse produces: every Tag it
		// emits into expression position is handled above. Not part of
		// the OutOfMemory-only failure contract — an assertion, not a
		// recoverable error.
		panic(fmt.Errorf("render: unhandled expression tag %v", tag))
	}
}

func (r *renderer) renderUnaryKeywordOrSymbol(n ast.Index) {
	d := r.tree.NodeData(n)
	main := r.tree.MainToken(n)
	lex := r.tree.TokenLexeme(main)
	r.sink.writeString(lex)
	if len(lex) > 0 && isIdentLike(lex[0]) {
		r.sink.writeString(" ")
	}
	r.renderExpr(ast.Index(d.LHS))
}

func isIdentLike(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

var binaryOpText = map[ast.Tag]string{
	ast.Add: "+", ast.AddWrap: "+%", ast.Sub: "-", ast.SubWrap: "-%",
	ast.Mul: "*", ast.MulWrap: "*%", ast.Div: "/", ast.Mod: "%",
	ast.BitAnd: "&", ast.BitOr: "|", ast.BitXor: "^", ast.Shl: "<<", ast.Shr: ">>",
	ast.BoolAnd: "and", ast.BoolOr: "or",
	ast.Equal: "==", ast.NotEqual: "!=", ast.LessThan: "<", ast.GreaterThan: ">",
	ast.LessOrEqual: "<=", ast.GreaterOrEqual: ">=",
	ast.Assign: "=", ast.AssignAdd: "+=", ast.AssignSub: "-=", ast.AssignMul: "*=",
	ast.AssignDiv: "/=", ast.AssignMod: "%=", ast.AssignBitAnd: "&=",
	ast.AssignBitOr: "|=", ast.AssignBitXor: "^=", ast.AssignShl: "<<=", ast.AssignShr: ">>=",
	ast.OrElse: "orelse", ast.Catch: "catch", ast.ErrorUnion: "!",
	ast.MergeErrorSets: "||", ast.Range: "..",
}

func (r *renderer) renderBinary(n ast.Index) {
	d := r.tree.NodeData(n)
	tag := r.tree.NodeTag(n)
	r.renderExpr(ast.Index(d.LHS))
	op := binaryOpText[tag]
	if tag == ast.ErrorUnion || tag == ast.Range {
		r.sink.writeString(op)
	} else {
		r.sink.writeString(" ")
		r.sink.writeString(op)
		r.sink.writeString(" ")
	}
	r.renderExpr(ast.Index(d.RHS))
}

func (r *renderer) renderSlice(n ast.Index) {
	v, ok := r.tree.Slice(n)
	if !ok {
		return
	}
	r.renderExpr(v.Sliced)
	r.sink.writeString("[")
	r.renderExpr(v.Start)
	r.sink.writeString("..")
	if v.End != ast.Null {
		r.renderExpr(v.End)
	}
	if v.Sentinel != ast.Null {
		r.sink.writeString(":")
		r.renderExpr(v.Sentinel)
	}
	r.sink.writeString("]")
}

func (r *renderer) renderContainerDecl(n ast.Index) {
	v, ok := r.tree.ContainerDecl(n)
	if !ok {
		return
	}
	main := r.tree.MainToken(n)
	r.sink.writeString(r.tree.TokenLexeme(main))
	if v.ArgExpr != ast.Null {
		r.sink.writeString("(")
		r.renderExpr(v.ArgExpr)
		r.sink.writeString(")")
	}
	r.sink.writeString(" {")
	if len(v.Members) == 0 {
		r.sink.writeString("}")
		return
	}
	multiline := r.tree.NodeTag(n).HasTrailingComma()
	if !multiline {
		if candidate, ok := r.tryOneLine(func(tmp *renderer) {
			for i, m := range v.Members {
				if i > 0 {
					tmp.sink.writeString(", ")
				}
				tmp.renderContainerMember(m)
			}
		}); ok {
			r.sink.writeString(" ")
			r.sink.writeString(candidate)
			r.sink.writeString(" }")
			return
		}
	}
	r.sink.pushIndent()
	r.sink.insertNewline()
	for i, m := range v.Members {
		if i > 0 {
			r.blankLinePreserving(m)
		}
		r.renderContainerMember(m)
		r.sink.writeString(",")
		r.sink.insertNewline()
	}
	r.sink.popIndent()
	r.sink.writeString("}")
}

func (r *renderer) renderContainerMember(n ast.Index) {
	r.renderDocComments(n)
	switch r.tree.NodeTag(n) {
	case ast.ContainerFieldSimple, ast.ContainerFieldInit, ast.ContainerFieldAlign:
		r.renderContainerField(n)
	default:
		r.renderDecl(n)
	}
}

func (r *renderer) renderContainerField(n ast.Index) {
	v, ok := r.tree.ContainerField(n)
	if !ok {
		return
	}
	if tok, ok := v.Comptime.Unwrap(); ok {
		r.renderToken(tok, SpaceSpace)
	}
	r.sink.writeString(r.tree.TokenLexeme(v.NameToken))
	if v.Type != ast.Null {
		r.sink.writeString(": ")
		r.renderExpr(v.Type)
	}
	if v.Align != ast.Null {
		r.sink.writeString(" ")
		r.renderAlignClause(v.Align)
	}
	if v.Value != ast.Null {
		r.sink.writeString(" = ")
		r.renderExpr(v.Value)
	}
}

func (r *renderer) renderArrayInit(n ast.Index) {
	v, ok := r.tree.ArrayInit(n)
	if !ok {
		return
	}
	if v.TypeExpr != ast.Null {
		r.renderExpr(v.TypeExpr)
	}
	r.sink.writeString(".{")
	r.renderElementList(v.Elements, r.tree.NodeTag(n).HasTrailingComma(), func(rr *renderer, it ast.Index) {
		rr.renderExpr(it)
	})
	r.sink.writeString("}")
}

func (r *renderer) renderStructInit(n ast.Index) {
	v, ok := r.tree.StructInit(n)
	if !ok {
		return
	}
	if v.TypeExpr != ast.Null {
		r.renderExpr(v.TypeExpr)
	}
	r.sink.writeString(".{")
	r.renderElementList(v.Fields, r.tree.NodeTag(n).HasTrailingComma(), func(rr *renderer, f ast.Index) {
		fv, ok := rr.tree.ContainerField(f)
		if !ok {
			return
		}
		rr.sink.writeString(rr.tree.TokenLexeme(fv.NameToken))
		rr.sink.writeString(": ")
		rr.renderExpr(fv.Value)
	})
	r.sink.writeString("}")
}

// renderElementList renders a comma-separated list — the single
// mechanism every bracketed list (call args, array/struct init) funnels
// through. A trailing comma in the source is the primary layout signal
// (spec.md §4.3) and always forces one element per line; absent that,
// a one-line candidate is measured and used if it fits the width
// budget, falling back to one-per-line when it doesn't.
func (r *renderer) renderElementList(items []ast.Index, trailingComma bool, each func(rr *renderer, item ast.Index)) {
	if len(items) == 0 {
		return
	}
	if !trailingComma {
		if candidate, ok := r.tryOneLine(func(tmp *renderer) {
			for i, it := range items {
				if i > 0 {
					tmp.sink.writeString(", ")
				}
				each(tmp, it)
			}
		}); ok {
			r.sink.writeString(candidate)
			return
		}
	}
	r.sink.pushIndent()
	r.sink.insertNewline()
	for _, it := range items {
		each(r, it)
		r.sink.writeString(",")
		r.sink.insertNewline()
	}
	r.sink.popIndent()
}

func (r *renderer) renderCall(n ast.Index) {
	v, ok := r.tree.Call(n)
	if !ok {
		return
	}
	if tok, ok := v.AsyncToken.Unwrap(); ok {
		r.renderToken(tok, SpaceSpace)
	}
	r.renderExpr(v.Callee)
	r.sink.writeString("(")
	r.renderElementList(v.Args, r.tree.NodeTag(n).HasTrailingComma(), func(rr *renderer, it ast.Index) {
		rr.renderExpr(it)
	})
	r.sink.writeString(")")
}

func (r *renderer) renderArrayType(n ast.Index) {
	v, ok := r.tree.ArrayType(n)
	if !ok {
		return
	}
	r.sink.writeString("[")
	r.renderExpr(v.LenExpr)
	if v.Sentinel != ast.Null {
		r.sink.writeString(":")
		r.renderExpr(v.Sentinel)
	}
	r.sink.writeString("]")
	r.renderExpr(v.ElemType)
}

func (r *renderer) renderPtrType(n ast.Index) {
	v, ok := r.tree.PtrType(n)
	if !ok {
		return
	}
	switch v.Size {
	case token.Asterisk:
		// The main token is literally "*" or "**" (the tokenizer lexes
		// "**" as one AsteriskAsterisk token); write its actual lexeme
		// rather than assuming a single asterisk.
		r.sink.writeString(r.tree.TokenLexeme(r.tree.MainToken(n)))
	default:
		r.sink.writeString("[")
		if v.Sentinel != ast.Null {
			r.sink.writeString(":")
			r.renderExpr(v.Sentinel)
		} else if r.tree.NodeTag(n) == ast.PtrTypeSentinel {
			r.sink.writeString("*")
		}
		r.sink.writeString("]")
	}
	if v.Align != ast.Null {
		r.sink.writeString("align(")
		r.renderExpr(v.Align)
		if v.BitStart != ast.Null {
			r.sink.writeString(":")
			r.renderExpr(v.BitStart)
			r.sink.writeString(":")
			r.renderExpr(v.BitEnd)
		}
		r.sink.writeString(") ")
	}
	if tok, ok := v.ConstToken.Unwrap(); ok {
		r.renderToken(tok, SpaceSpace)
	}
	if tok, ok := v.VolatileToken.Unwrap(); ok {
		r.renderToken(tok, SpaceSpace)
	}
	r.renderExpr(v.ElemType)
}

func (r *renderer) renderSwitch(n ast.Index) {
	v, ok := r.tree.Switch(n)
	if !ok {
		return
	}
	r.sink.writeString("switch (")
	r.renderExpr(v.CondExpr)
	r.sink.writeString(") {")
	if len(v.Cases) == 0 {
		r.sink.writeString("}")
		return
	}
	r.sink.pushIndent()
	r.sink.insertNewline()
	for i, c := range v.Cases {
		if i > 0 {
			r.blankLinePreserving(c)
		}
		r.renderSwitchCase(c)
		r.sink.writeString(",")
		r.sink.insertNewline()
	}
	r.sink.popIndent()
	r.sink.writeString("}")
}

func (r *renderer) renderSwitchCase(n ast.Index) {
	v, ok := r.tree.SwitchCase(n)
	if !ok {
		return
	}
	if len(v.Values) == 0 {
		r.sink.writeString("else")
	} else {
		for i, val := range v.Values {
			if i > 0 {
				r.sink.writeString(", ")
			}
			r.renderExpr(val)
		}
	}
	r.sink.writeString(" -> ")
	r.renderExpr(v.Target)
}

// renderAsm emits inline assembly with an indent delta of 2 instead
// of the default 4, restored on exit, per spec.md §4.3.
func (r *renderer) renderAsm(n ast.Index) {
	v, ok := r.tree.Asm(n)
	if !ok {
		return
	}
	r.sink.writeString("asm (")
	r.sink.writeString(r.tree.TokenLexeme(v.Template))
	if len(v.Items) > 0 {
		old := r.sink.setIndentDelta(2)
		r.sink.pushIndent()
		r.sink.insertNewline()
		r.sink.writeString(": ")
		for i, it := range v.Items {
			if i > 0 {
				r.sink.writeString(", ")
			}
			r.renderExpr(it)
		}
		r.sink.popIndent()
		r.sink.insertNewline()
		r.sink.setIndentDelta(old)
	}
	r.sink.writeString(")")
}
