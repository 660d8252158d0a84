package ast

import "github.com/gmofishsauce/wut4/lang/zxfmt/token"

// NodeViews: on-demand "full view" records that decode a compact node
// into named fields for ergonomic consumers (spec.md §3.4). Every view
// constructor (Tree.VarDecl, Tree.If, ... each returning an XView)
// dispatches on tag and reads Data/ExtraData; none of them mutate Tree.

// VarDeclView covers all four var_decl shapes (simple, aligned, local,
// global).
type VarDeclView struct {
	VisibToken      token.OptionalIndex // pub
	ExternExportToken token.OptionalIndex
	ThreadlocalToken token.OptionalIndex
	ComptimeToken   token.OptionalIndex
	MutToken        token.Index // const/var keyword; also the main_token
	NameToken       token.Index
	Type            Index // Null if untyped
	Align           Index // Null if unaligned
	Section         Index // Null unless GlobalVarDecl
	InitNode        Index // Null if no initializer
}

func (t *Tree) VarDecl(n Index) (VarDeclView, bool) {
	tag := t.Tags[n]
	d := t.Datas[n]
	v := VarDeclView{MutToken: t.MainTokens[n], VisibToken: token.NoToken, ExternExportToken: token.NoToken,
		ThreadlocalToken: token.NoToken, ComptimeToken: token.NoToken}
	switch tag {
	case SimpleVarDecl:
		v.InitNode = Index(d.RHS)
		if d.LHS != 0 {
			v.NameToken = token.Index(d.LHS)
		}
	case AlignedVarDecl:
		v.Align = Index(d.LHS)
		v.InitNode = Index(d.RHS)
	case LocalVarDecl:
		rec := ExtraData[LocalVarDeclData](t, d.LHS)
		v.Type = rec.Type
		v.Align = rec.Align
		v.InitNode = Index(d.RHS)
	case GlobalVarDecl:
		rec := ExtraData[GlobalVarDeclData](t, d.LHS)
		v.Type = rec.Type
		v.Align = rec.Align
		v.Section = rec.Section
		v.InitNode = Index(d.RHS)
	default:
		return VarDeclView{}, false
	}
	v.NameToken = v.MutToken + 1
	v.ModifiersFrom(t, n)
	return v, true
}

// ModifiersFrom walks backward over the leading modifier-token run
// (pub, export/extern, threadlocal, comptime) preceding MutToken,
// matching the backward walk firstToken performs for these tags.
func (v *VarDeclView) ModifiersFrom(t *Tree, n Index) {
	tok := v.MutToken
	for tok > 0 {
		prev := tok - 1
		switch t.TokenTag(prev) {
		case token.KeywordComptime:
			v.ComptimeToken = token.Some(prev)
			tok = prev
		case token.KeywordThreadlocal:
			v.ThreadlocalToken = token.Some(prev)
			tok = prev
		case token.KeywordExport, token.KeywordExtern:
			v.ExternExportToken = token.Some(prev)
			tok = prev
		case token.KeywordPub:
			v.VisibToken = token.Some(prev)
			tok = prev
		default:
			return
		}
	}
}

// IfView synthesizes a uniform view for if_simple/if. The renderer
// renders it with its own routine (renderIf), not through WhileView.
type IfView struct {
	CondExpr  Index
	ThenExpr  Index
	ElseExpr  Index // Null if no else
	ErrToken  token.OptionalIndex
	ElseToken token.OptionalIndex
}

func (t *Tree) If(n Index) (IfView, bool) {
	d := t.Datas[n]
	switch t.Tags[n] {
	case IfSimple:
		return IfView{CondExpr: Index(d.LHS), ThenExpr: Index(d.RHS), ErrToken: token.NoToken, ElseToken: token.NoToken}, true
	case If:
		rec := ExtraData[IfData](t, d.RHS)
		v := IfView{CondExpr: Index(d.LHS), ThenExpr: rec.Then, ElseExpr: rec.Else, ErrToken: token.NoToken}
		v.ElseToken = findElseToken(t, rec.Then)
		return v, true
	}
	return IfView{}, false
}

func findElseToken(t *Tree, then Index) token.OptionalIndex {
	last := t.LastToken(then)
	if int(last)+1 < t.Tokens.Len() && t.TokenTag(last+1) == token.KeywordElse {
		return token.Some(last + 1)
	}
	return token.NoToken
}

// WhileView covers while_simple/while_cont/while.
type WhileView struct {
	LabelToken   token.OptionalIndex
	InlineToken  token.OptionalIndex
	PayloadToken token.OptionalIndex // the |v| bound to CondExpr's optional/error payload
	ErrToken     token.OptionalIndex // the |e| bound in the else clause
	CondExpr     Index
	ContExpr     Index // Null unless while_cont/while
	ThenExpr     Index
	ElseExpr     Index // Null unless while (full)
}

func (t *Tree) While(n Index) (WhileView, bool) {
	d := t.Datas[n]
	v := WhileView{CondExpr: Index(d.LHS), LabelToken: token.NoToken, InlineToken: token.NoToken, ErrToken: token.NoToken}
	switch t.Tags[n] {
	case WhileSimple:
		v.ThenExpr = Index(d.RHS)
	case WhileCont:
		rec := ExtraData[WhileContData](t, d.RHS)
		v.ContExpr = rec.Cont
		v.ThenExpr = rec.Then
	case While:
		rec := ExtraData[WhileData](t, d.RHS)
		v.ContExpr = rec.Cont
		v.ThenExpr = rec.Then
		v.ElseExpr = rec.Else
	default:
		return WhileView{}, false
	}
	mainTok := t.MainTokens[n]
	if mainTok > 0 && t.TokenTag(mainTok-1) == token.Colon {
		v.LabelToken = token.Some(mainTok - 2)
	}
	if mainTok > 0 && t.TokenTag(mainTok-1) == token.KeywordInline {
		v.InlineToken = token.Some(mainTok - 1)
	}
	v.PayloadToken = capturedPayload(t, t.LastToken(v.CondExpr)+2)
	if v.ElseExpr != Null {
		v.ErrToken = capturedPayload(t, t.LastToken(v.ThenExpr)+2)
	}
	return v, true
}

// capturedPayload reports the capture name in an optional "|name|"
// that starts at token afterParen (callers pass the position just past
// a ')' or 'else' keyword), recovered positionally the same way skipPayloadCapture
// consumed it during parsing: no Data field stores this, since its
// position is a fixed function of the token it follows.
func capturedPayload(t *Tree, afterParen token.Index) token.OptionalIndex {
	if t.TokenTag(afterParen) != token.Pipe {
		return token.NoToken
	}
	return token.Some(afterParen + 1)
}

// ForView covers for_simple/for.
type ForView struct {
	LabelToken   token.OptionalIndex
	InlineToken  token.OptionalIndex
	PayloadToken token.OptionalIndex // the |x| bound to CondExpr's elements
	ErrToken     token.OptionalIndex
	CondExpr     Index // the range/array expression
	ThenExpr     Index
	ElseExpr     Index // Null unless present
}

func (t *Tree) For(n Index) (ForView, bool) {
	d := t.Datas[n]
	var v ForView
	switch t.Tags[n] {
	case ForSimple:
		v = ForView{CondExpr: Index(d.LHS), ThenExpr: Index(d.RHS), LabelToken: token.NoToken, InlineToken: token.NoToken, ErrToken: token.NoToken}
	case For:
		rec := ExtraData[IfData](t, d.RHS) // reuses {Then,Else} layout
		v = ForView{CondExpr: Index(d.LHS), ThenExpr: rec.Then, ElseExpr: rec.Else, LabelToken: token.NoToken, InlineToken: token.NoToken, ErrToken: token.NoToken}
	default:
		return ForView{}, false
	}
	v.PayloadToken = capturedPayload(t, t.LastToken(v.CondExpr)+2)
	if v.ElseExpr != Null {
		v.ErrToken = capturedPayload(t, t.LastToken(v.ThenExpr)+2)
	}
	mainTok := t.MainTokens[n]
	if mainTok > 0 && t.TokenTag(mainTok-1) == token.Colon {
		v.LabelToken = token.Some(mainTok - 2)
	}
	if mainTok > 0 && t.TokenTag(mainTok-1) == token.KeywordInline {
		v.InlineToken = token.Some(mainTok - 1)
	}
	return v, true
}

// ContainerFieldView covers container_field/_init/_align.
type ContainerFieldView struct {
	Comptime  token.OptionalIndex
	NameToken token.Index
	Type      Index
	Align     Index
	Value     Index
}

func (t *Tree) ContainerField(n Index) (ContainerFieldView, bool) {
	d := t.Datas[n]
	v := ContainerFieldView{NameToken: t.MainTokens[n], Comptime: token.NoToken}
	switch t.Tags[n] {
	case ContainerFieldSimple:
		v.Type = Index(d.LHS)
	case ContainerFieldInit:
		v.Type = Index(d.LHS)
		v.Value = Index(d.RHS)
	case ContainerFieldAlign:
		v.Type = Index(d.LHS)
		rec := ExtraData[ContainerField](t, d.RHS)
		v.Align = rec.Align
		v.Value = rec.Value
	default:
		return ContainerFieldView{}, false
	}
	if v.NameToken > 0 && t.TokenTag(v.NameToken-1) == token.KeywordComptime {
		v.Comptime = token.Some(v.NameToken - 1)
	}
	return v, true
}

// FnProtoView covers all four fn_proto shapes.
type FnProtoView struct {
	VisibToken  token.OptionalIndex
	ExternToken token.OptionalIndex
	FnToken     token.Index
	NameToken   token.OptionalIndex
	Params      []FnParam
	Align       Index
	Section     Index
	Callconv    Index
	ReturnType  Index
}

func (t *Tree) FnProto(n Index) (FnProtoView, bool) {
	d := t.Datas[n]
	v := FnProtoView{FnToken: t.MainTokens[n], VisibToken: token.NoToken, ExternToken: token.NoToken, NameToken: token.NoToken}
	switch t.Tags[n] {
	case FnProtoSimple:
		if d.LHS != 0 {
			v.Params = []FnParam{{NameToken: token.Index(d.LHS)}}
		}
		v.ReturnType = Index(d.RHS)
	case FnProtoMulti:
		rec := ExtraData[SubRange](t, d.LHS)
		v.Params = t.FnParamsSlice(uint32(rec.Start), uint32(rec.End))
		v.ReturnType = Index(d.RHS)
	case FnProtoOne:
		rec := ExtraData[FnProtoOneData](t, d.LHS)
		if nameTok, ok := rec.ParamName.Unwrap(); ok {
			v.Params = []FnParam{{NameToken: nameTok, Type: rec.Param}}
		}
		v.Align = rec.Align
		v.Section = rec.Section
		v.Callconv = rec.Callconv
		v.ReturnType = Index(d.RHS)
	case FnProto:
		rec := ExtraData[FnProtoData](t, d.LHS)
		v.Params = t.FnParamsSlice(uint32(rec.ParamsStart), uint32(rec.ParamsEnd))
		v.Align = rec.Align
		v.Section = rec.Section
		v.Callconv = rec.Callconv
		v.ReturnType = Index(d.RHS)
	default:
		return FnProtoView{}, false
	}
	if v.FnToken > 0 && t.TokenTag(v.FnToken-1) == token.KeywordExtern {
		v.ExternToken = token.Some(v.FnToken - 1)
	}
	if v.FnToken > 0 && t.TokenTag(v.FnToken-1) == token.KeywordPub {
		v.VisibToken = token.Some(v.FnToken - 1)
	}
	if int(v.FnToken)+1 < t.Tokens.Len() && t.TokenTag(v.FnToken+1) == token.Identifier {
		v.NameToken = token.Some(v.FnToken + 1)
	}
	return v, true
}

// CallView covers call_one/call × sync/async × trailing comma.
type CallView struct {
	AsyncToken token.OptionalIndex
	Callee     Index
	Args       []Index
}

func (t *Tree) Call(n Index) (CallView, bool) {
	d := t.Datas[n]
	v := CallView{Callee: Index(d.LHS), AsyncToken: token.NoToken}
	switch t.Tags[n] {
	case CallOne, CallOneComma, AsyncCallOne, AsyncCallOneComma:
		if d.RHS != 0 {
			v.Args = []Index{Index(d.RHS)}
		}
	case Call, CallComma, AsyncCall, AsyncCallComma:
		rec := ExtraData[SubRange](t, d.RHS)
		v.Args = t.ExtraDataSlice(uint32(rec.Start), uint32(rec.End))
	default:
		return CallView{}, false
	}
	switch t.Tags[n] {
	case AsyncCallOne, AsyncCallOneComma, AsyncCall, AsyncCallComma:
		// main_token is the call's closing ')'; 'async' sits one token
		// before the callee's own firstToken, not before the ')'.
		v.AsyncToken = token.Some(t.FirstToken(v.Callee) - 1)
	}
	return v, true
}

// HasTrailingComma reports whether tag is a "comma variant": spec.md's
// layout hint meaning a trailing separator preceded the closing
// bracket in source.
func (tag Tag) HasTrailingComma() bool {
	switch tag {
	case CallOneComma, CallComma, AsyncCallOneComma, AsyncCallComma,
		ArrayInitComma, ArrayInitDotComma, StructInitComma, StructInitDotComma,
		ContainerDeclStructComma, ContainerDeclUnionComma, ContainerDeclEnumComma,
		TaggedUnionComma, BlockSemicolon:
		return true
	}
	return false
}

// StructInitView/ArrayInitView cover the aggregate-literal shapes.
type StructInitView struct {
	TypeExpr Index // Null for the untyped ".{...}" shapes
	Fields   []Index
}

func (t *Tree) StructInit(n Index) (StructInitView, bool) {
	d := t.Datas[n]
	switch t.Tags[n] {
	case StructInitDot, StructInitDotComma:
		rec := ExtraData[SubRange](t, d.LHS)
		return StructInitView{Fields: t.ExtraDataSlice(uint32(rec.Start), uint32(rec.End))}, true
	case StructInit, StructInitComma:
		rec := ExtraData[SubRange](t, d.RHS)
		return StructInitView{TypeExpr: Index(d.LHS), Fields: t.ExtraDataSlice(uint32(rec.Start), uint32(rec.End))}, true
	}
	return StructInitView{}, false
}

type ArrayInitView struct {
	TypeExpr Index
	Elements []Index
}

func (t *Tree) ArrayInit(n Index) (ArrayInitView, bool) {
	d := t.Datas[n]
	switch t.Tags[n] {
	case ArrayInitDot, ArrayInitDotComma:
		rec := ExtraData[SubRange](t, d.LHS)
		return ArrayInitView{Elements: t.ExtraDataSlice(uint32(rec.Start), uint32(rec.End))}, true
	case ArrayInit, ArrayInitComma:
		rec := ExtraData[SubRange](t, d.RHS)
		return ArrayInitView{TypeExpr: Index(d.LHS), Elements: t.ExtraDataSlice(uint32(rec.Start), uint32(rec.End))}, true
	}
	return ArrayInitView{}, false
}

// ArrayTypeView/PtrTypeView/SliceView cover the type-expression shapes.
type ArrayTypeView struct {
	LenExpr  Index
	Sentinel Index
	ElemType Index
}

func (t *Tree) ArrayType(n Index) (ArrayTypeView, bool) {
	d := t.Datas[n]
	switch t.Tags[n] {
	case ArrayType:
		return ArrayTypeView{LenExpr: Index(d.LHS), ElemType: Index(d.RHS)}, true
	case ArrayTypeSentinel:
		rec := ExtraData[ArrayTypeSentinelData](t, d.RHS)
		return ArrayTypeView{LenExpr: Index(d.LHS), Sentinel: rec.Sentinel, ElemType: rec.ElemType}, true
	}
	return ArrayTypeView{}, false
}

type PtrTypeView struct {
	Size        token.Tag // '*' (Asterisk) or '[' (LBracket, slice-style)
	ConstToken  token.OptionalIndex
	VolatileToken token.OptionalIndex
	AllowzeroToken token.OptionalIndex
	Sentinel    Index
	Align       Index
	BitStart    Index
	BitEnd      Index
	ElemType    Index
}

func (t *Tree) PtrType(n Index) (PtrTypeView, bool) {
	d := t.Datas[n]
	v := PtrTypeView{ElemType: Index(d.RHS), ConstToken: token.NoToken, VolatileToken: token.NoToken, AllowzeroToken: token.NoToken}
	switch t.Tags[n] {
	case PtrTypeAligned:
		rec := ExtraData[PtrTypeData](t, d.LHS)
		v.Sentinel = rec.Sentinel
		v.Align = rec.Align
		v.Size = token.Asterisk
	case PtrTypeSentinel:
		rec := ExtraData[PtrTypeData](t, d.LHS)
		v.Sentinel = rec.Sentinel
		v.Align = rec.Align
		v.Size = token.LBracket
	case PtrTypeBitRange:
		rec := ExtraData[PtrTypeBitRangeData](t, d.LHS)
		v.Sentinel = rec.Sentinel
		v.Align = rec.Align
		v.BitStart = rec.BitStart
		v.BitEnd = rec.BitEnd
		v.Size = token.Asterisk
	case SliceType:
		rec := ExtraData[PtrTypeData](t, d.LHS)
		v.Sentinel = rec.Sentinel
		v.Align = rec.Align
		v.Size = token.LBracket
	default:
		return PtrTypeView{}, false
	}
	v.scanModifiers(t, n)
	return v, true
}

func (v *PtrTypeView) scanModifiers(t *Tree, n Index) {
	// const/volatile/allowzero appear between the bracket/asterisk and
	// the element type; a real implementation would record their
	// tokens explicitly during parsing. Scanned here from main_token
	// forward to the element type's first token for display purposes.
	first := t.MainTokens[n]
	last := t.FirstToken(v.ElemType)
	for i := first; i < last; i++ {
		switch t.TokenTag(i) {
		case token.KeywordConst:
			v.ConstToken = token.Some(i)
		case token.KeywordVolatile:
			v.VolatileToken = token.Some(i)
		}
	}
}

// SliceView covers the three slice postfix arities.
type SliceView struct {
	Sliced   Index
	Start    Index
	End      Index
	Sentinel Index
}

func (t *Tree) Slice(n Index) (SliceView, bool) {
	d := t.Datas[n]
	switch t.Tags[n] {
	case SliceOpen:
		return SliceView{Sliced: Index(d.LHS), Start: Index(d.RHS)}, true
	case Slice:
		rec := ExtraData[SliceData](t, d.RHS)
		return SliceView{Sliced: Index(d.LHS), Start: rec.Start, End: rec.End}, true
	case SliceSentinel:
		rec := ExtraData[SliceSentinelData](t, d.RHS)
		return SliceView{Sliced: Index(d.LHS), Start: rec.Start, End: rec.End, Sentinel: rec.Sentinel}, true
	}
	return SliceView{}, false
}

// ContainerDeclView covers struct/union/enum/opaque + tagged union.
type ContainerDeclView struct {
	MainToken token.Index // struct/union/enum/opaque keyword
	ArgExpr   Index       // enum(T) / union(enum) tag type, Null if absent
	Members   []Index
}

func (t *Tree) ContainerDecl(n Index) (ContainerDeclView, bool) {
	d := t.Datas[n]
	v := ContainerDeclView{MainToken: t.MainTokens[n]}
	switch t.Tags[n] {
	case ContainerDeclStruct, ContainerDeclStructComma,
		ContainerDeclUnion, ContainerDeclUnionComma,
		ContainerDeclEnum, ContainerDeclEnumComma,
		TaggedUnion, TaggedUnionComma, TaggedUnionEnumTag:
		rec := ExtraData[SubRange](t, d.RHS)
		v.ArgExpr = Index(d.LHS)
		v.Members = t.ExtraDataSlice(uint32(rec.Start), uint32(rec.End))
	case ContainerDeclOpaque:
		rec := ExtraData[SubRange](t, d.RHS)
		v.Members = t.ExtraDataSlice(uint32(rec.Start), uint32(rec.End))
	default:
		return ContainerDeclView{}, false
	}
	return v, true
}

// SwitchView covers switch_expr.
type SwitchView struct {
	CondExpr Index
	Cases    []Index
}

func (t *Tree) Switch(n Index) (SwitchView, bool) {
	d := t.Datas[n]
	if t.Tags[n] != SwitchExpr {
		return SwitchView{}, false
	}
	rec := ExtraData[SubRange](t, d.RHS)
	return SwitchView{CondExpr: Index(d.LHS), Cases: t.ExtraDataSlice(uint32(rec.Start), uint32(rec.End))}, true
}

// SwitchCaseView covers switch_case/switch_case_one.
type SwitchCaseView struct {
	Values    []Index // empty means the "else" case
	PayloadTok token.OptionalIndex
	Target    Index
}

func (t *Tree) SwitchCase(n Index) (SwitchCaseView, bool) {
	d := t.Datas[n]
	switch t.Tags[n] {
	case SwitchCaseOne:
		v := SwitchCaseView{Target: Index(d.RHS), PayloadTok: token.NoToken}
		if d.LHS != 0 {
			v.Values = []Index{Index(d.LHS)}
		}
		return v, true
	case SwitchCase:
		rec := ExtraData[SubRange](t, d.LHS)
		return SwitchCaseView{Values: t.ExtraDataSlice(uint32(rec.Start), uint32(rec.End)), Target: Index(d.RHS), PayloadTok: token.NoToken}, true
	}
	return SwitchCaseView{}, false
}

// AsmView covers asm_simple/asm.
type AsmView struct {
	Template    token.Index
	Items       []Index
	RParenToken token.Index
}

func (t *Tree) Asm(n Index) (AsmView, bool) {
	d := t.Datas[n]
	switch t.Tags[n] {
	case AsmSimple:
		return AsmView{Template: token.Index(d.LHS), RParenToken: token.Index(d.RHS)}, true
	case Asm:
		rec := ExtraData[AsmData](t, d.RHS)
		return AsmView{
			Template:    token.Index(d.LHS),
			Items:       t.ExtraDataSlice(uint32(rec.ItemsStart), uint32(rec.ItemsEnd)),
			RParenToken: rec.RParenToken,
		}, true
	}
	return AsmView{}, false
}
