package ast

import (
	"fmt"

	"github.com/gmofishsauce/wut4/lang/zxfmt/token"
)

// InvalidTreeError is the non-recoverable failure mode for a node whose
// tag is inconsistent with its data (spec.md §7): a parser bug, never a
// user error. Geometry is total on well-formed trees and panics with
// this type rather than silently guessing on malformed ones.
type InvalidTreeError struct {
	Node Index
	Tag  Tag
	Msg  string
}

func (e *InvalidTreeError) Error() string {
	return fmt.Sprintf("invalid tree at node %d (tag %v): %s", e.Node, e.Tag, e.Msg)
}

func (t *Tree) invalid(n Index, msg string) {
	panic(&InvalidTreeError{Node: n, Tag: t.Tags[n], Msg: msg})
}

// FirstToken returns the earliest token spanned by n. Pure function of
// (tag, main_token, data, extra_data, token tags/starts); no allocation,
// no state (spec.md §4.2).
func (t *Tree) FirstToken(n Index) token.Index {
	for {
		tag := t.Tags[n]
		main := t.MainTokens[n]
		d := t.Datas[n]

		switch tag {
		case Root:
			if len(t.RootDecls()) == 0 {
				return 0
			}
			n = t.RootDecls()[0]
			continue

		case IntegerLiteral, FloatLiteral, CharLiteral, StringLiteral,
			MultilineStringLiteral, TrueLiteral, FalseLiteral, NullLiteral,
			UndefinedLiteral, UnreachableLiteral, Identifier, EnumLiteral,
			AnyframeLiteral, Break, Continue, SuspendExpr:
			return main

		case ErrorValue:
			return d.AsTokenLHS()

		case BoolNot, Negation, BitNot, NegationWrap, AddressOf, Try, Await,
			OptionalType, Resume, NosuspendExpr, ComptimeExpr, UsingNamespace,
			CancelExpr:
			return backOverModifiers(t, main)

		case Add, AddWrap, Sub, SubWrap, Mul, MulWrap, Div, Mod, BitAnd, BitOr,
			BitXor, Shl, Shr, BoolAnd, BoolOr, Equal, NotEqual, LessThan,
			GreaterThan, LessOrEqual, GreaterOrEqual, Assign, AssignAdd,
			AssignSub, AssignMul, AssignDiv, AssignMod, AssignBitAnd,
			AssignBitOr, AssignBitXor, AssignShl, AssignShr, Catch, OrElse,
			ErrorUnion, MergeErrorSets, Range:
			n = d.AsIndexLHS()
			continue

		case FieldAccess, UnwrapOptional, Deref, ArrayAccess, SliceOpen,
			Slice, SliceSentinel:
			n = d.AsIndexLHS()
			continue

		case ContainerDeclStruct, ContainerDeclStructComma,
			ContainerDeclUnion, ContainerDeclUnionComma,
			ContainerDeclEnum, ContainerDeclEnumComma, ContainerDeclOpaque,
			TaggedUnion, TaggedUnionComma, TaggedUnionEnumTag:
			return backOverModifiers(t, main)

		case ArrayInit, StructInit:
			n = d.AsIndexLHS()
			continue
		case ArrayInitComma, StructInitComma, ArrayInitDot, ArrayInitDotComma,
			StructInitDot, StructInitDotComma:
			return main // '.' token

		case FnProtoSimple, FnProtoMulti, FnProtoOne, FnProto:
			return backOverModifiers(t, main)
		case FnDecl:
			n = d.AsIndexLHS()
			continue

		case CallOne, CallOneComma, Call, CallComma:
			n = d.AsIndexLHS()
			continue
		case AsyncCallOne, AsyncCallOneComma, AsyncCall, AsyncCallComma:
			// main_token is the call's closing ')', nowhere near the
			// 'async' keyword; descend to the callee's own firstToken
			// and step back one, since 'async' immediately precedes it.
			return t.FirstToken(d.AsIndexLHS()) - 1

		case IfSimple, If, WhileSimple, WhileCont, While, ForSimple, For:
			return labelBackOffset(t, main)

		case SwitchExpr:
			return main
		case SwitchCase, SwitchCaseOne:
			if d.LHS == 0 && tag == SwitchCaseOne {
				return main // 'else'
			}
			n = firstSwitchValue(t, tag, d)
			continue

		case Return, Defer, Errdefer:
			return main
		case AsmSimple, Asm:
			return backOverModifiers(t, main)

		case Block, BlockSemicolon, LabeledBlock:
			return labelBackOffset(t, main)

		case ArrayType, ArrayTypeSentinel:
			return main // '['
		case PtrTypeAligned, PtrTypeSentinel, PtrTypeBitRange, SliceType:
			return ptrTypeFirstToken(t, n, main)
		case AnyframeType:
			return main

		case SimpleVarDecl, AlignedVarDecl, LocalVarDecl, GlobalVarDecl:
			return backOverModifiers(t, main)

		case ContainerFieldSimple, ContainerFieldInit, ContainerFieldAlign:
			if main > 0 && t.TokenTag(main-1) == token.KeywordComptime {
				return main - 1
			}
			return main

		case ExprStmt:
			if d.LHS == 0 {
				return main
			}
			n = d.AsIndexLHS()
			continue

		default:
			t.invalid(n, "firstToken: unhandled tag")
		}
	}
}

// LastToken returns the latest token spanned by n.
func (t *Tree) LastToken(n Index) token.Index {
	for {
		tag := t.Tags[n]
		main := t.MainTokens[n]
		d := t.Datas[n]

		switch tag {
		case Root:
			decls := t.RootDecls()
			if len(decls) == 0 {
				return 0
			}
			n = decls[len(decls)-1]
			continue

		case IntegerLiteral, FloatLiteral, CharLiteral, StringLiteral,
			MultilineStringLiteral, TrueLiteral, FalseLiteral, NullLiteral,
			UndefinedLiteral, UnreachableLiteral, Identifier, EnumLiteral,
			AnyframeLiteral, Break, Continue, SuspendExpr:
			return main

		case AnyframeType:
			// "anyframe->T": always carries a result type, so the span
			// extends through T rather than stopping at the keyword.
			n = d.AsIndexRHS()
			continue

		case ArrayType:
			n = d.AsIndexRHS()
			continue

		case ErrorValue:
			return main

		case BoolNot, Negation, BitNot, NegationWrap, AddressOf, Try, Await,
			OptionalType, Resume, NosuspendExpr, ComptimeExpr, UsingNamespace,
			CancelExpr:
			n = d.AsIndexLHS()
			continue

		case Add, AddWrap, Sub, SubWrap, Mul, MulWrap, Div, Mod, BitAnd, BitOr,
			BitXor, Shl, Shr, BoolAnd, BoolOr, Equal, NotEqual, LessThan,
			GreaterThan, LessOrEqual, GreaterOrEqual, Assign, AssignAdd,
			AssignSub, AssignMul, AssignDiv, AssignMod, AssignBitAnd,
			AssignBitOr, AssignBitXor, AssignShl, AssignShr, Catch, OrElse,
			ErrorUnion, MergeErrorSets, Range:
			n = d.AsIndexRHS()
			continue

		case FieldAccess, UnwrapOptional, Deref:
			return main

		case ArrayAccess:
			return t.LastToken(d.AsIndexRHS()) + 1 // ']'

		case SliceOpen:
			if d.RHS != 0 {
				return t.LastToken(d.AsIndexRHS()) + 2 // "..]"
			}
			return main + 2 // "[..]"

		case Slice:
			rec := ExtraData[SliceData](t, d.RHS)
			return t.LastToken(rec.End) + 1 // ']'

		case SliceSentinel:
			rec := ExtraData[SliceSentinelData](t, d.RHS)
			return t.LastToken(rec.Sentinel) + 1 // ']'

		case ContainerDeclStruct, ContainerDeclUnion, ContainerDeclEnum,
			ContainerDeclOpaque, TaggedUnion, TaggedUnionEnumTag:
			return containerLastToken(t, n, tag, d, false)
		case ContainerDeclStructComma, ContainerDeclUnionComma,
			ContainerDeclEnumComma, TaggedUnionComma:
			return containerLastToken(t, n, tag, d, true)

		case ArrayInit:
			rec := ExtraData[SubRange](t, d.RHS)
			return lastOfRangeThenBracket(t, rec, false)
		case ArrayInitComma:
			rec := ExtraData[SubRange](t, d.RHS)
			return lastOfRangeThenBracket(t, rec, true)
		case ArrayInitDot:
			rec := ExtraData[SubRange](t, d.LHS)
			return lastOfRangeThenBracket(t, rec, false)
		case ArrayInitDotComma:
			rec := ExtraData[SubRange](t, d.LHS)
			return lastOfRangeThenBracket(t, rec, true)
		case StructInit:
			rec := ExtraData[SubRange](t, d.RHS)
			return lastOfRangeThenBrace(t, rec, false)
		case StructInitComma:
			rec := ExtraData[SubRange](t, d.RHS)
			return lastOfRangeThenBrace(t, rec, true)
		case StructInitDot:
			rec := ExtraData[SubRange](t, d.LHS)
			return lastOfRangeThenBrace(t, rec, false)
		case StructInitDotComma:
			rec := ExtraData[SubRange](t, d.LHS)
			return lastOfRangeThenBrace(t, rec, true)

		case FnProtoSimple:
			return t.LastToken(d.AsIndexRHS())
		case FnProtoMulti:
			return t.LastToken(d.AsIndexRHS())
		case FnProtoOne:
			rec := ExtraData[FnProtoOneData](t, d.LHS)
			return fnProtoTailThenReturn(rec.Align, rec.Section, rec.Callconv, d.AsIndexRHS(), t)
		case FnProto:
			rec := ExtraData[FnProtoData](t, d.LHS)
			return fnProtoTailThenReturn(rec.Align, rec.Section, rec.Callconv, d.AsIndexRHS(), t)
		case FnDecl:
			if d.RHS == 0 {
				// bodiless prototype: its ';' is left to statement context
				n = d.AsIndexLHS()
				continue
			}
			n = d.AsIndexRHS()
			continue

		case CallOne, Call, AsyncCallOne, AsyncCall:
			return callLastToken(t, n, d, false)
		case CallOneComma, CallComma, AsyncCallOneComma, AsyncCallComma:
			return callLastToken(t, n, d, true)

		case IfSimple:
			n = d.AsIndexRHS()
			continue
		case If:
			rec := ExtraData[IfData](t, d.RHS)
			if rec.Else != 0 {
				n = rec.Else
			} else {
				n = rec.Then
			}
			continue
		case WhileSimple:
			n = d.AsIndexRHS()
			continue
		case WhileCont:
			rec := ExtraData[WhileContData](t, d.RHS)
			n = rec.Then
			continue
		case While:
			rec := ExtraData[WhileData](t, d.RHS)
			if rec.Else != 0 {
				n = rec.Else
			} else {
				n = rec.Then
			}
			continue
		case ForSimple:
			n = d.AsIndexRHS()
			continue
		case For:
			rec := ExtraData[IfData](t, d.RHS)
			if rec.Else != 0 {
				n = rec.Else
			} else {
				n = rec.Then
			}
			continue

		case SwitchExpr:
			rec := ExtraData[SubRange](t, d.RHS)
			comma := false
			if rec.End > rec.Start {
				lastCase := Index(t.ExtraData[rec.End-1])
				comma = t.TokenTag(t.LastToken(lastCase)+1) == token.Comma
			}
			return lastOfRangeThenBrace(t, rec, comma)
		case SwitchCaseOne:
			n = d.AsIndexRHS()
			continue
		case SwitchCase:
			n = d.AsIndexRHS()
			continue

		case Return, Defer, Errdefer:
			if d.LHS == 0 {
				return main
			}
			n = d.AsIndexLHS()
			continue

		case AsmSimple:
			return d.AsTokenRHS()
		case Asm:
			rec := ExtraData[AsmData](t, d.RHS)
			return rec.RParenToken

		case Block:
			return blockLastToken(t, n, main, false)
		case BlockSemicolon:
			return blockLastToken(t, n, main, true)
		case LabeledBlock:
			// main is the label; '{' follows "label :". The tag does not
			// record a trailing ';' after the last statement, so step
			// over one if the statement's span stops just before it.
			end := blockLastToken(t, n, main+2, false)
			if t.TokenTag(end) == token.Semicolon {
				end++
			}
			return end

		case ArrayTypeSentinel:
			rec := ExtraData[ArrayTypeSentinelData](t, d.RHS)
			n = rec.ElemType
			continue
		case PtrTypeAligned, PtrTypeSentinel, PtrTypeBitRange, SliceType:
			n = d.AsIndexRHS()
			continue

		case SimpleVarDecl:
			if d.RHS != 0 {
				return t.LastToken(d.AsIndexRHS()) // ';' added by statement context
			}
			return main + 1
		case AlignedVarDecl:
			if d.RHS != 0 {
				return t.LastToken(d.AsIndexRHS())
			}
			return t.LastToken(d.AsIndexLHS()) + 1
		case LocalVarDecl:
			rec := ExtraData[LocalVarDeclData](t, d.LHS)
			if d.RHS != 0 {
				return t.LastToken(d.AsIndexRHS())
			}
			if rec.Align != 0 {
				return t.LastToken(rec.Align) + 1
			}
			return t.LastToken(rec.Type)
		case GlobalVarDecl:
			rec := ExtraData[GlobalVarDeclData](t, d.LHS)
			if d.RHS != 0 {
				return t.LastToken(d.AsIndexRHS())
			}
			max := rec.Type
			if rec.Align != 0 && rec.Align > max {
				max = rec.Align
			}
			if rec.Section != 0 && rec.Section > max {
				max = rec.Section
			}
			if rec.Section != 0 {
				return t.LastToken(rec.Section) + 1
			}
			if rec.Align != 0 {
				return t.LastToken(rec.Align) + 1
			}
			return t.LastToken(rec.Type)

		case ContainerFieldSimple:
			return t.LastToken(d.AsIndexLHS())
		case ContainerFieldInit:
			return t.LastToken(d.AsIndexRHS())
		case ContainerFieldAlign:
			rec := ExtraData[ContainerField](t, d.RHS)
			if rec.Value != 0 {
				return t.LastToken(rec.Value)
			}
			return t.LastToken(rec.Align) + 1

		case ExprStmt:
			if d.LHS == 0 {
				return main
			}
			n = d.AsIndexLHS()
			continue

		default:
			t.invalid(n, "lastToken: unhandled tag")
		}
	}
}

// backOverModifiers walks backward over the leading-modifier token run
// (pub, export, extern, comptime, threadlocal, inline) to find the true
// first token of a var-decl/fn-proto/container/asm node, per spec.md
// §4.2's "modifier-bearing tags" rule.
func backOverModifiers(t *Tree, main token.Index) token.Index {
	tok := main
	for tok > 0 {
		prev := tok - 1
		switch t.TokenTag(prev) {
		case token.KeywordPub, token.KeywordExport, token.KeywordExtern,
			token.KeywordComptime, token.KeywordThreadlocal, token.KeywordInline,
			token.KeywordNosuspend:
			tok = prev
		default:
			return tok
		}
	}
	return tok
}

// labelBackOffset extends backOverModifiers to also include a preceding
// "label :" pair, per spec.md §4.2's labeled-block rule.
func labelBackOffset(t *Tree, main token.Index) token.Index {
	tok := backOverModifiers(t, main)
	if tok > 0 && t.TokenTag(tok-1) == token.Colon && tok >= 2 && t.TokenTag(tok-2) == token.Identifier {
		tok -= 2
	}
	return tok
}

func ptrTypeFirstToken(t *Tree, n Index, main token.Index) token.Index {
	// "**" is a single token shared between an outer and inner pointer
	// type; the outer node's firstToken must not double count it, so if
	// the preceding token is itself "**" owned by a parent we still
	// return main: the parent is responsible for skipping its own
	// rendering of the asterisk, not for rewriting this child's bounds.
	return main
}

func firstSwitchValue(t *Tree, tag Tag, d Data) Index {
	if tag == SwitchCaseOne {
		return Index(d.LHS)
	}
	rec := ExtraData[SubRange](t, d.LHS)
	if rec.End <= rec.Start {
		// "else -> target": no value list, so the span starts at the
		// target expression.
		return Index(d.RHS)
	}
	return Index(t.ExtraData[rec.Start])
}

func containerLastToken(t *Tree, n Index, tag Tag, d Data, comma bool) token.Index {
	rec := ExtraData[SubRange](t, d.RHS)
	return lastOfRangeThenBrace(t, rec, comma)
}

func lastOfRangeThenBrace(t *Tree, rec SubRange, comma bool) token.Index {
	if rec.End <= rec.Start {
		return t.MainTokens[0] // unreachable on well-formed trees; placeholder
	}
	last := Index(t.ExtraData[rec.End-1])
	end := t.LastToken(last)
	if comma {
		end++
	}
	return end + 1 // '}'
}

func lastOfRangeThenBracket(t *Tree, rec SubRange, comma bool) token.Index {
	if rec.End <= rec.Start {
		return t.MainTokens[0]
	}
	last := Index(t.ExtraData[rec.End-1])
	end := t.LastToken(last)
	if comma {
		end++
	}
	return end + 1 // ']'
}

// fnProtoTailThenReturn implements spec.md §4.2's "prototype return
// type ordering" rule: align/linksection/callconv may appear in any
// order, so lastToken takes whichever of the return type and those
// clauses has the latest main token, adding 1 for a clause's trailing ')'.
func fnProtoTailThenReturn(align, section, callconv Index, returnType Index, t *Tree) token.Index {
	maxNode := returnType
	var maxOffset token.Index
	for _, clause := range []Index{align, section, callconv} {
		if clause != 0 && t.MainTokens[clause] > t.MainTokens[maxNode] {
			maxNode = clause
			maxOffset = 1 // the clause's ')'
		}
	}
	return t.LastToken(maxNode) + maxOffset
}

func callLastToken(t *Tree, n Index, d Data, comma bool) token.Index {
	tag := t.Tags[n]
	var last Index
	switch tag {
	case CallOne, AsyncCallOne, CallOneComma, AsyncCallOneComma:
		last = Index(d.RHS)
		if last == 0 {
			return t.MainTokens[n] // main_token is the ')' of '()'
		}
	default:
		rec := ExtraData[SubRange](t, d.RHS)
		if rec.End <= rec.Start {
			return t.MainTokens[n]
		}
		last = Index(t.ExtraData[rec.End-1])
	}
	end := t.LastToken(last)
	if comma {
		end++
	}
	return end + 1 // ')'
}

func blockLastToken(t *Tree, n Index, main token.Index, semicolon bool) token.Index {
	d := t.Datas[n]
	rec := ExtraData[SubRange](t, d.LHS)
	if rec.End <= rec.Start {
		return main + 1 // '{}'
	}
	last := Index(t.ExtraData[rec.End-1])
	end := t.LastToken(last)
	if semicolon {
		end++
	}
	return end + 1 // '}'
}
