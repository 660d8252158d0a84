// Package ast is the cache-friendly abstract syntax tree: parallel
// indexed arrays rather than heap-allocated node objects, with "full
// view" reconstruction on demand (views.go) and token-position recovery
// computed purely from tags and data (geometry.go). This is THE CORE
// described by the specification this repository implements; parser
// builds it, render formats it, and diag and cmd/zxfmt read it.
package ast

import (
	"reflect"

	"github.com/gmofishsauce/wut4/lang/zxfmt/token"
)

// Index identifies a node within a Tree. Index(0) is reserved: it is
// simultaneously "the root" and the null sentinel for optional lhs/rhs
// fields, so no node may legitimately reference node 0 as a child.
type Index uint32

// Null is the sentinel meaning "absent" in an optional Data field.
const Null Index = 0

// Data holds the two 32-bit payload fields every node carries. Each
// field's interpretation (child Index, token.Index, or extra_data
// start) is fixed per Tag; see the comment on each Tag constant.
type Data struct {
	LHS uint32
	RHS uint32
}

// AsIndex/AsToken read a Data field under its tag-specific interpretation.
func (d Data) AsIndexLHS() Index       { return Index(d.LHS) }
func (d Data) AsIndexRHS() Index       { return Index(d.RHS) }
func (d Data) AsTokenLHS() token.Index { return token.Index(d.LHS) }
func (d Data) AsTokenRHS() token.Index { return token.Index(d.RHS) }

// Tree is the AstStore: a structure-of-arrays over nodes, plus the
// extra_data side table and the token stream that anchors every node.
// It is built once by parser.Parse and is read-only from then on; views
// and the renderer borrow from it and never mutate it.
type Tree struct {
	Tokens token.Stream

	Tags       []Tag
	MainTokens []token.Index
	Datas      []Data

	// ExtraData stores homogeneous u32 words for records whose size
	// exceeds two fields. Records are addressed by a start index; see
	// extraData and the record types below for field order.
	ExtraData []uint32

	// Errors are a data product, not an error channel: parser.Parse
	// collects them here for diag to format, it never returns them as
	// a Go error.
	Errors []Error
}

// NewTree wraps a token stream into an empty, growable store. The single
// append-driven growth of Tags/MainTokens/Datas/ExtraData/Errors is the
// Go reading of the spec's "single arena-style allocator owns all four
// arrays" discipline: there is no separate allocator parameter because
// Go has no manual allocator to thread through, and there is no Deinit
// because the GC reclaims the slices when Tree becomes unreachable (see
// DESIGN.md's Open Question resolution).
func NewTree(tokens token.Stream) *Tree {
	t := &Tree{Tokens: tokens}
	// Node 0 is the reserved root/null sentinel; give it a real (if
	// inert) slot so every other index is 1-based like the spec requires.
	t.Tags = append(t.Tags, Root)
	t.MainTokens = append(t.MainTokens, 0)
	t.Datas = append(t.Datas, Data{})
	return t
}

// AddNode appends a node and returns its Index.
func (t *Tree) AddNode(tag Tag, mainToken token.Index, data Data) Index {
	t.Tags = append(t.Tags, tag)
	t.MainTokens = append(t.MainTokens, mainToken)
	t.Datas = append(t.Datas, data)
	return Index(len(t.Tags) - 1)
}

// AddExtra appends a record's fields to ExtraData and returns the start
// index callers should store in a node's lhs/rhs field.
func AddExtra[T any](t *Tree, rec T) uint32 {
	start := uint32(len(t.ExtraData))
	v := reflect.ValueOf(rec)
	for i := 0; i < v.NumField(); i++ {
		t.ExtraData = append(t.ExtraData, uint32(v.Field(i).Uint()))
	}
	return start
}

// ExtraData decodes a fixed-layout record starting at start. T's fields
// must all have an underlying uint32 type (Index, token.Index, or
// plain uint32); order matters and must match the record's declared
// layout. This is the Go analogue of the spec's per-record field
// enumeration, implemented with reflection since Go has no comptime
// struct-field iteration.
func ExtraData[T any](t *Tree, start uint32) T {
	var rec T
	v := reflect.ValueOf(&rec).Elem()
	for i := 0; i < v.NumField(); i++ {
		v.Field(i).SetUint(uint64(t.ExtraData[start+uint32(i)]))
	}
	return rec
}

func (t *Tree) NodeTag(n Index) Tag             { return t.Tags[n] }
func (t *Tree) MainToken(n Index) token.Index   { return t.MainTokens[n] }
func (t *Tree) NodeData(n Index) Data           { return t.Datas[n] }
func (t *Tree) TokenTag(i token.Index) token.Tag {
	if int(i) >= t.Tokens.Len() {
		return token.Eof
	}
	return t.Tokens.Tag(i)
}
func (t *Tree) TokenStart(i token.Index) uint32 { return t.Tokens.Start(i) }
func (t *Tree) TokenLexeme(i token.Index) string { return t.Tokens.Lexeme(i) }

// RootDecls returns the top-level declarations, read out of the root
// node's lhs..rhs window into ExtraData (spec.md §3.2).
func (t *Tree) RootDecls() []Index {
	root := t.Datas[0]
	var out []Index
	for i := root.LHS; i < root.RHS; i++ {
		out = append(out, Index(t.ExtraData[i]))
	}
	return out
}

// SetRootDecls records the top-level declaration list as an extra_data
// window and points the root node's lhs..rhs at it. Called once by the
// parser after every top-level declaration has been parsed.
func (t *Tree) SetRootDecls(decls []Index) {
	start := uint32(len(t.ExtraData))
	for _, d := range decls {
		t.ExtraData = append(t.ExtraData, uint32(d))
	}
	end := uint32(len(t.ExtraData))
	t.Datas[0] = Data{LHS: start, RHS: end}
}

// ExtraDataSlice reads a contiguous run of raw Index values out of
// ExtraData, used for the variable-width parts of records such as
// Asm's item list.
func (t *Tree) ExtraDataSlice(start, end uint32) []Index {
	out := make([]Index, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, Index(t.ExtraData[i]))
	}
	return out
}

// FnParamsSlice decodes fn_proto_multi/fn_proto's parameter list: pairs
// of (name token, type index) packed back-to-back starting at start.
func (t *Tree) FnParamsSlice(start, end uint32) []FnParam {
	out := make([]FnParam, 0, (end-start)/2)
	for i := start; i < end; i += 2 {
		out = append(out, FnParam{NameToken: token.Index(t.ExtraData[i]), Type: Index(t.ExtraData[i+1])})
	}
	return out
}
