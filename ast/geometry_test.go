package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmofishsauce/wut4/lang/zxfmt/ast"
	"github.com/gmofishsauce/wut4/lang/zxfmt/parser"
	"github.com/gmofishsauce/wut4/lang/zxfmt/token"
)

// corpus is a set of programs exercising a broad slice of the grammar;
// the invariant checks below walk every node of every parsed tree,
// which is the property-based spirit of spec.md §8 without pulling in
// a dedicated quickcheck-style generator the example pack never uses.
var corpus = []string{
	"const a = 1;\n",
	"var x: **u8;\n",
	"fn a() void { return; }\n",
	"fn add(a: i32, b: i32) i32 { return a + b; }\n",
	"fn a() void { foo(a, b,); }\n",
	"fn a() void { foo(a, b); }\n",
	"const a = 1;\n\n\nconst b = 2;\n",
	"fn a() void { blk: while (a) |v| : (v += 1) { body; } else |e| { fail; } }\n",
	"fn a() void { if (a) b; else c; }\n",
	"fn a() void { for (xs) |x| body; }\n",
	"const S = struct { x: i32, y: i32, };\n",
	"fn a() void { switch (x) { 1 -> a, else -> b, }; }\n",
	"/// documents a\nconst a = 1;\n",
	"fn a() void { const x = foo(1, 2, 3); return x; }\n",
	"var x: anyframe->u8;\n",
	"fn a() void { const x = async foo(1); return x; }\n",
}

func mustParse(t *testing.T, src string) *ast.Tree {
	t.Helper()
	tree := parser.Parse([]byte(src))
	require.Empty(t, tree.Errors, "unexpected parse errors for %q: %+v", src, tree.Errors)
	return tree
}

// children enumerates n's direct Index-valued child nodes by reading
// its Data fields the same way geometry does: this is necessarily a
// partial, tag-driven list (not every tag's children are enumerated),
// but it covers every node shape the corpus above actually produces.
func children(t *ast.Tree, n ast.Index) []ast.Index {
	d := t.NodeData(n)
	var out []ast.Index
	switch t.NodeTag(n) {
	case ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Mod, ast.Assign, ast.AssignAdd,
		ast.Equal, ast.NotEqual, ast.LessThan, ast.GreaterThan, ast.BoolAnd, ast.BoolOr:
		out = append(out, ast.Index(d.LHS), ast.Index(d.RHS))
	case ast.FieldAccess, ast.Deref:
		out = append(out, ast.Index(d.LHS))
	case ast.Return, ast.Defer, ast.Errdefer:
		if d.LHS != 0 {
			out = append(out, ast.Index(d.LHS))
		}
	case ast.ExprStmt:
		if d.LHS != 0 {
			out = append(out, ast.Index(d.LHS))
		}
	case ast.FnDecl:
		out = append(out, ast.Index(d.LHS))
		if d.RHS != 0 {
			out = append(out, ast.Index(d.RHS))
		}
	case ast.SimpleVarDecl:
		if d.RHS != 0 {
			out = append(out, ast.Index(d.RHS))
		}
	case ast.Block, ast.BlockSemicolon, ast.LabeledBlock:
		rec := ast.ExtraData[ast.SubRange](t, d.LHS)
		out = append(out, t.ExtraDataSlice(uint32(rec.Start), uint32(rec.End))...)
	case ast.CallOne, ast.CallOneComma:
		out = append(out, ast.Index(d.LHS))
		if d.RHS != 0 {
			out = append(out, ast.Index(d.RHS))
		}
	case ast.Call, ast.CallComma:
		out = append(out, ast.Index(d.LHS))
		rec := ast.ExtraData[ast.SubRange](t, d.RHS)
		out = append(out, t.ExtraDataSlice(uint32(rec.Start), uint32(rec.End))...)
	}
	return out
}

func TestSpanContainment(t *testing.T) {
	for _, src := range corpus {
		tree := mustParse(t, src)
		for n := ast.Index(1); int(n) < len(tree.Tags); n++ {
			for _, c := range children(tree, n) {
				if c == 0 {
					continue
				}
				assert.LessOrEqual(t, tree.FirstToken(n), tree.FirstToken(c), "src %q node %d->%d", src, n, c)
				assert.LessOrEqual(t, tree.FirstToken(c), tree.LastToken(c), "src %q node %d", src, c)
				assert.LessOrEqual(t, tree.LastToken(c), tree.LastToken(n), "src %q node %d->%d", src, n, c)
			}
		}
	}
}

func TestAnchorBounds(t *testing.T) {
	for _, src := range corpus {
		tree := mustParse(t, src)
		for n := ast.Index(1); int(n) < len(tree.Tags); n++ {
			first := tree.FirstToken(n)
			last := tree.LastToken(n)
			main := tree.MainToken(n)
			assert.LessOrEqual(t, first, main, "src %q node %d (tag %v)", src, n, tree.NodeTag(n))
			assert.LessOrEqual(t, main, last, "src %q node %d (tag %v)", src, n, tree.NodeTag(n))
		}
	}
}

func TestSiblingMonotonicityAcrossRootDecls(t *testing.T) {
	tree := mustParse(t, "const a = 1;\n\n\nconst b = 2;\n")
	decls := tree.RootDecls()
	require.Len(t, decls, 2)
	assert.Less(t, tree.LastToken(decls[0]), tree.FirstToken(decls[1]))
}

func TestSiblingMonotonicityAcrossStatements(t *testing.T) {
	tree := mustParse(t, "fn a() void { const x = 1; return; }\n")
	fn := tree.RootDecls()[0]
	d := tree.NodeData(fn)
	body := ast.Index(d.RHS)
	stmts := children(tree, body)
	require.Len(t, stmts, 2)
	assert.Less(t, tree.LastToken(stmts[0]), tree.FirstToken(stmts[1]))
}

func TestPointerCollapseFirstToken(t *testing.T) {
	tree := mustParse(t, "var x: **u8;\n")
	v, ok := tree.VarDecl(tree.RootDecls()[0])
	require.True(t, ok)
	require.NotEqual(t, ast.Null, v.Type)
	// The outer pointer type's firstToken must be the single "**" token,
	// never double-counted against the inner pointer type it wraps.
	assert.Equal(t, token.AsteriskAsterisk, tree.TokenTag(tree.FirstToken(v.Type)))
}

func TestAnyframeTypeLastTokenIncludesResultType(t *testing.T) {
	tree := mustParse(t, "var x: anyframe->u8;\n")
	v, ok := tree.VarDecl(tree.RootDecls()[0])
	require.True(t, ok)
	require.Equal(t, ast.AnyframeType, tree.NodeTag(v.Type))
	// lastToken must reach the result type's token, not stop at 'anyframe'.
	assert.Equal(t, token.Identifier, tree.TokenTag(tree.LastToken(v.Type)))
	assert.Equal(t, "u8", tree.TokenLexeme(tree.LastToken(v.Type)))
}

func TestAsyncCallFirstTokenIsAsyncKeyword(t *testing.T) {
	tree := mustParse(t, "fn a() void { const x = async foo(1); return x; }\n")
	var call ast.Index
	for n := ast.Index(1); int(n) < len(tree.Tags); n++ {
		if tree.NodeTag(n) == ast.AsyncCallOne {
			call = n
		}
	}
	require.NotZero(t, call, "expected an AsyncCallOne node")
	first := tree.FirstToken(call)
	assert.Equal(t, token.KeywordAsync, tree.TokenTag(first))
	assert.LessOrEqual(t, first, tree.MainToken(call))
}

func TestGeometryPanicsOnInvalidTree(t *testing.T) {
	tree := ast.NewTree(token.Tokenize([]byte("x")))
	n := tree.AddNode(ast.Tag(255), 0, ast.Data{})
	assert.Panics(t, func() { tree.FirstToken(n) })
}
