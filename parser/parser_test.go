package parser_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmofishsauce/wut4/lang/zxfmt/ast"
	"github.com/gmofishsauce/wut4/lang/zxfmt/parser"
)

func TestParseTrivialFunction(t *testing.T) {
	tree := parser.Parse([]byte("fn a()void{return;}"))
	require.Empty(t, tree.Errors)
	decls := tree.RootDecls()
	require.Len(t, decls, 1)
	assert.Equal(t, ast.FnDecl, tree.NodeTag(decls[0]))
}

func TestParseVarDeclShapes(t *testing.T) {
	tests := []struct {
		src     string
		wantTag ast.Tag
	}{
		{"const a = 1;\n", ast.SimpleVarDecl},
		{"var a align(4) = 1;\n", ast.AlignedVarDecl},
		{"var a: i32 = 1;\n", ast.LocalVarDecl},
		{"var a: i32 linksection(\".data\") = 1;\n", ast.GlobalVarDecl},
	}
	for _, tt := range tests {
		tree := parser.Parse([]byte(tt.src))
		require.Empty(t, tree.Errors, tt.src)
		decls := tree.RootDecls()
		require.Len(t, decls, 1, tt.src)
		assert.Equal(t, tt.wantTag, tree.NodeTag(decls[0]), tt.src)
	}
}

func TestParseFnProtoParameterShapes(t *testing.T) {
	tests := []struct {
		src     string
		wantTag ast.Tag
	}{
		{"fn a() void {}\n", ast.FnProtoSimple},
		{"fn a(x) void {}\n", ast.FnProtoSimple}, // untyped single parameter
		{"fn a(x: i32) void {}\n", ast.FnProtoOne},
		{"fn a(x: i32, y: i32) void {}\n", ast.FnProtoMulti},
	}
	for _, tt := range tests {
		tree := parser.Parse([]byte(tt.src))
		require.Empty(t, tree.Errors, tt.src)
		fnDecl := tree.RootDecls()[0]
		proto := ast.Index(tree.NodeData(fnDecl).LHS)
		assert.Equal(t, tt.wantTag, tree.NodeTag(proto), tt.src)
	}
}

func TestParseUntypedParamKeepsName(t *testing.T) {
	tree := parser.Parse([]byte("fn a(x) void {}\n"))
	require.Empty(t, tree.Errors)
	fnDecl := tree.RootDecls()[0]
	proto := ast.Index(tree.NodeData(fnDecl).LHS)
	require.Equal(t, ast.FnProtoSimple, tree.NodeTag(proto))
	nameTok := tree.NodeData(proto).AsTokenLHS()
	require.NotZero(t, nameTok)
	assert.Equal(t, "x", tree.TokenLexeme(nameTok))
}

func TestParseDocCommentDoesNotDesyncStatements(t *testing.T) {
	src := "fn a() void {\n/// a doc comment\nconst x = 1;\nreturn;\n}\n"
	tree := parser.Parse([]byte(src))
	assert.Empty(t, tree.Errors)
}

func TestParseContainerDocCommentAtTopLevel(t *testing.T) {
	src := "//! module doc\nconst a = 1;\n"
	tree := parser.Parse([]byte(src))
	assert.Empty(t, tree.Errors)
	assert.Len(t, tree.RootDecls(), 1)
}

func TestParseUnattachedDocCommentIsAnError(t *testing.T) {
	tree := parser.Parse([]byte("fn a() void {\n/// orphaned\n}\n"))
	require.NotEmpty(t, tree.Errors)
	found := false
	for _, e := range tree.Errors {
		if e.Tag == ast.ErrUnattachedDocComment {
			found = true
		}
	}
	assert.True(t, found, "expected ErrUnattachedDocComment, got %+v", tree.Errors)
}

func TestParseInvalidAndAndIsRejected(t *testing.T) {
	tree := parser.Parse([]byte("fn a() void { const x = a && b; }\n"))
	require.NotEmpty(t, tree.Errors)
	found := false
	for _, e := range tree.Errors {
		if e.Tag == ast.ErrInvalidAndAnd {
			found = true
		}
	}
	assert.True(t, found, "expected ErrInvalidAndAnd, got %+v", tree.Errors)
}

func TestParseCallTrailingCommaTag(t *testing.T) {
	tests := []struct {
		src     string
		wantTag ast.Tag
	}{
		{"fn a() void { foo(a, b); }\n", ast.Call},
		{"fn a() void { foo(a, b,); }\n", ast.CallComma},
		{"fn a() void { foo(a); }\n", ast.CallOne},
		{"fn a() void { foo(a,); }\n", ast.CallOneComma},
	}
	for _, tt := range tests {
		tree := parser.Parse([]byte(tt.src))
		require.Empty(t, tree.Errors, tt.src)
		var got ast.Tag
		for _, tag := range tree.Tags {
			switch tag {
			case ast.CallOne, ast.CallOneComma, ast.Call, ast.CallComma:
				got = tag
			}
		}
		assert.Equal(t, tt.wantTag, got, tt.src)
	}
}

func TestParseSwitchExpr(t *testing.T) {
	src := "fn a() void { switch (x) { 1 -> a, 2 -> b, else -> c, }; }\n"
	tree := parser.Parse([]byte(src))
	require.Empty(t, tree.Errors)

	var found bool
	for i := ast.Index(1); int(i) < len(tree.Tags); i++ {
		if tree.NodeTag(i) == ast.SwitchExpr {
			found = true
		}
	}
	assert.True(t, found, "expected a SwitchExpr node")
}

func TestParseErrorsAreADataProductNotAPanic(t *testing.T) {
	tree := parser.Parse([]byte("fn ("))
	assert.NotEmpty(t, tree.Errors)
}

func TestParseNeverInfiniteLoopsOnGarbage(t *testing.T) {
	// Regression guard for the "advance at least one token" invariant:
	// garbage input must still terminate in bounded time.
	done := make(chan struct{})
	go func() {
		parser.Parse([]byte("}}}{{{)))((( ,,,"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("parser did not terminate on malformed input")
	}
}
