package diag_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmofishsauce/wut4/lang/zxfmt/ast"
	"github.com/gmofishsauce/wut4/lang/zxfmt/diag"
	"github.com/gmofishsauce/wut4/lang/zxfmt/parser"
	"github.com/gmofishsauce/wut4/lang/zxfmt/token"
)

// newTestFormatter builds a Formatter the same way cmd/zxfmt does, but
// against a plain temp file instead of stdout/stderr: a regular file is
// never a terminal, so isatty gates color off deterministically and
// Format's output is plain text regardless of where tests run.
func newTestFormatter(t *testing.T, filename string, src []byte, stream token.Stream) *diag.Formatter {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "diag-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return diag.NewFormatter(filename, src, stream, f)
}

func TestLocateFirstLineFirstColumn(t *testing.T) {
	src := []byte("fn a() void {}\n")
	stream := token.Tokenize(src)
	loc := diag.Locate(stream, src, 0)
	assert.Equal(t, 1, loc.Line)
	assert.Equal(t, 1, loc.Column)
}

func TestLocateAdvancesLineAndResetsColumn(t *testing.T) {
	src := []byte("const a = 1;\nconst b = 2;\n")
	stream := token.Tokenize(src)

	var secondLineTok token.Index
	for i := 0; i < stream.Len(); i++ {
		if stream.Start(token.Index(i)) >= uint32(len("const a = 1;\n")) {
			secondLineTok = token.Index(i)
			break
		}
	}
	require.NotZero(t, secondLineTok)

	loc := diag.Locate(stream, src, secondLineTok)
	assert.Equal(t, 2, loc.Line)
	assert.Equal(t, 1, loc.Column)
}

func TestLocateLineBoundsExcludeNewline(t *testing.T) {
	src := []byte("const a = 1;\nconst b = 2;\n")
	stream := token.Tokenize(src)
	loc := diag.Locate(stream, src, 0)
	assert.Equal(t, "const a = 1;", string(src[loc.LineStart:loc.LineEnd]))
}

func TestLocateClampsOffsetPastEndOfSource(t *testing.T) {
	src := []byte("x")
	stream := token.Tokenize(src)
	lastTok := token.Index(stream.Len() - 1) // Eof, whose start may equal len(src)
	loc := diag.Locate(stream, src, lastTok)
	assert.LessOrEqual(t, loc.LineStart, len(src))
	assert.LessOrEqual(t, loc.LineEnd, len(src))
}

func TestFormatIncludesFilenameLineAndColumn(t *testing.T) {
	tree := parser.Parse([]byte("fn ("))
	require.NotEmpty(t, tree.Errors)

	f := newTestFormatter(t, "broken.zx", []byte("fn ("), tree.Tokens)
	out := f.Format(tree.Errors[0])
	assert.Contains(t, out, "broken.zx:1:")
}

func TestFormatExpectedTokenIncludesExpectation(t *testing.T) {
	tree := parser.Parse([]byte("fn ("))
	require.NotEmpty(t, tree.Errors)

	var expectedErr *ast.Error
	for i := range tree.Errors {
		if tree.Errors[i].Tag == ast.ErrExpectedToken {
			expectedErr = &tree.Errors[i]
			break
		}
	}
	require.NotNil(t, expectedErr, "expected an ErrExpectedToken among %+v", tree.Errors)

	f := newTestFormatter(t, "broken.zx", []byte("fn ("), tree.Tokens)
	out := f.Format(*expectedErr)
	assert.Contains(t, out, "expected")
}

func TestFormatRendersCaretUnderColumn(t *testing.T) {
	src := []byte("fn (")
	tree := parser.Parse(src)
	require.NotEmpty(t, tree.Errors)

	f := newTestFormatter(t, "broken.zx", src, tree.Tokens)
	out := f.Format(tree.Errors[0])
	assert.Contains(t, out, "^")
}

func TestFormatAllSeparatesMultipleErrorsWithBlankLine(t *testing.T) {
	src := []byte("fn ( fn (")
	tree := parser.Parse(src)
	if len(tree.Errors) < 2 {
		t.Skip("this source did not reproduce multiple parse errors")
	}

	f := newTestFormatter(t, "broken.zx", src, tree.Tokens)
	out := f.FormatAll(tree)
	assert.Contains(t, out, "\n\n")
}

func TestFormatAllEmptyOnNoErrors(t *testing.T) {
	tree := parser.Parse([]byte("const a = 1;\n"))
	require.Empty(t, tree.Errors)

	f := newTestFormatter(t, "ok.zx", []byte("const a = 1;\n"), tree.Tokens)
	assert.Empty(t, f.FormatAll(tree))
}
