package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagsOf(t *testing.T, src string) []Tag {
	t.Helper()
	s := Tokenize([]byte(src))
	require.Equal(t, len(s.Tags), len(s.Starts))
	return s.Tags
}

func TestTokenizeKeywordsAndIdentifiers(t *testing.T) {
	tags := tagsOf(t, "fn var const x")
	assert.Equal(t, []Tag{KeywordFn, KeywordVar, KeywordConst, Identifier, Eof}, tags)
}

func TestTokenizeLongestMatchOperators(t *testing.T) {
	tests := []struct {
		src  string
		want Tag
	}{
		{"-", Minus},
		{"->", Arrow},
		{"*", Asterisk},
		{"**", AsteriskAsterisk},
		{"<", Less},
		{"<=", LessEqual},
		{"<<", LessLess},
		{"<<=", LessLessEqual},
		{"&", Ampersand},
		{"&&", AmpersandAmpersand},
		{"|", Pipe},
		{"||", PipePipe},
	}
	for _, tt := range tests {
		s := Tokenize([]byte(tt.src))
		require.GreaterOrEqual(t, s.Len(), 1)
		assert.Equal(t, tt.want, s.Tag(0), "tokenizing %q", tt.src)
	}
}

func TestTokenizePlainLineCommentIsTrivia(t *testing.T) {
	// Plain "//" comments are discarded entirely: no token is emitted for
	// them at all, unlike "///" doc comments.
	tags := tagsOf(t, "// just a comment\nx")
	assert.Equal(t, []Tag{Identifier, Eof}, tags)
}

func TestTokenizeDocCommentIsTokenized(t *testing.T) {
	tags := tagsOf(t, "/// doc\nfn a\n")
	assert.Equal(t, []Tag{DocComment, KeywordFn, Identifier, Eof}, tags)
}

func TestTokenizeContainerDocCommentIsTokenized(t *testing.T) {
	tags := tagsOf(t, "//! module doc\nconst a\n")
	assert.Equal(t, []Tag{ContainerDocComment, KeywordConst, Identifier, Eof}, tags)
}

func TestTokenizeBlockCommentIsTrivia(t *testing.T) {
	tags := tagsOf(t, "/* skip this */x")
	assert.Equal(t, []Tag{Identifier, Eof}, tags)
}

func TestLexemeRecoversIdentifierAndDocComment(t *testing.T) {
	src := []byte("/// a doc line\nfn foo\n")
	s := Tokenize(src)
	require.Equal(t, DocComment, s.Tag(0))
	assert.Equal(t, "/// a doc line", s.Lexeme(0))
	require.Equal(t, Identifier, s.Tag(2))
	assert.Equal(t, "foo", s.Lexeme(2))
}

func TestLexemeFixedSpellingDoesNotRescan(t *testing.T) {
	s := Tokenize([]byte("-> "))
	assert.Equal(t, "->", s.Lexeme(0))
}

func TestOptionalIndexUnwrap(t *testing.T) {
	none := NoToken
	_, ok := none.Unwrap()
	assert.False(t, ok)

	some := Some(Index(0))
	i, ok := some.Unwrap()
	assert.True(t, ok)
	assert.Equal(t, Index(0), i)
}

func TestStreamAlwaysEndsInEof(t *testing.T) {
	for _, src := range []string{"", "x", "fn a() void {}", "// only a comment\n"} {
		s := Tokenize([]byte(src))
		require.GreaterOrEqual(t, s.Len(), 1)
		assert.Equal(t, Eof, s.Tag(Index(s.Len()-1)), "source %q", src)
	}
}
