// Package diag turns ast.Error records and raw token positions into
// human-readable, optionally colorized diagnostics for cmd/zxfmt. It is
// the only package that knows about terminal color: token/ast/render
// stay free of any output-formatting concern.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/gmofishsauce/wut4/lang/zxfmt/ast"
	"github.com/gmofishsauce/wut4/lang/zxfmt/token"
)

// Location is a token's human-facing position: 1-based line and column,
// plus the byte range of the source line it falls on (for printing a
// caret under the offending column).
type Location struct {
	Line      int
	Column    int
	LineStart int
	LineEnd   int
}

// Locate computes tok's Location by scanning src from the start. This
// is the tokenLocation utility spec.md §6.1 names: deliberately a
// linear scan rather than a precomputed line-offset table, since it
// runs once per reported error, not once per token.
func Locate(stream token.Stream, src []byte, tok token.Index) Location {
	offset := int(stream.Start(tok))
	if offset > len(src) {
		offset = len(src)
	}

	line := 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}

	lineEnd := len(src)
	if idx := strings.IndexByte(string(src[lineStart:]), '\n'); idx >= 0 {
		lineEnd = lineStart + idx
	}

	return Location{
		Line:      line,
		Column:    offset - lineStart + 1,
		LineStart: lineStart,
		LineEnd:   lineEnd,
	}
}

// Formatter renders ast.Error values against a source buffer, colorizing
// the message when its output stream is a terminal.
type Formatter struct {
	filename string
	src      []byte
	stream   token.Stream
	errColor *color.Color
}

// NewFormatter builds a Formatter for one source file, writing to out.
// When out is a *os.File, go-isatty decides whether it is a real
// terminal (IsTerminal, or IsCygwinTerminal for a mintty-style Windows
// console) and errColor is enabled only in that case.
func NewFormatter(filename string, src []byte, stream token.Stream, out *os.File) *Formatter {
	isTTY := isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())
	c := color.New(color.FgRed, color.Bold)
	if isTTY {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return &Formatter{filename: filename, src: src, stream: stream, errColor: c}
}

// Colorable wraps out so ANSI escapes written through it render
// correctly on every supported platform, including the legacy Windows
// console that doesn't natively interpret them.
func Colorable(out *os.File) io.Writer {
	return colorable.NewColorable(out)
}

// Format renders one error as "file:line:col: message", followed by the
// offending source line and a caret.
func (f *Formatter) Format(e ast.Error) string {
	loc := Locate(f.stream, f.src, e.Token)
	var b strings.Builder
	header := fmt.Sprintf("%s:%d:%d: %s", f.filename, loc.Line, loc.Column, e.Tag)
	if e.Tag == ast.ErrExpectedToken {
		header = fmt.Sprintf("%s (expected %s)", header, e.Expected)
	}
	b.WriteString(f.errColor.Sprint(header))
	b.WriteByte('\n')
	b.WriteString(string(f.src[loc.LineStart:loc.LineEnd]))
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", loc.Column-1))
	b.WriteString("^")
	return b.String()
}

// FormatAll renders every error in tree, one block per error, in order.
func (f *Formatter) FormatAll(tree *ast.Tree) string {
	var b strings.Builder
	for i, e := range tree.Errors {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.Format(e))
		b.WriteByte('\n')
	}
	return b.String()
}
