package render

import (
	"strings"

	"golang.org/x/text/width"
)

// maxLineWidth is the column budget a one-line candidate must fit under
// before the renderer commits to single-line layout (spec.md §4.3's
// second layout signal, after the trailing comma).
const maxLineWidth = 100

// tryOneLine renders a candidate fragment into a scratch sink, rejecting
// it if it spans more than one source line or overflows the column
// budget. render writes into tmp exactly as it would into the real sink;
// callers splice the returned string in place of a multi-line layout.
func (r *renderer) tryOneLine(render func(tmp *renderer)) (string, bool) {
	tmp := &renderer{tree: r.tree, sink: newIndentingSink()}
	tmp.sink.atLineStart = false
	render(tmp)
	candidate := tmp.sink.buf.String()
	if strings.ContainsRune(candidate, '\n') {
		return "", false
	}
	column := r.sink.indent*r.sink.delta + displayWidth(candidate)
	if column > maxLineWidth {
		return "", false
	}
	return candidate, true
}

// displayWidth measures a string's terminal column width, counting
// East Asian wide/fullwidth runes as two columns rather than one so the
// line-width budget matches what actually prints, not rune count.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}
