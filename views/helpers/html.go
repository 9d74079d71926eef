package helpers

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Writer writes markup for a component, keeping the first write error.
type Writer struct {
	w   io.Writer
	err error
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes trusted markup.
func (hw *Writer) Raw(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

// Rawf formats trusted markup. Untrusted arguments must go through E.
func (hw *Writer) Rawf(format string, args ...any) {
	hw.Raw(fmt.Sprintf(format, args...))
}

// Text writes escaped text.
func (hw *Writer) Text(s string) {
	hw.Raw(templ.EscapeString(s))
}

// Render writes a child component.
func (hw *Writer) Render(ctx context.Context, c templ.Component) {
	if hw.err != nil || c == nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}

func (hw *Writer) Err() error {
	return hw.err
}

// E escapes s for use in text and quoted attributes.
func E(s string) string {
	return templ.EscapeString(s)
}
