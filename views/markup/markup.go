// Package markup writes HTML for templ.ComponentFunc components. The first
// write error sticks and later writes are skipped, so a component can write
// freely and check Err once.
package markup

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Writer accumulates the first error from w.
type Writer struct {
	w   io.Writer
	err error
}

// New wraps w.
func New(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes s unescaped.
func (m *Writer) Raw(s string) {
	if m.err != nil {
		return
	}
	_, m.err = io.WriteString(m.w, s)
}

// Text writes s HTML-escaped.
func (m *Writer) Text(s string) {
	m.Raw(templ.EscapeString(s))
}

// urlAttrs are sanitized with templ.URL, as templ does for href={ ... }.
var urlAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
}

// Attr writes ` name="value"` with value escaped. URL attributes with a
// scheme other than http(s), mailto, tel or ftp(s) are replaced by
// templ.FailedSanitizationURL.
func (m *Writer) Attr(name, value string) {
	if urlAttrs[name] {
		value = string(templ.URL(value))
	}
	m.Raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// AttrIf writes a boolean attribute when on is true.
func (m *Writer) AttrIf(name string, on bool) {
	if on {
		m.Raw(" " + name)
	}
}

// Open writes a start tag with the given attribute pairs.
func (m *Writer) Open(tag string, attrs ...string) {
	m.Raw("<" + tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		m.Attr(attrs[i], attrs[i+1])
	}
	m.Raw(">")
}

// Close writes an end tag.
func (m *Writer) Close(tag string) {
	m.Raw("</" + tag + ">")
}

// Element writes <tag attrs>text</tag> with text escaped.
func (m *Writer) Element(tag, text string, attrs ...string) {
	m.Open(tag, attrs...)
	m.Text(text)
	m.Close(tag)
}

// Component renders c inline. Nil components are skipped.
func (m *Writer) Component(ctx context.Context, c templ.Component) {
	if m.err != nil || c == nil {
		return
	}
	m.err = c.Render(ctx, m.w)
}

// Err returns the first write or render error.
func (m *Writer) Err() error {
	return m.err
}

// Func adapts a function over a Writer into a templ.Component.
func Func(fn func(ctx context.Context, m *Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := New(w)
		fn(ctx, m)
		return m.Err()
	})
}
