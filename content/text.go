package content

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// excerptLen bounds the description derived from the first paragraph.
const excerptLen = 160

// textStats walks rendered HTML once and returns the visible word count and
// the text of the first paragraph. Code blocks count toward reading time
// but never become the excerpt.
func textStats(body string) (words int, firstPara string) {
	z := html.NewTokenizer(strings.NewReader(body))
	depth := 0 // inside the first <p>
	done := false
	var para strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return words, strings.Join(strings.Fields(para.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.P && !done {
				depth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.P && depth > 0 {
				depth--
				if depth == 0 {
					done = true
				}
			}
		case html.TextToken:
			text := string(z.Text())
			words += len(strings.Fields(text))
			if depth > 0 {
				para.WriteString(text)
			}
		}
	}
}

// excerpt shortens s to at most excerptLen runes on a word boundary.
func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= excerptLen {
		return s
	}
	cut := string(r[:excerptLen])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
