package page

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// containerPreference is the lookup order for the content root.
var containerPreference = []atom.Atom{atom.Main, atom.Article, atom.Body}

// Extracted is the readable content of an HTML document.
type Extracted struct {
	Title string
	Text  string
}

// ExtractText parses an HTML document and returns its title and the visible
// text of the first <main>, else <article>, else <body>.
func ExtractText(r io.Reader) (Extracted, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Extracted{}, err
	}
	out := Extracted{Title: strings.TrimSpace(textOf(findFirst(doc, atom.Title)))}

	root := doc
	for _, a := range containerPreference {
		if n := findFirst(doc, a); n != nil {
			root = n
			break
		}
	}
	var w textWriter
	w.walk(root)
	out.Text = w.String()
	return out, nil
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// textWriter approximates innerText: hidden elements are skipped, block
// elements break lines and runs of whitespace collapse.
type textWriter struct {
	lines   []string
	current strings.Builder
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return
	case html.TextNode:
		w.writeText(n.Data)
		return
	case html.ElementNode:
		if isHidden(n) {
			return
		}
		if n.DataAtom == atom.Br {
			w.breakLine()
			return
		}
	}
	block := n.Type == html.ElementNode && isBlock(n.DataAtom)
	if block {
		w.breakLine()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	if block {
		w.breakLine()
	}
}

func (w *textWriter) writeText(s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			w.space()
		}
		return
	}
	if startsWithSpace(s) {
		w.space()
	}
	w.current.WriteString(strings.Join(fields, " "))
	if endsWithSpace(s) {
		w.space()
	}
}

func (w *textWriter) space() {
	cur := w.current.String()
	if cur != "" && !strings.HasSuffix(cur, " ") {
		w.current.WriteByte(' ')
	}
}

func (w *textWriter) breakLine() {
	line := strings.TrimSpace(w.current.String())
	w.current.Reset()
	if line != "" {
		w.lines = append(w.lines, line)
	}
}

func (w *textWriter) String() string {
	w.breakLine()
	return strings.Join(w.lines, "\n")
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\r\n\f") != s
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\r\n\f") != s
}

func isHidden(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head, atom.Svg, atom.Iframe, atom.Object:
		return true
	}
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "hidden":
			return true
		case "aria-hidden":
			if attr.Val == "true" {
				return true
			}
		case "style":
			style := strings.ReplaceAll(strings.ToLower(attr.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Address, atom.Article, atom.Aside, atom.Blockquote, atom.Body, atom.Dd, atom.Details,
		atom.Div, atom.Dl, atom.Dt, atom.Fieldset, atom.Figcaption, atom.Figure, atom.Footer,
		atom.Form, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Header, atom.Hr,
		atom.Li, atom.Main, atom.Nav, atom.Ol, atom.P, atom.Pre, atom.Section, atom.Summary,
		atom.Table, atom.Tr, atom.Ul, atom.Caption, atom.Html:
		return true
	}
	return false
}
