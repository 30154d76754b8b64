package render

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ControlKind names the interactive element behind a Region.
type ControlKind string

const (
	ControlLink     ControlKind = "link"
	ControlButton   ControlKind = "button"
	ControlInput    ControlKind = "input"
	ControlTextarea ControlKind = "textarea"
	ControlSelect   ControlKind = "select"
	ControlIgnored  ControlKind = "ignored"
)

// Region is the cell span of one interactive element, relative to the top
// left of the document.
type Region struct {
	Kind  ControlKind
	Label string
	Line  int
	Col   int
	Width int
}

// Contains reports whether the cell (col, line) lies in the region.
func (r Region) Contains(col, line int) bool {
	return line == r.Line && col >= r.Col && col < r.Col+r.Width
}

// Document is layout content laid out into terminal cells.
type Document struct {
	Lines   []string
	Regions []Region
}

// ControlAt returns the region covering (col, line).
func (d Document) ControlAt(col, line int) (Region, bool) {
	for i := len(d.Regions) - 1; i >= 0; i-- {
		if d.Regions[i].Contains(col, line) {
			return d.Regions[i], true
		}
	}
	return Region{}, false
}

var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true, atom.Aside: true,
	atom.Header: true, atom.Footer: true, atom.Nav: true, atom.Main: true, atom.Form: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Table: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true, atom.Fieldset: true, atom.Label: true, atom.Hr: true,
}

// Layout sanitizes markup and lays it out in lines of at most width cells.
// Interactive elements become atomic tokens with a Region each. Plain text
// without tags is laid out as one paragraph per input line.
func Layout(markup string, width int) Document {
	if width < 8 {
		width = 8
	}
	l := &layouter{width: width}
	clean := Sanitize(markup)
	if !strings.Contains(clean, "<") {
		for _, line := range strings.Split(html.UnescapeString(clean), "\n") {
			if strings.TrimSpace(line) == "" {
				l.blank()
				continue
			}
			l.text(line)
			l.newline()
		}
		return l.doc()
	}
	root, err := html.Parse(strings.NewReader("<body>" + clean + "</body>"))
	if err != nil {
		return l.doc()
	}
	l.walk(root)
	return l.doc()
}

type layouter struct {
	width   int
	lines   []string
	cur     strings.Builder
	curW    int
	regions []Region
}

func (l *layouter) doc() Document {
	l.newline()
	for len(l.lines) > 0 && l.lines[len(l.lines)-1] == "" {
		l.lines = l.lines[:len(l.lines)-1]
	}
	return Document{Lines: l.lines, Regions: l.regions}
}

func (l *layouter) newline() {
	if l.curW == 0 && l.cur.Len() == 0 {
		return
	}
	l.lines = append(l.lines, strings.TrimRight(l.cur.String(), " "))
	l.cur.Reset()
	l.curW = 0
}

func (l *layouter) blank() {
	l.newline()
	if n := len(l.lines); n > 0 && l.lines[n-1] != "" {
		l.lines = append(l.lines, "")
	}
}

func (l *layouter) word(w string) {
	ww := ansi.StringWidth(w)
	if l.curW > 0 && l.curW+1+ww > l.width {
		l.newline()
	}
	if l.curW > 0 {
		l.cur.WriteByte(' ')
		l.curW++
	}
	if ww > l.width {
		w = ansi.Truncate(w, l.width, "…")
		ww = ansi.StringWidth(w)
	}
	l.cur.WriteString(w)
	l.curW += ww
}

func (l *layouter) text(s string) {
	for _, w := range strings.Fields(s) {
		l.word(w)
	}
}

// token places an unbreakable control label and records its region.
func (l *layouter) token(kind ControlKind, label string) {
	before := l.curW
	line := len(l.lines)
	l.word(label)
	if len(l.lines) != line || before == 0 {
		before = 0
	} else {
		before++
	}
	width := l.curW - before
	l.regions = append(l.regions, Region{Kind: kind, Label: label, Line: len(l.lines), Col: before, Width: width})
}

func (l *layouter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		l.text(n.Data)
		return
	case html.ElementNode:
		if kind, label, ok := control(n); ok {
			l.token(kind, label)
			return
		}
		switch n.DataAtom {
		case atom.Br:
			l.newline()
			return
		case atom.Hr:
			l.newline()
			l.lines = append(l.lines, strings.Repeat("─", l.width))
			return
		}
	}

	block := n.Type == html.ElementNode && blockAtoms[n.DataAtom]
	if block {
		l.newline()
		switch n.DataAtom {
		case atom.Li:
			l.cur.WriteString("•")
			l.curW++
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			l.blank()
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		l.walk(c)
	}
	if block {
		l.newline()
	}
}

// control classifies n as an interactive element and builds its label.
func control(n *html.Node) (ControlKind, string, bool) {
	if hasAttr(n, IgnoreAttr) {
		label := collapse(textContent(n))
		if label == "" {
			label = "[…]"
		}
		return ControlIgnored, label, true
	}
	switch n.DataAtom {
	case atom.A:
		label := collapse(textContent(n))
		if label == "" {
			label = attr(n, "href")
		}
		return ControlLink, "‹" + label + "›", true
	case atom.Button:
		return ControlButton, "[ " + orDefault(collapse(textContent(n)), "button") + " ]", true
	case atom.Input:
		if t := attr(n, "type"); t == "submit" || t == "button" {
			return ControlButton, "[ " + orDefault(attr(n, "value"), t) + " ]", true
		}
		hint := orDefault(attr(n, "placeholder"), orDefault(attr(n, "value"), attr(n, "type")))
		return ControlInput, "[" + hint + "____]", true
	case atom.Textarea:
		return ControlTextarea, "[" + orDefault(attr(n, "placeholder"), "text") + "…]", true
	case atom.Select:
		first := ""
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Option {
				first = collapse(textContent(c))
				break
			}
		}
		return ControlSelect, "[" + orDefault(first, "select") + " ▾]", true
	}
	return "", "", false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
		b.WriteByte(' ')
	}
	return b.String()
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
