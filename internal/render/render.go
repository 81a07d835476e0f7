// Package render turns record bodies into HTML and derives plain-text
// excerpts and outlines from the result.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Renderer converts Markdown bodies to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// Options controls the Markdown dialect.
type Options struct {
	// HardWraps renders single newlines as <br>.
	HardWraps bool
	// Unsafe passes raw HTML in the body through. Bodies written with inline
	// components rely on it.
	Unsafe bool
}

// DefaultOptions renders raw HTML and keeps soft line breaks.
func DefaultOptions() Options {
	return Options{Unsafe: true}
}

// New returns a Renderer using GitHub Flavored Markdown with automatic
// heading ids.
func New(opts Options) *Renderer {
	var rendererOpts []goldmark.Option
	var htmlOpts []renderer.Option
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, gmhtml.WithHardWraps())
	}
	if opts.Unsafe {
		htmlOpts = append(htmlOpts, gmhtml.WithUnsafe())
	}
	if len(htmlOpts) > 0 {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(htmlOpts...))
	}

	md := goldmark.New(append([]goldmark.Option{
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}, rendererOpts...)...)

	return &Renderer{md: md}
}

// Render returns the HTML for body.
func (r *Renderer) Render(body string) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderTo(&buf, body); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderTo writes the HTML for body to w.
func (r *Renderer) RenderTo(w io.Writer, body string) error {
	if err := r.md.Convert([]byte(body), w); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	return nil
}

// PlainText extracts the visible text of an HTML fragment with whitespace
// collapsed. When max > 0 the result is cut to at most max runes on a word
// boundary where possible and an ellipsis is appended.
func PlainText(fragment string, max int) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), bodyContext())
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Template:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	text := strings.Join(strings.Fields(b.String()), " ")
	return truncate(text, max)
}

// Heading is one entry of a document outline.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Headings returns the h2 and h3 elements of an HTML fragment in document
// order.
func Headings(fragment string) []Heading {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), bodyContext())
	if err != nil {
		return nil
	}

	var out []Heading
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.H2 || n.DataAtom == atom.H3) {
			level := 2
			if n.DataAtom == atom.H3 {
				level = 3
			}
			h := Heading{Level: level, Text: nodeText(n)}
			for _, attr := range n.Attr {
				if attr.Key == "id" {
					h.ID = attr.Val
				}
			}
			out = append(out, h)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return out
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func bodyContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
}

func truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:max])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
