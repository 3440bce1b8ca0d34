package document

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags elements removed as a whole when they hold hidden text
var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// anchorTags paragraphs a block level placeholder is replaced in. Tokens
// outside of them are replaced in place.
var anchorTags = map[atom.Atom]bool{
	atom.P: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

func element(tag atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: tag, Data: tag.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func appendAll(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		parent.AppendChild(c)
	}
	return parent
}

// textNodes collects the text nodes below root containing needle
func textNodes(root *html.Node, needle string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode && strings.Contains(n.Data, needle) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// elements collects element nodes below root accepted by match
func elements(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// ancestor nearest ancestor of n whose tag is in tags
func ancestor(n *html.Node, tags map[atom.Atom]bool) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && tags[p.DataAtom] {
			return p
		}
	}
	return nil
}

// attached reports whether n is still part of the tree rooted at root
func attached(n, root *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

func hasClass(n *html.Node, class string) bool {
	v, _ := getAttr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// textContent concatenated text below n
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// splitAround replaces the first occurrence of needle in text node n with
// nodes. The text after the match stays in n, which is dropped when empty.
func splitAround(n *html.Node, needle string, nodes ...*html.Node) bool {
	i := strings.Index(n.Data, needle)
	if i < 0 || n.Parent == nil {
		return false
	}
	before, after := n.Data[:i], n.Data[i+len(needle):]
	parent := n.Parent
	if before != "" {
		parent.InsertBefore(text(before), n)
	}
	for _, x := range nodes {
		parent.InsertBefore(x, n)
	}
	if after == "" {
		parent.RemoveChild(n)
	} else {
		n.Data = after
	}
	return true
}

// replaceAll splits every occurrence of needle in n, build returns fresh
// nodes for each occurrence
func replaceAll(n *html.Node, needle string, build func() []*html.Node) int {
	count := 0
	for n.Parent != nil && strings.Contains(n.Data, needle) {
		if !splitAround(n, needle, build()...) {
			break
		}
		count++
	}
	return count
}

func removeNode(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
