package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// CleanedDOM is page markup reduced to what the model needs to pick
// selectors: structure, text and targeting attributes.
type CleanedDOM struct {
	HTML      string
	Title     string
	Truncated bool
}

var (
	droppedTags = setOf("script", "style", "noscript", "iframe", "embed", "object", "svg", "canvas", "template", "head", "link", "meta")
	blockTags   = setOf("div", "p", "section", "article", "header", "footer", "nav", "main", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr", "td", "th",
		"form", "fieldset", "dialog", "blockquote", "pre", "label", "select", "option")
	voidTags   = setOf("area", "base", "br", "col", "embed", "hr", "img", "input", "link", "meta", "param", "source", "track", "wbr")
	keptAttrs  = setOf("id", "class", "name", "role", "type", "placeholder", "value", "href", "src", "alt", "title", "for", "action", "method", "disabled", "checked", "selected")
	attrPrefix = []string{"aria-", "data-"}
)

func setOf(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, item := range items {
		m[item] = struct{}{}
	}
	return m
}

func has(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

// CleanDOM strips scripts, styles, hidden nodes and presentation attributes
// from raw, keeping at most maxLength bytes of output.
func CleanDOM(raw string, maxLength int) (*CleanedDOM, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	c := &domCleaner{budget: maxLength}
	c.walk(doc, 0)
	return &CleanedDOM{
		HTML:      strings.TrimSpace(c.out.String()),
		Title:     findTitle(doc),
		Truncated: c.truncated,
	}, nil
}

type domCleaner struct {
	out       strings.Builder
	budget    int
	truncated bool
}

func (c *domCleaner) write(s string) bool {
	if c.truncated {
		return false
	}
	if c.out.Len()+len(s) > c.budget {
		c.out.WriteString(s[:max(0, c.budget-c.out.Len())])
		c.out.WriteString("…")
		c.truncated = true
		return false
	}
	c.out.WriteString(s)
	return true
}

func (c *domCleaner) walk(n *html.Node, depth int) {
	if c.truncated {
		return
	}

	switch n.Type {
	case html.TextNode:
		if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
			c.write(text)
		}
		return
	case html.ElementNode:
		c.element(n, depth)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child, depth)
	}
}

func (c *domCleaner) element(n *html.Node, depth int) {
	tag := strings.ToLower(n.Data)
	if has(droppedTags, tag) || isHidden(n) {
		return
	}

	// Structural wrappers carry nothing worth a selector.
	if tag == "html" || tag == "body" {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			c.walk(child, depth)
		}
		return
	}

	block := has(blockTags, tag)
	if block && c.out.Len() > 0 {
		c.write("\n" + strings.Repeat("  ", depth))
	}

	var open strings.Builder
	open.WriteString("<" + tag)
	for _, attr := range n.Attr {
		if keepAttr(attr.Key) {
			fmt.Fprintf(&open, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
		}
	}
	open.WriteString(">")
	if !c.write(open.String()) {
		return
	}
	if has(voidTags, tag) {
		return
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child, depth+1)
	}

	if block && n.FirstChild != nil && n.FirstChild.NextSibling != nil {
		c.write("\n" + strings.Repeat("  ", depth))
	}
	c.write("</" + tag + ">")
}

func keepAttr(key string) bool {
	key = strings.ToLower(key)
	if has(keptAttrs, key) {
		return true
	}
	for _, prefix := range attrPrefix {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func isHidden(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "hidden":
			return true
		case "aria-hidden":
			if attr.Val == "true" {
				return true
			}
		case "type":
			if strings.EqualFold(n.Data, "input") && strings.EqualFold(attr.Val, "hidden") {
				return true
			}
		}
	}
	return false
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if title := findTitle(child); title != "" {
			return title
		}
	}
	return ""
}
