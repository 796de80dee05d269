// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import "golang.org/x/net/html"

// droppedElements carry no content and are removed with their subtree.
var droppedElements = map[string]bool{
	"style":  true,
	"link":   true,
	"script": true,
}

// droppedAttrs are presentation-only and are stripped from every element.
var droppedAttrs = map[string]bool{
	"style": true,
	"class": true,
}

// Sanitize returns a deep copy of n without style, link and script
// elements, and with style and class attributes removed from every
// remaining element. n itself is left untouched.
func Sanitize(n *html.Node) *html.Node {
	return cloneClean(n)
}

func cloneClean(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	for _, a := range n.Attr {
		if n.Type == html.ElementNode && droppedAttrs[a.Key] {
			continue
		}
		c.Attr = append(c.Attr, a)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && droppedElements[child.Data] {
			continue
		}
		c.AppendChild(cloneClean(child))
	}
	return c
}
