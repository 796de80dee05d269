// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns converter HTML into an ordered list of content
// blocks (paragraph, image, table).
//
// The document is parsed with golang.org/x/net/html, sanitized into a
// fresh copy, and every element under <body> is visited in document order
// (depth-first, pre-order). Nested elements are visited too, so a div
// wrapping a p yields two paragraph blocks, and content inside a table
// yields its own blocks next to the table's markup block. Callers that want
// a flat, de-duplicated view have to filter.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/pdiddy/pdfblocks/pkg/types"
)

// ExtractionError reports an HTML file that could not be read or parsed.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting blocks from %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor reads converter output from disk. It has no state and is safe
// for concurrent use.
type Extractor struct{}

// Extract implements the pipeline's extractor contract by calling File.
func (Extractor) Extract(path string) ([]types.Block, error) {
	return File(path)
}

// File extracts blocks from the HTML file at path. Read and parse
// failures are returned as *ExtractionError.
func File(path string) ([]types.Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	blocks, err := Blocks(f)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	return blocks, nil
}

// Blocks parses HTML from r and extracts its blocks.
func Blocks(r io.Reader) ([]types.Block, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return FromDocument(doc)
}

// FromDocument extracts blocks from a parsed document. doc is not modified.
// A document without body content yields an empty, non-nil slice.
func FromDocument(doc *html.Node) ([]types.Block, error) {
	clean := Sanitize(doc)
	blocks := []types.Block{}

	body := findElement(clean, "body")
	if body == nil {
		return blocks, nil
	}

	var walkErr error
	walkElements(body, func(n *html.Node) bool {
		b, ok, err := classify(n)
		if err != nil {
			walkErr = err
			return false
		}
		if ok {
			blocks = append(blocks, b)
		}
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return blocks, nil
}

// classify maps one element to at most one block.
func classify(n *html.Node) (types.Block, bool, error) {
	tag := n.Data
	if tag == "img" {
		return types.NewImage(attr(n, "src")), true, nil
	}

	text := trim(textContent(n))
	if text == "" {
		return types.Block{}, false, nil
	}

	switch tag {
	case "p", "div", "span":
		return types.NewParagraph(text), true, nil
	case "table":
		var buf bytes.Buffer
		if err := html.Render(&buf, n); err != nil {
			return types.Block{}, false, fmt.Errorf("rendering table: %w", err)
		}
		return types.NewTable(buf.String()), true, nil
	}
	return types.Block{}, false, nil
}

// walkElements calls visit for every element below n in pre-order. It
// stops when visit returns false.
func walkElements(n *html.Node, visit func(*html.Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !visit(c) {
			return false
		}
		if !walkElements(c, visit) {
			return false
		}
	}
	return true
}

// findElement returns the first element named tag in pre-order, or nil.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// textContent concatenates every text node below n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// trim strips leading and trailing whitespace, including the no-break
// space and byte order mark that pdf2htmlEX output is full of.
func trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// attr returns the value of the named attribute, or "" when absent.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}
