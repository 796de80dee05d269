// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/pdiddy/pdfblocks/pkg/types"
)

func page(body string) string {
	return `<!DOCTYPE html><html><head><meta charset="utf-8"><title>doc</title>` +
		`<link rel="stylesheet" href="base.min.css"><style>.pf{position:relative}</style>` +
		`<script src="pdf2htmlEX.min.js"></script></head><body>` + body + `</body></html>`
}

func TestBlocks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []types.Block
	}{
		{
			name: "document order with nested duplication",
			body: `<div><p>A</p><img src="x.png"/><table><tr><td>T</td></tr></table></div>`,
			want: []types.Block{
				types.NewParagraph("AT"),
				types.NewParagraph("A"),
				types.NewImage("x.png"),
				types.NewTable("<table><tbody><tr><td>T</td></tr></tbody></table>"),
			},
		},
		{
			name: "div wrapping p yields two paragraphs",
			body: `<div><p>Hello</p></div>`,
			want: []types.Block{types.NewParagraph("Hello"), types.NewParagraph("Hello")},
		},
		{
			name: "span inside p yields its own paragraph",
			body: `<p>Hello <span>world</span></p>`,
			want: []types.Block{types.NewParagraph("Hello world"), types.NewParagraph("world")},
		},
		{
			name: "whitespace-only paragraph is skipped",
			body: "<p>   </p><p>\n\t</p><div>&nbsp;</div>",
			want: []types.Block{},
		},
		{
			name: "img without src is still emitted",
			body: `<img>`,
			want: []types.Block{types.NewImage("")},
		},
		{
			name: "img with empty src is emitted",
			body: `<p><img src=""></p>`,
			want: []types.Block{types.NewImage("")},
		},
		{
			name: "unrecognized tags produce nothing",
			body: `<h1>Title</h1><ul><li>item</li></ul><a href="#">link</a><section>s</section>`,
			want: []types.Block{},
		},
		{
			name: "content inside a table is visited as well",
			body: `<table><tr><td><p>cell</p><img src="i.png"></td></tr></table>`,
			want: []types.Block{
				types.NewTable(`<table><tbody><tr><td><p>cell</p><img src="i.png"/></td></tr></tbody></table>`),
				types.NewParagraph("cell"),
				types.NewImage("i.png"),
			},
		},
		{
			name: "empty table is skipped",
			body: `<table><tr><td> </td></tr></table>`,
			want: []types.Block{},
		},
		{
			name: "text is trimmed",
			body: "<p>\n  spaced out  </p>",
			want: []types.Block{types.NewParagraph("spaced out")},
		},
		{
			name: "empty body",
			body: ``,
			want: []types.Block{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Blocks(strings.NewReader(page(tt.body)))
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBlocks_Sanitization(t *testing.T) {
	body := `<p class="t m0 x1" style="bottom:10px">Styled</p>` +
		`<table class="grid" style="border:1px solid"><tr style="height:2px"><td class="c">1</td></tr></table>`

	got, err := Blocks(strings.NewReader(page(body)))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, types.NewParagraph("Styled"), got[0])
	assert.Equal(t, types.BlockTable, got[1].Type)
	assert.Equal(t, "<table><tbody><tr><td>1</td></tr></tbody></table>", got[1].HTML)
	assert.NotContains(t, got[1].HTML, "class=")
	assert.NotContains(t, got[1].HTML, "style=")
}

func TestBlocks_ScriptAndStyleRemoved(t *testing.T) {
	body := `<div>Visible<script>var secret = "s3cr3t";</script><style>.hidden{color:red}</style>` +
		`<link rel="stylesheet" href="fancy.css"></div>` +
		`<script>document.write("<p>injected</p>")</script>` +
		`<table><tr><td>cell<script>alert(1)</script></td></tr></table>`

	got, err := Blocks(strings.NewReader(page(body)))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, types.NewParagraph("Visible"), got[0])
	assert.Equal(t, "<table><tbody><tr><td>cell</td></tr></tbody></table>", got[1].HTML)
	for _, b := range got {
		for _, s := range []string{b.Text, b.HTML} {
			assert.NotContains(t, s, "s3cr3t")
			assert.NotContains(t, s, "color:red")
			assert.NotContains(t, s, "injected")
			assert.NotContains(t, s, "alert")
		}
	}
}

func TestBlocks_Deterministic(t *testing.T) {
	src := page(`<div><p>One</p><span>Two</span><img src="a.png"><table><tr><td>3</td></tr></table></div>`)

	first, err := Blocks(strings.NewReader(src))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Blocks(strings.NewReader(src))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFromDocument_DoesNotMutateInput(t *testing.T) {
	src := page(`<p class="keep" style="color:blue">A</p><script>x()</script>`)
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)

	var before bytes.Buffer
	require.NoError(t, html.Render(&before, doc))

	_, err = FromDocument(doc)
	require.NoError(t, err)

	var after bytes.Buffer
	require.NoError(t, html.Render(&after, doc))
	assert.Equal(t, before.String(), after.String())
	assert.Contains(t, after.String(), `class="keep"`)
	assert.Contains(t, after.String(), "<script>x()</script>")
}

func TestSanitize(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(page(`<div class="pf" style="w" id="pf1" data-page-no="1"><img class="bi" src="bg1.png"></div>`)))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, html.Render(&out, Sanitize(doc)))
	s := out.String()

	assert.NotContains(t, s, "<style")
	assert.NotContains(t, s, "<link")
	assert.NotContains(t, s, "<script")
	assert.NotContains(t, s, "class=")
	assert.NotContains(t, s, "style=")
	assert.Contains(t, s, `id="pf1"`)
	assert.Contains(t, s, `data-page-no="1"`)
	assert.Contains(t, s, `<img src="bg1.png"/>`)
	assert.Contains(t, s, "<title>doc</title>")
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf.html")
	require.NoError(t, os.WriteFile(path, []byte(page(`<p>From disk</p>`)), 0o644))

	got, err := File(path)
	require.NoError(t, err)
	assert.Equal(t, []types.Block{types.NewParagraph("From disk")}, got)

	got, err = Extractor{}.Extract(path)
	require.NoError(t, err)
	assert.Equal(t, []types.Block{types.NewParagraph("From disk")}, got)
}

func TestFile_EmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.html")
	require.NoError(t, os.WriteFile(path, []byte(`<html><body></body></html>`), 0o644))

	got, err := File(path)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.html")

	got, err := File(path)
	assert.Nil(t, got)

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, path, extErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "missing.html")
}
