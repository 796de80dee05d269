// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data model shared by the conversion pipeline,
// the HTTP server and the CLI: content blocks, conversion jobs and the
// configuration structs loaded through viper.
package types

import (
	"encoding/json"
	"fmt"
)

// BlockType identifies the variant of a content block.
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockImage     BlockType = "image"
	BlockTable     BlockType = "table"
)

// Block is one classified unit of extracted content. Exactly one payload
// field is meaningful, selected by Type: Text for paragraphs, Src for
// images, HTML for tables.
type Block struct {
	Type BlockType
	Text string
	Src  string
	HTML string
}

// NewParagraph returns a paragraph block carrying trimmed text.
func NewParagraph(text string) Block {
	return Block{Type: BlockParagraph, Text: text}
}

// NewImage returns an image block. An empty src is valid and is kept.
func NewImage(src string) Block {
	return Block{Type: BlockImage, Src: src}
}

// NewTable returns a table block carrying the sanitized outer markup.
func NewTable(html string) Block {
	return Block{Type: BlockTable, HTML: html}
}

// blockWire is the serialized form of a Block: the type tag plus the one
// payload field of its variant.
type blockWire struct {
	Type BlockType `json:"type" yaml:"type"`
	Text *string   `json:"text,omitempty" yaml:"text,omitempty"`
	Src  *string   `json:"src,omitempty" yaml:"src,omitempty"`
	HTML *string   `json:"html,omitempty" yaml:"html,omitempty"`
}

func (b Block) wire() (blockWire, error) {
	w := blockWire{Type: b.Type}
	switch b.Type {
	case BlockParagraph:
		w.Text = &b.Text
	case BlockImage:
		w.Src = &b.Src
	case BlockTable:
		w.HTML = &b.HTML
	default:
		return w, fmt.Errorf("unknown block type %q", b.Type)
	}
	return w, nil
}

func (b *Block) fromWire(w blockWire) error {
	*b = Block{Type: w.Type}
	switch w.Type {
	case BlockParagraph:
		if w.Text != nil {
			b.Text = *w.Text
		}
	case BlockImage:
		if w.Src != nil {
			b.Src = *w.Src
		}
	case BlockTable:
		if w.HTML != nil {
			b.HTML = *w.HTML
		}
	default:
		return fmt.Errorf("unknown block type %q", w.Type)
	}
	return nil
}

// MarshalJSON emits the type tag and the payload field of the variant.
func (b Block) MarshalJSON() ([]byte, error) {
	w, err := b.wire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (b *Block) UnmarshalJSON(data []byte) error {
	var w blockWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return b.fromWire(w)
}

// MarshalYAML implements yaml.Marshaler with the same shape as JSON.
func (b Block) MarshalYAML() (any, error) {
	return b.wire()
}

// Response is the payload returned for a completed job.
type Response struct {
	Blocks []Block `json:"blocks" yaml:"blocks"`
}

// NewResponse wraps blocks for serialization. A nil slice becomes an empty
// one so the payload reads "blocks": [] instead of null.
func NewResponse(blocks []Block) Response {
	if blocks == nil {
		blocks = []Block{}
	}
	return Response{Blocks: blocks}
}
