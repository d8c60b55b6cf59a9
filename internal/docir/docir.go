// Package docir models the structured form of a document: a tree of sections
// holding typed content blocks. Version history and diff summaries operate on
// this representation rather than on raw text.
package docir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Block content types.
const (
	BlockHeading   = "heading"
	BlockParagraph = "paragraph"
	BlockList      = "list"
	BlockTable     = "table"
	BlockFigure    = "figure"
)

// Block is one content unit inside a section. Fields not used by a given
// type stay zero.
type Block struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Level   int            `json:"level,omitempty"`
	Text    string         `json:"text,omitempty"`
	Items   []string       `json:"items,omitempty"`
	Ordered bool           `json:"ordered,omitempty"`
	Table   map[string]any `json:"table,omitempty"`
	Figure  map[string]any `json:"figure,omitempty"`
}

// Section is a node in the document tree.
type Section struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Level    int        `json:"level"`
	Blocks   []Block    `json:"blocks,omitempty"`
	Children []*Section `json:"children,omitempty"`
}

// Document is the root of the structure tree.
type Document struct {
	Title    string     `json:"title"`
	Sections []*Section `json:"sections,omitempty"`
}

// NewID returns a short block/section id.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// ContentHash identifies a block by content, ignoring its id, so moved but
// unchanged blocks compare equal across revisions.
func (b Block) ContentHash() string {
	payload := struct {
		Type    string         `json:"type"`
		Level   int            `json:"level,omitempty"`
		Text    string         `json:"text,omitempty"`
		Items   []string       `json:"items,omitempty"`
		Ordered bool           `json:"ordered,omitempty"`
		Table   map[string]any `json:"table,omitempty"`
		Figure  map[string]any `json:"figure,omitempty"`
	}{b.Type, b.Level, b.Text, b.Items, b.Ordered, b.Table, b.Figure}
	return hashJSON(payload)
}

// Flatten returns every block in depth-first document order.
func Flatten(doc *Document) []Block {
	if doc == nil {
		return nil
	}
	var out []Block
	var walk func(sec *Section)
	walk = func(sec *Section) {
		if sec == nil {
			return
		}
		out = append(out, sec.Blocks...)
		for _, ch := range sec.Children {
			walk(ch)
		}
	}
	for _, sec := range doc.Sections {
		walk(sec)
	}
	return out
}

// Hash fingerprints the whole structure, titles included.
func Hash(doc *Document) string {
	if doc == nil {
		return hashJSON(nil)
	}
	parts := []string{doc.Title}
	var walk func(sec *Section)
	walk = func(sec *Section) {
		if sec == nil {
			return
		}
		parts = append(parts, "S"+sec.Title)
		for _, b := range sec.Blocks {
			parts = append(parts, b.ContentHash())
		}
		for _, ch := range sec.Children {
			walk(ch)
		}
	}
	for _, sec := range doc.Sections {
		walk(sec)
	}
	return hashJSON(parts)
}

// Equal reports whether two documents have identical content, ignoring ids.
func Equal(a, b *Document) bool {
	return Hash(a) == Hash(b)
}

// Clone deep-copies a document. Ids are preserved.
func Clone(doc *Document) *Document {
	if doc == nil {
		return nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return &out
}

// SectionTitles lists top-level section titles in order.
func SectionTitles(doc *Document) []string {
	if doc == nil {
		return nil
	}
	out := make([]string, 0, len(doc.Sections))
	for _, sec := range doc.Sections {
		out = append(out, sec.Title)
	}
	return out
}

// hashJSON relies on encoding/json emitting map keys in sorted order, which
// keeps hashes stable across marshals.
func hashJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		raw = []byte("{}")
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
