// Package richtext models the Lexical editor JSON tree stored for review
// content and provides the plain-text and formatting operations used by
// the translation engine.
package richtext

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Document is a rich-content value: {"root": {...}}
type Document struct {
	Root *Node `json:"root"`
}

// Node is one element of the tree. Type, Text and Children are the only
// fields the pipeline interprets; everything else (format, direction,
// indent, version, ...) is carried in Attrs and written back untouched.
type Node struct {
	Type     string
	Text     *string
	Children []*Node
	Attrs    map[string]json.RawMessage
}

// UnmarshalJSON splits the known keys from formatting attributes
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*n = Node{}
	if v, ok := raw["type"]; ok {
		if err := json.Unmarshal(v, &n.Type); err != nil {
			return err
		}
		delete(raw, "type")
	}
	if v, ok := raw["text"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		n.Text = &s
		delete(raw, "text")
	}
	if v, ok := raw["children"]; ok {
		children := []*Node{}
		if err := json.Unmarshal(v, &children); err != nil {
			return err
		}
		n.Children = children
		delete(raw, "children")
	}
	if len(raw) > 0 {
		n.Attrs = raw
	}
	return nil
}

// MarshalJSON writes the node with sorted keys, which makes the encoding
// canonical and usable for structural comparison.
func (n Node) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Attrs)+3)
	for k, v := range n.Attrs {
		out[k] = v
	}
	if n.Type != "" {
		out["type"] = n.Type
	}
	if n.Text != nil {
		out["text"] = *n.Text
	}
	if n.Children != nil {
		out["children"] = n.Children
	}
	return json.Marshal(out)
}

// IsEmpty reports whether the document has no content nodes
func (d *Document) IsEmpty() bool {
	return d == nil || d.Root == nil || len(d.Root.Children) == 0
}

// ExtractPlainText flattens the document into its visible text. Each
// top-level block becomes one line.
func ExtractPlainText(d *Document) string {
	if d.IsEmpty() {
		return ""
	}

	lines := make([]string, 0, len(d.Root.Children))
	for _, child := range d.Root.Children {
		lines = append(lines, extractNode(child))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractNode(n *Node) string {
	if n == nil {
		return ""
	}
	if n.Text != nil && *n.Text != "" {
		return *n.Text
	}
	var sb strings.Builder
	for _, child := range n.Children {
		sb.WriteString(extractNode(child))
	}
	return sb.String()
}

// FromPlainText builds a flat document with one paragraph per line
func FromPlainText(text string) *Document {
	lines := strings.Split(text, "\n")
	paragraphs := make([]*Node, 0, len(lines))
	for _, line := range lines {
		paragraphs = append(paragraphs, &Node{
			Type:     "paragraph",
			Children: []*Node{textNode(line)},
			Attrs:    blockAttrs(),
		})
	}

	return &Document{Root: &Node{
		Type:     "root",
		Children: paragraphs,
		Attrs:    blockAttrs(),
	}}
}

func textNode(text string) *Node {
	return &Node{
		Type:  "text",
		Text:  &text,
		Attrs: map[string]json.RawMessage{"version": json.RawMessage("1")},
	}
}

func blockAttrs() map[string]json.RawMessage {
	return map[string]json.RawMessage{
		"direction": json.RawMessage(`"ltr"`),
		"format":    json.RawMessage(`""`),
		"indent":    json.RawMessage("0"),
		"version":   json.RawMessage("1"),
	}
}

// Leaves returns the text of every text-bearing node in document order
func Leaves(d *Document) []string {
	if d == nil || d.Root == nil {
		return nil
	}
	var leaves []string
	walk(d.Root, func(n *Node) {
		if n.Text != nil {
			leaves = append(leaves, *n.Text)
		}
	})
	return leaves
}

// SyncFormat returns a copy of source whose text leaves are replaced, in
// document order, by the leaves of target. Source leaves beyond the
// number of target leaves keep their own text. A nil target yields a
// copy of source; a nil source yields nil.
func SyncFormat(source, target *Document) *Document {
	if source == nil {
		return nil
	}
	out := source.Clone()
	if target == nil || target.Root == nil || out.Root == nil {
		return out
	}

	leaves := Leaves(target)
	i := 0
	walk(out.Root, func(n *Node) {
		if n.Text == nil {
			return
		}
		if i < len(leaves) {
			text := leaves[i]
			n.Text = &text
		}
		i++
	})
	return out
}

// Clone deep-copies the document
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return &Document{Root: d.Root.clone()}
}

func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Type: n.Type}
	if n.Text != nil {
		text := *n.Text
		c.Text = &text
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.clone()
		}
	}
	if n.Attrs != nil {
		c.Attrs = make(map[string]json.RawMessage, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// Equal compares two documents by their canonical encoding
func Equal(a, b *Document) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

func walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, child := range n.Children {
		walk(child, visit)
	}
}
