package doctree

import (
	"bytes"
	"encoding/json"
)

// Node is one level of a parsed document: an ordered mapping from tag or
// attribute names to values. A value is a string, a float64, a *Node, or a
// []any holding repeated siblings.
type Node struct {
	keys   []string
	values map[string]any
}

// New returns an empty node.
func New() *Node {
	return &Node{values: make(map[string]any)}
}

// Add stores v under key. A second value for the same key turns the entry into
// a list; later values are appended in call order. The key keeps the position
// of its first occurrence.
func (n *Node) Add(key string, v any) {
	if n.values == nil {
		n.values = make(map[string]any)
	}
	prev, ok := n.values[key]
	if !ok {
		n.keys = append(n.keys, key)
		n.values[key] = v
		return
	}
	if list, ok := prev.([]any); ok {
		n.values[key] = append(list, v)
		return
	}
	n.values[key] = []any{prev, v}
}

// Len returns the number of distinct keys.
func (n *Node) Len() int {
	return len(n.keys)
}

// MarshalJSON writes the entries in key order. HTML characters are not escaped.
func (n *Node) MarshalJSON() ([]byte, error) {
	return Encode(n)
}

// Encode serializes v the way the service returns it on the wire: compact,
// without HTML escaping and without a trailing newline. Nodes and lists are
// walked in one pass, so the cost is linear in the size of the output at any
// nesting depth.
func Encode(v any) ([]byte, error) {
	w := &writer{}
	w.enc = json.NewEncoder(&w.buf)
	w.enc.SetEscapeHTML(false)
	if err := w.value(v); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

type writer struct {
	buf bytes.Buffer
	enc *json.Encoder
}

func (w *writer) value(v any) error {
	switch t := v.(type) {
	case *Node:
		if t == nil {
			w.buf.WriteString("null")
			return nil
		}
		w.buf.WriteByte('{')
		for i, k := range t.keys {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			if err := w.leaf(k); err != nil {
				return err
			}
			w.buf.WriteByte(':')
			if err := w.value(t.values[k]); err != nil {
				return err
			}
		}
		w.buf.WriteByte('}')
		return nil
	case []any:
		w.buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			if err := w.value(item); err != nil {
				return err
			}
		}
		w.buf.WriteByte(']')
		return nil
	default:
		return w.leaf(v)
	}
}

func (w *writer) leaf(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return err
	}
	// Encoder always terminates with a newline.
	w.buf.Truncate(w.buf.Len() - 1)
	return nil
}
