package parser

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/companyapi/internal/doctree"
	"golang.org/x/net/html/charset"
)

// XMLParser turns an XML document into a doctree. Attributes are kept under
// AttributePrefix and numeric attribute values become numbers. Repeated
// sibling elements collapse into a list.
type XMLParser struct{}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type element struct {
	name     string
	node     *doctree.Node
	text     strings.Builder
	hasAttrs bool
}

func (p XMLParser) Parse(r io.Reader) (*doctree.Node, error) {
	br := bufio.NewReader(r)
	if lead, _ := br.Peek(len(utf8BOM)); bytes.Equal(lead, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	dec := xml.NewDecoder(br)
	dec.CharsetReader = charset.NewReaderLabel

	root := doctree.New()
	var stack []*element
	seenRoot := false

	for {
		// RawToken keeps namespace prefixes as written; tag matching is
		// checked below instead.
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.ProcInst:
			if t.Target == "xml" && len(stack) == 0 && !seenRoot {
				root.Add(DeclarationKey, declaration(t.Inst))
			}

		case xml.StartElement:
			if len(stack) == 0 && seenRoot {
				return nil, fmt.Errorf("%w: multiple root elements", ErrMalformed)
			}
			el := &element{name: qualifiedName(t.Name), node: doctree.New()}
			seen := make(map[string]struct{}, len(t.Attr))
			for _, attr := range t.Attr {
				name := qualifiedName(attr.Name)
				if _, dup := seen[name]; dup {
					return nil, fmt.Errorf("%w: duplicate attribute %s on <%s>", ErrMalformed, name, el.name)
				}
				seen[name] = struct{}{}
				el.node.Add(AttributePrefix+name, coerceAttr(attr.Value))
			}
			el.hasAttrs = len(t.Attr) > 0
			stack = append(stack, el)

		case xml.EndElement:
			name := qualifiedName(t.Name)
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected closing tag </%s>", ErrMalformed, name)
			}
			el := stack[len(stack)-1]
			if el.name != name {
				return nil, fmt.Errorf("%w: closing tag </%s> does not match <%s>", ErrMalformed, name, el.name)
			}
			stack = stack[:len(stack)-1]

			if len(stack) == 0 {
				root.Add(el.name, el.value())
				seenRoot = true
			} else {
				stack[len(stack)-1].node.Add(el.name, el.value())
			}

		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: text outside the root element", ErrMalformed)
			}
			stack[len(stack)-1].text.WriteString(text)
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unclosed element <%s>", ErrMalformed, stack[len(stack)-1].name)
	}
	if !seenRoot {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	return root, nil
}

// value collapses text-only elements to their text.
func (e *element) value() any {
	text := e.text.String()
	if !e.hasAttrs && e.node.Len() == 0 {
		return text
	}
	if text != "" {
		e.node.Add(TextKey, text)
	}
	return e.node
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// declaration reads the pseudo-attributes of <?xml ...?>.
func declaration(inst []byte) *doctree.Node {
	node := doctree.New()
	rest := strings.TrimSpace(string(inst))
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 {
			break
		}
		key := strings.TrimSpace(rest[:eq])
		rest = strings.TrimSpace(rest[eq+1:])
		if rest == "" || (rest[0] != '"' && rest[0] != '\'') {
			break
		}
		end := strings.IndexByte(rest[1:], rest[0])
		if end < 0 {
			break
		}
		node.Add(AttributePrefix+key, coerceAttr(rest[1:end+1]))
		rest = strings.TrimSpace(rest[end+2:])
	}
	return node
}
