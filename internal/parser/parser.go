package parser

import (
	"bytes"
	"errors"
	"io"

	"github.com/dgallion1/companyapi/internal/doctree"
)

// Output naming used by the converter.
const (
	AttributePrefix = "@_"
	TextKey         = "#text"
	DeclarationKey  = "?xml"
)

// ErrMalformed is wrapped by every error caused by input that is not
// well-formed XML.
var ErrMalformed = errors.New("malformed xml")

// Parser converts raw document bytes into a doctree.
type Parser interface {
	Parse(r io.Reader) (*doctree.Node, error)
}

// Convert parses an in-memory XML document with the default XMLParser.
func Convert(data []byte) (*doctree.Node, error) {
	return XMLParser{}.Parse(bytes.NewReader(data))
}
