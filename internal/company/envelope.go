package company

import (
	"maps"

	"github.com/dgallion1/companyapi/internal/doctree"
)

// Envelope is the status, headers and body handed back to the transport.
type Envelope struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// ErrorBody is the JSON body of every non-200 envelope.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

var defaultHeaders = map[string]string{
	"Content-Type":                 "application/json",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET",
	"Access-Control-Allow-Headers": "Content-Type",
}

// DefaultHeaders returns a fresh copy of the headers sent with every response.
func DefaultHeaders() map[string]string {
	return maps.Clone(defaultHeaders)
}

func newEnvelope(status int, body []byte) Envelope {
	return Envelope{StatusCode: status, Headers: DefaultHeaders(), Body: body}
}

func errorEnvelope(status int, msg, detail string) Envelope {
	// ErrorBody holds only strings, so encoding cannot fail.
	body, _ := doctree.Encode(ErrorBody{Error: msg, Message: detail})
	return newEnvelope(status, body)
}
