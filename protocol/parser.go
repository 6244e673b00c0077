package protocol

import (
	"errors"
)

var (
	ErrParse        = errors.New("Request is malformed according to the protocol format")
	ErrEmptyRequest = errors.New("Request is empty")
)

// Parser decodes a request body into a Request.
//
// A failed parse must return a non nil error. A Request with no parameters is
// a perfectly valid result and is never used to signal failure.
type Parser interface {
	Parse(payload []byte) (*Request, error)
}

// Protocol is a wire format the server can speak: it parses requests and
// creates the matching responses.
type Protocol interface {
	Parser

	// NewResponse creates an empty response for the named operation.
	NewResponse(operation string) Response
}

// ParseRequest runs p over payload and checks the result is usable: a parse
// error, a nil request or a request without an operation name are all
// reported as errors.
func ParseRequest(p Parser, payload []byte) (*Request, error) {
	req, err := p.Parse(payload)
	if err != nil {
		return nil, err
	}

	if req == nil || req.Name == "" {
		return nil, ErrEmptyRequest
	}

	return req, nil
}
