package jsonrpc

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/luma/webservices/protocol"
)

const (
	// Name is the protocol name used in request paths.
	Name = "jsonrpc"

	ContentType    = "application/json"
	DefaultCharset = "UTF-8"
)

type Options struct {
	// Charset announced in the Content-Type of responses. DefaultCharset
	// when empty.
	Charset string
}

// Protocol is the JSON-RPC 1.0 wire format.
type Protocol struct {
	charset string
}

func New(options Options) *Protocol {
	charset := options.Charset
	if charset == "" {
		charset = DefaultCharset
	}

	return &Protocol{charset: charset}
}

// Parse decodes a JSON-RPC request. The body must be an object with a non
// empty string `method`, an array `params` and an `id`, which may be null.
func (p *Protocol) Parse(payload []byte) (*protocol.Request, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("invalid JSON: %w", protocol.ErrParse)
	}

	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return nil, fmt.Errorf("request is not an object: %w", protocol.ErrParse)
	}

	fields := gjson.GetManyBytes(payload, "method", "params", "id")
	method, params, id := fields[0], fields[1], fields[2]

	if method.Type != gjson.String || method.Str == "" {
		return nil, fmt.Errorf("method must be a non empty string: %w", protocol.ErrParse)
	}

	if !params.IsArray() {
		return nil, fmt.Errorf("params must be an array: %w", protocol.ErrParse)
	}

	if !id.Exists() {
		return nil, fmt.Errorf("id is missing: %w", protocol.ErrParse)
	}

	req := &protocol.Request{
		Name:   method.Str,
		Params: make([]protocol.Value, 0),
		ID:     protocol.FromJSON(id),
	}

	params.ForEach(func(_, param gjson.Result) bool {
		req.Params = append(req.Params, protocol.FromJSON(param))
		return true
	})

	return req, nil
}

// NewResponse creates an empty JSON-RPC response.
func (p *Protocol) NewResponse(operation string) protocol.Response {
	return &Response{operation: operation, charset: p.charset}
}

// PrepareResponse copies the id of the request into the response. The id
// stays null when the request could not be parsed.
func (p *Protocol) PrepareResponse(resp protocol.Response, req *protocol.Request) {
	r, ok := resp.(*Response)
	if !ok || req == nil {
		return
	}

	r.SetID(req.ID)
}

var _ protocol.Protocol = (*Protocol)(nil)
