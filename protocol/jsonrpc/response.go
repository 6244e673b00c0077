package jsonrpc

import (
	"github.com/tidwall/sjson"

	"github.com/luma/webservices/protocol"
)

// Response is a JSON-RPC response envelope:
//
//	{"result": <value>, "error": null, "id": <id>}
//	{"result": null, "error": {"faultCode": <code>, "faultString": <message>}, "id": <id>}
type Response struct {
	operation string
	charset   string
	result    protocol.Result
	id        protocol.Value
}

func (r *Response) SetValue(result protocol.Result) {
	r.result = result
}

// SetID sets the correlation id echoed back to the client.
func (r *Response) SetID(id protocol.Value) {
	r.id = id
}

// Operation returns the name of the operation the response answers.
func (r *Response) Operation() string {
	return r.operation
}

func (r *Response) Payload() ([]byte, error) {
	result, err := r.result.Value().MarshalJSON()
	if err != nil {
		return nil, err
	}

	id, err := r.id.MarshalJSON()
	if err != nil {
		return nil, err
	}

	fault := []byte("null")
	if f := r.result.Fault(); f != nil {
		if fault, err = encodeFault(f); err != nil {
			return nil, err
		}
	}

	body := []byte("{}")
	if body, err = sjson.SetRawBytes(body, "result", result); err != nil {
		return nil, err
	}
	if body, err = sjson.SetRawBytes(body, "error", fault); err != nil {
		return nil, err
	}

	return sjson.SetRawBytes(body, "id", id)
}

func encodeFault(f *protocol.Fault) ([]byte, error) {
	body, err := sjson.SetBytes([]byte("{}"), "faultCode", f.Code)
	if err != nil {
		return nil, err
	}

	return sjson.SetBytes(body, "faultString", f.Message)
}

func (r *Response) Headers() map[string]string {
	return map[string]string{}
}

func (r *Response) ContentType() string {
	return ContentType
}

func (r *Response) Charset() string {
	return r.charset
}

var _ protocol.Response = (*Response)(nil)
