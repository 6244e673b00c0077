package protocol

// Request is a decoded RPC call.
type Request struct {
	// Name of the operation being called. Never empty for a parsed request.
	Name string

	// Params holds the call parameters, in the order the client sent them.
	Params []Value

	// ID is the correlation id of the call, for wire formats that carry one.
	// Null otherwise.
	ID Value
}

// NewRequest creates a request for the named operation.
func NewRequest(name string, params ...Value) *Request {
	return &Request{Name: name, Params: params}
}
