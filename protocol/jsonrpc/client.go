package jsonrpc

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/luma/webservices/protocol"
)

// EncodeRequest builds the body of a JSON-RPC call.
func EncodeRequest(method string, params []protocol.Value, id protocol.Value) ([]byte, error) {
	if method == "" {
		return nil, protocol.ErrEmptyRequest
	}

	rawParams, err := protocol.Array(params...).MarshalJSON()
	if err != nil {
		return nil, err
	}

	rawID, err := id.MarshalJSON()
	if err != nil {
		return nil, err
	}

	body, err := sjson.SetBytes([]byte("{}"), "method", method)
	if err != nil {
		return nil, err
	}

	if body, err = sjson.SetRawBytes(body, "params", rawParams); err != nil {
		return nil, err
	}

	return sjson.SetRawBytes(body, "id", rawID)
}

// DecodeResponse decodes the body of a JSON-RPC response into its result and
// id. A non null `error` member becomes a fault.
func DecodeResponse(body []byte) (protocol.Result, protocol.Value, error) {
	if !gjson.ValidBytes(body) {
		return protocol.Result{}, protocol.Null(), fmt.Errorf("invalid JSON: %w", protocol.ErrParse)
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return protocol.Result{}, protocol.Null(), fmt.Errorf("response is not an object: %w", protocol.ErrParse)
	}

	fields := gjson.GetManyBytes(body, "result", "error", "id")
	result, fault, id := fields[0], fields[1], fields[2]

	if fault.Exists() && fault.Type != gjson.Null {
		return protocol.Failure(decodeFault(fault)), protocol.FromJSON(id), nil
	}

	return protocol.Success(protocol.FromJSON(result)), protocol.FromJSON(id), nil
}

func decodeFault(fault gjson.Result) *protocol.Fault {
	if !fault.IsObject() {
		return protocol.NewFault(0, fault.String())
	}

	return protocol.NewFault(int(fault.Get("faultCode").Int()), fault.Get("faultString").String())
}
