package protocol

// This package holds the protocol-neutral pieces of the webservices server:
// the values that travel in and out of an RPC call, and the contracts that a
// concrete wire format (JSON-RPC, XML-RPC, ...) has to fulfil.
//
// - `Value`    - A dynamically typed RPC value. One of null, boolean, integer,
//                double, string, array or struct.
// - `Request`  - A decoded call: an operation name plus ordered parameters.
// - `Fault`    - An RPC level error, code + message.
// - `Result`   - Either a successful Value or a Fault. Never both.
// - `Response` - A wire format envelope that knows how to serialize a Result.
// - `Reply`    - The rendered response: ordered headers and the body bytes.
//
// === Lifecycle of a call
//
//   ```
//   body -> inflate -> Parser.Parse -> Request
//        -> handler (registered function or internal operation) -> Result
//        -> Protocol.NewResponse -> SetValue -> (prepare) -> Render -> Reply
//   ```
//
// === Fault codes
//
// The server reserves a small set of negative codes for errors it produces
// itself. Registered functions are free to return any other code.
//
//   ```
//   -201 invalid request          -205 generic (internal server error)
//   -202 method not found         -206 invalid authentication
//   -203 parameters not matching  -207 request could not be reinflated
//   -204 cannot introspect
//   ```
//
// === Rendered replies
//
// A Reply always lists the protocol headers first, then
//
//   ```
//   Content-Type: <mime>[; charset="<charset>"]
//   Content-Length: <n>
//   ```
//
// followed by the payload, which is the only thing written to the body.
