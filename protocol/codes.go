package protocol

// Fault codes generated by the server itself.
const (
	InvalidRequest       = -201
	InvalidMethod        = -202
	InvalidParams        = -203
	InvalidIntrospection = -204
	GenericResponse      = -205
	InvalidAuth          = -206
	InvalidCompression   = -207
)

const (
	InvalidRequestString       = "Request received from client is not valid according to protocol format"
	InvalidMethodString        = "Method not found"
	InvalidParamsString        = "Parameters not matching method"
	InvalidIntrospectionString = "Can't introspect: method unknown"
	GenericResponseString      = "Internal server error"
	InvalidAuthString          = "Invalid authentication or not enough rights"
	InvalidCompressionString   = "Request received from client could not be reinflated"
)

// UnknownOperation is the operation name used for responses to requests whose
// real operation name could not be determined.
const UnknownOperation = "unknown_function_name"

var defaultMessages = map[int]string{
	InvalidRequest:       InvalidRequestString,
	InvalidMethod:        InvalidMethodString,
	InvalidParams:        InvalidParamsString,
	InvalidIntrospection: InvalidIntrospectionString,
	GenericResponse:      GenericResponseString,
	InvalidAuth:          InvalidAuthString,
	InvalidCompression:   InvalidCompressionString,
}

// DefaultMessage returns the fixed message for one of the reserved codes, or
// an empty string for any other code.
func DefaultMessage(code int) string {
	return defaultMessages[code]
}
