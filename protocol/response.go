package protocol

// Response is a wire format specific envelope around a Result.
//
// Implementations are created fresh for every call, receive their Result
// through SetValue and are rendered exactly once.
type Response interface {
	// SetValue sets the result, or fault, carried by the response.
	SetValue(r Result)

	// Payload serializes the response body.
	Payload() ([]byte, error)

	// Headers returns extra transport headers the wire format requires.
	Headers() map[string]string

	// ContentType returns the mime type of the payload.
	ContentType() string

	// Charset returns the character set of the payload, or an empty string.
	Charset() string
}
