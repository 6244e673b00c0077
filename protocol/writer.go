package protocol

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
)

const (
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"
)

// Header is a single transport header.
type Header struct {
	Name  string
	Value string
}

// Reply is a rendered response: headers in emission order and the body.
type Reply struct {
	Operation string
	Headers   []Header
	Body      []byte
}

// Render serializes resp into a Reply. The protocol headers come first, sorted
// by name, followed by Content-Type and Content-Length.
func Render(operation string, resp Response) (*Reply, error) {
	payload, err := resp.Payload()
	if err != nil {
		return nil, fmt.Errorf("Failed to render %s response: %w", operation, err)
	}

	extra := resp.Headers()
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make([]Header, 0, len(names)+2)
	for _, name := range names {
		headers = append(headers, Header{Name: name, Value: extra[name]})
	}

	headers = append(headers,
		Header{Name: HeaderContentType, Value: ContentTypeWithCharset(resp.ContentType(), resp.Charset())},
		Header{Name: HeaderContentLength, Value: strconv.Itoa(len(payload))},
	)

	return &Reply{Operation: operation, Headers: headers, Body: payload}, nil
}

// ContentTypeWithCharset appends a charset parameter to a mime type, unless
// the charset is empty.
func ContentTypeWithCharset(contentType, charset string) string {
	if charset == "" {
		return contentType
	}

	return fmt.Sprintf("%s; charset=%q", contentType, charset)
}

// Header returns the value of the named header, or an empty string.
func (r *Reply) Header(name string) string {
	for _, h := range r.Headers {
		if http.CanonicalHeaderKey(h.Name) == http.CanonicalHeaderKey(name) {
			return h.Value
		}
	}

	return ""
}

// WriteTo emits the reply on an HTTP response. Headers are set before the
// status line is written, the body is written in a single call.
func (r *Reply) WriteTo(w http.ResponseWriter) error {
	header := w.Header()
	for _, h := range r.Headers {
		header.Set(h.Name, h.Value)
	}

	w.WriteHeader(http.StatusOK)

	_, err := w.Write(r.Body)
	return err
}

// WriteRaw writes the reply to a plain stream, as `Name: value` lines, an
// empty line and the body.
func (r *Reply) WriteRaw(w io.Writer) error {
	var buf bytes.Buffer
	for _, h := range r.Headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.Name, h.Value)
	}
	buf.WriteString("\r\n")
	buf.Write(r.Body)

	_, err := w.Write(buf.Bytes())
	return err
}
