package server

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

const (
	EncodingDeflate = "deflate"
	EncodingGzip    = "gzip"

	// DefaultMaxInflatedBytes bounds a decompressed request body.
	DefaultMaxInflatedBytes = 16 << 20

	// gzipHeaderSize is the size of the fixed part of a gzip member header.
	gzipHeaderSize = 10
)

// Inflater decompresses a request body. It fails with ErrInflatedTooLarge
// once more than limit bytes come out, unless limit is not positive.
type Inflater func(data []byte, limit int64) ([]byte, error)

// DefaultInflaters returns the inflaters for every encoding the server
// understands.
func DefaultInflaters() map[string]Inflater {
	return map[string]Inflater{
		EncodingDeflate: InflateZlib,
		EncodingGzip:    InflateGzip,
	}
}

// NormalizeEncoding lower-cases a content encoding and strips the `x-` prefix
// of legacy names, so `X-GZIP` becomes `gzip`.
func NormalizeEncoding(encoding string) string {
	encoding = strings.ToLower(strings.TrimSpace(encoding))
	return strings.TrimPrefix(encoding, "x-")
}

// Inflate decompresses data according to the content encoding it was sent
// with. Bodies in an unknown encoding, or with no encoding, are returned
// unchanged, as is an empty body.
//
// ErrInvalidCompression is returned when the encoding is known but the body
// cannot be inflated within limit bytes, or when no inflater is installed
// for it.
func Inflate(data []byte, encoding string, inflaters map[string]Inflater, limit int64) ([]byte, error) {
	encoding = NormalizeEncoding(encoding)

	if len(data) == 0 || (encoding != EncodingDeflate && encoding != EncodingGzip) {
		return data, nil
	}

	inflate, ok := inflaters[encoding]
	if !ok || inflate == nil {
		return nil, fmt.Errorf("no %s inflater: %w", encoding, ErrInvalidCompression)
	}

	out, err := inflate(data, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", encoding, err, ErrInvalidCompression)
	}

	return out, nil
}

// InflateZlib decompresses a zlib framed deflate stream.
func InflateZlib(data []byte, limit int64) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return readLimited(r, limit)
}

// InflateGzip skips the fixed gzip header and raw inflates the rest of the
// member. The trailer is ignored.
func InflateGzip(data []byte, limit int64) ([]byte, error) {
	if len(data) < gzipHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}

	r := flate.NewReader(bytes.NewReader(data[gzipHeaderSize:]))
	defer r.Close()

	return readLimited(r, limit)
}

// readLimited reads r to the end, failing as soon as more than limit bytes
// have been read.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}

	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}

	if int64(len(out)) > limit {
		return nil, fmt.Errorf("more than %d bytes: %w", limit, ErrInflatedTooLarge)
	}

	return out, nil
}
