package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/luma/webservices/protocol"
	"github.com/luma/webservices/protocol/jsonrpc"
)

const executePath = "/webservices/execute/" + jsonrpc.Name

var (
	ErrIDMismatch = errors.New("Response id does not match the request id")
)

// StatusError is returned when the server answers with a non 200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Unexpected HTTP status %d: %s", e.StatusCode, e.Body)
}

type Options struct {
	// URL of the server root, the execute path is appended to it.
	URL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Compress gzips request bodies.
	Compress bool

	Log *zap.Logger
}

// Client calls a webservices server over JSON-RPC.
type Client struct {
	url        string
	httpClient *http.Client
	compress   bool

	idMu      sync.Mutex
	requestID uint32

	log *zap.Logger
}

func New(options Options) *Client {
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		url:        strings.TrimSuffix(options.URL, "/") + executePath,
		httpClient: httpClient,
		compress:   options.Compress,
		log:        log,
	}
}

// Call calls method with params. A fault answered by the server is returned
// as a *protocol.Fault.
func (c *Client) Call(ctx context.Context, method string, params ...protocol.Value) (protocol.Value, error) {
	id := protocol.Int(int64(c.getNextRequestID()))

	body, err := jsonrpc.EncodeRequest(method, params, id)
	if err != nil {
		return protocol.Null(), err
	}

	req, err := c.newRequest(ctx, body)
	if err != nil {
		return protocol.Null(), err
	}

	c.log.Debug("Calling", zap.String("method", method), zap.Stringer("id", id))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return protocol.Null(), err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return protocol.Null(), fmt.Errorf("Failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return protocol.Null(), &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	result, respID, err := jsonrpc.DecodeResponse(respBody)
	if err != nil {
		return protocol.Null(), err
	}

	// Faults raised before the request was parsed carry a null id
	if !respID.IsNull() && !respID.Equal(id) {
		return protocol.Null(), fmt.Errorf("sent %s, got %s: %w", id, respID, ErrIDMismatch)
	}

	if result.IsFault() {
		return protocol.Null(), result.Fault()
	}

	return result.Value(), nil
}

func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	if c.compress {
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		body = buf.Bytes()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", jsonrpc.ContentType)
	if c.compress {
		req.Header.Set("Content-Encoding", "gzip")
	}

	return req, nil
}

func (c *Client) getNextRequestID() uint32 {
	c.idMu.Lock()
	defer c.idMu.Unlock()

	if c.requestID < math.MaxUint32-1 {
		c.requestID += 1
	} else {
		// Wrap around instead of overflowing
		c.requestID = 0
	}

	return c.requestID
}
