// Package forwarder issues outbound requests against a configured upstream
// and buffers the response fully into memory, used by record-forward and
// transform-forward modes.
package forwarder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/egehanasal/apidouble/pkg/bodyval"
	"github.com/egehanasal/apidouble/pkg/recordmodel"
)

// hopByHopResponseHeaders are stripped from the upstream response before
// writing it back to the client, which always receives fully-buffered,
// already-decoded content.
var hopByHopResponseHeaders = []string{"transfer-encoding", "content-encoding"}

// ConnectError wraps a failure to reach the upstream at all (DNS, refused
// connection, TLS handshake). Callers translate it into
// a 502 response.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("forwarder: upstream connect failed: %v", e.Err)
}
func (e *ConnectError) Unwrap() error { return e.Err }

// TimeoutError wraps a forwarder deadline being exceeded. Callers translate
// it into a 504 response.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("forwarder: upstream timed out: %v", e.Err)
}
func (e *TimeoutError) Unwrap() error { return e.Err }

// Forwarder builds and issues outbound requests against one upstream base
// URL.
type Forwarder struct {
	baseURL *url.URL
	client  *http.Client
	timeout time.Duration
}

// New creates a Forwarder targeting baseURL, with requests bounded by
// timeout (zero means no forwarder-level deadline beyond the caller's
// context).
func New(baseURL string, timeout time.Duration) (*Forwarder, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("forwarder: invalid upstream url: %w", err)
	}
	return &Forwarder{
		baseURL: parsed,
		client:  &http.Client{},
		timeout: timeout,
	}, nil
}

// BaseURL returns the upstream base URL this forwarder targets.
func (f *Forwarder) BaseURL() string {
	return f.baseURL.String()
}

// Forward builds the outbound request from req, issues it, and fully
// buffers the response. The returned ResponseRecord's body is decoded as
// JSON when the response declares a JSON content type, falling back to a
// raw string body on decode failure.
func (f *Forwarder) Forward(ctx context.Context, req recordmodel.RequestRecord) (recordmodel.ResponseRecord, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	outURL := *f.baseURL
	outURL.Path = joinPath(f.baseURL.Path, req.Path)
	outURL.RawQuery = encodeQuery(req.Query)

	var bodyReader io.Reader
	if req.Body != nil && !req.Body.IsAbsent() {
		bodyReader = bytes.NewReader(req.Body.Bytes())
	}

	outReq, err := http.NewRequestWithContext(ctx, req.Method, outURL.String(), bodyReader)
	if err != nil {
		return recordmodel.ResponseRecord{}, &ConnectError{Err: err}
	}
	for name, value := range req.Headers {
		outReq.Header.Set(name, value)
	}
	// changeOrigin: the upstream sees itself as the request's authority,
	// not whatever Host the client originally addressed.
	outReq.Host = f.baseURL.Host

	resp, err := f.client.Do(outReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return recordmodel.ResponseRecord{}, &TimeoutError{Err: ctxErr}
		}
		return recordmodel.ResponseRecord{}, &ConnectError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return recordmodel.ResponseRecord{}, &ConnectError{Err: err}
	}

	headers := recordmodel.NormalizeHeaders(resp.Header)
	for _, h := range hopByHopResponseHeaders {
		delete(headers, h)
	}

	body := bodyval.FromRequest(resp.Header.Get("Content-Type"), raw)
	var bodyPtr *bodyval.Value
	if !body.IsAbsent() {
		bodyPtr = &body
	}

	return recordmodel.ResponseRecord{
		Status:       resp.StatusCode,
		Headers:      headers,
		Body:         bodyPtr,
		CapturedAtMs: time.Now().UnixMilli(),
	}, nil
}

func joinPath(base, reqPath string) string {
	if reqPath == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(reqPath, "/")
}

func encodeQuery(q map[string]string) string {
	if len(q) == 0 {
		return ""
	}
	values := url.Values{}
	for k, v := range q {
		values.Set(k, v)
	}
	return values.Encode()
}
