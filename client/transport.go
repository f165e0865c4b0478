package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pkt.systems/pslog"

	"pkt.systems/jmap/internal/loggingutil"
)

// Transport moves bytes between the client and a JMAP server. Errors are
// surfaced to callers unchanged.
type Transport interface {
	// Post sends a JSON body to url and returns the response body.
	Post(ctx context.Context, url string, body []byte) ([]byte, error)
	// Get fetches url, e.g. the session resource.
	Get(ctx context.Context, url string) ([]byte, error)
	// Stream opens a long-lived text/event-stream response.
	Stream(ctx context.Context, url, lastEventID string) (io.ReadCloser, error)
}

// JMAP request-level problem types (RFC 8620 section 3.6.1).
const (
	ProblemUnknownCapability = "urn:ietf:params:jmap:error:unknownCapability"
	ProblemNotJSON           = "urn:ietf:params:jmap:error:notJSON"
	ProblemNotRequest        = "urn:ietf:params:jmap:error:notRequest"
	ProblemLimit             = "urn:ietf:params:jmap:error:limit"
)

// Problem is an RFC 7807 problem details body.
type Problem struct {
	Type   string `json:"type"`
	Status int    `json:"status,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
	// Limit names the exceeded limit for ProblemLimit.
	Limit string `json:"limit,omitempty"`
}

// TransportError describes a non-2xx HTTP response.
type TransportError struct {
	// Status is the HTTP status code returned by the server.
	Status int
	// Problem is the decoded problem body, when the server sent one.
	Problem *Problem
	// Body contains the raw response body bytes for diagnostics.
	Body []byte
	// CorrelationID is the X-Correlation-Id sent with the request.
	CorrelationID string
}

func (e *TransportError) Error() string {
	if e.Problem != nil && e.Problem.Type != "" {
		detail := e.Problem.Detail
		if detail == "" {
			detail = e.Problem.Title
		}
		if detail == "" {
			return fmt.Sprintf("jmap: status %d: %s", e.Status, e.Problem.Type)
		}
		return fmt.Sprintf("jmap: status %d: %s (%s)", e.Status, e.Problem.Type, detail)
	}
	return fmt.Sprintf("jmap: status %d", e.Status)
}

// HTTPTransport is the default Transport. It authenticates every request and
// tags it with a correlation id.
type HTTPTransport struct {
	// Client performs the requests. Nil means http.DefaultClient.
	Client *http.Client
	// Tokens supplies bearer tokens. When nil, Username/Password are sent as
	// basic auth if set.
	Tokens   TokenSource
	Username string
	Password string
	// Timeout bounds Post and Get. Streams are not bounded.
	Timeout time.Duration
	// UserAgent is sent when non-empty.
	UserAgent string
	Logger    pslog.Logger
}

// Post implements Transport.
func (t *HTTPTransport) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	ctx, cancel := t.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return t.do(ctx, req)
}

// Get implements Transport.
func (t *HTTPTransport) Get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := t.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return t.do(ctx, req)
}

// Stream implements Transport. The caller closes the returned body.
func (t *HTTPTransport) Stream(ctx context.Context, url, lastEventID string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}
	if err := t.prepare(ctx, req); err != nil {
		return nil, err
	}
	resp, err := t.httpClient().Do(req)
	if err != nil {
		t.logger().Warn("client.http.stream.transport_error", "url", url, "error", err)
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, transportError(resp, data, req.Header.Get(headerCorrelationID))
	}
	return resp.Body, nil
}

func (t *HTTPTransport) do(ctx context.Context, req *http.Request) ([]byte, error) {
	if err := t.prepare(ctx, req); err != nil {
		return nil, err
	}
	cid := req.Header.Get(headerCorrelationID)
	logger := t.logger()
	logger.Trace("client.http.start", "method", req.Method, "url", req.URL.String(), "cid", cid)
	resp, err := t.httpClient().Do(req)
	if err != nil {
		logger.Warn("client.http.transport_error", "method", req.Method, "url", req.URL.String(), "cid", cid, "error", err)
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		logger.Warn("client.http.error", "method", req.Method, "url", req.URL.String(), "cid", cid, "status", resp.StatusCode)
		return nil, transportError(resp, data, cid)
	}
	logger.Trace("client.http.success", "method", req.Method, "url", req.URL.String(), "cid", cid, "status", resp.StatusCode, "bytes", len(data))
	return data, nil
}

func (t *HTTPTransport) prepare(ctx context.Context, req *http.Request) error {
	if t.Tokens != nil {
		token, err := t.Tokens.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	} else if t.Username != "" || t.Password != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}
	_, cid := ensureCorrelationID(ctx)
	req.Header.Set(headerCorrelationID, cid)
	return nil
}

func (t *HTTPTransport) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if t.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, t.Timeout)
}

func (t *HTTPTransport) httpClient() *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return http.DefaultClient
}

func (t *HTTPTransport) logger() pslog.Logger {
	return loggingutil.EnsureLogger(t.Logger)
}

func transportError(resp *http.Response, data []byte, cid string) error {
	out := &TransportError{Status: resp.StatusCode, Body: data, CorrelationID: cid}
	ctype := strings.ToLower(resp.Header.Get("Content-Type"))
	if len(data) > 0 && (strings.Contains(ctype, "json") || json.Valid(data)) {
		var problem Problem
		if err := json.Unmarshal(data, &problem); err == nil && problem.Type != "" {
			out.Problem = &problem
		}
	}
	return out
}
