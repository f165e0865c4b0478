// Package jmaptest runs an in-process JMAP server for tests. It serves a
// session descriptor, an API endpoint that dispatches method calls to
// registered handlers, and an event source that replays canned SSE frames.
package jmaptest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"pkt.systems/pslog"

	"pkt.systems/jmap/api"
	"pkt.systems/jmap/client"
	"pkt.systems/jmap/internal/loggingutil"
)

// DefaultAccountID is the primary account of the default session.
const DefaultAccountID = "u1138"

// Call is one method call received by the server.
type Call struct {
	Name string
	Args map[string]any
	ID   string
}

// Reply is one response triple sent back by a handler.
type Reply struct {
	Name string
	Args any
	ID   string
}

// MarshalJSON encodes the triple as a JSON array.
func (r Reply) MarshalJSON() ([]byte, error) {
	args := r.Args
	if args == nil {
		args = map[string]any{}
	}
	return json.Marshal([]any{r.Name, args, r.ID})
}

// ErrorReply builds an "error" response for call.
func ErrorReply(call Call, errorType string) Reply {
	return Reply{Name: api.MethodErrorName, Args: map[string]any{"type": errorType}, ID: call.ID}
}

// MethodHandler answers one call. It may return any number of replies.
type MethodHandler func(call Call) []Reply

// TestServer is a running fake JMAP server.
type TestServer struct {
	BaseURL string
	Client  *client.Client

	srv    *httptest.Server
	logger pslog.Logger
	token  string

	sessionFetches atomic.Int64
	posts          atomic.Int64

	mu        sync.Mutex
	session   api.Session
	handlers  map[string]MethodHandler
	calls     []Call
	headers   []http.Header
	events    string
	eventPath string
}

type testServerOptions struct {
	logger        pslog.Logger
	token         string
	handlers      map[string]MethodHandler
	mutators      []func(*api.Session)
	events        string
	clientOpts    []client.Option
	disableClient bool
}

// TestServerOption customises StartTestServer.
type TestServerOption func(*testServerOptions)

// WithMethod registers a handler for a method name, replacing the default.
func WithMethod(name string, fn MethodHandler) TestServerOption {
	return func(o *testServerOptions) {
		if fn != nil {
			o.handlers[name] = fn
		}
	}
}

// WithSessionFunc mutates the served session descriptor before start.
func WithSessionFunc(fn func(*api.Session)) TestServerOption {
	return func(o *testServerOptions) {
		if fn != nil {
			o.mutators = append(o.mutators, fn)
		}
	}
}

// WithBearerToken makes every endpoint require the token.
func WithBearerToken(token string) TestServerOption {
	return func(o *testServerOptions) {
		o.token = token
	}
}

// WithEvents sets the raw SSE body served by the event source.
func WithEvents(raw string) TestServerOption {
	return func(o *testServerOptions) {
		o.events = raw
	}
}

// WithTestLogger supplies a custom logger.
func WithTestLogger(logger pslog.Logger) TestServerOption {
	return func(o *testServerOptions) {
		o.logger = logger
	}
}

// WithTestClientOptions appends options used for the helper client.
func WithTestClientOptions(opts ...client.Option) TestServerOption {
	return func(o *testServerOptions) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}

// WithoutTestClient disables automatic client creation.
func WithoutTestClient() TestServerOption {
	return func(o *testServerOptions) {
		o.disableClient = true
	}
}

// StartTestServer starts a server that is closed when t finishes. Server logs
// go to t.Log at debug level unless WithTestLogger says otherwise.
func StartTestServer(t testing.TB, opts ...TestServerOption) *TestServer {
	t.Helper()
	o := testServerOptions{handlers: map[string]MethodHandler{"Core/echo": echoHandler}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NewTestingLogger(t, pslog.DebugLevel)
	}
	ts := &TestServer{
		logger:   loggingutil.WithSubsystem(o.logger, "jmaptest"),
		token:    o.token,
		handlers: o.handlers,
		events:   o.events,
		session:  DefaultSession(),
	}
	for _, fn := range o.mutators {
		fn(&ts.session)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/jmap", ts.handleSession)
	mux.HandleFunc("POST /api", ts.handleAPI)
	mux.HandleFunc("GET /events/{types}/{closeafter}/{ping}", ts.handleEvents)
	ts.srv = httptest.NewServer(ts.authorize(mux))
	ts.BaseURL = ts.srv.URL
	t.Cleanup(ts.srv.Close)
	if !o.disableClient {
		clientOpts := []client.Option{client.WithLogger(o.logger)}
		if o.token != "" {
			clientOpts = append(clientOpts, client.WithBearerToken(o.token))
		}
		cli, err := ts.NewClient(append(clientOpts, o.clientOpts...)...)
		if err != nil {
			t.Fatalf("jmaptest: client: %v", err)
		}
		ts.Client = cli
	}
	return ts
}

// DefaultSession returns the descriptor served unless WithSessionFunc
// changes it. URLs are server relative.
func DefaultSession() api.Session {
	return api.Session{
		Capabilities: map[string]json.RawMessage{
			api.URNCore: json.RawMessage(`{"maxSizeUpload":50000000,"maxConcurrentUpload":4,"maxSizeRequest":10000000,` +
				`"maxConcurrentRequests":4,"maxCallsInRequest":16,"maxObjectsInGet":500,"maxObjectsInSet":500,` +
				`"collationAlgorithms":["i;ascii-casemap"]}`),
			api.URNMail:       json.RawMessage(`{}`),
			api.URNSubmission: json.RawMessage(`{}`),
		},
		Accounts: map[string]api.Account{
			DefaultAccountID: {Name: "ness@onett.example.net", IsPersonal: true},
		},
		PrimaryAccounts: map[string]string{
			api.URNMail:       DefaultAccountID,
			api.URNSubmission: DefaultAccountID,
		},
		Username:       "ness@onett.example.net",
		APIURL:         "/api",
		DownloadURL:    "/download/{accountId}/{blobId}/{name}?type={type}",
		UploadURL:      "/upload/{accountId}/",
		EventSourceURL: "/events/{types}/{closeafter}/{ping}",
		State:          "s1",
	}
}

// URL returns the base URL clients should use to reach the server.
func (ts *TestServer) URL() string {
	if ts == nil {
		return ""
	}
	return ts.BaseURL
}

// NewClient returns a new client configured against the test server.
func (ts *TestServer) NewClient(opts ...client.Option) (*client.Client, error) {
	if ts == nil {
		return nil, fmt.Errorf("nil test server")
	}
	return client.New(ts.BaseURL, opts...)
}

// Handle registers or replaces a method handler on a running server.
func (ts *TestServer) Handle(name string, fn MethodHandler) {
	ts.mu.Lock()
	ts.handlers[name] = fn
	ts.mu.Unlock()
}

// SetSessionState changes the state reported by the session and by every
// subsequent API response.
func (ts *TestServer) SetSessionState(state string) {
	ts.mu.Lock()
	ts.session.State = state
	ts.mu.Unlock()
}

// SetEvents replaces the SSE body served by the event source.
func (ts *TestServer) SetEvents(raw string) {
	ts.mu.Lock()
	ts.events = raw
	ts.mu.Unlock()
}

// SessionFetches counts requests to the session endpoint.
func (ts *TestServer) SessionFetches() int64 { return ts.sessionFetches.Load() }

// Posts counts requests to the API endpoint.
func (ts *TestServer) Posts() int64 { return ts.posts.Load() }

// Calls returns every method call received so far.
func (ts *TestServer) Calls() []Call {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]Call(nil), ts.calls...)
}

// LastCall returns the most recent method call.
func (ts *TestServer) LastCall() (Call, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.calls) == 0 {
		return Call{}, false
	}
	return ts.calls[len(ts.calls)-1], true
}

// Headers returns the headers of every request received so far.
func (ts *TestServer) Headers() []http.Header {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]http.Header(nil), ts.headers...)
}

// EventPath returns the path of the last event source request.
func (ts *TestServer) EventPath() string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.eventPath
}

func (ts *TestServer) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.headers = append(ts.headers, r.Header.Clone())
		ts.mu.Unlock()
		if ts.token != "" && r.Header.Get("Authorization") != "Bearer "+ts.token {
			ts.logger.Debug("jmaptest.auth.denied", "path", r.URL.Path)
			writeProblem(w, http.StatusUnauthorized, "about:blank", "missing or invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (ts *TestServer) handleSession(w http.ResponseWriter, r *http.Request) {
	ts.sessionFetches.Add(1)
	ts.mu.Lock()
	sess := ts.session
	ts.mu.Unlock()
	ts.logger.Debug("jmaptest.session.serve", "state", sess.State)
	writeJSON(w, http.StatusOK, sess)
}

type wireRequest struct {
	Using       []string            `json:"using"`
	MethodCalls [][]json.RawMessage `json:"methodCalls"`
}

func (ts *TestServer) handleAPI(w http.ResponseWriter, r *http.Request) {
	ts.posts.Add(1)
	var req wireRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, client.ProblemNotJSON, err.Error())
		return
	}
	ts.mu.Lock()
	unknown := ""
	for _, urn := range req.Using {
		if _, ok := ts.session.Capabilities[urn]; !ok {
			unknown = urn
			break
		}
	}
	ts.mu.Unlock()
	if unknown != "" {
		writeProblem(w, http.StatusBadRequest, client.ProblemUnknownCapability, "unknown capability "+unknown)
		return
	}
	replies := make([]Reply, 0, len(req.MethodCalls))
	for i, raw := range req.MethodCalls {
		call, err := decodeCall(raw)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, client.ProblemNotRequest, fmt.Sprintf("method call %d: %v", i, err))
			return
		}
		ts.mu.Lock()
		ts.calls = append(ts.calls, call)
		handler := ts.handlers[call.Name]
		ts.mu.Unlock()
		if handler == nil {
			ts.logger.Debug("jmaptest.api.unknown_method", "method", call.Name, "call_id", call.ID)
			replies = append(replies, ErrorReply(call, "unknownMethod"))
			continue
		}
		replies = append(replies, handler(call)...)
	}
	ts.mu.Lock()
	state := ts.session.State
	ts.mu.Unlock()
	ts.logger.Debug("jmaptest.api.reply", "calls", len(req.MethodCalls), "responses", len(replies))
	writeJSON(w, http.StatusOK, map[string]any{"methodResponses": replies, "sessionState": state})
}

func (ts *TestServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	ts.eventPath = r.URL.Path
	events := ts.events
	ts.mu.Unlock()
	ts.logger.Debug("jmaptest.events.serve", "path", r.URL.Path, "last_event_id", r.Header.Get("Last-Event-ID"))
	w.Header().Set("Content-Type", "text/event-stream")
	_, _ = io.WriteString(w, events)
}

func decodeCall(raw []json.RawMessage) (Call, error) {
	if len(raw) != 3 {
		return Call{}, fmt.Errorf("want 3 elements, got %d", len(raw))
	}
	var call Call
	if err := json.Unmarshal(raw[0], &call.Name); err != nil {
		return Call{}, fmt.Errorf("name: %w", err)
	}
	if err := json.Unmarshal(raw[1], &call.Args); err != nil {
		return Call{}, fmt.Errorf("arguments: %w", err)
	}
	if err := json.Unmarshal(raw[2], &call.ID); err != nil {
		return Call{}, fmt.Errorf("call id: %w", err)
	}
	return call, nil
}

func echoHandler(call Call) []Reply {
	return []Reply{{Name: call.Name, Args: call.Args, ID: call.ID}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, problemType, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"type": problemType, "status": status, "detail": detail})
}

type testingWriter struct {
	t  testing.TB
	mu sync.Mutex
	// closed guards against writes after the associated test has finished.
	closed bool
}

func (w *testingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return len(p), nil
	}
	for _, line := range bytes.Split(p, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		func(entry string) {
			defer func() {
				if r := recover(); r != nil {
					if strings.Contains(fmt.Sprint(r), "Log in goroutine after") {
						return
					}
					panic(r)
				}
			}()
			w.t.Log(entry)
		}(string(line))
	}
	return len(p), nil
}

func (w *testingWriter) close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

// NewTestingLogger creates a pslog logger that writes through testing.TB.
// Pass pslog.NoLevel to keep the logger's default level.
func NewTestingLogger(t testing.TB, level pslog.Level) pslog.Logger {
	writer := &testingWriter{t: t}
	t.Cleanup(writer.close)
	logger := pslog.NewStructured(writer)
	if level != pslog.NoLevel {
		logger = logger.LogLevel(level)
	}
	return logger.With("app", "jmaptest")
}
