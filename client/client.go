package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"pkt.systems/pslog"

	"pkt.systems/jmap/api"
	"pkt.systems/jmap/dispatch"
	"pkt.systems/jmap/internal/loggingutil"
	"pkt.systems/jmap/internal/version"
	"pkt.systems/jmap/request"
	"pkt.systems/jmap/session"
)

// DefaultHTTPTimeout bounds session and API requests unless overridden.
const DefaultHTTPTimeout = 15 * time.Second

// WellKnownPath is the session resource location on a bare host.
const WellKnownPath = "/.well-known/jmap"

// ErrNoAccount is returned when no account id is configured and the session
// names no primary account for core, mail or submission.
var ErrNoAccount = errors.New("jmap: no primary account id found")

// Client submits JMAP requests. It is safe for concurrent use; requests share
// only the session cache.
type Client struct {
	sessionURL  string
	httpClient  *http.Client
	httpTimeout time.Duration
	tokens      TokenSource
	username    string
	password    string
	transport   Transport

	builderOpts []request.Option
	builder     *request.Builder
	accountID   string
	registry    *dispatch.Registry
	cache       *session.Cache

	logger         pslog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	metrics        *clientMetrics

	events      EventSourceConfig
	eventMu     sync.Mutex
	lastEventID string
}

// Option customises client construction.
type Option func(*Client)

// WithHTTPClient supplies a custom HTTP client. Its transport is wrapped with
// OpenTelemetry instrumentation; the original client is not modified.
func WithHTTPClient(cli *http.Client) Option {
	return func(c *Client) {
		if cli != nil {
			c.httpClient = cli
		}
	}
}

// WithLogger supplies a logger for client diagnostics.
// Passing nil falls back to a disabled logger.
func WithLogger(logger pslog.Logger) Option {
	return func(c *Client) {
		c.logger = loggingutil.WithSubsystem(logger, "client.sdk")
	}
}

// WithBearerToken authenticates with a fixed bearer token.
func WithBearerToken(token string) Option {
	return WithTokenSource(StaticToken(token))
}

// WithTokenSource authenticates with tokens from src, consulted per request.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) {
		c.tokens = src
	}
}

// WithBasicAuth authenticates with a username and password. A token source,
// when also configured, takes precedence.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithTransport replaces the HTTP transport entirely. Authentication, HTTP
// client and timeout options are then ignored.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithHTTPTimeout overrides the per-request timeout for session and API
// calls. Event streams are not bounded by it.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpTimeout = d
		}
	}
}

// WithIDPolicy overrides how call ids are assigned to bare methods.
func WithIDPolicy(policy request.IDPolicy) Option {
	return func(c *Client) {
		c.builderOpts = append(c.builderOpts, request.WithIDPolicy(policy))
	}
}

// WithAccountID fixes the account injected into account-scoped methods
// instead of the session's primary account.
func WithAccountID(accountID string) Option {
	return func(c *Client) {
		c.accountID = strings.TrimSpace(accountID)
	}
}

// WithRegistry replaces dispatch.Default as the response registry.
func WithRegistry(r *dispatch.Registry) Option {
	return func(c *Client) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracerProvider = tp
		}
	}
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Client) {
		if mp != nil {
			c.meterProvider = mp
		}
	}
}

// WithEventSource sets the parameters used to expand the event source URL.
func WithEventSource(cfg EventSourceConfig) Option {
	return func(c *Client) {
		c.events = cfg
	}
}

// WithLastEventID resumes the event stream after id.
func WithLastEventID(id string) Option {
	return func(c *Client) {
		c.lastEventID = id
	}
}

// New creates a client for endpoint, which is either a host name (the session
// is then read from https://<host>/.well-known/jmap) or a full session URL.
//
//	cli, err := client.New("api.fastmail.com", client.WithBearerToken(token))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := cli.Call(ctx, methods.CoreEcho{Data: map[string]any{"hello": "world"}})
func New(endpoint string, opts ...Option) (*Client, error) {
	sessionURL, err := SessionURL(endpoint)
	if err != nil {
		return nil, err
	}
	c := &Client{
		sessionURL:     sessionURL,
		httpTimeout:    DefaultHTTPTimeout,
		registry:       dispatch.Default,
		logger:         loggingutil.NoopLogger(),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.builder = request.NewBuilder(c.builderOpts...)
	c.tracer = c.tracerProvider.Tracer(instrumentationName)
	c.metrics = newClientMetrics(c.logger, c.meterProvider)
	if c.transport == nil {
		c.transport = c.newHTTPTransport()
	}
	c.cache = session.NewCache(c.fetchSession, session.WithLogger(c.logger))
	return c, nil
}

// SessionURL normalises endpoint into the session resource URL.
func SessionURL(endpoint string) (string, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return "", errors.New("jmap: endpoint required")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("jmap: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("jmap: unsupported endpoint scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("jmap: endpoint %q has no host", endpoint)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = WellKnownPath
	}
	return u.String(), nil
}

func (c *Client) newHTTPTransport() *HTTPTransport {
	var base http.Client
	if c.httpClient != nil {
		base = *c.httpClient
	}
	base.Transport = otelhttp.NewTransport(base.Transport,
		otelhttp.WithTracerProvider(c.tracerProvider),
		otelhttp.WithMeterProvider(c.meterProvider),
	)
	return &HTTPTransport{
		Client:    &base,
		Tokens:    c.tokens,
		Username:  c.username,
		Password:  c.password,
		Timeout:   c.httpTimeout,
		UserAgent: "jmap-go/" + version.Current(),
		Logger:    c.logger,
	}
}

func (c *Client) fetchSession(ctx context.Context) (*api.Session, error) {
	body, err := c.transport.Get(ctx, c.sessionURL)
	if err != nil {
		return nil, err
	}
	sess, err := api.DecodeSession(body)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(c.sessionURL)
	if err != nil {
		return nil, err
	}
	sess.APIURL = absoluteURL(base, sess.APIURL)
	sess.UploadURL = absoluteURL(base, sess.UploadURL)
	sess.DownloadURL = absoluteURL(base, sess.DownloadURL)
	sess.EventSourceURL = absoluteURL(base, sess.EventSourceURL)
	return sess, nil
}

// absoluteURL prefixes server-relative URLs with the session origin. URL
// templates are left textually intact.
func absoluteURL(base *url.URL, raw string) string {
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return base.Scheme + "://" + base.Host + raw
	}
	return raw
}

// SessionEndpoint returns the session resource URL.
func (c *Client) SessionEndpoint() string { return c.sessionURL }

// Session returns the cached session descriptor, fetching it on first use and
// after the server reports a new session state.
func (c *Client) Session(ctx context.Context) (*api.Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.cache.Get(ctx)
}

// InvalidateSession drops the cached descriptor.
func (c *Client) InvalidateSession() {
	c.cache.Invalidate()
}

// AccountID returns the configured account id, or the session's primary
// account for core, mail or submission in that order.
func (c *Client) AccountID(ctx context.Context) (string, error) {
	if c.accountID != "" {
		return c.accountID, nil
	}
	sess, err := c.Session(ctx)
	if err != nil {
		return "", err
	}
	return accountFor(sess)
}

func accountFor(sess *api.Session) (string, error) {
	id, err := sess.PrimaryAccount()
	if err != nil {
		return "", ErrNoAccount
	}
	return id, nil
}

// RequestOption customises a single request.
type RequestOption func(*requestConfig)

type requestConfig struct {
	strict    bool
	accountID string
}

// Strict turns any method error in the response into a *ProtocolError
// carrying every result.
func Strict() RequestOption {
	return func(cfg *requestConfig) {
		cfg.strict = true
	}
}

// WithRequestAccountID overrides the injected account for one request.
func WithRequestAccountID(accountID string) RequestOption {
	return func(cfg *requestConfig) {
		cfg.accountID = strings.TrimSpace(accountID)
	}
}

// ProtocolError carries a response that contained method errors. It is only
// returned in Strict mode.
type ProtocolError struct {
	Responses []dispatch.InvocationResponse
}

// Errors lists the method errors in response order.
func (e *ProtocolError) Errors() []api.MethodError {
	var out []api.MethodError
	for _, res := range e.Responses {
		if err := res.Err(); err != nil {
			out = append(out, err)
		}
	}
	return out
}

func (e *ProtocolError) Error() string {
	errs := e.Errors()
	if len(errs) == 0 {
		return "jmap: response contained method errors"
	}
	return fmt.Sprintf("jmap: %d method error(s) in response, first: %v", len(errs), errs[0])
}

// Unwrap exposes the individual method errors to errors.Is and errors.As.
func (e *ProtocolError) Unwrap() []error {
	errs := e.Errors()
	out := make([]error, len(errs))
	for i, err := range errs {
		out[i] = err
	}
	return out
}

// ResultCountError reports a single method call whose response could not be
// picked out: none carried its call id and there was not exactly one.
type ResultCountError struct {
	Method    string
	Responses []dispatch.InvocationResponse
}

func (e *ResultCountError) Error() string {
	return fmt.Sprintf("jmap: %d method responses received for single method call %s, none matching its call id", len(e.Responses), e.Method)
}

// Submit sends calls as one request and returns the decoded responses in
// server order. Method errors are returned as values in the list.
func (c *Client) Submit(ctx context.Context, calls ...request.Method) ([]dispatch.InvocationResponse, error) {
	return c.Request(ctx, calls)
}

// Request sends calls as one request. Build and reference errors are detected
// before anything is posted to the API.
func (c *Client) Request(ctx context.Context, calls []request.Method, opts ...RequestOption) ([]dispatch.InvocationResponse, error) {
	var cfg requestConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cid := ensureCorrelationID(ctx)
	begin := time.Now()
	ctx, span := c.tracer.Start(ctx, "jmap.client.submit", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("jmap.correlation_id", cid),
		attribute.Int("jmap.calls", len(calls)),
	)
	logger := c.logger.With("cid", cid)

	results, err := c.submit(ctx, logger, span, calls, cfg)
	c.metrics.recordRequest(ctx, len(calls), begin, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, resultLabel(err))
		return results, err
	}
	span.SetStatus(codes.Ok, "")
	return results, nil
}

func (c *Client) submit(ctx context.Context, logger pslog.Logger, span trace.Span, calls []request.Method, cfg requestConfig) ([]dispatch.InvocationResponse, error) {
	batch, err := c.builder.Prepare(calls)
	if err != nil {
		logger.Warn("client.request.build_error", "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.StringSlice("jmap.methods", batch.Describe()))

	sess, err := c.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	session.CheckCapabilities(logger, batch.Using, sess)

	accountID := cfg.accountID
	if accountID == "" {
		accountID = c.accountID
	}
	if accountID == "" && batch.AccountScoped() {
		if accountID, err = accountFor(sess); err != nil {
			return nil, err
		}
	}
	req := batch.Encode(accountID)
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("jmap: encode request: %w", err)
	}
	logger.Debug("client.request.send", "calls", batch.Describe(), "using", batch.Using, "api_url", sess.APIURL)
	logger.Trace("client.request.body", "body", string(body))

	raw, err := c.transport.Post(ctx, sess.APIURL, body)
	if err != nil {
		logger.Warn("client.request.transport_error", "error", err)
		return nil, err
	}
	logger.Trace("client.response.body", "body", string(raw))
	resp, err := api.DecodeResponse(raw)
	if err != nil {
		return nil, err
	}
	if c.cache.Observe(resp.SessionState) {
		span.AddEvent("jmap.session.invalidated")
	}
	results, err := c.registry.Decode(resp.MethodResponses)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(batch.Invocations))
	for _, inv := range batch.Invocations {
		names[inv.ID] = inv.MethodName()
	}
	failed := 0
	for _, res := range results {
		if merr := res.Err(); merr != nil {
			failed++
			c.metrics.recordMethodError(ctx, names[res.ID], merr.ErrorType())
			logger.Debug("client.response.method_error", "call_id", res.ID, "type", merr.ErrorType())
		}
	}
	span.SetAttributes(attribute.Int("jmap.responses", len(results)), attribute.Int("jmap.method_errors", failed))
	logger.Debug("client.request.success", "responses", len(results), "method_errors", failed)
	if cfg.strict && failed > 0 {
		return results, &ProtocolError{Responses: results}
	}
	return results, nil
}

// Call sends a single method and returns the response carrying its call id.
// A method error is returned as the error. Extra responses, such as the
// implicit Email/set a server adds after EmailSubmission/set, are skipped; use
// Submit to see every response. When no response carries the call id a lone
// response is accepted, otherwise the result is a *ResultCountError.
func (c *Client) Call(ctx context.Context, method request.Method, opts ...RequestOption) (dispatch.Response, error) {
	if method == nil {
		return nil, &request.BuildError{Err: request.ErrNoCalls}
	}
	var inv request.Invocation
	switch m := method.(type) {
	case request.Invocation:
		inv = m
	case *request.Invocation:
		if m == nil {
			return nil, &request.BuildError{Err: request.ErrNoCalls}
		}
		inv = *m
	default:
		inv = request.Invocation{ID: c.builder.ID(0, 1, m.MethodName()), Method: m}
	}
	results, err := c.Request(ctx, []request.Method{inv}, opts...)
	if err != nil {
		return nil, err
	}
	res, ok := matchResult(results, inv.ID, inv.MethodName())
	if !ok {
		return nil, &ResultCountError{Method: inv.MethodName(), Responses: results}
	}
	if merr := res.Err(); merr != nil {
		return nil, merr
	}
	return res.Response, nil
}

// matchResult prefers a response with both the call id and the method name
// (or a method error), then any response with the call id. Servers reuse the
// call id for implicit follow-up calls.
func matchResult(results []dispatch.InvocationResponse, callID, name string) (dispatch.InvocationResponse, bool) {
	for _, res := range results {
		if res.ID != callID {
			continue
		}
		if got := res.Response.MethodName(); got == name || got == api.MethodErrorName {
			return res, true
		}
	}
	for _, res := range results {
		if res.ID == callID {
			return res, true
		}
	}
	if len(results) == 1 {
		return results[0], true
	}
	return dispatch.InvocationResponse{}, false
}

// CallAs is Call with the response asserted to T, e.g.
// *methods.EmailGetResponse.
func CallAs[T dispatch.Response](ctx context.Context, c *Client, method request.Method, opts ...RequestOption) (T, error) {
	var zero T
	res, err := c.Call(ctx, method, opts...)
	if err != nil {
		return zero, err
	}
	typed, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("jmap: %s response decoded as %T, not %T", res.MethodName(), res, zero)
	}
	return typed, nil
}
