// Package client provides the Go SDK for talking to a JMAP server over HTTP.
//
// # Quick start
//
// Construct a client with a host name or a full session URL. A bare host is
// resolved to https://<host>/.well-known/jmap:
//
//	cli, err := client.New("api.fastmail.com", client.WithBearerToken(token))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Calls are the argument records from the methods package. A batch is sent
// as a single request; each call gets an id from the id policy ("single.<name>"
// for one call, "<index>.<name>" otherwise) unless it is wrapped in a
// request.Invocation carrying its own id:
//
//	results, err := cli.Submit(ctx,
//	    methods.EmailQuery{
//	        Filter: models.EmailFilterCondition{InMailbox: api.Value(inboxID)},
//	        Query:  methods.Query{Sort: []models.Comparator{models.Descending("receivedAt")}},
//	    },
//	    methods.EmailGet{Get: methods.Get{IDs: api.ArgRef[[]string](api.Prev("/ids"))}},
//	)
//
// api.Prev and api.RefCall build shorthand references that are resolved
// against the earlier calls of the same batch before anything is sent; a
// reference that cannot be resolved fails the request without contacting the
// API endpoint.
//
// # Results and errors
//
// Submit returns one dispatch.InvocationResponse per server response, in
// server order. Method errors are ordinary values there; use Err to pick them
// out, or pass Strict to Request to receive a *ProtocolError instead. Call and
// CallAs unwrap a single method call and return its method error as the error.
//
// HTTP failures surface as *TransportError, carrying the RFC 7807 problem body
// JMAP servers send for request-level errors. Nothing is retried.
//
// # Session
//
// The session descriptor is fetched once and cached. Every response carries a
// sessionState; when it differs from the cached descriptor the cache is
// dropped and the next request fetches it again.
//
// # Push events
//
// Events opens the server's event source and yields state changes:
//
//	stream, err := cli.Events(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stream.Close()
//	for {
//	    ev, err := stream.Next()
//	    if err != nil {
//	        break
//	    }
//	    fmt.Println(ev.ID, ev.Data.Changed)
//	}
//
// # Telemetry
//
// Each request runs in a "jmap.client.submit" span and is counted in the
// jmap.client.requests, jmap.client.method_errors and
// jmap.client.request.duration_ms instruments. The HTTP transport is wrapped
// with otelhttp. Providers default to the otel globals.
package client
