// Package jmap is the root of a JMAP (RFC 8620/8621) client engine for Go.
// The root package holds no code; the work happens in the subpackages.
//
// # Layout
//
//   - api: wire types. This covers the request and response envelopes, the
//     session descriptor, result references, method errors and push events.
//   - codec: converts Go records to JSON wire maps and back using the jmap
//     struct tag. Field names default to lower camel case.
//   - request: assigns call ids, resolves shorthand back-references and
//     builds the Request envelope.
//   - session: caches the session descriptor and drops it when the server
//     reports a new sessionState.
//   - dispatch: decodes response triples into typed results or method errors.
//   - methods, models: the Core, Mail, Submission, Vacation and MaskedEmail
//     method records and data types.
//   - client: HTTP transport, authentication, the request pipeline, the push
//     event stream and OpenTelemetry instrumentation.
//   - jmaptest: an in-process JMAP server for tests.
//   - cmd/jmapc: a command line client.
//
// # Quick start
//
//	cli, err := client.New("api.fastmail.com", client.WithBearerToken(token))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	results, err := cli.Submit(ctx,
//	    methods.MailboxQuery{Filter: models.MailboxFilterCondition{Role: api.Value("inbox")}},
//	    methods.EmailQuery{
//	        Filter: models.EmailFilterCondition{InMailbox: api.ArgRef[string](api.Prev("/ids/0"))},
//	    },
//	)
//
// Each element of results pairs a call id with a decoded response. Method
// errors stay in the slice as values unless client.Strict is requested.
//
// # Logging
//
// Every component logs through pkt.systems/pslog with dotted event names
// ("client.request.send", "session.refresh") and a "sys" subsystem tag. When
// no logger is supplied the components stay silent.
package jmap
