package client_test

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"pkt.systems/jmap/api"
	"pkt.systems/jmap/client"
)

const eventBody = ": keepalive comment\n\n" +
	"event: ping\ndata: {\"interval\":30}\n\n" +
	"id: e1\nevent: state\ndata: {\"@type\":\"StateChange\",\n" +
	"data: \"changed\":{\"u1138\":{\"Email\":\"s9\",\"Mailbox\":\"m2\"}}}\n\n" +
	"id: e2\r\nevent: state\r\ndata: {\"@type\":\"StateChange\",\"changed\":{}}\r\n\r\n" +
	"id: e3\nevent: state\ndata: {\"truncated\""

func TestEventsYieldStateChanges(t *testing.T) {
	srv := newJMAPServer(t)
	srv.events = eventBody
	cli := newClient(t, srv,
		client.WithEventSource(client.EventSourceConfig{Types: []string{"Email", "Mailbox"}, CloseAfter: client.CloseAfterState, Ping: 30}),
		client.WithLastEventID("e0"),
	)
	stream, err := cli.Events(context.Background())
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer stream.Close()

	srv.mu.Lock()
	path := srv.eventPath
	srv.mu.Unlock()
	if path != "/events/Email,Mailbox/state/30" {
		t.Fatalf("unexpected event source path %q", path)
	}
	headers := srv.lastHeaders()
	if headers.Get("Last-Event-ID") != "e0" || headers.Get("Accept") != "text/event-stream" {
		t.Fatalf("unexpected stream headers %v", headers)
	}

	first, err := stream.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	want := api.Event{ID: "e1", Name: "state", Data: api.StateChange{
		Type:    "StateChange",
		Changed: map[string]api.TypeState{"u1138": {"Email": "s9", "Mailbox": "m2"}},
	}}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("unexpected event:\n got %#v\nwant %#v", first, want)
	}
	second, err := stream.Next()
	if err != nil || second.ID != "e2" {
		t.Fatalf("expected CRLF framed event e2, got %#v (%v)", second, err)
	}
	if _, err := stream.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("an unterminated event must be dropped at EOF, got %v", err)
	}
	if stream.LastEventID() != "e3" || cli.LastEventID() != "e3" {
		t.Fatalf("unexpected last event id %q / %q", stream.LastEventID(), cli.LastEventID())
	}
}

func TestEventsDefaults(t *testing.T) {
	srv := newJMAPServer(t)
	cli := newClient(t, srv)
	stream, err := cli.Events(context.Background())
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer stream.Close()
	srv.mu.Lock()
	path := srv.eventPath
	srv.mu.Unlock()
	if path != "/events/*/no/0" {
		t.Fatalf("unexpected default event source path %q", path)
	}
	if srv.lastHeaders().Get("Last-Event-ID") != "" {
		t.Fatalf("no Last-Event-ID expected on a fresh stream")
	}
	if _, err := stream.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF on empty stream, got %v", err)
	}
}
