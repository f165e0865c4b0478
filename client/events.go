package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"pkt.systems/pslog"

	"pkt.systems/jmap/api"
)

// CloseAfter values for EventSourceConfig.
const (
	CloseAfterNo    = "no"
	CloseAfterState = "state"
)

// EventSourceConfig fills the event source URL template.
type EventSourceConfig struct {
	// Types restricts pushed changes to these type names; empty means all.
	Types []string
	// CloseAfter is CloseAfterNo (default) or CloseAfterState.
	CloseAfter string
	// Ping asks the server for keepalive pings every Ping seconds; 0 disables.
	Ping int
}

// Events opens the push event stream described by the session. Only state
// events are yielded; pings and unknown event types are skipped.
func (c *Client) Events(ctx context.Context) (*EventStream, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cid := ensureCorrelationID(ctx)
	sess, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}
	if sess.EventSourceURL == "" {
		return nil, fmt.Errorf("jmap: session has no eventSourceUrl")
	}
	url := sess.EventSourceURLFor(c.events.Types, c.events.CloseAfter, c.events.Ping)
	lastID := c.LastEventID()
	c.logger.Debug("client.events.open", "url", url, "last_event_id", lastID, "cid", cid)
	body, err := c.transport.Stream(ctx, url, lastID)
	if err != nil {
		c.logger.Warn("client.events.open.error", "url", url, "error", err, "cid", cid)
		return nil, err
	}
	return newEventStream(body, c.logger, c.setLastEventID), nil
}

// LastEventID returns the id of the last event received by any stream, or the
// value given to WithLastEventID.
func (c *Client) LastEventID() string {
	c.eventMu.Lock()
	defer c.eventMu.Unlock()
	return c.lastEventID
}

func (c *Client) setLastEventID(id string) {
	c.eventMu.Lock()
	c.lastEventID = id
	c.eventMu.Unlock()
}

// EventStream reads server-sent events. It is not safe for concurrent use.
type EventStream struct {
	body    io.ReadCloser
	reader  *bufio.Reader
	logger  pslog.Logger
	onID    func(string)
	lastID  string
	closing sync.Once
}

func newEventStream(body io.ReadCloser, logger pslog.Logger, onID func(string)) *EventStream {
	return &EventStream{body: body, reader: bufio.NewReader(body), logger: logger, onID: onID}
}

// Next blocks until the next state event arrives. It returns io.EOF when the
// server closes the stream.
func (s *EventStream) Next() (api.Event, error) {
	for {
		frame, err := s.readFrame()
		if err != nil {
			return api.Event{}, err
		}
		if frame.name != api.StateEventName {
			s.logger.Trace("client.events.skip", "event", frame.name)
			continue
		}
		var change api.StateChange
		if err := json.Unmarshal([]byte(frame.data), &change); err != nil {
			return api.Event{}, fmt.Errorf("jmap: decode state event %q: %w", frame.id, err)
		}
		return api.Event{ID: frame.id, Name: frame.name, Data: change}, nil
	}
}

// LastEventID returns the id of the most recent event seen on this stream.
func (s *EventStream) LastEventID() string {
	return s.lastID
}

// Close releases the underlying connection.
func (s *EventStream) Close() error {
	var err error
	s.closing.Do(func() {
		err = s.body.Close()
	})
	return err
}

type sseFrame struct {
	id   string
	name string
	data string
}

// readFrame reads one event block per the text/event-stream format. Comment
// lines and blocks without data are skipped.
func (s *EventStream) readFrame() (sseFrame, error) {
	var frame sseFrame
	var data []string
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return sseFrame{}, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if len(data) == 0 {
				frame = sseFrame{}
				continue
			}
			frame.data = strings.Join(data, "\n")
			if frame.name == "" {
				frame.name = "message"
			}
			return frame, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			frame.name = value
		case "data":
			data = append(data, value)
		case "id":
			if !strings.ContainsRune(value, 0) {
				frame.id = value
				s.lastID = value
				if s.onID != nil {
					s.onID(value)
				}
			}
		}
	}
}
