package client_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// wireRequest is the decoded body of a posted JMAP request.
type wireRequest struct {
	Using       []string            `json:"using"`
	MethodCalls [][]json.RawMessage `json:"methodCalls"`
}

func (r wireRequest) call(t *testing.T, i int) (string, map[string]any, string) {
	t.Helper()
	if i >= len(r.MethodCalls) || len(r.MethodCalls[i]) != 3 {
		t.Fatalf("method call %d missing or malformed: %v", i, r.MethodCalls)
	}
	var name, id string
	var args map[string]any
	if err := json.Unmarshal(r.MethodCalls[i][0], &name); err != nil {
		t.Fatalf("call name: %v", err)
	}
	if err := json.Unmarshal(r.MethodCalls[i][1], &args); err != nil {
		t.Fatalf("call args: %v", err)
	}
	if err := json.Unmarshal(r.MethodCalls[i][2], &id); err != nil {
		t.Fatalf("call id: %v", err)
	}
	return name, args, id
}

// jmapServer fakes the session and API endpoints.
type jmapServer struct {
	t   *testing.T
	srv *httptest.Server

	sessionFetches atomic.Int64
	posts          atomic.Int64

	mu              sync.Mutex
	sessionState    string
	primaryAccounts map[string]string
	requests        []wireRequest
	headers         []http.Header
	// respond builds the methodResponses for a request. Nil echoes every
	// call back as its own response.
	respond func(req wireRequest) (responses []any, sessionState string)
	// apiStatus, when non-zero, replaces the API response with an error.
	apiStatus int
	apiBody   string
	// events is written verbatim on the event source endpoint.
	events    string
	eventPath string
}

func newJMAPServer(t *testing.T) *jmapServer {
	t.Helper()
	s := &jmapServer{
		t:               t,
		sessionState:    "s1",
		primaryAccounts: map[string]string{"urn:ietf:params:jmap:mail": "u1138"},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/jmap", s.handleSession)
	mux.HandleFunc("POST /api", s.handleAPI)
	mux.HandleFunc("GET /events/{types}/{closeafter}/{ping}", s.handleEvents)
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *jmapServer) URL() string { return s.srv.URL }

func (s *jmapServer) setSessionState(state string) {
	s.mu.Lock()
	s.sessionState = state
	s.mu.Unlock()
}

func (s *jmapServer) lastRequest() wireRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		s.t.Fatalf("no request recorded")
	}
	return s.requests[len(s.requests)-1]
}

func (s *jmapServer) lastHeaders() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.headers) == 0 {
		s.t.Fatalf("no request recorded")
	}
	return s.headers[len(s.headers)-1]
}

func (s *jmapServer) handleSession(w http.ResponseWriter, r *http.Request) {
	s.sessionFetches.Add(1)
	s.mu.Lock()
	body := map[string]any{
		"capabilities": map[string]any{
			"urn:ietf:params:jmap:core": map[string]any{"maxCallsInRequest": 16, "maxSizeUpload": 50000000},
			"urn:ietf:params:jmap:mail": map[string]any{},
		},
		"accounts":        map[string]any{"u1138": map[string]any{"name": "ness@onett.example.net", "isPersonal": true}},
		"primaryAccounts": s.primaryAccounts,
		"username":        "ness@onett.example.net",
		"apiUrl":          "/api",
		"downloadUrl":     "/download/{accountId}/{blobId}/{name}?type={type}",
		"uploadUrl":       "/upload/{accountId}/",
		"eventSourceUrl":  "/events/{types}/{closeafter}/{ping}",
		"state":           s.sessionState,
	}
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (s *jmapServer) handleAPI(w http.ResponseWriter, r *http.Request) {
	s.posts.Add(1)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req wireRequest
	if err := json.Unmarshal(data, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.headers = append(s.headers, r.Header.Clone())
	status, errBody := s.apiStatus, s.apiBody
	respond := s.respond
	state := s.sessionState
	s.mu.Unlock()
	if status != 0 {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, errBody)
		return
	}
	var responses []any
	if respond != nil {
		var override string
		responses, override = respond(req)
		if override != "" {
			state = override
		}
	} else {
		for _, call := range req.MethodCalls {
			responses = append(responses, []json.RawMessage{call[0], call[1], call[2]})
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"methodResponses": responses, "sessionState": state})
}

func (s *jmapServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.headers = append(s.headers, r.Header.Clone())
	s.eventPath = r.URL.Path
	events := s.events
	s.mu.Unlock()
	w.Header().Set("Content-Type", "text/event-stream")
	_, _ = io.WriteString(w, events)
}
