package session_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pkt.systems/pslog"

	"pkt.systems/jmap/api"
	"pkt.systems/jmap/session"
)

func descriptor(state string) *api.Session {
	return &api.Session{
		Capabilities: map[string]json.RawMessage{
			api.URNCore: json.RawMessage(`{}`),
			api.URNMail: json.RawMessage(`{}`),
		},
		PrimaryAccounts: map[string]string{api.URNMail: "u1138"},
		Username:        "ness@onett.example.net",
		APIURL:          "https://jmap-api.localhost/api",
		State:           state,
	}
}

func TestCacheReturnsSameSnapshot(t *testing.T) {
	var calls atomic.Int64
	cache := session.NewCache(func(context.Context) (*api.Session, error) {
		calls.Add(1)
		return descriptor("s1"), nil
	})
	first, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same snapshot until invalidation")
	}
	if calls.Load() != 1 || cache.Fetches() != 1 {
		t.Fatalf("expected one fetch, got %d", calls.Load())
	}
}

func TestObserveTriggersExactlyOneRefetch(t *testing.T) {
	states := []string{"s1", "s2"}
	var calls atomic.Int64
	cache := session.NewCache(func(context.Context) (*api.Session, error) {
		n := calls.Add(1)
		return descriptor(states[min(int(n)-1, len(states)-1)]), nil
	})
	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("get: %v", err)
	}
	if cache.Observe("s1") {
		t.Fatalf("matching state must not invalidate")
	}
	if cache.Observe("") {
		t.Fatalf("empty state must not invalidate")
	}
	if !cache.Observe("s2") {
		t.Fatalf("differing state must invalidate")
	}
	if cache.Peek() != nil {
		t.Fatalf("expected empty cache after invalidation")
	}
	for range 3 {
		sess, err := cache.Get(context.Background())
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if sess.State != "s2" {
			t.Fatalf("unexpected state %q", sess.State)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected exactly one refetch, got %d fetches", calls.Load())
	}
}

func TestConcurrentGetSharesFetch(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int64
	cache := session.NewCache(func(context.Context) (*api.Session, error) {
		calls.Add(1)
		<-release
		return descriptor("s1"), nil
	})
	var wg sync.WaitGroup
	results := make([]*api.Session, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := cache.Get(context.Background())
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			results[i] = sess
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	for _, sess := range results {
		if sess == nil || sess != results[0] {
			t.Fatalf("expected every reader to see the same snapshot")
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one fetch, got %d", calls.Load())
	}
}

func TestFetchErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	cache := session.NewCache(func(context.Context) (*api.Session, error) { return nil, boom })
	if _, err := cache.Get(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if cache.Peek() != nil {
		t.Fatalf("failed fetch must leave the cache empty")
	}
}

func TestInvalidate(t *testing.T) {
	cache := session.NewCache(func(context.Context) (*api.Session, error) { return descriptor("s1"), nil })
	first, _ := cache.Get(context.Background())
	cache.Invalidate()
	second, _ := cache.Get(context.Background())
	if first == second {
		t.Fatalf("expected a new snapshot after Invalidate")
	}
	cache.Store(descriptor("manual"))
	if cache.Peek().State != "manual" {
		t.Fatalf("Store must replace the snapshot")
	}
}

func TestMissingCapabilities(t *testing.T) {
	sess := descriptor("s1")
	got := session.Missing([]string{api.URNMaskedEmail, api.URNMail, api.URNSubmission, api.URNSubmission}, sess)
	if want := []string{api.URNMaskedEmail, api.URNSubmission}; !reflect.DeepEqual(got, want) {
		t.Fatalf("missing = %v, want %v", got, want)
	}
	if got := session.Missing([]string{api.URNCore}, sess); got != nil {
		t.Fatalf("expected nothing missing, got %v", got)
	}
}

func TestCheckCapabilitiesLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := pslog.NewStructured(&buf)
	missing := session.CheckCapabilities(logger, []string{api.URNSubmission}, descriptor("s1"))
	if len(missing) != 1 {
		t.Fatalf("expected one missing capability, got %v", missing)
	}
	if !strings.Contains(buf.String(), "session.capabilities.unsupported") {
		t.Fatalf("expected warning, got %q", buf.String())
	}
}
