package client_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pkt.systems/jmap/client"
	"pkt.systems/jmap/methods"
)

func TestStaticToken(t *testing.T) {
	if _, err := client.StaticToken("  ").Token(context.Background()); !errors.Is(err, client.ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
	token, err := client.StaticToken(" abc\n").Token(context.Background())
	if err != nil || token != "abc" {
		t.Fatalf("unexpected token %q (%v)", token, err)
	}
}

func TestFileTokenSourceReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("first\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	src, err := client.NewFileTokenSource(path, nil)
	if err != nil {
		t.Fatalf("new token source: %v", err)
	}
	defer src.Close()
	if token, _ := src.Token(context.Background()); token != "first" {
		t.Fatalf("unexpected initial token %q", token)
	}

	// Replace the file the way editors and secret managers do.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte("second"), 0o600); err != nil {
		t.Fatalf("write tmp: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		token, _ := src.Token(context.Background())
		if token == "second" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("token not reloaded, still %q", token)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if token, _ := src.Token(context.Background()); token != "second" {
		t.Fatalf("an empty file must keep the previous token, got %q", token)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestFileTokenSourceMissingFile(t *testing.T) {
	if _, err := client.NewFileTokenSource(filepath.Join(t.TempDir(), "absent"), nil); err == nil {
		t.Fatalf("expected error for missing token file")
	}
}

func TestTokenSourceAuthenticatesRequests(t *testing.T) {
	srv := newJMAPServer(t)
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("from-file"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	src, err := client.NewFileTokenSource(path, nil)
	if err != nil {
		t.Fatalf("new token source: %v", err)
	}
	defer src.Close()
	cli, err := client.New(srv.URL(), client.WithTokenSource(src), client.WithBasicAuth("ignored", "ignored"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := cli.Submit(context.Background(), methods.CoreEcho{}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := srv.lastHeaders().Get("Authorization"); got != "Bearer from-file" {
		t.Fatalf("token source must take precedence over basic auth, got %q", got)
	}
}
