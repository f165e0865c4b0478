package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"pkt.systems/pslog"

	"pkt.systems/jmap/internal/loggingutil"
)

// ErrEmptyToken is returned when a token source has nothing to offer.
var ErrEmptyToken = errors.New("jmap: empty bearer token")

// TokenSource supplies bearer tokens. Token is called once per HTTP request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) {
	token := strings.TrimSpace(string(t))
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// FileTokenSource reads a bearer token from a file and reloads it whenever
// the file is written, replaced or renamed into place.
type FileTokenSource struct {
	path    string
	logger  pslog.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}
	closing sync.Once

	mu    sync.RWMutex
	token string
}

// NewFileTokenSource loads path and starts watching it. Call Close to stop
// watching.
func NewFileTokenSource(path string, logger pslog.Logger) (*FileTokenSource, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("jmap: token file path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("jmap: token file: %w", err)
	}
	s := &FileTokenSource{
		path:   abs,
		logger: loggingutil.WithSubsystem(logger, "client.token"),
		done:   make(chan struct{}),
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("jmap: token file watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are seen too.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("jmap: watch %s: %w", filepath.Dir(abs), err)
	}
	s.watcher = watcher
	go s.watch()
	return s, nil
}

// Token implements TokenSource.
func (s *FileTokenSource) Token(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// Close stops watching the file.
func (s *FileTokenSource) Close() error {
	var err error
	s.closing.Do(func() {
		close(s.done)
		err = s.watcher.Close()
	})
	return err
}

// reload reads the file. A failed read keeps the previous token.
func (s *FileTokenSource) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("jmap: read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *FileTokenSource) watch() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := s.reload(); err != nil {
				s.logger.Warn("client.token.reload.error", "path", s.path, "error", err)
				continue
			}
			s.logger.Debug("client.token.reload.success", "path", s.path)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("client.token.watch.error", "path", s.path, "error", err)
		}
	}
}
