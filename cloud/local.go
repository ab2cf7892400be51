package cloud

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sm4rtm4art/go-api-template/config"
	"go.uber.org/zap"
)

// localService backs the cloud abstraction with the filesystem and
// in-process memory so the template runs without any infrastructure.
type localService struct {
	cfg    *config.CloudConfig
	logger *zap.Logger

	mu      sync.Mutex
	storage *localStorage
	cache   *localCache
	queue   *localQueue
}

func newLocalService(cfg *config.CloudConfig, logger *zap.Logger) *localService {
	return &localService{cfg: cfg, logger: logger}
}

func (s *localService) Name() string { return "local" }

func (s *localService) Storage(ctx context.Context) (ObjectStorage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storage != nil {
		return s.storage, nil
	}

	root := s.cfg.Local.StoragePath
	if root == "" {
		root = "local_storage"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local storage root %q: %w", root, err)
	}

	s.storage = &localStorage{root: root}
	s.logger.Debug("local storage initialized", zap.String("path", root))
	return s.storage, nil
}

func (s *localService) Cache(ctx context.Context) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache == nil {
		s.cache = newLocalCache()
	}
	return s.cache, nil
}

func (s *localService) Queue(ctx context.Context) (Queue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue == nil {
		s.queue = newLocalQueue(1024)
	}
	return s.queue, nil
}

func (s *localService) Close() error { return nil }

// localStorage stores objects as files under a root directory
type localStorage struct {
	root string
}

// keyPath maps an object key to a filesystem path, rejecting keys
// that would escape the root.
func (s *localStorage) keyPath(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" {
		return "", fmt.Errorf("local storage: empty key")
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

func (s *localStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	p, err := s.keyPath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("local storage mkdir for %q: %w", key, err)
	}

	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("local storage create %q: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return fmt.Errorf("local storage write %q: %w", key, err)
	}
	return nil
}

func (s *localStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("local storage open %q: %w", key, err)
	}
	return f, nil
}

func (s *localStorage) Delete(ctx context.Context, key string) error {
	p, err := s.keyPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		return fmt.Errorf("local storage delete %q: %w", key, err)
	}
	return nil
}

func (s *localStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("local storage list %q: %w", prefix, err)
	}

	return keys, nil
}

// localCache is an in-memory key-value store with lazy TTL expiry
type localCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value   string
	expires time.Time // zero means no expiry
}

func newLocalCache() *localCache {
	return &localCache{entries: make(map[string]cacheEntry)}
}

func (c *localCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", ErrCacheMiss
	}
	if !entry.expires.IsZero() && time.Now().After(entry.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", ErrCacheMiss
	}
	return entry.value, nil
}

func (c *localCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expires = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *localCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *localCache) Ping(ctx context.Context) error { return nil }

// localQueue is an in-memory bounded queue
type localQueue struct {
	ch chan Message
}

func newLocalQueue(capacity int) *localQueue {
	return &localQueue{ch: make(chan Message, capacity)}
}

func (q *localQueue) Publish(ctx context.Context, body []byte) error {
	msg := Message{ID: uuid.New().String(), Body: body}
	select {
	case q.ch <- msg:
		return nil
	default:
		return fmt.Errorf("local queue: full")
	}
}

func (q *localQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	if max <= 0 {
		return nil, nil
	}

	var msgs []Message

	// Block for the first message up to the wait deadline
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case msg := <-q.ch:
		msgs = append(msgs, msg)
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Drain whatever else is immediately available
	for len(msgs) < max {
		select {
		case msg := <-q.ch:
			msgs = append(msgs, msg)
		default:
			return msgs, nil
		}
	}
	return msgs, nil
}

func (q *localQueue) Ack(ctx context.Context, msg Message) error { return nil }
