package cloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/sm4rtm4art/go-api-template/config"
	"go.uber.org/zap"
)

// hetznerService provides Storage Box access over authenticated HTTPS.
// Hetzner offers no managed cache or queue service; the cache and
// queue clients connect to self-hosted Redis and RabbitMQ instances
// on Hetzner Cloud when configured.
type hetznerService struct {
	cfg    *config.CloudConfig
	logger *zap.Logger

	mu      sync.Mutex
	storage *hetznerStorage
	cache   *redisCache
	queue   *amqpQueue
}

func newHetznerService(cfg *config.CloudConfig, logger *zap.Logger) *hetznerService {
	return &hetznerService{cfg: cfg, logger: logger}
}

func (s *hetznerService) Name() string { return "hetzner" }

func (s *hetznerService) Storage(ctx context.Context) (ObjectStorage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storage != nil {
		return s.storage, nil
	}

	if s.cfg.Hetzner.APIToken == "" || s.cfg.Hetzner.StorageSubdomain == "" {
		return nil, fmt.Errorf("%w: hetzner api token and storage subdomain", ErrNotConfigured)
	}

	client := resty.New().
		SetBaseURL(fmt.Sprintf("https://%s.your-storagebox.de", s.cfg.Hetzner.StorageSubdomain)).
		SetAuthToken(s.cfg.Hetzner.APIToken).
		SetHeader("Content-Type", "application/json")

	s.storage = &hetznerStorage{client: client}
	s.logger.Debug("hetzner storage box client created",
		zap.String("subdomain", s.cfg.Hetzner.StorageSubdomain),
		zap.String("datacenter", s.cfg.Hetzner.Datacenter))
	return s.storage, nil
}

func (s *hetznerService) Cache(ctx context.Context) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		return s.cache, nil
	}

	cc := s.cfg.CacheConfig()
	if cc.Endpoint == "" {
		return nil, fmt.Errorf("%w: hetzner self-hosted redis host", ErrNotConfigured)
	}

	s.cache = newRedisCache(fmt.Sprintf("%s:%d", cc.Endpoint, cc.Port), cc.Password, cc.DB)
	s.logger.Debug("hetzner redis client created", zap.String("host", cc.Endpoint))
	return s.cache, nil
}

func (s *hetznerService) Queue(ctx context.Context) (Queue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue != nil {
		return s.queue, nil
	}

	qc := s.cfg.QueueConfig()
	if qc.Host == "" {
		return nil, fmt.Errorf("%w: hetzner self-hosted rabbitmq host", ErrNotConfigured)
	}

	queue, err := dialAMQPQueue(qc)
	if err != nil {
		return nil, err
	}

	s.queue = queue
	s.logger.Debug("hetzner rabbitmq channel created",
		zap.String("host", qc.Host),
		zap.String("queue", qc.Queue))
	return s.queue, nil
}

func (s *hetznerService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	if s.queue != nil {
		errs = append(errs, s.queue.Close())
	}
	return errors.Join(errs...)
}

// hetznerStorage adapts the Storage Box HTTPS interface to the
// ObjectStorage interface. Objects map to paths under the box root.
type hetznerStorage struct {
	client *resty.Client
}

func (s *hetznerStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	// resty buffers io.Reader bodies; read once so retries are safe
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("hetzner upload %q: %w", key, err)
	}

	req := s.client.R().SetContext(ctx).SetBody(data)
	if contentType != "" {
		req.SetHeader("Content-Type", contentType)
	}

	resp, err := req.Put("/" + key)
	if err != nil {
		return fmt.Errorf("hetzner upload %q: %w", key, err)
	}
	if resp.IsError() {
		return fmt.Errorf("hetzner upload %q: status %s", key, resp.Status())
	}
	return nil
}

func (s *hetznerStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.R().SetContext(ctx).Get("/" + key)
	if err != nil {
		return nil, fmt.Errorf("hetzner download %q: %w", key, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("hetzner download %q: status %s", key, resp.Status())
	}
	return io.NopCloser(bytes.NewReader(resp.Body())), nil
}

func (s *hetznerStorage) Delete(ctx context.Context, key string) error {
	resp, err := s.client.R().SetContext(ctx).Delete("/" + key)
	if err != nil {
		return fmt.Errorf("hetzner delete %q: %w", key, err)
	}
	if resp.IsError() {
		return fmt.Errorf("hetzner delete %q: status %s", key, resp.Status())
	}
	return nil
}

// List is not available over the Storage Box HTTPS interface
func (s *hetznerStorage) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, fmt.Errorf("%w: hetzner storage box listing", ErrNotSupported)
}
