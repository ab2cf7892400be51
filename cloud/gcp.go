package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/sm4rtm4art/go-api-template/config"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// gcpService provides GCS storage, Memorystore caching (redis
// protocol), and Pub/Sub queueing.
type gcpService struct {
	cfg    *config.CloudConfig
	logger *zap.Logger

	mu      sync.Mutex
	storage *gcsStorage
	cache   *redisCache
	queue   *pubsubQueue
}

func newGCPService(cfg *config.CloudConfig, logger *zap.Logger) *gcpService {
	return &gcpService{cfg: cfg, logger: logger}
}

func (s *gcpService) Name() string { return "gcp" }

func (s *gcpService) clientOptions() []option.ClientOption {
	if s.cfg.GCP.CredentialsPath != "" {
		return []option.ClientOption{option.WithCredentialsFile(s.cfg.GCP.CredentialsPath)}
	}
	return nil
}

func (s *gcpService) Storage(ctx context.Context) (ObjectStorage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storage != nil {
		return s.storage, nil
	}

	sc := s.cfg.StorageConfig()
	if sc.Type != "gcs" || sc.Bucket == "" {
		return nil, fmt.Errorf("%w: gcp storage bucket", ErrNotConfigured)
	}

	client, err := storage.NewClient(ctx, s.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}

	s.storage = &gcsStorage{client: client, bucket: sc.Bucket}
	s.logger.Debug("gcs storage client created", zap.String("bucket", sc.Bucket))
	return s.storage, nil
}

func (s *gcpService) Cache(ctx context.Context) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		return s.cache, nil
	}

	cc := s.cfg.CacheConfig()
	if cc.Type != "memorystore" || cc.Endpoint == "" {
		return nil, fmt.Errorf("%w: gcp memorystore instance", ErrNotConfigured)
	}

	s.cache = newRedisCache(fmt.Sprintf("%s:%d", cc.Endpoint, cc.Port), cc.Password, cc.DB)
	s.logger.Debug("memorystore client created", zap.String("instance", cc.Endpoint))
	return s.cache, nil
}

func (s *gcpService) Queue(ctx context.Context) (Queue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue != nil {
		return s.queue, nil
	}

	qc := s.cfg.QueueConfig()
	if qc.Type != "pubsub" || qc.Topic == "" || qc.ProjectID == "" {
		return nil, fmt.Errorf("%w: gcp pubsub topic and project id", ErrNotConfigured)
	}

	client, err := pubsub.NewClient(ctx, qc.ProjectID, s.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}

	s.queue = &pubsubQueue{
		client:       client,
		topic:        client.Topic(qc.Topic),
		subscription: qc.Subscription,
	}
	s.logger.Debug("pubsub client created",
		zap.String("topic", qc.Topic),
		zap.String("subscription", qc.Subscription))
	return s.queue, nil
}

func (s *gcpService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.storage != nil {
		errs = append(errs, s.storage.client.Close())
	}
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	if s.queue != nil {
		s.queue.topic.Stop()
		errs = append(errs, s.queue.client.Close())
	}
	return errors.Join(errs...)
}

// gcsStorage adapts a GCS client to the ObjectStorage interface
type gcsStorage struct {
	client *storage.Client
	bucket string
}

func (s *gcsStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs write %q: %w", key, err)
	}
	return nil
}

func (s *gcsStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs read %q: %w", key, err)
	}
	return r, nil
}

func (s *gcsStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("gcs delete %q: %w", key, err)
	}
	return nil
}

func (s *gcsStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs list %q: %w", prefix, err)
		}
		keys = append(keys, attrs.Name)
	}

	return keys, nil
}

// pubsubQueue adapts a Pub/Sub client to the Queue interface
type pubsubQueue struct {
	client       *pubsub.Client
	topic        *pubsub.Topic
	subscription string
}

func (q *pubsubQueue) Publish(ctx context.Context, body []byte) error {
	result := q.topic.Publish(ctx, &pubsub.Message{Data: body})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("pubsub publish: %w", err)
	}
	return nil
}

func (q *pubsubQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	if q.subscription == "" {
		return nil, fmt.Errorf("%w: gcp pubsub subscription", ErrNotConfigured)
	}

	cctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	var (
		mu   sync.Mutex
		msgs []Message
	)

	sub := q.client.Subscription(q.subscription)
	err := sub.Receive(cctx, func(_ context.Context, m *pubsub.Message) {
		mu.Lock()
		defer mu.Unlock()

		if len(msgs) >= max {
			m.Nack()
			cancel()
			return
		}
		msgs = append(msgs, Message{ID: m.ID, Body: m.Data, raw: m})
		if len(msgs) == max {
			cancel()
		}
	})
	// Receive returns nil on context cancellation; anything else is a real error
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("pubsub receive: %w", err)
	}

	return msgs, nil
}

func (q *pubsubQueue) Ack(ctx context.Context, msg Message) error {
	m, ok := msg.raw.(*pubsub.Message)
	if !ok {
		return fmt.Errorf("pubsub ack: not a pubsub message")
	}
	m.Ack()
	return nil
}
