package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sm4rtm4art/go-api-template/config"
	"go.uber.org/zap"
)

// CustomOption configures a CustomService
type CustomOption func(*CustomService)

// WithStorageFactory overrides how the storage client is built
func WithStorageFactory(fn func(config.StorageConfig) (ObjectStorage, error)) CustomOption {
	return func(s *CustomService) { s.storageFactory = fn }
}

// WithCacheFactory overrides how the cache client is built
func WithCacheFactory(fn func(config.CacheConfig) (Cache, error)) CustomOption {
	return func(s *CustomService) { s.cacheFactory = fn }
}

// WithQueueFactory overrides how the queue client is built
func WithQueueFactory(fn func(config.QueueConfig) (Queue, error)) CustomOption {
	return func(s *CustomService) { s.queueFactory = fn }
}

// CustomService wires self-managed backends: an S3-compatible object
// store (MinIO by default), Redis, and RabbitMQ. Callers can replace
// any capability with their own factory function.
type CustomService struct {
	cfg    *config.CloudConfig
	logger *zap.Logger

	storageFactory func(config.StorageConfig) (ObjectStorage, error)
	cacheFactory   func(config.CacheConfig) (Cache, error)
	queueFactory   func(config.QueueConfig) (Queue, error)

	mu      sync.Mutex
	storage ObjectStorage
	cache   Cache
	queue   Queue
	closers []io.Closer
}

// NewCustomService creates the custom provider service
func NewCustomService(cfg *config.CloudConfig, logger *zap.Logger, opts ...CustomOption) *CustomService {
	s := &CustomService{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CustomService) Name() string { return "custom" }

func (s *CustomService) Storage(ctx context.Context) (ObjectStorage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storage != nil {
		return s.storage, nil
	}

	sc := s.cfg.StorageConfig()

	if s.storageFactory != nil {
		storage, err := s.storageFactory(sc)
		if err != nil {
			return nil, err
		}
		s.storage = storage
		return s.storage, nil
	}

	if sc.Endpoint == "" || sc.Bucket == "" {
		return nil, fmt.Errorf("%w: custom storage endpoint and bucket", ErrNotConfigured)
	}

	client, err := minio.New(sc.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(sc.AccessKey, sc.SecretKey, ""),
		Secure: sc.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	s.storage = &minioStorage{client: client, bucket: sc.Bucket}
	s.logger.Debug("minio storage client created",
		zap.String("endpoint", sc.Endpoint),
		zap.String("bucket", sc.Bucket))
	return s.storage, nil
}

func (s *CustomService) Cache(ctx context.Context) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		return s.cache, nil
	}

	cc := s.cfg.CacheConfig()

	if s.cacheFactory != nil {
		cache, err := s.cacheFactory(cc)
		if err != nil {
			return nil, err
		}
		s.cache = cache
		return s.cache, nil
	}

	if cc.Endpoint == "" {
		return nil, fmt.Errorf("%w: custom redis host", ErrNotConfigured)
	}

	cache := newRedisCache(fmt.Sprintf("%s:%d", cc.Endpoint, cc.Port), cc.Password, cc.DB)
	s.cache = cache
	s.closers = append(s.closers, cache)
	s.logger.Debug("redis cache client created", zap.String("host", cc.Endpoint))
	return s.cache, nil
}

func (s *CustomService) Queue(ctx context.Context) (Queue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue != nil {
		return s.queue, nil
	}

	qc := s.cfg.QueueConfig()

	if s.queueFactory != nil {
		queue, err := s.queueFactory(qc)
		if err != nil {
			return nil, err
		}
		s.queue = queue
		return s.queue, nil
	}

	if qc.Host == "" {
		return nil, fmt.Errorf("%w: custom rabbitmq host", ErrNotConfigured)
	}

	queue, err := dialAMQPQueue(qc)
	if err != nil {
		return nil, err
	}

	s.queue = queue
	s.closers = append(s.closers, queue)
	s.logger.Debug("rabbitmq channel created",
		zap.String("host", qc.Host),
		zap.String("queue", qc.Queue))
	return s.queue, nil
}

func (s *CustomService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// minioStorage adapts a MinIO client to the ObjectStorage interface
type minioStorage struct {
	client *minio.Client
	bucket string
}

func (s *minioStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("minio put %q: %w", key, err)
	}
	return nil
}

func (s *minioStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get %q: %w", key, err)
	}
	return obj, nil
}

func (s *minioStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio delete %q: %w", key, err)
	}
	return nil
}

func (s *minioStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("minio list %q: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}

	return keys, nil
}
