// Package cloud provides a provider-agnostic abstraction over object
// storage, cache, and queue services. A Service is selected from
// configuration and hands out typed clients backed by the provider's
// SDK (S3/GCS/Blob Storage, ElastiCache/Memorystore/Redis,
// SQS/Pub-Sub/Service Bus/RabbitMQ), or by filesystem and in-memory
// implementations for the local provider.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sm4rtm4art/go-api-template/config"
	"go.uber.org/zap"
)

var (
	// ErrNotConfigured is returned when the active provider has no
	// configuration for the requested capability.
	ErrNotConfigured = errors.New("cloud: service not configured")

	// ErrUnknownProvider is returned by ServiceFor for an unrecognized provider name.
	ErrUnknownProvider = errors.New("cloud: unknown provider")

	// ErrNotSupported is returned when a provider offers no backend for an operation.
	ErrNotSupported = errors.New("cloud: operation not supported by provider")

	// ErrCacheMiss is returned by Cache.Get when the key does not exist.
	ErrCacheMiss = errors.New("cloud: cache miss")
)

// ObjectStorage is the capability interface for file/blob storage
type ObjectStorage interface {
	// Upload stores an object under key. Size may be -1 when unknown.
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// Download returns a reader for the object. The caller must close it.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object
	Delete(ctx context.Context, key string) error

	// List returns the keys under the given prefix
	List(ctx context.Context, prefix string) ([]string, error)
}

// Cache is the capability interface for key-value caching
type Cache interface {
	// Get returns the value for key, or ErrCacheMiss
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value with the given TTL. Zero TTL means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes a key
	Delete(ctx context.Context, key string) error

	// Ping verifies connectivity
	Ping(ctx context.Context) error
}

// Message is a single message received from a Queue
type Message struct {
	ID   string
	Body []byte

	// raw holds the provider handle needed to acknowledge the message
	raw interface{}
}

// Queue is the capability interface for message queues
type Queue interface {
	// Publish sends a message body to the queue
	Publish(ctx context.Context, body []byte) error

	// Receive fetches up to max messages, waiting up to wait when the queue is empty
	Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error)

	// Ack acknowledges a received message. A no-op for backends without acks.
	Ack(ctx context.Context, msg Message) error
}

// Service hands out storage, cache, and queue clients for one provider.
// Implementations construct clients lazily, cache them, and are safe
// for concurrent use.
type Service interface {
	// Name returns the provider name (e.g. "aws", "local")
	Name() string

	// Storage returns the object storage client, or ErrNotConfigured
	Storage(ctx context.Context) (ObjectStorage, error)

	// Cache returns the cache client, or ErrNotConfigured
	Cache(ctx context.Context) (Cache, error)

	// Queue returns the queue client, or ErrNotConfigured
	Queue(ctx context.Context) (Queue, error)

	// Close releases any clients the service has constructed
	Close() error
}

// ServiceFor returns the Service for the configured provider.
// An empty provider selects local; an unrecognized one returns ErrUnknownProvider.
func ServiceFor(cfg *config.CloudConfig, logger *zap.Logger) (Service, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = config.ProviderLocal
	}

	switch provider {
	case config.ProviderAWS:
		return newAWSService(cfg, logger), nil
	case config.ProviderGCP:
		return newGCPService(cfg, logger), nil
	case config.ProviderAzure:
		return newAzureService(cfg, logger), nil
	case config.ProviderHetzner:
		return newHetznerService(cfg, logger), nil
	case config.ProviderCustom:
		return NewCustomService(cfg, logger), nil
	case config.ProviderLocal:
		return newLocalService(cfg, logger), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
}

// NewService returns the Service for the configured provider, falling
// back to the local provider when the configuration names an unknown one.
func NewService(cfg *config.CloudConfig, logger *zap.Logger) Service {
	svc, err := ServiceFor(cfg, logger)
	if err != nil {
		logger.Warn("falling back to local cloud service",
			zap.String("provider", string(cfg.Provider)),
			zap.Error(err))
		return newLocalService(cfg, logger)
	}
	return svc
}
