package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/sm4rtm4art/go-api-template/config"
	"go.uber.org/zap"
)

// azureService provides Blob storage, Azure Cache for Redis, and
// Service Bus queueing. All clients are built from the configured
// connection string.
type azureService struct {
	cfg    *config.CloudConfig
	logger *zap.Logger

	mu      sync.Mutex
	storage *azureBlobStorage
	cache   *redisCache
	queue   *serviceBusQueue
}

func newAzureService(cfg *config.CloudConfig, logger *zap.Logger) *azureService {
	return &azureService{cfg: cfg, logger: logger}
}

func (s *azureService) Name() string { return "azure" }

func (s *azureService) Storage(ctx context.Context) (ObjectStorage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storage != nil {
		return s.storage, nil
	}

	sc := s.cfg.StorageConfig()
	if s.cfg.Azure.ConnectionString == "" || sc.Container == "" {
		return nil, fmt.Errorf("%w: azure connection string and container", ErrNotConfigured)
	}

	client, err := azblob.NewClientFromConnectionString(s.cfg.Azure.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("azure blob client: %w", err)
	}

	s.storage = &azureBlobStorage{client: client, container: sc.Container}
	s.logger.Debug("azure blob client created", zap.String("container", sc.Container))
	return s.storage, nil
}

func (s *azureService) Cache(ctx context.Context) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		return s.cache, nil
	}

	cc := s.cfg.CacheConfig()
	if cc.Type != "cache" || cc.Endpoint == "" {
		return nil, fmt.Errorf("%w: azure cache address", ErrNotConfigured)
	}

	s.cache = newRedisCache(cc.Endpoint, cc.Password, cc.DB)
	s.logger.Debug("azure cache client created", zap.String("address", cc.Endpoint))
	return s.cache, nil
}

func (s *azureService) Queue(ctx context.Context) (Queue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue != nil {
		return s.queue, nil
	}

	qc := s.cfg.QueueConfig()
	if s.cfg.Azure.ConnectionString == "" || qc.Queue == "" {
		return nil, fmt.Errorf("%w: azure connection string and service bus queue", ErrNotConfigured)
	}

	client, err := azservicebus.NewClientFromConnectionString(s.cfg.Azure.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("service bus client: %w", err)
	}

	s.queue = &serviceBusQueue{client: client, queue: qc.Queue}
	s.logger.Debug("service bus client created", zap.String("queue", qc.Queue))
	return s.queue, nil
}

func (s *azureService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	if s.queue != nil {
		errs = append(errs, s.queue.close())
	}
	return errors.Join(errs...)
}

// azureBlobStorage adapts an Azure Blob client to the ObjectStorage interface
type azureBlobStorage struct {
	client    *azblob.Client
	container string
}

func (s *azureBlobStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	opts := &azblob.UploadStreamOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}

	if _, err := s.client.UploadStream(ctx, s.container, key, body, opts); err != nil {
		return fmt.Errorf("azure blob upload %q: %w", key, err)
	}
	return nil
}

func (s *azureBlobStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		return nil, fmt.Errorf("azure blob download %q: %w", key, err)
	}
	return resp.Body, nil
}

func (s *azureBlobStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteBlob(ctx, s.container, key, nil); err != nil {
		return fmt.Errorf("azure blob delete %q: %w", key, err)
	}
	return nil
}

func (s *azureBlobStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure blob list %q: %w", prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}

	return keys, nil
}

// serviceBusQueue adapts a Service Bus client to the Queue interface
type serviceBusQueue struct {
	client *azservicebus.Client
	queue  string

	mu       sync.Mutex
	sender   *azservicebus.Sender
	receiver *azservicebus.Receiver
}

func (q *serviceBusQueue) getSender() (*azservicebus.Sender, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.sender == nil {
		sender, err := q.client.NewSender(q.queue, nil)
		if err != nil {
			return nil, fmt.Errorf("service bus sender: %w", err)
		}
		q.sender = sender
	}
	return q.sender, nil
}

func (q *serviceBusQueue) getReceiver() (*azservicebus.Receiver, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.receiver == nil {
		receiver, err := q.client.NewReceiverForQueue(q.queue, nil)
		if err != nil {
			return nil, fmt.Errorf("service bus receiver: %w", err)
		}
		q.receiver = receiver
	}
	return q.receiver, nil
}

func (q *serviceBusQueue) Publish(ctx context.Context, body []byte) error {
	sender, err := q.getSender()
	if err != nil {
		return err
	}

	if err := sender.SendMessage(ctx, &azservicebus.Message{Body: body}, nil); err != nil {
		return fmt.Errorf("service bus send: %w", err)
	}
	return nil
}

func (q *serviceBusQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	receiver, err := q.getReceiver()
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	received, err := receiver.ReceiveMessages(cctx, max, nil)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("service bus receive: %w", err)
	}

	msgs := make([]Message, 0, len(received))
	for _, m := range received {
		msgs = append(msgs, Message{ID: m.MessageID, Body: m.Body, raw: m})
	}
	return msgs, nil
}

func (q *serviceBusQueue) Ack(ctx context.Context, msg Message) error {
	m, ok := msg.raw.(*azservicebus.ReceivedMessage)
	if !ok {
		return fmt.Errorf("service bus ack: not a service bus message")
	}

	receiver, err := q.getReceiver()
	if err != nil {
		return err
	}

	if err := receiver.CompleteMessage(ctx, m, nil); err != nil {
		return fmt.Errorf("service bus ack: %w", err)
	}
	return nil
}

func (q *serviceBusQueue) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.sender != nil {
		_ = q.sender.Close(ctx)
	}
	if q.receiver != nil {
		_ = q.receiver.Close(ctx)
	}
	return q.client.Close(ctx)
}
