package cloud

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/sm4rtm4art/go-api-template/config"
	"go.uber.org/zap"
)

// awsService provides S3 storage, ElastiCache caching (redis protocol),
// and SQS queueing.
type awsService struct {
	cfg    *config.CloudConfig
	logger *zap.Logger

	mu      sync.Mutex
	sdkCfg  *aws.Config
	storage ObjectStorage
	cache   *redisCache
	queue   Queue
}

func newAWSService(cfg *config.CloudConfig, logger *zap.Logger) *awsService {
	return &awsService{cfg: cfg, logger: logger}
}

func (s *awsService) Name() string { return "aws" }

// loadSDKConfig resolves the shared AWS SDK config once. Caller holds s.mu.
func (s *awsService) loadSDKConfig(ctx context.Context) (aws.Config, error) {
	if s.sdkCfg != nil {
		return *s.sdkCfg, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s.cfg.Region),
	}
	if s.cfg.AWS.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(s.cfg.AWS.Profile))
	}

	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}

	s.sdkCfg = &sdkCfg
	return sdkCfg, nil
}

func (s *awsService) Storage(ctx context.Context) (ObjectStorage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.storage != nil {
		return s.storage, nil
	}

	sc := s.cfg.StorageConfig()
	if sc.Type != "s3" || sc.Bucket == "" {
		return nil, fmt.Errorf("%w: aws s3 bucket", ErrNotConfigured)
	}

	sdkCfg, err := s.loadSDKConfig(ctx)
	if err != nil {
		return nil, err
	}

	s.storage = &s3Storage{
		client: s3.NewFromConfig(sdkCfg),
		bucket: sc.Bucket,
	}
	s.logger.Debug("s3 storage client created", zap.String("bucket", sc.Bucket))
	return s.storage, nil
}

func (s *awsService) Cache(ctx context.Context) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		return s.cache, nil
	}

	cc := s.cfg.CacheConfig()
	if cc.Type != "elasticache" || cc.Endpoint == "" {
		return nil, fmt.Errorf("%w: aws elasticache endpoint", ErrNotConfigured)
	}

	s.cache = newRedisCache(fmt.Sprintf("%s:%d", cc.Endpoint, cc.Port), cc.Password, cc.DB)
	s.logger.Debug("elasticache client created", zap.String("endpoint", cc.Endpoint))
	return s.cache, nil
}

func (s *awsService) Queue(ctx context.Context) (Queue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue != nil {
		return s.queue, nil
	}

	qc := s.cfg.QueueConfig()
	if qc.Type != "sqs" || qc.QueueURL == "" {
		return nil, fmt.Errorf("%w: aws sqs queue url", ErrNotConfigured)
	}

	sdkCfg, err := s.loadSDKConfig(ctx)
	if err != nil {
		return nil, err
	}

	s.queue = &sqsQueue{
		client:   sqs.NewFromConfig(sdkCfg),
		queueURL: qc.QueueURL,
	}
	s.logger.Debug("sqs client created", zap.String("queue_url", qc.QueueURL))
	return s.queue, nil
}

func (s *awsService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}

// s3Storage adapts an S3 client to the ObjectStorage interface
type s3Storage struct {
	client *s3.Client
	bucket string
}

func (s *s3Storage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 put %q: %w", key, err)
	}
	return nil
}

func (s *s3Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %q: %w", key, err)
	}
	return out.Body, nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %q: %w", key, err)
	}
	return nil
}

func (s *s3Storage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	return keys, nil
}

// sqsQueue adapts an SQS client to the Queue interface
type sqsQueue struct {
	client   *sqs.Client
	queueURL string
}

func (q *sqsQueue) Publish(ctx context.Context, body []byte) error {
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("sqs send: %w", err)
	}
	return nil
}

func (q *sqsQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	if max > 10 {
		max = 10 // SQS batch limit
	}

	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: int32(max),
		WaitTimeSeconds:     int32(wait / time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("sqs receive: %w", err)
	}

	msgs := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, Message{
			ID:   aws.ToString(m.MessageId),
			Body: []byte(aws.ToString(m.Body)),
			raw:  aws.ToString(m.ReceiptHandle),
		})
	}
	return msgs, nil
}

func (q *sqsQueue) Ack(ctx context.Context, msg Message) error {
	receipt, ok := msg.raw.(string)
	if !ok || receipt == "" {
		return fmt.Errorf("sqs ack: message has no receipt handle")
	}

	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receipt),
	})
	if err != nil {
		return fmt.Errorf("sqs ack: %w", err)
	}
	return nil
}
