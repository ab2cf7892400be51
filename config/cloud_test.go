package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloudConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		provider CloudProvider
		wantErr  bool
	}{
		{"empty defaults to local", "", false},
		{"aws", ProviderAWS, false},
		{"gcp", ProviderGCP, false},
		{"azure", ProviderAzure, false},
		{"hetzner", ProviderHetzner, false},
		{"custom", ProviderCustom, false},
		{"local", ProviderLocal, false},
		{"unknown", "openstack", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &CloudConfig{Provider: tt.provider}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCloudConfigIsCloud(t *testing.T) {
	assert.True(t, (&CloudConfig{Provider: ProviderAWS}).IsCloud())
	assert.True(t, (&CloudConfig{Provider: ProviderHetzner}).IsCloud())
	assert.False(t, (&CloudConfig{Provider: ProviderCustom}).IsCloud())
	assert.False(t, (&CloudConfig{Provider: ProviderLocal}).IsCloud())
	assert.False(t, (&CloudConfig{Provider: ""}).IsCloud())
}

func TestStorageConfigResolution(t *testing.T) {
	t.Run("aws", func(t *testing.T) {
		cfg := &CloudConfig{
			Provider: ProviderAWS,
			Region:   "eu-central-1",
			AWS:      AWSSettings{Bucket: "uploads"},
		}
		sc := cfg.StorageConfig()
		assert.Equal(t, "s3", sc.Type)
		assert.Equal(t, "uploads", sc.Bucket)
		assert.Equal(t, "eu-central-1", sc.Region)
	})

	t.Run("gcp", func(t *testing.T) {
		cfg := &CloudConfig{
			Provider:  ProviderGCP,
			ProjectID: "proj-1",
			GCP:       GCPSettings{Bucket: "uploads"},
		}
		sc := cfg.StorageConfig()
		assert.Equal(t, "gcs", sc.Type)
		assert.Equal(t, "proj-1", sc.ProjectID)
	})

	t.Run("azure", func(t *testing.T) {
		cfg := &CloudConfig{
			Provider: ProviderAzure,
			Azure:    AzureSettings{Container: "uploads", AccountName: "acct"},
		}
		sc := cfg.StorageConfig()
		assert.Equal(t, "azure", sc.Type)
		assert.Equal(t, "uploads", sc.Container)
		assert.Equal(t, "acct", sc.AccountName)
	})

	t.Run("custom", func(t *testing.T) {
		cfg := &CloudConfig{
			Provider: ProviderCustom,
			Custom: CustomSettings{
				StorageEndpoint: "minio:9000",
				StorageBucket:   "uploads",
				StorageSecure:   true,
			},
		}
		sc := cfg.StorageConfig()
		assert.Equal(t, "minio", sc.Type)
		assert.Equal(t, "minio:9000", sc.Endpoint)
		assert.True(t, sc.Secure)
	})

	t.Run("local fallback", func(t *testing.T) {
		cfg := &CloudConfig{Provider: ProviderLocal, Local: LocalSettings{StoragePath: "/tmp/objects"}}
		sc := cfg.StorageConfig()
		assert.Equal(t, "local", sc.Type)
		assert.Equal(t, "/tmp/objects", sc.Path)
	})
}

func TestCacheConfigResolution(t *testing.T) {
	t.Run("aws elasticache", func(t *testing.T) {
		cfg := &CloudConfig{
			Provider: ProviderAWS,
			AWS:      AWSSettings{ElastiCacheEndpoint: "cache.internal", ElastiCachePort: 6380},
		}
		cc := cfg.CacheConfig()
		assert.Equal(t, "elasticache", cc.Type)
		assert.Equal(t, "cache.internal", cc.Endpoint)
		assert.Equal(t, 6380, cc.Port)
	})

	t.Run("hetzner self-hosted redis", func(t *testing.T) {
		cfg := &CloudConfig{
			Provider: ProviderHetzner,
			Hetzner:  HetznerSettings{CacheHost: "redis.internal", CachePort: 6379, CachePassword: "pw"},
		}
		cc := cfg.CacheConfig()
		assert.Equal(t, "redis", cc.Type)
		assert.Equal(t, "pw", cc.Password)
	})

	t.Run("local", func(t *testing.T) {
		cc := (&CloudConfig{Provider: ProviderLocal}).CacheConfig()
		assert.Equal(t, "local", cc.Type)
	})
}

func TestQueueConfigResolution(t *testing.T) {
	t.Run("aws sqs", func(t *testing.T) {
		cfg := &CloudConfig{
			Provider: ProviderAWS,
			Region:   "us-east-1",
			AWS:      AWSSettings{QueueURL: "https://sqs.us-east-1.amazonaws.com/1/q"},
		}
		qc := cfg.QueueConfig()
		assert.Equal(t, "sqs", qc.Type)
		assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/1/q", qc.QueueURL)
	})

	t.Run("gcp pubsub", func(t *testing.T) {
		cfg := &CloudConfig{
			Provider:  ProviderGCP,
			ProjectID: "proj-1",
			GCP:       GCPSettings{PubSubTopic: "events", PubSubSubscription: "events-sub"},
		}
		qc := cfg.QueueConfig()
		assert.Equal(t, "pubsub", qc.Type)
		assert.Equal(t, "events", qc.Topic)
		assert.Equal(t, "events-sub", qc.Subscription)
	})

	t.Run("custom rabbitmq", func(t *testing.T) {
		cfg := &CloudConfig{
			Provider: ProviderCustom,
			Custom: CustomSettings{
				QueueHost: "rabbit.internal", QueuePort: 5672,
				QueueUsername: "app", QueuePassword: "pw",
				QueueVHost: "/", QueueName: "jobs",
			},
		}
		qc := cfg.QueueConfig()
		assert.Equal(t, "rabbitmq", qc.Type)
		assert.Equal(t, "rabbit.internal", qc.Host)
		assert.Equal(t, "jobs", qc.Queue)
	})

	t.Run("local", func(t *testing.T) {
		qc := (&CloudConfig{Provider: ProviderLocal}).QueueConfig()
		assert.Equal(t, "local", qc.Type)
	})
}
