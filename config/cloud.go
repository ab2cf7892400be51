package config

import (
	"fmt"
	"strings"
)

// CloudProvider identifies a supported cloud provider
type CloudProvider string

const (
	ProviderAWS     CloudProvider = "aws"
	ProviderGCP     CloudProvider = "gcp"
	ProviderAzure   CloudProvider = "azure"
	ProviderHetzner CloudProvider = "hetzner"
	ProviderCustom  CloudProvider = "custom"
	ProviderLocal   CloudProvider = "local"
)

// knownProviders is the set of providers the factory can instantiate
var knownProviders = map[CloudProvider]bool{
	ProviderAWS:     true,
	ProviderGCP:     true,
	ProviderAzure:   true,
	ProviderHetzner: true,
	ProviderCustom:  true,
	ProviderLocal:   true,
}

// CloudConfig holds provider selection and provider-specific settings
type CloudConfig struct {
	Provider  CloudProvider
	Region    string
	ProjectID string
	TenantID  string

	AWS     AWSSettings
	GCP     GCPSettings
	Azure   AzureSettings
	Hetzner HetznerSettings
	Custom  CustomSettings
	Local   LocalSettings
}

// AWSSettings holds AWS-specific configuration
type AWSSettings struct {
	Profile             string
	RoleARN             string
	Bucket              string
	QueueURL            string
	ElastiCacheEndpoint string
	ElastiCachePort     int
}

// GCPSettings holds GCP-specific configuration
type GCPSettings struct {
	CredentialsPath    string
	Bucket             string
	MemorystoreHost    string
	PubSubTopic        string
	PubSubSubscription string
}

// AzureSettings holds Azure-specific configuration
type AzureSettings struct {
	SubscriptionID      string
	ResourceGroup       string
	ConnectionString    string
	Container           string
	AccountName         string
	CacheName           string
	CacheAddress        string
	CachePassword       string
	ServiceBusNamespace string
	ServiceBusQueue     string
}

// HetznerSettings holds Hetzner-specific configuration.
// Hetzner offers no managed cache or queue; the cache/queue blocks
// point at self-hosted Redis and RabbitMQ instances on Hetzner Cloud.
type HetznerSettings struct {
	APIToken         string
	Datacenter       string
	ProjectID        string
	StorageBoxID     string
	StorageSubdomain string
	CacheHost        string
	CachePort        int
	CachePassword    string
	QueueHost        string
	QueuePort        int
	QueueUsername    string
	QueuePassword    string
	QueueVHost       string
	QueueName        string
}

// CustomSettings holds configuration for self-managed backends
// (S3-compatible object store, Redis, RabbitMQ)
type CustomSettings struct {
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageSecure    bool
	CacheHost        string
	CachePort        int
	CacheDB          int
	CachePassword    string
	QueueHost        string
	QueuePort        int
	QueueUsername    string
	QueuePassword    string
	QueueVHost       string
	QueueName        string
}

// LocalSettings holds configuration for the local (no infrastructure) provider
type LocalSettings struct {
	StoragePath string
}

// StorageConfig is the resolved object storage configuration for the active provider
type StorageConfig struct {
	Type        string // s3, gcs, azure, hetzner, minio, local
	Bucket      string
	Region      string
	ProjectID   string
	Container   string
	AccountName string
	Box         string
	Subdomain   string
	Datacenter  string
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Secure      bool
	Path        string
}

// CacheConfig is the resolved cache configuration for the active provider
type CacheConfig struct {
	Type     string // elasticache, memorystore, cache, redis, local
	Endpoint string
	Port     int
	DB       int
	Password string
}

// QueueConfig is the resolved queue configuration for the active provider
type QueueConfig struct {
	Type         string // sqs, pubsub, servicebus, rabbitmq, local
	QueueURL     string
	Region       string
	Topic        string
	Subscription string
	ProjectID    string
	Namespace    string
	Queue        string
	Host         string
	Port         int
	Username     string
	Password     string
	VHost        string
}

// loadCloudConfig loads cloud provider configuration from CLOUD_* env vars
func loadCloudConfig() CloudConfig {
	return CloudConfig{
		Provider:  CloudProvider(strings.ToLower(getEnv("CLOUD_PROVIDER", string(ProviderLocal)))),
		Region:    getEnv("CLOUD_REGION", "us-east-1"),
		ProjectID: getEnv("CLOUD_PROJECT_ID", ""),
		TenantID:  getEnv("CLOUD_TENANT_ID", ""),
		AWS: AWSSettings{
			Profile:             getEnv("CLOUD_AWS_PROFILE", ""),
			RoleARN:             getEnv("CLOUD_AWS_ROLE_ARN", ""),
			Bucket:              getEnv("CLOUD_AWS_S3_BUCKET", ""),
			QueueURL:            getEnv("CLOUD_AWS_SQS_QUEUE_URL", ""),
			ElastiCacheEndpoint: getEnv("CLOUD_AWS_ELASTICACHE_ENDPOINT", ""),
			ElastiCachePort:     getEnvAsInt("CLOUD_AWS_ELASTICACHE_PORT", 6379),
		},
		GCP: GCPSettings{
			CredentialsPath:    getEnv("CLOUD_GCP_CREDENTIALS_PATH", ""),
			Bucket:             getEnv("CLOUD_GCP_STORAGE_BUCKET", ""),
			MemorystoreHost:    getEnv("CLOUD_GCP_MEMORYSTORE_INSTANCE", ""),
			PubSubTopic:        getEnv("CLOUD_GCP_PUBSUB_TOPIC", ""),
			PubSubSubscription: getEnv("CLOUD_GCP_PUBSUB_SUBSCRIPTION", ""),
		},
		Azure: AzureSettings{
			SubscriptionID:      getEnv("CLOUD_AZURE_SUBSCRIPTION_ID", ""),
			ResourceGroup:       getEnv("CLOUD_AZURE_RESOURCE_GROUP", ""),
			ConnectionString:    getEnv("CLOUD_AZURE_CONNECTION_STRING", ""),
			Container:           getEnv("CLOUD_AZURE_STORAGE_CONTAINER", ""),
			AccountName:         getEnv("CLOUD_AZURE_STORAGE_ACCOUNT_NAME", ""),
			CacheName:           getEnv("CLOUD_AZURE_CACHE_NAME", ""),
			CacheAddress:        getEnv("CLOUD_AZURE_CACHE_ADDRESS", ""),
			CachePassword:       getEnv("CLOUD_AZURE_CACHE_PASSWORD", ""),
			ServiceBusNamespace: getEnv("CLOUD_AZURE_SERVICEBUS_NAMESPACE", ""),
			ServiceBusQueue:     getEnv("CLOUD_AZURE_SERVICEBUS_QUEUE", ""),
		},
		Hetzner: HetznerSettings{
			APIToken:         getEnv("CLOUD_HETZNER_API_TOKEN", ""),
			Datacenter:       getEnv("CLOUD_HETZNER_DATACENTER", "fsn1"),
			ProjectID:        getEnv("CLOUD_HETZNER_PROJECT_ID", ""),
			StorageBoxID:     getEnv("CLOUD_HETZNER_STORAGE_BOX_ID", ""),
			StorageSubdomain: getEnv("CLOUD_HETZNER_STORAGE_SUBDOMAIN", ""),
			CacheHost:        getEnv("CLOUD_HETZNER_CACHE_HOST", ""),
			CachePort:        getEnvAsInt("CLOUD_HETZNER_CACHE_PORT", 6379),
			CachePassword:    getEnv("CLOUD_HETZNER_CACHE_PASSWORD", ""),
			QueueHost:        getEnv("CLOUD_HETZNER_QUEUE_HOST", ""),
			QueuePort:        getEnvAsInt("CLOUD_HETZNER_QUEUE_PORT", 5672),
			QueueUsername:    getEnv("CLOUD_HETZNER_QUEUE_USERNAME", "guest"),
			QueuePassword:    getEnv("CLOUD_HETZNER_QUEUE_PASSWORD", "guest"),
			QueueVHost:       getEnv("CLOUD_HETZNER_QUEUE_VHOST", "/"),
			QueueName:        getEnv("CLOUD_HETZNER_QUEUE_NAME", "default"),
		},
		Custom: CustomSettings{
			StorageEndpoint:  getEnv("CLOUD_CUSTOM_STORAGE_ENDPOINT", "localhost:9000"),
			StorageAccessKey: getEnv("CLOUD_CUSTOM_STORAGE_ACCESS_KEY", "minioadmin"),
			StorageSecretKey: getEnv("CLOUD_CUSTOM_STORAGE_SECRET_KEY", "minioadmin"),
			StorageBucket:    getEnv("CLOUD_CUSTOM_STORAGE_BUCKET", ""),
			StorageSecure:    getEnvAsBool("CLOUD_CUSTOM_STORAGE_SECURE", false),
			CacheHost:        getEnv("CLOUD_CUSTOM_CACHE_HOST", ""),
			CachePort:        getEnvAsInt("CLOUD_CUSTOM_CACHE_PORT", 6379),
			CacheDB:          getEnvAsInt("CLOUD_CUSTOM_CACHE_DB", 0),
			CachePassword:    getEnv("CLOUD_CUSTOM_CACHE_PASSWORD", ""),
			QueueHost:        getEnv("CLOUD_CUSTOM_QUEUE_HOST", ""),
			QueuePort:        getEnvAsInt("CLOUD_CUSTOM_QUEUE_PORT", 5672),
			QueueUsername:    getEnv("CLOUD_CUSTOM_QUEUE_USERNAME", "guest"),
			QueuePassword:    getEnv("CLOUD_CUSTOM_QUEUE_PASSWORD", "guest"),
			QueueVHost:       getEnv("CLOUD_CUSTOM_QUEUE_VHOST", "/"),
			QueueName:        getEnv("CLOUD_CUSTOM_QUEUE_NAME", "default"),
		},
		Local: LocalSettings{
			StoragePath: getEnv("CLOUD_LOCAL_STORAGE_PATH", "local_storage"),
		},
	}
}

// Validate checks the cloud configuration
func (c *CloudConfig) Validate() error {
	if c.Provider == "" {
		return nil // factory defaults to local
	}
	if !knownProviders[c.Provider] {
		return fmt.Errorf("unknown cloud provider: %s", c.Provider)
	}
	return nil
}

// IsCloud returns true when the provider is a hosted cloud environment
func (c *CloudConfig) IsCloud() bool {
	switch c.Provider {
	case ProviderAWS, ProviderGCP, ProviderAzure, ProviderHetzner:
		return true
	}
	return false
}

// StorageConfig resolves the object storage configuration for the active provider
func (c *CloudConfig) StorageConfig() StorageConfig {
	switch c.Provider {
	case ProviderAWS:
		return StorageConfig{
			Type:   "s3",
			Bucket: c.AWS.Bucket,
			Region: c.Region,
		}
	case ProviderGCP:
		return StorageConfig{
			Type:      "gcs",
			Bucket:    c.GCP.Bucket,
			ProjectID: c.ProjectID,
		}
	case ProviderAzure:
		return StorageConfig{
			Type:        "azure",
			Container:   c.Azure.Container,
			AccountName: c.Azure.AccountName,
		}
	case ProviderHetzner:
		return StorageConfig{
			Type:       "hetzner",
			Box:        c.Hetzner.StorageBoxID,
			Subdomain:  c.Hetzner.StorageSubdomain,
			Datacenter: c.Hetzner.Datacenter,
		}
	case ProviderCustom:
		return StorageConfig{
			Type:      "minio",
			Endpoint:  c.Custom.StorageEndpoint,
			AccessKey: c.Custom.StorageAccessKey,
			SecretKey: c.Custom.StorageSecretKey,
			Bucket:    c.Custom.StorageBucket,
			Secure:    c.Custom.StorageSecure,
		}
	}
	return StorageConfig{Type: "local", Path: c.Local.StoragePath}
}

// CacheConfig resolves the cache configuration for the active provider
func (c *CloudConfig) CacheConfig() CacheConfig {
	switch c.Provider {
	case ProviderAWS:
		return CacheConfig{
			Type:     "elasticache",
			Endpoint: c.AWS.ElastiCacheEndpoint,
			Port:     c.AWS.ElastiCachePort,
		}
	case ProviderGCP:
		return CacheConfig{
			Type:     "memorystore",
			Endpoint: c.GCP.MemorystoreHost,
			Port:     6379,
		}
	case ProviderAzure:
		return CacheConfig{
			Type:     "cache",
			Endpoint: c.Azure.CacheAddress,
			Password: c.Azure.CachePassword,
		}
	case ProviderHetzner:
		return CacheConfig{
			Type:     "redis",
			Endpoint: c.Hetzner.CacheHost,
			Port:     c.Hetzner.CachePort,
			Password: c.Hetzner.CachePassword,
		}
	case ProviderCustom:
		return CacheConfig{
			Type:     "redis",
			Endpoint: c.Custom.CacheHost,
			Port:     c.Custom.CachePort,
			DB:       c.Custom.CacheDB,
			Password: c.Custom.CachePassword,
		}
	}
	return CacheConfig{Type: "local"}
}

// QueueConfig resolves the queue configuration for the active provider
func (c *CloudConfig) QueueConfig() QueueConfig {
	switch c.Provider {
	case ProviderAWS:
		return QueueConfig{
			Type:     "sqs",
			QueueURL: c.AWS.QueueURL,
			Region:   c.Region,
		}
	case ProviderGCP:
		return QueueConfig{
			Type:         "pubsub",
			Topic:        c.GCP.PubSubTopic,
			Subscription: c.GCP.PubSubSubscription,
			ProjectID:    c.ProjectID,
		}
	case ProviderAzure:
		return QueueConfig{
			Type:      "servicebus",
			Namespace: c.Azure.ServiceBusNamespace,
			Queue:     c.Azure.ServiceBusQueue,
		}
	case ProviderHetzner:
		return QueueConfig{
			Type:     "rabbitmq",
			Host:     c.Hetzner.QueueHost,
			Port:     c.Hetzner.QueuePort,
			Username: c.Hetzner.QueueUsername,
			Password: c.Hetzner.QueuePassword,
			VHost:    c.Hetzner.QueueVHost,
			Queue:    c.Hetzner.QueueName,
		}
	case ProviderCustom:
		return QueueConfig{
			Type:     "rabbitmq",
			Host:     c.Custom.QueueHost,
			Port:     c.Custom.QueuePort,
			Username: c.Custom.QueueUsername,
			Password: c.Custom.QueuePassword,
			VHost:    c.Custom.QueueVHost,
			Queue:    c.Custom.QueueName,
		}
	}
	return QueueConfig{Type: "local"}
}
