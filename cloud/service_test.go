package cloud

import (
	"context"
	"testing"

	"github.com/sm4rtm4art/go-api-template/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServiceFor(t *testing.T) {
	tests := []struct {
		provider config.CloudProvider
		wantName string
	}{
		{config.ProviderAWS, "aws"},
		{config.ProviderGCP, "gcp"},
		{config.ProviderAzure, "azure"},
		{config.ProviderHetzner, "hetzner"},
		{config.ProviderCustom, "custom"},
		{config.ProviderLocal, "local"},
		{"", "local"}, // empty selects local
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			cfg := &config.CloudConfig{Provider: tt.provider}

			svc, err := ServiceFor(cfg, zap.NewNop())
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantName, svc.Name())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestServiceForUnknownProvider(t *testing.T) {
	cfg := &config.CloudConfig{Provider: "digitalocean"}

	svc, err := ServiceFor(cfg, zap.NewNop())
	assert.Nil(t, svc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProvider)
	assert.Contains(t, err.Error(), "digitalocean")
}

func TestNewServiceFallsBackToLocal(t *testing.T) {
	cfg := &config.CloudConfig{Provider: "digitalocean"}

	svc := NewService(cfg, zap.NewNop())
	require.NotNil(t, svc)
	assert.Equal(t, "local", svc.Name())
}

// Providers without configured backends must report ErrNotConfigured
// instead of dialing anything.
func TestUnconfiguredCapabilities(t *testing.T) {
	ctx := context.Background()

	t.Run("aws cache and queue", func(t *testing.T) {
		svc, err := ServiceFor(&config.CloudConfig{Provider: config.ProviderAWS}, zap.NewNop())
		require.NoError(t, err)

		_, err = svc.Cache(ctx)
		assert.ErrorIs(t, err, ErrNotConfigured)
		_, err = svc.Queue(ctx)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("hetzner all capabilities", func(t *testing.T) {
		svc, err := ServiceFor(&config.CloudConfig{Provider: config.ProviderHetzner}, zap.NewNop())
		require.NoError(t, err)

		_, err = svc.Storage(ctx)
		assert.ErrorIs(t, err, ErrNotConfigured)
		_, err = svc.Cache(ctx)
		assert.ErrorIs(t, err, ErrNotConfigured)
		_, err = svc.Queue(ctx)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("custom cache and queue", func(t *testing.T) {
		svc, err := ServiceFor(&config.CloudConfig{Provider: config.ProviderCustom}, zap.NewNop())
		require.NoError(t, err)

		_, err = svc.Cache(ctx)
		assert.ErrorIs(t, err, ErrNotConfigured)
		_, err = svc.Queue(ctx)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}
