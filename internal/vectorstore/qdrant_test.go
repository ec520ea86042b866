package vectorstore

import (
	"errors"
	"testing"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestQdrantConfigApplyDefaults(t *testing.T) {
	var cfg QdrantConfig
	cfg.ApplyDefaults()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 6334, cfg.Port)
	assert.Equal(t, uint64(384), cfg.VectorSize)
	assert.Equal(t, qdrant.Distance_Cosine, cfg.Distance)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, 32*1024*1024, cfg.MaxMessageSize)
}

func TestQdrantConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     QdrantConfig
		wantErr bool
	}{
		{
			name: "valid",
			cfg:  QdrantConfig{Host: "localhost", Port: 6334, VectorSize: 384},
		},
		{
			name:    "empty host",
			cfg:     QdrantConfig{Port: 6334, VectorSize: 384},
			wantErr: true,
		},
		{
			name:    "invalid port",
			cfg:     QdrantConfig{Host: "localhost", Port: 99999, VectorSize: 384},
			wantErr: true,
		},
		{
			name:    "zero vector size",
			cfg:     QdrantConfig{Host: "localhost", Port: 6334},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsTransientError(t *testing.T) {
	assert.True(t, IsTransientError(status.Error(grpccodes.Unavailable, "down")))
	assert.True(t, IsTransientError(status.Error(grpccodes.DeadlineExceeded, "slow")))
	assert.True(t, IsTransientError(status.Error(grpccodes.ResourceExhausted, "busy")))
	assert.False(t, IsTransientError(status.Error(grpccodes.NotFound, "missing")))
	assert.False(t, IsTransientError(status.Error(grpccodes.InvalidArgument, "bad")))
	assert.False(t, IsTransientError(errors.New("plain error")))
}

func TestNewQdrantStoreRequiresEmbedder(t *testing.T) {
	_, err := NewQdrantStore(QdrantConfig{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
