package blob

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appcfg "github.com/fdg312/activelife/internal/config"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func TestNewBlobStoreLocalForced(t *testing.T) {
	logger, logs := observed()

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeLocal}, logger)
	require.NoError(t, err)
	assert.Equal(t, appcfg.BlobModeLocal, mode)
	assert.Nil(t, store)

	entries := logs.FilterMessage("blob store disabled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "forced", entries[0].ContextMap()["reason"])
}

func TestNewBlobStoreAutoEmptyS3FallsBackToLocal(t *testing.T) {
	logger, logs := observed()

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{Mode: appcfg.BlobModeAuto}, logger)
	require.NoError(t, err)
	assert.Equal(t, appcfg.BlobModeLocal, mode)
	assert.Nil(t, store)

	assert.Equal(t, 1, logs.FilterField(zap.String("code", "s3_not_configured")).Len())
	assert.Equal(t, 1, logs.FilterField(zap.String("reason", "auto, S3 not configured")).Len())
}

func TestNewBlobStoreAutoPartialConfigWarns(t *testing.T) {
	logger, logs := observed()

	_, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{
		Mode: appcfg.BlobModeAuto,
		S3:   appcfg.S3Config{Bucket: "reports"},
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, appcfg.BlobModeLocal, mode)

	partial := logs.FilterField(zap.String("code", "s3_partial_config")).All()
	require.Len(t, partial, 1)
	assert.Equal(t, zap.WarnLevel, partial[0].Level)
}

func TestNewBlobStoreS3MissingRequiredReturnsError(t *testing.T) {
	logger, _ := observed()

	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{
		Mode: appcfg.BlobModeS3,
		S3:   appcfg.S3Config{Endpoint: "https://storage.yandexcloud.net"},
	}, logger)
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Empty(t, mode)
	assert.Contains(t, err.Error(), "missing required config")
}

func TestNewBlobStoreS3Configured(t *testing.T) {
	store, mode, err := NewBlobStore(context.Background(), appcfg.BlobConfig{
		Mode: appcfg.BlobModeS3,
		S3: appcfg.S3Config{
			Endpoint:          "http://127.0.0.1:9000",
			Region:            "us-east-1",
			Bucket:            "reports",
			AccessKeyID:       "key",
			SecretAccessKey:   "secret",
			PresignTTLSeconds: 60,
		},
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, appcfg.BlobModeS3, mode)
	require.NotNil(t, store)

	// presign — локальная операция, сеть не нужна
	url, err := store.PresignGet(context.Background(), "reports/u1/2026-05-01-7d.csv", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "127.0.0.1:9000/reports/reports/u1/2026-05-01-7d.csv")
}
