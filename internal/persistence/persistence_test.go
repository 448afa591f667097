package persistence

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bsc-kit/scorecard-api/internal/config"
)

func TestNewPostgres_WithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, pg.Enabled())
	assert.Nil(t, pg.PoolHandle())
	assert.Error(t, pg.Ping(context.Background()))
	pg.Close()
}

func TestRunMigrations_NoPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, zap.NewNop()))
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(embedMigrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	content, err := fs.ReadFile(embedMigrations, migrationsDir+"/"+entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- +goose Up")
	assert.Contains(t, string(content), "email         TEXT NOT NULL UNIQUE")
}

func TestNilRedis(t *testing.T) {
	var r *Redis
	assert.False(t, r.Enabled())
	assert.Error(t, r.Ping(context.Background()))
	r.Close()
}
