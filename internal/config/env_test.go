package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv("GANTTGUILD_API_KEY", "secret")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "local", env.BaseEnv.Env)
	assert.Equal(t, "3200", env.HTTPPort)
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.Equal(t, 5000, env.MaxTasksPerView)
	assert.Equal(t, 256, env.EventBuffer)
	assert.False(t, env.VAPIDEnv.Enabled())
	assert.Equal(t, slog.LevelDebug, env.SlogLevel())
}

func TestLoadEnv_RequiresAPIKey(t *testing.T) {
	t.Setenv("GANTTGUILD_API_KEY", "")

	_, err := LoadEnv()
	assert.Error(t, err)
}

func TestLoadEnv_S3NeedsBucket(t *testing.T) {
	t.Setenv("GANTTGUILD_API_KEY", "secret")
	t.Setenv("GANTTGUILD_STORAGE_TYPE", "s3")

	_, err := LoadEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET")

	t.Setenv("GANTTGUILD_S3_BUCKET", "plans")
	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "plans", env.S3Bucket)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("GANTTGUILD_API_KEY", "secret")
	t.Setenv("GANTTGUILD_LOG_LEVEL", "warn")
	t.Setenv("GANTTGUILD_MAX_TASKS_PER_VIEW", "10")
	t.Setenv("GANTTGUILD_STORAGE_WATCH", "true")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, env.SlogLevel())
	assert.Equal(t, 10, env.MaxTasksPerView)
	assert.True(t, env.StorageEnv.Watch)
}
