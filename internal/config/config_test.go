package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `{
	"port": 8080,
	"jwt_secret": "secret",
	"database": {"host": "localhost", "user": "postgres", "password": "postgres", "db_name": "docuvec"},
	"storage": {"type": "local", "data": {"dir": "/tmp/files", "public_url": "http://localhost:9000/files"}},
	"ai": {"provider": "gemini", "embed_model": "text-embedding-004", "embed_dim": 768, "data": {"api_key": "k"}}
}`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	require.Equal(t, 72, cfg.JWTTTLHours)
	require.Equal(t, "production", cfg.Env)
	require.True(t, cfg.IsProduction())
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, "disable", cfg.Database.SSLMode)
	require.Equal(t, 3600, cfg.Storage.SignedURLTTLSecs)
	require.Equal(t, "local", cfg.Vectorize.Strategy)
	require.Equal(t, 1000, cfg.Vectorize.ChunkSize)
	require.Equal(t, 200, cfg.Vectorize.ChunkOverlap)
	require.Equal(t, 200, cfg.Vectorize.MaxChunks)
	require.Equal(t, 3, cfg.Vectorize.PollIntervalSec)
	require.Equal(t, 60, cfg.Vectorize.PollMaxAttempts)
	require.Equal(t, 30, cfg.Vectorize.RequestTimeoutS)
	require.Equal(t, "*/5 * * * *", cfg.CleanupCron)
	require.Equal(t, 10000, cfg.AI.CacheSize)
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"no jwt secret", `{"port": 8080}`},
		{"no port", `{"jwt_secret": "s"}`},
		{"no database", `{"port": 8080, "jwt_secret": "s"}`},
		{"no embed dim", `{
			"port": 8080, "jwt_secret": "s",
			"database": {"host": "localhost"},
			"storage": {"type": "local"},
			"ai": {"provider": "gemini", "embed_model": "text-embedding-004"}
		}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestLoadRejectsOverlapNotSmallerThanChunkSize(t *testing.T) {
	content := `{
		"port": 8080,
		"jwt_secret": "secret",
		"database": {"host": "localhost"},
		"storage": {"type": "local"},
		"ai": {"provider": "gemini", "embed_model": "text-embedding-004", "embed_dim": 768},
		"vectorize": {"chunk_size": 100, "chunk_overlap": 100}
	}`
	_, err := Load(writeConfig(t, content))
	require.Error(t, err)
}

func TestLoadNonProductionEnv(t *testing.T) {
	content := `{
		"port": 8080,
		"jwt_secret": "secret",
		"env": "development",
		"database": {"dsn": "postgres://localhost/docuvec"},
		"storage": {"type": "local"},
		"ai": {"provider": "openai", "embed_model": "text-embedding-3-small", "embed_dim": 1536}
	}`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	require.False(t, cfg.IsProduction())
	require.Equal(t, 1536, cfg.AI.EmbedDim)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
