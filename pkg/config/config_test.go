package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Ledger.OpTimeout.Duration)
	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.Empty(t, cfg.Redis.Address)
}

func TestLoadFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armory.toml")
	content := `
port = "8080"

[database]
driver = "sqlite"
sqlite_path = "/tmp/ledger.db"

[ledger]
op_timeout = "3s"
max_retries = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("LEDGER_MAX_RETRIES", "1")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3*time.Second, cfg.Ledger.OpTimeout.Duration)
	assert.Equal(t, 1, cfg.Ledger.MaxRetries, "environment overrides the file")
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	_, err := Load("")

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "validation", loadErr.Source)

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("LEDGER_OP_TIMEOUT", "soon")
	_, err = Load("")
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "environment", loadErr.Source)
}
