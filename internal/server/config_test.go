package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfig(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		config, err := LoadServerConfig("does-not-exist.hcl")
		require.NoError(t, err)
		assert.Equal(t, DefaultServerConfig(), config)
		assert.Equal(t, "localhost:8080", config.Addr())
	})

	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
server {
  address   = "0.0.0.0"
  port      = 9090
  log_level = "debug"
}

game "uno" {
  capacity = 6
}

game "duo" {
  capacity = 2
}
`)

		config, err := LoadServerConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:9090", config.Addr())
		assert.Equal(t, "debug", config.Server.LogLevel)
		assert.Equal(t, map[string]int{"uno": 6, "duo": 2}, config.Capacities())
	})

	t.Run("partial config backfills defaults", func(t *testing.T) {
		path := writeConfig(t, `
server {
  port = 9999
}
`)

		config, err := LoadServerConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "localhost:9999", config.Addr())
		assert.Equal(t, "info", config.Server.LogLevel)
		assert.Equal(t, map[string]int{"uno": 4}, config.Capacities())
	})

	t.Run("malformed file", func(t *testing.T) {
		path := writeConfig(t, `server { address = `)

		_, err := LoadServerConfig(path)
		assert.Error(t, err)
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cardroom.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
