package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestMustLoad(t *testing.T) {
	t.Run("Applies defaults", func(t *testing.T) {
		// Given: a config with only the secret
		path := writeConfig(t, "jwt-secret-key: secret\n")

		// When: it is loaded
		conf := MustLoad(path)

		// Then: the defaults are filled in
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, DriverMemory, conf.Storage.Driver)
		assert.Equal(t, 24*time.Hour, conf.JWTTTL)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Reads every key", func(t *testing.T) {
		path := writeConfig(t, `
log-level: debug
http-port: "8080"
socket-port: "8081"
storage:
  driver: sqlite
redis:
  host: cache
  port: "6380"
sqlite-storage-path: /tmp/matches.db
jwt-secret-key: secret
jwt-ttl: 90m
`)

		conf := MustLoad(path)

		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "8080", conf.HTTPPort)
		assert.Equal(t, "8081", conf.SocketPort)
		assert.Equal(t, DriverSQLite, conf.Storage.Driver)
		assert.Equal(t, "cache:6380", conf.Redis.GetRedisAddr())
		assert.Equal(t, "/tmp/matches.db", conf.SQLiteStoragePath)
		assert.Equal(t, 90*time.Minute, conf.JWTTTL)
	})

	t.Run("Panics on an unknown driver", func(t *testing.T) {
		path := writeConfig(t, "jwt-secret-key: secret\nstorage:\n  driver: mongo\n")

		assert.Panics(t, func() { MustLoad(path) })
	})

	t.Run("Panics without a secret", func(t *testing.T) {
		path := writeConfig(t, "log-level: info\n")

		assert.Panics(t, func() { MustLoad(path) })
	})
}
