package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, StorageMongo, cfg.Storage)
	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "monuments", cfg.Mongo.Database)
	assert.Equal(t, DefaultJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenExpiry)
	assert.Empty(t, cfg.MQTT.Broker)
	assert.Equal(t, "http://localhost:5000", cfg.Client.BackendURL)
	assert.Equal(t, "https://query.wikidata.org/sparql", cfg.Client.HeritageEndpoint)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_WithConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: "8080"
mongo:
  database: test_monuments
mqtt:
  broker: tcp://localhost:1883
client:
  timeout: 3s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "monuments.yaml"), []byte(yaml), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "test_monuments", cfg.Mongo.Database)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "monuments.yaml"), []byte("server:\n  port: \"8080\"\n"), 0644))

	t.Setenv("MONUMENTS_SERVER_PORT", "9090")
	t.Setenv("MONUMENTS_CLIENT_BACKEND_URL", "http://markers:5000")
	t.Setenv("JWT_SECRET", "legacy-secret")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://markers:5000", cfg.Client.BackendURL)
	assert.Equal(t, "legacy-secret", cfg.Auth.JWTSecret)
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "monuments.json"), []byte("{not json"), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Auth.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "x"
	cfg.Auth.TokenExpiry = 0
	assert.Error(t, cfg.Validate())

	cfg.Auth.TokenExpiry = time.Hour
	cfg.Mongo.URI = ""
	assert.Error(t, cfg.Validate())

	cfg.Storage = StorageMemory
	assert.NoError(t, cfg.Validate())

	cfg.Storage = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() {
		log.SetLevel(log.InfoLevel)
		log.SetFormatter(&log.TextFormatter{})
	})

	cfg := &Config{Log: LogConfig{Level: "debug", Format: "json"}}
	require.NoError(t, cfg.ConfigureLogging())
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	cfg.Log.Level = "loud"
	assert.Error(t, cfg.ConfigureLogging())

	cfg.Log.Level = "info"
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.ConfigureLogging())
}
