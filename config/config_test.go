package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"mindmap3d/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvironmentVariablesOverrideDefaults(t *testing.T) {
	os.Setenv("MODEL_SERVICE_URL", "http://model-service:8000")
	os.Setenv("SERVER_ADDRESS", ":9090")
	os.Setenv("DYNAMODB_TABLE", "test-table")
	defer func() {
		os.Unsetenv("MODEL_SERVICE_URL")
		os.Unsetenv("SERVER_ADDRESS")
		os.Unsetenv("DYNAMODB_TABLE")
	}()

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, "test-table", cfg.DynamoDBTable)
	assert.Equal(t, "ConceptIndex", cfg.DynamoDBConceptGSI)
	assert.Equal(t, 16, cfg.EmbeddingConcurrency)
}

func TestLoad_DBNodesAliasesTableNameWhenTableUnset(t *testing.T) {
	os.Setenv("MODEL_SERVICE_URL", "http://model-service:8000")
	os.Setenv("DB_NODES", "node-a,node-b")
	defer func() {
		os.Unsetenv("MODEL_SERVICE_URL")
		os.Unsetenv("DB_NODES")
	}()

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"node-a", "node-b"}, cfg.DBNodes)
	assert.Equal(t, "node-a", cfg.DynamoDBTable, "first DB_NODES entry used as table name")
}

func TestLoad_MissingModelServiceURLFails(t *testing.T) {
	os.Unsetenv("MODEL_SERVICE_URL")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_ConfigFileSuppliesDefaultsEnvStillWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_address: ":7070"
dynamodb_table: "from-file"
embedding_concurrency: 4
cors_origins:
  - "https://example.com"
`), 0o644))

	os.Setenv("MODEL_SERVICE_URL", "http://model-service:8000")
	os.Setenv("CONFIG_FILE", path)
	os.Setenv("DYNAMODB_TABLE", "from-env")
	defer func() {
		os.Unsetenv("MODEL_SERVICE_URL")
		os.Unsetenv("CONFIG_FILE")
		os.Unsetenv("DYNAMODB_TABLE")
	}()

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ServerAddress, "file value used when env var unset")
	assert.Equal(t, "from-env", cfg.DynamoDBTable, "env var overrides file value")
	assert.Equal(t, 4, cfg.EmbeddingConcurrency)
	assert.Equal(t, []string{"https://example.com"}, cfg.CORSOrigins)
}

func TestLoad_MissingConfigFileIsNotAnError(t *testing.T) {
	os.Setenv("MODEL_SERVICE_URL", "http://model-service:8000")
	os.Setenv("CONFIG_FILE", "/nonexistent/config.yaml")
	defer func() {
		os.Unsetenv("MODEL_SERVICE_URL")
		os.Unsetenv("CONFIG_FILE")
	}()

	_, err := config.Load()
	require.NoError(t, err)
}

func TestConfig_IsDevelopmentAndIsProduction(t *testing.T) {
	cfg := &config.Config{Environment: "development"}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Environment = "production"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
}
