// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// fileDefaults is the subset of Config that can be overlaid from an optional
// YAML file before environment variables are applied on top of it. Only
// fields worth overriding per-environment (rather than per-process-secret)
// belong here.
type fileDefaults struct {
	ServerAddress        string `yaml:"server_address"`
	Environment          string `yaml:"environment"`
	ChatModel            string `yaml:"chat_model"`
	EmbedModel           string `yaml:"embed_model"`
	EmbeddingConcurrency int    `yaml:"embedding_concurrency"`
	DynamoDBTable        string `yaml:"dynamodb_table"`
	DynamoDBConceptGSI   string `yaml:"dynamodb_concept_gsi"`
	EventBusName         string `yaml:"event_bus_name"`
	CORSOrigins          []string `yaml:"cors_origins"`
	LogLevel             string `yaml:"log_level"`
}

// loadFileDefaults reads an optional YAML overlay named by the CONFIG_FILE
// environment variable. Absence of the file (or of the variable) is not an
// error: env vars alone are a complete configuration source.
func loadFileDefaults() (fileDefaults, error) {
	var fd fileDefaults
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		return fd, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fd, nil
		}
		return fd, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return fd, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fd, nil
}

// Config holds all application configuration.
type Config struct {
	ServerAddress string
	Environment   string

	ModelServiceURL      string
	ChatModel            string
	EmbedModel           string
	EmbeddingConcurrency int

	DBNodes            []string
	DynamoDBTable      string
	DynamoDBConceptGSI string

	CDNProjectURL string
	CDNBucket     string
	CDNTokenFile  string
	CDNOwner      string

	EventBusName string

	CORSOrigins []string

	LogLevel string

	OTLPEndpoint string
}

// Load reads configuration from environment variables, applying defaults
// and validating the result.
func Load() (*Config, error) {
	fd, err := loadFileDefaults()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", orDefault(fd.ServerAddress, ":8080")),
		Environment:   getEnv("ENVIRONMENT", orDefault(fd.Environment, "development")),

		ModelServiceURL:      getEnv("MODEL_SERVICE_URL", ""),
		ChatModel:            getEnv("CHAT_MODEL", orDefault(fd.ChatModel, "llama3")),
		EmbedModel:           getEnv("EMBED_MODEL", orDefault(fd.EmbedModel, "nomic-embed-text")),
		EmbeddingConcurrency: getEnvInt("EMBEDDING_CONCURRENCY", orDefaultInt(fd.EmbeddingConcurrency, 16)),

		DBNodes:            getEnvList("DB_NODES"),
		DynamoDBTable:      getEnv("DYNAMODB_TABLE", orDefault(fd.DynamoDBTable, firstOrDefault(getEnvList("DB_NODES"), "mindmap3d"))),
		DynamoDBConceptGSI: getEnv("DYNAMODB_CONCEPT_GSI", orDefault(fd.DynamoDBConceptGSI, "ConceptIndex")),

		CDNProjectURL: getEnv("CDN_PROJECT_URL", ""),
		CDNBucket:     getEnv("CDN_BUCKET", "mindmap3d-texts"),
		CDNTokenFile:  getEnv("CDN_TOKEN_FILE", ""),
		CDNOwner:      getEnv("CDN_OWNER", ""),

		EventBusName: getEnv("EVENT_BUS_NAME", orDefault(fd.EventBusName, "mindmap3d-events")),

		CORSOrigins: firstNonEmptyList(getEnvList("CORS_ORIGINS"), fd.CORSOrigins),

		LogLevel: getEnv("LOG_LEVEL", orDefault(fd.LogLevel, "info")),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func orDefault(fileValue, fallback string) string {
	if fileValue != "" {
		return fileValue
	}
	return fallback
}

func orDefaultInt(fileValue, fallback int) int {
	if fileValue != 0 {
		return fileValue
	}
	return fallback
}

func firstNonEmptyList(envValue, fileValue []string) []string {
	if len(envValue) > 0 {
		return envValue
	}
	return fileValue
}

// firstOrDefault returns the first element of nodes, or fallback if nodes
// is empty. DB_NODES (spec.md §6) names the storage layer's node list in
// the generic key-value/column-store interface this pipeline runs against;
// this single-table DynamoDB deployment has no cluster of nodes to address
// by name, so the first entry (if any) is taken as the table name; the full
// list is kept on Config.DBNodes.
func firstOrDefault(nodes []string, fallback string) string {
	if len(nodes) == 0 {
		return fallback
	}
	return nodes[0]
}

// Validate checks that configuration required to serve traffic is present.
func (c *Config) Validate() error {
	if c.ModelServiceURL == "" {
		return fmt.Errorf("MODEL_SERVICE_URL is required")
	}
	if c.EmbeddingConcurrency <= 0 {
		return fmt.Errorf("EMBEDDING_CONCURRENCY must be positive, got %d", c.EmbeddingConcurrency)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(value); i++ {
		if i == len(value) || value[i] == ',' {
			if i > start {
				out = append(out, value[start:i])
			}
			start = i + 1
		}
	}
	return out
}
