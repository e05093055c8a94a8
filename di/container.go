// Package di manually wires the application's dependency graph: a hand
// written container of Provide-style constructor calls in place of
// code-generated wiring.
package di

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"mindmap3d/config"
	"mindmap3d/embedding"
	"mindmap3d/keywords"
	"mindmap3d/layout"
	"mindmap3d/llmextract"
	"mindmap3d/merge"
	"mindmap3d/messaging"
	"mindmap3d/modelservice"
	"mindmap3d/observability"
	"mindmap3d/persistence/dynamodb"
	"mindmap3d/pipeline"
	"mindmap3d/scraper"
	"mindmap3d/storage"
)

// Container holds every long-lived dependency the process needs.
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Metrics     *observability.Collector
	Tracing     *observability.TracerProvider
	Coordinator *pipeline.Coordinator
	TokenWatcher *config.TokenWatcher
}

// Build constructs the full dependency graph.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := observability.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	tracing, err := observability.InitTracing("mindmap3d", cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	metrics := observability.NewCollector("mindmap3d")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	dynamoClient := awsdynamodb.NewFromConfig(awsCfg)
	repo := dynamodb.New(dynamoClient, cfg.DynamoDBTable, cfg.DynamoDBConceptGSI, logger)

	eventClient := eventbridge.NewFromConfig(awsCfg)
	eventPublisher := messaging.New(eventClient, cfg.EventBusName, logger)

	var tokenWatcher *config.TokenWatcher
	tokenFn := storage.TokenSource(func() string { return "" })
	if cfg.CDNTokenFile != "" {
		tokenWatcher, err = config.NewTokenWatcher(cfg.CDNTokenFile, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to start cdn token watcher: %w", err)
		}
		tokenFn = tokenWatcher.Token
	}
	cdn := storage.New(cfg.CDNProjectURL, tokenFn, cfg.CDNBucket, cfg.CDNOwner)

	modelClient := modelservice.New(cfg.ModelServiceURL)

	chatFn := func(ctx context.Context, prompt, system string, numCtx int) (string, error) {
		return modelClient.Complete(ctx, prompt, modelservice.ChatOptions{
			Model:  cfg.ChatModel,
			System: system,
			NumCtx: numCtx,
		})
	}

	coordinator := pipeline.New(
		scraper.New(),
		keywords.New(),
		llmextract.New(chatFn, cfg.EmbeddingConcurrency),
		embedding.FromModelClient(modelClient, cfg.EmbedModel, cfg.EmbeddingConcurrency),
		merge.New(),
		layout.New(),
		repo,
		cdn,
		eventPublisher,
	)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Metrics:      metrics,
		Tracing:      tracing,
		Coordinator:  coordinator,
		TokenWatcher: tokenWatcher,
	}, nil
}

// Close releases resources held by the container.
func (c *Container) Close(ctx context.Context) error {
	if c.TokenWatcher != nil {
		if err := c.TokenWatcher.Close(); err != nil {
			c.Logger.Warn("failed to close token watcher", zap.Error(err))
		}
	}
	if err := c.Tracing.Shutdown(ctx); err != nil {
		return err
	}
	return c.Logger.Sync()
}
