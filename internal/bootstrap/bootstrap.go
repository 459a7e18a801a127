package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"chain-gateway.backend/internal/config"
	"chain-gateway.backend/internal/domain/repositories"
	"chain-gateway.backend/internal/infrastructure/blobstore"
	"chain-gateway.backend/internal/infrastructure/blockchain"
	"chain-gateway.backend/internal/infrastructure/recordstore"
	"chain-gateway.backend/internal/usecases"
	"chain-gateway.backend/pkg/logger"
	"chain-gateway.backend/pkg/redis"
)

var (
	initLog       = logger.Init
	initRedis     = redis.Init
	loadAWSConfig = func(ctx context.Context, region string) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	}
)

// App holds every component built from one configuration
type App struct {
	Config      *config.Config
	Records     *usecases.RecordGateway
	Ownership   *usecases.OwnershipResolver
	ChainEvents *usecases.ChainEventsUsecase
	Registry    *blockchain.Registry

	clients *blockchain.ClientFactory
}

// Build wires the record gateway and the chain components. With Chain.Preload the
// chain registry starts loading in the background before Build returns.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	initLog(cfg.Server.Env)
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	awsCfg, err := loadAWSConfig(ctx, cfg.Store.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	store, err := newRecordStore(cfg, awsCfg)
	if err != nil {
		return nil, err
	}
	uploader := blobstore.NewS3Uploader(newS3Client(cfg.Blob, awsCfg), cfg.Blob.PartSize)

	clients := blockchain.NewClientFactory()
	registry := blockchain.NewRegistry(cfg.Chain, clients)
	if cfg.Chain.Preload {
		registry.Start()
		logger.Info(ctx, "Chain registry loading")
	}

	return &App{
		Config:      cfg,
		Records:     usecases.NewRecordGateway(store, uploader, cfg.Store.DefaultTable),
		Ownership:   usecases.NewOwnershipResolver(registry),
		ChainEvents: usecases.NewChainEventsUsecase(registry),
		Registry:    registry,
		clients:     clients,
	}, nil
}

// Close releases the RPC clients
func (a *App) Close() {
	a.clients.Close()
}

func newRecordStore(cfg *config.Config, awsCfg aws.Config) (repositories.RecordStore, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendDynamo:
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.Store.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Store.Endpoint)
			}
		})
		return recordstore.NewDynamoStore(client), nil
	case config.StoreBackendRedis:
		if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
			logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		logger.Info(context.Background(), "Redis initialized")
		return recordstore.NewRedisStore(), nil
	default:
		return nil, fmt.Errorf("unknown record store backend %q", cfg.Store.Backend)
	}
}

func newS3Client(cfg config.BlobConfig, awsCfg aws.Config) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Region != "" {
			o.Region = cfg.Region
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
}
