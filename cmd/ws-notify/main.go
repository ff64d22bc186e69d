// Package main relays progress events from the event bus to the owner's
// open WebSocket connections.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"prepcoach/infrastructure/config"
	"prepcoach/infrastructure/di"
	"prepcoach/infrastructure/messaging/websocket"
)

var (
	notifier *websocket.Notifier
	logger   *zap.Logger
)

func init() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.WebSocketEndpoint == "" {
		log.Fatal("WEBSOCKET_ENDPOINT is required")
	}

	logger, err = di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	repos := di.ProvideRepositories(di.ProvideDynamoDBClient(awsCfg), cfg, di.ProvideDomainConfig(), logger)
	notifier = websocket.NewNotifier(websocket.NewAPIClient(awsCfg, cfg.WebSocketEndpoint), repos.Connections, logger)
}

func handler(ctx context.Context, event events.CloudWatchEvent) error {
	relayed, err := notifier.RelayEvent(ctx, event.DetailType, event.Detail)
	if err != nil {
		logger.Error("Failed to relay event",
			zap.String("type", event.DetailType),
			zap.String("id", event.ID),
			zap.Error(err),
		)
		return err
	}
	logger.Debug("Event processed",
		zap.String("type", event.DetailType),
		zap.Bool("relayed", relayed),
	)
	return nil
}

func main() {
	lambda.Start(handler)
}
