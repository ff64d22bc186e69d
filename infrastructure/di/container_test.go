package di

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepcoach/application/commands"
	"prepcoach/application/ports"
	"prepcoach/application/queries"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/infrastructure/config"
	"prepcoach/infrastructure/persistence/memory"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Environment:           "test",
		StorageBackend:        config.StorageMemory,
		AWSRegion:             "us-east-1",
		LogLevel:              "error",
		JWTSecret:             "secret",
		JWTIssuer:             "prepcoach",
		SealingKey:            "container-test-sealing-key",
		IPRequestsPerMinute:   60,
		UserRequestsPerMinute: 60,
		MetricsNamespace:      "PrepCoach",
		AppBaseURL:            "http://localhost:3000/",
	}
}

func TestInitializeContainerInMemoryMode(t *testing.T) {
	ctx := context.Background()
	container, cleanup, err := InitializeContainer(ctx, memoryConfig())
	require.NoError(t, err)
	t.Cleanup(cleanup)

	assert.IsType(t, &memory.JourneyRepository{}, container.Repositories.Journeys)
	assert.Nil(t, container.Notifier)
	assert.NotNil(t, container.RateLimiters.User)

	admin := ports.Actor{UserID: "admin", IsAdmin: true}
	_, err = container.CommandBus.Send(ctx, commands.CreateJourneyCommand{
		Actor:     admin,
		JourneyID: "system-design",
		Title:     "System Design",
		Kind:      valueobjects.JourneyKindRoadmap,
	})
	require.NoError(t, err)

	result, err := container.QueryBus.Ask(ctx, queries.ListJourneysQuery{})
	require.NoError(t, err)
	list := result.(*queries.ListJourneysResult)
	require.Len(t, list.Journeys, 1)
	assert.Equal(t, "system-design", list.Journeys[0].ID)
}

func TestInitializeContainerRejectsBadRedis(t *testing.T) {
	cfg := memoryConfig()
	cfg.RedisAddr = "127.0.0.1:1"

	_, _, err := InitializeContainer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestEventPublisherDisabledInMemoryMode(t *testing.T) {
	cfg := memoryConfig()
	cfg.EventBusName = "bus"
	assert.Nil(t, ProvideEventPublisher(aws.Config{}, cfg, nil))
}
