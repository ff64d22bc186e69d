// Package websocket pushes realtime messages to API Gateway WebSocket connections.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"go.uber.org/zap"

	"prepcoach/application/ports"
)

// API is the part of the API Gateway management client the notifier needs
type API interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// NewAPIClient builds a management client for a WebSocket stage endpoint
// such as "abc123.execute-api.eu-west-1.amazonaws.com/prod".
func NewAPIClient(cfg aws.Config, endpoint string) *apigatewaymanagementapi.Client {
	if !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
}

// Notifier implements ports.Notifier. Stale connections are removed as they are found.
type Notifier struct {
	client      API
	connections ports.ConnectionRepository
	logger      *zap.Logger
}

// NewNotifier creates a notifier
func NewNotifier(client API, connections ports.ConnectionRepository, logger *zap.Logger) *Notifier {
	return &Notifier{client: client, connections: connections, logger: logger}
}

// NotifyUser sends message as JSON to every open connection of the user.
// It fails only when there were connections and none of them accepted it.
func (n *Notifier) NotifyUser(ctx context.Context, userID string, message interface{}) error {
	connectionIDs, err := n.connections.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list connections: %w", err)
	}
	if len(connectionIDs) == 0 {
		return nil
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	delivered, failed := 0, 0
	for _, connID := range connectionIDs {
		_, err := n.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
			ConnectionId: aws.String(connID),
			Data:         data,
		})
		if err == nil {
			delivered++
			continue
		}

		var goneErr *apigwTypes.GoneException
		if errors.As(err, &goneErr) {
			if delErr := n.connections.Delete(ctx, userID, connID); delErr != nil {
				n.logger.Warn("Failed to remove stale connection",
					zap.String("connectionID", connID),
					zap.Error(delErr),
				)
			}
			continue
		}

		failed++
		n.logger.Warn("Failed to send to connection",
			zap.String("connectionID", connID),
			zap.Error(err),
		)
	}

	if failed > 0 && delivered == 0 {
		return fmt.Errorf("all %d message sends failed", failed)
	}
	return nil
}

// BusMessage is the shape relayed for events arriving from the event bus
type BusMessage struct {
	Type  string          `json:"type"`
	Event json.RawMessage `json:"event"`
}

// RelayEvent pushes an event bus detail to the user named by its user_id.
// Events without a user are skipped and reported as not relayed.
func (n *Notifier) RelayEvent(ctx context.Context, detailType string, detail json.RawMessage) (bool, error) {
	var owner struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(detail, &owner); err != nil {
		return false, fmt.Errorf("failed to parse event detail: %w", err)
	}
	if owner.UserID == "" {
		n.logger.Debug("Skipping event without user", zap.String("type", detailType))
		return false, nil
	}
	if err := n.NotifyUser(ctx, owner.UserID, BusMessage{Type: detailType, Event: detail}); err != nil {
		return false, err
	}
	return true, nil
}
