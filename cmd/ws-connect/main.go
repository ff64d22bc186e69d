// Package main handles the WebSocket $connect and $disconnect routes. The
// connection is stored under the user named by the bearer token.
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"prepcoach/application/ports"
	"prepcoach/infrastructure/config"
	"prepcoach/infrastructure/di"
	"prepcoach/pkg/auth"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	validator, err := di.ProvideJWTValidator(cfg)
	if err != nil {
		log.Fatalf("Failed to create token validator: %v", err)
	}

	awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	repos := di.ProvideRepositories(di.ProvideDynamoDBClient(awsCfg), cfg, di.ProvideDomainConfig(), logger)

	lambda.Start(newHandler(repos.Connections, validator, logger))
}

type handlerFunc func(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error)

func newHandler(conns ports.ConnectionRepository, v *auth.JWTValidator, logger *zap.Logger) handlerFunc {
	return func(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
		connID := req.RequestContext.ConnectionID

		if req.RequestContext.EventType == "DISCONNECT" {
			// No token on disconnect. Entries without a known owner expire by TTL
			// or are removed when a send reports the connection gone.
			userID := principalID(req)
			if userID == "" {
				return respond(http.StatusOK), nil
			}
			if err := conns.Delete(ctx, userID, connID); err != nil {
				logger.Warn("Failed to delete connection", zap.String("connectionID", connID), zap.Error(err))
			}
			return respond(http.StatusOK), nil
		}

		// Browsers cannot set headers on a WebSocket upgrade, so the token may ride in the query string
		token := req.QueryStringParameters["token"]
		if token == "" {
			token = req.Headers["Authorization"]
		}
		claims, err := v.ValidateToken(token)
		if err != nil {
			logger.Info("Rejected WebSocket connection", zap.String("connectionID", connID), zap.Error(err))
			return respond(http.StatusUnauthorized), nil
		}
		userID := claims.UserID()

		if err := conns.Save(ctx, userID, connID); err != nil {
			logger.Error("Failed to store connection",
				zap.String("connectionID", connID),
				zap.String("userID", userID),
				zap.Error(err),
			)
			return respond(http.StatusInternalServerError), nil
		}

		logger.Info("WebSocket connection stored",
			zap.String("connectionID", connID),
			zap.String("userID", userID),
		)
		return respond(http.StatusOK), nil
	}
}

// principalID returns the user set by a WebSocket authorizer, if one is configured
func principalID(req events.APIGatewayWebsocketProxyRequest) string {
	authorizer, ok := req.RequestContext.Authorizer.(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := authorizer["principalId"].(string)
	return id
}

func respond(status int) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: status, Body: http.StatusText(status)}
}
