package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"example/chessdebrief/app"
	"example/chessdebrief/app/config"
	"example/chessdebrief/app/logger"
)

var ginLambda *ginadapter.GinLambda

// init runs once per Lambda container (cold start)
func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logs.Level, "json")

	if cfg.UseRealAPI {
		app.MustInitDB(cfg)
	}
	api, err := app.NewAPIFromConfig(context.Background(), cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to wire dependencies")
	}
	router, err := app.NewRouter(cfg, api)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize router")
	}

	ginLambda = ginadapter.New(router)
}

// Handler is the Lambda entrypoint for API Gateway REST/HTTP API (proxy integration)
func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return ginLambda.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
