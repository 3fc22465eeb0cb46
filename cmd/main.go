package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"

	"support-agent/handler"
	"support-agent/internal/app"
	"support-agent/internal/config"
	"support-agent/internal/logger"
)

func main() {
	ctx := context.Background()

	// Configuration is read only here.
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(cfg.Debug)
	defer log.Sync()

	if err := cfg.ValidateLambda(); err != nil {
		log.Fatal("incomplete configuration", zap.Error(err))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatal("failed to load AWS config", zap.Error(err))
	}

	components, err := app.Build(ctx, cfg, &awsCfg, log)
	if err != nil {
		log.Fatal("failed to build support service", zap.Error(err))
	}

	h, err := handler.NewHandler(components.Service, handler.WithLogger(log))
	if err != nil {
		log.Fatal("failed to create handler", zap.Error(err))
	}

	log.Info("support agent starting",
		zap.String("model", cfg.Model),
		zap.String("faq_origin", components.FAQOrigin),
		zap.Bool("notifications", cfg.MailEnabled()),
	)
	lambda.Start(h.Handle)
}
