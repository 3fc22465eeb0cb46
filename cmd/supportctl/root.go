package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"support-agent/internal/app"
	"support-agent/internal/config"
	"support-agent/internal/domain"
	"support-agent/internal/faq"
	"support-agent/internal/logger"
)

const rootLongDesc string = `Talk to the Adigy support assistant from a terminal.

Settings come from the environment and an optional .env file, the same
variables the Lambda deployment reads. Without --aws only the local FAQ
table and HUGGINGFACE_API_KEY are used.`

type responder interface {
	Respond(ctx context.Context, query string, history []domain.Turn) string
	SendToSupport(ctx context.Context, query string, history []domain.Turn, replyTo string) (string, error)
}

type services struct {
	assistant responder
	faq       *faq.Table
}

type globalFlags struct {
	envFile string
	useAWS  bool
	debug   bool
}

type loaderFunc func(ctx context.Context, flags globalFlags) (*services, error)

func newRootCmd(load loaderFunc) *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:          "supportctl",
		Short:        "Adigy support assistant CLI",
		Long:         rootLongDesc,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Dotenv file to load before reading the environment")
	cmd.PersistentFlags().BoolVar(&flags.useAWS, "aws", false, "Use SSM, DynamoDB and SES from the default AWS profile")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	loadFor := func(cmd *cobra.Command) (*services, error) {
		return load(cmd.Context(), *flags)
	}
	cmd.AddCommand(newAskCmd(loadFor), newChatCmd(loadFor), newFAQCmd(loadFor))
	return cmd
}

func loadServices(ctx context.Context, flags globalFlags) (*services, error) {
	if err := config.LoadDotEnv(flags.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewConsole(flags.debug || cfg.Debug)

	var awsCfg *aws.Config
	if flags.useAWS {
		loaded, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		awsCfg = &loaded
	}

	c, err := app.Build(ctx, cfg, awsCfg, log)
	if err != nil {
		return nil, err
	}
	log.Debug("assistant ready", zap.String("faq_origin", c.FAQOrigin))
	return &services{assistant: c.Service, faq: c.FAQ}, nil
}
