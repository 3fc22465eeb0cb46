// Package app wires the support service from configuration. Both the Lambda
// and the CLI build through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"support-agent/internal/config"
	"support-agent/internal/faq"
	"support-agent/internal/integrations/huggingface"
	"support-agent/internal/integrations/mailer"
	"support-agent/internal/integrations/paramstore"
	"support-agent/internal/repository"
	"support-agent/internal/usecase"
)

// Parameter names under PARAM_PREFIX.
const (
	paramFAQ     = "faq"
	paramPersona = "persona"
	paramHFToken = "huggingface-token"
)

// Components is the wired object graph.
type Components struct {
	Service   *usecase.Service
	FAQ       *faq.Table
	FAQOrigin string
}

// Build creates the service. With a nil awsCfg nothing AWS-backed is wired:
// the FAQ comes from FAQFile or the defaults and the token from the
// environment.
func Build(ctx context.Context, cfg config.Config, awsCfg *aws.Config, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var params paramstore.Getter
	if awsCfg != nil && cfg.ParamPrefix != "" {
		ps, err := paramstore.New(awsssm.NewFromConfig(*awsCfg))
		if err != nil {
			return nil, fmt.Errorf("app: param store: %w", err)
		}
		params = ps
	}

	src := faq.Source{Params: params, Path: cfg.FAQFile}
	if params != nil {
		src.Parameter = paramstore.Name(cfg.ParamPrefix, paramFAQ)
	}
	table, origin, err := faq.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("app: faq table: %w", err)
	}
	logger.Info("faq table loaded", zap.String("origin", origin), zap.Int("topics", table.Len()))

	persona, err := loadPersona(ctx, params, cfg.ParamPrefix)
	if err != nil {
		return nil, err
	}

	hfOpts := []huggingface.Option{
		huggingface.WithBaseURL(cfg.HuggingFaceBaseURL),
		huggingface.WithModel(cfg.Model),
		huggingface.WithTimeout(cfg.RequestTimeout),
		huggingface.WithToken(cfg.HuggingFaceToken),
	}
	if params != nil {
		hfOpts = append(hfOpts, huggingface.WithParamStore(params, paramstore.Name(cfg.ParamPrefix, paramHFToken)))
	}
	gen := huggingface.NewClient(hfOpts...)

	opts := []usecase.Option{usecase.WithLogger(logger)}
	if cfg.CacheSize > 0 {
		cache, err := usecase.NewResponseCache(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		opts = append(opts, usecase.WithCache(cache))
	}

	if awsCfg != nil && cfg.StateTable != "" {
		store, err := repository.New(awsdynamodb.NewFromConfig(*awsCfg), cfg.StateTable)
		if err != nil {
			return nil, fmt.Errorf("app: conversation store: %w", err)
		}
		opts = append(opts, usecase.WithConversationStore(store))
	}

	if awsCfg != nil && cfg.MailEnabled() {
		m, err := mailer.New(awssesv2.NewFromConfig(*awsCfg), mailer.Config{
			From:          cfg.MailFrom,
			To:            cfg.MailTo,
			SubjectPrefix: cfg.MailSubjectPrefix,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("app: mailer: %w", err)
		}
		opts = append(opts, usecase.WithNotifier(m))
	} else {
		logger.Warn("support notifications disabled")
	}

	svc, err := usecase.NewService(table, gen, usecase.Config{
		Persona:        persona,
		SupportContact: cfg.SupportContact,
		MaxQuestionLen: cfg.MaxQuestionLen,
		HistoryTurns:   cfg.HistoryTurns,
		Retry: usecase.RetryPolicy{
			Attempts:     cfg.RetryAttempts,
			InitialDelay: cfg.RetryInitialDelay,
		},
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("app: service: %w", err)
	}

	return &Components{Service: svc, FAQ: table, FAQOrigin: origin}, nil
}

// loadPersona returns the persona override, or "" to keep the built-in one.
func loadPersona(ctx context.Context, params paramstore.Getter, prefix string) (string, error) {
	if params == nil {
		return "", nil
	}
	persona, err := params.GetParameter(ctx, paramstore.Name(prefix, paramPersona))
	if errors.Is(err, paramstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("app: persona: %w", err)
	}
	return strings.TrimSpace(persona), nil
}
