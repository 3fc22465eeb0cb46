package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

const charset = "UTF-8"

type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Config addresses outgoing support mail.
type Config struct {
	From          string
	To            []string
	SubjectPrefix string
}

// Client sends plain-text mail to the support inbox through SES.
type Client struct {
	api    sesAPI
	cfg    Config
	logger *zap.Logger
}

func New(api sesAPI, cfg Config, logger *zap.Logger) (*Client, error) {
	if api == nil {
		return nil, errors.New("mailer: api must not be nil")
	}
	cfg.From = strings.TrimSpace(cfg.From)
	if cfg.From == "" {
		return nil, errors.New("mailer: sender address must not be empty")
	}
	to := make([]string, 0, len(cfg.To))
	for _, addr := range cfg.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return nil, errors.New("mailer: at least one recipient is required")
	}
	cfg.To = to
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{api: api, cfg: cfg, logger: logger}, nil
}

// Send delivers one message. It is not retried.
func (c *Client) Send(ctx context.Context, subject, body string) error {
	if prefix := strings.TrimSpace(c.cfg.SubjectPrefix); prefix != "" {
		subject = prefix + " " + subject
	}
	out, err := c.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(c.cfg.From),
		Destination:      &types.Destination{ToAddresses: c.cfg.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String(charset)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String(charset)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("mailer: send email: %w", err)
	}
	if out != nil {
		c.logger.Debug("support email sent", zap.String("message_id", aws.ToString(out.MessageId)))
	}
	return nil
}
