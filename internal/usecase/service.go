package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"support-agent/internal/domain"
	"support-agent/internal/faq"
	"support-agent/internal/integrations/huggingface"
)

const (
	defaultMaxQuestion    = 500
	defaultHistoryTurns   = 5
	DefaultSupportContact = "support@adigy.com"
	statusComplete        = "complete"
)

// Generator is the remote text-generation endpoint. Configured reports
// huggingface.ErrMissingCredential when no token is available.
type Generator interface {
	Configured(ctx context.Context) error
	Generate(ctx context.Context, prompt string, params domain.GenerationParams) (string, error)
}

type StateReadWriter interface {
	GetConversationTurnCount(ctx context.Context, conversationID string) (int, error)
	GetHistory(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
	SaveCompletedTurn(ctx context.Context, conversationID, question, answer, source string, turns int) error
}

// Notifier delivers a plain-text message to the support inbox.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// Config holds the tunables of a Service. Zero values select defaults.
type Config struct {
	Persona        string
	SupportContact string
	MaxQuestionLen int
	HistoryTurns   int
	Retry          RetryPolicy
}

type Option func(*Service)

func WithConversationStore(s StateReadWriter) Option {
	return func(svc *Service) { svc.state = s }
}

func WithNotifier(n Notifier) Option {
	return func(svc *Service) { svc.notifier = n }
}

func WithCache(c *ResponseCache) Option {
	return func(svc *Service) { svc.cache = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// Service answers support questions from the FAQ table and the remote model.
type Service struct {
	table    *faq.Table
	gen      Generator
	state    StateReadWriter
	notifier Notifier
	cache    *ResponseCache
	logger   *zap.Logger

	persona        string
	supportContact string
	maxQuestionLen int
	historyTurns   int
	retry          RetryPolicy
}

// Reply is a successful answer and where it came from.
type Reply struct {
	Text   string
	Source string
}

func NewService(table *faq.Table, gen Generator, cfg Config, opts ...Option) (*Service, error) {
	if table == nil {
		return nil, errors.New("usecase: faq table must not be nil")
	}
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	s := &Service{
		table:          table,
		gen:            gen,
		logger:         zap.NewNop(),
		persona:        strings.TrimSpace(cfg.Persona),
		supportContact: strings.TrimSpace(cfg.SupportContact),
		maxQuestionLen: cfg.MaxQuestionLen,
		historyTurns:   cfg.HistoryTurns,
		retry:          cfg.Retry.withDefaults(),
	}
	if s.persona == "" {
		s.persona = DefaultPersona
	}
	if s.supportContact == "" {
		s.supportContact = DefaultSupportContact
	}
	if s.maxQuestionLen <= 0 {
		s.maxQuestionLen = defaultMaxQuestion
	}
	if s.historyTurns <= 0 {
		s.historyTurns = defaultHistoryTurns
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Respond answers query given the conversation so far. It always returns
// text for the user: failures are rendered as an apology naming the failure
// and the support contact.
func (s *Service) Respond(ctx context.Context, query string, history []domain.Turn) string {
	reply, err := s.Answer(ctx, query, history)
	if err != nil {
		return UserMessage(err)
	}
	return reply.Text
}

// Answer is Respond with the failure kept as a typed *Error.
func (s *Service) Answer(ctx context.Context, query string, history []domain.Turn) (Reply, error) {
	if err := s.gen.Configured(ctx); err != nil {
		if !errors.Is(err, huggingface.ErrMissingCredential) {
			s.logger.Error("credential lookup failed", zap.Error(err))
			return Reply{}, s.classify(err, 1)
		}
		s.logger.Error("inference endpoint not configured", zap.Error(err))
		return Reply{}, newError(ErrorConfiguration, "missing_credential", s.configurationMessage(), err)
	}

	if cached, ok := s.cache.Get(query); ok {
		s.logger.Debug("response cache hit")
		return Reply{Text: cached, Source: domain.SourceCache}, nil
	}

	if answer, ok := s.table.Lookup(query); ok {
		s.logger.Debug("faq exact match")
		return Reply{Text: answer, Source: domain.SourceFAQ}, nil
	}

	prompt := buildPrompt(s.persona, s.table.Match(query), lastTurns(history, s.historyTurns), query)

	var raw string
	attempts, err := s.retry.do(ctx, s.logger, func(ctx context.Context) error {
		out, err := s.gen.Generate(ctx, prompt, generationParams)
		if err != nil {
			return err
		}
		raw = out
		return nil
	})
	if err != nil {
		classified := s.classify(err, attempts)
		s.logger.Warn("generation failed",
			zap.String("code", string(classified.Code)),
			zap.String("reason", classified.Reason),
			zap.Uint("attempts", attempts),
			zap.Error(err),
		)
		return Reply{}, classified
	}

	text := cleanGeneratedText(raw, prompt)
	if text == "" {
		return Reply{}, newError(ErrorMalformedResponse, "empty_generation", genericApology, nil)
	}
	s.cache.Add(query, text)
	return Reply{Text: text, Source: domain.SourceModel}, nil
}

func (s *Service) classify(err error, attempts uint) *Error {
	switch {
	case isTimeout(err):
		return newError(ErrorTransientNetwork, "timeout", fmt.Sprintf(
			"I apologize, but the request timed out after %d attempts. Please try again in a moment or contact %s.",
			attempts, s.supportContact), err)
	case isRateLimited(err):
		return newError(ErrorTransientNetwork, "rate_limited", fmt.Sprintf(
			"I apologize, but our assistant is receiving too many requests right now (rate limited after %d attempts). "+
				"Please try again in a moment or contact %s.", attempts, s.supportContact), err)
	case isMalformed(err):
		return newError(ErrorMalformedResponse, "malformed_body", genericApology, err)
	}
	if status, ok := upstreamStatusCode(err); ok {
		return newError(ErrorFatalAPI, fmt.Sprintf("http_%d", status), fmt.Sprintf(
			"I apologize, but I encountered an error (Status Code: %d). Please try again in a moment or contact %s.",
			status, s.supportContact), err)
	}
	return newError(ErrorUnexpected, "unexpected", fmt.Sprintf(
		"I apologize, but an error occurred: %v. Please try again or contact %s.", err, s.supportContact), err)
}

func (s *Service) configurationMessage() string {
	return fmt.Sprintf("I'm sorry, the support assistant is not configured right now. Please contact %s for help.", s.supportContact)
}

func (s *Service) internalMessage() string {
	return fmt.Sprintf("I apologize, but I couldn't load this conversation. Please try again or contact %s.", s.supportContact)
}

// completedTurns replays persisted exchanges that finished successfully.
func completedTurns(msgs []domain.Message) []domain.Turn {
	turns := make([]domain.Turn, 0, 2*len(msgs))
	for _, m := range msgs {
		if m.Status != statusComplete {
			continue
		}
		turns = append(turns, m.Turns()...)
	}
	return turns
}

var newUUID = func() string {
	return uuid.NewString()
}
