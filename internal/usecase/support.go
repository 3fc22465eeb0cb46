package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"support-agent/internal/domain"
)

const subjectQuestionLen = 60

type EscalateInput struct {
	Question       string
	ConversationID string
	ReplyTo        string
}

type EscalateOutput struct {
	Status         string
	ConversationID string
}

// Escalate forwards a question and its persisted conversation to the
// support inbox.
func (s *Service) Escalate(ctx context.Context, in EscalateInput) (EscalateOutput, error) {
	convID := strings.TrimSpace(in.ConversationID)
	var history []domain.Turn
	if convID != "" && s.state != nil {
		// Support gets the whole transcript, not the prompt window.
		msgs, err := s.state.GetHistory(ctx, convID, 0)
		if err != nil {
			return EscalateOutput{ConversationID: convID}, newError(ErrorInternal, "dynamodb_history_error", s.internalMessage(), err)
		}
		history = completedTurns(msgs)
	}

	status, err := s.SendToSupport(ctx, in.Question, history, in.ReplyTo)
	return EscalateOutput{Status: status, ConversationID: convID}, err
}

// SendToSupport emails query and history to the support team. It is never
// retried; the returned status is meant for the user in both outcomes.
func (s *Service) SendToSupport(ctx context.Context, query string, history []domain.Turn, replyTo string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" && len(history) == 0 {
		err := newError(ErrorInvalidInput, "empty_support_request", "Please describe your issue before sending it to support.", nil)
		return err.Message, err
	}
	if s.notifier == nil {
		err := newError(ErrorNotification, "notifier_not_configured", s.notificationFailedMessage(), nil)
		return err.Message, err
	}

	subject := "Support request"
	if query != "" {
		subject += ": " + truncate(query, subjectQuestionLen)
	}
	body := composeSupportMessage(query, history, strings.TrimSpace(replyTo), time.Now().UTC())
	if err := s.notifier.Send(ctx, subject, body); err != nil {
		s.logger.Error("support notification failed", zap.Error(err))
		classified := newError(ErrorNotification, "send_failed", s.notificationFailedMessage(), err)
		return classified.Message, classified
	}

	s.logger.Info("support notification sent", zap.Int("history_turns", len(history)))
	return "Your question has been sent to our support team. We'll get back to you within one business day.", nil
}

func (s *Service) notificationFailedMessage() string {
	return fmt.Sprintf("Sorry, we couldn't reach the support team right now. Please email %s directly.", s.supportContact)
}

func composeSupportMessage(query string, history []domain.Turn, replyTo string, at time.Time) string {
	var b strings.Builder
	b.WriteString("A customer asked for help from the support assistant.\n\n")
	fmt.Fprintf(&b, "Received: %s\n", at.Format(time.RFC3339))
	if replyTo != "" {
		fmt.Fprintf(&b, "Reply to: %s\n", replyTo)
	}
	b.WriteString("\nQuestion:\n")
	if query == "" {
		b.WriteString("(none given)\n")
	} else {
		b.WriteString(query + "\n")
	}
	if len(history) > 0 {
		b.WriteString("\nConversation:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "%s %s\n", roleLabel(t.Role), strings.TrimSpace(t.Content))
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
