package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"support-agent/internal/domain"
)

type AskInput struct {
	Question       string
	ConversationID string
}

type AskOutput struct {
	Answer         string
	ConversationID string
	Source         string
}

// Ask answers a question within a persisted conversation, creating one when
// no id is given. Only successful exchanges are stored.
func (s *Service) Ask(ctx context.Context, in AskInput) (AskOutput, error) {
	question, err := s.validateQuestion(in.Question)
	if err != nil {
		return AskOutput{}, err
	}
	if s.state == nil {
		return AskOutput{}, newError(ErrorInternal, "conversation_store_unavailable", s.internalMessage(), nil)
	}

	convID := strings.TrimSpace(in.ConversationID)
	existingTurns := 0
	var history []domain.Turn
	if convID == "" {
		convID = newUUID()
	} else {
		existingTurns, err = s.state.GetConversationTurnCount(ctx, convID)
		if err != nil {
			return AskOutput{}, newError(ErrorInternal, "dynamodb_turn_count_error", s.internalMessage(), err)
		}
		msgs, err := s.state.GetHistory(ctx, convID, s.historyTurns)
		if err != nil {
			return AskOutput{}, newError(ErrorInternal, "dynamodb_history_error", s.internalMessage(), err)
		}
		history = completedTurns(msgs)
	}

	reply, err := s.Answer(ctx, question, history)
	if err != nil {
		return AskOutput{ConversationID: convID}, err
	}

	if err := s.state.SaveCompletedTurn(ctx, convID, question, reply.Text, reply.Source, existingTurns+1); err != nil {
		return AskOutput{}, newError(ErrorInternal, "dynamodb_write_error", s.internalMessage(), err)
	}
	s.logger.Info("question answered",
		zap.String("conversation_id", convID),
		zap.String("source", reply.Source),
		zap.Int("turn", existingTurns+1),
	)

	return AskOutput{
		Answer:         reply.Text,
		ConversationID: convID,
		Source:         reply.Source,
	}, nil
}

func (s *Service) validateQuestion(raw string) (string, error) {
	question := strings.TrimSpace(raw)
	if question == "" {
		return "", newError(ErrorInvalidInput, "empty_question", "Please enter a question.", nil)
	}
	if utf8.RuneCountInString(question) > s.maxQuestionLen {
		return "", newError(ErrorInvalidInput, "question_too_long", fmt.Sprintf(
			"Your question is too long. Please keep it under %d characters.", s.maxQuestionLen), nil)
	}
	return question, nil
}
