package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"support-agent/internal/domain"
)

const chatLongDesc string = `Start an interactive session. The conversation is kept in memory
and sent along with every question.

Commands:
  /support [note]   email the conversation to the support team
  /reset            forget the conversation
  /quit             leave (Ctrl-D works too)`

func newChatCmd(load func(*cobra.Command) (*services, error)) *cobra.Command {
	var replyTo string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive support session",
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := load(cmd)
			if err != nil {
				return err
			}
			s := &chatSession{assistant: svc.assistant, replyTo: replyTo, out: cmd.OutOrStdout()}
			return s.run(cmd.Context(), cmd.InOrStdin())
		},
	}
	cmd.Flags().StringVar(&replyTo, "email", "", "Address support should reply to")
	return cmd
}

type chatSession struct {
	assistant responder
	replyTo   string
	out       io.Writer
	history   []domain.Turn
}

func (s *chatSession) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, "Hi! Ask me anything about Adigy. Type /quit to leave.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/reset":
			s.history = nil
			fmt.Fprintln(s.out, "Conversation cleared.")
		case line == "/support" || strings.HasPrefix(line, "/support "):
			note := strings.TrimSpace(strings.TrimPrefix(line, "/support"))
			status, _ := s.assistant.SendToSupport(ctx, note, s.history, s.replyTo)
			fmt.Fprintln(s.out, status)
		default:
			answer := s.assistant.Respond(ctx, line, s.history)
			s.history = append(s.history, domain.UserTurn(line), domain.AssistantTurn(answer))
			fmt.Fprintln(s.out, answer)
		}
	}
}
