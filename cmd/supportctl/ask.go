package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const askLongDesc string = `Ask the assistant a single question and print the answer.

Examples:
  supportctl ask "How do I cancel my subscription?"
  supportctl ask --aws "What is a good target ACOS?"`

func newAskCmd(load func(*cobra.Command) (*services, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question",
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := load(cmd)
			if err != nil {
				return err
			}
			answer := svc.assistant.Respond(cmd.Context(), strings.Join(args, " "), nil)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), answer)
			return err
		},
	}
}
