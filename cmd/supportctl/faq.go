package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const faqLongDesc string = `Show what the FAQ matcher finds for a question, without calling the model.

Examples:
  supportctl faq "free trial"
  supportctl faq --hits "how do I setup my account"`

func newFAQCmd(load func(*cobra.Command) (*services, error)) *cobra.Command {
	var showHits bool

	cmd := &cobra.Command{
		Use:   "faq <question>",
		Short: "Match a question against the FAQ table",
		Long:  faqLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := load(cmd)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			if showHits {
				for _, h := range svc.faq.Hits(query) {
					fmt.Fprintf(out, "%-6s %s\n", h.Strength, h.Key)
				}
			}
			_, err = fmt.Fprintln(out, svc.faq.Match(query))
			return err
		},
	}
	cmd.Flags().BoolVar(&showHits, "hits", false, "List matched topics and their strength")
	return cmd
}
