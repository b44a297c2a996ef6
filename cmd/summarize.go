package main

import (
	"fmt"
	"io"
	"strings"

	"reflectivejournal/internal/reflection"

	"github.com/spf13/cobra"
)

func newSummarizeCmd() *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "summarize [text...]",
		Short: "Summarize reflection text from arguments or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd.InOrStdin(), cmd.OutOrStdout(), style, args)
		},
	}

	cmd.Flags().StringVarP(&style, "style", "s", string(reflection.StyleBullets), "summary style: bullets or narrative")

	return cmd
}

// runSummarize prints one line per bullet, or the narrative on one line.
func runSummarize(in io.Reader, out io.Writer, style string, args []string) error {
	text := strings.Join(args, " ")

	if len(args) == 0 {
		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	summary := reflection.Summarize(text, reflection.ParseStyle(style))

	for _, line := range summary.Lines() {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	return nil
}
