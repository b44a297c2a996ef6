package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := newRootCmd(log).Execute(); err != nil {
		log.Error("Command failed",
			"error", err)

		os.Exit(1)
	}
}

func newRootCmd(log *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "journal",
		Short:         "Reflective journal: Telegram bot and reflection tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(log), newSummarizeCmd())

	return root
}
