package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/running-machin/legal-advice-bot/internal/assistant"
	"github.com/running-machin/legal-advice-bot/internal/store"
)

var askStream bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single legal question from the terminal",
	Long:  `Runs the chat pipeline once against a throwaway in-memory session and prints the answer.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}

	pipeline := newPipeline(cfg, store.NewMemory(cfg.SessionTTL), nil)
	question := strings.Join(args, " ")
	sessionID := uuid.NewString()
	out := cmd.OutOrStdout()

	if !askStream {
		reply, err := pipeline.Ask(cmd.Context(), sessionID, question)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, reply.Response)
		return err
	}

	if strings.TrimSpace(question) == "" {
		return assistant.ErrEmptyMessage
	}
	for ev := range pipeline.Stream(cmd.Context(), sessionID, question) {
		var err error
		switch ev.Type {
		case assistant.EventStatus:
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", ev.Step, ev.Message)
		case assistant.EventChunk:
			_, err = fmt.Fprint(out, ev.Message, " ")
		case assistant.EventResponse, assistant.EventResponseStart:
			_, err = fmt.Fprintln(out, ev.Message)
		case assistant.EventComplete:
			_, err = fmt.Fprintln(out)
		case assistant.EventError:
			return fmt.Errorf("%s", ev.Message)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
