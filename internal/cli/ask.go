// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/cliff/internal/storage"
)

func newAskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Ask a single question",
		Long: `Sends one question, with any --context sources, to the selected model
and prints the answer.`,
		Example: `  cliff ask "What is a goroutine?"
  cliff ask -c main.go "Explain this program"
  cliff ask -m openai -c https://example.com/notes.txt "Summarise the notes"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsk(cmd, strings.Join(args, " "))
		},
	}
}

func (a *app) runAsk(cmd *cobra.Command, question string) error {
	ctx := cmd.Context()

	bound, err := a.bind()
	if err != nil {
		return err
	}
	pctx, err := a.gather(ctx)
	if err != nil {
		return err
	}

	var answer string
	a.spin("Thinking", func() {
		answer, err = bound.Complete(ctx, pctx.Compose(question))
	})
	if err != nil {
		return err
	}

	a.renderAnswer(answer)
	a.record(ctx, &storage.Record{
		Kind:     storage.KindAsk,
		Model:    bound.Model().Name,
		Prompt:   question,
		Response: answer,
		Success:  true,
	})
	return nil
}
