// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	promptctx "github.com/jeranaias/cliff/internal/context"
	"github.com/jeranaias/cliff/internal/storage"
)

const sessionPrompt = "cliff> "

func newSessionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Start an interactive conversation",
		Long: `Starts a conversation with the selected model. Each question is sent
together with the previous turns. Type "exit" or "quit", or press Ctrl+D,
to end the session.`,
		Example: `  cliff session
  cliff session -c design.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSession(cmd)
		},
	}
}

func (a *app) runSession(cmd *cobra.Command) error {
	ctx := cmd.Context()

	bound, err := a.bind()
	if err != nil {
		return err
	}
	pctx, err := a.gather(ctx)
	if err != nil {
		return err
	}

	if a.stdinTTY {
		fmt.Fprintf(a.errOut, "Session with %s. Type exit or quit to leave.\n", bound.Model().Name)
	}

	input := a.newLineReader()
	defer input.Close()

	conv := &promptctx.Conversation{}
	log := a.component("session")

	for {
		if ctx.Err() != nil {
			break
		}

		line, err := input.ReadLine(sessionPrompt)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		question := strings.TrimSpace(line)
		if question == "" {
			continue
		}
		if strings.EqualFold(question, "exit") || strings.EqualFold(question, "quit") {
			break
		}

		var answer string
		a.spin("Thinking", func() {
			answer, err = bound.Complete(ctx, pctx.Compose(conv.Prompt(question)))
		})
		if err != nil {
			// A failed turn does not end the session
			log.WithError(err).Debug("session turn failed")
			fmt.Fprintf(a.errOut, "Error: %v\n", err)
			continue
		}

		a.renderAnswer(answer)
		conv.Add(question, answer)
		a.record(ctx, &storage.Record{
			Kind:     storage.KindSession,
			Model:    bound.Model().Name,
			Prompt:   question,
			Response: answer,
			Success:  true,
		})
	}

	log.WithField("turns", len(conv.Turns())+conv.Dropped()).Debug("session ended")
	return nil
}
