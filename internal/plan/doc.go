// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package plan turns an LLM's proposed actions into steps and runs them.
//
// The LLM answers a planning prompt in a small line-oriented notation:
//
//	THOUGHT: create the file then show it
//	CREATE_FILE path=hello.txt
//	hello
//	END
//	RUN_COMMAND command=cat hello.txt
//	ASK_USER question=Anything else?
//
// # Key Types
//
//   - Step: one CreateFile, RunCommand or AskUser action
//   - Plan: the ordered steps parsed from one LLM answer
//   - Executor: runs a confirmed plan and isolates step failures
//   - Summary: per-step results of one run
//   - Generator: builds the planning prompt and parses the answer
//
// # Usage
//
//	gen := plan.NewGenerator(cloud.Bind(client, model), log)
//	p, raw, err := gen.Generate(ctx, "make a hello world script", pctx, nil)
//
//	exec := plan.NewExecutor(&tools.FileWriter{}, &tools.ShellRunner{}, log)
//	summary := exec.Execute(ctx, p, confirm, ask)
//
// Nothing touches the filesystem or spawns a process until the confirm
// callback has approved the whole plan.
package plan
