// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the history log of ask, session and act runs.
//
// Every answered prompt and every executed plan is recorded in a SQLite
// database (default ~/.cliff/history.db) so the user can look back at what
// was asked and what a plan did. The log is write-only from the point of
// view of execution: plans are never resumed from it.
//
// # Usage
//
//	store, err := storage.Open(path)
//	defer store.Close()
//	err = store.Record(ctx, &storage.Record{Kind: storage.KindAsk, Model: "gemini", Prompt: q, Response: a, Success: true})
//	recent, err := store.Recent(ctx, 20)
package storage
