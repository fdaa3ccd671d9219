// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud sends prompts to a configured LLM backend over HTTP.
//
// A backend is described entirely by data (config.ModelConfig): the URL, a
// JSON body template with {{prompt}} and {{model}} placeholders, a response
// path, and an optional API key with its header template. No backend has
// dedicated code, so Gemini, OpenAI-compatible and custom endpoints all go
// through the same Complete call.
//
// # Key Types
//
//   - Client: performs one POST per prompt over a pooled http.Client
//   - ModelError: every failure, classified by Kind
//   - Bound: a Client paired with one model, used by the plan generator
//
// # Usage
//
//	client := cloud.NewClient(log)
//	answer, err := client.Complete(ctx, model, "Explain CRDTs")
//	var merr *cloud.ModelError
//	if errors.As(err, &merr) && merr.Kind == cloud.KindHTTP {
//	    fmt.Println(merr.Status)
//	}
//
// # Security
//
// API keys are never logged; log lines carry a SHA-256 fingerprint instead.
// The key is scrubbed from every error message and response snippet. Request
// headers and bodies are never logged.
package cloud
