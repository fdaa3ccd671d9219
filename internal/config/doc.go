// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads, validates and edits the cliff configuration file.
//
// The file holds a set of named model definitions (endpoint, request body
// template, response path, optional API key) plus which of them is the
// default and which is currently selected, and settings for plan execution,
// context gathering and the history log.
//
// # Key Types
//
//   - Config: the whole file
//   - ModelConfig: one backend definition
//   - ResolvedModel: the definition chosen for one invocation
//
// # File Location
//
// In order of precedence:
//   - the --config flag
//   - CLIFF_CONFIG
//   - ~/.cliff/config.toml
//
// TOML is the primary format; a path ending in .json or .yaml/.yml is read
// and written in that format instead. Files are written atomically with mode
// 0600 because they may contain API keys.
//
// # Model Resolution
//
// Resolve picks, in order: the explicit override (--model or CLIFF_MODEL),
// the persisted current model, the default model. Nothing configured yields
// ErrNoActiveModel; an override naming an unknown model yields
// ErrModelNotFound.
//
// # Usage
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    return err
//	}
//	m, err := cfg.Resolve(override)
package config
