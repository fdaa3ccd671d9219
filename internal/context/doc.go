// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package context gathers the extra material a prompt is grounded on.
//
// Context sources come from the --context flag: http:// and https://
// sources are fetched, everything else is read as a local file. The
// gathered text is composed into the final prompt as
//
//	Question: <instruction>
//
//	Context: Context from <source>:
//	<text>
//
// # Key Types
//
//   - Gatherer: reads files and fetches URLs with a size cap and rate limit
//   - PromptContext: the ordered sources of one invocation
//   - Conversation: question and answer turns of an interactive session
package context
