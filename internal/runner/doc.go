// Package runner drives one research turn against the Anthropic Messages API: it sends a
// budgeted window of the conversation, prints assistant text and executes requested tools
// until the model answers without tool calls or the step limit is reached.
//
// A tool_use and its tool_result stay adjacent, and the send window never separates them.
//
//	user(text) -> assistant(tool_use) -> user(tool_result) -> ... -> assistant(text)
package runner
