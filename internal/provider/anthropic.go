// Package provider constructs the Anthropic Messages API client.
package provider

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const DefaultModel = anthropic.ModelClaude3_7SonnetLatest
const APIVersion = "2023-06-01"

// NewAnthropicClient returns a client for apiKey. An empty key falls back to the
// SDK's ANTHROPIC_API_KEY lookup. Extra options are applied last.
func NewAnthropicClient(apiKey string, opts ...option.RequestOption) *anthropic.Client {
	base := []option.RequestOption{option.WithHeader("anthropic-version", APIVersion)}
	if apiKey != "" {
		base = append(base, option.WithAPIKey(apiKey))
	}
	c := anthropic.NewClient(append(base, opts...)...)
	return &c
}
