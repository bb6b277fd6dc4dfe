package windowing_test

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/petasbytes/research-agent/internal/windowing"
)

func txt(s string) anthropic.ContentBlockParamUnion {
	return anthropic.ContentBlockParamUnion{OfText: &anthropic.TextBlockParam{Text: s}}
}

// use is a tool_use block without name or input, for grouping tests.
func use(id string) anthropic.ContentBlockParamUnion {
	return anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{ID: id}}
}

// call is a tool_use block whose name and input are counted.
func call(id, name string, input any) anthropic.ContentBlockParamUnion {
	return anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{ID: id, Name: name, Input: input}}
}

// result is a tool_result without payload.
func result(id string, isErr bool) anthropic.ContentBlockParamUnion {
	tr := anthropic.ToolResultBlockParam{ToolUseID: id}
	if isErr {
		tr.IsError = param.NewOpt(true)
	}
	return anthropic.ContentBlockParamUnion{OfToolResult: &tr}
}

func resultStr(id, s string) anthropic.ContentBlockParamUnion {
	return anthropic.NewToolResultBlock(id, s, false)
}

// resultNested wraps the text blocks of nested as tool_result content.
func resultNested(id string, nested []anthropic.ContentBlockParamUnion) anthropic.ContentBlockParamUnion {
	content := make([]anthropic.ToolResultBlockParamContentUnion, 0, len(nested))
	for _, b := range nested {
		if b.OfText != nil {
			content = append(content, anthropic.ToolResultBlockParamContentUnion{OfText: b.OfText})
		}
	}
	return anthropic.ContentBlockParamUnion{
		OfToolResult: &anthropic.ToolResultBlockParam{ToolUseID: id, Content: content},
	}
}

func asst(blocks ...anthropic.ContentBlockParamUnion) anthropic.MessageParam {
	return anthropic.MessageParam{Role: anthropic.MessageParamRoleAssistant, Content: blocks}
}

func usr(blocks ...anthropic.ContentBlockParamUnion) anthropic.MessageParam {
	return anthropic.MessageParam{Role: anthropic.MessageParamRoleUser, Content: blocks}
}

// single and pair build expected groups.
func single(i int) windowing.Group { return windowing.Group{Kind: windowing.GroupSingleton, Start: i, End: i + 1} }
func pair(i int) windowing.Group { return windowing.Group{Kind: windowing.GroupPair, Start: i, End: i + 2} }

// singles returns n consecutive singleton groups from index 0.
func singles(n int) []windowing.Group {
	out := make([]windowing.Group, n)
	for i := range out {
		out[i] = single(i)
	}
	return out
}
