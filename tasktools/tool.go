// Package tasktools implements the task-management functions exposed to the
// model and the executor that dispatches model-issued calls against the task
// store. Expected misses (unknown task, unknown function) come back as
// {success:false} results, never as errors, so the agent loop can feed them
// straight back to the model.
package tasktools

import (
	"context"

	"taskchat/llm"
)

// Tool defines the interface for assistant tools
type Tool interface {
	// ToolName returns the name of the tool
	ToolName() string

	// ToolDescription returns a description of what the tool does
	ToolDescription() string

	// ToolPayloadSchema returns the JSON schema for the tool's input parameters
	ToolPayloadSchema() llm.Schema

	// Call executes the tool with the given parameters and returns a
	// structured result with at least a "success" key
	Call(ctx context.Context, params map[string]any) map[string]any
}

func successResult(fields map[string]any) map[string]any {
	result := map[string]any{"success": true}
	for k, v := range fields {
		result[k] = v
	}
	return result
}

func errorResult(message string) map[string]any {
	return map[string]any{"success": false, "error": message}
}

// stringParam extracts an optional string parameter, tolerating absent keys
// and non-string values from loosely-typed model arguments.
func stringParam(params map[string]any, key string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
