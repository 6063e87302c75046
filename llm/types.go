package llm

import "context"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID   string         // Provider-assigned call id (empty for providers without one)
	Name string         // Declared tool name
	Args map[string]any // Decoded arguments
}

// ToolResult carries the outcome of an executed tool call back to the model.
// It is the payload of a RoleTool message.
type ToolResult struct {
	CallID string         // Matches ToolCall.ID where the provider uses ids
	Name   string         // Tool that produced the result
	Result map[string]any // Structured result, serialized per provider
}

// Message represents a single conversation message.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall  // Set on assistant messages that requested calls
	ToolResult *ToolResult // Set on RoleTool messages
}

// NewTextMessage creates a simple text-only message
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: text}
}

// NewToolResultMessage creates a RoleTool message carrying an execution result
func NewToolResultMessage(call ToolCall, result map[string]any) Message {
	return Message{
		Role: RoleTool,
		ToolResult: &ToolResult{
			CallID: call.ID,
			Name:   call.Name,
			Result: result,
		},
	}
}

// ToolDecl declares a callable function to the model.
type ToolDecl struct {
	Name        string
	Description string
	Parameters  Schema
}

type ChatRequest struct {
	Model     string
	Messages  []Message
	Tools     []ToolDecl
	MaxTokens int
}

type ChatResponse struct {
	ID           string
	Content      string
	ToolCalls    []ToolCall // Non-empty when the model requested function calls
	FinishReason string
	Usage        Usage
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Provider is a model vendor adapter. Implementations must be safe for
// concurrent use; the engine shares one provider across requests.
type Provider interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}
