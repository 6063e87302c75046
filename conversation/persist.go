package conversation

import (
	"context"
	"encoding/json"

	"github.com/hashicorp/go-hclog"

	"taskchat/agent"
	"taskchat/store"
)

// serializeInvocations validates and serializes a turn's tool invocations for
// storage. Any record missing one of its four fields poisons the whole
// payload: nil is returned and the assistant message is stored without tool
// metadata rather than failing the turn.
func serializeInvocations(invocations []agent.ToolInvocation, log hclog.Logger) *string {
	if len(invocations) == 0 {
		return nil
	}

	for _, inv := range invocations {
		if inv.ToolName == "" || inv.Parameters == nil || inv.Result == nil || inv.Timestamp.IsZero() {
			log.Warn("dropping tool invocation metadata", "reason", "incomplete record", "tool", inv.ToolName)
			return nil
		}
	}

	raw, err := json.Marshal(invocations)
	if err != nil {
		log.Warn("dropping tool invocation metadata", "reason", "serialization failed", "error", err)
		return nil
	}

	s := string(raw)
	return &s
}

// persistTurn commits the completed turn: user message, assistant message,
// and the conversation's activity timestamp, atomically via AppendTurn.
func persistTurn(ctx context.Context, messages store.MessageStore, conversationID, userContent string, result *agent.TurnResult, log hclog.Logger) (store.Message, store.Message, error) {
	serialized := serializeInvocations(result.Invocations, log)
	return messages.AppendTurn(ctx, conversationID, userContent, result.Content, serialized)
}
