package conversation

import (
	"encoding/json"
	"strings"

	"taskchat/agent"
	"taskchat/llm"
	"taskchat/store"
)

// FormatContext converts stored messages into the role/content sequence the
// model consumes. The model transcript only round-trips free text, so for
// assistant messages that recorded tool invocations a summary of the tool
// names is appended to the content. Malformed stored metadata is non-fatal;
// the raw content is used unmodified.
func FormatContext(msgs []store.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		content := m.Content
		if m.Role == string(llm.RoleAssistant) && m.ToolInvocations != nil {
			if summary := invocationSummary(*m.ToolInvocations); summary != "" {
				content += summary
			}
		}
		out = append(out, llm.NewTextMessage(llm.Role(m.Role), content))
	}
	return out
}

func invocationSummary(raw string) string {
	var invocations []agent.ToolInvocation
	if err := json.Unmarshal([]byte(raw), &invocations); err != nil || len(invocations) == 0 {
		return ""
	}

	names := make([]string, 0, len(invocations))
	for _, inv := range invocations {
		names = append(names, inv.ToolName)
	}
	return "\n[Tool invocations: " + strings.Join(names, ", ") + "]"
}
