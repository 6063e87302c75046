package agent

// TurnObserver receives progress events while a turn is processed. The CLI
// renders them as a spinner and tool lines; the websocket bridge forwards
// them to the client.
type TurnObserver interface {
	Thinking()
	CallingTool(toolName string, params map[string]any)
	ToolComplete(toolName string)
}

type nopObserver struct{}

func (nopObserver) Thinking()                          {}
func (nopObserver) CallingTool(string, map[string]any) {}
func (nopObserver) ToolComplete(string)                {}

// NopObserver returns an observer that ignores all events.
func NopObserver() TurnObserver {
	return nopObserver{}
}
