package tasktools

import (
	"context"

	"taskchat/llm"
	"taskchat/store"
)

// Executor dispatches model-issued function calls to the task tools for one
// acting user. Built per request; holds no state beyond the tool bindings.
type Executor struct {
	tools map[string]Tool
	order []string
}

// NewExecutor binds the five task tools to the given store and user.
func NewExecutor(tasks store.TaskStore, userID string) *Executor {
	all := []Tool{
		&AddTaskTool{Tasks: tasks, UserID: userID},
		&ListTasksTool{Tasks: tasks, UserID: userID},
		&CompleteTaskTool{Tasks: tasks, UserID: userID},
		&DeleteTaskTool{Tasks: tasks, UserID: userID},
		&UpdateTaskTool{Tasks: tasks, UserID: userID},
	}

	e := &Executor{tools: make(map[string]Tool, len(all))}
	for _, t := range all {
		e.tools[t.ToolName()] = t
		e.order = append(e.order, t.ToolName())
	}
	return e
}

// Execute runs the named tool. An unknown name is an expected condition and
// comes back as a failed result, not an error.
func (e *Executor) Execute(ctx context.Context, name string, params map[string]any) map[string]any {
	tool, ok := e.tools[name]
	if !ok {
		return errorResult("unknown function: " + name)
	}
	if params == nil {
		params = map[string]any{}
	}
	return tool.Call(ctx, params)
}

// Declarations returns the tool declarations to expose to the model, in
// registration order.
func (e *Executor) Declarations() []llm.ToolDecl {
	decls := make([]llm.ToolDecl, 0, len(e.order))
	for _, name := range e.order {
		t := e.tools[name]
		decls = append(decls, llm.ToolDecl{
			Name:        t.ToolName(),
			Description: t.ToolDescription(),
			Parameters:  t.ToolPayloadSchema(),
		})
	}
	return decls
}
