package tasktools

import (
	"context"
	"fmt"

	"taskchat/llm"
	"taskchat/store"
)

// taskIdentifierProperty is shared by every tool that targets an existing task.
func taskIdentifierProperty(verb string) llm.Property {
	return llm.Property{
		Type:        llm.TypeString,
		Description: fmt.Sprintf("The title or ID of the task to %s. Use the task title from the user's message.", verb),
	}
}

// taskPayload is the task shape embedded in tool results.
func taskPayload(t store.Task) map[string]any {
	return map[string]any{
		"id":          t.ID,
		"title":       t.Title,
		"description": t.Description,
		"completed":   t.Completed,
	}
}

// =============================================================================
// add_task
// =============================================================================

type AddTaskTool struct {
	Tasks  store.TaskStore
	UserID string
}

func (t *AddTaskTool) ToolName() string {
	return "add_task"
}

func (t *AddTaskTool) ToolDescription() string {
	return "Add a new task to the user's todo list"
}

func (t *AddTaskTool) ToolPayloadSchema() llm.Schema {
	return llm.Schema{
		Type: llm.TypeObject,
		Properties: llm.PropertyMap{
			"title": {
				Type:        llm.TypeString,
				Description: "The title/name of the task",
			},
			"description": {
				Type:        llm.TypeString,
				Description: "Optional description or details about the task",
			},
		},
		Required: []string{"title"},
	}
}

func (t *AddTaskTool) Call(ctx context.Context, params map[string]any) map[string]any {
	title := stringParam(params, "title")
	if title == "" {
		return errorResult("title is required")
	}

	task, err := t.Tasks.CreateTask(ctx, t.UserID, title, stringParam(params, "description"), nil)
	if err != nil {
		return errorResult(err.Error())
	}

	return successResult(map[string]any{"task": taskPayload(task)})
}

// =============================================================================
// list_tasks
// =============================================================================

type ListTasksTool struct {
	Tasks  store.TaskStore
	UserID string
}

func (t *ListTasksTool) ToolName() string {
	return "list_tasks"
}

func (t *ListTasksTool) ToolDescription() string {
	return "Get all tasks from the user's todo list"
}

func (t *ListTasksTool) ToolPayloadSchema() llm.Schema {
	return llm.Schema{Type: llm.TypeObject, Properties: llm.PropertyMap{}}
}

func (t *ListTasksTool) Call(ctx context.Context, params map[string]any) map[string]any {
	tasks, err := t.Tasks.ListTasks(ctx, t.UserID)
	if err != nil {
		return errorResult(err.Error())
	}

	payload := make([]any, 0, len(tasks))
	for _, task := range tasks {
		payload = append(payload, taskPayload(task))
	}
	return successResult(map[string]any{"tasks": payload})
}

// =============================================================================
// complete_task
// =============================================================================

type CompleteTaskTool struct {
	Tasks  store.TaskStore
	UserID string
}

func (t *CompleteTaskTool) ToolName() string {
	return "complete_task"
}

func (t *CompleteTaskTool) ToolDescription() string {
	return "Mark a task as completed. You can identify the task by its title (preferred) or ID. If user says 'complete buy groceries', use the title 'buy groceries'."
}

func (t *CompleteTaskTool) ToolPayloadSchema() llm.Schema {
	return llm.Schema{
		Type: llm.TypeObject,
		Properties: llm.PropertyMap{
			"task_identifier": taskIdentifierProperty("mark as complete"),
		},
		Required: []string{"task_identifier"},
	}
}

func (t *CompleteTaskTool) Call(ctx context.Context, params map[string]any) map[string]any {
	identifier := stringParam(params, "task_identifier")
	task, found, err := resolveTask(ctx, t.Tasks, t.UserID, identifier)
	if err != nil {
		return errorResult(err.Error())
	}
	if !found {
		return errorResult(fmt.Sprintf("Task '%s' not found", identifier))
	}

	task.Completed = true
	if _, err := t.Tasks.UpdateTask(ctx, task); err != nil {
		return errorResult(err.Error())
	}

	return successResult(map[string]any{
		"message": fmt.Sprintf("Task '%s' marked as complete", task.Title),
	})
}

// =============================================================================
// delete_task
// =============================================================================

type DeleteTaskTool struct {
	Tasks  store.TaskStore
	UserID string
}

func (t *DeleteTaskTool) ToolName() string {
	return "delete_task"
}

func (t *DeleteTaskTool) ToolDescription() string {
	return "Delete a task from the user's todo list. You can identify the task by its title (preferred) or ID. If user says 'delete homework', use the title 'homework'."
}

func (t *DeleteTaskTool) ToolPayloadSchema() llm.Schema {
	return llm.Schema{
		Type: llm.TypeObject,
		Properties: llm.PropertyMap{
			"task_identifier": taskIdentifierProperty("delete"),
		},
		Required: []string{"task_identifier"},
	}
}

func (t *DeleteTaskTool) Call(ctx context.Context, params map[string]any) map[string]any {
	identifier := stringParam(params, "task_identifier")
	task, found, err := resolveTask(ctx, t.Tasks, t.UserID, identifier)
	if err != nil {
		return errorResult(err.Error())
	}
	if !found {
		return errorResult(fmt.Sprintf("Task '%s' not found", identifier))
	}

	if err := t.Tasks.DeleteTask(ctx, t.UserID, task.ID); err != nil {
		return errorResult(err.Error())
	}

	return successResult(map[string]any{
		"message": fmt.Sprintf("Task '%s' has been deleted", task.Title),
	})
}

// =============================================================================
// update_task
// =============================================================================

type UpdateTaskTool struct {
	Tasks  store.TaskStore
	UserID string
}

func (t *UpdateTaskTool) ToolName() string {
	return "update_task"
}

func (t *UpdateTaskTool) ToolDescription() string {
	return "Update a task's title or description. You can identify the task by its title (preferred) or ID. If user says 'update homework to...', use the title 'homework'."
}

func (t *UpdateTaskTool) ToolPayloadSchema() llm.Schema {
	return llm.Schema{
		Type: llm.TypeObject,
		Properties: llm.PropertyMap{
			"task_identifier": taskIdentifierProperty("update"),
			"new_title": {
				Type:        llm.TypeString,
				Description: "New title for the task (optional)",
			},
			"new_description": {
				Type:        llm.TypeString,
				Description: "New description for the task (optional)",
			},
		},
		Required: []string{"task_identifier"},
	}
}

func (t *UpdateTaskTool) Call(ctx context.Context, params map[string]any) map[string]any {
	identifier := stringParam(params, "task_identifier")
	task, found, err := resolveTask(ctx, t.Tasks, t.UserID, identifier)
	if err != nil {
		return errorResult(err.Error())
	}
	if !found {
		return errorResult(fmt.Sprintf("Task '%s' not found", identifier))
	}

	if title := stringParam(params, "new_title"); title != "" {
		task.Title = title
	}
	if description := stringParam(params, "new_description"); description != "" {
		task.Description = description
	}

	task, err = t.Tasks.UpdateTask(ctx, task)
	if err != nil {
		return errorResult(err.Error())
	}

	return successResult(map[string]any{
		"message": "Task updated successfully",
		"task":    taskPayload(task),
	})
}
