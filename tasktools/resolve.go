package tasktools

import (
	"context"
	"errors"
	"strings"

	"taskchat/store"
)

// resolveTask locates a task by identifier for the given user. Resolution
// order: exact id, then case-insensitive exact title, then case-insensitive
// substring of the title (first match in creation order). The exact-title
// tier keeps "buy groceries" from landing on "buy groceries and wine" when a
// task with the exact title exists; duplicate identical titles still resolve
// to an arbitrary one, so callers needing determinism must pass ids.
func resolveTask(ctx context.Context, tasks store.TaskStore, userID, identifier string) (store.Task, bool, error) {
	task, err := tasks.GetTask(ctx, userID, identifier)
	if err == nil {
		return task, true, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Task{}, false, err
	}

	all, err := tasks.ListTasks(ctx, userID)
	if err != nil {
		return store.Task{}, false, err
	}

	needle := strings.ToLower(identifier)
	for _, t := range all {
		if strings.ToLower(t.Title) == needle {
			return t, true, nil
		}
	}
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Title), needle) {
			return t, true, nil
		}
	}

	return store.Task{}, false, nil
}
