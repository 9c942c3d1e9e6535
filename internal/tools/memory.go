package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/simonyos/agentcore/internal/memory"
)

func (e *Executor) saveMemory(ctx context.Context, c *call) (string, error) {
	key := c.str("key")
	if err := e.memory.Save(ctx, c.projectID, key, c.str("value")); err != nil {
		return "", err
	}
	return fmt.Sprintf("Saved memory '%s'", key), nil
}

func (e *Executor) recallMemory(ctx context.Context, c *call) (string, error) {
	key := c.str("key")
	entry, err := e.memory.Recall(ctx, c.projectID, key)
	if errors.Is(err, memory.ErrNotFound) {
		return "", errorf(KindNotFound, "No memory found for key '%s'", key)
	}
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

func (e *Executor) listMemories(ctx context.Context, c *call) (string, error) {
	entries, err := e.memory.List(ctx, c.projectID)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "No memories saved", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d memories:\n", len(entries))
	for _, m := range entries {
		fmt.Fprintf(&sb, "- %s: %s\n", m.Key, clip(strings.ReplaceAll(m.Value, "\n", " "), 100))
	}
	return sb.String(), nil
}

func (e *Executor) deleteMemory(ctx context.Context, c *call) (string, error) {
	key := c.str("key")
	err := e.memory.Delete(ctx, c.projectID, key)
	if errors.Is(err, memory.ErrNotFound) {
		return "", errorf(KindNotFound, "No memory found for key '%s'", key)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted memory '%s'", key), nil
}

func (e *Executor) updateMemory(ctx context.Context, c *call) (string, error) {
	key := c.str("key")
	err := e.memory.Update(ctx, c.projectID, key, c.str("value"))
	if errors.Is(err, memory.ErrNotFound) {
		return "", errorf(KindNotFound, "No memory found for key '%s'", key)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated memory '%s'", key), nil
}

func (e *Executor) manageTodos(ctx context.Context, c *call) (string, error) {
	id := c.intOr("id", 0)
	switch action := c.str("action"); action {
	case "add":
		t, err := e.todos.AddTodo(ctx, c.projectID, c.str("content"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Added todo #%d: %s", t.ID, t.Content), nil
	case "complete":
		t, err := e.todos.CompleteTodo(ctx, c.projectID, id)
		if errors.Is(err, memory.ErrNotFound) {
			return "", errorf(KindNotFound, "Todo #%d not found", id)
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Completed todo #%d: %s", t.ID, t.Content), nil
	case "remove":
		err := e.todos.RemoveTodo(ctx, c.projectID, id)
		if errors.Is(err, memory.ErrNotFound) {
			return "", errorf(KindNotFound, "Todo #%d not found", id)
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Removed todo #%d", id), nil
	case "list":
		todos, err := e.todos.Todos(ctx, c.projectID)
		if err != nil {
			return "", err
		}
		return formatTodos(todos), nil
	case "clear":
		n, err := e.todos.ClearTodos(ctx, c.projectID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Cleared %d todo(s)", n), nil
	default:
		return "", errorf(KindValidation, "Unknown todo action '%s'", action)
	}
}

func formatTodos(todos []memory.Todo) string {
	if len(todos) == 0 {
		return "No todos"
	}
	done := 0
	var sb strings.Builder
	for _, t := range todos {
		mark := " "
		if t.Done {
			mark = "x"
			done++
		}
		fmt.Fprintf(&sb, "[%s] #%d %s\n", mark, t.ID, t.Content)
	}
	return fmt.Sprintf("Todos (%d/%d done):\n%s", done, len(todos), sb.String())
}
