// Package memory persists per-project notes and todo lists for the agent.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned for a missing key or todo.
var ErrNotFound = errors.New("not found")

// Entry is one remembered value.
type Entry struct {
	ProjectID string    `json:"project_id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Todo is one item of a project's task list.
type Todo struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

// Storage holds key/value memories per project.
type Storage interface {
	// Save inserts or overwrites key.
	Save(ctx context.Context, projectID, key, value string) error
	Recall(ctx context.Context, projectID, key string) (Entry, error)
	// List returns all entries ordered by key.
	List(ctx context.Context, projectID string) ([]Entry, error)
	Delete(ctx context.Context, projectID, key string) error
	// Update overwrites an existing key and fails with ErrNotFound otherwise.
	Update(ctx context.Context, projectID, key, value string) error
}

// TodoStore holds an ordered todo list per project.
type TodoStore interface {
	AddTodo(ctx context.Context, projectID, content string) (Todo, error)
	CompleteTodo(ctx context.Context, projectID string, id int) (Todo, error)
	RemoveTodo(ctx context.Context, projectID string, id int) error
	// Todos lists items in creation order.
	Todos(ctx context.Context, projectID string) ([]Todo, error)
	// ClearTodos removes every item and reports how many there were.
	ClearTodos(ctx context.Context, projectID string) (int, error)
}

// InMemory keeps everything in maps. It is safe for concurrent use.
type InMemory struct {
	mu      sync.Mutex
	entries map[string]map[string]Entry
	todos   map[string][]Todo
	nextID  int
	now     func() time.Time
}

var (
	_ Storage   = (*InMemory)(nil)
	_ TodoStore = (*InMemory)(nil)
)

func NewInMemory() *InMemory {
	return &InMemory{
		entries: make(map[string]map[string]Entry),
		todos:   make(map[string][]Todo),
		now:     time.Now,
	}
}

func (m *InMemory) Save(_ context.Context, projectID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[projectID] == nil {
		m.entries[projectID] = make(map[string]Entry)
	}
	m.entries[projectID][key] = Entry{ProjectID: projectID, Key: key, Value: value, UpdatedAt: m.now()}
	return nil
}

func (m *InMemory) Recall(_ context.Context, projectID, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[projectID][key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *InMemory) List(_ context.Context, projectID string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, 0, len(m.entries[projectID]))
	for _, e := range m.entries[projectID] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *InMemory) Delete(_ context.Context, projectID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[projectID][key]; !ok {
		return ErrNotFound
	}
	delete(m.entries[projectID], key)
	return nil
}

func (m *InMemory) Update(_ context.Context, projectID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[projectID][key]
	if !ok {
		return ErrNotFound
	}
	e.Value, e.UpdatedAt = value, m.now()
	m.entries[projectID][key] = e
	return nil
}

func (m *InMemory) AddTodo(_ context.Context, projectID, content string) (Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t := Todo{ID: m.nextID, Content: content, CreatedAt: m.now()}
	m.todos[projectID] = append(m.todos[projectID], t)
	return t, nil
}

func (m *InMemory) CompleteTodo(_ context.Context, projectID string, id int) (Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.todos[projectID] {
		if t.ID == id {
			m.todos[projectID][i].Done = true
			return m.todos[projectID][i], nil
		}
	}
	return Todo{}, ErrNotFound
}

func (m *InMemory) RemoveTodo(_ context.Context, projectID string, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.todos[projectID]
	for i, t := range list {
		if t.ID == id {
			m.todos[projectID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *InMemory) Todos(_ context.Context, projectID string) ([]Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Todo(nil), m.todos[projectID]...), nil
}

func (m *InMemory) ClearTodos(_ context.Context, projectID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.todos[projectID])
	delete(m.todos, projectID)
	return n, nil
}
