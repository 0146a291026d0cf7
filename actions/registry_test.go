package actions

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

// mockAction is a test implementation of the Action interface
type mockAction struct {
	name    string
	similes []string
}

func (m *mockAction) Name() string        { return m.name }
func (m *mockAction) Similes() []string   { return m.similes }
func (m *mockAction) Description() string { return "mock " + m.name }

func (m *mockAction) Handle(ctx context.Context, message string) (Reply, error) {
	return Reply{Text: m.name + ": " + message}, nil
}

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry("")
	if registry == nil {
		t.Fatal("NewRegistry should not return nil")
	}

	if names := registry.List(); len(names) != 0 {
		t.Errorf("New registry should be empty, got %d actions: %v", len(names), names)
	}
	if _, ok := registry.Route("anything"); ok {
		t.Error("empty registry should not route")
	}
}

func TestRegisterAndGetAction(t *testing.T) {
	registry := NewRegistry("")
	registry.Register(&mockAction{name: "SEARCH_NEWS", similes: []string{"FIND_NEWS"}})
	registry.Register(&mockAction{name: "GET_HEADLINES", similes: []string{"TOP_NEWS"}})

	names := registry.List()
	if len(names) != 2 || names[0] != "GET_HEADLINES" || names[1] != "SEARCH_NEWS" {
		t.Errorf("List() = %v, want sorted [GET_HEADLINES SEARCH_NEWS]", names)
	}

	for _, lookup := range []string{"SEARCH_NEWS", "search_news", "find_news", " FIND_NEWS "} {
		a, ok := registry.Get(lookup)
		if !ok {
			t.Errorf("Get(%q) should find the search action", lookup)
			continue
		}
		if a.Name() != "SEARCH_NEWS" {
			t.Errorf("Get(%q) = %s, want SEARCH_NEWS", lookup, a.Name())
		}
	}

	if a, ok := registry.Get("top_news"); !ok || a.Name() != "GET_HEADLINES" {
		t.Error("simile top_news should resolve to GET_HEADLINES")
	}

	if _, ok := registry.Get("nonexistent"); ok {
		t.Error("Non-existent action should not exist")
	}
}

func TestRegistryOverwrite(t *testing.T) {
	registry := NewRegistry("")

	first := &mockAction{name: "TEST"}
	registry.Register(first)
	second := &mockAction{name: "test"}
	registry.Register(second)

	if names := registry.List(); len(names) != 1 {
		t.Errorf("Expected 1 action after overwrite, got %d", len(names))
	}

	a, ok := registry.Get("TEST")
	if !ok {
		t.Fatal("Action should exist")
	}
	if a != second {
		t.Error("Should get the second registered action")
	}
}

func TestRegistryRoute(t *testing.T) {
	registry := NewNewsRegistry(&mockNews{}, nil, zerolog.Nop())

	tests := []struct {
		message string
		want    string
	}{
		{"Find news about artificial intelligence", SearchActionName},
		{"Show me today's headlines", HeadlinesActionName},
		{"any breaking news?", HeadlinesActionName},
		{"breaking news from France", HeadlinesActionName},
		{"climate change", SearchActionName},
	}

	for _, tt := range tests {
		a, ok := registry.Route(tt.message)
		if !ok {
			t.Errorf("Route(%q) found nothing", tt.message)
			continue
		}
		if a.Name() != tt.want {
			t.Errorf("Route(%q) = %s, want %s", tt.message, a.Name(), tt.want)
		}
	}
}
