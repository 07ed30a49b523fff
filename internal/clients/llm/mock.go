package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Mock is a deterministic local provider. With no hooks set it fabricates
// schema-shaped output, so the service runs end to end without an API key.
type Mock struct {
	TextFunc func(ctx context.Context, system, user string) (string, error)
	JSONFunc func(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error)

	mu    sync.Mutex
	calls []MockCall
}

type MockCall struct {
	System     string
	User       string
	SchemaName string
}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) record(c MockCall) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()
}

// Calls returns a snapshot of the prompts received so far.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *Mock) GenerateText(ctx context.Context, system string, user string) (string, error) {
	m.record(MockCall{System: system, User: user})
	if err := ctx.Err(); err != nil {
		return "", NewFailure("mock", KindTransport, 0, err)
	}
	if m.TextFunc != nil {
		return m.TextFunc(ctx, system, user)
	}
	return "mock response", nil
}

func (m *Mock) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	m.record(MockCall{System: system, User: user, SchemaName: schemaName})
	if err := ctx.Err(); err != nil {
		return nil, NewFailure("mock", KindTransport, 0, err)
	}
	if m.JSONFunc != nil {
		return m.JSONFunc(ctx, system, user, schemaName, schema)
	}
	obj, ok := fabricate(schema, schemaName).(map[string]any)
	if !ok {
		return nil, NewFailure("mock", KindSchema, 0, fmt.Errorf("schema %q is not an object", schemaName))
	}
	return obj, nil
}

func fabricate(schema map[string]any, name string) any {
	typ, _ := schema["type"].(string)
	switch strings.ToLower(typ) {
	case "object":
		out := map[string]any{}
		props, _ := schema["properties"].(map[string]any)
		for key, raw := range props {
			sub, _ := raw.(map[string]any)
			out[key] = fabricate(sub, key)
		}
		return out
	case "array":
		items, _ := schema["items"].(map[string]any)
		n := 3
		if v, ok := schema["minItems"].(int); ok && v > n {
			n = v
		}
		if v, ok := schema["maxItems"].(int); ok && v > 0 && v < n {
			n = v
		}
		out := make([]any, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, fabricate(items, fmt.Sprintf("%s %d", name, i+1)))
		}
		return out
	case "number", "integer":
		return 5.0
	case "boolean":
		return true
	default:
		return "mock " + name
	}
}
