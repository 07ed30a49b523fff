package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Client is the narrow text-generation surface the services depend on.
// Implementations must return *Failure for every error.
type Client interface {
	// GenerateText is the free-text half of the contract. The services only
	// use GenerateJSON today.
	GenerateText(ctx context.Context, system string, user string) (string, error)

	// Structured output. schema is a JSON Schema object with an object at the
	// top level; providers translate it to their own dialect.
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}

type Kind string

const (
	KindTransport Kind = "transport"
	KindStatus    Kind = "status"
	KindEnvelope  Kind = "envelope"
	KindSchema    Kind = "schema"
)

// Failure is the single error type surfaced by providers.
type Failure struct {
	Provider   string
	Kind       Kind
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	var b strings.Builder
	if f.Provider != "" {
		b.WriteString(f.Provider)
		b.WriteString(" ")
	}
	b.WriteString(string(f.Kind))
	b.WriteString(" failure")
	if f.StatusCode != 0 {
		fmt.Fprintf(&b, " (http %d)", f.StatusCode)
	}
	if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (f *Failure) Unwrap() error { return f.Err }

func NewFailure(provider string, kind Kind, statusCode int, err error) *Failure {
	return &Failure{Provider: provider, Kind: kind, StatusCode: statusCode, Err: err}
}

// AsFailure returns the Failure in err's chain, or nil.
func AsFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return nil
}

// DecodeObject parses model output that should hold a single JSON object.
// Code fences some models wrap around JSON are tolerated.
func DecodeObject(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}
	if text == "" {
		return nil, errors.New("empty model output")
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, fmt.Errorf("model output is not a JSON object: %w", err)
	}
	return obj, nil
}

// CheckRequired verifies that every key listed under the schema's "required"
// is present in obj.
func CheckRequired(obj map[string]any, schema map[string]any) error {
	var missing []string
	for _, key := range requiredKeys(schema) {
		if _, ok := obj[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required missing keys: [%s]", strings.Join(missing, ", "))
	}
	return nil
}

func requiredKeys(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, v := range req {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
