package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/interview-coach/internal/clients/llm"
	"github.com/yungbote/interview-coach/internal/pkg/logger"
)

const providerName = "openai"

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type client struct {
	log         *logger.Logger
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (llm.Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	temp := cfg.Temperature
	if temp <= 0 {
		temp = 0.2
	}
	return &client{
		log:         log.With("service", "OpenAIClient"),
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		temperature: temp,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

// do performs a single request. Every error it returns is an *llm.Failure.
func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return llm.NewFailure(providerName, llm.KindTransport, 0, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return llm.NewFailure(providerName, llm.KindTransport, 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return llm.NewFailure(providerName, llm.KindTransport, 0, err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return llm.NewFailure(providerName, llm.KindTransport, resp.StatusCode, readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("OpenAI request failed", "path", path, "status", resp.StatusCode)
		return llm.NewFailure(providerName, llm.KindStatus, resp.StatusCode,
			&openAIHTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)})
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return llm.NewFailure(providerName, llm.KindEnvelope, resp.StatusCode, fmt.Errorf("openai decode error: %w", err))
	}
	return nil
}

// -------------------- Responses API --------------------

type inputMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`

	Text struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`

	Temperature float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) (text string, refusal string) {
	var out strings.Builder
	refusal = resp.Refusal
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			switch {
			case c.Type == "output_text" && c.Text != "":
				out.WriteString(c.Text)
			case c.Type == "refusal" && c.Refusal != "" && refusal == "":
				refusal = c.Refusal
			}
		}
	}
	return out.String(), refusal
}

func (c *client) newRequest(system, user string) responsesRequest {
	return responsesRequest{
		Model: c.model,
		Input: []inputMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
	}
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "" {
		return nil, llm.NewFailure(providerName, llm.KindSchema, 0, errors.New("schemaName required"))
	}
	if schema == nil {
		return nil, llm.NewFailure(providerName, llm.KindSchema, 0, errors.New("schema required"))
	}

	req := c.newRequest(system, user)
	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": StrictSchema(schema),
		"strict": true,
	}

	var resp responsesResponse
	if err := c.do(ctx, http.MethodPost, "/v1/responses", req, &resp); err != nil {
		return nil, err
	}
	jsonText, refusal := extractOutputText(resp)
	if refusal != "" {
		return nil, llm.NewFailure(providerName, llm.KindEnvelope, 0, fmt.Errorf("model refused: %s", refusal))
	}
	if strings.TrimSpace(jsonText) == "" {
		return nil, llm.NewFailure(providerName, llm.KindEnvelope, 0, errors.New("no output_text found in response"))
	}

	obj, err := llm.DecodeObject(jsonText)
	if err != nil {
		return nil, llm.NewFailure(providerName, llm.KindSchema, 0, err)
	}
	if err := llm.CheckRequired(obj, schema); err != nil {
		return nil, llm.NewFailure(providerName, llm.KindSchema, 0, err)
	}
	return obj, nil
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	var resp responsesResponse
	if err := c.do(ctx, http.MethodPost, "/v1/responses", c.newRequest(system, user), &resp); err != nil {
		return "", err
	}
	text, refusal := extractOutputText(resp)
	if refusal != "" {
		return "", llm.NewFailure(providerName, llm.KindEnvelope, 0, fmt.Errorf("model refused: %s", refusal))
	}
	if strings.TrimSpace(text) == "" {
		return "", llm.NewFailure(providerName, llm.KindEnvelope, 0, errors.New("no output_text found in response"))
	}
	return text, nil
}

// StrictSchema adapts a JSON Schema to structured-output strict mode: every
// object is closed and lists all of its properties as required. Array length
// bounds are dropped.
func StrictSchema(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for key, val := range schema {
		switch key {
		case "minItems", "maxItems":
			continue
		case "properties":
			props, _ := val.(map[string]any)
			converted := make(map[string]any, len(props))
			required := make([]string, 0, len(props))
			for name, raw := range props {
				if sub, ok := raw.(map[string]any); ok {
					converted[name] = StrictSchema(sub)
					required = append(required, name)
				}
			}
			sort.Strings(required)
			out[key] = converted
			out["required"] = required
		case "items":
			if sub, ok := val.(map[string]any); ok {
				out[key] = StrictSchema(sub)
			}
		case "required":
			if _, ok := out["required"]; !ok {
				out[key] = val
			}
		default:
			out[key] = val
		}
	}
	if out["type"] == "object" {
		out["additionalProperties"] = false
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
