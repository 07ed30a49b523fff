package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/interview-coach/internal/clients/llm"
	"github.com/yungbote/interview-coach/internal/pkg/logger"
)

const providerName = "gemini"

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
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &client{
		log:         log.With("service", "GeminiClient"),
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      *float64       `json:"temperature,omitempty"`
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *client) newRequest(system, user string) generateRequest {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: user}}}},
	}
	if strings.TrimSpace(system) != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	if c.temperature > 0 {
		t := c.temperature
		req.GenerationConfig = &generationConfig{Temperature: &t}
	}
	return req
}

func (c *client) generate(ctx context.Context, req generateRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", llm.NewFailure(providerName, llm.KindTransport, 0, err)
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", llm.NewFailure(providerName, llm.KindTransport, 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", llm.NewFailure(providerName, llm.KindTransport, 0, err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", llm.NewFailure(providerName, llm.KindTransport, resp.StatusCode, readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("API error: %d", resp.StatusCode)
		var apiErr apiErrorBody
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		c.log.Warn("Gemini request failed", "model", c.model, "status", resp.StatusCode)
		return "", llm.NewFailure(providerName, llm.KindStatus, resp.StatusCode, errors.New(msg))
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", llm.NewFailure(providerName, llm.KindEnvelope, resp.StatusCode, fmt.Errorf("gemini decode error: %w", err))
	}
	if out.PromptFeedback.BlockReason != "" {
		return "", llm.NewFailure(providerName, llm.KindEnvelope, 0, fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason))
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", llm.NewFailure(providerName, llm.KindEnvelope, 0, errors.New("unexpected API response structure or no content"))
	}
	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", llm.NewFailure(providerName, llm.KindEnvelope, 0, errors.New("empty candidate text"))
	}
	return text.String(), nil
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	return c.generate(ctx, c.newRequest(system, user))
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schema == nil {
		return nil, llm.NewFailure(providerName, llm.KindSchema, 0, errors.New("schema required"))
	}
	req := c.newRequest(system, user)
	if req.GenerationConfig == nil {
		req.GenerationConfig = &generationConfig{}
	}
	req.GenerationConfig.ResponseMimeType = "application/json"
	req.GenerationConfig.ResponseSchema = ToSchema(schema)

	text, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}
	obj, err := llm.DecodeObject(text)
	if err != nil {
		return nil, llm.NewFailure(providerName, llm.KindSchema, 0, fmt.Errorf("%s: %w", schemaName, err))
	}
	if err := llm.CheckRequired(obj, schema); err != nil {
		return nil, llm.NewFailure(providerName, llm.KindSchema, 0, fmt.Errorf("%s: %w", schemaName, err))
	}
	return obj, nil
}

var schemaKeys = map[string]bool{
	"type":        true,
	"format":      true,
	"description": true,
	"nullable":    true,
	"enum":        true,
	"properties":  true,
	"required":    true,
	"items":       true,
	"minItems":    true,
	"maxItems":    true,
}

// ToSchema converts a JSON Schema object into the OpenAPI subset accepted by
// responseSchema: upper-case type names and no unsupported keywords.
func ToSchema(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for key, val := range schema {
		if !schemaKeys[key] {
			continue
		}
		switch key {
		case "type":
			if s, ok := val.(string); ok {
				out[key] = strings.ToUpper(s)
			}
		case "properties":
			props, _ := val.(map[string]any)
			converted := make(map[string]any, len(props))
			for name, raw := range props {
				if sub, ok := raw.(map[string]any); ok {
					converted[name] = ToSchema(sub)
				}
			}
			out[key] = converted
		case "items":
			if sub, ok := val.(map[string]any); ok {
				out[key] = ToSchema(sub)
			}
		default:
			out[key] = val
		}
	}
	return out
}
