package app

import (
	"fmt"

	"github.com/yungbote/interview-coach/internal/clients/gemini"
	"github.com/yungbote/interview-coach/internal/clients/llm"
	"github.com/yungbote/interview-coach/internal/clients/openai"
	"github.com/yungbote/interview-coach/internal/clients/redis"
	"github.com/yungbote/interview-coach/internal/pkg/logger"
)

type Clients struct {
	AI llm.Client
	// Locker is nil unless REDIS_ADDR is configured.
	Locker *redis.Locker
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	ai, err := newAIClient(log, cfg)
	if err != nil {
		return Clients{}, err
	}

	var locker *redis.Locker
	if cfg.Redis.Addr != "" {
		locker, err = redis.NewLocker(log, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.LockTTL,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis locker: %w", err)
		}
	}

	return Clients{AI: ai, Locker: locker}, nil
}

func newAIClient(log *logger.Logger, cfg Config) (llm.Client, error) {
	var (
		client llm.Client
		err    error
	)
	switch cfg.AI.Provider {
	case ProviderGemini:
		client, err = gemini.NewClient(log, gemini.Config{
			APIKey:      cfg.AI.Gemini.APIKey,
			BaseURL:     cfg.AI.Gemini.BaseURL,
			Model:       cfg.AI.Gemini.Model,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		})
	case ProviderOpenAI:
		client, err = openai.NewClient(log, openai.Config{
			APIKey:      cfg.AI.OpenAI.APIKey,
			BaseURL:     cfg.AI.OpenAI.BaseURL,
			Model:       cfg.AI.OpenAI.Model,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		})
	case ProviderMock:
		log.Warn("using mock AI provider; feedback is fabricated")
		client = llm.NewMock()
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.AI.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s client: %w", cfg.AI.Provider, err)
	}
	if cfg.Otel.Enabled {
		client = llm.WithTracing(client, cfg.AI.Provider)
	}
	return client, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Locker != nil {
		_ = c.Locker.Close()
	}
}
