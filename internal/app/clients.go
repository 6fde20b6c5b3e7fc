package app

import (
	"fmt"

	"github.com/yungbote/examiner-backend/internal/clients/redis"
	"github.com/yungbote/examiner-backend/internal/platform/openai"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

type Clients struct {
	Reasoning openai.Client
	Inflight  redis.InflightGuard
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Reasoning provider
	provider, err := openai.NewClient(log, openai.Config{
		Provider: cfg.Reasoning.Provider,
		APIKey:   cfg.Reasoning.APIKey,
		BaseURL:  cfg.Reasoning.BaseURL,
		Model:    cfg.Reasoning.Model,
		Timeout:  cfg.Reasoning.Timeout,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init reasoning client: %w", err)
	}

	// Redis
	var guard redis.InflightGuard
	if cfg.RedisAddr != "" {
		g, err := redis.NewInflightGuard(log, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.InflightTTL,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis in-flight guard: %w", err)
		}
		guard = g
	}

	return Clients{Reasoning: provider, Inflight: guard}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Inflight != nil {
		_ = c.Inflight.Close()
	}
}
