package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/tutorstudio-backend/internal/platform/docstore"
	"github.com/yungbote/tutorstudio-backend/internal/platform/gcp"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/platform/openai"
	"github.com/yungbote/tutorstudio-backend/internal/platform/redis"
)

type Clients struct {
	Store          docstore.Store
	OpenAI         openai.Provider
	EmbeddingCache *redis.EmbeddingCache
	Archive        gcp.Archive
	Speech         gcp.Speech
}

// wireClients opens the document store (required) and the optional
// integrations. An optional client that fails to start is logged and left
// nil; the operations that need it then fail at call time.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	store, err := docstore.Open(ctx, log, docstore.Config{
		Driver:   cfg.StoreDriver,
		MongoURI: cfg.MongoURI,
		MongoDB:  cfg.MongoDB,
		DSN:      cfg.DSN,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init document store: %w", err)
	}
	out := Clients{Store: store}

	// Openai
	out.OpenAI = openai.NewClient(log, openai.Config{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Timeout:    cfg.OpenAITimeout,
		MaxRetries: cfg.OpenAIRetries,
	})

	// Redis
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		cache, err := redis.NewEmbeddingCache(ctx, log, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.EmbeddingTTL,
		})
		if err != nil {
			log.Warn("Redis embedding cache unavailable; using in-memory cache", "error", err)
		} else {
			out.EmbeddingCache = cache
		}
	}

	// Gcs
	if strings.TrimSpace(cfg.ArchiveBucket) != "" {
		archive, err := gcp.NewArchive(ctx, log, gcp.ArchiveConfig{
			Bucket:       cfg.ArchiveBucket,
			Prefix:       cfg.ArchivePrefix,
			EmulatorHost: cfg.StorageEmulatorHost,
		}, gcp.ClientOptionsFromEnv()...)
		if err != nil {
			log.Warn("Training archive disabled", "error", err)
		} else {
			out.Archive = archive
		}
	}

	// Gcp speech
	if cfg.SpeechEnabled {
		sp, err := gcp.NewSpeech(ctx, log, gcp.ClientOptionsFromEnv()...)
		if err != nil {
			log.Warn("Speech recognition disabled", "error", err)
		} else {
			out.Speech = sp
		}
	}

	return out, nil
}

func (c Clients) Close(ctx context.Context, log *logger.Logger) {
	if c.Speech != nil {
		if err := c.Speech.Close(); err != nil {
			log.Warn("Speech client close failed", "error", err)
		}
	}
	if c.Archive != nil {
		if err := c.Archive.Close(); err != nil {
			log.Warn("Archive client close failed", "error", err)
		}
	}
	if c.EmbeddingCache != nil {
		if err := c.EmbeddingCache.Close(); err != nil {
			log.Warn("Redis close failed", "error", err)
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(ctx); err != nil {
			log.Warn("Document store close failed", "error", err)
		}
	}
}
