package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// EmbeddingCache keeps embedding vectors in Redis keyed by model and a
// hash of the input text.
type EmbeddingCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewEmbeddingCache(ctx context.Context, log *logger.Logger, cfg Config) (*EmbeddingCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &EmbeddingCache{
		log: log.With("service", "RedisEmbeddingCache"),
		rdb: rdb,
		ttl: cfg.TTL,
	}, nil
}

func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	raw, err := c.rdb.Get(ctx, Key(model, text)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		c.log.Warn("Dropping undecodable cached embedding", "error", err)
		return nil, false, nil
	}
	return vec, true, nil
}

func (c *EmbeddingCache) Set(ctx context.Context, model, text string, vec []float32) error {
	raw, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, Key(model, text), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *EmbeddingCache) Close() error {
	return c.rdb.Close()
}

// Key is "emb:{model}:{sha256(text)}".
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + model + ":" + hex.EncodeToString(sum[:])
}
