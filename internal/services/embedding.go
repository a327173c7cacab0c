package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/platform/openai"
)

const (
	DefaultEmbeddingModel     = "text-embedding-3-small"
	defaultEmbeddingBatchSize = 64
)

// EmbeddingCache stores vectors keyed by (model, text). The redis
// EmbeddingCache satisfies it.
type EmbeddingCache interface {
	Get(ctx context.Context, model, text string) ([]float32, bool, error)
	Set(ctx context.Context, model, text string, vec []float32) error
}

type memoryEmbeddingCache struct {
	mu   sync.RWMutex
	vecs map[string][]float32
}

func NewMemoryEmbeddingCache() EmbeddingCache {
	return &memoryEmbeddingCache{vecs: map[string][]float32{}}
}

func (c *memoryEmbeddingCache) Get(_ context.Context, model, text string) ([]float32, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vecs[model+"\x00"+text]
	return v, ok, nil
}

func (c *memoryEmbeddingCache) Set(_ context.Context, model, text string, vec []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vecs[model+"\x00"+text] = vec
	return nil
}

type EmbeddingConfig struct {
	Model       string
	BatchSize   int
	Concurrency int
}

type EmbeddingService interface {
	// EmbedAll returns one vector per input, in input order. Blank inputs
	// get a nil vector.
	EmbedAll(ctx context.Context, texts []string) ([][]float32, error)
	SemanticSimilarity(ctx context.Context, a, b string) (float64, error)
}

type embeddingService struct {
	log      *logger.Logger
	cfg      EmbeddingConfig
	provider openai.Provider
	cache    EmbeddingCache
}

var (
	embedderOnce sync.Once
	embedder     EmbeddingService
)

// SharedEmbeddingService returns the process-wide embedder, building it
// from the first caller's arguments.
func SharedEmbeddingService(baseLog *logger.Logger, cfg EmbeddingConfig, provider openai.Provider, cache EmbeddingCache) EmbeddingService {
	embedderOnce.Do(func() {
		embedder = NewEmbeddingService(baseLog, cfg, provider, cache)
	})
	return embedder
}

func NewEmbeddingService(baseLog *logger.Logger, cfg EmbeddingConfig, provider openai.Provider, cache EmbeddingCache) EmbeddingService {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultEmbeddingBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cache == nil {
		cache = NewMemoryEmbeddingCache()
	}
	return &embeddingService{
		log:      baseLog.With("service", "EmbeddingService"),
		cfg:      cfg,
		provider: provider,
		cache:    cache,
	}
}

func (s *embeddingService) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	found := make(map[string][]float32, len(texts))
	var missing []string
	for _, t := range texts {
		if _, ok := found[t]; ok {
			continue
		}
		// The embeddings API rejects blank input; a nil vector scores 0.
		if strings.TrimSpace(t) == "" {
			found[t] = nil
			continue
		}
		v, ok, err := s.cache.Get(ctx, s.cfg.Model, t)
		if err != nil {
			s.log.Warn("Embedding cache read failed", "error", err)
		}
		if ok {
			found[t] = v
			continue
		}
		found[t] = nil
		missing = append(missing, t)
	}

	if len(missing) > 0 {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.Concurrency)
		for start := 0; start < len(missing); start += s.cfg.BatchSize {
			batch := missing[start:min(start+s.cfg.BatchSize, len(missing))]
			g.Go(func() error {
				vecs, err := s.provider.Embed(gctx, s.cfg.Model, batch)
				if err != nil {
					return err
				}
				if len(vecs) != len(batch) {
					return fmt.Errorf("embeddings: want %d vectors got %d", len(batch), len(vecs))
				}
				mu.Lock()
				for i, t := range batch {
					found[t] = vecs[i]
				}
				mu.Unlock()
				for i, t := range batch {
					if err := s.cache.Set(gctx, s.cfg.Model, t, vecs[i]); err != nil {
						s.log.Warn("Embedding cache write failed", "error", err)
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		s.log.Debug("Embedded texts", "requested", len(texts), "computed", len(missing))
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = found[t]
	}
	return out, nil
}

func (s *embeddingService) SemanticSimilarity(ctx context.Context, a, b string) (float64, error) {
	vecs, err := s.EmbedAll(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	return math.Max(-1, math.Min(1, vectorCosine(vecs[0], vecs[1]))), nil
}
