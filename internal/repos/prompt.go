package repos

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/tutorstudio-backend/internal/platform/docstore"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

type PromptRepo interface {
	// Get returns the system prompt for level and whether one is stored.
	Get(ctx context.Context, level types.Tier) (string, bool, error)
	// Seed upserts prompts by level.
	Seed(ctx context.Context, prompts []types.SystemPrompt) error
}

type promptRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewPromptRepo(store docstore.Store, baseLog *logger.Logger) PromptRepo {
	return &promptRepo{store: store, log: baseLog.With("repo", "PromptRepo")}
}

func (r *promptRepo) Get(ctx context.Context, level types.Tier) (string, bool, error) {
	var p types.SystemPrompt
	ok, err := r.store.FindOne(ctx, CollPrompts, docstore.Filter{"level": level}, &p)
	if err != nil || !ok {
		return "", false, err
	}
	return p.SystemPrompt, true, nil
}

func (r *promptRepo) Seed(ctx context.Context, prompts []types.SystemPrompt) error {
	for _, p := range prompts {
		if _, err := r.store.UpsertOne(ctx, CollPrompts, docstore.Filter{"level": p.Level}, p); err != nil {
			return fmt.Errorf("seed prompt %s: %w", p.Level, err)
		}
	}
	r.log.Debug("Prompts upserted", "count", len(prompts))
	return nil
}

type promptFile struct {
	Prompts []types.SystemPrompt `yaml:"prompts"`
}

// LoadPromptFile reads system prompts from a YAML file of the form
//
//	prompts:
//	  - level: low
//	    system_prompt: ...
func LoadPromptFile(path string) ([]types.SystemPrompt, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}
	var pf promptFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("parse prompt file: %w", err)
	}
	for i, p := range pf.Prompts {
		lv, err := types.ParseTier(string(p.Level))
		if err != nil {
			return nil, fmt.Errorf("prompt %d: %w", i, err)
		}
		pf.Prompts[i].Level = lv
	}
	return pf.Prompts, nil
}
