package app

import (
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/services"
)

type Services struct {
	Answer        services.AnswerService
	Catalog       services.CatalogService
	FineTune      services.FineTuneService
	Poller        *services.FineTunePoller
	Embedding     services.EmbeddingService
	Evaluation    services.EvaluationService
	Transcription services.TranscriptionService
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, repos Repos) Services {
	log.Info("Wiring services...")

	poller := services.NewFineTunePoller(log, services.PollerConfig{
		Interval:   cfg.PollInterval,
		MaxRetries: cfg.PollMaxRetries,
	}, clients.OpenAI, repos.LlmModel)

	// A typed nil *redis.EmbeddingCache would make a non-nil interface.
	var cache services.EmbeddingCache
	if clients.EmbeddingCache != nil {
		cache = clients.EmbeddingCache
	}

	embedder := services.SharedEmbeddingService(log, services.EmbeddingConfig{
		Model:       cfg.EmbeddingModel,
		Concurrency: cfg.AnswerConcurrency,
	}, clients.OpenAI, cache)

	return Services{
		Answer:  services.NewAnswerService(log, repos.Answer, repos.TestInfo),
		Catalog: services.NewCatalogService(log, repos.TestInfo, repos.Question, repos.Answer, repos.LevelAnswer, repos.LlmModel),
		FineTune: services.NewFineTuneService(log, services.FineTuneConfig{
			BaseModel:         cfg.BaseModel,
			AnswerConcurrency: cfg.AnswerConcurrency,
		}, clients.OpenAI, repos.Question, repos.Answer, repos.LevelAnswer, repos.NormalAnswer,
			repos.LlmModel, repos.Prompt, poller, clients.Archive),
		Poller:        poller,
		Embedding:     embedder,
		Evaluation:    services.NewEvaluationService(log, repos.Answer, repos.LevelAnswer, repos.NormalAnswer, embedder),
		Transcription: services.NewTranscriptionService(log, clients.Speech),
	}
}
