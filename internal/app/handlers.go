package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/tutorstudio-backend/internal/http"
	httpH "github.com/yungbote/tutorstudio-backend/internal/http/handlers"
	"github.com/yungbote/tutorstudio-backend/internal/platform/docstore"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Catalog    *httpH.CatalogHandler
	Answer     *httpH.AnswerHandler
	FineTune   *httpH.FineTuneHandler
	Evaluation *httpH.EvaluationHandler
	Speech     *httpH.SpeechHandler
}

func wireHandlers(log *logger.Logger, cfg Config, store docstore.Store, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(store),
		Catalog:    httpH.NewCatalogHandler(services.Catalog),
		Answer:     httpH.NewAnswerHandler(services.Answer),
		FineTune:   httpH.NewFineTuneHandler(services.FineTune),
		Evaluation: httpH.NewEvaluationHandler(services.Evaluation),
		Speech:     httpH.NewSpeechHandler(services.Transcription, cfg.SpeechLanguage),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:               log,
		ServiceName:       ServiceName,
		CORSOrigins:       cfg.CORSOrigins,
		HealthHandler:     handlers.Health,
		CatalogHandler:    handlers.Catalog,
		AnswerHandler:     handlers.Answer,
		FineTuneHandler:   handlers.FineTune,
		EvaluationHandler: handlers.Evaluation,
		SpeechHandler:     handlers.Speech,
	})
}
