package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/tutorstudio-backend/internal/http/handlers"
	httpMW "github.com/yungbote/tutorstudio-backend/internal/http/middleware"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	HealthHandler     *httpH.HealthHandler
	CatalogHandler    *httpH.CatalogHandler
	AnswerHandler     *httpH.AnswerHandler
	FineTuneHandler   *httpH.FineTuneHandler
	EvaluationHandler *httpH.EvaluationHandler
	SpeechHandler     *httpH.SpeechHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Root)
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Catalog
	if cfg.CatalogHandler != nil {
		r.GET("/test_infos", cfg.CatalogHandler.ListTestInfos)
		r.GET("/datalists", cfg.CatalogHandler.DataLists)
		r.GET("/questions/:test_id/:subject_id", cfg.CatalogHandler.GetQuestions)
	}

	// Answers
	if cfg.AnswerHandler != nil {
		r.POST("/answer/:test_id/:subject_id", cfg.AnswerHandler.SaveAnswer)
		r.GET("/answer_status/:test_id/:subject_id", cfg.AnswerHandler.AnswerStatus)
		r.GET("/answer/:test_id/:subject_id/:question_num/:answer_type", cfg.AnswerHandler.GetSpecificAnswer)
	}

	// Fine-tuning
	if cfg.FineTuneHandler != nil {
		r.POST("/finetune/:test_id/:subject_id/:level", cfg.FineTuneHandler.CreateFinetuningModel)
		r.GET("/finetune/status/:job_id", cfg.FineTuneHandler.GetFinetuningStatus)
		r.DELETE("/finetune/poll/:job_id", cfg.FineTuneHandler.CancelPolling)
		r.POST("/finetuned_answers", cfg.FineTuneHandler.CreateFinetunedAnswers)
		r.POST("/baseline_answers", cfg.FineTuneHandler.CreateBaselineAnswers)
	}

	// Evaluation
	if cfg.EvaluationHandler != nil {
		r.GET("/evaluate/:test_id/:subject_id/:level", cfg.EvaluationHandler.Evaluate)
	}

	// Speech
	if cfg.SpeechHandler != nil {
		r.POST("/speech_to_text", cfg.SpeechHandler.SpeechToText)
	}

	return r
}
