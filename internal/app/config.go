package app

import (
	"time"

	"github.com/yungbote/tutorstudio-backend/internal/platform/envutil"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

const ServiceName = "tutorstudio-backend"

type Config struct {
	LogMode string
	Port    string

	StoreDriver string
	MongoURI    string
	MongoDB     string
	DSN         string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAITimeout time.Duration
	OpenAIRetries int

	BaseModel         string
	PollInterval      time.Duration
	PollMaxRetries    int
	AnswerConcurrency int

	EmbeddingModel string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	EmbeddingTTL   time.Duration

	CORSOrigins       []string
	SystemPromptsFile string

	ArchiveBucket       string
	ArchivePrefix       string
	StorageEmulatorHost string

	SpeechEnabled  bool
	SpeechLanguage string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		LogMode: envutil.String("LOG_MODE", "development"),
		Port:    envutil.String("PORT", "8000"),

		StoreDriver: envutil.String("DOC_STORE_DRIVER", "mongo"),
		MongoURI:    envutil.String("MONGODB_URL", "mongodb://localhost:27017"),
		MongoDB:     envutil.String("MONGODB_DB_NAME", "ai_tutor"),
		DSN:         envutil.String("DB_DSN", ""),

		OpenAIAPIKey:  envutil.String("OPENAI_API_KEY", ""),
		OpenAIBaseURL: envutil.String("OPENAI_BASE_URL", ""),
		OpenAITimeout: envutil.Seconds("OPENAI_TIMEOUT_SECONDS", 180*time.Second),
		OpenAIRetries: envutil.Int("OPENAI_MAX_RETRIES", 2),

		BaseModel:         envutil.String("FINETUNE_BASE_MODEL", "gpt-4o-mini-2024-07-18"),
		PollInterval:      envutil.Seconds("FINETUNE_POLL_INTERVAL_SECONDS", 30*time.Second),
		PollMaxRetries:    envutil.Int("FINETUNE_POLL_MAX_RETRIES", 5),
		AnswerConcurrency: envutil.Int("FINETUNE_ANSWER_CONCURRENCY", 4),

		EmbeddingModel: envutil.String("EMBEDDING_MODEL", "text-embedding-3-small"),
		RedisAddr:      envutil.String("REDIS_ADDR", ""),
		RedisPassword:  envutil.String("REDIS_PASSWORD", ""),
		RedisDB:        envutil.Int("REDIS_DB", 0),
		EmbeddingTTL:   envutil.Seconds("EMBEDDING_CACHE_TTL_SECONDS", 7*24*time.Hour),

		CORSOrigins:       envutil.CSV("CORS_ORIGINS", []string{"http://localhost:3000"}),
		SystemPromptsFile: envutil.String("SYSTEM_PROMPTS_FILE", ""),

		ArchiveBucket:       envutil.String("TRAINING_ARCHIVE_BUCKET", ""),
		ArchivePrefix:       envutil.String("TRAINING_ARCHIVE_PREFIX", "training"),
		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),

		SpeechEnabled:  envutil.Bool("SPEECH_ENABLED", true),
		SpeechLanguage: envutil.String("SPEECH_LANGUAGE_CODE", "ko-KR"),
	}
	if cfg.OpenAIAPIKey == "" {
		log.Warn("OPENAI_API_KEY is empty; fine-tuning, answer generation and evaluation will fail until it is set")
	}
	return cfg
}
