package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	goopenai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/tutorstudio-backend/internal/observability"
	"github.com/yungbote/tutorstudio-backend/internal/platform/apierr"
	"github.com/yungbote/tutorstudio-backend/internal/platform/ctxutil"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

const (
	RoleSystem    = goopenai.ChatMessageRoleSystem
	RoleUser      = goopenai.ChatMessageRoleUser
	RoleAssistant = goopenai.ChatMessageRoleAssistant
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type FineTuneJobRequest struct {
	TrainingFileID string
	BaseModel      string
	Suffix         string
}

// FineTuneJob is the provider's view of a fine-tuning job. Status is the
// raw provider string; map it with types.MapProviderStatus.
type FineTuneJob struct {
	ID             string
	Status         string
	FineTunedModel string
}

// Provider is the subset of the OpenAI API the service drives.
type Provider interface {
	UploadTrainingFile(ctx context.Context, name string, data []byte) (string, error)
	CreateFineTuneJob(ctx context.Context, req FineTuneJobRequest) (*FineTuneJob, error)
	RetrieveFineTuneJob(ctx context.Context, jobID string) (*FineTuneJob, error)
	ChatCompletion(ctx context.Context, model string, messages []Message, temperature float32) (string, error)
	Embed(ctx context.Context, model string, inputs []string) ([][]float32, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type client struct {
	log        *logger.Logger
	api        *goopenai.Client
	maxRetries uint
}

// NewClient never fails on a missing API key: every call then returns a
// configuration error, so the service can start without OpenAI access.
func NewClient(log *logger.Logger, cfg Config) Provider {
	clog := log.With("service", "OpenAIClient")
	if strings.TrimSpace(cfg.APIKey) == "" {
		clog.Warn("OPENAI_API_KEY not set; OpenAI calls will fail with configuration_error")
		return &client{log: clog}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	oc := goopenai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		oc.BaseURL = base
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &client{
		log:        clog,
		api:        goopenai.NewClientWithConfig(oc),
		maxRetries: uint(cfg.MaxRetries) + 1,
	}
}

func (c *client) ready() error {
	if c.api == nil {
		return apierr.Configuration("OPENAI_API_KEY is not configured")
	}
	return nil
}

func (c *client) UploadTrainingFile(ctx context.Context, name string, data []byte) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	ctx, span := observability.StartSpan(ctxutil.Default(ctx), "openai.files.upload",
		attribute.String("file.name", name), attribute.Int("file.bytes", len(data)))
	f, err := c.api.CreateFileBytes(ctx, goopenai.FileBytesRequest{
		Name:    name,
		Bytes:   data,
		Purpose: goopenai.PurposeFineTune,
	})
	observability.EndSpan(span, err)
	if err != nil {
		return "", fmt.Errorf("upload training file: %w", err)
	}
	c.log.Info("Uploaded training file", "file_id", f.ID, "bytes", len(data))
	return f.ID, nil
}

func (c *client) CreateFineTuneJob(ctx context.Context, req FineTuneJobRequest) (*FineTuneJob, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	ctx, span := observability.StartSpan(ctxutil.Default(ctx), "openai.fine_tuning.create",
		attribute.String("model", req.BaseModel), attribute.String("suffix", req.Suffix))
	job, err := c.api.CreateFineTuningJob(ctx, goopenai.FineTuningJobRequest{
		TrainingFile: req.TrainingFileID,
		Model:        req.BaseModel,
		Suffix:       req.Suffix,
	})
	observability.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("create fine-tuning job: %w", err)
	}
	return toJob(job), nil
}

func (c *client) RetrieveFineTuneJob(ctx context.Context, jobID string) (*FineTuneJob, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	ctx, span := observability.StartSpan(ctxutil.Default(ctx), "openai.fine_tuning.retrieve",
		attribute.String("job_id", jobID))
	job, err := retry(ctx, c, "fine_tuning.retrieve", func() (goopenai.FineTuningJob, error) {
		return c.api.RetrieveFineTuningJob(ctx, jobID)
	})
	observability.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("retrieve fine-tuning job %s: %w", jobID, err)
	}
	return toJob(job), nil
}

func (c *client) ChatCompletion(ctx context.Context, model string, messages []Message, temperature float32) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	ctx, span := observability.StartSpan(ctxutil.Default(ctx), "openai.chat.completions",
		attribute.String("model", model), attribute.Int("messages", len(msgs)))
	resp, err := retry(ctx, c, "chat.completions", func() (goopenai.ChatCompletionResponse, error) {
		return c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
			Model:       model,
			Messages:    msgs,
			Temperature: temperature,
		})
	})
	observability.EndSpan(span, err)
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion (%s): no choices returned", model)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *client) Embed(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	ctx, span := observability.StartSpan(ctxutil.Default(ctx), "openai.embeddings",
		attribute.String("model", model), attribute.Int("inputs", len(inputs)))
	resp, err := retry(ctx, c, "embeddings", func() (goopenai.EmbeddingResponse, error) {
		return c.api.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
			Input: inputs,
			Model: goopenai.EmbeddingModel(model),
		})
	})
	observability.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("embeddings (%s): %w", model, err)
	}

	out := make([][]float32, len(inputs))
	for i, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) {
			idx = i
		}
		out[idx] = d.Embedding
	}
	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("embeddings (%s): missing vector for input %d", model, i)
		}
	}
	return out, nil
}

func toJob(j goopenai.FineTuningJob) *FineTuneJob {
	return &FineTuneJob{ID: j.ID, Status: j.Status, FineTunedModel: j.FineTunedModel}
}

// retry re-runs idempotent calls on rate limiting and server errors.
func retry[T any](ctx context.Context, c *client, op string, fn func() (T, error)) (T, error) {
	attempt := 0
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 10 * time.Second
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if !IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		c.log.Warn("OpenAI request retrying", "op", op, "attempt", attempt, "error", err)
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.maxRetries))
}

// IsRetryable reports whether err is a rate limit or a provider-side
// failure worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
