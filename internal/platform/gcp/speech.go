package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/tutorstudio-backend/internal/platform/ctxutil"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

type RecognizeConfig struct {
	Encoding        string
	SampleRateHertz int
	LanguageCode    string
}

type Speech interface {
	// Recognize returns the top alternative of the first result, or "" when
	// the provider recognised nothing.
	Recognize(ctx context.Context, audio []byte, cfg RecognizeConfig) (string, error)
	Close() error
}

type speechService struct {
	log        *logger.Logger
	client     *speech.Client
	maxRetries int
	timeout    time.Duration
}

func NewSpeech(ctx context.Context, log *logger.Logger, opts ...option.ClientOption) (Speech, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &speechService{
		log:        log.With("service", "gcp.Speech"),
		client:     c,
		maxRetries: 4,
		timeout:    2 * time.Minute,
	}, nil
}

func (s *speechService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *speechService) Recognize(ctx context.Context, audio []byte, cfg RecognizeConfig) (string, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if len(audio) == 0 {
		return "", nil
	}
	enc, err := ParseEncoding(cfg.Encoding)
	if err != nil {
		return "", err
	}
	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        enc,
			SampleRateHertz: int32(cfg.SampleRateHertz),
			LanguageCode:    cfg.LanguageCode,
		},
		Audio: &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio}},
	}

	var resp *speechpb.RecognizeResponse
	backoff := 750 * time.Millisecond
	for attempt := 0; ; attempt++ {
		resp, err = s.client.Recognize(ctx, req)
		if err == nil {
			break
		}
		if !IsRetryableCode(status.Code(err)) || attempt == s.maxRetries || ctx.Err() != nil {
			return "", fmt.Errorf("speech recognize: %w", err)
		}
		s.log.Warn("Speech recognize retrying", "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return TopTranscript(resp), nil
}

func IsRetryableCode(c codes.Code) bool {
	return c == codes.Unavailable || c == codes.ResourceExhausted || c == codes.DeadlineExceeded
}

// TopTranscript is the first alternative of the first result.
func TopTranscript(resp *speechpb.RecognizeResponse) string {
	if resp == nil || len(resp.Results) == 0 {
		return ""
	}
	r := resp.Results[0]
	if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
		return ""
	}
	return strings.TrimSpace(r.Alternatives[0].Transcript)
}

// ParseEncoding maps an encoding name such as "WEBM_OPUS" to the speech
// enum. Empty means WEBM_OPUS.
func ParseEncoding(name string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	}
	v, ok := speechpb.RecognitionConfig_AudioEncoding_value[n]
	if !ok || v == int32(speechpb.RecognitionConfig_ENCODING_UNSPECIFIED) {
		return 0, fmt.Errorf("unsupported audio encoding %q", name)
	}
	return speechpb.RecognitionConfig_AudioEncoding(v), nil
}
