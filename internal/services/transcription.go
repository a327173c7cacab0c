package services

import (
	"context"
	"strings"

	"github.com/yungbote/tutorstudio-backend/internal/platform/apierr"
	"github.com/yungbote/tutorstudio-backend/internal/platform/gcp"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

const (
	DefaultSpeechEncoding   = "WEBM_OPUS"
	DefaultSpeechSampleRate = 48000
	DefaultSpeechLanguage   = "ko-KR"
)

type SpeechOptions struct {
	Encoding        string
	SampleRateHertz int
	LanguageCode    string
}

func (o SpeechOptions) withDefaults() SpeechOptions {
	if strings.TrimSpace(o.Encoding) == "" {
		o.Encoding = DefaultSpeechEncoding
	}
	if o.SampleRateHertz <= 0 {
		o.SampleRateHertz = DefaultSpeechSampleRate
	}
	if strings.TrimSpace(o.LanguageCode) == "" {
		o.LanguageCode = DefaultSpeechLanguage
	}
	return o
}

type TranscriptionService interface {
	// Transcribe returns the top alternative of the first result, "" when
	// nothing was recognised.
	Transcribe(ctx context.Context, audio []byte, opts SpeechOptions) (string, error)
}

type transcriptionService struct {
	log        *logger.Logger
	recognizer gcp.Speech
}

// NewTranscriptionService accepts a nil recognizer; calls then fail with a
// configuration error.
func NewTranscriptionService(baseLog *logger.Logger, recognizer gcp.Speech) TranscriptionService {
	return &transcriptionService{
		log:        baseLog.With("service", "TranscriptionService"),
		recognizer: recognizer,
	}
}

func (s *transcriptionService) Transcribe(ctx context.Context, audio []byte, opts SpeechOptions) (string, error) {
	if s.recognizer == nil {
		return "", apierr.Configuration("speech recognition is not configured")
	}
	if len(audio) == 0 {
		return "", apierr.InvalidArgument("audio is empty")
	}
	opts = opts.withDefaults()
	if _, err := gcp.ParseEncoding(opts.Encoding); err != nil {
		return "", apierr.InvalidArgument("%v", err)
	}
	text, err := s.recognizer.Recognize(ctx, audio, gcp.RecognizeConfig{
		Encoding:        opts.Encoding,
		SampleRateHertz: opts.SampleRateHertz,
		LanguageCode:    opts.LanguageCode,
	})
	if err != nil {
		s.log.Error("Transcription failed", "bytes", len(audio), "error", err)
		return "", apierr.Provider(err)
	}
	s.log.Debug("Transcribed audio", "bytes", len(audio), "language", opts.LanguageCode)
	return text, nil
}
