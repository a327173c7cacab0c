package handlers

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tutorstudio-backend/internal/http/response"
	"github.com/yungbote/tutorstudio-backend/internal/platform/apierr"
	"github.com/yungbote/tutorstudio-backend/internal/services"
)

const maxAudioBytes = 10 << 20

type SpeechHandler struct {
	speech   services.TranscriptionService
	language string
}

// NewSpeechHandler uses language for requests that do not name one.
func NewSpeechHandler(speech services.TranscriptionService, language string) *SpeechHandler {
	return &SpeechHandler{speech: speech, language: language}
}

// POST /speech_to_text
//
// Multipart form: audio (file), optional encoding, sample_rate_hertz and
// language_code.
func (h *SpeechHandler) SpeechToText(c *gin.Context) {
	fh, err := c.FormFile("audio")
	if err != nil {
		response.RespondErr(c, apierr.InvalidArgument("audio file is required: %v", err))
		return
	}
	if fh.Size > maxAudioBytes {
		response.RespondErr(c, apierr.InvalidArgument("audio exceeds %d bytes", maxAudioBytes))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	defer f.Close()
	audio, err := io.ReadAll(io.LimitReader(f, maxAudioBytes+1))
	if err != nil {
		response.RespondErr(c, err)
		return
	}

	opts := services.SpeechOptions{
		Encoding:     c.PostForm("encoding"),
		LanguageCode: c.DefaultPostForm("language_code", h.language),
	}
	if raw := c.PostForm("sample_rate_hertz"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.RespondErr(c, apierr.InvalidArgument("sample_rate_hertz: %v", err))
			return
		}
		opts.SampleRateHertz = n
	}

	text, err := h.speech.Transcribe(c.Request.Context(), audio, opts)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"text": text})
}
