package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/yungbote/tutorstudio-backend/internal/platform/gcp"
	"github.com/yungbote/tutorstudio-backend/internal/platform/openai"
)

type fakeProvider struct {
	mu sync.Mutex

	uploadErr error
	createErr error
	job       openai.FineTuneJob

	// statuses is served one per RetrieveFineTuneJob call; the last entry
	// repeats.
	statuses    []string
	retrieveErr error
	retrieves   int
	model       string

	chatErr   error
	chatCalls [][]openai.Message
	chatModel []string

	embedErr   error
	embedCalls int
	embedded   []string

	uploaded []byte
	suffix   string
}

func (f *fakeProvider) UploadTrainingFile(_ context.Context, _ string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploaded = append([]byte(nil), data...)
	return "file-1", nil
}

func (f *fakeProvider) CreateFineTuneJob(_ context.Context, req openai.FineTuneJobRequest) (*openai.FineTuneJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.suffix = req.Suffix
	job := f.job
	return &job, nil
}

func (f *fakeProvider) RetrieveFineTuneJob(_ context.Context, jobID string) (*openai.FineTuneJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieves++
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	st := "running"
	if len(f.statuses) > 0 {
		i := min(f.retrieves-1, len(f.statuses)-1)
		st = f.statuses[i]
	}
	out := &openai.FineTuneJob{ID: jobID, Status: st}
	if st == "succeeded" {
		out.FineTunedModel = f.model
	}
	return out, nil
}

func (f *fakeProvider) retrieveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.retrieves
}

func (f *fakeProvider) ChatCompletion(_ context.Context, model string, messages []openai.Message, _ float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chatErr != nil {
		return "", f.chatErr
	}
	f.chatCalls = append(f.chatCalls, messages)
	f.chatModel = append(f.chatModel, model)
	return "solution to " + messages[1].Content, nil
}

// Embed maps each text onto a small bag-of-letters vector so identical
// texts embed identically.
func (f *fakeProvider) Embed(_ context.Context, _ string, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	f.embedCalls++
	f.embedded = append(f.embedded, inputs...)
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		v := make([]float32, 26)
		for _, r := range strings.ToLower(in) {
			if r >= 'a' && r <= 'z' {
				v[r-'a']++
			}
		}
		out[i] = v
	}
	return out, nil
}

var errUpstream = errors.New("upstream exploded")

type fakeSpeech struct {
	text string
	err  error
	got  gcp.RecognizeConfig
}

func (f *fakeSpeech) Recognize(_ context.Context, _ []byte, cfg gcp.RecognizeConfig) (string, error) {
	f.got = cfg
	return f.text, f.err
}

func (f *fakeSpeech) Close() error { return nil }

type fakeArchive struct {
	keys []string
	err  error
}

func (f *fakeArchive) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "gs://bucket/" + key, nil
}
