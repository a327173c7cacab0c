package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/tutorstudio-backend/internal/platform/apierr"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

func TestMissingKeyIsConfigurationError(t *testing.T) {
	p := NewClient(logger.Nop(), Config{})
	_, err := p.ChatCompletion(context.Background(), "m", nil, 0.3)
	if !apierr.Is(err, apierr.CodeConfiguration) {
		t.Fatalf("ChatCompletion: want configuration_error got=%v", err)
	}
	if _, err := p.RetrieveFineTuneJob(context.Background(), "job"); !apierr.Is(err, apierr.CodeConfiguration) {
		t.Fatalf("RetrieveFineTuneJob: want configuration_error got=%v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&goopenai.APIError{HTTPStatusCode: 429}, true},
		{&goopenai.APIError{HTTPStatusCode: 503}, true},
		{&goopenai.APIError{HTTPStatusCode: 400}, false},
		{fmt.Errorf("wrapped: %w", &goopenai.RequestError{HTTPStatusCode: 502}), true},
		{errors.New("plain"), false},
		{nil, false},
	}
	for i, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Fatalf("case %d: want=%v got=%v", i, tc.want, got)
		}
	}
}

func TestChatCompletionRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"busy","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "c1",
			"choices": []map[string]any{{
				"index":   0,
				"message": map[string]any{"role": "assistant", "content": "풀이"},
			}},
		})
	}))
	defer srv.Close()

	p := NewClient(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL + "/v1", Timeout: 5 * time.Second, MaxRetries: 2})
	got, err := p.ChatCompletion(context.Background(), "ft:model", []Message{{Role: RoleUser, Content: "q"}}, 0.3)
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}
	if got != "풀이" {
		t.Fatalf("ChatCompletion: want=풀이 got=%q", got)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("calls: want=2 got=%d", n)
	}
}

func TestEmbedOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float32{0, 1}},
				{"object": "embedding", "index": 0, "embedding": []float32{1, 0}},
			},
		})
	}))
	defer srv.Close()

	p := NewClient(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL + "/v1"})
	vecs, err := p.Embed(context.Background(), "text-embedding-3-small", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Fatalf("Embed order: got=%v", vecs)
	}
}
