package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/tutorstudio-backend/internal/http/handlers"
	"github.com/yungbote/tutorstudio-backend/internal/platform/docstore"
	"github.com/yungbote/tutorstudio-backend/internal/platform/openai"
	"github.com/yungbote/tutorstudio-backend/internal/repos"
	"github.com/yungbote/tutorstudio-backend/internal/repos/testutil"
	"github.com/yungbote/tutorstudio-backend/internal/services"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

type stubProvider struct{}

func (stubProvider) UploadTrainingFile(context.Context, string, []byte) (string, error) {
	return "file-1", nil
}

func (stubProvider) CreateFineTuneJob(context.Context, openai.FineTuneJobRequest) (*openai.FineTuneJob, error) {
	return &openai.FineTuneJob{ID: "ftjob-1", Status: "queued"}, nil
}

func (stubProvider) RetrieveFineTuneJob(_ context.Context, id string) (*openai.FineTuneJob, error) {
	return &openai.FineTuneJob{ID: id, Status: "running"}, nil
}

func (stubProvider) ChatCompletion(context.Context, string, []openai.Message, float32) (string, error) {
	return "solution", nil
}

func (stubProvider) Embed(_ context.Context, _ string, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, docstore.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := testutil.Store(t)
	log := testutil.Logger(t)

	infos := repos.NewTestInfoRepo(s, log)
	questions := repos.NewQuestionRepo(s, log)
	answers := repos.NewAnswerRepo(s, log)
	level := repos.NewLevelAnswerRepo(s, log)
	normal := repos.NewNormalAnswerRepo(s, log)
	models := repos.NewLlmModelRepo(s, log)
	prompts := repos.NewPromptRepo(s, log)

	p := stubProvider{}
	poller := services.NewFineTunePoller(log, services.PollerConfig{}, p, models)
	t.Cleanup(func() { _ = poller.Shutdown(context.Background()) })

	r := NewRouter(RouterConfig{
		Log:            log,
		HealthHandler:  httpH.NewHealthHandler(s),
		CatalogHandler: httpH.NewCatalogHandler(services.NewCatalogService(log, infos, questions, answers, level, models)),
		AnswerHandler:  httpH.NewAnswerHandler(services.NewAnswerService(log, answers, infos)),
		FineTuneHandler: httpH.NewFineTuneHandler(services.NewFineTuneService(log, services.FineTuneConfig{}, p,
			questions, answers, level, normal, models, prompts, poller, nil)),
		EvaluationHandler: httpH.NewEvaluationHandler(services.NewEvaluationService(log, answers, level, normal,
			services.NewEmbeddingService(log, services.EmbeddingConfig{}, p, nil))),
		SpeechHandler: httpH.NewSpeechHandler(services.NewTranscriptionService(log, nil), "ko-KR"),
	})
	return r, s
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestRootAndHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, nethttp.MethodGet, "/", nil)
	if rec.Code != nethttp.StatusOK || decode[map[string]string](t, rec)["message"] != "AI Tutor Studio API" {
		t.Fatalf("root: code=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing X-Request-Id header")
	}

	rec = do(r, nethttp.MethodGet, "/healthcheck", nil)
	if rec.Code != nethttp.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: code=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAnswerRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, nethttp.MethodPost, "/answer/1/2", map[string]any{
		"answer_type": "low", "question_num": "4", "answer": "four",
	})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("save: code=%d body=%s", rec.Code, rec.Body.String())
	}
	saved := decode[types.SaveResult](t, rec)
	if saved.Result != services.SaveResultInserted || saved.IsReady || saved.Readiness[4] {
		t.Fatalf("save result: got=%+v", saved)
	}

	rec = do(r, nethttp.MethodGet, "/answer/1/2/4/low", nil)
	if got := decode[map[string]string](t, rec)["answer"]; got != "four" {
		t.Fatalf("get answer: want=four got=%q", got)
	}
	rec = do(r, nethttp.MethodGet, "/answer/1/2/5/low", nil)
	if got := decode[map[string]string](t, rec); got["answer"] != "" || rec.Code != nethttp.StatusOK {
		t.Fatalf("missing answer: code=%d got=%v", rec.Code, got)
	}

	rec = do(r, nethttp.MethodGet, "/answer/1/2/4/expert", nil)
	if got := decode[map[string]string](t, rec); got["answer"] != "" || rec.Code != nethttp.StatusOK {
		t.Fatalf("unknown answer type: code=%d got=%v", rec.Code, got)
	}

	rec = do(r, nethttp.MethodGet, "/answer_status/1/2", nil)
	status := decode[map[string]bool](t, rec)
	if v, ok := status["4"]; !ok || v {
		t.Fatalf("answer_status: want={4:false} got=%v", status)
	}
}

func TestErrorsCarryCodes(t *testing.T) {
	r, _ := newTestRouter(t)
	cases := []struct {
		method, path string
		body         any
		status       int
		code         string
	}{
		{nethttp.MethodGet, "/answer/x/2/4/low", nil, nethttp.StatusBadRequest, "invalid_argument"},
		{nethttp.MethodPost, "/answer/1/2", map[string]any{"answer_type": "low", "question_num": 0}, nethttp.StatusBadRequest, "invalid_argument"},
		{nethttp.MethodPost, "/finetune/1/2/base", nil, nethttp.StatusBadRequest, "invalid_argument"},
		{nethttp.MethodDelete, "/finetune/poll/ftjob-none", nil, nethttp.StatusNotFound, "not_found"},
		{nethttp.MethodPost, "/baseline_answers", map[string]any{"level": "low"}, nethttp.StatusBadRequest, "invalid_argument"},
	}
	for _, tc := range cases {
		rec := do(r, tc.method, tc.path, tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s %s: want=%d got=%d body=%s", tc.method, tc.path, tc.status, rec.Code, rec.Body.String())
		}
		env := decode[struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}](t, rec)
		if env.Error.Code != tc.code {
			t.Fatalf("%s %s: want code=%s got=%s", tc.method, tc.path, tc.code, env.Error.Code)
		}
	}
}

func TestFinetunedAnswersMisalignedIsConflict(t *testing.T) {
	r, st := newTestRouter(t)
	testutil.SeedPrompt(t, st, types.TierLow, "sys")
	testutil.SeedQuestions(t, st, 1, 2, 1)

	rec := do(r, nethttp.MethodPost, "/finetuned_answers", map[string]any{
		"model_id": "ft:x", "level": "low", "testId": 1, "subjectId": "2",
	})
	if rec.Code != nethttp.StatusConflict {
		t.Fatalf("want=409 got=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSpeechToText(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, nethttp.MethodPost, "/speech_to_text", nil)
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("missing audio: want=400 got=%d", rec.Code)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("audio", "clip.webm")
	_, _ = fw.Write([]byte("webm-bytes"))
	_ = mw.Close()
	req := httptest.NewRequest(nethttp.MethodPost, "/speech_to_text", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusInternalServerError || !strings.Contains(rec.Body.String(), "configuration_error") {
		t.Fatalf("unconfigured speech: code=%d body=%s", rec.Code, rec.Body.String())
	}
}
