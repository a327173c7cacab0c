package services

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/tutorstudio-backend/internal/platform/apierr"
	"github.com/yungbote/tutorstudio-backend/internal/repos"
	"github.com/yungbote/tutorstudio-backend/internal/repos/testutil"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

func TestDataListsReportsLevelState(t *testing.T) {
	ctx := context.Background()
	s := testutil.Store(t)
	log := testutil.Logger(t)
	models := repos.NewLlmModelRepo(s, log)
	level := repos.NewLevelAnswerRepo(s, log)
	svc := NewCatalogService(log, repos.NewTestInfoRepo(s, log), repos.NewQuestionRepo(s, log),
		repos.NewAnswerRepo(s, log), level, models)

	testutil.SeedTestInfo(t, s, 1, 2)
	testutil.SeedQuestions(t, s, 1, 2, 1, 2)
	job := "ftjob-1"
	_ = models.Upsert(ctx, &types.LlmModel{TestID: 1, SubjectID: 2, Level: types.TierLow, Status: types.StatusRunning, JobID: &job})
	_ = models.Upsert(ctx, &types.LlmModel{TestID: 1, SubjectID: 2, Level: types.TierHigh, Status: types.StatusSucceeded})
	_ = level.Upsert(ctx, &types.LevelAnswer{TestID: 1, SubjectID: 2, Level: types.TierLow, QuestionNum: 1, Answer: "a"})

	lists, err := svc.DataLists(ctx)
	if err != nil {
		t.Fatalf("DataLists: %v", err)
	}
	if len(lists) != 1 {
		t.Fatalf("lists: want=1 got=%d", len(lists))
	}
	dl := lists[0]
	if dl.Levels[types.TierMedium] != nil {
		t.Fatalf("medium: want=nil got=%+v", dl.Levels[types.TierMedium])
	}
	if low := dl.Levels[types.TierLow]; low == nil || low.AnswersStatus != AnswersStatusCreating || *low.JobID != job {
		t.Fatalf("low: got=%+v", low)
	}
	if high := dl.Levels[types.TierHigh]; high == nil || high.AnswersStatus != AnswersStatusIdle {
		t.Fatalf("high: got=%+v", high)
	}
}

func TestAnswersStatus(t *testing.T) {
	cases := map[[2]int64]string{
		{0, 5}: AnswersStatusIdle,
		{3, 5}: AnswersStatusCreating,
		{5, 5}: AnswersStatusCompleted,
	}
	for in, want := range cases {
		if got := answersStatus(in[0], in[1]); got != want {
			t.Fatalf("answersStatus(%d,%d): want=%s got=%s", in[0], in[1], want, got)
		}
	}
}

func TestBuildTrainingDataSkipsIncompleteRows(t *testing.T) {
	qs := []*types.Question{
		{QuestionNumber: 1, Question: "Q1", Choices: []string{"a", "b"}},
		{QuestionNumber: 2, Question: "Q2"},
		{QuestionNumber: 3, Question: "Q3"},
	}
	answers := []*types.Answer{
		{QuestionNum: 1, Answer: "<b>one</b>"},
		{QuestionNum: 2, Answer: "  "},
	}
	data, rows, err := BuildTrainingData("sys", qs, answers)
	if err != nil {
		t.Fatalf("BuildTrainingData: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows: want=1 got=%d", rows)
	}
	line := string(data)
	if !strings.Contains(line, `"content":"Q1\n\na\nb"`) || !strings.Contains(line, "<b>one</b>") {
		t.Fatalf("row: got=%s", line)
	}
}

func TestTranscribe(t *testing.T) {
	log := testutil.Logger(t)
	ctx := context.Background()

	if _, err := NewTranscriptionService(log, nil).Transcribe(ctx, []byte{1}, SpeechOptions{}); !apierr.Is(err, apierr.CodeConfiguration) {
		t.Fatalf("nil recognizer: want configuration_error got=%v", err)
	}

	sp := &fakeSpeech{text: "안녕하세요"}
	svc := NewTranscriptionService(log, sp)
	got, err := svc.Transcribe(ctx, []byte{1, 2}, SpeechOptions{})
	if err != nil || got != "안녕하세요" {
		t.Fatalf("Transcribe: got=%q err=%v", got, err)
	}
	if sp.got.Encoding != DefaultSpeechEncoding || sp.got.SampleRateHertz != DefaultSpeechSampleRate || sp.got.LanguageCode != DefaultSpeechLanguage {
		t.Fatalf("defaults: got=%+v", sp.got)
	}
	if _, err := svc.Transcribe(ctx, []byte{1}, SpeechOptions{Encoding: "MP5"}); !apierr.Is(err, apierr.CodeInvalidArgument) {
		t.Fatalf("bad encoding: want invalid_argument got=%v", err)
	}

	sp.err = errUpstream
	if _, err := svc.Transcribe(ctx, []byte{1}, SpeechOptions{}); !apierr.Is(err, apierr.CodeProvider) {
		t.Fatalf("provider failure: want provider_error got=%v", err)
	}
}
