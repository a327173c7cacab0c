package testutil

import (
	"context"
	"testing"

	"github.com/yungbote/tutorstudio-backend/internal/platform/docstore"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

// Store returns a fresh in-memory document store closed at test end.
func Store(tb testing.TB) docstore.Store {
	tb.Helper()
	s := docstore.NewMemoryStore()
	tb.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func SeedTestInfo(tb testing.TB, s docstore.Store, testID, subjectID int) *types.TestInfo {
	tb.Helper()
	info := &types.TestInfo{TestID: testID, SubjectID: subjectID, TestMonth: "2024-06", SubjectName: "english"}
	if err := s.InsertOne(context.Background(), "test_info", info); err != nil {
		tb.Fatalf("seed test_info: %v", err)
	}
	return info
}

func SeedQuestions(tb testing.TB, s docstore.Store, testID, subjectID int, nums ...int) []*types.Question {
	tb.Helper()
	out := make([]*types.Question, 0, len(nums))
	for _, n := range nums {
		q := &types.Question{
			TestID:         testID,
			SubjectID:      subjectID,
			QuestionNumber: n,
			Question:       "question",
			Content:        "content",
			Choices:        []string{"A", "B", "C", "D", "E"},
		}
		if err := s.InsertOne(context.Background(), "questions", q); err != nil {
			tb.Fatalf("seed question: %v", err)
		}
		out = append(out, q)
	}
	return out
}

func SeedAnswer(tb testing.TB, s docstore.Store, tier types.Tier, testID, subjectID, questionNum int, text string) {
	tb.Helper()
	a := &types.Answer{TestID: testID, SubjectID: subjectID, QuestionNum: questionNum, Answer: text}
	if err := s.InsertOne(context.Background(), tier.Collection(), a); err != nil {
		tb.Fatalf("seed %s: %v", tier.Collection(), err)
	}
}

func SeedPrompt(tb testing.TB, s docstore.Store, level types.Tier, prompt string) {
	tb.Helper()
	if err := s.InsertOne(context.Background(), "prompts", types.SystemPrompt{Level: level, SystemPrompt: prompt}); err != nil {
		tb.Fatalf("seed prompt: %v", err)
	}
}
