package repos

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/yungbote/tutorstudio-backend/internal/platform/docstore"
	"github.com/yungbote/tutorstudio-backend/internal/repos/testutil"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

func TestAnswerRepoSaveUpdateReplacesOnKey(t *testing.T) {
	ctx := context.Background()
	s := testutil.Store(t)
	repo := NewAnswerRepo(s, testutil.Logger(t))

	a := &types.Answer{TestID: 1, SubjectID: 2, QuestionNum: 3, Answer: "first"}
	if err := repo.Save(ctx, types.TierLow, a, false); err != nil {
		t.Fatalf("Save insert: %v", err)
	}
	a.Answer = "second"
	if err := repo.Save(ctx, types.TierLow, a, true); err != nil {
		t.Fatalf("Save update: %v", err)
	}

	got, err := repo.Get(ctx, types.TierLow, 1, 2, 3)
	if err != nil || got == nil {
		t.Fatalf("Get: got=%v err=%v", got, err)
	}
	if got.Answer != "second" {
		t.Fatalf("Get: want=second got=%q", got.Answer)
	}
	list, _ := repo.ListByTier(ctx, types.TierLow, 1, 2)
	if len(list) != 1 {
		t.Fatalf("ListByTier: want=1 got=%d", len(list))
	}
	if other, _ := repo.ListByTier(ctx, types.TierHigh, 1, 2); len(other) != 0 {
		t.Fatalf("tiers must be separate collections, high has %d", len(other))
	}
	if miss, err := repo.Get(ctx, types.TierLow, 1, 2, 99); err != nil || miss != nil {
		t.Fatalf("Get miss: got=%v err=%v", miss, err)
	}
}

func TestAnswerRepoListSortedByQuestion(t *testing.T) {
	ctx := context.Background()
	s := testutil.Store(t)
	for _, n := range []int{3, 1, 2} {
		testutil.SeedAnswer(t, s, types.TierBase, 1, 1, n, "x")
	}
	list, err := NewAnswerRepo(s, testutil.Logger(t)).ListByTier(ctx, types.TierBase, 1, 1)
	if err != nil {
		t.Fatalf("ListByTier: %v", err)
	}
	for i, a := range list {
		if a.QuestionNum != i+1 {
			t.Fatalf("order: want=%d got=%d", i+1, a.QuestionNum)
		}
	}
}

func TestLevelAndNormalAnswersAreSeparate(t *testing.T) {
	ctx := context.Background()
	s := testutil.Store(t)
	lvl := NewLevelAnswerRepo(s, testutil.Logger(t))
	nrm := NewNormalAnswerRepo(s, testutil.Logger(t))

	a := &types.LevelAnswer{TestID: 1, SubjectID: 1, Level: types.TierMedium, QuestionNum: 1, Answer: "ft"}
	if err := lvl.Upsert(ctx, a); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	a.Answer = "ft2"
	_ = lvl.Upsert(ctx, a)

	if n, _ := lvl.Count(ctx, 1, 1, types.TierMedium); n != 1 {
		t.Fatalf("level count: want=1 got=%d", n)
	}
	if n, _ := nrm.Count(ctx, 1, 1, types.TierMedium); n != 0 {
		t.Fatalf("normal count: want=0 got=%d", n)
	}
	list, _ := lvl.ListByLevel(ctx, 1, 1, types.TierMedium)
	if len(list) != 1 || list[0].Answer != "ft2" {
		t.Fatalf("ListByLevel: got=%+v", list)
	}
}

func TestLlmModelAdvanceStatusIsForwardOnly(t *testing.T) {
	ctx := context.Background()
	s := testutil.Store(t)
	repo := NewLlmModelRepo(s, testutil.Logger(t))

	m := &types.LlmModel{TestID: 1, SubjectID: 1, Level: types.TierLow, Status: types.StatusPending, JobID: types.StringPtr("ftjob-1")}
	if err := repo.Upsert(ctx, m); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	applied, cur, err := repo.AdvanceStatus(ctx, "ftjob-1", types.StatusRunning, nil)
	if err != nil || !applied || cur.Status != types.StatusRunning {
		t.Fatalf("pending->running: applied=%v cur=%+v err=%v", applied, cur, err)
	}
	applied, cur, _ = repo.AdvanceStatus(ctx, "ftjob-1", types.StatusValidatingFiles, nil)
	if applied || cur.Status != types.StatusRunning {
		t.Fatalf("running->validating_files must be rejected: applied=%v cur=%+v", applied, cur)
	}
	applied, _, _ = repo.AdvanceStatus(ctx, "ftjob-1", types.StatusSucceeded, types.StringPtr("ft:model"))
	if !applied {
		t.Fatalf("running->succeeded must apply")
	}
	applied, _, _ = repo.AdvanceStatus(ctx, "ftjob-1", types.StatusRunning, nil)
	if applied {
		t.Fatalf("terminal status must be final")
	}

	got, _ := repo.GetByKey(ctx, 1, 1, types.TierLow)
	if got == nil || got.Status != types.StatusSucceeded || got.FineTunedModel == nil || *got.FineTunedModel != "ft:model" {
		t.Fatalf("GetByKey: got=%+v", got)
	}

	// a fresh create resets
	if err := repo.Upsert(ctx, &types.LlmModel{TestID: 1, SubjectID: 1, Level: types.TierLow, Status: types.StatusFailed}); err != nil {
		t.Fatalf("Upsert reset: %v", err)
	}
	got, _ = repo.GetByKey(ctx, 1, 1, types.TierLow)
	if got.Status != types.StatusFailed || got.JobID != nil || got.FineTunedModel != nil {
		t.Fatalf("after reset: got=%+v", got)
	}

	applied, cur, err = repo.AdvanceStatus(ctx, "missing", types.StatusRunning, nil)
	if applied || cur != nil || err != nil {
		t.Fatalf("unknown job: applied=%v cur=%v err=%v", applied, cur, err)
	}
}

// pausingStore holds the first UpdateOne after arm until release is closed.
type pausingStore struct {
	docstore.Store
	armed   atomic.Bool
	reached chan struct{}
	release chan struct{}
}

func (s *pausingStore) UpdateOne(ctx context.Context, collection string, filter docstore.Filter, set map[string]any) (bool, error) {
	if s.armed.CompareAndSwap(true, false) {
		close(s.reached)
		<-s.release
	}
	return s.Store.UpdateOne(ctx, collection, filter, set)
}

func TestLlmModelAdvanceStatusConcurrentTerminalWins(t *testing.T) {
	ctx := context.Background()
	ps := &pausingStore{Store: testutil.Store(t), reached: make(chan struct{}), release: make(chan struct{})}
	repo := NewLlmModelRepo(ps, testutil.Logger(t))
	job := "ftjob-7"
	if err := repo.Upsert(ctx, &types.LlmModel{TestID: 1, SubjectID: 1, Level: types.TierHigh, Status: types.StatusPending, JobID: &job}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	type outcome struct {
		applied bool
		cur     *types.LlmModel
		err     error
	}
	slow := make(chan outcome, 1)
	ps.armed.Store(true)
	go func() {
		applied, cur, err := repo.AdvanceStatus(ctx, job, types.StatusRunning, nil)
		slow <- outcome{applied, cur, err}
	}()
	<-ps.reached

	applied, _, err := repo.AdvanceStatus(ctx, job, types.StatusSucceeded, types.StringPtr("ft:done"))
	if err != nil || !applied {
		t.Fatalf("pending->succeeded: applied=%v err=%v", applied, err)
	}
	close(ps.release)

	res := <-slow
	if res.err != nil || res.applied {
		t.Fatalf("stale running write: want applied=false got applied=%v err=%v", res.applied, res.err)
	}
	if res.cur == nil || res.cur.Status != types.StatusSucceeded {
		t.Fatalf("stale running write: want cur=succeeded got=%+v", res.cur)
	}
	got, _ := repo.GetByJobID(ctx, job)
	if got == nil || got.Status != types.StatusSucceeded || got.FineTunedModel == nil || *got.FineTunedModel != "ft:done" {
		t.Fatalf("final record: want=succeeded got=%+v", got)
	}
}

func TestTestInfoSetReadyDoesNotCreate(t *testing.T) {
	ctx := context.Background()
	s := testutil.Store(t)
	repo := NewTestInfoRepo(s, testutil.Logger(t))

	if matched, err := repo.SetReady(ctx, 1, 1, true); err != nil || matched {
		t.Fatalf("SetReady on missing: matched=%v err=%v", matched, err)
	}
	testutil.SeedTestInfo(t, s, 1, 1)
	if matched, err := repo.SetReady(ctx, 1, 1, true); err != nil || !matched {
		t.Fatalf("SetReady: matched=%v err=%v", matched, err)
	}
	info, _ := repo.Get(ctx, 1, 1)
	if info == nil || !info.IsReady {
		t.Fatalf("Get: got=%+v", info)
	}
	if list, _ := repo.List(ctx); len(list) != 1 {
		t.Fatalf("List: want=1 got=%d", len(list))
	}
}

func TestPromptRepoSeedFromFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	body := "prompts:\n  - level: low\n    system_prompt: be brief\n  - level: High\n    system_prompt: be thorough\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	prompts, err := LoadPromptFile(path)
	if err != nil || len(prompts) != 2 {
		t.Fatalf("LoadPromptFile: got=%v err=%v", prompts, err)
	}

	repo := NewPromptRepo(testutil.Store(t), testutil.Logger(t))
	if err := repo.Seed(ctx, prompts); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	got, ok, err := repo.Get(ctx, types.TierHigh)
	if err != nil || !ok || got != "be thorough" {
		t.Fatalf("Get high: got=%q ok=%v err=%v", got, ok, err)
	}
	if _, ok, _ := repo.Get(ctx, types.TierMedium); ok {
		t.Fatalf("Get medium: expected miss")
	}
}

func TestLoadPromptFileRejectsUnknownLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	_ = os.WriteFile(path, []byte("prompts:\n  - level: expert\n    system_prompt: x\n"), 0o600)
	if _, err := LoadPromptFile(path); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
