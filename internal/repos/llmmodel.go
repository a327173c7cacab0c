package repos

import (
	"context"
	"fmt"

	"github.com/yungbote/tutorstudio-backend/internal/platform/docstore"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

type LlmModelRepo interface {
	GetByKey(ctx context.Context, testID, subjectID int, level types.Tier) (*types.LlmModel, error)
	GetByJobID(ctx context.Context, jobID string) (*types.LlmModel, error)
	ListBySubject(ctx context.Context, testID, subjectID int) ([]*types.LlmModel, error)
	// Upsert replaces status, model and job id on the natural key. This is
	// the only way a status moves backward (a fresh create).
	Upsert(ctx context.Context, m *types.LlmModel) error
	// AdvanceStatus applies next to the model tracking jobID when the
	// status lattice allows it. fineTunedModel is only written when non-nil.
	// It returns whether the write happened and the record as it now stands
	// (nil when no record tracks the job).
	AdvanceStatus(ctx context.Context, jobID string, next types.FineTuneStatus, fineTunedModel *string) (bool, *types.LlmModel, error)
}

type llmModelRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewLlmModelRepo(store docstore.Store, baseLog *logger.Logger) LlmModelRepo {
	return &llmModelRepo{store: store, log: baseLog.With("repo", "LlmModelRepo")}
}

func modelKey(testID, subjectID int, level types.Tier) docstore.Filter {
	return docstore.Filter{"testId": testID, "subjectId": subjectID, "level": level}
}

func (r *llmModelRepo) GetByKey(ctx context.Context, testID, subjectID int, level types.Tier) (*types.LlmModel, error) {
	var m types.LlmModel
	ok, err := r.store.FindOne(ctx, CollLlmModels, modelKey(testID, subjectID, level), &m)
	if err != nil || !ok {
		return nil, err
	}
	return &m, nil
}

func (r *llmModelRepo) GetByJobID(ctx context.Context, jobID string) (*types.LlmModel, error) {
	if jobID == "" {
		return nil, nil
	}
	var m types.LlmModel
	ok, err := r.store.FindOne(ctx, CollLlmModels, docstore.Filter{"job_id": jobID}, &m)
	if err != nil || !ok {
		return nil, err
	}
	return &m, nil
}

func (r *llmModelRepo) ListBySubject(ctx context.Context, testID, subjectID int) ([]*types.LlmModel, error) {
	var out []*types.LlmModel
	if err := r.store.Find(ctx, CollLlmModels, docstore.Filter{"testId": testID, "subjectId": subjectID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *llmModelRepo) Upsert(ctx context.Context, m *types.LlmModel) error {
	_, err := r.store.UpsertOne(ctx, CollLlmModels, modelKey(m.TestID, m.SubjectID, m.Level), m)
	return err
}

// advanceAttempts bounds how often AdvanceStatus re-reads a record that
// changed between its read and its conditional write.
const advanceAttempts = 5

func (r *llmModelRepo) AdvanceStatus(ctx context.Context, jobID string, next types.FineTuneStatus, fineTunedModel *string) (bool, *types.LlmModel, error) {
	set := map[string]any{"status": next}
	if fineTunedModel != nil {
		set["fine_tuned_model"] = *fineTunedModel
	}
	for attempt := 1; attempt <= advanceAttempts; attempt++ {
		cur, err := r.GetByJobID(ctx, jobID)
		if err != nil || cur == nil {
			return false, cur, err
		}
		if !cur.Status.CanTransition(next) {
			r.log.Debug("Status transition rejected", "job_id", jobID, "from", cur.Status, "to", next)
			return false, cur, nil
		}
		// The write only lands if the status is still the one checked above.
		ok, err := r.store.UpdateOne(ctx, CollLlmModels, docstore.Filter{"job_id": jobID, "status": cur.Status}, set)
		if err != nil {
			return false, cur, err
		}
		if ok {
			cur.Status = next
			if fineTunedModel != nil {
				cur.FineTunedModel = types.StringPtr(*fineTunedModel)
			}
			return true, cur, nil
		}
		r.log.Debug("Status changed concurrently, re-reading", "job_id", jobID, "from", cur.Status, "to", next, "attempt", attempt)
	}
	return false, nil, fmt.Errorf("advance status of job %s: record kept changing", jobID)
}
