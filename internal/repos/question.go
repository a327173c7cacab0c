package repos

import (
	"context"
	"sort"

	"github.com/yungbote/tutorstudio-backend/internal/platform/docstore"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

type QuestionRepo interface {
	// ListBySubject returns the questions ordered by question_number.
	ListBySubject(ctx context.Context, testID, subjectID int) ([]*types.Question, error)
	Count(ctx context.Context, testID, subjectID int) (int64, error)
	Insert(ctx context.Context, q *types.Question) error
}

type questionRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewQuestionRepo(store docstore.Store, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{store: store, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *questionRepo) ListBySubject(ctx context.Context, testID, subjectID int) ([]*types.Question, error) {
	var out []*types.Question
	if err := r.store.Find(ctx, CollQuestions, docstore.Filter{"testId": testID, "subjectId": subjectID}, &out); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].QuestionNumber < out[j].QuestionNumber })
	return out, nil
}

func (r *questionRepo) Count(ctx context.Context, testID, subjectID int) (int64, error) {
	return r.store.Count(ctx, CollQuestions, docstore.Filter{"testId": testID, "subjectId": subjectID})
}

func (r *questionRepo) Insert(ctx context.Context, q *types.Question) error {
	return r.store.InsertOne(ctx, CollQuestions, q)
}
