package repos

import (
	"context"
	"sort"

	"github.com/yungbote/tutorstudio-backend/internal/platform/docstore"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

// AnswerRepo reads and writes the per-tier "{tier}_answer" collections.
type AnswerRepo interface {
	// ListByTier returns a tier's answers ordered by question_num.
	ListByTier(ctx context.Context, tier types.Tier, testID, subjectID int) ([]*types.Answer, error)
	Get(ctx context.Context, tier types.Tier, testID, subjectID, questionNum int) (*types.Answer, error)
	Exists(ctx context.Context, tier types.Tier, testID, subjectID, questionNum int) (bool, error)
	// Save replaces the answer on its natural key when update is true and
	// inserts unconditionally otherwise.
	Save(ctx context.Context, tier types.Tier, a *types.Answer, update bool) error
}

type answerRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewAnswerRepo(store docstore.Store, baseLog *logger.Logger) AnswerRepo {
	return &answerRepo{store: store, log: baseLog.With("repo", "AnswerRepo")}
}

func answerKey(testID, subjectID, questionNum int) docstore.Filter {
	return docstore.Filter{"testId": testID, "subjectId": subjectID, "question_num": questionNum}
}

func (r *answerRepo) ListByTier(ctx context.Context, tier types.Tier, testID, subjectID int) ([]*types.Answer, error) {
	var out []*types.Answer
	if err := r.store.Find(ctx, tier.Collection(), docstore.Filter{"testId": testID, "subjectId": subjectID}, &out); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].QuestionNum < out[j].QuestionNum })
	return out, nil
}

func (r *answerRepo) Get(ctx context.Context, tier types.Tier, testID, subjectID, questionNum int) (*types.Answer, error) {
	var a types.Answer
	ok, err := r.store.FindOne(ctx, tier.Collection(), answerKey(testID, subjectID, questionNum), &a)
	if err != nil || !ok {
		return nil, err
	}
	return &a, nil
}

func (r *answerRepo) Exists(ctx context.Context, tier types.Tier, testID, subjectID, questionNum int) (bool, error) {
	n, err := r.store.Count(ctx, tier.Collection(), answerKey(testID, subjectID, questionNum))
	return n > 0, err
}

func (r *answerRepo) Save(ctx context.Context, tier types.Tier, a *types.Answer, update bool) error {
	if !update {
		return r.store.InsertOne(ctx, tier.Collection(), a)
	}
	_, err := r.store.UpsertOne(ctx, tier.Collection(), answerKey(a.TestID, a.SubjectID, a.QuestionNum), a)
	return err
}
