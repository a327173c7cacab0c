package repos

import (
	"context"
	"sort"

	"github.com/yungbote/tutorstudio-backend/internal/platform/docstore"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

// LevelAnswerRepo stores model-generated answers tagged by level. The same
// implementation serves level_answers (fine-tuned model) and normal_answers
// (base model).
type LevelAnswerRepo interface {
	ListByLevel(ctx context.Context, testID, subjectID int, level types.Tier) ([]*types.LevelAnswer, error)
	Count(ctx context.Context, testID, subjectID int, level types.Tier) (int64, error)
	Upsert(ctx context.Context, a *types.LevelAnswer) error
}

type levelAnswerRepo struct {
	store      docstore.Store
	collection string
	log        *logger.Logger
}

func NewLevelAnswerRepo(store docstore.Store, baseLog *logger.Logger) LevelAnswerRepo {
	return &levelAnswerRepo{
		store:      store,
		collection: CollLevelAnswers,
		log:        baseLog.With("repo", "LevelAnswerRepo"),
	}
}

func NewNormalAnswerRepo(store docstore.Store, baseLog *logger.Logger) LevelAnswerRepo {
	return &levelAnswerRepo{
		store:      store,
		collection: CollNormalAnswers,
		log:        baseLog.With("repo", "NormalAnswerRepo"),
	}
}

func levelScope(testID, subjectID int, level types.Tier) docstore.Filter {
	return docstore.Filter{"testId": testID, "subjectId": subjectID, "level": level}
}

func (r *levelAnswerRepo) ListByLevel(ctx context.Context, testID, subjectID int, level types.Tier) ([]*types.LevelAnswer, error) {
	var out []*types.LevelAnswer
	if err := r.store.Find(ctx, r.collection, levelScope(testID, subjectID, level), &out); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].QuestionNum < out[j].QuestionNum })
	return out, nil
}

func (r *levelAnswerRepo) Count(ctx context.Context, testID, subjectID int, level types.Tier) (int64, error) {
	return r.store.Count(ctx, r.collection, levelScope(testID, subjectID, level))
}

func (r *levelAnswerRepo) Upsert(ctx context.Context, a *types.LevelAnswer) error {
	key := levelScope(a.TestID, a.SubjectID, a.Level)
	key["question_num"] = a.QuestionNum
	_, err := r.store.UpsertOne(ctx, r.collection, key, a)
	return err
}
