package repos

import (
	"context"
	"sort"

	"github.com/yungbote/tutorstudio-backend/internal/platform/docstore"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

type TestInfoRepo interface {
	List(ctx context.Context) ([]*types.TestInfo, error)
	Get(ctx context.Context, testID, subjectID int) (*types.TestInfo, error)
	// SetReady persists the derived readiness flag. It reports whether a
	// TestInfo existed for the pair; nothing is created.
	SetReady(ctx context.Context, testID, subjectID int, ready bool) (bool, error)
	Upsert(ctx context.Context, info *types.TestInfo) error
}

type testInfoRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewTestInfoRepo(store docstore.Store, baseLog *logger.Logger) TestInfoRepo {
	return &testInfoRepo{store: store, log: baseLog.With("repo", "TestInfoRepo")}
}

func (r *testInfoRepo) List(ctx context.Context) ([]*types.TestInfo, error) {
	var out []*types.TestInfo
	if err := r.store.Find(ctx, CollTestInfo, nil, &out); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TestID != out[j].TestID {
			return out[i].TestID < out[j].TestID
		}
		return out[i].SubjectID < out[j].SubjectID
	})
	return out, nil
}

func (r *testInfoRepo) Get(ctx context.Context, testID, subjectID int) (*types.TestInfo, error) {
	var info types.TestInfo
	ok, err := r.store.FindOne(ctx, CollTestInfo, docstore.Filter{"testId": testID, "subjectId": subjectID}, &info)
	if err != nil || !ok {
		return nil, err
	}
	return &info, nil
}

func (r *testInfoRepo) SetReady(ctx context.Context, testID, subjectID int, ready bool) (bool, error) {
	matched, err := r.store.UpdateOne(ctx, CollTestInfo,
		docstore.Filter{"testId": testID, "subjectId": subjectID},
		map[string]any{"is_ready": ready})
	if err != nil {
		return false, err
	}
	if !matched {
		r.log.Debug("No test_info to mark", "testId", testID, "subjectId", subjectID)
	}
	return matched, nil
}

func (r *testInfoRepo) Upsert(ctx context.Context, info *types.TestInfo) error {
	_, err := r.store.UpsertOne(ctx, CollTestInfo,
		docstore.Filter{"testId": info.TestID, "subjectId": info.SubjectID}, info)
	return err
}
