package services

import (
	"context"
	"fmt"

	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/repos"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

const (
	AnswersStatusIdle      = "idle"
	AnswersStatusCreating  = "creating"
	AnswersStatusCompleted = "completed"
)

type CatalogService interface {
	ListTestInfos(ctx context.Context) ([]*types.TestInfo, error)
	GetQuestionsWithBaseAnswers(ctx context.Context, testID, subjectID int) (*types.QuestionsWithAnswers, error)
	// DataLists is every TestInfo with, per level, the tracked fine-tuned
	// model (nil when none) and how far level answer generation has got.
	DataLists(ctx context.Context) ([]*types.DataList, error)
}

type catalogService struct {
	log          *logger.Logger
	testInfos    repos.TestInfoRepo
	questions    repos.QuestionRepo
	answers      repos.AnswerRepo
	levelAnswers repos.LevelAnswerRepo
	models       repos.LlmModelRepo
}

func NewCatalogService(
	baseLog *logger.Logger,
	testInfos repos.TestInfoRepo,
	questions repos.QuestionRepo,
	answers repos.AnswerRepo,
	levelAnswers repos.LevelAnswerRepo,
	models repos.LlmModelRepo,
) CatalogService {
	return &catalogService{
		log:          baseLog.With("service", "CatalogService"),
		testInfos:    testInfos,
		questions:    questions,
		answers:      answers,
		levelAnswers: levelAnswers,
		models:       models,
	}
}

func (s *catalogService) ListTestInfos(ctx context.Context) ([]*types.TestInfo, error) {
	out, err := s.testInfos.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list test infos: %w", err)
	}
	if out == nil {
		out = []*types.TestInfo{}
	}
	return out, nil
}

func (s *catalogService) GetQuestionsWithBaseAnswers(ctx context.Context, testID, subjectID int) (*types.QuestionsWithAnswers, error) {
	qs, err := s.questions.ListBySubject(ctx, testID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	base, err := s.answers.ListByTier(ctx, types.TierBase, testID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list base answers: %w", err)
	}
	if qs == nil {
		qs = []*types.Question{}
	}
	if base == nil {
		base = []*types.Answer{}
	}
	return &types.QuestionsWithAnswers{Questions: qs, BaseAnswers: base}, nil
}

func (s *catalogService) DataLists(ctx context.Context) ([]*types.DataList, error) {
	infos, err := s.ListTestInfos(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*types.DataList, 0, len(infos))
	for _, info := range infos {
		dl := &types.DataList{TestInfo: *info, Levels: map[types.Tier]*types.LevelStatus{}}

		total, err := s.questions.Count(ctx, info.TestID, info.SubjectID)
		if err != nil {
			return nil, fmt.Errorf("count questions: %w", err)
		}
		for _, level := range types.Levels {
			m, err := s.models.GetByKey(ctx, info.TestID, info.SubjectID, level)
			if err != nil {
				return nil, fmt.Errorf("get model: %w", err)
			}
			if m == nil {
				dl.Levels[level] = nil
				continue
			}
			n, err := s.levelAnswers.Count(ctx, info.TestID, info.SubjectID, level)
			if err != nil {
				return nil, fmt.Errorf("count level answers: %w", err)
			}
			dl.Levels[level] = &types.LevelStatus{
				FineTunedModel: m.FineTunedModel,
				Status:         m.Status,
				JobID:          m.JobID,
				AnswersStatus:  answersStatus(n, total),
			}
		}
		out = append(out, dl)
	}
	return out, nil
}

func answersStatus(generated, questions int64) string {
	switch {
	case generated == 0:
		return AnswersStatusIdle
	case generated < questions:
		return AnswersStatusCreating
	default:
		return AnswersStatusCompleted
	}
}
