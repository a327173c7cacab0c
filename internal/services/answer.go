package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yungbote/tutorstudio-backend/internal/platform/apierr"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/repos"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

const (
	SaveResultInserted = "inserted"
	SaveResultUpdated  = "updated"
)

type AnswerService interface {
	// SaveOrUpdateAnswer writes one tier answer and recomputes readiness.
	SaveOrUpdateAnswer(ctx context.Context, testID, subjectID int, data types.AnswerData) (*types.SaveResult, error)
	// ComputeReadiness recomputes readiness from the low/medium/high answer
	// sets, persists it onto the TestInfo and returns the per-question map
	// with the overall flag.
	ComputeReadiness(ctx context.Context, testID, subjectID int) (map[int]bool, bool, error)
	// GetSpecificAnswer returns "" when no answer is stored.
	GetSpecificAnswer(ctx context.Context, testID, subjectID, questionNum int, answerType types.Tier) (string, error)
}

type answerService struct {
	log       *logger.Logger
	answers   repos.AnswerRepo
	testInfos repos.TestInfoRepo
	validate  *validator.Validate
}

func NewAnswerService(baseLog *logger.Logger, answers repos.AnswerRepo, testInfos repos.TestInfoRepo) AnswerService {
	return &answerService{
		log:       baseLog.With("service", "AnswerService"),
		answers:   answers,
		testInfos: testInfos,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *answerService) SaveOrUpdateAnswer(ctx context.Context, testID, subjectID int, data types.AnswerData) (*types.SaveResult, error) {
	data.AnswerType = strings.ToLower(strings.TrimSpace(data.AnswerType))
	if err := s.validate.Struct(data); err != nil {
		return nil, apierr.InvalidArgument("invalid answer data: %s", describeValidation(err))
	}
	tier, err := types.ParseTier(data.AnswerType)
	if err != nil {
		return nil, apierr.InvalidArgument("%v", err)
	}
	qnum := data.QuestionNum.Int()

	exists, err := s.answers.Exists(ctx, tier, testID, subjectID, qnum)
	if err != nil {
		return nil, fmt.Errorf("check existing answer: %w", err)
	}
	a := &types.Answer{
		TestID:      testID,
		SubjectID:   subjectID,
		QuestionNum: qnum,
		Answer:      data.Answer,
		TestMonth:   data.TestMonth,
		SubjectName: data.SubjectName,
	}
	if err := s.answers.Save(ctx, tier, a, exists); err != nil {
		return nil, fmt.Errorf("save answer: %w", err)
	}

	result := SaveResultInserted
	if exists {
		result = SaveResultUpdated
	}
	s.log.Debug("Answer saved",
		"testId", testID, "subjectId", subjectID,
		"tier", tier, "question_num", qnum, "result", result)

	readiness, ready, err := s.ComputeReadiness(ctx, testID, subjectID)
	if err != nil {
		return nil, err
	}
	return &types.SaveResult{Result: result, Readiness: readiness, IsReady: ready}, nil
}

func (s *answerService) ComputeReadiness(ctx context.Context, testID, subjectID int) (map[int]bool, bool, error) {
	counts := map[int]int{}
	for _, tier := range types.Levels {
		list, err := s.answers.ListByTier(ctx, tier, testID, subjectID)
		if err != nil {
			return nil, false, fmt.Errorf("list %s answers: %w", tier, err)
		}
		for _, a := range list {
			if _, seen := counts[a.QuestionNum]; !seen {
				counts[a.QuestionNum] = 0
			}
			if a.Complete() {
				counts[a.QuestionNum]++
			}
		}
	}

	readiness := make(map[int]bool, len(counts))
	allComplete := true
	for qnum, n := range counts {
		readiness[qnum] = n == len(types.Levels)
		if !readiness[qnum] {
			allComplete = false
		}
	}

	if _, err := s.testInfos.SetReady(ctx, testID, subjectID, allComplete); err != nil {
		return nil, false, fmt.Errorf("persist readiness: %w", err)
	}
	return readiness, allComplete, nil
}

func (s *answerService) GetSpecificAnswer(ctx context.Context, testID, subjectID, questionNum int, answerType types.Tier) (string, error) {
	a, err := s.answers.Get(ctx, answerType, testID, subjectID, questionNum)
	if err != nil {
		return "", err
	}
	if a == nil {
		return "", nil
	}
	return a.Answer, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
