package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/yungbote/tutorstudio-backend/internal/platform/apierr"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/repos"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

type EvaluationService interface {
	// TestFinetunedAnswers scores a level's fine-tuned and base-model
	// answers against that level's curated answers. It never writes.
	TestFinetunedAnswers(ctx context.Context, testID, subjectID int, level types.Tier) (*types.EvaluationReport, error)
}

type evaluationService struct {
	log           *logger.Logger
	answers       repos.AnswerRepo
	levelAnswers  repos.LevelAnswerRepo
	normalAnswers repos.LevelAnswerRepo
	embedder      EmbeddingService
}

func NewEvaluationService(
	baseLog *logger.Logger,
	answers repos.AnswerRepo,
	levelAnswers repos.LevelAnswerRepo,
	normalAnswers repos.LevelAnswerRepo,
	embedder EmbeddingService,
) EvaluationService {
	return &evaluationService{
		log:           baseLog.With("service", "EvaluationService"),
		answers:       answers,
		levelAnswers:  levelAnswers,
		normalAnswers: normalAnswers,
		embedder:      embedder,
	}
}

func (s *evaluationService) TestFinetunedAnswers(ctx context.Context, testID, subjectID int, level types.Tier) (*types.EvaluationReport, error) {
	if !level.IsLevel() {
		return nil, apierr.InvalidArgument("level must be one of low, medium, high: got %q", level)
	}
	std, err := s.answers.ListByTier(ctx, level, testID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list %s answers: %w", level, err)
	}
	normal, err := s.normalAnswers.ListByLevel(ctx, testID, subjectID, level)
	if err != nil {
		return nil, fmt.Errorf("list normal answers: %w", err)
	}
	tuned, err := s.levelAnswers.ListByLevel(ctx, testID, subjectID, level)
	if err != nil {
		return nil, fmt.Errorf("list level answers: %w", err)
	}

	stdBy := make(map[int]string, len(std))
	for _, a := range std {
		stdBy[a.QuestionNum] = a.Answer
	}
	normalBy := levelAnswerMap(normal)
	tunedBy := levelAnswerMap(tuned)
	if !sameKeys(stdBy, normalBy) || !sameKeys(stdBy, tunedBy) {
		return nil, apierr.DataAlignment(
			"answer sets for level %s do not cover the same questions: standard %v, normal %v, finetuned %v",
			level, sortedKeys(stdBy), sortedKeys(normalBy), sortedKeys(tunedBy))
	}

	nums := sortedKeys(stdBy)
	r := &types.EvaluationReport{
		Level:             level,
		QuestionNums:      nums,
		CosineFinetuned:   make([]float64, 0, len(nums)),
		SemanticFinetuned: make([]float64, 0, len(nums)),
		CosineNormal:      make([]float64, 0, len(nums)),
		SemanticNormal:    make([]float64, 0, len(nums)),
		StandardAnswers:   make([]string, 0, len(nums)),
		NormalAnswers:     make([]string, 0, len(nums)),
		FinetunedAnswers:  make([]string, 0, len(nums)),
	}
	texts := make([]string, 0, 3*len(nums))
	for _, n := range nums {
		r.StandardAnswers = append(r.StandardAnswers, stdBy[n])
		r.NormalAnswers = append(r.NormalAnswers, normalBy[n])
		r.FinetunedAnswers = append(r.FinetunedAnswers, tunedBy[n])
		texts = append(texts, stdBy[n], tunedBy[n], normalBy[n])
	}

	// One batched embedding call; SemanticSimilarity then hits the cache.
	if len(texts) > 0 {
		if _, err := s.embedder.EmbedAll(ctx, texts); err != nil {
			return nil, asProviderErr(err)
		}
	}
	for i := range nums {
		stdText, tunedText, normalText := r.StandardAnswers[i], r.FinetunedAnswers[i], r.NormalAnswers[i]
		r.CosineFinetuned = append(r.CosineFinetuned, CosineSimilarity(stdText, tunedText))
		r.CosineNormal = append(r.CosineNormal, CosineSimilarity(stdText, normalText))

		semTuned, err := s.embedder.SemanticSimilarity(ctx, stdText, tunedText)
		if err != nil {
			return nil, asProviderErr(err)
		}
		semNormal, err := s.embedder.SemanticSimilarity(ctx, stdText, normalText)
		if err != nil {
			return nil, asProviderErr(err)
		}
		r.SemanticFinetuned = append(r.SemanticFinetuned, semTuned)
		r.SemanticNormal = append(r.SemanticNormal, semNormal)
	}

	r.AvgCosineFinetuned = mean(r.CosineFinetuned) * 100
	r.AvgSemanticFinetuned = mean(r.SemanticFinetuned) * 100
	r.AvgCosineNormal = mean(r.CosineNormal) * 100
	r.AvgSemanticNormal = mean(r.SemanticNormal) * 100

	s.log.Info("Evaluated answers",
		"testId", testID, "subjectId", subjectID, "level", level, "questions", len(nums),
		"avg_cosine_finetuned", r.AvgCosineFinetuned, "avg_semantic_finetuned", r.AvgSemanticFinetuned)
	return r, nil
}

func levelAnswerMap(list []*types.LevelAnswer) map[int]string {
	out := make(map[int]string, len(list))
	for _, a := range list {
		out[a.QuestionNum] = a.Answer
	}
	return out
}

func sameKeys(a, b map[int]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys(m map[int]string) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
