package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/tutorstudio-backend/internal/platform/apierr"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/platform/openai"
	"github.com/yungbote/tutorstudio-backend/internal/repos"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

const (
	DefaultBaseModel = "gpt-4o-mini-2024-07-18"
	// AnswerInstruction is the user turn asking the model for a worked
	// solution ("write the solution to the problem").
	AnswerInstruction = "문제의 풀이를 작성해줘"
	AnswerTemperature = float32(0.3)
)

// TrainingArchive keeps a copy of each submitted training file.
type TrainingArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type FineTuneConfig struct {
	BaseModel         string
	AnswerConcurrency int
}

type FineTuneService interface {
	// CreateFinetuningModel submits a fine-tuning job for one level and
	// starts tracking it. Provider failures come back as a result with
	// Error set and a failed LlmModel; only storage failures are errors.
	CreateFinetuningModel(ctx context.Context, testID, subjectID int, level types.Tier) (*types.FineTuneResult, error)
	GetFinetuningStatus(ctx context.Context, jobID string) (*types.FineTuneResult, error)
	// CreateFinetunedAnswers generates level_answers with a fine-tuned model.
	CreateFinetunedAnswers(ctx context.Context, modelID string, level types.Tier, testID, subjectID int) (*types.OperationResult, error)
	// CreateBaselineAnswers generates normal_answers with the base model.
	CreateBaselineAnswers(ctx context.Context, level types.Tier, testID, subjectID int) (*types.OperationResult, error)
	CancelPolling(jobID string) bool
}

type fineTuneService struct {
	log           *logger.Logger
	cfg           FineTuneConfig
	provider      openai.Provider
	questions     repos.QuestionRepo
	answers       repos.AnswerRepo
	levelAnswers  repos.LevelAnswerRepo
	normalAnswers repos.LevelAnswerRepo
	models        repos.LlmModelRepo
	prompts       repos.PromptRepo
	poller        *FineTunePoller
	archive       TrainingArchive
}

func NewFineTuneService(
	baseLog *logger.Logger,
	cfg FineTuneConfig,
	provider openai.Provider,
	questions repos.QuestionRepo,
	answers repos.AnswerRepo,
	levelAnswers repos.LevelAnswerRepo,
	normalAnswers repos.LevelAnswerRepo,
	models repos.LlmModelRepo,
	prompts repos.PromptRepo,
	poller *FineTunePoller,
	archive TrainingArchive,
) FineTuneService {
	if strings.TrimSpace(cfg.BaseModel) == "" {
		cfg.BaseModel = DefaultBaseModel
	}
	if cfg.AnswerConcurrency <= 0 {
		cfg.AnswerConcurrency = 1
	}
	return &fineTuneService{
		log:           baseLog.With("service", "FineTuneService"),
		cfg:           cfg,
		provider:      provider,
		questions:     questions,
		answers:       answers,
		levelAnswers:  levelAnswers,
		normalAnswers: normalAnswers,
		models:        models,
		prompts:       prompts,
		poller:        poller,
		archive:       archive,
	}
}

func (s *fineTuneService) systemPrompt(ctx context.Context, level types.Tier) (string, error) {
	p, ok, err := s.prompts.Get(ctx, level)
	if err != nil {
		return "", fmt.Errorf("get system prompt: %w", err)
	}
	if !ok {
		return "", apierr.NotFound("no system prompt stored for level %s", level)
	}
	return p, nil
}

func (s *fineTuneService) CreateFinetuningModel(ctx context.Context, testID, subjectID int, level types.Tier) (*types.FineTuneResult, error) {
	if !level.IsLevel() {
		return nil, apierr.InvalidArgument("level must be one of low, medium, high: got %q", level)
	}
	log := s.log.With("testId", testID, "subjectId", subjectID, "level", level)

	job, err := s.submit(ctx, log, testID, subjectID, level)
	if err != nil {
		if apierr.CodeOf(err) == "internal" {
			return nil, err
		}
		log.Error("Fine-tune submission failed", "error", err)
		failed := &types.LlmModel{TestID: testID, SubjectID: subjectID, Level: level, Status: types.StatusFailed}
		if uerr := s.models.Upsert(ctx, failed); uerr != nil {
			return nil, fmt.Errorf("record failed submission: %w", uerr)
		}
		return &types.FineTuneResult{Status: types.StatusFailed, Error: err.Error()}, nil
	}

	status := types.MapProviderStatus(job.Status)
	m := &types.LlmModel{
		TestID:         testID,
		SubjectID:      subjectID,
		Level:          level,
		Status:         status,
		FineTunedModel: types.StringPtr(job.FineTunedModel),
		JobID:          types.StringPtr(job.ID),
	}
	if err := s.models.Upsert(ctx, m); err != nil {
		return nil, fmt.Errorf("record submitted job: %w", err)
	}
	log.Info("Fine-tune job submitted", "job_id", job.ID, "status", status)

	if s.poller != nil && !status.IsTerminal() {
		s.poller.Start(job.ID)
	}
	return &types.FineTuneResult{Status: status, FineTunedModel: m.FineTunedModel, JobID: job.ID}, nil
}

// submit builds, archives and uploads the training file and creates the
// job. Storage failures are returned unclassified; everything else is an
// apierr so the caller can record a failed submission.
func (s *fineTuneService) submit(ctx context.Context, log *logger.Logger, testID, subjectID int, level types.Tier) (*openai.FineTuneJob, error) {
	prompt, err := s.systemPrompt(ctx, level)
	if err != nil {
		return nil, err
	}
	qs, err := s.questions.ListBySubject(ctx, testID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	ans, err := s.answers.ListByTier(ctx, level, testID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list %s answers: %w", level, err)
	}
	data, rows, err := BuildTrainingData(prompt, qs, ans)
	if err != nil {
		return nil, apierr.InvalidArgument("%v", err)
	}
	if rows == 0 {
		return nil, apierr.InvalidArgument("no complete %s answers to train on", level)
	}
	log.Debug("Training data built", "rows", rows, "training_data", string(data))

	suffix := fmt.Sprintf("%d_%d_%s", testID, subjectID, level)
	fileName := suffix + ".jsonl"
	if s.archive != nil {
		if uri, aerr := s.archive.Put(ctx, fileName, data, "application/jsonl"); aerr != nil {
			log.Warn("Training file archive failed (continuing)", "error", aerr)
		} else {
			log.Info("Training file archived", "uri", uri)
		}
	}

	fileID, err := s.provider.UploadTrainingFile(ctx, fileName, data)
	if err != nil {
		return nil, asProviderErr(err)
	}
	job, err := s.provider.CreateFineTuneJob(ctx, openai.FineTuneJobRequest{
		TrainingFileID: fileID,
		BaseModel:      s.cfg.BaseModel,
		Suffix:         suffix,
	})
	if err != nil {
		return nil, asProviderErr(err)
	}
	return job, nil
}

func (s *fineTuneService) GetFinetuningStatus(ctx context.Context, jobID string) (*types.FineTuneResult, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, apierr.InvalidArgument("job_id is required")
	}
	res, err := syncJobStatus(ctx, s.provider, s.models, jobID)
	if err != nil {
		if apierr.CodeOf(err) == "internal" {
			return nil, err
		}
		s.log.Error("Fine-tune status query failed", "job_id", jobID, "error", err)
		return &types.FineTuneResult{JobID: jobID, Error: err.Error()}, nil
	}
	return res, nil
}

// syncJobStatus queries the provider for jobID, applies the mapped status
// through the forward-only guard and returns the status as now recorded.
// When no LlmModel tracks the job the provider's mapped status is returned.
func syncJobStatus(ctx context.Context, provider openai.Provider, models repos.LlmModelRepo, jobID string) (*types.FineTuneResult, error) {
	job, err := provider.RetrieveFineTuneJob(ctx, jobID)
	if err != nil {
		return nil, asProviderErr(err)
	}
	status := types.MapProviderStatus(job.Status)
	_, cur, err := models.AdvanceStatus(ctx, jobID, status, types.StringPtr(job.FineTunedModel))
	if err != nil {
		return nil, fmt.Errorf("persist job status: %w", err)
	}
	res := &types.FineTuneResult{Status: status, FineTunedModel: types.StringPtr(job.FineTunedModel), JobID: jobID}
	if cur != nil {
		res.Status = cur.Status
		if cur.FineTunedModel != nil {
			res.FineTunedModel = cur.FineTunedModel
		}
	}
	return res, nil
}

func (s *fineTuneService) CreateFinetunedAnswers(ctx context.Context, modelID string, level types.Tier, testID, subjectID int) (*types.OperationResult, error) {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, apierr.InvalidArgument("model_id is required")
	}
	return s.generateAnswers(ctx, modelID, level, testID, subjectID, s.levelAnswers)
}

func (s *fineTuneService) CreateBaselineAnswers(ctx context.Context, level types.Tier, testID, subjectID int) (*types.OperationResult, error) {
	return s.generateAnswers(ctx, s.cfg.BaseModel, level, testID, subjectID, s.normalAnswers)
}

type answerJob struct {
	question *types.Question
	base     *types.Answer
}

// generateAnswers asks model to solve every question given its base answer
// and stores the completions in sink. The first provider error aborts the
// remaining rows.
func (s *fineTuneService) generateAnswers(ctx context.Context, model string, level types.Tier, testID, subjectID int, sink repos.LevelAnswerRepo) (*types.OperationResult, error) {
	if !level.IsLevel() {
		return nil, apierr.InvalidArgument("level must be one of low, medium, high: got %q", level)
	}
	log := s.log.With("model", model, "testId", testID, "subjectId", subjectID, "level", level)

	prompt, err := s.systemPrompt(ctx, level)
	if err != nil {
		if apierr.CodeOf(err) == "internal" {
			return nil, err
		}
		return &types.OperationResult{Error: err.Error()}, nil
	}
	qs, err := s.questions.ListBySubject(ctx, testID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	base, err := s.answers.ListByTier(ctx, types.TierBase, testID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list base answers: %w", err)
	}
	jobs, err := pairQuestionsWithAnswers(qs, base)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.AnswerConcurrency)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := s.provider.ChatCompletion(gctx, model, answerMessages(prompt, j.question, j.base), AnswerTemperature)
			if err != nil {
				return asProviderErr(err)
			}
			return sink.Upsert(gctx, &types.LevelAnswer{
				TestID:      testID,
				SubjectID:   subjectID,
				Level:       level,
				QuestionNum: j.question.QuestionNumber,
				Answer:      text,
				TestMonth:   j.question.TestMonth,
				SubjectName: j.question.SubjectName,
			})
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("Answer generation aborted", "error", err)
		if apierr.CodeOf(err) == "internal" && ctx.Err() == nil {
			return nil, err
		}
		return &types.OperationResult{Error: err.Error()}, nil
	}
	log.Info("Answers generated", "count", len(jobs), "elapsed", time.Since(started).String())
	return &types.OperationResult{Status: "completed", Written: len(jobs)}, nil
}

// pairQuestionsWithAnswers joins on question number and refuses to pair
// when the two sides do not cover the same questions.
func pairQuestionsWithAnswers(qs []*types.Question, answers []*types.Answer) ([]answerJob, error) {
	byNum := make(map[int]*types.Answer, len(answers))
	for _, a := range answers {
		byNum[a.QuestionNum] = a
	}
	var missing []int
	out := make([]answerJob, 0, len(qs))
	seen := make(map[int]bool, len(qs))
	for _, q := range qs {
		seen[q.QuestionNumber] = true
		a, ok := byNum[q.QuestionNumber]
		if !ok {
			missing = append(missing, q.QuestionNumber)
			continue
		}
		out = append(out, answerJob{question: q, base: a})
	}
	var orphans []int
	for num := range byNum {
		if !seen[num] {
			orphans = append(orphans, num)
		}
	}
	if len(missing) > 0 || len(orphans) > 0 {
		sort.Ints(orphans)
		return nil, apierr.DataAlignment(
			"questions and base answers do not align: questions without base answer %v, base answers without question %v",
			missing, orphans)
	}
	return out, nil
}

func answerMessages(systemPrompt string, q *types.Question, base *types.Answer) []openai.Message {
	return []openai.Message{
		{Role: openai.RoleSystem, Content: systemPrompt},
		{Role: openai.RoleSystem, Content: q.Question},
		{Role: openai.RoleSystem, Content: q.Content},
		{Role: openai.RoleSystem, Content: strings.Join(q.Choices, "\n")},
		{Role: openai.RoleSystem, Content: base.Answer},
		{Role: openai.RoleUser, Content: AnswerInstruction},
	}
}

func (s *fineTuneService) CancelPolling(jobID string) bool {
	if s.poller == nil {
		return false
	}
	return s.poller.Cancel(jobID)
}

// asProviderErr keeps configuration errors as they are and classifies
// everything else from a provider call as a provider error.
func asProviderErr(err error) error {
	if _, ok := apierr.As(err); ok {
		return err
	}
	return apierr.Provider(err)
}
