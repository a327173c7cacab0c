package app

import (
	"github.com/yungbote/tutorstudio-backend/internal/platform/docstore"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/repos"
)

type Repos struct {
	TestInfo     repos.TestInfoRepo
	Question     repos.QuestionRepo
	Answer       repos.AnswerRepo
	LevelAnswer  repos.LevelAnswerRepo
	NormalAnswer repos.LevelAnswerRepo
	LlmModel     repos.LlmModelRepo
	Prompt       repos.PromptRepo
}

func wireRepos(store docstore.Store, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		TestInfo:     repos.NewTestInfoRepo(store, log),
		Question:     repos.NewQuestionRepo(store, log),
		Answer:       repos.NewAnswerRepo(store, log),
		LevelAnswer:  repos.NewLevelAnswerRepo(store, log),
		NormalAnswer: repos.NewNormalAnswerRepo(store, log),
		LlmModel:     repos.NewLlmModelRepo(store, log),
		Prompt:       repos.NewPromptRepo(store, log),
	}
}
