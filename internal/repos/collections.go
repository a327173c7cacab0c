package repos

// Collection names. Answer collections are per tier and come from
// types.Tier.Collection.
const (
	CollTestInfo      = "test_info"
	CollQuestions     = "questions"
	CollLevelAnswers  = "level_answers"
	CollNormalAnswers = "normal_answers"
	CollLlmModels     = "llm_models"
	CollPrompts       = "prompts"
)
