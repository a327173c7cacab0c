package types

// EvaluationReport compares a level's fine-tuned answers and base-model
// answers against the curated standard answers. Scores are percentages.
type EvaluationReport struct {
	Level        Tier  `json:"level"`
	QuestionNums []int `json:"question_nums"`

	AvgCosineFinetuned   float64 `json:"avg_cosine_similarity_finetuned"`
	AvgSemanticFinetuned float64 `json:"avg_semantic_similarity_finetuned"`
	AvgCosineNormal      float64 `json:"avg_cosine_similarity_normal"`
	AvgSemanticNormal    float64 `json:"avg_semantic_similarity_normal"`

	CosineFinetuned   []float64 `json:"cosine_similarities_finetuned"`
	SemanticFinetuned []float64 `json:"semantic_similarities_finetuned"`
	CosineNormal      []float64 `json:"cosine_similarities_normal"`
	SemanticNormal    []float64 `json:"semantic_similarities_normal"`

	StandardAnswers  []string `json:"standard_answers"`
	NormalAnswers    []string `json:"normal_answers"`
	FinetunedAnswers []string `json:"finetuned_answers"`
}

// QuestionsWithAnswers is the questions of a test subject alongside the
// curated base answers.
type QuestionsWithAnswers struct {
	Questions   []*Question `json:"questions"`
	BaseAnswers []*Answer   `json:"base_answers"`
}
