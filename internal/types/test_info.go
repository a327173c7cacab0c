package types

// TestInfo describes one (test, subject) pair. IsReady is derived by the
// readiness tracker and never taken as input.
type TestInfo struct {
	TestID      int    `json:"testId" bson:"testId"`
	SubjectID   int    `json:"subjectId" bson:"subjectId"`
	TestMonth   string `json:"test_month" bson:"test_month"`
	SubjectName string `json:"subject_name" bson:"subject_name"`
	IsReady     bool   `json:"is_ready" bson:"is_ready"`
}

// Question is immutable reference data seeded outside this service.
type Question struct {
	TestID         int      `json:"testId" bson:"testId"`
	SubjectID      int      `json:"subjectId" bson:"subjectId"`
	QuestionNumber int      `json:"question_number" bson:"question_number"`
	Question       string   `json:"question" bson:"question"`
	Content        string   `json:"content" bson:"content"`
	Choices        []string `json:"choices" bson:"choices"`
	TestMonth      string   `json:"test_month" bson:"test_month"`
	SubjectName    string   `json:"subject_name" bson:"subject_name"`
}

// SystemPrompt is static configuration keyed by level.
type SystemPrompt struct {
	Level        Tier   `json:"level" bson:"level" yaml:"level"`
	SystemPrompt string `json:"system_prompt" bson:"system_prompt" yaml:"system_prompt"`
}
