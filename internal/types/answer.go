package types

import "strings"

// Answer is one tier's answer to a question. Stored in "{tier}_answer",
// unique per (testId, subjectId, question_num).
type Answer struct {
	TestID      int    `json:"testId" bson:"testId"`
	SubjectID   int    `json:"subjectId" bson:"subjectId"`
	QuestionNum int    `json:"question_num" bson:"question_num"`
	Answer      string `json:"answer" bson:"answer"`
	TestMonth   string `json:"test_month" bson:"test_month"`
	SubjectName string `json:"subject_name" bson:"subject_name"`
}

// Complete reports whether the answer has non-whitespace text.
func (a Answer) Complete() bool {
	return strings.TrimSpace(a.Answer) != ""
}

// LevelAnswer is a model-generated answer tagged by level. Stored in
// "level_answers" (fine-tuned model) and "normal_answers" (base model),
// unique per (testId, subjectId, level, question_num).
type LevelAnswer struct {
	TestID      int    `json:"testId" bson:"testId"`
	SubjectID   int    `json:"subjectId" bson:"subjectId"`
	Level       Tier   `json:"level" bson:"level"`
	QuestionNum int    `json:"question_num" bson:"question_num"`
	Answer      string `json:"answer" bson:"answer"`
	TestMonth   string `json:"test_month" bson:"test_month"`
	SubjectName string `json:"subject_name" bson:"subject_name"`
}

func (a LevelAnswer) Complete() bool {
	return strings.TrimSpace(a.Answer) != ""
}

// AnswerData is the field bag a client submits when saving an answer.
type AnswerData struct {
	AnswerType  string  `json:"answer_type" validate:"required,oneof=base low medium high"`
	QuestionNum FlexInt `json:"question_num" validate:"gte=1"`
	Answer      string  `json:"answer"`
	TestMonth   string  `json:"test_month"`
	SubjectName string  `json:"subject_name"`
}

// SaveResult is returned by a save-or-update of an answer.
type SaveResult struct {
	Result    string       `json:"result"` // "inserted" | "updated"
	Readiness map[int]bool `json:"readiness"`
	IsReady   bool         `json:"is_ready"`
}
