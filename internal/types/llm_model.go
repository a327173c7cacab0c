package types

import "strings"

// FineTuneStatus is the local vocabulary for a fine-tuning job.
type FineTuneStatus string

const (
	StatusPending         FineTuneStatus = "pending"
	StatusValidatingFiles FineTuneStatus = "validating_files"
	StatusRunning         FineTuneStatus = "running"
	StatusSucceeded       FineTuneStatus = "succeeded"
	StatusFailed          FineTuneStatus = "failed"
	StatusCancelled       FineTuneStatus = "cancelled"
	StatusUnknown         FineTuneStatus = "unknown"
)

// MapProviderStatus converts a provider job status to the local
// vocabulary. "queued" becomes pending; anything unrecognised is unknown.
func MapProviderStatus(raw string) FineTuneStatus {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case "queued", "pending":
		return StatusPending
	case "validating_files":
		return StatusValidatingFiles
	case "running":
		return StatusRunning
	case "succeeded":
		return StatusSucceeded
	case "failed":
		return StatusFailed
	case "cancelled":
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

func (s FineTuneStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

func (s FineTuneStatus) rank() int {
	switch s {
	case StatusValidatingFiles:
		return 1
	case StatusRunning:
		return 2
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return 3
	default:
		// pending, unknown and anything unrecorded
		return 0
	}
}

// CanTransition reports whether a job recorded as s may move to next.
// Terminal states are final; otherwise a status may only stay level or
// move forward.
func (s FineTuneStatus) CanTransition(next FineTuneStatus) bool {
	if s.IsTerminal() {
		return false
	}
	return next.rank() >= s.rank()
}

// LlmModel tracks one fine-tuned model per (testId, subjectId, level).
type LlmModel struct {
	TestID         int            `json:"testId" bson:"testId"`
	SubjectID      int            `json:"subjectId" bson:"subjectId"`
	Level          Tier           `json:"level" bson:"level"`
	Status         FineTuneStatus `json:"status" bson:"status"`
	FineTunedModel *string        `json:"fine_tuned_model" bson:"fine_tuned_model"`
	JobID          *string        `json:"job_id" bson:"job_id"`
}

// FineTuneResult is what fine-tuning operations hand back to callers:
// either a job descriptor or an error message, never nothing.
type FineTuneResult struct {
	Status         FineTuneStatus `json:"status,omitempty"`
	FineTunedModel *string        `json:"fine_tuned_model,omitempty"`
	JobID          string         `json:"job_id,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// OperationResult is the {status} / {error} payload of batch operations.
type OperationResult struct {
	Status  string `json:"status,omitempty"`
	Written int    `json:"written,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LevelStatus is one level's entry in the datalists dashboard.
type LevelStatus struct {
	FineTunedModel *string        `json:"fine_tuned_model"`
	Status         FineTuneStatus `json:"status"`
	JobID          *string        `json:"job_id"`
	AnswersStatus  string         `json:"answers_status"`
}

// DataList is a TestInfo with per-level fine-tune state.
type DataList struct {
	TestInfo
	Levels map[Tier]*LevelStatus `json:"levels"`
}

func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
