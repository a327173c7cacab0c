package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/tutorstudio-backend/internal/platform/openai"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

type trainingExample struct {
	Messages []openai.Message `json:"messages"`
}

// QuestionPrompt renders the user turn of a training example: the
// question, its passage and the choices one per line.
func QuestionPrompt(q *types.Question) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{q.Question, q.Content, strings.Join(q.Choices, "\n")} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// BuildTrainingData renders chat fine-tuning JSONL. Questions and answers
// are joined on question number; rows without a complete answer are
// skipped. It returns the file and the number of rows written.
func BuildTrainingData(systemPrompt string, questions []*types.Question, answers []*types.Answer) ([]byte, int, error) {
	byNum := make(map[int]*types.Answer, len(answers))
	for _, a := range answers {
		byNum[a.QuestionNum] = a
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	rows := 0
	for _, q := range questions {
		a, ok := byNum[q.QuestionNumber]
		if !ok || !a.Complete() {
			continue
		}
		ex := trainingExample{Messages: []openai.Message{
			{Role: openai.RoleSystem, Content: systemPrompt},
			{Role: openai.RoleUser, Content: QuestionPrompt(q)},
			{Role: openai.RoleAssistant, Content: a.Answer},
		}}
		if err := enc.Encode(ex); err != nil {
			return nil, 0, fmt.Errorf("encode training row %d: %w", q.QuestionNumber, err)
		}
		rows++
	}
	return buf.Bytes(), rows, nil
}
