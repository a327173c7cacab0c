package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/tutorstudio-backend/internal/http/response"
	"github.com/yungbote/tutorstudio-backend/internal/services"
)

type EvaluationHandler struct {
	eval services.EvaluationService
}

func NewEvaluationHandler(eval services.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{eval: eval}
}

// GET /evaluate/:test_id/:subject_id/:level
func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	ids, err := pathIDs(c, "test_id", "subject_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	level, err := pathLevel(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	report, err := h.eval.TestFinetunedAnswers(c.Request.Context(), ids[0], ids[1], level)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, report)
}
