package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tutorstudio-backend/internal/http/response"
	"github.com/yungbote/tutorstudio-backend/internal/platform/apierr"
	"github.com/yungbote/tutorstudio-backend/internal/services"
)

type FineTuneHandler struct {
	finetune services.FineTuneService
}

func NewFineTuneHandler(finetune services.FineTuneService) *FineTuneHandler {
	return &FineTuneHandler{finetune: finetune}
}

// POST /finetune/:test_id/:subject_id/:level
func (h *FineTuneHandler) CreateFinetuningModel(c *gin.Context) {
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
	res, err := h.finetune.CreateFinetuningModel(c.Request.Context(), ids[0], ids[1], level)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /finetune/status/:job_id
func (h *FineTuneHandler) GetFinetuningStatus(c *gin.Context) {
	res, err := h.finetune.GetFinetuningStatus(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// DELETE /finetune/poll/:job_id
func (h *FineTuneHandler) CancelPolling(c *gin.Context) {
	jobID := strings.TrimSpace(c.Param("job_id"))
	if !h.finetune.CancelPolling(jobID) {
		response.RespondError(c, http.StatusNotFound, apierr.CodeNotFound, apierr.NotFound("no active poll for job %q", jobID))
		return
	}
	response.RespondOK(c, gin.H{"job_id": jobID, "cancelled": true})
}

type finetunedAnswersRequest struct {
	subjectRequest
	ModelID string `json:"model_id"`
}

// POST /finetuned_answers
func (h *FineTuneHandler) CreateFinetunedAnswers(c *gin.Context) {
	var req finetunedAnswersRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	level, err := req.level()
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.finetune.CreateFinetunedAnswers(c.Request.Context(), req.ModelID, level, req.TestID.Int(), req.SubjectID.Int())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /baseline_answers
func (h *FineTuneHandler) CreateBaselineAnswers(c *gin.Context) {
	var req subjectRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	level, err := req.level()
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.finetune.CreateBaselineAnswers(c.Request.Context(), level, req.TestID.Int(), req.SubjectID.Int())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}
