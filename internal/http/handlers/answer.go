package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tutorstudio-backend/internal/http/response"
	"github.com/yungbote/tutorstudio-backend/internal/services"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

type AnswerHandler struct {
	answers services.AnswerService
}

func NewAnswerHandler(answers services.AnswerService) *AnswerHandler {
	return &AnswerHandler{answers: answers}
}

// POST /answer/:test_id/:subject_id
func (h *AnswerHandler) SaveAnswer(c *gin.Context) {
	ids, err := pathIDs(c, "test_id", "subject_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var data types.AnswerData
	if err := bindJSON(c, &data); err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.answers.SaveOrUpdateAnswer(c.Request.Context(), ids[0], ids[1], data)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /answer_status/:test_id/:subject_id
//
// Responds with the question_num -> complete map.
func (h *AnswerHandler) AnswerStatus(c *gin.Context) {
	ids, err := pathIDs(c, "test_id", "subject_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	readiness, _, err := h.answers.ComputeReadiness(c.Request.Context(), ids[0], ids[1])
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out := make(map[string]bool, len(readiness))
	for k, v := range readiness {
		out[strconv.Itoa(k)] = v
	}
	response.RespondOK(c, out)
}

// GET /answer/:test_id/:subject_id/:question_num/:answer_type
//
// Responds {"answer": ""} when nothing is stored.
func (h *AnswerHandler) GetSpecificAnswer(c *gin.Context) {
	ids, err := pathIDs(c, "test_id", "subject_id", "question_num")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	// An unknown answer type names no collection, so nothing is stored
	// under it: same empty answer as any other miss.
	tier, err := types.ParseTier(c.Param("answer_type"))
	if err != nil {
		response.RespondOK(c, gin.H{"answer": ""})
		return
	}
	answer, err := h.answers.GetSpecificAnswer(c.Request.Context(), ids[0], ids[1], ids[2], tier)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"answer": answer})
}
