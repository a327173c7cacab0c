package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/tutorstudio-backend/internal/http/response"
	"github.com/yungbote/tutorstudio-backend/internal/services"
)

type CatalogHandler struct {
	catalog services.CatalogService
}

func NewCatalogHandler(catalog services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GET /test_infos
func (h *CatalogHandler) ListTestInfos(c *gin.Context) {
	infos, err := h.catalog.ListTestInfos(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, infos)
}

// GET /datalists
func (h *CatalogHandler) DataLists(c *gin.Context) {
	lists, err := h.catalog.DataLists(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, lists)
}

// GET /questions/:test_id/:subject_id
//
// Responds with the pair [questions, base_answers].
func (h *CatalogHandler) GetQuestions(c *gin.Context) {
	ids, err := pathIDs(c, "test_id", "subject_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	qa, err := h.catalog.GetQuestionsWithBaseAnswers(c.Request.Context(), ids[0], ids[1])
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, []any{qa.Questions, qa.BaseAnswers})
}
