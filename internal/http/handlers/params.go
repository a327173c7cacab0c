package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/tutorstudio-backend/internal/platform/apierr"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

// pathIDs parses the named path params as integer identifiers.
func pathIDs(c *gin.Context, names ...string) ([]int, error) {
	out := make([]int, 0, len(names))
	for _, name := range names {
		n, err := types.ParseID(c.Param(name))
		if err != nil {
			return nil, apierr.InvalidArgument("%s: %v", name, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func pathLevel(c *gin.Context) (types.Tier, error) {
	level, err := types.ParseLevel(c.Param("level"))
	if err != nil {
		return "", apierr.InvalidArgument("%v", err)
	}
	return level, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apierr.InvalidArgument("invalid request body: %v", err)
	}
	return nil
}

// subjectRequest is the body shared by the answer-generation routes.
type subjectRequest struct {
	TestID    types.FlexInt `json:"testId"`
	SubjectID types.FlexInt `json:"subjectId"`
	Level     string        `json:"level"`
}

func (r subjectRequest) level() (types.Tier, error) {
	level, err := types.ParseLevel(r.Level)
	if err != nil {
		return "", apierr.InvalidArgument("%v", err)
	}
	if r.TestID <= 0 || r.SubjectID <= 0 {
		return "", apierr.InvalidArgument("testId and subjectId are required: got %d/%d", r.TestID, r.SubjectID)
	}
	return level, nil
}
