package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/prodpilot/prodpilot/app/logic/v1"
	"github.com/prodpilot/prodpilot/app/response"
	"github.com/prodpilot/prodpilot/pkg/utils"
)

type QueryRequest struct {
	Query string `json:"query" binding:"required"`
	Limit uint64 `json:"limit"`
}

func (s *HttpSrv) Query(c *gin.Context) {
	var req QueryRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	id, _ := c.Params.Get("id")
	result, err := v1.NewQueryLogic(c, s.Core).Query(id, req.Query, req.Limit)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, result)
}
