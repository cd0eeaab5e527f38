package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/prodpilot/prodpilot/app/logic/v1"
	"github.com/prodpilot/prodpilot/app/response"
	"github.com/prodpilot/prodpilot/pkg/types"
	"github.com/prodpilot/prodpilot/pkg/utils"
)

type ListDocumentsRequest struct {
	Status   string `json:"status" form:"status"`
	Page     uint64 `json:"page" form:"page"`
	PageSize uint64 `json:"pagesize" form:"pagesize"`
}

type ListDocumentsResponse struct {
	List  []types.Document `json:"list"`
	Total int64            `json:"total"`
}

func (s *HttpSrv) ListDocuments(c *gin.Context) {
	var req ListDocumentsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 || req.PageSize > types.MAX_QUERY_LIMIT {
		req.PageSize = types.DEFAULT_QUERY_LIMIT
	}

	id, _ := c.Params.Get("id")
	list, total, err := v1.NewDocumentLogic(c, s.Core).List(id, types.DocumentStatus(req.Status), req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, ListDocumentsResponse{
		List:  list,
		Total: total,
	})
}

func (s *HttpSrv) GetDocument(c *gin.Context) {
	id, _ := c.Params.Get("id")
	docID, _ := c.Params.Get("docId")

	doc, err := v1.NewDocumentLogic(c, s.Core).Get(id, docID)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, doc)
}

func (s *HttpSrv) DeleteDocument(c *gin.Context) {
	id, _ := c.Params.Get("id")
	docID, _ := c.Params.Get("docId")

	if err := v1.NewDocumentLogic(c, s.Core).Delete(id, docID); err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, nil)
}

func (s *HttpSrv) ReprocessDocument(c *gin.Context) {
	id, _ := c.Params.Get("id")
	docID, _ := c.Params.Get("docId")

	doc, err := v1.NewDocumentLogic(c, s.Core).Reprocess(id, docID)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, doc)
}
