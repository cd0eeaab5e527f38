package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/prodpilot/prodpilot/app/logic/v1"
	"github.com/prodpilot/prodpilot/app/response"
	"github.com/prodpilot/prodpilot/pkg/errors"
	"github.com/prodpilot/prodpilot/pkg/i18n"
	"github.com/prodpilot/prodpilot/pkg/source"
	"github.com/prodpilot/prodpilot/pkg/types"
	"github.com/prodpilot/prodpilot/pkg/utils"
)

type CreateKnowledgeBaseRequest struct {
	Name        string                       `json:"name" binding:"required"`
	Description string                       `json:"description"`
	Settings    *types.KnowledgeBaseSettings `json:"settings"`
}

func (s *HttpSrv) CreateKnowledgeBase(c *gin.Context) {
	var req CreateKnowledgeBaseRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	kb, err := v1.NewKnowledgeBaseLogic(c, s.Core).Create(v1.CreateKnowledgeBaseArgs{
		Name:        req.Name,
		Description: req.Description,
		Settings:    req.Settings,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, kb)
}

type ListKnowledgeBaseRequest struct {
	Keywords string `json:"keywords" form:"keywords"`
	Page     uint64 `json:"page" form:"page"`
	PageSize uint64 `json:"pagesize" form:"pagesize"`
}

type ListKnowledgeBaseResponse struct {
	List  []types.KnowledgeBase `json:"list"`
	Total int64                 `json:"total"`
}

func (s *HttpSrv) ListKnowledgeBases(c *gin.Context) {
	var req ListKnowledgeBaseRequest
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

	list, total, err := v1.NewKnowledgeBaseLogic(c, s.Core).List(types.GetKnowledgeBaseOptions{
		Keywords: req.Keywords,
	}, req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, ListKnowledgeBaseResponse{
		List:  list,
		Total: total,
	})
}

func (s *HttpSrv) GetKnowledgeBase(c *gin.Context) {
	id, _ := c.Params.Get("id")

	kb, err := v1.NewKnowledgeBaseLogic(c, s.Core).Get(id)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, kb)
}

func (s *HttpSrv) GetKnowledgeBaseStatus(c *gin.Context) {
	id, _ := c.Params.Get("id")

	status, err := v1.NewKnowledgeBaseLogic(c, s.Core).Status(id)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, status)
}

type UpdateKnowledgeBaseRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *HttpSrv) UpdateKnowledgeBase(c *gin.Context) {
	var req UpdateKnowledgeBaseRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	id, _ := c.Params.Get("id")
	err := v1.NewKnowledgeBaseLogic(c, s.Core).Update(id, types.UpdateKnowledgeBaseArgs{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, nil)
}

func (s *HttpSrv) DeleteKnowledgeBase(c *gin.Context) {
	id, _ := c.Params.Get("id")

	if err := v1.NewKnowledgeBaseLogic(c, s.Core).Delete(id); err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, nil)
}

type IngestResponse struct {
	Documents []v1.IngestItemResult `json:"documents"`
}

// readUploadPart reads at most maxSize+1 bytes so an oversize part never
// buffers beyond the configured limit. The extra byte keeps the adapter's
// size check tripping on truncated files.
func readUploadPart(r io.Reader, maxSize int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxSize+1))
}

func (s *HttpSrv) UploadFiles(c *gin.Context) {
	id, _ := c.Params.Get("id")

	form, err := c.MultipartForm()
	if err != nil {
		response.APIError(c, errors.New("HttpSrv.UploadFiles.MultipartForm", i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest))
		return
	}

	maxSize := s.Core.Cfg().Ingest.MaxUploadSize
	if maxSize <= 0 {
		maxSize = source.DefaultMaxUploadSize
	}

	var files []source.UploadedFile
	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			response.APIError(c, errors.New("HttpSrv.UploadFiles.Open", i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest))
			return
		}
		raw, err := readUploadPart(f, maxSize)
		f.Close()
		if err != nil {
			response.APIError(c, errors.New("HttpSrv.UploadFiles.ReadAll", i18n.ERROR_INTERNAL, err))
			return
		}
		files = append(files, source.UploadedFile{
			Name: fh.Filename,
			Data: raw,
		})
	}

	results, err := v1.NewKnowledgeBaseLogic(c, s.Core).UploadFiles(id, files)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, IngestResponse{Documents: results})
}

type ImportGithubRequest struct {
	RepoURL string `json:"repo_url" binding:"required"`
	Branch  string `json:"branch"`
	Token   string `json:"token"`
}

func (s *HttpSrv) ImportFromGithub(c *gin.Context) {
	var req ImportGithubRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	id, _ := c.Params.Get("id")
	results, err := v1.NewKnowledgeBaseLogic(c, s.Core).ImportFromGithub(id, v1.ImportGithubArgs{
		RepoURL: req.RepoURL,
		Branch:  req.Branch,
		Token:   req.Token,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, IngestResponse{Documents: results})
}
