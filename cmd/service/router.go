package service

import (
	"github.com/prodpilot/prodpilot/app/core"
	"github.com/prodpilot/prodpilot/app/response"
	"github.com/prodpilot/prodpilot/cmd/service/handler"
	"github.com/prodpilot/prodpilot/cmd/service/middleware"
	"github.com/prodpilot/prodpilot/pkg/metrics"
)

func serve(core *core.Core) {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	core.HttpEngine().Run(core.Cfg().Addr)
}

func setupHttpRouter(s *handler.HttpSrv) {
	s.Engine.GET("/metrics", metrics.DefaultExportHandler())

	s.Engine.Use(middleware.I18n(), middleware.AcceptLanguage(), response.NewResponse())
	s.Engine.Use(middleware.Cors)
	s.Engine.Use(middleware.Observe(s.Core))

	apiV1 := s.Engine.Group("/api/v1")
	{
		kb := apiV1.Group("/knowledge-bases")
		{
			kb.POST("", s.CreateKnowledgeBase)
			kb.GET("", s.ListKnowledgeBases)
			kb.GET("/:id", s.GetKnowledgeBase)
			kb.GET("/:id/status", s.GetKnowledgeBaseStatus)
			kb.PATCH("/:id", s.UpdateKnowledgeBase)
			kb.DELETE("/:id", s.DeleteKnowledgeBase)

			kb.POST("/:id/upload", s.UploadFiles)
			kb.POST("/:id/github", s.ImportFromGithub)

			kb.GET("/:id/documents", s.ListDocuments)
			kb.GET("/:id/documents/:docId", s.GetDocument)
			kb.DELETE("/:id/documents/:docId", s.DeleteDocument)
			kb.POST("/:id/documents/:docId/reprocess", s.ReprocessDocument)

			kb.POST("/:id/query", s.Query)
		}
	}
}
