package web

import "github.com/gin-gonic/gin"

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)

	api := router.Group("/api")

	// Snapshot and refresh.
	api.GET("/state", s.handleState)
	api.POST("/reload", s.handleReload)
	api.DELETE("/error", s.handleDismissError)

	// Tree rows.
	api.POST("/expanded/:key", s.handleExpand)

	// Dialogs.
	api.POST("/modal", s.handleOpenModal)
	api.DELETE("/modal", s.handleCloseModal)
	api.PATCH("/modal/draft", s.handleUpdateDraft)
	api.POST("/modal/save", s.handleSave)
	api.POST("/modal/parent", s.handleBackToParent)

	// Backend actions.
	api.POST("/actions", s.handleAction)

	api.GET("/events", s.handleEvents)
}
