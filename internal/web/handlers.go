package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdash/internal/api"
	"taskdash/internal/dashboard"
	"taskdash/internal/models"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type openModalRequest struct {
	Mode string `json:"mode"`
	Key  string `json:"key"`
}

type expandRequest struct {
	Expanded *bool `json:"expanded"`
}

type actionRequest struct {
	Key    string `json:"key"`
	Action string `json:"action"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleState(c *gin.Context) {
	s.writeState(c)
}

func (s *Server) handleReload(c *gin.Context) {
	if err := s.ctrl.Load(c.Request.Context()); err != nil {
		s.writeError(c, err)
		return
	}
	s.writeState(c)
}

func (s *Server) handleDismissError(c *gin.Context) {
	s.ctrl.DismissError()
	s.writeState(c)
}

// handleExpand sets the row state from {"expanded": bool}, or toggles it when
// the body is empty.
func (s *Server) handleExpand(c *gin.Context) {
	var req expandRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			s.writeError(c, &models.ValidationError{Field: "body", Message: "invalid JSON payload"})
			return
		}
	}

	ctx := c.Request.Context()
	key := c.Param("key")
	var err error
	if req.Expanded == nil {
		_, err = s.ctrl.ToggleExpand(ctx, key)
	} else {
		err = s.ctrl.SetExpanded(ctx, key, *req.Expanded)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeState(c)
}

func (s *Server) handleOpenModal(c *gin.Context) {
	var req openModalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, &models.ValidationError{Field: "body", Message: "invalid JSON payload"})
		return
	}
	mode, err := dashboard.ParseModalMode(req.Mode)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.ctrl.Open(mode, req.Key); err != nil {
		s.writeError(c, err)
		return
	}
	s.writeState(c)
}

func (s *Server) handleCloseModal(c *gin.Context) {
	s.ctrl.CloseModal()
	s.writeState(c)
}

func (s *Server) handleUpdateDraft(c *gin.Context) {
	var patch dashboard.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.writeError(c, &models.ValidationError{Field: "body", Message: "invalid JSON payload"})
		return
	}
	if err := s.ctrl.UpdateDraft(patch); err != nil {
		s.writeError(c, err)
		return
	}
	s.writeState(c)
}

func (s *Server) handleSave(c *gin.Context) {
	if err := s.ctrl.Save(c.Request.Context()); err != nil {
		s.writeError(c, err)
		return
	}
	s.writeState(c)
}

func (s *Server) handleBackToParent(c *gin.Context) {
	if err := s.ctrl.BackToParent(); err != nil {
		s.writeError(c, err)
		return
	}
	s.writeState(c)
}

func (s *Server) handleAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, &models.ValidationError{Field: "body", Message: "invalid JSON payload"})
		return
	}
	action, err := models.ParseAction(req.Action)
	if err != nil {
		s.writeError(c, &models.ValidationError{Field: "action", Message: err.Error()})
		return
	}
	if err := s.ctrl.RunActionByKey(c.Request.Context(), req.Key, action); err != nil {
		s.writeError(c, err)
		return
	}
	s.writeState(c)
}

func (s *Server) writeState(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, s.stateView(s.ctrl.Snapshot()))
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, code := classifyError(err)
	message := err.Error()

	fields := []any{"status", status, "code", code, "error", err, "method", c.Request.Method, "path", c.Request.URL.Path}
	switch {
	case status >= 500 && status != http.StatusBadGateway:
		s.logger.Error("request error", fields...)
		message = "internal error"
	case status >= 500:
		s.logger.Warn("backend error", fields...)
	default:
		s.logger.Debug("request rejected", fields...)
	}

	c.AbortWithStatusJSON(status, errorResponse{Error: message, Code: code})
}

func classifyError(err error) (int, string) {
	var (
		validationErr *models.ValidationError
		notFoundErr   *models.NotFoundError
		transportErr  *api.TransportError
		protocolErr   *api.ProtocolError
		serverErr     *api.ServerError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "invalid_argument"
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, dashboard.ErrNoDraft), errors.Is(err, dashboard.ErrNotViewingSubtask):
		return http.StatusConflict, "conflict"
	case errors.As(err, &transportErr), errors.As(err, &protocolErr), errors.As(err, &serverErr):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
