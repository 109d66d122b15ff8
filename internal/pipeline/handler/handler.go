package handler

import (
	"net/http"

	"leadflow_backend/internal/pipeline/service"
	"leadflow_backend/internal/pipeline/transport"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	agg *service.Aggregator
	val *validator.Validator
}

func New(svc *service.Service, agg *service.Aggregator, val *validator.Validator) *Handler {
	return &Handler{svc: svc, agg: agg, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/opportunities/:id/move", h.Move)
	rg.GET("/opportunities/:id", h.GetOpportunity)
	rg.POST("/:id/opportunities", h.CreateOpportunity)
	rg.GET("/:id/opportunities", h.Board)
	rg.GET("/:id/forecast", h.Forecast)
}

func (h *Handler) RegisterDashboardRoutes(rg *gin.RouterGroup) {
	rg.GET("/funnel", h.Funnel)
}

func (h *Handler) Move(c *gin.Context) {
	oppID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	actorID, ok := httpkit.ActorID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	opp, err := h.svc.Move(c.Request.Context(), oppID, req.StageID, actorID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, opp)
}

func (h *Handler) GetOpportunity(c *gin.Context) {
	oppID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	opp, err := h.svc.Get(c.Request.Context(), oppID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, opp)
}

func (h *Handler) CreateOpportunity(c *gin.Context) {
	pipelineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.CreateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	actorID, ok := httpkit.ActorID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	opp, err := h.svc.CreateOpportunity(c.Request.Context(), pipelineID, req, actorID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, opp)
}

func (h *Handler) Board(c *gin.Context) {
	pipelineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	board, err := h.svc.Board(c.Request.Context(), pipelineID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, board)
}

func (h *Handler) Forecast(c *gin.Context) {
	pipelineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var stageFilter *uuid.UUID
	if raw := c.Query("stageId"); raw != "" {
		stageID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		stageFilter = &stageID
	}

	forecast, err := h.agg.Forecast(c.Request.Context(), pipelineID, stageFilter)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, forecast)
}

func (h *Handler) Funnel(c *gin.Context) {
	funnel, err := h.agg.Funnel(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, funnel)
}
