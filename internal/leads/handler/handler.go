package handler

import (
	"net/http"
	"strings"

	"leadflow_backend/internal/leads/distribution"
	"leadflow_backend/internal/leads/transport"
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
	svc *distribution.Service
	val *validator.Validator
}

func New(svc *distribution.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bulk-assign", h.BulkAssign)
	rg.PUT("/:id/assign", h.Assign)
	rg.GET("/:id/activities", h.Activities)
}

func (h *Handler) RegisterWorkloadRoutes(rg *gin.RouterGroup) {
	rg.GET("/workload", h.Workload)
}

func (h *Handler) BulkAssign(c *gin.Context) {
	var req transport.BulkAssignRequest
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

	result, err := h.svc.BulkAssign(c.Request.Context(), req, actorID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Assign(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.AssignRequest
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

	lead, err := h.svc.Assign(c.Request.Context(), leadID, req.RepID, actorID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, lead)
}

// Activities returns a lead's audit log, newest first.
func (h *Handler) Activities(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	entries, err := h.svc.Timeline(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, entries)
}

// Workload reports active-lead counts per representative. With a repIds
// query parameter (comma-separated UUIDs) every requested representative is
// reported, zero included; without it only representatives holding open
// leads appear.
func (h *Handler) Workload(c *gin.Context) {
	repIDs, err := parseRepIDs(c.Query("repIds"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	counts, err := h.svc.Workloads(c.Request.Context(), repIDs)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.WorkloadResponse{Workloads: make([]transport.RepWorkload, 0, len(counts))}
	if len(repIDs) > 0 {
		// Preserve request order in the response.
		for _, repID := range repIDs {
			resp.Workloads = append(resp.Workloads, transport.RepWorkload{RepID: repID, ActiveLeads: counts[repID]})
		}
	} else {
		for repID, count := range counts {
			resp.Workloads = append(resp.Workloads, transport.RepWorkload{RepID: repID, ActiveLeads: count})
		}
	}

	httpkit.OK(c, resp)
}

func parseRepIDs(raw string) ([]uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
