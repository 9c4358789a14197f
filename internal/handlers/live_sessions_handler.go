package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"liveshop-service/internal/models"
	"liveshop-service/internal/repository"
	"liveshop-service/internal/services"
)

// LiveSessionsHandler exposes live-stream sessions and the comment ingest
// pipeline
type LiveSessionsHandler struct {
	service services.LiveOrderService
	repo    *repository.LiveSessionsRepository
}

func NewLiveSessionsHandler(service services.LiveOrderService, repo *repository.LiveSessionsRepository) *LiveSessionsHandler {
	return &LiveSessionsHandler{
		service: service,
		repo:    repo,
	}
}

// CreateSession registers a live session ahead of time
func (h *LiveSessionsHandler) CreateSession(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	var req models.CreateLiveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	session := &models.LiveSession{
		Name:            req.Name,
		FacebookPageID:  req.FacebookPageID,
		FacebookVideoID: req.FacebookVideoID,
		Status:          models.LiveSessionStatusScheduled,
	}
	if err := h.repo.CreateSession(tenantID.(string), session); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CREATION_FAILED",
				Message: "Failed to create live session",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	c.JSON(http.StatusCreated, models.LiveSessionResponse{
		Success: true,
		Data:    session,
		Message: stringPtr("Live session created successfully"),
	})
}

// GetSessions lists sessions newest first
func (h *LiveSessionsHandler) GetSessions(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	page, limit := parsePagination(c)
	sessions, total, err := h.repo.GetSessions(tenantID.(string), models.LiveSessionStatus(c.Query("status")), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve live sessions",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.LiveSessionListResponse{
		Success:    true,
		Data:       sessions,
		Pagination: buildPagination(page, limit, total),
	})
}

// GetSession retrieves one session
func (h *LiveSessionsHandler) GetSession(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	session, err := h.service.ResolveSession(tenantID.(string), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.LiveSessionResponse{
		Success: true,
		Data:    session,
	})
}

// UpdateSessionStatus transitions a session through scheduled→live→ended
func (h *LiveSessionsHandler) UpdateSessionStatus(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid session ID format",
			},
		})
		return
	}

	var req models.UpdateLiveSessionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	session, err := h.repo.GetSessionByID(tenantID.(string), sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := models.ValidateLiveSessionStatusTransition(session.Status, req.Status); err != nil {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_STATE_TRANSITION",
				Message: err.Error(),
				Field:   "status",
			},
		})
		return
	}
	if err := h.repo.UpdateSessionStatus(tenantID.(string), sessionID, req.Status); err != nil {
		respondServiceError(c, err)
		return
	}
	session, err = h.repo.GetSessionByID(tenantID.(string), sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.LiveSessionResponse{
		Success: true,
		Data:    session,
	})
}

// IngestComment runs the comment-to-order pipeline for one captured comment.
// The :id parameter accepts a session UUID or a Facebook video id; unknown
// video ids materialize a session lazily.
func (h *LiveSessionsHandler) IngestComment(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	var req models.IngestCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	session, err := h.service.ResolveSession(tenantID.(string), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result, err := h.service.IngestComment(tenantID.(string), session.ID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, models.SuccessResponse{
		Success: true,
		Data:    result,
	})
}

// GetSessionOrders lists the orders captured for a session in index order
func (h *LiveSessionsHandler) GetSessionOrders(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid session ID format",
			},
		})
		return
	}

	page, limit := parsePagination(c)
	orders, total, err := h.repo.GetSessionOrders(tenantID.(string), sessionID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve session orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.LiveOrderListResponse{
		Success:    true,
		Data:       orders,
		Pagination: buildPagination(page, limit, total),
	})
}

// GetSessionStats summarizes a session for the host dashboard
func (h *LiveSessionsHandler) GetSessionStats(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid session ID format",
			},
		})
		return
	}

	stats, err := h.repo.GetSessionStats(tenantID.(string), sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    stats,
	})
}

// ConfirmOrderIndex settles one order's session index against the
// authoritative value. Normally driven by the subscriber; exposed over HTTP
// for backfills and manual correction.
func (h *LiveSessionsHandler) ConfirmOrderIndex(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid order ID format",
			},
		})
		return
	}

	var req models.ConfirmIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	order, err := h.service.ConfirmIndex(tenantID.(string), orderID, req.AuthoritativeIndex)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.LiveOrderResponse{
		Success: true,
		Data:    order,
	})
}

// UpdateOrderStatus transitions a live order through its fulfillment states
func (h *LiveSessionsHandler) UpdateOrderStatus(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid order ID format",
			},
		})
		return
	}

	var req models.UpdateLiveOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	order, err := h.service.UpdateOrderStatus(tenantID.(string), orderID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.LiveOrderResponse{
		Success: true,
		Data:    order,
	})
}
