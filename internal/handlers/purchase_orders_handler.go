package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"liveshop-service/internal/models"
	"liveshop-service/internal/repository"
	"liveshop-service/internal/services"
)

// PurchaseOrdersHandler exposes the stock intake workflow
type PurchaseOrdersHandler struct {
	service services.PurchaseOrderService
	repo    *repository.PurchaseOrdersRepository
}

func NewPurchaseOrdersHandler(service services.PurchaseOrderService, repo *repository.PurchaseOrdersRepository) *PurchaseOrdersHandler {
	return &PurchaseOrdersHandler{
		service: service,
		repo:    repo,
	}
}

// CreatePurchaseOrder creates a draft order, allocating codes for lines that
// omit one and expanding attribute selections into per-variant items
func (h *PurchaseOrdersHandler) CreatePurchaseOrder(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	var req models.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	order, err := h.service.Create(tenantID.(string), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.PurchaseOrderResponse{
		Success: true,
		Data:    order,
		Message: stringPtr("Purchase order created successfully"),
	})
}

// GetPurchaseOrders lists orders newest first
func (h *PurchaseOrdersHandler) GetPurchaseOrders(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	page, limit := parsePagination(c)
	query := &repository.PurchaseOrderListQuery{
		Status:   models.PurchaseOrderStatus(c.Query("status")),
		Supplier: c.Query("supplier"),
		Page:     page,
		Limit:    limit,
	}

	orders, total, err := h.repo.GetPurchaseOrders(tenantID.(string), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve purchase orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.PurchaseOrderListResponse{
		Success:    true,
		Data:       orders,
		Pagination: buildPagination(page, limit, total),
	})
}

// GetPurchaseOrder retrieves one order with its items
func (h *PurchaseOrdersHandler) GetPurchaseOrder(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid purchase order ID format",
			},
		})
		return
	}

	order, err := h.repo.GetPurchaseOrderByID(tenantID.(string), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Purchase order not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.PurchaseOrderResponse{
		Success: true,
		Data:    order,
	})
}

// UpdatePurchaseOrder updates header fields of a draft order
func (h *PurchaseOrdersHandler) UpdatePurchaseOrder(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid purchase order ID format",
			},
		})
		return
	}

	var req models.UpdatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	order, err := h.repo.GetPurchaseOrderByID(tenantID.(string), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if order.Status != models.PurchaseOrderStatusDraft {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_STATE_TRANSITION",
				Message: "Only draft orders can be edited",
			},
		})
		return
	}

	if err := h.repo.UpdatePurchaseOrderHeader(tenantID.(string), orderID, &req); err != nil {
		respondServiceError(c, err)
		return
	}
	order, err = h.repo.GetPurchaseOrderByID(tenantID.(string), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PurchaseOrderResponse{
		Success: true,
		Data:    order,
	})
}

// UpdateStatus transitions an order through its lifecycle
func (h *PurchaseOrdersHandler) UpdateStatus(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid purchase order ID format",
			},
		})
		return
	}

	var req models.UpdatePurchaseOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	order, err := h.service.UpdateStatus(tenantID.(string), orderID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PurchaseOrderResponse{
		Success: true,
		Data:    order,
	})
}

// ReceivePurchaseOrder marks a confirmed order received and folds its items
// into the catalog
func (h *PurchaseOrdersHandler) ReceivePurchaseOrder(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid purchase order ID format",
			},
		})
		return
	}

	var req models.ReceivePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondValidationError(c, err.Error())
		return
	}

	result, err := h.service.Receive(tenantID.(string), orderID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
		Message: stringPtr("Purchase order received"),
	})
}
