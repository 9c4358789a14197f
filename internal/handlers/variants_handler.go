package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"liveshop-service/internal/models"
	"liveshop-service/internal/repository"
	"liveshop-service/internal/services"
)

// VariantsHandler exposes variant expansion, conflict resolution, code
// allocation and the attribute catalog.
type VariantsHandler struct {
	service    services.VariantService
	attributes *repository.AttributesRepository
}

func NewVariantsHandler(service services.VariantService, attributes *repository.AttributesRepository) *VariantsHandler {
	return &VariantsHandler{
		service:    service,
		attributes: attributes,
	}
}

// PreviewVariants computes the variant set for a base product without
// persisting anything
func (h *VariantsHandler) PreviewVariants(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid product ID format",
			},
		})
		return
	}

	var req models.PreviewVariantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	preview, err := h.service.Preview(tenantID.(string), productID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    preview,
	})
}

// GenerateVariants persists the expanded variant set. Conflicting rows are
// only touched for accepted fields; unresolved conflicts are skipped and
// reported so the caller can resolve them via /variants/conflicts/apply.
func (h *VariantsHandler) GenerateVariants(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid product ID format",
			},
		})
		return
	}

	var req models.GenerateVariantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	result, err := h.service.Generate(tenantID.(string), productID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
	})
}

// ApplyConflicts applies operator decisions for previously reported conflicts
func (h *VariantsHandler) ApplyConflicts(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	var req models.ApplyConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	result, err := h.service.ApplyConflicts(tenantID.(string), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
	})
}

// NextCode returns the next sequential code for a category
// GET /api/v1/codes/next?category=N&draftCodes=N0051,N0052
func (h *VariantsHandler) NextCode(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	var draftCodes []string
	if raw := c.Query("draftCodes"); raw != "" {
		draftCodes = strings.Split(raw, ",")
	}

	data, err := h.service.NextCode(tenantID.(string), c.Query("category"), draftCodes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    data,
	})
}

// CheckGap validates a manually typed code against the sequence maximum
func (h *VariantsHandler) CheckGap(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	var req models.GapCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	data, err := h.service.CheckGap(tenantID.(string), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"data":                  data,
		"requires_confirmation": data.Large,
	})
}

// ParseSignature decodes a stored variant signature into attribute lines
func (h *VariantsHandler) ParseSignature(c *gin.Context) {
	var req models.ParseSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    h.service.ParseSignature(req.Signature),
	})
}

// GetAttributes returns the attribute catalog in position order
func (h *VariantsHandler) GetAttributes(c *gin.Context) {
	attributes, err := h.attributes.GetAttributes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve attributes",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    attributes,
	})
}
