package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"liveshop-service/internal/events"
	"liveshop-service/internal/models"
	"liveshop-service/internal/repository"
	"liveshop-service/internal/services"
)

type ProductsHandler struct {
	repo            *repository.ProductsRepository
	variantService  services.VariantService
	eventsPublisher *events.Publisher
	logger          *logrus.Entry
}

func NewProductsHandler(repo *repository.ProductsRepository, variantService services.VariantService, eventsPublisher *events.Publisher, logger *logrus.Logger) *ProductsHandler {
	return &ProductsHandler{
		repo:            repo,
		variantService:  variantService,
		eventsPublisher: eventsPublisher,
		logger:          logger.WithField("component", "products_handler"),
	}
}

// CreateProduct creates a new product. An omitted code is allocated from the
// sequence of the requested category; a typed code is gap-checked unless the
// caller confirmed it with skipGapCheck.
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	code, err := h.variantService.AllocateProductCode(tenantID.(string), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	product := &models.Product{
		Code:             code,
		Name:             req.Name,
		Slug:             req.Slug,
		Description:      req.Description,
		Barcode:          req.Barcode,
		VariantSignature: req.VariantSignature,
		Supplier:         req.Supplier,
		Status:           models.ProductStatusActive,
	}
	if req.SellingPrice != nil {
		product.SellingPrice = *req.SellingPrice
	}
	if req.PurchasePrice != nil {
		product.PurchasePrice = *req.PurchasePrice
	}
	if req.StockQuantity != nil {
		product.StockQuantity = *req.StockQuantity
	}
	if req.Status != nil {
		product.Status = *req.Status
	}

	// Convert images to JSON array
	if len(req.Images) > 0 {
		imagesArray := make(models.JSONArray, len(req.Images))
		for i, img := range req.Images {
			imagesArray[i] = img
		}
		product.Images = &imagesArray
	}

	if err := h.repo.CreateProduct(tenantID.(string), product); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "DUPLICATE_CODE",
					Message: fmt.Sprintf("Product code %s already exists", code),
					Field:   "code",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CREATION_FAILED",
				Message: "Failed to create product",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishProductCreated(tenantID.(string), product)
	}

	c.JSON(http.StatusCreated, models.ProductResponse{
		Success: true,
		Data:    product,
		Message: stringPtr("Product created successfully"),
	})
}

// GetProducts lists products with filtering and pagination
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	page, limit := parsePagination(c)
	query := &repository.ProductListQuery{
		Search:   c.Query("search"),
		Status:   models.ProductStatus(c.Query("status")),
		BaseCode: c.Query("baseCode"),
		Supplier: c.Query("supplier"),
		BaseOnly: c.Query("baseOnly") == "true",
		Page:     page,
		Limit:    limit,
		SortBy:   c.Query("sortBy"),
		SortDesc: c.Query("sortDesc") == "true",
	}

	products, total, err := h.repo.GetProducts(tenantID.(string), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve products",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{
		Success:    true,
		Data:       products,
		Pagination: buildPagination(page, limit, total),
	})
}

// GetProduct retrieves a single product by ID
func (h *ProductsHandler) GetProduct(c *gin.Context) {
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

	product, err := h.repo.GetProductByID(tenantID.(string), productID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Product not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

// GetProductByCode retrieves a single product by its code (cached lookup,
// same path the live comment pipeline uses)
func (h *ProductsHandler) GetProductByCode(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	code := c.Param("code")
	product, err := h.repo.GetProductByCode(tenantID.(string), code)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: fmt.Sprintf("Product %s not found", code),
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

// BatchGetProducts retrieves multiple products by code in a single request
// GET /api/v1/products/batch?codes=N0048,ATN001-DEN-M
func (h *ProductsHandler) BatchGetProducts(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	codesParam := c.Query("codes")
	if codesParam == "" {
		respondValidationError(c, "codes query parameter is required")
		return
	}
	codes := strings.Split(codesParam, ",")
	if len(codes) > 200 {
		respondValidationError(c, "maximum 200 codes per batch request")
		return
	}

	products, err := h.repo.BatchGetProductsByCodes(tenantID.(string), codes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve products",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    products,
	})
}

// SearchProducts performs a filtered search via POST body
func (h *ProductsHandler) SearchProducts(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	var query repository.ProductListQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 || query.Limit > 100 {
		query.Limit = 20
	}

	products, total, err := h.repo.GetProducts(tenantID.(string), &query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "SEARCH_FAILED",
				Message: "Failed to search products",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{
		Success:    true,
		Data:       products,
		Pagination: buildPagination(query.Page, query.Limit, total),
	})
}

// UpdateProduct updates an existing product
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
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

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	product, err := h.repo.GetProductByID(tenantID.(string), productID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Product not found",
			},
		})
		return
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Slug != nil {
		product.Slug = req.Slug
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.SellingPrice != nil {
		product.SellingPrice = *req.SellingPrice
	}
	if req.PurchasePrice != nil {
		product.PurchasePrice = *req.PurchasePrice
	}
	if req.Barcode != nil {
		product.Barcode = req.Barcode
	}
	if req.StockQuantity != nil {
		product.StockQuantity = *req.StockQuantity
	}
	if req.VariantSignature != nil {
		product.VariantSignature = req.VariantSignature
	}
	if req.Supplier != nil {
		product.Supplier = req.Supplier
	}
	if len(req.Images) > 0 {
		imagesArray := make(models.JSONArray, len(req.Images))
		for i, img := range req.Images {
			imagesArray[i] = img
		}
		product.Images = &imagesArray
	}

	if err := h.repo.UpdateProduct(tenantID.(string), productID, product); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPDATE_FAILED",
				Message: "Failed to update product",
				Details: &models.JSON{"error": err.Error()},
			},
		})
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishProductUpdated(tenantID.(string), product)
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
		Message: stringPtr("Product updated successfully"),
	})
}

// UpdateProductStatus updates only the status field
func (h *ProductsHandler) UpdateProductStatus(c *gin.Context) {
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

	var req models.UpdateProductStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	product, err := h.repo.GetProductByID(tenantID.(string), productID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Product not found",
			},
		})
		return
	}

	product.Status = req.Status
	if err := h.repo.UpdateProduct(tenantID.(string), productID, product); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPDATE_FAILED",
				Message: "Failed to update product status",
			},
		})
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishProductUpdated(tenantID.(string), product)
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

// UpdateStock sets the absolute stock quantity for a product
func (h *ProductsHandler) UpdateStock(c *gin.Context) {
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

	var req models.UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := h.repo.UpdateStock(tenantID.(string), productID, req.Quantity); err != nil {
		respondServiceError(c, err)
		return
	}

	product, err := h.repo.GetProductByID(tenantID.(string), productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishProductUpdated(tenantID.(string), product)
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
		Message: stringPtr("Stock updated successfully"),
	})
}

// GetVariants lists the variant rows generated from a base product
func (h *ProductsHandler) GetVariants(c *gin.Context) {
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

	product, err := h.repo.GetProductByID(tenantID.(string), productID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Product not found",
			},
		})
		return
	}

	variants, err := h.repo.GetVariantsByBaseCode(tenantID.(string), product.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve variants",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    variants,
	})
}

// DeleteProduct deletes a single product after a reference check
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
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

	product, err := h.repo.GetProductByID(tenantID.(string), productID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Product not found",
			},
		})
		return
	}

	options := models.DefaultCascadeDeleteOptions()
	validation, err := h.repo.ValidateCascadeDelete(tenantID.(string), []uuid.UUID{productID}, options)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !validation.CanDelete {
		c.JSON(http.StatusConflict, gin.H{
			"success":    false,
			"error":      gin.H{"code": "REFERENCED", "message": "Product is referenced and cannot be deleted"},
			"validation": validation,
		})
		return
	}

	if err := h.repo.DeleteProduct(tenantID.(string), productID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: "Failed to delete product",
			},
		})
		return
	}

	if h.eventsPublisher != nil {
		h.eventsPublisher.PublishProductDeleted(tenantID.(string), product)
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Product deleted successfully"),
	})
}

// ValidateCascadeDelete runs the pre-flight reference check for one product
func (h *ProductsHandler) ValidateCascadeDelete(c *gin.Context) {
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

	var req models.CascadeValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Options = models.DefaultCascadeDeleteOptions()
	}

	validation, err := h.repo.ValidateCascadeDelete(tenantID.(string), []uuid.UUID{productID}, req.Options)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    validation,
	})
}

// BulkCascadeDelete deletes a set of products with their variants
func (h *ProductsHandler) BulkCascadeDelete(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	var req models.BulkCascadeDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	productIDs := make([]uuid.UUID, 0, len(req.IDs))
	for _, idStr := range req.IDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			respondValidationError(c, fmt.Sprintf("invalid product ID: %s", idStr))
			return
		}
		productIDs = append(productIDs, id)
	}

	result, err := h.repo.DeleteProductsCascade(tenantID.(string), productIDs, req.Options)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"tenant_id":        tenantID,
		"products_deleted": result.ProductsDeleted,
		"variants_deleted": result.VariantsDeleted,
	}).Info("Bulk cascade delete completed")

	status := http.StatusOK
	if result.PartialSuccess {
		status = http.StatusMultiStatus
	}
	c.JSON(status, models.SuccessResponse{
		Success: result.Success,
		Data:    result,
	})
}
