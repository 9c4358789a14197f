package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive ProductStatus = "ACTIVE"
	// ProductStatusPendingSync marks rows materialized lazily from a live
	// session comment before the catalog entry has been confirmed upstream.
	ProductStatusPendingSync ProductStatus = "PENDING_SYNC"
	ProductStatusInactive    ProductStatus = "INACTIVE"
)

// JSON type for PostgreSQL JSONB (object/map)
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// JSONArray type for PostgreSQL JSONB (array)
type JSONArray []interface{}

func (j JSONArray) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// ProductImage represents a product image
type ProductImage struct {
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	AltText  *string `json:"altText,omitempty"`
	Position int     `json:"position"`
}

// Product represents a sellable catalog entry. Generated variants are stored
// as full rows with their own codes; BaseCode links a variant back to the
// product it was expanded from, and VariantSignature records the attribute
// selections that produced the variant set.
type Product struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID         string          `json:"tenantId" gorm:"not null;index:idx_products_tenant_id;index:idx_products_tenant_status;index:idx_products_tenant_base;index:idx_products_tenant_code,unique;index:idx_products_tenant_slug,unique"`
	Code             string          `json:"code" gorm:"not null;index:idx_products_tenant_code,unique"`
	BaseCode         *string         `json:"baseCode,omitempty" gorm:"index:idx_products_tenant_base"`
	Name             string          `json:"name" gorm:"not null"`
	Slug             *string         `json:"slug,omitempty" gorm:"index:idx_products_tenant_slug,unique"`
	Description      *string         `json:"description,omitempty" gorm:"type:text"`
	SellingPrice     decimal.Decimal `json:"sellingPrice" gorm:"type:decimal(12,2);not null;default:0"`
	PurchasePrice    decimal.Decimal `json:"purchasePrice" gorm:"type:decimal(12,2);not null;default:0"`
	Barcode          *string         `json:"barcode,omitempty" gorm:"index"`
	StockQuantity    int             `json:"stockQuantity" gorm:"not null;default:0"`
	VariantSignature *string         `json:"variantSignature,omitempty"`
	Supplier         *string         `json:"supplier,omitempty" gorm:"index"`
	Status           ProductStatus   `json:"status" gorm:"not null;default:'ACTIVE';index:idx_products_tenant_status"`
	Images           *JSONArray      `json:"images,omitempty" gorm:"type:jsonb"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	DeletedAt        *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// IsVariant reports whether the product was generated from a base product.
func (p *Product) IsVariant() bool {
	return p.BaseCode != nil && *p.BaseCode != ""
}

// CreateProductRequest represents a request to create a new product.
// Code may be omitted, in which case the next sequential code for the
// requested category letter is allocated server-side.
type CreateProductRequest struct {
	Code             *string          `json:"code,omitempty"`
	CodeCategory     *string          `json:"codeCategory,omitempty"` // single letter, used when Code is omitted
	Name             string           `json:"name" binding:"required"`
	Slug             *string          `json:"slug,omitempty"`
	Description      *string          `json:"description,omitempty"`
	SellingPrice     *decimal.Decimal `json:"sellingPrice,omitempty"`
	PurchasePrice    *decimal.Decimal `json:"purchasePrice,omitempty"`
	Barcode          *string          `json:"barcode,omitempty"`
	StockQuantity    *int             `json:"stockQuantity,omitempty"`
	VariantSignature *string          `json:"variantSignature,omitempty"`
	Supplier         *string          `json:"supplier,omitempty"`
	Status           *ProductStatus   `json:"status,omitempty"`
	Images           []ProductImage   `json:"images,omitempty"`
	// SkipGapCheck suppresses the large-gap confirmation for a manually
	// typed code; without it a code far ahead of the sequence is rejected
	// with CODE_GAP_TOO_LARGE so the caller can confirm.
	SkipGapCheck bool `json:"skipGapCheck,omitempty"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name             *string          `json:"name,omitempty"`
	Slug             *string          `json:"slug,omitempty"`
	Description      *string          `json:"description,omitempty"`
	SellingPrice     *decimal.Decimal `json:"sellingPrice,omitempty"`
	PurchasePrice    *decimal.Decimal `json:"purchasePrice,omitempty"`
	Barcode          *string          `json:"barcode,omitempty"`
	StockQuantity    *int             `json:"stockQuantity,omitempty"`
	VariantSignature *string          `json:"variantSignature,omitempty"`
	Supplier         *string          `json:"supplier,omitempty"`
	Images           []ProductImage   `json:"images,omitempty"`
}

// UpdateProductStatusRequest represents a request to update product status
type UpdateProductStatusRequest struct {
	Status ProductStatus `json:"status" binding:"required"`
	Notes  *string       `json:"notes,omitempty"`
}

// UpdateStockRequest represents a request to set absolute stock quantity
type UpdateStockRequest struct {
	Quantity int     `json:"quantity" binding:"min=0"`
	Reason   *string `json:"reason,omitempty"`
}

// StockAdjustmentRequest represents a relative stock adjustment
type StockAdjustmentRequest struct {
	Adjustment int     `json:"adjustment" binding:"required"`
	Reason     string  `json:"reason" binding:"required"`
	Notes      *string `json:"notes,omitempty"`
}

// BatchGetByCodesRequest requests multiple products by their codes
type BatchGetByCodesRequest struct {
	Codes []string `json:"codes" binding:"required,min=1,max=200"`
}

// AttributeLineInput selects values from one catalog attribute for
// variant expansion. AttributeName is matched case-insensitively against
// the catalog; unknown values are dropped rather than rejected.
type AttributeLineInput struct {
	AttributeID    string   `json:"attributeId,omitempty"`
	AttributeName  string   `json:"attributeName" binding:"required"`
	SelectedValues []string `json:"selectedValues" binding:"required,min=1"`
}

// PreviewVariantsRequest computes the variant set for a base product
// without persisting anything.
type PreviewVariantsRequest struct {
	Lines []AttributeLineInput `json:"lines" binding:"required,min=1,dive"`
}

// VariantConflictResolution selects which differing fields of one
// conflicting variant should be overwritten when generating.
type VariantConflictResolution struct {
	ProductCode    string   `json:"productCode" binding:"required"`
	AcceptedFields []string `json:"acceptedFields"`
}

// GenerateVariantsRequest persists the expanded variant set. Conflicting
// rows are only touched for fields listed in Resolutions; by default every
// differing field of every conflict is pre-selected by the UI, and the
// caller sends back the subset the operator kept.
type GenerateVariantsRequest struct {
	Lines       []AttributeLineInput        `json:"lines" binding:"required,min=1,dive"`
	Resolutions []VariantConflictResolution `json:"resolutions,omitempty"`
}

// GeneratedVariantPayload is one computed combination in a preview
type GeneratedVariantPayload struct {
	Code            string            `json:"code"`
	Name            string            `json:"name"`
	AttributeValues []string          `json:"attributeValues"`
	ValuesByLine    map[string]string `json:"valuesByLine"`
	Exists          bool              `json:"exists"`
}

// VariantConflictField is one tracked field whose existing and incoming
// values disagree
type VariantConflictField struct {
	Field    string      `json:"field"`
	Current  interface{} `json:"current"`
	Incoming interface{} `json:"incoming"`
}

// VariantConflict reports an existing catalog row that the freshly
// generated set would overwrite
type VariantConflict struct {
	ProductCode string                 `json:"productCode"`
	ProductName string                 `json:"productName"`
	Fields      []VariantConflictField `json:"fields"`
}

// VariantPreview is the result of expanding attribute lines against a base
// product and diffing against the rows already sharing its base code
type VariantPreview struct {
	BaseCode      string                    `json:"baseCode"`
	BaseName      string                    `json:"baseName"`
	Signature     string                    `json:"signature"`
	Variants      []GeneratedVariantPayload `json:"variants"`
	Conflicts     []VariantConflict         `json:"conflicts,omitempty"`
	NewCount      int                       `json:"newCount"`
	ExistingCount int                       `json:"existingCount"`
}

// GenerateVariantsResult reports what a generate call persisted. Conflicts
// carries the field-level detail for every skipped row that still differs,
// so a caller that skipped the preview can resolve and re-generate.
type GenerateVariantsResult struct {
	Created   []Product         `json:"created"`
	Updated   []Product         `json:"updated"`
	Skipped   []string          `json:"skipped,omitempty"` // codes left untouched
	Conflicts []VariantConflict `json:"conflicts,omitempty"`
	Signature string            `json:"signature"`
}

// ParseSignatureRequest asks the catalog to decode a stored signature
type ParseSignatureRequest struct {
	Signature string `json:"signature" binding:"required"`
}

// ApplyConflictItem resolves one previously reported conflict: the incoming
// field values it was computed from plus the subset the operator accepted.
type ApplyConflictItem struct {
	ProductCode    string   `json:"productCode" binding:"required"`
	AcceptedFields []string `json:"acceptedFields"`
	Incoming       JSON     `json:"incoming" binding:"required"`
}

// ApplyConflictsRequest applies operator decisions for a batch of conflicts
type ApplyConflictsRequest struct {
	Items []ApplyConflictItem `json:"items" binding:"required,min=1,dive"`
}

// ApplyConflictsResult reports which products were written and which were
// left untouched because nothing was accepted
type ApplyConflictsResult struct {
	Updated []string `json:"updated"`
	Skipped []string `json:"skipped,omitempty"`
}

// NextCodeData is the allocator result for a category letter
type NextCodeData struct {
	Category    string `json:"category"`
	NextCode    string `json:"nextCode"`
	MaxSequence int    `json:"maxSequence"`
}

// GapCheckRequest validates a manually typed code against the sequence.
// DraftCodes carries codes present only in the caller's unsaved form.
type GapCheckRequest struct {
	Code       string   `json:"code" binding:"required"`
	DraftCodes []string `json:"draftCodes,omitempty"`
}

// GapCheckData reports how far a candidate code jumps ahead of the
// current maximum. Malformed codes are reported as skipped, not failed.
type GapCheckData struct {
	Code        string `json:"code"`
	Checked     bool   `json:"checked"`
	Gap         int    `json:"gap"`
	Large       bool   `json:"large"`
	MaxSequence int    `json:"maxSequence"`
	Threshold   int    `json:"threshold"`
}

// Response types
type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
	Metadata   *JSON           `json:"metadata,omitempty"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details *JSON  `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}
