package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseOrderStatus represents the lifecycle state of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusConfirmed PurchaseOrderStatus = "CONFIRMED"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "RECEIVED"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

// PurchaseOrder represents a stock intake order against a supplier.
// Receiving a confirmed order materializes its items into catalog rows
// and increments stock.
type PurchaseOrder struct {
	ID            uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      string              `json:"tenantId" gorm:"not null;index:idx_purchase_orders_tenant_id;index:idx_purchase_orders_tenant_status;index:idx_purchase_orders_tenant_number,unique"`
	OrderNumber   string              `json:"orderNumber" gorm:"not null;index:idx_purchase_orders_tenant_number,unique"`
	Supplier      *string             `json:"supplier,omitempty" gorm:"index"`
	Status        PurchaseOrderStatus `json:"status" gorm:"not null;default:'DRAFT';index:idx_purchase_orders_tenant_status"`
	Notes         *string             `json:"notes,omitempty" gorm:"type:text"`
	TotalQuantity int                 `json:"totalQuantity" gorm:"not null;default:0"`
	TotalAmount   decimal.Decimal     `json:"totalAmount" gorm:"type:decimal(14,2);not null;default:0"`
	Items         []PurchaseOrderItem `json:"items,omitempty" gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	CreatedBy     *string             `json:"createdBy,omitempty"`
	ConfirmedAt   *time.Time          `json:"confirmedAt,omitempty"`
	ReceivedAt    *time.Time          `json:"receivedAt,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
	DeletedAt     *gorm.DeletedAt     `json:"deletedAt,omitempty" gorm:"index"`
}

// PurchaseOrderItem is one product line on a purchase order. ProductCode
// participates in sequential code allocation alongside catalog rows, so
// codes typed on a draft order reserve their sequence number even before
// the order is received.
type PurchaseOrderItem struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PurchaseOrderID  uuid.UUID       `json:"purchaseOrderId" gorm:"type:uuid;not null;index"`
	ProductCode      string          `json:"productCode" gorm:"not null;index"`
	ProductName      string          `json:"productName" gorm:"not null"`
	VariantSignature *string         `json:"variantSignature,omitempty"`
	Quantity         int             `json:"quantity" gorm:"not null;default:1"`
	ReceivedQuantity int             `json:"receivedQuantity" gorm:"not null;default:0"`
	PurchasePrice    decimal.Decimal `json:"purchasePrice" gorm:"type:decimal(12,2);not null;default:0"`
	SellingPrice     decimal.Decimal `json:"sellingPrice" gorm:"type:decimal(12,2);not null;default:0"`
	Position         int             `json:"position" gorm:"not null;default:0"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// NewPurchaseOrderNumber derives an order number from the creation instant.
func NewPurchaseOrderNumber(t time.Time) string {
	return fmt.Sprintf("PO-%d", t.Unix())
}

// CreatePurchaseOrderItemRequest is one requested line. ProductCode may be
// omitted to have the next sequential code allocated; AttributeLines may be
// supplied to expand the line into one item per generated variant.
type CreatePurchaseOrderItemRequest struct {
	ProductCode      *string              `json:"productCode,omitempty"`
	CodeCategory     *string              `json:"codeCategory,omitempty"`
	ProductName      string               `json:"productName" binding:"required"`
	VariantSignature *string              `json:"variantSignature,omitempty"`
	Quantity         int                  `json:"quantity" binding:"required,min=1"`
	PurchasePrice    *decimal.Decimal     `json:"purchasePrice,omitempty"`
	SellingPrice     *decimal.Decimal     `json:"sellingPrice,omitempty"`
	AttributeLines   []AttributeLineInput `json:"attributeLines,omitempty" binding:"omitempty,dive"`
	SkipGapCheck     bool                 `json:"skipGapCheck,omitempty"`
}

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	Supplier *string                          `json:"supplier,omitempty"`
	Notes    *string                          `json:"notes,omitempty"`
	Items    []CreatePurchaseOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdatePurchaseOrderRequest updates header fields of a draft order
type UpdatePurchaseOrderRequest struct {
	Supplier *string `json:"supplier,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// UpdatePurchaseOrderStatusRequest requests a status transition
type UpdatePurchaseOrderStatusRequest struct {
	Status PurchaseOrderStatus `json:"status" binding:"required"`
	Notes  *string             `json:"notes,omitempty"`
}

// ReceivePurchaseOrderItemInput overrides the received quantity of one item;
// items not listed receive their full ordered quantity.
type ReceivePurchaseOrderItemInput struct {
	ItemID           string `json:"itemId" binding:"required"`
	ReceivedQuantity int    `json:"receivedQuantity" binding:"min=0"`
}

// ReceivePurchaseOrderRequest marks a confirmed order as received
type ReceivePurchaseOrderRequest struct {
	Items []ReceivePurchaseOrderItemInput `json:"items,omitempty" binding:"omitempty,dive"`
}

// ReceivePurchaseOrderResult reports what receiving materialized
type ReceivePurchaseOrderResult struct {
	Order           *PurchaseOrder `json:"order"`
	ProductsCreated []Product      `json:"productsCreated,omitempty"`
	ProductsUpdated []Product      `json:"productsUpdated,omitempty"`
	StockAdded      int            `json:"stockAdded"`
	// Conflicts lists catalog rows whose tracked fields differ from what the
	// purchase order carries. They are reported, never auto-applied.
	Conflicts []VariantConflict `json:"conflicts,omitempty"`
}

type PurchaseOrderResponse struct {
	Success bool           `json:"success"`
	Data    *PurchaseOrder `json:"data"`
	Message *string        `json:"message,omitempty"`
}

type PurchaseOrderListResponse struct {
	Success    bool            `json:"success"`
	Data       []PurchaseOrder `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}

// TableName returns the table name for the PurchaseOrder model
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// TableName returns the table name for the PurchaseOrderItem model
func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}
