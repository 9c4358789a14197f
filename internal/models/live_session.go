package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LiveSessionStatus represents the lifecycle state of a live-stream session
type LiveSessionStatus string

const (
	LiveSessionStatusScheduled LiveSessionStatus = "SCHEDULED"
	LiveSessionStatusLive      LiveSessionStatus = "LIVE"
	LiveSessionStatusEnded     LiveSessionStatus = "ENDED"
)

// LiveOrderStatus represents the fulfillment state of a live order
type LiveOrderStatus string

const (
	LiveOrderStatusPending   LiveOrderStatus = "PENDING"
	LiveOrderStatusConfirmed LiveOrderStatus = "CONFIRMED"
	LiveOrderStatusPacked    LiveOrderStatus = "PACKED"
	LiveOrderStatusShipped   LiveOrderStatus = "SHIPPED"
	LiveOrderStatusCancelled LiveOrderStatus = "CANCELLED"
)

// LiveOrderIndexState tracks whether an order's session index is still the
// locally predicted value or has been settled against the upstream order
// system.
type LiveOrderIndexState string

const (
	// IndexStateProvisional: index was predicted locally at insert time
	// and the authoritative value has not arrived yet.
	IndexStateProvisional LiveOrderIndexState = "PROVISIONAL"
	// IndexStateConfirmed: the authoritative index matched the prediction.
	IndexStateConfirmed LiveOrderIndexState = "CONFIRMED"
	// IndexStateCorrected: the authoritative index disagreed; SessionIndex
	// was overwritten and a correction event emitted.
	IndexStateCorrected LiveOrderIndexState = "CORRECTED"
)

// LiveSession represents one live-stream selling session. Sessions may be
// created explicitly ahead of time or materialized lazily when the first
// comment for an unknown video arrives.
type LiveSession struct {
	ID              uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID        string            `json:"tenantId" gorm:"not null;index:idx_live_sessions_tenant_id;index:idx_live_sessions_tenant_status;index:idx_live_sessions_tenant_video,unique"`
	Name            string            `json:"name" gorm:"not null"`
	FacebookPageID  *string           `json:"facebookPageId,omitempty"`
	FacebookVideoID *string           `json:"facebookVideoId,omitempty" gorm:"index:idx_live_sessions_tenant_video,unique"`
	Status          LiveSessionStatus `json:"status" gorm:"not null;default:'SCHEDULED';index:idx_live_sessions_tenant_status"`
	// LastOrderIndex is the highest session index known so far; predictions
	// for incoming comments start from here.
	LastOrderIndex int             `json:"lastOrderIndex" gorm:"not null;default:0"`
	OrderCount     int             `json:"orderCount" gorm:"not null;default:0"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	EndedAt        *time.Time      `json:"endedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	DeletedAt      *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// LiveOrder is one order line captured from a live-stream comment. A comment
// that names several product codes produces one row per code; the composite
// dedupe index makes re-delivered comments idempotent. ProductCode is empty
// when no code could be extracted from the comment text.
type LiveOrder struct {
	ID                 uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID           string              `json:"tenantId" gorm:"not null;index:idx_live_orders_tenant_id;index:idx_live_orders_dedupe,unique"`
	SessionID          uuid.UUID           `json:"sessionId" gorm:"type:uuid;not null;index;index:idx_live_orders_dedupe,unique"`
	CommentID          string              `json:"commentId" gorm:"not null;index:idx_live_orders_dedupe,unique"`
	CustomerName       string              `json:"customerName" gorm:"not null"`
	CustomerFacebookID *string             `json:"customerFacebookId,omitempty" gorm:"index"`
	CommentText        string              `json:"commentText" gorm:"type:text"`
	ProductCode        string              `json:"productCode" gorm:"index:idx_live_orders_dedupe,unique"`
	ProductName        *string             `json:"productName,omitempty"`
	Quantity           int                 `json:"quantity" gorm:"not null;default:1"`
	UnitPrice          decimal.Decimal     `json:"unitPrice" gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount        decimal.Decimal     `json:"totalAmount" gorm:"type:decimal(14,2);not null;default:0"`
	SessionIndex       int                 `json:"sessionIndex" gorm:"not null;default:0"`
	PredictedIndex     int                 `json:"predictedIndex" gorm:"not null;default:0"`
	IndexState         LiveOrderIndexState `json:"indexState" gorm:"not null;default:'PROVISIONAL';index"`
	Status             LiveOrderStatus     `json:"status" gorm:"not null;default:'PENDING';index"`
	Notes              *string             `json:"notes,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
	DeletedAt          *gorm.DeletedAt     `json:"deletedAt,omitempty" gorm:"index"`
}

// CreateLiveSessionRequest represents a request to create a live session
type CreateLiveSessionRequest struct {
	Name            string  `json:"name" binding:"required"`
	FacebookPageID  *string `json:"facebookPageId,omitempty"`
	FacebookVideoID *string `json:"facebookVideoId,omitempty"`
}

// UpdateLiveSessionStatusRequest requests a session status transition
type UpdateLiveSessionStatusRequest struct {
	Status LiveSessionStatus `json:"status" binding:"required"`
}

// IngestCommentRequest is one raw comment captured from the stream
type IngestCommentRequest struct {
	CommentID          string  `json:"commentId" binding:"required"`
	CustomerName       string  `json:"customerName" binding:"required"`
	CustomerFacebookID *string `json:"customerFacebookId,omitempty"`
	Text               string  `json:"text" binding:"required"`
	Quantity           *int    `json:"quantity,omitempty"`
}

// IngestCommentResult reports what one comment produced: the orders
// inserted with predicted indexes, plus any catalog rows that had to be
// materialized as PENDING_SYNC placeholders for unknown codes.
type IngestCommentResult struct {
	Orders          []LiveOrder `json:"orders"`
	MatchedCodes    []string    `json:"matchedCodes,omitempty"`
	UnknownCodes    []string    `json:"unknownCodes,omitempty"`
	PendingProducts []Product   `json:"pendingProducts,omitempty"`
	Duplicate       bool        `json:"duplicate"`
}

// ConfirmIndexRequest carries the authoritative session index assigned by
// the upstream order system for one live order.
type ConfirmIndexRequest struct {
	AuthoritativeIndex int `json:"authoritativeIndex" binding:"required,min=1"`
}

// UpdateLiveOrderStatusRequest requests an order status transition
type UpdateLiveOrderStatusRequest struct {
	Status LiveOrderStatus `json:"status" binding:"required"`
	Notes  *string         `json:"notes,omitempty"`
}

// LiveSessionStats summarizes a session for the host dashboard
type LiveSessionStats struct {
	SessionID        string          `json:"sessionId"`
	OrderCount       int             `json:"orderCount"`
	ProvisionalCount int             `json:"provisionalCount"`
	ConfirmedCount   int             `json:"confirmedCount"`
	CorrectedCount   int             `json:"correctedCount"`
	UnmatchedCount   int             `json:"unmatchedCount"`
	LastOrderIndex   int             `json:"lastOrderIndex"`
	Revenue          decimal.Decimal `json:"revenue"`
}

type LiveSessionResponse struct {
	Success bool         `json:"success"`
	Data    *LiveSession `json:"data"`
	Message *string      `json:"message,omitempty"`
}

type LiveSessionListResponse struct {
	Success    bool            `json:"success"`
	Data       []LiveSession   `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}

type LiveOrderResponse struct {
	Success bool       `json:"success"`
	Data    *LiveOrder `json:"data"`
	Message *string    `json:"message,omitempty"`
}

type LiveOrderListResponse struct {
	Success    bool            `json:"success"`
	Data       []LiveOrder     `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}

// TableName returns the table name for the LiveSession model
func (LiveSession) TableName() string {
	return "live_sessions"
}

// TableName returns the table name for the LiveOrder model
func (LiveOrder) TableName() string {
	return "live_orders"
}
