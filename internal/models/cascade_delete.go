package models

// CascadeDeleteOptions specifies which related entities to delete along with products
type CascadeDeleteOptions struct {
	DeleteVariants  bool `json:"deleteVariants"`  // Delete rows whose BaseCode points at the product (default: true)
	ForceReferenced bool `json:"forceReferenced"` // Delete even when purchase orders or live orders reference the code
}

// DefaultCascadeDeleteOptions returns options with variant deletion enabled by default
func DefaultCascadeDeleteOptions() CascadeDeleteOptions {
	return CascadeDeleteOptions{
		DeleteVariants:  true,
		ForceReferenced: false,
	}
}

// CascadeValidationRequest is the request body for cascade validation
type CascadeValidationRequest struct {
	Options CascadeDeleteOptions `json:"options"`
}

// BulkCascadeDeleteRequest is the request body for bulk delete with cascade
type BulkCascadeDeleteRequest struct {
	IDs     []string             `json:"ids" binding:"required,min=1,max=100"`
	Options CascadeDeleteOptions `json:"options"`
}

// CascadeValidationResult holds the pre-flight check results
type CascadeValidationResult struct {
	CanDelete       bool            `json:"canDelete"`
	BlockedEntities []BlockedEntity `json:"blockedEntities,omitempty"`
	AffectedSummary AffectedSummary `json:"affectedSummary"`
}

// BlockedEntity represents an entity that cannot be deleted due to references
type BlockedEntity struct {
	Type       string `json:"type"`       // "variant", "purchaseOrderItem", "liveOrder"
	Code       string `json:"code"`       // Product code being referenced
	Name       string `json:"name"`       // Entity name for display
	Reason     string `json:"reason"`     // Human-readable reason (e.g. "Referenced by 3 purchase order items")
	OtherCount int    `json:"otherCount"` // Number of referencing rows
}

// AffectedSummary summarizes what will be deleted
type AffectedSummary struct {
	ProductCount      int      `json:"productCount"`
	VariantCount      int      `json:"variantCount"`
	OrderItemRefCount int      `json:"orderItemRefCount"`
	LiveOrderRefCount int      `json:"liveOrderRefCount"`
	VariantCodes      []string `json:"variantCodes,omitempty"`
}

// CascadeDeleteResult reports what was actually deleted
type CascadeDeleteResult struct {
	Success         bool           `json:"success"`
	ProductsDeleted int            `json:"productsDeleted"`
	VariantsDeleted int            `json:"variantsDeleted"`
	Errors          []CascadeError `json:"errors,omitempty"`
	PartialSuccess  bool           `json:"partialSuccess"` // True if some cascade operations failed
}

// CascadeError represents a failure during cascade delete
type CascadeError struct {
	EntityType string `json:"entityType"` // "product", "variant"
	EntityID   string `json:"entityId"`
	Code       string `json:"code"`    // Error code (e.g. "DELETE_FAILED", "REFERENCED")
	Message    string `json:"message"` // Human-readable error message
}
