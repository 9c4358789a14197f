package models

import "fmt"

// ValidPurchaseOrderTransitions defines valid state transitions for PurchaseOrderStatus
// Flow: DRAFT → CONFIRMED → RECEIVED
// CANCELLED can be reached from any non-terminal state
var ValidPurchaseOrderTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderStatusDraft:     {PurchaseOrderStatusConfirmed, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusConfirmed: {PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusReceived:  {}, // Terminal state
	PurchaseOrderStatusCancelled: {}, // Terminal state
}

// ValidLiveSessionTransitions defines valid state transitions for LiveSessionStatus
var ValidLiveSessionTransitions = map[LiveSessionStatus][]LiveSessionStatus{
	LiveSessionStatusScheduled: {LiveSessionStatusLive, LiveSessionStatusEnded},
	LiveSessionStatusLive:      {LiveSessionStatusEnded},
	LiveSessionStatusEnded:     {}, // Terminal state
}

// ValidLiveOrderTransitions defines valid state transitions for LiveOrderStatus
// Flow: PENDING → CONFIRMED → PACKED → SHIPPED
// CANCELLED can be reached from any non-terminal state
var ValidLiveOrderTransitions = map[LiveOrderStatus][]LiveOrderStatus{
	LiveOrderStatusPending:   {LiveOrderStatusConfirmed, LiveOrderStatusCancelled},
	LiveOrderStatusConfirmed: {LiveOrderStatusPacked, LiveOrderStatusCancelled},
	LiveOrderStatusPacked:    {LiveOrderStatusShipped, LiveOrderStatusCancelled},
	LiveOrderStatusShipped:   {}, // Terminal state
	LiveOrderStatusCancelled: {}, // Terminal state
}

// CanTransitionPurchaseOrderStatus checks if a transition between purchase order statuses is valid
func CanTransitionPurchaseOrderStatus(from, to PurchaseOrderStatus) bool {
	validTransitions, exists := ValidPurchaseOrderTransitions[from]
	if !exists {
		return false
	}
	for _, validTo := range validTransitions {
		if validTo == to {
			return true
		}
	}
	return false
}

// CanTransitionLiveSessionStatus checks if a transition between session statuses is valid
func CanTransitionLiveSessionStatus(from, to LiveSessionStatus) bool {
	validTransitions, exists := ValidLiveSessionTransitions[from]
	if !exists {
		return false
	}
	for _, validTo := range validTransitions {
		if validTo == to {
			return true
		}
	}
	return false
}

// CanTransitionLiveOrderStatus checks if a transition between live order statuses is valid
func CanTransitionLiveOrderStatus(from, to LiveOrderStatus) bool {
	validTransitions, exists := ValidLiveOrderTransitions[from]
	if !exists {
		return false
	}
	for _, validTo := range validTransitions {
		if validTo == to {
			return true
		}
	}
	return false
}

// ValidatePurchaseOrderStatusTransition returns an error if the transition is invalid
func ValidatePurchaseOrderStatusTransition(from, to PurchaseOrderStatus) error {
	if !CanTransitionPurchaseOrderStatus(from, to) {
		return fmt.Errorf("invalid purchase order status transition from %s to %s", from, to)
	}
	return nil
}

// ValidateLiveSessionStatusTransition returns an error if the transition is invalid
func ValidateLiveSessionStatusTransition(from, to LiveSessionStatus) error {
	if !CanTransitionLiveSessionStatus(from, to) {
		return fmt.Errorf("invalid live session status transition from %s to %s", from, to)
	}
	return nil
}

// ValidateLiveOrderStatusTransition returns an error if the transition is invalid
func ValidateLiveOrderStatusTransition(from, to LiveOrderStatus) error {
	if !CanTransitionLiveOrderStatus(from, to) {
		return fmt.Errorf("invalid live order status transition from %s to %s", from, to)
	}
	return nil
}

// IsTerminalPurchaseOrderStatus checks if the purchase order status is a terminal state
func IsTerminalPurchaseOrderStatus(status PurchaseOrderStatus) bool {
	return len(ValidPurchaseOrderTransitions[status]) == 0
}

// IsTerminalLiveOrderStatus checks if the live order status is a terminal state
func IsTerminalLiveOrderStatus(status LiveOrderStatus) bool {
	return len(ValidLiveOrderTransitions[status]) == 0
}

// DisplayName returns a human-readable name for the purchase order status
func (s PurchaseOrderStatus) DisplayName() string {
	switch s {
	case PurchaseOrderStatusDraft:
		return "Draft"
	case PurchaseOrderStatusConfirmed:
		return "Confirmed"
	case PurchaseOrderStatusReceived:
		return "Received"
	case PurchaseOrderStatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// DisplayName returns a human-readable name for the live order status
func (s LiveOrderStatus) DisplayName() string {
	switch s {
	case LiveOrderStatusPending:
		return "Pending"
	case LiveOrderStatusConfirmed:
		return "Confirmed"
	case LiveOrderStatusPacked:
		return "Packed"
	case LiveOrderStatusShipped:
		return "Shipped"
	case LiveOrderStatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}
