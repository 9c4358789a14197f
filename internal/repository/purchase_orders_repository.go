package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"liveshop-service/internal/models"
)

type PurchaseOrdersRepository struct {
	db *gorm.DB
}

func NewPurchaseOrdersRepository(db *gorm.DB) *PurchaseOrdersRepository {
	return &PurchaseOrdersRepository{db: db}
}

// CreatePurchaseOrder inserts an order with its items in one transaction
func (r *PurchaseOrdersRepository) CreatePurchaseOrder(tenantID string, order *models.PurchaseOrder) error {
	order.TenantID = tenantID
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.OrderNumber == "" {
		order.OrderNumber = models.NewPurchaseOrderNumber(time.Now())
	}

	totalQty := 0
	totalAmount := decimal.Zero
	for i := range order.Items {
		order.Items[i].PurchaseOrderID = order.ID
		order.Items[i].Position = i
		totalQty += order.Items[i].Quantity
		lineAmount := order.Items[i].PurchasePrice.Mul(decimal.NewFromInt(int64(order.Items[i].Quantity)))
		totalAmount = totalAmount.Add(lineAmount)
	}
	order.TotalQuantity = totalQty
	order.TotalAmount = totalAmount

	return r.db.Create(order).Error
}

// GetPurchaseOrderByID loads an order with its items
func (r *PurchaseOrdersRepository) GetPurchaseOrderByID(tenantID string, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.Where("tenant_id = ? AND id = ?", tenantID, orderID).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("purchase_order_items.position ASC")
		}).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// PurchaseOrderListQuery captures list filters and pagination
type PurchaseOrderListQuery struct {
	Status   models.PurchaseOrderStatus
	Supplier string
	Page     int
	Limit    int
}

// GetPurchaseOrders lists orders newest first
func (r *PurchaseOrdersRepository) GetPurchaseOrders(tenantID string, q *PurchaseOrderListQuery) ([]models.PurchaseOrder, int64, error) {
	var orders []models.PurchaseOrder
	var total int64

	query := r.db.Model(&models.PurchaseOrder{}).Where("tenant_id = ?", tenantID)
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Supplier != "" {
		query = query.Where("supplier = ?", q.Supplier)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	if err := query.Order("created_at DESC").
		Offset(offset).Limit(q.Limit).
		Preload("Items").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// UpdatePurchaseOrderHeader updates the mutable header fields of a draft
func (r *PurchaseOrdersRepository) UpdatePurchaseOrderHeader(tenantID string, orderID uuid.UUID, req *models.UpdatePurchaseOrderRequest) error {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Supplier != nil {
		updates["supplier"] = *req.Supplier
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	return r.db.Model(&models.PurchaseOrder{}).
		Where("tenant_id = ? AND id = ?", tenantID, orderID).
		Updates(updates).Error
}

// UpdatePurchaseOrderStatus writes a status transition the caller has already
// validated against the state machine, stamping the lifecycle timestamps.
func (r *PurchaseOrdersRepository) UpdatePurchaseOrderStatus(tenantID string, orderID uuid.UUID, status models.PurchaseOrderStatus) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	now := time.Now()
	switch status {
	case models.PurchaseOrderStatusConfirmed:
		updates["confirmed_at"] = now
	case models.PurchaseOrderStatusReceived:
		updates["received_at"] = now
	}
	return r.db.Model(&models.PurchaseOrder{}).
		Where("tenant_id = ? AND id = ?", tenantID, orderID).
		Updates(updates).Error
}

// SetItemReceivedQuantity records how many units of one item actually arrived
func (r *PurchaseOrdersRepository) SetItemReceivedQuantity(tenantID string, orderID, itemID uuid.UUID, quantity int) error {
	result := r.db.Model(&models.PurchaseOrderItem{}).
		Where("purchase_order_id = ? AND id = ?", orderID, itemID).
		Updates(map[string]interface{}{"received_quantity": quantity, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("purchase order item %s not found", itemID)
	}
	return nil
}

// AllItemCodes returns every product code appearing on the tenant's purchase
// order items, one of the three sources sequential code allocation scans.
func (r *PurchaseOrdersRepository) AllItemCodes(tenantID string) ([]string, error) {
	var codes []string
	err := r.db.Model(&models.PurchaseOrderItem{}).
		Joins("JOIN purchase_orders ON purchase_orders.id = purchase_order_items.purchase_order_id").
		Where("purchase_orders.tenant_id = ? AND purchase_orders.deleted_at IS NULL", tenantID).
		Pluck("purchase_order_items.product_code", &codes).Error
	return codes, err
}
