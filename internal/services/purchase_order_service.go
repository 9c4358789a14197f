package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"liveshop-service/internal/catalog"
	"liveshop-service/internal/codes"
	"liveshop-service/internal/models"
	"liveshop-service/internal/variants"
)

// PurchaseOrderStore is the slice of the purchase orders repository the
// service needs.
type PurchaseOrderStore interface {
	CreatePurchaseOrder(tenantID string, order *models.PurchaseOrder) error
	GetPurchaseOrderByID(tenantID string, orderID uuid.UUID) (*models.PurchaseOrder, error)
	UpdatePurchaseOrderStatus(tenantID string, orderID uuid.UUID, status models.PurchaseOrderStatus) error
	SetItemReceivedQuantity(tenantID string, orderID, itemID uuid.UUID, quantity int) error
	AllItemCodes(tenantID string) ([]string, error)
}

// StockProductStore is the product-side surface receiving needs: resolve,
// materialize and restock catalog rows.
type StockProductStore interface {
	GetProductByCode(tenantID, code string) (*models.Product, error)
	CreateProduct(tenantID string, product *models.Product) error
	AddStockByCode(tenantID, code string, delta int) error
	UpdateProductFields(tenantID, code string, fields variants.FieldValues) error
	AllProductCodes(tenantID string) ([]string, error)
}

// PurchaseOrderEventPublisher emits purchaseorder.* events
type PurchaseOrderEventPublisher interface {
	PublishPurchaseOrderReceived(tenantID string, order *models.PurchaseOrder, created, updated int)
}

// PurchaseOrderService creates stock intake orders (allocating product codes
// for new lines, expanding attribute selections into variant items) and
// receives them into the catalog.
type PurchaseOrderService interface {
	Create(tenantID string, req *models.CreatePurchaseOrderRequest) (*models.PurchaseOrder, error)
	UpdateStatus(tenantID string, orderID uuid.UUID, req *models.UpdatePurchaseOrderStatusRequest) (*models.PurchaseOrder, error)
	Receive(tenantID string, orderID uuid.UUID, req *models.ReceivePurchaseOrderRequest) (*models.ReceivePurchaseOrderResult, error)
}

type purchaseOrderService struct {
	cat       *catalog.Catalog
	orders    PurchaseOrderStore
	products  StockProductStore
	publisher PurchaseOrderEventPublisher
	logger    *logrus.Entry
}

// NewPurchaseOrderService creates a new purchase order service
func NewPurchaseOrderService(cat *catalog.Catalog, orders PurchaseOrderStore, products StockProductStore, publisher PurchaseOrderEventPublisher, logger *logrus.Logger) PurchaseOrderService {
	return &purchaseOrderService{
		cat:       cat,
		orders:    orders,
		products:  products,
		publisher: publisher,
		logger:    logger.WithField("component", "purchase_order_service"),
	}
}

func (s *purchaseOrderService) Create(tenantID string, req *models.CreatePurchaseOrderRequest) (*models.PurchaseOrder, error) {
	productCodes, err := s.products.AllProductCodes(tenantID)
	if err != nil {
		return nil, err
	}
	itemCodes, err := s.orders.AllItemCodes(tenantID)
	if err != nil {
		return nil, err
	}
	// Codes typed or allocated earlier in the same form reserve their
	// sequence numbers for the lines that follow.
	var draftCodes []string

	items := make([]models.PurchaseOrderItem, 0, len(req.Items))
	for i, in := range req.Items {
		purchasePrice := decimal.Zero
		if in.PurchasePrice != nil {
			purchasePrice = *in.PurchasePrice
		}
		sellingPrice := decimal.Zero
		if in.SellingPrice != nil {
			sellingPrice = *in.SellingPrice
		}

		code, err := s.resolveItemCode(&in, draftCodes, productCodes, itemCodes)
		if err != nil {
			return nil, err
		}
		draftCodes = append(draftCodes, code)

		if len(in.AttributeLines) > 0 {
			generated, err := variants.Expand(s.cat, variants.BaseProduct{
				Code:      code,
				Name:      in.ProductName,
				ListPrice: sellingPrice,
			}, toAttributeLines(in.AttributeLines))
			if err != nil {
				return nil, newValidationError(CodeValidationError,
					fmt.Sprintf("item %d: no attribute line matched the catalog", i), "items")
			}
			signature := variants.FormatSignature(variants.ResolveLines(s.cat, toAttributeLines(in.AttributeLines)))
			for _, g := range generated {
				items = append(items, models.PurchaseOrderItem{
					ProductCode:      g.Code,
					ProductName:      g.Name,
					VariantSignature: &signature,
					Quantity:         in.Quantity,
					PurchasePrice:    purchasePrice,
					SellingPrice:     sellingPrice,
				})
			}
			continue
		}

		items = append(items, models.PurchaseOrderItem{
			ProductCode:      code,
			ProductName:      in.ProductName,
			VariantSignature: in.VariantSignature,
			Quantity:         in.Quantity,
			PurchasePrice:    purchasePrice,
			SellingPrice:     sellingPrice,
		})
	}

	order := &models.PurchaseOrder{
		OrderNumber: models.NewPurchaseOrderNumber(time.Now()),
		Supplier:    req.Supplier,
		Notes:       req.Notes,
		Status:      models.PurchaseOrderStatusDraft,
		Items:       items,
	}
	if err := s.orders.CreatePurchaseOrder(tenantID, order); err != nil {
		return nil, fmt.Errorf("failed to create purchase order: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"tenant_id":    tenantID,
		"order_number": order.OrderNumber,
		"items":        len(order.Items),
	}).Info("Purchase order created")
	return order, nil
}

// resolveItemCode returns the product code for one requested line: a typed
// code is gap-checked unless confirmed, a missing one gets the next in its
// category across drafts, catalog rows and other purchase-order items.
func (s *purchaseOrderService) resolveItemCode(in *models.CreatePurchaseOrderItemRequest, draftCodes, productCodes, itemCodes []string) (string, error) {
	if in.ProductCode != nil && *in.ProductCode != "" {
		code := *in.ProductCode
		if in.SkipGapCheck {
			return code, nil
		}
		parsed, ok := codes.Parse(code)
		if !ok {
			return code, nil
		}
		max, _ := codes.MaxSequence(parsed.Category, draftCodes, productCodes, itemCodes)
		if check := codes.CheckGap(code, max); check.Large {
			return "", &ValidationError{
				Code:    CodeGapTooLarge,
				Message: fmt.Sprintf("code %s jumps %d past the current maximum %d", code, check.Gap, max),
				Field:   "productCode",
				Details: map[string]interface{}{
					"code":        code,
					"gap":         check.Gap,
					"maxSequence": max,
					"threshold":   codes.GapThreshold,
				},
			}
		}
		return code, nil
	}

	category := byte('N')
	if in.CodeCategory != nil && len(*in.CodeCategory) == 1 && isCategoryLetter((*in.CodeCategory)[0]) {
		category = (*in.CodeCategory)[0]
	}
	return codes.NextCode(category, draftCodes, productCodes, itemCodes), nil
}

func (s *purchaseOrderService) UpdateStatus(tenantID string, orderID uuid.UUID, req *models.UpdatePurchaseOrderStatusRequest) (*models.PurchaseOrder, error) {
	order, err := s.orders.GetPurchaseOrderByID(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if req.Status == models.PurchaseOrderStatusReceived {
		return nil, newValidationError(CodeInvalidState, "use the receive endpoint to mark an order received", "status")
	}
	if err := models.ValidatePurchaseOrderStatusTransition(order.Status, req.Status); err != nil {
		return nil, newValidationError(CodeInvalidState, err.Error(), "status")
	}
	if err := s.orders.UpdatePurchaseOrderStatus(tenantID, orderID, req.Status); err != nil {
		return nil, err
	}
	return s.orders.GetPurchaseOrderByID(tenantID, orderID)
}

// Receive marks a confirmed order received and folds its items into the
// catalog: unknown codes become new product rows, known codes get their stock
// incremented, and tracked fields that disagree are reported as conflicts for
// the operator, never silently overwritten.
func (s *purchaseOrderService) Receive(tenantID string, orderID uuid.UUID, req *models.ReceivePurchaseOrderRequest) (*models.ReceivePurchaseOrderResult, error) {
	order, err := s.orders.GetPurchaseOrderByID(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := models.ValidatePurchaseOrderStatusTransition(order.Status, models.PurchaseOrderStatusReceived); err != nil {
		return nil, newValidationError(CodeInvalidState, err.Error(), "status")
	}

	overrides := make(map[uuid.UUID]int, len(req.Items))
	for _, in := range req.Items {
		itemID, err := uuid.Parse(in.ItemID)
		if err != nil {
			return nil, newValidationError(CodeValidationError, "invalid item id "+in.ItemID, "items")
		}
		overrides[itemID] = in.ReceivedQuantity
	}

	result := &models.ReceivePurchaseOrderResult{}
	for _, item := range order.Items {
		qty := item.Quantity
		if override, ok := overrides[item.ID]; ok {
			qty = override
		}
		if err := s.orders.SetItemReceivedQuantity(tenantID, orderID, item.ID, qty); err != nil {
			return nil, err
		}
		if qty == 0 {
			continue
		}
		if err := s.receiveItem(tenantID, order, &item, qty, result); err != nil {
			return nil, err
		}
		result.StockAdded += qty
	}

	if err := s.orders.UpdatePurchaseOrderStatus(tenantID, orderID, models.PurchaseOrderStatusReceived); err != nil {
		return nil, err
	}
	received, err := s.orders.GetPurchaseOrderByID(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	result.Order = received

	if s.publisher != nil {
		s.publisher.PublishPurchaseOrderReceived(tenantID, received, len(result.ProductsCreated), len(result.ProductsUpdated))
	}
	s.logger.WithFields(logrus.Fields{
		"tenant_id":        tenantID,
		"order_number":     received.OrderNumber,
		"products_created": len(result.ProductsCreated),
		"products_updated": len(result.ProductsUpdated),
		"stock_added":      result.StockAdded,
		"conflicts":        len(result.Conflicts),
	}).Info("Purchase order received")
	return result, nil
}

func (s *purchaseOrderService) receiveItem(tenantID string, order *models.PurchaseOrder, item *models.PurchaseOrderItem, qty int, result *models.ReceivePurchaseOrderResult) error {
	product, err := s.products.GetProductByCode(tenantID, item.ProductCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created := &models.Product{
			Code:             item.ProductCode,
			Name:             item.ProductName,
			PurchasePrice:    item.PurchasePrice,
			SellingPrice:     item.SellingPrice,
			StockQuantity:    qty,
			VariantSignature: item.VariantSignature,
			Supplier:         order.Supplier,
			Status:           models.ProductStatusActive,
		}
		if err := s.products.CreateProduct(tenantID, created); err != nil {
			return fmt.Errorf("failed to materialize product %s: %w", item.ProductCode, err)
		}
		result.ProductsCreated = append(result.ProductsCreated, *created)
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.products.AddStockByCode(tenantID, item.ProductCode, qty); err != nil {
		return fmt.Errorf("failed to add stock for %s: %w", item.ProductCode, err)
	}
	product.StockQuantity += qty

	// A PENDING_SYNC skeleton materialized from a live comment is completed
	// by the first intake that names it.
	if product.Status == models.ProductStatusPendingSync {
		completion := variants.FieldValues{
			variants.FieldProductName:   item.ProductName,
			variants.FieldPurchasePrice: item.PurchasePrice,
			variants.FieldSellingPrice:  item.SellingPrice,
		}
		if item.VariantSignature != nil {
			completion[variants.FieldVariantSignature] = *item.VariantSignature
		}
		if err := s.products.UpdateProductFields(tenantID, item.ProductCode, completion); err != nil {
			return err
		}
		result.ProductsUpdated = append(result.ProductsUpdated, *product)
		return nil
	}

	incoming := variants.FieldValues{
		variants.FieldProductName:   item.ProductName,
		variants.FieldPurchasePrice: item.PurchasePrice,
		variants.FieldSellingPrice:  item.SellingPrice,
	}
	if item.VariantSignature != nil {
		incoming[variants.FieldVariantSignature] = *item.VariantSignature
	}
	if c := variants.Diff(product.Code, product.Name, fieldValuesFromProduct(product), incoming, variants.TrackedFields()); c != nil {
		result.Conflicts = append(result.Conflicts, conflictToModel(c))
	}
	result.ProductsUpdated = append(result.ProductsUpdated, *product)
	return nil
}
