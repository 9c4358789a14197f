package services

import (
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"liveshop-service/internal/models"
	"liveshop-service/internal/variants"
)

const testTenant = "tenant-1"

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

// fakeProductStore is an in-memory stand-in for the products repository. It
// satisfies ProductStore, ProductResolver and StockProductStore so one fake
// serves all three services.
type fakeProductStore struct {
	byCode       map[string]*models.Product
	updatedCodes []string
}

func newFakeProductStore(products ...*models.Product) *fakeProductStore {
	s := &fakeProductStore{byCode: make(map[string]*models.Product)}
	for _, p := range products {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.TenantID = testTenant
		s.byCode[p.Code] = p
	}
	return s
}

func (s *fakeProductStore) GetProductByID(tenantID string, productID uuid.UUID) (*models.Product, error) {
	for _, p := range s.byCode {
		if p.ID == productID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeProductStore) GetProductByCode(tenantID, code string) (*models.Product, error) {
	p, ok := s.byCode[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeProductStore) BatchGetProductsByCodes(tenantID string, codes []string) ([]models.Product, error) {
	var out []models.Product
	for _, code := range codes {
		if p, ok := s.byCode[code]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeProductStore) GetVariantsByBaseCode(tenantID, baseCode string) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.byCode {
		if p.BaseCode != nil && *p.BaseCode == baseCode {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeProductStore) AllProductCodes(tenantID string) ([]string, error) {
	codes := make([]string, 0, len(s.byCode))
	for code := range s.byCode {
		codes = append(codes, code)
	}
	return codes, nil
}

func (s *fakeProductStore) CreateProduct(tenantID string, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.TenantID = tenantID
	cp := *product
	s.byCode[product.Code] = &cp
	return nil
}

func (s *fakeProductStore) UpdateProductFields(tenantID, code string, fields variants.FieldValues) error {
	p, ok := s.byCode[code]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for field, value := range fields {
		switch field {
		case variants.FieldProductName:
			p.Name = value.(string)
		case variants.FieldSellingPrice:
			p.SellingPrice = value.(decimal.Decimal)
		case variants.FieldPurchasePrice:
			p.PurchasePrice = value.(decimal.Decimal)
		case variants.FieldStockQuantity:
			p.StockQuantity = value.(int)
		case variants.FieldBarcode:
			barcode := value.(string)
			p.Barcode = &barcode
		case variants.FieldVariantSignature:
			signature := value.(string)
			p.VariantSignature = &signature
		}
	}
	s.updatedCodes = append(s.updatedCodes, code)
	return nil
}

func (s *fakeProductStore) AddStockByCode(tenantID, code string, delta int) error {
	p, ok := s.byCode[code]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.StockQuantity += delta
	return nil
}

// fakeItemCodeSource feeds purchase-order item codes into sequence allocation
type fakeItemCodeSource struct {
	codes []string
}

func (s *fakeItemCodeSource) AllItemCodes(tenantID string) ([]string, error) {
	return s.codes, nil
}

// fakePublisher records every emitted event. It satisfies all the publisher
// interfaces the services declare.
type fakePublisher struct {
	variantBatches [][]string
	ordersCreated  []models.LiveOrder
	corrections    []indexCorrectionEvent
	ordersReceived []receivedEvent
}

type indexCorrectionEvent struct {
	orderID       uuid.UUID
	predicted     int
	authoritative int
}

type receivedEvent struct {
	orderNumber string
	created     int
	updated     int
}

func (p *fakePublisher) PublishVariantsGenerated(tenantID string, base *models.Product, variantCodes []string) {
	p.variantBatches = append(p.variantBatches, variantCodes)
}

func (p *fakePublisher) PublishLiveOrderCreated(tenantID string, order *models.LiveOrder) {
	p.ordersCreated = append(p.ordersCreated, *order)
}

func (p *fakePublisher) PublishIndexCorrected(tenantID string, order *models.LiveOrder, predicted, authoritative int) {
	p.corrections = append(p.corrections, indexCorrectionEvent{
		orderID:       order.ID,
		predicted:     predicted,
		authoritative: authoritative,
	})
}

func (p *fakePublisher) PublishPurchaseOrderReceived(tenantID string, order *models.PurchaseOrder, created, updated int) {
	p.ordersReceived = append(p.ordersReceived, receivedEvent{
		orderNumber: order.OrderNumber,
		created:     created,
		updated:     updated,
	})
}

// fakeLiveOrderStore is an in-memory stand-in for the live sessions
// repository.
type fakeLiveOrderStore struct {
	sessions    map[uuid.UUID]*models.LiveSession
	orders      []*models.LiveOrder
	settleCalls int
}

func newFakeLiveOrderStore(sessions ...*models.LiveSession) *fakeLiveOrderStore {
	s := &fakeLiveOrderStore{sessions: make(map[uuid.UUID]*models.LiveSession)}
	for _, session := range sessions {
		if session.ID == uuid.Nil {
			session.ID = uuid.New()
		}
		session.TenantID = testTenant
		s.sessions[session.ID] = session
	}
	return s
}

func (s *fakeLiveOrderStore) GetSessionByID(tenantID string, sessionID uuid.UUID) (*models.LiveSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *fakeLiveOrderStore) GetOrCreateSessionByVideoID(tenantID, videoID, name string) (*models.LiveSession, bool, error) {
	for _, session := range s.sessions {
		if session.FacebookVideoID != nil && *session.FacebookVideoID == videoID {
			cp := *session
			return &cp, false, nil
		}
	}
	session := &models.LiveSession{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Name:            name,
		FacebookVideoID: &videoID,
		Status:          models.LiveSessionStatusLive,
	}
	s.sessions[session.ID] = session
	cp := *session
	return &cp, true, nil
}

func (s *fakeLiveOrderStore) FindOrderByComment(tenantID string, sessionID uuid.UUID, commentID, productCode string) (*models.LiveOrder, error) {
	for _, order := range s.orders {
		if order.SessionID == sessionID && order.CommentID == commentID && order.ProductCode == productCode {
			cp := *order
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeLiveOrderStore) InsertLiveOrder(tenantID string, order *models.LiveOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.TenantID = tenantID
	cp := *order
	s.orders = append(s.orders, &cp)
	if session, ok := s.sessions[order.SessionID]; ok {
		if order.SessionIndex > session.LastOrderIndex {
			session.LastOrderIndex = order.SessionIndex
		}
		session.OrderCount++
	}
	return nil
}

func (s *fakeLiveOrderStore) GetOrderByID(tenantID string, orderID uuid.UUID) (*models.LiveOrder, error) {
	for _, order := range s.orders {
		if order.ID == orderID {
			cp := *order
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeLiveOrderStore) SettleOrderIndex(tenantID string, orderID uuid.UUID, index int, state models.LiveOrderIndexState) error {
	s.settleCalls++
	for _, order := range s.orders {
		if order.ID == orderID {
			order.SessionIndex = index
			order.IndexState = state
			if session, ok := s.sessions[order.SessionID]; ok && index > session.LastOrderIndex {
				session.LastOrderIndex = index
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeLiveOrderStore) UpdateOrderStatus(tenantID string, orderID uuid.UUID, status models.LiveOrderStatus, notes *string) error {
	for _, order := range s.orders {
		if order.ID == orderID {
			order.Status = status
			if notes != nil {
				order.Notes = notes
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// fakePurchaseOrderStore is an in-memory stand-in for the purchase orders
// repository.
type fakePurchaseOrderStore struct {
	orders map[uuid.UUID]*models.PurchaseOrder
}

func newFakePurchaseOrderStore() *fakePurchaseOrderStore {
	return &fakePurchaseOrderStore{orders: make(map[uuid.UUID]*models.PurchaseOrder)}
}

func (s *fakePurchaseOrderStore) CreatePurchaseOrder(tenantID string, order *models.PurchaseOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.TenantID = tenantID
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].PurchaseOrderID = order.ID
	}
	cp := *order
	cp.Items = append([]models.PurchaseOrderItem(nil), order.Items...)
	s.orders[order.ID] = &cp
	return nil
}

func (s *fakePurchaseOrderStore) GetPurchaseOrderByID(tenantID string, orderID uuid.UUID) (*models.PurchaseOrder, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *order
	cp.Items = append([]models.PurchaseOrderItem(nil), order.Items...)
	return &cp, nil
}

func (s *fakePurchaseOrderStore) UpdatePurchaseOrderStatus(tenantID string, orderID uuid.UUID, status models.PurchaseOrderStatus) error {
	order, ok := s.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	return nil
}

func (s *fakePurchaseOrderStore) SetItemReceivedQuantity(tenantID string, orderID, itemID uuid.UUID, quantity int) error {
	order, ok := s.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			order.Items[i].ReceivedQuantity = quantity
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *fakePurchaseOrderStore) AllItemCodes(tenantID string) ([]string, error) {
	var codes []string
	for _, order := range s.orders {
		for _, item := range order.Items {
			codes = append(codes, item.ProductCode)
		}
	}
	return codes, nil
}
