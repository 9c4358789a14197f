package services

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liveshop-service/internal/catalog"
	"liveshop-service/internal/models"
	"liveshop-service/internal/variants"
)

func newPurchaseOrderServiceForTest(orders *fakePurchaseOrderStore, products *fakeProductStore, pub *fakePublisher) PurchaseOrderService {
	return NewPurchaseOrderService(catalog.Default(), orders, products, pub, testLogger())
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestCreateAllocatesSequentialCodes(t *testing.T) {
	products := newFakeProductStore(
		&models.Product{Code: "N0001", Name: "Áo thun"},
		&models.Product{Code: "N0002", Name: "Áo sơ mi"},
		&models.Product{Code: "N0003", Name: "Quần tây"},
	)
	orders := newFakePurchaseOrderStore()
	svc := newPurchaseOrderServiceForTest(orders, products, &fakePublisher{})

	order, err := svc.Create(testTenant, &models.CreatePurchaseOrderRequest{
		Supplier: strPtr("Xưởng may Hòa Bình"),
		Items: []models.CreatePurchaseOrderItemRequest{
			{ProductName: "Áo khoác", Quantity: 5, PurchasePrice: decPtr("150000"), SellingPrice: decPtr("250000")},
			{ProductName: "Váy hoa", Quantity: 3, PurchasePrice: decPtr("90000"), SellingPrice: decPtr("160000")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.PurchaseOrderStatusDraft, order.Status)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "PO-"))
	require.Len(t, order.Items, 2)
	// The first draft line reserves N0004, so the second gets N0005.
	assert.Equal(t, "N0004", order.Items[0].ProductCode)
	assert.Equal(t, "N0005", order.Items[1].ProductCode)
	assert.True(t, order.Items[0].PurchasePrice.Equal(dec("150000")))
}

func TestCreateGapChecksTypedCodes(t *testing.T) {
	products := newFakeProductStore(&models.Product{Code: "N0003", Name: "Quần tây"})
	orders := newFakePurchaseOrderStore()
	svc := newPurchaseOrderServiceForTest(orders, products, &fakePublisher{})

	_, err := svc.Create(testTenant, &models.CreatePurchaseOrderRequest{
		Items: []models.CreatePurchaseOrderItemRequest{
			{ProductCode: strPtr("N0050"), ProductName: "Áo khoác", Quantity: 5},
		},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeGapTooLarge, verr.Code)
	assert.Equal(t, 47, verr.Details["gap"])

	order, err := svc.Create(testTenant, &models.CreatePurchaseOrderRequest{
		Items: []models.CreatePurchaseOrderItemRequest{
			{ProductCode: strPtr("N0050"), ProductName: "Áo khoác", Quantity: 5, SkipGapCheck: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "N0050", order.Items[0].ProductCode)
}

func TestCreateExpandsAttributeLines(t *testing.T) {
	products := newFakeProductStore()
	orders := newFakePurchaseOrderStore()
	svc := newPurchaseOrderServiceForTest(orders, products, &fakePublisher{})

	order, err := svc.Create(testTenant, &models.CreatePurchaseOrderRequest{
		Items: []models.CreatePurchaseOrderItemRequest{
			{
				CodeCategory:  strPtr("A"),
				ProductName:   "Đầm maxi",
				Quantity:      2,
				PurchasePrice: decPtr("120000"),
				SellingPrice:  decPtr("220000"),
				AttributeLines: []models.AttributeLineInput{
					{AttributeName: "Màu sắc", SelectedValues: []string{"Đen", "Trắng"}},
				},
			},
		},
	})
	require.NoError(t, err)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "A0001-DEN", order.Items[0].ProductCode)
	assert.Equal(t, "Đầm maxi - Đen", order.Items[0].ProductName)
	assert.Equal(t, "A0001-TRANG", order.Items[1].ProductCode)
	assert.Equal(t, "Đầm maxi - Trắng", order.Items[1].ProductName)
	for _, item := range order.Items {
		require.NotNil(t, item.VariantSignature)
		assert.Equal(t, "(Đen | Trắng)", *item.VariantSignature)
		assert.Equal(t, 2, item.Quantity)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	products := newFakeProductStore()
	orders := newFakePurchaseOrderStore()
	svc := newPurchaseOrderServiceForTest(orders, products, &fakePublisher{})

	order, err := svc.Create(testTenant, &models.CreatePurchaseOrderRequest{
		Items: []models.CreatePurchaseOrderItemRequest{
			{ProductName: "Áo khoác", Quantity: 5},
		},
	})
	require.NoError(t, err)

	// Receiving goes through the receive endpoint, not a status update.
	_, err = svc.UpdateStatus(testTenant, order.ID, &models.UpdatePurchaseOrderStatusRequest{
		Status: models.PurchaseOrderStatusReceived,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeInvalidState, verr.Code)

	confirmed, err := svc.UpdateStatus(testTenant, order.ID, &models.UpdatePurchaseOrderStatusRequest{
		Status: models.PurchaseOrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseOrderStatusConfirmed, confirmed.Status)

	_, err = svc.UpdateStatus(testTenant, order.ID, &models.UpdatePurchaseOrderStatusRequest{
		Status: models.PurchaseOrderStatusDraft,
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeInvalidState, verr.Code)
}

func TestReceiveRequiresConfirmedOrder(t *testing.T) {
	products := newFakeProductStore()
	orders := newFakePurchaseOrderStore()
	svc := newPurchaseOrderServiceForTest(orders, products, &fakePublisher{})

	order, err := svc.Create(testTenant, &models.CreatePurchaseOrderRequest{
		Items: []models.CreatePurchaseOrderItemRequest{
			{ProductName: "Áo khoác", Quantity: 5},
		},
	})
	require.NoError(t, err)

	_, err = svc.Receive(testTenant, order.ID, &models.ReceivePurchaseOrderRequest{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeInvalidState, verr.Code)
}

func TestReceiveFoldsItemsIntoCatalog(t *testing.T) {
	products := newFakeProductStore(
		&models.Product{Code: "N0048", Name: "Áo thun", PurchasePrice: dec("80000"), SellingPrice: dec("120000"), StockQuantity: 3, Status: models.ProductStatusActive},
		&models.Product{Code: "P012", Name: "Quần jean", PurchasePrice: dec("70000"), SellingPrice: dec("95000"), Status: models.ProductStatusActive},
		&models.Product{Code: "X999", Name: "X999", Status: models.ProductStatusPendingSync},
	)
	orders := newFakePurchaseOrderStore()
	pub := &fakePublisher{}
	svc := newPurchaseOrderServiceForTest(orders, products, pub)

	order, err := svc.Create(testTenant, &models.CreatePurchaseOrderRequest{
		Supplier: strPtr("Xưởng may Hòa Bình"),
		Items: []models.CreatePurchaseOrderItemRequest{
			{ProductCode: strPtr("A0100"), SkipGapCheck: true, ProductName: "Khăn lụa", Quantity: 10, PurchasePrice: decPtr("50000"), SellingPrice: decPtr("90000")},
			{ProductCode: strPtr("N0048"), SkipGapCheck: true, ProductName: "Áo thun", Quantity: 5, PurchasePrice: decPtr("80000"), SellingPrice: decPtr("120000")},
			{ProductCode: strPtr("P012"), SkipGapCheck: true, ProductName: "Quần jeans", Quantity: 5, PurchasePrice: decPtr("70000"), SellingPrice: decPtr("95000")},
			{ProductCode: strPtr("X999"), SkipGapCheck: true, ProductName: "Túi xách", Quantity: 4, PurchasePrice: decPtr("30000"), SellingPrice: decPtr("60000")},
		},
	})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(testTenant, order.ID, &models.UpdatePurchaseOrderStatusRequest{
		Status: models.PurchaseOrderStatusConfirmed,
	})
	require.NoError(t, err)

	result, err := svc.Receive(testTenant, order.ID, &models.ReceivePurchaseOrderRequest{})
	require.NoError(t, err)

	assert.Equal(t, models.PurchaseOrderStatusReceived, result.Order.Status)
	assert.Equal(t, 24, result.StockAdded)

	// Unknown code became a catalog row with the received stock.
	require.Len(t, result.ProductsCreated, 1)
	created := result.ProductsCreated[0]
	assert.Equal(t, "A0100", created.Code)
	assert.Equal(t, models.ProductStatusActive, created.Status)
	assert.Equal(t, 10, created.StockQuantity)
	require.NotNil(t, created.Supplier)
	assert.Equal(t, "Xưởng may Hòa Bình", *created.Supplier)

	assert.Len(t, result.ProductsUpdated, 3)

	restocked, err := products.GetProductByCode(testTenant, "N0048")
	require.NoError(t, err)
	assert.Equal(t, 8, restocked.StockQuantity)

	// The skeleton materialized from a live comment got completed.
	completed, err := products.GetProductByCode(testTenant, "X999")
	require.NoError(t, err)
	assert.Equal(t, "Túi xách", completed.Name)
	assert.True(t, completed.PurchasePrice.Equal(dec("30000")))
	assert.Equal(t, 4, completed.StockQuantity)

	// The differing name is reported, never silently overwritten.
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "P012", result.Conflicts[0].ProductCode)
	require.Len(t, result.Conflicts[0].Fields, 1)
	assert.Equal(t, variants.FieldProductName, result.Conflicts[0].Fields[0].Field)
	unchanged, err := products.GetProductByCode(testTenant, "P012")
	require.NoError(t, err)
	assert.Equal(t, "Quần jean", unchanged.Name)

	require.Len(t, pub.ordersReceived, 1)
	assert.Equal(t, 1, pub.ordersReceived[0].created)
	assert.Equal(t, 3, pub.ordersReceived[0].updated)
}

func TestReceiveQuantityOverrides(t *testing.T) {
	products := newFakeProductStore()
	orders := newFakePurchaseOrderStore()
	svc := newPurchaseOrderServiceForTest(orders, products, &fakePublisher{})

	order, err := svc.Create(testTenant, &models.CreatePurchaseOrderRequest{
		Items: []models.CreatePurchaseOrderItemRequest{
			{ProductName: "Áo khoác", Quantity: 10, PurchasePrice: decPtr("150000"), SellingPrice: decPtr("250000")},
			{ProductName: "Váy hoa", Quantity: 3, PurchasePrice: decPtr("90000"), SellingPrice: decPtr("160000")},
		},
	})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(testTenant, order.ID, &models.UpdatePurchaseOrderStatusRequest{
		Status: models.PurchaseOrderStatusConfirmed,
	})
	require.NoError(t, err)

	result, err := svc.Receive(testTenant, order.ID, &models.ReceivePurchaseOrderRequest{
		Items: []models.ReceivePurchaseOrderItemInput{
			{ItemID: order.Items[0].ID.String(), ReceivedQuantity: 7},
			{ItemID: order.Items[1].ID.String(), ReceivedQuantity: 0},
		},
	})
	require.NoError(t, err)

	// The zeroed line is skipped entirely: no row, no stock.
	assert.Equal(t, 7, result.StockAdded)
	require.Len(t, result.ProductsCreated, 1)
	assert.Equal(t, order.Items[0].ProductCode, result.ProductsCreated[0].Code)
	assert.Equal(t, 7, result.ProductsCreated[0].StockQuantity)
	_, err = products.GetProductByCode(testTenant, order.Items[1].ProductCode)
	assert.Error(t, err)

	assert.Equal(t, 7, result.Order.Items[0].ReceivedQuantity)
	assert.Equal(t, 0, result.Order.Items[1].ReceivedQuantity)
}

func TestReceiveRejectsMalformedItemID(t *testing.T) {
	products := newFakeProductStore()
	orders := newFakePurchaseOrderStore()
	svc := newPurchaseOrderServiceForTest(orders, products, &fakePublisher{})

	order, err := svc.Create(testTenant, &models.CreatePurchaseOrderRequest{
		Items: []models.CreatePurchaseOrderItemRequest{
			{ProductName: "Áo khoác", Quantity: 5},
		},
	})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(testTenant, order.ID, &models.UpdatePurchaseOrderStatusRequest{
		Status: models.PurchaseOrderStatusConfirmed,
	})
	require.NoError(t, err)

	_, err = svc.Receive(testTenant, order.ID, &models.ReceivePurchaseOrderRequest{
		Items: []models.ReceivePurchaseOrderItemInput{
			{ItemID: "not-a-uuid", ReceivedQuantity: 2},
		},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeValidationError, verr.Code)
}
