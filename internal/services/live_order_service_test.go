package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liveshop-service/internal/models"
)

type liveOrderFixture struct {
	store     *fakeLiveOrderStore
	products  *fakeProductStore
	publisher *fakePublisher
	session   *models.LiveSession
	drifts    []int
	svc       LiveOrderService
}

func newLiveOrderFixture(t *testing.T, status models.LiveSessionStatus, lastIndex int) *liveOrderFixture {
	t.Helper()
	f := &liveOrderFixture{
		session: &models.LiveSession{
			Name:           "Live tối thứ sáu",
			Status:         status,
			LastOrderIndex: lastIndex,
		},
		products: newFakeProductStore(
			&models.Product{Code: "N0048", Name: "Áo thun", SellingPrice: dec("120000"), Status: models.ProductStatusActive},
			&models.Product{Code: "P012", Name: "Quần jean", SellingPrice: dec("95000"), Status: models.ProductStatusActive},
		),
		publisher: &fakePublisher{},
	}
	f.store = newFakeLiveOrderStore(f.session)
	f.svc = NewLiveOrderService(f.store, f.products, f.publisher, func(drift int) {
		f.drifts = append(f.drifts, drift)
	}, testLogger())
	return f
}

func TestIngestCommentPredictsSequentialIndexes(t *testing.T) {
	f := newLiveOrderFixture(t, models.LiveSessionStatusLive, 5)

	result, err := f.svc.IngestComment(testTenant, f.session.ID, &models.IngestCommentRequest{
		CommentID:    "c1",
		CustomerName: "Lan",
		Text:         "Chị lấy N0048 với P012 nhé em",
		Quantity:     intPtr(2),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"N0048", "P012"}, result.MatchedCodes)
	assert.False(t, result.Duplicate)
	assert.Empty(t, result.UnknownCodes)
	require.Len(t, result.Orders, 2)

	first := result.Orders[0]
	assert.Equal(t, "N0048", first.ProductCode)
	assert.Equal(t, 6, first.SessionIndex)
	assert.Equal(t, 6, first.PredictedIndex)
	assert.Equal(t, models.IndexStateProvisional, first.IndexState)
	assert.Equal(t, models.LiveOrderStatusPending, first.Status)
	assert.Equal(t, 2, first.Quantity)
	require.NotNil(t, first.ProductName)
	assert.Equal(t, "Áo thun", *first.ProductName)
	assert.True(t, first.UnitPrice.Equal(dec("120000")))
	assert.True(t, first.TotalAmount.Equal(dec("240000")))

	second := result.Orders[1]
	assert.Equal(t, "P012", second.ProductCode)
	assert.Equal(t, 7, second.SessionIndex)

	session, err := f.store.GetSessionByID(testTenant, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, session.LastOrderIndex)
	assert.Equal(t, 2, session.OrderCount)
	assert.Len(t, f.publisher.ordersCreated, 2)
}

func TestIngestCommentIsIdempotentPerCommentAndCode(t *testing.T) {
	f := newLiveOrderFixture(t, models.LiveSessionStatusLive, 0)
	req := &models.IngestCommentRequest{
		CommentID:    "c1",
		CustomerName: "Lan",
		Text:         "N0048 ạ",
	}

	_, err := f.svc.IngestComment(testTenant, f.session.ID, req)
	require.NoError(t, err)

	result, err := f.svc.IngestComment(testTenant, f.session.ID, req)
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, 1, result.Orders[0].SessionIndex)
	assert.Len(t, f.store.orders, 1)
	assert.Len(t, f.publisher.ordersCreated, 1)
}

func TestIngestCommentMaterializesUnknownCode(t *testing.T) {
	f := newLiveOrderFixture(t, models.LiveSessionStatusLive, 0)

	result, err := f.svc.IngestComment(testTenant, f.session.ID, &models.IngestCommentRequest{
		CommentID:    "c9",
		CustomerName: "Hoa",
		Text:         "em lấy X999 nhé",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"X999"}, result.UnknownCodes)
	require.Len(t, result.PendingProducts, 1)
	assert.Equal(t, models.ProductStatusPendingSync, result.PendingProducts[0].Status)
	assert.Equal(t, "X999", result.PendingProducts[0].Name)

	require.Len(t, result.Orders, 1)
	require.NotNil(t, result.Orders[0].ProductName)
	assert.Equal(t, "X999", *result.Orders[0].ProductName)
	assert.True(t, result.Orders[0].UnitPrice.IsZero())

	skeleton, err := f.products.GetProductByCode(testTenant, "X999")
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusPendingSync, skeleton.Status)
}

func TestIngestCommentWithoutCodeKeepsRow(t *testing.T) {
	f := newLiveOrderFixture(t, models.LiveSessionStatusLive, 3)

	result, err := f.svc.IngestComment(testTenant, f.session.ID, &models.IngestCommentRequest{
		CommentID:    "c2",
		CustomerName: "Mai",
		Text:         "xinh quá chị ơi",
	})
	require.NoError(t, err)

	assert.Empty(t, result.MatchedCodes)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, "", result.Orders[0].ProductCode)
	assert.Nil(t, result.Orders[0].ProductName)
	assert.Equal(t, 4, result.Orders[0].SessionIndex)
}

func TestIngestCommentRejectsEndedSession(t *testing.T) {
	f := newLiveOrderFixture(t, models.LiveSessionStatusEnded, 10)

	_, err := f.svc.IngestComment(testTenant, f.session.ID, &models.IngestCommentRequest{
		CommentID:    "c3",
		CustomerName: "Lan",
		Text:         "N0048",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeSessionNotActive, verr.Code)
}

func TestConfirmIndexAgreementConfirms(t *testing.T) {
	f := newLiveOrderFixture(t, models.LiveSessionStatusLive, 5)
	result, err := f.svc.IngestComment(testTenant, f.session.ID, &models.IngestCommentRequest{
		CommentID: "c1", CustomerName: "Lan", Text: "N0048",
	})
	require.NoError(t, err)
	orderID := result.Orders[0].ID

	order, err := f.svc.ConfirmIndex(testTenant, orderID, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, order.SessionIndex)
	assert.Equal(t, models.IndexStateConfirmed, order.IndexState)
	assert.Empty(t, f.drifts)
	assert.Empty(t, f.publisher.corrections)
	assert.Equal(t, 1, f.store.settleCalls)
}

func TestConfirmIndexDisagreementCorrects(t *testing.T) {
	f := newLiveOrderFixture(t, models.LiveSessionStatusLive, 6)
	result, err := f.svc.IngestComment(testTenant, f.session.ID, &models.IngestCommentRequest{
		CommentID: "c1", CustomerName: "Lan", Text: "N0048",
	})
	require.NoError(t, err)
	orderID := result.Orders[0].ID // predicted index 7

	order, err := f.svc.ConfirmIndex(testTenant, orderID, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, order.SessionIndex)
	assert.Equal(t, 7, order.PredictedIndex)
	assert.Equal(t, models.IndexStateCorrected, order.IndexState)

	assert.Equal(t, []int{2}, f.drifts)
	require.Len(t, f.publisher.corrections, 1)
	assert.Equal(t, 7, f.publisher.corrections[0].predicted)
	assert.Equal(t, 9, f.publisher.corrections[0].authoritative)

	session, err := f.store.GetSessionByID(testTenant, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, session.LastOrderIndex)

	// Settling again with the same index is a no-op.
	settled := f.store.settleCalls
	_, err = f.svc.ConfirmIndex(testTenant, orderID, 9)
	require.NoError(t, err)
	assert.Equal(t, settled, f.store.settleCalls)
	assert.Equal(t, []int{2}, f.drifts)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newLiveOrderFixture(t, models.LiveSessionStatusLive, 0)
	result, err := f.svc.IngestComment(testTenant, f.session.ID, &models.IngestCommentRequest{
		CommentID: "c1", CustomerName: "Lan", Text: "N0048",
	})
	require.NoError(t, err)
	orderID := result.Orders[0].ID

	order, err := f.svc.UpdateOrderStatus(testTenant, orderID, &models.UpdateLiveOrderStatusRequest{
		Status: models.LiveOrderStatusConfirmed,
		Notes:  strPtr("gọi xác nhận rồi"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.LiveOrderStatusConfirmed, order.Status)
	require.NotNil(t, order.Notes)
	assert.Equal(t, "gọi xác nhận rồi", *order.Notes)

	_, err = f.svc.UpdateOrderStatus(testTenant, orderID, &models.UpdateLiveOrderStatusRequest{
		Status: models.LiveOrderStatusShipped,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeInvalidState, verr.Code)
}

func TestResolveSession(t *testing.T) {
	f := newLiveOrderFixture(t, models.LiveSessionStatusLive, 0)

	byID, err := f.svc.ResolveSession(testTenant, f.session.ID.String())
	require.NoError(t, err)
	assert.Equal(t, f.session.ID, byID.ID)

	_, err = f.svc.ResolveSession(testTenant, uuid.New().String())
	assert.Error(t, err)

	// An unknown video id materializes a live session on the spot.
	created, err := f.svc.ResolveSession(testTenant, "fbvideo-123")
	require.NoError(t, err)
	assert.Equal(t, models.LiveSessionStatusLive, created.Status)
	require.NotNil(t, created.FacebookVideoID)
	assert.Equal(t, "fbvideo-123", *created.FacebookVideoID)

	again, err := f.svc.ResolveSession(testTenant, "fbvideo-123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
}
