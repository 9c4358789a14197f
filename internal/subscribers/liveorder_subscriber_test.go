package subscribers

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"liveshop-service/internal/models"
)

type confirmCall struct {
	tenantID string
	orderID  uuid.UUID
	index    int
}

// fakeLiveOrders satisfies services.LiveOrderService for the one method the
// subscriber exercises.
type fakeLiveOrders struct {
	calls []confirmCall
	order *models.LiveOrder
	err   error
}

func (f *fakeLiveOrders) ResolveSession(tenantID, idOrVideoID string) (*models.LiveSession, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLiveOrders) IngestComment(tenantID string, sessionID uuid.UUID, req *models.IngestCommentRequest) (*models.IngestCommentResult, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLiveOrders) ConfirmIndex(tenantID string, orderID uuid.UUID, authoritativeIndex int) (*models.LiveOrder, error) {
	f.calls = append(f.calls, confirmCall{tenantID: tenantID, orderID: orderID, index: authoritativeIndex})
	return f.order, f.err
}

func (f *fakeLiveOrders) UpdateOrderStatus(tenantID string, orderID uuid.UUID, req *models.UpdateLiveOrderStatusRequest) (*models.LiveOrder, error) {
	return nil, gorm.ErrRecordNotFound
}

// fakeMsg carries a payload; handleConfirmed never touches the embedded
// interface's other methods.
type fakeMsg struct {
	jetstream.Msg
	data []byte
}

func (m *fakeMsg) Data() []byte { return m.data }

func newSubscriberForTest(liveOrders *fakeLiveOrders) *LiveOrderSubscriber {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &LiveOrderSubscriber{
		liveOrders:   liveOrders,
		consumerName: "liveshop-index-settler-test",
		logger:       logger.WithField("component", "liveorder_subscriber"),
	}
}

func confirmedMsg(t *testing.T, event ConfirmedEvent) *fakeMsg {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return &fakeMsg{data: data}
}

func TestHandleConfirmedSettlesOrder(t *testing.T) {
	orderID := uuid.New()
	liveOrders := &fakeLiveOrders{
		order: &models.LiveOrder{ID: orderID, SessionIndex: 9, IndexState: models.IndexStateCorrected},
	}
	s := newSubscriberForTest(liveOrders)

	err := s.handleConfirmed(confirmedMsg(t, ConfirmedEvent{
		EventID:            "evt-1",
		TenantID:           "tenant-1",
		Timestamp:          time.Now(),
		OrderID:            orderID.String(),
		AuthoritativeIndex: 9,
	}))
	require.NoError(t, err)
	require.Len(t, liveOrders.calls, 1)
	assert.Equal(t, "tenant-1", liveOrders.calls[0].tenantID)
	assert.Equal(t, orderID, liveOrders.calls[0].orderID)
	assert.Equal(t, 9, liveOrders.calls[0].index)
}

func TestHandleConfirmedDropsBadEvents(t *testing.T) {
	liveOrders := &fakeLiveOrders{}
	s := newSubscriberForTest(liveOrders)

	// Malformed payloads and incomplete events are dropped, not redelivered.
	assert.NoError(t, s.handleConfirmed(&fakeMsg{data: []byte("{not json")}))
	assert.NoError(t, s.handleConfirmed(confirmedMsg(t, ConfirmedEvent{
		TenantID: "tenant-1", OrderID: uuid.NewString(), AuthoritativeIndex: 0,
	})))
	assert.NoError(t, s.handleConfirmed(confirmedMsg(t, ConfirmedEvent{
		TenantID: "tenant-1", OrderID: "not-a-uuid", AuthoritativeIndex: 3,
	})))
	assert.Empty(t, liveOrders.calls)
}

func TestHandleConfirmedAcksUnknownOrder(t *testing.T) {
	liveOrders := &fakeLiveOrders{err: gorm.ErrRecordNotFound}
	s := newSubscriberForTest(liveOrders)

	err := s.handleConfirmed(confirmedMsg(t, ConfirmedEvent{
		TenantID:           "tenant-1",
		OrderID:            uuid.NewString(),
		AuthoritativeIndex: 4,
	}))
	assert.NoError(t, err)
	assert.Len(t, liveOrders.calls, 1)
}
