package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"liveshop-service/internal/livechat"
	"liveshop-service/internal/models"
)

// LiveOrderStore is the slice of the live sessions repository the pipeline
// needs.
type LiveOrderStore interface {
	GetSessionByID(tenantID string, sessionID uuid.UUID) (*models.LiveSession, error)
	GetOrCreateSessionByVideoID(tenantID, videoID, name string) (*models.LiveSession, bool, error)
	FindOrderByComment(tenantID string, sessionID uuid.UUID, commentID, productCode string) (*models.LiveOrder, error)
	InsertLiveOrder(tenantID string, order *models.LiveOrder) error
	GetOrderByID(tenantID string, orderID uuid.UUID) (*models.LiveOrder, error)
	SettleOrderIndex(tenantID string, orderID uuid.UUID, index int, state models.LiveOrderIndexState) error
	UpdateOrderStatus(tenantID string, orderID uuid.UUID, status models.LiveOrderStatus, notes *string) error
}

// ProductResolver resolves and lazily materializes catalog rows for codes
// extracted from comments.
type ProductResolver interface {
	GetProductByCode(tenantID, code string) (*models.Product, error)
	CreateProduct(tenantID string, product *models.Product) error
}

// LiveOrderPublisher emits the pipeline's events
type LiveOrderPublisher interface {
	PublishLiveOrderCreated(tenantID string, order *models.LiveOrder)
	PublishIndexCorrected(tenantID string, order *models.LiveOrder, predicted, authoritative int)
}

// LiveOrderService runs the comment-to-order pipeline: extract codes, resolve
// products, insert orders with predicted session indexes, and settle indexes
// when the authoritative value arrives.
type LiveOrderService interface {
	ResolveSession(tenantID, idOrVideoID string) (*models.LiveSession, error)
	IngestComment(tenantID string, sessionID uuid.UUID, req *models.IngestCommentRequest) (*models.IngestCommentResult, error)
	ConfirmIndex(tenantID string, orderID uuid.UUID, authoritativeIndex int) (*models.LiveOrder, error)
	UpdateOrderStatus(tenantID string, orderID uuid.UUID, req *models.UpdateLiveOrderStatusRequest) (*models.LiveOrder, error)
}

type liveOrderService struct {
	orders       LiveOrderStore
	products     ProductResolver
	publisher    LiveOrderPublisher
	onCorrection func(drift int)
	logger       *logrus.Entry
}

// NewLiveOrderService creates a new live order service. onCorrection is
// invoked once per settled index correction, with the drift; the caller wires
// it to the corrections counter.
func NewLiveOrderService(orders LiveOrderStore, products ProductResolver, publisher LiveOrderPublisher, onCorrection func(drift int), logger *logrus.Logger) LiveOrderService {
	return &liveOrderService{
		orders:       orders,
		products:     products,
		publisher:    publisher,
		onCorrection: onCorrection,
		logger:       logger.WithField("component", "live_order_service"),
	}
}

// ResolveSession accepts either a session UUID or a Facebook video id. An
// unknown video id materializes a LIVE session on the spot, so ingestion
// never waits for a session to be registered first.
func (s *liveOrderService) ResolveSession(tenantID, idOrVideoID string) (*models.LiveSession, error) {
	if sessionID, err := uuid.Parse(idOrVideoID); err == nil {
		return s.orders.GetSessionByID(tenantID, sessionID)
	}
	session, created, err := s.orders.GetOrCreateSessionByVideoID(tenantID, idOrVideoID, "Live "+idOrVideoID)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"video_id":  idOrVideoID,
		}).Info("Materialized live session for unknown video")
	}
	return session, nil
}

func (s *liveOrderService) IngestComment(tenantID string, sessionID uuid.UUID, req *models.IngestCommentRequest) (*models.IngestCommentResult, error) {
	session, err := s.orders.GetSessionByID(tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.LiveSessionStatusEnded {
		return nil, newValidationError(CodeSessionNotActive, "session has ended", "sessionId")
	}

	quantity := 1
	if req.Quantity != nil && *req.Quantity > 0 {
		quantity = *req.Quantity
	}

	extracted := livechat.ExtractProductCodes(req.Text)
	result := &models.IngestCommentResult{MatchedCodes: extracted}

	// A comment without any code still produces one unmatched row so the
	// host can follow up manually.
	orderCodes := extracted
	if len(orderCodes) == 0 {
		orderCodes = []string{""}
	}

	lastKnown := session.LastOrderIndex
	for _, code := range orderCodes {
		existing, err := s.orders.FindOrderByComment(tenantID, sessionID, req.CommentID, code)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if existing != nil {
			result.Duplicate = true
			result.Orders = append(result.Orders, *existing)
			continue
		}

		order := &models.LiveOrder{
			SessionID:          sessionID,
			CommentID:          req.CommentID,
			CustomerName:       req.CustomerName,
			CustomerFacebookID: req.CustomerFacebookID,
			CommentText:        req.Text,
			ProductCode:        code,
			Quantity:           quantity,
			Status:             models.LiveOrderStatusPending,
			IndexState:         models.IndexStateProvisional,
		}
		if code != "" {
			product, err := s.resolveProduct(tenantID, code, result)
			if err != nil {
				return nil, err
			}
			order.ProductName = &product.Name
			order.UnitPrice = product.SellingPrice
			order.TotalAmount = product.SellingPrice.Mul(decimal.NewFromInt(int64(quantity)))
		}

		predicted := livechat.PredictIndex(lastKnown)
		order.SessionIndex = predicted
		order.PredictedIndex = predicted
		if err := s.orders.InsertLiveOrder(tenantID, order); err != nil {
			return nil, fmt.Errorf("failed to insert live order: %w", err)
		}
		lastKnown = predicted

		if s.publisher != nil {
			s.publisher.PublishLiveOrderCreated(tenantID, order)
		}
		result.Orders = append(result.Orders, *order)
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"session_id": sessionID,
		"comment_id": req.CommentID,
		"codes":      extracted,
		"orders":     len(result.Orders),
		"duplicate":  result.Duplicate,
	}).Info("Comment ingested")
	return result, nil
}

// resolveProduct looks up the catalog row for an extracted code. Unknown
// codes create a skeleton row flagged PENDING_SYNC so the order can reference
// it immediately; the catalog entry is completed later.
func (s *liveOrderService) resolveProduct(tenantID, code string, result *models.IngestCommentResult) (*models.Product, error) {
	product, err := s.products.GetProductByCode(tenantID, code)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	skeleton := &models.Product{
		Code:   code,
		Name:   code,
		Status: models.ProductStatusPendingSync,
	}
	if err := s.products.CreateProduct(tenantID, skeleton); err != nil {
		return nil, fmt.Errorf("failed to materialize product %s: %w", code, err)
	}
	result.UnknownCodes = append(result.UnknownCodes, code)
	result.PendingProducts = append(result.PendingProducts, *skeleton)
	s.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"code":      code,
	}).Warn("Materialized pending product for unknown code")
	return skeleton, nil
}

// ConfirmIndex settles one order's session index against the authoritative
// value. Agreement confirms the prediction; disagreement overwrites it,
// records a correction and emits liveorder.index_corrected. Idempotent: an
// already settled order with the same index is returned unchanged.
func (s *liveOrderService) ConfirmIndex(tenantID string, orderID uuid.UUID, authoritativeIndex int) (*models.LiveOrder, error) {
	order, err := s.orders.GetOrderByID(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.IndexState != models.IndexStateProvisional && order.SessionIndex == authoritativeIndex {
		return order, nil
	}

	correction, corrected := livechat.Reconcile(order.SessionIndex, authoritativeIndex)
	if !corrected {
		if err := s.orders.SettleOrderIndex(tenantID, orderID, order.SessionIndex, models.IndexStateConfirmed); err != nil {
			return nil, err
		}
		order.IndexState = models.IndexStateConfirmed
		return order, nil
	}

	if err := s.orders.SettleOrderIndex(tenantID, orderID, authoritativeIndex, models.IndexStateCorrected); err != nil {
		return nil, err
	}
	predicted := order.SessionIndex
	order.SessionIndex = authoritativeIndex
	order.IndexState = models.IndexStateCorrected

	if s.publisher != nil {
		s.publisher.PublishIndexCorrected(tenantID, order, predicted, authoritativeIndex)
	}
	if s.onCorrection != nil {
		s.onCorrection(correction.Drift)
	}
	s.logger.WithFields(logrus.Fields{
		"tenant_id":     tenantID,
		"order_id":      orderID,
		"predicted":     correction.Predicted,
		"authoritative": correction.Authoritative,
		"drift":         correction.Drift,
	}).Warn("Live order index corrected")
	return order, nil
}

func (s *liveOrderService) UpdateOrderStatus(tenantID string, orderID uuid.UUID, req *models.UpdateLiveOrderStatusRequest) (*models.LiveOrder, error) {
	order, err := s.orders.GetOrderByID(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateLiveOrderStatusTransition(order.Status, req.Status); err != nil {
		return nil, newValidationError(CodeInvalidState, err.Error(), "status")
	}
	if err := s.orders.UpdateOrderStatus(tenantID, orderID, req.Status, req.Notes); err != nil {
		return nil, err
	}
	order.Status = req.Status
	if req.Notes != nil {
		order.Notes = req.Notes
	}
	return order, nil
}
