package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"liveshop-service/internal/models"
)

type LiveSessionsRepository struct {
	db *gorm.DB
}

func NewLiveSessionsRepository(db *gorm.DB) *LiveSessionsRepository {
	return &LiveSessionsRepository{db: db}
}

// CreateSession creates a live session
func (r *LiveSessionsRepository) CreateSession(tenantID string, session *models.LiveSession) error {
	session.TenantID = tenantID
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	return r.db.Create(session).Error
}

// GetSessionByID retrieves a session
func (r *LiveSessionsRepository) GetSessionByID(tenantID string, sessionID uuid.UUID) (*models.LiveSession, error) {
	var session models.LiveSession
	if err := r.db.Where("tenant_id = ? AND id = ?", tenantID, sessionID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// GetOrCreateSessionByVideoID finds the session for a Facebook video,
// materializing a skeleton LIVE session lazily when the first comment for an
// unknown video arrives.
func (r *LiveSessionsRepository) GetOrCreateSessionByVideoID(tenantID, videoID, name string) (*models.LiveSession, bool, error) {
	var session models.LiveSession
	err := r.db.Where("tenant_id = ? AND facebook_video_id = ?", tenantID, videoID).First(&session).Error
	if err == nil {
		return &session, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	now := time.Now()
	session = models.LiveSession{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Name:            name,
		FacebookVideoID: &videoID,
		Status:          models.LiveSessionStatusLive,
		StartedAt:       &now,
	}
	if err := r.db.Create(&session).Error; err != nil {
		return nil, false, err
	}
	return &session, true, nil
}

// GetSessions lists sessions newest first
func (r *LiveSessionsRepository) GetSessions(tenantID string, status models.LiveSessionStatus, page, limit int) ([]models.LiveSession, int64, error) {
	var sessions []models.LiveSession
	var total int64

	query := r.db.Model(&models.LiveSession{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// UpdateSessionStatus writes a validated status transition with lifecycle timestamps
func (r *LiveSessionsRepository) UpdateSessionStatus(tenantID string, sessionID uuid.UUID, status models.LiveSessionStatus) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	now := time.Now()
	switch status {
	case models.LiveSessionStatusLive:
		updates["started_at"] = now
	case models.LiveSessionStatusEnded:
		updates["ended_at"] = now
	}
	return r.db.Model(&models.LiveSession{}).
		Where("tenant_id = ? AND id = ?", tenantID, sessionID).
		Updates(updates).Error
}

// FindOrderByComment looks up an existing order row for a re-delivered
// comment. Dedupe is (session, commentID, productCode).
func (r *LiveSessionsRepository) FindOrderByComment(tenantID string, sessionID uuid.UUID, commentID, productCode string) (*models.LiveOrder, error) {
	var order models.LiveOrder
	err := r.db.Where("tenant_id = ? AND session_id = ? AND comment_id = ? AND product_code = ?",
		tenantID, sessionID, commentID, productCode).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// InsertLiveOrder writes one provisional order row and advances the session's
// counters. The session index was predicted by the caller; no locking is
// taken, disagreements with the authoritative index are reconciled later.
func (r *LiveSessionsRepository) InsertLiveOrder(tenantID string, order *models.LiveOrder) error {
	order.TenantID = tenantID
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return tx.Model(&models.LiveSession{}).
			Where("tenant_id = ? AND id = ?", tenantID, order.SessionID).
			Updates(map[string]interface{}{
				"last_order_index": gorm.Expr("GREATEST(last_order_index, ?)", order.SessionIndex),
				"order_count":      gorm.Expr("order_count + 1"),
				"updated_at":       time.Now(),
			}).Error
	})
}

// GetOrderByID retrieves a live order
func (r *LiveSessionsRepository) GetOrderByID(tenantID string, orderID uuid.UUID) (*models.LiveOrder, error) {
	var order models.LiveOrder
	if err := r.db.Where("tenant_id = ? AND id = ?", tenantID, orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// SettleOrderIndex writes the authoritative session index and the resulting
// index state, updating the session's high-water mark when it moved forward.
func (r *LiveSessionsRepository) SettleOrderIndex(tenantID string, orderID uuid.UUID, index int, state models.LiveOrderIndexState) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var order models.LiveOrder
		if err := tx.Where("tenant_id = ? AND id = ?", tenantID, orderID).First(&order).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.LiveOrder{}).
			Where("tenant_id = ? AND id = ?", tenantID, orderID).
			Updates(map[string]interface{}{
				"session_index": index,
				"index_state":   state,
				"updated_at":    time.Now(),
			}).Error; err != nil {
			return err
		}
		return tx.Model(&models.LiveSession{}).
			Where("tenant_id = ? AND id = ?", tenantID, order.SessionID).
			Update("last_order_index", gorm.Expr("GREATEST(last_order_index, ?)", index)).Error
	})
}

// UpdateOrderStatus writes a validated order status transition
func (r *LiveSessionsRepository) UpdateOrderStatus(tenantID string, orderID uuid.UUID, status models.LiveOrderStatus, notes *string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	return r.db.Model(&models.LiveOrder{}).
		Where("tenant_id = ? AND id = ?", tenantID, orderID).
		Updates(updates).Error
}

// GetSessionOrders lists a session's orders by session index
func (r *LiveSessionsRepository) GetSessionOrders(tenantID string, sessionID uuid.UUID, page, limit int) ([]models.LiveOrder, int64, error) {
	var orders []models.LiveOrder
	var total int64

	query := r.db.Model(&models.LiveOrder{}).
		Where("tenant_id = ? AND session_id = ?", tenantID, sessionID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("session_index ASC, created_at ASC").
		Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// GetSessionStats aggregates per-session order counts and revenue
func (r *LiveSessionsRepository) GetSessionStats(tenantID string, sessionID uuid.UUID) (*models.LiveSessionStats, error) {
	session, err := r.GetSessionByID(tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	stats := &models.LiveSessionStats{
		SessionID:      sessionID.String(),
		LastOrderIndex: session.LastOrderIndex,
	}

	type row struct {
		IndexState models.LiveOrderIndexState
		Count      int
	}
	var rows []row
	if err := r.db.Model(&models.LiveOrder{}).
		Select("index_state, COUNT(*) as count").
		Where("tenant_id = ? AND session_id = ?", tenantID, sessionID).
		Group("index_state").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rw := range rows {
		stats.OrderCount += rw.Count
		switch rw.IndexState {
		case models.IndexStateProvisional:
			stats.ProvisionalCount = rw.Count
		case models.IndexStateConfirmed:
			stats.ConfirmedCount = rw.Count
		case models.IndexStateCorrected:
			stats.CorrectedCount = rw.Count
		}
	}

	var unmatched int64
	if err := r.db.Model(&models.LiveOrder{}).
		Where("tenant_id = ? AND session_id = ? AND product_code = ''", tenantID, sessionID).
		Count(&unmatched).Error; err != nil {
		return nil, err
	}
	stats.UnmatchedCount = int(unmatched)

	var revenue decimal.NullDecimal
	if err := r.db.Model(&models.LiveOrder{}).
		Select("SUM(total_amount)").
		Where("tenant_id = ? AND session_id = ? AND status <> ?", tenantID, sessionID, models.LiveOrderStatusCancelled).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue.Valid {
		stats.Revenue = revenue.Decimal
	}

	return stats, nil
}
