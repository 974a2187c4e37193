package reconcile

import (
	"context"

	"gorm.io/gorm"

	"github.com/mhsong/shopfront/app/models"
)

// Recorder persists settled reconciliation sessions.
type Recorder interface {
	RecordAttempt(ctx context.Context, attempt *models.PaymentReconciliation) error
}

type gormRecorder struct {
	db *gorm.DB
}

// NewGormRecorder creates a recorder backed by GORM.
func NewGormRecorder(db *gorm.DB) Recorder {
	return &gormRecorder{db: db}
}

func (r *gormRecorder) RecordAttempt(ctx context.Context, attempt *models.PaymentReconciliation) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

// attemptFromState flattens a terminal state into an audit row.
func attemptFromState(sessionID string, paymentID uint64, st State) *models.PaymentReconciliation {
	attempt := &models.PaymentReconciliation{
		SessionID:     sessionID,
		PaymentID:     paymentID,
		Outcome:       string(st.Phase),
		ResultMessage: st.Message,
	}
	if st.Snapshot != nil {
		attempt.OrderID = st.Snapshot.OrderID
		attempt.Amount = st.Snapshot.Amount
		attempt.PaidAt = st.Snapshot.PaidAt
	}
	return attempt
}
