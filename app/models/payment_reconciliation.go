package models

import "time"

// PaymentReconciliation stores one settled reconciliation session per row.
// The table is an audit trail: support can see what the buyer was shown
// after a gateway redirect, even when the backend record later changes.
type PaymentReconciliation struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	SessionID     string     `gorm:"type:varchar(36);not null;index" json:"session_id"`
	PaymentID     uint64     `gorm:"not null;index" json:"payment_id"`
	OrderID       uint64     `gorm:"index" json:"order_id"`
	Outcome       string     `gorm:"type:varchar(20);not null;index" json:"outcome"`
	Amount        string     `gorm:"type:varchar(32)" json:"amount"`
	ResultMessage string     `gorm:"type:text" json:"result_message"`
	PaidAt        *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
