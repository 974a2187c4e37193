package payment

import "time"

// StatusSnapshot is the canonical status record returned by the shop
// backend for a single payment. It is transient: one reconciliation session
// owns it and discards it when the session ends.
type StatusSnapshot struct {
	ID            uint64     `json:"id"`
	OrderID       uint64     `json:"orderId"`
	Status        string     `json:"status"`
	Amount        string     `json:"amount"`
	ResultCode    *int       `json:"resultCode,omitempty"`
	ResultMessage string     `json:"resultMessage,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}
