package payment

import "strings"

// Outcome is the closed classification of a raw backend payment status.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomePending   Outcome = "pending"
	OutcomeFailed    Outcome = "failed"
)

// ClassifyStatus maps a raw status string from the shop backend onto a
// canonical outcome. The mapping is case-insensitive and total: unknown
// terminal tokens classify as failed, while an empty status or a token the
// backend uses for in-flight payments classifies as pending.
func ClassifyStatus(raw string) Outcome {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "succeeded", "success", "paid", "done", "completed":
		return OutcomeSucceeded
	case "", "pending", "in_progress", "ready", "waiting_for_deposit":
		return OutcomePending
	default:
		return OutcomeFailed
	}
}
