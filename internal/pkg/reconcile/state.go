package reconcile

import "github.com/mhsong/shopfront/internal/pkg/payment"

// Phase is the position of a reconciliation session in its state machine.
type Phase string

const (
	// PhaseIdle is the initial phase, and the final one when there was
	// nothing to reconcile.
	PhaseIdle Phase = "idle"
	// PhaseSyncing covers the push and pull calls; entered at most once.
	PhaseSyncing Phase = "syncing"
	// PhaseConfirmed means the backend reported a success status.
	PhaseConfirmed Phase = "confirmed"
	// PhaseUnconfirmed means the payment could not be confirmed, with an
	// explanatory message. The buyer is never trapped here.
	PhaseUnconfirmed Phase = "unconfirmed"
)

// State is the externally visible result of one reconciliation session.
// Snapshot is set when the pull phase returned a record; Message is set on
// unconfirmed outcomes.
type State struct {
	Phase    Phase                   `json:"phase"`
	Snapshot *payment.StatusSnapshot `json:"snapshot,omitempty"`
	Message  string                  `json:"message,omitempty"`
}

// Terminal reports whether the session will issue no further remote calls.
func (st State) Terminal() bool {
	return st.Phase == PhaseConfirmed || st.Phase == PhaseUnconfirmed
}
