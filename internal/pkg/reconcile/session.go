package reconcile

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/mhsong/shopfront/internal/pkg/intent"
	"github.com/mhsong/shopfront/internal/pkg/payment"
)

const (
	// genericNetworkMessage is surfaced when the pull phase failed without
	// its own message.
	genericNetworkMessage = "Payment status could not be retrieved. Please check your order history."
	// unconfirmedMessage is surfaced when the backend returned a record
	// whose status is not a success synonym and carries no message of its own.
	unconfirmedMessage = "Payment not confirmed."
)

// Option configures a Session.
type Option func(*Session)

// WithRecorder attaches a best-effort audit recorder for terminal states.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// Session runs the post-redirect reconciliation flow exactly once.
//
// One Session belongs to one mounted consumer (one handled redirect
// request). The started flag makes duplicate Run calls within that lifetime
// no-ops; a remounted consumer builds a fresh Session and may run again.
// The alive flag is the cooperative cancellation token: after Close, any
// in-flight work completes but no state transition is applied.
type Session struct {
	id       string
	client   payment.API
	store    intent.Store
	recorder Recorder

	started atomic.Bool
	alive   atomic.Bool

	mu    sync.Mutex
	state State
}

// NewSession creates a reconciliation session over the backend client and
// the caller's intent store.
func NewSession(client payment.API, store intent.Store, opts ...Option) *Session {
	s := &Session{
		id:     uuid.New().String(),
		client: client,
		store:  store,
		state:  State{Phase: PhaseIdle},
	}
	s.alive.Store(true)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session correlation ID used in logs and audit rows.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears the session down. Any state transition attempted afterwards
// is structurally skipped, so outstanding network calls cannot mutate state
// nobody observes. Close is idempotent.
func (s *Session) Close() {
	s.alive.Store(false)
}

// Run resolves the payment to reconcile, performs the push and pull phases
// in order, and settles the state machine. queryPaymentID is the identifier
// from the inbound redirect (0 when absent); the persisted intent is the
// fallback. The intent slot is cleared on every terminal path, so a later
// unrelated visit never resumes this flow.
//
// Run never returns an error: every failure degrades to PhaseUnconfirmed
// with a message.
func (s *Session) Run(ctx context.Context, queryPaymentID uint64) State {
	if !s.started.CompareAndSwap(false, true) {
		// Already activated for this mount lifetime.
		return s.State()
	}

	paymentID := queryPaymentID
	if paymentID == 0 {
		if rec := s.store.Load(); rec != nil {
			paymentID = rec.PaymentID
		}
	}
	if paymentID == 0 {
		// Nothing to reconcile; drop any stale leftover.
		s.store.Clear()
		return s.State()
	}

	defer s.store.Clear()

	s.setState(State{Phase: PhaseSyncing})

	// Push phase: ask the backend to re-query the gateway. Best effort --
	// the backend may already hold the result from an out-of-band webhook,
	// so a failure here must not abort the flow.
	var pushErr error
	if err := s.client.Sync(ctx, paymentID); err != nil {
		pushErr = err
		log.Warnf("[Reconcile] Session %s: sync of payment %d failed: %v", s.id, paymentID, err)
	}

	// Pull phase: the canonical read. A failure here is terminal for the
	// session; retrying means the buyer reloads the page, which starts a
	// brand-new session against the same payment ID.
	snap, err := s.client.Get(ctx, paymentID)
	if err != nil {
		log.Errorf("[Reconcile] Session %s: fetch of payment %d failed: %v", s.id, paymentID, err)
		msg := err.Error()
		if msg == "" {
			msg = genericNetworkMessage
		}
		if pushErr != nil {
			msg = fmt.Sprintf("%s (sync also failed: %v)", msg, pushErr)
		}
		s.settle(ctx, paymentID, State{Phase: PhaseUnconfirmed, Message: msg})
		return s.State()
	}

	if payment.ClassifyStatus(snap.Status) == payment.OutcomeSucceeded {
		log.Infof("[Reconcile] Session %s: payment %d confirmed (order %d)", s.id, paymentID, snap.OrderID)
		s.settle(ctx, paymentID, State{Phase: PhaseConfirmed, Snapshot: snap})
		return s.State()
	}

	msg := snap.ResultMessage
	if msg == "" {
		msg = unconfirmedMessage
	}
	log.Infof("[Reconcile] Session %s: payment %d not confirmed (status=%s)", s.id, paymentID, snap.Status)
	s.settle(ctx, paymentID, State{Phase: PhaseUnconfirmed, Snapshot: snap, Message: msg})
	return s.State()
}

// settle applies a terminal state and records it for the audit trail.
func (s *Session) settle(ctx context.Context, paymentID uint64, st State) {
	if !s.setState(st) {
		return
	}
	s.record(ctx, paymentID, st)
}

// setState applies a transition unless the session was closed. It reports
// whether the transition took effect.
func (s *Session) setState(st State) bool {
	if !s.alive.Load() {
		log.Debugf("[Reconcile] Session %s: dropping %s transition after teardown", s.id, st.Phase)
		return false
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return true
}

func (s *Session) record(ctx context.Context, paymentID uint64, st State) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordAttempt(ctx, attemptFromState(s.id, paymentID, st)); err != nil {
		log.Warnf("[Reconcile] Session %s: failed to record attempt: %v", s.id, err)
	}
}
