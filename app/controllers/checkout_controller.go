package controllers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/sujit-baniya/flash"

	"github.com/mhsong/shopfront/internal/pkg/constants"
	"github.com/mhsong/shopfront/internal/pkg/database"
	"github.com/mhsong/shopfront/internal/pkg/env"
	"github.com/mhsong/shopfront/internal/pkg/intent"
	"github.com/mhsong/shopfront/internal/pkg/metrics/counter"
	"github.com/mhsong/shopfront/internal/pkg/payment"
	"github.com/mhsong/shopfront/internal/pkg/reconcile"
	"github.com/mhsong/shopfront/internal/pkg/session"
)

const reconcileTimeout = 20 * time.Second

// CheckoutDeps are the collaborators the checkout controller runs against.
// The router wires the real backend client, the Redis intent store and the
// GORM recorder; tests substitute fakes.
type CheckoutDeps struct {
	Client       payment.API
	NewStore     func(scope string) intent.Store
	Recorder     reconcile.Recorder
	CountOutcome func(outcome string) error
}

var checkoutDeps CheckoutDeps

// InitializeCheckoutController wires the production dependencies.
func InitializeCheckoutController() {
	deps := CheckoutDeps{
		Client:       payment.NewClientFromEnv(),
		NewStore:     intent.NewRedisStore,
		CountOutcome: counter.AddReconcileOutcome,
	}
	if db := database.GetDB(); db != nil {
		deps.Recorder = reconcile.NewGormRecorder(db)
	}
	InitializeCheckoutControllerWithDeps(deps)
}

// InitializeCheckoutControllerWithDeps injects explicit dependencies.
func InitializeCheckoutControllerWithDeps(deps CheckoutDeps) {
	checkoutDeps = deps
}

type checkoutPayRequest struct {
	PaymentID uint64 `query:"paymentId" validate:"required,gt=0"`
	OrderID   uint64 `query:"orderId" validate:"omitempty,gt=0"`
}

// HandleCheckoutPay records the pending payment intent and hands the buyer
// off to the payment gateway. The intent slot is what lets the return flow
// recover the payment ID after a reload that lost the query string.
func HandleCheckoutPay(c *fiber.Ctx) error {
	var req checkoutPayRequest
	if err := c.QueryParser(&req); err != nil {
		return flashErrorRedirect(c, "Invalid checkout request.", constants.CheckoutRoute)
	}
	if err := validator.New().Struct(&req); err != nil {
		return flashErrorRedirect(c, "A payment reference is required to start the payment.", constants.CheckoutRoute)
	}

	gatewayURL := strings.TrimSpace(env.GetEnv("PAY_GATEWAY_URL", ""))
	if gatewayURL == "" {
		log.Error("[Checkout] PAY_GATEWAY_URL is not configured")
		return flashErrorRedirect(c, "Payment is temporarily unavailable.", constants.CheckoutRoute)
	}

	store := checkoutDeps.NewStore(intentScope(c))
	store.Save(intent.Record{PaymentID: req.PaymentID})

	u, err := url.Parse(gatewayURL)
	if err != nil {
		log.Errorf("[Checkout] Invalid PAY_GATEWAY_URL: %v", err)
		return flashErrorRedirect(c, "Payment is temporarily unavailable.", constants.CheckoutRoute)
	}
	q := u.Query()
	q.Set("paymentId", strconv.FormatUint(req.PaymentID, 10))
	if req.OrderID > 0 {
		q.Set("orderId", strconv.FormatUint(req.OrderID, 10))
	}
	u.RawQuery = q.Encode()

	return c.Redirect(u.String(), fiber.StatusSeeOther)
}

// HandlePaymentReturn is the gateway redirect landing. It reconciles the
// payment outcome against the shop backend, then sends the buyer on with a
// flash message. A reconciliation failure never blocks navigation.
func HandlePaymentReturn(c *fiber.Ctx) error {
	st := runReconciliation(c)

	switch st.Phase {
	case reconcile.PhaseConfirmed:
		fm := fiber.Map{
			"type":    "success",
			"message": fmt.Sprintf("Payment confirmed. Amount: %s", st.Snapshot.Amount),
		}
		return flash.WithSuccess(c, fm).Redirect(
			fmt.Sprintf("%s/%d", constants.OrdersRoutePrefix, st.Snapshot.OrderID), fiber.StatusSeeOther)
	case reconcile.PhaseUnconfirmed:
		msg := st.Message
		if msg == "" {
			msg = "Payment not confirmed."
		}
		return flashErrorRedirect(c, msg, constants.CheckoutRoute)
	default:
		// Nothing to reconcile on this visit.
		return c.Redirect(constants.HomeRoute, fiber.StatusSeeOther)
	}
}

// HandleAPIPaymentReturn exposes the settled reconciliation state as JSON
// for the presentation layer.
func HandleAPIPaymentReturn(c *fiber.Ctx) error {
	st := runReconciliation(c)

	resp := fiber.Map{
		"phase": st.Phase,
	}
	if st.Message != "" {
		resp["message"] = st.Message
	}
	if st.Snapshot != nil {
		resp["snapshot"] = st.Snapshot
		resp["orderId"] = st.Snapshot.OrderID
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// HandleReconcileMetrics reports the accumulated reconciliation outcome
// counts for operations dashboards.
func HandleReconcileMetrics(c *fiber.Ctx) error {
	counts, err := counter.GetReconcileOutcomes()
	if err != nil {
		log.Errorf("[Checkout] Failed to read reconciliation counters: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "metrics_unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"outcomes": counts})
}

// runReconciliation builds a fresh session for this request and runs the
// two-phase flow. Each handled redirect is one mount lifetime: the session
// is closed when the handler returns, so nothing mutates state afterwards.
func runReconciliation(c *fiber.Ctx) reconcile.State {
	queryID := queryPaymentID(c)

	store := checkoutDeps.NewStore(intentScope(c))
	opts := []reconcile.Option{}
	if checkoutDeps.Recorder != nil {
		opts = append(opts, reconcile.WithRecorder(checkoutDeps.Recorder))
	}
	sess := reconcile.NewSession(checkoutDeps.Client, store, opts...)
	defer sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	st := sess.Run(ctx, queryID)
	if st.Terminal() && checkoutDeps.CountOutcome != nil {
		if err := checkoutDeps.CountOutcome(string(st.Phase)); err != nil {
			log.Debugf("[Checkout] Failed to count outcome %s: %v", st.Phase, err)
		}
	}
	return st
}

// queryPaymentID reads the optional paymentId query parameter. Anything
// malformed counts as absent so the persisted intent can take over.
func queryPaymentID(c *fiber.Ctx) uint64 {
	raw := strings.TrimSpace(c.Query("paymentId"))
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		log.Warnf("[Checkout] Ignoring malformed paymentId %q: %v", raw, err)
		return 0
	}
	return id
}

// intentScope resolves the per-browser key for the intent slot. Without a
// session (e.g. cookies disabled) an ephemeral scope still lets the flow
// run off the query parameter.
func intentScope(c *fiber.Ctx) string {
	scope, err := session.ScopeID(c)
	if err != nil || scope == "" {
		log.Debugf("[Checkout] No session scope, using ephemeral intent scope: %v", err)
		return "ephemeral:" + uuid.New().String()
	}
	return scope
}

func flashErrorRedirect(c *fiber.Ctx, message, target string) error {
	fm := fiber.Map{
		"type":    "error",
		"message": message,
	}
	return flash.WithError(c, fm).Redirect(target, fiber.StatusSeeOther)
}
