package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhsong/shopfront/internal/pkg/env"
	"github.com/mhsong/shopfront/internal/pkg/intent"
	"github.com/mhsong/shopfront/internal/pkg/payment"
)

type stubAPI struct {
	mu        sync.Mutex
	syncCalls int
	getCalls  int
	syncErr   error
	getErr    error
	snapshot  *payment.StatusSnapshot
}

func (s *stubAPI) Sync(ctx context.Context, paymentID uint64) error {
	s.mu.Lock()
	s.syncCalls++
	s.mu.Unlock()
	return s.syncErr
}

func (s *stubAPI) Get(ctx context.Context, paymentID uint64) (*payment.StatusSnapshot, error) {
	s.mu.Lock()
	s.getCalls++
	s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.snapshot, nil
}

func newTestApp(t *testing.T, api *stubAPI, store intent.Store) *fiber.App {
	t.Helper()

	InitializeCheckoutControllerWithDeps(CheckoutDeps{
		Client:   api,
		NewStore: func(scope string) intent.Store { return store },
	})

	app := fiber.New()
	app.Get("/checkout/pay", HandleCheckoutPay)
	app.Get("/payment/return", HandlePaymentReturn)
	app.Get("/api/v1/payment/return", HandleAPIPaymentReturn)
	return app
}

func TestHandlePaymentReturnConfirmed(t *testing.T) {
	api := &stubAPI{snapshot: &payment.StatusSnapshot{
		ID:      7,
		OrderID: 21,
		Status:  "SUCCEEDED",
		Amount:  "150000",
	}}
	store := intent.NewMemoryStore()
	app := newTestApp(t, api, store)

	resp, err := app.Test(httptest.NewRequest("GET", "/payment/return?paymentId=7", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/orders/21", resp.Header.Get("Location"))
	assert.Nil(t, store.Load())
}

func TestHandlePaymentReturnUnconfirmed(t *testing.T) {
	api := &stubAPI{snapshot: &payment.StatusSnapshot{
		ID:            7,
		OrderID:       21,
		Status:        "FAILED",
		ResultMessage: "Insufficient funds",
	}}
	store := intent.NewMemoryStore()
	store.Save(intent.Record{PaymentID: 7})
	app := newTestApp(t, api, store)

	// Query parameter lost; the persisted intent recovers the flow
	resp, err := app.Test(httptest.NewRequest("GET", "/payment/return", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/checkout", resp.Header.Get("Location"))
	assert.Nil(t, store.Load())
}

func TestHandlePaymentReturnNothingToReconcile(t *testing.T) {
	api := &stubAPI{}
	app := newTestApp(t, api, intent.NewMemoryStore())

	resp, err := app.Test(httptest.NewRequest("GET", "/payment/return", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Equal(t, 0, api.syncCalls)
	assert.Equal(t, 0, api.getCalls)
}

func TestHandlePaymentReturnMalformedIDFallsBack(t *testing.T) {
	api := &stubAPI{snapshot: &payment.StatusSnapshot{
		ID:      99,
		OrderID: 5,
		Status:  "SUCCEEDED",
		Amount:  "9900",
	}}
	store := intent.NewMemoryStore()
	store.Save(intent.Record{PaymentID: 99})
	app := newTestApp(t, api, store)

	resp, err := app.Test(httptest.NewRequest("GET", "/payment/return?paymentId=abc", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "/orders/5", resp.Header.Get("Location"))
}

func TestHandleAPIPaymentReturn(t *testing.T) {
	api := &stubAPI{snapshot: &payment.StatusSnapshot{
		ID:      7,
		OrderID: 21,
		Status:  "SUCCEEDED",
		Amount:  "150000",
	}}
	app := newTestApp(t, api, intent.NewMemoryStore())

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/payment/return?paymentId=7", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out struct {
		Phase    string                  `json:"phase"`
		OrderID  uint64                  `json:"orderId"`
		Snapshot *payment.StatusSnapshot `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "confirmed", out.Phase)
	assert.Equal(t, uint64(21), out.OrderID)
	require.NotNil(t, out.Snapshot)
	assert.Equal(t, "150000", out.Snapshot.Amount)
}

func TestHandleCheckoutPay(t *testing.T) {
	if env.Env == nil {
		env.Env = map[string]string{}
	}
	env.Env["PAY_GATEWAY_URL"] = "https://gateway.example.com/pay"

	store := intent.NewMemoryStore()
	app := newTestApp(t, &stubAPI{}, store)

	resp, err := app.Test(httptest.NewRequest("GET", "/checkout/pay?paymentId=7&orderId=21", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	loc := resp.Header.Get("Location")
	assert.Contains(t, loc, "https://gateway.example.com/pay")
	assert.Contains(t, loc, "paymentId=7")
	assert.Contains(t, loc, "orderId=21")

	rec := store.Load()
	require.NotNil(t, rec)
	assert.Equal(t, uint64(7), rec.PaymentID)
}

func TestHandleCheckoutPayRequiresPaymentID(t *testing.T) {
	store := intent.NewMemoryStore()
	app := newTestApp(t, &stubAPI{}, store)

	resp, err := app.Test(httptest.NewRequest("GET", "/checkout/pay", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/checkout", resp.Header.Get("Location"))
	assert.Nil(t, store.Load())
}
