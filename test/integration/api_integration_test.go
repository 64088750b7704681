package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"mero-kart/internal/auth"
	"mero-kart/internal/config"
	"mero-kart/internal/correlator"
	"mero-kart/internal/handler"
	"mero-kart/internal/model"
	"mero-kart/internal/payment"
	"mero-kart/internal/repository"
	"mero-kart/internal/router"
	"mero-kart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "integration-test-key"

// newTestServer wires the full HTTP stack against the test database, with
// the gateway verification endpoint pointed at the given URL.
func newTestServer(t *testing.T, db *TestDB, verifyURL string) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()

	orderRepo := repository.NewOrderRepository(db.Pool, logger)
	userRepo := repository.NewUserRepository(db.Pool, logger)

	paypalGateway := payment.NewPayPalAdapter(config.PayPalConfig{ClientID: "test-client-id"}, logger)
	esewaGateway := payment.NewEsewaAdapter(config.EsewaConfig{
		MerchantCode:  "EPAYTEST",
		GatewayURL:    "https://uat.esewa.com.np/epay/main",
		VerifyURL:     verifyURL,
		ReturnBaseURL: "http://localhost:3000",
		VerifyTimeout: 5,
	}, logger)

	corr := correlator.NewPostgresCorrelator(db.Pool, logger)
	gate := auth.NewGate(userRepo, logger)

	orderService := service.NewOrderService(orderRepo, userRepo, corr, paypalGateway, esewaGateway, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	configHandler := handler.NewConfigHandler(paypalGateway, logger)

	mux := router.New(orderHandler, configHandler, gate, testAPIKey, logger)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// newVerifyServer fakes the gateway's transaction verification endpoint.
func newVerifyServer(t *testing.T, succeed bool) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if succeed {
			w.Write([]byte("<response><response_code>Success</response_code></response>"))
			return
		}
		w.Write([]byte("<response><response_code>Failure</response_code></response>"))
	}))
	t.Cleanup(server.Close)
	return server
}

func doRequest(t *testing.T, method, url string, callerID uuid.UUID, body []byte) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-API-Key", testAPIKey)
	req.Header.Set("Content-Type", "application/json")
	if callerID != uuid.Nil {
		req.Header.Set("X-User-ID", callerID.String())
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, respBody
}

func TestAPI_GetOrderAuthorization(t *testing.T) {
	db := SetupTestDB(t)
	verify := newVerifyServer(t, true)
	server := newTestServer(t, db, verify.URL)

	buyer := SeedUser(t, db.Pool, "sita", model.RoleCustomer)
	stranger := SeedUser(t, db.Pool, "hari", model.RoleCustomer)
	admin := SeedUser(t, db.Pool, "admin", model.RoleAdmin)
	order := SeedOrder(t, db.Pool, buyer.ID)

	orderURL := fmt.Sprintf("%s/api/orders/%s", server.URL, order.ID)

	// Buyer sees their own order.
	resp, body := doRequest(t, http.MethodGet, orderURL, buyer.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view model.OrderResponse
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, order.ID, view.Order.ID)
	assert.Equal(t, 119.0, view.Order.Pricing.Total)
	require.Len(t, view.Items, 1)
	require.NotNil(t, view.Buyer)
	assert.Equal(t, "sita@example.com", view.Buyer.Email)

	// Admin sees any order.
	resp, _ = doRequest(t, http.MethodGet, orderURL, admin.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A different customer is forbidden.
	resp, _ = doRequest(t, http.MethodGet, orderURL, stranger.ID, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Unknown order id is a 404.
	resp, _ = doRequest(t, http.MethodGet, fmt.Sprintf("%s/api/orders/%s", server.URL, uuid.New()), buyer.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Missing API key is rejected before anything else.
	req, err := http.NewRequest(http.MethodGet, orderURL, nil)
	require.NoError(t, err)
	rawResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	rawResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, rawResp.StatusCode)
}

func TestAPI_DirectCallbackPaymentIsIdempotent(t *testing.T) {
	db := SetupTestDB(t)
	verify := newVerifyServer(t, true)
	server := newTestServer(t, db, verify.URL)

	buyer := SeedUser(t, db.Pool, "sita", model.RoleCustomer)
	order := SeedOrder(t, db.Pool, buyer.ID)

	payURL := fmt.Sprintf("%s/api/orders/%s/pay", server.URL, order.ID)
	proof := []byte(`{"transactionRef":"TX1","status":"success"}`)

	resp, body := doRequest(t, http.MethodPost, payURL, buyer.ID, proof)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var first model.OrderResponse
	require.NoError(t, json.Unmarshal(body, &first))
	assert.True(t, first.Order.IsPaid)
	require.NotNil(t, first.Order.TransactionRef)
	assert.Equal(t, "TX1", *first.Order.TransactionRef)
	assert.Equal(t, model.PaymentMethodPayPal, first.Order.PaymentMethod)

	// The same confirmation again returns the stored state unchanged.
	resp, body = doRequest(t, http.MethodPost, payURL, buyer.ID, proof)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var second model.OrderResponse
	require.NoError(t, json.Unmarshal(body, &second))
	assert.True(t, second.Order.IsPaid)
	assert.Equal(t, *first.Order.TransactionRef, *second.Order.TransactionRef)
	assert.True(t, first.Order.PaidAt.Equal(*second.Order.PaidAt))

	// The pricing invariant holds after the transition.
	assert.True(t, second.Order.Pricing.ConsistentTotal())
}

func TestAPI_InvalidDirectProofRejected(t *testing.T) {
	db := SetupTestDB(t)
	verify := newVerifyServer(t, true)
	server := newTestServer(t, db, verify.URL)

	buyer := SeedUser(t, db.Pool, "sita", model.RoleCustomer)
	order := SeedOrder(t, db.Pool, buyer.ID)

	payURL := fmt.Sprintf("%s/api/orders/%s/pay", server.URL, order.ID)

	resp, _ := doRequest(t, http.MethodPost, payURL, buyer.ID, []byte(`{"transactionRef":"TX1","status":"FAILED"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The order stays unpaid.
	resp, body := doRequest(t, http.MethodGet, fmt.Sprintf("%s/api/orders/%s", server.URL, order.ID), buyer.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view model.OrderResponse
	require.NoError(t, json.Unmarshal(body, &view))
	assert.False(t, view.Order.IsPaid)
}

func TestAPI_RedirectPaymentFlow(t *testing.T) {
	db := SetupTestDB(t)
	verify := newVerifyServer(t, true)
	server := newTestServer(t, db, verify.URL)

	buyer := SeedUser(t, db.Pool, "sita", model.RoleCustomer)
	order := SeedOrder(t, db.Pool, buyer.ID)

	// Initiate: the backend issues the correlation and builds the form.
	resp, body := doRequest(t, http.MethodPost, fmt.Sprintf("%s/api/orders/%s/esewa", server.URL, order.ID), buyer.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var form payment.RedirectForm
	require.NoError(t, json.Unmarshal(body, &form))
	assert.Equal(t, "https://uat.esewa.com.np/epay/main", form.Action)
	assert.Equal(t, "119", form.Fields["tAmt"])
	assert.Equal(t, "EPAYTEST", form.Fields["scd"])
	correlationID := form.Fields["pid"]
	require.Len(t, correlationID, 14)

	// Initiating again while the correlation is pending conflicts.
	resp, _ = doRequest(t, http.MethodPost, fmt.Sprintf("%s/api/orders/%s/esewa", server.URL, order.ID), buyer.ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The browser returns with the correlation id as a query parameter.
	payURL := fmt.Sprintf("%s/api/orders/%s/pay?refId=%s", server.URL, order.ID, correlationID)
	resp, body = doRequest(t, http.MethodPost, payURL, buyer.ID, []byte(`{}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var paid model.OrderResponse
	require.NoError(t, json.Unmarshal(body, &paid))
	assert.True(t, paid.Order.IsPaid)
	assert.Equal(t, model.PaymentMethodEsewa, paid.Order.PaymentMethod)

	// A duplicate return (browser back-navigation) is a no-op success.
	resp, body = doRequest(t, http.MethodPost, payURL, buyer.ID, []byte(`{}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var duplicate model.OrderResponse
	require.NoError(t, json.Unmarshal(body, &duplicate))
	assert.True(t, duplicate.Order.IsPaid)
	assert.True(t, paid.Order.PaidAt.Equal(*duplicate.Order.PaidAt))

	// A forged correlation id on an unpaid order is rejected.
	other := SeedOrder(t, db.Pool, buyer.ID)
	forgedURL := fmt.Sprintf("%s/api/orders/%s/pay?refId=FORGEDID000000", server.URL, other.ID)
	resp, _ = doRequest(t, http.MethodPost, forgedURL, buyer.ID, []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_RedirectPaymentGatewayRejects(t *testing.T) {
	db := SetupTestDB(t)
	verify := newVerifyServer(t, false)
	server := newTestServer(t, db, verify.URL)

	buyer := SeedUser(t, db.Pool, "sita", model.RoleCustomer)
	order := SeedOrder(t, db.Pool, buyer.ID)

	resp, body := doRequest(t, http.MethodPost, fmt.Sprintf("%s/api/orders/%s/esewa", server.URL, order.ID), buyer.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var form payment.RedirectForm
	require.NoError(t, json.Unmarshal(body, &form))

	payURL := fmt.Sprintf("%s/api/orders/%s/pay?refId=%s", server.URL, order.ID, form.Fields["pid"])
	resp, _ = doRequest(t, http.MethodPost, payURL, buyer.ID, []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The order is never half-settled.
	resp, body = doRequest(t, http.MethodGet, fmt.Sprintf("%s/api/orders/%s", server.URL, order.ID), buyer.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view model.OrderResponse
	require.NoError(t, json.Unmarshal(body, &view))
	assert.False(t, view.Order.IsPaid)
	assert.Nil(t, view.Order.PaidAt)
}

func TestAPI_DeliveryLifecycle(t *testing.T) {
	db := SetupTestDB(t)
	verify := newVerifyServer(t, true)
	server := newTestServer(t, db, verify.URL)

	buyer := SeedUser(t, db.Pool, "sita", model.RoleCustomer)
	admin := SeedUser(t, db.Pool, "admin", model.RoleAdmin)
	order := SeedOrder(t, db.Pool, buyer.ID)

	deliverURL := fmt.Sprintf("%s/api/orders/%s/deliver", server.URL, order.ID)

	// Unpaid order cannot be delivered.
	resp, _ := doRequest(t, http.MethodPost, deliverURL, admin.ID, nil)
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)

	// Pay the order.
	payURL := fmt.Sprintf("%s/api/orders/%s/pay", server.URL, order.ID)
	resp, _ = doRequest(t, http.MethodPost, payURL, buyer.ID, []byte(`{"transactionRef":"TX1","status":"success"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Non-admin cannot deliver, regardless of state.
	resp, _ = doRequest(t, http.MethodPost, deliverURL, buyer.ID, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin delivers.
	resp, body := doRequest(t, http.MethodPost, deliverURL, admin.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var first model.OrderResponse
	require.NoError(t, json.Unmarshal(body, &first))
	assert.True(t, first.Order.IsDelivered)
	require.NotNil(t, first.Order.DeliveredAt)

	// Second delivery is a no-op success with the same timestamp.
	resp, body = doRequest(t, http.MethodPost, deliverURL, admin.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var second model.OrderResponse
	require.NoError(t, json.Unmarshal(body, &second))
	assert.True(t, first.Order.DeliveredAt.Equal(*second.Order.DeliveredAt))
}

func TestAPI_PayPalConfigEndpoint(t *testing.T) {
	db := SetupTestDB(t)
	verify := newVerifyServer(t, true)
	server := newTestServer(t, db, verify.URL)

	resp, body := doRequest(t, http.MethodGet, server.URL+"/api/config/paypal", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "test-client-id", got["clientId"])
}
