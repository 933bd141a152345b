package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"

	"example/chessdebrief/app/config"
)

const testWebhookSecret = "whsec_test_secret"

const updateTierSQL = `UPDATE users\s+SET tier = \$1\s+WHERE stripe_customer_id = \$2`

func stripeEvent(eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test",
		"object": "event",
		"api_version": "2020-08-27",
		"type": %q,
		"data": {"object": %s}
	}`, eventType, object))
}

func signEvent(payload []byte, secret string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	}).Header
}

func TestStripeBillingWebhookTierUpdates(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		object   string
		customer string
		wantTier string
	}{
		{
			name:     "checkout sets tier from metadata",
			event:    "checkout.session.completed",
			object:   `{"id":"cs_1","object":"checkout.session","customer":"cus_elite","metadata":{"tier":"elite","user_id":"u1"}}`,
			customer: "cus_elite",
			wantTier: "elite",
		},
		{
			name:     "checkout with unknown tier falls back to pro",
			event:    "checkout.session.completed",
			object:   `{"id":"cs_2","object":"checkout.session","customer":"cus_odd","metadata":{"tier":"platinum"}}`,
			customer: "cus_odd",
			wantTier: "pro",
		},
		{
			name:     "checkout without tier metadata is pro",
			event:    "checkout.session.completed",
			object:   `{"id":"cs_3","object":"checkout.session","customer":"cus_plain"}`,
			customer: "cus_plain",
			wantTier: "pro",
		},
		{
			name:     "cancelled subscription resets to free",
			event:    "customer.subscription.deleted",
			object:   `{"id":"sub_1","object":"subscription","customer":"cus_gone"}`,
			customer: "cus_gone",
			wantTier: "free",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := withMockDB(t)
			mock.ExpectExec(updateTierSQL).
				WithArgs(tt.wantTier, tt.customer).
				WillReturnResult(sqlmock.NewResult(0, 1))

			b := &StripeBilling{cfg: config.StripeConfig{WebhookSecret: testWebhookSecret}}
			payload := stripeEvent(tt.event, tt.object)
			err := b.HandleWebhook(context.Background(), payload, signEvent(payload, testWebhookSecret))
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStripeBillingWebhookUnknownCustomerIsNotAnError(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectExec(updateTierSQL).
		WithArgs("free", "cus_missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	b := &StripeBilling{cfg: config.StripeConfig{WebhookSecret: testWebhookSecret}}
	payload := stripeEvent("customer.subscription.deleted", `{"id":"sub_2","object":"subscription","customer":"cus_missing"}`)
	require.NoError(t, b.HandleWebhook(context.Background(), payload, signEvent(payload, testWebhookSecret)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeBillingWebhookRejects(t *testing.T) {
	checkout := stripeEvent("checkout.session.completed", `{"id":"cs_1","object":"checkout.session","customer":"cus_1","metadata":{"tier":"pro"}}`)
	noCustomer := stripeEvent("checkout.session.completed", `{"id":"cs_4","object":"checkout.session","metadata":{"tier":"pro"}}`)
	subNoCustomer := stripeEvent("customer.subscription.deleted", `{"id":"sub_3","object":"subscription"}`)

	tests := []struct {
		name      string
		payload   []byte
		signature string
		check     func(t *testing.T, err error)
	}{
		{
			name:      "wrong secret",
			payload:   checkout,
			signature: signEvent(checkout, "whsec_other"),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, errBadSignature)
			},
		},
		{
			name:      "missing signature",
			payload:   checkout,
			signature: "",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, errBadSignature)
			},
		},
		{
			name:      "checkout session without customer",
			payload:   noCustomer,
			signature: signEvent(noCustomer, testWebhookSecret),
			check: func(t *testing.T, err error) {
				var verr validationError
				require.True(t, errors.As(err, &verr), "got %v", err)
				assert.Contains(t, verr.Message, "no customer")
			},
		},
		{
			name:      "subscription without customer",
			payload:   subNoCustomer,
			signature: signEvent(subNoCustomer, testWebhookSecret),
			check: func(t *testing.T, err error) {
				var verr validationError
				require.True(t, errors.As(err, &verr), "got %v", err)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := withMockDB(t)
			b := &StripeBilling{cfg: config.StripeConfig{WebhookSecret: testWebhookSecret}}
			tt.check(t, b.HandleWebhook(context.Background(), tt.payload, tt.signature))
			require.NoError(t, mock.ExpectationsWereMet(), "no tier update expected")
		})
	}
}

func TestStripeBillingWebhookIgnoresOtherEvents(t *testing.T) {
	mock := withMockDB(t)
	b := &StripeBilling{cfg: config.StripeConfig{WebhookSecret: testWebhookSecret}}
	payload := stripeEvent("invoice.paid", `{"id":"in_1","object":"invoice"}`)
	require.NoError(t, b.HandleWebhook(context.Background(), payload, signEvent(payload, testWebhookSecret)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeBillingWebhookNeedsSecret(t *testing.T) {
	b := &StripeBilling{}
	err := b.HandleWebhook(context.Background(), []byte(`{}`), "t=1,v1=abc")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStripeWebhookHandlerStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	b := &StripeBilling{cfg: config.StripeConfig{WebhookSecret: testWebhookSecret}}
	router, err := NewRouter(cfg, NewAPI(cfg, NewMockDataSource(cfg.Mock), NewMemoryWaitlistStore(), LogMailer{}, b))
	require.NoError(t, err)

	post := func(payload []byte, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(string(payload)))
		req.Header.Set("Stripe-Signature", signature)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	checkout := stripeEvent("checkout.session.completed", `{"id":"cs_1","object":"checkout.session","customer":"cus_1","metadata":{"tier":"elite"}}`)
	resp := post(checkout, signEvent(checkout, "whsec_other"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.JSONEq(t, `{"error":"signature verification failed"}`, resp.Body.String())

	noCustomer := stripeEvent("checkout.session.completed", `{"id":"cs_4","object":"checkout.session"}`)
	resp = post(noCustomer, signEvent(noCustomer, testWebhookSecret))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	mock := withMockDB(t)
	mock.ExpectExec(updateTierSQL).WithArgs("elite", "cus_1").WillReturnResult(sqlmock.NewResult(0, 1))
	resp = post(checkout, signEvent(checkout, testWebhookSecret))
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.JSONEq(t, `{"received":true}`, resp.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}
