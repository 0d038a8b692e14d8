package paystack

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitbucket.org/skilr/backend/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return &Client{
		BaseURL:        baseURL,
		SecretKey:      "sk_test_secret",
		PathInitialize: "/transaction/initialize",
		PathVerify:     "/transaction/verify/",
		CallbackURL:    "https://dashboard.skilr.com/payments",
	}
}

func TestOpen(t *testing.T) {
	var received InitializeTransactionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transaction/initialize", r.URL.Path)
		require.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc123","access_code":"abc123","reference":"SKILR-7-1700000000"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	handoff, err := client.Open(session.CheckoutConfig{
		Email:       "ada@example.com",
		Firstname:   "Ada",
		Lastname:    "Obi",
		Phone:       "+2348000000000",
		AmountMinor: 572300,
		Reference:   "SKILR-7-1700000000",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.paystack.com/abc123", handoff.AuthorizationURL)
	assert.Equal(t, "abc123", handoff.AccessCode)
	assert.Equal(t, "SKILR-7-1700000000", handoff.Reference)

	assert.Equal(t, "ada@example.com", received.Email)
	assert.Equal(t, int64(572300), received.Amount)
	assert.Equal(t, "https://dashboard.skilr.com/payments", received.CallbackURL)
	require.Len(t, received.Metadata.CustomFields, 2)
	assert.Equal(t, "Ada Obi", received.Metadata.CustomFields[0].Value)
	assert.Equal(t, "+2348000000000", received.Metadata.CustomFields[1].Value)
}

func TestOpenRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Open(session.CheckoutConfig{Email: "ada@example.com", AmountMinor: 100})
	assert.Error(t, err)
}

func TestOpenBadStatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Open(session.CheckoutConfig{Email: "ada@example.com", AmountMinor: 100})
	assert.Error(t, err)
}

func TestVerifyTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/transaction/verify/SKILR-7-1700000000", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"success","reference":"SKILR-7-1700000000","amount":572300}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	response, err := client.VerifyTransaction("SKILR-7-1700000000")
	require.NoError(t, err)

	assert.True(t, response.Succeeded())
	assert.Equal(t, int64(572300), response.Data.Amount)
}

func TestHungProcessorTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(server.URL)
	client.HTTPClient = &http.Client{Timeout: 50 * time.Millisecond}

	start := time.Now()
	_, err := client.VerifyTransaction("SKILR-7-1700000000")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestVerifyTransactionNotSettled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"abandoned","reference":"SKILR-7-1700000000","amount":572300}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	response, err := client.VerifyTransaction("SKILR-7-1700000000")
	require.NoError(t, err)

	assert.False(t, response.Succeeded())
}
