package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(150050), ToMinor(decimal.RequireFromString("1500.50")))
	assert.Equal(t, "1500.5", FromMinor(150050).String())
}

func TestSignature(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)
	sig := Sign("sk_test", body)
	assert.Len(t, sig, 128)
	assert.True(t, ValidSignature("sk_test", body, sig))
	assert.False(t, ValidSignature("sk_test", []byte(`{"event":"charge.failed"}`), sig))
	assert.False(t, ValidSignature("sk_other", body, sig))
	assert.False(t, ValidSignature("", body, Sign("", body)))
	assert.False(t, ValidSignature("sk_test", body, ""))
}

func TestParseWebhook(t *testing.T) {
	ev, data, err := ParseWebhook([]byte(`{"event":"transfer.failed","data":{"reference":"po_1","transfer_code":"TRF_1","reason":"bank down"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventTransferFailed, ev.Event)
	assert.Equal(t, "po_1", data.Reference)
	assert.Equal(t, "TRF_1", data.TransferCode)
	assert.Equal(t, "bank down", data.Reason)

	_, _, err = ParseWebhook([]byte(`not json`))
	assert.Error(t, err)
}

func TestClient_Envelope(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/transaction/initialize":
			var in InitializeRequest
			_ = json.NewDecoder(r.Body).Decode(&in)
			_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"authorization_url":"https://pay.test/x","reference":"` + in.Reference + `"}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")
	res, err := c.Initialize(context.Background(), InitializeRequest{Email: "a@b.c", Amount: 100, Reference: "cm_1"})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.test/x", res.AuthorizationURL)
	assert.Equal(t, "cm_1", res.Reference)
	assert.Equal(t, "Bearer sk_test", gotAuth)

	_, err = c.Verify(context.Background(), "cm_1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid key", apiErr.Message)
}
