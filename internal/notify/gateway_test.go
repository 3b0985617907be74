package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewaySendSMS(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL+"/", "relay-token")
	err := gw.SendSMS(context.Background(), "+15550100", "ward 3 alert")

	require.NoError(t, err)
	assert.Equal(t, "/v1/sms", gotPath)
	assert.Equal(t, "Bearer relay-token", gotAuth)
	assert.Equal(t, map[string]string{"to": "+15550100", "body": "ward 3 alert"}, gotBody)
}

func TestGatewaySendEmail(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, "")
	err := gw.SendEmail(context.Background(), "oncall@clinic.example", "escalation", "please review")

	require.NoError(t, err)
	assert.Equal(t, "/v1/email", gotPath)
	assert.Equal(t, "escalation", gotBody["subject"])
}

func TestGatewayRejectionIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "relay overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, "")
	err := gw.SendSMS(context.Background(), "+15550100", "x")

	assert.Error(t, err)
}

func TestGatewayUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	gw := NewGateway(srv.URL, "")
	assert.Error(t, gw.SendSMS(context.Background(), "+15550100", "x"))
}
