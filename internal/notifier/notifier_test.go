package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TokenBank/internal/model"
)

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "1.5", FormatAmount("1500000000000000000", 18))
	require.Equal(t, "0.000001", FormatAmount("1", 6))
	require.Equal(t, "42", FormatAmount("42", 0))
	require.Equal(t, "$200000", FormatStable("200000000000"))
}

func TestFormatEvent(t *testing.T) {
	dep := model.NewEvent(model.EventDeposit, "0xalice", model.Native, "2000000000000000000")
	require.Equal(t, "0xalice deposited 2 native", FormatEvent(dep))

	wd := model.NewEvent(model.EventWithdrawal, "0xbob", model.Asset("0xdead"), "7")
	require.Equal(t, "0xbob withdrew 7 token 0xdead", FormatEvent(wd))
}

func TestWebhookSend(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer hush", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	evt := model.NewEvent(model.EventDeposit, "0xalice", model.Native, "1000000000000000000")
	w := NewWebhook(srv.URL, "hush")
	require.NoError(t, w.Send(evt))
	require.Equal(t, evt.ID, got.Event.ID)
	require.Contains(t, got.Summary, "deposited")
}

func TestWebhookRetryGivesUp(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, "")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	evt := model.NewEvent(model.EventDeposit, "0xalice", model.Native, "1")
	err := w.SendWithRetry(ctx, evt, 1)
	require.Error(t, err)
	require.Equal(t, int32(2), hits.Load())
}

func TestWebhookDisabledWhenNoURL(t *testing.T) {
	w := NewWebhook("", "")
	require.NoError(t, w.RecordEvent(model.NewEvent(model.EventDeposit, "x", model.Native, "1")))
}
