package currency

import (
	"WaGPT/internal/config"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conf := &config.Config{}
	conf.Currency.ApiURL = srv.URL + "/currencies/{from}.json"
	return NewCurrencyService(conf, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestConvert(t *testing.T) {
	var path string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"date":"2024-05-01","usd":{"eur":0.9312345678,"gbp":0.8}}`))
	})

	got, err := svc.Convert(context.Background(), decimal.NewFromInt(10), "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "/currencies/usd.json", path)
	assert.Equal(t, "9.31235", got.String())
}

func TestConvert_UnknownTarget(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"date":"2024-05-01","usd":{"eur":0.93}}`))
	})

	_, err := svc.Convert(context.Background(), decimal.NewFromInt(1), "usd", "xyz")
	assert.Error(t, err)
}

func TestConvert_HTTPError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := svc.Convert(context.Background(), decimal.NewFromInt(1), "abc", "usd")
	assert.Error(t, err)
}
